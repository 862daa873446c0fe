package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf
}

func TestReadRows_XLSX(t *testing.T) {
	buf := buildXLSX(t, [][]any{
		{"NOMBRE", "EDAD", "ESTATUS"},
		{"Ana", 30, "contratado"},
		{"Beto", 41, "no contesta"},
	})

	got, err := ReadRows(buf, "Candidatos.XLSX")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}

	want := [][]string{
		{"NOMBRE", "EDAD", "ESTATUS"},
		{"Ana", "30", "contratado"},
		{"Beto", "41", "no contesta"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRows() = %v, want %v", got, want)
	}
}

func TestReadRows_XLSX_Empty(t *testing.T) {
	buf := buildXLSX(t, nil)

	got, err := ReadRows(buf, "vacio.xlsx")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadRows() = %v, want empty grid", got)
	}
}

func TestReadRows_XLS(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "tabla.xls"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := ReadRows(f, "tabla.xls")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}

	want := [][]string{{"Code", "Name", "Description"}}
	for i := 1; i <= 11; i++ {
		want = append(want, []string{
			fmt.Sprintf("code%d", i),
			fmt.Sprintf("name%d", i),
			fmt.Sprintf("description%d", i),
		})
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRows() = %v, want %v", got, want)
	}
}

func TestReadRows_CSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "ragged rows",
			input: "NOMBRE,EDAD,ESTATUS\nAna,30\nBeto,41,baja,extra\n",
			want: [][]string{
				{"NOMBRE", "EDAD", "ESTATUS"},
				{"Ana", "30"},
				{"Beto", "41", "baja", "extra"},
			},
		},
		{
			name:  "byte order mark is stripped",
			input: "\xef\xbb\xbfNOMBRE\nCarla Núñez\n",
			want:  [][]string{{"NOMBRE"}, {"Carla Núñez"}},
		},
		{
			name:  "empty file",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRows(strings.NewReader(tt.input), "datos.csv")
			if err != nil {
				t.Fatalf("ReadRows() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadRows() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReadRows_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ReadRows(strings.NewReader("x"), "notas.txt")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ReadRows() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("corrupt xlsx", func(t *testing.T) {
		if _, err := ReadRows(strings.NewReader("not a zip"), "roto.xlsx"); err == nil {
			t.Error("ReadRows() expected error for corrupt workbook")
		}
	})

	t.Run("corrupt xls", func(t *testing.T) {
		if _, err := ReadRows(strings.NewReader("not ole2"), "roto.xls"); err == nil {
			t.Error("ReadRows() expected error for corrupt workbook")
		}
	})
}

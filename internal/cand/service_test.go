package cand_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"cand-go/internal/cand"
	"cand-go/internal/model"
	"cand-go/internal/testutil"
)

func newTestService(t *testing.T) (*cand.Service, *testutil.RecordingLogger) {
	t.Helper()
	logger := testutil.NewRecordingLogger()
	svc := cand.NewService(testutil.NewTestStore(t), testutil.NewTestDocuments(), cand.NewResetGate("1234"), logger)
	return svc, logger
}

func importSample(t *testing.T, svc *cand.Service) {
	t.Helper()
	if _, err := svc.Import(testutil.SampleGrid(), cand.NormalizeOptions{}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
}

func names(t *testing.T, svc *cand.Service) []string {
	t.Helper()
	tbl, err := svc.Table()
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := []string{}
	for _, r := range tbl.Records {
		out = append(out, r[model.ColName])
	}
	return out
}

func TestService_Import(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		svc, _ := newTestService(t)

		n, err := svc.Import([][]string{{"NOMBRE", "EDAD"}, {"Ana", "30"}}, cand.NormalizeOptions{})
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if n != 1 {
			t.Errorf("Import() = %d, want 1", n)
		}

		tbl, err := svc.Table()
		if err != nil {
			t.Fatalf("Table() error = %v", err)
		}
		want := &model.Table{
			Columns: []string{"NOMBRE", "EDAD"},
			Records: []model.Record{{"NOMBRE": "Ana", "EDAD": "30"}},
		}
		if !reflect.DeepEqual(tbl, want) {
			t.Errorf("Table() = %+v, want %+v", tbl, want)
		}
	})

	t.Run("replaces the previous table", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		if _, err := svc.Import([][]string{{"NOMBRE"}, {"Zoe"}}, cand.NormalizeOptions{}); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if got := names(t, svc); !reflect.DeepEqual(got, []string{"Zoe"}) {
			t.Errorf("names = %v, want [Zoe]", got)
		}
	})

	t.Run("empty sheet warns and keeps table", func(t *testing.T) {
		svc, logger := newTestService(t)
		importSample(t, svc)

		_, err := svc.Import(nil, cand.NormalizeOptions{})
		if !errors.Is(err, cand.ErrEmptyInput) {
			t.Fatalf("Import(nil) error = %v, want ErrEmptyInput", err)
		}
		if len(logger.Entries("WARN")) != 1 {
			t.Errorf("warnings = %v, want one", logger.Entries("WARN"))
		}
		if got := names(t, svc); len(got) != 5 {
			t.Errorf("table changed after empty import: %v", got)
		}
	})
}

func TestService_Table_DefaultColumnsBeforeImport(t *testing.T) {
	svc, _ := newTestService(t)
	tbl, err := svc.Table()
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, model.DefaultColumns()) {
		t.Errorf("Columns = %v, want defaults", tbl.Columns)
	}
	if len(tbl.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(tbl.Records))
	}
}

func TestService_DeleteRecord(t *testing.T) {
	t.Run("later records shift down", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		if err := svc.DeleteRecord(2); err != nil {
			t.Fatalf("DeleteRecord(2) error = %v", err)
		}

		want := []string{"Ana López", "Beto Ruiz", "Diego Mora", "Elena Paz"}
		if got := names(t, svc); !reflect.DeepEqual(got, want) {
			t.Errorf("names = %v, want %v", got, want)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		for _, idx := range []int{-1, 5} {
			if err := svc.DeleteRecord(idx); !cand.IsNotFound(err) {
				t.Errorf("DeleteRecord(%d) error = %v, want not found", idx, err)
			}
		}
		if got := names(t, svc); len(got) != 5 {
			t.Errorf("len = %d after failed deletes, want 5", len(got))
		}
	})
}

func TestService_UpdateRecord(t *testing.T) {
	t.Run("sets fields and normalizes age", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		err := svc.UpdateRecord(1, map[string]string{model.ColStatus: "CONTRATADO", model.ColAge: "42.0"})
		if err != nil {
			t.Fatalf("UpdateRecord() error = %v", err)
		}

		tbl, _ := svc.Table()
		rec := tbl.Records[1]
		if rec[model.ColStatus] != "CONTRATADO" || rec[model.ColAge] != "42" {
			t.Errorf("record = %v", rec)
		}
		if rec[model.ColName] != "Beto Ruiz" {
			t.Errorf("untouched field changed: %v", rec)
		}
	})

	t.Run("invalid age leaves record unchanged", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		err := svc.UpdateRecord(0, map[string]string{model.ColAge: "150", model.ColStatus: "BAJA"})
		var ae *cand.InvalidAgeError
		if !errors.As(err, &ae) {
			t.Fatalf("UpdateRecord() error = %v, want *InvalidAgeError", err)
		}

		tbl, _ := svc.Table()
		if tbl.Records[0][model.ColStatus] != "contratado" {
			t.Errorf("status changed despite error: %v", tbl.Records[0])
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		err := svc.UpdateRecord(0, map[string]string{"SALARIO": "1"})
		if !errors.Is(err, cand.ErrUnknownColumn) {
			t.Errorf("UpdateRecord() error = %v, want ErrUnknownColumn", err)
		}
	})

	t.Run("missing index", func(t *testing.T) {
		svc, _ := newTestService(t)
		if err := svc.UpdateRecord(0, map[string]string{}); !cand.IsNotFound(err) {
			t.Errorf("UpdateRecord() error = %v, want not found", err)
		}
	})
}

func TestService_InsertRecord(t *testing.T) {
	t.Run("appends with default columns before import", func(t *testing.T) {
		svc, _ := newTestService(t)

		idx, err := svc.InsertRecord(map[string]string{model.ColName: "Fer", model.ColAge: "28"})
		if err != nil {
			t.Fatalf("InsertRecord() error = %v", err)
		}
		if idx != 0 {
			t.Errorf("index = %d, want 0", idx)
		}

		tbl, _ := svc.Table()
		if len(tbl.Records) != 1 {
			t.Fatalf("len(Records) = %d, want 1", len(tbl.Records))
		}
		rec := tbl.Records[0]
		if len(rec) != len(model.DefaultColumns()) {
			t.Errorf("record has %d fields, want every column", len(rec))
		}
		if rec[model.ColName] != "Fer" || rec[model.ColAgency] != "" {
			t.Errorf("record = %v", rec)
		}
	})

	t.Run("appends after existing records", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)

		idx, err := svc.InsertRecord(map[string]string{model.ColName: "Fer", model.ColAge: "33"})
		if err != nil {
			t.Fatalf("InsertRecord() error = %v", err)
		}
		if idx != 5 {
			t.Errorf("index = %d, want 5", idx)
		}
	})

	t.Run("missing age", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.InsertRecord(map[string]string{model.ColName: "Fer"})
		var ae *cand.InvalidAgeError
		if !errors.As(err, &ae) {
			t.Fatalf("InsertRecord() error = %v, want *InvalidAgeError", err)
		}
		if tbl, _ := svc.Table(); len(tbl.Records) != 0 {
			t.Errorf("len(Records) = %d, want nothing committed", len(tbl.Records))
		}
	})

	t.Run("table without EDAD column", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.Import([][]string{{"NOMBRE"}, {"Ana"}}, cand.NormalizeOptions{}); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if _, err := svc.InsertRecord(map[string]string{model.ColName: "Fer"}); err != nil {
			t.Errorf("InsertRecord() error = %v", err)
		}
	})

	t.Run("non-numeric age", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.InsertRecord(map[string]string{model.ColAge: "veinte"})
		var ae *cand.InvalidAgeError
		if !errors.As(err, &ae) {
			t.Errorf("InsertRecord() error = %v, want *InvalidAgeError", err)
		}
	})
}

func TestService_Filter(t *testing.T) {
	svc, _ := newTestService(t)
	importSample(t, svc)

	rows, opts, err := svc.Filter(cand.Criteria{Agencies: []string{"Sur"}})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Index != 2 || rows[1].Index != 3 {
		t.Errorf("rows = %+v, want indices 2 and 3", rows)
	}
	if !reflect.DeepEqual(opts.Roles, []string{"Chofer", "Ayudante"}) {
		t.Errorf("Roles = %v", opts.Roles)
	}
}

func TestService_StatusSummary(t *testing.T) {
	svc, _ := newTestService(t)
	importSample(t, svc)

	got, err := svc.StatusSummary(cand.Criteria{Agencies: []string{"Norte"}}, true)
	if err != nil {
		t.Fatalf("StatusSummary() error = %v", err)
	}

	counts := map[string]int{}
	for _, c := range got {
		counts[c.Status] = c.Count
	}
	want := map[string]int{"CONTRATADO": 1, "NO CONTESTÓ": 1, cand.StatusOther: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}

	tbl, _ := svc.Table()
	if tbl.Records[4][model.ColStatus] != "en espera" {
		t.Errorf("stored status rewritten: %q", tbl.Records[4][model.ColStatus])
	}
}

func TestService_Reset(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		confirmed bool
		wantErr   error
		wantLen   int
	}{
		{name: "wrong secret", secret: "0000", confirmed: true, wantErr: cand.ErrAccessDenied, wantLen: 5},
		{name: "not confirmed", secret: "1234", confirmed: false, wantErr: cand.ErrNotConfirmed, wantLen: 5},
		{name: "success", secret: "1234", confirmed: true, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			importSample(t, svc)

			err := svc.Reset(tt.secret, tt.confirmed)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Reset() error = %v, want %v", err, tt.wantErr)
			}
			if got := names(t, svc); len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestService_Documents(t *testing.T) {
	t.Run("upload list download delete", func(t *testing.T) {
		svc, _ := newTestService(t)

		content := "contenido"
		if _, err := svc.UploadDocument(7, "Contrato", strings.NewReader(content), int64(len(content)), "contrato firmado.PDF"); err != nil {
			t.Fatalf("UploadDocument() error = %v", err)
		}
		if _, err := svc.UploadDocument(7, "MX04 - CURP", strings.NewReader("c"), 1, "curp.docx"); err != nil {
			t.Fatalf("UploadDocument() error = %v", err)
		}

		got, err := svc.ListDocuments(7)
		if err != nil {
			t.Fatalf("ListDocuments() error = %v", err)
		}
		if want := []string{"Contrato.pdf", "MX04 - CURP.docx"}; !reflect.DeepEqual(got, want) {
			t.Errorf("ListDocuments() = %v, want %v", got, want)
		}

		var buf bytes.Buffer
		if err := svc.DownloadDocument(7, "Contrato.pdf", &buf); err != nil {
			t.Fatalf("DownloadDocument() error = %v", err)
		}
		if buf.String() != content {
			t.Errorf("DownloadDocument() = %q, want %q", buf.String(), content)
		}

		if err := svc.DeleteDocument(7, "Contrato.pdf"); err != nil {
			t.Fatalf("DeleteDocument() error = %v", err)
		}
		if got, _ := svc.ListDocuments(7); len(got) != 1 {
			t.Errorf("ListDocuments() after delete = %v", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.UploadDocument(1, "Pasaporte", strings.NewReader("x"), 1, "p.pdf")
		if !errors.Is(err, cand.ErrUnknownDocumentType) {
			t.Errorf("unknown key error = %v, want ErrUnknownDocumentType", err)
		}
		_, err = svc.UploadDocument(1, "Contrato", strings.NewReader("x"), 1, "c.jpg")
		if !errors.Is(err, cand.ErrUnsupportedExtension) {
			t.Errorf("jpg error = %v, want ErrUnsupportedExtension", err)
		}
		if _, err := svc.ListDocuments(-1); !cand.IsNotFound(err) {
			t.Errorf("ListDocuments(-1) error = %v, want not found", err)
		}
	})

	t.Run("new candidate has empty folder", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.DocumentFolder(3); err != nil {
			t.Fatalf("DocumentFolder() error = %v", err)
		}
		got, err := svc.ListDocuments(3)
		if err != nil {
			t.Fatalf("ListDocuments() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ListDocuments() = %v, want empty", got)
		}
	})

	t.Run("documents stay with the index after a delete", func(t *testing.T) {
		svc, _ := newTestService(t)
		importSample(t, svc)
		if _, err := svc.UploadDocument(4, "Contrato", strings.NewReader("e"), 1, "e.pdf"); err != nil {
			t.Fatalf("UploadDocument() error = %v", err)
		}
		if err := svc.DeleteRecord(0); err != nil {
			t.Fatalf("DeleteRecord() error = %v", err)
		}
		got, _ := svc.ListDocuments(4)
		if len(got) != 1 {
			t.Errorf("ListDocuments(4) = %v, want folder untouched", got)
		}
	})
}

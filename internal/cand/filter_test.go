package cand

import (
	"reflect"
	"testing"

	"cand-go/internal/model"
)

func filterFixture() []model.Record {
	return []model.Record{
		{model.ColAgency: "Norte", model.ColRole: "Chofer", model.ColName: "Ana López", model.ColStatus: "CONTRATADO"},
		{model.ColAgency: "Norte", model.ColRole: "Almacenista", model.ColName: "Beto Ruiz", model.ColStatus: "BAJA"},
		{model.ColAgency: "Sur", model.ColRole: "Chofer", model.ColName: "Carla Núñez", model.ColStatus: "EN PROCESO"},
		{model.ColAgency: "Sur", model.ColRole: "Ayudante", model.ColName: "Diego Mora", model.ColStatus: ""},
		{model.ColAgency: "Norte", model.ColRole: "Chofer", model.ColName: "Elena Paz", model.ColStatus: "BAJA"},
	}
}

func indices(rows []model.Row) []int {
	out := []int{}
	for _, r := range rows {
		out = append(out, r.Index)
	}
	return out
}

func TestApply(t *testing.T) {
	records := filterFixture()

	tests := []struct {
		name     string
		criteria Criteria
		want     []int
	}{
		{name: "no criteria returns everything", criteria: Criteria{}, want: []int{0, 1, 2, 3, 4}},
		{name: "single agency", criteria: Criteria{Agencies: []string{"Sur"}}, want: []int{2, 3}},
		{name: "any of several roles", criteria: Criteria{Roles: []string{"Ayudante", "Almacenista"}}, want: []int{1, 3}},
		{name: "dimensions combine with AND", criteria: Criteria{Agencies: []string{"Norte"}, Statuses: []string{"BAJA"}}, want: []int{1, 4}},
		{name: "name substring is case-insensitive", criteria: Criteria{NameContains: "  núñez"}, want: []int{2}},
		{name: "name with other filters", criteria: Criteria{Roles: []string{"Chofer"}, NameContains: "a"}, want: []int{0, 2, 4}},
		{name: "unmatched value yields empty", criteria: Criteria{Agencies: []string{"Centro"}}, want: []int{}},
		{name: "status is matched verbatim", criteria: Criteria{Statuses: []string{"baja"}}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(records, tt.criteria)
			if !reflect.DeepEqual(indices(got), tt.want) {
				t.Errorf("Apply() indices = %v, want %v", indices(got), tt.want)
			}
			for _, row := range got {
				if !reflect.DeepEqual(row.Record, records[row.Index]) {
					t.Errorf("row %d does not carry its original record", row.Index)
				}
			}
		})
	}
}

func TestApply_AddingCriteriaNeverGrowsResult(t *testing.T) {
	records := filterFixture()
	steps := []Criteria{
		{},
		{Agencies: []string{"Norte"}},
		{Agencies: []string{"Norte"}, Roles: []string{"Chofer"}},
		{Agencies: []string{"Norte"}, Roles: []string{"Chofer"}, Statuses: []string{"BAJA"}},
		{Agencies: []string{"Norte"}, Roles: []string{"Chofer"}, Statuses: []string{"BAJA"}, NameContains: "zzz"},
	}

	prev := len(records)
	for i, c := range steps {
		n := len(Apply(records, c))
		if n > prev {
			t.Errorf("step %d: %d rows, previous step had %d", i, n, prev)
		}
		prev = n
	}
}

func TestOptions(t *testing.T) {
	records := filterFixture()

	t.Run("no selection offers every value", func(t *testing.T) {
		got := Options(records, Criteria{})
		want := FilterOptions{
			Agencies: []string{"Norte", "Sur"},
			Roles:    []string{"Chofer", "Almacenista", "Ayudante"},
			Statuses: []string{"CONTRATADO", "BAJA", "EN PROCESO"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Options() = %+v, want %+v", got, want)
		}
	})

	t.Run("roles and statuses cascade from agency and role", func(t *testing.T) {
		got := Options(records, Criteria{Agencies: []string{"Sur"}, Roles: []string{"Chofer"}})
		want := FilterOptions{
			Agencies: []string{"Norte", "Sur"},
			Roles:    []string{"Chofer", "Ayudante"},
			Statuses: []string{"EN PROCESO"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Options() = %+v, want %+v", got, want)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		got := Options(nil, Criteria{})
		if len(got.Agencies)+len(got.Roles)+len(got.Statuses) != 0 {
			t.Errorf("Options(nil) = %+v, want empty", got)
		}
	})
}

package query

import (
	"encoding/json"
	"testing"
)

func TestRow_Get(t *testing.T) {
	row := NewRow([]string{"id", "title", "id"}, []interface{}{int64(1), "Star Wars", int64(7)})

	if v, ok := row.Get("title"); !ok || v != "Star Wars" {
		t.Errorf("Get(title) = %v, %v", v, ok)
	}
	if v, _ := row.Get("id"); v != int64(1) {
		t.Errorf("Get(id) should return the first id, got %v", v)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
	if row.At(2) != int64(7) {
		t.Errorf("At(2) = %v, want 7", row.At(2))
	}
	if row.Len() != 3 {
		t.Errorf("Len() = %d, want 3", row.Len())
	}
}

func TestRow_Map(t *testing.T) {
	row := NewRow([]string{"id", "name", "id"}, []interface{}{int64(1), "Harrison Ford", int64(2)})
	m := row.Map()

	if len(m) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(m))
	}
	if m["id"] != int64(1) {
		t.Errorf("Expected first id to win, got %v", m["id"])
	}
	if m["name"] != "Harrison Ford" {
		t.Errorf("Expected name, got %v", m["name"])
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{
			name: "keeps column order",
			row:  NewRow([]string{"title", "count", "artist"}, []interface{}{"Blur", int64(4), "Blur"}),
			want: `{"title":"Blur","count":4,"artist":"Blur"}`,
		},
		{
			name: "null value",
			row:  NewRow([]string{"title", "price"}, []interface{}{"Christmas Classics", nil}),
			want: `{"title":"Christmas Classics","price":null}`,
		},
		{
			name: "duplicate column written once",
			row:  NewRow([]string{"id", "id"}, []interface{}{int64(1), int64(2)}),
			want: `{"id":1}`,
		},
		{
			name: "empty row",
			row:  NewRow(nil, nil),
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.row)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResult_Maps(t *testing.T) {
	cols := []string{"name"}
	result := &Result{
		Columns: cols,
		Rows: []Row{
			NewRow(cols, []interface{}{"Jack Lemmon"}),
			NewRow(cols, []interface{}{"Walter Matthau"}),
		},
		RowCount: 2,
	}

	maps := result.Maps()
	if len(maps) != 2 {
		t.Fatalf("Expected 2 maps, got %d", len(maps))
	}
	if maps[1]["name"] != "Walter Matthau" {
		t.Errorf("Unexpected second map: %v", maps[1])
	}
}

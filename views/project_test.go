// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

func TestProjectionRows(t *testing.T) {
	doc := gjson.Parse(`{"network-instance":[
		{"name":"default","ok":true,"peers":[{"addr":"a"},{"addr":"b","tags":["x","y"]}]},
		{"name":"empty","ok":true},
		{"name":"hidden","ok":false,"peers":[{"addr":"c"}]},
		{"name":"single","ok":true,"peers":{"addr":"d"}}
	]}`)
	p := Projection{
		{Each: "network-instance", Where: "ok", Fields: []Field{{Column: "NI", Path: "name"}}},
		{Each: "peers", Fields: []Field{
			{Column: "peer", Path: "addr"},
			{Column: "tags", Path: "tags", Join: ","},
		}},
	}

	if got, want := p.Columns(), []string{"NI", "peer", "tags"}; !cmp.Equal(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
	if got := p.groups(); got != 1 {
		t.Errorf("groups() = %d, want 1", got)
	}

	tbl := Table{Columns: p.Columns(), Rows: p.Rows(doc)}
	want := [][]string{
		{"default", "a", ""},
		{"default", "b", "x,y"},
		{"empty", "", ""},
		{"single", "d", ""},
	}
	if diff := cmp.Diff(want, tbl.Cells()); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectionNoPaddingWithoutParentColumns(t *testing.T) {
	doc := gjson.Parse(`{"interface":[{"name":"e1"},{"name":"e2","neighbor":[{"id":"n1"}]}]}`)
	p := Projection{
		{Each: "interface"},
		{Each: "neighbor", Fields: []Field{{Column: "id", Path: "id"}}},
	}
	rows := p.Rows(doc)
	if len(rows) != 1 {
		t.Fatalf("Rows() = %v, want one row", rows)
	}
	if v, _ := rows[0].Get("id"); Cell(v) != "n1" {
		t.Errorf("Rows()[0] = %v, want id n1", rows[0])
	}
}

func TestProjectionEmpty(t *testing.T) {
	if rows := (Projection{}).Rows(gjson.Parse(`{"a":1}`)); rows != nil {
		t.Errorf("Rows() = %v, want nil", rows)
	}
	p := Projection{{Each: "missing", Fields: []Field{{Column: "x", Path: "x"}}}}
	if rows := p.Rows(gjson.Parse(`{"a":1}`)); len(rows) != 0 {
		t.Errorf("Rows() = %v, want none", rows)
	}
}

func TestDispatchSelect(t *testing.T) {
	d := Dispatch[string]{
		{Match: Prefix("2021-", "2022-"), Spec: "v1"},
		{Match: Prefix("2023-03"), Spec: "v2"},
		{Match: Prefix("2024-"), Spec: "v3"},
	}
	tests := []struct {
		version string
		want    string
		fell    bool
	}{
		{"2021-11-30", "v1", false},
		{"2022-06-30", "v1", false},
		{"2023-03-31", "v2", false},
		{"2024-10-31", "v3", false},
		{"2023-10-31", "v3", true},
		{"", "v3", true},
	}
	for _, tt := range tests {
		got, err := d.Select("srl_nokia-bgp", tt.version)
		if got != tt.want {
			t.Errorf("Select(%q) = %q, want %q", tt.version, got, tt.want)
		}
		var unsupported *UnsupportedSchemaVersionError
		if fell := errors.As(err, &unsupported); fell != tt.fell {
			t.Errorf("Select(%q) error = %v, want fallback %v", tt.version, err, tt.fell)
		}
	}
}

func TestRelativeExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ts   string
		want string
	}{
		{"2025-03-01T12:04:00.000Z", "4m0s"},
		{"2025-03-01T12:00:30.750Z", "30s"},
		{"2025-03-01T11:59:00Z", "-1m0s"},
		{"", "-"},
		{"soon", "-"},
	}
	for _, tt := range tests {
		if got := relativeExpiry(tt.ts, now); got != tt.want {
			t.Errorf("relativeExpiry(%q) = %q, want %q", tt.ts, got, tt.want)
		}
	}
}

func TestEachWithKey(t *testing.T) {
	doc := gjson.Parse(`{"a":{"b/c":[{"attr-id":1},{"x":{"attr-id":2}}]},"attr-id-less":{}}`)
	var paths []string
	eachWithKey(doc, "", "attr-id", func(_ gjson.Result, path string) {
		paths = append(paths, path)
	})
	want := []string{`a.b\/c.0`, `a.b\/c.1.x`}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("eachWithKey() paths mismatch (-want +got):\n%s", diff)
	}
	for _, p := range paths {
		if !doc.Get(p + ".attr-id").Exists() {
			t.Errorf("path %q does not resolve", p)
		}
	}
}

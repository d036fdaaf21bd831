// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/netascode/go-gnmi-intent/value"
)

// Field is one column read from a record.
type Field struct {
	Column string
	// Path is a gjson path relative to the record. Multipaths and
	// modifiers are allowed, e.g. "[ipv4.address.#.ip-prefix,ipv6.address.#.ip-prefix]|@flatten".
	Path string
	// Join, when set, renders an array result as one string.
	Join string
}

func (f Field) read(rec gjson.Result) value.Value {
	res := rec.Get(f.Path)
	if f.Join == "" || !res.IsArray() {
		return value.FromResult(res)
	}
	parts := make([]string, 0, len(res.Array()))
	for _, item := range res.Array() {
		parts = append(parts, item.String())
	}
	return value.Str(strings.Join(parts, f.Join))
}

// Level selects the records at Each, relative to the enclosing record,
// and reads Fields from every one of them. An object at Each counts as a
// single record.
type Level struct {
	Each   string
	Fields []Field
	// Where drops records for which the path is not true.
	Where string
}

// Projection flattens a nested document into rows, one level per
// nesting step. Every row carries the columns of all levels above it.
type Projection []Level

// Columns returns the column names in row order.
func (p Projection) Columns() []string {
	var out []string
	for _, l := range p {
		for _, f := range l.Fields {
			out = append(out, f.Column)
		}
	}
	return out
}

// groups is the number of leading columns owned by enclosing records.
func (p Projection) groups() int {
	n := 0
	for _, l := range p[:max(len(p)-1, 0)] {
		n += len(l.Fields)
	}
	return n
}

// Rows projects doc. A record whose children are all missing still
// yields one row, with nulls in the child columns, as long as some level
// above it contributed columns.
func (p Projection) Rows(doc gjson.Result) []value.Value {
	if len(p) == 0 {
		return nil
	}
	return p.rows(doc, 0, nil)
}

func (p Projection) rows(rec gjson.Result, depth int, prefix []value.Field) []value.Value {
	if depth == len(p) {
		return []value.Value{value.Object(prefix...)}
	}
	lvl := p[depth]
	var out []value.Value
	for _, r := range records(rec, lvl.Each) {
		if lvl.Where != "" && !r.Get(lvl.Where).Bool() {
			continue
		}
		fields := slices.Clip(prefix)
		for _, f := range lvl.Fields {
			fields = append(fields, value.F(f.Column, f.read(r)))
		}
		out = append(out, p.rows(r, depth+1, fields)...)
	}
	if len(out) == 0 && depth > 0 && len(prefix) > 0 {
		fields := slices.Clip(prefix)
		for _, col := range p[depth:].Columns() {
			fields = append(fields, value.F(col, value.Null()))
		}
		return []value.Value{value.Object(fields...)}
	}
	return out
}

func records(rec gjson.Result, each string) []gjson.Result {
	res := rec
	if each != "" {
		res = rec.Get(each)
	}
	switch {
	case res.IsArray():
		return res.Array()
	case res.IsObject():
		return []gjson.Result{res}
	}
	return nil
}

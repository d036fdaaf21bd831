// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/netascode/go-gnmi-intent/value"
)

// Table is the result of a report. Every row is an object keyed by the
// column names.
type Table struct {
	Report  string
	Columns []string
	// Groups is the number of leading columns that describe an
	// enclosing record (a network instance, an interface). Text prints
	// them only when they change.
	Groups int
	Rows   []value.Value
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// column resolves name against the table columns, ignoring case and
// treating '_' as '-'.
func (t Table) column(name string) (string, bool) {
	want := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	for _, c := range t.Columns {
		if strings.ReplaceAll(strings.ToLower(c), "_", "-") == want {
			return c, true
		}
	}
	return "", false
}

// Filter keeps the rows whose cells match every glob pattern in filters,
// keyed by column name. Unknown columns and malformed patterns are
// errors.
func (t Table) Filter(filters map[string]string) (Table, error) {
	if len(filters) == 0 {
		return t, nil
	}
	cols := make(map[string]string, len(filters))
	for name, pattern := range filters {
		col, ok := t.column(name)
		if !ok {
			return t, fmt.Errorf("views: %s has no column %q", t.Report, name)
		}
		if !doublestar.ValidatePattern(pattern) {
			return t, fmt.Errorf("views: filter %s=%s: %w", name, pattern, doublestar.ErrBadPattern)
		}
		cols[col] = pattern
	}

	out := t
	out.Rows = nil
	for _, row := range t.Rows {
		keep := true
		for col, pattern := range cols {
			cell, _ := row.Get(col)
			if !matchCell(pattern, Cell(cell)) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Select keeps the columns whose name matches one of the glob patterns,
// case-insensitively. Group columns are always kept.
func (t Table) Select(patterns ...string) (Table, error) {
	if len(patterns) == 0 {
		return t, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return t, fmt.Errorf("views: field %s: %w", p, doublestar.ErrBadPattern)
		}
	}

	out := Table{Report: t.Report, Groups: t.Groups}
	for i, c := range t.Columns {
		if i < t.Groups || matchAny(patterns, strings.ToLower(c)) {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, row := range t.Rows {
		fields := make([]value.Field, 0, len(out.Columns))
		for _, c := range out.Columns {
			v, _ := row.Get(c)
			fields = append(fields, value.F(c, v))
		}
		out.Rows = append(out.Rows, value.Object(fields...))
	}
	return out, nil
}

// matchCell globs a cell value. Cells are not paths, so '/' is matched
// like any other character.
func matchCell(pattern, cell string) bool {
	ok, _ := doublestar.Match(strings.ReplaceAll(pattern, "/", "\u2215"), strings.ReplaceAll(cell, "/", "\u2215"))
	return ok
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), s); ok {
			return true
		}
	}
	return false
}

// Merge stacks tables of the same report and prefixes every row with a
// column holding its label, typically the host name.
func Merge(column string, labels []string, tables []Table) Table {
	var out Table
	for i, t := range tables {
		if out.Columns == nil && t.Columns != nil {
			out = Table{Report: t.Report, Columns: append([]string{column}, t.Columns...), Groups: t.Groups + 1}
		}
		for _, row := range t.Rows {
			fields := append([]value.Field{value.F(column, value.Str(labels[i]))}, row.Fields()...)
			out.Rows = append(out.Rows, value.Object(fields...))
		}
	}
	return out
}

// Cells renders every row as strings in column order.
func (t Table) Cells() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			v, _ := row.Get(c)
			cells[j] = Cell(v)
		}
		out[i] = cells
	}
	return out
}

// Text writes t as aligned columns. Group columns that repeat the row
// above are left blank.
func (t Table) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))

	var prev []string
	for _, cells := range t.Cells() {
		line := cells
		if prev != nil && t.Groups > 0 && slices.Equal(prev[:t.Groups], cells[:t.Groups]) {
			line = append(make([]string, t.Groups), cells[t.Groups:]...)
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
		prev = cells
	}
	return tw.Flush()
}

// Cell renders a value for display. Null is empty, lists are space
// separated and maps are compact JSON.
func Cell(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'f', -1, 64)
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case value.KindList:
		parts := make([]string, 0, v.Len())
		for _, item := range v.Items() {
			parts = append(parts, Cell(item))
		}
		return strings.Join(parts, " ")
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return v.GoString()
	}
	return string(data)
}

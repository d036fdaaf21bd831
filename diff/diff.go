// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package diff compares configuration trees.
//
// Trees are rendered to a canonical text form (object keys sorted at every
// level, two-space indentation) and compared line by line, producing a
// unified diff with five lines of context. Trees that differ only in map
// construction order therefore never report a change.
package diff

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	diffv3 "github.com/r3labs/diff/v3"

	"github.com/netascode/go-gnmi-intent/value"
)

// ContextLines is the number of unchanged lines around each hunk.
const ContextLines = 5

// Result is the outcome of comparing two trees.
type Result struct {
	Changed bool
	Text    string
}

// Change is one leaf-level difference between two trees.
type Change struct {
	Type string   `json:"type"`
	Path []string `json:"path"`
	From any      `json:"from,omitempty"`
	To   any      `json:"to,omitempty"`
}

// Canonical renders v as indented JSON with sorted keys. Values that
// cannot be encoded as JSON (NaN, Inf) are rendered with their Go
// representation so the function never fails.
func Canonical(v value.Value) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.Interface()); err != nil {
		return v.GoString() + "\n"
	}
	return buf.String()
}

// Diff compares a and b. The labels name the two sides in the diff header.
func Diff(a value.Value, aLabel string, b value.Value, bLabel string) Result {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(Canonical(a)),
		B:        difflib.SplitLines(Canonical(b)),
		FromFile: aLabel,
		ToFile:   bLabel,
		Context:  ContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		// only returned on writer failures, which a string builder never has
		return Result{Changed: !a.Equal(b)}
	}
	return Result{Changed: text != "", Text: text}
}

// Changes lists leaf differences from a to b. List order is significant.
// Trees of different shape at the top level yield a single update.
func Changes(a, b value.Value) []Change {
	if a.Equal(b) {
		return nil
	}
	whole := []Change{{Type: diffv3.UPDATE, Path: []string{}, From: a.Interface(), To: b.Interface()}}
	if a.Kind() != b.Kind() || a.Kind() != value.KindMap {
		return whole
	}
	cl, err := diffv3.Diff(a.Interface(), b.Interface(), diffv3.AllowTypeMismatch(true), diffv3.SliceOrdering(true))
	if err != nil {
		return whole
	}
	out := make([]Change, 0, len(cl))
	for _, c := range cl {
		out = append(out, Change{Type: c.Type, Path: c.Path, From: c.From, To: c.To})
	}
	return out
}

// PathString joins a change path for display.
func (c Change) PathString() string {
	return "/" + strings.Join(c.Path, "/")
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Body is an immutable JSON document builder. Every method returns a new
// Body; the first error sticks and turns later calls into no-ops.
//
//	v, err := gnmi.Body{}.
//	    Set("description", "uplink").
//	    Set("admin-state", "enable").
//	    Set("subinterface.0.index", 0).
//	    String()
type Body struct {
	str string
	err error
}

// NewBody starts from an existing JSON document.
func NewBody(json string) Body {
	if json != "" && !gjson.Valid(json) {
		return Body{err: fmt.Errorf("NewBody: invalid JSON")}
	}
	return Body{str: json}
}

// Set stores value at an sjson path ("a.b.0.c").
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}
	result, err := sjson.Set(b.str, path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetRaw stores a pre-encoded JSON fragment at path.
func (b Body) SetRaw(path, raw string) Body {
	if b.err != nil {
		return b
	}
	result, err := sjson.SetRaw(b.str, path, raw)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Delete removes path.
func (b Body) Delete(path string) Body {
	if b.err != nil {
		return b
	}
	result, err := sjson.Delete(b.str, path)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Body{str: result}
}

// Get reads path from the document built so far.
func (b Body) Get(path string) gjson.Result {
	return gjson.Get(b.str, path)
}

// String returns the document and the first error.
func (b Body) String() (string, error) {
	return b.str, b.err
}

// Err returns the first error.
func (b Body) Err() error {
	return b.err
}

// Res returns the document, or "" after an error.
func (b Body) Res() string {
	if b.err != nil {
		return ""
	}
	return b.str
}

// Bytes returns the document as bytes.
func (b Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(b.str), nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import "time"

// Req holds per-request settings applied through request modifiers such
// as GetEncoding, DataType and Timeout.
type Req struct {
	// Encoding defaults to json_ietf.
	Encoding string

	// DataType restricts Get to config, state, all or operational data.
	// Defaults to config. Ignored by Set.
	DataType string

	// Timeout bounds a single attempt. Zero falls back to the context
	// deadline or the client's OperationTimeout.
	Timeout time.Duration
}

func newReq(mods []func(*Req)) *Req {
	req := &Req{
		Encoding: EncodingJSONIETF,
		DataType: DataTypeConfig,
	}
	for _, mod := range mods {
		mod(req)
	}
	return req
}

// SetOperationType is the write mode of a SetOperation.
type SetOperationType string

const (
	OperationUpdate  SetOperationType = "update"
	OperationReplace SetOperationType = "replace"
	OperationDelete  SetOperationType = "delete"
)

// Valid reports whether t is one of the three write modes.
func (t SetOperationType) Valid() bool {
	switch t {
	case OperationUpdate, OperationReplace, OperationDelete:
		return true
	}
	return false
}

// SetOperation is one entry of a Set request. Value is ignored for
// deletes.
type SetOperation struct {
	OperationType SetOperationType
	Path          string
	Value         string
	Encoding      string
}

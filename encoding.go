// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import "fmt"

// gNMI encodings accepted by Get and Set.
const (
	EncodingJSON     = "json"
	EncodingJSONIETF = "json_ietf"
	EncodingProto    = "proto"
	EncodingASCII    = "ascii"
	EncodingBytes    = "bytes"
)

// ValidEncodings lists every accepted encoding.
var ValidEncodings = []string{
	EncodingJSON,
	EncodingJSONIETF,
	EncodingProto,
	EncodingASCII,
	EncodingBytes,
}

// ValidateEncoding returns an error for unknown encodings.
func ValidateEncoding(enc string) error {
	for _, valid := range ValidEncodings {
		if enc == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid encoding: %s (valid values: json, json_ietf, proto, ascii, bytes)", enc)
}

// Get data types.
const (
	DataTypeConfig      = "config"
	DataTypeState       = "state"
	DataTypeAll         = "all"
	DataTypeOperational = "operational"
)

// ValidDataTypes lists every accepted Get data type.
var ValidDataTypes = []string{
	DataTypeConfig,
	DataTypeState,
	DataTypeAll,
	DataTypeOperational,
}

// ValidateDataType returns an error for unknown data types.
func ValidateDataType(dt string) error {
	for _, valid := range ValidDataTypes {
		if dt == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid data type: %s (valid values: config, state, all, operational)", dt)
}

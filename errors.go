// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotConnected is returned when an operation runs on a closed client.
var ErrNotConnected = errors.New("gnmi: client not connected")

// GnmiError is returned by every RPC of Client. It carries the gRPC error
// details and the retry history, and unwraps to the underlying cause.
type GnmiError struct {
	// Operation is "get", "set" or "capabilities".
	Operation string
	Target    string
	Errors    []ErrorModel
	Message   string
	Retries   int

	// IsTransient is true when the final failure had a retryable code.
	IsTransient bool

	cause error
}

func (e *GnmiError) Error() string {
	if e.Retries > 0 {
		return fmt.Sprintf("gnmi: %s %s failed: %s (retries: %d)", e.Target, e.Operation, e.Message, e.Retries)
	}
	return fmt.Sprintf("gnmi: %s %s failed: %s", e.Target, e.Operation, e.Message)
}

func (e *GnmiError) Unwrap() error {
	return e.cause
}

// Code returns the gRPC code of the first error model, or codes.Unknown.
func (e *GnmiError) Code() codes.Code {
	if len(e.Errors) == 0 {
		return codes.Unknown
	}
	return codes.Code(e.Errors[0].Code)
}

// ErrorModel is a flattened gRPC status.
type ErrorModel struct {
	Code    uint32
	Message string
	Details string
}

// TransientError lists a gRPC code that is worth retrying.
type TransientError struct {
	Code uint32
}

// TransientErrors are retried with backoff. Everything else fails
// immediately.
var TransientErrors = []TransientError{
	{Code: uint32(codes.Unavailable)},
	{Code: uint32(codes.ResourceExhausted)},
	{Code: uint32(codes.DeadlineExceeded)},
	{Code: uint32(codes.Aborted)},
}

func newGnmiError(op, target string, err error, retries int) *GnmiError {
	models := errorModels(err)
	return &GnmiError{
		Operation:   op,
		Target:      target,
		Errors:      models,
		Message:     models[0].Message,
		Retries:     retries,
		IsTransient: isTransient(models),
		cause:       err,
	}
}

func errorModels(err error) []ErrorModel {
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return []ErrorModel{{
			Code:    uint32(st.Code()),
			Message: st.Message(),
			Details: st.String(),
		}}
	}
	return []ErrorModel{{Code: uint32(codes.Unknown), Message: err.Error()}}
}

func isTransient(models []ErrorModel) bool {
	for _, m := range models {
		for _, t := range TransientErrors {
			if t.Code == m.Code {
				return true
			}
		}
	}
	return false
}

// needsReconnect reports whether err indicates a broken channel.
func needsReconnect(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unavailable || st.Code() == codes.DeadlineExceeded
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGnmiErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *GnmiError
		want string
	}{
		{
			name: "no retries",
			err:  &GnmiError{Operation: "get", Target: "leaf1", Message: "path not found"},
			want: "gnmi: leaf1 get failed: path not found",
		},
		{
			name: "with retries",
			err:  &GnmiError{Operation: "set", Target: "spine1", Message: "unavailable", Retries: 3},
			want: "gnmi: spine1 set failed: unavailable (retries: 3)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewGnmiError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      codes.Code
		wantTransient bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), codes.Unavailable, true},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), codes.ResourceExhausted, true},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), codes.DeadlineExceeded, true},
		{"aborted", status.Error(codes.Aborted, "txn"), codes.Aborted, true},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad path"), codes.InvalidArgument, false},
		{"not found", status.Error(codes.NotFound, "no such path"), codes.NotFound, false},
		{"plain error", errors.New("boom"), codes.Unknown, false},
		{"wrapped status", fmt.Errorf("dial: %w", status.Error(codes.Unavailable, "x")), codes.Unavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gerr := newGnmiError("get", "leaf1", tt.err, 1)
			if gerr.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", gerr.Code(), tt.wantCode)
			}
			if gerr.IsTransient != tt.wantTransient {
				t.Errorf("IsTransient = %v, want %v", gerr.IsTransient, tt.wantTransient)
			}
			if !errors.Is(gerr, tt.err) {
				t.Error("errors.Is(gerr, cause) = false")
			}
			if gerr.Retries != 1 {
				t.Errorf("Retries = %d, want 1", gerr.Retries)
			}
		})
	}
}

func TestGnmiErrorAs(t *testing.T) {
	cause := status.Error(codes.PermissionDenied, "denied")
	err := fmt.Errorf("reconcile leaf1: %w", newGnmiError("set", "leaf1", cause, 0))

	var gerr *GnmiError
	if !errors.As(err, &gerr) {
		t.Fatal("errors.As() = false")
	}
	if gerr.Operation != "set" || gerr.Message != "denied" {
		t.Errorf("GnmiError = %+v", gerr)
	}
	if st, _ := status.FromError(errors.Unwrap(gerr)); st.Code() != codes.PermissionDenied {
		t.Errorf("unwrapped code = %v", st.Code())
	}
}

func TestNeedsReconnect(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, ""), true},
		{status.Error(codes.DeadlineExceeded, ""), true},
		{status.Error(codes.ResourceExhausted, ""), false},
		{errors.New("x"), false},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := needsReconnect(tt.err); got != tt.want {
			t.Errorf("needsReconnect(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestTransientErrorsCoverage(t *testing.T) {
	want := map[codes.Code]bool{
		codes.Unavailable:       true,
		codes.ResourceExhausted: true,
		codes.DeadlineExceeded:  true,
		codes.Aborted:           true,
	}
	if len(TransientErrors) != len(want) {
		t.Fatalf("len(TransientErrors) = %d, want %d", len(TransientErrors), len(want))
	}
	for _, te := range TransientErrors {
		if !want[codes.Code(te.Code)] {
			t.Errorf("unexpected transient code %v", codes.Code(te.Code))
		}
	}
}

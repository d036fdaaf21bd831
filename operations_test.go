// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	target "github.com/openconfig/gnmic/pkg/api/target"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// newTestClient returns a client that believes it is connected so do
// never dials. Calls must not rely on the target.
func newTestClient(maxRetries int) *Client {
	return &Client{
		Target:             "leaf1",
		Port:               DefaultPort,
		target:             &target.Target{},
		connected:          true,
		OperationTimeout:   time.Second,
		MaxRetries:         maxRetries,
		BackoffMinDelay:    time.Millisecond,
		BackoffMaxDelay:    2 * time.Millisecond,
		BackoffDelayFactor: 2,
		logger:             &NoOpLogger{},
		redactionPatterns:  defaultRedactionPatterns,
	}
}

func TestSetOperationBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  SetOperation
		want SetOperation
	}{
		{
			name: "update",
			got:  Update("/interface[name=ethernet-1/1]", `{"description":"uplink"}`),
			want: SetOperation{OperationType: OperationUpdate, Path: "/interface[name=ethernet-1/1]", Value: `{"description":"uplink"}`, Encoding: EncodingJSONIETF},
		},
		{
			name: "update with encoding",
			got:  Update("/system/name/host-name", `"leaf1"`, SetEncoding(EncodingJSON)),
			want: SetOperation{OperationType: OperationUpdate, Path: "/system/name/host-name", Value: `"leaf1"`, Encoding: EncodingJSON},
		},
		{
			name: "empty encoding keeps default",
			got:  Replace("/network-instance[name=default]", `{}`, SetEncoding("")),
			want: SetOperation{OperationType: OperationReplace, Path: "/network-instance[name=default]", Value: `{}`, Encoding: EncodingJSONIETF},
		},
		{
			name: "delete",
			got:  Delete("/interface[name=ethernet-1/2]"),
			want: SetOperation{OperationType: OperationDelete, Path: "/interface[name=ethernet-1/2]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("builder mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetOperationTypeValid(t *testing.T) {
	for _, typ := range []SetOperationType{OperationUpdate, OperationReplace, OperationDelete} {
		if !typ.Valid() {
			t.Errorf("%q.Valid() = false", typ)
		}
	}
	for _, typ := range []SetOperationType{"", "merge", "UPDATE"} {
		if typ.Valid() {
			t.Errorf("%q.Valid() = true", typ)
		}
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		paths   []string
		wantErr string
	}{
		{"ok", []string{"/system/name", "srl_nokia-system:/system"}, ""},
		{"keyed", []string{"/interface[name=ethernet-1/1]/subinterface[index=0]"}, ""},
		{"none", nil, "paths cannot be empty"},
		{"empty", []string{"/a", ""}, "path cannot be empty (at index 1)"},
		{"relative", []string{"system/name"}, "must start with '/'"},
		{"dangling module", []string{"srl:"}, "must start with '/'"},
		{"too long", []string{"/" + strings.Repeat("a", MaxPathLength)}, "exceeds maximum length"},
		{"null byte", []string{"/a\x00b"}, "contains a null byte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePaths(tt.paths)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validatePaths() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validatePaths() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSetOperations(t *testing.T) {
	tests := []struct {
		name    string
		ops     []SetOperation
		wantErr string
	}{
		{"ok", []SetOperation{Update("/a", `{"x":1}`), Replace("/b", `[]`), Delete("/c")}, ""},
		{"delete ignores value", []SetOperation{{OperationType: OperationDelete, Path: "/c", Value: "not json"}}, ""},
		{"ascii skips json check", []SetOperation{Update("/a", "plain", SetEncoding(EncodingASCII))}, ""},
		{"none", nil, "operations cannot be empty"},
		{"bad type", []SetOperation{{OperationType: "merge", Path: "/a"}}, `operation type invalid: "merge"`},
		{"bad path", []SetOperation{Delete("a")}, "operation at index 0"},
		{"bad encoding", []SetOperation{Update("/a", `1`, SetEncoding("xml"))}, "invalid encoding: xml"},
		{"bad json", []SetOperation{Update("/a", `{"x":`)}, "invalid JSON value"},
		{"too large", []SetOperation{Update("/a", `"`+strings.Repeat("x", MaxValueSize)+`"`)}, "value size exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSetOperations(tt.ops)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateSetOperations() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateSetOperations() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetRejectsBeforeNetwork(t *testing.T) {
	c := &Client{Target: "leaf1", logger: &NoOpLogger{}}
	ctx := context.Background()

	tests := []struct {
		name    string
		paths   []string
		mods    []func(*Req)
		wantErr string
	}{
		{"no paths", nil, nil, "get: paths cannot be empty"},
		{"bad encoding", []string{"/a"}, []func(*Req){GetEncoding("xml")}, "get: invalid encoding: xml"},
		{"bad datatype", []string{"/a"}, []func(*Req){DataType("running")}, "get: invalid data type: running"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Get(ctx, tt.paths, tt.mods...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Get() error = %v, want %q", err, tt.wantErr)
			}
			if res.OK || len(res.Errors) != 1 {
				t.Errorf("Get() res = %+v, want one error model", res)
			}
		})
	}
}

func TestSetRejectsBeforeNetwork(t *testing.T) {
	c := &Client{Target: "leaf1", logger: &NoOpLogger{}}
	res, err := c.Set(context.Background(), []SetOperation{Update("/a", `{bad`)})
	if err == nil || !strings.HasPrefix(err.Error(), "set: ") {
		t.Fatalf("Set() error = %v, want set: prefix", err)
	}
	if res.OK || len(res.Errors) != 1 {
		t.Errorf("Set() res = %+v", res)
	}
}

func TestNotConnected(t *testing.T) {
	c := &Client{Target: "leaf1", OperationTimeout: time.Second, logger: &NoOpLogger{}}
	ctx := context.Background()

	_, err := c.Get(ctx, []string{"/system/name"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get() error = %v, want ErrNotConnected", err)
	}
	var gerr *GnmiError
	if !errors.As(err, &gerr) || gerr.Operation != "get" {
		t.Errorf("Get() error = %#v, want *GnmiError for get", err)
	}

	res, err := c.Set(ctx, []SetOperation{Delete("/interface[name=ethernet-1/1]")})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Set() error = %v, want ErrNotConnected", err)
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "not connected") {
		t.Errorf("Set() res.Errors = %+v", res.Errors)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, []string{"/a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if _, err := c.Capabilities(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Capabilities() error = %v, want context.Canceled", err)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	tests := []struct {
		name        string
		maxRetries  int
		errs        []error
		wantCalls   int
		wantErr     bool
		wantCode    codes.Code
		wantRetries int
	}{
		{
			name:       "success first try",
			maxRetries: 3,
			errs:       []error{nil},
			wantCalls:  1,
		},
		{
			name:       "recovers after transient",
			maxRetries: 3,
			errs:       []error{status.Error(codes.ResourceExhausted, "busy"), status.Error(codes.Aborted, "txn"), nil},
			wantCalls:  3,
		},
		{
			name:        "permanent fails immediately",
			maxRetries:  3,
			errs:        []error{status.Error(codes.InvalidArgument, "bad path")},
			wantCalls:   1,
			wantErr:     true,
			wantCode:    codes.InvalidArgument,
			wantRetries: 0,
		},
		{
			name:        "retries exhausted",
			maxRetries:  2,
			errs:        []error{status.Error(codes.ResourceExhausted, "a"), status.Error(codes.ResourceExhausted, "b"), status.Error(codes.ResourceExhausted, "c")},
			wantCalls:   3,
			wantErr:     true,
			wantCode:    codes.ResourceExhausted,
			wantRetries: 2,
		},
		{
			name:        "no retries configured",
			maxRetries:  0,
			errs:        []error{status.Error(codes.Aborted, "txn")},
			wantCalls:   1,
			wantErr:     true,
			wantCode:    codes.Aborted,
			wantRetries: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(tt.maxRetries)
			calls := 0
			err := c.do(context.Background(), "get", newReq(nil), func(context.Context, targetRPC) error {
				e := tt.errs[calls]
				calls++
				return e
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var gerr *GnmiError
			if !errors.As(err, &gerr) {
				t.Fatalf("do() error = %T, want *GnmiError", err)
			}
			if gerr.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", gerr.Code(), tt.wantCode)
			}
			if gerr.Retries != tt.wantRetries {
				t.Errorf("Retries = %d, want %d", gerr.Retries, tt.wantRetries)
			}
		})
	}
}

func TestDoCanceledDuringBackoff(t *testing.T) {
	c := newTestClient(3)
	c.BackoffMinDelay = time.Hour
	c.BackoffMaxDelay = 2 * time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	err := c.do(ctx, "set", newReq(nil), func(context.Context, targetRPC) error {
		cancel()
		return status.Error(codes.ResourceExhausted, "busy")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("do() error = %v, want context.Canceled", err)
	}
	if !strings.Contains(err.Error(), "during backoff") {
		t.Errorf("do() error = %v", err)
	}
}

func TestAttemptContext(t *testing.T) {
	c := newTestClient(0)
	c.OperationTimeout = time.Hour

	tests := []struct {
		name           string
		reqTimeout     time.Duration
		callerDeadline time.Duration
		wantWithin     time.Duration
	}{
		{"request timeout wins", 50 * time.Millisecond, 10 * time.Minute, time.Second},
		{"caller deadline", 0, 30 * time.Second, time.Minute},
		{"operation timeout", 0, 0, 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.callerDeadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.callerDeadline)
				defer cancel()
			}
			req := newReq([]func(*Req){Timeout(tt.reqTimeout)})
			actx, cancel := c.attemptContext(ctx, req, tt.callerDeadline > 0)
			defer cancel()

			dl, ok := actx.Deadline()
			if !ok {
				t.Fatal("attempt context has no deadline")
			}
			left := time.Until(dl)
			if left > tt.wantWithin {
				t.Errorf("deadline in %v, want within %v", left, tt.wantWithin)
			}
			if tt.reqTimeout == 0 && tt.callerDeadline == 0 && left < 59*time.Minute {
				t.Errorf("deadline in %v, want about OperationTimeout", left)
			}
		})
	}
}

func TestTotalTimeout(t *testing.T) {
	c := newTestClient(3)
	c.OperationTimeout = 10 * time.Second
	c.BackoffMinDelay = time.Second
	c.BackoffMaxDelay = 4 * time.Second

	// 10s + (1s + 2s + 4s) + up to 10% jitter + 3 * 400ms slack
	got := c.totalTimeout()
	if got < 17*time.Second || got > 19*time.Second {
		t.Errorf("totalTimeout() = %v, want in [17s, 19s]", got)
	}

	c.MaxRetries = 0
	if got := c.totalTimeout(); got != c.OperationTimeout {
		t.Errorf("totalTimeout() without retries = %v, want %v", got, c.OperationTimeout)
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/openconfig/gnmic/pkg/api"
	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protojson"
)

// Input limits.
const (
	MaxValueSize  = 10 * 1024 * 1024
	MaxPathLength = 1024
)

func validatePaths(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("paths cannot be empty")
	}
	for i, path := range paths {
		if path == "" {
			return fmt.Errorf("path cannot be empty (at index %d)", i)
		}
		if len(path) > MaxPathLength {
			return fmt.Errorf("path at index %d exceeds maximum length of %d characters: %s...", i, MaxPathLength, path[:100])
		}
		if !isValidGNMIPath(path) {
			return fmt.Errorf("path at index %d must start with '/' or be module-qualified (module:/path): %s", i, path)
		}
		if strings.IndexByte(path, 0) >= 0 {
			return fmt.Errorf("path at index %d contains a null byte", i)
		}
	}
	return nil
}

// isValidGNMIPath accepts "/a/b" and "module:/a/b".
func isValidGNMIPath(path string) bool {
	if path == "" {
		return false
	}
	if path[0] == '/' {
		return true
	}
	i := strings.IndexByte(path, ':')
	return i > 0 && i < len(path)-1 && path[i+1] == '/'
}

func validateSetOperations(ops []SetOperation) error {
	if len(ops) == 0 {
		return fmt.Errorf("operations cannot be empty")
	}
	for i, op := range ops {
		if !op.OperationType.Valid() {
			return fmt.Errorf("operation type invalid: %q (must be 'update', 'replace', or 'delete', at index %d)", op.OperationType, i)
		}
		if err := validatePaths([]string{op.Path}); err != nil {
			return fmt.Errorf("operation at index %d: %w", i, err)
		}
		if op.OperationType == OperationDelete {
			continue
		}
		enc := op.Encoding
		if enc == "" {
			enc = EncodingJSONIETF
		}
		if err := ValidateEncoding(enc); err != nil {
			return fmt.Errorf("operation at index %d: %w", i, err)
		}
		if len(op.Value) > MaxValueSize {
			return fmt.Errorf("operation at index %d: value size exceeds maximum of %d bytes (got %d bytes)", i, MaxValueSize, len(op.Value))
		}
		if (enc == EncodingJSON || enc == EncodingJSONIETF) && !gjson.Valid(op.Value) {
			return fmt.Errorf("operation at index %d: invalid JSON value", i)
		}
	}
	return nil
}

// Get reads paths from the device. Encoding defaults to json_ietf and
// the data type to config; see GetEncoding, DataType and Timeout.
//
//	res, err := client.Get(ctx,
//	    []string{"/interface[name=ethernet-1/1]/description"},
//	    gnmi.DataType(gnmi.DataTypeState))
//
// Transient failures are retried with backoff. The returned error is a
// *GnmiError for RPC failures.
func (c *Client) Get(ctx context.Context, paths []string, mods ...func(*Req)) (GetRes, error) {
	req := newReq(mods)
	if err := validatePaths(paths); err != nil {
		return GetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("get: %w", err)
	}
	if err := ValidateEncoding(req.Encoding); err != nil {
		return GetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("get: %w", err)
	}
	if err := ValidateDataType(req.DataType); err != nil {
		return GetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("get: %w", err)
	}

	opts := []api.GNMIOption{
		api.Encoding(req.Encoding),
		api.DataType(req.DataType),
	}
	for _, p := range paths {
		opts = append(opts, api.Path(p))
	}
	getReq, err := api.NewGetRequest(opts...)
	if err != nil {
		return GetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("get: failed to create request: %w", err)
	}

	c.logger.Debug(ctx, "gNMI Get request",
		"target", c.Target,
		"paths", strings.Join(paths, ","),
		"encoding", req.Encoding,
		"datatype", req.DataType)

	var resp *gnmipb.GetResponse
	err = c.do(ctx, "get", req, func(ctx context.Context, t targetRPC) error {
		r, err := t.Get(ctx, getReq)
		if err == nil {
			resp = r
		}
		return err
	})
	if err != nil {
		return errorGetRes(err), err
	}

	for i, n := range resp.GetNotification() {
		if b, err := protojson.Marshal(n); err == nil {
			c.logger.Debug(ctx, "gNMI Get notification",
				"target", c.Target,
				"index", i,
				"updates", len(n.GetUpdate()),
				"notification", c.prepareJSONForLogging(string(b)))
		}
	}

	return GetRes{
		Notifications: resp.GetNotification(),
		Timestamp:     time.Now().UnixNano(),
		OK:            true,
	}, nil
}

// Set applies update, replace and delete operations in one transaction.
// Use the Update, Replace and Delete helpers to build ops.
func (c *Client) Set(ctx context.Context, ops []SetOperation, mods ...func(*Req)) (SetRes, error) {
	req := newReq(mods)
	if err := validateSetOperations(ops); err != nil {
		return SetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("set: %w", err)
	}

	opts := make([]api.GNMIOption, 0, len(ops))
	for _, op := range ops {
		enc := op.Encoding
		if enc == "" {
			enc = EncodingJSONIETF
		}
		switch op.OperationType {
		case OperationUpdate:
			opts = append(opts, api.Update(api.Path(op.Path), api.Value(op.Value, enc)))
		case OperationReplace:
			opts = append(opts, api.Replace(api.Path(op.Path), api.Value(op.Value, enc)))
		case OperationDelete:
			opts = append(opts, api.Delete(op.Path))
		}
	}
	setReq, err := api.NewSetRequest(opts...)
	if err != nil {
		return SetRes{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("set: failed to create request: %w", err)
	}

	for i, op := range ops {
		c.logger.Debug(ctx, "gNMI Set operation",
			"target", c.Target,
			"index", i,
			"type", string(op.OperationType),
			"path", op.Path,
			"value", c.prepareJSONForLogging(op.Value))
	}

	c.setMu.Lock()
	defer c.setMu.Unlock()

	var resp *gnmipb.SetResponse
	err = c.do(ctx, "set", req, func(ctx context.Context, t targetRPC) error {
		r, err := t.Set(ctx, setReq)
		if err == nil {
			resp = r
		}
		return err
	})
	if err != nil {
		return SetRes{Errors: errorGetRes(err).Errors}, err
	}

	c.logger.Debug(ctx, "gNMI Set response", "target", c.Target, "results", len(resp.GetResponse()))

	return SetRes{
		Response:  resp,
		Timestamp: time.Now().UnixNano(),
		OK:        true,
	}, nil
}

func errorGetRes(err error) GetRes {
	var gerr *GnmiError
	if errors.As(err, &gerr) {
		return GetRes{Errors: gerr.Errors}
	}
	return GetRes{Errors: []ErrorModel{{Message: err.Error()}}}
}

// targetRPC is the part of the gnmic target used by do.
type targetRPC interface {
	Get(ctx context.Context, req *gnmipb.GetRequest) (*gnmipb.GetResponse, error)
	Set(ctx context.Context, req *gnmipb.SetRequest) (*gnmipb.SetResponse, error)
}

// do runs call with the retry policy: transient gRPC codes are retried up
// to MaxRetries times with Backoff, reconnecting first when the channel
// is broken. The overall budget is OperationTimeout plus all backoffs.
func (c *Client) do(ctx context.Context, op string, req *Req, call func(context.Context, targetRPC) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.ensureConnected(ctx); err != nil {
		return newGnmiError(op, c.Target, err, 0)
	}

	_, callerDeadline := ctx.Deadline()
	ctx, cancel := context.WithTimeout(ctx, c.totalTimeout())
	defer cancel()

	var lastErr error
	attempt := 0
	for ; attempt <= c.MaxRetries; attempt++ {
		c.mu.RLock()
		t := c.target
		c.mu.RUnlock()
		if t == nil {
			return ErrNotConnected
		}

		attemptCtx, attemptCancel := c.attemptContext(ctx, req, callerDeadline)
		lastErr = call(attemptCtx, t)
		attemptCancel()
		if lastErr == nil {
			return nil
		}

		if !isTransient(errorModels(lastErr)) || attempt == c.MaxRetries {
			break
		}

		if needsReconnect(lastErr) {
			c.mu.Lock()
			rerr := c.reconnect(ctx)
			c.mu.Unlock()
			if rerr != nil {
				c.logger.Error(ctx, "gNMI reconnection failed", "operation", op, "target", c.Target, "error", rerr.Error())
				return newGnmiError(op, c.Target, rerr, attempt)
			}
		}

		backoff := c.Backoff(attempt)
		c.logger.Warn(ctx, "transient error, retrying",
			"operation", op,
			"target", c.Target,
			"attempt", attempt+1,
			"max_retries", c.MaxRetries,
			"backoff", backoff.String(),
			"error", lastErr.Error())

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: context canceled during backoff: %w", op, ctx.Err())
		}
	}

	gerr := newGnmiError(op, c.Target, lastErr, attempt)
	c.logger.Error(ctx, "gNMI request failed",
		"operation", op,
		"target", c.Target,
		"retries", gerr.Retries,
		"error", lastErr.Error())
	return gerr
}

func (c *Client) totalTimeout() time.Duration {
	total := c.OperationTimeout
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		// Backoff adds at most 10% jitter
		total += c.Backoff(attempt) + c.BackoffMaxDelay/10
	}
	return total
}

// attemptContext picks the per-attempt deadline: the request timeout,
// else the caller's deadline, else OperationTimeout.
func (c *Client) attemptContext(ctx context.Context, req *Req, callerDeadline bool) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	if callerDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.OperationTimeout)
}

// Update builds an update operation with a JSON value.
func Update(path, value string, opts ...func(*SetOperation)) SetOperation {
	op := SetOperation{OperationType: OperationUpdate, Path: path, Value: value, Encoding: EncodingJSONIETF}
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// Replace builds a replace operation with a JSON value.
func Replace(path, value string, opts ...func(*SetOperation)) SetOperation {
	op := SetOperation{OperationType: OperationReplace, Path: path, Value: value, Encoding: EncodingJSONIETF}
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// Delete builds a delete operation.
func Delete(path string) SetOperation {
	return SetOperation{OperationType: OperationDelete, Path: path}
}

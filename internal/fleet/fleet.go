// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package fleet runs one task per inventory host with bounded
// parallelism. A failing or panicking host never affects the others.
package fleet

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
)

// DefaultWorkers bounds the hosts handled at the same time.
const DefaultWorkers = 20

// Result is the outcome of the task on one host.
type Result[T any] struct {
	Host     inventory.Host
	Value    T
	Err      error
	Duration time.Duration
}

// Runner dispatches tasks over hosts.
type Runner struct {
	workers int
	logger  gnmi.Logger
	metrics *Metrics
}

// Workers sets the parallelism. Values below 1 are ignored.
func Workers(n int) func(*Runner) {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l gnmi.Logger) func(*Runner) {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics counts every run in m.
func WithMetrics(m *Metrics) func(*Runner) {
	return func(r *Runner) {
		r.metrics = m
	}
}

// New returns a Runner.
func New(opts ...func(*Runner)) *Runner {
	r := &Runner{
		workers: DefaultWorkers,
		logger:  &gnmi.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run calls task once per host and returns the results in host order.
// A panic in task is recovered and reported as that host's error.
func Run[T any](ctx context.Context, r *Runner, hosts []inventory.Host, task func(context.Context, inventory.Host) (T, error)) []Result[T] {
	results := make([]Result[T], len(hosts))
	p := pool.New().WithMaxGoroutines(r.workers)
	for i, h := range hosts {
		p.Go(func() {
			results[i] = runOne(ctx, r, h, task)
		})
	}
	p.Wait()
	return results
}

func runOne[T any](ctx context.Context, r *Runner, h inventory.Host, task func(context.Context, inventory.Host) (T, error)) Result[T] {
	res := Result[T]{Host: h}
	if err := ctx.Err(); err != nil {
		res.Err = err
		r.metrics.observe(resultFailed)
		return res
	}

	r.logger.Debug(ctx, "host task started", "host", h.Name)
	start := time.Now()
	var pc panics.Catcher
	pc.Try(func() {
		res.Value, res.Err = task(ctx, h)
	})
	res.Duration = time.Since(start)

	switch rec := pc.Recovered(); {
	case rec != nil:
		res.Err = rec.AsError()
		r.logger.Error(ctx, "host task panicked", "host", h.Name, "panic", rec.String())
		r.metrics.observe(resultPanic)
	case res.Err != nil:
		r.logger.Error(ctx, "host task failed", "host", h.Name, "error", res.Err.Error())
		r.metrics.observe(resultFailed)
	default:
		r.logger.Debug(ctx, "host task done", "host", h.Name, "duration", res.Duration)
		r.metrics.observe(resultOK)
	}
	return res
}

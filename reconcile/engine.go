// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"context"
	"fmt"
	"strings"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/diff"
	"github.com/netascode/go-gnmi-intent/value"
)

// Diff labels of the two sides of a resource comparison.
const (
	BeforeLabel = "before"
	AfterLabel  = "after"
)

// Transport is the part of gnmi.Client the engine needs.
type Transport interface {
	Get(ctx context.Context, paths []string, mods ...func(*gnmi.Req)) (gnmi.GetRes, error)
	Set(ctx context.Context, ops []gnmi.SetOperation, mods ...func(*gnmi.Req)) (gnmi.SetRes, error)
}

// Phase is a step of a reconcile pass.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetchBefore
	PhaseDiff
	PhaseApply
	PhaseFetchAfter
	PhasePurge
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetchBefore:
		return "fetch-before"
	case PhaseDiff:
		return "diff"
	case PhaseApply:
		return "apply"
	case PhaseFetchAfter:
		return "fetch-after"
	case PhasePurge:
		return "purge"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ResponseMismatchError reports a Get response whose entry count does not
// match the number of requested paths.
type ResponseMismatchError struct {
	Host      string
	Requested int
	Received  int
}

func (e *ResponseMismatchError) Error() string {
	return fmt.Sprintf("reconcile: %s returned %d entries for %d paths", e.Host, e.Received, e.Requested)
}

// ResourceDiff is the comparison of one touched path.
type ResourceDiff struct {
	Path    string
	Before  value.Value
	After   value.Value
	Changed bool
	Text    string
	Changes []diff.Change
}

// Report is the outcome of a pass.
type Report struct {
	Host   string
	DryRun bool

	// Phase is PhaseDone on success and PhaseFailed otherwise. FailedIn
	// names the phase that failed.
	Phase    Phase
	FailedIn Phase

	Changed   bool
	Diff      string
	Resources []ResourceDiff

	// Purged lists previously managed paths that are no longer in the
	// intent. On a dry run they are reported but not deleted.
	Purged    []string
	PurgeDiff string
}

// Engine reconciles devices against intents. An Engine holds no
// per-device state and may be shared, but two passes must not run
// against the same host at the same time.
type Engine struct {
	transport Transport
	store     StateStore
	logger    gnmi.Logger
	encoding  string
	strip     bool
}

// WithStateStore enables the purge pass. Without a store nothing is
// purged.
func WithStateStore(s StateStore) func(*Engine) {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l gnmi.Logger) func(*Engine) {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEncoding sets the encoding of reads and writes. Default json_ietf.
func WithEncoding(enc string) func(*Engine) {
	return func(e *Engine) {
		e.encoding = enc
	}
}

// StripModules controls module prefix stripping of fetched and intended
// trees before they are compared. Default enabled.
func StripModules(enabled bool) func(*Engine) {
	return func(e *Engine) {
		e.strip = enabled
	}
}

// NewEngine returns an engine writing through t.
func NewEngine(t Transport, opts ...func(*Engine)) *Engine {
	e := &Engine{
		transport: t,
		logger:    &gnmi.NoOpLogger{},
		encoding:  gnmi.EncodingJSONIETF,
		strip:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pass tracks the phase of one run for logging and the report.
type pass struct {
	e      *Engine
	host   string
	report *Report
}

func (p *pass) enter(ctx context.Context, ph Phase) {
	p.report.Phase = ph
	p.e.logger.Debug(ctx, "reconcile phase", "host", p.host, "phase", ph.String())
}

// fail records err against the current phase and returns it unchanged.
func (p *pass) fail(ctx context.Context, err error) error {
	p.report.FailedIn = p.report.Phase
	p.report.Phase = PhaseFailed
	p.e.logger.Error(ctx, "reconcile failed",
		"host", p.host,
		"phase", p.report.FailedIn.String(),
		"error", err.Error())
	return err
}

// Reconcile applies intent to host and purges resources managed by an
// earlier pass that the intent no longer contains.
//
// The touched paths are read once before and, unless dryRun is set,
// once after all groups are written. On a dry run the intended values
// stand in for the after snapshot, nothing is written, and the state
// store is not touched. Transport errors are returned unchanged; groups
// already written are not rolled back.
//
// A previously managed path that the intent names in a delete group is
// removed by that group and left out of the purge pass.
func (e *Engine) Reconcile(ctx context.Context, host string, intent Intent, dryRun bool) (Report, error) {
	report := Report{Host: host, DryRun: dryRun}
	p := &pass{e: e, host: host, report: &report}
	if err := intent.Validate(); err != nil {
		return report, p.fail(ctx, err)
	}

	if err := p.applyGroups(ctx, intent.Groups, dryRun); err != nil {
		return report, err
	}
	if err := p.purge(ctx, intent, dryRun); err != nil {
		return report, err
	}
	p.enter(ctx, PhaseDone)

	e.logger.Info(ctx, "reconcile finished",
		"host", host,
		"dry_run", dryRun,
		"changed", report.Changed,
		"resources", len(report.Resources),
		"purged", len(report.Purged))
	return report, nil
}

// Apply writes a single group and reports the per-path diff. State is
// neither read nor written.
func (e *Engine) Apply(ctx context.Context, host string, group Group, dryRun bool) (Report, error) {
	report := Report{Host: host, DryRun: dryRun}
	p := &pass{e: e, host: host, report: &report}
	if err := (Intent{Groups: []Group{group}}).Validate(); err != nil {
		return report, p.fail(ctx, err)
	}
	if err := p.applyGroups(ctx, []Group{group}, dryRun); err != nil {
		return report, err
	}
	p.enter(ctx, PhaseDone)
	return report, nil
}

// Purge runs only the purge pass of Reconcile. Previously managed paths
// named in a delete group of intent are skipped, not purged and not
// reported as conflicting, since the delete group owns them.
func (e *Engine) Purge(ctx context.Context, host string, intent Intent, dryRun bool) (Report, error) {
	report := Report{Host: host, DryRun: dryRun}
	p := &pass{e: e, host: host, report: &report}
	if err := intent.Validate(); err != nil {
		return report, p.fail(ctx, err)
	}
	if err := p.purge(ctx, intent, dryRun); err != nil {
		return report, err
	}
	p.enter(ctx, PhaseDone)
	return report, nil
}

func (p *pass) applyGroups(ctx context.Context, groups []Group, dryRun bool) error {
	paths := Intent{Groups: groups}.Paths()
	if len(paths) == 0 {
		return nil
	}

	p.enter(ctx, PhaseFetchBefore)
	before, err := p.e.fetch(ctx, p.host, paths)
	if err != nil {
		return p.fail(ctx, err)
	}

	var after []value.Value
	if dryRun {
		after = p.e.intended(groups)
	} else {
		p.enter(ctx, PhaseApply)
		for _, g := range groups {
			if err := p.e.write(ctx, g); err != nil {
				return p.fail(ctx, err)
			}
		}
		p.enter(ctx, PhaseFetchAfter)
		after, err = p.e.fetch(ctx, p.host, paths)
		if err != nil {
			return p.fail(ctx, err)
		}
	}

	p.enter(ctx, PhaseDiff)
	diffs, text, changed := compare(paths, before, after)
	p.report.Resources = append(p.report.Resources, diffs...)
	p.report.Diff = joinDiffs(p.report.Diff, text)
	p.report.Changed = p.report.Changed || changed
	return nil
}

func (p *pass) purge(ctx context.Context, intent Intent, dryRun bool) error {
	if p.e.store == nil {
		return nil
	}
	p.enter(ctx, PhasePurge)

	prev, err := p.e.store.Load(ctx, p.host)
	if err != nil {
		return p.fail(ctx, err)
	}
	managed := intent.Managed()
	deleted := intent.deleted()
	var purged []string
	for _, path := range prev.Keys() {
		if _, ok := managed.Get(path); ok || deleted[path] {
			continue
		}
		purged = append(purged, path)
	}
	p.report.Purged = purged

	if dryRun {
		if len(purged) > 0 {
			p.e.logger.Warn(ctx, "resources would be purged",
				"host", p.host,
				"paths", strings.Join(purged, ","))
		}
		return nil
	}

	if len(purged) > 0 {
		p.e.logger.Warn(ctx, "purging resources",
			"host", p.host,
			"paths", strings.Join(purged, ","))
		sub := &pass{e: p.e, host: p.host, report: &Report{Host: p.host}}
		if err := sub.applyGroups(ctx, []Group{Delete(purged...)}, false); err != nil {
			p.report.FailedIn = sub.report.FailedIn
			p.report.Phase = PhaseFailed
			return err
		}
		p.report.PurgeDiff = sub.report.Diff
		p.report.Changed = true
	}

	if err := p.e.store.Save(ctx, p.host, managed); err != nil {
		return p.fail(ctx, err)
	}
	return nil
}

// fetch reads paths as config and returns one payload per path.
func (e *Engine) fetch(ctx context.Context, host string, paths []string) ([]value.Value, error) {
	res, err := e.transport.Get(ctx, paths,
		gnmi.DataType(gnmi.DataTypeConfig),
		gnmi.GetEncoding(e.encoding))
	if err != nil {
		return nil, err
	}
	entries := res.Normalize()
	if len(entries) != len(paths) {
		return nil, &ResponseMismatchError{Host: host, Requested: len(paths), Received: len(entries)}
	}
	out := make([]value.Value, len(entries))
	for i, entry := range entries {
		out[i] = e.prepare(entry.Value)
	}
	return out, nil
}

func (e *Engine) write(ctx context.Context, g Group) error {
	if len(g.Resources) == 0 {
		return nil
	}
	ops := make([]gnmi.SetOperation, 0, len(g.Resources))
	for _, r := range g.Resources {
		if g.Mode == gnmi.OperationDelete {
			ops = append(ops, gnmi.Delete(r.Path))
			continue
		}
		data, err := r.Value.MarshalJSON()
		if err != nil {
			return fmt.Errorf("reconcile: encode value of %s: %w", r.Path, err)
		}
		if g.Mode == gnmi.OperationReplace {
			ops = append(ops, gnmi.Replace(r.Path, string(data), gnmi.SetEncoding(e.encoding)))
		} else {
			ops = append(ops, gnmi.Update(r.Path, string(data), gnmi.SetEncoding(e.encoding)))
		}
	}
	_, err := e.transport.Set(ctx, ops)
	return err
}

// intended is the after snapshot of a dry run. A deleted path reads
// back as an empty container.
func (e *Engine) intended(groups []Group) []value.Value {
	var out []value.Value
	for _, g := range groups {
		for _, r := range g.Resources {
			if g.Mode == gnmi.OperationDelete {
				out = append(out, value.EmptyMap())
				continue
			}
			out = append(out, e.prepare(r.Value))
		}
	}
	return out
}

func (e *Engine) prepare(v value.Value) value.Value {
	if e.strip {
		return value.StripModulePrefixes(v)
	}
	return v
}

func compare(paths []string, before, after []value.Value) ([]ResourceDiff, string, bool) {
	diffs := make([]ResourceDiff, len(paths))
	var text string
	changed := false
	for i, path := range paths {
		a := value.Object(value.F(path, before[i]))
		b := value.Object(value.F(path, after[i]))
		res := diff.Diff(a, BeforeLabel, b, AfterLabel)
		diffs[i] = ResourceDiff{
			Path:    path,
			Before:  before[i],
			After:   after[i],
			Changed: res.Changed,
			Text:    res.Text,
		}
		if res.Changed {
			diffs[i].Changes = diff.Changes(before[i], after[i])
			text = joinDiffs(text, res.Text)
			changed = true
		}
	}
	return diffs, text, changed
}

func joinDiffs(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}

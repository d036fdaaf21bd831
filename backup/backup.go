// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package backup keeps timestamped copies of device configuration.
//
// Snapshots are stored as <dir>/<host>/<host>-<UTC timestamp>.json,
// module prefixes stripped, and pruned to the configured history length
// after every new snapshot.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/atomicfile"
	"github.com/netascode/go-gnmi-intent/reconcile"
	"github.com/netascode/go-gnmi-intent/value"
)

// DefaultHistory is the number of snapshots kept per host.
const DefaultHistory = 10

// TimeFormat is the UTC timestamp embedded in snapshot file names. It
// sorts lexically in time order.
const TimeFormat = "20060102-150405.000"

// ErrNoSnapshot is returned by Latest when a host has no snapshots.
var ErrNoSnapshot = errors.New("backup: no snapshot found")

// Snapshot identifies one stored configuration copy.
type Snapshot struct {
	Host string
	Time time.Time
	File string
}

// Manager takes, lists and restores snapshots.
type Manager struct {
	device  reconcile.Transport
	dir     string
	history int
	logger  gnmi.Logger
	now     func() time.Time
}

// History sets how many snapshots are kept per host. Values below 1 are
// ignored.
func History(n int) func(*Manager) {
	return func(m *Manager) {
		if n > 0 {
			m.history = n
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l gnmi.Logger) func(*Manager) {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) func(*Manager) {
	return func(m *Manager) {
		m.now = now
	}
}

// New returns a manager storing snapshots below dir.
func New(device reconcile.Transport, dir string, opts ...func(*Manager)) *Manager {
	m := &Manager{
		device:  device,
		dir:     dir,
		history: DefaultHistory,
		logger:  &gnmi.NoOpLogger{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) hostDir(host string) (string, error) {
	if host == "" || host != filepath.Base(host) || host == "." || host == ".." {
		return "", fmt.Errorf("backup: invalid host name %q", host)
	}
	return filepath.Join(m.dir, host), nil
}

// Snapshot reads the full configuration of host and stores it.
func (m *Manager) Snapshot(ctx context.Context, host string) (Snapshot, error) {
	dir, err := m.hostDir(host)
	if err != nil {
		return Snapshot{}, err
	}

	res, err := m.device.Get(ctx, []string{gnmi.RootPath}, gnmi.DataType(gnmi.DataTypeConfig))
	if err != nil {
		return Snapshot{}, err
	}
	tree := value.StripModulePrefixes(rootTree(res.Normalize()))

	compact, err := tree.MarshalJSON()
	if err != nil {
		return Snapshot{}, fmt.Errorf("backup: encode %s: %w", host, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return Snapshot{}, fmt.Errorf("backup: encode %s: %w", host, err)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("backup: %w", err)
	}
	ts := m.now().UTC()
	snap := Snapshot{
		Host: host,
		Time: ts.Truncate(time.Millisecond),
		File: filepath.Join(dir, host+"-"+ts.Format(TimeFormat)+".json"),
	}
	if err := atomicfile.Write(snap.File, buf.Bytes()); err != nil {
		return Snapshot{}, fmt.Errorf("backup: %w", err)
	}
	m.logger.Info(ctx, "configuration saved", "host", host, "file", snap.File, "bytes", buf.Len())

	if err := m.prune(ctx, host); err != nil {
		return snap, err
	}
	return snap, nil
}

// rootTree merges normalized entries of a root Get into one tree. A single
// keyed entry below the root stays nested under its key.
func rootTree(entries []gnmi.Entry) value.Value {
	if len(entries) == 1 && entries[0].Value.Kind() == value.KindMap &&
		(!entries[0].Keyed || entries[0].Path == gnmi.RootPath) {
		return entries[0].Value
	}
	tree := value.EmptyMap()
	for _, e := range entries {
		switch {
		case e.Keyed && e.Path != gnmi.RootPath:
			tree = tree.With(e.Path, e.Value)
		case e.Value.Kind() == value.KindMap:
			for _, f := range e.Value.Fields() {
				tree = tree.With(f.Key, f.Value)
			}
		}
	}
	return tree
}

// List returns the snapshots of host, oldest first. Files that do not
// follow the naming scheme are ignored.
func (m *Manager) List(host string) ([]Snapshot, error) {
	dir, err := m.hostDir(host)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	prefix := host + "-"
	var out []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := time.Parse(TimeFormat, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Host: host, Time: ts, File: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// Latest returns the newest snapshot of host.
func (m *Manager) Latest(host string) (Snapshot, error) {
	snaps, err := m.List(host)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w for %s", ErrNoSnapshot, host)
	}
	return snaps[len(snaps)-1], nil
}

// Load reads a snapshot.
func (m *Manager) Load(s Snapshot) (value.Value, error) {
	data, err := os.ReadFile(s.File)
	if err != nil {
		return value.Value{}, fmt.Errorf("backup: %w", err)
	}
	v, err := value.ParseJSON(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("backup: %s: %w", filepath.Base(s.File), err)
	}
	return v, nil
}

// Restore replaces the whole configuration of host with snapshot s and
// reports the difference. A dry run only computes the diff.
func (m *Manager) Restore(ctx context.Context, s Snapshot, dryRun bool) (reconcile.Report, error) {
	tree, err := m.Load(s)
	if err != nil {
		return reconcile.Report{Host: s.Host, DryRun: dryRun}, err
	}
	engine := reconcile.NewEngine(m.device, reconcile.WithLogger(m.logger))
	m.logger.Warn(ctx, "restoring configuration", "host", s.Host, "file", s.File, "dry_run", dryRun)
	return engine.Apply(ctx, s.Host, reconcile.Replace(reconcile.Resource{Path: gnmi.RootPath, Value: tree}), dryRun)
}

func (m *Manager) prune(ctx context.Context, host string) error {
	snaps, err := m.List(host)
	if err != nil {
		return err
	}
	for len(snaps) > m.history {
		if err := os.Remove(snaps[0].File); err != nil {
			return fmt.Errorf("backup: prune: %w", err)
		}
		m.logger.Debug(ctx, "snapshot pruned", "host", host, "file", snaps[0].File)
		snaps = snaps[1:]
	}
	return nil
}

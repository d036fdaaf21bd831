// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fleet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/netascode/go-gnmi-intent/internal/inventory"
)

func hosts(names ...string) []inventory.Host {
	out := make([]inventory.Host, len(names))
	for i, n := range names {
		out[i] = inventory.Host{Name: n}
	}
	return out
}

func TestRunKeepsHostOrder(t *testing.T) {
	hs := hosts("leaf1", "leaf2", "leaf3", "spine1", "spine2")
	delay := map[string]time.Duration{"leaf1": 20, "leaf2": 15, "leaf3": 10, "spine1": 5}
	results := Run(context.Background(), New(Workers(2)), hs, func(_ context.Context, h inventory.Host) (string, error) {
		time.Sleep(delay[h.Name] * time.Millisecond)
		return strings.ToUpper(h.Name), nil
	})

	var got []string
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: Err = %v", r.Host.Name, r.Err)
		}
		got = append(got, r.Value)
	}
	if want := []string{"LEAF1", "LEAF2", "LEAF3", "SPINE1", "SPINE2"}; !cmp.Equal(got, want) {
		t.Errorf("Run() values = %v, want %v", got, want)
	}
}

func TestRunBoundsParallelism(t *testing.T) {
	var running, peak atomic.Int32
	Run(context.Background(), New(Workers(3)), hosts("a", "b", "c", "d", "e", "f", "g", "h"), func(context.Context, inventory.Host) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	if p := peak.Load(); p > 3 {
		t.Errorf("peak parallelism = %d, want <= 3", p)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	boom := errors.New("unreachable")
	m := NewMetrics()
	results := Run(context.Background(), New(WithMetrics(m)), hosts("ok", "fail", "panic", "ok2"), func(_ context.Context, h inventory.Host) (int, error) {
		switch h.Name {
		case "fail":
			return 0, boom
		case "panic":
			panic("nil map")
		}
		return 1, nil
	})

	if results[0].Err != nil || results[0].Value != 1 || results[3].Err != nil {
		t.Errorf("healthy hosts = %+v, %+v", results[0], results[3])
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("fail Err = %v, want %v", results[1].Err, boom)
	}
	if results[2].Err == nil || !strings.Contains(results[2].Err.Error(), "nil map") {
		t.Errorf("panic Err = %v, want recovered panic", results[2].Err)
	}

	for result, want := range map[string]float64{resultOK: 2, resultFailed: 1, resultPanic: 1} {
		if got := testutil.ToFloat64(m.runs.WithLabelValues(result)); got != want {
			t.Errorf("runs{result=%q} = %v, want %v", result, got, want)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	results := Run(ctx, New(), hosts("a", "b"), func(context.Context, inventory.Host) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	if calls.Load() != 0 {
		t.Errorf("task called %d times, want 0", calls.Load())
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: Err = %v, want context.Canceled", r.Host.Name, r.Err)
		}
	}
}

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	m.observe(resultOK)
	m.ObserveChanged()
	m.ObserveChanged()

	path := filepath.Join(t.TempDir(), "gnmi_intent.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`gnmi_intent_runs_total{result="ok"} 1`,
		"gnmi_intent_changed_total 2",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observe(resultOK)
	m.ObserveChanged()
}

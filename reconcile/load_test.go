// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/value"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const baseIntent = `metadata:
  groups: [leaf]
update:
  - /system/name:
      host-name: leaf1
      domain-name: lab
---
metadata:
  hostname: spine1
replace:
  - /system/name:
      host-name: spine1
---
metadata:
  labels:
    role: border
    pod: 1
update:
  - /network-instance[name=ext]:
      type: ip-vrf
`

func TestLoadIntent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"10-base.yml": baseIntent,
		"20-itf.yaml": `- /interface[name=ethernet-1/1]:
    admin-state: enable
    mtu: 9232
`,
		"sub/30-cleanup.yml": `delete:
  - /interface[name=ethernet-1/10]
  - /acl:
`,
		"README.md": "not an intent",
	})

	intent, err := LoadIntent(dir, Selector{
		Hostname: "leaf1",
		Groups:   []string{"all", "leaf"},
		Labels:   map[string]string{"role": "leaf", "pod": "1"},
	})
	if err != nil {
		t.Fatalf("LoadIntent() error = %v", err)
	}

	type flat struct {
		Mode gnmi.SetOperationType
		Path string
	}
	var got []flat
	for _, g := range intent.Groups {
		for _, r := range g.Resources {
			got = append(got, flat{g.Mode, r.Path})
		}
	}
	want := []flat{
		{gnmi.OperationUpdate, "/system/name"},
		{gnmi.OperationReplace, "/interface[name=ethernet-1/1]"},
		{gnmi.OperationDelete, "/interface[name=ethernet-1/10]"},
		{gnmi.OperationDelete, "/acl"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadIntent() mismatch (-want +got):\n%s", diff)
	}

	name := intent.Groups[0].Resources[0].Value
	if diff := cmp.Diff([]string{"host-name", "domain-name"}, name.Keys()); diff != "" {
		t.Errorf("value key order mismatch (-want +got):\n%s", diff)
	}
	itf := intent.Groups[1].Resources[0].Value
	if mtu, _ := itf.Get("mtu"); !mtu.Equal(value.Int(9232)) {
		t.Errorf("mtu = %#v, want 9232", mtu)
	}
	if err := intent.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadIntentSelectors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"intent.yml": baseIntent})

	tests := []struct {
		name  string
		sel   Selector
		paths []string
	}{
		{"no match", Selector{Hostname: "leaf9"}, nil},
		{"hostname", Selector{Hostname: "spine1"}, []string{"/system/name"}},
		{"all labels", Selector{Hostname: "x", Labels: map[string]string{"role": "border", "pod": "1"}}, []string{"/network-instance[name=ext]"}},
		{"partial labels", Selector{Hostname: "x", Labels: map[string]string{"role": "border"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := LoadIntent(dir, tt.sel)
			if err != nil {
				t.Fatalf("LoadIntent() error = %v", err)
			}
			if diff := cmp.Diff(tt.paths, intent.Paths()); diff != "" {
				t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadIntentErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{
			name:    "unknown mode",
			content: "merge:\n  - /a: 1\n",
			check: func(err error) bool {
				var target *InvalidModeError
				return errors.As(err, &target) && target.Mode == "merge"
			},
		},
		{
			name:    "mode not a list",
			content: "update:\n  /a: 1\n",
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "scalar entry",
			content: "update:\n  - /a\n",
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "scalar document",
			content: "hello\n",
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "invalid yaml",
			content: "update: [\n",
			check:   func(err error) bool { return err != nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"bad.yml": tt.content})
			if _, err := LoadIntent(dir, Selector{}); !tt.check(err) {
				t.Errorf("LoadIntent() error = %v", err)
			}
		})
	}
}

func TestParseIntent(t *testing.T) {
	intent, err := ParseIntent([]byte("replace:\n  - /a: {x: 1}\ndelete: []\n"))
	if err != nil {
		t.Fatalf("ParseIntent() error = %v", err)
	}
	if len(intent.Groups) != 2 || intent.Groups[0].Mode != gnmi.OperationReplace || len(intent.Groups[1].Resources) != 0 {
		t.Errorf("ParseIntent() = %+v", intent)
	}

	empty, err := ParseIntent(nil)
	if err != nil || len(empty.Groups) != 0 {
		t.Errorf("ParseIntent(nil) = %+v, %v", empty, err)
	}
}

func TestIntentManaged(t *testing.T) {
	intent := Intent{Groups: []Group{
		Replace(Resource{Path: "/b", Value: value.Int(2)}),
		Delete("/x"),
		Update(Resource{Path: "/a", Value: value.Int(1)}),
	}}
	got := intent.Managed()
	if diff := cmp.Diff([]string{"/b", "/a"}, got.Keys()); diff != "" {
		t.Errorf("Managed() keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/b", "/x", "/a"}, intent.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

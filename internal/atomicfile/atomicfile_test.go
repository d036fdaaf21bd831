// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "leaf1.json")

	for _, content := range []string{"{\"a\":1}\n", "{}\n"} {
		if err := Write(dest, []byte(content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("Write() content = %q, want %q", got, content)
		}
	}
	if diff := cmp.Diff([]string{"leaf1.json"}, dirNames(t, dir)); diff != "" {
		t.Errorf("temp files left behind (-want +got):\n%s", diff)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Write() mode = %v, want %v", perm, os.FileMode(0o600))
	}
}

func TestWriteMissingDir(t *testing.T) {
	dir := t.TempDir()
	if err := Write(filepath.Join(dir, "missing", "x.json"), []byte("{}")); err == nil {
		t.Error("Write() error = nil, want error")
	}
	if diff := cmp.Diff([]string(nil), dirNames(t, dir)); diff != "" {
		t.Errorf("unexpected files (-want +got):\n%s", diff)
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/netascode/go-gnmi-intent/internal/atomicfile"
	"github.com/netascode/go-gnmi-intent/value"
)

// StateStore persists the managed resources of each device as a
// path to last-applied-value map.
type StateStore interface {
	// Load returns an empty map when no state exists for host.
	Load(ctx context.Context, host string) (value.Value, error)
	Save(ctx context.Context, host string, state value.Value) error
}

// FileStore keeps one JSON file per device, <Dir>/<host>.json.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) file(host string) (string, error) {
	if host == "" || host != filepath.Base(host) || host == "." || host == ".." {
		return "", fmt.Errorf("invalid host name for state file: %q", host)
	}
	return filepath.Join(s.Dir, host+".json"), nil
}

// Load reads the state of host.
func (s *FileStore) Load(_ context.Context, host string) (value.Value, error) {
	path, err := s.file(host)
	if err != nil {
		return value.Value{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return value.EmptyMap(), nil
	}
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to read state file: %w", err)
	}
	return decodeState(data)
}

// Save replaces the state of host. The file is written to a temporary
// name in the same directory and renamed into place.
func (s *FileStore) Save(_ context.Context, host string, state value.Value) error {
	path, err := s.file(host)
	if err != nil {
		return err
	}
	data, err := state.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return atomicfile.Write(path, data)
}

func decodeState(data []byte) (value.Value, error) {
	v, err := value.ParseJSON(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if v.Kind() != value.KindMap {
		return value.Value{}, fmt.Errorf("failed to decode state: want object, got %s", v.Kind())
	}
	return v, nil
}

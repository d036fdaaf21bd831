// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"fmt"
	"strings"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/gpath"
	"github.com/netascode/go-gnmi-intent/value"
)

// Resource is one path and its desired value. The value is ignored for
// deletes.
type Resource struct {
	Path  string
	Value value.Value
}

// Group is an ordered list of resources written with one mode.
type Group struct {
	Mode      gnmi.SetOperationType
	Resources []Resource
}

// Intent is the desired configuration of one device. Groups are applied
// in order.
type Intent struct {
	Groups []Group
}

// InvalidModeError reports a write mode other than update, replace or
// delete.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("reconcile: invalid mode %q (must be update, replace or delete)", e.Mode)
}

// ConflictingIntentError reports a path that occurs more than once in an
// intent, in the same group or in two different ones.
type ConflictingIntentError struct {
	Path  string
	Modes []gnmi.SetOperationType
}

func (e *ConflictingIntentError) Error() string {
	modes := make([]string, len(e.Modes))
	for i, m := range e.Modes {
		modes[i] = string(m)
	}
	return fmt.Sprintf("reconcile: path %q appears more than once in the intent (%s)", e.Path, strings.Join(modes, ", "))
}

// Validate checks modes, path syntax and path uniqueness. It is called
// by every Engine entry point before any request is sent.
func (in Intent) Validate() error {
	seen := make(map[string]gnmi.SetOperationType)
	for _, g := range in.Groups {
		if !g.Mode.Valid() {
			return &InvalidModeError{Mode: string(g.Mode)}
		}
		for _, r := range g.Resources {
			if err := validatePath(r.Path); err != nil {
				return err
			}
			if prev, ok := seen[r.Path]; ok {
				return &ConflictingIntentError{Path: r.Path, Modes: []gnmi.SetOperationType{prev, g.Mode}}
			}
			seen[r.Path] = g.Mode
		}
	}
	return nil
}

func validatePath(p string) error {
	if p == "" {
		return &gpath.MalformedPathError{Path: p, Reason: "empty path"}
	}
	if !strings.HasPrefix(p, "/") {
		return &gpath.MalformedPathError{Path: p, Reason: "path must start with '/'"}
	}
	_, err := gpath.Parse(p)
	return err
}

// Paths returns every touched path in intent order.
func (in Intent) Paths() []string {
	var out []string
	for _, g := range in.Groups {
		for _, r := range g.Resources {
			out = append(out, r.Path)
		}
	}
	return out
}

// Managed flattens the update and replace groups into a path to value
// map. Deleted paths are not managed after the pass that deletes them.
func (in Intent) Managed() value.Value {
	fields := make([]value.Field, 0)
	for _, g := range in.Groups {
		if g.Mode == gnmi.OperationDelete {
			continue
		}
		for _, r := range g.Resources {
			fields = append(fields, value.F(r.Path, r.Value))
		}
	}
	return value.Object(fields...)
}

func (in Intent) deleted() map[string]bool {
	out := make(map[string]bool)
	for _, g := range in.Groups {
		if g.Mode != gnmi.OperationDelete {
			continue
		}
		for _, r := range g.Resources {
			out[r.Path] = true
		}
	}
	return out
}

// Update is shorthand for a single update group.
func Update(resources ...Resource) Group {
	return Group{Mode: gnmi.OperationUpdate, Resources: resources}
}

// Replace is shorthand for a single replace group.
func Replace(resources ...Resource) Group {
	return Group{Mode: gnmi.OperationReplace, Resources: resources}
}

// Delete builds a delete group from paths.
func Delete(paths ...string) Group {
	g := Group{Mode: gnmi.OperationDelete}
	for _, p := range paths {
		g.Resources = append(g.Resources, Resource{Path: p})
	}
	return g
}

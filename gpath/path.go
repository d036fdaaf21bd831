// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package gpath parses and manipulates gNMI-style path strings such as
// "/network-instance[name=default]/protocols/bgp".
//
// A path is a sequence of segments separated by "/". Each segment has a
// name and at most one "[key=value]" predicate. Slashes inside a
// predicate value belong to the value, so "interface[name=ethernet-1/1]"
// is a single segment. Text following the closing bracket of the first
// predicate is kept verbatim but not interpreted.
package gpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
)

// ErrEmptyPath is returned by operations that need at least one segment.
var ErrEmptyPath = errors.New("gpath: path has no segments")

// MalformedPathError reports a path string that cannot be split into segments.
type MalformedPathError struct {
	Path   string
	Reason string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("gpath: malformed path %q: %s", e.Path, e.Reason)
}

// Segment is one element of a path.
type Segment struct {
	Name  string
	Key   string
	Value string

	hasKey bool
	// tail holds text after the first predicate; it is preserved for
	// String but otherwise ignored.
	tail string
}

// HasKey reports whether the segment carries a [key=value] predicate.
func (s Segment) HasKey() bool {
	return s.hasKey
}

func (s Segment) String() string {
	if !s.hasKey {
		return s.Name + s.tail
	}
	return s.Name + "[" + s.Key + "=" + s.Value + "]" + s.tail
}

// Resource identifies the element addressed by the last segment of a path.
type Resource struct {
	Resource string
	Key      string
	Value    string
}

// Path is an immutable parsed path.
type Path struct {
	segs []Segment
}

// Parse splits a path string into segments. Leading, trailing and
// repeated slashes are ignored. An empty string (or "/") yields a path
// with no segments. Only the first [key=value] predicate of a segment is
// parsed; any other bracket text stays part of the segment. Parse fails
// only when a non-empty input yields no segment at all.
func Parse(s string) (Path, error) {
	trimmed := strings.Trim(s, "/")
	if trimmed == "" {
		return Path{}, nil
	}

	var segs []Segment
	start := 0
	depth := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth > 0 {
				continue
			}
			if seg, ok := parseSegment(trimmed[start:i]); ok {
				segs = append(segs, seg)
			}
			start = i + 1
		}
	}
	if seg, ok := parseSegment(trimmed[start:]); ok {
		segs = append(segs, seg)
	}

	if len(segs) == 0 {
		return Path{}, &MalformedPathError{Path: s, Reason: "no segment found"}
	}
	return Path{segs: segs}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// package-level path templates.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// parseSegment reports false for text without a segment name.
func parseSegment(raw string) (Segment, bool) {
	open := strings.IndexByte(raw, '[')
	switch {
	case raw == "" || open == 0:
		return Segment{}, false
	case open < 0:
		return Segment{Name: raw}, true
	}

	name, rest := raw[:open], raw[open:]
	closing := strings.IndexByte(rest, ']')
	if closing < 0 {
		return Segment{Name: name, tail: rest}, true
	}
	pred := rest[1:closing]
	eq := strings.IndexByte(pred, '=')
	if eq <= 0 {
		return Segment{Name: name, tail: rest}, true
	}
	return Segment{
		Name:   name,
		Key:    pred[:eq],
		Value:  pred[eq+1:],
		hasKey: true,
		tail:   rest[closing+1:],
	}, true
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segs))
	copy(out, p.segs)
	return out
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool {
	return len(p.segs) == 0
}

// String renders the path without leading or trailing slash.
func (p Path) String() string {
	parts := make([]string, len(p.segs))
	for i, s := range p.segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// Absolute renders the path with a leading slash.
func (p Path) Absolute() string {
	return "/" + p.String()
}

// StripModulePrefixes drops a leading "module:" qualifier from every
// segment name. Only the first colon of a name is considered.
func (p Path) StripModulePrefixes() Path {
	segs := p.Segments()
	for i := range segs {
		if idx := strings.IndexByte(segs[i].Name, ':'); idx >= 0 {
			segs[i].Name = segs[i].Name[idx+1:]
		}
	}
	return Path{segs: segs}
}

// Parent returns the path without its last segment. ok is false for
// paths with fewer than two segments.
func (p Path) Parent() (parent Path, ok bool) {
	if len(p.segs) < 2 {
		return Path{}, false
	}
	segs := make([]Segment, len(p.segs)-1)
	copy(segs, p.segs)
	return Path{segs: segs}, true
}

// LastResource describes the element addressed by the path.
func (p Path) LastResource() (Resource, error) {
	if len(p.segs) == 0 {
		return Resource{}, ErrEmptyPath
	}
	last := p.segs[len(p.segs)-1]
	return Resource{Resource: last.Name, Key: last.Key, Value: last.Value}, nil
}

// Join appends the segments of other to p.
func (p Path) Join(other Path) Path {
	segs := make([]Segment, 0, len(p.segs)+len(other.segs))
	segs = append(segs, p.segs...)
	segs = append(segs, other.segs...)
	return Path{segs: segs}
}

// FromProto converts a gNMI protobuf path. Keys of a multi-key element
// are emitted in sorted order; only the first is kept as the segment
// predicate, the remaining ones end up in the segment tail. The origin,
// if any, qualifies the first element as "origin:name".
func FromProto(gp *gnmipb.Path) Path {
	if gp == nil {
		return Path{}
	}
	segs := make([]Segment, 0, len(gp.GetElem()))
	for _, e := range gp.GetElem() {
		seg := Segment{Name: e.GetName()}
		if len(e.GetKey()) > 0 {
			keys := make([]string, 0, len(e.GetKey()))
			for k := range e.GetKey() {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			seg.Key = keys[0]
			seg.Value = e.GetKey()[keys[0]]
			seg.hasKey = true
			var tail strings.Builder
			for _, k := range keys[1:] {
				tail.WriteString("[" + k + "=" + e.GetKey()[k] + "]")
			}
			seg.tail = tail.String()
		}
		segs = append(segs, seg)
	}
	if origin := gp.GetOrigin(); origin != "" && len(segs) > 0 {
		segs[0].Name = origin + ":" + segs[0].Name
	}
	return Path{segs: segs}
}

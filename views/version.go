// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"strings"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// Rule selects Spec for model versions accepted by Match.
type Rule[T any] struct {
	Match func(version string) bool
	Spec  T
}

// Prefix matches versions starting with any of the prefixes.
func Prefix(prefixes ...string) func(string) bool {
	return func(version string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(version, p) {
				return true
			}
		}
		return false
	}
}

// Dispatch is an ordered list of rules, oldest schema first.
type Dispatch[T any] []Rule[T]

// Select returns the spec of the first matching rule. When nothing
// matches it returns the spec of the last rule together with an
// *UnsupportedSchemaVersionError. Select panics on an empty Dispatch.
func (d Dispatch[T]) Select(model, version string) (T, error) {
	for _, r := range d {
		if r.Match(version) {
			return r.Spec, nil
		}
	}
	return d[len(d)-1].Spec, &UnsupportedSchemaVersionError{Model: model, Version: version}
}

// Model names a YANG module by the names it has carried across releases.
type Model struct {
	Name    string
	Aliases []string
}

var (
	bgpModel    = Model{Name: "srl_nokia-bgp"}
	bgpRibModel = Model{Name: "srl_nokia-bgp-rib", Aliases: []string{"srl_nokia-rib-bgp", "bgp-rib", "rib-bgp"}}
)

// version looks up the advertised version of m. Aliases also match as a
// substring of the advertised name.
func (b *Builder) version(ctx context.Context, m Model) (string, error) {
	models, err := b.dev.Models(ctx)
	if err != nil {
		return "", err
	}
	if v, ok := gnmi.ModelVersion(models, m.Name); ok {
		return v, nil
	}
	for _, alias := range m.Aliases {
		for _, md := range models {
			if strings.Contains(md.GetName(), alias) {
				return md.GetVersion(), nil
			}
		}
	}
	return "", nil
}

// selectSpec resolves the version of m and picks a spec from d, logging
// a warning when it falls back to the newest one.
func selectSpec[T any](ctx context.Context, b *Builder, m Model, d Dispatch[T]) (T, error) {
	var zero T
	v, err := b.version(ctx, m)
	if err != nil {
		return zero, err
	}
	spec, err := d.Select(m.Name, v)
	if err != nil {
		b.logger.Warn(ctx, "falling back to newest schema mapping", "model", m.Name, "version", v, "error", err)
	}
	return spec, nil
}

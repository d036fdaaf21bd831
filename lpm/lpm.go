// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package lpm performs longest prefix match lookups over CIDR strings.
package lpm

import (
	"fmt"
	"net/netip"
)

// Match returns the most specific candidate prefix containing addr, or ""
// if none does. Candidates that do not parse or belong to the other
// address family are skipped. Among prefixes of equal length the first
// one wins.
func Match(addr netip.Addr, candidates []string) string {
	addr = addr.Unmap()
	best := ""
	bestBits := -1
	for _, c := range candidates {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			continue
		}
		if p.Addr().Is4() != addr.Is4() {
			continue
		}
		if p.Bits() > bestBits && p.Masked().Contains(addr) {
			best = c
			bestBits = p.Bits()
		}
	}
	return best
}

// MatchString parses addr and calls Match. An address with a zone or
// prefix length is rejected.
func MatchString(addr string, candidates []string) (string, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return "", fmt.Errorf("lpm: invalid address %q: %w", addr, err)
	}
	return Match(a, candidates), nil
}

// Table is a prefix set parsed once for repeated lookups.
type Table struct {
	prefixes []entry
}

type entry struct {
	raw    string
	prefix netip.Prefix
}

// NewTable parses candidates, dropping the ones that are not prefixes.
func NewTable(candidates []string) *Table {
	t := &Table{prefixes: make([]entry, 0, len(candidates))}
	for _, c := range candidates {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			continue
		}
		t.prefixes = append(t.prefixes, entry{raw: c, prefix: p.Masked()})
	}
	return t
}

// Lookup is Match over the pre-parsed table.
func (t *Table) Lookup(addr netip.Addr) string {
	addr = addr.Unmap()
	best := ""
	bestBits := -1
	for _, e := range t.prefixes {
		if e.prefix.Addr().Is4() != addr.Is4() {
			continue
		}
		if e.prefix.Bits() > bestBits && e.prefix.Contains(addr) {
			best = e.raw
			bestBits = e.prefix.Bits()
		}
	}
	return best
}

// Len returns the number of usable prefixes.
func (t *Table) Len() int {
	return len(t.prefixes)
}

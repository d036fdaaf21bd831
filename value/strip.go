// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package value

import (
	"regexp"
	"strings"
)

// modulePrefix matches a schema module qualifier such as
// "srl_nokia-interfaces:" or "iana-if-type:". A module name needs at
// least one '-' or '_' separator, which keeps hex groups of IPv6
// addresses, MAC addresses and plain "word:" tokens out.
var modulePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.]*(?:[-_][A-Za-z0-9.]+)+:`)

// identity matches what may follow a module prefix in an enum value.
var identity = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// StripModulePrefixes returns a copy of v with module qualifiers removed
// from every map key and from string values that look like qualified
// identities ("srl_nokia-network-instance:ip-vrf" becomes "ip-vrf").
// Keys holding paths are stripped per '/' separated segment. Other
// scalars are returned unchanged. The input is not modified.
//
// Strings whose remainder contains another colon or whitespace are left
// alone, as are qualifiers without a separator (e.g. "bgp:x"). A value
// such as "route-distinguisher:abc" cannot be told apart from a
// qualified identity and will be stripped.
func StripModulePrefixes(v Value) Value {
	switch v.kind {
	case KindMap:
		out := Value{kind: KindMap, fields: make([]Field, 0, len(v.fields)), index: make(map[string]int, len(v.fields))}
		for _, f := range v.fields {
			out.set(stripKey(f.Key), StripModulePrefixes(f.Value))
		}
		return out
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = StripModulePrefixes(item)
		}
		return Value{kind: KindList, list: items}
	case KindString:
		return Str(stripString(v.s))
	}
	return v
}

func stripKey(k string) string {
	if !strings.Contains(k, ":") {
		return k
	}
	parts := strings.Split(k, "/")
	for i, p := range parts {
		for {
			loc := modulePrefix.FindStringIndex(p)
			if loc == nil || loc[1] == len(p) {
				break
			}
			p = p[loc[1]:]
		}
		parts[i] = p
	}
	return strings.Join(parts, "/")
}

func stripString(s string) string {
	loc := modulePrefix.FindStringIndex(s)
	if loc == nil {
		return s
	}
	rest := s[loc[1]:]
	if !identity.MatchString(rest) {
		return s
	}
	return rest
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package lpm

import (
	"net/netip"
	"testing"
)

func TestMatchString(t *testing.T) {
	tests := []struct {
		name       string
		addr       string
		candidates []string
		want       string
	}{
		{"most specific", "10.0.0.5", []string{"10.0.0.0/24", "10.0.0.0/8", "0.0.0.0/0"}, "10.0.0.0/24"},
		{"order independent", "10.0.0.5", []string{"0.0.0.0/0", "10.0.0.0/8", "10.0.0.0/24"}, "10.0.0.0/24"},
		{"no match", "10.0.0.5", []string{"10.0.1.0/24"}, ""},
		{"empty candidates", "10.0.0.5", nil, ""},
		{"host route", "192.168.1.1", []string{"192.168.1.0/24", "192.168.1.1/32"}, "192.168.1.1/32"},
		{"tie keeps first", "10.1.2.3", []string{"10.1.0.0/16", "10.1.2.3/16"}, "10.1.0.0/16"},
		{"v6", "2001:db8::1", []string{"2001:db8::/32", "2001:db8::/64", "::/0"}, "2001:db8::/64"},
		{"v4 against v6 candidates", "10.0.0.5", []string{"::/0", "2001:db8::/32"}, ""},
		{"v6 against v4 candidates", "2001:db8::1", []string{"0.0.0.0/0"}, ""},
		{"mixed families", "2001:db8::1", []string{"0.0.0.0/0", "::/0"}, "::/0"},
		{"garbage candidate skipped", "10.0.0.5", []string{"not-a-prefix", "10.0.0.0/8"}, "10.0.0.0/8"},
		{"mapped v4", "::ffff:10.0.0.5", []string{"10.0.0.0/8"}, "10.0.0.0/8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchString(tt.addr, tt.candidates)
			if err != nil {
				t.Fatalf("MatchString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchString(%q) = %q, want %q", tt.addr, got, tt.want)
			}

			if got := NewTable(tt.candidates).Lookup(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("Table.Lookup(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestMatchStringInvalidAddress(t *testing.T) {
	if _, err := MatchString("10.0.0.0/8", []string{"10.0.0.0/8"}); err == nil {
		t.Error("MatchString() error = nil, want error for prefix input")
	}
}

func TestTableLen(t *testing.T) {
	if got := NewTable([]string{"10.0.0.0/8", "x", "::/0"}).Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

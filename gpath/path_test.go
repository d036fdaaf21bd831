// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/interface/description", "interface/description"},
		{"no slashes", "system/name", "system/name"},
		{"trailing slash", "/system/name/", "system/name"},
		{"keyed", "/interface[name=ethernet-1/1]/subinterface[index=0]", "interface[name=ethernet-1/1]/subinterface[index=0]"},
		{"module prefix", "/srl_nokia-interfaces:interface[name=mgmt0]", "srl_nokia-interfaces:interface[name=mgmt0]"},
		{"tail kept", "/acl/entry[sequence-id=10][foo=bar]/action", "acl/entry[sequence-id=10][foo=bar]/action"},
		{"value with equals", "/a[k=x=y]/b", "a[k=x=y]/b"},
		{"empty segments dropped", "/interface[name=e1]//description", "interface[name=e1]/description"},
		{"predicate without key", "/interface[name]/description", "interface[name]/description"},
		{"unterminated predicate", "/interface[name=e1", "interface[name=e1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got := p.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
			again, err := Parse(p.String())
			if err != nil {
				t.Fatalf("re-parse error = %v", err)
			}
			if again.String() != p.String() {
				t.Errorf("re-parse String() = %q, want %q", again.String(), p.String())
			}
		})
	}
}

func TestParseSegments(t *testing.T) {
	p := MustParse("/network-instance[name=default]/protocols/bgp/neighbor[peer-address=2001:db8::1]")

	want := []Segment{
		{Name: "network-instance", Key: "name", Value: "default", hasKey: true},
		{Name: "protocols"},
		{Name: "bgp"},
		{Name: "neighbor", Key: "peer-address", Value: "2001:db8::1", hasKey: true},
	}
	if diff := cmp.Diff(want, p.Segments(), cmp.AllowUnexported(Segment{})); diff != "" {
		t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
	}
	if p.Len() != 4 {
		t.Errorf("Len() = %d, want 4", p.Len())
	}

	p = MustParse("a//b[k]")
	want = []Segment{{Name: "a"}, {Name: "b", tail: "[k]"}}
	if diff := cmp.Diff(want, p.Segments(), cmp.AllowUnexported(Segment{})); diff != "" {
		t.Errorf("Segments(a//b[k]) mismatch (-want +got):\n%s", diff)
	}
	if p.Segments()[1].HasKey() {
		t.Error("HasKey() = true for a predicate without '='")
	}
}

func TestParseRoot(t *testing.T) {
	for _, in := range []string{"", "/", "//"} {
		p, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", in, err)
			continue
		}
		if !p.IsRoot() {
			t.Errorf("Parse(%q).IsRoot() = false, want true", in)
		}
		if p.Absolute() != "/" {
			t.Errorf("Parse(%q).Absolute() = %q, want /", in, p.Absolute())
		}
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []string{
		"/[name=x]",
		"[a]/[b]",
		"/[=e1]//",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			var mErr *MalformedPathError
			if !errors.As(err, &mErr) {
				t.Fatalf("Parse(%q) error = %v, want *MalformedPathError", in, err)
			}
			if mErr.Path == "" {
				t.Error("MalformedPathError.Path is empty")
			}
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse() did not panic on malformed input")
		}
	}()
	MustParse("/[b]")
}

func TestStripModulePrefixes(t *testing.T) {
	p := MustParse("/srl_nokia-network-instance:network-instance[name=ip-vrf:1]/srl_nokia-bgp:protocols/bgp")
	got := p.StripModulePrefixes().String()
	want := "network-instance[name=ip-vrf:1]/protocols/bgp"
	if got != want {
		t.Errorf("StripModulePrefixes() = %q, want %q", got, want)
	}
	// original untouched
	if p.Segments()[0].Name != "srl_nokia-network-instance:network-instance" {
		t.Errorf("StripModulePrefixes() mutated receiver: %q", p.Segments()[0].Name)
	}
}

func TestParent(t *testing.T) {
	p := MustParse("/interface[name=e1]/subinterface[index=0]/description")
	parent, ok := p.Parent()
	if !ok {
		t.Fatal("Parent() ok = false, want true")
	}
	if got := parent.String(); got != "interface[name=e1]/subinterface[index=0]" {
		t.Errorf("Parent() = %q", got)
	}

	for _, in := range []string{"/interface[name=e1]", "/"} {
		if _, ok := MustParse(in).Parent(); ok {
			t.Errorf("Parse(%q).Parent() ok = true, want false", in)
		}
	}
}

func TestLastResource(t *testing.T) {
	r, err := MustParse("/network-instance[name=mgmt]/interface[name=mgmt0.0]").LastResource()
	if err != nil {
		t.Fatalf("LastResource() error = %v", err)
	}
	want := Resource{Resource: "interface", Key: "name", Value: "mgmt0.0"}
	if r != want {
		t.Errorf("LastResource() = %+v, want %+v", r, want)
	}

	if _, err := MustParse("/").LastResource(); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("LastResource() on root error = %v, want ErrEmptyPath", err)
	}
}

func TestJoin(t *testing.T) {
	got := MustParse("/network-instance[name=default]").Join(MustParse("protocols/bgp")).Absolute()
	if got != "/network-instance[name=default]/protocols/bgp" {
		t.Errorf("Join() = %q", got)
	}
}

func TestFromProto(t *testing.T) {
	gp := &gnmipb.Path{
		Origin: "srl_nokia-interfaces",
		Elem: []*gnmipb.PathElem{
			{Name: "interface", Key: map[string]string{"name": "ethernet-1/1"}},
			{Name: "subinterface", Key: map[string]string{"index": "0", "alias": "x"}},
			{Name: "description"},
		},
	}
	got := FromProto(gp).String()
	want := "srl_nokia-interfaces:interface[name=ethernet-1/1]/subinterface[alias=x][index=0]/description"
	if got != want {
		t.Errorf("FromProto() = %q, want %q", got, want)
	}
	if !FromProto(nil).IsRoot() {
		t.Error("FromProto(nil) is not root")
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"sort"
)

// Params are the report arguments. Empty selectors mean all.
type Params struct {
	NetworkInstance string
	Interface       string
	LAG             string
	// Family and RouteType apply to bgp_rib.
	Family    string
	RouteType string
	// Address restricts ipv4_rib and ipv6_rib to a longest prefix match.
	Address string
}

type report func(ctx context.Context, b *Builder, p Params) (Table, error)

var reports = map[string]report{
	"sys_info": func(ctx context.Context, b *Builder, _ Params) (Table, error) {
		return b.SysInfo(ctx)
	},
	"bgp_peers": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.BGPPeers(ctx, p.NetworkInstance)
	},
	"bgp_rib": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.BGPRib(ctx, p.Family, p.RouteType, p.NetworkInstance)
	},
	"ipv4_rib": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.RIB(ctx, "ipv4-unicast", p.NetworkInstance, p.Address)
	},
	"ipv6_rib": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.RIB(ctx, "ipv6-unicast", p.NetworkInstance, p.Address)
	},
	"mac_table": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.MACTable(ctx, p.NetworkInstance)
	},
	"es": func(ctx context.Context, b *Builder, _ Params) (Table, error) {
		return b.EthernetSegments(ctx)
	},
	"nwi_itfs": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.NetworkInstanceInterfaces(ctx, p.NetworkInstance)
	},
	"lldp_nbrs": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.LLDPNeighbors(ctx, p.Interface)
	},
	"arp": func(ctx context.Context, b *Builder, _ Params) (Table, error) {
		return b.ARP(ctx)
	},
	"nd": func(ctx context.Context, b *Builder, _ Params) (Table, error) {
		return b.ND(ctx)
	},
	"lag": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.LAG(ctx, p.LAG)
	},
	"subinterface": func(ctx context.Context, b *Builder, p Params) (Table, error) {
		return b.Subinterfaces(ctx, p.Interface)
	},
}

// Names returns the registered report names, sorted.
func Names() []string {
	out := make([]string, 0, len(reports))
	for name := range reports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Report builds the named report.
func (b *Builder) Report(ctx context.Context, name string, p Params) (Table, error) {
	r, ok := reports[name]
	if !ok {
		return Table{Report: name}, &UnknownReportError{Name: name}
	}
	return r(ctx, b, p)
}

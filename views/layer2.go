// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// LLDPNeighborsView lists LLDP neighbors per interface matching itf.
func LLDPNeighborsView(itf string) View {
	return View{
		Name:    "lldp_nbrs",
		Queries: []Query{{Path: "/system/lldp/interface[name=" + itf + "]/neighbor", DataType: gnmi.DataTypeState}},
		Rows: Projection{
			{Each: "system/lldp.interface", Fields: []Field{{Column: "interface", Path: "name"}}},
			{Each: "neighbor", Fields: []Field{
				{Column: "Nbr-port", Path: "port-id"},
				{Column: "Nbr-System", Path: "system-name"},
				{Column: "Nbr-port-desc", Path: "port-description"},
			}},
		},
	}
}

// MACTableView lists learned MAC addresses per network instance. It is
// empty on devices without the bridged feature.
func MACTableView(ni string) View {
	return View{
		Name:    "mac_table",
		Feature: "bridged",
		Queries: []Query{{Path: "/network-instance[name=" + ni + "]/bridge-table/mac-table/mac", DataType: gnmi.DataTypeState}},
		Rows: Projection{
			{Each: "network-instance", Fields: []Field{{Column: "NI", Path: "name"}}},
			{Each: "bridge-table.mac-table.mac", Fields: []Field{
				{Column: "Address", Path: "address"},
				{Column: "Dest", Path: "destination"},
				{Column: "Type", Path: "type"},
			}},
		},
	}
}

const esKey = "system/network-instance/protocols/evpn/ethernet-segments"

// EthernetSegmentsView lists EVPN ethernet segments with their
// designated forwarder candidates per network instance. It is empty on
// devices without the evpn feature.
func EthernetSegmentsView() View {
	return View{
		Name:    "es",
		Feature: "evpn",
		Queries: []Query{{Path: "/" + esKey, DataType: gnmi.DataTypeState}},
		Augment: augmentEthernetSegments,
		Rows: Projection{
			{Each: esKey + ".bgp-instance"},
			{Each: "ethernet-segment", Fields: []Field{
				{Column: "name", Path: "name"},
				{Column: "esi", Path: "esi"},
				{Column: "mh-mode", Path: "multi-homing-mode"},
				{Column: "oper", Path: "oper-state"},
				{Column: "itf", Path: "interface.#.ethernet-interface", Join: " "},
				{Column: "ni-peers", Path: "association.network-instance.#._ni_peers", Join: ", "},
			}},
		},
	}
}

func augmentEthernetSegments(in Input) gnmi.Body {
	body := gnmi.NewBody(in.Docs[0].Raw)
	levels := []string{esKey, "bgp-instance", "ethernet-segment", "association.network-instance"}
	each(in.Docs[0], "", levels, func(ni gjson.Result, path string) {
		var peers []string
		candidates := ni.Get("bgp-instance.0.computed-designated-forwarder-candidates.designated-forwarder-candidate")
		for _, c := range candidates.Array() {
			peer := c.Get("address").String()
			if c.Get("designated-forwarder").Bool() {
				peer += "(DF)"
			}
			peers = append(peers, peer)
		}
		joined := strings.Join(peers, " ")
		body = body.Set(path+"._peers", joined).
			Set(path+"._ni_peers", ni.Get("name").String()+":["+joined+"]")
	})
	return body
}

// LLDPNeighbors builds the lldp_nbrs report.
func (b *Builder) LLDPNeighbors(ctx context.Context, itf string) (Table, error) {
	return b.Build(ctx, LLDPNeighborsView(orAll(itf)))
}

// MACTable builds the mac_table report.
func (b *Builder) MACTable(ctx context.Context, ni string) (Table, error) {
	return b.Build(ctx, MACTableView(orAll(ni)))
}

// EthernetSegments builds the es report.
func (b *Builder) EthernetSegments(ctx context.Context) (Table, error) {
	return b.Build(ctx, EthernetSegmentsView())
}

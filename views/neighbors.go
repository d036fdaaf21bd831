// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// ARPView lists IPv4 neighbors per subinterface, with the network
// instances the subinterface belongs to and the time left until expiry.
func ARPView() View {
	return View{
		Name: "arp",
		Queries: []Query{
			{Path: "/interface[name=*]/subinterface[index=*]/ipv4/arp/neighbor", DataType: gnmi.DataTypeState},
			{Path: "/network-instance[name=*]", DataType: gnmi.DataTypeConfig},
		},
		Augment: func(in Input) gnmi.Body {
			owners := make(map[string][]string)
			each(in.Docs[1], "", []string{"network-instance"}, func(ni gjson.Result, _ string) {
				for _, itf := range ni.Get("interface.#.name").Array() {
					owners[itf.String()] = append(owners[itf.String()], ni.Get("name").String())
				}
			})
			return augmentNeighbors(in, "ipv4.arp.neighbor", "expiration-time", func(body gnmi.Body, path, subitf string) gnmi.Body {
				return body.Set(path+"._ni", strings.Join(owners[subitf], " "))
			})
		},
		Rows: Projection{
			{Each: "interface"},
			{Each: "subinterface", Fields: []Field{
				{Column: "interface", Path: "_subitf"},
				{Column: "NI", Path: "_ni"},
			}},
			{Each: "ipv4.arp.neighbor", Fields: []Field{
				{Column: "IPv4", Path: "ipv4-address"},
				{Column: "MAC", Path: "link-layer-address"},
				{Column: "Type", Path: "origin"},
				{Column: "expiry", Path: "_rel_expiry"},
			}},
		},
	}
}

// NDView lists IPv6 neighbors per subinterface with the time left until
// their next state change.
func NDView() View {
	return View{
		Name:    "nd",
		Queries: []Query{{Path: "/interface[name=*]/subinterface[index=*]/ipv6/neighbor-discovery/neighbor", DataType: gnmi.DataTypeState}},
		Augment: func(in Input) gnmi.Body {
			return augmentNeighbors(in, "ipv6.neighbor-discovery.neighbor", "next-state-time", nil)
		},
		Rows: Projection{
			{Each: "interface"},
			{Each: "subinterface", Fields: []Field{{Column: "interface", Path: "_subitf"}}},
			{Each: "ipv6.neighbor-discovery.neighbor", Fields: []Field{
				{Column: "IPv6", Path: "ipv6-address"},
				{Column: "MAC", Path: "link-layer-address"},
				{Column: "State", Path: "current-state"},
				{Column: "Type", Path: "origin"},
				{Column: "next_state", Path: "_rel_expiry"},
			}},
		},
	}
}

// augmentNeighbors names every subinterface "<interface>.<index>" and
// adds a relative expiry to each neighbor below it.
func augmentNeighbors(in Input, neighbors, expiry string, extra func(gnmi.Body, string, string) gnmi.Body) gnmi.Body {
	body := gnmi.NewBody(in.Docs[0].Raw)
	each(in.Docs[0], "", []string{"interface"}, func(itf gjson.Result, itfPath string) {
		each(itf, itfPath, []string{"subinterface"}, func(si gjson.Result, path string) {
			subitf := itf.Get("name").String() + "." + si.Get("index").String()
			body = body.Set(path+"._subitf", subitf)
			if extra != nil {
				body = extra(body, path, subitf)
			}
			each(si, path, []string{neighbors}, func(n gjson.Result, nPath string) {
				body = body.Set(nPath+"._rel_expiry", relativeExpiry(n.Get(expiry).String(), in.Now))
			})
		})
	})
	return body
}

// ARP builds the arp report.
func (b *Builder) ARP(ctx context.Context) (Table, error) {
	return b.Build(ctx, ARPView())
}

// ND builds the nd report.
func (b *Builder) ND(ctx context.Context) (Table, error) {
	return b.Build(ctx, NDView())
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
)

const ipPrefixes = "[ipv4.address.#.ip-prefix,ipv6.address.#.ip-prefix]|@flatten"

// NetworkInstanceInterfacesView lists the subinterfaces of every network
// instance matching ni. Subinterface state is merged into each entry and
// IRB interfaces show the other instances they are attached to.
func NetworkInstanceInterfacesView(ni string) View {
	return View{
		Name: "nwi_itfs",
		Queries: []Query{
			{Path: "/network-instance[name=" + ni + "]", DataType: gnmi.DataTypeState},
			{Path: "/interface[name=*]/subinterface", DataType: gnmi.DataTypeState},
		},
		Augment: augmentNetworkInstanceInterfaces,
		Rows: Projection{
			{Each: "network-instance", Fields: []Field{
				{Column: "NI", Path: "name"},
				{Column: "oper", Path: "oper-state"},
				{Column: "type", Path: "type"},
				{Column: "router-id", Path: "protocols.bgp.router-id"},
			}},
			{Each: "interface", Fields: []Field{
				{Column: "Subitf", Path: "name"},
				{Column: "assoc-ni", Path: "_other_ni"},
				{Column: "if-oper", Path: "oper-state"},
				{Column: "ip-prefix", Path: ipPrefixes, Join: " "},
				{Column: "vlan", Path: "vlan.encap.single-tagged.vlan-id"},
				{Column: "mtu", Path: "_mtu"},
			}},
		},
	}
}

func augmentNetworkInstanceInterfaces(in Input) gnmi.Body {
	subitfs := make(map[string]gjson.Result)
	each(in.Docs[1], "", []string{"interface"}, func(itf gjson.Result, _ string) {
		for _, si := range itf.Get("subinterface").Array() {
			subitfs[itf.Get("name").String()+"."+si.Get("index").String()] = si
		}
	})

	body := gnmi.NewBody(in.Docs[0].Raw)
	each(in.Docs[0], "", []string{"network-instance"}, func(ni gjson.Result, niPath string) {
		niName := ni.Get("name").String()
		each(ni, niPath, []string{"interface"}, func(itf gjson.Result, path string) {
			name := itf.Get("name").String()
			si := subitfs[name]
			si.ForEach(func(k, v gjson.Result) bool {
				if k.Str != "index" && k.Str != "name" {
					body = body.SetRaw(join(path, gjson.Escape(k.Str)), v.Raw)
				}
				return true
			})
			mtu := ""
			if v := si.Get("l2-mtu"); v.Exists() {
				mtu = v.String()
			} else if v := si.Get("ip-mtu"); v.Exists() {
				mtu = v.String()
			}
			body = body.Set(path+"._mtu", mtu)

			if strings.HasPrefix(name, "irb") {
				var others []string
				each(in.Docs[0], "", []string{"network-instance"}, func(other gjson.Result, _ string) {
					otherName := other.Get("name").String()
					if otherName == niName {
						return
					}
					for _, i := range other.Get("interface.#.name").Array() {
						if i.String() == name {
							others = append(others, otherName)
							return
						}
					}
				})
				body = body.Set(path+"._other_ni", strings.Join(others, " "))
			}
		})
	})
	return body
}

// LAGView lists LAG interfaces matching lag{id} and their members.
func LAGView(id string) View {
	return View{
		Name:    "lag",
		Queries: []Query{{Path: "/interface[name=lag" + id + "]", DataType: gnmi.DataTypeState}},
		Augment: func(in Input) gnmi.Body {
			body := gnmi.NewBody(in.Docs[0].Raw)
			each(in.Docs[0], "", []string{"interface", "lag.member"}, func(m gjson.Result, path string) {
				body = body.Set(path+".name", strings.Replace(m.Get("name").String(), "ethernet", "et", 1))
			})
			return body
		},
		Rows: Projection{
			{Each: "interface", Fields: []Field{
				{Column: "lag", Path: "name"},
				{Column: "oper", Path: "oper-state"},
				{Column: "mtu", Path: "mtu"},
				{Column: "min", Path: "lag.min-links"},
				{Column: "desc", Path: "description"},
				{Column: "type", Path: "lag.lag-type"},
				{Column: "speed", Path: "lag.lag-speed"},
				{Column: "stby-sig", Path: "ethernet.standby-signaling"},
				{Column: "lacp-key", Path: "lag.lacp.admin-key"},
				{Column: "lacp-itvl", Path: "lag.lacp.interval"},
				{Column: "lacp-mode", Path: "lag.lacp.lacp-mode"},
				{Column: "lacp-sysid", Path: "lag.lacp.system-id-mac"},
				{Column: "lacp-prio", Path: "lag.lacp.system-priority"},
			}},
			{Each: "lag.member", Fields: []Field{
				{Column: "member-itf", Path: "name"},
				{Column: "member-oper", Path: "oper-state"},
				{Column: "act", Path: "lacp.activity"},
			}},
		},
	}
}

// SubinterfaceView summarizes the subinterfaces of interfaces matching
// itf.
func SubinterfaceView(itf string) View {
	return View{
		Name:    "subinterface",
		Queries: []Query{{Path: "/interface[name=" + itf + "]/subinterface", DataType: gnmi.DataTypeState}},
		Rows: Projection{
			{Each: "interface", Fields: []Field{{Column: "Itf", Path: "name"}}},
			{Each: "subinterface", Fields: []Field{
				{Column: "Subitf", Path: "name"},
				{Column: "type", Path: "type"},
				{Column: "admin", Path: "admin-state"},
				{Column: "oper", Path: "oper-state"},
				{Column: "ipv4", Path: "ipv4.address.#.ip-prefix", Join: " "},
				{Column: "ipv6", Path: "ipv6.address.#.ip-prefix", Join: " "},
				{Column: "vlan", Path: "vlan.encap.single-tagged.vlan-id"},
			}},
		},
	}
}

// NetworkInstanceInterfaces builds the nwi_itfs report.
func (b *Builder) NetworkInstanceInterfaces(ctx context.Context, ni string) (Table, error) {
	return b.Build(ctx, NetworkInstanceInterfacesView(orAll(ni)))
}

// LAG builds the lag report.
func (b *Builder) LAG(ctx context.Context, id string) (Table, error) {
	return b.Build(ctx, LAGView(orAll(id)))
}

// Subinterfaces builds the subinterface report.
func (b *Builder) Subinterfaces(ctx context.Context, itf string) (Table, error) {
	return b.Build(ctx, SubinterfaceView(orAll(itf)))
}

func orAll(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

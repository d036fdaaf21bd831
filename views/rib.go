// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/lpm"
)

// nextHop is the resolved form of one route-table next-hop.
type nextHop struct {
	address      string
	subinterface string
	tunnel       string
}

func prefixLeaf(afi string) string {
	if afi == "ipv4-unicast" {
		return "ipv4-prefix"
	}
	return "ipv6-prefix"
}

// RIBView lists the route table of one address family per network
// instance matching ni. Next-hop groups are resolved to addresses and
// interfaces; routes leaked from another instance name it and resolve
// through its next hops. With a valid lookup address only the longest
// matching prefix of each instance is kept.
func RIBView(afi, ni string, lookup netip.Addr) View {
	rt := "/network-instance[name=" + ni + "]/route-table/"
	pfx := prefixLeaf(afi)
	return View{
		Name: ribName(afi),
		Queries: []Query{
			{Path: rt + afi, DataType: gnmi.DataTypeState},
			{Path: rt + "next-hop-group[index=*]", DataType: gnmi.DataTypeState},
			{Path: rt + "next-hop[index=*]", DataType: gnmi.DataTypeState},
		},
		Augment: func(in Input) gnmi.Body {
			return augmentRIB(in, afi, lookup)
		},
		Rows: Projection{
			{Each: "network-instance", Where: "_hasrib", Fields: []Field{{Column: "NI", Path: "name"}}},
			{Each: "route-table." + afi + ".route", Fields: []Field{
				{Column: "Prefix", Path: pfx},
				{Column: "next-hop", Path: "_next-hop"},
				{Column: "type", Path: "route-type"},
				{Column: "Act", Path: "active"},
				{Column: "orig-vrf", Path: "_orig_vrf"},
				{Column: "metric", Path: "metric"},
				{Column: "pref", Path: "preference"},
				{Column: "itf", Path: "_nh_itf"},
			}},
		},
	}
}

func ribName(afi string) string {
	if afi == "ipv4-unicast" {
		return "ipv4_rib"
	}
	return "ipv6_rib"
}

func augmentRIB(in Input, afi string, lookup netip.Addr) gnmi.Body {
	hops := make(map[string]map[string]nextHop)
	each(in.Docs[2], "", []string{"network-instance"}, func(ni gjson.Result, _ string) {
		m := make(map[string]nextHop)
		for _, nh := range ni.Get("route-table.next-hop").Array() {
			h := nextHop{
				address:      nh.Get("ip-address").String(),
				subinterface: nh.Get("subinterface").String(),
			}
			if t := nh.Get("resolving-tunnel"); t.Exists() {
				h.tunnel = t.Get("tunnel-type").String() + ":" + t.Get("ip-prefix").String()
			}
			m[nh.Get("index").String()] = h
		}
		hops[ni.Get("name").String()] = m
	})

	groups := make(map[string]map[string][]nextHop)
	each(in.Docs[1], "", []string{"network-instance"}, func(ni gjson.Result, _ string) {
		name := ni.Get("name").String()
		m := make(map[string][]nextHop)
		for _, g := range ni.Get("route-table.next-hop-group").Array() {
			var list []nextHop
			for _, ref := range g.Get("next-hop.#.next-hop").Array() {
				list = append(list, hops[name][ref.String()])
			}
			m[g.Get("index").String()] = list
		}
		groups[name] = m
	})

	pfx := prefixLeaf(afi)
	body := gnmi.NewBody(in.Docs[0].Raw)
	each(in.Docs[0], "", []string{"network-instance"}, func(ni gjson.Result, niPath string) {
		name := ni.Get("name").String()
		routesPath := join(niPath, "route-table."+afi+".route")
		routes := ni.Get("route-table." + afi + ".route").Array()

		if lookup.IsValid() && len(routes) > 0 {
			candidates := make([]string, len(routes))
			for i, r := range routes {
				candidates[i] = r.Get(pfx).String()
			}
			best := lpm.Match(lookup, candidates)
			var kept []gjson.Result
			raw := "["
			for _, r := range routes {
				if best != "" && r.Get(pfx).String() == best {
					if len(kept) > 0 {
						raw += ","
					}
					raw += r.Raw
					kept = append(kept, r)
				}
			}
			body = body.SetRaw(routesPath, raw+"]")
			routes = kept
		}
		body = body.Set(niPath+"._hasrib", len(routes) > 0)

		for i, r := range routes {
			path := fmt.Sprintf("%s.%d", routesPath, i)
			if r.Get("active").Bool() {
				body = body.Set(path+".active", "yes")
			} else {
				body = body.Set(path+".active", "no")
			}
			if !r.Get("next-hop-group").Exists() {
				continue
			}
			owner, leaked := name, false
			if o := r.Get("origin-network-instance"); o.Exists() && o.String() != name {
				owner, leaked = o.String(), true
				body = body.Set(path+"._orig_vrf", owner)
			}
			group := groups[owner][r.Get("next-hop-group").String()]

			addrs := []string{}
			var itfs, tunnels []string
			for _, h := range group {
				if h.address != "" {
					addrs = append(addrs, h.address)
				}
				if h.subinterface != "" {
					if leaked {
						itfs = append(itfs, h.subinterface+"@vrf:"+owner)
					} else {
						itfs = append(itfs, h.subinterface)
					}
				}
				if h.tunnel != "" {
					tunnels = append(tunnels, h.tunnel)
				}
			}
			if len(itfs) == 0 {
				itfs = tunnels
			}
			if itfs == nil {
				itfs = []string{}
			}
			body = body.Set(path+"._next-hop", addrs).Set(path+"._nh_itf", itfs)
		}
	})
	return body
}

// RIB builds the ipv4_rib or ipv6_rib report. afi is "ipv4" or "ipv6"
// (or their "-unicast" forms); a non-empty address restricts every
// instance to its longest matching prefix.
func (b *Builder) RIB(ctx context.Context, afi, ni, address string) (Table, error) {
	switch afi {
	case "ipv4", "ipv6":
		afi += "-unicast"
	case "ipv4-unicast", "ipv6-unicast":
	default:
		return Table{Report: "rib"}, &InvalidRouteFamilyError{Family: afi}
	}
	var lookup netip.Addr
	if address != "" {
		a, err := netip.ParseAddr(address)
		if err != nil {
			return Table{Report: ribName(afi)}, fmt.Errorf("views: lookup address: %w", err)
		}
		lookup = a
	}
	return b.Build(ctx, RIBView(afi, orAll(ni), lookup))
}

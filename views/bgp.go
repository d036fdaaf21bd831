// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// bgpPeerSchema describes where a neighbor keeps its per family data.
type bgpPeerSchema struct {
	// afiSafiList is true when families live in an afi-safi list keyed
	// by afi-safi-name rather than in one container per family.
	afiSafiList bool
}

var bgpPeerSchemas = Dispatch[bgpPeerSchema]{
	{Match: Prefix("2021-", "2022-"), Spec: bgpPeerSchema{}},
	{Match: Prefix("2023-3", "20"), Spec: bgpPeerSchema{afiSafiList: true}},
}

func (s bgpPeerSchema) localAS(peer gjson.Result) gjson.Result {
	if s.afiSafiList {
		return peer.Get("local-as.as-number")
	}
	return peer.Get("local-as.0.as-number")
}

func (s bgpPeerSchema) family(peer gjson.Result, name string) gjson.Result {
	if !s.afiSafiList {
		if name == "ipv6-unicast" {
			return gjson.Result{}
		}
		return peer.Get(name)
	}
	for _, afi := range peer.Get("afi-safi").Array() {
		if afi.Get("afi-safi-name").String() == name {
			return afi
		}
	}
	return gjson.Result{}
}

// familySummary renders received/active/sent routes, "disabled" or
// "down", or "-" when the family is not configured.
func familySummary(afi gjson.Result, checkOper bool) string {
	if !afi.Exists() {
		return "-"
	}
	if afi.Get("admin-state").String() != "enable" {
		return "disabled"
	}
	if checkOper && afi.Get("oper-state").String() == "down" {
		return "down"
	}
	return afi.Get("received-routes").String() + "/" + afi.Get("active-routes").String() + "/" + afi.Get("sent-routes").String()
}

func flag(on bool, c string) string {
	if on {
		return c
	}
	return "-"
}

// BGPPeersView lists BGP neighbors per network instance matching ni.
func BGPPeersView(ni string, schema bgpPeerSchema) View {
	return View{
		Name:    "bgp_peers",
		Queries: []Query{{Path: "/network-instance[name=" + ni + "]/protocols/bgp/neighbor", DataType: gnmi.DataTypeState}},
		Augment: func(in Input) gnmi.Body {
			body := gnmi.NewBody(in.Docs[0].Raw)
			each(in.Docs[0], "", []string{"network-instance", "protocols.bgp.neighbor"}, func(peer gjson.Result, path string) {
				localAS := "-"
				if v := schema.localAS(peer); v.Exists() {
					localAS = v.String()
				}
				flags := flag(peer.Get("dynamic-neighbor").Bool(), "D") +
					flag(peer.Get("failure-detection.enable-bfd").Bool(), "B") +
					flag(peer.Get("failure-detection.fast-failover").Bool(), "F")
				body = body.
					Set(path+"._local-asn", localAS).
					Set(path+"._flags", flags).
					Set(path+"._evpn", familySummary(schema.family(peer, "evpn"), false)).
					Set(path+"._ipv4", familySummary(schema.family(peer, "ipv4-unicast"), true)).
					Set(path+"._ipv6", familySummary(schema.family(peer, "ipv6-unicast"), true))
			})
			return body
		},
		Rows: Projection{
			{Each: "network-instance", Fields: []Field{{Column: "NI", Path: "name"}}},
			{Each: "protocols.bgp.neighbor", Fields: []Field{
				{Column: "peer", Path: "peer-address"},
				{Column: "peer-as", Path: "peer-as"},
				{Column: "state", Path: "session-state"},
				{Column: "local-as", Path: "_local-asn"},
				{Column: "flags", Path: "_flags"},
				{Column: "group", Path: "peer-group"},
				{Column: "export-policy", Path: "export-policy"},
				{Column: "import-policy", Path: "import-policy"},
				{Column: "IPv4 Rx/Act/Tx", Path: "_ipv4"},
				{Column: "IPv6 Rx/Act/Tx", Path: "_ipv6"},
				{Column: "EVPN Rx/Act/Tx", Path: "_evpn"},
			}},
		},
	}
}

// BGPPeers builds the bgp_peers report for the bgp schema the device
// advertises.
func (b *Builder) BGPPeers(ctx context.Context, ni string) (Table, error) {
	schema, err := selectSpec(ctx, b, bgpModel, bgpPeerSchemas)
	if err != nil {
		return Table{Report: "bgp_peers"}, err
	}
	return b.Build(ctx, BGPPeersView(orAll(ni), schema))
}

// routeFamilies maps report families to their schema names.
var routeFamilies = map[string]string{
	"evpn": "evpn",
	"ipv4": "ipv4-unicast",
	"ipv6": "ipv6-unicast",
}

// RouteFamilies returns the accepted bgp_rib families.
func RouteFamilies() []string {
	out := make([]string, 0, len(routeFamilies))
	for f := range routeFamilies {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DefaultRouteType is the EVPN route type reported when none is given.
const DefaultRouteType = "2"

// evpnSchema locates EVPN routes of one route type.
type evpnSchema struct {
	afiSafiList bool
	routeTypes  map[string]string
}

var (
	evpnRouteTypesPlural = map[string]string{
		"1": "ethernet-ad-routes",
		"2": "mac-ip-routes",
		"3": "imet-routes",
		"4": "ethernet-segment-routes",
		"5": "ip-prefix-routes",
	}
	evpnRouteTypes = map[string]string{
		"1": "ethernet-ad-route",
		"2": "mac-ip-route",
		"3": "imet-route",
		"4": "ethernet-segment-route",
		"5": "ip-prefix-route",
	}
)

var evpnSchemas = Dispatch[evpnSchema]{
	{Match: Prefix("2021-", "2022-", "2023-", "2024-03", "2024-07"), Spec: evpnSchema{routeTypes: evpnRouteTypesPlural}},
	{Match: Prefix("20"), Spec: evpnSchema{afiSafiList: true, routeTypes: evpnRouteTypes}},
}

// ipRibSchema locates the local RIB of an IP family.
type ipRibSchema struct {
	afiSafiList bool
	routes      string
	communities string
}

var ipRibSchemas = Dispatch[ipRibSchema]{
	{Match: Prefix("2021-", "2022-"), Spec: ipRibSchema{routes: "routes"}},
	{Match: Prefix("2023-03"), Spec: ipRibSchema{afiSafiList: true, routes: "routes", communities: ", "}},
	{Match: Prefix("20"), Spec: ipRibSchema{afiSafiList: true, routes: "route", communities: ","}},
}

// evpnRouteFields are the columns per EVPN route type.
var evpnRouteFields = map[string][]Field{
	"1": {
		{Column: "RD", Path: "route-distinguisher"},
		{Column: "peer", Path: "neighbor"},
		{Column: "ESI", Path: "esi"},
		{Column: "Tag", Path: "ethernet-tag-id"},
		{Column: "vni", Path: "vni"},
		{Column: "NextHop", Path: "next-hop"},
		{Column: "RT", Path: "_rt"},
		{Column: "esi-lbl", Path: "_esi_lbl"},
		{Column: "st", Path: "_r_state"},
		{Column: "as-path", Path: "as-path.segment.0.member"},
	},
	"2": {
		{Column: "RD", Path: "route-distinguisher"},
		{Column: "RT", Path: "_rt"},
		{Column: "peer", Path: "neighbor"},
		{Column: "ESI", Path: "esi"},
		{Column: "MAC", Path: "mac-address"},
		{Column: "IP", Path: "ip-address"},
		{Column: "vni", Path: "vni"},
		{Column: "next-hop", Path: "next-hop"},
		{Column: "st", Path: "_r_state"},
		{Column: "as-path", Path: "as-path.segment.0.member"},
	},
	"3": {
		{Column: "RD", Path: "route-distinguisher"},
		{Column: "RT", Path: "_rt"},
		{Column: "peer", Path: "neighbor"},
		{Column: "Tag", Path: "ethernet-tag-id"},
		{Column: "next-hop", Path: "next-hop"},
		{Column: "origin", Path: "origin"},
		{Column: "st", Path: "_r_state"},
		{Column: "as-path", Path: "as-path.segment.0.member"},
	},
	"4": {
		{Column: "RD", Path: "route-distinguisher"},
		{Column: "RT", Path: "_rt"},
		{Column: "peer", Path: "neighbor"},
		{Column: "ESI", Path: "esi"},
		{Column: "next-hop", Path: "next-hop"},
		{Column: "origin", Path: "origin"},
		{Column: "st", Path: "_r_state"},
		{Column: "as-path", Path: "as-path.segment.0.member"},
	},
	"5": {
		{Column: "RD", Path: "route-distinguisher"},
		{Column: "RT", Path: "_rt"},
		{Column: "peer", Path: "neighbor"},
		{Column: "lpref", Path: "local-pref"},
		{Column: "IP-Pfx", Path: "ip-prefix"},
		{Column: "vni", Path: "vni"},
		{Column: "med", Path: "med"},
		{Column: "next-hop", Path: "next-hop"},
		{Column: "GW", Path: "gateway-ip"},
		{Column: "origin", Path: "origin"},
		{Column: "st", Path: "_r_state"},
		{Column: "as-path", Path: "as-path.segment.0.member"},
	},
}

// ValidateRIBQuery checks a bgp_rib family and route type. An empty
// route type is accepted.
func ValidateRIBQuery(family, routeType string) error {
	if _, ok := routeFamilies[family]; !ok {
		return &InvalidRouteFamilyError{Family: family}
	}
	if _, ok := evpnRouteTypes[routeType]; routeType != "" && !ok {
		return &InvalidRouteTypeError{Type: routeType}
	}
	return nil
}

// bgpRibSchema bundles the two schema choices that depend on the
// bgp-rib model version.
type bgpRibSchema struct {
	evpn evpnSchema
	ip   ipRibSchema
}

// BGPRibView lists BGP RIB routes of one family, EVPN routes of one
// route type. Route attributes are resolved from the attribute sets.
func BGPRibView(family, routeType, ni string, schema bgpRibSchema) (View, error) {
	if routeType == "" {
		routeType = DefaultRouteType
	}
	if err := ValidateRIBQuery(family, routeType); err != nil {
		return View{}, err
	}
	afi := routeFamilies[family]
	base := "/network-instance[name=" + ni + "]/bgp-rib/"
	ribContainer := afi
	if (family == "evpn" && schema.evpn.afiSafiList) || (family != "evpn" && schema.ip.afiSafiList) {
		base += "afi-safi[afi-safi-name=" + afi + "]/"
		ribContainer = "afi-safi"
	}

	var routes string
	var fields []Field
	if family == "evpn" {
		routes = afi + ".rib-in-out.rib-in-post." + schema.evpn.routeTypes[routeType]
		fields = evpnRouteFields[routeType]
	} else {
		routes = afi + ".local-rib." + schema.ip.routes
		fields = []Field{
			{Column: "neighbor", Path: "neighbor"},
			{Column: "st", Path: "_r_state"},
			{Column: "Prefix", Path: "prefix"},
			{Column: "lpref", Path: "local-pref"},
			{Column: "med", Path: "med"},
			{Column: "next-hop", Path: "next-hop"},
			{Column: "as-path", Path: "as-path.segment.0.member"},
		}
		if schema.ip.communities != "" {
			fields = append(fields, Field{
				Column: "communities",
				Path:   "[communities.community,communities.large-community]|@flatten",
				Join:   schema.ip.communities,
			})
		}
	}

	rows := Projection{{Each: "network-instance", Fields: []Field{{Column: "NI", Path: "name"}}}}
	if ribContainer == "afi-safi" {
		rows = append(rows, Level{Each: "bgp-rib.afi-safi"}, Level{Each: routes, Fields: fields})
	} else {
		rows = append(rows, Level{Each: "bgp-rib." + routes, Fields: fields})
	}

	return View{
		Name: "bgp_rib",
		Queries: []Query{
			{Path: base + strings.ReplaceAll(routes, ".", "/"), DataType: gnmi.DataTypeState},
			{Path: "/network-instance[name=" + ni + "]/bgp-rib/attr-sets/attr-set", DataType: gnmi.DataTypeState},
		},
		Augment: augmentRoutes,
		Rows:    rows,
	}, nil
}

// augmentRoutes merges the attribute set referenced by every route into
// the route and derives the state, VNI, route target and ESI label
// columns.
func augmentRoutes(in Input) gnmi.Body {
	attrs := make(map[string]map[string]gjson.Result)
	each(in.Docs[1], "", []string{"network-instance"}, func(ni gjson.Result, _ string) {
		sets := make(map[string]gjson.Result)
		for _, set := range ni.Get("bgp-rib.attr-sets.attr-set").Array() {
			sets[set.Get("index").String()] = set
		}
		attrs[ni.Get("name").String()] = sets
	})

	body := gnmi.NewBody(in.Docs[0].Raw)
	each(in.Docs[0], "", []string{"network-instance"}, func(ni gjson.Result, niPath string) {
		sets := attrs[ni.Get("name").String()]
		eachWithKey(ni, niPath, "attr-id", func(route gjson.Result, path string) {
			attr := sets[route.Get("attr-id").String()]
			attr.ForEach(func(k, v gjson.Result) bool {
				if k.Str != "index" {
					body = body.SetRaw(join(path, gjson.Escape(k.Str)), v.Raw)
				}
				return true
			})
			get := func(p string) gjson.Result {
				if v := attr.Get(p); v.Exists() {
					return v
				}
				return route.Get(p)
			}

			state := ""
			if get("used-route").Bool() {
				state += "u"
			}
			if get("valid-route").Bool() {
				state += "*"
			}
			if get("best-route").Bool() {
				state += ">"
			}

			vni := "-"
			switch {
			case get("label1").Exists():
				vni = orDash(get("label1.value"))
			case get("label").Exists():
				vni = orDash(get("label.value"))
			case get("vni").Exists():
				vni = get("vni").String()
			}

			var rts, esiLabels []string
			for _, c := range get("communities.ext-community").Array() {
				s := c.String()
				if _, rt, ok := strings.Cut(s, "target:"); ok {
					rts = append(rts, rt)
				}
				if _, lbl, ok := strings.Cut(s, "esi-label:"); ok {
					lbl = strings.ReplaceAll(lbl, "Single-Active", "S-A")
					esiLabels = append(esiLabels, strings.ReplaceAll(lbl, "All-Active", "A-A"))
				}
			}

			body = body.
				Set(path+"._r_state", state).
				Set(path+".vni", vni).
				Set(path+"._rt", strings.Join(rts, ",")).
				Set(path+"._esi_lbl", strings.Join(esiLabels, ","))
		})
	})
	return body
}

func orDash(r gjson.Result) string {
	if !r.Exists() {
		return "-"
	}
	return r.String()
}

// BGPRib builds the bgp_rib report. Family and route type are checked
// before anything is sent to the device.
func (b *Builder) BGPRib(ctx context.Context, family, routeType, ni string) (Table, error) {
	if routeType == "" {
		routeType = DefaultRouteType
	}
	if err := ValidateRIBQuery(family, routeType); err != nil {
		return Table{Report: "bgp_rib"}, err
	}
	var schema bgpRibSchema
	var err error
	if schema.evpn, err = selectSpec(ctx, b, bgpRibModel, evpnSchemas); err != nil {
		return Table{Report: "bgp_rib"}, err
	}
	if schema.ip, err = selectSpec(ctx, b, bgpRibModel, ipRibSchemas); err != nil {
		return Table{Report: "bgp_rib"}, err
	}
	v, err := BGPRibView(family, routeType, orAll(ni), schema)
	if err != nil {
		return Table{Report: "bgp_rib"}, err
	}
	return b.Build(ctx, v)
}

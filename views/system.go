// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"strings"

	gnmi "github.com/netascode/go-gnmi-intent"
)

var chassisFields = []string{"type", "serial-number", "part-number", "hw-mac-address", "last-booted"}

// SysInfoView reports chassis details and the software version.
func SysInfoView() View {
	return View{
		Name: "sys_info",
		Queries: []Query{
			{Path: "/platform/chassis", DataType: gnmi.DataTypeState},
			{Path: "/platform/control[slot=A]", DataType: gnmi.DataTypeState},
		},
		Augment: func(in Input) gnmi.Body {
			b := gnmi.Body{}
			chassis := firstValue(in.Docs[0])
			for _, f := range chassisFields {
				if v := chassis.Get(f); v.Exists() {
					b = b.SetRaw("sys_info."+f, v.Raw)
				}
			}
			if v := firstValue(in.Docs[1]).Get("software-version"); v.Exists() {
				b = b.Set("sys_info.software-version", softwareVersion(v.String()))
			}
			return b
		},
		Rows: Projection{{
			Each: "sys_info",
			Fields: []Field{
				{Column: "type", Path: "type"},
				{Column: "serial-number", Path: "serial-number"},
				{Column: "part-number", Path: "part-number"},
				{Column: "hw-mac-address", Path: "hw-mac-address"},
				{Column: "last-booted", Path: "last-booted"},
				{Column: "software-version", Path: "software-version"},
			},
		}},
	}
}

// softwareVersion trims "v24.10.1-492-gf8858c5" to "24.10.1".
func softwareVersion(s string) string {
	s, _, _ = strings.Cut(s, "-")
	return strings.TrimLeft(s, "v")
}

// SysInfo builds the sys_info report.
func (b *Builder) SysInfo(ctx context.Context) (Table, error) {
	return b.Build(ctx, SysInfoView())
}

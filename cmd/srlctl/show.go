// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
	"github.com/netascode/go-gnmi-intent/views"
)

// NodeColumn labels the rows of each host in a merged report.
const NodeColumn = "Node"

var showOpts struct {
	params       views.Params
	fieldFilters []string
	fields       []string
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print an operational report for every host",
}

var reportHelp = map[string]string{
	"sys_info":     "Platform, software version and uptime",
	"bgp_peers":    "BGP neighbors per network instance",
	"bgp_rib":      "BGP RIB for --route-fam, with --route-type for EVPN",
	"ipv4_rib":     "IPv4 route table, longest match for --address",
	"ipv6_rib":     "IPv6 route table, longest match for --address",
	"mac_table":    "Bridge table MAC addresses",
	"es":           "Ethernet segments and designated forwarders",
	"nwi_itfs":     "Network instances and their subinterfaces",
	"lldp_nbrs":    "LLDP neighbors",
	"arp":          "IPv4 neighbor cache",
	"nd":           "IPv6 neighbor cache",
	"lag":          "LAG members and state",
	"subinterface": "Subinterfaces and their addresses",
}

func newShowCmd(name string) *cobra.Command {
	short := reportHelp[name]
	if short == "" {
		short = "The " + name + " report"
	}
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := inventory.ParseFilters(showOpts.fieldFilters)
			if err != nil {
				return err
			}
			if name == "bgp_rib" {
				if err := views.ValidateRIBQuery(showOpts.params.Family, showOpts.params.RouteType); err != nil {
					return fmt.Errorf("%w (families: %s)", err, strings.Join(views.RouteFamilies(), ", "))
				}
			}

			results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (views.Table, error) {
				return buildReport(ctx, views.NewBuilder(c, views.WithLogger(logger)), name, filters)
			})
			if err != nil {
				return err
			}

			var labels []string
			var tables []views.Table
			for _, r := range results {
				if r.Err == nil {
					labels = append(labels, r.Host.Name)
					tables = append(tables, r.Value)
				}
			}
			merged := views.Merge(NodeColumn, labels, tables)
			merged.Report = name
			if err := writeTable(cmd.OutOrStdout(), opts.output, merged); err != nil {
				return err
			}
			return hostErrors(cmd.ErrOrStderr(), results)
		},
	}
}

// buildReport runs one report and applies the row filters and the
// column selection.
func buildReport(ctx context.Context, b *views.Builder, name string, filters map[string]string) (views.Table, error) {
	t, err := b.Report(ctx, name, showOpts.params)
	if err != nil {
		return t, err
	}
	if t, err = t.Filter(filters); err != nil {
		return t, err
	}
	return t.Select(showOpts.fields...)
}

func init() {
	rootCmd.AddCommand(showCmd)

	f := showCmd.PersistentFlags()
	f.StringArrayVarP(&showOpts.fieldFilters, "field-filter", "f", nil, "row filter as column=glob, repeatable")
	f.StringSliceVar(&showOpts.fields, "fields", nil, "columns to keep, as globs")
	f.StringVar(&showOpts.params.NetworkInstance, "ni", "", "network instance")
	f.StringVar(&showOpts.params.Interface, "interface", "", "interface, for lldp_nbrs and subinterface")
	f.StringVar(&showOpts.params.LAG, "lag", "", "LAG name, for lag")
	f.StringVarP(&showOpts.params.Family, "route-fam", "r", "", "route family, for bgp_rib")
	f.StringVar(&showOpts.params.RouteType, "route-type", views.DefaultRouteType, "EVPN route type, for bgp_rib")
	f.StringVarP(&showOpts.params.Address, "address", "a", "", "address to look up, for ipv4_rib and ipv6_rib")

	for _, name := range views.Names() {
		showCmd.AddCommand(newShowCmd(name))
	}
}

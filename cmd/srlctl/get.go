// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
	"github.com/netascode/go-gnmi-intent/value"
)

var getOpts struct {
	dataType     string
	stripModules bool
}

var getCmd = &cobra.Command{
	Use:   "get PATH...",
	Short: "Read paths and print the normalized result per host",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(gnmi.ValidDataTypes, getOpts.dataType) {
			return fmt.Errorf("invalid datatype %q", getOpts.dataType)
		}
		results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (value.Value, error) {
			res, err := c.Get(ctx, args, gnmi.DataType(getOpts.dataType))
			if err != nil {
				return value.Value{}, err
			}
			return entriesValue(res.Normalize(), getOpts.stripModules), nil
		})
		if err != nil {
			return err
		}

		var out []value.Field
		for _, r := range results {
			if r.Err == nil {
				out = append(out, value.F(r.Host.Name, r.Value))
			}
		}
		format := opts.output
		if format == "table" {
			format = "json"
		}
		if err := writeValue(cmd.OutOrStdout(), format, value.Object(out...)); err != nil {
			return err
		}
		return hostErrors(cmd.ErrOrStderr(), results)
	},
}

// entriesValue lists normalized entries, keyed ones as {path: value}.
func entriesValue(entries []gnmi.Entry, strip bool) value.Value {
	items := make([]value.Value, len(entries))
	for i, e := range entries {
		items[i] = e.Tree()
		if strip {
			items[i] = value.StripModulePrefixes(items[i])
		}
	}
	return value.List(items...)
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVar(&getOpts.dataType, "datatype", gnmi.DataTypeConfig, "config, state, operational or all")
	getCmd.Flags().BoolVar(&getOpts.stripModules, "strip-modules", false, "drop YANG module prefixes from keys and values")
}

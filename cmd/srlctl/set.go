// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
	"github.com/netascode/go-gnmi-intent/reconcile"
	"github.com/netascode/go-gnmi-intent/value"
)

var setDryRun bool

var setCmd = &cobra.Command{
	Use:   "set {update|replace} PATH VALUE | set delete PATH",
	Short: "Write a single path and show the resulting diff",
	Long: `set writes one path with the given mode. VALUE is JSON or YAML, or
@FILE to read it from a file. Managed-resource state is not touched, so
paths written here are never purged by configure.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := parseSetArgs(args, os.ReadFile)
		if err != nil {
			return err
		}
		results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (reconcile.Report, error) {
			engine := reconcile.NewEngine(c, reconcile.WithLogger(logger))
			report, err := engine.Apply(ctx, h.Name, group, setDryRun)
			if err == nil && report.Changed && !report.DryRun {
				metrics.ObserveChanged()
			}
			return report, err
		})
		if err != nil {
			return err
		}

		var reports []reconcile.Report
		for _, r := range results {
			if r.Err == nil {
				reports = append(reports, r.Value)
			}
		}
		if err := writeReports(cmd.OutOrStdout(), opts.output, reports); err != nil {
			return err
		}
		return hostErrors(cmd.ErrOrStderr(), results)
	},
}

// parseSetArgs turns MODE PATH [VALUE] into a write group.
func parseSetArgs(args []string, readFile func(string) ([]byte, error)) (reconcile.Group, error) {
	mode, path := strings.ToLower(args[0]), args[1]
	if mode == string(gnmi.OperationDelete) {
		if len(args) != 2 {
			return reconcile.Group{}, errors.New("delete takes no value")
		}
		return reconcile.Delete(path), nil
	}
	if len(args) != 3 {
		return reconcile.Group{}, fmt.Errorf("%s needs a value", mode)
	}
	v, err := parseValue(args[2], readFile)
	if err != nil {
		return reconcile.Group{}, err
	}
	res := reconcile.Resource{Path: path, Value: v}
	switch mode {
	case string(gnmi.OperationUpdate):
		return reconcile.Update(res), nil
	case string(gnmi.OperationReplace):
		return reconcile.Replace(res), nil
	}
	return reconcile.Group{}, &reconcile.InvalidModeError{Mode: mode}
}

// parseValue reads a JSON or YAML value, from a file when arg starts
// with '@'.
func parseValue(arg string, readFile func(string) ([]byte, error)) (value.Value, error) {
	data := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = readFile(name); err != nil {
			return value.Value{}, err
		}
	}
	var v value.Value
	if err := yaml.Unmarshal(data, &v); err != nil {
		return value.Value{}, fmt.Errorf("parse value: %w", err)
	}
	return v, nil
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().BoolVar(&setDryRun, "dry-run", false, "show the change without applying it")
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/backup"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
	"github.com/netascode/go-gnmi-intent/reconcile"
	"github.com/netascode/go-gnmi-intent/value"
)

var backupOpts struct {
	dir     string
	history int
	file    string
	dryRun  bool
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Save the running configuration of every host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (backup.Snapshot, error) {
			return backupManager(c).Snapshot(ctx, h.Name)
		})
		if err != nil {
			return err
		}
		var rows []value.Value
		for _, r := range results {
			if r.Err == nil {
				rows = append(rows, snapshotValue(r.Value))
			}
		}
		if err := writeSnapshots(cmd, rows); err != nil {
			return err
		}
		return hostErrors(cmd.ErrOrStderr(), results)
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List the stored snapshots of every host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := loadHosts()
		if err != nil {
			return err
		}
		m := backupManager(nil)
		var rows []value.Value
		for _, h := range hosts {
			snaps, err := m.List(h.Name)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				rows = append(rows, snapshotValue(s))
			}
		}
		return writeSnapshots(cmd, rows)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the configuration with the latest snapshot, or --file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if backupOpts.file != "" {
			hosts, err := loadHosts()
			if err != nil {
				return err
			}
			if len(hosts) != 1 {
				return fmt.Errorf("--file restores a single host, %d selected", len(hosts))
			}
		}
		results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (reconcile.Report, error) {
			m := backupManager(c)
			snap := backup.Snapshot{Host: h.Name, File: backupOpts.file}
			if snap.File == "" {
				var err error
				if snap, err = m.Latest(h.Name); err != nil {
					return reconcile.Report{Host: h.Name}, err
				}
			}
			report, err := m.Restore(ctx, snap, backupOpts.dryRun)
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

func backupManager(c *gnmi.Client) *backup.Manager {
	var device reconcile.Transport
	if c != nil {
		device = c
	}
	return backup.New(device, backupOpts.dir, backup.History(backupOpts.history), backup.WithLogger(logger))
}

func snapshotValue(s backup.Snapshot) value.Value {
	return value.Object(
		value.F("host", value.Str(s.Host)),
		value.F("time", value.Str(s.Time.Format(time.RFC3339Nano))),
		value.F("file", value.Str(s.File)),
	)
}

func writeSnapshots(cmd *cobra.Command, rows []value.Value) error {
	if opts.output != "table" {
		return writeValue(cmd.OutOrStdout(), opts.output, value.List(rows...))
	}
	w := cmd.OutOrStdout()
	for _, r := range rows {
		host, _ := r.Get("host")
		file, _ := r.Get("file")
		h, _ := host.AsString()
		f, _ := file.AsString()
		fmt.Fprintf(w, "%s: %s\n", h, f)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(backupCmd, backupsCmd, restoreCmd)

	for _, c := range []*cobra.Command{backupCmd, backupsCmd, restoreCmd} {
		c.Flags().StringVar(&backupOpts.dir, "dir", "backups", "snapshot directory")
	}
	backupCmd.Flags().IntVar(&backupOpts.history, "history", backup.DefaultHistory, "snapshots kept per host")
	restoreCmd.Flags().StringVar(&backupOpts.file, "file", "", "restore this snapshot file instead of the latest")
	restoreCmd.Flags().BoolVar(&backupOpts.dryRun, "dry-run", false, "show the changes without applying them")
}

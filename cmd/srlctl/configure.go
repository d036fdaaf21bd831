// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
	"github.com/netascode/go-gnmi-intent/reconcile"
)

var configureOpts struct {
	intentDir     string
	stateDir      string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	redisTTL      time.Duration
	dryRun        bool
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Reconcile devices against the intent directory",
	Long: `configure loads the intent documents that select each host, applies
their update, replace and delete groups, and deletes resources that were
managed in the previous run but left the intent. With --dry-run the
changes are computed against the intended values and nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore := stateStore()
		defer closeStore() //nolint:errcheck
		engine := func(c *gnmi.Client) *reconcile.Engine {
			return reconcile.NewEngine(c, reconcile.WithStateStore(store), reconcile.WithLogger(logger))
		}

		results, err := fanOut(cmd.Context(), func(ctx context.Context, h inventory.Host, c *gnmi.Client) (reconcile.Report, error) {
			intent, err := reconcile.LoadIntent(configureOpts.intentDir, reconcile.Selector{
				Hostname: h.Name,
				Groups:   h.Groups,
				Labels:   h.Labels,
			})
			if err != nil {
				return reconcile.Report{Host: h.Name}, err
			}
			report, err := engine(c).Reconcile(ctx, h.Name, intent, configureOpts.dryRun)
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

// stateStore returns the Redis store when --redis is set and the file
// store otherwise.
func stateStore() (reconcile.StateStore, func() error) {
	if configureOpts.redisAddr == "" {
		return reconcile.NewFileStore(configureOpts.stateDir), func() error { return nil }
	}
	s := reconcile.NewRedisStore(configureOpts.redisAddr, configureOpts.redisPassword, configureOpts.redisDB,
		reconcile.RedisPrefix(configureOpts.redisPrefix),
		reconcile.RedisTTL(configureOpts.redisTTL))
	return s, s.Close
}

func init() {
	rootCmd.AddCommand(configureCmd)

	f := configureCmd.Flags()
	f.StringVar(&configureOpts.intentDir, "intent-dir", "intent", "directory with intent YAML files")
	f.StringVar(&configureOpts.stateDir, "state-dir", ".srlctl/state", "directory for managed-resource state files")
	f.StringVar(&configureOpts.redisAddr, "redis", "", "keep managed-resource state in Redis at this address")
	f.StringVar(&configureOpts.redisPassword, "redis-password", "", "Redis password")
	f.IntVar(&configureOpts.redisDB, "redis-db", 0, "Redis database")
	f.StringVar(&configureOpts.redisPrefix, "redis-prefix", reconcile.DefaultRedisPrefix, "Redis key prefix")
	f.DurationVar(&configureOpts.redisTTL, "redis-ttl", 0, "expire Redis state after this long, 0 keeps it")
	f.BoolVar(&configureOpts.dryRun, "dry-run", false, "show the changes without applying them")
	configureCmd.MarkFlagsMutuallyExclusive("state-dir", "redis")
}

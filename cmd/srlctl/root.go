// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/internal/fleet"
	"github.com/netascode/go-gnmi-intent/internal/inventory"
)

const (
	envUsername = "GNMI_USERNAME"
	envPassword = "GNMI_PASSWORD"
)

var outputFormats = []string{"table", "json", "yaml"}

var opts struct {
	inventory   string
	topology    string
	certFile    string
	filters     []string
	output      string
	logLevel    string
	logFile     string
	workers     int
	metricsFile string
}

var (
	logger  gnmi.Logger = &gnmi.NoOpLogger{}
	metrics *fleet.Metrics
	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "srlctl",
	Short: "Reconcile and inspect SR Linux devices over gNMI",
	Long: `srlctl pushes declarative intent to SR Linux devices, keeps track of
what it manages, takes configuration backups and renders operational
reports. Every command runs against the hosts of an inventory file or a
containerlab topology, narrowed with --filter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(outputFormats, opts.output) {
			return fmt.Errorf("invalid output format %q (valid values: table, json, yaml)", opts.output)
		}
		l, closer, err := newLogger(opts.logLevel, opts.logFile, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger, logSink = gnmi.NewSlogLogger(l), closer
		if opts.metricsFile != "" {
			metrics = fleet.NewMetrics()
		}
		return nil
	},
}

// finish writes the metrics textfile and closes the log file. It runs
// after failed commands too.
func finish() error {
	var errs []error
	if metrics != nil {
		errs = append(errs, metrics.WriteTextfile(opts.metricsFile))
	}
	if logSink != nil {
		errs = append(errs, logSink.Close())
	}
	return errors.Join(errs...)
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.inventory, "inventory", "", "inventory file")
	f.StringVarP(&opts.topology, "topology", "t", "", "containerlab topology file, instead of an inventory")
	f.StringVar(&opts.certFile, "cert-file", "", "CA certificate to verify containerlab nodes with")
	f.StringArrayVarP(&opts.filters, "filter", "i", nil, "host filter as key=glob, repeatable")
	f.StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	f.StringVarP(&opts.logLevel, "log-level", "l", "warn", "log level: debug, info, warn, error or none")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	f.IntVarP(&opts.workers, "workers", "w", fleet.DefaultWorkers, "hosts handled in parallel")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this Prometheus textfile")
	rootCmd.MarkFlagsMutuallyExclusive("inventory", "topology")
}

// newLogger builds a text slog logger on stderr, or on path when set.
// The returned closer is nil for stderr.
func newLogger(level, path string, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	lvl, err := gnmi.ParseLogLevel(level)
	if err != nil {
		return nil, nil, err
	}
	w, closer := stderr, io.Closer(nil)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl.SlogLevel()})), closer, nil
}

// loadHosts reads the inventory or topology and applies --filter.
func loadHosts() ([]inventory.Host, error) {
	var inv *inventory.Inventory
	var err error
	switch {
	case opts.inventory != "":
		inv, err = inventory.Load(opts.inventory)
	case opts.topology != "":
		inv, err = inventory.LoadTopology(opts.topology, opts.certFile)
	default:
		return nil, errors.New("no hosts: set --inventory or --topology")
	}
	if err != nil {
		return nil, err
	}
	filters, err := inventory.ParseFilters(opts.filters)
	if err != nil {
		return nil, err
	}
	hosts, err := inventory.Filter(inv.Hosts(), filters)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		return nil, errors.New("no hosts match the filter")
	}
	return withEnvCredentials(hosts, os.Getenv), nil
}

// withEnvCredentials fills missing credentials from the environment.
func withEnvCredentials(hosts []inventory.Host, getenv func(string) string) []inventory.Host {
	user, pass := getenv(envUsername), getenv(envPassword)
	for i := range hosts {
		if hosts[i].Username == "" {
			hosts[i].Username = user
		}
		if hosts[i].Password == "" {
			hosts[i].Password = pass
		}
	}
	return hosts
}

// fanOut dials every selected host and runs task against it in parallel.
func fanOut[T any](ctx context.Context, task func(ctx context.Context, h inventory.Host, c *gnmi.Client) (T, error)) ([]fleet.Result[T], error) {
	hosts, err := loadHosts()
	if err != nil {
		return nil, err
	}
	runner := fleet.New(fleet.Workers(opts.workers), fleet.WithLogger(logger), fleet.WithMetrics(metrics))
	return fleet.Run(ctx, runner, hosts, func(ctx context.Context, h inventory.Host) (T, error) {
		var zero T
		c, err := gnmi.NewClient(h.Address(), append(h.Options(), gnmi.WithLogger(logger))...)
		if err != nil {
			return zero, err
		}
		defer c.Close() //nolint:errcheck
		return task(ctx, h, c)
	}), nil
}

// hostErrors prints one line per failed host and summarizes them.
func hostErrors[T any](w io.Writer, results []fleet.Result[T]) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n", r.Host.Name, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d hosts failed", failed, len(results))
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netascode/go-gnmi-intent/reconcile"
	"github.com/netascode/go-gnmi-intent/value"
	"github.com/netascode/go-gnmi-intent/views"
)

// writeValue encodes v as indented JSON or as YAML.
func writeValue(w io.Writer, format string, v value.Value) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	compact, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// writeTable prints t as aligned text, or its rows as a JSON or YAML
// list of records.
func writeTable(w io.Writer, format string, t views.Table) error {
	if format == "table" {
		if len(t.Rows) == 0 {
			_, err := fmt.Fprintf(w, "%s: no entries\n", t.Report)
			return err
		}
		return t.Text(w)
	}
	return writeValue(w, format, value.List(t.Rows...))
}

// reportValue is the structured form of a reconcile report.
func reportValue(r reconcile.Report) value.Value {
	purged := make([]value.Value, len(r.Purged))
	for i, p := range r.Purged {
		purged[i] = value.Str(p)
	}
	fields := []value.Field{
		value.F("host", value.Str(r.Host)),
		value.F("dry_run", value.Bool(r.DryRun)),
		value.F("changed", value.Bool(r.Changed)),
		value.F("phase", value.Str(r.Phase.String())),
		value.F("diff", value.Str(r.Diff)),
		value.F("changes", changesValue(r.Resources)),
		value.F("purged", value.List(purged...)),
	}
	if r.PurgeDiff != "" {
		fields = append(fields, value.F("purge_diff", value.Str(r.PurgeDiff)))
	}
	return value.Object(fields...)
}

// changesValue lists the leaf changes of every resource, in order.
func changesValue(resources []reconcile.ResourceDiff) value.Value {
	var out []value.Value
	for _, res := range resources {
		for _, c := range res.Changes {
			fields := []value.Field{
				value.F("resource", value.Str(res.Path)),
				value.F("type", value.Str(c.Type)),
				value.F("path", value.Str(c.PathString())),
			}
			if c.From != nil {
				fields = append(fields, value.F("from", value.FromInterface(c.From)))
			}
			if c.To != nil {
				fields = append(fields, value.F("to", value.FromInterface(c.To)))
			}
			out = append(out, value.Object(fields...))
		}
	}
	return value.List(out...)
}

// writeReports prints reconcile reports. Failed hosts are skipped; the
// caller reports their errors.
func writeReports(w io.Writer, format string, reports []reconcile.Report) error {
	if format != "table" {
		out := make([]value.Value, len(reports))
		for i, r := range reports {
			out[i] = reportValue(r)
		}
		return writeValue(w, format, value.List(out...))
	}
	for _, r := range reports {
		state := "unchanged"
		switch {
		case r.Changed && r.DryRun:
			state = "would change"
		case r.Changed:
			state = "changed"
		}
		fmt.Fprintf(w, "%s: %s\n", r.Host, state)
		printBlock(w, r.Diff)
		verb := "purged"
		if r.DryRun {
			verb = "would purge"
		}
		for _, p := range r.Purged {
			fmt.Fprintf(w, "  %s %s\n", verb, p)
		}
		printBlock(w, r.PurgeDiff)
	}
	return nil
}

func printBlock(w io.Writer, s string) {
	if s == "" {
		return
	}
	fmt.Fprint(w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(w)
	}
}

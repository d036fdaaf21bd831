// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package views builds operational reports from SR Linux state.
//
// Every report is a View: the Get queries to send, an optional pure
// augmentation stage that adds computed columns to a copy of the fetched
// document, and a Projection that flattens the document into rows.
//
//	b := views.NewBuilder(client)
//	t, err := b.Report(ctx, "bgp_peers", views.Params{NetworkInstance: "default"})
//	if err != nil {
//	    return err
//	}
//	t.Text(os.Stdout)
//
// Reports whose schema changed across releases pick their layout from
// the model versions in the device capabilities. A version no rule
// covers falls back to the newest layout and logs a warning.
package views

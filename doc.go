// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package gnmi is the device transport of the intent toolkit: a gNMI
// client with lazy connection, retries and structured errors, plus the
// response normalizer that turns Get notifications into an ordered list
// of comparable entries.
//
// # Quick Start
//
//	client, err := gnmi.NewClient("leaf1",
//	    gnmi.Username("admin"),
//	    gnmi.Password("NokiaSrl1!"),
//	    gnmi.VerifyCertificate(false),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	res, err := client.Get(ctx,
//	    []string{"/interface[name=ethernet-1/1]", "/system/name"},
//	    gnmi.DataType(gnmi.DataTypeConfig))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range res.Normalize() {
//	    fmt.Println(e.Path, e.Value.Kind())
//	}
//
// Normalize returns exactly one entry per update, and one empty-map
// placeholder per notification without updates, so the i-th entry of a
// Get lines up with the i-th requested path.
//
// # Writing
//
// Set takes update, replace and delete operations built with Update,
// Replace and Delete. Body builds JSON values without string pasting:
//
//	value := gnmi.Body{}.
//	    Set("description", "uplink").
//	    Set("admin-state", "enable").
//	    Res()
//	_, err = client.Set(ctx, []gnmi.SetOperation{
//	    gnmi.Update("/interface[name=ethernet-1/1]", value),
//	})
//
// # Errors and Retries
//
// Unavailable, ResourceExhausted, DeadlineExceeded and Aborted are
// retried with jittered exponential backoff (MaxRetries,
// BackoffMinDelay, BackoffMaxDelay, BackoffDelayFactor). A broken
// channel is re-dialed before the next attempt. RPC failures are
// returned as *GnmiError; input validation fails before any network
// call.
//
// # Logging
//
// Logging is off by default. WithLogger accepts any Logger; use
// NewDefaultLogger for the standard log package or NewSlogLogger to
// route records through log/slog. Values written by Set are redacted
// before they reach a debug log.
//
// # Thread Safety
//
// A Client may be shared between goroutines. Set requests are
// serialized per client.
package gnmi

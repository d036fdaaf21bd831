// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package reconcile brings a device in line with a declarative intent.
//
// An Intent is an ordered list of groups, each writing its resources with
// one gNMI mode. Engine.Reconcile reads every touched path, writes the
// groups, reads the paths again and reports a unified diff per path.
// With a StateStore configured it then deletes resources that an earlier
// pass managed but the current intent no longer lists, and records the
// new set of managed resources.
//
//	client, _ := gnmi.NewClient("leaf1", gnmi.Username("admin"), gnmi.Password("NokiaSrl1!"))
//	intent, _ := reconcile.LoadIntent("intent", reconcile.Selector{Hostname: "leaf1"})
//	engine := reconcile.NewEngine(client, reconcile.WithStateStore(reconcile.NewFileStore("state")))
//	report, err := engine.Reconcile(ctx, "leaf1", intent, false)
//
// A dry run reads but never writes, neither to the device nor to the
// state store.
package reconcile

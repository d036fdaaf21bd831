// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"fmt"
	"sync"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/gpath"
)

// reply is the canned answer to one Get path. Keyed replies carry the
// requested path in the update, replies with at carry that path instead,
// and the rest deliver the payload at the root like SR Linux does for
// wildcard queries.
type reply struct {
	json  string
	keyed bool
	at    string
}

type fakeDevice struct {
	mu      sync.Mutex
	replies map[string]reply
	models  []*gnmipb.ModelData

	gets      []string
	datatypes []string
	getErr    error
}

func (d *fakeDevice) Get(_ context.Context, paths []string, mods ...func(*gnmi.Req)) (gnmi.GetRes, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var req gnmi.Req
	for _, m := range mods {
		m(&req)
	}
	d.gets = append(d.gets, paths...)
	d.datatypes = append(d.datatypes, req.DataType)
	if d.getErr != nil {
		return gnmi.GetRes{}, d.getErr
	}

	var notifs []*gnmipb.Notification
	for _, p := range paths {
		r, ok := d.replies[p]
		if !ok {
			notifs = append(notifs, &gnmipb.Notification{})
			continue
		}
		u := &gnmipb.Update{
			Path: &gnmipb.Path{},
			Val:  &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonIetfVal{JsonIetfVal: []byte(r.json)}},
		}
		switch {
		case r.at != "":
			u.Path = protoPath(r.at)
		case r.keyed:
			u.Path = protoPath(p)
		}
		notifs = append(notifs, &gnmipb.Notification{Update: []*gnmipb.Update{u}})
	}
	return gnmi.GetRes{Notifications: notifs, OK: true}, nil
}

func (d *fakeDevice) Models(context.Context) ([]*gnmipb.ModelData, error) {
	return d.models, nil
}

func protoPath(p string) *gnmipb.Path {
	out := &gnmipb.Path{}
	for _, s := range gpath.MustParse(p).Segments() {
		elem := &gnmipb.PathElem{Name: s.Name}
		if s.HasKey() {
			elem.Key = map[string]string{s.Key: s.Value}
		}
		out.Elem = append(out.Elem, elem)
	}
	return out
}

// recordLogger keeps warnings.
type recordLogger struct {
	gnmi.NoOpLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordLogger) Warn(_ context.Context, msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprint(append([]any{msg}, kv...)...))
}

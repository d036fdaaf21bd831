// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"context"
	"sync"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/gpath"
	"github.com/netascode/go-gnmi-intent/value"
)

// fakeDevice keeps a flat path to value config and answers Get with one
// notification per requested path.
type fakeDevice struct {
	mu     sync.Mutex
	config map[string]value.Value

	gets      [][]string
	datatypes []string
	sets      [][]gnmi.SetOperation

	getErr error
	setErr error
	// short drops the last notification of every Get response.
	short bool
}

func newFakeDevice(config map[string]value.Value) *fakeDevice {
	if config == nil {
		config = map[string]value.Value{}
	}
	return &fakeDevice{config: config}
}

func (d *fakeDevice) Get(_ context.Context, paths []string, mods ...func(*gnmi.Req)) (gnmi.GetRes, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var req gnmi.Req
	for _, m := range mods {
		m(&req)
	}
	d.gets = append(d.gets, append([]string(nil), paths...))
	d.datatypes = append(d.datatypes, req.DataType)
	if d.getErr != nil {
		return gnmi.GetRes{}, d.getErr
	}

	notifs := make([]*gnmipb.Notification, 0, len(paths))
	for _, p := range paths {
		v, ok := d.config[p]
		if !ok {
			notifs = append(notifs, &gnmipb.Notification{})
			continue
		}
		data, _ := v.MarshalJSON()
		notifs = append(notifs, &gnmipb.Notification{
			Update: []*gnmipb.Update{{
				Path: protoPath(p),
				Val:  &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonIetfVal{JsonIetfVal: data}},
			}},
		})
	}
	if d.short && len(notifs) > 0 {
		notifs = notifs[:len(notifs)-1]
	}
	return gnmi.GetRes{Notifications: notifs, OK: true}, nil
}

func (d *fakeDevice) Set(_ context.Context, ops []gnmi.SetOperation, _ ...func(*gnmi.Req)) (gnmi.SetRes, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sets = append(d.sets, ops)
	if d.setErr != nil {
		return gnmi.SetRes{}, d.setErr
	}
	for _, op := range ops {
		switch op.OperationType {
		case gnmi.OperationDelete:
			delete(d.config, op.Path)
		default:
			v, err := value.ParseJSON([]byte(op.Value))
			if err != nil {
				return gnmi.SetRes{}, err
			}
			d.config[op.Path] = v
		}
	}
	return gnmi.SetRes{OK: true}, nil
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

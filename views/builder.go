// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"context"
	"fmt"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/tidwall/gjson"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/gpath"
	"github.com/netascode/go-gnmi-intent/value"
)

// FeaturesPath lists the features enabled on an SR Linux device.
const FeaturesPath = "/system/features"

// Device is the part of *gnmi.Client the reports use.
type Device interface {
	Get(ctx context.Context, paths []string, mods ...func(*gnmi.Req)) (gnmi.GetRes, error)
	Models(ctx context.Context) ([]*gnmipb.ModelData, error)
}

// Query is one Get request of a view.
type Query struct {
	Path     string
	DataType string
}

// Input is what an augmentation stage sees: the fetched documents in
// query order and the time the report is built at.
type Input struct {
	Docs []gjson.Result
	Now  time.Time
}

// View is a declarative report. Build fetches every query, passes the
// documents through Augment and projects the result with Rows.
type View struct {
	Name string
	// Feature, when set, must be listed under FeaturesPath or the view
	// yields an empty table.
	Feature string
	// Queries must hold at least one entry. The first one is the
	// document that Rows projects when there is no Augment.
	Queries []Query
	// Augment returns an enriched document. It must not rely on
	// anything but its input.
	Augment func(Input) gnmi.Body
	Rows    Projection
}

// Builder runs views against one device.
type Builder struct {
	dev    Device
	logger gnmi.Logger
	now    func() time.Time
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l gnmi.Logger) func(*Builder) {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock replaces time.Now, which relative expiry columns are
// computed against.
func WithClock(now func() time.Time) func(*Builder) {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder returns a Builder reading from dev.
func NewBuilder(dev Device, opts ...func(*Builder)) *Builder {
	b := &Builder{
		dev:    dev,
		logger: &gnmi.NoOpLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs v.
func (b *Builder) Build(ctx context.Context, v View) (Table, error) {
	t := Table{Report: v.Name, Columns: v.Rows.Columns(), Groups: v.Rows.groups()}
	if len(v.Queries) == 0 {
		return t, fmt.Errorf("views: %s has no query", v.Name)
	}

	if v.Feature != "" {
		ok, err := b.hasFeature(ctx, v.Feature)
		if err != nil {
			return t, err
		}
		if !ok {
			b.logger.Info(ctx, "feature not enabled, report skipped", "report", v.Name, "feature", v.Feature)
			return t, nil
		}
	}

	docs := make([]gjson.Result, len(v.Queries))
	for i, q := range v.Queries {
		doc, err := b.fetch(ctx, q)
		if err != nil {
			return t, err
		}
		docs[i] = doc
	}

	doc := docs[0]
	if v.Augment != nil {
		s, err := v.Augment(Input{Docs: docs, Now: b.now()}).String()
		if err != nil {
			return t, fmt.Errorf("views: %s: %w", v.Name, err)
		}
		doc = gjson.Parse(s)
	}
	t.Rows = v.Rows.Rows(doc)
	b.logger.Debug(ctx, "report built", "report", v.Name, "rows", len(t.Rows))
	return t, nil
}

// fetch reads q and returns the response as one stripped document. Keyed
// entries sit under their path ("system/features"), bare maps are merged
// into the top level and lists under the same key are concatenated.
func (b *Builder) fetch(ctx context.Context, q Query) (gjson.Result, error) {
	dataType := q.DataType
	if dataType == "" {
		dataType = gnmi.DataTypeState
	}
	res, err := b.dev.Get(ctx, []string{q.Path},
		gnmi.DataType(dataType),
		gnmi.GetEncoding(gnmi.EncodingJSONIETF))
	if err != nil {
		return gjson.Result{}, err
	}
	data, err := document(res.Normalize()).MarshalJSON()
	if err != nil {
		return gjson.Result{}, fmt.Errorf("views: %s: %w", q.Path, err)
	}
	return gjson.ParseBytes(data), nil
}

func document(entries []gnmi.Entry) value.Value {
	doc := value.EmptyMap()
	for _, e := range entries {
		v := value.StripModulePrefixes(e.Value)
		if e.Keyed && e.Path != gnmi.RootPath {
			key := e.Path
			if p, err := gpath.Parse(e.Path); err == nil {
				key = p.StripModulePrefixes().String()
			}
			doc = merge(doc, key, v)
			continue
		}
		for _, f := range v.Fields() {
			doc = merge(doc, f.Key, f.Value)
		}
	}
	return doc
}

func merge(doc value.Value, key string, v value.Value) value.Value {
	prev, ok := doc.Get(key)
	if ok && prev.Kind() == value.KindList && v.Kind() == value.KindList {
		return doc.With(key, value.List(append(prev.Items(), v.Items()...)...))
	}
	return doc.With(key, v)
}

func (b *Builder) hasFeature(ctx context.Context, feature string) (bool, error) {
	doc, err := b.fetch(ctx, Query{Path: FeaturesPath, DataType: gnmi.DataTypeState})
	if err != nil {
		return false, err
	}
	found := false
	doc.ForEach(func(_, v gjson.Result) bool {
		for _, f := range v.Array() {
			if f.String() == feature {
				found = true
				return false
			}
		}
		return true
	})
	return found, nil
}

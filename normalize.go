// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"encoding/base64"
	"math"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"

	"github.com/netascode/go-gnmi-intent/gpath"
	"github.com/netascode/go-gnmi-intent/value"
)

// RootPath keys a payload that arrived without a path.
const RootPath = "/"

// Entry is one normalized update: either a single-key {path: value}
// (Keyed) or a bare value.
type Entry struct {
	Path  string
	Keyed bool
	Value value.Value
}

// Tree returns the entry as a Value: {path: value} when keyed, the bare
// value otherwise.
func (e Entry) Tree() value.Value {
	if e.Keyed {
		return value.Object(value.F(e.Path, e.Value))
	}
	return e.Value
}

// Normalize flattens the notifications into one entry per update, in
// order. A notification without updates contributes a single empty-map
// entry so positions keep lining up with the requested paths.
func (r GetRes) Normalize() []Entry {
	return Normalize(r.Notifications)
}

// Normalize flattens notifications; see GetRes.Normalize.
//
// An update with a path yields {path: value}, the path being the
// notification prefix joined with the update path. An update without a
// path whose value is a map of more than one key yields {"/": value}.
// Anything else is emitted bare.
func Normalize(notifications []*gnmipb.Notification) []Entry {
	var out []Entry
	for _, n := range notifications {
		if len(n.GetUpdate()) == 0 {
			out = append(out, Entry{Value: value.EmptyMap()})
			continue
		}
		prefix := gpath.FromProto(n.GetPrefix())
		for _, u := range n.GetUpdate() {
			v := DecodeTypedValue(u.GetVal())
			p := prefix.Join(gpath.FromProto(u.GetPath())).String()
			switch {
			case p != "":
				out = append(out, Entry{Path: p, Keyed: true, Value: v})
			case v.Kind() == value.KindMap && v.Len() > 1:
				out = append(out, Entry{Path: RootPath, Keyed: true, Value: v})
			default:
				out = append(out, Entry{Value: v})
			}
		}
	}
	return out
}

// DecodeTypedValue converts a gNMI TypedValue. JSON payloads that fail to
// parse are returned as strings; unsupported kinds become null.
func DecodeTypedValue(tv *gnmipb.TypedValue) value.Value {
	if tv == nil {
		return value.Null()
	}
	switch v := tv.GetValue().(type) {
	case *gnmipb.TypedValue_JsonIetfVal:
		return decodeJSONBytes(v.JsonIetfVal)
	case *gnmipb.TypedValue_JsonVal:
		return decodeJSONBytes(v.JsonVal)
	case *gnmipb.TypedValue_StringVal:
		return value.Str(v.StringVal)
	case *gnmipb.TypedValue_AsciiVal:
		return value.Str(v.AsciiVal)
	case *gnmipb.TypedValue_IntVal:
		return value.Int(v.IntVal)
	case *gnmipb.TypedValue_UintVal:
		if v.UintVal > math.MaxInt64 {
			return value.Float(float64(v.UintVal))
		}
		return value.Int(int64(v.UintVal))
	case *gnmipb.TypedValue_BoolVal:
		return value.Bool(v.BoolVal)
	case *gnmipb.TypedValue_FloatVal: //nolint:staticcheck // still sent by older devices
		return value.Float(float64(v.FloatVal))
	case *gnmipb.TypedValue_DoubleVal:
		return value.Float(v.DoubleVal)
	case *gnmipb.TypedValue_DecimalVal: //nolint:staticcheck // still sent by older devices
		d := v.DecimalVal
		return value.Float(float64(d.GetDigits()) / math.Pow10(int(d.GetPrecision())))
	case *gnmipb.TypedValue_LeaflistVal:
		elems := v.LeaflistVal.GetElement()
		items := make([]value.Value, len(elems))
		for i, e := range elems {
			items[i] = DecodeTypedValue(e)
		}
		return value.List(items...)
	case *gnmipb.TypedValue_BytesVal:
		return value.Str(base64.StdEncoding.EncodeToString(v.BytesVal))
	case *gnmipb.TypedValue_ProtoBytes:
		return value.Str(base64.StdEncoding.EncodeToString(v.ProtoBytes))
	}
	return value.Null()
}

func decodeJSONBytes(b []byte) value.Value {
	v, err := value.ParseJSON(b)
	if err != nil {
		return value.Str(string(b))
	}
	return v
}

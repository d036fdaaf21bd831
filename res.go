// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"strconv"
	"strings"

	"github.com/openconfig/gnmi/proto/gnmi"
	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protojson"
)

// GetRes is the result of Get.
type GetRes struct {
	// Notifications in device order.
	Notifications []*gnmi.Notification

	// Timestamp is the local receive time in nanoseconds.
	Timestamp int64

	OK     bool
	Errors []ErrorModel
}

// GetValue queries the JSON rendering of the response with a gjson path,
// e.g. "notification.0.update.0.val.jsonIetfVal".
func (r GetRes) GetValue(path string) gjson.Result {
	s := r.JSON()
	if s == "" {
		return gjson.Result{}
	}
	return gjson.Get(s, path)
}

// JSON renders the response with protojson field names. Returns "" when
// the response holds no notifications.
func (r GetRes) JSON() string {
	if r.Notifications == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Notifications))
	for _, n := range r.Notifications {
		b, err := protojson.Marshal(n)
		if err != nil {
			return ""
		}
		parts = append(parts, string(b))
	}
	return `{"notification":[` + strings.Join(parts, ",") + `],"timestamp":` +
		strconv.FormatInt(r.Timestamp, 10) + `,"ok":` + strconv.FormatBool(r.OK) + `}`
}

// SetRes is the result of Set.
type SetRes struct {
	Response  *gnmi.SetResponse
	Timestamp int64
	OK        bool
	Errors    []ErrorModel
}

// GetValue queries the JSON rendering of the response with a gjson path.
func (r SetRes) GetValue(path string) gjson.Result {
	s := r.JSON()
	if s == "" {
		return gjson.Result{}
	}
	return gjson.Get(s, path)
}

// JSON renders the response, or "" without one.
func (r SetRes) JSON() string {
	if r.Response == nil {
		return ""
	}
	b, err := protojson.Marshal(r.Response)
	if err != nil {
		return ""
	}
	return `{"response":` + string(b) + `,"timestamp":` +
		strconv.FormatInt(r.Timestamp, 10) + `,"ok":` + strconv.FormatBool(r.OK) + `}`
}

// CapabilitiesRes is the result of Capabilities.
type CapabilitiesRes struct {
	Version string

	// Capabilities holds the supported encodings.
	Capabilities []string
	Models       []*gnmi.ModelData

	OK     bool
	Errors []ErrorModel
}

// ModelVersion returns the version of the named model, matching either the
// full name or the name without its module qualifier.
func (r CapabilitiesRes) ModelVersion(name string) (string, bool) {
	return ModelVersion(r.Models, name)
}

// ModelVersion looks up a model version in a capability model list.
func ModelVersion(models []*gnmi.ModelData, name string) (string, bool) {
	for _, m := range models {
		n := m.GetName()
		if n == name {
			return m.GetVersion(), true
		}
		if i := strings.LastIndexByte(n, ':'); i >= 0 && n[i+1:] == name {
			return m.GetVersion(), true
		}
	}
	return "", false
}

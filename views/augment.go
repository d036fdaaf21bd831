// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// Augmentation stages read the fetched document with gjson and write
// computed columns into a copy with gnmi.Body. Computed keys start with
// an underscore.

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// each calls fn for every record reached from rec by descending through
// levels, each a gjson path. path is the location of the record in the
// document, usable with Body.Set.
func each(rec gjson.Result, path string, levels []string, fn func(r gjson.Result, path string)) {
	if len(levels) == 0 {
		fn(rec, path)
		return
	}
	next := join(path, levels[0])
	res := rec.Get(levels[0])
	switch {
	case res.IsArray():
		for i, item := range res.Array() {
			each(item, next+"."+strconv.Itoa(i), levels[1:], fn)
		}
	case res.IsObject():
		each(res, next, levels[1:], fn)
	}
}

// eachWithKey calls fn for every object below rec holding key, without
// descending into matched objects.
func eachWithKey(rec gjson.Result, path, key string, fn func(r gjson.Result, path string)) {
	switch {
	case rec.IsObject():
		if rec.Get(gjson.Escape(key)).Exists() {
			fn(rec, path)
			return
		}
		rec.ForEach(func(k, v gjson.Result) bool {
			eachWithKey(v, join(path, gjson.Escape(k.Str)), key, fn)
			return true
		})
	case rec.IsArray():
		for i, item := range rec.Array() {
			eachWithKey(item, join(path, strconv.Itoa(i)), key, fn)
		}
	}
}

// firstValue returns the first member of an object document, which is
// where a single keyed Get response ends up.
func firstValue(doc gjson.Result) gjson.Result {
	var out gjson.Result
	doc.ForEach(func(_, v gjson.Result) bool {
		out = v
		return false
	})
	return out
}

// expiryLayout is the timestamp format of ARP and ND expiry leaves.
const expiryLayout = "2006-01-02T15:04:05.999999999Z"

// relativeExpiry renders ts relative to now with one-second precision,
// or "-" when ts is not a timestamp.
func relativeExpiry(ts string, now time.Time) string {
	t, err := time.Parse(expiryLayout, ts)
	if err != nil {
		return "-"
	}
	return t.Sub(now).Truncate(time.Second).String()
}

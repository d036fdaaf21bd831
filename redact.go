// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Limits applied before payloads are redacted and logged.
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024
	MaxSensitiveFields    = 1000
)

const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveFields are JSON object keys whose string values never reach
// the logs. SR Linux uses "hashed-password" and "authentication-key".
var sensitiveFields = []string{
	"password",
	"hashed-password",
	"secret",
	"key",
	"authentication-key",
	"community",
	"token",
	"auth",
}

var defaultRedactionPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(sensitiveFields))
	for i, f := range sensitiveFields {
		// optional module qualifier, e.g. "srl_nokia-aaa:password"
		out[i] = regexp.MustCompile(`"((?:[\w-]+:)?` + regexp.QuoteMeta(f) + `)"\s*:\s*"[^"]*"`)
	}
	return out
}()

// prepareJSONForLogging redacts sensitive values and optionally indents
// the payload.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	count := 0
	for _, f := range sensitiveFields {
		count += strings.Count(jsonStr, f+`"`)
	}
	if count > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", count,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)
	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}
	return redacted
}

func (c *Client) redactSensitiveData(s string) string {
	for _, p := range c.redactionPatterns {
		s = p.ReplaceAllString(s, `"$1":"[REDACTED]"`)
	}
	return s
}

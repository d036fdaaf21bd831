// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"bytes"
	"context"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func captureStdLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags, out := log.Flags(), log.Writer()
	log.SetFlags(0)
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetFlags(flags)
		log.SetOutput(out)
	})
	return &buf
}

func TestDefaultLoggerLevels(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  []string
		skip  []string
	}{
		{LogLevelDebug, []string{"[DEBUG] d", "[INFO] i", "[WARN] w", "[ERROR] e"}, nil},
		{LogLevelInfo, []string{"[INFO] i", "[WARN] w", "[ERROR] e"}, []string{"[DEBUG]"}},
		{LogLevelError, []string{"[ERROR] e"}, []string{"[DEBUG]", "[INFO]", "[WARN]"}},
		{LogLevelNone, nil, []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			buf := captureStdLog(t)
			l := NewDefaultLogger(tt.level)
			ctx := context.Background()
			l.Debug(ctx, "d")
			l.Info(ctx, "i")
			l.Warn(ctx, "w")
			l.Error(ctx, "e")

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, s := range tt.skip {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestDefaultLoggerKeyValues(t *testing.T) {
	buf := captureStdLog(t)
	NewDefaultLogger(LogLevelDebug).Info(context.Background(), "reconciled", "host", "leaf1", "changed", true, "orphan")

	want := "[INFO] reconciled host=leaf1 changed=true orphan=<MISSING>\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline injection", "leaf1\n[ERROR] fake", "leaf1 [ERROR] fake"},
		{"carriage return", "a\rb", "a b"},
		{"tab", "a\tb", "a b"},
		{"ansi escape", "x\x1B[31mred", "x.[31mred"},
		{"null byte", "a\x00b", "a.b"},
		{"zero width", "adm\u200Bin", "admin"},
		{"bidi override", "a\u202Eb", "a b"},
		{"invalid utf8", "a\xffb", "a.b"},
		{"unicode kept", "Zürich", "Zürich"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogValue(tt.input); got != tt.want {
				t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogValueTruncates(t *testing.T) {
	got := sanitizeLogValue(strings.Repeat("x", MaxLogValueLength+10))
	if !strings.HasSuffix(got, "...[TRUNCATED]") {
		t.Errorf("sanitizeLogValue() suffix = %q", got[len(got)-20:])
	}
	if len(got) != MaxLogValueLength+len("...[TRUNCATED]") {
		t.Errorf("len = %d", len(got))
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"off", LogLevelNone, false},
		{"verbose", LogLevelNone, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LogLevelWarn.SlogLevel()})
	l := NewSlogLogger(slog.New(h)).With("host", "leaf1")

	ctx := context.Background()
	l.Info(ctx, "hidden")
	l.Warn(ctx, "purge", "paths", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record emitted at warn level:\n%s", out)
	}
	for _, want := range []string{"level=WARN", "msg=purge", "host=leaf1", "paths=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	ctx := context.Background()
	l.Debug(ctx, "x", "k")
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x", "k", nil)
}

func TestPrepareJSONForLogging(t *testing.T) {
	c := &Client{logger: &NoOpLogger{}, redactionPatterns: defaultRedactionPatterns}

	in := `{"user":{"name":"admin","password":"NokiaSrl1!","srl_nokia-aaa:hashed-password":"$6$x"},"snmp":{"community":"public"},"key":"k1"}`
	got := c.prepareJSONForLogging(in)
	for _, secret := range []string{"NokiaSrl1!", "$6$x", "public", "k1"} {
		if strings.Contains(got, secret) {
			t.Errorf("prepareJSONForLogging() leaked %q: %s", secret, got)
		}
	}
	if !strings.Contains(got, `"srl_nokia-aaa:hashed-password":"[REDACTED]"`) {
		t.Errorf("prepareJSONForLogging() lost the qualified key: %s", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("prepareJSONForLogging() indented with pretty print off: %s", got)
	}

	c.prettyPrintLogs = true
	if got := c.prepareJSONForLogging(`{"a":1}`); got != "{\n  \"a\": 1\n}" {
		t.Errorf("pretty output = %q", got)
	}
	if got := c.prepareJSONForLogging(`{not json}`); got != `{not json}` {
		t.Errorf("invalid JSON output = %q, want passthrough", got)
	}
	if got := c.prepareJSONForLogging(strings.Repeat(" ", MaxJSONSizeForLogging+1)); got != JSONTooLargeMessage {
		t.Errorf("oversized output = %q", got)
	}
}

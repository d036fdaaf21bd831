// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/openconfig/gnmic/pkg/api"
	target "github.com/openconfig/gnmic/pkg/api/target"
)

// Default client configuration values.
const (
	DefaultPort               = 57400
	DefaultMaxRetries         = 3
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 60 * time.Second
	DefaultBackoffDelayFactor = 2
	DefaultConnectTimeout     = 30 * time.Second
	DefaultOperationTimeout   = 15 * time.Second
	DefaultUseTLS             = true
	DefaultVerifyCertificate  = true
	DefaultPrettyPrintLogs    = true
)

// Client is a gNMI session to one device. The connection is opened on
// first use and re-opened after transport failures.
//
// A Client is safe for concurrent use. Set requests are serialized.
type Client struct {
	target    *target.Target
	connected bool
	mu        sync.RWMutex

	// setMu serializes writes so concurrent Set calls cannot interleave
	// their retries.
	setMu sync.Mutex

	Target   string
	Port     int
	username string
	password string

	tlsCert string
	tlsKey  string
	tlsCA   string

	UseTLS             bool
	VerifyCertificate  bool
	InsecureSkipVerify bool

	ConnectTimeout   time.Duration
	OperationTimeout time.Duration

	MaxRetries         int
	BackoffMinDelay    time.Duration
	BackoffMaxDelay    time.Duration
	BackoffDelayFactor float64

	// encodings and models reported by the last Capabilities call,
	// cleared whenever the connection is dropped
	capabilities []string
	models       []*gnmipb.ModelData

	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient validates the configuration and prepares a target. No
// connection is made until the first RPC; call Ping to connect eagerly.
//
//	client, err := gnmi.NewClient("leaf1",
//	    gnmi.Username("admin"),
//	    gnmi.Password("NokiaSrl1!"),
//	    gnmi.VerifyCertificate(false),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(target string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		Target:             target,
		Port:               DefaultPort,
		UseTLS:             DefaultUseTLS,
		VerifyCertificate:  DefaultVerifyCertificate,
		ConnectTimeout:     DefaultConnectTimeout,
		OperationTimeout:   DefaultOperationTimeout,
		MaxRetries:         DefaultMaxRetries,
		BackoffMinDelay:    DefaultBackoffMinDelay,
		BackoffMaxDelay:    DefaultBackoffMaxDelay,
		BackoffDelayFactor: DefaultBackoffDelayFactor,
		logger:             &NoOpLogger{},
		prettyPrintLogs:    DefaultPrettyPrintLogs,
		redactionPatterns:  defaultRedactionPatterns,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.InsecureSkipVerify = !client.VerifyCertificate

	if err := client.validateConfig(); err != nil {
		return nil, err
	}
	if err := client.createTarget(); err != nil {
		return nil, err
	}

	client.logger.Debug(context.Background(), "gNMI client created",
		"target", client.Target,
		"address", client.Address())

	return client, nil
}

// Address returns host:port as dialed.
func (c *Client) Address() string {
	if _, _, err := net.SplitHostPort(c.Target); err == nil {
		return c.Target
	}
	return net.JoinHostPort(strings.Trim(c.Target, "[]"), strconv.Itoa(c.Port))
}

// Disconnect drops the connection but keeps the client usable; the next
// RPC reconnects. Cached capabilities are discarded.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return nil
	}
	if err := c.target.Close(); err != nil {
		c.logger.Warn(context.Background(), "gNMI connection close returned error during disconnect",
			"target", c.Target,
			"error", err.Error())
	}
	c.connected = false
	c.resetCapabilities()

	c.logger.Debug(context.Background(), "gNMI connection disconnected", "target", c.Target)
	return nil
}

// Close releases the client for good. Further RPCs fail with
// ErrNotConnected. Calling Close twice is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return nil
	}
	t := c.target
	c.target = nil
	c.connected = false
	c.resetCapabilities()

	if err := t.Close(); err != nil {
		return err
	}
	c.logger.Debug(context.Background(), "gNMI connection closed", "target", c.Target)
	return nil
}

func (c *Client) resetCapabilities() {
	c.capabilities = nil
	c.models = nil
}

// HasCapability reports whether the device advertised the encoding.
func (c *Client) HasCapability(capability string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cap := range c.capabilities {
		if cap == capability {
			return true
		}
	}
	return false
}

// ServerCapabilities returns a copy of the advertised encodings.
func (c *Client) ServerCapabilities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.capabilities))
	copy(result, c.capabilities)
	return result
}

// HasCredentials reports whether a username, password or client
// certificate is configured.
func (c *Client) HasCredentials() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username != "" || c.password != "" || c.tlsCert != ""
}

// Backoff returns the delay before retry number attempt (0-based):
// min(minDelay * factor^attempt, maxDelay) plus up to 10% random jitter.
func (c *Client) Backoff(attempt int) time.Duration {
	delay := float64(c.BackoffMinDelay) * math.Pow(c.BackoffDelayFactor, float64(attempt))
	if math.IsInf(delay, 1) || delay > float64(c.BackoffMaxDelay) {
		delay = float64(c.BackoffMaxDelay)
	}

	jitterMax := int64(delay * 0.1)
	if jitterMax > 0 {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err == nil {
			//nolint:gosec // G115: sign bit masked
			delay += float64(int64(binary.BigEndian.Uint64(buf[:])&0x7FFFFFFFFFFFFFFF) % jitterMax)
		} else {
			ts := time.Now().UnixNano()
			delay += float64((ts%jitterMax + jitterMax) % jitterMax)
		}
	}
	return time.Duration(delay)
}

func (c *Client) validateConfig() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("target address cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got: %v", c.ConnectTimeout)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got: %v", c.OperationTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffMinDelay <= 0 {
		return fmt.Errorf("backoff min delay must be positive, got: %v", c.BackoffMinDelay)
	}
	if c.BackoffMaxDelay <= c.BackoffMinDelay {
		return fmt.Errorf("backoff max delay (%v) must be greater than min delay (%v)",
			c.BackoffMaxDelay, c.BackoffMinDelay)
	}
	if c.BackoffDelayFactor < 1.0 {
		return fmt.Errorf("backoff delay factor must be >= 1.0, got: %f", c.BackoffDelayFactor)
	}

	if c.UseTLS && c.InsecureSkipVerify {
		c.logger.Warn(context.Background(), "TLS certificate verification disabled", "target", c.Target)
	}
	if !c.UseTLS {
		c.logger.Warn(context.Background(), "TLS disabled, connection is not encrypted", "target", c.Target)
	}

	// only the file name ends up in the error to avoid disclosing paths
	for _, f := range []struct{ kind, path string }{
		{"certificate", c.tlsCert},
		{"key", c.tlsKey},
		{"CA", c.tlsCA},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			c.logger.Debug(context.Background(), "TLS file validation failed",
				"kind", f.kind,
				"path", f.path,
				"error", err.Error())
			return fmt.Errorf("TLS %s file not found: %s", f.kind, filepath.Base(f.path))
		}
	}

	if c.username == "" && c.password == "" && c.tlsCert == "" {
		c.logger.Warn(context.Background(), "No credentials configured", "target", c.Target)
	}
	return nil
}

// createTarget builds the gnmic target without dialing.
func (c *Client) createTarget() error {
	opts := []api.TargetOption{
		api.Name(c.Target),
		api.Address(c.Address()),
		api.Timeout(c.ConnectTimeout),
		api.Insecure(!c.UseTLS),
		api.SkipVerify(c.InsecureSkipVerify),
	}
	if c.username != "" {
		opts = append(opts, api.Username(c.username))
	}
	if c.password != "" {
		opts = append(opts, api.Password(c.password))
	}
	if c.tlsCert != "" {
		opts = append(opts, api.TLSCert(c.tlsCert))
	}
	if c.tlsKey != "" {
		opts = append(opts, api.TLSKey(c.tlsKey))
	}
	if c.tlsCA != "" {
		opts = append(opts, api.TLSCA(c.tlsCA))
	}

	t, err := api.NewTarget(opts...)
	if err != nil {
		return fmt.Errorf("failed to create gnmic target: %w", err)
	}
	c.target = t
	return nil
}

// ensureConnected dials on first use.
func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return ErrNotConnected
	}
	if c.connected {
		return nil
	}

	c.logger.Debug(ctx, "Establishing gNMI connection", "target", c.Target, "address", c.Address())
	if err := c.target.CreateGNMIClient(ctx); err != nil {
		return fmt.Errorf("failed to establish connection: %w", err)
	}
	c.connected = true
	c.logger.Info(ctx, "gNMI connection established", "target", c.Target)
	return nil
}

// reconnect replaces a broken target. Caller holds c.mu for writing.
func (c *Client) reconnect(ctx context.Context) error {
	c.logger.Warn(ctx, "gNMI reconnecting", "target", c.Target, "reason", "transport error")

	if c.target != nil {
		_ = c.target.Close() //nolint:errcheck // connection is already broken
	}
	c.connected = false
	c.resetCapabilities()

	if err := c.createTarget(); err != nil {
		return fmt.Errorf("failed to recreate target: %w", err)
	}
	if err := c.target.CreateGNMIClient(ctx); err != nil {
		return fmt.Errorf("failed to reconnect: %w", err)
	}
	c.connected = true
	c.logger.Info(ctx, "gNMI reconnected", "target", c.Target)
	return nil
}

// Capabilities runs the Capabilities RPC and caches the advertised
// encodings and models.
func (c *Client) Capabilities(ctx context.Context) (CapabilitiesRes, error) {
	if err := ctx.Err(); err != nil {
		return CapabilitiesRes{Errors: []ErrorModel{{Message: err.Error()}}}, err
	}
	if err := c.ensureConnected(ctx); err != nil {
		gerr := newGnmiError("capabilities", c.Target, err, 0)
		return CapabilitiesRes{Errors: gerr.Errors}, gerr
	}

	ctx, cancel := context.WithTimeout(ctx, c.OperationTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return CapabilitiesRes{Errors: []ErrorModel{{Message: ErrNotConnected.Error()}}}, ErrNotConnected
	}

	resp, err := c.target.Capabilities(ctx)
	if err != nil {
		gerr := newGnmiError("capabilities", c.Target, err, 0)
		c.logger.Error(ctx, "gNMI Capabilities failed", "target", c.Target, "error", err.Error())
		return CapabilitiesRes{Errors: gerr.Errors}, gerr
	}

	encodings := make([]string, 0, len(resp.GetSupportedEncodings()))
	for _, enc := range resp.GetSupportedEncodings() {
		encodings = append(encodings, enc.String())
	}
	c.capabilities = encodings
	c.models = resp.GetSupportedModels()
	if c.models == nil {
		c.models = []*gnmipb.ModelData{}
	}

	c.logger.Debug(ctx, "gNMI Capabilities response",
		"target", c.Target,
		"version", resp.GetGNMIVersion(),
		"encodings", len(encodings),
		"models", len(c.models))

	return CapabilitiesRes{
		Version:      resp.GetGNMIVersion(),
		Capabilities: encodings,
		Models:       resp.GetSupportedModels(),
		OK:           true,
	}, nil
}

// Models returns the schema models supported by the device. The list is
// fetched once per connection.
func (c *Client) Models(ctx context.Context) ([]*gnmipb.ModelData, error) {
	c.mu.RLock()
	cached := c.models
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if _, err := c.Capabilities(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.models, nil
}

// Ping connects if needed and runs a Capabilities RPC.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Capabilities(ctx)
	return err
}

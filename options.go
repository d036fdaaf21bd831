// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package gnmi

import "time"

// Client options.

// Username sets the gNMI username.
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.username = username
	}
}

// Password sets the gNMI password.
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.password = password
	}
}

// TLSCert sets the client certificate file for mutual TLS.
func TLSCert(certPath string) func(*Client) {
	return func(c *Client) {
		c.tlsCert = certPath
	}
}

// TLSKey sets the client key file for mutual TLS.
func TLSKey(keyPath string) func(*Client) {
	return func(c *Client) {
		c.tlsKey = keyPath
	}
}

// TLSCA sets the CA bundle used to verify the device.
func TLSCA(caPath string) func(*Client) {
	return func(c *Client) {
		c.tlsCA = caPath
	}
}

// Port sets the port used when the target has none. Default 57400.
func Port(port int) func(*Client) {
	return func(c *Client) {
		c.Port = port
	}
}

// TLS enables or disables transport security. Default enabled.
func TLS(enabled bool) func(*Client) {
	return func(c *Client) {
		c.UseTLS = enabled
	}
}

// VerifyCertificate toggles server certificate verification.
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// ConnectTimeout bounds connection establishment.
func ConnectTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.ConnectTimeout = d
	}
}

// OperationTimeout bounds a single RPC attempt when neither the request
// nor the context sets a deadline.
func OperationTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.OperationTimeout = d
	}
}

// MaxRetries sets the number of retries for transient failures.
func MaxRetries(retries int) func(*Client) {
	return func(c *Client) {
		c.MaxRetries = retries
	}
}

// BackoffMinDelay sets the first retry delay.
func BackoffMinDelay(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMinDelay = d
	}
}

// BackoffMaxDelay caps the retry delay.
func BackoffMaxDelay(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMaxDelay = d
	}
}

// BackoffDelayFactor sets the exponential growth factor of retry delays.
func BackoffDelayFactor(factor float64) func(*Client) {
	return func(c *Client) {
		c.BackoffDelayFactor = factor
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs controls indentation of JSON payloads in debug logs.
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// Request modifiers.

// Timeout sets a per-attempt timeout.
func Timeout(d time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = d
	}
}

// GetEncoding sets the encoding requested from the device.
func GetEncoding(encoding string) func(*Req) {
	return func(req *Req) {
		req.Encoding = encoding
	}
}

// DataType sets the Get data type (config, state, all, operational).
func DataType(dataType string) func(*Req) {
	return func(req *Req) {
		req.DataType = dataType
	}
}

// SetEncoding overrides the encoding of a single SetOperation.
func SetEncoding(encoding string) func(*SetOperation) {
	return func(op *SetOperation) {
		if encoding != "" {
			op.Encoding = encoding
		}
	}
}

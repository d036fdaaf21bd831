// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package inventory loads the devices a command runs against, either
// from an inventory file or from a containerlab topology.
package inventory

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// TLS settings. Nil fields keep the client defaults.
type TLS struct {
	Enabled *bool  `yaml:"enabled"`
	Verify  *bool  `yaml:"verify"`
	CA      string `yaml:"ca"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// Connection holds the settings shared by defaults, groups and hosts.
// Zero values are inherited from the next level up.
type Connection struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
	TLS      TLS    `yaml:"tls"`
}

// inherit fills the zero fields of c from parent.
func (c Connection) inherit(parent Connection) Connection {
	if c.Username == "" {
		c.Username = parent.Username
	}
	if c.Password == "" {
		c.Password = parent.Password
	}
	if c.Port == 0 {
		c.Port = parent.Port
	}
	if c.TLS.Enabled == nil {
		c.TLS.Enabled = parent.TLS.Enabled
	}
	if c.TLS.Verify == nil {
		c.TLS.Verify = parent.TLS.Verify
	}
	if c.TLS.CA == "" {
		c.TLS.CA = parent.TLS.CA
	}
	if c.TLS.Cert == "" {
		c.TLS.Cert = parent.TLS.Cert
	}
	if c.TLS.Key == "" {
		c.TLS.Key = parent.TLS.Key
	}
	return c
}

// Group is a named set of settings and labels hosts can refer to.
type Group struct {
	Connection `yaml:",inline"`
	Labels     map[string]string `yaml:"labels"`
}

// Host is one device.
type Host struct {
	// Name is the inventory key. It is also the device name used for
	// intent selection, state and backups.
	Name       string            `yaml:"-"`
	Hostname   string            `yaml:"hostname"`
	Groups     []string          `yaml:"groups"`
	Labels     map[string]string `yaml:"labels"`
	Connection `yaml:",inline"`
}

// Address returns the name to dial, Hostname when set.
func (h Host) Address() string {
	if h.Hostname != "" {
		return h.Hostname
	}
	return h.Name
}

// Options converts the connection settings to client options.
func (h Host) Options() []func(*gnmi.Client) {
	var opts []func(*gnmi.Client)
	if h.Username != "" {
		opts = append(opts, gnmi.Username(h.Username))
	}
	if h.Password != "" {
		opts = append(opts, gnmi.Password(h.Password))
	}
	if h.Port != 0 {
		opts = append(opts, gnmi.Port(h.Port))
	}
	if h.TLS.Enabled != nil {
		opts = append(opts, gnmi.TLS(*h.TLS.Enabled))
	}
	if h.TLS.Verify != nil {
		opts = append(opts, gnmi.VerifyCertificate(*h.TLS.Verify))
	}
	if h.TLS.CA != "" {
		opts = append(opts, gnmi.TLSCA(h.TLS.CA))
	}
	if h.TLS.Cert != "" {
		opts = append(opts, gnmi.TLSCert(h.TLS.Cert))
	}
	if h.TLS.Key != "" {
		opts = append(opts, gnmi.TLSKey(h.TLS.Key))
	}
	return opts
}

// hostList keeps hosts in file order.
type hostList []Host

func (l *hostList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: hosts must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var h Host
		if err := node.Content[i+1].Decode(&h); err != nil {
			return err
		}
		h.Name = node.Content[i].Value
		*l = append(*l, h)
	}
	return nil
}

// Inventory is the parsed inventory file.
//
//	defaults:
//	  username: admin
//	  tls: {verify: false}
//	groups:
//	  leafs:
//	    labels: {role: leaf}
//	hosts:
//	  leaf1:
//	    hostname: clab-lab-leaf1
//	    groups: [leafs]
type Inventory struct {
	Defaults Connection       `yaml:"defaults"`
	Groups   map[string]Group `yaml:"groups"`
	HostList hostList         `yaml:"hosts"`
}

// Parse decodes an inventory document.
func Parse(data []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	for _, h := range inv.HostList {
		for _, g := range h.Groups {
			if _, ok := inv.Groups[g]; !ok {
				return nil, fmt.Errorf("inventory: host %s: unknown group %q", h.Name, g)
			}
		}
	}
	return &inv, nil
}

// Load reads an inventory file.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return Parse(data)
}

// Hosts returns every host in file order with group and default
// settings resolved. Groups are consulted in the order the host lists
// them; for labels the host wins over its groups.
func (inv *Inventory) Hosts() []Host {
	out := make([]Host, 0, len(inv.HostList))
	for _, h := range inv.HostList {
		labels := make(map[string]string)
		for _, name := range slices.Backward(h.Groups) {
			g := inv.Groups[name]
			for k, v := range g.Labels {
				labels[k] = v
			}
		}
		for _, g := range h.Groups {
			h.Connection = h.Connection.inherit(inv.Groups[g].Connection)
		}
		h.Connection = h.Connection.inherit(inv.Defaults)
		for k, v := range h.Labels {
			labels[k] = v
		}
		h.Labels = labels
		h.Groups = slices.Clone(h.Groups)
		out = append(out, h)
	}
	return out
}

// Filter keeps the hosts matching every filter. Keys are "name",
// "hostname", "group" or a label; values are glob patterns.
func Filter(hosts []Host, filters map[string]string) ([]Host, error) {
	for k, pattern := range filters {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("inventory: filter %s=%s: %w", k, pattern, doublestar.ErrBadPattern)
		}
	}
	var out []Host
	for _, h := range hosts {
		if h.matches(filters) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (h Host) matches(filters map[string]string) bool {
	for k, pattern := range filters {
		var candidates []string
		switch strings.ToLower(k) {
		case "name":
			candidates = []string{h.Name}
		case "hostname":
			candidates = []string{h.Address()}
		case "group", "groups":
			candidates = h.Groups
		default:
			if v, ok := h.Labels[k]; ok {
				candidates = []string{v}
			}
		}
		if !slices.ContainsFunc(candidates, func(c string) bool {
			ok, _ := doublestar.Match(pattern, c)
			return ok
		}) {
			return false
		}
	}
	return true
}

// ParseFilters turns "key=value" arguments into a filter map.
func ParseFilters(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("inventory: filter %q is not key=value", a)
		}
		out[k] = v
	}
	return out, nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package inventory

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	gnmi "github.com/netascode/go-gnmi-intent"
)

// Credentials containerlab configures on SR Linux nodes.
const (
	DefaultUsername = "admin"
	DefaultPassword = "NokiaSrl1!"
)

// SRLGroup is the group every topology host is placed in.
const SRLGroup = "srl"

var srlKinds = []string{"srl", "nokia_srlinux"}

type clabNode struct {
	Kind   string            `yaml:"kind"`
	Image  string            `yaml:"image"`
	Labels map[string]string `yaml:"labels"`
}

type clabTopology struct {
	Name   string  `yaml:"name"`
	Prefix *string `yaml:"prefix"`
	Topo   struct {
		Defaults clabNode            `yaml:"defaults"`
		Kinds    map[string]clabNode `yaml:"kinds"`
		Nodes    yaml.Node           `yaml:"nodes"`
	} `yaml:"topology"`
}

// prefix is what containerlab puts in front of node names.
func (t clabTopology) prefix() string {
	switch {
	case t.Prefix == nil:
		return "clab-" + t.Name + "-"
	case *t.Prefix == "__lab-name":
		return t.Name + "-"
	case *t.Prefix == "":
		return ""
	}
	return *t.Prefix + "-" + t.Name + "-"
}

// srlinuxDefault reports whether nodes without a kind are SR Linux.
func (t clabTopology) srlinuxDefault() bool {
	kind := t.Topo.Defaults.Kind
	if kind == "" {
		return false
	}
	if slices.Contains(srlKinds, kind) {
		return true
	}
	image := t.Topo.Defaults.Image
	if image == "" {
		image = t.Topo.Kinds[kind].Image
	}
	return strings.Contains(image, "srlinux")
}

func (t clabTopology) isSRLinux(kind string) bool {
	if slices.Contains(srlKinds, kind) {
		return true
	}
	k, ok := t.Topo.Kinds[kind]
	return ok && strings.Contains(k.Image, "/srlinux")
}

// ParseTopology builds an inventory from a containerlab topology. Only
// SR Linux nodes are kept; each becomes a host named after its container
// with the node labels as host labels. caFile, if set, is used to
// verify the device certificates.
func ParseTopology(data []byte, caFile string) (*Inventory, error) {
	var t clabTopology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("inventory: topology: %w", err)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("inventory: topology has no name")
	}
	nodes := &t.Topo.Nodes
	if nodes.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("inventory: topology %s has no nodes", t.Name)
	}

	prefix := t.prefix()
	def := t.srlinuxDefault()
	inv := &Inventory{Groups: map[string]Group{SRLGroup: {Connection: srlConnection(caFile)}}}
	for i := 0; i+1 < len(nodes.Content); i += 2 {
		var n clabNode
		if err := nodes.Content[i+1].Decode(&n); err != nil {
			return nil, fmt.Errorf("inventory: topology node %s: %w", nodes.Content[i].Value, err)
		}
		if (n.Kind == "" && def) || (n.Kind != "" && t.isSRLinux(n.Kind)) {
			name := prefix + nodes.Content[i].Value
			inv.HostList = append(inv.HostList, Host{
				Name:     name,
				Hostname: name,
				Groups:   []string{SRLGroup},
				Labels:   n.Labels,
			})
		}
	}
	return inv, nil
}

// LoadTopology reads a containerlab topology file.
func LoadTopology(path, caFile string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return ParseTopology(data, caFile)
}

func srlConnection(caFile string) Connection {
	enabled, verify := true, caFile != ""
	return Connection{
		Username: DefaultUsername,
		Password: DefaultPassword,
		Port:     gnmi.DefaultPort,
		TLS:      TLS{Enabled: &enabled, Verify: &verify, CA: caFile},
	}
}

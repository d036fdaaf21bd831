// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	gnmi "github.com/netascode/go-gnmi-intent"
	"github.com/netascode/go-gnmi-intent/value"
)

// IntentFilePattern selects intent files below the intent directory.
const IntentFilePattern = "**/*.{yml,yaml}"

// Selector describes the host an intent is loaded for.
type Selector struct {
	Hostname string
	Groups   []string
	Labels   map[string]string
}

// metadata restricts a document to matching hosts. A document applies
// when the hostname matches, at least one group matches and every label
// matches; absent fields match anything.
type metadata struct {
	Hostname *string        `yaml:"hostname"`
	Groups   []string       `yaml:"groups"`
	Labels   map[string]any `yaml:"labels"`
}

func (m metadata) matches(sel Selector) bool {
	if m.Hostname != nil && *m.Hostname != sel.Hostname {
		return false
	}
	if m.Groups != nil {
		found := false
		for _, want := range m.Groups {
			for _, g := range sel.Groups {
				if g == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	for k, want := range m.Labels {
		got, ok := sel.Labels[k]
		if !ok || got != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// LoadIntent reads every YAML file below dir, in lexical path order, and
// returns the groups of all documents that apply to sel.
//
// A document is either a mapping with an optional metadata block and
// update, replace or delete lists, or a bare list, which is a replace
// group. List items are {path: value} mappings; delete lists may also
// hold plain path strings.
//
//	metadata:
//	  groups: [leaf]
//	update:
//	  - /system/name:
//	      host-name: leaf1
//	delete:
//	  - /interface[name=ethernet-1/10]
func LoadIntent(dir string, sel Selector) (Intent, error) {
	fsys := os.DirFS(dir)
	files, err := doublestar.Glob(fsys, IntentFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return Intent{}, fmt.Errorf("reconcile: list intent files: %w", err)
	}
	sort.Strings(files)

	var intent Intent
	for _, name := range files {
		groups, err := loadFile(fsys, name, sel)
		if err != nil {
			return Intent{}, fmt.Errorf("reconcile: %s: %w", name, err)
		}
		intent.Groups = append(intent.Groups, groups...)
	}
	return intent, nil
}

func loadFile(fsys fs.FS, name string, sel Selector) ([]Group, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var groups []Group
	dec := yaml.NewDecoder(f)
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return groups, nil
		}
		if err != nil {
			return nil, err
		}
		g, err := parseDocument(&doc, sel)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g...)
	}
}

// ParseIntent decodes a single YAML document without host selection.
func ParseIntent(data []byte) (Intent, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Intent{}, err
	}
	groups, err := parseDocument(&doc, Selector{})
	if err != nil {
		return Intent{}, err
	}
	return Intent{Groups: groups}, nil
}

func parseDocument(doc *yaml.Node, sel Selector) ([]Group, error) {
	node := doc
	if node.Kind == 0 {
		// empty input
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
		g, err := parseGroup(gnmi.OperationReplace, node)
		if err != nil {
			return nil, err
		}
		return []Group{g}, nil
	case yaml.MappingNode:
	default:
		if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("line %d: intent document must be a mapping or a list", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "metadata" {
			continue
		}
		var md metadata
		if err := node.Content[i+1].Decode(&md); err != nil {
			return nil, fmt.Errorf("line %d: metadata: %w", node.Content[i].Line, err)
		}
		if !md.matches(sel) {
			return nil, nil
		}
	}

	var groups []Group
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value == "metadata" {
			continue
		}
		mode := gnmi.SetOperationType(key.Value)
		if !mode.Valid() {
			return nil, &InvalidModeError{Mode: key.Value}
		}
		g, err := parseGroup(mode, val)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func parseGroup(mode gnmi.SetOperationType, node *yaml.Node) (Group, error) {
	g := Group{Mode: mode}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return g, nil
	}
	if node.Kind != yaml.SequenceNode {
		return Group{}, fmt.Errorf("line %d: %s must be a list", node.Line, mode)
	}
	for _, item := range node.Content {
		switch {
		case item.Kind == yaml.ScalarNode && mode == gnmi.OperationDelete:
			g.Resources = append(g.Resources, Resource{Path: item.Value})
		case item.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(item.Content); j += 2 {
				v, err := value.FromYAML(item.Content[j+1])
				if err != nil {
					return Group{}, err
				}
				g.Resources = append(g.Resources, Resource{Path: item.Content[j].Value, Value: v})
			}
		default:
			return Group{}, fmt.Errorf("line %d: %s entries must be {path: value} mappings", item.Line, mode)
		}
	}
	return g, nil
}

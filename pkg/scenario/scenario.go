// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scenario replays scripted sequences of list operations.
//
// A scenario names a set of list heads and a set of member nodes, each with
// an integer value, followed by steps that link, unlink, splice and
// re-initialize them. It
// is used by the klist tool to reproduce list states and to exercise the
// invariant checks on them.
package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Op is a step operation.
type Op string

// Supported operations.
const (
	// InsertAfter links Node right after Anchor.
	InsertAfter Op = "insert_after"

	// InsertBefore links Node right before Anchor.
	InsertBefore Op = "insert_before"

	// Remove unlinks Node.
	Remove Op = "remove"

	// Splice moves all members of head From to the tail of head Anchor.
	Splice Op = "splice"

	// Init re-initializes Node in place. On a linked node this leaves its
	// neighbours pointing at it, which is how scenarios reproduce corrupted
	// lists for the checker.
	Init Op = "init"
)

// Node declares a list member.
type Node struct {
	Name  string `toml:"name" yaml:"name"`
	Value int    `toml:"value" yaml:"value"`
}

// Step is a single operation.
type Step struct {
	Op Op `toml:"op" yaml:"op"`

	// Node is the node being linked or unlinked.
	Node string `toml:"node,omitempty" yaml:"node,omitempty"`

	// Anchor is the head or node that Node is linked next to, or the
	// destination head of a splice.
	Anchor string `toml:"anchor,omitempty" yaml:"anchor,omitempty"`

	// From is the source head of a splice.
	From string `toml:"from,omitempty" yaml:"from,omitempty"`
}

// Scenario is a decoded scenario file.
type Scenario struct {
	// Limit bounds the number of members a list may have when validated. 0
	// means the total number of declared nodes.
	Limit int `toml:"limit,omitempty" yaml:"limit,omitempty"`

	Heads []string `toml:"heads" yaml:"heads"`
	Nodes []Node   `toml:"nodes" yaml:"nodes"`
	Steps []Step   `toml:"steps" yaml:"steps"`
}

// Format is a scenario file encoding.
type Format int

// Supported formats.
const (
	TOML Format = iota
	YAML
)

// FormatFor returns the format implied by the extension of path.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, errors.Errorf("unknown scenario extension %q", ext)
	}
}

// Decode parses a scenario in the given format.
func Decode(data []byte, f Format) (*Scenario, error) {
	var sc Scenario
	switch f {
	case TOML:
		md, err := toml.Decode(string(data), &sc)
		if err != nil {
			return nil, errors.Wrap(err, "decoding TOML")
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errors.Errorf("unknown TOML keys: %v", undec)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sc); err != nil {
			return nil, errors.Wrap(err, "decoding YAML")
		}
	default:
		return nil, errors.Errorf("unknown format %d", f)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and decodes the scenario file at path.
func Load(path string) (*Scenario, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %q", path)
	}
	sc, err := Decode(data, f)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %q", path)
	}
	return sc, nil
}

// validate checks names and step shapes. It does not check list state, which
// is only known while running.
func (sc *Scenario) validate() error {
	if sc.Limit < 0 {
		return errors.Errorf("negative limit %d", sc.Limit)
	}
	heads := make(map[string]bool)
	nodes := make(map[string]bool)
	for _, h := range sc.Heads {
		if h == "" {
			return errors.New("empty head name")
		}
		if heads[h] {
			return errors.Errorf("duplicate head %q", h)
		}
		heads[h] = true
	}
	for _, n := range sc.Nodes {
		if n.Name == "" {
			return errors.New("empty node name")
		}
		if heads[n.Name] || nodes[n.Name] {
			return errors.Errorf("duplicate name %q", n.Name)
		}
		nodes[n.Name] = true
	}
	for i, s := range sc.Steps {
		var err error
		switch s.Op {
		case InsertAfter, InsertBefore:
			switch {
			case !nodes[s.Node]:
				err = errors.Errorf("unknown node %q", s.Node)
			case !heads[s.Anchor] && !nodes[s.Anchor]:
				err = errors.Errorf("unknown anchor %q", s.Anchor)
			case s.Anchor == s.Node:
				err = errors.Errorf("node %q anchored to itself", s.Node)
			}
		case Remove, Init:
			if !nodes[s.Node] {
				err = errors.Errorf("unknown node %q", s.Node)
			}
		case Splice:
			switch {
			case !heads[s.Anchor]:
				err = errors.Errorf("unknown destination head %q", s.Anchor)
			case !heads[s.From]:
				err = errors.Errorf("unknown source head %q", s.From)
			case s.Anchor == s.From:
				err = errors.Errorf("splice of head %q into itself", s.From)
			}
		default:
			err = errors.Errorf("unknown op %q", s.Op)
		}
		if err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
	}
	return nil
}

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

package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gvisor.dev/klist/pkg/klist"
	"gvisor.dev/klist/pkg/klistcheck"
	"gvisor.dev/klist/pkg/log"
)

// ErrPrecondition is returned when a step would break a list precondition,
// such as linking a node that is already linked.
var ErrPrecondition = errors.New("list precondition violated")

// entry is the owner of each scenario node.
type entry struct {
	name  string
	value int
	node  klist.Node[entry]
}

// Member is a list member in a Result.
type Member struct {
	Name  string
	Value int
}

func (m Member) String() string {
	return fmt.Sprintf("%s=%d", m.Name, m.Value)
}

// HeadState is the content of one list after a run.
type HeadState struct {
	Name    string
	Members []Member
}

func (h HeadState) String() string {
	s := make([]string, len(h.Members))
	for i, m := range h.Members {
		s[i] = m.String()
	}
	return fmt.Sprintf("%s (%d): [%s]", h.Name, len(h.Members), strings.Join(s, " "))
}

// Result is the outcome of Run.
type Result struct {
	// Heads lists every intact head in declaration order. Corrupted heads
	// are left out since they cannot be walked.
	Heads []HeadState

	// Steps is the number of steps applied.
	Steps int

	// Violations counts failed validations, one per head and checked step.
	Violations int
}

// ReportInterval is the minimum time between two corruption reports of a run
// using the default reporter. A corrupted list stays corrupted, so without it
// every following step would log the same violation again.
const ReportInterval = time.Second

// Options controls Run.
type Options struct {
	// Check validates every head after every step.
	Check bool

	// Logger receives per-step debug output. The global logger is used if
	// nil.
	Logger log.Logger

	// Reporter receives corruption reports. If nil, reports go to Logger,
	// at most one per ReportInterval.
	Reporter log.Logger
}

func (s Step) String() string {
	switch s.Op {
	case Splice:
		return fmt.Sprintf("%s %s -> %s", s.Op, s.From, s.Anchor)
	case Remove, Init:
		return fmt.Sprintf("%s %s", s.Op, s.Node)
	default:
		return fmt.Sprintf("%s %s @ %s", s.Op, s.Node, s.Anchor)
	}
}

// state holds the live lists of a run.
type state struct {
	heads map[string]*klist.Node[entry]
	nodes map[string]*entry
}

func newState(sc *Scenario) *state {
	st := &state{
		heads: make(map[string]*klist.Node[entry], len(sc.Heads)),
		nodes: make(map[string]*entry, len(sc.Nodes)),
	}
	for _, h := range sc.Heads {
		head := &klist.Node[entry]{}
		head.InitHead()
		st.heads[h] = head
	}
	for _, n := range sc.Nodes {
		e := &entry{name: n.Name, value: n.Value}
		e.node.Init(e)
		st.nodes[n.Name] = e
	}
	return st
}

// link returns the list node named name, which is either a head or a member.
func (st *state) link(name string) *klist.Node[entry] {
	if h, ok := st.heads[name]; ok {
		return h
	}
	return &st.nodes[name].node
}

func (st *state) apply(s Step) error {
	switch s.Op {
	case InsertAfter, InsertBefore:
		e := st.nodes[s.Node]
		if e.node.Linked() {
			return errors.Wrapf(ErrPrecondition, "node %q is already linked", s.Node)
		}
		anchor := st.link(s.Anchor)
		if s.Op == InsertAfter {
			anchor.InsertAfter(&e.node)
		} else {
			anchor.InsertBefore(&e.node)
		}
	case Remove:
		st.nodes[s.Node].node.Remove()
	case Init:
		e := st.nodes[s.Node]
		e.node.Init(e)
	case Splice:
		st.heads[s.Anchor].SpliceBack(st.heads[s.From])
	default:
		return errors.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Run applies the steps of sc to fresh nodes and returns the final contents
// of every head.
//
// With opts.Check, a corrupted list does not stop the run: every violation
// is reported and counted, and the first one is returned once all steps have
// been applied. A step that would break a precondition stops the run at once.
func Run(sc *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Log()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = log.RateLimitedLogger(logger, ReportInterval)
	}
	limit := sc.Limit
	if limit == 0 {
		limit = len(sc.Nodes)
	}

	st := newState(sc)
	res := &Result{}
	var firstErr error
	for i, s := range sc.Steps {
		if err := st.apply(s); err != nil {
			return res, errors.Wrapf(err, "step %d (%v)", i, s)
		}
		res.Steps++
		logger.Debugf("step %d: %v", i, s)
		if !opts.Check {
			continue
		}
		for _, h := range sc.Heads {
			if err := klistcheck.Report(reporter, h, st.heads[h], limit); err != nil {
				res.Violations++
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "after step %d (%v)", i, s)
				}
			}
		}
	}

	for _, h := range sc.Heads {
		head := st.heads[h]
		// No intact list can hold more than every declared node.
		if err := klistcheck.Validate(head, len(sc.Nodes)); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "list %q", h)
			}
			continue
		}
		hs := HeadState{Name: h}
		for e := range head.Entries() {
			hs.Members = append(hs.Members, Member{Name: e.name, Value: e.value})
		}
		res.Heads = append(res.Heads, hs)
	}
	return res, firstErr
}

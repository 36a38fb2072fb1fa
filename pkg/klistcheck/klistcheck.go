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

// Package klistcheck validates the structure of klist lists.
//
// klist performs no validation of its own. This package is meant for tests,
// debugging tools and debug builds that want to catch corruption close to the
// operation that caused it. Validation walks the whole list and is O(n).
package klistcheck

import (
	"fmt"

	"github.com/pkg/errors"

	"gvisor.dev/klist/pkg/klist"
	"gvisor.dev/klist/pkg/log"
)

// ErrCorrupt is the cause of every Violation.
var ErrCorrupt = errors.New("corrupt list")

// Kind identifies the invariant a Violation breaks.
type Kind int

// Violation kinds.
const (
	// NilLink means a node reachable from the head has a nil next or prev.
	// The klist API never leaves a reachable node like that; only memory
	// corruption, such as a stray write over a linked node, does.
	NilLink Kind = iota

	// BrokenNext means a.next.prev != a.
	BrokenNext

	// BrokenPrev means a.prev.next != a.
	BrokenPrev

	// Unterminated means the walk did not return to the head within the
	// allowed number of members.
	Unterminated
)

func (k Kind) String() string {
	switch k {
	case NilLink:
		return "nil link"
	case BrokenNext:
		return "next.prev mismatch"
	case BrokenPrev:
		return "prev.next mismatch"
	case Unterminated:
		return "walk does not return to head"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Violation describes the first broken invariant found by Validate.
type Violation struct {
	Kind Kind

	// Index is the position of the offending node: 0 for the head, i for
	// the i-th member.
	Index int
}

// Error implements error.Error.
func (v *Violation) Error() string {
	return fmt.Sprintf("%v at position %d", v.Kind, v.Index)
}

// Unwrap returns ErrCorrupt.
func (v *Violation) Unwrap() error {
	return ErrCorrupt
}

// Validate walks the list headed by head and checks that every node it
// reaches is linked symmetrically and that the walk comes back to head after
// at most limit members. A limit <= 0 means no bound, which can loop forever
// on a list whose cycle does not pass through head.
//
// A zero-value head that was never linked is a valid empty list.
func Validate[T any](head *klist.Node[T], limit int) error {
	if head.Next() == nil && head.Prev() == nil {
		return nil
	}
	e := head
	for i := 0; ; i++ {
		next, prev := e.Next(), e.Prev()
		if next == nil || prev == nil {
			return errors.WithStack(&Violation{Kind: NilLink, Index: i})
		}
		if next.Prev() != e {
			return errors.WithStack(&Violation{Kind: BrokenNext, Index: i})
		}
		if prev.Next() != e {
			return errors.WithStack(&Violation{Kind: BrokenPrev, Index: i})
		}
		if next == head {
			return nil
		}
		if limit > 0 && i+1 > limit {
			return errors.WithStack(&Violation{Kind: Unterminated, Index: i + 1})
		}
		e = next
	}
}

// MustValidate panics if Validate fails.
func MustValidate[T any](head *klist.Node[T], limit int) {
	if err := Validate(head, limit); err != nil {
		panic(fmt.Sprintf("klist: %+v", err))
	}
}

// Report validates the list and logs a warning naming it if it is corrupt.
// The returned error carries name as context.
func Report[T any](logger log.Logger, name string, head *klist.Node[T], limit int) error {
	err := Validate(head, limit)
	if err == nil {
		return nil
	}
	logger.Warningf("list %q is corrupt: %v", name, err)
	return errors.Wrapf(err, "list %q", name)
}

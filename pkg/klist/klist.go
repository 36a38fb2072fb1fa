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

// Package klist provides an intrusive circular doubly-linked list.
//
// Objects join a list by embedding a Node. A list head is simply a Node that
// is not embedded in an owner; it acts as the circular sentinel. The package
// never allocates or frees nodes, and it performs no locking: callers must
// serialize all access to a given list.
//
// To iterate over a list (where head is a *Node[T]):
//
//	for e := range head.Entries() {
//		// do something with e.
//	}
//
// Use EntriesSafe (or AllSafe) if the loop body may remove the current entry.
package klist

// Node is the link embedded in list members and used as list heads.
//
// The zero value is an unlinked node with no owner. Heads may be used without
// explicit initialization; members should be initialized with Init so that
// their owner can be recovered.
//
// +stateify savable
type Node[T any] struct {
	next *Node[T]
	prev *Node[T]

	// owner is the structure embedding this node, or nil for a head. It is
	// set by Init and never changed by list operations.
	owner *T
}

// lazyInit self-loops a zero-value node.
//
//go:nosplit
func (n *Node[T]) lazyInit() {
	if n.next == nil {
		n.next = n
		n.prev = n
	}
}

// Init resets n to an unlinked node belonging to owner.
//
// Init must not be called on a node that is currently linked into a list with
// other members: the neighbours would keep pointing at n.
func (n *Node[T]) Init(owner *T) {
	n.next = n
	n.prev = n
	n.owner = owner
}

// InitHead resets n to an empty list head.
func (n *Node[T]) InitHead() {
	n.Init(nil)
}

// Owner returns the structure embedding n, or nil if n is a head.
//
//go:nosplit
func (n *Node[T]) Owner() *T {
	return n.owner
}

// Next returns the node following n. For an unlinked node this is n itself,
// and for a zero-value node that was never linked it is nil.
//
//go:nosplit
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// Prev returns the node preceding n, with the same conventions as Next.
//
//go:nosplit
func (n *Node[T]) Prev() *Node[T] {
	return n.prev
}

// Empty returns true iff the list headed by n has no members.
//
//go:nosplit
func (n *Node[T]) Empty() bool {
	return n.next == nil || n.next == n
}

// Linked returns true iff n is linked to at least one other node.
func (n *Node[T]) Linked() bool {
	return !n.Empty()
}

// Len returns the number of members of the list headed by n, not counting n.
//
// NOTE: This is an O(n) operation.
func (n *Node[T]) Len() (count int) {
	if n.Empty() {
		return 0
	}
	for e := n.next; e != n; e = e.next {
		count++
	}
	return count
}

// InsertAfter links e immediately after n.
//
// e must not be a member of any list. This is not checked; inserting a linked
// node corrupts both lists.
func (n *Node[T]) InsertAfter(e *Node[T]) {
	n.lazyInit()
	a := n.next

	e.next = a
	e.prev = n
	a.prev = e
	n.next = e

	checkLinks(n)
	checkLinks(e)
}

// InsertBefore links e immediately before n. When n is a head, this appends e
// at the tail of the list.
func (n *Node[T]) InsertBefore(e *Node[T]) {
	n.lazyInit()
	n.prev.InsertAfter(e)
}

// Remove unlinks n from the list it belongs to and leaves it self-looped, as
// after Init. Removing an unlinked node is a no-op.
func (n *Node[T]) Remove() {
	n.lazyInit()
	prev := n.prev
	next := n.next

	prev.next = next
	next.prev = prev
	n.next = n
	n.prev = n

	checkLinks(prev)
}

// SpliceBack moves every member of the list headed by other to the tail of the
// list headed by n, preserving their order. other is left empty.
func (n *Node[T]) SpliceBack(other *Node[T]) {
	if other.Empty() {
		return
	}
	n.lazyInit()
	first := other.next
	last := other.prev
	tail := n.prev

	tail.next = first
	first.prev = tail
	last.next = n
	n.prev = last

	other.next = other
	other.prev = other

	checkLinks(n)
	checkLinks(first)
}

// First returns the owner of the first member of the list headed by n.
//
// The list must not be empty. On an empty head First returns the head's own
// owner, which is nil for a head that is not embedded in anything.
func (n *Node[T]) First() *T {
	n.lazyInit()
	return n.next.owner
}

// Last returns the owner of the last member of the list headed by n. The same
// precondition as First applies.
func (n *Node[T]) Last() *T {
	n.lazyInit()
	return n.prev.owner
}

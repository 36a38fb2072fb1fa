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

package klist

import "iter"

// All returns an iterator over the member nodes of the list headed by n, from
// first to last.
//
// The loop body must not unlink the node it is visiting; use AllSafe for that.
func (n *Node[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		if n.Empty() {
			return
		}
		for e := n.next; e != n; e = e.next {
			if !yield(e) {
				return
			}
		}
	}
}

// AllSafe is like All, but the successor of each node is read before the loop
// body runs. The body may remove the current node, re-initialize it, or move
// it to a different list. Relinking it into this list, or removing any other
// member, is not supported: moving each node to the tail never terminates.
func (n *Node[T]) AllSafe() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		if n.Empty() {
			return
		}
		for e, next := n.next, n.next.next; e != n; e, next = next, next.next {
			if !yield(e) {
				return
			}
		}
	}
}

// Entries returns an iterator over the owners of the members of the list
// headed by n, from first to last. The same restrictions as All apply.
func (n *Node[T]) Entries() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for e := range n.All() {
			if !yield(e.owner) {
				return
			}
		}
	}
}

// EntriesSafe is the owner counterpart of AllSafe.
func (n *Node[T]) EntriesSafe() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for e := range n.AllSafe() {
			if !yield(e.owner) {
				return
			}
		}
	}
}

// Backward returns an iterator over the owners of the members of the list
// headed by n, from last to first.
func (n *Node[T]) Backward() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		if n.Empty() {
			return
		}
		for e := n.prev; e != n; e = e.prev {
			if !yield(e.owner) {
				return
			}
		}
	}
}

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

//go:build klistdebug
// +build klistdebug

package klist

import "fmt"

// checkLinks panics if n and its neighbours do not point back at each other.
func checkLinks[T any](n *Node[T]) {
	if n.next == nil || n.prev == nil {
		panic(fmt.Sprintf("klist: node %p has nil link (next=%p prev=%p)", n, n.next, n.prev))
	}
	if n.next.prev != n {
		panic(fmt.Sprintf("klist: node %p: next.prev = %p", n, n.next.prev))
	}
	if n.prev.next != n {
		panic(fmt.Sprintf("klist: node %p: prev.next = %p", n, n.prev.next))
	}
}

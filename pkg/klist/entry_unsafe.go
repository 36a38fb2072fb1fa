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

import "unsafe"

// EntryOf returns the structure of type T that contains node at byte offset
// offset, typically obtained with unsafe.Offsetof:
//
//	f := EntryOf[foo](&x.node, unsafe.Offsetof(foo{}.node))
//
// Nothing is checked. node must really be the field at offset within a T,
// otherwise the result points at arbitrary memory.
//
//go:nosplit
func EntryOf[T, N any](node *N, offset uintptr) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(node), -int(offset)))
}

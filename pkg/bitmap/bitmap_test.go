// Copyright 2021 The gVisor Authors.
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

package bitmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmpty(t *testing.T) {
	b := New(32)
	if !b.IsEmpty() {
		t.Errorf("new bitmap is not empty")
	}
	if got := b.Minimum(); got != MaxBitEntryLimit {
		t.Errorf("Minimum() = %d, want %d", got, MaxBitEntryLimit)
	}
	if got := b.ToSlice(); len(got) != 0 {
		t.Errorf("ToSlice() = %v, want empty", got)
	}
}

func TestAddRemove(t *testing.T) {
	b := New(130)
	for _, i := range []uint32{129, 5, 64, 5, 0} {
		if err := b.Add(i); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if diff := cmp.Diff([]uint32{0, 5, 64, 129}, b.ToSlice()); diff != "" {
		t.Errorf("ToSlice() mismatch (-want +got):\n%s", diff)
	}

	for _, tc := range []struct {
		remove uint32
		min    uint32
	}{
		{remove: 0, min: 5},
		{remove: 5, min: 64},
		{remove: 5, min: 64},
		{remove: 64, min: 129},
		{remove: 129, min: MaxBitEntryLimit},
	} {
		if err := b.Remove(tc.remove); err != nil {
			t.Fatalf("Remove(%d): %v", tc.remove, err)
		}
		for _, v := range b.ToSlice() {
			if v == tc.remove {
				t.Errorf("%d still set after Remove", tc.remove)
			}
		}
		if got := b.Minimum(); got != tc.min {
			t.Errorf("after Remove(%d): Minimum() = %d, want %d", tc.remove, got, tc.min)
		}
	}
	if !b.IsEmpty() {
		t.Errorf("bitmap not empty: %v", b.ToSlice())
	}
}

func TestOutOfRange(t *testing.T) {
	b := New(32)
	if err := b.Add(32); err == nil {
		t.Errorf("Add(32) succeeded on a 32-bit bitmap")
	}
	if err := b.Remove(40); err == nil {
		t.Errorf("Remove(40) succeeded on a 32-bit bitmap")
	}
	if !b.IsEmpty() {
		t.Errorf("failed Add changed the bitmap: %v", b.ToSlice())
	}
}

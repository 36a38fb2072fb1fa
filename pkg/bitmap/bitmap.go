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

// Package bitmap provides a fixed-size bitmap with fast lowest-bit lookup.
//
// It is used by run queues to find the most urgent non-empty priority list
// without scanning the lists themselves.
package bitmap

import (
	"fmt"
	"math"
	"math/bits"
)

// MaxBitEntryLimit is returned by Minimum when no bit is set.
const MaxBitEntryLimit uint32 = math.MaxInt32

// Bitmap is a set of small integers in [0, size), size being fixed by New.
//
// The backing storage is allocated once by New; Add and Remove never
// allocate.
//
// +stateify savable
type Bitmap struct {
	// numOnes is the number of ones in the bitmap.
	numOnes uint32

	// size is the number of usable bits.
	size uint32

	// bitBlock holds the bits, 64 entries per word.
	bitBlock []uint64
}

// New creates an empty Bitmap able to hold values in [0, size).
func New(size uint32) Bitmap {
	return Bitmap{
		size:     size,
		bitBlock: make([]uint64, (size+63)/64),
	}
}

// IsEmpty verifies whether the Bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.numOnes == 0
}

func (b *Bitmap) check(i uint32) error {
	if i >= b.size {
		return fmt.Errorf("bit %d out of range [0, %d)", i, b.size)
	}
	return nil
}

// Add sets bit i.
func (b *Bitmap) Add(i uint32) error {
	if err := b.check(i); err != nil {
		return err
	}
	blockNum, mask := i/64, uint64(1)<<(i%64)
	if old := b.bitBlock[blockNum]; old&mask == 0 {
		b.bitBlock[blockNum] = old | mask
		b.numOnes++
	}
	return nil
}

// Remove clears bit i.
func (b *Bitmap) Remove(i uint32) error {
	if err := b.check(i); err != nil {
		return err
	}
	blockNum, mask := i/64, uint64(1)<<(i%64)
	if old := b.bitBlock[blockNum]; old&mask != 0 {
		b.bitBlock[blockNum] = old &^ mask
		b.numOnes--
	}
	return nil
}

// Minimum returns the smallest value in the Bitmap, or MaxBitEntryLimit if
// it is empty.
func (b *Bitmap) Minimum() uint32 {
	for i, w := range b.bitBlock {
		if w != 0 {
			return uint32(bits.TrailingZeros64(w) + i*64)
		}
	}
	return MaxBitEntryLimit
}

// ToSlice returns the set bits in increasing order. For example, a bitmap of
// [0, 1, 0, 1] returns [1, 3].
func (b *Bitmap) ToSlice() []uint32 {
	s := make([]uint32, 0, b.numOnes)
	for i, w := range b.bitBlock {
		for w != 0 {
			s = append(s, uint32(i*64+bits.TrailingZeros64(w)))
			// Clear the lowest set bit.
			w &= w - 1
		}
	}
	return s
}

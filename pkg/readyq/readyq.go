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

// Package readyq implements a fixed-priority run queue.
//
// The queue keeps one klist head per priority level and a bitmap of the
// levels that have at least one ready thread. Lower numbers are more urgent.
// Threads of equal priority run round-robin: Insert appends at the tail and
// Yield rotates the current thread to the tail.
package readyq

import (
	"fmt"

	"github.com/pkg/errors"

	"gvisor.dev/klist/pkg/bitmap"
	"gvisor.dev/klist/pkg/klist"
	"gvisor.dev/klist/pkg/sync"
)

// Priorities is the number of priority levels.
const Priorities = 32

// Errors returned by Queue.
var (
	ErrBadPriority = errors.New("priority out of range")
	ErrQueued      = errors.New("thread already queued")
)

// Thread is a schedulable entity.
type Thread struct {
	name string
	prio uint32
	node klist.Node[Thread]
}

// NewThread returns an unqueued thread.
func NewThread(name string, prio uint32) *Thread {
	t := &Thread{name: name, prio: prio}
	t.node.Init(t)
	return t
}

// Name returns the thread's name.
func (t *Thread) Name() string {
	return t.name
}

// Priority returns the thread's priority.
func (t *Thread) Priority() uint32 {
	return t.prio
}

// Queued returns true iff t is on a run queue.
func (t *Thread) Queued() bool {
	return t.node.Linked()
}

func (t *Thread) String() string {
	return fmt.Sprintf("%s/%d", t.name, t.prio)
}

// Queue is a run queue. It is safe for concurrent use.
type Queue struct {
	// mu protects the fields below.
	mu sync.Mutex

	// table holds the ready threads of each priority, in FIFO order.
	table [Priorities]klist.Node[Thread]

	// ready has bit p set iff table[p] is not empty.
	ready bitmap.Bitmap
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{ready: bitmap.New(Priorities)}
	for p := range q.table {
		q.table[p].InitHead()
	}
	return q
}

// Insert appends t to the tail of its priority level.
func (q *Queue) Insert(t *Thread) error {
	if t.prio >= Priorities {
		return errors.Wrapf(ErrBadPriority, "inserting %v", t)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.node.Linked() {
		return errors.Wrapf(ErrQueued, "inserting %v", t)
	}
	q.insertLocked(t)
	return nil
}

// +checklocks:q.mu
func (q *Queue) insertLocked(t *Thread) {
	q.table[t.prio].InsertBefore(&t.node)
	if err := q.ready.Add(t.prio); err != nil {
		panic(fmt.Sprintf("readyq: inserting %v: %v", t, err))
	}
}

// Remove takes t off the queue. Removing an unqueued thread is a no-op.
func (q *Queue) Remove(t *Thread) {
	if t.prio >= Priorities {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(t)
}

// +checklocks:q.mu
func (q *Queue) removeLocked(t *Thread) {
	t.node.Remove()
	if !q.table[t.prio].Empty() {
		return
	}
	if err := q.ready.Remove(t.prio); err != nil {
		panic(fmt.Sprintf("readyq: removing %v: %v", t, err))
	}
}

// Highest returns the first thread of the most urgent non-empty level.
func (q *Queue) Highest() (*Thread, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ready.IsEmpty() {
		return nil, false
	}
	return q.table[q.ready.Minimum()].First(), true
}

// Yield moves t behind the other threads of its priority. It returns false if
// t is not queued or is alone at its level.
func (q *Queue) Yield(t *Thread) bool {
	if t.prio >= Priorities {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	head := &q.table[t.prio]
	if !t.node.Linked() || (t.node.Next() == head && t.node.Prev() == head) {
		return false
	}
	t.node.Remove()
	head.InsertBefore(&t.node)
	return true
}

// SetPriority changes the priority of t, requeueing it at the tail of the new
// level if it is queued.
func (q *Queue) SetPriority(t *Thread, prio uint32) error {
	if prio >= Priorities {
		return errors.Wrapf(ErrBadPriority, "setting priority %d on %v", prio, t)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if !t.node.Linked() {
		t.prio = prio
		return nil
	}
	q.removeLocked(t)
	t.prio = prio
	q.insertLocked(t)
	return nil
}

// Len returns the number of queued threads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ready.IsEmpty() {
		return 0
	}
	n := 0
	for _, p := range q.ready.ToSlice() {
		n += q.table[p].Len()
	}
	return n
}

// Threads returns the threads queued at prio, in run order.
func (q *Queue) Threads(prio uint32) []*Thread {
	if prio >= Priorities {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	var ts []*Thread
	for t := range q.table[prio].Entries() {
		ts = append(ts, t)
	}
	return ts
}

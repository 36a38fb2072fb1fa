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

// Package objreg implements a registry of named kernel objects.
//
// Every object embeds a klist.Node and is kept on the list of its class in
// registration order. A btree index per class gives name lookups without
// walking the list. The registry serializes all access with its own mutex;
// the lists themselves are unsynchronized.
package objreg

import (
	"fmt"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"gvisor.dev/klist/pkg/klist"
	"gvisor.dev/klist/pkg/log"
	"gvisor.dev/klist/pkg/sync"
)

// NameMax is the maximum length of an object name. Longer names are
// truncated.
const NameMax = 8

// Class is the kind of a kernel object.
type Class uint8

// Object classes.
const (
	Thread Class = iota
	Semaphore
	Mutex
	Event
	MailBox
	MessageQueue
	MemPool
	Device
	Timer

	// NumClasses is the number of valid classes.
	NumClasses
)

var classNames = [NumClasses]string{
	Thread:       "thread",
	Semaphore:    "semaphore",
	Mutex:        "mutex",
	Event:        "event",
	MailBox:      "mailbox",
	MessageQueue: "msgqueue",
	MemPool:      "mempool",
	Device:       "device",
	Timer:        "timer",
}

func (c Class) String() string {
	if c < NumClasses {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// ParseClass returns the class named s.
func ParseClass(s string) (Class, error) {
	for c, name := range classNames {
		if name == s {
			return Class(c), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidClass, "%q", s)
}

// Errors returned by Registry.
var (
	ErrInvalidClass = errors.New("invalid object class")
	ErrExists       = errors.New("object already exists")
	ErrNotFound     = errors.New("object not found")
	ErrAttached     = errors.New("object already attached")
)

// Object is the common header of kernel objects. Concrete objects embed it.
//
// The zero value is a detached object.
type Object struct {
	name  string
	class Class

	// registry is the registry the object is attached to, or nil.
	registry *Registry

	node klist.Node[Object]
}

// Name returns the object's name.
func (o *Object) Name() string {
	return o.name
}

// Class returns the object's class.
func (o *Object) Class() Class {
	return o.class
}

// Attached returns true iff o is attached to a registry.
func (o *Object) Attached() bool {
	return o.registry != nil
}

func (o *Object) String() string {
	return fmt.Sprintf("%v %q", o.class, o.name)
}

func lessByName(a, b *Object) bool {
	return a.name < b.name
}

// btreeDegree is the degree of the name indexes.
const btreeDegree = 8

// Registry holds the attached objects of every class.
type Registry struct {
	logger log.Logger

	// mu protects the fields below.
	mu sync.RWMutex

	// lists holds one list head per class.
	lists [NumClasses]klist.Node[Object]

	// index maps names to objects, per class.
	index [NumClasses]*btree.BTreeG[*Object]
}

// New returns an empty Registry. If logger is nil the global logger is used.
func New(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.Log()
	}
	r := &Registry{logger: logger}
	for c := range r.lists {
		r.lists[c].InitHead()
		r.index[c] = btree.NewG(btreeDegree, lessByName)
	}
	return r
}

func truncate(name string) string {
	if len(name) > NameMax {
		return name[:NameMax]
	}
	return name
}

// Attach names obj, assigns it to class and appends it to the class list.
func (r *Registry) Attach(obj *Object, class Class, name string) error {
	if class >= NumClasses {
		return errors.Wrapf(ErrInvalidClass, "attaching %q", name)
	}
	name = truncate(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if obj.registry != nil {
		return errors.Wrapf(ErrAttached, "%v", obj)
	}
	if _, ok := r.index[class].Get(&Object{name: name}); ok {
		return errors.Wrapf(ErrExists, "%v %q", class, name)
	}

	obj.name = name
	obj.class = class
	obj.registry = r
	obj.node.Init(obj)
	r.lists[class].InsertBefore(&obj.node)
	r.index[class].ReplaceOrInsert(obj)
	r.logger.Debugf("objreg: attached %v", obj)
	return nil
}

// Detach removes obj from the registry. The object keeps its name and class.
func (r *Registry) Detach(obj *Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if obj.registry != r {
		return errors.Wrapf(ErrNotFound, "detaching %v", obj)
	}
	r.detachLocked(obj)
	return nil
}

// +checklocks:r.mu
func (r *Registry) detachLocked(obj *Object) {
	obj.node.Remove()
	r.index[obj.class].Delete(obj)
	obj.registry = nil
	r.logger.Debugf("objreg: detached %v", obj)
}

// Find returns the object of class named name.
func (r *Registry) Find(class Class, name string) (*Object, error) {
	if class >= NumClasses {
		return nil, errors.Wrapf(ErrInvalidClass, "finding %q", name)
	}
	name = truncate(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.index[class].Get(&Object{name: name})
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%v %q", class, name)
	}
	return obj, nil
}

// Len returns the number of objects of class.
func (r *Registry) Len(class Class) int {
	if class >= NumClasses {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lists[class].Len()
}

// Objects returns the objects of class in registration order.
func (r *Registry) Objects(class Class) []*Object {
	var objs []*Object
	r.ForEach(class, func(o *Object) bool {
		objs = append(objs, o)
		return true
	})
	return objs
}

// ForEach calls fn for every object of class in registration order until fn
// returns false. fn runs with the registry locked and must not call back into
// the registry.
func (r *Registry) ForEach(class Class, fn func(*Object) bool) {
	if class >= NumClasses {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for o := range r.lists[class].Entries() {
		if !fn(o) {
			return
		}
	}
}

// DetachIf detaches every object of class for which pred returns true and
// returns how many were detached. pred runs with the registry locked.
func (r *Registry) DetachIf(class Class, pred func(*Object) bool) int {
	if class >= NumClasses {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for o := range r.lists[class].EntriesSafe() {
		if pred(o) {
			r.detachLocked(o)
			n++
		}
	}
	return n
}

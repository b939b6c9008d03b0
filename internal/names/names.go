// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package names implements the case-insensitive name -> identifier
// directory of spec §4.4, guarded by a tiny spinlock since every
// critical section is a single map read or write.
package names

import (
	"strings"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spinlock is a minimal mutual-exclusion lock for critical sections
// too small to justify a sync.Mutex's kernel-futex fallback path,
// matching the busy-wait idiom code.hybscloud.com/lfq uses for ring
// contention (spin.Wait).
type spinlock struct {
	locked atomix.Bool
}

func (l *spinlock) Lock() {
	sw := spin.Wait{}
	for !l.locked.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}

func (l *spinlock) Unlock() {
	l.locked.StoreRelease(false)
}

// Directory maps case-insensitive names to module identifiers.
type Directory struct {
	mu   spinlock
	byID map[string]uint32
}

// New creates an empty directory sized for at least capacity entries.
func New(capacity int) *Directory {
	return &Directory{byID: make(map[string]uint32, capacity)}
}

func normalize(name string) string {
	return strings.ToLower(name)
}

// Register binds name to id. Registering an already-bound name is a
// programming error and panics.
func (d *Directory) Register(name string, id uint32) {
	if !d.TryRegister(name, id) {
		panic("names: name already registered: " + name)
	}
}

// TryRegister binds name to id and reports whether the binding took:
// false if name was already bound to some identifier. Unlike Register,
// this never panics — it backs attach-name's bool "already bound" fail
// path (spec §4.3: a recoverable condition, not a programming error).
func (d *Directory) TryRegister(name string, id uint32) bool {
	key := normalize(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byID[key]; exists {
		return false
	}
	d.byID[key] = id
	return true
}

// Unregister removes name's binding, if any.
func (d *Directory) Unregister(name string) {
	key := normalize(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byID, key)
}

// Lookup returns the identifier bound to name, or (0, false) if
// unbound. A failed lookup is the send-by-name fast-fail path: it
// never blocks and never mutates state.
func (d *Directory) Lookup(name string) (uint32, bool) {
	key := normalize(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byID[key]
	return id, ok
}

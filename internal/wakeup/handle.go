// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wakeup provides the wakeup handle and readiness multiplexer
// of spec §4.2: a kernel-counting-event-like primitive (here backed by
// an atomix counter plus a doorbell channel) and two interchangeable
// multiplexer policies, a level-triggered poll-set and an edge-capable
// reactor, matching the spec's compile-time selector policy.
package wakeup

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// pad isolates adjacent fields onto separate cache lines.
type pad [64]byte

// Notifier is told that a bound Handle's count just went from zero to
// nonzero (or was incremented further), so it can wake a blocked
// Multiplexer.Wait. Both multiplexer policies implement it.
type Notifier interface {
	notify(key uint32)
}

// Handle is the wakeup handle of spec §4.2: increment-by-n on the
// signaling side, block-until-positive-then-read-count on the waiting
// side. One Handle exists per ring (signaled on every enqueue) and one
// per module (the control-plane handle, signaled on multiplexer-set
// changes).
type Handle struct {
	_        pad
	count    atomix.Int64
	_        pad
	notifier atomic.Pointer[boundNotifier]
}

type boundNotifier struct {
	n   Notifier
	key uint32
}

// NewHandle creates an unbound wakeup handle.
func NewHandle() *Handle { return &Handle{} }

// Bind attaches the handle to a multiplexer under the given key, so
// future Signal calls wake that multiplexer's Wait. Bind must
// happen-before any concurrent Signal (the registry's writer lock
// guarantees this: a ring's handle is bound before its matrix entry is
// published to producers).
func (h *Handle) Bind(n Notifier, key uint32) {
	h.notifier.Store(&boundNotifier{n: n, key: key})
}

// Unbind detaches the handle from its multiplexer.
func (h *Handle) Unbind() {
	h.notifier.Store(nil)
}

// Signal increments the handle's count by n and wakes its bound
// multiplexer, if any. Never blocks.
func (h *Handle) Signal(n int64) {
	h.count.AddAcqRel(n)
	if b := h.notifier.Load(); b != nil {
		b.n.notify(b.key)
	}
}

// Pending reports the handle's current count without consuming it.
// Used by the poll-set multiplexer's scan, which is level-triggered:
// a nonzero count is reported again on every Wait until consumed.
func (h *Handle) Pending() int64 {
	return h.count.LoadAcquire()
}

// Take atomically reads and zeroes the handle's count.
func (h *Handle) Take() int64 {
	for {
		v := h.count.LoadAcquire()
		if v == 0 {
			return 0
		}
		if h.count.CompareAndSwapAcqRel(v, 0) {
			return v
		}
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

// Handler receives one drained message. payload is only valid for the
// duration of the call: the caller owns the backing buffer and may
// reuse it for the next message on the same ring.
type Handler func(src, dst uint32, typ, code, subcode uint64, payload []byte)

// Provenance records where a module was registered, for diagnostics.
type Provenance struct {
	File     string
	Function string
	Line     int
}

// Policy selects the readiness multiplexer algorithm a Bus uses for
// every module's consumer-side wait.
type Policy int

const (
	// PollSetPolicy scans every registered ring handle on each wake:
	// O(N) per wake, no notification queue to overflow.
	PollSetPolicy Policy = iota
	// ReactorPolicy pushes ready ring keys onto a lock-free MPSC queue:
	// O(1) per wake on average, degrading to a full scan only when the
	// queue momentarily overflows.
	ReactorPolicy
)

// RingStat is one edge's instantaneous counters, as returned by
// StatSnapshot.
type RingStat struct {
	Src, Dst uint32
	Enqueued uint64
	Dequeued uint64
}

// moduleStatus is a module slot's lifecycle state.
type moduleStatus uint32

const (
	statusInvalid moduleStatus = iota
	statusRegistered
	statusModifying
)

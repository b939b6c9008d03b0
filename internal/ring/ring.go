// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring implements the per-edge SPSC message ring: one producer
// module, one consumer module, fixed-size slots carrying a small
// header plus an inline payload.
//
// The layout and memory ordering follow code.hybscloud.com/lfq's SPSC
// Lamport ring buffer: the producer caches the consumer's head index
// and vice versa, and the one-slot-empty discipline lets each side
// read only the counter it owns on the fast path.
package ring

import (
	"encoding/binary"
	"io"

	"code.hybscloud.com/atomix"
)

const (
	// HeaderSize is the fixed wire-header width: size, type, code, subcode.
	HeaderSize = 32

	offSize    = 0
	offType    = 8
	offCode    = 16
	offSubcode = 24
	offPayload = HeaderSize
)

// pad isolates adjacent fields onto separate cache lines.
type pad [64]byte

// Ring is the SPSC ring for one directed edge (Src -> Dst).
//
// Enqueue is called by the producer goroutine only; Dequeue by the
// consumer goroutine only. Capacity is rounded up to a power of two;
// one slot is always left empty so head == tail means empty and
// (tail+1)&mask == head means full.
type Ring struct {
	_          pad
	head       atomix.Uint64 // consumer-owned
	_          pad
	cachedTail uint64 // consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // producer-owned
	_          pad
	cachedHead uint64 // producer's cached view of head
	_          pad
	enqueued   atomix.Uint64
	dequeued   atomix.Uint64
	_          pad

	buf      []byte
	slotSize uint64
	mask     uint64
	capacity uint64
	msgSize  int

	src, dst uint32
}

// New creates a ring for the edge (src, dst). capacity rounds up to
// the next power of two (minimum 2); msgSize bounds the payload a
// single message may carry.
func New(src, dst uint32, capacity, msgSize int) *Ring {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	if msgSize < 0 {
		panic("ring: msgSize must be >= 0")
	}
	n := uint64(roundToPow2(capacity))
	slotSize := uint64(HeaderSize + msgSize)
	return &Ring{
		buf:      make([]byte, n*slotSize),
		slotSize: slotSize,
		mask:     n - 1,
		capacity: n,
		msgSize:  msgSize,
		src:      src,
		dst:      dst,
	}
}

// Src returns the producing module's identifier.
func (r *Ring) Src() uint32 { return r.src }

// Dst returns the consuming module's identifier.
func (r *Ring) Dst() uint32 { return r.dst }

// Cap returns the ring's effective capacity: its power-of-two slot
// count. One slot is always left empty, so at most Cap()-1 messages are
// queued at once.
func (r *Ring) Cap() int { return int(r.capacity) }

// MsgSize returns the maximum payload size a slot carries.
func (r *Ring) MsgSize() int { return r.msgSize }

func (r *Ring) slot(i uint64) []byte {
	off := i * r.slotSize
	return r.buf[off : off+r.slotSize]
}

// Enqueue writes one message into the ring (producer side only).
// Returns full=true, writing nothing, when the ring has no free slot;
// the ring reports "full" as a bare bool so this package stays free of
// the bus-level error policy. A payload larger than MsgSize is a
// precondition violation and panics.
func (r *Ring) Enqueue(typ, code, subcode uint64, payload []byte) (full bool) {
	if len(payload) > r.msgSize {
		panic("ring: payload exceeds message slot size")
	}

	tail := r.tail.LoadRelaxed()
	if tail-r.cachedHead >= r.mask {
		r.cachedHead = r.head.LoadAcquire()
		if tail-r.cachedHead >= r.mask {
			return true
		}
	}

	s := r.slot(tail & r.mask)
	binary.LittleEndian.PutUint64(s[offSize:], uint64(len(payload)))
	binary.LittleEndian.PutUint64(s[offType:], typ)
	binary.LittleEndian.PutUint64(s[offCode:], code)
	binary.LittleEndian.PutUint64(s[offSubcode:], subcode)
	copy(s[offPayload:], payload)

	r.tail.StoreRelease(tail + 1)
	r.enqueued.AddAcqRel(1)
	return false
}

// Dequeue reads one message out of the ring into buf (consumer side
// only). Returns empty=true if the ring had nothing to drain.
// Returns err = io.ErrShortBuffer if buf is smaller than the stored
// payload; the slot is left intact (not consumed) in that case so the
// caller can retry with a larger buffer.
func (r *Ring) Dequeue(buf []byte) (typ, code, subcode uint64, n int, empty bool, err error) {
	head := r.head.LoadRelaxed()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.LoadAcquire()
		if head >= r.cachedTail {
			return 0, 0, 0, 0, true, nil
		}
	}

	s := r.slot(head & r.mask)
	size := binary.LittleEndian.Uint64(s[offSize:])
	if uint64(len(buf)) < size {
		return 0, 0, 0, 0, false, io.ErrShortBuffer
	}
	typ = binary.LittleEndian.Uint64(s[offType:])
	code = binary.LittleEndian.Uint64(s[offCode:])
	subcode = binary.LittleEndian.Uint64(s[offSubcode:])
	n = copy(buf, s[offPayload:offPayload+size])

	r.head.StoreRelease(head + 1)
	r.dequeued.AddAcqRel(1)
	return typ, code, subcode, n, false, nil
}

// Counts returns the ring's monotonic enqueue and dequeue counters,
// read with relaxed ordering (see spec §4.7: not a globally
// consistent cut).
func (r *Ring) Counts() (enqueued, dequeued uint64) {
	return r.enqueued.LoadRelaxed(), r.dequeued.LoadRelaxed()
}

func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wakeup

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// notifyQueue is a bounded FAA-based multi-producer single-consumer
// queue of ring keys, adapted from code.hybscloud.com/lfq's MPSC
// (SCQ-style) algorithm: producers blindly claim a slot via
// fetch-and-add, the single consumer (the module's recv loop) drains
// in FIFO order. It backs the Reactor multiplexer policy so multiple
// producer goroutines signaling distinct rings never contend on a
// shared lock to report readiness.
type notifyQueue struct {
	_        pad
	head     atomix.Uint64
	_        pad
	tail     atomix.Uint64
	_        pad
	buffer   []notifyQueueSlot
	capacity uint64
	size     uint64
	mask     uint64
}

type notifyQueueSlot struct {
	cycle atomix.Uint64
	data  uint32
	_     [64 - 8 - 4]byte
}

func newNotifyQueue(capacity int) *notifyQueue {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &notifyQueue{
		buffer:   make([]notifyQueueSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

// push enqueues key, spinning briefly on contention. Returns false if
// the queue is observed full (caller falls back to a full scan).
func (q *notifyQueue) push(key uint32) bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return false
		}

		myTail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = key
			slot.cycle.StoreRelease(expectedCycle + 1)
			return true
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return false
		}
		sw.Once()
	}
}

// pop dequeues one key (single consumer only). ok is false if empty.
func (q *notifyQueue) pop() (key uint32, ok bool) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle+1 {
		return 0, false
	}

	key = slot.data
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)
	return key, true
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

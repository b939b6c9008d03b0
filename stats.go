// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

import (
	"fmt"
	"io"
)

// StatSnapshot walks the ring matrix once and returns one RingStat per
// existing edge matching filter (a nil filter matches every edge).
// Counters are read with relaxed ordering: this is not a globally
// consistent cut (spec §4.7).
func (b *Bus) StatSnapshot(filter func(src, dst uint32) bool) []RingStat {
	var out []RingStat
	for dst := uint32(1); dst <= b.maxID; dst++ {
		slot := &b.slots[dst]
		if !slot.registered.LoadAcquire() {
			continue
		}
		for src := uint32(0); src <= b.maxID; src++ {
			e := slot.ringRow[src].Load()
			if e == nil {
				continue
			}
			if filter != nil && !filter(src, dst) {
				continue
			}
			enq, deq := e.r.Counts()
			out = append(out, RingStat{Src: src, Dst: dst, Enqueued: enq, Dequeued: deq})
		}
	}
	return out
}

// MsgCount aggregates id's inbound rings' counters: enqueueSum and
// dequeueSum are the totals across the rings currently in id's row
// (a deleted peer's ring no longer counts), and current is their
// difference (id's instantaneous total queue depth). ok is false if id
// is out of range or not registered.
func (b *Bus) MsgCount(id uint32) (enqueueSum, dequeueSum, current uint64, ok bool) {
	if id == 0 || id > b.maxID {
		return 0, 0, 0, false
	}
	slot := &b.slots[id]
	if !slot.registered.LoadAcquire() {
		return 0, 0, 0, false
	}
	for src := uint32(0); src <= b.maxID; src++ {
		e := slot.ringRow[src].Load()
		if e == nil {
			continue
		}
		enq, deq := e.r.Counts()
		enqueueSum += enq
		dequeueSum += deq
	}
	return enqueueSum, dequeueSum, enqueueSum - dequeueSum, true
}

// Dump writes a human-readable listing of every ring touching id to w,
// or every ring in the bus if id is 0. Returns ErrUnknownModule if id
// is out of range or not currently registered.
func (b *Bus) Dump(w io.Writer, id uint32) error {
	filter := func(uint32, uint32) bool { return true }
	if id != 0 {
		if id > b.maxID || !b.slots[id].registered.LoadAcquire() {
			return ErrUnknownModule
		}
		filter = func(src, dst uint32) bool { return src == id || dst == id }
	}
	for _, st := range b.StatSnapshot(filter) {
		if _, err := fmt.Fprintf(w, "%d -> %d: enqueued=%d dequeued=%d depth=%d\n",
			st.Src, st.Dst, st.Enqueued, st.Dequeued, st.Enqueued-st.Dequeued); err != nil {
			return err
		}
	}
	return nil
}

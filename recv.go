// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

import (
	"context"

	"code.hybscloud.com/iox"
)

// Recv runs id's consumer loop: block on the readiness multiplexer,
// then drain every ring it reports ready, invoking handler once per
// message. Returns when id is deleted (its multiplexer closes).
//
// The only suspension point on the hot path is the multiplexer wait;
// draining a signaled ring never blocks on the kernel, only spins
// briefly with backoff for the rare case where Dequeue transiently
// races ahead of a concurrent Enqueue's visible store.
func (b *Bus) Recv(id uint32, handler Handler) bool {
	if id == 0 || id > b.maxID {
		return false
	}
	slot := &b.slots[id]
	if !slot.live() {
		return false
	}

	buf := make([]byte, slot.msgSize)
	ctx := context.Background()
	for {
		ready, err := slot.mux.Wait(ctx)
		if err != nil {
			return true
		}
		for _, key := range ready {
			if key == controlKey {
				// A delete racing this exact wake may have already
				// cleared the control handle; skip rather than fault,
				// same as the ring skip rule below.
				if c := slot.control.Load(); c != nil {
					c.Take()
				}
				continue
			}
			b.drainEdge(slot, key, buf, handler)
		}
	}
}

// RecvByName resolves name through the name directory before running
// the consumer loop. Returns false if name is unbound.
func (b *Bus) RecvByName(name string, handler Handler) bool {
	id, ok := b.names.Lookup(name)
	if !ok {
		return false
	}
	return b.Recv(id, handler)
}

func (b *Bus) drainEdge(slot *moduleSlot, peer uint32, buf []byte, handler Handler) {
	e := slot.ringRow[peer].Load()
	if e == nil {
		// Deleted between the multiplexer reporting it ready and this
		// drain: spec §4.6's skip rule.
		return
	}
	pending := e.h.Take()
	backoff := iox.Backoff{}
	for i := int64(0); i < pending; i++ {
		typ, code, subcode, n, empty, err := e.r.Dequeue(buf)
		if empty {
			backoff.Wait()
			i--
			continue
		}
		if err != nil {
			continue
		}
		backoff.Reset()

		src, dst := e.r.Src(), e.r.Dst()
		if src > b.maxID || dst > b.maxID {
			break
		}
		handler(src, dst, typ, code, subcode, buf[:n])
	}
}

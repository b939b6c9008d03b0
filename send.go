// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

import "code.hybscloud.com/iox"

// Send enqueues one message on the (from -> to) ring, creating the
// edge lazily if neither side declared it at create/add-set time
// (including the from == to self-send case). Blocks, spinning with
// exponential backoff, until the ring has room. Always returns true:
// there is no by-name lookup to fail on this path.
func (b *Bus) Send(from, to uint32, typ, code, subcode uint64, payload []byte) bool {
	e := b.resolveEdge(from, to)
	backoff := iox.Backoff{}
	for e.r.Enqueue(typ, code, subcode, payload) {
		backoff.Wait()
	}
	e.h.Signal(1)
	return true
}

// TrySend is Send's non-blocking form: returns false immediately if
// the ring is full instead of spinning.
func (b *Bus) TrySend(from, to uint32, typ, code, subcode uint64, payload []byte) bool {
	e := b.resolveEdge(from, to)
	if e.r.Enqueue(typ, code, subcode, payload) {
		return false
	}
	e.h.Signal(1)
	return true
}

// SendByName resolves fromName and toName through the name directory
// before sending. Returns false without mutating any ring if either
// name is unbound.
func (b *Bus) SendByName(fromName, toName string, typ, code, subcode uint64, payload []byte) bool {
	from, ok := b.names.Lookup(fromName)
	if !ok {
		return false
	}
	to, ok := b.names.Lookup(toName)
	if !ok {
		return false
	}
	return b.Send(from, to, typ, code, subcode, payload)
}

// TrySendByName is SendByName's non-blocking form.
func (b *Bus) TrySendByName(fromName, toName string, typ, code, subcode uint64, payload []byte) bool {
	from, ok := b.names.Lookup(fromName)
	if !ok {
		return false
	}
	to, ok := b.names.Lookup(toName)
	if !ok {
		return false
	}
	return b.TrySend(from, to, typ, code, subcode, payload)
}

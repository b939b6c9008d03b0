// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wakeup

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
)

// DefaultReactorQueueCapacity bounds the reactor's notification queue
// when the caller doesn't size it explicitly. It need not match the
// number of bound rings exactly: a momentary overflow only costs a
// full poll-set-style scan rather than correctness.
const DefaultReactorQueueCapacity = 1024

// Reactor is the edge-capable, O(1)-per-wake readiness multiplexer of
// spec §4.2. Instead of scanning every registered handle on each wake
// (PollSet's policy), each Signal pushes its key onto a lock-free MPSC
// queue (notifyQueue) that Wait drains directly.
//
// Wait never consumes a handle's own count — it only reports the key;
// the recv loop reads and drains the handle itself. Outside an overflow
// scan, a key is reported once per Signal of its handle: a handle left
// undrained is not reported again until it is signaled again, even if
// another handle wakes Wait. If the notification queue is ever
// observed full, Reactor falls back to a full scan for that Wait call
// only, so overflow degrades throughput, not correctness.
type Reactor struct {
	mu         sync.RWMutex
	bell       *doorbell
	handles    map[uint32]*Handle
	q          *notifyQueue
	overflowed atomix.Bool
}

// NewReactor creates a reactor multiplexer with room for capacity
// distinct ring keys in flight between Wait calls.
func NewReactor(capacity int) *Reactor {
	if capacity < 2 {
		capacity = DefaultReactorQueueCapacity
	}
	return &Reactor{
		bell:    newDoorbell(),
		handles: make(map[uint32]*Handle),
		q:       newNotifyQueue(capacity),
	}
}

// Add registers h under key and binds it to this reactor.
func (r *Reactor) Add(key uint32, h *Handle) {
	r.mu.Lock()
	r.handles[key] = h
	r.mu.Unlock()
	h.Bind(r, key)
}

// Remove unregisters the handle at key, if present.
func (r *Reactor) Remove(key uint32) {
	r.mu.Lock()
	h := r.handles[key]
	delete(r.handles, key)
	r.mu.Unlock()
	if h != nil {
		h.Unbind()
	}
}

// Wait blocks until notified or ctx is done, then returns the ready
// keys: normally whatever notifyQueue holds, or every handle with a
// positive count if the queue overflowed since the last Wait.
func (r *Reactor) Wait(ctx context.Context) ([]uint32, error) {
	if err := r.bell.Wait(ctx); err != nil {
		return nil, err
	}

	if r.overflowed.LoadAcquire() {
		r.overflowed.StoreRelease(false)
		return r.scan(), nil
	}

	seen := make(map[uint32]struct{})
	var ready []uint32
	for {
		key, ok := r.q.pop()
		if !ok {
			break
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ready = append(ready, key)
	}
	return ready, nil
}

func (r *Reactor) scan() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ready := make([]uint32, 0, len(r.handles))
	for key, h := range r.handles {
		if h.Pending() > 0 {
			ready = append(ready, key)
		}
	}
	return ready
}

// Close wakes any blocked Wait with ErrClosed, permanently.
func (r *Reactor) Close() {
	r.bell.Close()
}

func (r *Reactor) notify(key uint32) {
	if !r.q.push(key) {
		r.overflowed.StoreRelease(true)
	}
	r.bell.Ring()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wakeup

import (
	"context"
	"sync"
)

// PollSet is the level-triggered, O(N)-per-wake readiness multiplexer
// of spec §4.2: Wait blocks on a single doorbell, then scans every
// registered handle for a nonzero count.
type PollSet struct {
	mu       sync.RWMutex
	bell     *doorbell
	handles  map[uint32]*Handle
	readyBuf []uint32
}

// NewPollSet creates an empty poll-set multiplexer.
func NewPollSet() *PollSet {
	return &PollSet{
		bell:    newDoorbell(),
		handles: make(map[uint32]*Handle),
	}
}

// Add registers h under key so it is included in future scans, and
// binds h to this multiplexer's doorbell.
func (p *PollSet) Add(key uint32, h *Handle) {
	p.mu.Lock()
	p.handles[key] = h
	p.mu.Unlock()
	h.Bind(p, key)
}

// Remove unregisters the handle at key, if present.
func (p *PollSet) Remove(key uint32) {
	p.mu.Lock()
	h := p.handles[key]
	delete(p.handles, key)
	p.mu.Unlock()
	if h != nil {
		h.Unbind()
	}
}

// Wait blocks until the doorbell rings (some registered handle
// signaled) or ctx is done, then returns the keys of every handle
// currently holding a positive count. Returns ErrClosed after Close.
func (p *PollSet) Wait(ctx context.Context) ([]uint32, error) {
	if err := p.bell.Wait(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	ready := p.readyBuf[:0]
	for key, h := range p.handles {
		if h.Pending() > 0 {
			ready = append(ready, key)
		}
	}
	p.mu.RUnlock()
	p.readyBuf = ready

	out := make([]uint32, len(ready))
	copy(out, ready)
	return out, nil
}

// Close wakes any blocked Wait with ErrClosed, permanently.
func (p *PollSet) Close() {
	p.bell.Close()
}

func (p *PollSet) notify(uint32) {
	p.bell.Ring()
}

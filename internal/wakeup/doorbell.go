// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wakeup

import (
	"context"
	"errors"
	"sync"

	"code.hybscloud.com/atomix"
)

// ErrClosed is returned by Wait once the multiplexer has been closed
// (spec §4.3 delete-module: the consumer's blocking wait returns a
// "canceled" indication and the recv loop exits).
var ErrClosed = errors.New("wakeup: multiplexer closed")

// doorbell is a single-slot, many-ringer wakeup channel: Ring is a
// non-blocking best-effort wakeup, Wait blocks until rung or closed.
type doorbell struct {
	ch        chan struct{}
	closed    atomix.Bool
	closeOnce sync.Once
	closeCh   chan struct{}
}

func newDoorbell() *doorbell {
	return &doorbell{
		ch:      make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

func (d *doorbell) Ring() {
	if d.closed.LoadAcquire() {
		return
	}
	select {
	case d.ch <- struct{}{}:
	default:
	}
}

func (d *doorbell) Wait(ctx context.Context) error {
	select {
	case <-d.ch:
		return nil
	case <-d.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *doorbell) Close() {
	d.closeOnce.Do(func() {
		d.closed.StoreRelease(true)
		close(d.closeCh)
	})
}

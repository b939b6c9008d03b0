// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"code.hybscloud.com/fabric"
)

func TestCreateWiresEagerEdges(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 8})
	b.Create(1, nil, []uint32{2}, 16, 8)
	b.Create(2, []uint32{1}, nil, 16, 8)

	if !b.Send(1, 2, 0, 0, 0, []byte("hi")) {
		t.Fatal("Send(1,2): want true")
	}

	var got string
	done := make(chan struct{})
	go func() {
		b.Recv(2, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
			got = string(payload)
			close(done)
		})
	}()
	<-done
	if got != "hi" {
		t.Fatalf("handler payload = %q, want %q", got, "hi")
	}
	b.Delete(2)
}

func TestSelfSendLazyEdge(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, nil, 16, 8)

	if !b.Send(1, 1, 1, 2, 3, []byte("loop")) {
		t.Fatal("self Send: want true")
	}

	done := make(chan struct{})
	go b.Recv(1, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
		if src != 1 || dst != 1 {
			t.Errorf("self-send: src=%d dst=%d, want 1,1", src, dst)
		}
		close(done)
	})
	<-done
	b.Delete(1)
}

func TestTrySendBackpressureExact(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, []uint32{2}, 5, 4) // rounds to 8, one slot always empty -> 7 successes
	b.Create(2, []uint32{1}, nil, 5, 4)

	n := 0
	for b.TrySend(1, 2, 0, 0, 0, []byte("x")) {
		n++
	}
	if n != 7 {
		t.Fatalf("successful try-sends before full = %d, want 7", n)
	}
	b.Delete(1)
	b.Delete(2)
}

func TestSendByNameUnknownRecipientFails(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, nil, 16, 8)
	b.AttachName(1, "sensor")

	if b.SendByName("sensor", "ghost", 0, 0, 0, nil) {
		t.Fatal("SendByName to unknown recipient: want false")
	}
	if _, _, _, ok := b.MsgCount(1); !ok {
		t.Fatal("MsgCount(1): want ok")
	}
}

func TestDynamicTopologyDeleteRecreate(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 8})
	b.Create(1, []uint32{2, 3, 4}, nil, 64, 8)
	for _, id := range []uint32{2, 3, 4} {
		b.Create(id, nil, []uint32{1}, 64, 8)
	}

	var mu sync.Mutex
	seenOutOfRange := false
	recvDone := make(chan struct{})
	go func() {
		b.Recv(1, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
			if src == 0 || src > 8 || dst != 1 {
				mu.Lock()
				seenOutOfRange = true
				mu.Unlock()
			}
		})
		close(recvDone)
	}()

	var wg sync.WaitGroup
	for _, id := range []uint32{2, 3, 4} {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b.TrySend(id, 1, 0, 0, 0, []byte("x"))
			}
		}(id)
	}
	wg.Wait()

	b.Delete(2)
	b.Delete(3)
	b.Delete(4)
	b.Create(2, nil, []uint32{1}, 64, 8)
	b.Create(3, nil, []uint32{1}, 64, 8)
	b.Create(4, nil, []uint32{1}, 64, 8)

	if enq, deq, _, ok := b.MsgCount(2); !ok || enq != 0 || deq != 0 {
		t.Fatalf("recreated module 2 counters = enq:%d deq:%d, want 0,0", enq, deq)
	}

	b.Delete(1)
	<-recvDone

	mu.Lock()
	defer mu.Unlock()
	if seenOutOfRange {
		t.Fatal("handler observed an out-of-range src/dst")
	}
}

func TestCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, []uint32{2}, 5, 4)
	b.Create(2, []uint32{1}, nil, 5, 4)

	n := 0
	for b.TrySend(1, 2, 0, 0, 0, []byte("x")) {
		n++
	}
	if n != 7 {
		t.Fatalf("capacity=5 successes before full = %d, want 7 (rounds to 8)", n)
	}
}

func TestDeleteUnknownIsIdempotent(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	if !b.Delete(3) {
		t.Fatal("Delete of never-created id: want true")
	}
}

func TestAttachNameFailsOnDuplicate(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, nil, 16, 8)
	b.Create(2, nil, nil, 16, 8)

	if !b.AttachName(1, "dup") {
		t.Fatal("first AttachName: want true")
	}
	if b.AttachName(2, "dup") {
		t.Fatal("second AttachName with same name: want false")
	}
	if b.AttachName(1, "other") {
		t.Fatal("AttachName on already-named module: want false")
	}
}

func TestAddSetCreatesNewEdges(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, nil, 16, 8)
	b.Create(2, nil, nil, 16, 8)

	if !b.AddSet(1, nil, []uint32{2}) {
		t.Fatal("AddSet: want true")
	}
	if !b.TrySend(1, 2, 0, 0, 0, []byte("x")) {
		t.Fatal("Send over add-set edge: want true")
	}
}

func TestStatSnapshotFilter(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, []uint32{2}, 16, 8)
	b.Create(2, []uint32{1}, nil, 16, 8)
	b.Send(1, 2, 0, 0, 0, []byte("x"))

	stats := b.StatSnapshot(func(src, dst uint32) bool { return dst == 2 })
	if len(stats) != 1 || stats[0].Enqueued != 1 {
		t.Fatalf("StatSnapshot filtered = %+v, want one entry with Enqueued=1", stats)
	}
}

func TestDumpUnknownModuleFails(t *testing.T) {
	b := fabric.NewBus(fabric.BusOptions{MaxID: 4})
	b.Create(1, nil, nil, 16, 8)

	var buf bytes.Buffer
	if err := b.Dump(&buf, 3); !errors.Is(err, fabric.ErrUnknownModule) {
		t.Fatalf("Dump(3): got %v, want ErrUnknownModule", err)
	}
	if err := b.Dump(&buf, 1); err != nil {
		t.Fatalf("Dump(1): got %v, want nil", err)
	}
	if err := b.Dump(&buf, 0); err != nil {
		t.Fatalf("Dump(0): got %v, want nil", err)
	}
}

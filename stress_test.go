// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric_test

import (
	"encoding/binary"
	"sync"
	"testing"

	"code.hybscloud.com/fabric"
)

// TestFanInFIFOPerEdge is scenario 1 of the bus's testable properties:
// two producers each send a run of monotonically increasing counters to
// one consumer; every handler invocation is accounted for and each
// producer's own sequence arrives strictly increasing, even though the
// two edges interleave with no ordering guarantee between them.
//
// Scaled down from the spec's 1,048,576-per-producer scenario to keep
// the suite fast; the invariant exercised is identical at any volume.
func TestFanInFIFOPerEdge(t *testing.T) {
	if fabric.RaceEnabled {
		t.Skip("skip: fan-in stress test is too slow under the race detector")
	}

	const itemsPerProducer = 50_000
	b := fabric.NewBus(fabric.BusOptions{MaxID: 8})
	b.Create(1, []uint32{2, 3}, nil, 1024, 8)
	b.Create(2, nil, []uint32{1}, 1024, 8)
	b.Create(3, nil, []uint32{1}, 1024, 8)

	var wg sync.WaitGroup
	for _, src := range []uint32{2, 3} {
		wg.Add(1)
		go func(src uint32) {
			defer wg.Done()
			var payload [8]byte
			for i := range itemsPerProducer {
				binary.LittleEndian.PutUint64(payload[:], uint64(i))
				b.Send(src, 1, 0, 0, 0, payload[:])
			}
		}(src)
	}

	last := map[uint32]int64{2: -1, 3: -1}
	total := 0
	done := make(chan struct{})
	go func() {
		b.Recv(1, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
			v := int64(binary.LittleEndian.Uint64(payload))
			if v <= last[src] {
				t.Errorf("src %d: sequence not strictly increasing: %d after %d", src, v, last[src])
			}
			last[src] = v
			total++
			if total == 2*itemsPerProducer {
				close(done)
			}
		})
	}()

	wg.Wait()
	<-done
	defer b.Delete(1)

	if total != 2*itemsPerProducer {
		t.Fatalf("handler invocations = %d, want %d", total, 2*itemsPerProducer)
	}
	enq, deq, current, ok := b.MsgCount(1)
	if !ok {
		t.Fatal("MsgCount(1): want ok")
	}
	if enq != deq || current != 0 {
		t.Fatalf("MsgCount(1) after full drain: enq=%d deq=%d current=%d, want equal and zero", enq, deq, current)
	}
}

// TestReactorPolicyFanIn exercises the same fan-in shape under the
// edge-capable reactor multiplexer policy instead of the default
// poll-set, since the two are meant to be behaviorally interchangeable.
func TestReactorPolicyFanIn(t *testing.T) {
	if fabric.RaceEnabled {
		t.Skip("skip: fan-in stress test is too slow under the race detector")
	}

	const itemsPerProducer = 20_000
	b := fabric.NewBusBuilder().WithMaxID(8).WithReactor(64).Build()
	b.Create(1, []uint32{2, 3}, nil, 256, 8)
	b.Create(2, nil, []uint32{1}, 256, 8)
	b.Create(3, nil, []uint32{1}, 256, 8)

	var wg sync.WaitGroup
	for _, src := range []uint32{2, 3} {
		wg.Add(1)
		go func(src uint32) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				b.Send(src, 1, uint64(i), 0, 0, nil)
			}
		}(src)
	}

	total := 0
	done := make(chan struct{})
	go func() {
		b.Recv(1, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
			total++
			if total == 2*itemsPerProducer {
				close(done)
			}
		})
	}()

	wg.Wait()
	<-done
	b.Delete(1)

	if total != 2*itemsPerProducer {
		t.Fatalf("handler invocations = %d, want %d", total, 2*itemsPerProducer)
	}
}

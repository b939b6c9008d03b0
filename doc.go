// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fabric implements a low-latency intra-process message bus: a
// fabric of single-producer/single-consumer lock-free ring buffers
// wired pairwise between named modules, with a readiness-notification
// channel that lets consumers block efficiently when idle and drain in
// tight loops when traffic is present.
//
// A Bus holds a dense identifier space [0..M]. Module 0 is reserved as
// a temporary source for unregistered producers. Every other
// identifier is either INVALID (no resources allocated) or REGISTERED
// (ring table, rx/tx masks, control-plane wakeup handle, readiness
// multiplexer all live).
//
//	b := fabric.NewBus(fabric.BusOptions{})
//	b.Create(1, nil, []uint32{2}, 1024, 64)
//	b.Create(2, []uint32{1}, nil, 1024, 64)
//	b.Send(1, 2, 0, 0, 0, payload)
//	b.Recv(2, func(src, dst uint32, typ, code, subcode uint64, payload []byte) {
//		// handle message
//	})
//
// Rings between two already-registered modules are created eagerly at
// create/add-set time; an edge involving a module that didn't ask for
// it yet (including self-sends) is created lazily on first Send, the
// same way code.hybscloud.com/lfq's queues are allocated on first use
// by the application code shown in its own doc.go.
package fabric

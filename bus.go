// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/fabric/internal/mask"
	"code.hybscloud.com/fabric/internal/names"
	"code.hybscloud.com/fabric/internal/ring"
	"code.hybscloud.com/fabric/internal/wakeup"
	"code.hybscloud.com/spin"
)

// multiplexer is the shape both wakeup.PollSet and wakeup.Reactor
// satisfy. It is unexported: callers select a policy through
// BusOptions.Policy, not by constructing a multiplexer themselves.
type multiplexer interface {
	Add(key uint32, h *wakeup.Handle)
	Remove(key uint32)
	Wait(ctx context.Context) ([]uint32, error)
	Close()
}

// controlKey is the reserved multiplexer key for a module's own
// control-plane handle, distinct from any real peer identifier.
const controlKey = ^uint32(0)

// edge is one directed ring plus the wakeup handle signaled on every
// enqueue into it. Stored behind an atomic.Pointer so the hot send
// path never takes a lock to read an already-established edge.
type edge struct {
	r *ring.Ring
	h *wakeup.Handle
}

// moduleSlot is one identifier's worth of state (spec §3). A slot is
// either INVALID (registered == false, no control handle, every ring
// row entry nil) or its control handle, multiplexer, masks and ring row
// are all allocated.
type moduleSlot struct {
	id uint32

	registered atomix.Bool
	status     atomix.Uint64 // moduleStatus, meaningful only once registered

	rx *mask.Set
	tx *mask.Set

	// ringRow[peer] is this module's inbound edge (peer -> id) when
	// this slot is a destination, consulted by resolveEdge. Length
	// maxID+1, indexed by peer identifier (0 included: the temporary
	// source).
	ringRow []atomic.Pointer[edge]

	control atomic.Pointer[wakeup.Handle]
	mux     multiplexer

	capacity int
	msgSize  int

	provenance Provenance

	nameMu       sync.Mutex
	name         string
	nameAttached bool
}

// live reports whether the slot looks like a registered module to a
// concurrent reader. Checked instead of the registered flag by every
// operation that uses a slot's control handle, multiplexer or masks
// (the statistics walks in stats.go read only the preallocated ring row
// and test the registered flag; CreateWithProvenance claims the slot
// with a CAS on registered): registered flips
// true before control/mux/rx/tx are populated, while status only
// publishes with release ordering once every field is set, so it is the
// one safe "is this slot fully usable" gate for other goroutines.
func (s *moduleSlot) live() bool {
	return moduleStatus(s.status.LoadAcquire()) != statusInvalid
}

// Bus is a process-wide registry of modules and the rings wired
// between them. The zero value is not valid; construct with NewBus.
type Bus struct {
	maxID   uint32
	slots   []moduleSlot // index [0..maxID]; slot 0 never registers
	names   *names.Directory
	topoMu  sync.RWMutex // serializes create/delete/add-set and lazy edge creation
	policy  Policy
	reactQC int
}

// NewBus creates a Bus with every module slot in [0..M] preallocated
// as INVALID, per spec §3's eager-allocation invariant.
func NewBus(opts BusOptions) *Bus {
	maxID := opts.MaxID
	if maxID == 0 {
		maxID = DefaultMaxID
	}
	b := &Bus{
		maxID:   maxID,
		slots:   make([]moduleSlot, maxID+1),
		names:   names.New(int(maxID)),
		policy:  opts.Policy,
		reactQC: opts.ReactorQueueCapacity,
	}
	for i := range b.slots {
		b.slots[i].id = uint32(i)
		b.slots[i].ringRow = make([]atomic.Pointer[edge], maxID+1)
	}
	return b
}

func (b *Bus) newMultiplexer() multiplexer {
	if b.policy == ReactorPolicy {
		return wakeup.NewReactor(b.reactQC)
	}
	return wakeup.NewPollSet()
}

func caller(skip int) (file string, function string, line int) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", "", 0
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}
	return file, function, line
}

// Create registers id with the given receive/transmit peer lists,
// ring capacity and message size, recording the caller's own
// file/function/line as provenance. Requires id in [1..M]; a second
// registration of the same id is a fatal programming error (spec
// §4.3) and panics, as does an out-of-range id.
func (b *Bus) Create(id uint32, rx, tx []uint32, capacity, msgSize int) {
	file, function, line := caller(1)
	b.CreateWithProvenance(id, rx, tx, capacity, msgSize, file, function, line)
}

// CreateWithProvenance is Create with explicit provenance fields,
// for callers that wrap registration behind their own helper and want
// the original call site recorded instead of the wrapper's.
func (b *Bus) CreateWithProvenance(id uint32, rx, tx []uint32, capacity, msgSize int, file, function string, line int) {
	if id == 0 || id > b.maxID {
		panic("fabric: create: id out of range: " + strconv.FormatUint(uint64(id), 10))
	}
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	if msgSize <= 0 {
		msgSize = DefaultMsgSize
	}

	slot := &b.slots[id]
	if !slot.registered.CompareAndSwapAcqRel(false, true) {
		panic("fabric: create: module already registered: " + strconv.FormatUint(uint64(id), 10))
	}

	slot.capacity = capacity
	slot.msgSize = msgSize
	slot.provenance = Provenance{File: file, Function: function, Line: line}
	control := wakeup.NewHandle()
	slot.control.Store(control)
	slot.mux = b.newMultiplexer()
	slot.mux.Add(controlKey, control)
	slot.rx = mask.New(int(b.maxID))
	slot.tx = mask.New(int(b.maxID))
	for _, peer := range rx {
		if peer != id {
			slot.rx.Add(peer)
		}
	}
	for _, peer := range tx {
		if peer != id {
			slot.tx.Add(peer)
		}
	}

	b.topoMu.Lock()
	for peer := uint32(1); peer <= b.maxID; peer++ {
		if peer == id || !b.slots[peer].live() {
			continue
		}
		ps := &b.slots[peer]
		if slot.rx.Contains(peer) || ps.tx.Contains(id) {
			b.linkEdgeLocked(peer, id)
		}
		if slot.tx.Contains(peer) || ps.rx.Contains(id) {
			b.linkEdgeLocked(id, peer)
			slot.tx.Add(peer)
		}
	}
	if slot.rx.Contains(0) {
		b.linkEdgeLocked(0, id)
	}
	b.topoMu.Unlock()

	slot.status.StoreRelease(uint64(statusRegistered))
}

// linkEdgeLocked creates the ring (src -> dst) if it doesn't already
// exist, wiring its wakeup handle into dst's multiplexer and updating
// both sides' masks. Callers must hold topoMu.
func (b *Bus) linkEdgeLocked(src, dst uint32) {
	dstSlot := &b.slots[dst]
	if dstSlot.ringRow[src].Load() != nil {
		return
	}

	h := wakeup.NewHandle()
	r := ring.New(src, dst, dstSlot.capacity, dstSlot.msgSize)
	dstSlot.mux.Add(src, h)
	dstSlot.ringRow[src].Store(&edge{r: r, h: h})

	if src <= b.maxID && src != 0 && b.slots[src].live() {
		b.slots[src].tx.Add(dst)
	}
	dstSlot.rx.Add(src)

	// dst's multiplexer set just gained a member; nudge its
	// control-plane handle so a consumer already blocked in Wait
	// re-reads its ready set on the next wake (spec §4.3).
	if c := dstSlot.control.Load(); c != nil {
		c.Signal(1)
	}
}

// AttachName binds name to id, publishing the binding with release
// ordering. Fails (returns false) if id is out of range, unregistered,
// already named, or name is already bound to some other identifier —
// all recoverable conditions per spec §4.3, none of them fatal.
func (b *Bus) AttachName(id uint32, name string) bool {
	if id == 0 || id > b.maxID || name == "" {
		return false
	}
	slot := &b.slots[id]
	if !slot.live() {
		return false
	}

	slot.nameMu.Lock()
	defer slot.nameMu.Unlock()
	if slot.nameAttached {
		return false
	}
	if !b.names.TryRegister(name, id) {
		return false
	}
	slot.name = name
	slot.nameAttached = true
	return true
}

// AddSet monotonically unions rxDelta/txDelta into id's receive/transmit
// masks, creating any newly implied rings the same way Create does.
// Returns false if id is out of range or not currently registered.
func (b *Bus) AddSet(id uint32, rxDelta, txDelta []uint32) bool {
	if id == 0 || id > b.maxID {
		return false
	}
	slot := &b.slots[id]
	if !slot.live() {
		return false
	}

	sw := spin.Wait{}
	for !slot.status.CompareAndSwapAcqRel(uint64(statusRegistered), uint64(statusModifying)) {
		if !slot.live() {
			return false
		}
		sw.Once()
	}
	defer slot.status.StoreRelease(uint64(statusRegistered))

	deltaRx := mask.New(int(b.maxID))
	for _, peer := range rxDelta {
		if peer != id {
			deltaRx.Add(peer)
		}
	}
	deltaTx := mask.New(int(b.maxID))
	for _, peer := range txDelta {
		if peer != id {
			deltaTx.Add(peer)
		}
	}

	b.topoMu.Lock()
	defer b.topoMu.Unlock()
	newRx := slot.rx.Union(deltaRx)
	newTx := slot.tx.Union(deltaTx)
	for _, peer := range newRx {
		if peer != 0 && peer <= b.maxID && b.slots[peer].live() {
			b.linkEdgeLocked(peer, id)
		} else if peer == 0 {
			b.linkEdgeLocked(0, id)
		}
	}
	for _, peer := range newTx {
		if peer <= b.maxID && b.slots[peer].live() {
			b.linkEdgeLocked(id, peer)
		}
	}
	return true
}

// Delete tears down id: every ring touching it (inbound or outbound),
// its name binding, its masks, its multiplexer and control handle, and
// finally its registration flag. Returns true whether id was removed
// just now or was already absent. A blocked Recv on id returns once
// its multiplexer closes.
func (b *Bus) Delete(id uint32) bool {
	if id == 0 || id > b.maxID {
		return true
	}

	b.topoMu.Lock()
	defer b.topoMu.Unlock()

	slot := &b.slots[id]
	if !slot.live() {
		return true
	}

	for peer := uint32(0); peer <= b.maxID; peer++ {
		if e := slot.ringRow[peer].Swap(nil); e != nil {
			slot.mux.Remove(peer)
			e.h.Unbind()
		}
	}
	for peer := uint32(1); peer <= b.maxID; peer++ {
		if peer == id {
			continue
		}
		ps := &b.slots[peer]
		if e := ps.ringRow[id].Swap(nil); e != nil {
			ps.mux.Remove(id)
			e.h.Unbind()
		}
	}

	slot.nameMu.Lock()
	if slot.nameAttached {
		b.names.Unregister(slot.name)
		slot.name = ""
		slot.nameAttached = false
	}
	slot.nameMu.Unlock()

	slot.rx.Clear()
	slot.tx.Clear()
	slot.mux.Close()
	slot.control.Store(nil)
	slot.status.StoreRelease(uint64(statusInvalid))
	slot.registered.StoreRelease(false)
	return true
}

// resolveEdge returns the (src -> dst) ring, creating it lazily if no
// producer or consumer ever declared it up front (spec §4.5). Panics
// if dst is out of range or not a registered module: sending to a
// destination that was never created is a programming error.
func (b *Bus) resolveEdge(src, dst uint32) *edge {
	if dst == 0 || dst > b.maxID {
		panic("fabric: send: destination out of range: " + strconv.FormatUint(uint64(dst), 10))
	}
	if src > b.maxID {
		panic("fabric: send: source out of range: " + strconv.FormatUint(uint64(src), 10))
	}
	dstSlot := &b.slots[dst]
	if e := dstSlot.ringRow[src].Load(); e != nil {
		return e
	}
	if !dstSlot.live() {
		panic("fabric: send: destination not registered: " + strconv.FormatUint(uint64(dst), 10))
	}

	b.topoMu.Lock()
	defer b.topoMu.Unlock()
	if e := dstSlot.ringRow[src].Load(); e != nil {
		return e
	}
	b.linkEdgeLocked(src, dst)
	return dstSlot.ringRow[src].Load()
}

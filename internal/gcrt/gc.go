// Package gcrt is a host-side simulation of a mark-and-sweep collector,
// the companion to the allocation accounting internal/codegen/gcstubs.go
// encodes into the emitted program's own machine code. The two never
// share state: gcstubs.go's x86-64 routines track
// gc_total_bytes/gc_threshold/gc_collections as plain data-section
// counters for a running TYL program and never sweep, while this package
// models the full algorithm — typed object headers, an allocation list, a root set, mark
// then sweep — as ordinary Go values, so the collector's invariants (no
// unpinned unmarked object stays referenced by a live one, collection
// triggers once totalAllocated exceeds threshold) can be exercised and
// tested independently of machine code.
//
// Ported from original_source/src/backend/gc/gc.h's GarbageCollector class.
package gcrt

// ObjectType tags an allocation for the mark phase's trace routine.
type ObjectType uint16

const (
	TypeRaw ObjectType = iota
	TypeString
	TypeList
	TypeRecord
	TypeClosure
	TypeArray
	TypeBox
)

// Flags records per-object GC metadata.
type Flags uint8

const (
	FlagNone     Flags = 0
	FlagPinned   Flags = 1 << 0
	FlagWeak     Flags = 1 << 1
	FlagFinalize Flags = 1 << 2
)

// Header is the {size, type, marked, flags} metadata each simulated
// allocation carries. There is no explicit "next" link: the heap's
// allocation slice holds the list instead. The emitted program's
// allocations carry no such header (internal/codegen/gcstubs.go keeps only
// global counters).
type Header struct {
	Size   uint32
	Type   ObjectType
	Marked bool
	Flags  Flags
}

// Object is one GC-managed allocation. Refs holds the object's outgoing
// pointers for tracing — for TypeRaw/TypeString this is always empty; for
// TypeList/TypeRecord/TypeClosure/TypeArray/TypeBox it holds whatever the
// allocator populated at alloc time (elements, fields, captures, or a single
// boxed value, respectively).
type Object struct {
	Header
	Refs []*Object
}

func (o *Object) Pinned() bool { return o.Flags&FlagPinned != 0 }

// Slot is a root: a variable location (not a value) whose current contents
// the mark phase dereferences fresh on every collection, matching the
// original's void** roots — a root that's been reassigned between
// allocations is followed to wherever it now points, not wherever it
// pointed when registered.
type Slot struct {
	Value *Object
}

// Stats mirrors GCStats.
type Stats struct {
	TotalAllocated      uint64
	TotalCollections    uint64
	TotalFreed          uint64
	ObjectCount         int
	LastCollectionFreed uint64
}

const defaultThreshold = 1 << 20 // 1MiB, matching gcstubs.go's gcDefaultThreshold

// Heap is one collector instance. The zero value is not usable; use New.
type Heap struct {
	objects   []*Object
	roots     map[*Slot]bool
	frames    [][]*Slot
	stats     Stats
	threshold uint64
	enabled   bool
	allocator *Allocator
}

// New returns an initialized, enabled Heap using the system allocator and
// the default 1MiB collection threshold.
func New() *Heap {
	return &Heap{
		roots:     make(map[*Slot]bool),
		threshold: defaultThreshold,
		enabled:   true,
		allocator: SystemAllocator(),
	}
}

func (h *Heap) SetThreshold(bytes uint64) { h.threshold = bytes }
func (h *Heap) Enable()                   { h.enabled = true }
func (h *Heap) Disable()                  { h.enabled = false }
func (h *Heap) Stats() Stats              { return h.stats }

// SetAllocator installs a that Heap.Alloc delegates byte accounting to, in
// place of the default system allocator.
func (h *Heap) SetAllocator(a *Allocator) { h.allocator = a }
func (h *Heap) ResetAllocator()           { h.allocator = SystemAllocator() }

// Alloc allocates a new zero-initialized object of the given type and size,
// with refs as its initial outgoing pointers (nil for leaf types). A
// collection runs first if the heap is over threshold, same as the
// generated program's allocator stub calling __TYL_gc_collect before
// delegating to HeapAlloc.
func (h *Heap) Alloc(size uint32, typ ObjectType, refs ...*Object) *Object {
	if h.enabled && h.stats.TotalAllocated > h.threshold {
		h.Collect()
	}
	h.allocator.alloc(uint64(size))
	obj := &Object{Header: Header{Size: size, Type: typ}, Refs: refs}
	h.objects = append(h.objects, obj)
	h.stats.TotalAllocated += uint64(size)
	h.stats.ObjectCount++
	return obj
}

func (h *Heap) AllocString(length int) *Object { return h.Alloc(uint32(length), TypeString) }

func (h *Heap) AllocList(capacity int) *Object {
	return h.Alloc(uint32(capacity)*8, TypeList, make([]*Object, 0, capacity)...)
}

func (h *Heap) AllocRecord(fields ...*Object) *Object {
	return h.Alloc(uint32(len(fields))*8, TypeRecord, fields...)
}

func (h *Heap) AllocClosure(captures ...*Object) *Object {
	return h.Alloc(uint32(len(captures))*8, TypeClosure, captures...)
}

// AddRoot registers a slot as a GC root, scanned on every collection until
// RemoveRoot is called.
func (h *Heap) AddRoot(s *Slot)    { h.roots[s] = true }
func (h *Heap) RemoveRoot(s *Slot) { delete(h.roots, s) }

// PushFrame registers a conservative stack frame — every slot in frame is
// treated as a root for as long as it's pushed. PopFrame removes the most
// recently pushed frame.
func (h *Heap) PushFrame(frame []*Slot) { h.frames = append(h.frames, frame) }
func (h *Heap) PopFrame() {
	if len(h.frames) > 0 {
		h.frames = h.frames[:len(h.frames)-1]
	}
}

func (h *Heap) Pin(o *Object)   { o.Flags |= FlagPinned }
func (h *Heap) Unpin(o *Object) { o.Flags &^= FlagPinned }

// Collect runs a full mark-sweep pass regardless of threshold, matching
// collectFull's "force a collection" semantics — the original distinguishes
// collect() (threshold-gated) from collectFull(); this package only exposes
// the forced form, since Alloc already applies the threshold gate itself.
func (h *Heap) Collect() {
	h.mark()
	freed := h.sweep()
	h.stats.TotalCollections++
	h.stats.TotalFreed += freed
	h.stats.LastCollectionFreed = freed
}

func (h *Heap) mark() {
	for _, o := range h.objects {
		o.Marked = false
	}
	var stack []*Object
	for s := range h.roots {
		if s.Value != nil {
			stack = append(stack, s.Value)
		}
	}
	for _, frame := range h.frames {
		for _, s := range frame {
			if s.Value != nil {
				stack = append(stack, s.Value)
			}
		}
	}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o == nil || o.Marked {
			continue
		}
		o.Marked = true
		stack = append(stack, o.Refs...)
	}
}

func (h *Heap) sweep() uint64 {
	var freed uint64
	live := h.objects[:0]
	for _, o := range h.objects {
		if o.Marked || o.Pinned() {
			live = append(live, o)
			continue
		}
		freed += uint64(o.Size)
		h.allocator.free(uint64(o.Size))
	}
	h.objects = live
	h.stats.ObjectCount = len(live)
	h.stats.TotalAllocated -= freed
	return freed
}

// Shutdown releases every tracked object without running a final mark
// pass — the generated program never frees individually either,
// reclaiming everything at ExitProcess (see gcstubs.go's allocator design
// note in DESIGN.md).
func (h *Heap) Shutdown() {
	h.objects = nil
	h.roots = make(map[*Slot]bool)
	h.frames = nil
	h.stats = Stats{}
}

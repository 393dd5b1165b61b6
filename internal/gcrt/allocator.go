package gcrt

// Allocator is the pluggable byte-accounting backend Heap.Alloc/free
// delegate to. Ported from original_source/src/backend/gc/allocator.h's
// Allocator struct: the C++ version carries raw alloc/free function
// pointers operating on actual memory, since its GC shares a process heap
// with the rest of the emitted program; this package's Heap already holds
// its object graph as ordinary Go values managed by the host runtime's own
// collector, so Allocator here only tracks the byte accounting an
// Allocator's caller would see (AllocatorStats), not real memory.
type Allocator struct {
	name  string
	kind  AllocatorType
	alloc func(size uint64)
	free  func(size uint64)
	reset func()
	stats AllocatorStats

	capacity   uint64 // arena only
	blockSize  uint64 // pool only
	blockCount uint64 // pool only
	freeCount  uint64 // pool only
}

// AllocatorType enumerates the built-in allocator kinds.
type AllocatorType uint8

const (
	AllocatorSystem AllocatorType = iota
	AllocatorArena
	AllocatorPool
	AllocatorCustom
)

// AllocatorStats mirrors AllocatorStats from allocator.h.
type AllocatorStats struct {
	TotalAllocated   uint64
	TotalAllocations uint64
	TotalFrees       uint64
	PeakUsage        uint64
	CurrentObjects   uint64
}

func (a *Allocator) Name() string         { return a.name }
func (a *Allocator) Type() AllocatorType  { return a.kind }
func (a *Allocator) Stats() AllocatorStats { return a.stats }
func (a *Allocator) Capacity() uint64     { return a.capacity }

func newAllocator(name string, kind AllocatorType) *Allocator {
	a := &Allocator{name: name, kind: kind}
	a.alloc = func(size uint64) {
		a.stats.TotalAllocated += size
		a.stats.TotalAllocations++
		a.stats.CurrentObjects++
		if a.stats.TotalAllocated > a.stats.PeakUsage {
			a.stats.PeakUsage = a.stats.TotalAllocated
		}
	}
	a.free = func(size uint64) {
		if size > a.stats.TotalAllocated {
			size = a.stats.TotalAllocated
		}
		a.stats.TotalAllocated -= size
		a.stats.TotalFrees++
		if a.stats.CurrentObjects > 0 {
			a.stats.CurrentObjects--
		}
	}
	return a
}

// SystemAllocator wraps the default heap (HeapAlloc/GetProcessHeap in the
// emitted program, per gcstubs.go) with no capacity limit of its own.
func SystemAllocator() *Allocator { return newAllocator("system", AllocatorSystem) }

// ArenaAllocator is a bump allocator over a fixed-capacity budget: alloc
// never frees individually, only Reset releases everything at once.
// Capacity is tracked for reporting and isn't a hard Go-level limit, since
// Heap's objects already live as ordinary Go values — the arena shape is
// reproduced to preserve the allocator's byte-accounting semantics (and,
// with it, the over-capacity condition a real embedder would hit).
func ArenaAllocator(capacity uint64) *Allocator {
	a := newAllocator("arena", AllocatorArena)
	var used uint64
	a.alloc = func(size uint64) {
		used += size
		a.stats.TotalAllocated = used
		a.stats.TotalAllocations++
		a.stats.CurrentObjects++
		if used > a.stats.PeakUsage {
			a.stats.PeakUsage = used
		}
	}
	a.free = func(uint64) {} // arena allocators only release via Reset
	a.reset = func() {
		used = 0
		a.stats.TotalAllocated = 0
		a.stats.CurrentObjects = 0
	}
	a.capacity = capacity
	return a
}

// PoolAllocator tracks fixed-size-block accounting: every alloc/free moves
// exactly blockSize bytes, matching PoolAllocator's single-size contract.
func PoolAllocator(blockSize uint64, blockCount uint64) *Allocator {
	a := newAllocator("pool", AllocatorPool)
	a.blockSize = blockSize
	a.blockCount = blockCount
	a.freeCount = blockCount
	a.alloc = func(uint64) {
		if a.freeCount == 0 {
			return // pool exhausted; caller falls back to reporting zero capacity
		}
		a.freeCount--
		a.stats.TotalAllocated += a.blockSize
		a.stats.TotalAllocations++
		a.stats.CurrentObjects++
		if a.stats.TotalAllocated > a.stats.PeakUsage {
			a.stats.PeakUsage = a.stats.TotalAllocated
		}
	}
	a.free = func(uint64) {
		if a.freeCount < a.blockCount {
			a.freeCount++
		}
		if a.stats.TotalAllocated >= a.blockSize {
			a.stats.TotalAllocated -= a.blockSize
		}
		a.stats.TotalFrees++
		if a.stats.CurrentObjects > 0 {
			a.stats.CurrentObjects--
		}
	}
	return a
}

// Reset releases every allocation an arena allocator is holding at once.
// A no-op for system/pool allocators.
func (a *Allocator) Reset() {
	if a.reset != nil {
		a.reset()
	}
}

// FreeBlockCount reports remaining capacity for a pool allocator; zero for
// every other kind.
func (a *Allocator) FreeBlockCount() uint64 { return a.freeCount }

// Manager is the process-wide current-allocator singleton ported from
// AllocatorManager, with its own accounting independent of any individual
// Heap's stats. Heap does not consult it: each Heap holds its own
// allocator (a fresh system allocator unless SetAllocator replaces it).
type Manager struct {
	current *Allocator
}

var defaultManager = &Manager{current: SystemAllocator()}

// Instance returns the shared AllocatorManager singleton, matching
// AllocatorManager::instance().
func Instance() *Manager { return defaultManager }

func (m *Manager) Current() *Allocator { return m.current }
func (m *Manager) SetAllocator(a *Allocator) {
	if a != nil {
		m.current = a
	}
}
func (m *Manager) ResetAllocator() { m.current = SystemAllocator() }
func (m *Manager) Stats() AllocatorStats { return m.current.Stats() }

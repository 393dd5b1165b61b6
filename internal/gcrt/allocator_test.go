package gcrt

import "testing"

func TestSystemAllocatorTracksAllocationsAndFrees(t *testing.T) {
	a := SystemAllocator()
	h := New()
	h.SetAllocator(a)

	h.Alloc(16, TypeRaw)
	stats := a.Stats()
	if stats.TotalAllocated != 16 || stats.TotalAllocations != 1 {
		t.Fatalf("unexpected stats after alloc: %+v", stats)
	}

	h.Collect() // no roots: the object is swept, freeing it through the allocator
	stats = a.Stats()
	if stats.TotalFrees != 1 || stats.TotalAllocated != 0 {
		t.Fatalf("unexpected stats after collect: %+v", stats)
	}
}

func TestArenaAllocatorResetReleasesEverything(t *testing.T) {
	a := ArenaAllocator(1024)
	h := New()
	h.SetAllocator(a)

	h.Alloc(100, TypeRaw)
	h.Alloc(200, TypeRaw)
	if a.Stats().TotalAllocated != 300 {
		t.Fatalf("TotalAllocated = %d, want 300", a.Stats().TotalAllocated)
	}

	a.Reset()
	if a.Stats().TotalAllocated != 0 {
		t.Fatalf("expected Reset to zero TotalAllocated, got %d", a.Stats().TotalAllocated)
	}
}

func TestPoolAllocatorTracksFreeBlockCount(t *testing.T) {
	p := PoolAllocator(64, 4)
	if p.FreeBlockCount() != 4 {
		t.Fatalf("expected 4 free blocks initially, got %d", p.FreeBlockCount())
	}

	h := New()
	h.SetAllocator(p)
	obj := h.Alloc(64, TypeRaw)
	if p.FreeBlockCount() != 3 {
		t.Fatalf("expected 3 free blocks after one alloc, got %d", p.FreeBlockCount())
	}

	h.Pin(obj) // keep it rooted-equivalent so Collect doesn't also free it through the heap
	h.Collect()
	if p.FreeBlockCount() != 3 {
		t.Fatalf("pinned object's block should not be returned to the pool")
	}
}

func TestManagerSwapsCurrentAllocator(t *testing.T) {
	mgr := Instance()
	defer mgr.ResetAllocator()

	arena := ArenaAllocator(512)
	mgr.SetAllocator(arena)
	if mgr.Current() != arena {
		t.Fatalf("expected Current to return the installed arena allocator")
	}

	mgr.ResetAllocator()
	if mgr.Current().Type() != AllocatorSystem {
		t.Fatalf("expected ResetAllocator to restore the system allocator")
	}
}

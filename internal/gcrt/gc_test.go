package gcrt

import "testing"

func TestAllocTracksStats(t *testing.T) {
	h := New()
	h.Alloc(16, TypeRaw)
	h.Alloc(32, TypeString)
	stats := h.Stats()
	if stats.TotalAllocated != 48 {
		t.Fatalf("TotalAllocated = %d, want 48", stats.TotalAllocated)
	}
	if stats.ObjectCount != 2 {
		t.Fatalf("ObjectCount = %d, want 2", stats.ObjectCount)
	}
}

func TestCollectSweepsUnreachableObjects(t *testing.T) {
	h := New()
	root := &Slot{}
	h.AddRoot(root)

	kept := h.Alloc(8, TypeRaw)
	root.Value = kept
	h.Alloc(8, TypeRaw) // unreachable from any root

	h.Collect()

	stats := h.Stats()
	if stats.ObjectCount != 1 {
		t.Fatalf("ObjectCount after collect = %d, want 1", stats.ObjectCount)
	}
	if stats.TotalFreed != 8 {
		t.Fatalf("TotalFreed = %d, want 8", stats.TotalFreed)
	}
	if stats.TotalCollections != 1 {
		t.Fatalf("TotalCollections = %d, want 1", stats.TotalCollections)
	}
	if !kept.Marked {
		t.Fatalf("expected the rooted object to still be marked live")
	}
}

func TestCollectTracesThroughRecordFields(t *testing.T) {
	h := New()
	root := &Slot{}
	h.AddRoot(root)

	field := h.Alloc(8, TypeRaw)
	rec := h.AllocRecord(field)
	root.Value = rec

	h.Collect()

	if h.Stats().ObjectCount != 2 {
		t.Fatalf("expected the record and its field to both survive, got %d objects", h.Stats().ObjectCount)
	}
}

func TestPinnedObjectSurvivesWithoutARoot(t *testing.T) {
	h := New()
	obj := h.Alloc(8, TypeRaw)
	h.Pin(obj)

	h.Collect()

	if h.Stats().ObjectCount != 1 {
		t.Fatalf("expected the pinned object to survive collection with no roots")
	}
	h.Unpin(obj)
	h.Collect()
	if h.Stats().ObjectCount != 0 {
		t.Fatalf("expected the unpinned object to be swept once no longer pinned")
	}
}

func TestPushFrameRootsScanStackLikeVariables(t *testing.T) {
	h := New()
	obj := h.Alloc(8, TypeRaw)
	frame := []*Slot{{Value: obj}}
	h.PushFrame(frame)

	h.Collect()
	if h.Stats().ObjectCount != 1 {
		t.Fatalf("expected the frame-rooted object to survive")
	}

	h.PopFrame()
	h.Collect()
	if h.Stats().ObjectCount != 0 {
		t.Fatalf("expected the object to be swept once its frame is popped")
	}
}

func TestAllocTriggersCollectionOverThreshold(t *testing.T) {
	h := New()
	h.SetThreshold(10)
	h.Alloc(20, TypeRaw) // first alloc: under threshold before, triggers nothing yet
	h.Alloc(1, TypeRaw)  // now over threshold: this call collects first

	if h.Stats().TotalCollections == 0 {
		t.Fatalf("expected an automatic collection once allocated bytes exceeded the threshold")
	}
}

func TestShutdownClearsHeapState(t *testing.T) {
	h := New()
	h.Alloc(8, TypeRaw)
	h.Shutdown()
	if h.Stats().ObjectCount != 0 || h.Stats().TotalAllocated != 0 {
		t.Fatalf("expected Shutdown to reset all heap state")
	}
}

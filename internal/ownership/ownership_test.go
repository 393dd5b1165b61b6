package ownership

import "testing"

func TestMoveThenUseFails(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("s", false, true)
	tr.MarkInitialized("s")

	if err := tr.RecordMove("s", SourceLocation{}); err != nil {
		t.Fatalf("expected first move to succeed: %v", err)
	}
	if err := tr.CheckUsable("s", SourceLocation{}); err == nil {
		t.Fatalf("expected use-after-move to fail")
	}
	if err := tr.RecordMove("s", SourceLocation{}); err == nil {
		t.Fatalf("expected double move to fail")
	}
}

func TestCopyTypeNeverMoves(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("n", true, false)
	tr.MarkInitialized("n")
	if err := tr.RecordMove("n", SourceLocation{}); err != nil {
		t.Fatalf("expected copy-type move to be a no-op success: %v", err)
	}
	if err := tr.CheckUsable("n", SourceLocation{}); err != nil {
		t.Fatalf("expected copy type to remain usable after move: %v", err)
	}
}

func TestBorrowExclusivity(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("v", false, false)
	tr.MarkInitialized("v")

	if err := tr.RecordBorrow("v", "b1", false, SourceLocation{}, 1); err != nil {
		t.Fatalf("expected shared borrow to succeed: %v", err)
	}
	if err := tr.RecordBorrow("v", "b2", false, SourceLocation{}, 1); err != nil {
		t.Fatalf("expected second shared borrow to succeed: %v", err)
	}
	if err := tr.RecordBorrow("v", "b3", true, SourceLocation{}, 1); err == nil {
		t.Fatalf("expected mutable borrow while shared-borrowed to fail")
	}
}

func TestMutableBorrowExclusive(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("v", false, false)
	tr.MarkInitialized("v")

	if err := tr.RecordBorrow("v", "b1", true, SourceLocation{}, 1); err != nil {
		t.Fatalf("expected mutable borrow to succeed: %v", err)
	}
	if err := tr.RecordBorrow("v", "b2", false, SourceLocation{}, 1); err == nil {
		t.Fatalf("expected shared borrow while mutably borrowed to fail")
	}
	if err := tr.RecordMove("v", SourceLocation{}); err == nil {
		t.Fatalf("expected move while borrowed to fail")
	}
}

func TestEndBorrowsAtScopeRestoresOwned(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("v", false, false)
	tr.MarkInitialized("v")
	tr.PushScope()
	if err := tr.RecordBorrow("v", "b1", true, SourceLocation{}, tr.currentScopeDepth); err != nil {
		t.Fatalf("borrow failed: %v", err)
	}
	tr.PopScope()
	info, _ := tr.GetInfo("v")
	if info.State != Owned {
		t.Fatalf("expected Owned after scope exit released the borrow, got %v", info.State)
	}
}

func TestDropOrderReverseDeclaration(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("a", false, true)
	tr.MarkInitialized("a")
	tr.InitVar("b", false, true)
	tr.MarkInitialized("b")
	tr.InitVar("c", false, true)
	tr.MarkInitialized("c")

	drops := tr.GetDropsForScope()
	want := []string{"c", "b", "a"}
	if len(drops) != len(want) {
		t.Fatalf("got %v, want %v", drops, want)
	}
	for i := range want {
		if drops[i] != want[i] {
			t.Fatalf("got %v, want %v", drops, want)
		}
	}
}

func TestMovedVariableNotDropped(t *testing.T) {
	tr := NewTracker()
	tr.InitVar("a", false, true)
	tr.MarkInitialized("a")
	if err := tr.RecordMove("a", SourceLocation{}); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	drops := tr.GetDropsForScope()
	if len(drops) != 0 {
		t.Fatalf("expected moved variable to be excluded from drops, got %v", drops)
	}
}

func TestParamModeBorrowCannotMove(t *testing.T) {
	tr := NewTracker()
	tr.EnterFunction([]ParamOwnershipInfo{{Name: "p", Mode: ParamBorrow}})
	if err := tr.CheckParamUsage("p", true, SourceLocation{}); err == nil {
		t.Fatalf("expected move of borrowed parameter to fail")
	}
}

func TestLifetimeOutlives(t *testing.T) {
	static := Lifetime{Name: "'static", IsStatic: true}
	shallow := Lifetime{Name: "'a", ScopeDepth: 1}
	deep := Lifetime{Name: "'b", ScopeDepth: 2}

	if !static.Outlives(deep) {
		t.Errorf("expected 'static to outlive everything")
	}
	if deep.Outlives(static) {
		t.Errorf("expected nothing to outlive 'static except itself")
	}
	if !shallow.Outlives(deep) {
		t.Errorf("expected a shallower scope to outlive a deeper one")
	}
	if deep.Outlives(shallow) {
		t.Errorf("expected a deeper scope to not outlive a shallower one")
	}
}

func TestCheckLifetimeValid(t *testing.T) {
	tr := NewTracker()
	shallow := Lifetime{Name: "'a", ScopeDepth: 1}
	deep := Lifetime{Name: "'b", ScopeDepth: 2}
	if err := tr.CheckLifetimeValid(shallow, deep, SourceLocation{}); err == nil {
		t.Fatalf("expected borrow outliving its source to fail")
	}
	if err := tr.CheckLifetimeValid(deep, shallow, SourceLocation{}); err != nil {
		t.Fatalf("expected borrow within source's lifetime to succeed: %v", err)
	}
}

func TestCopyAndDropTypeHelpers(t *testing.T) {
	if !IsCopyType("i32") {
		t.Errorf("expected i32 to be Copy")
	}
	if IsCopyType("Box") {
		t.Errorf("expected Box to not be Copy")
	}
	if !NeedsDropType("Box") {
		t.Errorf("expected Box to need Drop")
	}
	RegisterDropType("MyResource", "MyResource_drop")
	if !HasCustomDrop("MyResource") {
		t.Errorf("expected registered custom drop to be found")
	}
	if !NeedsDropType("MyResource") {
		t.Errorf("expected custom-drop type to need Drop")
	}
}

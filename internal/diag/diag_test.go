package diag

import "testing"

func TestHasErrors(t *testing.T) {
	var l List
	if l.HasErrors() {
		t.Fatalf("expected empty list to have no errors")
	}
	l.Warningf(Pos{}, "just a warning")
	if l.HasErrors() {
		t.Fatalf("expected warning-only list to have no errors")
	}
	l.Errorf(Pos{}, "boom")
	if !l.HasErrors() {
		t.Fatalf("expected error to be recorded")
	}
}

func TestSortDeterministic(t *testing.T) {
	var l List
	l.Errorf(Pos{File: "b.tyl", Line: 5}, "e1")
	l.Warningf(Pos{File: "a.tyl", Line: 10}, "w1")
	l.Errorf(Pos{File: "a.tyl", Line: 2}, "e2")
	l.Sort()

	items := l.Items()
	if items[0].Pos.File != "a.tyl" || items[0].Pos.Line != 2 {
		t.Fatalf("expected a.tyl:2 first, got %v", items[0])
	}
	if items[1].Pos.File != "a.tyl" || items[1].Pos.Line != 10 {
		t.Fatalf("expected a.tyl:10 second, got %v", items[1])
	}
	if items[2].Pos.File != "b.tyl" {
		t.Fatalf("expected b.tyl last, got %v", items[2])
	}
}

func TestLevelSameLocationErrorsBeforeWarnings(t *testing.T) {
	var l List
	pos := Pos{File: "x.tyl", Line: 1, Column: 1}
	l.Warningf(pos, "w")
	l.Errorf(pos, "e")
	l.Sort()
	items := l.Items()
	if items[0].Level != Error {
		t.Fatalf("expected error to sort before warning at the same position")
	}
}

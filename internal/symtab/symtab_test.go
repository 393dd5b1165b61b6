package symtab

import (
	"testing"

	"tylc/internal/types"
)

func TestDefineLookupShadowing(t *testing.T) {
	reg := types.NewRegistry()
	tbl := NewTable(reg)

	tbl.Define(&Symbol{Name: "x", Kind: KindVariable, Type: reg.Int(), Storage: StorageGlobal})

	tbl.PushScope(ScopeFunction)
	if _, ok := tbl.LookupLocal("x"); ok {
		t.Fatalf("expected x not defined locally in new function scope")
	}
	if _, ok := tbl.Lookup("x"); !ok {
		t.Fatalf("expected x visible via outer lookup")
	}

	tbl.Define(&Symbol{Name: "x", Kind: KindVariable, Type: reg.Str()})
	sym, ok := tbl.LookupLocal("x")
	if !ok || sym.Type.Kind() != types.KindString {
		t.Fatalf("expected shadowed local x of type str")
	}

	tbl.PopScope()
	sym, ok = tbl.Lookup("x")
	if !ok || sym.Type.Kind() != types.KindIntDefault {
		t.Fatalf("expected outer x of type int restored after pop")
	}
}

func TestRedefineSameScopeFails(t *testing.T) {
	reg := types.NewRegistry()
	tbl := NewTable(reg)
	tbl.PushScope(ScopeFunction)
	if !tbl.Define(&Symbol{Name: "y", Type: reg.Int()}) {
		t.Fatalf("expected first definition to succeed")
	}
	if tbl.Define(&Symbol{Name: "y", Type: reg.Bool()}) {
		t.Fatalf("expected redefinition in the same scope to fail")
	}
}

func TestAllocateLocalMonotonic(t *testing.T) {
	reg := types.NewRegistry()
	tbl := NewTable(reg)
	tbl.PushScope(ScopeFunction)
	scope := tbl.CurrentScope()

	off1 := scope.AllocateLocal(4)
	off2 := scope.AllocateLocal(8)
	if off1 <= off2 {
		t.Fatalf("expected monotonically decreasing offsets, got %d then %d", off1, off2)
	}
	if off1%8 != 0 || off2%8 != 0 {
		t.Fatalf("expected 8-byte aligned offsets, got %d, %d", off1, off2)
	}
}

func TestInFunctionInLoopInUnsafe(t *testing.T) {
	reg := types.NewRegistry()
	tbl := NewTable(reg)
	if tbl.InFunction() || tbl.InLoop() || tbl.InUnsafe() {
		t.Fatalf("expected none of these true at global scope")
	}
	tbl.PushScope(ScopeFunction)
	if !tbl.InFunction() {
		t.Fatalf("expected InFunction true")
	}
	tbl.PushScope(ScopeLoop)
	if !tbl.InLoop() {
		t.Fatalf("expected InLoop true")
	}
	tbl.PushScope(ScopeUnsafe)
	if !tbl.InUnsafe() {
		t.Fatalf("expected InUnsafe true")
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	reg := types.NewRegistry()
	tbl := NewTable(reg)
	for _, name := range []string{"print", "len", "panic"} {
		if _, ok := tbl.Lookup(name); !ok {
			t.Errorf("expected builtin %q to be pre-registered", name)
		}
	}
}

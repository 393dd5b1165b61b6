// Package symtab implements the TYL compiler's lexically scoped symbol
// table: a stack of Scopes each owning a name -> Symbol map, plus a
// per-function stack-offset allocator for locals.
package symtab

import (
	"tylc/internal/types"
)

// SymbolKind tags what a Symbol names.
type SymbolKind uint8

const (
	KindVariable SymbolKind = iota
	KindFunction
	KindParameter
	KindType
	KindRecordField
	KindModule
	KindMacro
	KindLayer
)

// StorageClass tags where a Symbol's storage lives.
type StorageClass uint8

const (
	StorageLocal StorageClass = iota
	StorageGlobal
	StorageHeap
	StorageRegister
)

// SourceLocation mirrors the position a diagnostic or symbol refers to.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// Symbol is one named entity: a variable, function, parameter, type alias,
// record field, module, macro, or layer (spec.md §3.3), carrying both its
// static Type and the ownership bookkeeping the checker mutates in place
// as it walks the AST.
type Symbol struct {
	Name         string
	Kind         SymbolKind
	Type         types.Type
	Storage      StorageClass
	Mutable      bool
	Exported     bool
	Initialized  bool
	Used         bool
	IsParameter  bool
	Offset       int32
	ParamCount   int
	Variadic     bool
	Location     SourceLocation

	OwnershipState OwnershipState
	MoveLocation   SourceLocation
	IsCopyType     bool
	NeedsDrop      bool
	BorrowCount    int
	HasMutableBorrow bool
}

// OwnershipState is the per-symbol ownership state machine value (spec.md
// §4.3); it lives here rather than in internal/ownership so Symbol can
// carry it directly without an import cycle (internal/ownership imports
// internal/symtab to re-export this type, not the reverse).
type OwnershipState uint8

const (
	Uninitialized OwnershipState = iota
	Owned
	Moved
	BorrowedShared
	BorrowedMut
	PartiallyMoved
)

func (s *Symbol) IsOwned() bool  { return s.OwnershipState == Owned }
func (s *Symbol) IsMoved() bool  { return s.OwnershipState == Moved }
func (s *Symbol) CanMove() bool  { return s.IsOwned() && s.BorrowCount == 0 }
func (s *Symbol) CanBorrowShared() bool {
	return !s.IsMoved() && s.OwnershipState != Uninitialized && !s.HasMutableBorrow
}
func (s *Symbol) CanBorrowMut() bool { return s.IsOwned() && s.BorrowCount == 0 }

// ScopeKind tags the lexical nature of a Scope, mirroring
// cmd_local/compile/internal/gc/go.go's Class/dclcontext nesting idea
// applied to block structure rather than storage class.
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeBlock
	ScopeLoop
	ScopeUnsafe
)

// Scope is one lexical level: a flat symbol map plus a monotonically
// decreasing stack-offset allocator for locals declared directly in it.
type Scope struct {
	kind        ScopeKind
	parent      *Scope
	symbols     map[string]*Symbol
	stackOffset int32
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{kind: kind, parent: parent, symbols: make(map[string]*Symbol)}
}

func (s *Scope) Kind() ScopeKind { return s.kind }
func (s *Scope) Parent() *Scope  { return s.parent }
func (s *Scope) IsGlobal() bool   { return s.kind == ScopeGlobal }
func (s *Scope) IsFunction() bool { return s.kind == ScopeFunction }
func (s *Scope) IsUnsafe() bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.kind == ScopeUnsafe {
			return true
		}
		if sc.kind == ScopeFunction {
			break
		}
	}
	return false
}

// Define inserts sym into this scope, failing if the name is already bound
// directly here (shadowing an outer scope's binding is fine; redefining
// within the same scope is not).
func (s *Scope) Define(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// Lookup walks outward through enclosing scopes.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal only checks this scope, not its ancestors.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

func (s *Scope) Symbols() map[string]*Symbol { return s.symbols }

// AllocateLocal reserves size bytes of stack space (8-byte aligned, per
// spec.md §4.7's Windows x64 frame convention) and returns the rbp-relative
// offset to use, decreasing monotonically from scope entry.
func (s *Scope) AllocateLocal(size int64) int32 {
	aligned := (size + 7) / 8 * 8
	s.stackOffset -= int32(aligned)
	return s.stackOffset
}

func (s *Scope) CurrentStackOffset() int32 { return s.stackOffset }

// Table is the per-compilation symbol table: a global scope plus the
// current scope-stack cursor, matching original_source's SymbolTable.
type Table struct {
	global     *Scope
	current    *Scope
	typeByName map[string]types.Type
	scopeDepth int
}

// NewTable constructs a Table with built-in functions pre-registered
// (print/len/etc., per spec.md §4.1's "built-in function pre-registration").
func NewTable(reg *types.Registry) *Table {
	g := newScope(ScopeGlobal, nil)
	t := &Table{global: g, current: g, typeByName: make(map[string]types.Type)}
	t.registerBuiltins(reg)
	return t
}

func (t *Table) registerBuiltins(reg *types.Registry) {
	builtins := []struct {
		name string
		fn   *types.Function
	}{
		{"print", reg.NewFunction([]types.Type{reg.AnyType()}, []string{"v"}, reg.Void(), true)},
		{"len", reg.NewFunction([]types.Type{reg.NewList(reg.AnyType())}, []string{"v"}, reg.Int(), false)},
		{"panic", reg.NewFunction([]types.Type{reg.Str()}, []string{"msg"}, reg.NeverType(), false)},
	}
	for _, b := range builtins {
		t.global.Define(&Symbol{Name: b.name, Kind: KindFunction, Type: b.fn, Storage: StorageGlobal, Initialized: true})
	}
}

func (t *Table) PushScope(kind ScopeKind) {
	t.current = newScope(kind, t.current)
	t.scopeDepth++
}

func (t *Table) PopScope() {
	if t.current == t.global {
		return
	}
	t.current = t.current.parent
	t.scopeDepth--
}

func (t *Table) CurrentScope() *Scope { return t.current }
func (t *Table) GlobalScope() *Scope  { return t.global }
func (t *Table) ScopeDepth() int      { return t.scopeDepth }

func (t *Table) Define(sym *Symbol) bool { return t.current.Define(sym) }
func (t *Table) Lookup(name string) (*Symbol, bool) { return t.current.Lookup(name) }
func (t *Table) LookupLocal(name string) (*Symbol, bool) { return t.current.LookupLocal(name) }

func (t *Table) RegisterType(name string, ty types.Type) { t.typeByName[name] = ty }
func (t *Table) LookupType(name string) (types.Type, bool) {
	ty, ok := t.typeByName[name]
	return ty, ok
}

func (t *Table) InFunction() bool {
	for sc := t.current; sc != nil; sc = sc.parent {
		if sc.kind == ScopeFunction {
			return true
		}
	}
	return false
}

func (t *Table) InLoop() bool {
	for sc := t.current; sc != nil; sc = sc.parent {
		if sc.kind == ScopeLoop {
			return true
		}
		if sc.kind == ScopeFunction {
			break
		}
	}
	return false
}

func (t *Table) InUnsafe() bool { return t.current.IsUnsafe() }

// EnclosingFunction returns the nearest ScopeFunction ancestor (or the
// current scope if already at one), used to attribute locals to the right
// frame when pushing nested block scopes.
func (t *Table) EnclosingFunction() *Scope {
	for sc := t.current; sc != nil; sc = sc.parent {
		if sc.kind == ScopeFunction {
			return sc
		}
	}
	return t.global
}

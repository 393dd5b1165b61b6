// Package ownership implements TYL's Rust-style ownership, move, and
// borrow checker: a per-function Tracker that walks declarations in
// program order, mutating an OwnershipInfo record per variable name and
// reporting a diagnostic-shaped error the moment an invalid use is seen.
package ownership

import (
	"fmt"
	"sync"

	"tylc/internal/symtab"
)

// State re-exports symtab's per-symbol ownership state so callers of this
// package never need to import symtab just to name a state value.
type State = symtab.OwnershipState

const (
	Uninitialized  = symtab.Uninitialized
	Owned          = symtab.Owned
	Moved          = symtab.Moved
	BorrowedShared = symtab.BorrowedShared
	BorrowedMut    = symtab.BorrowedMut
	PartiallyMoved = symtab.PartiallyMoved
)

// ParamMode is how a function parameter receives its argument.
type ParamMode uint8

const (
	ParamOwned ParamMode = iota
	ParamBorrow
	ParamBorrowMut
	ParamCopy
)

// SourceLocation matches symtab.SourceLocation's shape so diagnostics can
// carry a position without this package importing internal/diag (which
// would create diag -> ownership -> diag-ish coupling the checker avoids).
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// Lifetime is a named lifetime parameter, e.g. 'a, 'static (spec.md §3.3).
type Lifetime struct {
	Name       string
	ScopeDepth int
	IsStatic   bool
}

// Outlives reports whether l is valid at least as long as other, per
// spec.md §4.3: 'static outlives everything, nothing outlives 'static
// except itself, otherwise a shallower (numerically smaller) scope depth
// outlives a deeper one.
func (l Lifetime) Outlives(other Lifetime) bool {
	if l.IsStatic {
		return true
	}
	if other.IsStatic {
		return false
	}
	return l.ScopeDepth <= other.ScopeDepth
}

func (l Lifetime) Equal(other Lifetime) bool { return l.Name == other.Name }

// DropInfo records a type's Drop-trait implementation, if any.
type DropInfo struct {
	TypeName        string
	HasCustomDrop   bool
	DropFunctionName string
}

// BorrowInfo is one active borrow of a variable.
type BorrowInfo struct {
	Borrower   string
	Location   SourceLocation
	IsMutable  bool
	ScopeDepth int
	Lifetime   Lifetime
}

// ParamOwnershipInfo tracks how one function parameter was passed.
type ParamOwnershipInfo struct {
	Name     string
	Mode     ParamMode
	TypeName string
	Lifetime Lifetime
	Consumed bool
}

// Info is the full ownership record kept per variable name.
type Info struct {
	State          State
	LastMoveLoc    SourceLocation
	ActiveBorrows  []BorrowInfo
	MovedFields    map[string]bool
	NeedsDrop      bool
	IsCopyType     bool
	TypeName       string
	Lifetime       Lifetime
	ParamMode      ParamMode
}

func (i *Info) IsUsable() bool {
	return i.State == Owned || i.State == BorrowedShared || i.State == BorrowedMut
}

func (i *Info) CanMove() bool {
	return i.State == Owned && len(i.ActiveBorrows) == 0
}

func (i *Info) CanBorrowShared() bool {
	if i.State == Moved || i.State == Uninitialized {
		return false
	}
	for _, b := range i.ActiveBorrows {
		if b.IsMutable {
			return false
		}
	}
	return true
}

func (i *Info) CanBorrowMut() bool {
	return i.State == Owned && len(i.ActiveBorrows) == 0
}

// dropRegistry is the process-wide table of known Drop implementations,
// mirroring OwnershipTracker::dropRegistry_'s `static` storage in the
// original — registration happens once per distinct type name regardless
// of which compile registered it first, which is safe because TYL's type
// names are globally unique strings within one process's set of compiles.
var (
	dropRegistryMu sync.Mutex
	dropRegistry   = make(map[string]DropInfo)
)

// RegisterDropType records that typeName implements Drop via dropFn.
func RegisterDropType(typeName, dropFn string) {
	dropRegistryMu.Lock()
	defer dropRegistryMu.Unlock()
	dropRegistry[typeName] = DropInfo{TypeName: typeName, HasCustomDrop: true, DropFunctionName: dropFn}
}

func GetDropInfo(typeName string) (DropInfo, bool) {
	dropRegistryMu.Lock()
	defer dropRegistryMu.Unlock()
	d, ok := dropRegistry[typeName]
	return d, ok
}

func HasCustomDrop(typeName string) bool {
	_, ok := GetDropInfo(typeName)
	return ok
}

// copyTypeNames is the builtin set of types that are implicitly Copy
// (primitives — spec.md §4.3's ownership-default rule).
var copyTypeNames = map[string]bool{
	"bool": true, "i8": true, "i16": true, "i32": true, "i64": true, "int": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f16": true, "f32": true, "f64": true, "f128": true, "float": true,
	"char": true,
}

// IsCopyType reports whether typeName is implicitly Copy.
func IsCopyType(typeName string) bool { return copyTypeNames[typeName] }

// NeedsDropType reports whether typeName requires a Drop call at scope
// exit: either it has a registered custom Drop impl, or it is a smart
// pointer / resource-owning wrapper kind named directly (Box/Rc/Arc/Mutex/
// RWLock/..., per spec.md §3.1) rather than a plain Copy primitive.
func NeedsDropType(typeName string) bool {
	if HasCustomDrop(typeName) {
		return true
	}
	switch typeName {
	case "Box", "Rc", "Arc", "Mutex", "RWLock", "Cell", "RefCell", "ThreadPool":
		return true
	}
	return false
}

// Tracker holds the live ownership state for every variable seen so far in
// the function currently being checked, plus the scope stack needed to
// compute drop order at block exit.
type Tracker struct {
	vars             map[string]*Info
	scopeVars        [][]string
	currentScopeDepth int

	currentParams []ParamOwnershipInfo
	inFunction    bool

	lifetimeCounter int
}

// NewTracker returns an empty Tracker ready to track one function body.
func NewTracker() *Tracker {
	return &Tracker{vars: make(map[string]*Info), scopeVars: [][]string{{}}}
}

// InitVar registers a freshly declared variable as Uninitialized.
func (t *Tracker) InitVar(name string, isCopyType, needsDrop bool) {
	t.InitVarTyped(name, isCopyType, needsDrop, "", ParamOwned)
}

// InitVarTyped is the overload carrying type name and parameter mode,
// mirroring the original's second initVar overload.
func (t *Tracker) InitVarTyped(name string, isCopyType, needsDrop bool, typeName string, mode ParamMode) {
	t.vars[name] = &Info{
		State:      Uninitialized,
		MovedFields: make(map[string]bool),
		NeedsDrop:  needsDrop,
		IsCopyType: isCopyType,
		TypeName:   typeName,
		ParamMode:  mode,
	}
	t.scopeVars[len(t.scopeVars)-1] = append(t.scopeVars[len(t.scopeVars)-1], name)
}

// MarkInitialized transitions a variable from Uninitialized to Owned after
// its first assignment.
func (t *Tracker) MarkInitialized(name string) {
	if info, ok := t.vars[name]; ok {
		info.State = Owned
	}
}

// RecordMove transitions name to Moved, failing if it is already moved,
// uninitialized, or currently borrowed (spec.md §4.3 state table).
func (t *Tracker) RecordMove(name string, loc SourceLocation) error {
	info, ok := t.vars[name]
	if !ok {
		return fmt.Errorf("ownership: cannot move undeclared variable %q", name)
	}
	if info.IsCopyType {
		return nil // Copy types are never actually moved.
	}
	if !info.CanMove() {
		switch info.State {
		case Moved:
			return fmt.Errorf("ownership: use of moved value %q (moved at %s)", name, locString(info.LastMoveLoc))
		case Uninitialized:
			return fmt.Errorf("ownership: cannot move uninitialized variable %q", name)
		default:
			return fmt.Errorf("ownership: cannot move %q while borrowed", name)
		}
	}
	info.State = Moved
	info.LastMoveLoc = loc
	return nil
}

// RecordBorrow records a new borrow of name, failing if it would violate
// the shared-xor-mutable invariant.
func (t *Tracker) RecordBorrow(name, borrower string, isMutable bool, loc SourceLocation, scopeDepth int) error {
	return t.RecordBorrowLifetime(name, borrower, isMutable, loc, scopeDepth, Lifetime{})
}

func (t *Tracker) RecordBorrowLifetime(name, borrower string, isMutable bool, loc SourceLocation, scopeDepth int, lt Lifetime) error {
	info, ok := t.vars[name]
	if !ok {
		return fmt.Errorf("ownership: cannot borrow undeclared variable %q", name)
	}
	if isMutable {
		if !info.CanBorrowMut() {
			return fmt.Errorf("ownership: cannot borrow %q as mutable: already borrowed or not owned", name)
		}
	} else if !info.CanBorrowShared() {
		return fmt.Errorf("ownership: cannot borrow %q as shared: moved, uninitialized, or mutably borrowed", name)
	}
	info.ActiveBorrows = append(info.ActiveBorrows, BorrowInfo{
		Borrower: borrower, Location: loc, IsMutable: isMutable, ScopeDepth: scopeDepth, Lifetime: lt,
	})
	if isMutable {
		info.State = BorrowedMut
	} else if info.State != BorrowedMut {
		info.State = BorrowedShared
	}
	return nil
}

// EndBorrowsAtScope releases every borrow recorded at or deeper than
// scopeDepth, restoring Owned state to variables with no remaining
// borrows.
func (t *Tracker) EndBorrowsAtScope(scopeDepth int) {
	for _, info := range t.vars {
		kept := info.ActiveBorrows[:0]
		for _, b := range info.ActiveBorrows {
			if b.ScopeDepth < scopeDepth {
				kept = append(kept, b)
			}
		}
		info.ActiveBorrows = kept
		if len(info.ActiveBorrows) == 0 && (info.State == BorrowedShared || info.State == BorrowedMut) {
			info.State = Owned
		}
	}
}

// CheckUsable returns an error if name is not currently in a usable state
// (Owned/BorrowedShared/BorrowedMut).
func (t *Tracker) CheckUsable(name string, loc SourceLocation) error {
	info, ok := t.vars[name]
	if !ok {
		return fmt.Errorf("ownership: undeclared variable %q", name)
	}
	if !info.IsUsable() {
		switch info.State {
		case Moved:
			return fmt.Errorf("ownership: use of moved value %q (moved at %s)", name, locString(info.LastMoveLoc))
		case Uninitialized:
			return fmt.Errorf("ownership: use of uninitialized variable %q", name)
		case PartiallyMoved:
			return fmt.Errorf("ownership: use of partially moved value %q", name)
		}
	}
	return nil
}

// CheckCanBorrow returns an error if name cannot currently be borrowed with
// the requested mutability.
func (t *Tracker) CheckCanBorrow(name string, isMutable bool, loc SourceLocation) error {
	info, ok := t.vars[name]
	if !ok {
		return fmt.Errorf("ownership: undeclared variable %q", name)
	}
	if isMutable && !info.CanBorrowMut() {
		return fmt.Errorf("ownership: cannot borrow %q mutably here", name)
	}
	if !isMutable && !info.CanBorrowShared() {
		return fmt.Errorf("ownership: cannot borrow %q as shared here", name)
	}
	return nil
}

// GetDropsForScope returns the variables declared in the current (innermost)
// scope that still need a Drop call, in reverse declaration order (spec.md
// §4.3's drop scheduling).
func (t *Tracker) GetDropsForScope() []string {
	decl := t.scopeVars[len(t.scopeVars)-1]
	var out []string
	for i := len(decl) - 1; i >= 0; i-- {
		name := decl[i]
		info, ok := t.vars[name]
		if !ok || !info.NeedsDrop {
			continue
		}
		if info.State == Moved {
			continue // ownership left; nothing to drop here
		}
		out = append(out, name)
	}
	return out
}

func (t *Tracker) GetInfo(name string) (*Info, bool) {
	info, ok := t.vars[name]
	return info, ok
}

// PushScope/PopScope bracket a lexical block; PopScope ends borrows that
// originated at the departing depth and forgets its declared-variable
// list (the variables themselves remain visible to drop emission via the
// codegen layer, which calls GetDropsForScope before PopScope).
func (t *Tracker) PushScope() {
	t.currentScopeDepth++
	t.scopeVars = append(t.scopeVars, []string{})
}

func (t *Tracker) PopScope() {
	t.EndBorrowsAtScope(t.currentScopeDepth)
	if len(t.scopeVars) > 1 {
		t.scopeVars = t.scopeVars[:len(t.scopeVars)-1]
	}
	if t.currentScopeDepth > 0 {
		t.currentScopeDepth--
	}
}

// Clone returns a deep-enough copy of t suitable for exploring a nested
// scope independently (e.g. the two arms of an if/else for a future
// flow-sensitive merge); the original's OwnershipTracker::clone() copies
// the vars_ map by value, which this mirrors.
func (t *Tracker) Clone() *Tracker {
	c := &Tracker{
		vars:              make(map[string]*Info, len(t.vars)),
		scopeVars:         make([][]string, len(t.scopeVars)),
		currentScopeDepth: t.currentScopeDepth,
		currentParams:     append([]ParamOwnershipInfo{}, t.currentParams...),
		inFunction:        t.inFunction,
		lifetimeCounter:   t.lifetimeCounter,
	}
	for k, v := range t.vars {
		cp := *v
		cp.ActiveBorrows = append([]BorrowInfo{}, v.ActiveBorrows...)
		cp.MovedFields = make(map[string]bool, len(v.MovedFields))
		for f := range v.MovedFields {
			cp.MovedFields[f] = true
		}
		c.vars[k] = &cp
	}
	for i, sv := range t.scopeVars {
		c.scopeVars[i] = append([]string{}, sv...)
	}
	return c
}

// EnterFunction registers a function's parameters with their passing modes
// and initializes each as Owned/BorrowedShared/BorrowedMut accordingly.
func (t *Tracker) EnterFunction(params []ParamOwnershipInfo) {
	t.currentParams = params
	t.inFunction = true
	for _, p := range params {
		state := Owned
		switch p.Mode {
		case ParamBorrow:
			state = BorrowedShared
		case ParamBorrowMut:
			state = BorrowedMut
		case ParamCopy:
			state = Owned
		}
		t.vars[p.Name] = &Info{
			State:       state,
			MovedFields: make(map[string]bool),
			IsCopyType:  p.Mode == ParamCopy,
			TypeName:    p.TypeName,
			Lifetime:    p.Lifetime,
			ParamMode:   p.Mode,
		}
		t.scopeVars[0] = append(t.scopeVars[0], p.Name)
	}
}

func (t *Tracker) ExitFunction() {
	t.currentParams = nil
	t.inFunction = false
}

// CheckParamUsage validates a use (or move) of a by-reference parameter:
// borrowed parameters may be read freely but a move of a BORROW/BORROW_MUT
// parameter is always rejected (the callee does not own the value).
func (t *Tracker) CheckParamUsage(name string, isMove bool, loc SourceLocation) error {
	for i := range t.currentParams {
		p := &t.currentParams[i]
		if p.Name != name {
			continue
		}
		if isMove {
			if p.Mode == ParamBorrow || p.Mode == ParamBorrowMut {
				return fmt.Errorf("ownership: cannot move out of borrowed parameter %q", name)
			}
			p.Consumed = true
		}
		return nil
	}
	return nil // not a parameter; caller falls through to normal variable rules
}

// RestoreOwnership resets name back to Owned with no active borrows,
// used after a reassignment gives a moved-from or borrowed variable a
// fresh value.
func (t *Tracker) RestoreOwnership(name string) {
	if info, ok := t.vars[name]; ok {
		info.State = Owned
		info.ActiveBorrows = nil
		info.MovedFields = make(map[string]bool)
	}
}

// CreateLifetime allocates a fresh, uniquely named lifetime scoped to the
// tracker's current depth.
func (t *Tracker) CreateLifetime(name string) Lifetime {
	t.lifetimeCounter++
	if name == "" {
		name = fmt.Sprintf("'L%d", t.lifetimeCounter)
	}
	return Lifetime{Name: name, ScopeDepth: t.currentScopeDepth}
}

func (t *Tracker) SetLifetime(varName string, lt Lifetime) {
	if info, ok := t.vars[varName]; ok {
		info.Lifetime = lt
	}
}

// CheckLifetimeValid enforces that a borrow's lifetime does not outlive
// the lifetime of the value it borrows from (spec.md §4.3's lifetime
// elision / validity rule).
func (t *Tracker) CheckLifetimeValid(borrow, borrowed Lifetime, loc SourceLocation) error {
	if !borrowed.Outlives(borrow) {
		return fmt.Errorf("ownership: borrow %s does not live as long as %s at %s", borrow.Name, borrowed.Name, locString(loc))
	}
	return nil
}

func locString(loc SourceLocation) string {
	if loc.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

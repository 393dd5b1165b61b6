// Package types implements the TYL type system: a tagged-variant type
// representation, a per-compilation interning registry, and the trait,
// concept, and effect tables the checker and code generator consult.
package types

import "fmt"

// Kind tags every type variant the compiler understands.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindIntDefault
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindFloat128
	KindFloatDefault
	KindComplex64
	KindComplex128
	KindBigInt
	KindBigFloat
	KindDecimal
	KindRational
	KindFixedPoint
	KindVec2
	KindVec3
	KindVec4
	KindMat2
	KindMat3
	KindMat4
	KindString
	KindChar
	KindStrView
	KindByteArray
	KindPtr
	KindList
	KindMap
	KindRecord
	KindFunction
	KindTypeParam
	KindValueParam
	KindGeneric
	KindDependent
	KindRefined
	KindTrait
	KindTraitObject
	KindConcept
	KindFixedArray
	KindChannel
	KindMutex
	KindRWLock
	KindCond
	KindSemaphore
	KindAtomic
	KindFuture
	KindThreadPool
	KindCancelToken
	KindBox
	KindRc
	KindArc
	KindWeak
	KindCell
	KindRefCell
	KindEffect
	KindEffectful
	KindTypeConstructor
	KindHKTApplication
	KindAny
	KindNever
	KindUnknown
	KindError
)

// Type is satisfied by every variant below. Compound variants are pointer
// receivers so Equals/String can be defined once per concrete shape; the
// registry interns only the zero-argument primitive/singleton kinds.
type Type interface {
	Kind() Kind
	String() string
	Equals(other Type) bool
	Size() int64
	Align() int64
	Flags() *Attrs
}

// Attrs holds the attributes every type carries, per spec.md §3.1.
type Attrs struct {
	Mutable  bool
	Nullable bool
}

func (a *Attrs) Flags() *Attrs { return a }

// primitiveSizes gives the fixed byte size for every primitive kind (0 for
// kinds whose size is not statically fixed, e.g. BigInt).
var primitiveSizes = map[Kind]int64{
	KindVoid:         0,
	KindBool:         1,
	KindInt8:         1,
	KindUint8:        1,
	KindChar:         1,
	KindInt16:        2,
	KindUint16:       2,
	KindFloat16:      2,
	KindInt32:        4,
	KindUint32:       4,
	KindFloat32:      4,
	KindComplex64:    8,
	KindInt64:        8,
	KindUint64:       8,
	KindIntDefault:   8,
	KindFloat64:      8,
	KindFloatDefault: 8,
	KindFloat128:     16,
	KindComplex128:   16,
	KindPtr:          8,
}

// Primitive is every type with no sub-structure: Void, Bool, the sized
// integer/float/complex families, String/Char/StrView/ByteArray, and the
// sentinel kinds Any/Never/Unknown/Error.
type Primitive struct {
	Attrs
	kind Kind
}

func (p *Primitive) Kind() Kind { return p.kind }

func (p *Primitive) String() string {
	if s, ok := primitiveNames[p.kind]; ok {
		return decorate(p, s)
	}
	return fmt.Sprintf("<primitive:%d>", p.kind)
}

func (p *Primitive) Equals(other Type) bool {
	o, ok := other.(*Primitive)
	return ok && o.kind == p.kind
}

func (p *Primitive) Size() int64 {
	if s, ok := primitiveSizes[p.kind]; ok {
		return s
	}
	return 0
}

func (p *Primitive) Align() int64 {
	if s := p.Size(); s > 0 {
		return s
	}
	return 8
}

var primitiveNames = map[Kind]string{
	KindVoid:         "void",
	KindBool:         "bool",
	KindInt8:         "i8",
	KindInt16:        "i16",
	KindInt32:        "i32",
	KindInt64:        "i64",
	KindIntDefault:   "int",
	KindUint8:        "u8",
	KindUint16:       "u16",
	KindUint32:       "u32",
	KindUint64:       "u64",
	KindFloat16:      "f16",
	KindFloat32:      "f32",
	KindFloat64:      "f64",
	KindFloat128:     "f128",
	KindFloatDefault: "float",
	KindComplex64:    "complex64",
	KindComplex128:   "complex128",
	KindBigInt:       "bigint",
	KindBigFloat:     "bigfloat",
	KindDecimal:      "decimal",
	KindRational:     "rational",
	KindString:       "str",
	KindChar:         "char",
	KindStrView:      "strview",
	KindByteArray:    "bytearray",
	KindAny:          "any",
	KindNever:        "never",
	KindUnknown:      "unknown",
	KindError:        "error",
}

func decorate(t Type, core string) string {
	f := t.Flags()
	s := core
	if f.Nullable {
		s += "?"
	}
	return s
}

// Ptr models both `&T`/`&mut T` references (isRaw=false) and `*T` raw
// pointers (isRaw=true); spec.md §3.1 folds Ptr/Ref into one tagged variant.
type Ptr struct {
	Attrs
	Pointee Type
	IsRaw   bool
}

func (p *Ptr) Kind() Kind { return KindPtr }

func (p *Ptr) String() string {
	prefix := "&"
	if p.IsRaw {
		prefix = "*"
	} else if p.Mutable {
		prefix = "&mut "
	}
	return decorate(p, prefix+p.Pointee.String())
}

func (p *Ptr) Equals(other Type) bool {
	o, ok := other.(*Ptr)
	return ok && o.IsRaw == p.IsRaw && o.Pointee.Equals(p.Pointee)
}

func (p *Ptr) Size() int64  { return 8 }
func (p *Ptr) Align() int64 { return 8 }

// List is the dynamically sized `[T]` type.
type List struct {
	Attrs
	Elem Type
}

func (l *List) Kind() Kind   { return KindList }
func (l *List) String() string { return decorate(l, "["+l.Elem.String()+"]") }
func (l *List) Equals(other Type) bool {
	o, ok := other.(*List)
	return ok && o.Elem.Equals(l.Elem)
}
func (l *List) Size() int64  { return 24 } // ptr + len + cap, slice-shaped
func (l *List) Align() int64 { return 8 }

// FixedArray is `[T;N]`; a placeholder size of 0 means the dependent-type
// param N has not yet been instantiated (spec.md §4.1 instantiateDependentType).
type FixedArray struct {
	Attrs
	Elem Type
	Size_ int64
}

func (a *FixedArray) Kind() Kind   { return KindFixedArray }
func (a *FixedArray) String() string {
	return decorate(a, fmt.Sprintf("[%s;%d]", a.Elem.String(), a.Size_))
}
func (a *FixedArray) Equals(other Type) bool {
	o, ok := other.(*FixedArray)
	return ok && o.Size_ == a.Size_ && o.Elem.Equals(a.Elem)
}
func (a *FixedArray) Size() int64  { return a.Elem.Size() * a.Size_ }
func (a *FixedArray) Align() int64 { return a.Elem.Align() }

// Map is `map[K]V`.
type Map struct {
	Attrs
	Key, Val Type
}

func (m *Map) Kind() Kind   { return KindMap }
func (m *Map) String() string { return decorate(m, "map["+m.Key.String()+"]"+m.Val.String()) }
func (m *Map) Equals(other Type) bool {
	o, ok := other.(*Map)
	return ok && o.Key.Equals(m.Key) && o.Val.Equals(m.Val)
}
func (m *Map) Size() int64  { return 8 } // opaque handle into the runtime map
func (m *Map) Align() int64 { return 8 }

// RecordField is one named, possibly defaulted, field of a Record.
type RecordField struct {
	Name       string
	Type       Type
	HasDefault bool
}

// Record is a named struct (or anonymous literal before naming). Equality
// is nominal when Name is non-empty (spec.md §3.1).
type Record struct {
	Attrs
	Name   string
	Fields []RecordField
}

func (r *Record) Kind() Kind { return KindRecord }
func (r *Record) String() string {
	if r.Name != "" {
		return decorate(r, r.Name)
	}
	s := "{"
	for i, f := range r.Fields {
		if i > 0 {
			s += ","
		}
		s += f.Name + ":" + f.Type.String()
	}
	return decorate(r, s+"}")
}
func (r *Record) Equals(other Type) bool {
	o, ok := other.(*Record)
	if !ok {
		return false
	}
	if r.Name != "" || o.Name != "" {
		return r.Name == o.Name
	}
	if len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i].Name != o.Fields[i].Name || !r.Fields[i].Type.Equals(o.Fields[i].Type) {
			return false
		}
	}
	return true
}
func (r *Record) Size() int64 {
	var total int64
	for _, f := range r.Fields {
		total += alignUp(total, f.Type.Align()) - total + f.Type.Size()
	}
	return alignUp(total, r.Align())
}
func (r *Record) Align() int64 {
	var a int64 = 1
	for _, f := range r.Fields {
		if fa := f.Type.Align(); fa > a {
			a = fa
		}
	}
	return a
}
func (r *Record) Field(name string) (RecordField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return RecordField{}, false
}

func alignUp(off, align int64) int64 {
	if align <= 1 {
		return off
	}
	return (off + align - 1) / align * align
}

// Function is `fn(params...) -> ret`, optionally variadic and/or generic.
// Instantiation (spec.md §4.1 instantiateGeneric) clears TypeParams.
type Function struct {
	Attrs
	Params     []Type
	ParamNames []string
	Ret        Type
	Variadic   bool
	TypeParams []*TypeParam
}

func (f *Function) Kind() Kind { return KindFunction }
func (f *Function) String() string {
	s := "fn("
	for i, p := range f.Params {
		if i > 0 {
			s += ","
		}
		s += p.String()
	}
	if f.Variadic {
		s += "..."
	}
	s += ") -> " + f.Ret.String()
	return decorate(f, s)
}
func (f *Function) Equals(other Type) bool {
	o, ok := other.(*Function)
	if !ok || len(o.Params) != len(f.Params) || o.Variadic != f.Variadic || !o.Ret.Equals(f.Ret) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}
func (f *Function) Size() int64  { return 8 }
func (f *Function) Align() int64 { return 8 }

// TypeParam is a generic type parameter, e.g. `T` in `fn id[T](x: T) -> T`.
type TypeParam struct {
	Attrs
	Name    string
	Bounds  []string
	Default Type
}

func (t *TypeParam) Kind() Kind   { return KindTypeParam }
func (t *TypeParam) String() string { return decorate(t, t.Name) }
func (t *TypeParam) Equals(other Type) bool {
	o, ok := other.(*TypeParam)
	return ok && o.Name == t.Name
}
func (t *TypeParam) Size() int64  { return 0 }
func (t *TypeParam) Align() int64 { return 1 }

// ValueParam is a dependent-type value parameter, e.g. `N: int` in
// `Vector[T, N: int]`.
type ValueParam struct {
	Attrs
	Name      string
	ValueType Type
	Value     *int64
}

func (v *ValueParam) Kind() Kind { return KindValueParam }
func (v *ValueParam) String() string {
	s := v.Name + ":" + v.ValueType.String()
	if v.Value != nil {
		s = fmt.Sprintf("%s=%d", s, *v.Value)
	}
	return decorate(v, s)
}
func (v *ValueParam) Equals(other Type) bool {
	o, ok := other.(*ValueParam)
	return ok && o.Name == v.Name
}
func (v *ValueParam) Size() int64  { return 0 }
func (v *ValueParam) Align() int64 { return 1 }

// Generic is an unresolved instantiation, e.g. `Pair[int, str]`. Resolved
// becomes non-nil once substitution has produced a concrete shape.
type Generic struct {
	Attrs
	BaseName string
	Args     []Type
	Resolved Type
}

func (g *Generic) Kind() Kind { return KindGeneric }
func (g *Generic) String() string {
	s := g.BaseName + "["
	for i, a := range g.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return decorate(g, s+"]")
}
func (g *Generic) Equals(other Type) bool {
	o, ok := other.(*Generic)
	if !ok || o.BaseName != g.BaseName || len(o.Args) != len(g.Args) {
		return false
	}
	for i := range g.Args {
		if !g.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}
func (g *Generic) Size() int64 {
	if g.Resolved != nil {
		return g.Resolved.Size()
	}
	return 0
}
func (g *Generic) Align() int64 {
	if g.Resolved != nil {
		return g.Resolved.Align()
	}
	return 8
}

// Dependent is a named dependent-type definition, e.g.
// `type Vector[T, N: int] = [T;N]`.
type Dependent struct {
	Attrs
	Name     string
	Params   []Type // mix of *TypeParam and *ValueParam
	BaseType Type
}

func (d *Dependent) Kind() Kind   { return KindDependent }
func (d *Dependent) String() string { return decorate(d, d.Name) }
func (d *Dependent) Equals(other Type) bool {
	o, ok := other.(*Dependent)
	return ok && o.Name == d.Name
}
func (d *Dependent) Size() int64  { return d.BaseType.Size() }
func (d *Dependent) Align() int64 { return d.BaseType.Align() }

// Refined is a named subtype carrying a constraint, e.g.
// `type NonEmpty[T] = [T] where len(_) > 0`.
type Refined struct {
	Attrs
	Name           string
	BaseType       Type
	ConstraintText string
}

func (r *Refined) Kind() Kind   { return KindRefined }
func (r *Refined) String() string { return decorate(r, r.Name) }
func (r *Refined) Equals(other Type) bool {
	o, ok := other.(*Refined)
	return ok && o.Name == r.Name
}
func (r *Refined) Size() int64  { return r.BaseType.Size() }
func (r *Refined) Align() int64 { return r.BaseType.Align() }

// TraitObject is `dyn Trait`.
type TraitObject struct {
	Attrs
	TraitName string
}

func (t *TraitObject) Kind() Kind   { return KindTraitObject }
func (t *TraitObject) String() string { return decorate(t, "dyn "+t.TraitName) }
func (t *TraitObject) Equals(other Type) bool {
	o, ok := other.(*TraitObject)
	return ok && o.TraitName == t.TraitName
}
func (t *TraitObject) Size() int64  { return 16 } // {data ptr, vtable ptr}
func (t *TraitObject) Align() int64 { return 8 }

// Channel is `chan[T]` / `chan[T, N]`.
type Channel struct {
	Attrs
	Elem    Type
	BufSize int
}

func (c *Channel) Kind() Kind { return KindChannel }
func (c *Channel) String() string {
	if c.BufSize > 0 {
		return decorate(c, fmt.Sprintf("chan[%s,%d]", c.Elem.String(), c.BufSize))
	}
	return decorate(c, "chan["+c.Elem.String()+"]")
}
func (c *Channel) Equals(other Type) bool {
	o, ok := other.(*Channel)
	return ok && o.BufSize == c.BufSize && o.Elem.Equals(c.Elem)
}
func (c *Channel) Size() int64  { return 8 }
func (c *Channel) Align() int64 { return 8 }

// wrapper1 is the shape shared by every single-type-argument bracketed
// constructor: Mutex/RWLock/Atomic/Future/Box/Rc/Arc/Cell/RefCell.
type wrapper1 struct {
	Attrs
	kind Kind
	name string
	Elem Type
}

func (w *wrapper1) Kind() Kind   { return w.kind }
func (w *wrapper1) String() string { return decorate(w, w.name+"["+w.Elem.String()+"]") }
func (w *wrapper1) Equals(other Type) bool {
	o, ok := other.(*wrapper1)
	return ok && o.kind == w.kind && o.Elem.Equals(w.Elem)
}
func (w *wrapper1) Size() int64 {
	switch w.kind {
	case KindRc, KindArc:
		return 8 + w.Elem.Size()
	case KindWeak:
		return 16
	default:
		return 8
	}
}
func (w *wrapper1) Align() int64 { return 8 }

func newMutex(e Type) *wrapper1    { return &wrapper1{kind: KindMutex, name: "Mutex", Elem: e} }
func newRWLock(e Type) *wrapper1   { return &wrapper1{kind: KindRWLock, name: "RWLock", Elem: e} }
func newAtomic(e Type) *wrapper1   { return &wrapper1{kind: KindAtomic, name: "Atomic", Elem: e} }
func newFuture(e Type) *wrapper1   { return &wrapper1{kind: KindFuture, name: "Future", Elem: e} }
func newBox(e Type) *wrapper1      { return &wrapper1{kind: KindBox, name: "Box", Elem: e} }
func newRc(e Type) *wrapper1       { return &wrapper1{kind: KindRc, name: "Rc", Elem: e} }
func newArc(e Type) *wrapper1      { return &wrapper1{kind: KindArc, name: "Arc", Elem: e} }
func newCell(e Type) *wrapper1     { return &wrapper1{kind: KindCell, name: "Cell", Elem: e} }
func newRefCell(e Type) *wrapper1  { return &wrapper1{kind: KindRefCell, name: "RefCell", Elem: e} }

// Weak is `Weak[T]`, distinguished from the other wrapper1 kinds by
// IsAtomic (true when downgraded from an Arc rather than an Rc).
type Weak struct {
	Attrs
	Elem     Type
	IsAtomic bool
}

func (w *Weak) Kind() Kind { return KindWeak }
func (w *Weak) String() string {
	return decorate(w, "Weak["+w.Elem.String()+"]")
}
func (w *Weak) Equals(other Type) bool {
	o, ok := other.(*Weak)
	return ok && o.IsAtomic == w.IsAtomic && o.Elem.Equals(w.Elem)
}
func (w *Weak) Size() int64  { return 16 }
func (w *Weak) Align() int64 { return 8 }

// singleton is every zero-field bracketed/standalone kind that carries no
// sub-type: Cond, Semaphore, ThreadPool, CancelToken.
type singleton struct {
	Attrs
	kind Kind
	name string
}

func (s *singleton) Kind() Kind   { return s.kind }
func (s *singleton) String() string { return decorate(s, s.name) }
func (s *singleton) Equals(other Type) bool {
	o, ok := other.(*singleton)
	return ok && o.kind == s.kind
}
func (s *singleton) Size() int64  { return 8 }
func (s *singleton) Align() int64 { return 8 }

// BigInt/BigFloat/Decimal/Rational are all handle-sized (pointer into a
// runtime-owned arbitrary-precision buffer); modelled as singletons too,
// distinct from the Primitive family because they are never interned by
// size table (Size() reported as pointer-sized handle, not 0).
func newBigInt() *singleton   { return &singleton{kind: KindBigInt, name: "bigint"} }
func newBigFloat() *singleton { return &singleton{kind: KindBigFloat, name: "bigfloat"} }
func newDecimal() *singleton  { return &singleton{kind: KindDecimal, name: "decimal"} }
func newRational() *singleton { return &singleton{kind: KindRational, name: "rational"} }
func newCond() *singleton        { return &singleton{kind: KindCond, name: "Cond"} }
func newSemaphore() *singleton   { return &singleton{kind: KindSemaphore, name: "Semaphore"} }
func newThreadPool() *singleton  { return &singleton{kind: KindThreadPool, name: "ThreadPool"} }
func newCancelToken() *singleton { return &singleton{kind: KindCancelToken, name: "CancelToken"} }

// FixedPoint is `Fixed[total,frac]`.
type FixedPoint struct {
	Attrs
	TotalBits, FracBits int
}

func (f *FixedPoint) Kind() Kind { return KindFixedPoint }
func (f *FixedPoint) String() string {
	return decorate(f, fmt.Sprintf("Fixed[%d,%d]", f.TotalBits, f.FracBits))
}
func (f *FixedPoint) Equals(other Type) bool {
	o, ok := other.(*FixedPoint)
	return ok && o.TotalBits == f.TotalBits && o.FracBits == f.FracBits
}
func (f *FixedPoint) Size() int64  { return int64(f.TotalBits / 8) }
func (f *FixedPoint) Align() int64 { return f.Size() }

// Vec is Vec2/Vec3/Vec4; Mat is Mat2/Mat3/Mat4. Both carry an element type
// (typically f32 or f64) and a lane count.
type Vec struct {
	Attrs
	kind Kind
	Elem Type
	N    int
}

func (v *Vec) Kind() Kind { return v.kind }
func (v *Vec) String() string {
	return decorate(v, fmt.Sprintf("Vec%d[%s]", v.N, v.Elem.String()))
}
func (v *Vec) Equals(other Type) bool {
	o, ok := other.(*Vec)
	return ok && o.kind == v.kind && o.Elem.Equals(v.Elem)
}
func (v *Vec) Size() int64  { return v.Elem.Size() * int64(v.N) }
func (v *Vec) Align() int64 { return 16 }

type Mat struct {
	Attrs
	kind Kind
	Elem Type
	N    int
}

func (m *Mat) Kind() Kind { return m.kind }
func (m *Mat) String() string {
	return decorate(m, fmt.Sprintf("Mat%d[%s]", m.N, m.Elem.String()))
}
func (m *Mat) Equals(other Type) bool {
	o, ok := other.(*Mat)
	return ok && o.kind == m.kind && o.Elem.Equals(m.Elem)
}
func (m *Mat) Size() int64  { return m.Elem.Size() * int64(m.N*m.N) }
func (m *Mat) Align() int64 { return 16 }

// TypeConstructor and HKTApplication model higher-kinded types, e.g.
// `Functor[F[_]]` and the application `F[A]`.
type TypeConstructor struct {
	Attrs
	Name   string
	Arity  int
	Bounds []string
}

func (t *TypeConstructor) Kind() Kind   { return KindTypeConstructor }
func (t *TypeConstructor) String() string { return decorate(t, t.Name+"[_]") }
func (t *TypeConstructor) Equals(other Type) bool {
	o, ok := other.(*TypeConstructor)
	return ok && o.Name == t.Name
}
func (t *TypeConstructor) Size() int64  { return 0 }
func (t *TypeConstructor) Align() int64 { return 1 }

type HKTApplication struct {
	Attrs
	CtorName string
	Ctor     Type
	Args     []Type
}

func (h *HKTApplication) Kind() Kind { return KindHKTApplication }
func (h *HKTApplication) String() string {
	s := h.CtorName + "["
	for i, a := range h.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return decorate(h, s+"]")
}
func (h *HKTApplication) Equals(other Type) bool {
	o, ok := other.(*HKTApplication)
	if !ok || o.CtorName != h.CtorName || len(o.Args) != len(h.Args) {
		return false
	}
	for i := range h.Args {
		if !h.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}
func (h *HKTApplication) Size() int64  { return 0 }
func (h *HKTApplication) Align() int64 { return 1 }

// Effectful is `fn(...) -> T with E1, E2`.
type Effectful struct {
	Attrs
	Base    Type
	Effects []*Effect
}

func (e *Effectful) Kind() Kind { return KindEffectful }
func (e *Effectful) String() string {
	s := e.Base.String()
	if len(e.Effects) > 0 {
		s += " with "
		for i, eff := range e.Effects {
			if i > 0 {
				s += ","
			}
			s += eff.Name
		}
	}
	return decorate(e, s)
}
func (e *Effectful) Equals(other Type) bool {
	o, ok := other.(*Effectful)
	return ok && o.Base.Equals(e.Base)
}
func (e *Effectful) Size() int64  { return e.Base.Size() }
func (e *Effectful) Align() int64 { return e.Base.Align() }

// IsNumeric reports whether t is an integer, float, or complex primitive
// (and the arbitrary-precision/fixed-point families), matching the
// original's Type::isNumeric.
func IsNumeric(t Type) bool {
	return IsInteger(t) || IsFloat(t) || IsComplex(t) ||
		t.Kind() == KindBigInt || t.Kind() == KindBigFloat ||
		t.Kind() == KindDecimal || t.Kind() == KindRational || t.Kind() == KindFixedPoint
}

func IsInteger(t Type) bool {
	switch t.Kind() {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindIntDefault,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}

func IsFloat(t Type) bool {
	switch t.Kind() {
	case KindFloat16, KindFloat32, KindFloat64, KindFloat128, KindFloatDefault:
		return true
	}
	return false
}

func IsComplex(t Type) bool {
	return t.Kind() == KindComplex64 || t.Kind() == KindComplex128
}

func IsPointer(t Type) bool {
	_, ok := t.(*Ptr)
	return ok
}

func IsReference(t Type) bool {
	p, ok := t.(*Ptr)
	return ok && !p.IsRaw
}

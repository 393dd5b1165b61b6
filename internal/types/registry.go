package types

import (
	"strconv"
	"strings"
	"sync"
)

// Registry is the per-compilation type universe: it interns primitives,
// constructs compound types, and owns the trait/concept/effect tables the
// checker consults. One Registry is created per pipeline.Run call (spec.md
// §4.1's "TypeRegistry singleton" is per-compilation here, not a package
// init()-time global, since a single test binary runs many compiles).
type Registry struct {
	mu sync.Mutex

	primitives map[Kind]*Primitive
	singles    map[Kind]*singleton

	traits   map[string]*Trait
	concepts map[string]*Concept
	effects  map[string]*Effect
	impls    []*TraitImpl

	dependents map[string]*Dependent
	refined    map[string]*Refined

	// instCache memoizes instantiateGeneric by mangled key so repeated
	// instantiation requests for the same (base, args) are idempotent.
	instCache map[string]Type
}

// NewRegistry builds a Registry with every primitive kind pre-interned.
func NewRegistry() *Registry {
	r := &Registry{
		primitives: make(map[Kind]*Primitive),
		singles:    make(map[Kind]*singleton),
		traits:     make(map[string]*Trait),
		concepts:   make(map[string]*Concept),
		effects:    make(map[string]*Effect),
		dependents: make(map[string]*Dependent),
		refined:    make(map[string]*Refined),
		instCache:  make(map[string]Type),
	}
	for k := range primitiveNames {
		r.primitives[k] = &Primitive{kind: k}
	}
	r.registerBuiltinTraits()
	return r
}

// Primitive returns the interned instance for kind, panicking if kind is
// not a primitive — callers are expected to pass only primitive kinds.
func (r *Registry) Primitive(kind Kind) *Primitive {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.primitives[kind]
	if !ok {
		panic("types: not a primitive kind")
	}
	return p
}

func (r *Registry) Void() Type    { return r.Primitive(KindVoid) }
func (r *Registry) Bool() Type    { return r.Primitive(KindBool) }
func (r *Registry) Int() Type     { return r.Primitive(KindIntDefault) }
func (r *Registry) Float() Type   { return r.Primitive(KindFloatDefault) }
func (r *Registry) Str() Type     { return r.Primitive(KindString) }
func (r *Registry) Char() Type    { return r.Primitive(KindChar) }
func (r *Registry) AnyType() Type { return r.Primitive(KindAny) }
func (r *Registry) NeverType() Type { return r.Primitive(KindNever) }
func (r *Registry) ErrorType() Type { return r.Primitive(KindError) }

func (r *Registry) single(kind Kind, name string) *singleton {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.singles[kind]; ok {
		return s
	}
	s := &singleton{kind: kind, name: name}
	r.singles[kind] = s
	return s
}

func (r *Registry) BigInt() Type   { return r.single(KindBigInt, "bigint") }
func (r *Registry) BigFloat() Type { return r.single(KindBigFloat, "bigfloat") }
func (r *Registry) Decimal() Type  { return r.single(KindDecimal, "decimal") }
func (r *Registry) Rational() Type { return r.single(KindRational, "rational") }
func (r *Registry) Cond() Type        { return r.single(KindCond, "Cond") }
func (r *Registry) Semaphore() Type   { return r.single(KindSemaphore, "Semaphore") }
func (r *Registry) ThreadPool() Type  { return r.single(KindThreadPool, "ThreadPool") }
func (r *Registry) CancelToken() Type { return r.single(KindCancelToken, "CancelToken") }

// Compound constructors are not interned — each call allocates a fresh
// value, matching the original's heap-allocated Type nodes. Equality goes
// through Type.Equals, not pointer identity.
func (r *Registry) NewPtr(elem Type, mutable, raw bool) Type {
	p := &Ptr{Pointee: elem, IsRaw: raw}
	p.Mutable = mutable
	return p
}

func (r *Registry) NewList(elem Type) Type { return &List{Elem: elem} }

func (r *Registry) NewFixedArray(elem Type, n int64) Type {
	return &FixedArray{Elem: elem, Size_: n}
}

func (r *Registry) NewMap(key, val Type) Type { return &Map{Key: key, Val: val} }

func (r *Registry) NewRecord(name string, fields []RecordField) *Record {
	return &Record{Name: name, Fields: fields}
}

func (r *Registry) NewFunction(params []Type, names []string, ret Type, variadic bool) *Function {
	return &Function{Params: params, ParamNames: names, Ret: ret, Variadic: variadic}
}

func (r *Registry) NewTypeParam(name string, bounds []string, def Type) *TypeParam {
	return &TypeParam{Name: name, Bounds: bounds, Default: def}
}

func (r *Registry) NewValueParam(name string, vt Type) *ValueParam {
	return &ValueParam{Name: name, ValueType: vt}
}

func (r *Registry) NewGeneric(base string, args []Type) *Generic {
	return &Generic{BaseName: base, Args: args}
}

func (r *Registry) NewTraitObject(name string) Type { return &TraitObject{TraitName: name} }

func (r *Registry) NewChannel(elem Type, bufSize int) Type {
	return &Channel{Elem: elem, BufSize: bufSize}
}

func (r *Registry) NewMutex(e Type) Type     { return newMutex(e) }
func (r *Registry) NewRWLock(e Type) Type    { return newRWLock(e) }
func (r *Registry) NewAtomic(e Type) Type    { return newAtomic(e) }
func (r *Registry) NewFuture(e Type) Type    { return newFuture(e) }
func (r *Registry) NewBox(e Type) Type       { return newBox(e) }
func (r *Registry) NewRc(e Type) Type        { return newRc(e) }
func (r *Registry) NewArc(e Type) Type       { return newArc(e) }
func (r *Registry) NewCell(e Type) Type      { return newCell(e) }
func (r *Registry) NewRefCell(e Type) Type   { return newRefCell(e) }
func (r *Registry) NewWeak(e Type, atomic bool) Type {
	return &Weak{Elem: e, IsAtomic: atomic}
}

func (r *Registry) NewFixedPoint(total, frac int) Type {
	return &FixedPoint{TotalBits: total, FracBits: frac}
}

func (r *Registry) NewVec(kind Kind, elem Type, n int) Type { return &Vec{kind: kind, Elem: elem, N: n} }
func (r *Registry) NewMat(kind Kind, elem Type, n int) Type { return &Mat{kind: kind, Elem: elem, N: n} }

func (r *Registry) NewTypeConstructor(name string, arity int, bounds []string) *TypeConstructor {
	return &TypeConstructor{Name: name, Arity: arity, Bounds: bounds}
}

func (r *Registry) NewHKTApplication(ctorName string, ctor Type, args []Type) *HKTApplication {
	return &HKTApplication{CtorName: ctorName, Ctor: ctor, Args: args}
}

func (r *Registry) NewEffectful(base Type, effects []*Effect) Type {
	return &Effectful{Base: base, Effects: effects}
}

// DefineDependent registers a named dependent type (spec.md §3.1/§4.1,
// e.g. `type Vector[T, N: int] = [T;N]`).
func (r *Registry) DefineDependent(name string, params []Type, base Type) *Dependent {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &Dependent{Name: name, Params: params, BaseType: base}
	r.dependents[name] = d
	return d
}

func (r *Registry) LookupDependent(name string) (*Dependent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dependents[name]
	return d, ok
}

// DefineRefined registers a named refinement type, e.g.
// `type NonEmpty[T] = [T] where len(_) > 0`.
func (r *Registry) DefineRefined(name string, base Type, constraint string) *Refined {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt := &Refined{Name: name, BaseType: base, ConstraintText: constraint}
	r.refined[name] = rt
	return rt
}

func (r *Registry) LookupRefined(name string) (*Refined, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.refined[name]
	return rt, ok
}

// CheckRefinementConstraint evaluates a named refined type's constraint
// text against a concrete value, implementing spec.md §4.1's
// checkRefinementConstraint(t, constraintText) directly rather than
// requiring a caller to pre-evaluate it. It understands the small
// grammar TYL restricts refinement constraints to: one or more
// `&&`-joined clauses of the form `_ OP N` or `len(_) OP N`, where OP is
// one of ==, !=, <, <=, >, >=. value is used by `_`-clauses, length by
// `len(_)`-clauses (pass -1 for whichever doesn't apply to the concrete
// initializer being checked). checkable reports whether every clause
// parsed; when it's false the constraint is left to a runtime assertion,
// the same way an unprovable CTFE expression defers to runtime.
func (r *Registry) CheckRefinementConstraint(name string, value int64, length int) (ok, checkable bool) {
	rt, found := r.LookupRefined(name)
	if !found {
		return false, false
	}
	for _, clause := range strings.Split(rt.ConstraintText, "&&") {
		lhsName, op, rhs, parsed := parseRefinementClause(strings.TrimSpace(clause))
		if !parsed {
			return false, false
		}
		var lhs int64
		switch lhsName {
		case "_":
			lhs = value
		case "len(_)":
			lhs = int64(length)
		default:
			return false, false
		}
		if !compareRefinement(lhs, op, rhs) {
			return false, true
		}
	}
	return true, true
}

// refinementOps is checked in order so a two-character operator is
// matched before its single-character prefix (">=" before ">").
var refinementOps = []string{">=", "<=", "==", "!=", "<", ">"}

func parseRefinementClause(clause string) (lhs, op string, rhs int64, ok bool) {
	for _, o := range refinementOps {
		idx := strings.Index(clause, o)
		if idx < 0 {
			continue
		}
		lhs = strings.TrimSpace(clause[:idx])
		n, err := strconv.ParseInt(strings.TrimSpace(clause[idx+len(o):]), 10, 64)
		if err != nil {
			return "", "", 0, false
		}
		return lhs, o, n, true
	}
	return "", "", 0, false
}

func compareRefinement(lhs int64, op string, rhs int64) bool {
	switch op {
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	}
	return false
}

package types

import (
	"strings"
)

// TraitMethod is one required (or defaulted) method signature of a Trait.
type TraitMethod struct {
	Name       string
	Sig        *Function
	HasDefault bool
}

// Trait is a named set of method requirements, e.g. `trait Drawable { fn draw(&self) }`.
type Trait struct {
	Name       string
	Methods    []TraitMethod
	SuperTrait []string
}

func (t *Trait) Method(name string) (TraitMethod, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return TraitMethod{}, false
}

// Concept is a named predicate over a type parameter, e.g.
// `concept Numeric = Int | Float`. Constituents is the flattened list of
// primitive kind names, Traits is the list of trait names the concept
// additionally requires (concepts compose both unions and trait bounds per
// spec.md §3.1).
type Concept struct {
	Name         string
	Constituents []Kind
	Traits       []string
}

// Satisfies reports whether t's kind is one of Constituents; the trait
// names in Traits are not checked.
func (c *Concept) Satisfies(t Type) bool {
	for _, k := range c.Constituents {
		if t.Kind() == k {
			return true
		}
	}
	return false
}

// Effect is a named algebraic effect, e.g. `effect IO { fn read() -> str }`.
type Effect struct {
	Name       string
	Operations []TraitMethod
}

// TraitImpl records `impl Trait for Type`.
type TraitImpl struct {
	TraitName string
	ForType   Type
	Methods   map[string]*Function
}

func (r *Registry) DefineTrait(t *Trait) { r.mu.Lock(); defer r.mu.Unlock(); r.traits[t.Name] = t }
func (r *Registry) LookupTrait(name string) (*Trait, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.traits[name]
	return t, ok
}

func (r *Registry) DefineConcept(c *Concept) { r.mu.Lock(); defer r.mu.Unlock(); r.concepts[c.Name] = c }
func (r *Registry) LookupConcept(name string) (*Concept, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.concepts[name]
	return c, ok
}

func (r *Registry) DefineEffect(e *Effect) { r.mu.Lock(); defer r.mu.Unlock(); r.effects[e.Name] = e }
func (r *Registry) LookupEffect(name string) (*Effect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.effects[name]
	return e, ok
}

// RecordImpl registers an `impl Trait for Type` block.
func (r *Registry) RecordImpl(impl *TraitImpl) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls = append(r.impls, impl)
}

// FindImpl returns the TraitImpl matching traitName/forType, if any, by
// structural type equality (spec.md §4.1's impl lookup).
func (r *Registry) FindImpl(traitName string, forType Type) (*TraitImpl, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, impl := range r.impls {
		if impl.TraitName == traitName && impl.ForType.Equals(forType) {
			return impl, true
		}
	}
	return nil, false
}

// Implements reports whether forType implements traitName, either directly
// or (when the trait has super-traits) transitively.
func (r *Registry) Implements(traitName string, forType Type) bool {
	if _, ok := r.FindImpl(traitName, forType); ok {
		return true
	}
	trait, ok := r.LookupTrait(traitName)
	if !ok {
		return false
	}
	for _, super := range trait.SuperTrait {
		if !r.Implements(super, forType) {
			return false
		}
	}
	return len(trait.SuperTrait) > 0
}

// SatisfiesBound checks one `T: Bound` constraint, where Bound names either
// a concept or a trait (spec.md §3.1 generic bound grammar).
func (r *Registry) SatisfiesBound(t Type, bound string) bool {
	if c, ok := r.LookupConcept(bound); ok {
		return c.Satisfies(t)
	}
	if r.Implements(bound, t) {
		return true
	}
	return false
}

// registerBuiltinTraits seeds the small set of universally available
// concepts the spec names (Numeric, Orderable) so FromString-parsed bound
// lists resolve without requiring the source program to declare them.
func (r *Registry) registerBuiltinTraits() {
	numeric := &Concept{Name: "Numeric", Constituents: []Kind{
		KindInt8, KindInt16, KindInt32, KindInt64, KindIntDefault,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat16, KindFloat32, KindFloat64, KindFloat128, KindFloatDefault,
	}}
	r.DefineConcept(numeric)
	orderable := &Concept{Name: "Orderable", Constituents: append(append([]Kind{}, numeric.Constituents...), KindString, KindChar)}
	r.DefineConcept(orderable)
}

// mangle produces the `fnName$T1$T2…` label used both for generic
// instantiation caching and for the codegen symbol name (spec.md §4.1,
// §4.7).
func Mangle(base string, args []Type) string {
	var b strings.Builder
	b.WriteString(base)
	for _, a := range args {
		b.WriteByte('$')
		b.WriteString(sanitizeMangle(a.String()))
	}
	return b.String()
}

func sanitizeMangle(s string) string {
	r := strings.NewReplacer(
		"[", "_", "]", "_", ",", "_", " ", "", "&", "ref", "*", "ptr",
		"?", "opt", ":", "_", "=", "eq",
	)
	return r.Replace(s)
}

// SubstituteTypeParams replaces every *TypeParam in t whose name is a key
// of subst with the bound concrete Type, recursively. Value parameters
// (*ValueParam) are left untouched here; dependent-type instantiation
// handles those separately via InstantiateDependent.
func SubstituteTypeParams(t Type, subst map[string]Type) Type {
	switch v := t.(type) {
	case *TypeParam:
		if c, ok := subst[v.Name]; ok {
			return c
		}
		return v
	case *Ptr:
		n := *v
		n.Pointee = SubstituteTypeParams(v.Pointee, subst)
		return &n
	case *List:
		n := *v
		n.Elem = SubstituteTypeParams(v.Elem, subst)
		return &n
	case *FixedArray:
		n := *v
		n.Elem = SubstituteTypeParams(v.Elem, subst)
		return &n
	case *Map:
		n := *v
		n.Key = SubstituteTypeParams(v.Key, subst)
		n.Val = SubstituteTypeParams(v.Val, subst)
		return &n
	case *Record:
		n := *v
		n.Fields = make([]RecordField, len(v.Fields))
		for i, f := range v.Fields {
			n.Fields[i] = RecordField{Name: f.Name, Type: SubstituteTypeParams(f.Type, subst), HasDefault: f.HasDefault}
		}
		return &n
	case *Function:
		n := *v
		n.Params = make([]Type, len(v.Params))
		for i, p := range v.Params {
			n.Params[i] = SubstituteTypeParams(p, subst)
		}
		n.Ret = SubstituteTypeParams(v.Ret, subst)
		n.TypeParams = nil
		return &n
	case *Generic:
		n := *v
		n.Args = make([]Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = SubstituteTypeParams(a, subst)
		}
		return &n
	case *wrapper1:
		n := *v
		n.Elem = SubstituteTypeParams(v.Elem, subst)
		return &n
	case *Weak:
		n := *v
		n.Elem = SubstituteTypeParams(v.Elem, subst)
		return &n
	case *Channel:
		n := *v
		n.Elem = SubstituteTypeParams(v.Elem, subst)
		return &n
	default:
		return t
	}
}

// InstantiateGeneric resolves a *Function with TypeParams against concrete
// argument types, returning the substituted signature and its mangled
// name. Results are cached by mangled key so repeated requests for the
// same (base, args) pair are idempotent (spec.md §4.1/§8 "Generic
// monomorphization idempotence").
func (r *Registry) InstantiateGeneric(baseName string, fn *Function, args []Type) (*Function, string) {
	mangled := Mangle(baseName, args)
	r.mu.Lock()
	if cached, ok := r.instCache[mangled]; ok {
		r.mu.Unlock()
		return cached.(*Function), mangled
	}
	r.mu.Unlock()

	subst := make(map[string]Type, len(fn.TypeParams))
	for i, tp := range fn.TypeParams {
		if i < len(args) {
			subst[tp.Name] = args[i]
		}
	}
	inst := SubstituteTypeParams(fn, subst).(*Function)

	r.mu.Lock()
	r.instCache[mangled] = inst
	r.mu.Unlock()
	return inst, mangled
}

// InstantiateDependent resolves a Dependent definition's value parameters
// (spec.md's `Vector[T, N: int]`-style dependent types) against concrete
// arguments, substituting both type and value parameters into BaseType.
func (r *Registry) InstantiateDependent(d *Dependent, typeArgs map[string]Type, valueArgs map[string]int64) Type {
	base := SubstituteTypeParams(d.BaseType, typeArgs)
	return substituteValueParams(base, valueArgs)
}

func substituteValueParams(t Type, vals map[string]int64) Type {
	switch v := t.(type) {
	case *FixedArray:
		n := *v
		n.Elem = substituteValueParams(v.Elem, vals)
		if n.Size_ == 0 && len(vals) == 1 {
			for _, val := range vals {
				n.Size_ = val
			}
		}
		return &n
	case *List:
		n := *v
		n.Elem = substituteValueParams(v.Elem, vals)
		return &n
	default:
		return t
	}
}

// ResolveFixedArraySize substitutes a named value parameter (e.g. "N")
// occurring as a FixedArray's size placeholder; used when a dependent
// type's definition leaves Size_ as 0 pending instantiation.
func ResolveFixedArraySize(arr *FixedArray, name string, vals map[string]int64) *FixedArray {
	if arr.Size_ != 0 {
		return arr
	}
	n := *arr
	if v, ok := vals[name]; ok {
		n.Size_ = v
	}
	return &n
}

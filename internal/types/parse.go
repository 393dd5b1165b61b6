package types

import (
	"fmt"
	"strconv"
	"strings"
)

// parser is a small hand-written recursive-descent parser over the type
// grammar of spec.md §4.1, in the same style as the teacher's own
// hand-written lexers/parsers (cmd_local/asm/internal/lex,
// cmd_local/compile/internal/syntax) — no parser-generator dependency.
type parser struct {
	r   *Registry
	src string
	pos int
}

// FromString parses a type annotation string (e.g. "i32", "[str]",
// "Pair[int,str]", "&mut Point") into a Type, round-tripping with
// Type.String() for every shape the grammar covers.
func (r *Registry) FromString(s string) (Type, error) {
	p := &parser{r: r, src: strings.TrimSpace(s)}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("types: unexpected trailing input %q", p.src[p.pos:])
	}
	return t, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(b byte) error {
	p.skipSpace()
	if p.peek() != b {
		return fmt.Errorf("types: expected %q at offset %d in %q", b, p.pos, p.src)
	}
	p.pos++
	return nil
}

func (p *parser) parseIdent() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) parseType() (Type, error) {
	p.skipSpace()
	switch p.peek() {
	case '&':
		p.pos++
		mutable := false
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "mut ") || p.src[p.pos:] == "mut" {
			mutable = true
			p.pos += 3
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return p.r.NewPtr(elem, mutable, false), nil
	case '*':
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return p.r.NewPtr(elem, false, true), nil
	case '[':
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() == ';' {
			p.pos++
			p.skipSpace()
			numStart := p.pos
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
			}
			n, err := strconv.ParseInt(p.src[numStart:p.pos], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("types: bad fixed array size: %w", err)
			}
			if err := p.consume(']'); err != nil {
				return nil, err
			}
			return p.r.NewFixedArray(elem, n), nil
		}
		if err := p.consume(']'); err != nil {
			return nil, err
		}
		return p.r.NewList(elem), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "map[") {
		p.pos += 4
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.consume(']'); err != nil {
			return nil, err
		}
		val, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return p.r.NewMap(key, val), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "dyn ") {
		p.pos += 4
		name := p.parseIdent()
		return p.r.NewTraitObject(name), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "fn(") {
		return p.parseFunction()
	}

	name := p.parseIdent()
	if name == "" {
		return nil, fmt.Errorf("types: expected type at offset %d in %q", p.pos, p.src)
	}
	if k, ok := primitiveKindByName[name]; ok {
		return p.r.Primitive(k), nil
	}
	switch name {
	case "bigint":
		return p.r.BigInt(), nil
	case "bigfloat":
		return p.r.BigFloat(), nil
	case "decimal":
		return p.r.Decimal(), nil
	case "rational":
		return p.r.Rational(), nil
	case "Cond":
		return p.r.Cond(), nil
	case "Semaphore":
		return p.r.Semaphore(), nil
	case "ThreadPool":
		return p.r.ThreadPool(), nil
	case "CancelToken":
		return p.r.CancelToken(), nil
	}

	p.skipSpace()
	if p.peek() == '[' {
		p.pos++
		args, err := p.parseTypeList(']')
		if err != nil {
			return nil, err
		}
		if err := p.consume(']'); err != nil {
			return nil, err
		}
		return p.bracketConstructor(name, args)
	}
	// Bare identifier: either a previously defined Dependent/Refined type,
	// or an opaque nominal Record reference the checker will resolve
	// against the symbol table.
	if d, ok := p.r.LookupDependent(name); ok {
		return d, nil
	}
	if rt, ok := p.r.LookupRefined(name); ok {
		return rt, nil
	}
	return &Record{Name: name}, nil
}

func (p *parser) bracketConstructor(name string, args []Type) (Type, error) {
	one := func() (Type, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("types: %s expects exactly one type argument, got %d", name, len(args))
		}
		return args[0], nil
	}
	switch name {
	case "Mutex":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewMutex(e), nil
	case "RWLock":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewRWLock(e), nil
	case "Atomic":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewAtomic(e), nil
	case "Future":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewFuture(e), nil
	case "Box":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewBox(e), nil
	case "Rc":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewRc(e), nil
	case "Arc":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewArc(e), nil
	case "Cell":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewCell(e), nil
	case "RefCell":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewRefCell(e), nil
	case "Weak":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewWeak(e, false), nil
	case "chan":
		e, err := one()
		if err != nil {
			return nil, err
		}
		return p.r.NewChannel(e, 0), nil
	case "Vec2", "Vec3", "Vec4":
		e, err := one()
		if err != nil {
			return nil, err
		}
		n := map[string]int{"Vec2": 2, "Vec3": 3, "Vec4": 4}[name]
		k := map[string]Kind{"Vec2": KindVec2, "Vec3": KindVec3, "Vec4": KindVec4}[name]
		return p.r.NewVec(k, e, n), nil
	case "Mat2", "Mat3", "Mat4":
		e, err := one()
		if err != nil {
			return nil, err
		}
		n := map[string]int{"Mat2": 2, "Mat3": 3, "Mat4": 4}[name]
		k := map[string]Kind{"Mat2": KindMat2, "Mat3": KindMat3, "Mat4": KindMat4}[name]
		return p.r.NewMat(k, e, n), nil
	default:
		if d, ok := p.r.LookupDependent(name); ok {
			subst := make(map[string]Type)
			for i, param := range d.Params {
				if tp, ok := param.(*TypeParam); ok && i < len(args) {
					subst[tp.Name] = args[i]
				}
			}
			return SubstituteTypeParams(d.BaseType, subst), nil
		}
		return p.r.NewGeneric(name, args), nil
	}
}

func (p *parser) parseTypeList(end byte) ([]Type, error) {
	var out []Type
	p.skipSpace()
	if p.peek() == end {
		return out, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseFunction() (Type, error) {
	p.pos += 3 // "fn("
	params, err := p.parseTypeList(')')
	if err != nil {
		return nil, err
	}
	if err := p.consume(')'); err != nil {
		return nil, err
	}
	p.skipSpace()
	ret := Type(p.r.Void())
	if strings.HasPrefix(p.src[p.pos:], "->") {
		p.pos += 2
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	return p.r.NewFunction(params, nil, ret, false), nil
}

var primitiveKindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(primitiveNames))
	for k, v := range primitiveNames {
		m[v] = k
	}
	return m
}()

// ParseBoundList splits a generic constraint annotation such as
// "Numeric + Orderable" into its component bound names, per Open Question
// (d): bounds are not themselves types, so they get this small dedicated
// splitter instead of being routed through FromString.
func ParseBoundList(s string) []string {
	parts := strings.Split(s, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

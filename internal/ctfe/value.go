// Package ctfe implements TYL's compile-time function evaluation: a
// tree-walking interpreter over a small closed value domain that runs
// comptime-eligible functions at compile time (internal/codegen evaluates
// the calls internal/check marked comptime), bounded by recursion
// and iteration budgets so a runaway comptime program cannot hang the
// compiler (spec.md §4.5).
package ctfe

import "fmt"

// Kind tags a Value's variant.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindList
	KindRecord
	KindTuple
)

// Value is the tagged union CTFE expressions evaluate to, kept as a small
// interface + type switch (per SPEC_FULL.md §3) rather than `any`, so an
// unexpected shape at a call site is caught by Go's exhaustiveness rather
// than a runtime type assertion panic deep in evaluation.
type Value interface {
	Kind() Kind
}

type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

type Int int64

func (Int) Kind() Kind { return KindInt }

type Float float64

func (Float) Kind() Kind { return KindFloat }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type String string

func (String) Kind() Kind { return KindString }

// List is a mutable reference value, mirroring the original's
// shared_ptr<CTFEInterpList>: assigning a List value copies the
// reference, not the backing slice.
type List struct {
	Elements []Value
}

func (*List) Kind() Kind { return KindList }

// Record is a mutable reference value keyed by field name.
type Record struct {
	Fields map[string]Value
}

func (*Record) Kind() Kind { return KindRecord }

// Tuple is used for small fixed-arity bundles, e.g. reflection field-info
// pairs (name, typeName).
type Tuple struct {
	Elements []Value
}

func (*Tuple) Kind() Kind { return KindTuple }

// ToInt converts val to an int64 if it holds (or can be coerced to) an
// integral numeric value.
func ToInt(val Value) (int64, bool) {
	switch v := val.(type) {
	case Int:
		return int64(v), true
	case Float:
		return int64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToFloat converts val to a float64.
func ToFloat(val Value) (float64, bool) {
	switch v := val.(type) {
	case Float:
		return float64(v), true
	case Int:
		return float64(v), true
	}
	return 0, false
}

// ToString renders val as a string, used by string-context builtins such
// as `print` and string concatenation.
func ToString(val Value) (string, bool) {
	switch v := val.(type) {
	case String:
		return string(v), true
	case Int:
		return fmt.Sprintf("%d", int64(v)), true
	case Float:
		return fmt.Sprintf("%g", float64(v)), true
	case Bool:
		if v {
			return "true", true
		}
		return "false", true
	case Nil:
		return "nil", true
	}
	return "", false
}

// ToBool converts val to a bool.
func ToBool(val Value) (bool, bool) {
	if b, ok := val.(Bool); ok {
		return bool(b), true
	}
	return false, false
}

// IsTruthy reports whether val is considered true in a boolean context:
// booleans by value, integers/floats nonzero, strings/lists/records
// non-empty, nil always false (spec.md §4.5 truthiness rule, matching the
// original's CTFEInterpreter::isTruthy).
func IsTruthy(val Value) bool {
	switch v := val.(type) {
	case Bool:
		return bool(v)
	case Int:
		return v != 0
	case Float:
		return v != 0
	case String:
		return len(v) != 0
	case *List:
		return len(v.Elements) != 0
	case *Record:
		return len(v.Fields) != 0
	case Nil:
		return false
	}
	return false
}

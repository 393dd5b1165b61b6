package ctfe

import (
	"fmt"

	"tylc/internal/ast"
)

// TypeFieldInfo/TypeMethodInfo/TypeMetadata back the compile-time
// reflection builtins (fields_of, methods_of, ...), registered once per
// type the checker has fully resolved.
type TypeFieldInfo struct {
	Name     string
	TypeName string
}

type TypeMethodInfo struct {
	Name       string
	ReturnType string
	Params     [][2]string // (name, typeName) pairs
}

type TypeMetadata struct {
	Name      string
	Fields    []TypeFieldInfo
	Methods   []TypeMethodInfo
	Size      int64
	Alignment int64
}

// Error is returned by evaluation when the comptime program itself fails
// (not a Go-level bug) — a budget overrun, a call to an unregistered
// function, or a reflection query against an unknown type.
type Error struct{ Msg string }

func (e *Error) Error() string { return e.Msg }

func errf(format string, args ...any) error { return &Error{Msg: fmt.Sprintf(format, args...)} }

// Interpreter evaluates comptime functions and constant expressions,
// bounded by recursion and iteration budgets (spec.md §4.5).
type Interpreter struct {
	comptimeFuncs map[string]*ast.FnDecl
	cache         map[string]Value
	typeMetadata  map[string]TypeMetadata

	scopes []map[string]Value

	currentRecursionDepth int
	maxRecursionDepth     int

	totalIterations int
	maxIterations   int

	continueFlag bool
	breakFlag    bool
}

// New returns an Interpreter with the default budgets from spec.md §4.5:
// 1000 levels of call recursion, 100000 total loop iterations.
func New() *Interpreter {
	return &Interpreter{
		comptimeFuncs:     make(map[string]*ast.FnDecl),
		cache:             make(map[string]Value),
		typeMetadata:      make(map[string]TypeMetadata),
		maxRecursionDepth: 1000,
		maxIterations:     100000,
	}
}

func (i *Interpreter) SetMaxRecursionDepth(n int) { i.maxRecursionDepth = n }
func (i *Interpreter) SetMaxIterations(n int)     { i.maxIterations = n }

func (i *Interpreter) RegisterComptimeFunction(fn *ast.FnDecl) {
	i.comptimeFuncs[fn.Name] = fn
}

func (i *Interpreter) IsComptimeFunction(name string) bool {
	fn, ok := i.comptimeFuncs[name]
	return ok && fn.Comptime
}

func (i *Interpreter) GetComptimeFunction(name string) (*ast.FnDecl, bool) {
	fn, ok := i.comptimeFuncs[name]
	return fn, ok
}

func (i *Interpreter) GetCachedResult(key string) (Value, bool) {
	v, ok := i.cache[key]
	return v, ok
}

func (i *Interpreter) CacheResult(key string, v Value) { i.cache[key] = v }

func (i *Interpreter) RegisterTypeMetadata(name string, md TypeMetadata) {
	i.typeMetadata[name] = md
}

func (i *Interpreter) GetTypeMetadata(name string) (TypeMetadata, bool) {
	md, ok := i.typeMetadata[name]
	return md, ok
}

// ---- scope management ----

func (i *Interpreter) pushScope() { i.scopes = append(i.scopes, make(map[string]Value)) }
func (i *Interpreter) popScope()  { i.scopes = i.scopes[:len(i.scopes)-1] }

func (i *Interpreter) bindParameter(name string, v Value) {
	i.scopes[len(i.scopes)-1][name] = v
}

func (i *Interpreter) setVariable(name string, v Value) {
	for s := len(i.scopes) - 1; s >= 0; s-- {
		if _, ok := i.scopes[s][name]; ok {
			i.scopes[s][name] = v
			return
		}
	}
	if len(i.scopes) > 0 {
		i.scopes[len(i.scopes)-1][name] = v
	}
}

func (i *Interpreter) getVariable(name string) (Value, bool) {
	for s := len(i.scopes) - 1; s >= 0; s-- {
		if v, ok := i.scopes[s][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// EvaluateCall runs a registered comptime function with the given
// already-evaluated arguments, honoring the recursion budget.
func (i *Interpreter) EvaluateCall(fnName string, args []Value) (Value, error) {
	fn, ok := i.comptimeFuncs[fnName]
	if !ok || !fn.Comptime {
		return nil, errf("ctfe: %q is not a registered comptime function", fnName)
	}
	if i.currentRecursionDepth >= i.maxRecursionDepth {
		return nil, errf("ctfe: recursion depth exceeded %d evaluating %q", i.maxRecursionDepth, fnName)
	}
	i.currentRecursionDepth++
	defer func() { i.currentRecursionDepth-- }()

	i.pushScope()
	defer i.popScope()

	for idx, p := range fn.Params {
		if idx < len(args) {
			i.bindParameter(p.Name, args[idx])
		} else {
			i.bindParameter(p.Name, Nil{})
		}
	}

	val, returned, err := i.evaluateBlock(fn.Body)
	if err != nil {
		return nil, err
	}
	if !returned {
		return Nil{}, nil
	}
	return val, nil
}

// EvaluateExpr evaluates a single expression node outside of any function
// call context (e.g. a top-level `comptime { ... }` constant).
func (i *Interpreter) EvaluateExpr(e ast.Expr) (Value, error) {
	if len(i.scopes) == 0 {
		i.pushScope()
		defer i.popScope()
	}
	return i.eval(e)
}

// evaluateBlock runs stmts in order, returning (value, hasReturn, err).
func (i *Interpreter) evaluateBlock(b *ast.BlockStmt) (Value, bool, error) {
	for _, s := range b.Stmts {
		val, returned, err := i.evaluateStmt(s)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return val, true, nil
		}
		if i.breakFlag || i.continueFlag {
			return nil, false, nil
		}
	}
	return nil, false, nil
}

func (i *Interpreter) evaluateStmt(s ast.Stmt) (Value, bool, error) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		if _, err := i.eval(v.X); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	case *ast.VarDecl:
		var val Value = Nil{}
		if v.Init != nil {
			var err error
			val, err = i.eval(v.Init)
			if err != nil {
				return nil, false, err
			}
		}
		i.bindParameter(v.Name, val)
		return nil, false, nil
	case *ast.AssignStmt:
		val, err := i.eval(v.Value)
		if err != nil {
			return nil, false, err
		}
		if id, ok := v.Target.(*ast.Ident); ok {
			if v.Op != "" && v.Op != "=" {
				cur, _ := i.getVariable(id.Name)
				val, err = applyBinaryOp(trimAssignOp(v.Op), cur, val)
				if err != nil {
					return nil, false, err
				}
			}
			i.setVariable(id.Name, val)
		}
		return nil, false, nil
	case *ast.ReturnStmt:
		if v.Value == nil {
			return Nil{}, true, nil
		}
		val, err := i.eval(v.Value)
		if err != nil {
			return nil, false, err
		}
		return val, true, nil
	case *ast.BreakStmt:
		i.breakFlag = true
		return nil, false, nil
	case *ast.ContinueStmt:
		i.continueFlag = true
		return nil, false, nil
	case *ast.BlockStmt:
		i.pushScope()
		defer i.popScope()
		return i.evaluateBlock(v)
	case *ast.IfStmt:
		cond, err := i.eval(v.Cond)
		if err != nil {
			return nil, false, err
		}
		if IsTruthy(cond) {
			i.pushScope()
			defer i.popScope()
			return i.evaluateBlock(v.Then)
		}
		if v.Else != nil {
			return i.evaluateStmt(v.Else)
		}
		return nil, false, nil
	case *ast.WhileStmt:
		for {
			cond, err := i.eval(v.Cond)
			if err != nil {
				return nil, false, err
			}
			if !IsTruthy(cond) {
				break
			}
			if err := i.tickIteration(); err != nil {
				return nil, false, err
			}
			i.pushScope()
			val, returned, err := i.evaluateBlock(v.Body)
			i.popScope()
			if err != nil {
				return nil, false, err
			}
			if returned {
				return val, true, nil
			}
			if i.breakFlag {
				i.breakFlag = false
				break
			}
			i.continueFlag = false
		}
		return nil, false, nil
	case *ast.ForStmt:
		iter, err := i.eval(v.Iter)
		if err != nil {
			return nil, false, err
		}
		list, ok := iter.(*List)
		if !ok {
			return nil, false, errf("ctfe: for-loop iterable must be a list")
		}
		for _, elem := range list.Elements {
			if err := i.tickIteration(); err != nil {
				return nil, false, err
			}
			i.pushScope()
			i.bindParameter(v.Name, elem)
			val, returned, err := i.evaluateBlock(v.Body)
			i.popScope()
			if err != nil {
				return nil, false, err
			}
			if returned {
				return val, true, nil
			}
			if i.breakFlag {
				i.breakFlag = false
				break
			}
			i.continueFlag = false
		}
		return nil, false, nil
	case *ast.UnsafeStmt:
		i.pushScope()
		defer i.popScope()
		return i.evaluateBlock(v.Body)
	default:
		return nil, false, errf("ctfe: statement type %T is not comptime-evaluable", s)
	}
}

func (i *Interpreter) tickIteration() error {
	i.totalIterations++
	if i.totalIterations > i.maxIterations {
		return errf("ctfe: iteration budget of %d exceeded", i.maxIterations)
	}
	return nil
}

func trimAssignOp(op string) string {
	if len(op) > 1 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}
	return op
}

func (i *Interpreter) eval(e ast.Expr) (Value, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return Int(v.Value), nil
	case *ast.FloatLit:
		return Float(v.Value), nil
	case *ast.BoolLit:
		return Bool(v.Value), nil
	case *ast.StringLit:
		return String(v.Value), nil
	case *ast.CharLit:
		return Int(v.Value), nil
	case *ast.NilLit:
		return Nil{}, nil
	case *ast.Ident:
		if val, ok := i.getVariable(v.Name); ok {
			return val, nil
		}
		return nil, errf("ctfe: undefined variable %q", v.Name)
	case *ast.BinaryExpr:
		return i.evaluateBinaryExpr(v)
	case *ast.UnaryExpr:
		return i.evaluateUnaryExpr(v)
	case *ast.CallExpr:
		return i.evaluateCallExpr(v)
	case *ast.IndexExpr:
		return i.evaluateIndexExpr(v)
	case *ast.TernaryExpr:
		return i.evaluateTernaryExpr(v)
	case *ast.ListExpr:
		return i.evaluateListExpr(v)
	case *ast.RecordLitExpr:
		fields := make(map[string]Value, len(v.Order))
		for _, name := range v.Order {
			val, err := i.eval(v.Fields[name])
			if err != nil {
				return nil, err
			}
			fields[name] = val
		}
		return &Record{Fields: fields}, nil
	case *ast.SelectorExpr:
		base, err := i.eval(v.X)
		if err != nil {
			return nil, err
		}
		rec, ok := base.(*Record)
		if !ok {
			return nil, errf("ctfe: selector on non-record value")
		}
		val, ok := rec.Fields[v.Sel]
		if !ok {
			return nil, errf("ctfe: record has no field %q", v.Sel)
		}
		return val, nil
	default:
		return nil, errf("ctfe: expression type %T is not comptime-evaluable", e)
	}
}

func (i *Interpreter) evaluateBinaryExpr(e *ast.BinaryExpr) (Value, error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == "&&" {
		if !IsTruthy(left) {
			return Bool(false), nil
		}
		right, err := i.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return Bool(IsTruthy(right)), nil
	}
	if e.Op == "||" {
		if IsTruthy(left) {
			return Bool(true), nil
		}
		right, err := i.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return Bool(IsTruthy(right)), nil
	}
	right, err := i.eval(e.Right)
	if err != nil {
		return nil, err
	}
	return applyBinaryOp(e.Op, left, right)
}

func applyBinaryOp(op string, left, right Value) (Value, error) {
	if ls, ok := left.(String); ok && op == "+" {
		rs, _ := ToString(right)
		return String(string(ls) + rs), nil
	}
	if _, lok := left.(Float); lok || isFloatish(right) || isFloatish(left) {
		lf, ok1 := ToFloat(left)
		rf, ok2 := ToFloat(right)
		if ok1 && ok2 {
			v, err := floatOp(op, lf, rf)
			if err != nil {
				return nil, err
			}
			if isComparisonOp(op) {
				return v, nil
			}
			return Float(v.(Float)), nil
		}
	}
	li, lok := ToInt(left)
	ri, rok := ToInt(right)
	if lok && rok {
		return intOp(op, li, ri)
	}
	return nil, errf("ctfe: unsupported operands for operator %q", op)
}

func isFloatish(v Value) bool { _, ok := v.(Float); return ok }
func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func floatOp(op string, l, r float64) (Value, error) {
	switch op {
	case "+":
		return Float(l + r), nil
	case "-":
		return Float(l - r), nil
	case "*":
		return Float(l * r), nil
	case "/":
		if r == 0 {
			return nil, errf("ctfe: division by zero")
		}
		return Float(l / r), nil
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	case "<":
		return Bool(l < r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">":
		return Bool(l > r), nil
	case ">=":
		return Bool(l >= r), nil
	}
	return nil, errf("ctfe: unsupported float operator %q", op)
}

func intOp(op string, l, r int64) (Value, error) {
	switch op {
	case "+":
		return Int(l + r), nil
	case "-":
		return Int(l - r), nil
	case "*":
		return Int(l * r), nil
	case "/":
		if r == 0 {
			return nil, errf("ctfe: division by zero")
		}
		return Int(l / r), nil
	case "%":
		if r == 0 {
			return nil, errf("ctfe: modulo by zero")
		}
		return Int(l % r), nil
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	case "<":
		return Bool(l < r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">":
		return Bool(l > r), nil
	case ">=":
		return Bool(l >= r), nil
	case "&":
		return Int(l & r), nil
	case "|":
		return Int(l | r), nil
	case "^":
		return Int(l ^ r), nil
	case "<<":
		return Int(l << uint(r)), nil
	case ">>":
		return Int(l >> uint(r)), nil
	}
	return nil, errf("ctfe: unsupported integer operator %q", op)
}

func (i *Interpreter) evaluateUnaryExpr(e *ast.UnaryExpr) (Value, error) {
	val, err := i.eval(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "-":
		if f, ok := val.(Float); ok {
			return Float(-f), nil
		}
		n, ok := ToInt(val)
		if !ok {
			return nil, errf("ctfe: cannot negate non-numeric value")
		}
		return Int(-n), nil
	case "!":
		return Bool(!IsTruthy(val)), nil
	case "~":
		n, ok := ToInt(val)
		if !ok {
			return nil, errf("ctfe: cannot bitwise-not non-integer value")
		}
		return Int(^n), nil
	}
	return nil, errf("ctfe: unsupported unary operator %q", e.Op)
}

func (i *Interpreter) evaluateCallExpr(e *ast.CallExpr) (Value, error) {
	var name string
	if id, ok := e.Callee.(*ast.Ident); ok {
		name = id.Name
	} else if sel, ok := e.Callee.(*ast.SelectorExpr); ok {
		name = sel.Sel
	} else {
		return nil, errf("ctfe: unsupported call target")
	}

	args := make([]Value, len(e.Args))
	for idx, a := range e.Args {
		val, err := i.eval(a)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	if val, err, handled := i.evaluateBuiltin(name, args); handled {
		return val, err
	}
	return i.EvaluateCall(name, args)
}

// evaluateIndexExpr is 1-based, per Open Question (a): the CTFE domain
// indexes lists and strings starting at 1, distinct from the 0-based
// runtime list indexing internal/codegen's genIndexExpr emits — the two
// conventions are kept separate rather than unified.
func (i *Interpreter) evaluateIndexExpr(e *ast.IndexExpr) (Value, error) {
	base, err := i.eval(e.X)
	if err != nil {
		return nil, err
	}
	idxVal, err := i.eval(e.Index)
	if err != nil {
		return nil, err
	}
	idx, ok := ToInt(idxVal)
	if !ok {
		return nil, errf("ctfe: index must be an integer")
	}
	switch b := base.(type) {
	case *List:
		if idx < 1 || int(idx) > len(b.Elements) {
			return nil, errf("ctfe: list index %d out of range (1-based, length %d)", idx, len(b.Elements))
		}
		return b.Elements[idx-1], nil
	case String:
		if idx < 1 || int(idx) > len(b) {
			return nil, errf("ctfe: string index %d out of range (1-based, length %d)", idx, len(b))
		}
		return Int(b[idx-1]), nil
	}
	return nil, errf("ctfe: cannot index value of this kind")
}

func (i *Interpreter) evaluateTernaryExpr(e *ast.TernaryExpr) (Value, error) {
	cond, err := i.eval(e.Cond)
	if err != nil {
		return nil, err
	}
	if IsTruthy(cond) {
		return i.eval(e.Then)
	}
	return i.eval(e.Else)
}

func (i *Interpreter) evaluateListExpr(e *ast.ListExpr) (Value, error) {
	elems := make([]Value, len(e.Elems))
	for idx, el := range e.Elems {
		val, err := i.eval(el)
		if err != nil {
			return nil, err
		}
		elems[idx] = val
	}
	return &List{Elements: elems}, nil
}

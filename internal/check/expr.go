package check

import (
	"tylc/internal/ast"
	"tylc/internal/ownership"
	"tylc/internal/symtab"
	"tylc/internal/types"
)

// checkExpr infers e's type, recording it in exprTypes, enforcing
// ownership/borrow rules on variable references, and reporting
// diagnostics for mistyped operations. Mirrors checker_expr.cpp's
// per-node-kind dispatch, collapsed to one type switch over
// internal/ast's representative node set (see DESIGN.md).
func (c *Checker) checkExpr(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return c.setType(n, c.Registry.Int())
	case *ast.FloatLit:
		return c.setType(n, c.Registry.Float())
	case *ast.BoolLit:
		return c.setType(n, c.Registry.Bool())
	case *ast.StringLit:
		return c.setType(n, c.Registry.Str())
	case *ast.CharLit:
		return c.setType(n, c.Registry.Char())
	case *ast.NilLit:
		return c.setType(n, c.Registry.AnyType())
	case *ast.Ident:
		return c.checkIdent(n)
	case *ast.BinaryExpr:
		return c.checkBinaryExpr(n)
	case *ast.UnaryExpr:
		return c.checkUnaryExpr(n)
	case *ast.CallExpr:
		return c.checkCallExpr(n)
	case *ast.SelectorExpr:
		return c.checkSelectorExpr(n)
	case *ast.IndexExpr:
		return c.checkIndexExpr(n)
	case *ast.CastExpr:
		return c.checkCastExpr(n)
	case *ast.BorrowExpr:
		return c.checkBorrowExpr(n)
	case *ast.DerefExpr:
		return c.checkDerefExpr(n)
	case *ast.TernaryExpr:
		return c.checkTernaryExpr(n)
	case *ast.ListExpr:
		return c.checkListExpr(n)
	case *ast.RecordLitExpr:
		return c.checkRecordLitExpr(n)
	case *ast.PerformExpr:
		return c.checkPerformExpr(n)
	case *ast.HandleExpr:
		return c.checkHandleExpr(n)
	case *ast.AssemblyExpr:
		// Opaque to the checker by design (spec.md §4.7): the mini-assembler
		// in internal/codegen parses Body directly, bypassing type checking.
		return c.setType(n, c.Registry.Void())
	default:
		c.errorf(e, "unhandled expression kind %T", e)
		return c.Registry.ErrorType()
	}
}

func (c *Checker) checkIdent(n *ast.Ident) types.Type {
	sym, ok := c.Symbols.Lookup(n.Name)
	if !ok {
		c.errorf(n, "undefined identifier %q", n.Name)
		return c.setType(n, c.Registry.ErrorType())
	}
	sym.Used = true
	if _, tracked := c.Ownership.GetInfo(n.Name); tracked {
		if err := c.Ownership.CheckUsable(n.Name, ownership.SourceLocation{File: n.Pos().File, Line: n.Pos().Line, Column: n.Pos().Column}); err != nil {
			c.errorf(n, "%v", err)
		}
	}
	return c.setType(n, sym.Type)
}

func (c *Checker) checkBinaryExpr(n *ast.BinaryExpr) types.Type {
	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	if lt == nil || rt == nil {
		return c.setType(n, c.Registry.ErrorType())
	}
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return c.setType(n, c.Registry.Bool())
	case "&&", "||":
		if lt.Kind() != types.KindBool || rt.Kind() != types.KindBool {
			c.errorf(n, "operator %s requires bool operands", n.Op)
		}
		return c.setType(n, c.Registry.Bool())
	default:
		result := commonType(c.Registry, lt, rt)
		if result == nil {
			c.errorf(n, "incompatible operand types %s and %s for %s", lt, rt, n.Op)
			return c.setType(n, c.Registry.ErrorType())
		}
		return c.setType(n, result)
	}
}

// commonType mirrors checker_core.cpp's commonType: identical types unify
// trivially; two integer types unify to the sized one (the left operand's
// when neither is the default int); otherwise int widens to float when one
// side is floating.
func commonType(reg *types.Registry, a, b types.Type) types.Type {
	if a.Equals(b) {
		return a
	}
	if types.IsInteger(a) && types.IsInteger(b) {
		if a.Kind() == types.KindIntDefault {
			return b
		}
		return a
	}
	if types.IsFloat(a) && types.IsInteger(b) {
		return a
	}
	if types.IsFloat(b) && types.IsInteger(a) {
		return b
	}
	if a.Kind() == types.KindAny {
		return b
	}
	if b.Kind() == types.KindAny {
		return a
	}
	return nil
}

func (c *Checker) checkUnaryExpr(n *ast.UnaryExpr) types.Type {
	t := c.checkExpr(n.Operand)
	switch n.Op {
	case "!":
		return c.setType(n, c.Registry.Bool())
	case "-":
		if t != nil && !types.IsNumeric(t) {
			c.errorf(n, "unary - requires a numeric operand, got %s", t)
		}
		return c.setType(n, t)
	case "~":
		if t != nil && !types.IsInteger(t) {
			c.errorf(n, "unary ~ requires an integer operand, got %s", t)
		}
		return c.setType(n, t)
	}
	return c.setType(n, t)
}

func (c *Checker) checkCallExpr(n *ast.CallExpr) types.Type {
	calleeType := c.checkExpr(n.Callee)
	for _, a := range n.Args {
		c.checkExpr(a)
		if _, isBorrow := a.(*ast.BorrowExpr); !isBorrow {
			c.recordMoveFrom(a, n)
		}
	}
	if ident, ok := n.Callee.(*ast.Ident); ok && c.CTFE.IsComptimeFunction(ident.Name) {
		n.Comptime = true
	}
	fn, ok := calleeType.(*types.Function)
	if !ok {
		if calleeType != nil && calleeType.Kind() != types.KindError && calleeType.Kind() != types.KindAny {
			c.errorf(n, "cannot call non-function type %s", calleeType)
		}
		return c.setType(n, c.Registry.ErrorType())
	}
	if len(n.TypeArgs) > 0 && len(fn.TypeParams) > 0 {
		var typeArgs []types.Type
		for _, ta := range n.TypeArgs {
			typeArgs = append(typeArgs, c.resolveTypeName(n, ta))
		}
		baseName := ""
		if ident, ok := n.Callee.(*ast.Ident); ok {
			baseName = ident.Name
		}
		inst, _ := c.Registry.InstantiateGeneric(baseName, fn, typeArgs)
		return c.setType(n, inst.Ret)
	}
	if !fn.Variadic && len(n.Args) != len(fn.Params) {
		c.errorf(n, "wrong number of arguments: expected %d, got %d", len(fn.Params), len(n.Args))
	}
	return c.setType(n, fn.Ret)
}

func (c *Checker) checkSelectorExpr(n *ast.SelectorExpr) types.Type {
	xt := c.checkExpr(n.X)
	if rec, ok := xt.(*types.Record); ok {
		for _, f := range rec.Fields {
			if f.Name == n.Sel {
				return c.setType(n, f.Type)
			}
		}
		c.errorf(n, "record %s has no field %q", rec.Name, n.Sel)
	}
	return c.setType(n, c.Registry.AnyType())
}

func (c *Checker) checkIndexExpr(n *ast.IndexExpr) types.Type {
	xt := c.checkExpr(n.X)
	c.checkExpr(n.Index)
	switch t := xt.(type) {
	case *types.List:
		return c.setType(n, t.Elem)
	case *types.FixedArray:
		return c.setType(n, t.Elem)
	case *types.Map:
		return c.setType(n, t.Val)
	default:
		return c.setType(n, c.Registry.AnyType())
	}
}

func (c *Checker) checkCastExpr(n *ast.CastExpr) types.Type {
	c.checkExpr(n.X)
	return c.setType(n, c.resolveTypeName(n, n.TypeName))
}

func (c *Checker) checkBorrowExpr(n *ast.BorrowExpr) types.Type {
	xt := c.checkExpr(n.X)
	if ident, ok := n.X.(*ast.Ident); ok {
		loc := ownership.SourceLocation{File: n.Pos().File, Line: n.Pos().Line, Column: n.Pos().Column}
		if err := c.Ownership.CheckCanBorrow(ident.Name, n.Mutable, loc); err != nil {
			c.errorf(n, "%v", err)
		} else {
			c.Ownership.RecordBorrow(ident.Name, "", n.Mutable, loc, c.Symbols.ScopeDepth())
		}
	}
	return c.setType(n, c.Registry.NewPtr(xt, n.Mutable, false))
}

func (c *Checker) checkDerefExpr(n *ast.DerefExpr) types.Type {
	xt := c.checkExpr(n.X)
	if ptr, ok := xt.(*types.Ptr); ok {
		if ptr.IsRaw && c.unsafeDepth == 0 {
			c.errorf(n, "dereferencing a raw pointer requires an unsafe block")
		}
		return c.setType(n, ptr.Pointee)
	}
	return c.setType(n, c.Registry.AnyType())
}

func (c *Checker) checkTernaryExpr(n *ast.TernaryExpr) types.Type {
	ct := c.checkExpr(n.Cond)
	if ct != nil && ct.Kind() != types.KindBool {
		c.errorf(n, "ternary condition must be bool, got %s", ct)
	}
	thenType := c.checkExpr(n.Then)
	elseType := c.checkExpr(n.Else)
	if thenType == nil || elseType == nil {
		return c.setType(n, c.Registry.ErrorType())
	}
	result := commonType(c.Registry, thenType, elseType)
	if result == nil {
		c.errorf(n, "ternary branches have incompatible types %s and %s", thenType, elseType)
		return c.setType(n, c.Registry.ErrorType())
	}
	return c.setType(n, result)
}

func (c *Checker) checkListExpr(n *ast.ListExpr) types.Type {
	if len(n.Elems) == 0 {
		return c.setType(n, c.Registry.NewList(c.Registry.AnyType()))
	}
	var elemType types.Type
	for _, el := range n.Elems {
		t := c.checkExpr(el)
		if elemType == nil {
			elemType = t
			continue
		}
		if merged := commonType(c.Registry, elemType, t); merged != nil {
			elemType = merged
		}
	}
	return c.setType(n, c.Registry.NewList(elemType))
}

func (c *Checker) checkRecordLitExpr(n *ast.RecordLitExpr) types.Type {
	t, ok := c.Symbols.LookupType(n.TypeName)
	if !ok {
		c.errorf(n, "unknown record type %q", n.TypeName)
		return c.setType(n, c.Registry.ErrorType())
	}
	rec, ok := t.(*types.Record)
	if !ok {
		c.errorf(n, "%q is not a record type", n.TypeName)
		return c.setType(n, c.Registry.ErrorType())
	}
	for _, name := range n.Order {
		valExpr := n.Fields[name]
		valType := c.checkExpr(valExpr)
		var found *types.RecordField
		for i := range rec.Fields {
			if rec.Fields[i].Name == name {
				found = &rec.Fields[i]
				break
			}
		}
		if found == nil {
			c.errorf(n, "record %s has no field %q", rec.Name, name)
			continue
		}
		if valType != nil && !isAssignable(found.Type, valType) {
			c.errorf(n, "field %q: cannot assign %s to %s", name, valType, found.Type)
		}
	}
	return c.setType(n, rec)
}

// lookupEffectOp finds operation opName on effect effName, reporting a
// diagnostic at n and returning (nil, false) on any lookup failure.
func (c *Checker) lookupEffectOp(n ast.Node, effName, opName string) (*types.Function, bool) {
	eff, ok := c.Registry.LookupEffect(effName)
	if !ok {
		c.errorf(n, "undeclared effect %q", effName)
		return nil, false
	}
	for _, op := range eff.Operations {
		if op.Name == opName {
			return op.Sig, true
		}
	}
	c.errorf(n, "effect %q has no operation %q", effName, opName)
	return nil, false
}

// checkPerformExpr checks `perform Effect.op(args)` (spec.md §4.4): args
// are checked against the effect's declared operation signature and the
// expression's type is that operation's declared return type, the same
// way a CallExpr's type comes from the callee Function's Ret.
func (c *Checker) checkPerformExpr(n *ast.PerformExpr) types.Type {
	for _, a := range n.Args {
		c.checkExpr(a)
	}
	sig, ok := c.lookupEffectOp(n, n.Effect, n.Op)
	if !ok {
		return c.setType(n, c.Registry.ErrorType())
	}
	if len(n.Args) != len(sig.Params) {
		c.errorf(n, "wrong number of arguments to %s.%s: expected %d, got %d", n.Effect, n.Op, len(sig.Params), len(n.Args))
	}
	return c.setType(n, sig.Ret)
}

// checkHandleExpr checks `handle Body with { Cases }` (spec.md §4.4).
// Each case's Body is checked in its own scope with its declared
// parameters bound to the matching operation's parameter types, plus an
// implicit `resume` function symbol bound back to the handled
// computation so the case body can call resume(value) to continue it.
// Matching a live perform to its case at runtime is a codegen concern;
// the checker's job is only to make the case bodies and their resume
// bindings type-check.
func (c *Checker) checkHandleExpr(n *ast.HandleExpr) types.Type {
	for i := range n.Cases {
		hc := n.Cases[i]
		sig, ok := c.lookupEffectOp(n, hc.Effect, hc.Op)
		if !ok {
			continue
		}
		c.Symbols.PushScope(symtab.ScopeBlock)
		for pi, pname := range hc.Params {
			pt := c.Registry.AnyType()
			if pi < len(sig.Params) {
				pt = sig.Params[pi]
			}
			c.Symbols.Define(&symtab.Symbol{Name: pname, Kind: symtab.KindVariable, Type: pt, Initialized: true})
		}
		resumeFn := c.Registry.NewFunction([]types.Type{sig.Ret}, []string{"value"}, c.Registry.AnyType(), false)
		c.Symbols.Define(&symtab.Symbol{Name: "resume", Kind: symtab.KindFunction, Type: resumeFn, Initialized: true})
		if hc.Body != nil {
			c.checkBlock(hc.Body)
		}
		c.Symbols.PopScope()
	}
	if n.Body != nil {
		c.checkBlock(n.Body)
	}
	return c.setType(n, c.Registry.Void())
}

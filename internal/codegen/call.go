package codegen

import (
	"tylc/internal/ast"
	"tylc/internal/ctfe"
	"tylc/internal/types"
	"tylc/internal/x64"
)

// genCallExpr dispatches a call site in the order spec.md §3.5's call
// dispatch list gives: comptime eval first, then (in
// original_source/src/backend/codegen/call/codegen_call_core.cpp's order)
// builtins (print/len/panic), then a generic instantiation request when
// TypeArgs is non-empty, then an ordinary direct call by mangled name —
// UFCS calls (Callee a SelectorExpr) are rewritten to a leading receiver
// argument and dispatched as a Type_method call.
func (g *Generator) genCallExpr(n *ast.CallExpr) {
	if ident, ok := n.Callee.(*ast.Ident); ok {
		if g.tryComptimeCall(ident.Name, n.Args) {
			return
		}
		switch ident.Name {
		case "print", "println":
			g.genPrintBuiltin(n.Args)
			return
		case "len":
			g.genLenBuiltin(n.Args)
			return
		case "panic":
			g.genPanicBuiltin(n.Args)
			return
		case "assert":
			g.genAssertBuiltin(n.Args)
			return
		case "abs":
			g.genAbsBuiltin(n.Args)
			return
		case "min", "min_of":
			g.genMinMaxBuiltin(n.Args, x64.CondL)
			return
		case "max", "max_of":
			g.genMinMaxBuiltin(n.Args, x64.CondG)
			return
		case "sqrt":
			g.genSqrtBuiltin(n.Args)
			return
		case "sleep":
			g.genSleepBuiltin(n.Args)
			return
		case "gc_collect":
			g.genGCCollectBuiltin()
			return
		case "gc_count":
			g.genGCCountBuiltin()
			return
		}
		if len(n.TypeArgs) > 0 {
			if base, ok := g.fns[ident.Name]; ok && len(base.TypeParams) > 0 {
				mangled := g.queueGenericInstantiation(base, n.TypeArgs)
				g.emitDirectCall(mangled, n.Args, base)
				return
			}
		}
		if fn, ok := g.fns[ident.Name]; ok {
			g.emitDirectCall(ident.Name, n.Args, fn)
			return
		}
	}
	if sel, ok := n.Callee.(*ast.SelectorExpr); ok {
		recvType := g.inferredType(sel.X)
		typeName := ""
		if rec, ok := recvType.(*types.Record); ok {
			typeName = rec.Name
		}
		mangled := typeName + "_" + sel.Sel
		if fn, ok := g.fns[mangled]; ok {
			allArgs := append([]ast.Expr{sel.X}, n.Args...)
			g.emitDirectCall(mangled, allArgs, fn)
			return
		}
	}
	g.enc.XorZero(x64.RAX)
	g.currentValue = valueInt
}

// tryComptimeCall folds a call to a registered comptime function whose
// arguments are all compile-time constants, emitting the result as a
// literal instead of a runtime call. It reports false (falling through to
// the rest of genCallExpr's dispatch, where the same FnDecl is also
// reachable as an ordinary callable) whenever name isn't comptime-eligible,
// any argument isn't foldable, or evaluation itself fails — a comptime
// function called with a non-constant argument is still valid TYL, it
// simply runs at runtime like any other function.
func (g *Generator) tryComptimeCall(name string, args []ast.Expr) bool {
	if !g.ctfeInterp.IsComptimeFunction(name) {
		return false
	}
	folded := make([]ctfe.Value, len(args))
	for i, a := range args {
		v, ok := constFold(a)
		if !ok {
			return false
		}
		folded[i] = v
	}
	result, err := g.ctfeInterp.EvaluateCall(name, folded)
	if err != nil {
		return false
	}
	return g.genConstValue(result)
}

// constFold recognizes the literal expression forms EvaluateCall's
// arguments can be built from; anything else (a variable, a nested call)
// isn't a compile-time constant as far as this pass is concerned, even if
// it happens to fold further inside the checker's own CTFE pass.
func constFold(e ast.Expr) (ctfe.Value, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return ctfe.Int(n.Value), true
	case *ast.FloatLit:
		return ctfe.Float(n.Value), true
	case *ast.BoolLit:
		return ctfe.Bool(n.Value), true
	case *ast.StringLit:
		return ctfe.String(n.Value), true
	default:
		return nil, false
	}
}

// genConstValue emits v as a literal through the ordinary genExpr literal
// paths, so it picks up the same RIP-fixup/data-interning handling a
// source-level literal would. Reports false (unhandled) for reference
// kinds (List/Record/Tuple) a single accumulator register can't hold.
func (g *Generator) genConstValue(v ctfe.Value) bool {
	switch val := v.(type) {
	case ctfe.Int:
		g.genExpr(&ast.IntLit{Value: int64(val)})
	case ctfe.Float:
		g.genExpr(&ast.FloatLit{Value: float64(val)})
	case ctfe.Bool:
		g.genExpr(&ast.BoolLit{Value: bool(val)})
	case ctfe.String:
		g.genExpr(&ast.StringLit{Value: string(val)})
	case ctfe.Nil:
		g.genExpr(&ast.NilLit{})
	default:
		return false
	}
	return true
}

// emitDirectCall evaluates args left-to-right into their ABI argument
// registers, then emits a direct call to label (shadow space reserved per
// the Windows x64 ABI, spec.md §4.7).
func (g *Generator) emitDirectCall(label string, args []ast.Expr, fn *ast.FnDecl) {
	// Every argument is evaluated and pushed before any argument register
	// is loaded, so an argument expression that itself calls a function
	// cannot clobber an already-populated register. The pops then run
	// last-to-first, putting argument i into the i-th ABI register — the
	// positional slot genFnBody reads parameter i from.
	isFloat := make([]bool, len(args))
	for i, a := range args {
		g.genExpr(a)
		if g.currentValue == valueFloat {
			isFloat[i] = true
			g.enc.SubRspImm32(8)
			g.enc.MovsdMemXmm(x64.RSP, 0, x64.XMM0)
		} else {
			g.enc.PushReg(x64.RAX)
		}
	}
	for i := len(args) - 1; i >= 0; i-- {
		if isFloat[i] {
			if i < len(floatArgRegs) {
				g.enc.MovsdXmmMem(floatArgRegs[i], x64.RSP, 0)
			}
			g.enc.AddRspImm32(8)
		} else {
			if i < len(intArgRegs) {
				g.enc.PopReg(intArgRegs[i])
			} else {
				g.enc.PopReg(x64.RCX) // overflow args beyond 4 are dropped in this pass (spec.md Non-goals: no >4-arg stack-passing)
			}
		}
	}
	g.enc.SubRspImm32(32)
	g.enc.CallRel32(label)
	g.enc.AddRspImm32(32)
	retType := g.resolveParamType(fn.RetType)
	if isFloatParam(retType) {
		g.currentValue = valueFloat
	} else {
		g.currentValue = valueInt
	}
}

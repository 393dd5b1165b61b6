package x64

// Condition is an x86 condition code used by Jcc, Setcc, and Cmovcc.
type Condition byte

const (
	CondO  Condition = 0x0 // overflow
	CondNO Condition = 0x1
	CondB  Condition = 0x2 // below / carry
	CondAE Condition = 0x3
	CondE  Condition = 0x4 // equal / zero
	CondNE Condition = 0x5
	CondBE Condition = 0x6
	CondA  Condition = 0x7
	CondL  Condition = 0xC // less (signed)
	CondGE Condition = 0xD
	CondLE Condition = 0xE
	CondG  Condition = 0xF
)

// ---- data movement ----

// MovRegImm64 emits `mov reg, imm64`.
func (e *Encoder) MovRegImm64(reg Reg, imm int64) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xB8 | reg.low3())
	e.emit64(imm)
}

// MovRegReg emits `mov dst, src`.
func (e *Encoder) MovRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x89)
	e.modrmRegReg(src, dst)
}

// MovRegMem emits `mov dst, [base+disp]` (memory operand via rbp/rax/rcx/rsp
// locals or heap-object bases, per spec.md §3.6/§4.7).
func (e *Encoder) MovRegMem(dst, base Reg, disp int32) {
	e.rex(true, dst.ext(), 0, base.ext())
	e.emit8(0x8B)
	e.modrmRegMem(dst, base, disp)
}

// MovMemReg emits `mov [base+disp], src`.
func (e *Encoder) MovMemReg(base Reg, disp int32, src Reg) {
	e.rex(true, src.ext(), 0, base.ext())
	e.emit8(0x89)
	e.modrmRegMem(src, base, disp)
}

// MovMemByteReg emits `mov byte [base+disp], src` — a single-byte store of
// src's low 8 bits, the write-side counterpart to MovzxEcxByte. Callers
// must keep src one of RAX/RCX/RDX/RBX/R8-R15: RSI/RDI/RSP/RBP's low-byte
// encoding without a REX prefix addresses AH/CH/DH/BH instead, which this
// encoder never intends.
func (e *Encoder) MovMemByteReg(base Reg, disp int32, src Reg) {
	e.rex(false, src.ext(), 0, base.ext())
	e.emit8(0x88)
	e.modrmRegMem(src, base, disp)
}

// MovMemImm32 emits `mov qword [base+disp], imm32` (the imm32 is
// sign-extended to 64 bits per standard x86-64 semantics).
func (e *Encoder) MovMemImm32(base Reg, disp int32, imm int32) {
	e.rex(true, 0, 0, base.ext())
	e.emit8(0xC7)
	e.modrmRegMem(Reg(0), base, disp)
	e.emit32(imm)
}

// MovzxEcxByte emits `movzx ecx, byte [base+disp]`, zero-extending a
// single byte into ecx — used for bool-to-int widening.
func (e *Encoder) MovzxEcxByte(base Reg, disp int32) {
	e.rex(false, RCX.ext(), 0, base.ext())
	e.emit8(0x0F)
	e.emit8(0xB6)
	e.modrmRegMem(RCX, base, disp)
}

// ---- LEA ----

// LeaRegMem emits `lea dst, [base+disp]`, loading an effective address
// without dereferencing — used for &expr borrow emission and array base
// computation.
func (e *Encoder) LeaRegMem(dst, base Reg, disp int32) {
	e.rex(true, dst.ext(), 0, base.ext())
	e.emit8(0x8D)
	e.modrmRegMem(dst, base, disp)
}

// LeaScaledIndex emits `lea dst, [base + index*scale]` (scale in
// {1,2,4,8}), the addressing form used for `arr[i]` element addresses
// where elemSize matches one of the SIB scale factors.
func (e *Encoder) LeaScaledIndex(dst, base, index Reg, scale byte) {
	e.rex(true, dst.ext(), index.ext(), base.ext())
	e.emit8(0x8D)
	e.emit8(0x04 | dst.low3()<<3)
	ss := map[byte]byte{1: 0, 2: 1, 4: 2, 8: 3}[scale]
	e.emit8(ss<<6 | index.low3()<<3 | base.low3())
}

// LeaMultiply emits `lea dst, [src*k]` for k in {2,3,4,5,8,9}, the
// classic multiply-by-small-constant-via-LEA trick (no base register,
// mod=00).
func (e *Encoder) LeaMultiply(dst, src Reg, k byte) {
	scaleOf := map[byte]byte{2: 1, 3: 1, 4: 2, 5: 2, 8: 3, 9: 3}
	ss, ok := scaleOf[k]
	if !ok {
		panic("x64: unsupported LEA multiplier")
	}
	e.rex(true, dst.ext(), src.ext(), 0)
	e.emit8(0x8D)
	if k == 3 || k == 5 || k == 9 {
		// [src + src*(k-1)] form: base == index == src.
		e.emit8(0x04 | dst.low3()<<3)
		e.emit8(ss<<6 | src.low3()<<3 | src.low3())
	} else {
		// pure [src*k], mod=00 base=101 means disp32-only base; use SIB
		// with base=101 and an explicit zero displacement instead.
		e.emit8(0x04 | dst.low3()<<3)
		e.emit8(ss<<6 | src.low3()<<3 | 0x5)
		e.emit32(0)
	}
}

// ---- stack ----

func (e *Encoder) PushReg(r Reg) {
	if r.ext() != 0 {
		e.rex(false, 0, 0, r.ext())
	}
	e.emit8(0x50 | r.low3())
}

func (e *Encoder) PopReg(r Reg) {
	if r.ext() != 0 {
		e.rex(false, 0, 0, r.ext())
	}
	e.emit8(0x58 | r.low3())
}

// SubRspImm32 emits `sub rsp, imm32`, allocating stack frame space.
func (e *Encoder) SubRspImm32(n int32) {
	e.rex(true, 0, 0, 0)
	e.emit8(0x81)
	e.emit8(0xEC) // ModRM: mod=11 /5 rsp
	e.emit32(n)
}

// AddRspImm32 emits `add rsp, imm32`, releasing stack frame space.
func (e *Encoder) AddRspImm32(n int32) {
	e.rex(true, 0, 0, 0)
	e.emit8(0x81)
	e.emit8(0xC4) // ModRM: mod=11 /0 rsp
	e.emit32(n)
}

// PushDirectImm32 emits `push imm32` directly, avoiding a reg round-trip
// for compile-time-constant arguments (the "direct push" peephole target
// the optimizer otherwise synthesizes from mov+push pairs).
func (e *Encoder) PushDirectImm32(imm int32) {
	e.emit8(0x68)
	e.emit32(imm)
}

// ---- arithmetic ----

func (e *Encoder) AddRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x01)
	e.modrmRegReg(src, dst)
}

func (e *Encoder) SubRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x29)
	e.modrmRegReg(src, dst)
}

// ImulRegReg emits `imul dst, src` (two-operand signed multiply).
func (e *Encoder) ImulRegReg(dst, src Reg) {
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xAF)
	e.modrmRegReg(dst, src)
}

// Cqo emits `cqo`, sign-extending rax into rdx:rax ahead of idiv.
func (e *Encoder) Cqo() {
	e.rex(true, 0, 0, 0)
	e.emit8(0x99)
}

// IdivReg emits `idiv reg` (signed rdx:rax / reg -> quotient rax, rem rdx).
func (e *Encoder) IdivReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xF7)
	e.emit8(0xF8 | reg.low3())
}

// DivReg emits `div reg` (unsigned rdx:rax / reg).
func (e *Encoder) DivReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xF7)
	e.emit8(0xF0 | reg.low3())
}

func (e *Encoder) NegReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xF7)
	e.emit8(0xD8 | reg.low3())
}

func (e *Encoder) NotReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xF7)
	e.emit8(0xD0 | reg.low3())
}

func (e *Encoder) IncReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xFF)
	e.emit8(0xC0 | reg.low3())
}

func (e *Encoder) DecReg(reg Reg) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xFF)
	e.emit8(0xC8 | reg.low3())
}

// ---- comparison ----

func (e *Encoder) CmpRegReg(a, b Reg) {
	e.rex(true, b.ext(), 0, a.ext())
	e.emit8(0x39)
	e.modrmRegReg(b, a)
}

func (e *Encoder) CmpRegImm32(reg Reg, imm int32) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0x81)
	e.emit8(0xF8 | reg.low3())
	e.emit32(imm)
}

// TestRegReg emits `test a, b` (ZF/SF set from a&b without storing the
// result), used both for explicit boolean tests and as a peephole
// replacement for `cmp reg, 0`.
func (e *Encoder) TestRegReg(a, b Reg) {
	e.rex(true, b.ext(), 0, a.ext())
	e.emit8(0x85)
	e.modrmRegReg(b, a)
}

// Setcc emits `setCC reg8` (the low byte of reg), storing the condition as
// a 0/1 byte.
func (e *Encoder) Setcc(cond Condition, reg Reg) {
	if reg.ext() != 0 {
		e.rex(false, 0, 0, reg.ext())
	}
	e.emit8(0x0F)
	e.emit8(0x90 | byte(cond))
	e.emit8(0xC0 | reg.low3())
}

// ---- logical ----

func (e *Encoder) XorRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x31)
	e.modrmRegReg(src, dst)
}

func (e *Encoder) AndRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x21)
	e.modrmRegReg(src, dst)
}

func (e *Encoder) OrRegReg(dst, src Reg) {
	e.rex(true, src.ext(), 0, dst.ext())
	e.emit8(0x09)
	e.modrmRegReg(src, dst)
}

// XorZero emits `xor reg, reg`, the canonical way to zero a register (the
// peephole optimizer's optimizeXorZero pattern recognizes and produces
// this form from `mov reg, 0`).
func (e *Encoder) XorZero(reg Reg) { e.XorRegReg(reg, reg) }

// ---- shift / bit manipulation ----

func (e *Encoder) ShlRegImm8(reg Reg, n byte) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xC1)
	e.emit8(0xE0 | reg.low3())
	e.emit8(n)
}

func (e *Encoder) ShrRegImm8(reg Reg, n byte) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xC1)
	e.emit8(0xE8 | reg.low3())
	e.emit8(n)
}

func (e *Encoder) SarRegImm8(reg Reg, n byte) {
	e.rex(true, 0, 0, reg.ext())
	e.emit8(0xC1)
	e.emit8(0xF8 | reg.low3())
	e.emit8(n)
}

// BsrRegReg emits `bsr dst, src` (index of the highest set bit).
func (e *Encoder) BsrRegReg(dst, src Reg) {
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xBD)
	e.modrmRegReg(dst, src)
}

// BsfRegReg emits `bsf dst, src` (index of the lowest set bit).
func (e *Encoder) BsfRegReg(dst, src Reg) {
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xBC)
	e.modrmRegReg(dst, src)
}

// PopcntRegReg emits `popcnt dst, src` (requires the 0xF3 mandatory
// prefix, distinguishing it from the bsf opcode family).
func (e *Encoder) PopcntRegReg(dst, src Reg) {
	e.emit8(0xF3)
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xB8)
	e.modrmRegReg(dst, src)
}

// LzcntRegReg / TzcntRegReg share popcnt's 0xF3-prefixed encoding shape.
func (e *Encoder) LzcntRegReg(dst, src Reg) {
	e.emit8(0xF3)
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xBD)
	e.modrmRegReg(dst, src)
}

func (e *Encoder) TzcntRegReg(dst, src Reg) {
	e.emit8(0xF3)
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0xBC)
	e.modrmRegReg(dst, src)
}

// ---- conditional move ----

// Cmovcc emits `cmovCC dst, src`.
func (e *Encoder) Cmovcc(cond Condition, dst, src Reg) {
	e.rex(true, dst.ext(), 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0x40 | byte(cond))
	e.modrmRegReg(dst, src)
}

// ---- control flow ----

// JmpRel32 emits `jmp rel32` and records a fixup against label.
func (e *Encoder) JmpRel32(label string) {
	e.emit8(0xE9)
	e.FixupLabel(label)
}

// JccRel32 emits a conditional near jump to label.
func (e *Encoder) JccRel32(cond Condition, label string) {
	e.emit8(0x0F)
	e.emit8(0x80 | byte(cond))
	e.FixupLabel(label)
}

// CallRel32 emits `call rel32` to label (a known function's entry label).
func (e *Encoder) CallRel32(label string) {
	e.emit8(0xE8)
	e.FixupLabel(label)
}

// CallMemRIP emits `call [rip+disp32]`, the IAT-indirect call form used
// for extern/import calls (spec.md §6.2's PE import table).
func (e *Encoder) CallMemRIP(targetRVA uint32) {
	e.emit8(0xFF)
	e.emit8(0x15) // ModRM: mod=00 /2 rm=101 (RIP-relative)
	e.FixupRIP(targetRVA)
}

// LeaRegRIP emits `lea dst, [rip+disp32]` — loading the address of a data
// section value (a string literal, a float constant, a record template)
// into a general-purpose register, the non-call counterpart to
// CallMemRIP.
func (e *Encoder) LeaRegRIP(dst Reg, targetRVA uint32) {
	e.rex(true, dst.ext(), 0, 0)
	e.emit8(0x8D)
	e.emit8(0x05 | dst.low3()<<3) // ModRM: mod=00 rm=101 (RIP-relative), reg=dst
	e.FixupRIP(targetRVA)
}

// MovsdXmmRIP emits `movsd dst, [rip+disp32]` — loading a double-precision
// float constant directly from the data section into an XMM register.
func (e *Encoder) MovsdXmmRIP(dst XMM, targetRVA uint32) {
	e.emit8(0xF2)
	if byte(dst) >= 8 {
		e.rex(false, 1, 0, 0)
	}
	e.emit8(0x0F)
	e.emit8(0x10)
	e.emit8(0x05 | (byte(dst)&0x7)<<3)
	e.FixupRIP(targetRVA)
}

// CallRax emits `call rax` (indirect call through a computed function
// pointer, e.g. a trait-object vtable slot).
func (e *Encoder) CallRax() { e.emit8(0xFF); e.emit8(0xD0) }

func (e *Encoder) Ret()  { e.emit8(0xC3) }
func (e *Encoder) Nop()  { e.emit8(0x90) }
func (e *Encoder) Int3() { e.emit8(0xCC) }

// Syscall emits the `syscall` instruction — present for TYL's inline
// `asm` blocks (spec.md §4.7); this backend's own runtime never issues it
// directly, since every OS interaction goes through the Win32 import
// surface instead.
func (e *Encoder) Syscall() { e.emit8(0x0F); e.emit8(0x05) }

// ---- prologue/epilogue helpers (callee-saved registers) ----

// PushCalleeSaved emits push instructions, in order, for every register in
// regs — used for the Windows x64 ABI's rbx/rbp/rdi/rsi/r12-r15
// callee-saved set (spec.md §4.7).
func (e *Encoder) PushCalleeSaved(regs ...Reg) {
	for _, r := range regs {
		e.PushReg(r)
	}
}

// PopCalleeSaved emits pop instructions in reverse order, restoring what
// PushCalleeSaved saved.
func (e *Encoder) PopCalleeSaved(regs ...Reg) {
	for i := len(regs) - 1; i >= 0; i-- {
		e.PopReg(regs[i])
	}
}

// ---- SSE/SSE2 scalar float/double ----

func sseRex(e *Encoder, r, b byte) {
	if r != 0 || b != 0 {
		e.rex(false, r, 0, b)
	}
}

// MovsdXmmMem emits `movsd xmm, [base+disp]`.
func (e *Encoder) MovsdXmmMem(dst XMM, base Reg, disp int32) {
	e.emit8(0xF2)
	sseRex(e, byte(dst)>>3, base.ext())
	e.emit8(0x0F)
	e.emit8(0x10)
	e.modrmRegMem(Reg(dst&0x7), base, disp)
}

// MovsdMemXmm emits `movsd [base+disp], xmm`.
func (e *Encoder) MovsdMemXmm(base Reg, disp int32, src XMM) {
	e.emit8(0xF2)
	sseRex(e, byte(src)>>3, base.ext())
	e.emit8(0x0F)
	e.emit8(0x11)
	e.modrmRegMem(Reg(src&0x7), base, disp)
}

func (e *Encoder) sseOpRegReg(prefix, opcode byte, dst, src XMM) {
	if prefix != 0 {
		e.emit8(prefix)
	}
	sseRex(e, byte(dst)>>3, byte(src)>>3)
	e.emit8(0x0F)
	e.emit8(opcode)
	e.modrmRegReg(Reg(dst&0x7), Reg(src&0x7))
}

func (e *Encoder) AddsdXmm(dst, src XMM)  { e.sseOpRegReg(0xF2, 0x58, dst, src) }
func (e *Encoder) SubsdXmm(dst, src XMM)  { e.sseOpRegReg(0xF2, 0x5C, dst, src) }
func (e *Encoder) MulsdXmm(dst, src XMM)  { e.sseOpRegReg(0xF2, 0x59, dst, src) }
func (e *Encoder) DivsdXmm(dst, src XMM)  { e.sseOpRegReg(0xF2, 0x5E, dst, src) }
func (e *Encoder) ComisdXmm(a, b XMM)     { e.sseOpRegReg(0x66, 0x2F, a, b) }
func (e *Encoder) UcomisdXmm(a, b XMM)    { e.sseOpRegReg(0x66, 0x2E, a, b) }
func (e *Encoder) XorpdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0x57, dst, src) }
func (e *Encoder) SqrtsdXmm(dst, src XMM) { e.sseOpRegReg(0xF2, 0x51, dst, src) }

func (e *Encoder) AddssXmm(dst, src XMM) { e.sseOpRegReg(0xF3, 0x58, dst, src) }
func (e *Encoder) SubssXmm(dst, src XMM) { e.sseOpRegReg(0xF3, 0x5C, dst, src) }
func (e *Encoder) MulssXmm(dst, src XMM) { e.sseOpRegReg(0xF3, 0x59, dst, src) }
func (e *Encoder) DivssXmm(dst, src XMM) { e.sseOpRegReg(0xF3, 0x5E, dst, src) }

// CvtsiToSd emits `cvtsi2sd xmm, reg`, converting a signed 64-bit int to
// double.
func (e *Encoder) CvtsiToSd(dst XMM, src Reg) {
	e.emit8(0xF2)
	e.rex(true, byte(dst)>>3, 0, src.ext())
	e.emit8(0x0F)
	e.emit8(0x2A)
	e.modrmRegReg(Reg(dst&0x7), src)
}

// CvttsdToSi emits `cvttsd2si reg, xmm`, truncating double to int64.
func (e *Encoder) CvttsdToSi(dst Reg, src XMM) {
	e.emit8(0xF2)
	e.rex(true, dst.ext(), 0, byte(src)>>3)
	e.emit8(0x0F)
	e.emit8(0x2C)
	e.modrmRegReg(dst, Reg(src&0x7))
}

func (e *Encoder) CvtssToSd(dst, src XMM) { e.sseOpRegReg(0xF3, 0x5A, dst, src) }
func (e *Encoder) CvtsdToSs(dst, src XMM) { e.sseOpRegReg(0xF2, 0x5A, dst, src) }

// ---- SSE/AVX packed SIMD (spec.md's Vec/Mat lane types) ----

func (e *Encoder) MovdquXmm(dst, src XMM) { e.sseOpRegReg(0xF3, 0x6F, dst, src) }
func (e *Encoder) MovdqaXmm(dst, src XMM) { e.sseOpRegReg(0x66, 0x6F, dst, src) }
func (e *Encoder) PadddXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0xFE, dst, src) }
func (e *Encoder) PsubdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0xFA, dst, src) }
// PmulldXmm emits `pmulld dst, src` (SSE4.1's three-byte 0F 38 opcode
// map, unlike the other packed ops here which live in the two-byte map).
func (e *Encoder) PmulldXmm(dst, src XMM) {
	e.emit8(0x66)
	sseRex(e, byte(dst)>>3, byte(src)>>3)
	e.emit8(0x0F)
	e.emit8(0x38)
	e.emit8(0x40)
	e.modrmRegReg(Reg(dst&0x7), Reg(src&0x7))
}
func (e *Encoder) PaddqXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0xD4, dst, src) }
func (e *Encoder) PsubqXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0xFB, dst, src) }
func (e *Encoder) MovupdXmm(dst, src XMM) { e.sseOpRegReg(0x66, 0x10, dst, src) }
func (e *Encoder) MovapdXmm(dst, src XMM) { e.sseOpRegReg(0x66, 0x28, dst, src) }
func (e *Encoder) AddpdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0x58, dst, src) }
func (e *Encoder) SubpdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0x5C, dst, src) }
func (e *Encoder) MulpdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0x59, dst, src) }
func (e *Encoder) DivpdXmm(dst, src XMM)  { e.sseOpRegReg(0x66, 0x5E, dst, src) }
func (e *Encoder) MovupsXmm(dst, src XMM) { e.sseOpRegReg(0x00, 0x10, dst, src) }
func (e *Encoder) AddpsXmm(dst, src XMM)  { e.sseOpRegReg(0x00, 0x58, dst, src) }
func (e *Encoder) SubpsXmm(dst, src XMM)  { e.sseOpRegReg(0x00, 0x5C, dst, src) }
func (e *Encoder) MulpsXmm(dst, src XMM)  { e.sseOpRegReg(0x00, 0x59, dst, src) }
func (e *Encoder) DivpsXmm(dst, src XMM)  { e.sseOpRegReg(0x00, 0x5E, dst, src) }
func (e *Encoder) HaddpdXmm(dst, src XMM) { e.sseOpRegReg(0x66, 0x7C, dst, src) }
func (e *Encoder) HaddpsXmm(dst, src XMM) { e.sseOpRegReg(0xF2, 0x7C, dst, src) }
func (e *Encoder) PxorXmm(dst, src XMM)   { e.sseOpRegReg(0x66, 0xEF, dst, src) }

// PshufdXmm emits `pshufd dst, src, imm8` (lane shuffle used by the
// vectorizer pass to broadcast/rearrange SIMD lanes).
func (e *Encoder) PshufdXmm(dst, src XMM, imm8 byte) {
	e.emit8(0x66)
	sseRex(e, byte(dst)>>3, byte(src)>>3)
	e.emit8(0x0F)
	e.emit8(0x70)
	e.modrmRegReg(Reg(dst&0x7), Reg(src&0x7))
	e.emit8(imm8)
}

// MovdquXmmMem emits `movdqu dst, [base+disp]`: the vectorizer's load of
// one 16-byte packed-integer lane group out of a constant data block.
func (e *Encoder) MovdquXmmMem(dst XMM, base Reg, disp int32) {
	e.emit8(0xF3)
	sseRex(e, byte(dst)>>3, base.ext())
	e.emit8(0x0F)
	e.emit8(0x6F)
	e.modrmRegMem(Reg(dst&0x7), base, disp)
}

// MovdquMemXmm emits `movdqu [base+disp], src`, the store form used to
// round-trip a packed accumulator through memory for scalar horizontal
// reduction (there is no packed-integer horizontal-add instruction in this
// encoder).
func (e *Encoder) MovdquMemXmm(base Reg, disp int32, src XMM) {
	e.emit8(0xF3)
	sseRex(e, byte(src)>>3, base.ext())
	e.emit8(0x0F)
	e.emit8(0x7F)
	e.modrmRegMem(Reg(src&0x7), base, disp)
}

// MovupdXmmMem emits `movupd dst, [base+disp]`: the vectorizer's load of
// one 16-byte (two lanes of f64) packed-double group.
func (e *Encoder) MovupdXmmMem(dst XMM, base Reg, disp int32) {
	e.emit8(0x66)
	sseRex(e, byte(dst)>>3, base.ext())
	e.emit8(0x0F)
	e.emit8(0x10)
	e.modrmRegMem(Reg(dst&0x7), base, disp)
}

// ShufpdXmm emits `shufpd dst, src, imm8`.
func (e *Encoder) ShufpdXmm(dst, src XMM, imm8 byte) {
	e.emit8(0x66)
	sseRex(e, byte(dst)>>3, byte(src)>>3)
	e.emit8(0x0F)
	e.emit8(0xC6)
	e.modrmRegReg(Reg(dst&0x7), Reg(src&0x7))
	e.emit8(imm8)
}

func (e *Encoder) MovddupXmm(dst, src XMM) { e.sseOpRegReg(0xF2, 0x12, dst, src) }

// PextrdXmmReg emits `pextrd reg, xmm, imm8`, extracting a 32-bit lane
// into a GPR (three-byte 0F 3A opcode map).
func (e *Encoder) PextrdXmmReg(dst Reg, src XMM, imm8 byte) {
	e.emit8(0x66)
	e.rex(false, byte(src)>>3, 0, dst.ext())
	e.emit8(0x0F)
	e.emit8(0x3A)
	e.emit8(0x16)
	e.modrmRegReg(Reg(src&0x7), dst)
	e.emit8(imm8)
}

// ExtractpsXmmReg emits `extractps reg, xmm, imm8` (float-lane analogue
// of PextrdXmmReg).
func (e *Encoder) ExtractpsXmmReg(dst Reg, src XMM, imm8 byte) {
	e.emit8(0x66)
	e.rex(false, byte(src)>>3, 0, dst.ext())
	e.emit8(0x0F)
	e.emit8(0x3A)
	e.emit8(0x17)
	e.modrmRegReg(Reg(src&0x7), dst)
	e.emit8(imm8)
}

// Package x64 implements a direct-to-machine-code x86-64 encoder: a byte
// buffer, named labels with relative-jump fixups, RIP-relative fixups for
// data/import references, and typed instruction-emission methods. Ported
// from original_source/src/backend/x64/x64_assembler.h, generalized from
// ~300 fixed-register methods (mov_rax_imm64, mov_rcx_imm64, ...) to a
// smaller set of register-parameterized methods plus the handful of
// conventionally named wrappers codegen calls most often — the same
// specialize-a-generic-core shape cmd_local/compile/internal/*/ggen.go
// uses for its per-opcode emit helpers.
package x64

import (
	"encoding/binary"
	"fmt"
)

// Reg is a general-purpose 64-bit register, encoded as its 4-bit x86-64
// register number (REX.B/REX.R extend it past the legacy 3-bit field).
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

func (r Reg) String() string {
	names := [...]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	return names[r&0xF]
}

// low3 returns the register's 3-bit ModRM/opcode-extension field.
func (r Reg) low3() byte { return byte(r) & 0x7 }

// ext returns 1 if r needs REX.B/REX.R/REX.X to be addressable, else 0.
func (r Reg) ext() byte {
	if r >= R8 {
		return 1
	}
	return 0
}

// XMM is an SSE/SSE2 128-bit register.
type XMM uint8

const (
	XMM0 XMM = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15
)

// fixup kinds.
type labelFixup struct {
	offset int
	name   string
}

type ripFixup struct {
	offset    int
	targetRVA uint32
}

// Encoder accumulates machine code and the fixups needed to resolve label
// references and RIP-relative addresses once the code's final load
// address (codeRVA) is known.
type Encoder struct {
	Code []byte

	labels       map[string]int
	labelFixups  []labelFixup
	ripFixups    []ripFixup
}

// New returns an empty Encoder.
func New() *Encoder {
	return &Encoder{labels: make(map[string]int)}
}

func (e *Encoder) CurrentOffset() int { return len(e.Code) }

// Label records name as bound to the current code offset.
func (e *Encoder) Label(name string) {
	e.labels[name] = len(e.Code)
}

// FixupLabel emits a placeholder 4-byte rel32 operand and records a fixup
// to patch it once name's offset (and the base RVA) are known. Callers
// emit the opcode bytes first, then call FixupLabel for the displacement.
func (e *Encoder) FixupLabel(name string) {
	e.labelFixups = append(e.labelFixups, labelFixup{offset: len(e.Code), name: name})
	e.emit32(0)
}

// FixupRIP emits a placeholder 4-byte RIP-relative displacement and
// records a fixup against targetRVA (an absolute RVA within the final
// image, resolved relative to the instruction's end once codeRVA is
// known).
func (e *Encoder) FixupRIP(targetRVA uint32) {
	e.ripFixups = append(e.ripFixups, ripFixup{offset: len(e.Code), targetRVA: targetRVA})
	e.emit32(0)
}

// Resolve patches every recorded label and RIP fixup now that the code
// buffer's load address (codeRVA, default 0x1000 per spec.md §3.6) is
// known. Must be called exactly once, after all emission is complete and
// before any peephole pass runs (peephole never changes code length, so
// fixup offsets remain valid through it).
func (e *Encoder) Resolve(codeRVA uint32) error {
	for _, f := range e.labelFixups {
		target, ok := e.labels[f.name]
		if !ok {
			return fmt.Errorf("x64: unresolved label %q", f.name)
		}
		// rel32 is relative to the address of the *next* instruction,
		// i.e. the byte right after this 4-byte displacement field.
		rel := int32(target - (f.offset + 4))
		binary.LittleEndian.PutUint32(e.Code[f.offset:], uint32(rel))
	}
	for _, f := range e.ripFixups {
		instrEnd := uint32(codeRVA) + uint32(f.offset) + 4
		rel := int32(f.targetRVA) - int32(instrEnd)
		binary.LittleEndian.PutUint32(e.Code[f.offset:], uint32(rel))
	}
	return nil
}

// ---- raw emission helpers ----

func (e *Encoder) emit8(b byte)       { e.Code = append(e.Code, b) }
func (e *Encoder) emit32(v int32)     { e.Code = append(e.Code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
func (e *Encoder) emit64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	e.Code = append(e.Code, buf[:]...)
}

// rex emits a REX prefix iff w, r, x, or b require one (w forces emission,
// matching REX.W for 64-bit operand size).
func (e *Encoder) rex(w bool, r, x, b byte) {
	if !w && r == 0 && x == 0 && b == 0 {
		return
	}
	prefix := byte(0x40)
	if w {
		prefix |= 0x08
	}
	prefix |= r << 2
	prefix |= x << 1
	prefix |= b
	e.emit8(prefix)
}

// modrmRegReg emits a ModRM byte for a direct register-to-register form
// (mod=11).
func (e *Encoder) modrmRegReg(reg, rm Reg) {
	e.emit8(0xC0 | reg.low3()<<3 | rm.low3())
}

// modrmRegMem emits a ModRM (+ SIB if base is rsp/r12) for [base+disp32]
// addressing, always using the disp32 form for simplicity and uniform
// instruction length (helpful for peephole's length-preserving patches).
func (e *Encoder) modrmRegMem(reg, base Reg, disp int32) {
	e.emit8(0x80 | reg.low3()<<3 | base.low3())
	if base.low3() == 0x4 { // rsp/r12 require a SIB byte
		e.emit8(0x24)
	}
	e.emit32(disp)
}

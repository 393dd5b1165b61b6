package peephole

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"
	"tylc/internal/x64"
)

func countInsns(t *testing.T, code []byte) int {
	t.Helper()
	n := 0
	off := 0
	for off < len(code) {
		in, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			t.Fatalf("decode at %d: %v", off, err)
		}
		n++
		off += in.Len
	}
	return n
}

func TestOptimizeNeverShrinksBuffer(t *testing.T) {
	e := x64.New()
	e.XorZero(x64.RAX)
	e.XorZero(x64.RAX)
	e.Ret()
	code := e.Code
	before := len(code)

	o := New()
	after := o.Optimize(code)
	if after != before {
		t.Fatalf("Optimize changed buffer length: %d -> %d", before, after)
	}
	if len(code) != before {
		t.Fatalf("underlying slice length changed: %d -> %d", before, len(code))
	}
}

func TestRedundantXorXorIsNopped(t *testing.T) {
	e := x64.New()
	e.XorZero(x64.RAX)
	e.XorZero(x64.RAX)
	e.Ret()
	code := e.Code

	o := New()
	o.Optimize(code)
	if o.OptimizationCount() == 0 {
		t.Fatalf("expected at least one optimization")
	}
	if _, err := x86asm.Decode(code, 64); err != nil {
		t.Fatalf("decode: %v", err)
	}
	n := countInsns(t, code)
	if n != 5 { // xor, three one-byte nops over the 3-byte second xor, ret
		t.Fatalf("expected 5 decoded instructions (xor/nop/nop/nop/ret), got %d", n)
	}
}

func TestXorBeforeMovImmIsNopped(t *testing.T) {
	e := x64.New()
	e.XorZero(x64.RCX)
	e.MovRegImm64(x64.RCX, 7)
	e.Ret()
	code := e.Code

	o := New()
	o.Optimize(code)
	if o.OptimizationCount() == 0 {
		t.Fatalf("expected the xor to be eliminated")
	}
	countInsns(t, code)
}

func TestCoalesceMovMovIsNopped(t *testing.T) {
	e := x64.New()
	e.MovRegImm64(x64.RAX, 5)
	e.MovRegReg(x64.RCX, x64.RAX)
	e.MovRegReg(x64.RAX, x64.RCX)
	e.Ret()
	code := e.Code

	o := New()
	o.Optimize(code)
	if o.OptimizationCount() == 0 {
		t.Fatalf("expected the round-trip mov to be eliminated")
	}
	countInsns(t, code)
}

func TestSpillConstantThroughStackCollapsesToImm32Load(t *testing.T) {
	e := x64.New()
	e.MovRegImm64(x64.RAX, 42)
	e.PushReg(x64.RAX)
	e.MovRegImm64(x64.RBX, 1) // unrelated instruction in between, must not block the match
	e.PopReg(x64.RCX)
	e.Ret()
	code := e.Code

	o := New()
	o.Optimize(code)
	if o.OptimizationCount() == 0 {
		t.Fatalf("expected the spilled constant to collapse")
	}
	countInsns(t, code)
	if code[0] != 0xB9 {
		t.Fatalf("expected mov ecx, imm32 opcode 0xB9 at offset 0, got %#x", code[0])
	}
}

func TestRedundantStoreReloadIsNopped(t *testing.T) {
	e := x64.New()
	e.MovMemReg(x64.RBP, -8, x64.RAX)
	e.MovRegMem(x64.RAX, x64.RBP, -8)
	e.Ret()
	code := e.Code

	o := New()
	o.Optimize(code)
	if o.OptimizationCount() == 0 {
		t.Fatalf("expected the reload to be eliminated")
	}
	countInsns(t, code)
}

func TestAggressiveModeGatesRegisterCoalescing(t *testing.T) {
	e := x64.New()
	e.MovRegImm64(x64.RAX, 5)
	e.MovRegReg(x64.RCX, x64.RAX)
	e.MovRegReg(x64.RAX, x64.RCX)
	e.Ret()
	code := e.Code

	o := New()
	o.SetAggressiveMode(false)
	o.Optimize(code)
	if o.OptimizationCount() != 0 {
		t.Fatalf("expected no optimizations with aggressive mode off, got %d", o.OptimizationCount())
	}
}

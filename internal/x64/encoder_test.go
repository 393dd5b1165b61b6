package x64

import "testing"

func TestMovRegImm64RoundTrips(t *testing.T) {
	e := New()
	e.MovRegImm64(RAX, 0x1122334455667788)
	lines, err := Disassemble(e.Code, 0x1000)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 instruction, got %d: %v", len(lines), lines)
	}
}

func TestLabelFixupResolvesForwardJump(t *testing.T) {
	e := New()
	e.JmpRel32("end")
	e.Nop()
	e.Label("end")
	e.Ret()

	if err := e.Resolve(0x1000); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble after resolve: %v", err)
	}
}

func TestUnresolvedLabelErrors(t *testing.T) {
	e := New()
	e.JmpRel32("nowhere")
	if err := e.Resolve(0x1000); err == nil {
		t.Fatalf("expected error for unresolved label")
	}
}

func TestRipFixupPatchesDisplacement(t *testing.T) {
	e := New()
	e.CallMemRIP(0x2000)
	if err := e.Resolve(0x1000); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// instruction is 6 bytes (FF 15 + disp32); disp32 = target - (rva+6)
	got := int32(uint32(e.Code[2]) | uint32(e.Code[3])<<8 | uint32(e.Code[4])<<16 | uint32(e.Code[5])<<24)
	want := int32(0x2000) - int32(0x1000+6)
	if got != want {
		t.Fatalf("rip fixup = %d, want %d", got, want)
	}
}

func TestPrologueEpilogueRoundTrip(t *testing.T) {
	e := New()
	e.PushCalleeSaved(RBX, R12, R13)
	e.PushReg(RBP)
	e.MovRegReg(RBP, RSP)
	e.SubRspImm32(32)
	e.AddRspImm32(32)
	e.PopReg(RBP)
	e.PopCalleeSaved(RBX, R12, R13)
	e.Ret()

	n, err := CountInstructions(e.Code)
	if err != nil {
		t.Fatalf("CountInstructions: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12 decoded instructions, got %d", n)
	}
}

func TestArithmeticAndCompareSequence(t *testing.T) {
	e := New()
	e.MovRegImm64(RAX, 10)
	e.MovRegImm64(RCX, 3)
	e.AddRegReg(RAX, RCX)
	e.ImulRegReg(RAX, RCX)
	e.CmpRegReg(RAX, RCX)
	e.Setcc(CondG, RDX)
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestSSEScalarSequenceDecodes(t *testing.T) {
	e := New()
	e.MovsdXmmMem(XMM0, RBP, -8)
	e.MovsdXmmMem(XMM1, RBP, -16)
	e.AddsdXmm(XMM0, XMM1)
	e.SqrtsdXmm(XMM0, XMM0)
	e.MovsdMemXmm(RBP, -24, XMM0)
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestPackedSIMDSequenceDecodes(t *testing.T) {
	e := New()
	e.MovdquXmm(XMM0, XMM1)
	e.PadddXmm(XMM0, XMM1)
	e.PmulldXmm(XMM0, XMM1)
	e.PshufdXmm(XMM2, XMM0, 0x4E)
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestLeaMultiplyByThree(t *testing.T) {
	e := New()
	e.LeaMultiply(RAX, RCX, 3)
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestCallRel32Fixup(t *testing.T) {
	e := New()
	e.Label("main")
	e.CallRel32("helper")
	e.Ret()
	e.Label("helper")
	e.MovRegImm64(RAX, 1)
	e.Ret()
	if err := e.Resolve(0x1000); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestLeaRegRIPPatchesDisplacement(t *testing.T) {
	e := New()
	e.LeaRegRIP(RCX, 0x3000)
	if err := e.Resolve(0x1000); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// lea rcx, [rip+disp32] is REX.W(1) 8D 0D + disp32 (7 bytes total).
	if len(e.Code) != 7 {
		t.Fatalf("expected 7-byte encoding, got %d: % x", len(e.Code), e.Code)
	}
	got := int32(uint32(e.Code[3]) | uint32(e.Code[4])<<8 | uint32(e.Code[5])<<16 | uint32(e.Code[6])<<24)
	want := int32(0x3000) - int32(0x1000+7)
	if got != want {
		t.Fatalf("rip fixup = %d, want %d", got, want)
	}
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestMovsdXmmRIPDecodes(t *testing.T) {
	e := New()
	e.MovsdXmmRIP(XMM0, 0x2000)
	e.MovsdXmmRIP(XMM8, 0x2008)
	if err := e.Resolve(0x1000); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestSyscallDecodes(t *testing.T) {
	e := New()
	e.MovRegImm64(RAX, 60)
	e.XorZero(RDI)
	e.Syscall()
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestMovMemByteRegRoundTrip(t *testing.T) {
	e := New()
	e.MovRegImm64(RDI, 0x2000)
	e.MovRegImm64(RAX, '9')
	e.MovMemByteReg(RDI, 0, RAX)
	e.MovzxEcxByte(RDI, 0)
	if _, err := Disassemble(e.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

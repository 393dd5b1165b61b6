package image

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestAddDataAssignsSequentialRVAs(t *testing.T) {
	b := NewBuilder()
	rva1 := b.AddData([]byte("hello\x00"))
	rva2 := b.AddData([]byte("world\x00"))
	if rva1 != DataRVA {
		t.Fatalf("first AddData RVA = %#x, want %#x", rva1, DataRVA)
	}
	if rva2 != DataRVA+6 {
		t.Fatalf("second AddData RVA = %#x, want %#x", rva2, DataRVA+6)
	}
}

func TestAddImportDeduplicatesByDLLAndName(t *testing.T) {
	b := NewBuilder()
	a := b.AddImport("kernel32.dll", "ExitProcess")
	c := b.AddImport("kernel32.dll", "ExitProcess")
	if a != c {
		t.Fatalf("expected AddImport to return the same *Import for a repeated dll!name")
	}
}

func TestFinalizeImportsAssignsEightByteSlots(t *testing.T) {
	b := NewBuilder()
	a := b.AddImport("kernel32.dll", "GetStdHandle")
	c := b.AddImport("kernel32.dll", "ExitProcess")
	b.FinalizeImports()
	if a.RVA != IdataRVA {
		t.Fatalf("first import RVA = %#x, want %#x", a.RVA, IdataRVA)
	}
	if c.RVA != IdataRVA+8 {
		t.Fatalf("second import RVA = %#x, want %#x", c.RVA, IdataRVA+8)
	}
}

func TestWritePEProducesWellFormedDOSAndPEHeaders(t *testing.T) {
	b := NewBuilder()
	b.Code = []byte{0xC3} // ret
	b.AddImport("kernel32.dll", "ExitProcess")
	b.FinalizeImports()

	out, err := b.WritePE()
	if err != nil {
		t.Fatalf("WritePE: %v", err)
	}
	if out[0] != 'M' || out[1] != 'Z' {
		t.Fatalf("missing MZ signature")
	}
	lfanew := binary.LittleEndian.Uint32(out[0x3C:])
	if int(lfanew) != peHeaderOffset {
		t.Fatalf("e_lfanew = %d, want %d", lfanew, peHeaderOffset)
	}
	sig := out[lfanew : lfanew+4]
	if !bytes.Equal(sig, []byte("PE\x00\x00")) {
		t.Fatalf("missing PE signature at e_lfanew, got %q", sig)
	}
	machine := binary.LittleEndian.Uint16(out[lfanew+4:])
	if machine != machineAMD64 {
		t.Fatalf("machine = %#x, want %#x", machine, machineAMD64)
	}
	numSections := binary.LittleEndian.Uint16(out[lfanew+6:])
	if numSections != 3 {
		t.Fatalf("number of sections = %d, want 3", numSections)
	}
	optMagic := binary.LittleEndian.Uint16(out[lfanew+24:])
	if optMagic != optionalHdrMagicPE32Plus {
		t.Fatalf("optional header magic = %#x, want %#x", optMagic, optionalHdrMagicPE32Plus)
	}
}

func TestWriteObjectRejectsOverlongEntrySymbol(t *testing.T) {
	b := NewBuilder()
	if _, err := b.WriteObject("wayTooLongAnEntrySymbolName"); err == nil {
		t.Fatalf("expected an error for an entry symbol longer than 8 chars")
	}
}

func TestWriteObjectProducesOneSectionCOFF(t *testing.T) {
	b := NewBuilder()
	b.Code = []byte{0xC3}
	out, err := b.WriteObject("main")
	if err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	machine := binary.LittleEndian.Uint16(out)
	if machine != machineAMD64 {
		t.Fatalf("machine = %#x, want %#x", machine, machineAMD64)
	}
	numSections := binary.LittleEndian.Uint16(out[2:])
	if numSections != 1 {
		t.Fatalf("number of sections = %d, want 1", numSections)
	}
}

package x64

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble decodes code as a sequence of x86-64 instructions starting
// at the given virtual address, returning one formatted line per
// instruction. Used by -dumpasm and by tests that check codegen output
// structurally rather than byte-for-byte (spec.md §6.2, §8).
func Disassemble(code []byte, addr uint64) ([]string, error) {
	var lines []string
	off := 0
	for off < len(code) {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			return lines, fmt.Errorf("x64: disassemble at +%#x: %w", off, err)
		}
		lines = append(lines, fmt.Sprintf("%#08x: %s", addr+uint64(off), x86asm.GoSyntax(inst, addr+uint64(off), nil)))
		if inst.Len == 0 {
			break
		}
		off += inst.Len
	}
	return lines, nil
}

// CountInstructions decodes code and returns how many well-formed
// instructions it contains, without producing text — used by peephole
// tests to sanity-check that a rewrite didn't corrupt the stream into
// undecodable bytes.
func CountInstructions(code []byte) (int, error) {
	n := 0
	off := 0
	for off < len(code) {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			return n, err
		}
		if inst.Len == 0 {
			break
		}
		off += inst.Len
		n++
	}
	return n, nil
}

// Dump renders lines joined with newlines, matching the -dumpasm output
// format.
func Dump(lines []string) string { return strings.Join(lines, "\n") }

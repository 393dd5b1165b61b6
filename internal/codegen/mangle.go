package codegen

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// mangleName produces a deterministic, COFF-safe symbol name for a generic
// function instantiation base[T1,T2,...]: fn$T1$T2 in the common case,
// falling back to a blake2b-256 hash suffix when the straightforward form
// would run past a practical symbol-name length (spec.md §4.1's
// monomorphisation naming). A short content hash keeps generated labels
// bounded and collision-free without sacrificing determinism across
// repeated compiles of the same source.
func mangleName(base string, typeArgs []string) string {
	if len(typeArgs) == 0 {
		return base
	}
	name := base + "$" + strings.Join(typeArgs, "$")
	if len(name) <= 64 {
		return name
	}
	sum := blake2b.Sum256([]byte(name))
	return fmt.Sprintf("%s$%x", base, sum[:8])
}

// substituteTypeParams rewrites every whole-identifier occurrence of a
// type parameter name in text (a type-annotation string, e.g. "[T;4]" or
// "Pair[T,U]") with its corresponding concrete type-argument text, used to
// monomorphise a generic function's parameter/return type annotations
// before codegen walks its body.
func substituteTypeParams(text string, typeParams []string, typeArgs []string) string {
	for i, tp := range typeParams {
		if i >= len(typeArgs) {
			break
		}
		text = replaceWholeIdent(text, tp, typeArgs[i])
	}
	return text
}

func replaceWholeIdent(text, old, newText string) string {
	if old == "" {
		return text
	}
	var b strings.Builder
	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], old) && !isIdentByte(byteAt(text, i-1)) && !isIdentByte(byteAt(text, i+len(old))) {
			b.WriteString(newText)
			i += len(old)
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func byteAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

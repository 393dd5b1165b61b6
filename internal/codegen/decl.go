package codegen

import (
	"tylc/internal/ast"
	"tylc/internal/x64"
)

// windows x64 ABI: first four integer args in rcx/rdx/r8/r9, first four
// float args in xmm0-3 (the same 4-register limit internal/x64.XMM bakes
// into its XMM0..XMM3 enum — this ABI surface is the reason that enum
// stops at 4).
var intArgRegs = [...]x64.Reg{x64.RCX, x64.RDX, x64.R8, x64.R9}
var floatArgRegs = [...]x64.XMM{x64.XMM0, x64.XMM1, x64.XMM2, x64.XMM3}

// genFnBody emits fn's prologue, body, and epilogue under the given
// (possibly mangled) label. Frame size is determined by a pre-pass that
// counts declared locals, matching codegen_core.cpp's
// functionStackSize_/stackAllocated_ fields (computed once per function
// rather than grown incrementally, since every local's offset must be
// fixed before any reference to it is emitted).
func (g *Generator) genFnBody(label string, fn *ast.FnDecl) {
	if g.emitted[label] || fn.Body == nil {
		return
	}
	g.emitted[label] = true

	g.locals = make(map[string]*localVar)
	cur := *fn
	cur.Name = label // genReturnStmt jumps to currentFn.Name + "_ret"
	g.currentFn = &cur
	g.loops = nil
	g.currentRet = g.resolveParamType(fn.RetType)

	localCount := countLocals(fn.Body) + len(fn.Params)
	frameSize := alignFrame(int32(localCount)*8 + 32)

	g.enc.Label(label)
	g.enc.PushCalleeSaved(x64.RBX, x64.RSI, x64.RDI)
	g.enc.PushReg(x64.RBP)
	g.enc.MovRegReg(x64.RBP, x64.RSP)
	g.enc.SubRspImm32(frameSize)

	for i, p := range fn.Params {
		offset := int32(-(i + 1) * 8)
		pt := g.resolveParamType(p.TypeName)
		g.locals[p.Name] = &localVar{offset: offset, typ: pt}
		if i < len(intArgRegs) {
			if isFloatParam(pt) && i < len(floatArgRegs) {
				g.enc.MovsdMemXmm(x64.RBP, offset, floatArgRegs[i])
			} else {
				g.enc.MovMemReg(x64.RBP, offset, intArgRegs[i])
			}
		}
	}
	g.nextLocalSlot = -int32(len(fn.Params)+1) * 8

	g.genBlock(fn.Body)

	g.enc.Label(label + "_ret")
	g.enc.MovRegReg(x64.RSP, x64.RBP)
	g.enc.PopReg(x64.RBP)
	g.enc.PopCalleeSaved(x64.RDI, x64.RSI, x64.RBX)
	g.enc.Ret()
}

// genGenericInstantiation clones a generic FnDecl's type-annotation text
// with its TypeParams substituted for concrete type-argument text (see
// mangle.go's substituteTypeParams), then generates the specialized body
// under its mangled label — monomorphisation by source-level string
// substitution rather than AST copying, since internal/ast stores every
// type annotation as unresolved text in the first place.
func (g *Generator) genGenericInstantiation(p pendingGeneric) {
	base := p.base
	specialized := &ast.FnDecl{
		Base:    base.Base,
		Name:    p.mangledName,
		RetType: substituteTypeParams(base.RetType, base.TypeParams, p.typeArgs),
		Body:    base.Body,
	}
	for _, param := range base.Params {
		specialized.Params = append(specialized.Params, ast.Param{
			Name:      param.Name,
			TypeName:  substituteTypeParams(param.TypeName, base.TypeParams, p.typeArgs),
			ParamMode: param.ParamMode,
		})
	}
	g.genFnBody(p.mangledName, specialized)
}

// queueGenericInstantiation requests base[typeArgs...] be emitted once the
// main declaration pass finishes, returning the mangled label callers
// should branch to immediately (the label is valid even before the body
// is generated, since x86 call/jmp fixups resolve against label position,
// not emission order).
func (g *Generator) queueGenericInstantiation(base *ast.FnDecl, typeArgs []string) string {
	mangled := mangleName(base.Name, typeArgs)
	if !g.emitted[mangled] {
		alreadyQueued := false
		for _, p := range g.pending {
			if p.mangledName == mangled {
				alreadyQueued = true
				break
			}
		}
		if !alreadyQueued {
			g.pending = append(g.pending, pendingGeneric{mangledName: mangled, base: base, typeArgs: typeArgs})
		}
	}
	return mangled
}

func alignFrame(n int32) int32 {
	return (n + 15) / 16 * 16
}

// countLocals counts every VarDecl a function body declares, including
// inside nested blocks/if/while/for/unsafe, to size the stack frame once
// up front.
func countLocals(body *ast.BlockStmt) int {
	n := 0
	var walk func(ast.Stmt)
	walk = func(s ast.Stmt) {
		switch v := s.(type) {
		case *ast.VarDecl:
			n++
		case *ast.BlockStmt:
			for _, st := range v.Stmts {
				walk(st)
			}
		case *ast.IfStmt:
			walk(v.Then)
			if v.Else != nil {
				walk(v.Else)
			}
		case *ast.WhileStmt:
			walk(v.Body)
		case *ast.ForStmt:
			n++ // the loop variable itself occupies a slot
			walk(v.Body)
		case *ast.UnsafeStmt:
			walk(v.Body)
		}
	}
	walk(body)
	return n
}

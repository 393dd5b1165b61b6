package codegen

import (
	"tylc/internal/ast"
	"tylc/internal/x64"
)

// genHandleExpr lowers `handle Body with { Cases }` (spec.md §4.4). This
// pass performs direct-style, single-shot effect dispatch: Cases is pushed
// onto g.handlers so any perform reached while lowering Body resolves
// against it, and popped once Body is done. There is no stack-switching
// continuation machinery here — a handler case that calls resume exactly
// once, in tail position, lowers exactly as a function call would; that is
// the only shape this compiler's single-pass codegen supports.
func (g *Generator) genHandleExpr(n *ast.HandleExpr) {
	g.handlers = append(g.handlers, handlerFrame{cases: n.Cases})
	g.genBlock(n.Body)
	g.handlers = g.handlers[:len(g.handlers)-1]
}

// genPerformExpr lowers `perform Effect.op(args)`: it binds args to the
// matching handler case's declared parameters as ordinary locals, then
// lowers the case body, treating a bare `resume(value)` call as the point
// where the perform expression's value is produced (see genHandlerBody).
// A perform with no enclosing handler for Effect.op is a runtime error,
// the same failure mode as a failed assert (spec.md §4.4: an unhandled
// effect aborts the process rather than unwinding, since TYL has no
// unwind/recover path).
func (g *Generator) genPerformExpr(n *ast.PerformExpr) {
	hc, ok := g.findHandlerCase(n.Effect, n.Op)
	if !ok {
		g.genPanicBuiltin(nil)
		return
	}
	for i, pname := range hc.Params {
		if i >= len(n.Args) {
			break
		}
		g.genExpr(n.Args[i])
		lv := g.allocLocal(pname, g.inferredType(n.Args[i]))
		if isFloatParam(lv.typ) {
			g.enc.MovsdMemXmm(x64.RBP, lv.offset, x64.XMM0)
		} else {
			g.enc.MovMemReg(x64.RBP, lv.offset, x64.RAX)
		}
	}
	g.genHandlerBody(hc.Body)
}

// findHandlerCase searches the active handler stack innermost-first, so a
// nested handle for the same effect/op shadows an outer one.
func (g *Generator) findHandlerCase(effect, op string) (*ast.HandlerCase, bool) {
	for i := len(g.handlers) - 1; i >= 0; i-- {
		cases := g.handlers[i].cases
		for j := range cases {
			if cases[j].Effect == effect && cases[j].Op == op {
				return &cases[j], true
			}
		}
	}
	return nil, false
}

// genHandlerBody lowers a handler case's statements in order, except that
// a statement consisting of a bare `resume(...)` call short-circuits the
// rest of the body: its argument is evaluated as the handled perform's
// result and lowering of the case stops there, mirroring resume's role as
// the continuation back to the perform call site.
func (g *Generator) genHandlerBody(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		if g.genResumeStmt(s) {
			return
		}
		g.genStmt(s)
	}
}

func (g *Generator) genResumeStmt(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	ident, ok := call.Callee.(*ast.Ident)
	if !ok || ident.Name != "resume" {
		return false
	}
	if len(call.Args) > 0 {
		g.genExpr(call.Args[0])
	} else {
		g.enc.XorZero(x64.RAX)
		g.currentValue = valueInt
	}
	return true
}

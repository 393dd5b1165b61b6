package codegen

import (
	"testing"

	"tylc/internal/ast"
	"tylc/internal/x64"
)

// handledLogFn builds `fn main() -> i32 { x = handle { perform Logger.log(5) }
// with { Logger.log(n) => resume(n + 1) }; return x }`.
func handledLogFn() *ast.FnDecl {
	perform := &ast.ExprStmt{X: &ast.PerformExpr{Effect: "Logger", Op: "log", Args: []ast.Expr{intLit(5)}}}
	resume := &ast.ExprStmt{X: &ast.CallExpr{
		Callee: ident("resume"),
		Args:   []ast.Expr{&ast.BinaryExpr{Op: "+", Left: ident("n"), Right: intLit(1)}},
	}}
	handle := &ast.HandleExpr{
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{perform}},
		Cases: []ast.HandlerCase{
			{Effect: "Logger", Op: "log", Params: []string{"n"}, Body: &ast.BlockStmt{Stmts: []ast.Stmt{resume}}},
		},
	}
	return &ast.FnDecl{Name: "main", RetType: "i32", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.VarDecl{Name: "x", Init: handle},
		&ast.ReturnStmt{Value: ident("x")},
	}}}
}

func TestHandledPerformDisassemblesAndResolvesResume(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{handledLogFn()}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(img.Code) == 0 {
		t.Fatal("expected non-empty code for a handled perform")
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

// TestUnhandledPerformPanics confirms a perform with no enclosing handle
// for its effect/op lowers to a real (disassemblable) panic call rather
// than silently emitting nothing.
func TestUnhandledPerformPanics(t *testing.T) {
	g := newGenerator()
	fn := &ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.PerformExpr{Effect: "Logger", Op: "log", Args: []ast.Expr{intLit(1)}}},
	}}}
	f := &ast.File{Decls: []ast.Decl{fn}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(img.Code) == 0 {
		t.Fatal("expected the unhandled-perform panic path to emit code")
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

package codegen

import (
	"testing"

	"tylc/internal/ast"
	"tylc/internal/x64"
)

func intListLit(vals ...int64) *ast.ListExpr {
	elems := make([]ast.Expr, len(vals))
	for i, v := range vals {
		elems[i] = &ast.IntLit{Value: v}
	}
	return &ast.ListExpr{Elems: elems}
}

func floatListLit(vals ...float64) *ast.ListExpr {
	elems := make([]ast.Expr, len(vals))
	for i, v := range vals {
		elems[i] = &ast.FloatLit{Value: v}
	}
	return &ast.ListExpr{Elems: elems}
}

func sumLoop(iter ast.Expr) *ast.FnDecl {
	return &ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.VarDecl{Name: "sum", Init: &ast.IntLit{Value: 0}},
		&ast.ForStmt{Name: "x", Iter: iter, Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.AssignStmt{Target: ident("sum"), Op: "+=", Value: ident("x")},
		}}},
		&ast.ReturnStmt{Value: ident("sum")},
	}}, RetType: "i32"}
}

func TestVectorizedIntReductionDisassemblesAndUsesPackedOps(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{sumLoop(intListLit(1, 2, 3, 4, 5, 6, 7, 8))}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
	if len(img.Data) == 0 {
		t.Fatal("expected the vectorizer to intern the list literal as constant data")
	}
}

func TestVectorizedFloatReductionDisassembles(t *testing.T) {
	g := newGenerator()
	fn := sumLoop(floatListLit(1.5, 2.5, 3.5, 4.5))
	fn.Body.Stmts[0] = &ast.VarDecl{Name: "sum", Init: &ast.FloatLit{Value: 0}}
	fn.RetType = "f64"
	f := &ast.File{Decls: []ast.Decl{fn}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

// TestNonVectorizableForStmtFallsBackToScalarLoop confirms a shape the
// vectorizer doesn't recognize (an odd lane count) still compiles via
// genForStmt's ordinary per-element lowering.
func TestNonVectorizableForStmtFallsBackToScalarLoop(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{sumLoop(intListLit(1, 2, 3))}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

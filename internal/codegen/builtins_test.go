package codegen

import (
	"testing"

	"tylc/internal/ast"
	"tylc/internal/image"
	"tylc/internal/x64"
)

func mainCalling(name string, args ...ast.Expr) *ast.File {
	return &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: ident(name), Args: args}},
		}}},
	}}
}

func TestNewBuiltinsProduceDecodableCode(t *testing.T) {
	cases := []struct {
		name string
		args []ast.Expr
	}{
		{"assert", []ast.Expr{&ast.BoolLit{Value: true}}},
		{"abs", []ast.Expr{intLit(-3)}},
		{"abs", []ast.Expr{&ast.FloatLit{Value: -1.5}}},
		{"min", []ast.Expr{intLit(1), intLit(2)}},
		{"max", []ast.Expr{intLit(1), intLit(2)}},
		{"sqrt", []ast.Expr{&ast.FloatLit{Value: 4}}},
		{"sleep", []ast.Expr{intLit(10)}},
		{"gc_collect", nil},
		{"gc_count", nil},
	}
	for _, c := range cases {
		g := newGenerator()
		img, err := g.Generate(mainCalling(c.name, c.args...))
		if err != nil {
			t.Fatalf("%s: Generate: %v", c.name, err)
		}
		if _, err := x64.Disassemble(img.Code, uint64(image.CodeRVA)); err != nil {
			t.Fatalf("%s: generated code failed to disassemble: %v", c.name, err)
		}
	}
}

package pipeline

import (
	"bytes"
	"testing"

	"tylc/internal/ast"
)

func emptyMain() *ast.File {
	return &ast.File{
		Decls: []ast.Decl{
			&ast.FnDecl{Name: "main", RetType: "int", Body: &ast.BlockStmt{
				Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 0}}},
			}},
		},
	}
}

func TestRunProducesAPEImageForAValidProgram(t *testing.T) {
	res, err := Run(emptyMain(), Options{OptLevel: 1})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", res.Diags.String())
	}
	if len(res.Bytes) == 0 {
		t.Fatal("expected non-empty PE bytes")
	}
	if !bytes.HasPrefix(res.Bytes, []byte("MZ")) {
		t.Fatalf("expected a DOS/PE header, got first bytes %x", res.Bytes[:2])
	}
}

func TestRunSkipsCodegenOnCheckErrors(t *testing.T) {
	badFile := &ast.File{
		Decls: []ast.Decl{
			&ast.FnDecl{Name: "main", RetType: "int", Body: &ast.BlockStmt{
				Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.Ident{Name: "undefined_variable"}}},
			}},
		},
	}
	res, err := Run(badFile, Options{OptLevel: 1})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Diags.HasErrors() {
		t.Fatal("expected checker diagnostics for an undefined identifier")
	}
	if res.Bytes != nil {
		t.Fatal("expected codegen to be skipped when checking fails")
	}
}

func TestRunEmitsCOFFObjectWhenObjectModeIsSet(t *testing.T) {
	res, err := Run(emptyMain(), Options{ObjectMode: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Bytes) == 0 {
		t.Fatal("expected non-empty object bytes")
	}
}

func TestRunZeroOptLevelSkipsPeephole(t *testing.T) {
	res, err := Run(emptyMain(), Options{OptLevel: 0})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.PeepholeOptimCount != 0 {
		t.Fatalf("expected no peephole optimizations at -opt=0, got %d", res.PeepholeOptimCount)
	}
}

// TestRunEmitsDropCallsAtScopeExit exercises spec.md §8 scenario 6: a
// non-Copy record implementing Drop must produce a call when its
// declaring block's scope closes, which shows up as a larger serialized
// image than the no-Drop-impl baseline of the same shape.
func TestRunEmitsDropCallsAtScopeExit(t *testing.T) {
	withoutDrop := &ast.File{Decls: []ast.Decl{
		&ast.RecordDecl{Name: "R", Fields: []ast.Param{{Name: "n", TypeName: "i32"}}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "a", Init: &ast.RecordLitExpr{TypeName: "R",
				Fields: map[string]ast.Expr{"n": &ast.IntLit{Value: 1}}, Order: []string{"n"}}},
		}}},
	}}
	withDrop := &ast.File{Decls: []ast.Decl{
		&ast.RecordDecl{Name: "R", Fields: []ast.Param{{Name: "n", TypeName: "i32"}}},
		&ast.TraitDecl{Name: "Drop", Methods: []*ast.FnDecl{{Name: "drop"}}},
		&ast.ImplDecl{TraitName: "Drop", ForType: "R", Methods: []*ast.FnDecl{
			{Name: "drop", Params: []ast.Param{{Name: "self", TypeName: "R"}},
				Body: &ast.BlockStmt{}},
		}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "a", Init: &ast.RecordLitExpr{TypeName: "R",
				Fields: map[string]ast.Expr{"n": &ast.IntLit{Value: 1}}, Order: []string{"n"}}},
		}}},
	}}

	base, err := Run(withoutDrop, Options{OptLevel: 0})
	if err != nil {
		t.Fatalf("Run (without Drop) returned error: %v", err)
	}
	if base.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics (without Drop): %s", base.Diags.String())
	}

	withD, err := Run(withDrop, Options{OptLevel: 0})
	if err != nil {
		t.Fatalf("Run (with Drop) returned error: %v", err)
	}
	if withD.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics (with Drop): %s", withD.Diags.String())
	}

	if len(withD.Bytes) <= len(base.Bytes) {
		t.Fatalf("expected the Drop-implementing program to emit more code (drop call + drop method body + its own R_drop entry), got %d vs %d bytes", len(withD.Bytes), len(base.Bytes))
	}
}

func TestRunInvokesDumpAsmCallback(t *testing.T) {
	var dumped string
	_, err := Run(emptyMain(), Options{OptLevel: 1, DumpAsm: func(s string) { dumped = s }})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if dumped == "" {
		t.Fatal("expected DumpAsm callback to receive a non-empty disassembly listing")
	}
}

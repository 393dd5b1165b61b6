package codegen

import (
	"testing"

	"tylc/internal/ast"
	"tylc/internal/diag"
	"tylc/internal/image"
	"tylc/internal/symtab"
	"tylc/internal/types"
	"tylc/internal/x64"
)

func newGenerator() *Generator {
	reg := types.NewRegistry()
	return New(reg, symtab.NewTable(reg), &diag.List{})
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }
func intLit(v int64) *ast.IntLit   { return &ast.IntLit{Value: v} }

// emptyMain is the minimal complete program: a single void main with no
// statements, used by tests that only care about the entry stub / PE
// layout rather than any particular function body.
func emptyMain() *ast.File {
	return &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{}},
	}}
}

func TestGenerateEmptyProgramProducesValidImage(t *testing.T) {
	g := newGenerator()
	img, err := g.Generate(emptyMain())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(img.Code) == 0 {
		t.Fatalf("expected non-empty code section")
	}
	if _, err := x64.Disassemble(img.Code, uint64(image.CodeRVA)); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

func TestGenerateWiresFixedWin32ImportSurface(t *testing.T) {
	g := newGenerator()
	if _, err := g.Generate(emptyMain()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, key := range []string{"kernel32.dll!GetStdHandle", "kernel32.dll!ExitProcess", "kernel32.dll!WriteConsoleA"} {
		if _, ok := g.winImports[key]; !ok {
			t.Fatalf("expected %s to be registered as an import", key)
		}
	}
}

func TestGenerateInternsStringLiteralsOnce(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("print"), Args: []ast.Expr{&ast.StringLit{Value: "hi"}}}},
			&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("print"), Args: []ast.Expr{&ast.StringLit{Value: "hi"}}}},
		}}},
	}}
	if _, err := g.Generate(f); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(g.stringData) != 1 {
		t.Fatalf("expected one deduplicated string literal, got %d", len(g.stringData))
	}
}

func TestGenerateAddFunctionDisassembles(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "add", Params: []ast.Param{
			{Name: "a", TypeName: "i32"}, {Name: "b", TypeName: "i32"},
		}, RetType: "i32", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "+", Left: ident("a"), Right: ident("b")}},
		}}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("add"), Args: []ast.Expr{intLit(1), intLit(2)}}},
		}}},
	}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

func TestGenericInstantiationIsQueuedAndEmittedOnce(t *testing.T) {
	g := newGenerator()
	identityFn := &ast.FnDecl{
		Name:       "identity",
		TypeParams: []string{"T"},
		Params:     []ast.Param{{Name: "x", TypeName: "T"}},
		RetType:    "T",
		Body:       &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: ident("x")}}},
	}
	f := &ast.File{Decls: []ast.Decl{
		identityFn,
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("identity"), TypeArgs: []string{"i32"}, Args: []ast.Expr{intLit(1)}}},
		}}},
	}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	mangled := mangleName("identity", []string{"i32"})
	if !g.emitted[mangled] {
		t.Fatalf("expected %s to have been emitted", mangled)
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

func TestUFCSCallRewritesToMethodDispatch(t *testing.T) {
	g := newGenerator()
	f := &ast.File{Decls: []ast.Decl{
		&ast.RecordDecl{Name: "Counter", Fields: []ast.Param{{Name: "n", TypeName: "i32"}}},
		&ast.ImplDecl{ForType: "Counter", Methods: []*ast.FnDecl{
			{Name: "get", Params: []ast.Param{{Name: "self", TypeName: "Counter"}}, RetType: "i32",
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(0)}}}},
		}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{Callee: &ast.SelectorExpr{X: &ast.RecordLitExpr{TypeName: "Counter"}, Sel: "get"}}},
		}}},
	}}
	img, err := g.Generate(f)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := g.fns["Counter_get"]; !ok {
		t.Fatalf("expected Counter_get to be registered from the impl block")
	}
	if _, err := x64.Disassemble(img.Code, 0x1000); err != nil {
		t.Fatalf("generated code does not disassemble: %v", err)
	}
}

// TestEmitScopeDropsCallsTheMangledDropMethod wires SetDrops directly
// (bypassing internal/check) to confirm genBlock's scope-exit pass emits
// a real call once a name is both locally declared and listed in the
// drop snapshot for its block.
func TestEmitScopeDropsCallsTheMangledDropMethod(t *testing.T) {
	g := newGenerator()
	g.enc = x64.New()
	rec := g.Registry.NewRecord("R", nil)
	g.locals["a"] = &localVar{offset: -8, typ: rec}
	g.fns["R_drop"] = &ast.FnDecl{Name: "drop", Params: []ast.Param{{Name: "self", TypeName: "R"}}}
	block := &ast.BlockStmt{}
	g.SetDrops(map[*ast.BlockStmt][]string{block: {"a"}})

	before := len(g.enc.Code)
	g.emitScopeDrops(block)
	if len(g.enc.Code) <= before {
		t.Fatal("expected emitScopeDrops to emit a call to R_drop")
	}
	if _, err := x64.Disassemble(g.enc.Code, 0x1000); err != nil {
		t.Fatalf("emitted code does not disassemble: %v", err)
	}
}

// TestEmitScopeDropsSkipsNamesWithNoDropImpl covers NeedsDropType's
// builtin-wrapper-kind branch (Box/Rc/Arc/...): a name can be listed in
// the drop snapshot without any Type_drop function existing to call.
func TestEmitScopeDropsSkipsNamesWithNoDropImpl(t *testing.T) {
	g := newGenerator()
	g.enc = x64.New()
	rec := g.Registry.NewRecord("Box", nil)
	g.locals["a"] = &localVar{offset: -8, typ: rec}
	block := &ast.BlockStmt{}
	g.SetDrops(map[*ast.BlockStmt][]string{block: {"a"}})

	before := len(g.enc.Code)
	g.emitScopeDrops(block)
	if len(g.enc.Code) != before {
		t.Fatal("expected no code to be emitted when no Type_drop function is registered")
	}
}

func TestAssembleInlineEmitsKnownMnemonics(t *testing.T) {
	enc := x64.New()
	assembleInline(enc, "mov rax, 42\npush rax\npop rcx\nxor rdx, rdx\nret")
	if _, err := x64.Disassemble(enc.Code, 0x1000); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
}

func TestMangleNameFallsBackToHashWhenLong(t *testing.T) {
	longArgs := []string{"SomeVeryLongGenericTypeParameterNameThatPushesPastTheLimit"}
	name := mangleName("aFunctionWithAnAlreadyQuiteLongNameOfItsOwn", longArgs)
	if len(name) > 64 {
		t.Fatalf("mangled name exceeds 64 chars: %d (%s)", len(name), name)
	}
}

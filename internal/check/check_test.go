package check

import (
	"testing"

	"tylc/internal/ast"
)

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }
func intLit(v int64) *ast.IntLit   { return &ast.IntLit{Value: v} }

func TestUndefinedIdentifierIsAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: ident("nope")},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected undefined identifier to fail the check")
	}
}

func TestComptimeCallIsMarkedOnTheCallExpr(t *testing.T) {
	c := New()
	call := &ast.CallExpr{Callee: ident("double"), Args: []ast.Expr{intLit(2)}}
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "double", Comptime: true, Params: []ast.Param{{Name: "x", TypeName: "int"}},
			RetType: "int", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "+", Left: ident("x"), Right: ident("x")}},
			}}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: call},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected program to check cleanly, got: %s", c.Diags.String())
	}
	if !call.Comptime {
		t.Fatal("expected checkCallExpr to mark a call to a registered comptime function")
	}
}

func TestVarDeclTypeMismatchReported(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "x", TypeName: "bool", Init: intLit(1)},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected assigning int to a bool-typed var to fail the check")
	}
}

func TestValidFunctionPasses(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "add", Params: []ast.Param{
			{Name: "a", TypeName: "i32"}, {Name: "b", TypeName: "i32"},
		}, RetType: "i32", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "+", Left: ident("a"), Right: ident("b")}},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected valid function to pass the check, got: %s", c.Diags.String())
	}
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.BreakStmt{},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected break outside a loop to fail the check")
	}
}

func TestWhileLoopAllowsBreak(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.WhileStmt{
				Cond: &ast.BoolLit{Value: true},
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
			},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected break inside a while loop to pass, got: %s", c.Diags.String())
	}
}

func TestRecordFieldAccessResolvesType(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.RecordDecl{Name: "Point", Fields: []ast.Param{
			{Name: "x", TypeName: "i32"}, {Name: "y", TypeName: "i32"},
		}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "p", Init: &ast.RecordLitExpr{
				TypeName: "Point",
				Fields:   map[string]ast.Expr{"x": intLit(1), "y": intLit(2)},
				Order:    []string{"x", "y"},
			}},
			&ast.ExprStmt{X: &ast.SelectorExpr{X: ident("p"), Sel: "x"}},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected record literal and field access to pass, got: %s", c.Diags.String())
	}
}

func TestUnknownTraitInImplIsAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.ImplDecl{TraitName: "NoSuchTrait", ForType: "Point"},
	}}
	if c.Check(f) {
		t.Fatalf("expected impl of an undeclared trait to fail the check")
	}
}

func TestTraitImplRecorded(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.TraitDecl{Name: "Greet", Methods: []*ast.FnDecl{
			{Name: "greet", RetType: "str"},
		}},
		&ast.RecordDecl{Name: "Person"},
		&ast.ImplDecl{TraitName: "Greet", ForType: "Person", Methods: []*ast.FnDecl{
			{Name: "greet", RetType: "str", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.StringLit{Value: "hi"}},
			}}},
		}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected trait impl to pass, got: %s", c.Diags.String())
	}
	personType, ok := c.Symbols.LookupType("Person")
	if !ok {
		t.Fatalf("expected Person record type to be registered")
	}
	if _, ok := c.Registry.FindImpl("Greet", personType); !ok {
		t.Fatalf("expected impl Greet for Person to be recorded")
	}
}

func TestMovingANonCopyValueMakesFurtherUseAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.RecordDecl{Name: "R", Fields: []ast.Param{{Name: "n", TypeName: "i32"}}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "a", Init: &ast.RecordLitExpr{TypeName: "R",
				Fields: map[string]ast.Expr{"n": intLit(1)}, Order: []string{"n"}}},
			&ast.VarDecl{Name: "b", Init: ident("a")},
			&ast.ExprStmt{X: ident("a")},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected use of a moved-from record to fail the check")
	}
}

func TestCopyTypesAreNotTrackedAsMoved(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "a", Init: intLit(1)},
			&ast.VarDecl{Name: "b", Init: ident("a")},
			&ast.ExprStmt{X: ident("a")},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected moving a Copy value to leave the source usable, got: %s", c.Diags.String())
	}
}

func TestRefinedTypeViolationIsAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.TypeAliasDecl{Name: "Positive", Target: "i32", Refinement: "_ > 0"},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "x", TypeName: "Positive", Init: intLit(-1)},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected a negative value to violate the Positive refinement")
	}
}

func TestRefinedTypeSatisfiedIsNotAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.TypeAliasDecl{Name: "Positive", Target: "i32", Refinement: "_ > 0"},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDecl{Name: "x", TypeName: "Positive", Init: intLit(5)},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected a positive value to satisfy the Positive refinement, got: %s", c.Diags.String())
	}
}

func TestPerformOfUndeclaredEffectIsAnError(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.PerformExpr{Effect: "Logger", Op: "log", Args: []ast.Expr{intLit(1)}}},
		}}},
	}}
	if c.Check(f) {
		t.Fatalf("expected perform of an undeclared effect to fail the check")
	}
}

func TestHandledPerformResolvesResumeBinding(t *testing.T) {
	c := New()
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
	f := &ast.File{Decls: []ast.Decl{
		&ast.EffectDecl{Name: "Logger", Operations: []*ast.FnDecl{
			{Name: "log", Params: []ast.Param{{Name: "n", TypeName: "i32"}}, RetType: "i32"},
		}},
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: handle},
		}}},
	}}
	if !c.Check(f) {
		t.Fatalf("expected a handled perform with a resume binding to pass, got: %s", c.Diags.String())
	}
}

func TestDiagnosticsSortDeterministically(t *testing.T) {
	c := New()
	f := &ast.File{Decls: []ast.Decl{
		&ast.FnDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: ident("unknown_b")},
			&ast.ExprStmt{X: ident("unknown_a")},
		}}},
	}}
	c.Check(f)
	if c.Diags.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", c.Diags.Len())
	}
}

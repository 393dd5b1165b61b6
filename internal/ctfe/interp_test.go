package ctfe

import (
	"testing"

	"tylc/internal/ast"
)

func fnBody(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{Stmts: stmts}
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }
func intLit(v int64) *ast.IntLit   { return &ast.IntLit{Value: v} }

// factorial(n) = n <= 1 ? 1 : n * factorial(n-1)
func factorialFn() *ast.FnDecl {
	return &ast.FnDecl{
		Name:     "factorial",
		Comptime: true,
		Params:   []ast.Param{{Name: "n"}},
		Body: fnBody(
			&ast.ReturnStmt{
				Value: &ast.TernaryExpr{
					Cond: &ast.BinaryExpr{Op: "<=", Left: ident("n"), Right: intLit(1)},
					Then: intLit(1),
					Else: &ast.BinaryExpr{
						Op:   "*",
						Left: ident("n"),
						Right: &ast.CallExpr{
							Callee: ident("factorial"),
							Args:   []ast.Expr{&ast.BinaryExpr{Op: "-", Left: ident("n"), Right: intLit(1)}},
						},
					},
				},
			},
		),
	}
}

func TestFactorialRecursion(t *testing.T) {
	interp := New()
	interp.RegisterComptimeFunction(factorialFn())

	val, err := interp.EvaluateCall("factorial", []Value{Int(5)})
	if err != nil {
		t.Fatalf("EvaluateCall: %v", err)
	}
	n, ok := ToInt(val)
	if !ok || n != 120 {
		t.Fatalf("factorial(5) = %v, want 120", val)
	}
}

func TestRecursionBudgetExceeded(t *testing.T) {
	interp := New()
	interp.SetMaxRecursionDepth(3)
	interp.RegisterComptimeFunction(factorialFn())

	if _, err := interp.EvaluateCall("factorial", []Value{Int(10)}); err == nil {
		t.Fatalf("expected recursion budget to be exceeded")
	}
}

func TestIterationBudget(t *testing.T) {
	interp := New()
	interp.SetMaxIterations(5)
	loopFn := &ast.FnDecl{
		Name:     "spin",
		Comptime: true,
		Body: fnBody(
			&ast.VarDecl{Name: "i", Init: intLit(0)},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: intLit(1000)},
				Body: fnBody(&ast.AssignStmt{Target: ident("i"), Op: "+=", Value: intLit(1)}),
			},
			&ast.ReturnStmt{Value: ident("i")},
		),
	}
	interp.RegisterComptimeFunction(loopFn)
	if _, err := interp.EvaluateCall("spin", nil); err == nil {
		t.Fatalf("expected iteration budget to be exceeded")
	}
}

func TestListIndexingIsOneBased(t *testing.T) {
	interp := New()
	val, err := interp.EvaluateExpr(&ast.IndexExpr{
		X:     &ast.ListExpr{Elems: []ast.Expr{intLit(10), intLit(20), intLit(30)}},
		Index: intLit(1),
	})
	if err != nil {
		t.Fatalf("EvaluateExpr: %v", err)
	}
	n, _ := ToInt(val)
	if n != 10 {
		t.Fatalf("expected index 1 to yield the first element (10), got %v", n)
	}
}

func TestListIndexZeroIsOutOfRange(t *testing.T) {
	interp := New()
	_, err := interp.EvaluateExpr(&ast.IndexExpr{
		X:     &ast.ListExpr{Elems: []ast.Expr{intLit(10)}},
		Index: intLit(0),
	})
	if err == nil {
		t.Fatalf("expected index 0 to be out of range under 1-based indexing")
	}
}

func TestReflectionFieldsOf(t *testing.T) {
	interp := New()
	interp.RegisterTypeMetadata("Point", TypeMetadata{
		Name:      "Point",
		Fields:    []TypeFieldInfo{{Name: "x", TypeName: "i32"}, {Name: "y", TypeName: "i32"}},
		Methods:   []TypeMethodInfo{{Name: "length", ReturnType: "f64"}},
		Size:      8,
		Alignment: 4,
	})

	val, err := interp.evaluateFieldsOf("Point")
	if err != nil {
		t.Fatalf("evaluateFieldsOf: %v", err)
	}
	list, ok := val.(*List)
	if !ok || len(list.Elements) != 2 {
		t.Fatalf("expected 2 fields, got %v", val)
	}

	hasField, err := interp.evaluateHasField("Point", "x")
	if err != nil || !bool(hasField.(Bool)) {
		t.Fatalf("expected has_field(Point, x) = true")
	}

	size, err := interp.evaluateTypeSize("Point")
	if err != nil {
		t.Fatalf("evaluateTypeSize: %v", err)
	}
	if n, _ := ToInt(size); n != 8 {
		t.Fatalf("expected size 8, got %v", size)
	}
}

func TestDivisionByZero(t *testing.T) {
	interp := New()
	_, err := interp.EvaluateExpr(&ast.BinaryExpr{Op: "/", Left: intLit(1), Right: intLit(0)})
	if err == nil {
		t.Fatalf("expected division by zero to error")
	}
}

func TestCaching(t *testing.T) {
	interp := New()
	if _, ok := interp.GetCachedResult("k"); ok {
		t.Fatalf("expected no cached result initially")
	}
	interp.CacheResult("k", Int(42))
	v, ok := interp.GetCachedResult("k")
	if !ok {
		t.Fatalf("expected cached result to be found")
	}
	if n, _ := ToInt(v); n != 42 {
		t.Fatalf("expected cached value 42, got %v", v)
	}
}

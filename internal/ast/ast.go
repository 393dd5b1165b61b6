// Package ast defines the minimal visitable AST contract that
// internal/check, internal/ctfe, and internal/codegen are written against.
// The parser/lexer that produces these trees is an external collaborator
// (spec.md §1 Non-goals) — this package exists only as the shape that
// collaborator's frontend is expected to hand the compiler core, the same
// way cmd_local/compile/internal/gc is written against a *Node type owned
// by a frontend package it does not itself implement.
package ast

// Pos is a source position, carried on every node for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Node is satisfied by every AST node.
type Node interface {
	Pos() Pos
}

// Expr is satisfied by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is satisfied by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is satisfied by top-level and nested declaration nodes.
type Decl interface {
	Node
	declNode()
}

type Base struct{ P Pos }

func (b Base) Pos() Pos { return b.P }

// ---- Expressions ----

// Each literal kind has its own node type (IntLit, FloatLit, etc.) rather
// than one generic Lit node with a kind tag, which keeps the checker's
// type switch self-documenting.
type IntLit struct {
	Base
	Value int64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	Base
	Value float64
}

func (*FloatLit) exprNode() {}

type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) exprNode() {}

type StringLit struct {
	Base
	Value string
}

func (*StringLit) exprNode() {}

type CharLit struct {
	Base
	Value rune
}

func (*CharLit) exprNode() {}

type NilLit struct{ Base }

func (*NilLit) exprNode() {}

// Ident is a bare identifier reference.
type Ident struct {
	Base
	Name string
}

func (*Ident) exprNode() {}

// BinaryExpr is `Left Op Right`.
type BinaryExpr struct {
	Base
	Op          string
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is `Op Operand` (prefix) — covers `-x`, `!x`, `~x`.
type UnaryExpr struct {
	Base
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr covers ordinary calls, UFCS (Callee is a SelectorExpr), comptime
// calls (Comptime=true), and generic instantiation (TypeArgs non-empty).
type CallExpr struct {
	Base
	Callee    Expr
	Args      []Expr
	TypeArgs  []string // unresolved type-annotation text; internal/check resolves via types.FromString
	Comptime  bool
}

func (*CallExpr) exprNode() {}

// SelectorExpr is `X.Sel` (field access or method reference).
type SelectorExpr struct {
	Base
	X   Expr
	Sel string
}

func (*SelectorExpr) exprNode() {}

// IndexExpr is `X[Index]`.
type IndexExpr struct {
	Base
	X     Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// CastExpr is `X as TypeName`.
type CastExpr struct {
	Base
	X        Expr
	TypeName string
}

func (*CastExpr) exprNode() {}

// BorrowExpr is `&X` / `&mut X`.
type BorrowExpr struct {
	Base
	X       Expr
	Mutable bool
}

func (*BorrowExpr) exprNode() {}

// DerefExpr is `*X`.
type DerefExpr struct {
	Base
	X Expr
}

func (*DerefExpr) exprNode() {}

// TernaryExpr is `Cond ? Then : Else`.
type TernaryExpr struct {
	Base
	Cond, Then, Else Expr
}

func (*TernaryExpr) exprNode() {}

// ListExpr is a list literal `[e1, e2, ...]`.
type ListExpr struct {
	Base
	Elems []Expr
}

func (*ListExpr) exprNode() {}

// RecordLitExpr is a record literal `Name{field: val, ...}`.
type RecordLitExpr struct {
	Base
	TypeName string
	Fields   map[string]Expr
	Order    []string // field names in source order, for deterministic codegen
}

func (*RecordLitExpr) exprNode() {}

// AssemblyExpr is an inline `asm { ... }` block (spec.md §4.7's
// "assembly-block mini-assembler"); Body is opaque mini-assembly source
// text the codegen's mini-assembler parses directly, bypassing the type
// checker.
type AssemblyExpr struct {
	Base
	Body string
}

func (*AssemblyExpr) exprNode() {}

// PerformExpr is `perform Effect.op(args)` (spec.md §4.4): invokes an
// algebraic effect operation, suspending evaluation until the nearest
// enclosing HandleExpr with a matching case resumes it.
type PerformExpr struct {
	Base
	Effect string
	Op     string
	Args   []Expr
}

func (*PerformExpr) exprNode() {}

// HandlerCase is one `Effect.op(params) => Body` arm of a HandleExpr.
// Body sees Params bound to the operation's arguments plus an implicit
// `resume` binding back into the perform call site.
type HandlerCase struct {
	Effect string
	Op     string
	Params []string
	Body   *BlockStmt
}

// HandleExpr is `handle Body with { Cases }` (spec.md §4.4): runs Body,
// intercepting any `perform` call inside it whose effect/op matches a
// case. A perform with no matching case propagates to an outer handler.
type HandleExpr struct {
	Base
	Body  *BlockStmt
	Cases []HandlerCase
}

func (*HandleExpr) exprNode() {}

// ---- Statements ----

type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// VarDecl is `let/var name: Type = Init`.
type VarDecl struct {
	Base
	Name       string
	TypeName   string // empty when inferred from Init
	Init       Expr
	Mutable    bool
	ParamMode  string // "", "borrow", "borrow_mut", "copy" — annotation text for ownership
}

func (*VarDecl) stmtNode() {}
func (*VarDecl) declNode() {}

// AssignStmt is `Target = Value` or a compound form (`Op` like "+=").
type AssignStmt struct {
	Base
	Target Expr
	Op     string
	Value  Expr
}

func (*AssignStmt) stmtNode() {}

type ReturnStmt struct {
	Base
	Value Expr // nil for bare `return`
}

func (*ReturnStmt) stmtNode() {}

type BreakStmt struct{ Base }

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{ Base }

func (*ContinueStmt) stmtNode() {}

type BlockStmt struct {
	Base
	Stmts []Stmt
}

func (*BlockStmt) stmtNode() {}

type IfStmt struct {
	Base
	Cond       Expr
	Then       *BlockStmt
	Else       Stmt // *BlockStmt or *IfStmt, nil if absent
}

func (*IfStmt) stmtNode() {}

type WhileStmt struct {
	Base
	Cond Expr
	Body *BlockStmt
}

func (*WhileStmt) stmtNode() {}

// ForStmt is `for Name in Iter { Body }`.
type ForStmt struct {
	Base
	Name string
	Iter Expr
	Body *BlockStmt
}

func (*ForStmt) stmtNode() {}

// UnsafeStmt is `unsafe { Body }`.
type UnsafeStmt struct {
	Base
	Body *BlockStmt
}

func (*UnsafeStmt) stmtNode() {}

// ---- Declarations ----

// Param is one function parameter.
type Param struct {
	Name      string
	TypeName  string
	ParamMode string // "owned" (default), "borrow", "borrow_mut", "copy"
}

// FnDecl is a function declaration, optionally generic (TypeParams
// non-empty), optionally comptime-eligible (Comptime=true).
type FnDecl struct {
	Base
	Name       string
	TypeParams []string // names only; bounds carried as "Name:Bound1+Bound2" text, split by internal/types.ParseBoundList
	Params     []Param
	RetType    string
	Effects    []string
	Body       *BlockStmt
	Comptime   bool
	Exported   bool
}

func (*FnDecl) declNode() {}

// RecordDecl is `record Name[TypeParams] { fields }`.
type RecordDecl struct {
	Base
	Name       string
	TypeParams []string
	Fields     []Param // reuses Param shape for name:type pairs
}

func (*RecordDecl) declNode() {}

// TraitDecl is `trait Name { method signatures }`.
type TraitDecl struct {
	Base
	Name       string
	SuperTrait []string
	Methods    []*FnDecl
}

func (*TraitDecl) declNode() {}

// ImplDecl is `impl Trait for Type { methods }`.
type ImplDecl struct {
	Base
	TraitName string
	ForType   string
	Methods   []*FnDecl
}

func (*ImplDecl) declNode() {}

// EffectDecl is `effect Name { operation signatures }`.
type EffectDecl struct {
	Base
	Name       string
	Operations []*FnDecl
}

func (*EffectDecl) declNode() {}

// TypeAliasDecl is `type Name[Params] = Type` — covers both plain aliases
// and dependent-type definitions (spec.md §3.1).
type TypeAliasDecl struct {
	Base
	Name       string
	TypeParams []string
	ValueParams []Param // name:type pairs for dependent value parameters
	Target     string
	Refinement string // non-empty for `where` refinement clauses
}

func (*TypeAliasDecl) declNode() {}

// ExternDecl is `extern "DLL" fn Name(...) -> RetType`.
type ExternDecl struct {
	Base
	DLL     string
	Name    string
	Params  []Param
	RetType string
}

func (*ExternDecl) declNode() {}

// File is the root node: one parsed source file's declarations.
type File struct {
	Base
	Decls []Decl
}

// Walk performs a depth-first traversal of n, calling visit(n) first and
// then recursing into children if visit returns true — the same contract
// as go/ast.Walk's Visitor, chosen deliberately over a virtual-dispatch
// Visitor interface per package (internal/check uses a type switch
// instead of ~100 visit() overloads; see DESIGN.md).
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch v := n.(type) {
	case *File:
		for _, d := range v.Decls {
			Walk(d, visit)
		}
	case *FnDecl:
		if v.Body != nil {
			Walk(v.Body, visit)
		}
	case *RecordDecl, *TraitDecl, *ImplDecl, *EffectDecl, *TypeAliasDecl, *ExternDecl:
		// Leaf-ish for traversal purposes; codegen/check visit their
		// sub-structures directly via typed fields rather than Walk.
	case *BlockStmt:
		for _, s := range v.Stmts {
			Walk(s, visit)
		}
	case *IfStmt:
		Walk(v.Cond, visit)
		Walk(v.Then, visit)
		if v.Else != nil {
			Walk(v.Else, visit)
		}
	case *WhileStmt:
		Walk(v.Cond, visit)
		Walk(v.Body, visit)
	case *ForStmt:
		Walk(v.Iter, visit)
		Walk(v.Body, visit)
	case *UnsafeStmt:
		Walk(v.Body, visit)
	case *ExprStmt:
		Walk(v.X, visit)
	case *AssignStmt:
		Walk(v.Target, visit)
		Walk(v.Value, visit)
	case *ReturnStmt:
		if v.Value != nil {
			Walk(v.Value, visit)
		}
	case *VarDecl:
		if v.Init != nil {
			Walk(v.Init, visit)
		}
	case *BinaryExpr:
		Walk(v.Left, visit)
		Walk(v.Right, visit)
	case *UnaryExpr:
		Walk(v.Operand, visit)
	case *CallExpr:
		Walk(v.Callee, visit)
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *SelectorExpr:
		Walk(v.X, visit)
	case *IndexExpr:
		Walk(v.X, visit)
		Walk(v.Index, visit)
	case *CastExpr:
		Walk(v.X, visit)
	case *BorrowExpr:
		Walk(v.X, visit)
	case *DerefExpr:
		Walk(v.X, visit)
	case *TernaryExpr:
		Walk(v.Cond, visit)
		Walk(v.Then, visit)
		Walk(v.Else, visit)
	case *ListExpr:
		for _, e := range v.Elems {
			Walk(e, visit)
		}
	case *RecordLitExpr:
		for _, name := range v.Order {
			Walk(v.Fields[name], visit)
		}
	case *PerformExpr:
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *HandleExpr:
		Walk(v.Body, visit)
		for _, hc := range v.Cases {
			Walk(hc.Body, visit)
		}
	}
}

// Package check implements the TYL semantic analyzer: type inference and
// checking, ownership/borrow enforcement, and trait-bound verification
// over the internal/ast tree, reporting through internal/diag.
//
// Grounded on original_source/src/semantic/checker/{type_checker.h,
// checker_core.cpp, checker_expr.cpp, checker_stmt.cpp, checker_decl.cpp}:
// the same currentType/expectedReturn/symbol-table/ownership-tracker
// shape, reduced from ~100 ASTVisitor::visit() overloads to one
// type-switch dispatch per internal/ast's minimal node set (SPEC_FULL.md
// §2's explicit scope decision).
package check

import (
	"tylc/internal/ast"
	"tylc/internal/ctfe"
	"tylc/internal/diag"
	"tylc/internal/ownership"
	"tylc/internal/symtab"
	"tylc/internal/types"
)

// Checker walks a parsed File, inferring and validating types and
// recording diagnostics. One Checker serves one compilation unit, mirroring
// the original's one-TypeChecker-per-Program lifetime.
type Checker struct {
	Registry  *types.Registry
	Symbols   *symtab.Table
	Ownership *ownership.Tracker
	Diags     diag.List

	// CTFE registers comptime functions during checking, so a call site's
	// eligibility can be decided (and recorded via ast.CallExpr.Comptime)
	// before codegen ever runs; the checker does not evaluate the calls.
	// internal/codegen builds its own separate *ctfe.Interpreter over the
	// same tree and evaluates marked calls there; the two never share state (spec.md §2's "CTFE consulted by both checker and
	// codegen").
	CTFE *ctfe.Interpreter

	// BlockDrops records, for every block whose scope has closed, the
	// ownership.Tracker.GetDropsForScope snapshot taken right before that
	// scope's PopScope call: the names still owned and drop-needing at
	// that point, in the reverse-declaration order codegen must call
	// their destructors in (spec.md §3.4/§8's drop scheduling).
	// internal/codegen reads this directly instead of re-deriving move
	// state of its own.
	BlockDrops map[*ast.BlockStmt][]string

	currentType    types.Type
	expectedReturn types.Type
	loopDepth      int
	unsafeDepth    int

	exprTypes map[ast.Expr]types.Type
}

// New returns a Checker with a fresh registry, symbol table (builtins
// pre-registered, per internal/symtab.NewTable), and ownership tracker.
func New() *Checker {
	reg := types.NewRegistry()
	return &Checker{
		Registry:  reg,
		Symbols:   symtab.NewTable(reg),
		Ownership:  ownership.NewTracker(),
		CTFE:       ctfe.New(),
		exprTypes:  make(map[ast.Expr]types.Type),
		BlockDrops: make(map[*ast.BlockStmt][]string),
	}
}

func (c *Checker) pos(n ast.Node) diag.Pos {
	p := n.Pos()
	return diag.Pos{File: p.File, Line: p.Line, Column: p.Column}
}

func (c *Checker) errorf(n ast.Node, format string, args ...interface{}) {
	c.Diags.Errorf(c.pos(n), format, args...)
}

// Check runs semantic analysis over f and reports whether it succeeded
// (no Error-level diagnostics recorded).
func (c *Checker) Check(f *ast.File) bool {
	for _, d := range f.Decls {
		c.checkDecl(d)
	}
	c.Diags.Sort()
	return !c.Diags.HasErrors()
}

// TypeOf returns the inferred type of a previously checked expression, or
// nil if the expression was never visited (e.g. it lives in a branch that
// errored out before being reached).
func (c *Checker) TypeOf(e ast.Expr) types.Type { return c.exprTypes[e] }

func (c *Checker) setType(e ast.Expr, t types.Type) types.Type {
	c.exprTypes[e] = t
	c.currentType = t
	return t
}

// resolveTypeName parses a source-level type annotation (possibly empty,
// in which case Any is used) via the registry's hand-written parser.
func (c *Checker) resolveTypeName(n ast.Node, name string) types.Type {
	if name == "" {
		return c.Registry.AnyType()
	}
	t, err := c.Registry.FromString(name)
	if err != nil {
		c.errorf(n, "invalid type annotation %q: %v", name, err)
		return c.Registry.ErrorType()
	}
	return t
}

// ---- declarations ----

func (c *Checker) checkDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.FnDecl:
		c.checkFnDecl(n)
	case *ast.RecordDecl:
		c.checkRecordDecl(n)
	case *ast.TraitDecl:
		c.checkTraitDecl(n)
	case *ast.ImplDecl:
		c.checkImplDecl(n)
	case *ast.EffectDecl:
		c.checkEffectDecl(n)
	case *ast.TypeAliasDecl:
		c.checkTypeAliasDecl(n)
	case *ast.ExternDecl:
		c.checkExternDecl(n)
	case *ast.VarDecl:
		c.checkStmt(n)
	default:
		c.errorf(d, "unhandled declaration kind %T", d)
	}
}

func (c *Checker) checkFnDecl(n *ast.FnDecl) {
	paramTypes := make([]types.Type, len(n.Params))
	paramNames := make([]string, len(n.Params))
	for i, p := range n.Params {
		paramTypes[i] = c.resolveTypeName(n, p.TypeName)
		paramNames[i] = p.Name
	}
	retType := c.resolveTypeName(n, n.RetType)

	var typeParams []*types.TypeParam
	for _, tp := range n.TypeParams {
		typeParams = append(typeParams, &types.TypeParam{Name: tp})
	}

	fn := c.Registry.NewFunction(paramTypes, paramNames, retType, false)
	fn.TypeParams = typeParams
	c.Symbols.Define(&symtab.Symbol{Name: n.Name, Kind: symtab.KindFunction, Type: fn, Storage: symtab.StorageGlobal, Initialized: true, Exported: n.Exported})
	if n.Comptime {
		c.CTFE.RegisterComptimeFunction(n)
	}

	if n.Body == nil {
		return
	}

	c.Symbols.PushScope(symtab.ScopeFunction)
	var paramInfos []ownership.ParamOwnershipInfo
	for i, p := range n.Params {
		mode := ownership.ParamOwned
		switch p.ParamMode {
		case "borrow":
			mode = ownership.ParamBorrow
		case "borrow_mut":
			mode = ownership.ParamBorrowMut
		case "copy":
			mode = ownership.ParamCopy
		}
		paramInfos = append(paramInfos, ownership.ParamOwnershipInfo{Name: p.Name, Mode: mode, TypeName: paramTypes[i].String()})
	}
	c.Ownership.EnterFunction(paramInfos)
	prevReturn := c.expectedReturn
	c.expectedReturn = retType
	for i, p := range n.Params {
		c.Symbols.Define(&symtab.Symbol{
			Name: p.Name, Kind: symtab.KindVariable, Type: paramTypes[i],
			Storage: symtab.StorageLocal, Initialized: true, IsParameter: true,
		})
	}
	c.checkBlock(n.Body)
	c.expectedReturn = prevReturn
	c.Ownership.ExitFunction()
	c.Symbols.PopScope()
}

func (c *Checker) checkRecordDecl(n *ast.RecordDecl) {
	fields := make([]types.RecordField, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = types.RecordField{Name: f.Name, Type: c.resolveTypeName(n, f.TypeName)}
	}
	rec := c.Registry.NewRecord(n.Name, fields)
	c.Symbols.RegisterType(n.Name, rec)
}

func (c *Checker) traitMethodSig(n ast.Node, m *ast.FnDecl) *types.Function {
	var params []types.Type
	for _, p := range m.Params {
		params = append(params, c.resolveTypeName(n, p.TypeName))
	}
	return c.Registry.NewFunction(params, nil, c.resolveTypeName(n, m.RetType), false)
}

func (c *Checker) checkTraitDecl(n *ast.TraitDecl) {
	methods := make([]types.TraitMethod, len(n.Methods))
	for i, m := range n.Methods {
		methods[i] = types.TraitMethod{Name: m.Name, Sig: c.traitMethodSig(n, m), HasDefault: m.Body != nil}
	}
	c.Registry.DefineTrait(&types.Trait{Name: n.Name, Methods: methods, SuperTrait: n.SuperTrait})
}

func (c *Checker) checkImplDecl(n *ast.ImplDecl) {
	if _, ok := c.Registry.LookupTrait(n.TraitName); !ok {
		c.errorf(n, "unknown trait %q in impl", n.TraitName)
		return
	}
	methodFns := make(map[string]*types.Function, len(n.Methods))
	for _, m := range n.Methods {
		c.checkFnDecl(m)
		if sym, ok := c.Symbols.Lookup(m.Name); ok {
			if fn, ok := sym.Type.(*types.Function); ok {
				methodFns[m.Name] = fn
			}
		}
	}
	forType := c.resolveTypeName(n, n.ForType)
	c.Registry.RecordImpl(&types.TraitImpl{TraitName: n.TraitName, ForType: forType, Methods: methodFns})
	if n.TraitName == "Drop" {
		// internal/codegen mangles trait-impl methods as ForType_method
		// (codegen.go's collectFnDecls); record that same label here so
		// ownership.NeedsDropType reports true for forType without
		// codegen having to consult the type registry a second time.
		ownership.RegisterDropType(forType.String(), n.ForType+"_drop")
	}
}

func (c *Checker) checkEffectDecl(n *ast.EffectDecl) {
	ops := make([]types.TraitMethod, len(n.Operations))
	for i, op := range n.Operations {
		ops[i] = types.TraitMethod{Name: op.Name, Sig: c.traitMethodSig(n, op)}
	}
	c.Registry.DefineEffect(&types.Effect{Name: n.Name, Operations: ops})
}

func (c *Checker) checkTypeAliasDecl(n *ast.TypeAliasDecl) {
	target := c.resolveTypeName(n, n.Target)
	if len(n.ValueParams) > 0 {
		var vparams []types.Type
		for _, vp := range n.ValueParams {
			vparams = append(vparams, &types.ValueParam{Name: vp.Name, ValueType: c.resolveTypeName(n, vp.TypeName)})
		}
		c.Registry.DefineDependent(n.Name, vparams, target)
		return
	}
	if n.Refinement != "" {
		c.Registry.DefineRefined(n.Name, target, n.Refinement)
		return
	}
	c.Symbols.RegisterType(n.Name, target)
}

func (c *Checker) checkExternDecl(n *ast.ExternDecl) {
	var params []types.Type
	var names []string
	for _, p := range n.Params {
		params = append(params, c.resolveTypeName(n, p.TypeName))
		names = append(names, p.Name)
	}
	fn := c.Registry.NewFunction(params, names, c.resolveTypeName(n, n.RetType), false)
	c.Symbols.Define(&symtab.Symbol{Name: n.Name, Kind: symtab.KindFunction, Type: fn, Storage: symtab.StorageGlobal, Initialized: true})
}

// ---- statements ----

func (c *Checker) checkBlock(b *ast.BlockStmt) {
	c.Symbols.PushScope(symtab.ScopeBlock)
	c.Ownership.PushScope()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	c.BlockDrops[b] = c.Ownership.GetDropsForScope()
	c.Ownership.PopScope()
	c.Symbols.PopScope()
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		c.checkExpr(n.X)
	case *ast.VarDecl:
		c.checkVarDecl(n)
	case *ast.AssignStmt:
		c.checkAssignStmt(n)
	case *ast.ReturnStmt:
		c.checkReturnStmt(n)
	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.errorf(n, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.errorf(n, "continue outside of a loop")
		}
	case *ast.BlockStmt:
		c.checkBlock(n)
	case *ast.IfStmt:
		c.checkExpr(n.Cond)
		c.checkBlock(n.Then)
		if n.Else != nil {
			c.checkStmt(n.Else)
		}
	case *ast.WhileStmt:
		c.checkExpr(n.Cond)
		c.loopDepth++
		c.checkBlock(n.Body)
		c.loopDepth--
	case *ast.ForStmt:
		c.checkExpr(n.Iter)
		c.Symbols.PushScope(symtab.ScopeLoop)
		c.Symbols.Define(&symtab.Symbol{Name: n.Name, Kind: symtab.KindVariable, Type: c.Registry.AnyType(), Initialized: true})
		c.loopDepth++
		for _, st := range n.Body.Stmts {
			c.checkStmt(st)
		}
		c.loopDepth--
		c.Symbols.PopScope()
	case *ast.UnsafeStmt:
		c.unsafeDepth++
		c.checkBlock(n.Body)
		c.unsafeDepth--
	default:
		c.errorf(s, "unhandled statement kind %T", s)
	}
}

func (c *Checker) checkVarDecl(n *ast.VarDecl) {
	var t types.Type
	if n.Init != nil {
		t = c.checkExpr(n.Init)
	}
	if n.TypeName != "" {
		declared := c.resolveTypeName(n, n.TypeName)
		if t != nil && !isAssignable(declared, t) {
			c.errorf(n, "cannot assign %s to variable %q of type %s", t, n.Name, declared)
		}
		t = declared
	}
	if t == nil {
		t = c.Registry.AnyType()
	}
	if rt, ok := t.(*types.Refined); ok && n.Init != nil {
		c.checkRefinementConstraint(n, rt, n.Init)
	}
	c.Symbols.Define(&symtab.Symbol{
		Name: n.Name, Kind: symtab.KindVariable, Type: t, Mutable: n.Mutable,
		Storage: symtab.StorageLocal, Initialized: n.Init != nil,
	})
	c.Ownership.InitVarTyped(n.Name, isCopyType(t), ownership.NeedsDropType(t.String()), t.String(), ownership.ParamOwned)
	if n.Init != nil {
		c.Ownership.MarkInitialized(n.Name)
		c.recordMoveFrom(n.Init, n)
	}
}

// recordMoveFrom records a move out of src when src is a bare identifier
// naming a non-Copy variable: `var b = a`, `a = b`, and a by-value call
// argument all transfer ownership the same way, so they all funnel through
// here into ownership.Tracker.RecordMove (spec.md §3.4's move rule). A
// borrow (&a / &mut a) is not a bare identifier, so it returns here without
// recording a move; checkBorrowExpr records the borrow for its operand.
func (c *Checker) recordMoveFrom(src ast.Expr, at ast.Node) {
	ident, ok := src.(*ast.Ident)
	if !ok {
		return
	}
	info, ok := c.Ownership.GetInfo(ident.Name)
	if !ok || info.IsCopyType {
		return
	}
	loc := ownership.SourceLocation{File: at.Pos().File, Line: at.Pos().Line, Column: at.Pos().Column}
	if err := c.Ownership.RecordMove(ident.Name, loc); err != nil {
		c.errorf(at, "%v", err)
	}
}

// checkRefinementConstraint evaluates a refined-type variable's declared
// constraint against a constant initializer, reporting a diagnostic when
// it provably fails. Non-constant initializers, and constraints outside
// Registry.CheckRefinementConstraint's checkable grammar, are left to
// runtime enforcement (spec.md §4.1).
func (c *Checker) checkRefinementConstraint(n ast.Node, rt *types.Refined, init ast.Expr) {
	value, length := int64(0), -1
	switch lit := init.(type) {
	case *ast.IntLit:
		value = lit.Value
	case *ast.StringLit:
		length = len(lit.Value)
	case *ast.ListExpr:
		length = len(lit.Elems)
	default:
		return
	}
	if ok, checkable := c.Registry.CheckRefinementConstraint(rt.Name, value, length); checkable && !ok {
		c.errorf(n, "value does not satisfy refinement %s: %s", rt.Name, rt.ConstraintText)
	}
}

func (c *Checker) checkAssignStmt(n *ast.AssignStmt) {
	targetType := c.checkExpr(n.Target)
	valType := c.checkExpr(n.Value)
	c.recordMoveFrom(n.Value, n)
	if ident, ok := n.Target.(*ast.Ident); ok {
		sym, found := c.Symbols.Lookup(ident.Name)
		if found && !sym.Mutable && sym.Initialized {
			c.errorf(n, "cannot assign to immutable variable %q", ident.Name)
		}
		if found {
			c.Ownership.RestoreOwnership(ident.Name)
		}
	}
	if targetType != nil && valType != nil && !isAssignable(targetType, valType) {
		c.errorf(n, "cannot assign %s to %s", valType, targetType)
	}
}

func (c *Checker) checkReturnStmt(n *ast.ReturnStmt) {
	if n.Value == nil {
		if c.expectedReturn != nil && c.expectedReturn.Kind() != types.KindVoid {
			c.errorf(n, "missing return value, expected %s", c.expectedReturn)
		}
		return
	}
	t := c.checkExpr(n.Value)
	if c.expectedReturn != nil && t != nil && !isAssignable(c.expectedReturn, t) {
		c.errorf(n, "return type mismatch: expected %s, got %s", c.expectedReturn, t)
	}
}

// isAssignable mirrors checker_core.cpp's isAssignable: exact match, Any
// accepts/produces anything, a refined type accepts what its base type
// accepts, any integer type accepts any other (narrowing is not an error),
// and numeric widening int->float.
func isAssignable(target, src types.Type) bool {
	if target.Kind() == types.KindAny || src.Kind() == types.KindAny {
		return true
	}
	if target.Equals(src) {
		return true
	}
	if rt, ok := target.(*types.Refined); ok {
		return isAssignable(rt.BaseType, src)
	}
	if types.IsInteger(target) && types.IsInteger(src) {
		return true
	}
	if target.Kind() == types.KindFloat64 && (src.Kind() == types.KindInt32 || src.Kind() == types.KindInt64) {
		return true
	}
	return false
}

// isCopyType reports whether values of t are implicitly Copy: every
// primitive scalar always is; named aggregate types defer to
// ownership.IsCopyType's registry (checker_core.cpp's isCopyType split the
// same way, between builtin scalars and a user-registered Copy set).
func isCopyType(t types.Type) bool {
	if t == nil {
		return false
	}
	if types.IsNumeric(t) || t.Kind() == types.KindBool || t.Kind() == types.KindChar {
		return true
	}
	return ownership.IsCopyType(t.String())
}

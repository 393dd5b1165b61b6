package codegen

import "tylc/internal/types"

// resolveParamType resolves a type-annotation string the way
// internal/check.resolveTypeName does, but codegen only needs it to
// decide integer-vs-float register class and cannot fail a compile that
// already passed type checking — an empty or unparseable annotation
// degrades to Int rather than reporting a diagnostic.
func (g *Generator) resolveParamType(name string) types.Type {
	if name == "" {
		return g.Registry.Int()
	}
	if t, err := g.Registry.FromString(name); err == nil {
		return t
	}
	return g.Registry.Int()
}

func isFloatParam(t types.Type) bool {
	return t != nil && types.IsFloat(t)
}

func (g *Generator) allocLocal(name string, t types.Type) *localVar {
	g.nextLocalSlot -= 8
	lv := &localVar{offset: g.nextLocalSlot, typ: t}
	g.locals[name] = lv
	return lv
}

package ctfe

// evaluateBuiltin dispatches the fixed set of CTFE builtins: the compile-
// time reflection primitives (spec.md §4.5) plus len. The bool result
// reports whether name was a recognized builtin at all.
func (i *Interpreter) evaluateBuiltin(name string, args []Value) (Value, error, bool) {
	switch name {
	case "fields_of":
		v, err := i.evaluateFieldsOf(mustString(args, 0))
		return v, err, true
	case "methods_of":
		v, err := i.evaluateMethodsOf(mustString(args, 0))
		return v, err, true
	case "type_name":
		v, err := i.evaluateTypeName(mustString(args, 0))
		return v, err, true
	case "type_size":
		v, err := i.evaluateTypeSize(mustString(args, 0))
		return v, err, true
	case "type_align":
		v, err := i.evaluateTypeAlign(mustString(args, 0))
		return v, err, true
	case "has_field":
		v, err := i.evaluateHasField(mustString(args, 0), mustString(args, 1))
		return v, err, true
	case "has_method":
		v, err := i.evaluateHasMethod(mustString(args, 0), mustString(args, 1))
		return v, err, true
	case "field_type":
		v, err := i.evaluateFieldType(mustString(args, 0), mustString(args, 1))
		return v, err, true
	case "len":
		v, err := evaluateLen(args)
		return v, err, true
	}
	return nil, nil, false
}

func mustString(args []Value, idx int) string {
	if idx >= len(args) {
		return ""
	}
	s, _ := ToString(args[idx])
	return s
}

func evaluateLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, errf("ctfe: len expects exactly one argument")
	}
	switch v := args[0].(type) {
	case *List:
		return Int(len(v.Elements)), nil
	case String:
		return Int(len(v)), nil
	}
	return nil, errf("ctfe: len is not defined for this value kind")
}

func (i *Interpreter) evaluateFieldsOf(typeName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: fields_of: unknown type %q", typeName)
	}
	elems := make([]Value, len(md.Fields))
	for idx, f := range md.Fields {
		elems[idx] = &Tuple{Elements: []Value{String(f.Name), String(f.TypeName)}}
	}
	return &List{Elements: elems}, nil
}

func (i *Interpreter) evaluateMethodsOf(typeName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: methods_of: unknown type %q", typeName)
	}
	elems := make([]Value, len(md.Methods))
	for idx, m := range md.Methods {
		elems[idx] = String(m.Name)
	}
	return &List{Elements: elems}, nil
}

func (i *Interpreter) evaluateTypeName(typeName string) (Value, error) {
	if _, ok := i.typeMetadata[typeName]; !ok {
		return nil, errf("ctfe: type_name: unknown type %q", typeName)
	}
	return String(typeName), nil
}

func (i *Interpreter) evaluateTypeSize(typeName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: type_size: unknown type %q", typeName)
	}
	return Int(md.Size), nil
}

func (i *Interpreter) evaluateTypeAlign(typeName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: type_align: unknown type %q", typeName)
	}
	return Int(md.Alignment), nil
}

func (i *Interpreter) evaluateHasField(typeName, fieldName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: has_field: unknown type %q", typeName)
	}
	for _, f := range md.Fields {
		if f.Name == fieldName {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func (i *Interpreter) evaluateHasMethod(typeName, methodName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: has_method: unknown type %q", typeName)
	}
	for _, m := range md.Methods {
		if m.Name == methodName {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func (i *Interpreter) evaluateFieldType(typeName, fieldName string) (Value, error) {
	md, ok := i.typeMetadata[typeName]
	if !ok {
		return nil, errf("ctfe: field_type: unknown type %q", typeName)
	}
	for _, f := range md.Fields {
		if f.Name == fieldName {
			return String(f.TypeName), nil
		}
	}
	return nil, errf("ctfe: field_type: type %q has no field %q", typeName, fieldName)
}

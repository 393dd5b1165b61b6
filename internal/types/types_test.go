package types

import "testing"

func TestRoundTrip(t *testing.T) {
	r := NewRegistry()
	cases := []string{
		"i32", "bool", "str", "[str]", "[i32;4]", "&mut i32", "*u8",
		"map[str]i32", "dyn Drawable",
	}
	for _, c := range cases {
		ty, err := r.FromString(c)
		if err != nil {
			t.Fatalf("FromString(%q): %v", c, err)
		}
		if got := ty.String(); got != c {
			t.Errorf("round trip mismatch: FromString(%q).String() = %q", c, got)
		}
	}
}

func TestCheckRefinementConstraintEvaluatesSimpleClauses(t *testing.T) {
	r := NewRegistry()
	r.DefineRefined("Positive", r.Int(), "_ > 0")
	r.DefineRefined("NonEmpty", r.Str(), "len(_) > 0")
	r.DefineRefined("Percent", r.Int(), "_ >= 0 && _ <= 100")

	if ok, checkable := r.CheckRefinementConstraint("Positive", 5, -1); !ok || !checkable {
		t.Fatalf("expected 5 to satisfy _ > 0, got ok=%v checkable=%v", ok, checkable)
	}
	if ok, checkable := r.CheckRefinementConstraint("Positive", -1, -1); ok || !checkable {
		t.Fatalf("expected -1 to violate _ > 0, got ok=%v checkable=%v", ok, checkable)
	}
	if ok, checkable := r.CheckRefinementConstraint("NonEmpty", 0, 3); !ok || !checkable {
		t.Fatalf("expected length 3 to satisfy len(_) > 0, got ok=%v checkable=%v", ok, checkable)
	}
	if ok, checkable := r.CheckRefinementConstraint("NonEmpty", 0, 0); ok || !checkable {
		t.Fatalf("expected length 0 to violate len(_) > 0, got ok=%v checkable=%v", ok, checkable)
	}
	if ok, checkable := r.CheckRefinementConstraint("Percent", 150, -1); ok || !checkable {
		t.Fatalf("expected 150 to violate _ <= 100, got ok=%v checkable=%v", ok, checkable)
	}
	if _, checkable := r.CheckRefinementConstraint("Unknown", 0, -1); checkable {
		t.Fatalf("expected an undefined refined type name to report not checkable")
	}
}

func TestGenericConstructorRoundTrip(t *testing.T) {
	r := NewRegistry()
	ty, err := r.FromString("Box[i32]")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if ty.Kind() != KindBox {
		t.Fatalf("expected KindBox, got %v", ty.Kind())
	}
	if got, want := ty.String(), "Box[i32]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEquals(t *testing.T) {
	r := NewRegistry()
	a := r.NewList(r.Int())
	b := r.NewList(r.Int())
	if !a.Equals(b) {
		t.Errorf("expected structurally equal lists to be Equals")
	}
	c := r.NewList(r.Float())
	if a.Equals(c) {
		t.Errorf("expected lists of different element types to differ")
	}
}

func TestRecordNominalEquality(t *testing.T) {
	r := NewRegistry()
	a := r.NewRecord("Point", []RecordField{{Name: "x", Type: r.Int()}})
	b := r.NewRecord("Point", []RecordField{{Name: "y", Type: r.Float()}})
	if !a.Equals(b) {
		t.Errorf("expected same-named records to be nominally equal regardless of fields")
	}
	c := r.NewRecord("Vector", nil)
	if a.Equals(c) {
		t.Errorf("expected differently named records to differ")
	}
}

func TestRecordLayout(t *testing.T) {
	r := NewRegistry()
	rec := r.NewRecord("Pair", []RecordField{
		{Name: "a", Type: r.Primitive(KindInt8)},
		{Name: "b", Type: r.Int()},
	})
	if got, want := rec.Size(), int64(16); got != want {
		t.Errorf("Size() = %d, want %d (i8 padded to 8-byte alignment before i64)", got, want)
	}
}

func TestInstantiateGenericIdempotent(t *testing.T) {
	r := NewRegistry()
	tp := r.NewTypeParam("T", []string{"Numeric"}, nil)
	fn := r.NewFunction([]Type{tp}, []string{"x"}, tp, false)
	fn.TypeParams = []*TypeParam{tp}

	inst1, name1 := r.InstantiateGeneric("id", fn, []Type{r.Int()})
	inst2, name2 := r.InstantiateGeneric("id", fn, []Type{r.Int()})
	if name1 != name2 {
		t.Fatalf("mangled names differ across calls: %q vs %q", name1, name2)
	}
	if inst1 != inst2 {
		t.Errorf("expected cached instantiation to return the identical *Function")
	}
	if !inst1.Ret.Equals(r.Int()) {
		t.Errorf("expected substituted return type int, got %s", inst1.Ret.String())
	}
}

func TestSatisfiesBound(t *testing.T) {
	r := NewRegistry()
	if !r.SatisfiesBound(r.Int(), "Numeric") {
		t.Errorf("expected int to satisfy Numeric")
	}
	if r.SatisfiesBound(r.Str(), "Numeric") {
		t.Errorf("expected str to not satisfy Numeric")
	}
}

func TestParseBoundList(t *testing.T) {
	got := ParseBoundList("Numeric + Orderable")
	want := []string{"Numeric", "Orderable"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestDependentInstantiation(t *testing.T) {
	r := NewRegistry()
	elemParam := r.NewTypeParam("T", nil, nil)
	nParam := r.NewValueParam("N", r.Int())
	arr := &FixedArray{Elem: elemParam, Size_: 0}
	d := r.DefineDependent("Vector", []Type{elemParam, nParam}, arr)

	resolved := r.InstantiateDependent(d, map[string]Type{"T": r.Float()}, map[string]int64{"N": 3})
	fa, ok := resolved.(*FixedArray)
	if !ok {
		t.Fatalf("expected *FixedArray, got %T", resolved)
	}
	if !fa.Elem.Equals(r.Float()) {
		t.Errorf("expected element type float, got %s", fa.Elem.String())
	}
}

package value

import "testing"

func TestNullOrdering(t *testing.T) {
	lt, err := Less(NewNull(), NewInt(1))
	if err != nil || !lt {
		t.Fatalf("Null should sort below Int(1): lt=%v err=%v", lt, err)
	}
	lt, err = Less(NewInt(1), NewNull())
	if err != nil || lt {
		t.Fatalf("Int(1) should not be less than Null: lt=%v err=%v", lt, err)
	}
	eq, err := Equal(NewNull(), NewNull())
	if err != nil || !eq {
		t.Fatalf("Null should equal Null: eq=%v err=%v", eq, err)
	}
	eq, _ = Equal(NewNull(), NewInt(0))
	if eq {
		t.Fatalf("Null should not equal Int(0)")
	}
}

func TestArithmeticPromotesToLeftType(t *testing.T) {
	v, err := Add(NewInt(3), NewFloat(1.5))
	if err != nil || v.Type() != Int {
		t.Fatalf("Int+Float should stay Int-typed: %+v err=%v", v, err)
	}
	if n, _ := v.ToInt(); n != 4 {
		t.Fatalf("3 + 1.5 (as int) = %d, want 4", n)
	}
}

func TestVarcharConcatenation(t *testing.T) {
	v, err := Add(NewVarchar("foo"), NewVarchar("bar"))
	if err != nil || v.ToString() != "foobar" {
		t.Fatalf("concat = %+v, err=%v", v, err)
	}
	if _, err := Sub(NewVarchar("foo"), NewVarchar("bar")); err == nil {
		t.Fatalf("expected error subtracting varchars")
	}
}

func TestTupleOrder(t *testing.T) {
	a := NewTuple(NewInt(1), NewInt(2))
	b := NewTuple(NewInt(1), NewInt(3))
	if !a.Less(b) {
		t.Fatalf("(1,2) should be less than (1,3)")
	}
	prefix := NewTuple(NewInt(1))
	if !prefix.Less(a) {
		t.Fatalf("shorter prefix tuple should be less than a longer one")
	}
	nullTuple := NewTuple(NewNull(), NewInt(1))
	other := NewTuple(NewInt(0), NewInt(1))
	if !nullTuple.Less(other) {
		t.Fatalf("tuple with leading Null should sort first")
	}
}

func TestInferType(t *testing.T) {
	cases := map[string]Type{
		"null": Null,
		"123":  Int,
		"abc":  Varchar,
		"":     Varchar,
	}
	for in, want := range cases {
		if got := InferType(in); got != want {
			t.Errorf("InferType(%q) = %v, want %v", in, got, want)
		}
	}
}

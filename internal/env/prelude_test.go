package env

import "testing"

func TestBinaryOperatorTarget(t *testing.T) {
	cases := map[string]string{
		"+": PreludeAdd, "-": PreludeSubtract, "==": PreludeEquals, "<": PreludeLesser,
	}
	for op, want := range cases {
		got, ok := BinaryOperatorTarget(op)
		if !ok || got != want {
			t.Errorf("BinaryOperatorTarget(%q) = %q, %v; want %q, true", op, got, ok, want)
		}
	}
	if _, ok := BinaryOperatorTarget("??"); ok {
		t.Error("BinaryOperatorTarget(??) should not resolve")
	}
}

func TestSyntheticPreludeBindsOperatorsAndByRef(t *testing.T) {
	m := NewSyntheticPrelude()

	if _, ok := m.Resolve(PreludeAdd); !ok {
		t.Errorf("synthetic prelude does not bind %s", PreludeAdd)
	}
	byRef, ok := m.Resolve(PreludeByRef)
	if !ok {
		t.Fatal("synthetic prelude does not bind ByRef")
	}
	if !m.Public(PreludeByRef) {
		t.Error("ByRef should be public")
	}
	_ = byRef
}

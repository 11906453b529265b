package primop

import "testing"

func TestLookupKnownOps(t *testing.T) {
	cases := []struct {
		name  string
		class Class
		arity int
	}{
		{"numericAdd", ClassNumeric, 2},
		{"TypeSize", ClassReflective, 1},
		{"addressOf", ClassPointer, 1},
		{"arrayRef", ClassArray, 2},
		{"recordFieldRef", ClassRecord, 2},
	}
	for _, c := range cases {
		op, ok := Lookup(c.name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", c.name)
		}
		if op.Class != c.class {
			t.Errorf("Lookup(%q).Class = %v, want %v", c.name, op.Class, c.class)
		}
		if op.Arity != c.arity {
			t.Errorf("Lookup(%q).Arity = %d, want %d", c.name, op.Arity, c.arity)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("notARealPrimop"); ok {
		t.Error("Lookup of an unknown name should fail")
	}
}

func TestCompileTimeEvaluable(t *testing.T) {
	reflective, _ := Lookup("TypeP")
	if !reflective.CompileTimeEvaluable() {
		t.Error("TypeP should be compile-time evaluable")
	}
	numeric, _ := Lookup("numericAdd")
	if !numeric.CompileTimeEvaluable() {
		t.Error("numericAdd should be compile-time evaluable")
	}
	ptr, _ := Lookup("addressOf")
	if ptr.CompileTimeEvaluable() {
		t.Error("addressOf should not be compile-time evaluable")
	}
}

func TestCatalogHasNoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, op := range Catalog {
		if seen[op.Name] {
			t.Errorf("duplicate primop name %q in Catalog", op.Name)
		}
		seen[op.Name] = true
	}
}

package env

import (
	"testing"

	"github.com/clayc/clay/internal/types"
)

func TestPrimitivesModuleBindsScalarTypes(t *testing.T) {
	reg := types.NewRegistry()
	m := NewPrimitivesModule(reg)

	obj, ok := m.Resolve("Int32")
	if !ok {
		t.Fatal("Resolve(Int32) not found in __primitives__")
	}
	if obj != reg.Primitive(types.KindInt32) {
		t.Error("Int32 in __primitives__ is not the canonical registry instance")
	}
	if !m.Public("Int32") {
		t.Error("Int32 should be public")
	}
}

func TestPrimitivesModuleBindsPrimops(t *testing.T) {
	reg := types.NewRegistry()
	m := NewPrimitivesModule(reg)

	obj, ok := m.Resolve("numericAdd")
	if !ok {
		t.Fatal("Resolve(numericAdd) not found in __primitives__")
	}
	name, ok := PrimopName(obj)
	if !ok || name != "numericAdd" {
		t.Errorf("PrimopName(obj) = %q, %v; want numericAdd, true", name, ok)
	}
}

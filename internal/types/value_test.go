package types

import "testing"

func TestValueHolderEquals(t *testing.T) {
	r := NewRegistry()
	i32 := r.Primitive(KindInt32)
	a := NewValueHolder(i32, []byte{1, 0, 0, 0})
	b := NewValueHolder(i32, []byte{1, 0, 0, 0})
	c := NewValueHolder(i32, []byte{2, 0, 0, 0})

	if !a.Equals(b) {
		t.Error("ValueHolders with identical type and bytes compared unequal")
	}
	if a.Equals(c) {
		t.Error("ValueHolders with different bytes compared equal")
	}
}

func TestObjectEqualsDispatchesByDynamicType(t *testing.T) {
	r := NewRegistry()
	i32, i64 := r.Primitive(KindInt32), r.Primitive(KindInt64)

	if !ObjectEquals(i32, i32) {
		t.Error("ObjectEquals(i32, i32) = false, want true")
	}
	if ObjectEquals(i32, i64) {
		t.Error("ObjectEquals(i32, i64) = true, want false")
	}

	vh1 := NewValueHolder(i32, []byte{7})
	vh2 := NewValueHolder(i32, []byte{7})
	if !ObjectEquals(vh1, vh2) {
		t.Error("ObjectEquals on equal ValueHolders = false, want true")
	}

	if ObjectEquals(nil, vh1) {
		t.Error("ObjectEquals(nil, non-nil) = true, want false")
	}
}

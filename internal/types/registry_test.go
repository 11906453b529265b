package types

import "testing"

func TestPrimitiveCanonicalization(t *testing.T) {
	r := NewRegistry()
	if r.Primitive(KindInt32) != r.Primitive(KindInt32) {
		t.Fatal("Primitive(KindInt32) is not pointer-stable across calls")
	}
	if r.Primitive(KindInt32) == r.Primitive(KindInt64) {
		t.Fatal("distinct primitive kinds canonicalized to the same *Type")
	}
}

func TestPointerCanonicalization(t *testing.T) {
	r := NewRegistry()
	i32 := r.Primitive(KindInt32)
	a := r.Pointer(i32)
	b := r.Pointer(i32)
	if a != b {
		t.Fatal("Pointer(Int32) is not pointer-stable across calls")
	}
	if a == r.Pointer(r.Primitive(KindInt64)) {
		t.Fatal("Pointer(Int32) and Pointer(Int64) canonicalized to the same *Type")
	}
}

func TestArrayCanonicalizationByLength(t *testing.T) {
	r := NewRegistry()
	i32 := r.Primitive(KindInt32)
	a10 := r.Array(i32, 10)
	b10 := r.Array(i32, 10)
	a20 := r.Array(i32, 20)
	if a10 != b10 {
		t.Fatal("Array(Int32, 10) is not pointer-stable across calls")
	}
	if a10 == a20 {
		t.Fatal("Array(Int32, 10) and Array(Int32, 20) canonicalized together")
	}
}

func TestTupleCanonicalizationByElementIdentity(t *testing.T) {
	r := NewRegistry()
	i32, i64 := r.Primitive(KindInt32), r.Primitive(KindInt64)
	a := r.Tuple([]*Type{i32, i64})
	b := r.Tuple([]*Type{i32, i64})
	c := r.Tuple([]*Type{i64, i32})
	if a != b {
		t.Fatal("Tuple([Int32, Int64]) is not pointer-stable across calls")
	}
	if a == c {
		t.Fatal("Tuple order was not distinguished by canonicalization")
	}
}

func TestStaticCanonicalizationByObjectEquality(t *testing.T) {
	r := NewRegistry()
	a := r.Static(int64(5))
	b := r.Static(int64(5))
	c := r.Static(int64(6))
	if a != b {
		t.Fatal("Static(5) is not pointer-stable across calls")
	}
	if a == c {
		t.Fatal("Static(5) and Static(6) canonicalized together")
	}
}

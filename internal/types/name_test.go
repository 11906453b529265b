package types

import "testing"

func TestNamePrimitivesAndConstructors(t *testing.T) {
	r := NewRegistry()
	i32 := r.Primitive(KindInt32)
	if got, want := Name(i32), "Int32"; got != want {
		t.Errorf("Name(Int32) = %q, want %q", got, want)
	}
	ptr := r.Pointer(i32)
	if got, want := Name(ptr), "Pointer[Int32]"; got != want {
		t.Errorf("Name(Pointer[Int32]) = %q, want %q", got, want)
	}
	arr := r.Array(i32, 10)
	if got, want := Name(arr), "Array[Int32, 10]"; got != want {
		t.Errorf("Name(Array[Int32,10]) = %q, want %q", got, want)
	}
	tup := r.Tuple([]*Type{i32, r.Primitive(KindBool)})
	if got, want := Name(tup), "Tuple[Int32, Bool]"; got != want {
		t.Errorf("Name(Tuple[...]) = %q, want %q", got, want)
	}
}

func TestSizeOfPrimitives(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		kind Kind
		want int64
	}{
		{KindBool, 1}, {KindInt8, 1}, {KindInt16, 2}, {KindInt32, 4}, {KindInt64, 8},
		{KindFloat32, 4}, {KindFloat64, 8}, {KindVoid, 0},
	}
	for _, c := range cases {
		if got := SizeOf(r.Primitive(c.kind)); got != c.want {
			t.Errorf("SizeOf(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestSizeOfTupleRespectsAlignment(t *testing.T) {
	r := NewRegistry()
	// Bool (1 byte) followed by Int32 (4 bytes, align 4): expect padding to
	// offset 4 before the Int32, then the whole tuple padded to its own
	// alignment (4).
	tup := r.Tuple([]*Type{r.Primitive(KindBool), r.Primitive(KindInt32)})
	if got, want := SizeOf(tup), int64(8); got != want {
		t.Errorf("SizeOf(Tuple[Bool, Int32]) = %d, want %d", got, want)
	}
}

func TestSizeOfArray(t *testing.T) {
	r := NewRegistry()
	arr := r.Array(r.Primitive(KindInt32), 10)
	if got, want := SizeOf(arr), int64(40); got != want {
		t.Errorf("SizeOf(Array[Int32,10]) = %d, want %d", got, want)
	}
}

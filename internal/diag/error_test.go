package diag

import (
	"strings"
	"testing"
)

func TestCompileErrorMessage(t *testing.T) {
	at := Pos{File: "foo.clay", Line: 3, Col: 7}
	err := New(KindType, at, "cannot unify %s with %s", "Int32", "Bool")

	got := err.Error()
	for _, want := range []string{"foo.clay:3:7", "type", "cannot unify Int32 with Bool"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, want substring %q", got, want)
		}
	}
}

func TestCompileErrorWithFrame(t *testing.T) {
	base := New(KindOverload, Pos{}, "no overload matches")
	withFrame := base.WithFrame(Frame{Callable: "foo", ArgTypes: []string{"Int32", "String"}, At: Pos{File: "a.clay", Line: 1, Col: 1}})

	if len(base.Stack) != 0 {
		t.Fatalf("WithFrame mutated the receiver's Stack")
	}
	if len(withFrame.Stack) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(withFrame.Stack))
	}
	if got, want := withFrame.Stack[0].String(), "foo(Int32, String) at a.clay:1:1"; got != want {
		t.Errorf("frame.String() = %q, want %q", got, want)
	}
	if !strings.Contains(withFrame.Error(), "while compiling foo(Int32, String)") {
		t.Errorf("Error() did not render the frame: %q", withFrame.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(KindName, Pos{}, "undefined name %q", "x")
	wrapped := Wrap(cause, KindName, Pos{}, "resolving import")

	if wrapped.Unwrap() == nil {
		t.Fatal("Unwrap() returned nil, expected the pkg/errors-wrapped cause")
	}
}

func TestInternalAlwaysHasCause(t *testing.T) {
	err := Internal(Pos{}, "unreachable: kind %d", 99)
	if err.Kind != KindInternal {
		t.Errorf("Kind = %v, want KindInternal", err.Kind)
	}
	if err.Unwrap() == nil {
		t.Error("Internal() error has no cause, expected a pkg/errors stack trace")
	}
}

package diag

import "testing"

func TestLocationStackPushPop(t *testing.T) {
	s := NewLocationStack()
	if got := s.Current(); got != (Pos{}) {
		t.Fatalf("Current() on empty stack = %v, want zero Pos", got)
	}

	pop1 := s.PushLocation(Pos{File: "a.clay", Line: 1, Col: 1})
	pop2 := s.PushLocation(Pos{File: "a.clay", Line: 2, Col: 1})
	if got, want := s.Current(), (Pos{File: "a.clay", Line: 2, Col: 1}); got != want {
		t.Errorf("Current() = %v, want %v", got, want)
	}
	pop2()
	if got, want := s.Current(), (Pos{File: "a.clay", Line: 1, Col: 1}); got != want {
		t.Errorf("after pop, Current() = %v, want %v", got, want)
	}
	pop1()
	if got := s.Current(); got != (Pos{}) {
		t.Errorf("after popping everything, Current() = %v, want zero Pos", got)
	}
}

func TestLocationStackFramesInnermostFirst(t *testing.T) {
	s := NewLocationStack()
	popOuter := s.PushFrame(Frame{Callable: "outer"})
	popInner := s.PushFrame(Frame{Callable: "inner"})
	defer popOuter()
	defer popInner()

	frames := s.Frames()
	if len(frames) != 2 {
		t.Fatalf("len(Frames()) = %d, want 2", len(frames))
	}
	if frames[0].Callable != "inner" || frames[1].Callable != "outer" {
		t.Errorf("Frames() = %v, want innermost-first [inner, outer]", frames)
	}
}

func TestLocationStackErrorfAttachesFrames(t *testing.T) {
	s := NewLocationStack()
	pop := s.PushFrame(Frame{Callable: "foo"})
	defer pop()

	err := s.Errorf(KindOverload, "no matching overload")
	if len(err.Stack) != 1 || err.Stack[0].Callable != "foo" {
		t.Errorf("Errorf did not attach the active frame stack: %v", err.Stack)
	}
}

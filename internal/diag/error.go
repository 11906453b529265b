// Package diag implements the compiler's single fatal-error path: every
// error carries the source location at which it was raised plus the stack
// of call frames (LocationContext entries and invoke frames) active when it
// was raised, per the error handling design.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an error per the error taxonomy.
type Kind int

const (
	KindParse Kind = iota
	KindName
	KindType
	KindOverload
	KindStaticEval
	KindLinkage
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindName:
		return "name"
	case KindType:
		return "type"
	case KindOverload:
		return "overload"
	case KindStaticEval:
		return "static-eval"
	case KindLinkage:
		return "linkage"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Pos is a source location: file, line, column.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Frame is one entry of the call-stack-of-invocations the spec requires on
// every fatal error, rendered as "foo(Int32, String)".
type Frame struct {
	Callable string
	ArgTypes []string
	At       Pos
}

func (f Frame) String() string {
	return fmt.Sprintf("%s(%s) at %s", f.Callable, strings.Join(f.ArgTypes, ", "), f.At)
}

// CompileError is the single error type that crosses every fallible
// boundary in the compiler core. It wraps an underlying cause (a
// github.com/pkg/errors value, which records the Go stack where it was
// created; Error() prints the cause's message only, and the trace is
// reached through Unwrap) and additionally carries the Clay-level location
// stack: the chain of LocationContext scopes and invoke-entry frames that
// were active when the error was raised.
type CompileError struct {
	Kind    Kind
	Message string
	At      Pos
	Stack   []Frame
	cause   error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", e.At, e.Kind, e.Message)
	for i := len(e.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n  while compiling %s", e.Stack[i])
	}
	if e.cause != nil {
		fmt.Fprintf(&b, "\n  caused by: %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the wrapped cause so errors.Is/errors.As continue to work
// across a CompileError boundary.
func (e *CompileError) Unwrap() error { return e.cause }

// New creates a fresh CompileError whose cause is a new pkg/errors error
// carrying the same message and the Go stack at the call to New.
func New(kind Kind, at Pos, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		At:      at,
		cause:   errors.New(fmt.Sprintf(format, args...)),
	}
}

// Wrap attaches a Clay-level error to an underlying Go error, preserving the
// cause's stack trace via pkg/errors.
func Wrap(cause error, kind Kind, at Pos, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		At:      at,
		cause:   errors.Wrap(cause, fmt.Sprintf(format, args...)),
	}
}

// Internal reports a compiler-bug assertion failure: it always carries a
// pkg/errors stack trace (via errors.WithStack) since these are meant to be
// read from a crash report, not authored by a Clay programmer's mistake.
func Internal(at Pos, format string, args ...interface{}) *CompileError {
	cause := errors.WithStack(fmt.Errorf(format, args...))
	return &CompileError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), At: at, cause: cause}
}

// WithFrame returns a copy of e with an additional call-stack frame pushed,
// matching the invoke-frame push/pop discipline of the resolver, which
// pushes one LocationStack frame for the duration of each callable's
// analysis.
func (e *CompileError) WithFrame(f Frame) *CompileError {
	cp := *e
	cp.Stack = append(append([]Frame{}, e.Stack...), f)
	return &cp
}

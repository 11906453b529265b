// Package analyzer implements the two-stage front end's first stage
// and the overload/generic resolver it calls into for every procedure or
// method call. The two are one Go package, split across files
// (analyzer.go for expression/statement analysis, resolver.go for
// invoke-entry management and candidate unification) rather than two
// packages, because they are mutually recursive by design: analyzing a
// call requires resolving it, and resolving a candidate requires analyzing
// its body to infer return types. Splitting them would need one of the two
// to import the other and then call back in through an interface for no
// benefit — they share every one of their dependencies already.
package analyzer

import "github.com/clayc/clay/internal/types"

// PValue is one analyzed expression slot: its static type plus whether the
// value occupying it is a temporary (owns its storage, may be moved from)
// or an lvalue (a named, borrowed location).
type PValue struct {
	Type   *types.Type
	IsTemp bool
}

// MultiPValue is the ordered result of analyzing one expression; length 1
// for ordinary expressions, length N for a tuple/unpack expansion or a
// multi-return call.
type MultiPValue []PValue

// Single returns mv's sole element, erroring via the caller if len(mv) != 1
// — most call sites require exactly one value (an `if` condition, an
// array index, ...).
func (mv MultiPValue) Single() (PValue, bool) {
	if len(mv) != 1 {
		return PValue{}, false
	}
	return mv[0], true
}

// sameShape reports whether a and b have identical (Type, IsTemp) pairs in
// the same order — the agreement check required across dispatch
// branches and across a function's several return statements.
func sameShape(a, b MultiPValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].IsTemp != b[i].IsTemp {
			return false
		}
	}
	return true
}

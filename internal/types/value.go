package types

import "bytes"

// ValueHolder stores a typed byte buffer for a compile-time constant
// (integer, bool, static index, tuple of statics, ...). Hash and equality
// are defined by type and bytewise contents.
type ValueHolder struct {
	Type  *Type
	Bytes []byte
}

// NewValueHolder packages raw bytes under t.
func NewValueHolder(t *Type, bytes []byte) *ValueHolder {
	return &ValueHolder{Type: t, Bytes: append([]byte(nil), bytes...)}
}

// Equals implements bytewise-and-type equality.
func (v *ValueHolder) Equals(other *ValueHolder) bool {
	if v == other {
		return true
	}
	if v == nil || other == nil {
		return false
	}
	return v.Type == other.Type && bytes.Equal(v.Bytes, other.Bytes)
}

// ObjectEquals implements the deep structural equality over value-holders
// and identifiers (identity for procedures/records) used to key Record
// types by their captured parameter values. It is defined here,
// alongside ValueHolder, rather than in a generic "object" package, because
// every case it must handle either lives in this package (ValueHolder,
// *Type) or is a pointer-identity comparison the caller can do itself; a
// deep/ast.Ident comparison is exposed as a small special case since
// identifiers are interned (pointer-comparable) but callers outside this
// package pass them in as `any`.
func ObjectEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case *ValueHolder:
		bv, ok := b.(*ValueHolder)
		return ok && av.Equals(bv)
	case *Type:
		bv, ok := b.(*Type)
		return ok && av == bv
	default:
		// Procedures, records, variants, identifiers: compared by identity.
		return a == b
	}
}

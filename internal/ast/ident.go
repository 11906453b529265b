package ast

import "github.com/clayc/clay/internal/diag"

// Ident is an interned identifier: source-level names compare by pointer
// once interned, which is what lets the type registry and pattern engine
// use identifier identity (rather than string equality) as part of
// objectEquals — Static(obj) compares by obj identity, with identifier
// objects being interned.
type Ident struct {
	Name string
	At   diag.Pos
}

// InternTable interns identifier strings into a single canonical *Ident per
// name, scoped to one compilation (held on compiler.Context, not a package
// global, per the explicit-Context design note).
type InternTable struct {
	byName map[string]*Ident
}

// NewInternTable creates an empty intern table.
func NewInternTable() *InternTable {
	return &InternTable{byName: make(map[string]*Ident)}
}

// Intern returns the canonical *Ident for name, creating it (recording at
// as its declaring location) on first use.
func (t *InternTable) Intern(name string, at diag.Pos) *Ident {
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := &Ident{Name: name, At: at}
	t.byName[name] = id
	return id
}

// Lookup returns the interned identifier for name if one has been interned.
func (t *InternTable) Lookup(name string) (*Ident, bool) {
	id, ok := t.byName[name]
	return id, ok
}

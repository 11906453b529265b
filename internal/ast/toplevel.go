package ast

import "github.com/clayc/clay/internal/diag"

// Item is the closed sum of top-level module items.
type Item interface {
	Pos() diag.Pos
	itemNode()
}

type baseItem struct{ At diag.Pos }

func (b baseItem) Pos() diag.Pos { return b.At }
func (baseItem) itemNode()       {}

// Module is one loaded `.clay` source file's top-level contents, prior to
// import resolution — this populates the linked environment.
type Module struct {
	DottedName string
	Items      []Item
}

// RecordDef declares a record type; Params are pattern-variable cells bound
// to concrete static values when the type is instantiated as Record(R,
// params). Fields are resolved lazily — see internal/types.
type RecordDef struct {
	baseItem
	Name   *Ident
	Params []Parameter
	Fields []FieldDef
}

// FieldDef is one field of a record: a name plus an (unevaluated) type
// expression, evaluated lazily on first field query against an environment
// binding the record's Params.
type FieldDef struct {
	At   diag.Pos
	Name *Ident
	Type Expr
}

// VariantDef declares an ordered set of member types plus (lazily) a
// representation type.
type VariantDef struct {
	baseItem
	Name    *Ident
	Params  []Parameter
	Members []Expr // type expressions, evaluated lazily
}

// EnumDef declares an integer-backed symbol set.
type EnumDef struct {
	baseItem
	Name    *Ident
	Members []*Ident
}

// ProcedureDef is a plain procedure: it may carry zero or more Overloads (a
// procedure declared with `overloadable` gathers later `overload`
// declarations for the same name into this same list, using
// declaration-order-reversed registration).
type ProcedureDef struct {
	baseItem
	Name        *Ident
	Overloadable bool
	Overloads   []*OverloadDef
}

// OverloadDef is one candidate implementation attached to a procedure (or,
// when TargetPattern names a type/record/variant, attached to that type's
// method list during globals installation / type construction).
type OverloadDef struct {
	baseItem
	TargetPattern Expr // the pattern unified against the callable object
	Params        []Parameter
	VarParam      *Parameter // nil unless variadic
	Predicate     Expr       // nil if no `| expr` guard
	ReturnDecls   []ReturnDecl
	Body          *Block
	Macro         bool // macro template: body is cloned fresh per instantiation
	Inline        bool // inlined: body emitted at the call site, no standalone function
	InlineLLVM    string // raw LLVM IR template, non-empty for an inline-LLVM body
}

// ReturnDecl is one declared return slot: an (unevaluated) type expression
// plus whether it is declared `ref` (wrapped in the prelude's ByRef[T]).
type ReturnDecl struct {
	Type  Expr
	ByRef bool
}

// VarDef declares a global variable, emitted once with a null initializer
// plus, when Init is present, a synthesized init function appended to
// llvm.global_ctors at priority 65535. No destroy function is synthesized
// and no llvm.global_dtors entry is emitted.
type VarDef struct {
	baseItem
	Name *Ident
	Type Expr // nil if inferred from Init
	Init Expr
}

// CallConv is a foreign calling convention.
type CallConv int

const (
	ConvDefault CallConv = iota
	ConvStdcall
	ConvFastcall
	ConvCdecl
)

// ExternalDef declares a foreign proc or var with calling-convention and
// linkage attributes evaluated statically.
type ExternalDef struct {
	baseItem
	Name       *Ident
	Conv       CallConv
	IsVar      bool
	Params     []Parameter
	VarArgs    bool
	ReturnType Expr // nil for void
	DLLImport  bool
	DLLExport  bool
	AsmLabel   string // non-empty if a bare string literal attribute was given
}

// StaticDef declares a compile-time value or compile-time-evaluable
// procedure.
type StaticDef struct {
	baseItem
	Name   *Ident
	Params []Parameter // empty for a static value, non-empty for a static proc
	Body   Expr
}

// AliasDef declares a parameterized alias: indexing it with static
// arguments opens a fresh environment binding Params and evaluates Body
//.
type AliasDef struct {
	baseItem
	Name   *Ident
	Params []*Ident
	Body   Expr
}

// ImportForm distinguishes the three import syntaxes.
type ImportForm int

const (
	ImportModule ImportForm = iota
	ImportStar
	ImportMembers
)

// ImportDef resolves a module import; one of the three forms.
type ImportDef struct {
	baseItem
	Form       ImportForm
	ModulePath string
	Alias      *Ident        // non-nil for ImportModule with `as`
	Members    []ImportMember // non-empty for ImportMembers
}

// ImportMember is one explicit `name [as alias]` entry of an import-members
// clause.
type ImportMember struct {
	Name  *Ident
	Alias *Ident // nil if not aliased
}

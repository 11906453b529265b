package ast

import "github.com/clayc/clay/internal/diag"

// Expr is the closed sum of Clay expression forms. Unlike the teacher's
// ALaS AST — a single kitchen-sink struct discriminated by a string Type
// tag, because that AST round-trips through JSON — Clay's AST is produced
// in-process by the (out-of-scope) parser and consumed only by Go code, so
// it is represented the idiomatic way: a closed interface implemented by
// one concrete struct per form, switched over with a Go type switch.
type Expr interface {
	Pos() diag.Pos
	exprNode()
}

type baseExpr struct{ At diag.Pos }

func (b baseExpr) Pos() diag.Pos { return b.At }
func (baseExpr) exprNode()       {}

// LiteralKind distinguishes the suffix-determined literal forms.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitBool
)

// Literal is an integer/float/char/string/bool literal. Width for integer
// and float literals comes from Suffix (e.g. "i32", "f64"); an empty suffix
// takes the default width (Int for integers, Float64 for floats).
type Literal struct {
	baseExpr
	Kind   LiteralKind
	Text   string // raw literal text, e.g. "42", "3.14", "true"
	Suffix string
}

// NameRef is a reference to a name resolved through the environment chain.
type NameRef struct {
	baseExpr
	Name *Ident
}

// TupleExpr builds a tuple value from its element expressions.
type TupleExpr struct {
	baseExpr
	Elements []Expr
}

// Call invokes Callee with Args. Whether Callee analyzes to a code-pointer,
// a Static(obj) naming a type/record/variant/procedure/primop, or something
// else determines how analysis proceeds.
type Call struct {
	baseExpr
	Callee Expr
	Args   []Expr
}

// Dispatch marks an argument expression as a `*x` dispatch site. Analysis
// records the node and otherwise treats x as an ordinary argument, and
// codegen lowers x itself: x's variant member types are not enumerated and
// no per-member call is resolved.
type Dispatch struct {
	baseExpr
	Operand Expr
}

// FieldRef is a `.field` access; on a module-holder this resolves
// statically, otherwise it desugars to a call to the prelude `fieldRef`
// procedure.
type FieldRef struct {
	baseExpr
	Object Expr
	Field  *Ident
}

// IndexExpr is a `[...]` application, used both for type-constructor
// application (e.g. Array[Int,10]) and for ordinary indexing; which one it
// is depends on what Object analyzes to.
type IndexExpr struct {
	baseExpr
	Object Expr
	Args   []Expr
}

// And / Or are short-circuit boolean operators; they always analyze to a
// single bool pvalue even though their lowering is a conditional
// branch.
type And struct {
	baseExpr
	Left, Right Expr
}

type Or struct {
	baseExpr
	Left, Right Expr
}

// Unpack expands a multi-valued expression (e.g. `...x` in an argument
// list or tuple literal).
type Unpack struct {
	baseExpr
	Operand Expr
}

// StaticExpr wraps an expression that must be evaluated by the compile-time
// evaluator rather than analyzed/codegenned normally — used for `static`
// parameter defaults and alias bodies.
type StaticExpr struct {
	baseExpr
	Body Expr
}

// LambdaKind records whether a lambda was written as a block lambda or a
// value lambda. Analysis builds the same closure record for both kinds:
// every captured local becomes a field of that local's own type.
type LambdaKind int

const (
	LambdaBlock LambdaKind = iota
	LambdaValue
)

// Lambda is rewritten on first analysis into a synthesized closure record
// plus a `call` overload; that rewrite reads FreeVars, which must already
// be filled in, to choose the record's fields.
type Lambda struct {
	baseExpr
	Kind     LambdaKind
	Params   []Parameter
	Body     []Stmt
	FreeVars []*Ident
}

// Parameter is a formal argument: a name, an optional type pattern, an
// optional static-ness, and an optional by-ref/by-value/either tempness
// requirement. The overload's `| expr` predicate guard is carried by
// OverloadDef.Predicate, not by a Parameter.
type Parameter struct {
	At        diag.Pos
	Name      *Ident
	TypePat   Expr // nil if untyped ("anything" pattern)
	IsStatic  bool
	Tempness  Tempness
	ByRef     bool
}

// Tempness constrains which argument tempness a formal admits.
type Tempness int

const (
	TempEither Tempness = iota
	TempRValue          // admits only temporaries
	TempLValue          // admits only non-temporaries (borrows)
)

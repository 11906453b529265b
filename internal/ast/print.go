package ast

import (
	"fmt"
	"strings"
)

// Sprint renders an expression back to approximate Clay surface syntax for
// embedding inside diagnostics (e.g. "cannot return 1 + 2 by reference").
// This is not a reparsable pretty-printer; it exists only so error messages
// can name the offending expression — top-level textual diagnostics
// formatting is out of scope, but this embedding use is not. Grounded on the
// original compiler's printer.cpp, which switches over each AST node kind
// and recurses; this is the same shape restricted to the subset useful in
// messages.
func Sprint(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		return n.Text
	case *NameRef:
		return n.Name.Name
	case *TupleExpr:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = Sprint(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Sprint(a)
		}
		return fmt.Sprintf("%s(%s)", Sprint(n.Callee), strings.Join(args, ", "))
	case *Dispatch:
		return "*" + Sprint(n.Operand)
	case *FieldRef:
		return Sprint(n.Object) + "." + n.Field.Name
	case *IndexExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Sprint(a)
		}
		return fmt.Sprintf("%s[%s]", Sprint(n.Object), strings.Join(args, ", "))
	case *And:
		return fmt.Sprintf("%s and %s", Sprint(n.Left), Sprint(n.Right))
	case *Or:
		return fmt.Sprintf("%s or %s", Sprint(n.Left), Sprint(n.Right))
	case *Unpack:
		return "..." + Sprint(n.Operand)
	case *StaticExpr:
		return Sprint(n.Body)
	case *Lambda:
		if n.Kind == LambdaBlock {
			return "block(...)"
		}
		return "lambda(...)"
	default:
		return "<expr>"
	}
}

// SprintSignature renders a call-site frame the way the spec's call-stack
// frames are formatted: "foo(Int32, String)".
func SprintSignature(name string, argTypeNames []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(argTypeNames, ", "))
}

package analyzer

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/types"
)

// returnInfo accumulates the value shape every ReturnStmt in a body must
// agree on (a procedure's declared return vector, when inferred, is
// the union of its ReturnStmts — which here means "all of them report the
// identical shape", since Clay has no covariance to reconcile).
type returnInfo struct {
	shape MultiPValue
	seen  bool
}

// analyzeBody analyzes every statement of body and returns the return
// shape inferred from its ReturnStmts (empty for a body with none, i.e. a
// void procedure).
func (a *Analyzer) analyzeBody(body *ast.Block, scope *env.Environment) (MultiPValue, error) {
	ri := &returnInfo{}
	if err := a.analyzeBlock(body, scope, ri); err != nil {
		return nil, err
	}
	if !ri.seen {
		return MultiPValue{}, nil
	}
	return ri.shape, nil
}

func (a *Analyzer) analyzeBlock(b *ast.Block, parent *env.Environment, ri *returnInfo) error {
	scope := parent.Child()
	for _, s := range b.Stmts {
		if err := a.analyzeStmt(s, scope, ri); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeStmt(s ast.Stmt, scope *env.Environment, ri *returnInfo) error {
	switch n := s.(type) {
	case *ast.VarStmt:
		return a.analyzeVarStmt(n, scope)
	case *ast.ExprStmt:
		_, err := a.AnalyzeExpr(n.Value, scope)
		return err
	case *ast.AssignStmt:
		if _, err := a.AnalyzeExpr(n.Target, scope); err != nil {
			return err
		}
		_, err := a.AnalyzeExpr(n.Value, scope)
		return err
	case *ast.IfStmt:
		return a.analyzeIfStmt(n, scope, ri)
	case *ast.WhileStmt:
		if _, err := a.AnalyzeExpr(n.Cond, scope); err != nil {
			return err
		}
		return a.analyzeBlock(n.Body, scope, ri)
	case *ast.ForStmt:
		return a.analyzeForStmt(n, scope, ri)
	case *ast.ReturnStmt:
		return a.analyzeReturn(n, scope, ri)
	case *ast.BreakStmt:
		return nil
	case *ast.ContinueStmt:
		return nil
	case *ast.TryStmt:
		return a.analyzeTryStmt(n, scope, ri)
	case *ast.ThrowStmt:
		_, err := a.AnalyzeExpr(n.Value, scope)
		return err
	default:
		return a.Locs.Errorf(diag.KindInternal, "unhandled statement form %T", s)
	}
}

func (a *Analyzer) analyzeVarStmt(n *ast.VarStmt, scope *env.Environment) error {
	var initMV MultiPValue
	if n.Init != nil {
		mv, err := a.AnalyzeExpr(n.Init, scope)
		if err != nil {
			return err
		}
		initMV = mv
	}

	var t *types.Type
	switch {
	case n.Type != nil:
		ty, err := a.Eval.EvalType(n.Type, scope)
		if err != nil {
			return err
		}
		t = ty
	default:
		pv, ok := initMV.Single()
		if !ok {
			return a.Locs.Errorf(diag.KindType, "cannot infer the type of %q without a single-valued initializer", n.Name.Name)
		}
		t = pv.Type
	}
	scope.Bind(n.Name.Name, &LocalBinding{Type: t, IsTemp: false})
	return nil
}

func (a *Analyzer) analyzeIfStmt(n *ast.IfStmt, scope *env.Environment, ri *returnInfo) error {
	condMV, err := a.AnalyzeExpr(n.Cond, scope)
	if err != nil {
		return err
	}
	if pv, ok := condMV.Single(); !ok || pv.Type.Kind != types.KindBool {
		return a.Locs.Errorf(diag.KindType, "if-condition must be a single Bool value")
	}
	if err := a.analyzeBlock(n.Then, scope, ri); err != nil {
		return err
	}
	if n.Else != nil {
		return a.analyzeBlock(n.Else, scope, ri)
	}
	return nil
}

// analyzeForStmt handles both an ordinary runtime loop (array/pointer
// range) and a `static for`: the latter unrolls once per distinct
// element type the body could see, which is all that analysis — as
// opposed to codegen, which unrolls once per actual element — needs to
// type-check every instantiation.
func (a *Analyzer) analyzeForStmt(n *ast.ForStmt, scope *env.Environment, ri *returnInfo) error {
	overMV, err := a.AnalyzeExpr(n.Over, scope)
	if err != nil {
		return err
	}
	overPV, ok := overMV.Single()
	if !ok {
		return a.Locs.Errorf(diag.KindType, "for-loop source must be a single value")
	}

	if n.IsStaticFor {
		var elemTypes []*types.Type
		switch overPV.Type.Kind {
		case types.KindTuple:
			elemTypes = overPV.Type.TupleElems
		case types.KindVariant:
			elemTypes = overPV.Type.Members()
		default:
			return a.Locs.Errorf(diag.KindType, "static for requires a tuple or variant source")
		}
		seen := make(map[*types.Type]bool, len(elemTypes))
		for _, et := range elemTypes {
			if seen[et] {
				continue
			}
			seen[et] = true
			iter := scope.Child()
			iter.Bind(n.Var.Name, &LocalBinding{Type: et, IsTemp: false})
			if err := a.analyzeBlock(n.Body, iter, ri); err != nil {
				return err
			}
		}
		return nil
	}

	child := scope.Child()
	if overPV.Type.Kind == types.KindArray {
		child.Bind(n.Var.Name, &LocalBinding{Type: overPV.Type.Elem, IsTemp: false})
	} else {
		child.Bind(n.Var.Name, &LocalBinding{Type: overPV.Type, IsTemp: false})
	}
	return a.analyzeBlock(n.Body, child, ri)
}

func (a *Analyzer) analyzeTryStmt(n *ast.TryStmt, scope *env.Environment, ri *returnInfo) error {
	if err := a.analyzeBlock(n.Body, scope, ri); err != nil {
		return err
	}
	for _, c := range n.Catches {
		child := scope.Child()
		if c.ExcType != nil {
			t, err := a.Eval.EvalType(c.ExcType, scope)
			if err != nil {
				return err
			}
			if c.Var != nil {
				child.Bind(c.Var.Name, &LocalBinding{Type: t, IsTemp: false})
			}
		}
		if err := a.analyzeBlock(c.Body, child, ri); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeReturn(n *ast.ReturnStmt, scope *env.Environment, ri *returnInfo) error {
	var shape MultiPValue
	for _, v := range n.Values {
		mv, err := a.AnalyzeExpr(v, scope)
		if err != nil {
			return err
		}
		shape = append(shape, mv...)
	}
	if n.Kind == ast.ReturnRef {
		for i := range shape {
			shape[i].IsTemp = false
		}
	}
	if !ri.seen {
		ri.shape, ri.seen = shape, true
		return nil
	}
	if !sameShape(ri.shape, shape) {
		return a.Locs.Errorf(diag.KindType, "return statements disagree on the number or type of returned values")
	}
	return nil
}

package ceval

import (
	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/diag"
	"github.com/clayc/clay/internal/env"
	"github.com/clayc/clay/internal/pattern"
	"github.com/clayc/clay/internal/types"
)

// primitivesScopes holds, per registry, the fallback root every
// record/variant field-type expression resolves against once its own
// pattern parameters are bound — the same primitives-module environment
// the analyzer seeds every module scope with (env.NewPrimitivesModule),
// built over that registry so field types stay its canonical instances.
// A *types.Type carries no
// back-reference to the module it was declared in (the registry is a leaf
// package primitives/types must stay ignorant of environments to avoid an
// import cycle the other direction), so a field type naming a sibling
// record declared earlier in the same user module is out of this
// fallback's reach; every prelude/test record in this port only reaches
// primitives and Pointer/Array/Tuple constructors from field position, so
// this does not come up in practice.
var primitivesScopes = make(map[*types.Registry]pattern.Scope)

func rootFieldScope(reg *types.Registry) pattern.Scope {
	s, ok := primitivesScopes[reg]
	if !ok {
		s = env.NewModuleEnv(env.NewPrimitivesModule(reg))
		primitivesScopes[reg] = s
	}
	return s
}

func paramScope(reg *types.Registry, params []ast.Parameter, values []any) pattern.Scope {
	bound := make(map[string]any, len(params))
	for i, p := range params {
		if i < len(values) {
			bound[p.Name.Name] = values[i]
		}
	}
	return &aliasScope{bound: bound, parent: rootFieldScope(reg)}
}

// ResolveRecordFields is the resolve callback wired into a Record type's
// EnsureFields: it binds the declaration's Params to the type's
// captured Params and evaluates each FieldDef.Type expression in that
// scope, in declaration order.
func (ev *Evaluator) ResolveRecordFields(t *types.Type, at diag.Pos) error {
	return t.EnsureFields(at, func() ([]types.FieldInfo, []*types.Type, error) {
		scope := paramScope(ev.Registry, t.RecordDecl.Params, t.Params)
		fields := make([]types.FieldInfo, len(t.RecordDecl.Fields))
		for i, f := range t.RecordDecl.Fields {
			ft, err := ev.EvalType(f.Type, scope)
			if err != nil {
				return nil, nil, err
			}
			fields[i] = types.FieldInfo{Name: f.Name.Name, Type: ft}
		}
		return fields, nil, nil
	})
}

// ResolveVariantMembers is ResolveRecordFields' counterpart for a Variant
// type's member list.
func (ev *Evaluator) ResolveVariantMembers(t *types.Type, at diag.Pos) error {
	return t.EnsureFields(at, func() ([]types.FieldInfo, []*types.Type, error) {
		scope := paramScope(ev.Registry, t.VariantDecl.Params, t.Params)
		members := make([]*types.Type, len(t.VariantDecl.Members))
		for i, m := range t.VariantDecl.Members {
			mt, err := ev.EvalType(m, scope)
			if err != nil {
				return nil, nil, err
			}
			members[i] = mt
		}
		return nil, members, nil
	})
}

// EnsureResolved resolves whichever of ResolveRecordFields /
// ResolveVariantMembers applies to t's kind; a no-op for every other kind.
// analyzer.go and codegen both call this the first time a Record/Variant
// *types.Type needs its fields/members (field access, struct lowering).
func (ev *Evaluator) EnsureResolved(t *types.Type, at diag.Pos) error {
	switch t.Kind {
	case types.KindRecord:
		return ev.ResolveRecordFields(t, at)
	case types.KindVariant:
		return ev.ResolveVariantMembers(t, at)
	default:
		return nil
	}
}

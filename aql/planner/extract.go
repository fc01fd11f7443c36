package planner

import (
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/query"
)

// Constraint is an equality between an attribute of a loop variable and an
// operand whose value is known before that loop's documents are read.
type Constraint struct {
	Variable string
	Path     aql.Path
	Operand  query.Expr
	Source   query.Expr // the == node the constraint was taken from
}

// ExtractConstraints collects the equality constraints on target from
// filter. Only == nodes reachable through And nodes qualify, and only when
// one side is an attribute access rooted at target and the other side
// depends on nothing but literals, bind parameters and the variables in
// inScope. Operand order does not matter. Constraints on the same path are
// all kept, in source order.
func ExtractConstraints(filter query.Expr, target string, inScope map[string]bool) []Constraint {
	var out []Constraint
	for _, conj := range query.Conjuncts(filter) {
		cmp, ok := conj.(*query.Comparison)
		if !ok || cmp.Op != query.OpEq {
			continue
		}
		if c, ok := constraintFrom(cmp, cmp.Left, cmp.Right, target, inScope); ok {
			out = append(out, c)
		} else if c, ok := constraintFrom(cmp, cmp.Right, cmp.Left, target, inScope); ok {
			out = append(out, c)
		}
	}
	return out
}

func constraintFrom(src *query.Comparison, attr, operand query.Expr, target string, inScope map[string]bool) (Constraint, bool) {
	variable, path, ok := query.RootedAttribute(attr)
	if !ok || variable != target || len(path) == 0 {
		return Constraint{}, false
	}
	if !resolvable(operand, target, inScope) {
		return Constraint{}, false
	}
	return Constraint{Variable: target, Path: path, Operand: operand, Source: src}, true
}

// resolvable reports whether e can be evaluated once per outer binding,
// before any document of target is read.
func resolvable(e query.Expr, target string, inScope map[string]bool) bool {
	switch n := e.(type) {
	case *query.Literal, *query.BindParam:
		return true
	case *query.VariableRef:
		return n.Name != target && inScope[n.Name]
	case *query.AttributeAccess:
		return resolvable(n.Base, target, inScope)
	case *query.ArrayLiteral:
		for _, el := range n.Elements {
			if !resolvable(el, target, inScope) {
				return false
			}
		}
		return true
	case *query.ObjectLiteral:
		for _, f := range n.Fields {
			if !resolvable(f.Value, target, inScope) {
				return false
			}
		}
		return true
	case *query.Comparison, *query.And, *query.Or, *query.Not, *query.FunctionCall:
		return false
	}
	return false
}

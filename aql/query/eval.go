package query

import (
	"fmt"

	"github.com/wbrown/janus-aql/aql"
)

// Scope resolves variables and bind parameters during evaluation.
type Scope interface {
	Lookup(name string) (aql.Value, bool)
	Param(name string) (aql.Value, bool)
}

// Eval evaluates e in scope. Reads of missing attributes yield Null; an
// unbound variable, a missing bind parameter or a failing function call is an
// error.
func Eval(e Expr, scope Scope) (aql.Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *BindParam:
		v, ok := scope.Param(n.Name)
		if !ok {
			return aql.Null(), fmt.Errorf("%w: @%s", ErrUndefinedBindParameter, n.Name)
		}
		return v, nil

	case *VariableRef:
		v, ok := scope.Lookup(n.Name)
		if !ok {
			return aql.Null(), fmt.Errorf("%w: %s", ErrUndefinedVariable, n.Name)
		}
		return v, nil

	case *AttributeAccess:
		base, err := Eval(n.Base, scope)
		if err != nil {
			return aql.Null(), err
		}
		return base.GetPath(n.Path), nil

	case *Comparison:
		left, err := Eval(n.Left, scope)
		if err != nil {
			return aql.Null(), err
		}
		right, err := Eval(n.Right, scope)
		if err != nil {
			return aql.Null(), err
		}
		return aql.Bool(compare(n.Op, left, right)), nil

	case *And:
		left, err := Eval(n.Left, scope)
		if err != nil {
			return aql.Null(), err
		}
		if !left.Truthy() {
			return aql.Bool(false), nil
		}
		right, err := Eval(n.Right, scope)
		if err != nil {
			return aql.Null(), err
		}
		return aql.Bool(right.Truthy()), nil

	case *Or:
		left, err := Eval(n.Left, scope)
		if err != nil {
			return aql.Null(), err
		}
		if left.Truthy() {
			return aql.Bool(true), nil
		}
		right, err := Eval(n.Right, scope)
		if err != nil {
			return aql.Null(), err
		}
		return aql.Bool(right.Truthy()), nil

	case *Not:
		v, err := Eval(n.Operand, scope)
		if err != nil {
			return aql.Null(), err
		}
		return aql.Bool(!v.Truthy()), nil

	case *FunctionCall:
		fn, err := ResolveFunction(n.Name, len(n.Args))
		if err != nil {
			return aql.Null(), err
		}
		args := make([]aql.Value, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = Eval(a, scope); err != nil {
				return aql.Null(), err
			}
		}
		return fn.Call(args)

	case *ArrayLiteral:
		elems := make([]aql.Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := Eval(el, scope)
			if err != nil {
				return aql.Null(), err
			}
			elems[i] = v
		}
		return aql.Array(elems...), nil

	case *ObjectLiteral:
		fields := make(map[string]aql.Value, len(n.Fields))
		for _, f := range n.Fields {
			v, err := Eval(f.Value, scope)
			if err != nil {
				return aql.Null(), err
			}
			fields[f.Key] = v
		}
		return aql.Object(fields), nil
	}
	return aql.Null(), fmt.Errorf("unsupported expression %T", e)
}

func compare(op CompareOp, left, right aql.Value) bool {
	switch op {
	case OpEq:
		return aql.Equal(left, right)
	case OpNe:
		return !aql.Equal(left, right)
	case OpLt:
		return aql.Compare(left, right) < 0
	case OpLe:
		return aql.Compare(left, right) <= 0
	case OpGt:
		return aql.Compare(left, right) > 0
	case OpGe:
		return aql.Compare(left, right) >= 0
	case OpIn:
		if right.Kind() != aql.KindArray {
			return false
		}
		for _, el := range right.Elements() {
			if aql.Equal(left, el) {
				return true
			}
		}
	}
	return false
}

// MapScope is a Scope backed by plain maps.
type MapScope struct {
	Vars   map[string]aql.Value
	Params map[string]aql.Value
}

func (s MapScope) Lookup(name string) (aql.Value, bool) {
	v, ok := s.Vars[name]
	return v, ok
}

func (s MapScope) Param(name string) (aql.Value, bool) {
	v, ok := s.Params[name]
	return v, ok
}

package executor

import (
	"fmt"

	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/query"
)

// Resolver evaluates probe operands against the current bindings. It only
// reads the scope, so the same operand re-resolved after an outer loop
// advances sees the new outer values.
type Resolver struct{}

// ResolveError reports the probe operand that could not be evaluated.
type ResolveError struct {
	Operand query.Expr
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Operand, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolve evaluates a single operand.
func (Resolver) Resolve(operand query.Expr, scope query.Scope) (aql.Value, error) {
	v, err := query.Eval(operand, scope)
	if err != nil {
		return aql.Null(), &ResolveError{Operand: operand, Err: err}
	}
	return v, nil
}

// ResolveKey evaluates every operand of an index probe, in index field
// order.
func (r Resolver) ResolveKey(operands []query.Expr, scope query.Scope) ([]aql.Value, error) {
	key := make([]aql.Value, len(operands))
	for i, op := range operands {
		v, err := r.Resolve(op, scope)
		if err != nil {
			return nil, err
		}
		key[i] = v
	}
	return key, nil
}

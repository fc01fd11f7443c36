package planner

import (
	"errors"
	"fmt"

	"github.com/wbrown/janus-aql/aql/query"
)

var (
	ErrUnknownCollection      = errors.New("unknown collection")
	ErrVariableRedeclared     = errors.New("variable is already declared")
	ErrUnsupportedClauseOrder = errors.New("unsupported clause order")
	ErrMissingReturn          = errors.New("query must end with a RETURN clause")

	// Re-exported so callers can match compile errors against one package.
	ErrUndefinedVariable      = query.ErrUndefinedVariable
	ErrUndefinedBindParameter = query.ErrUndefinedBindParameter
	ErrUnknownFunction        = query.ErrUnknownFunction
)

// CompileError is returned for queries that cannot be planned or bound.
// Name identifies the offending variable, parameter, collection, function
// or clause.
type CompileError struct {
	Err  error
	Name string
}

func (e *CompileError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("compile error: %v", e.Err)
	}
	return fmt.Sprintf("compile error: %v: %s", e.Err, e.Name)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

func compileError(err error, name string) *CompileError {
	return &CompileError{Err: err, Name: name}
}

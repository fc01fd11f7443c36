package query

import "errors"

var (
	// ErrUndefinedVariable is returned when an expression reads a variable
	// that is not in scope.
	ErrUndefinedVariable = errors.New("undefined variable")

	// ErrUndefinedBindParameter is returned when a bind parameter has no
	// value.
	ErrUndefinedBindParameter = errors.New("undefined bind parameter")

	// ErrUnknownFunction is returned for calls to unregistered functions.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrArgumentCount is returned for calls with the wrong number of
	// arguments.
	ErrArgumentCount = errors.New("invalid number of arguments")

	// ErrInvalidArgument is returned by functions given arguments they cannot
	// handle.
	ErrInvalidArgument = errors.New("invalid argument")
)

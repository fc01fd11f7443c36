package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/wbrown/janus-aql/aql"
)

// Function is a scalar function callable from expressions.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Call    func(args []aql.Value) (aql.Value, error)
}

var (
	functionsMu sync.RWMutex
	functions   = map[string]Function{}
)

// RegisterFunction adds or replaces a function. Names are case-insensitive.
func RegisterFunction(fn Function) {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	functions[strings.ToUpper(fn.Name)] = fn
}

// LookupFunction finds a registered function by name.
func LookupFunction(name string) (Function, bool) {
	functionsMu.RLock()
	defer functionsMu.RUnlock()
	fn, ok := functions[strings.ToUpper(name)]
	return fn, ok
}

// ResolveFunction finds name and checks that it accepts argc arguments.
func ResolveFunction(name string, argc int) (Function, error) {
	fn, ok := LookupFunction(name)
	if !ok {
		return Function{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if argc < fn.MinArgs || (fn.MaxArgs >= 0 && argc > fn.MaxArgs) {
		return Function{}, fmt.Errorf("%w: %s called with %d", ErrArgumentCount, fn.Name, argc)
	}
	return fn, nil
}

func init() {
	RegisterFunction(Function{Name: "LENGTH", MinArgs: 1, MaxArgs: 1, Call: fnLength})
	RegisterFunction(Function{Name: "UPPER", MinArgs: 1, MaxArgs: 1, Call: stringFunc(strings.ToUpper)})
	RegisterFunction(Function{Name: "LOWER", MinArgs: 1, MaxArgs: 1, Call: stringFunc(strings.ToLower)})
	RegisterFunction(Function{Name: "TO_STRING", MinArgs: 1, MaxArgs: 1, Call: func(args []aql.Value) (aql.Value, error) {
		return aql.String(toString(args[0])), nil
	}})
	RegisterFunction(Function{Name: "TO_NUMBER", MinArgs: 1, MaxArgs: 1, Call: fnToNumber})
	RegisterFunction(Function{Name: "IS_NULL", MinArgs: 1, MaxArgs: 1, Call: func(args []aql.Value) (aql.Value, error) {
		return aql.Bool(args[0].IsNull()), nil
	}})
	RegisterFunction(Function{Name: "CONCAT", MinArgs: 1, MaxArgs: -1, Call: func(args []aql.Value) (aql.Value, error) {
		var sb strings.Builder
		for _, a := range args {
			if !a.IsNull() {
				sb.WriteString(toString(a))
			}
		}
		return aql.String(sb.String()), nil
	}})
}

func fnLength(args []aql.Value) (aql.Value, error) {
	v := args[0]
	switch v.Kind() {
	case aql.KindNull:
		return aql.Int(0), nil
	case aql.KindString:
		return aql.Int(len([]rune(mustString(v)))), nil
	case aql.KindArray, aql.KindObject:
		return aql.Int(v.Len()), nil
	}
	return aql.Null(), fmt.Errorf("%w: LENGTH of %s", ErrInvalidArgument, v.Kind())
}

func fnToNumber(args []aql.Value) (aql.Value, error) {
	v := args[0]
	switch v.Kind() {
	case aql.KindNumber:
		return v, nil
	case aql.KindBool:
		if b, _ := v.AsBool(); b {
			return aql.Int(1), nil
		}
		return aql.Int(0), nil
	case aql.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(mustString(v)), 64)
		if err != nil {
			return aql.Int(0), nil
		}
		return aql.Number(f), nil
	}
	return aql.Int(0), nil
}

func stringFunc(f func(string) string) func([]aql.Value) (aql.Value, error) {
	return func(args []aql.Value) (aql.Value, error) {
		return aql.String(f(toString(args[0]))), nil
	}
}

func toString(v aql.Value) string {
	switch v.Kind() {
	case aql.KindNull:
		return ""
	case aql.KindString:
		return mustString(v)
	}
	return v.String()
}

func mustString(v aql.Value) string {
	s, _ := v.AsString()
	return s
}

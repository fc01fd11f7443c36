package executor

import "github.com/wbrown/janus-aql/aql"

// Bindings is the variable scope of one execution: a stack of name/value
// pairs plus the bind parameters. Entering a loop or LET pushes, leaving it
// truncates back to the depth it started from. A Bindings value belongs to a
// single execution and is never shared.
type Bindings struct {
	names  []string
	values []aql.Value
	params map[string]aql.Value
}

// NewBindings creates an empty scope with the given parameters.
func NewBindings(params map[string]aql.Value) *Bindings {
	return &Bindings{params: params}
}

// Push binds name, shadowing any outer binding of the same name.
func (b *Bindings) Push(name string, v aql.Value) {
	b.names = append(b.names, name)
	b.values = append(b.values, v)
}

// Pop removes the innermost binding.
func (b *Bindings) Pop() {
	if len(b.names) == 0 {
		return
	}
	b.Truncate(len(b.names) - 1)
}

// Depth returns the number of bindings in scope.
func (b *Bindings) Depth() int {
	return len(b.names)
}

// Truncate drops bindings until depth remain.
func (b *Bindings) Truncate(depth int) {
	if depth < 0 || depth >= len(b.names) {
		return
	}
	for i := depth; i < len(b.values); i++ {
		b.values[i] = aql.Value{}
	}
	b.names = b.names[:depth]
	b.values = b.values[:depth]
}

// Lookup implements query.Scope, searching from the innermost binding out.
func (b *Bindings) Lookup(name string) (aql.Value, bool) {
	for i := len(b.names) - 1; i >= 0; i-- {
		if b.names[i] == name {
			return b.values[i], true
		}
	}
	return aql.Null(), false
}

// Param implements query.Scope.
func (b *Bindings) Param(name string) (aql.Value, bool) {
	v, ok := b.params[name]
	return v, ok
}

// Values returns a copy of the bound values, outermost first.
func (b *Bindings) Values() []aql.Value {
	out := make([]aql.Value, len(b.values))
	copy(out, b.values)
	return out
}

// Object returns the bindings as an object keyed by variable name.
func (b *Bindings) Object() aql.Value {
	fields := make(map[string]aql.Value, len(b.names))
	for i, name := range b.names {
		fields[name] = b.values[i]
	}
	return aql.Object(fields)
}

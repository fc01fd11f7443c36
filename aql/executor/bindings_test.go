package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/query"
)

func TestBindingsStack(t *testing.T) {
	b := NewBindings(map[string]aql.Value{"p": aql.Int(7)})
	assert.Equal(t, 0, b.Depth())

	b.Push("x", aql.Int(1))
	b.Push("y", aql.Int(2))
	depth := b.Depth()
	b.Push("x", aql.String("shadow"))

	v, ok := b.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, `"shadow"`, v.String())

	b.Truncate(depth)
	v, ok = b.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "1", v.String())

	b.Pop()
	_, ok = b.Lookup("y")
	assert.False(t, ok)

	p, ok := b.Param("p")
	require.True(t, ok)
	assert.Equal(t, "7", p.String())
	_, ok = b.Param("q")
	assert.False(t, ok)

	assert.Equal(t, `{"x":1}`, b.Object().String())
	b.Pop()
	b.Pop()
	assert.Equal(t, 0, b.Depth())
}

func TestResolverSeesCurrentBindings(t *testing.T) {
	b := NewBindings(map[string]aql.Value{"k": aql.Int(3)})
	operands := []query.Expr{query.Attr("outer", "c"), query.Param("k")}

	var r Resolver
	for i := 1; i <= 3; i++ {
		depth := b.Depth()
		b.Push("outer", aql.MustFromGo(map[string]interface{}{"c": i}))
		key, err := r.ResolveKey(operands, b)
		require.NoError(t, err)
		assert.Equal(t, "["+aql.Int(i).String()+",3]", aql.Array(key...).String())
		b.Truncate(depth)
	}

	_, err := r.ResolveKey([]query.Expr{query.Var("missing")}, b)
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, query.ErrUndefinedVariable)
	assert.Equal(t, "missing", re.Operand.String())
}

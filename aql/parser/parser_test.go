package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/query"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		canonical string
	}{
		{
			name:      "single loop with sort",
			input:     "FOR v IN hash FILTER v.c == 1 SORT v.b RETURN [ v.b ]",
			canonical: "FOR v IN hash FILTER v.c == 1 SORT v.b RETURN [v.b]",
		},
		{
			name:      "bind parameters",
			input:     "for v in hash filter @a == v.a && v.b == @b sort v.b desc return [v.a, v.b]",
			canonical: "FOR v IN hash FILTER @a == v.a && v.b == @b SORT v.b DESC RETURN [v.a, v.b]",
		},
		{
			name:      "let bound constants",
			input:     "LET x = 3 LET y = 5 FOR v IN hash FILTER v.a == x && v.b == y RETURN [v.a, v.b]",
			canonical: "LET x = 3 LET y = 5 FOR v IN hash FILTER v.a == x && v.b == y RETURN [v.a, v.b]",
		},
		{
			name:      "correlated loops",
			input:     "FOR v1 IN hash FOR v2 IN hash FILTER v1.c == 1 FILTER v2.c == v1.c RETURN {a: v1.a, \"b\": v2.b}",
			canonical: "FOR v1 IN hash FOR v2 IN hash FILTER v1.c == 1 FILTER v2.c == v1.c RETURN {a: v1.a, b: v2.b}",
		},
		{
			name:      "limit with offset",
			input:     "FOR v IN c LIMIT 2, 10 RETURN v",
			canonical: "FOR v IN c LIMIT 2, 10 RETURN v",
		},
		{
			name:      "or not and functions",
			input:     "FOR v IN c FILTER NOT (v.a == 1 OR v.b IN [1, 2]) AND length(v.s) > 0 RETURN UPPER(v.s)",
			canonical: "FOR v IN c FILTER !((v.a == 1 || v.b IN [1, 2])) && LENGTH(v.s) > 0 RETURN UPPER(v.s)",
		},
		{
			name:      "literals",
			input:     "RETURN [true, false, null, -1.5, 'x', {}]",
			canonical: `RETURN [true, false, null, -1.5, "x", {}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, q.String())
		})
	}
}

func TestParseStructure(t *testing.T) {
	q, err := ParseQuery("FOR v IN hash FILTER v.a == @a && v.n.x == 2 RETURN v")
	require.NoError(t, err)
	require.Len(t, q.Clauses, 3)

	forClause, ok := q.Clauses[0].(*query.ForClause)
	require.True(t, ok)
	assert.Equal(t, "v", forClause.Variable)
	assert.Equal(t, "hash", forClause.Collection)

	filter, ok := q.Clauses[1].(*query.FilterClause)
	require.True(t, ok)
	conj := query.Conjuncts(filter.Condition)
	require.Len(t, conj, 2)

	cmp, ok := conj[1].(*query.Comparison)
	require.True(t, ok)
	assert.Equal(t, query.OpEq, cmp.Op)
	variable, path, ok := query.RootedAttribute(cmp.Left)
	require.True(t, ok)
	assert.Equal(t, "v", variable)
	assert.Equal(t, aql.Path{"n", "x"}, path)

	lit, ok := cmp.Right.(*query.Literal)
	require.True(t, ok)
	assert.True(t, aql.Equal(aql.Int(2), lit.Value))

	assert.Equal(t, []string{"a"}, q.BindParams())
	assert.NotNil(t, q.Return())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
	}{
		{"empty", "", 1, 1},
		{"missing IN", "FOR v hash", 1, 7},
		{"unknown clause", "SELECT v", 1, 1},
		{"missing let assign", "LET x 3", 1, 7},
		{"dangling operator", "FOR v IN c FILTER v.a == RETURN v", 1, 26},
		{"bad limit", "FOR v IN c LIMIT -1 RETURN v", 1, 18},
		{"unclosed array", "RETURN [1, 2", 1, 13},
		{"lex error", "RETURN #", 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.input)
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.col, perr.Col)
		})
	}
}

func TestParseExpr(t *testing.T) {
	e, err := ParseExpr("v.a == 1 && (v.b == @b || x.y != null)")
	require.NoError(t, err)
	assert.Equal(t, "v.a == 1 && (v.b == @b || x.y != null)", e.String())

	_, err = ParseExpr("v.a == 1 )")
	assert.Error(t, err)
}

func TestExprStringKeepsGrouping(t *testing.T) {
	tests := []string{
		"(v.c == 1) == false",
		"v.c == (1 == false)",
		"(!(v.a)) == true",
		"v.a == 1 && (v.b == 2 && v.c == 3)",
		"v.a == (v.b && v.c)",
	}

	seen := make(map[string]bool)
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			e, err := ParseExpr(text)
			require.NoError(t, err)
			assert.Equal(t, text, e.String())
			assert.False(t, seen[e.String()])
			seen[e.String()] = true

			again, err := ParseExpr(e.String())
			require.NoError(t, err)
			assert.Equal(t, e.String(), again.String())
		})
	}
}

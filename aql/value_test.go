package aql

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleValues() []Value {
	return []Value{
		Null(),
		Bool(false),
		Bool(true),
		Int(0),
		Number(math.Copysign(0, -1)),
		Int(1),
		Number(1.5),
		Number(math.NaN()),
		String(""),
		String("1"),
		String("a"),
		Array(),
		Array(Int(1)),
		Array(Int(1), Null()),
		Array(Null()),
		Object(map[string]Value{}),
		Object(map[string]Value{"a": Int(1)}),
		Object(map[string]Value{"a": Int(1), "b": Null()}),
		Object(map[string]Value{"b": Int(1)}),
	}
}

func TestEqualIsTypeSensitive(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"number vs string", Int(1), String("1"), false},
		{"bool vs number", Bool(true), Int(1), false},
		{"null vs false", Null(), Bool(false), false},
		{"null vs null", Null(), Null(), true},
		{"negative zero", Number(math.Copysign(0, -1)), Int(0), true},
		{"nan reflexive", Number(math.NaN()), Number(math.NaN()), true},
		{"nested arrays", Array(Int(1), Array(String("x"))), Array(Int(1), Array(String("x"))), true},
		{"array length", Array(Int(1)), Array(Int(1), Null()), false},
		{"object missing vs null field", Object(map[string]Value{"a": Int(1)}), Object(map[string]Value{"a": Int(1), "b": Null()}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
			assert.Equal(t, tt.equal, Equal(tt.b, tt.a), "equality must be symmetric")
		})
	}
}

func TestEqualAgreesWithCompareAndKey(t *testing.T) {
	values := sampleValues()
	for i, a := range values {
		assert.True(t, Equal(a, a), "reflexive: %s", a)
		for j, b := range values {
			eq := Equal(a, b)
			assert.Equal(t, eq, Compare(a, b) == 0, "compare(%s, %s)", a, b)
			assert.Equal(t, eq, bytes.Equal(AppendKey(nil, a), AppendKey(nil, b)),
				"key(%d) vs key(%d): %s %s", i, j, a, b)
		}
	}
}

func TestCompareTypeOrder(t *testing.T) {
	ordered := []Value{
		Null(),
		Bool(false),
		Bool(true),
		Number(math.NaN()),
		Int(-3),
		Int(2),
		String("a"),
		String("b"),
		Array(),
		Array(Int(1)),
		Object(map[string]Value{}),
	}
	for i := 1; i < len(ordered); i++ {
		assert.Negative(t, Compare(ordered[i-1], ordered[i]), "%s < %s", ordered[i-1], ordered[i])
		assert.Positive(t, Compare(ordered[i], ordered[i-1]))
	}
}

func TestKeyTupleIsSelfDelimiting(t *testing.T) {
	a := AppendKeyTuple(nil, []Value{String("ab"), String("c")})
	b := AppendKeyTuple(nil, []Value{String("a"), String("bc")})
	assert.NotEqual(t, a, b)
}

func TestGetPathMissingIsNull(t *testing.T) {
	doc := MustFromGo(map[string]interface{}{
		"a": 1,
		"n": map[string]interface{}{"x": "deep"},
	})

	assert.True(t, Equal(String("deep"), doc.GetPath(ParsePath("n.x"))))
	assert.True(t, doc.GetPath(ParsePath("missing")).IsNull())
	assert.True(t, doc.GetPath(ParsePath("a.b")).IsNull(), "reading through a number")
	assert.True(t, doc.GetPath(ParsePath("n.y.z")).IsNull())
}

func TestTruthy(t *testing.T) {
	assert.False(t, Null().Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.False(t, Number(math.NaN()).Truthy())
	assert.False(t, String("").Truthy())
	assert.True(t, Array().Truthy())
	assert.True(t, Object(nil).Truthy())
	assert.True(t, String("0").Truthy())
}

func TestJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"b":[1,2.5,"x",null,true],"a":{"c":-0}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":0},"b":[1,2.5,"x",null,true]}`, v.String())

	_, err = ParseJSONObject([]byte(`[1]`))
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`{`))
	assert.Error(t, err)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestWithCopies(t *testing.T) {
	base := Object(map[string]Value{"a": Int(1)})
	next := base.With("b", Int(2))
	assert.False(t, base.Has("b"))
	assert.True(t, Equal(Int(2), next.Get("b")))
	assert.True(t, Equal(Int(1), next.Get("a")))
}

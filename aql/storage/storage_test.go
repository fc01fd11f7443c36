package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-aql/aql"
)

func doc(fields map[string]interface{}) aql.Value {
	return aql.MustFromGo(fields)
}

// hashFixture mirrors the classic hash index test data: 25 documents
// {a: i, b: j, c: i} for i, j in 1..5.
func hashFixture(t *testing.T, db *Database) *Collection {
	t.Helper()
	c, err := db.CreateCollection("hash")
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		for j := 1; j <= 5; j++ {
			_, err := c.Insert(doc(map[string]interface{}{"a": i, "b": j, "c": i}))
			require.NoError(t, err)
		}
	}
	return c
}

func TestInsertAssignsIdentifiers(t *testing.T) {
	db := NewDatabase()
	c, err := db.CreateCollection("users")
	require.NoError(t, err)

	id1, err := c.Insert(doc(map[string]interface{}{"name": "ann", "_key": "bogus"}))
	require.NoError(t, err)
	id2, err := c.Insert(doc(map[string]interface{}{"name": "bob"}))
	require.NoError(t, err)

	assert.Equal(t, aql.DocumentID(1), id1)
	assert.Equal(t, aql.DocumentID(2), id2)
	assert.Equal(t, 2, c.Count())

	d, ok := c.Document(id1)
	require.True(t, ok)
	assert.Equal(t, `"1"`, d.Value.Get(aql.KeyAttribute).String())
	assert.Equal(t, `"users/1"`, d.Value.Get(aql.IDAttribute).String())

	_, ok = c.Document(3)
	assert.False(t, ok)
	_, ok = c.Document(0)
	assert.False(t, ok)

	_, err = c.Insert(aql.Array())
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestIndexBuiltEagerlyOverExistingDocuments(t *testing.T) {
	db := NewDatabase()
	c := hashFixture(t, db)

	ab, err := c.CreateIndex(aql.Paths("a", "b"), false)
	require.NoError(t, err)
	cIdx, err := c.CreateIndex(aql.Paths("c"), false)
	require.NoError(t, err)

	assert.Equal(t, []aql.DocumentID{13}, ab.Lookup([]aql.Value{aql.Int(3), aql.Int(3)}))
	assert.Equal(t, []aql.DocumentID{16, 17, 18, 19, 20}, cIdx.Lookup([]aql.Value{aql.Int(4)}))
	assert.Equal(t, IndexStats{Keys: 25, Documents: 25}, ab.Stats())
	assert.Equal(t, IndexStats{Keys: 5, Documents: 25}, cIdx.Stats())

	assert.Empty(t, cIdx.Lookup([]aql.Value{aql.Int(6)}))
	assert.Empty(t, cIdx.Lookup([]aql.Value{aql.String("4")}), "lookup is type-sensitive")
	assert.Empty(t, ab.Lookup([]aql.Value{aql.Int(3)}), "wrong arity")

	// Later inserts update every index.
	id, err := c.Insert(doc(map[string]interface{}{"a": 3, "b": 3, "c": 9}))
	require.NoError(t, err)
	assert.Equal(t, []aql.DocumentID{13, id}, ab.Lookup([]aql.Value{aql.Int(3), aql.Int(3)}))
	assert.Equal(t, []aql.DocumentID{id}, cIdx.Lookup([]aql.Value{aql.Int(9)}))

	indexes := c.Indexes()
	require.Len(t, indexes, 2)
	assert.Equal(t, ab, indexes[0])
	assert.Less(t, uint64(ab.ID()), uint64(cIdx.ID()))
	assert.Equal(t, "hash(a, b)", ab.String())
}

func TestMissingFieldsKeyAsNull(t *testing.T) {
	db := NewDatabase()
	c, err := db.CreateCollection("sparse")
	require.NoError(t, err)
	ix, err := c.CreateIndex(aql.Paths("x", "n.y"), false)
	require.NoError(t, err)

	id1, _ := c.Insert(doc(map[string]interface{}{"x": nil}))
	id2, _ := c.Insert(doc(map[string]interface{}{"other": 1}))
	id3, _ := c.Insert(doc(map[string]interface{}{"x": 1, "n": map[string]interface{}{"y": 2}}))

	assert.Equal(t, []aql.DocumentID{id1, id2}, ix.Lookup([]aql.Value{aql.Null(), aql.Null()}))
	assert.Equal(t, []aql.DocumentID{id3}, ix.Lookup([]aql.Value{aql.Int(1), aql.Int(2)}))
	assert.Equal(t, 3, ix.Stats().Documents, "every document appears under exactly one key")
}

func TestUniqueIndex(t *testing.T) {
	db := NewDatabase()
	c, err := db.CreateCollection("u")
	require.NoError(t, err)
	plain, err := c.CreateIndex(aql.Paths("group"), false)
	require.NoError(t, err)
	unique, err := c.CreateIndex(aql.Paths("email"), true)
	require.NoError(t, err)
	assert.Equal(t, "unique hash(email)", unique.String())

	_, err = c.Insert(doc(map[string]interface{}{"email": "a@x", "group": 1}))
	require.NoError(t, err)

	_, err = c.Insert(doc(map[string]interface{}{"email": "a@x", "group": 1}))
	require.True(t, errors.Is(err, ErrUniqueConstraint))

	// A rejected insert leaves no trace.
	assert.Equal(t, 1, c.Count())
	assert.Len(t, plain.Lookup([]aql.Value{aql.Int(1)}), 1)

	// Building a unique index over duplicate data fails.
	_, err = c.Insert(doc(map[string]interface{}{"email": "b@x", "group": 1}))
	require.NoError(t, err)
	_, err = c.CreateIndex(aql.Paths("group"), true)
	assert.True(t, errors.Is(err, ErrUniqueConstraint))
	assert.Len(t, c.Indexes(), 2)
}

func TestEnsureAndDropIndex(t *testing.T) {
	db := NewDatabase()
	c := hashFixture(t, db)

	v0 := db.Version()
	ix, created, err := c.EnsureHashIndex(false, aql.Paths("a", "b")...)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Greater(t, db.Version(), v0)

	again, created, err := c.EnsureHashIndex(false, aql.Paths("a", "b")...)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, ix, again)

	_, created, err = c.EnsureHashIndex(false, aql.Paths("b", "a")...)
	require.NoError(t, err)
	assert.True(t, created, "field order is part of the index shape")

	require.NoError(t, c.DropIndex(ix.ID()))
	_, ok := c.Index(ix.ID())
	assert.False(t, ok)
	assert.True(t, errors.Is(c.DropIndex(ix.ID()), ErrIndexNotFound))
}

func TestInvalidIndexDefinitions(t *testing.T) {
	db := NewDatabase()
	c, err := db.CreateCollection("c")
	require.NoError(t, err)

	for name, fields := range map[string][]aql.Path{
		"no fields":       nil,
		"empty path":      {aql.Path{}},
		"empty attribute": {aql.ParsePath("a..b")},
		"duplicate":       aql.Paths("a", "a"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.CreateIndex(fields, false)
			assert.True(t, errors.Is(err, ErrInvalidIndex))
		})
	}
}

func TestDatabaseCollections(t *testing.T) {
	db := NewDatabase()
	_, err := db.CreateCollection("b")
	require.NoError(t, err)
	_, err = db.CreateCollection("a")
	require.NoError(t, err)

	_, err = db.CreateCollection("a")
	assert.True(t, errors.Is(err, ErrCollectionExists))
	_, err = db.CreateCollection("x/y")
	assert.True(t, errors.Is(err, ErrInvalidName))
	_, err = db.CreateCollection("")
	assert.True(t, errors.Is(err, ErrInvalidName))

	assert.Equal(t, []string{"a", "b"}, db.CollectionNames())

	require.NoError(t, db.DropCollection("a"))
	_, ok := db.Collection("a")
	assert.False(t, ok)
	assert.True(t, errors.Is(db.DropCollection("a"), ErrCollectionNotFound))
}

func TestSnapshotIsStable(t *testing.T) {
	db := NewDatabase()
	c := hashFixture(t, db)
	snap := c.Snapshot()
	_, err := c.Insert(doc(map[string]interface{}{"a": 99}))
	require.NoError(t, err)
	assert.Len(t, snap, 25)
	assert.Equal(t, 26, c.Count())
}

func TestLoadValues(t *testing.T) {
	db := NewDatabase()
	c, err := db.LoadValues("people", []aql.Value{
		doc(map[string]interface{}{"name": "a"}),
		doc(map[string]interface{}{"name": "b"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	_, err = db.LoadValues("people", []aql.Value{doc(map[string]interface{}{"name": "c"})})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-aql/aql"
)

func TestBadgerPersistence(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, db.Persistent())

	c := hashFixture(t, db)
	ab, err := c.CreateIndex(aql.Paths("a", "b"), false)
	require.NoError(t, err)
	_, err = c.CreateIndex(aql.Paths("c"), true)
	require.Error(t, err, "c repeats, unique index must fail")
	cIdx, err := c.CreateIndex(aql.Paths("c"), false)
	require.NoError(t, err)

	other, err := db.CreateCollection("dropped")
	require.NoError(t, err)
	_, err = other.Insert(doc(map[string]interface{}{"x": 1}))
	require.NoError(t, err)
	require.NoError(t, db.DropCollection("dropped"))

	dropme, err := c.CreateIndex(aql.Paths("b"), false)
	require.NoError(t, err)
	require.NoError(t, c.DropIndex(dropme.ID()))
	require.NoError(t, db.Close())

	reopened, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"hash"}, reopened.CollectionNames())
	rc, ok := reopened.Collection("hash")
	require.True(t, ok)
	assert.Equal(t, 25, rc.Count())

	indexes := rc.Indexes()
	require.Len(t, indexes, 2)
	assert.Equal(t, ab.ID(), indexes[0].ID())
	assert.Equal(t, cIdx.ID(), indexes[1].ID())
	assert.Equal(t, []aql.DocumentID{16, 17, 18, 19, 20}, indexes[1].Lookup([]aql.Value{aql.Int(4)}))

	d, ok := rc.Document(7)
	require.True(t, ok)
	assert.True(t, aql.Equal(aql.Int(2), d.Value.Get("a")))
	assert.Equal(t, `"hash/7"`, d.Value.Get(aql.IDAttribute).String())

	// Index IDs keep increasing after reload.
	next, err := rc.CreateIndex(aql.Paths("b"), false)
	require.NoError(t, err)
	assert.Greater(t, uint64(next.ID()), uint64(dropme.ID()))

	// Identifiers continue after the reloaded documents.
	id, err := rc.Insert(doc(map[string]interface{}{"a": 6}))
	require.NoError(t, err)
	assert.Equal(t, aql.DocumentID(26), id)
}

func TestBadgerInMemory(t *testing.T) {
	db, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	c, err := db.CreateCollection("m")
	require.NoError(t, err)
	_, err = c.Insert(doc(map[string]interface{}{"k": "v"}))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count())
}

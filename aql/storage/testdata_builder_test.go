package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-aql/aql"
)

func TestBuildTestDatabase(t *testing.T) {
	config := DefaultHashConfig()
	config.A, config.B = 4, 3
	config.BatchSize = 5
	config.OutputPath = filepath.Join(t.TempDir(), "nested", "hash.db")

	var progress bytes.Buffer
	db, err := BuildTestDatabase(config, &progress)
	require.NoError(t, err)

	c, ok := db.Collection("hash")
	require.True(t, ok)
	assert.Equal(t, 12, c.Count())
	require.Len(t, c.Indexes(), 2)
	assert.Equal(t, []aql.DocumentID{6}, c.Indexes()[0].Lookup([]aql.Value{aql.Int(2), aql.Int(3)}))
	assert.Contains(t, progress.String(), "Written 12/12 documents (100.0%)")

	var stats bytes.Buffer
	require.NoError(t, WriteStats(db, &stats))
	assert.Contains(t, stats.String(), "hash: 12 documents")
	assert.Contains(t, stats.String(), "hash(c): 4 keys")
	require.NoError(t, db.Close())

	reopened, err := OpenTestDatabase(config.OutputPath)
	require.NoError(t, err)
	defer reopened.Close()
	c, ok = reopened.Collection("hash")
	require.True(t, ok)
	assert.Equal(t, 12, c.Count())

	_, err = OpenTestDatabase(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

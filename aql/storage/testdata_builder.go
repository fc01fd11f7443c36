package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/janus-aql/aql"
)

// TestDataConfig specifies what kind of test database to build. Documents
// follow the hash index fixture shape {a: i, b: j, c: i} for i in 1..A and
// j in 1..B, with hash indexes on (a, b) and (c).
type TestDataConfig struct {
	Collection string // Collection to create
	A          int    // Distinct values of a and c
	B          int    // Distinct values of b per a
	OutputPath string // Where to store the database
	BatchSize  int    // Documents between progress reports
}

// DefaultHashConfig returns a small dataset: 100 × 100 = 10,000 documents.
func DefaultHashConfig() TestDataConfig {
	return TestDataConfig{
		Collection: "hash",
		A:          100,
		B:          100,
		OutputPath: "testdata/hash_default.db",
		BatchSize:  5000,
	}
}

// MediumHashConfig returns 500 × 200 = 100,000 documents.
func MediumHashConfig() TestDataConfig {
	return TestDataConfig{
		Collection: "hash",
		A:          500,
		B:          200,
		OutputPath: "testdata/hash_medium.db",
		BatchSize:  20000,
	}
}

// LargeHashConfig returns 1,000 × 1,000 = 1,000,000 documents.
func LargeHashConfig() TestDataConfig {
	return TestDataConfig{
		Collection: "hash",
		A:          1000,
		B:          1000,
		OutputPath: "testdata/hash_large.db",
		BatchSize:  100000,
	}
}

// BuildTestDatabase creates a pre-populated badger database, replacing any
// existing one at config.OutputPath. Progress is written to progress when it
// is non-nil.
func BuildTestDatabase(config TestDataConfig, progress io.Writer) (*Database, error) {
	if progress == nil {
		progress = io.Discard
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 5000
	}

	if err := os.RemoveAll(config.OutputPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove existing db: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := Open(config.OutputPath, DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	c, err := db.CreateCollection(config.Collection)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Indexes first, so each insert maintains them incrementally.
	if _, err := c.CreateIndex(aql.Paths("a", "b"), false); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := c.CreateIndex(aql.Paths("c"), false); err != nil {
		db.Close()
		return nil, err
	}

	total := config.A * config.B
	fmt.Fprintf(progress, "Writing %s documents to %s...\n", humanize.Comma(int64(total)), config.OutputPath)

	written := 0
	for i := 1; i <= config.A; i++ {
		for j := 1; j <= config.B; j++ {
			doc := aql.Object(map[string]aql.Value{
				"a": aql.Int(i),
				"b": aql.Int(j),
				"c": aql.Int(i),
			})
			if _, err := c.Insert(doc); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to insert document %d: %w", written+1, err)
			}
			written++
			if written%config.BatchSize == 0 || written == total {
				fmt.Fprintf(progress, "  Written %s/%s documents (%.1f%%)\n",
					humanize.Comma(int64(written)), humanize.Comma(int64(total)),
					float64(written)/float64(total)*100)
			}
		}
	}

	return db, nil
}

// OpenTestDatabase opens a pre-built test database.
func OpenTestDatabase(path string) (*Database, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("test database not found: %s (run BuildTestDatabase first)", path)
	}
	return Open(path, DefaultOptions())
}

// WriteStats prints collection and index statistics, plus the on-disk size
// for persistent databases.
func WriteStats(db *Database, w io.Writer) error {
	fmt.Fprintf(w, "Database Statistics:\n")
	if db.store != nil {
		dir := db.store.db.Opts().Dir
		size, err := dirSize(dir)
		if err != nil {
			return fmt.Errorf("failed to stat database: %w", err)
		}
		fmt.Fprintf(w, "  Path: %s\n", dir)
		fmt.Fprintf(w, "  Size on disk: %s\n", humanize.Bytes(uint64(size)))
	}
	for _, name := range db.CollectionNames() {
		c, ok := db.Collection(name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s: %s documents\n", name, humanize.Comma(int64(c.Count())))
		for _, ix := range c.Indexes() {
			st := ix.Stats()
			fmt.Fprintf(w, "    %s: %s keys\n", ix, humanize.Comma(int64(st.Keys)))
		}
	}
	return nil
}

func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

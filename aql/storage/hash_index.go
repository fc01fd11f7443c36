package storage

import (
	"bytes"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/wbrown/janus-aql/aql"
)

// IndexID identifies an index within a database. IDs increase with creation
// time, so comparing IDs compares creation order.
type IndexID uint64

// IndexStats summarizes the contents of a hash index.
type IndexStats struct {
	Keys      int // distinct key tuples
	Documents int // indexed documents
}

// HashIndex maps the tuple of values at its field paths to the identifiers
// of every document holding that tuple. Missing fields key as null, so every
// document of the collection appears under exactly one key.
type HashIndex struct {
	id     IndexID
	fields []aql.Path
	unique bool

	mu      sync.RWMutex
	buckets map[uint64][]*indexEntry
	stats   IndexStats
}

// indexEntry holds one key tuple. Entries sharing a bucket are told apart
// by comparing the encoded key bytes.
type indexEntry struct {
	key []byte
	ids []aql.DocumentID
}

func newHashIndex(id IndexID, fields []aql.Path, unique bool) *HashIndex {
	cp := make([]aql.Path, len(fields))
	for i, f := range fields {
		cp[i] = append(aql.Path(nil), f...)
	}
	return &HashIndex{
		id:      id,
		fields:  cp,
		unique:  unique,
		buckets: make(map[uint64][]*indexEntry),
	}
}

func (ix *HashIndex) ID() IndexID { return ix.id }

// Fields returns the ordered field paths of the index.
func (ix *HashIndex) Fields() []aql.Path {
	out := make([]aql.Path, len(ix.fields))
	copy(out, ix.fields)
	return out
}

func (ix *HashIndex) Unique() bool { return ix.unique }

// Type returns the index type name.
func (ix *HashIndex) Type() string { return "hash" }

func (ix *HashIndex) String() string {
	names := make([]string, len(ix.fields))
	for i, f := range ix.fields {
		names[i] = f.String()
	}
	prefix := "hash"
	if ix.unique {
		prefix = "unique hash"
	}
	return prefix + "(" + strings.Join(names, ", ") + ")"
}

// Stats returns key and document counts.
func (ix *HashIndex) Stats() IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.stats
}

// Lookup returns the identifiers of documents whose indexed fields equal key,
// in insertion order. A key of the wrong arity or an absent key yields an
// empty result.
func (ix *HashIndex) Lookup(key []aql.Value) []aql.DocumentID {
	if len(key) != len(ix.fields) {
		return nil
	}
	encoded := aql.AppendKeyTuple(nil, key)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entry := ix.find(xxhash.Sum64(encoded), encoded)
	if entry == nil {
		return nil
	}
	out := make([]aql.DocumentID, len(entry.ids))
	copy(out, entry.ids)
	return out
}

// encodeDocument computes the key of doc for this index.
func (ix *HashIndex) encodeDocument(doc aql.Value) []byte {
	var buf []byte
	for _, f := range ix.fields {
		buf = aql.AppendKey(buf, doc.GetPath(f))
	}
	return buf
}

func (ix *HashIndex) find(hash uint64, key []byte) *indexEntry {
	for _, e := range ix.buckets[hash] {
		if bytes.Equal(e.key, key) {
			return e
		}
	}
	return nil
}

// contains reports whether some document already has key.
func (ix *HashIndex) contains(key []byte) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.find(xxhash.Sum64(key), key) != nil
}

// insert adds id under key. Callers enforce uniqueness beforehand.
func (ix *HashIndex) insert(key []byte, id aql.DocumentID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	hash := xxhash.Sum64(key)
	if e := ix.find(hash, key); e != nil {
		e.ids = append(e.ids, id)
	} else {
		ix.buckets[hash] = append(ix.buckets[hash], &indexEntry{key: key, ids: []aql.DocumentID{id}})
		ix.stats.Keys++
	}
	ix.stats.Documents++
}

// covers reports whether the index is defined on exactly fields.
func (ix *HashIndex) covers(fields []aql.Path) bool {
	if len(fields) != len(ix.fields) {
		return false
	}
	for i := range fields {
		if !fields[i].Equal(ix.fields[i]) {
			return false
		}
	}
	return true
}

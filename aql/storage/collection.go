package storage

import (
	"fmt"
	"sync"

	"github.com/wbrown/janus-aql/aql"
)

// Collection is a named set of documents with zero or more hash indexes.
// Documents are append-only; identifiers are assigned sequentially from 1.
type Collection struct {
	name string
	db   *Database

	mu      sync.RWMutex
	docs    []aql.Document
	indexes []*HashIndex
}

func newCollection(db *Database, name string) *Collection {
	return &Collection{name: name, db: db}
}

func (c *Collection) Name() string { return c.name }

// Count returns the number of documents.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Document returns the document with the given identifier.
func (c *Collection) Document(id aql.DocumentID) (aql.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id == 0 || int(id) > len(c.docs) {
		return aql.Document{}, false
	}
	return c.docs[id-1], true
}

// Snapshot returns the documents present now, in insertion order. Documents
// inserted later are not visible through the returned slice.
func (c *Collection) Snapshot() []aql.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs[:len(c.docs):len(c.docs)]
}

// Indexes returns the collection's indexes in creation order.
func (c *Collection) Indexes() []*HashIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*HashIndex, len(c.indexes))
	copy(out, c.indexes)
	return out
}

// Index returns the index with the given identifier.
func (c *Collection) Index(id IndexID) (*HashIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ix := range c.indexes {
		if ix.id == id {
			return ix, true
		}
	}
	return nil, false
}

// Insert stores an object value and returns its identifier. The system
// attributes _key and _id are set from the identifier, replacing any values
// the caller supplied. Every index is updated; if a unique index rejects the
// document nothing is stored.
func (c *Collection) Insert(v aql.Value) (aql.DocumentID, error) {
	if v.Kind() != aql.KindObject {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidDocument, v.Kind())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := aql.DocumentID(len(c.docs) + 1)
	value := v.With(aql.KeyAttribute, aql.String(id.String()))
	value = value.With(aql.IDAttribute, aql.String(c.name+"/"+id.String()))
	doc := aql.Document{ID: id, Value: value}

	keys := make([][]byte, len(c.indexes))
	for i, ix := range c.indexes {
		keys[i] = ix.encodeDocument(doc.Value)
		if ix.unique && ix.contains(keys[i]) {
			return 0, fmt.Errorf("%w: %s on %s", ErrUniqueConstraint, ix, c.name)
		}
	}

	if store := c.db.store; store != nil {
		if err := store.PutDocument(c.name, doc); err != nil {
			return 0, fmt.Errorf("failed to persist document: %w", err)
		}
	}

	c.applyInsert(doc, keys)
	return id, nil
}

// InsertMany inserts values in order, stopping at the first error.
func (c *Collection) InsertMany(values []aql.Value) ([]aql.DocumentID, error) {
	ids := make([]aql.DocumentID, 0, len(values))
	for _, v := range values {
		id, err := c.Insert(v)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Collection) applyInsert(doc aql.Document, keys [][]byte) {
	c.docs = append(c.docs, doc)
	for i, ix := range c.indexes {
		ix.insert(keys[i], doc.ID)
	}
}

// CreateIndex builds a new hash index over fields, indexing every existing
// document before returning.
func (c *Collection) CreateIndex(fields []aql.Path, unique bool) (*HashIndex, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ix, err := c.buildIndex(c.db.allocIndexID(), fields, unique)
	if err != nil {
		return nil, err
	}

	if store := c.db.store; store != nil {
		if err := store.PutIndex(c.name, indexDefinition(ix)); err != nil {
			return nil, fmt.Errorf("failed to persist index: %w", err)
		}
	}

	c.indexes = append(c.indexes, ix)
	c.db.bumpVersion()
	return ix, nil
}

// EnsureHashIndex returns the existing index with the same fields and
// uniqueness, or creates one. created reports which happened.
func (c *Collection) EnsureHashIndex(unique bool, fields ...aql.Path) (ix *HashIndex, created bool, err error) {
	c.mu.RLock()
	for _, existing := range c.indexes {
		if existing.unique == unique && existing.covers(fields) {
			c.mu.RUnlock()
			return existing, false, nil
		}
	}
	c.mu.RUnlock()

	ix, err = c.CreateIndex(fields, unique)
	if err != nil {
		return nil, false, err
	}
	return ix, true, nil
}

// DropIndex removes the index with the given identifier.
func (c *Collection) DropIndex(id IndexID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, ix := range c.indexes {
		if ix.id != id {
			continue
		}
		if store := c.db.store; store != nil {
			if err := store.DeleteIndex(c.name, id); err != nil {
				return fmt.Errorf("failed to drop index: %w", err)
			}
		}
		c.indexes = append(c.indexes[:i:i], c.indexes[i+1:]...)
		c.db.bumpVersion()
		return nil
	}
	return fmt.Errorf("%w: %d on %s", ErrIndexNotFound, id, c.name)
}

// buildIndex creates an index and fills it from the current documents.
// Callers hold c.mu.
func (c *Collection) buildIndex(id IndexID, fields []aql.Path, unique bool) (*HashIndex, error) {
	ix := newHashIndex(id, fields, unique)
	for _, doc := range c.docs {
		key := ix.encodeDocument(doc.Value)
		if unique && ix.contains(key) {
			return nil, fmt.Errorf("%w: %s on %s, document %s", ErrUniqueConstraint, ix, c.name, doc.ID)
		}
		ix.insert(key, doc.ID)
	}
	return ix, nil
}

func validateFields(fields []aql.Path) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidIndex)
	}
	for i, f := range fields {
		if len(f) == 0 {
			return fmt.Errorf("%w: empty field path", ErrInvalidIndex)
		}
		for _, name := range f {
			if name == "" {
				return fmt.Errorf("%w: empty attribute in %q", ErrInvalidIndex, f.String())
			}
		}
		for _, prev := range fields[:i] {
			if prev.Equal(f) {
				return fmt.Errorf("%w: duplicate field %s", ErrInvalidIndex, f)
			}
		}
	}
	return nil
}

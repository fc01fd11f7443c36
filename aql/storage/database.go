package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/wbrown/janus-aql/aql"
)

// Database owns a set of named collections. It replaces any process-wide
// collection registry: planners and executors receive the Database they work
// against explicitly.
type Database struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	store       *BadgerStore
	log         logrus.FieldLogger

	nextIndexID atomic.Uint64
	version     atomic.Uint64
}

// NewDatabase creates an empty in-memory database.
func NewDatabase() *Database {
	return newDatabase(nil, discardLogger())
}

func newDatabase(store *BadgerStore, log logrus.FieldLogger) *Database {
	return &Database{
		collections: make(map[string]*Collection),
		store:       store,
		log:         log,
	}
}

// Open opens (or creates) a badger-backed database at path and reloads its
// collections, rebuilding every index.
func Open(path string, opts Options) (*Database, error) {
	log := opts.logger()

	store, err := NewBadgerStore(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	states, seq, err := store.Load()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load database: %w", err)
	}

	db := newDatabase(store, log)
	db.nextIndexID.Store(uint64(seq))
	docs, indexes := 0, 0
	for _, st := range states {
		c := newCollection(db, st.Name)
		for _, doc := range st.Documents {
			if int(doc.ID) != len(c.docs)+1 {
				store.Close()
				return nil, fmt.Errorf("%w: collection %s has document %s at position %d",
					ErrCorruptStore, st.Name, doc.ID, len(c.docs)+1)
			}
			c.docs = append(c.docs, doc)
		}
		for _, def := range st.Indexes {
			ix, err := c.buildIndex(def.ID, def.paths(), def.Unique)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("%w: rebuilding index %d: %v", ErrCorruptStore, def.ID, err)
			}
			c.indexes = append(c.indexes, ix)
			if uint64(def.ID) > db.nextIndexID.Load() {
				db.nextIndexID.Store(uint64(def.ID))
			}
		}
		db.collections[st.Name] = c
		docs += len(c.docs)
		indexes += len(c.indexes)
	}

	log.WithFields(logrus.Fields{
		"path":        path,
		"collections": len(states),
		"documents":   docs,
		"indexes":     indexes,
	}).Info("database opened")

	return db, nil
}

// Close releases the underlying store, if any.
func (d *Database) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

// Persistent reports whether the database is backed by a store.
func (d *Database) Persistent() bool {
	return d.store != nil
}

// CreateCollection adds an empty collection.
func (d *Database) CreateCollection(name string) (*Collection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.collections[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	if d.store != nil {
		if err := d.store.PutCollection(name); err != nil {
			return nil, fmt.Errorf("failed to persist collection: %w", err)
		}
	}

	c := newCollection(d, name)
	d.collections[name] = c
	d.bumpVersion()
	d.log.WithField("collection", name).Debug("collection created")
	return c, nil
}

// Collection returns the named collection.
func (d *Database) Collection(name string) (*Collection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.collections[name]
	return c, ok
}

// DropCollection removes a collection together with its documents and
// indexes.
func (d *Database) DropCollection(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if d.store != nil {
		if err := d.store.DeleteCollection(name); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	delete(d.collections, name)
	d.bumpVersion()
	return nil
}

// CollectionNames returns the collection names in sorted order.
func (d *Database) CollectionNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.collections))
	for name := range d.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Version changes whenever a collection or index is created or dropped.
// Plans compiled at one version stay valid until it changes.
func (d *Database) Version() uint64 {
	return d.version.Load()
}

func (d *Database) bumpVersion() {
	d.version.Add(1)
}

func (d *Database) allocIndexID() IndexID {
	return IndexID(d.nextIndexID.Add(1))
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadValues creates collection name if needed and inserts values.
func (d *Database) LoadValues(name string, values []aql.Value) (*Collection, error) {
	c, ok := d.Collection(name)
	if !ok {
		var err error
		if c, err = d.CreateCollection(name); err != nil {
			return nil, err
		}
	}
	if _, err := c.InsertMany(values); err != nil {
		return c, err
	}
	return c, nil
}

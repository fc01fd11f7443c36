package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/wbrown/janus-aql/aql"
)

// Key layout:
//
//	c/<collection>                 collection marker
//	d/<collection>/<id, 8 bytes BE> document JSON
//	i/<collection>/<id, 8 bytes BE> index definition JSON
//	m/index-seq                     last allocated index ID, 8 bytes BE
//
// Collection names never contain '/', so prefixes do not overlap.
const (
	collectionPrefix = "c/"
	documentPrefix   = "d/"
	indexPrefix      = "i/"
	indexSeqKey      = "m/index-seq"
)

// IndexDefinition is the persisted form of a hash index.
type IndexDefinition struct {
	ID     IndexID    `json:"id"`
	Type   string     `json:"type"`
	Fields [][]string `json:"fields"`
	Unique bool       `json:"unique"`
}

func indexDefinition(ix *HashIndex) IndexDefinition {
	fields := make([][]string, len(ix.fields))
	for i, f := range ix.fields {
		fields[i] = []string(f)
	}
	return IndexDefinition{ID: ix.id, Type: ix.Type(), Fields: fields, Unique: ix.unique}
}

func (d IndexDefinition) paths() []aql.Path {
	out := make([]aql.Path, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = aql.Path(f)
	}
	return out
}

// collectionState is one collection as read back from the store.
type collectionState struct {
	Name      string
	Documents []aql.Document
	Indexes   []IndexDefinition
}

// BadgerStore persists collections, documents and index definitions in
// BadgerDB. Indexes themselves are rebuilt in memory on load.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a BadgerDB at path.
func NewBadgerStore(path string, opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // badger is silent unless a logger is configured
	if opts.Logger != nil {
		bopts.Logger = opts.Logger.WithField("component", "badger")
	}
	bopts.SyncWrites = opts.SyncWrites
	bopts.ValueThreshold = 1 << 10

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func collectionKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

func idKey(prefix, name string, id uint64) []byte {
	key := make([]byte, 0, len(prefix)+len(name)+9)
	key = append(key, prefix...)
	key = append(key, name...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint64(key, id)
}

func scopedPrefix(prefix, name string) []byte {
	return []byte(prefix + name + "/")
}

// PutCollection records that a collection exists.
func (s *BadgerStore) PutCollection(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(collectionKey(name), []byte(name))
	})
}

// DeleteCollection removes a collection and everything stored under it.
func (s *BadgerStore) DeleteCollection(name string) error {
	if err := s.db.DropPrefix(scopedPrefix(documentPrefix, name), scopedPrefix(indexPrefix, name)); err != nil {
		return fmt.Errorf("failed to drop collection data: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(collectionKey(name))
	})
}

// PutDocument writes a document.
func (s *BadgerStore) PutDocument(collection string, doc aql.Document) error {
	value, err := doc.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(idKey(documentPrefix, collection, uint64(doc.ID)), value)
	})
}

// PutIndex writes an index definition.
func (s *BadgerStore) PutIndex(collection string, def IndexDefinition) error {
	value, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode index definition: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(idKey(indexPrefix, collection, uint64(def.ID)), value); err != nil {
			return err
		}
		return txn.Set([]byte(indexSeqKey), binary.BigEndian.AppendUint64(nil, uint64(def.ID)))
	})
}

// DeleteIndex removes an index definition.
func (s *BadgerStore) DeleteIndex(collection string, id IndexID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(idKey(indexPrefix, collection, uint64(id)))
	})
}

// Load reads every collection with its documents (in identifier order) and
// index definitions (in creation order), plus the last allocated index ID.
func (s *BadgerStore) Load() ([]collectionState, IndexID, error) {
	var states []collectionState
	var seq IndexID

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexSeqKey))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("%w: index sequence", ErrCorruptStore)
				}
				seq = IndexID(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		var names []string
		if err := scanPrefix(txn, []byte(collectionPrefix), func(key, _ []byte) error {
			names = append(names, string(key[len(collectionPrefix):]))
			return nil
		}); err != nil {
			return err
		}

		for _, name := range names {
			st := collectionState{Name: name}

			err := scanPrefix(txn, scopedPrefix(documentPrefix, name), func(key, val []byte) error {
				id, err := trailingID(key)
				if err != nil {
					return err
				}
				v, err := aql.ParseJSONObject(val)
				if err != nil {
					return fmt.Errorf("%w: document %d of %s: %v", ErrCorruptStore, id, name, err)
				}
				st.Documents = append(st.Documents, aql.Document{ID: aql.DocumentID(id), Value: v})
				return nil
			})
			if err != nil {
				return err
			}

			err = scanPrefix(txn, scopedPrefix(indexPrefix, name), func(key, val []byte) error {
				var def IndexDefinition
				if err := json.Unmarshal(val, &def); err != nil {
					return fmt.Errorf("%w: index of %s: %v", ErrCorruptStore, name, err)
				}
				st.Indexes = append(st.Indexes, def)
				return nil
			})
			if err != nil {
				return err
			}

			states = append(states, st)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return states, seq, nil
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

func trailingID(key []byte) (uint64, error) {
	if len(key) < 8 {
		return 0, fmt.Errorf("%w: short key %q", ErrCorruptStore, key)
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), nil
}

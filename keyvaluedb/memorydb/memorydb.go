package memorydb

import (
	"bytes"
	"sync"

	"github.com/alphabill-org/resource-billing/keyvaluedb"
)

// MemoryDB is map backed key-value DB, meant to be used in tests.
type MemoryDB struct {
	db        map[string][]byte
	commitErr error
	lock      sync.RWMutex
}

func New() *MemoryDB {
	return &MemoryDB{db: make(map[string][]byte)}
}

// MockCommitError makes all subsequent commits fail with given error, nil
// restores normal behavior.
func (db *MemoryDB) MockCommitError(err error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.commitErr = err
}

func (db *MemoryDB) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if err := keyvaluedb.CheckKey(key); err != nil {
		return nil, err
	}
	return bytes.Clone(db.db[string(key)]), nil
}

// Commit applies the batch to a copy of the records, the copy replaces the
// current records only when all the changes succeed.
func (db *MemoryDB) Commit(b *keyvaluedb.Batch) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.commitErr != nil {
		return db.commitErr
	}
	records := make(map[string][]byte, len(db.db)+b.Len())
	for k, v := range db.db {
		records[k] = v
	}
	if err := b.ForEach(func(key, value []byte) error {
		if value == nil {
			delete(records, string(key))
		} else {
			records[string(key)] = bytes.Clone(value)
		}
		return nil
	}); err != nil {
		return err
	}
	db.db = records
	return nil
}

func (db *MemoryDB) First() keyvaluedb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	it := newIterator(db.db)
	it.first()
	return it
}

func (db *MemoryDB) Find(key []byte) keyvaluedb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	it := newIterator(db.db)
	it.seek(key)
	return it
}

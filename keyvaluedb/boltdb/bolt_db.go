package boltdb

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/alphabill-org/resource-billing/keyvaluedb"
)

// all the billing records are kept in a single bucket, keys carry the record
// type prefix (see state/store)
var recordsBucket = []byte("records")

// BoltDB is the persistent backend of the billing state.
type BoltDB struct {
	db *bolt.DB
}

// New opens (creating when it doesn't exist) Bolt DB file.
func New(dbFile string) (*BoltDB, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %q: %w", dbFile, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating records bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

func (db *BoltDB) Path() string {
	return db.db.Path()
}

func (db *BoltDB) Get(key []byte) ([]byte, error) {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := db.db.View(func(tx *bolt.Tx) error {
		// value returned by Get is only valid for the life of the tx
		data = bytes.Clone(tx.Bucket(recordsBucket).Get(key))
		return nil
	})
	return data, err
}

/*
Commit writes the batch in a single bolt transaction, either all the changes
are persisted or none of them.
*/
func (db *BoltDB) Commit(b *keyvaluedb.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	err := db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		return b.ForEach(func(key, value []byte) error {
			if value == nil {
				return bucket.Delete(key)
			}
			return bucket.Put(key, value)
		})
	})
	if err != nil {
		return fmt.Errorf("bolt db commit failed: %w", err)
	}
	return nil
}

func (db *BoltDB) First() keyvaluedb.Iterator {
	it := newIterator(db.db)
	it.first()
	return it
}

func (db *BoltDB) Find(key []byte) keyvaluedb.Iterator {
	it := newIterator(db.db)
	it.seek(key)
	return it
}

func (db *BoltDB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

/*
Package keyvaluedb defines the persistent store the committed billing state
(accounts, assets, contracts and dynamic properties) is flushed to.

The store deals in raw record bytes, encoding is the business of the state
layer. Records are only ever changed in batches, one batch per committed
block, so a crash leaves the store at a block boundary.
*/
package keyvaluedb

import (
	"bytes"
	"errors"
)

var ErrInvalidKey = errors.New("invalid key")

type (
	Reader interface {
		// Get returns the record stored under key, nil when key is not present.
		Get(key []byte) ([]byte, error)
	}

	// Iteratee returns forward iterators over the keys in byte order.
	Iteratee interface {
		// First returns iterator positioned at the first item. Iterator over
		// an empty DB is not valid.
		First() Iterator
		// Find returns iterator positioned at the first key >= "key".
		Find(key []byte) Iterator
	}

	KeyValueDB interface {
		Reader
		Iteratee
		// Commit applies all the changes of the batch atomically.
		Commit(b *Batch) error
	}

	Iterator interface {
		Next()
		Valid() bool
		// Key returns the key of the current item, nil when iterator is not valid.
		Key() []byte
		// Value returns the record of the current item, nil when iterator is not valid.
		Value() []byte
		Close() error
	}
)

// IsEmpty returns true when there are no items in the DB.
func IsEmpty(db Iteratee) (bool, error) {
	if db == nil {
		return true, errors.New("db is nil")
	}
	it := db.First()
	defer func() { _ = it.Close() }()
	return !it.Valid(), nil
}

/*
ForEachWithPrefix calls "fn" for every item whose key starts with "prefix",
iteration stops at first error returned by "fn".
*/
func ForEachWithPrefix(db Iteratee, prefix []byte, fn func(key, value []byte) error) error {
	it := db.Find(prefix)
	defer func() { _ = it.Close() }()
	for ; it.Valid() && bytes.HasPrefix(it.Key(), prefix); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}

func CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrInvalidKey
	}
	return nil
}

package boltdb

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

/*
itr holds read-only bolt transaction open until Close is called (or the
iterator runs past the last item), so writes to the DB from the same goroutine
must not happen while iterator is open.
*/
type itr struct {
	tx     *bolt.Tx
	cursor *bolt.Cursor
	key    []byte
	value  []byte
}

func newIterator(db *bolt.DB) *itr {
	tx, err := db.Begin(false)
	if err != nil {
		return &itr{}
	}
	return &itr{tx: tx, cursor: tx.Bucket(recordsBucket).Cursor()}
}

func (it *itr) first() {
	if it.cursor == nil {
		return
	}
	it.set(it.cursor.First())
}

func (it *itr) seek(key []byte) {
	if it.cursor == nil {
		return
	}
	it.set(it.cursor.Seek(key))
}

func (it *itr) set(k, v []byte) {
	if k == nil {
		it.key, it.value = nil, nil
		_ = it.Close()
		return
	}
	// cursor data is only valid during the tx
	it.key, it.value = bytes.Clone(k), bytes.Clone(v)
}

func (it *itr) Next() {
	if !it.Valid() {
		return
	}
	it.set(it.cursor.Next())
}

func (it *itr) Valid() bool {
	return it.key != nil
}

func (it *itr) Key() []byte {
	return it.key
}

func (it *itr) Value() []byte {
	return it.value
}

func (it *itr) Close() error {
	if it.tx == nil {
		return nil
	}
	tx := it.tx
	it.tx, it.cursor, it.key, it.value = nil, nil, nil, nil
	return tx.Rollback()
}

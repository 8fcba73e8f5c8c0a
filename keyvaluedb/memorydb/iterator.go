package memorydb

import (
	"bytes"
	"sort"
)

// itr iterates over snapshot of the DB taken when the iterator was created.
type itr struct {
	keys   [][]byte
	values [][]byte
	index  int
}

func newIterator(db map[string][]byte) *itr {
	keys := make([][]byte, 0, len(db))
	for k := range db {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = db[string(k)]
	}
	return &itr{keys: keys, values: values, index: -1}
}

func (it *itr) first() {
	if len(it.keys) > 0 {
		it.index = 0
	}
}

func (it *itr) seek(key []byte) {
	it.index = sort.Search(len(it.keys), func(i int) bool { return bytes.Compare(it.keys[i], key) >= 0 })
	if it.index >= len(it.keys) {
		it.index = -1
	}
}

func (it *itr) Next() {
	if !it.Valid() {
		return
	}
	if it.index++; it.index >= len(it.keys) {
		it.index = -1
	}
}

func (it *itr) Valid() bool {
	return it.index >= 0
}

func (it *itr) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.keys[it.index]
}

func (it *itr) Value() []byte {
	if !it.Valid() {
		return nil
	}
	return it.values[it.index]
}

func (it *itr) Close() error {
	it.index = -1
	return nil
}

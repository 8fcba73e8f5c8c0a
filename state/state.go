package state

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/alphabill-org/resource-billing/keyvaluedb"
	"github.com/alphabill-org/resource-billing/types"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValueIsNil = errors.New("value is nil")
)

type (
	/*
	State is the record store the billing engine reads and writes through.

	Committed records live in the key-value DB. Changes are collected into
	savepoints which are kept in memory until Commit writes them into the DB
	as a single DB transaction. Savepoint method adds a marker to the state
	which allows all the changes made after it to be rolled back (transaction
	level snapshot), Revert discards all the uncommitted changes (block
	rollback).
	*/
	State struct {
		mutex sync.RWMutex
		db    keyvaluedb.KeyValueDB

		// savepoints[0] holds the changes of the current block
		savepoints []changeset
	}

	// changeset maps key to the encoded record, nil value marks deleted record.
	changeset map[string][]byte

	// Reader gives read access to the latest (uncommitted) view of the state.
	Reader interface {
		Get(key []byte, v any) (bool, error)
		Has(key []byte) (bool, error)
	}

	// Writer is the view of the state actions operate on.
	Writer interface {
		Reader
		Set(key []byte, v any) error
		Delete(key []byte) error
	}
)

func New(db keyvaluedb.KeyValueDB) (*State, error) {
	if db == nil {
		return nil, errors.New("key-value db is nil")
	}
	return &State{db: db, savepoints: []changeset{{}}}, nil
}

// Get decodes the latest version of the record into "v", returns false when
// record doesn't exist.
func (s *State) Get(key []byte, v any) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.get(key, v)
}

func (s *State) Has(key []byte) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	data, err := s.getRaw(key)
	return data != nil, err
}

/*
Apply executes the actions as a single atomic operation. If any of the actions
returns an error all the changes made by previous actions are reverted.
*/
func (s *State) Apply(actions ...Action) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.createSavepoint()
	w := &writer{s: s}
	for _, action := range actions {
		if err := action(w); err != nil {
			s.rollbackToSavepoint(id)
			return err
		}
	}
	s.releaseToSavepoint(id)
	return nil
}

/*
Savepoint creates a new savepoint and returns its id. Use RollbackToSavepoint
to discard all the changes made after calling Savepoint, ReleaseToSavepoint to
keep them.
*/
func (s *State) Savepoint() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.createSavepoint()
}

// RollbackToSavepoint destroys savepoint "id" and all the savepoints created
// after it without keeping the changes.
func (s *State) RollbackToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rollbackToSavepoint(id)
}

// ReleaseToSavepoint destroys savepoint "id" and all the savepoints created
// after it, keeping the changes. Invalid id is ignored.
func (s *State) ReleaseToSavepoint(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.releaseToSavepoint(id)
}

// Commit writes all the pending changes into the DB as a single batch.
func (s *State) Commit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.releaseToSavepoint(1)
	changes := s.savepoints[0]
	if len(changes) == 0 {
		return nil
	}
	batch := &keyvaluedb.Batch{}
	for _, k := range sortedKeys(changes) {
		var err error
		if data := changes[k]; data == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), data)
		}
		if err != nil {
			return fmt.Errorf("adding record %x to the batch: %w", k, err)
		}
	}
	if err := s.db.Commit(batch); err != nil {
		return fmt.Errorf("committing %d records: %w", batch.Len(), err)
	}
	s.savepoints = []changeset{{}}
	return nil
}

// Revert discards all the uncommitted changes.
func (s *State) Revert() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.savepoints = []changeset{{}}
}

// IsCommitted returns true when there are no uncommitted changes.
func (s *State) IsCommitted() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.savepoints) == 1 && len(s.savepoints[0]) == 0
}

/*
ForEachCommitted calls "fn" for every committed record with given key prefix,
"data" is the CBOR encoding of the record.
*/
func (s *State) ForEachCommitted(prefix []byte, fn func(key []byte, data types.RawCBOR) error) error {
	return keyvaluedb.ForEachWithPrefix(s.db, prefix, func(key, value []byte) error {
		return fn(key, value)
	})
}

func (s *State) get(key []byte, v any) (bool, error) {
	data, err := s.getRaw(key)
	if err != nil || data == nil {
		return false, err
	}
	if err := types.Cbor.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decoding record %x: %w", key, err)
	}
	return true, nil
}

func (s *State) getRaw(key []byte) ([]byte, error) {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return nil, err
	}
	for i := len(s.savepoints) - 1; i >= 0; i-- {
		if data, ok := s.savepoints[i][string(key)]; ok {
			return data, nil
		}
	}
	data, err := s.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("reading record %x: %w", key, err)
	}
	return data, nil
}

func (s *State) set(key []byte, v any) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	if isNil(v) {
		return fmt.Errorf("record %x: %w", key, ErrValueIsNil)
	}
	data, err := types.Cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %x: %w", key, err)
	}
	s.latestSavepoint()[string(key)] = data
	return nil
}

func (s *State) delete(key []byte) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	s.latestSavepoint()[string(key)] = nil
	return nil
}

func (s *State) latestSavepoint() changeset {
	return s.savepoints[len(s.savepoints)-1]
}

func (s *State) createSavepoint() int {
	s.savepoints = append(s.savepoints, changeset{})
	return len(s.savepoints) - 1
}

func (s *State) rollbackToSavepoint(id int) {
	if id < 1 || id >= len(s.savepoints) {
		// nothing to revert
		return
	}
	s.savepoints = s.savepoints[:id]
}

func (s *State) releaseToSavepoint(id int) {
	if id < 1 || id >= len(s.savepoints) {
		// nothing to release
		return
	}
	target := s.savepoints[id-1]
	for _, cs := range s.savepoints[id:] {
		for k, v := range cs {
			target[k] = v
		}
	}
	s.savepoints = s.savepoints[:id]
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func sortedKeys(cs changeset) []string {
	keys := make([]string, 0, len(cs))
	for k := range cs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writer gives actions access to the latest savepoint, State's mutex is held by Apply.
type writer struct {
	s *State
}

func (w *writer) Get(key []byte, v any) (bool, error) { return w.s.get(key, v) }

func (w *writer) Has(key []byte) (bool, error) {
	data, err := w.s.getRaw(key)
	return data != nil, err
}

func (w *writer) Set(key []byte, v any) error { return w.s.set(key, v) }

func (w *writer) Delete(key []byte) error { return w.s.delete(key) }

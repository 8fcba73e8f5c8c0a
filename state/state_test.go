package state

import (
	"errors"
	"testing"

	"github.com/alphabill-org/resource-billing/keyvaluedb"
	"github.com/alphabill-org/resource-billing/keyvaluedb/memorydb"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/stretchr/testify/require"
)

type testData struct {
	_     struct{} `cbor:",toarray"`
	Value uint64
}

func newTestState(t *testing.T) (*State, *memorydb.MemoryDB) {
	t.Helper()
	db := memorydb.New()
	s, err := New(db)
	require.NoError(t, err)
	return s, db
}

func getValue(t *testing.T, s *State, key string) (uint64, bool) {
	t.Helper()
	var d testData
	found, err := s.Get([]byte(key), &d)
	require.NoError(t, err)
	return d.Value, found
}

func requireValue(t *testing.T, s *State, key string, value uint64) {
	t.Helper()
	v, found := getValue(t, s, key)
	require.True(t, found, "record %q not found", key)
	require.Equal(t, value, v)
}

func requireNotFound(t *testing.T, s *State, key string) {
	t.Helper()
	_, found := getValue(t, s, key)
	require.False(t, found, "record %q exists", key)
}

func TestNew(t *testing.T) {
	s, err := New(nil)
	require.EqualError(t, err, "key-value db is nil")
	require.Nil(t, s)

	s, _ = newTestState(t)
	require.Len(t, s.savepoints, 1)
	require.True(t, s.IsCommitted())
}

func TestState_Savepoint(t *testing.T) {
	t.Run("release", func(t *testing.T) {
		s, _ := newTestState(t)
		id := s.Savepoint()
		require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 10})))
		s.ReleaseToSavepoint(id)
		requireValue(t, s, "a", 10)
		require.Len(t, s.savepoints, 1)
		require.False(t, s.IsCommitted())
	})

	t.Run("rollback", func(t *testing.T) {
		s, _ := newTestState(t)
		require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1})))
		id := s.Savepoint()
		require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 2}), Set([]byte("b"), &testData{Value: 2})))
		requireValue(t, s, "a", 2)
		s.RollbackToSavepoint(id)
		requireValue(t, s, "a", 1)
		requireNotFound(t, s, "b")
	})

	t.Run("invalid ids are ignored", func(t *testing.T) {
		s, _ := newTestState(t)
		require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1})))
		s.RollbackToSavepoint(0)
		s.RollbackToSavepoint(5)
		s.ReleaseToSavepoint(-1)
		requireValue(t, s, "a", 1)
	})
}

func TestState_NestedSavepoints(t *testing.T) {
	s, _ := newTestState(t)
	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1}), Set([]byte("b"), &testData{Value: 1})))
	require.NoError(t, s.Commit())

	id1 := s.Savepoint()
	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 2})))
	id2 := s.Savepoint()
	require.NoError(t, s.Apply(Delete([]byte("b")), Set([]byte("c"), &testData{Value: 3})))
	id3 := s.Savepoint()
	require.NoError(t, s.Apply(Set([]byte("b"), &testData{Value: 4})))
	requireValue(t, s, "b", 4)

	s.RollbackToSavepoint(id3)
	requireNotFound(t, s, "b")
	requireValue(t, s, "c", 3)

	s.ReleaseToSavepoint(id2)
	requireNotFound(t, s, "b")
	requireValue(t, s, "a", 2)

	s.RollbackToSavepoint(id1)
	requireValue(t, s, "a", 1)
	requireValue(t, s, "b", 1)
	requireNotFound(t, s, "c")
	require.True(t, s.IsCommitted())
}

func TestState_Apply_RevertsChangesAfterActionReturnsError(t *testing.T) {
	s, _ := newTestState(t)
	expErr := errors.New("boom")
	err := s.Apply(
		Set([]byte("a"), &testData{Value: 1}),
		func(w Writer) error { return expErr },
	)
	require.ErrorIs(t, err, expErr)
	requireNotFound(t, s, "a")
	require.True(t, s.IsCommitted())
}

func TestState_CommitAndRevert(t *testing.T) {
	s, db := newTestState(t)
	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1}), Set([]byte("b"), &testData{Value: 2})))
	// not in db before commit
	data, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, data)

	// open savepoints are committed too
	s.Savepoint()
	require.NoError(t, s.Apply(Delete([]byte("b"))))
	require.NoError(t, s.Commit())
	require.True(t, s.IsCommitted())
	data, err = db.Get([]byte("a"))
	require.NoError(t, err)
	var d testData
	require.NoError(t, types.Cbor.Unmarshal(data, &d))
	require.EqualValues(t, 1, d.Value)
	data, err = db.Get([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 5})))
	requireValue(t, s, "a", 5)
	s.Revert()
	requireValue(t, s, "a", 1)

	// state created over existing db sees committed records
	s2, err := New(db)
	require.NoError(t, err)
	requireValue(t, s2, "a", 1)

	// empty commit is no-op
	require.NoError(t, s.Commit())
}

func TestState_CommitFailure(t *testing.T) {
	s, db := newTestState(t)
	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1})))
	db.MockCommitError(errors.New("disk full"))
	require.ErrorContains(t, s.Commit(), "disk full")
	// changes are kept when commit fails
	requireValue(t, s, "a", 1)
	db.MockCommitError(nil)
	require.NoError(t, s.Commit())
	requireValue(t, s, "a", 1)
}

func TestState_Has(t *testing.T) {
	s, _ := newTestState(t)
	has, err := s.Has([]byte("a"))
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, s.Apply(Set([]byte("a"), &testData{Value: 1})))
	has, err = s.Has([]byte("a"))
	require.NoError(t, err)
	require.True(t, has)

	_, err = s.Has(nil)
	require.ErrorIs(t, err, keyvaluedb.ErrInvalidKey)
}

func TestState_SetNil(t *testing.T) {
	s, _ := newTestState(t)
	var d *testData
	require.ErrorIs(t, s.Apply(Set([]byte("a"), d)), ErrValueIsNil)
	require.ErrorIs(t, s.Apply(Set([]byte("a"), nil)), ErrValueIsNil)
	require.ErrorIs(t, s.Apply(Set(nil, &testData{})), keyvaluedb.ErrInvalidKey)
	require.True(t, s.IsCommitted())
}

func TestState_ForEachCommitted(t *testing.T) {
	s, _ := newTestState(t)
	require.NoError(t, s.Apply(
		Set([]byte("acc/1"), &testData{Value: 1}),
		Set([]byte("acc/2"), &testData{Value: 2}),
		Set([]byte("dp/x"), &testData{Value: 3}),
	))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Apply(Set([]byte("acc/3"), &testData{Value: 3})))

	var sum uint64
	require.NoError(t, s.ForEachCommitted([]byte("acc/"), func(key []byte, data types.RawCBOR) error {
		var d testData
		if err := types.Cbor.Unmarshal(data, &d); err != nil {
			return err
		}
		sum += d.Value
		return nil
	}))
	require.EqualValues(t, 3, sum)
}

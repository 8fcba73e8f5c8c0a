package state

import (
	"errors"
	"fmt"
)

// Action is a change of the state, applied with State.Apply.
type Action func(w Writer) error

// Set stores "v" as the new version of the record.
func Set(key []byte, v any) Action {
	return func(w Writer) error {
		return w.Set(key, v)
	}
}

// Add stores new record, fails when the record already exists.
func Add(key []byte, v any) Action {
	return func(w Writer) error {
		exists, err := w.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("record %x already exists", key)
		}
		return w.Set(key, v)
	}
}

func Delete(key []byte) Action {
	return func(w Writer) error {
		return w.Delete(key)
	}
}

/*
Update reads the record, calls "f" to modify it and stores the result. Returns
ErrNotFound when the record doesn't exist.
*/
func Update[T any](key []byte, f func(v *T) error) Action {
	return func(w Writer) error {
		if f == nil {
			return errors.New("update function is nil")
		}
		v := new(T)
		found, err := w.Get(key, v)
		if err != nil {
			return fmt.Errorf("reading record: %w", err)
		}
		if !found {
			return fmt.Errorf("record %x: %w", key, ErrNotFound)
		}
		if err := f(v); err != nil {
			return fmt.Errorf("updating record %x: %w", key, err)
		}
		return w.Set(key, v)
	}
}

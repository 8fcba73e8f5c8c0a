package keyvaluedb

import "fmt"

/*
Batch is the ordered list of record changes written by one state commit.
Change with nil value deletes the record.
*/
type Batch struct {
	keys   [][]byte
	values [][]byte
}

// Put adds record write to the batch, empty record is not allowed (use Delete).
func (b *Batch) Put(key, value []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if len(value) == 0 {
		return fmt.Errorf("record %x has empty value", key)
	}
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	b.keys = append(b.keys, key)
	b.values = append(b.values, nil)
	return nil
}

// Len returns the count of the changes in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

/*
ForEach calls "fn" for every change in the order the changes were added,
"value" is nil for deleted records. Iteration stops at first error.
*/
func (b *Batch) ForEach(fn func(key, value []byte) error) error {
	for i := 0; i < b.Len(); i++ {
		if err := fn(b.keys[i], b.values[i]); err != nil {
			return err
		}
	}
	return nil
}

package runtime

import (
	"errors"

	"github.com/alphabill-org/resource-billing/state/store"
)

var errDepositClosed = errors.New("deposit is closed")

type (
	// Savepointer is the part of the state used to scope the changes of the execution.
	Savepointer interface {
		Savepoint() int
		RollbackToSavepoint(id int)
		ReleaseToSavepoint(id int)
	}

	/*
	Deposit collects the changes made by single execution. Changes are made
	through the Store as usual, they become part of the block changes when
	the deposit is committed and disappear when it's discarded.
	*/
	Deposit struct {
		*store.Store
		state Savepointer
		id    int
		open  bool
	}
)

func OpenDeposit(s Savepointer, st *store.Store) *Deposit {
	return &Deposit{Store: st, state: s, id: s.Savepoint(), open: true}
}

// Commit keeps the changes made after the deposit was opened.
func (d *Deposit) Commit() error {
	if !d.open {
		return errDepositClosed
	}
	d.open = false
	d.state.ReleaseToSavepoint(d.id)
	return nil
}

// Discard drops all the changes made after the deposit was opened.
func (d *Deposit) Discard() error {
	if !d.open {
		return errDepositClosed
	}
	d.open = false
	d.state.RollbackToSavepoint(d.id)
	return nil
}

func (d *Deposit) IsOpen() bool {
	return d.open
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/alphabill-org/resource-billing/keyvaluedb/boltdb"
	"github.com/alphabill-org/resource-billing/state"
	"github.com/alphabill-org/resource-billing/txsystem"
)

// node is the state database of the home directory with the block processor on top of it.
type node struct {
	db    *boltdb.BoltDB
	state *state.State
	txs   *txsystem.TxSystem
}

// openNode opens the state created by the genesis command, the caller must close the node.
func openNode(base *baseConfiguration, opts ...txsystem.Option) (*node, error) {
	dbFile := base.stateDBFile()
	if _, err := os.Stat(dbFile); err != nil {
		return nil, fmt.Errorf("state database not found, run genesis command first: %w", err)
	}
	chainCfg, err := loadChainConfig(base.chainConfigFile())
	if err != nil {
		return nil, err
	}
	db, err := boltdb.New(dbFile)
	if err != nil {
		return nil, err
	}
	s, err := state.New(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	opts = append([]txsystem.Option{txsystem.WithChainConfig(chainCfg), txsystem.WithLogger(base.log)}, opts...)
	txs, err := txsystem.NewTxSystem(s, opts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating transaction system: %w", err), db.Close())
	}
	return &node{db: db, state: s, txs: txs}, nil
}

func (n *node) Close() error {
	return n.db.Close()
}

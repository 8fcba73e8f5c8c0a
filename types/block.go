package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// BlockHeader carries the block context transactions are executed in.
	BlockHeader struct {
		_          struct{} `cbor:",toarray"`
		Number     uint64
		Timestamp  uint64 // milliseconds
		ParentHash common.Hash
		Witness    Address
	}

	Block struct {
		_            struct{} `cbor:",toarray"`
		Header       *BlockHeader
		Transactions []*Transaction
	}
)

func (h *BlockHeader) Hash() (common.Hash, error) {
	b, err := Cbor.Marshal(h)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding block header: %w", err)
	}
	return crypto.Keccak256Hash(b), nil
}

// GetNumber returns the block number, zero for nil header.
func (h *BlockHeader) GetNumber() uint64 {
	if h == nil {
		return 0
	}
	return h.Number
}

func (b *Block) GetNumber() uint64 {
	if b == nil {
		return 0
	}
	return b.Header.GetNumber()
}

package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	TxSuccess TxCode = iota
	TxFailed
)

var errTransactionIsNil = errors.New("transaction is nil")

type (
	TxCode uint8

	Transaction struct {
		_          struct{} `cbor:",toarray"`
		RawData    *RawData
		Signatures [][]byte
		Ret        []*TransactionResult
	}

	RawData struct {
		_          struct{} `cbor:",toarray"`
		RefBlock   uint64
		Expiration uint64
		Timestamp  uint64
		FeeLimit   uint64
		Data       []byte
		Contracts  []*Contract
	}

	// TransactionResult is the per contract outcome attached to the transaction
	// by the block producer. Peers validating the block compare their own
	// execution result against ContractRet.
	TransactionResult struct {
		_           struct{} `cbor:",toarray"`
		Fee         uint64
		Ret         TxCode
		ContractRet ResultCode
	}
)

// ID returns the identifier of the transaction, hash of the raw data.
func (t *Transaction) ID() (common.Hash, error) {
	if t == nil || t.RawData == nil {
		return common.Hash{}, errTransactionIsNil
	}
	b, err := Cbor.Marshal(t.RawData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding raw data: %w", err)
	}
	return crypto.Keccak256Hash(b), nil
}

func (t *Transaction) Contracts() []*Contract {
	if t == nil || t.RawData == nil {
		return nil
	}
	return t.RawData.Contracts
}

// Contract returns the first contract of the transaction, nil when there is none.
func (t *Transaction) Contract() *Contract {
	if c := t.Contracts(); len(c) > 0 {
		return c[0]
	}
	return nil
}

func (t *Transaction) FeeLimit() uint64 {
	if t == nil || t.RawData == nil {
		return 0
	}
	return t.RawData.FeeLimit
}

// ContractRet returns the result code claimed by the block producer, ResultDefault
// when the transaction carries no result.
func (t *Transaction) ContractRet() ResultCode {
	if t == nil || len(t.Ret) == 0 || t.Ret[0] == nil {
		return ResultDefault
	}
	return t.Ret[0].ContractRet
}

// SetResult stores the execution outcome as the (single) result of the transaction.
func (t *Transaction) SetResult(fee uint64, code ResultCode) {
	ret := TxSuccess
	if code != ResultOK {
		ret = TxFailed
	}
	t.Ret = []*TransactionResult{{Fee: fee, Ret: ret, ContractRet: code}}
}

// Size returns the length of the canonical encoding of the transaction.
func (t *Transaction) Size() (int, error) {
	b, err := Cbor.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("encoding transaction: %w", err)
	}
	return len(b), nil
}

// SizeWithoutResults returns the length of the canonical encoding of the
// transaction with the results stripped, this is the size bandwidth is charged for.
func (t *Transaction) SizeWithoutResults() (int, error) {
	if t == nil {
		return 0, errTransactionIsNil
	}
	stripped := &Transaction{RawData: t.RawData, Signatures: t.Signatures}
	return stripped.Size()
}

// ResultSize returns the length of the encoded results of the transaction.
func (t *Transaction) ResultSize() (int, error) {
	if t == nil {
		return 0, errTransactionIsNil
	}
	if len(t.Ret) == 0 {
		return 0, nil
	}
	b, err := Cbor.Marshal(t.Ret)
	if err != nil {
		return 0, fmt.Errorf("encoding results: %w", err)
	}
	return len(b), nil
}

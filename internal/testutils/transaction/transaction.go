package testtransaction

import (
	"testing"

	"github.com/alphabill-org/resource-billing/types"
	"github.com/stretchr/testify/require"
)

type Option func(*types.Transaction) error

func defaultTx() *types.Transaction {
	return &types.Transaction{
		RawData: &types.RawData{
			RefBlock:   1,
			Expiration: 60_000,
			Timestamp:  1,
			FeeLimit:   1_000_000,
		},
		Signatures: [][]byte{make([]byte, 65)},
	}
}

func NewTransaction(t testing.TB, options ...Option) *types.Transaction {
	tx := defaultTx()
	for _, o := range options {
		require.NoError(t, o(tx))
	}
	return tx
}

// WithContract appends a contract with given parameter to the transaction.
func WithContract(typ types.ContractType, param types.OwnerProvider) Option {
	return func(tx *types.Transaction) error {
		c, err := types.NewContract(typ, param)
		if err != nil {
			return err
		}
		tx.RawData.Contracts = append(tx.RawData.Contracts, c)
		return nil
	}
}

func WithTransfer(from, to types.Address, amount uint64) Option {
	return WithContract(types.TransferContractType, &types.TransferContract{Owner: from, To: to, Amount: amount})
}

func WithAssetTransfer(id types.AssetID, from, to types.Address, amount uint64) Option {
	return WithContract(types.TransferAssetContractType, &types.TransferAssetContract{AssetID: id, Owner: from, To: to, Amount: amount})
}

func WithTrigger(from, contract types.Address, callValue uint64, data []byte) Option {
	return WithContract(types.TriggerSmartContractType, &types.TriggerSmartContract{Owner: from, ContractAddress: contract, CallValue: callValue, Data: data})
}

// WithData sets the memo of the transaction, used to make transaction of certain size.
func WithData(data []byte) Option {
	return func(tx *types.Transaction) error {
		tx.RawData.Data = data
		return nil
	}
}

func WithFeeLimit(limit uint64) Option {
	return func(tx *types.Transaction) error {
		tx.RawData.FeeLimit = limit
		return nil
	}
}

// WithResult sets the result code claimed by the block producer.
func WithResult(code types.ResultCode) Option {
	return func(tx *types.Transaction) error {
		tx.SetResult(0, code)
		return nil
	}
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alphabill-org/resource-billing/types"
)

var contractTypes = []types.ContractType{
	types.AccountCreateContractType,
	types.TransferContractType,
	types.TransferAssetContractType,
	types.FreezeBalanceContractType,
	types.CreateSmartContractType,
	types.TriggerSmartContractType,
}

type (
	/*
	blockFile is the human editable form of the block:

		number: 1
		timestamp: 3000
		transactions:
		  - feeLimit: 1000000
		    contracts:
		      - type: TransferContract
		        owner: "0x000000000000000000000000000000000000000a"
		        to: "0x000000000000000000000000000000000000000b"
		        amount: 10
	*/
	blockFile struct {
		Number       uint64            `yaml:"number"`
		Timestamp    uint64            `yaml:"timestamp"`
		Witness      string            `yaml:"witness"`
		Transactions []transactionFile `yaml:"transactions"`
	}

	transactionFile struct {
		RefBlock   uint64 `yaml:"refBlock"`
		Expiration uint64 `yaml:"expiration"`
		Timestamp  uint64 `yaml:"timestamp"`
		FeeLimit   uint64 `yaml:"feeLimit"`
		Memo       string `yaml:"memo"` // hex
		// Result is the result code recorded by the block producer, checked
		// when the block is validated.
		Result    string         `yaml:"result"`
		Contracts []contractFile `yaml:"contracts"`
	}

	// contractFile carries the union of the contract parameters, the fields
	// used depend on the type.
	contractFile struct {
		Type     string `yaml:"type"`
		Owner    string `yaml:"owner"`
		To       string `yaml:"to"`
		Amount   uint64 `yaml:"amount"`
		AssetID  string `yaml:"asset"`
		Account  string `yaml:"account"`
		Resource string `yaml:"resource"` // BANDWIDTH or ENERGY
		// smart contracts
		Contract                   string `yaml:"contract"`
		CallValue                  uint64 `yaml:"callValue"`
		Data                       string `yaml:"data"` // hex
		Name                       string `yaml:"name"`
		ABI                        string `yaml:"abi"`
		Bytecode                   string `yaml:"bytecode"` // hex
		ConsumeUserResourcePercent uint64 `yaml:"consumeUserResourcePercent"`
		OriginEnergyLimit          uint64 `yaml:"originEnergyLimit"`
	}
)

func (b *blockFile) block() (*types.Block, error) {
	header := &types.BlockHeader{Number: b.Number, Timestamp: b.Timestamp}
	if b.Witness != "" {
		w, err := types.AddressFromHex(b.Witness)
		if err != nil {
			return nil, fmt.Errorf("witness: %w", err)
		}
		header.Witness = w
	}
	block := &types.Block{Header: header}
	for i := range b.Transactions {
		tx, err := b.Transactions[i].transaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}

func (t *transactionFile) transaction() (*types.Transaction, error) {
	memo, err := decodeHex(t.Memo)
	if err != nil {
		return nil, fmt.Errorf("memo: %w", err)
	}
	tx := &types.Transaction{
		RawData: &types.RawData{
			RefBlock:   t.RefBlock,
			Expiration: t.Expiration,
			Timestamp:  t.Timestamp,
			FeeLimit:   t.FeeLimit,
			Data:       memo,
		},
	}
	if len(t.Contracts) == 0 {
		return nil, errors.New("transaction has no contracts")
	}
	for i := range t.Contracts {
		c, err := t.Contracts[i].contract()
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", i, err)
		}
		tx.RawData.Contracts = append(tx.RawData.Contracts, c)
	}
	if t.Result != "" {
		var code types.ResultCode
		if err := code.UnmarshalText([]byte(t.Result)); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		tx.SetResult(0, code)
	}
	return tx, nil
}

func (c *contractFile) contract() (*types.Contract, error) {
	typ, err := parseContractType(c.Type)
	if err != nil {
		return nil, err
	}
	owner, err := types.AddressFromHex(c.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}

	var param types.OwnerProvider
	switch typ {
	case types.AccountCreateContractType:
		acc, err := types.AddressFromHex(c.Account)
		if err != nil {
			return nil, fmt.Errorf("account: %w", err)
		}
		param = &types.AccountCreateContract{Owner: owner, Account: acc}
	case types.TransferContractType:
		to, err := types.AddressFromHex(c.To)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		param = &types.TransferContract{Owner: owner, To: to, Amount: c.Amount}
	case types.TransferAssetContractType:
		to, err := types.AddressFromHex(c.To)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		param = &types.TransferAssetContract{AssetID: types.AssetID(c.AssetID), Owner: owner, To: to, Amount: c.Amount}
	case types.FreezeBalanceContractType:
		res, err := parseResource(c.Resource)
		if err != nil {
			return nil, err
		}
		param = &types.FreezeBalanceContract{Owner: owner, Amount: c.Amount, Resource: res}
	case types.CreateSmartContractType:
		code, err := decodeHex(c.Bytecode)
		if err != nil {
			return nil, fmt.Errorf("bytecode: %w", err)
		}
		param = &types.CreateSmartContract{
			Owner: owner,
			NewContract: &types.SmartContract{
				OriginAddress:              owner,
				Name:                       c.Name,
				ABI:                        c.ABI,
				Bytecode:                   code,
				CallValue:                  c.CallValue,
				ConsumeUserResourcePercent: c.ConsumeUserResourcePercent,
				OriginEnergyLimit:          c.OriginEnergyLimit,
			},
		}
	case types.TriggerSmartContractType:
		addr, err := types.AddressFromHex(c.Contract)
		if err != nil {
			return nil, fmt.Errorf("contract: %w", err)
		}
		data, err := decodeHex(c.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		param = &types.TriggerSmartContract{Owner: owner, ContractAddress: addr, CallValue: c.CallValue, Data: data}
	}
	return types.NewContract(typ, param)
}

func parseContractType(s string) (types.ContractType, error) {
	for _, t := range contractTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", types.ErrUnknownContractType, s)
}

func parseResource(s string) (types.ResourceCode, error) {
	for _, r := range []types.ResourceCode{types.ResourceBandwidth, types.ResourceEnergy} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", s)
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

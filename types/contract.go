package types

import (
	"errors"
	"fmt"
)

const (
	AccountCreateContractType ContractType = 0
	TransferContractType      ContractType = 1
	TransferAssetContractType ContractType = 2
	FreezeBalanceContractType ContractType = 11
	CreateSmartContractType   ContractType = 30
	TriggerSmartContractType  ContractType = 31
)

const (
	ResourceBandwidth ResourceCode = iota
	ResourceEnergy
)

var ErrUnknownContractType = errors.New("unknown contract type")

type (
	ContractType uint32

	ResourceCode uint8

	// Contract is a single operation of the transaction. Parameter is the CBOR
	// encoding of the type specific parameter struct.
	Contract struct {
		_            struct{} `cbor:",toarray"`
		Type         ContractType
		Parameter    RawCBOR
		PermissionID uint32
	}

	// OwnerProvider is implemented by all the contract parameter types.
	OwnerProvider interface {
		OwnerAddress() Address
	}

	AccountCreateContract struct {
		_       struct{} `cbor:",toarray"`
		Owner   Address
		Account Address
		Type    AccountType
	}

	TransferContract struct {
		_      struct{} `cbor:",toarray"`
		Owner  Address
		To     Address
		Amount uint64
	}

	TransferAssetContract struct {
		_       struct{} `cbor:",toarray"`
		AssetID AssetID
		Owner   Address
		To      Address
		Amount  uint64
	}

	FreezeBalanceContract struct {
		_        struct{} `cbor:",toarray"`
		Owner    Address
		Amount   uint64
		Resource ResourceCode
	}

	CreateSmartContract struct {
		_              struct{} `cbor:",toarray"`
		Owner          Address
		NewContract    *SmartContract
		CallTokenValue uint64
	}

	TriggerSmartContract struct {
		_               struct{} `cbor:",toarray"`
		Owner           Address
		ContractAddress Address
		CallValue       uint64
		Data            []byte
	}
)

// NewContract encodes the parameter and wraps it into contract of given type.
func NewContract(typ ContractType, param OwnerProvider) (*Contract, error) {
	b, err := Cbor.Marshal(param)
	if err != nil {
		return nil, fmt.Errorf("encoding %s parameter: %w", typ, err)
	}
	return &Contract{Type: typ, Parameter: b}, nil
}

func (c *Contract) UnmarshalParameter(v any) error {
	if c == nil {
		return errors.New("contract is nil")
	}
	return Cbor.Unmarshal(c.Parameter, v)
}

// DecodeParameter returns the decoded type specific parameter of the contract.
func (c *Contract) DecodeParameter() (OwnerProvider, error) {
	if c == nil {
		return nil, errors.New("contract is nil")
	}
	var p OwnerProvider
	switch c.Type {
	case AccountCreateContractType:
		p = &AccountCreateContract{}
	case TransferContractType:
		p = &TransferContract{}
	case TransferAssetContractType:
		p = &TransferAssetContract{}
	case FreezeBalanceContractType:
		p = &FreezeBalanceContract{}
	case CreateSmartContractType:
		p = &CreateSmartContract{}
	case TriggerSmartContractType:
		p = &TriggerSmartContract{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownContractType, c.Type)
	}
	if err := c.UnmarshalParameter(p); err != nil {
		return nil, fmt.Errorf("decoding %s parameter: %w", c.Type, err)
	}
	return p, nil
}

// Owner returns the address of the account which signed (and pays for) the contract.
func (c *Contract) Owner() (Address, error) {
	p, err := c.DecodeParameter()
	if err != nil {
		return Address{}, err
	}
	return p.OwnerAddress(), nil
}

func (p *AccountCreateContract) OwnerAddress() Address { return p.Owner }
func (p *TransferContract) OwnerAddress() Address      { return p.Owner }
func (p *TransferAssetContract) OwnerAddress() Address { return p.Owner }
func (p *FreezeBalanceContract) OwnerAddress() Address { return p.Owner }
func (p *CreateSmartContract) OwnerAddress() Address   { return p.Owner }
func (p *TriggerSmartContract) OwnerAddress() Address  { return p.Owner }

func (t ContractType) String() string {
	switch t {
	case AccountCreateContractType:
		return "AccountCreateContract"
	case TransferContractType:
		return "TransferContract"
	case TransferAssetContractType:
		return "TransferAssetContract"
	case FreezeBalanceContractType:
		return "FreezeBalanceContract"
	case CreateSmartContractType:
		return "CreateSmartContract"
	case TriggerSmartContractType:
		return "TriggerSmartContract"
	default:
		return fmt.Sprintf("ContractType(%d)", uint32(t))
	}
}

// IsVM returns true when the contract is executed by the virtual machine.
func (t ContractType) IsVM() bool {
	return t == CreateSmartContractType || t == TriggerSmartContractType
}

func (r ResourceCode) String() string {
	switch r {
	case ResourceBandwidth:
		return "BANDWIDTH"
	case ResourceEnergy:
		return "ENERGY"
	default:
		return fmt.Sprintf("ResourceCode(%d)", uint8(r))
	}
}

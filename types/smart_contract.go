package types

import "bytes"

// SmartContract is the deployed contract record.
type SmartContract struct {
	_               struct{} `cbor:",toarray"`
	ContractAddress Address
	OriginAddress   Address // deployer, pays the "origin" share of the energy bill
	Name            string
	ABI             string // JSON ABI
	Bytecode        []byte
	CallValue       uint64
	// ConsumeUserResourcePercent is the share (0..100) of the energy bill
	// paid by the caller, the rest is paid by the origin.
	ConsumeUserResourcePercent uint64
	OriginEnergyLimit          uint64
}

func (c *SmartContract) Copy() *SmartContract {
	if c == nil {
		return nil
	}
	r := *c
	r.Bytecode = bytes.Clone(c.Bytecode)
	return &r
}

/*
Package runtime is the boundary between the transaction trace and the
virtual machine.

Ordinary system contracts (transfers, account creation, freezing) are
executed by the precompiled executors of this package. Smart contract
creation and calls are delegated to an Interpreter, the package only
prepares the call, classifies the terminal condition reported by the
interpreter and keeps the changes made by the execution in a Deposit.
*/
package runtime

import (
	"context"

	"github.com/alphabill-org/resource-billing/types"
)

//go:generate mockgen -source=runtime.go -destination=mock_runtime.go -package=runtime

const (
	TrxPrecompiled TrxType = iota
	TrxContractCreation
	TrxContractCall
)

type (
	// TrxType classifies the transaction by the type of its first contract.
	TrxType uint8

	// Runtime executes a single transaction.
	Runtime interface {
		// Execute validates the transaction and prepares the execution.
		Execute(ctx context.Context) error
		// Go runs the transaction, returns error when precompiled contract
		// fails. Smart contract failures are reported by the Result.
		Go(ctx context.Context) error
		// Finalization applies the changes which must be done after the bill
		// of the transaction has been settled.
		Finalization() error
		Result() *Result
		RuntimeError() string
		TrxType() TrxType
	}

	// Interpreter runs the smart contract code.
	Interpreter interface {
		/*
		Run executes the message, state is accessed through the deposit.
		Returned error is the terminal condition of the VM (ie vm.ErrOutOfGas,
		vm.ErrExecutionReverted), it is classified by ConditionFromError.
		*/
		Run(ctx context.Context, d *Deposit, msg *Message) (*Outcome, error)
	}

	// Message is the smart contract call (or creation) to be executed.
	Message struct {
		Type        types.ContractType
		Caller      types.Address
		Contract    *types.SmartContract
		CallValue   uint64
		Data        []byte
		EnergyLimit uint64
	}

	Outcome struct {
		ReturnData     []byte
		EnergyUsed     uint64
		DeleteAccounts []types.Address
	}

	// Result of the execution.
	Result struct {
		Condition       Condition
		EnergyUsed      uint64
		ReturnData      []byte
		Exception       error
		RuntimeError    string
		ContractAddress types.Address
		DeleteAccounts  []types.Address
	}
)

func TrxTypeOf(t types.ContractType) TrxType {
	switch t {
	case types.CreateSmartContractType:
		return TrxContractCreation
	case types.TriggerSmartContractType:
		return TrxContractCall
	default:
		return TrxPrecompiled
	}
}

func (t TrxType) String() string {
	switch t {
	case TrxPrecompiled:
		return "precompiled"
	case TrxContractCreation:
		return "contract creation"
	case TrxContractCall:
		return "contract call"
	default:
		return "unknown"
	}
}

// Revert returns true when the contract reverted the execution.
func (r *Result) Revert() bool {
	return r != nil && r.Condition == ConditionRevert
}

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrContractValidate is returned when transaction is rejected before
	// billing or execution: malformed or oversized transaction, missing
	// account or contract.
	ErrContractValidate = errors.New("contract validation failed")

	ErrAccountResourceInsufficient = errors.New("account resource insufficient")

	ErrBalanceInsufficient = errors.New("balance insufficient")

	// ErrVMIllegal is returned when constant (view/pure) method is called
	// as a state changing transaction.
	ErrVMIllegal = errors.New("illegal VM call")

	// ErrContractExe wraps failures of the settlement phase of the execution.
	ErrContractExe = errors.New("contract execution failed")

	// ErrReceiptCheck signals that locally computed result differs from the
	// result recorded by the block producer.
	ErrReceiptCheck = errors.New("receipt check failed")
)

type (
	// TooBigTransactionResultError is returned when the serialized results of the
	// transaction exceed the allowed size.
	TooBigTransactionResultError struct {
		Size  int
		Limit int
	}

	// AccountResourceInsufficientError describes the bandwidth shortfall.
	AccountResourceInsufficientError struct {
		Bytes uint64
		Fee   uint64 // required to pay the bytes from balance
		Msg   string
	}

	// BalanceInsufficientError describes the amount which couldn't be charged.
	BalanceInsufficientError struct {
		Required uint64
		Balance  uint64
		Msg      string
	}

	// ReceiptCheckError describes mismatch of the expected and computed result.
	ReceiptCheckError struct {
		Expected string
		Actual   string
	}
)

func (e *TooBigTransactionResultError) Error() string {
	return fmt.Sprintf("transaction result is too big: size %d exceeds limit %d", e.Size, e.Limit)
}

func (e *TooBigTransactionResultError) Unwrap() error { return ErrContractValidate }

func (e *AccountResourceInsufficientError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "account has insufficient bandwidth and balance to create transaction"
	}
	return fmt.Sprintf("%s: bytes %d, required fee %d", msg, e.Bytes, e.Fee)
}

func (e *AccountResourceInsufficientError) Unwrap() error { return ErrAccountResourceInsufficient }

func (e *BalanceInsufficientError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "balance is not sufficient"
	}
	return fmt.Sprintf("%s: required %d, balance %d", msg, e.Required, e.Balance)
}

func (e *BalanceInsufficientError) Unwrap() error { return ErrBalanceInsufficient }

func (e *ReceiptCheckError) Error() string {
	if e.Expected == "" {
		return "receipt check failed: expected result code is missing"
	}
	return fmt.Sprintf("receipt check failed: expected %s, actual %s", e.Expected, e.Actual)
}

func (e *ReceiptCheckError) Unwrap() error { return ErrReceiptCheck }

// ContractValidate returns error wrapping ErrContractValidate.
func ContractValidate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractValidate, fmt.Sprintf(format, args...))
}

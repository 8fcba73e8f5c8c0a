package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("too big result", func(t *testing.T) {
		var err error = &TooBigTransactionResultError{Size: 200, Limit: 64}
		require.ErrorIs(t, err, ErrContractValidate)
		require.EqualError(t, err, "transaction result is too big: size 200 exceeds limit 64")
	})

	t.Run("resource insufficient", func(t *testing.T) {
		err := fmt.Errorf("consuming bandwidth: %w", &AccountResourceInsufficientError{Bytes: 20000, Fee: 200000})
		require.ErrorIs(t, err, ErrAccountResourceInsufficient)
		var e *AccountResourceInsufficientError
		require.True(t, errors.As(err, &e))
		require.EqualValues(t, 200000, e.Fee)
		require.EqualError(t, err, "consuming bandwidth: account has insufficient bandwidth and balance to create transaction: bytes 20000, required fee 200000")
		require.EqualError(t, &AccountResourceInsufficientError{Msg: "new account", Bytes: 1}, "new account: bytes 1, required fee 0")
	})

	t.Run("balance insufficient", func(t *testing.T) {
		var err error = &BalanceInsufficientError{Required: 10, Balance: 5}
		require.ErrorIs(t, err, ErrBalanceInsufficient)
		require.EqualError(t, err, "balance is not sufficient: required 10, balance 5")
		require.False(t, errors.Is(err, ErrContractExe))
		err = errors.Join(ErrContractExe, err)
		require.ErrorIs(t, err, ErrContractExe)
		require.ErrorIs(t, err, ErrBalanceInsufficient)
	})

	t.Run("receipt check", func(t *testing.T) {
		require.ErrorIs(t, &ReceiptCheckError{}, ErrReceiptCheck)
		require.EqualError(t, &ReceiptCheckError{}, "receipt check failed: expected result code is missing")
		require.EqualError(t, &ReceiptCheckError{Expected: "OK", Actual: "REVERT"}, "receipt check failed: expected OK, actual REVERT")
	})

	t.Run("contract validate", func(t *testing.T) {
		err := ContractValidate("account %s does not exist", "0x01")
		require.ErrorIs(t, err, ErrContractValidate)
		require.EqualError(t, err, "contract validation failed: account 0x01 does not exist")
	})
}

package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/require"
)

func TestConditionFromError(t *testing.T) {
	var tests = []struct {
		err  error
		want Condition
	}{
		{err: nil, want: ConditionSuccess},
		{err: vm.ErrExecutionReverted, want: ConditionRevert},
		{err: vm.ErrOutOfGas, want: ConditionOutOfEnergy},
		{err: vm.ErrCodeStoreOutOfGas, want: ConditionOutOfEnergy},
		{err: vm.ErrInvalidJump, want: ConditionBadJumpDestination},
		{err: vm.ErrGasUintOverflow, want: ConditionOutOfMemory},
		{err: vm.ErrWriteProtection, want: ConditionIllegalOperation},
		{err: &vm.ErrInvalidOpCode{}, want: ConditionIllegalOperation},
		{err: &vm.ErrStackUnderflow{}, want: ConditionStackTooSmall},
		{err: &vm.ErrStackOverflow{}, want: ConditionStackTooLarge},
		{err: vm.ErrDepth, want: ConditionInterpreterStackOverflow},
		{err: vm.ErrInsufficientBalance, want: ConditionTransferFailed},
		{err: fmt.Errorf("ecrecover: %w", ErrPrecompiledContract), want: ConditionPrecompiledContractFailure},
		{err: context.DeadlineExceeded, want: ConditionOutOfTime},
		{err: fmt.Errorf("step 100: %w", context.DeadlineExceeded), want: ConditionOutOfTime},
		{err: fmt.Errorf("call: %w", vm.ErrOutOfGas), want: ConditionOutOfEnergy},
		{err: fmt.Errorf("call: %w", &vm.ErrStackUnderflow{}), want: ConditionStackTooSmall},
		{err: vm.ErrMaxCodeSizeExceeded, want: ConditionUnknown},
		{err: errors.New("boom"), want: ConditionUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.err), func(t *testing.T) {
			require.Equal(t, tt.want, ConditionFromError(tt.err))
		})
	}
}

func TestCondition_String(t *testing.T) {
	require.Equal(t, "success", ConditionSuccess.String())
	require.Equal(t, "out of time", ConditionOutOfTime.String())
	require.Equal(t, "unknown", ConditionUnknown.String())
	require.Equal(t, "unknown", Condition(200).String())
}

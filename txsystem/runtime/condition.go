package runtime

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/core/vm"
)

// terminal conditions of the execution
const (
	ConditionSuccess Condition = iota
	ConditionRevert
	ConditionIllegalOperation
	ConditionOutOfEnergy
	ConditionBadJumpDestination
	ConditionOutOfTime
	ConditionOutOfMemory
	ConditionPrecompiledContractFailure
	ConditionStackTooSmall
	ConditionStackTooLarge
	ConditionInterpreterStackOverflow
	ConditionTransferFailed
	ConditionUnknown
)

// ErrPrecompiledContract is to be wrapped by the interpreter when a
// precompiled VM contract (ie ecrecover) fails.
var ErrPrecompiledContract = errors.New("precompiled contract failed")

type Condition uint8

var conditionNames = [...]string{
	ConditionSuccess:                    "success",
	ConditionRevert:                     "revert",
	ConditionIllegalOperation:           "illegal operation",
	ConditionOutOfEnergy:                "out of energy",
	ConditionBadJumpDestination:         "bad jump destination",
	ConditionOutOfTime:                  "out of time",
	ConditionOutOfMemory:                "out of memory",
	ConditionPrecompiledContractFailure: "precompiled contract failure",
	ConditionStackTooSmall:              "stack too small",
	ConditionStackTooLarge:              "stack too large",
	ConditionInterpreterStackOverflow:   "interpreter stack overflow",
	ConditionTransferFailed:             "transfer failed",
	ConditionUnknown:                    "unknown",
}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return conditionNames[ConditionUnknown]
}

/*
ConditionFromError classifies the error returned by the interpreter. Errors
which are not known VM errors are classified as ConditionUnknown.
*/
func ConditionFromError(err error) Condition {
	if err == nil {
		return ConditionSuccess
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ConditionOutOfTime
	case errors.Is(err, vm.ErrExecutionReverted):
		return ConditionRevert
	case errors.Is(err, vm.ErrOutOfGas), errors.Is(err, vm.ErrCodeStoreOutOfGas):
		return ConditionOutOfEnergy
	case errors.Is(err, vm.ErrInvalidJump):
		return ConditionBadJumpDestination
	case errors.Is(err, vm.ErrGasUintOverflow):
		return ConditionOutOfMemory
	case errors.Is(err, vm.ErrWriteProtection):
		return ConditionIllegalOperation
	case errors.Is(err, vm.ErrDepth):
		return ConditionInterpreterStackOverflow
	case errors.Is(err, vm.ErrInsufficientBalance):
		return ConditionTransferFailed
	case errors.Is(err, ErrPrecompiledContract):
		return ConditionPrecompiledContractFailure
	}

	var invalidOp *vm.ErrInvalidOpCode
	var underflow *vm.ErrStackUnderflow
	var overflow *vm.ErrStackOverflow
	switch {
	case errors.As(err, &invalidOp):
		return ConditionIllegalOperation
	case errors.As(err, &underflow):
		return ConditionStackTooSmall
	case errors.As(err, &overflow):
		return ConditionStackTooLarge
	default:
		return ConditionUnknown
	}
}

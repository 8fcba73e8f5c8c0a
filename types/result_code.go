package types

import "fmt"

// Result codes of the contract execution. The numeric values are part of the
// persisted receipts and transaction results, do not reorder.
const (
	ResultDefault ResultCode = iota
	ResultOK
	ResultRevert
	ResultBadJumpDestination
	ResultOutOfMemory
	ResultPrecompiledContractFailure
	ResultStackTooSmall
	ResultStackTooLarge
	ResultIllegalOperation
	ResultStackOverflow
	ResultOutOfEnergy
	ResultOutOfTime
	ResultInterpreterStackOverflow
	ResultUnknown
	ResultTransferFailed
)

type ResultCode uint8

var resultCodeNames = [...]string{
	ResultDefault:                    "DEFAULT",
	ResultOK:                         "OK",
	ResultRevert:                     "REVERT",
	ResultBadJumpDestination:         "BAD_JUMP_DESTINATION",
	ResultOutOfMemory:                "OUT_OF_MEMORY",
	ResultPrecompiledContractFailure: "PRECOMPILED_CONTRACT_FAILURE",
	ResultStackTooSmall:              "STACK_TOO_SMALL",
	ResultStackTooLarge:              "STACK_TOO_LARGE",
	ResultIllegalOperation:           "ILLEGAL_OPERATION",
	ResultStackOverflow:              "STACK_OVERFLOW",
	ResultOutOfEnergy:                "OUT_OF_ENERGY",
	ResultOutOfTime:                  "OUT_OF_TIME",
	ResultInterpreterStackOverflow:   "INTERPRETER_STACK_OVERFLOW",
	ResultUnknown:                    "UNKNOWN",
	ResultTransferFailed:             "TRANSFER_FAILED",
}

func (c ResultCode) String() string {
	if int(c) < len(resultCodeNames) {
		return resultCodeNames[c]
	}
	return fmt.Sprintf("ResultCode(%d)", uint8(c))
}

func (c ResultCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ResultCode) UnmarshalText(text []byte) error {
	for i, n := range resultCodeNames {
		if n == string(text) {
			*c = ResultCode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown result code %q", text)
}

/*
Package trace implements the per transaction execution and billing state
machine.

The block processor creates one Trace per transaction and drives it through
Init, CheckIsConstant, Exec, SetResult (optionally CheckNeedRetry and Check
when validating block of a peer) and Finalization. The trace is used once.
*/
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/txsystem/runtime"
	txtypes "github.com/alphabill-org/resource-billing/txsystem/types"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	stateCreated traceState = iota
	stateInitialized
	stateExecuted
	stateFinalized
)

type (
	traceState uint8

	Trace struct {
		env            *runtime.Env
		tx             *types.Transaction
		txID           common.Hash
		receipt        *types.Receipt
		trxType        runtime.TrxType
		timeResultType TimeResultType
		startTime      time.Time
		header         *types.BlockHeader
		runtime        runtime.Runtime
		state          traceState
		opts           *Options
		log            *slog.Logger
	}
)

func (s traceState) String() string {
	switch s {
	case stateCreated:
		return "CREATED"
	case stateInitialized:
		return "INITIALIZED"
	case stateExecuted:
		return "EXECUTED"
	case stateFinalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("traceState(%d)", uint8(s))
	}
}

// New creates trace of the transaction "tx", the type of the transaction is
// determined by its first contract.
func New(env *runtime.Env, tx *types.Transaction, opts ...Option) (*Trace, error) {
	if err := env.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid runtime environment: %w", err)
	}
	c := tx.Contract()
	if c == nil {
		return nil, txtypes.ContractValidate("transaction has no contracts")
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, err
	}
	options := DefaultOptions()
	for _, o := range opts {
		o(options)
	}
	return &Trace{
		env:     env,
		tx:      tx,
		txID:    txID,
		receipt: types.NewReceipt(),
		trxType: runtime.TrxTypeOf(c.Type),
		opts:    options,
		log:     env.Log.With(logger.TxID(txID)),
	}, nil
}

func (t *Trace) TxID() common.Hash { return t.txID }

func (t *Trace) Transaction() *types.Transaction { return t.tx }

func (t *Trace) Receipt() *types.Receipt { return t.receipt }

func (t *Trace) TrxType() runtime.TrxType { return t.trxType }

func (t *Trace) TimeResultType() TimeResultType { return t.timeResultType }

// Runtime returns the runtime bound by Init, nil before Init.
func (t *Trace) Runtime() runtime.Runtime { return t.runtime }

func (t *Trace) needVM() bool { return t.trxType != runtime.TrxPrecompiled }

func (t *Trace) expectState(s traceState) error {
	if t.state != s {
		return fmt.Errorf("trace is in state %s, expected %s", t.state, s)
	}
	return nil
}

// Init records the start time and binds the runtime of the block "header" to
// the trace.
func (t *Trace) Init(header *types.BlockHeader) error {
	if err := t.expectState(stateCreated); err != nil {
		return err
	}
	if header == nil {
		return errors.New("block header is nil")
	}
	rt, err := t.opts.newRuntime(t.env, t.tx, header)
	if err != nil {
		return fmt.Errorf("creating runtime: %w", err)
	}
	t.runtime = rt
	t.header = header
	t.startTime = t.opts.now()
	t.state = stateInitialized
	return nil
}

/*
CheckIsConstant rejects contract call which invokes constant (view or pure)
method of the contract. The check is disabled by AllowTvmConstantinople.
*/
func (t *Trace) CheckIsConstant() error {
	if err := t.expectState(stateInitialized); err != nil {
		return err
	}
	if t.trxType != runtime.TrxContractCall {
		return nil
	}
	allowed, err := t.env.Props.Bool(properties.AllowTvmConstantinople)
	if err != nil || allowed {
		return err
	}
	p := &types.TriggerSmartContract{}
	if err := t.tx.Contract().UnmarshalParameter(p); err != nil {
		return txtypes.ContractValidate("decoding contract: %v", err)
	}
	sc, err := t.env.Store.GetContract(p.ContractAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return txtypes.ContractValidate("contract %s is not in contract store", p.ContractAddress)
		}
		return err
	}
	a, err := t.opts.abiCache.Get(sc)
	if err != nil {
		return txtypes.ContractValidate("%v", err)
	}
	if isConstant(a, p.Data) {
		return fmt.Errorf("%w: cannot call constant method", txtypes.ErrVMIllegal)
	}
	return nil
}

/*
Exec runs the transaction in the runtime and records the energy used on the
receipt. VM transactions are given deadline of MaxCpuTimeOfOneTx, running out
of it or exceeding the long running threshold is recorded as time result type.
*/
func (t *Trace) Exec(ctx context.Context) error {
	if err := t.expectState(stateInitialized); err != nil {
		return err
	}
	if t.needVM() {
		maxTime, err := t.maxTxTime()
		if err != nil {
			return err
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxTime)
		defer cancel()
	}
	if err := t.runtime.Execute(ctx); err != nil {
		return err
	}
	if err := t.runtime.Go(ctx); err != nil {
		return err
	}
	t.state = stateExecuted

	res := t.runtime.Result()
	t.receipt.EnergyUsageTotal = res.EnergyUsed
	if t.needVM() {
		switch {
		case res.Condition == runtime.ConditionOutOfTime:
			t.timeResultType = TimeOutOfTime
		case t.opts.now().Sub(t.startTime) > t.opts.longRunningTime:
			t.timeResultType = TimeLongRunning
		}
		if t.timeResultType != TimeNormal {
			t.log.Info(fmt.Sprintf("transaction execution time: %s", t.timeResultType))
		}
	}
	return nil
}

func (t *Trace) maxTxTime() (time.Duration, error) {
	if t.opts.maxTxTime > 0 {
		return t.opts.maxTxTime, nil
	}
	ms, err := t.env.Props.Uint64(properties.MaxCpuTimeOfOneTx)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Finalization settles the energy bill and finalizes the runtime. Failure to
// pay the bill is reported as contract execution error.
func (t *Trace) Finalization() error {
	if err := t.expectState(stateExecuted); err != nil {
		return err
	}
	if err := t.pay(); err != nil {
		if errors.Is(err, txtypes.ErrBalanceInsufficient) {
			return fmt.Errorf("%w: %w", txtypes.ErrContractExe, err)
		}
		return fmt.Errorf("paying energy bill: %w", err)
	}
	if err := t.runtime.Finalization(); err != nil {
		return fmt.Errorf("finalizing runtime: %w", err)
	}
	t.state = stateFinalized
	return nil
}

// SetResult stores the result code of the VM execution on the receipt, no-op
// for precompiled transactions.
func (t *Trace) SetResult() error {
	if t.state < stateExecuted {
		return fmt.Errorf("trace is in state %s, transaction has not been executed", t.state)
	}
	if !t.needVM() {
		return nil
	}
	t.receipt.Result = ResultCode(t.runtime.Result().Condition)
	return nil
}

/*
CheckNeedRetry returns true when the block producer recorded some other result
than OUT_OF_TIME but local execution ran out of time, ie the transaction
should be executed again.
*/
func (t *Trace) CheckNeedRetry() bool {
	if !t.needVM() {
		return false
	}
	return t.tx.ContractRet() != types.ResultOutOfTime && t.receipt.Result == types.ResultOutOfTime
}

// Check compares the result recorded by the block producer with the result
// of the local execution.
func (t *Trace) Check() error {
	if !t.needVM() {
		return nil
	}
	expected := t.tx.ContractRet()
	if expected == types.ResultDefault {
		return &txtypes.ReceiptCheckError{}
	}
	if expected != t.receipt.Result {
		t.log.Warn("different result code", logger.Data(map[string]string{"expected": expected.String(), "actual": t.receipt.Result.String()}))
		return &txtypes.ReceiptCheckError{Expected: expected.String(), Actual: t.receipt.Result.String()}
	}
	return nil
}

// ResultCode maps terminal condition of the execution to the result code.
func ResultCode(c runtime.Condition) types.ResultCode {
	switch c {
	case runtime.ConditionSuccess:
		return types.ResultOK
	case runtime.ConditionRevert:
		return types.ResultRevert
	case runtime.ConditionIllegalOperation:
		return types.ResultIllegalOperation
	case runtime.ConditionOutOfEnergy:
		return types.ResultOutOfEnergy
	case runtime.ConditionBadJumpDestination:
		return types.ResultBadJumpDestination
	case runtime.ConditionOutOfTime:
		return types.ResultOutOfTime
	case runtime.ConditionOutOfMemory:
		return types.ResultOutOfMemory
	case runtime.ConditionPrecompiledContractFailure:
		return types.ResultPrecompiledContractFailure
	case runtime.ConditionStackTooSmall:
		return types.ResultStackTooSmall
	case runtime.ConditionStackTooLarge:
		return types.ResultStackTooLarge
	case runtime.ConditionInterpreterStackOverflow:
		return types.ResultInterpreterStackOverflow
	case runtime.ConditionTransferFailed:
		return types.ResultTransferFailed
	default:
		return types.ResultUnknown
	}
}

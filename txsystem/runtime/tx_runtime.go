package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/txsystem/resource"
	txtypes "github.com/alphabill-org/resource-billing/txsystem/types"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var _ Runtime = (*TxRuntime)(nil)

type (
	// Env is the environment shared by the runtimes of the transactions of the block.
	Env struct {
		State       Savepointer
		Store       *store.Store
		Props       *properties.Properties
		Energy      *resource.EnergyProcessor
		Interpreter Interpreter // nil when VM is not available
		Executors   TxExecutors
		Log         *slog.Logger
	}

	// TxRuntime is the Runtime of single transaction.
	TxRuntime struct {
		env     *Env
		tx      *types.Transaction
		txID    common.Hash
		header  *types.BlockHeader
		trxType TrxType
		deposit *Deposit
		msg     *Message
		result  Result
	}
)

func (env *Env) IsValid() error {
	if env == nil {
		return errors.New("runtime environment is nil")
	}
	if env.State == nil {
		return errors.New("state is nil")
	}
	if env.Store == nil {
		return errors.New("store is nil")
	}
	if env.Props == nil {
		return errors.New("dynamic properties are nil")
	}
	if env.Energy == nil {
		return errors.New("energy processor is nil")
	}
	if env.Executors == nil {
		return errors.New("tx executors are nil")
	}
	if env.Log == nil {
		return errors.New("logger is nil")
	}
	return nil
}

func New(env *Env, tx *types.Transaction, header *types.BlockHeader) (*TxRuntime, error) {
	if err := env.IsValid(); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errors.New("block header is nil")
	}
	c := tx.Contract()
	if c == nil {
		return nil, txtypes.ContractValidate("transaction has no contracts")
	}
	id, err := tx.ID()
	if err != nil {
		return nil, err
	}
	return &TxRuntime{
		env:     env,
		tx:      tx,
		txID:    id,
		header:  header,
		trxType: TrxTypeOf(c.Type),
	}, nil
}

func (rt *TxRuntime) TrxType() TrxType { return rt.trxType }

func (rt *TxRuntime) Result() *Result { return &rt.result }

func (rt *TxRuntime) RuntimeError() string { return rt.result.RuntimeError }

/*
Execute opens the deposit of the transaction. System contracts are validated
and executed one by one, for smart contracts the call is validated and the
message for the interpreter is prepared.
*/
func (rt *TxRuntime) Execute(ctx context.Context) error {
	rt.deposit = OpenDeposit(rt.env.State, rt.env.Store)
	if rt.trxType == TrxPrecompiled {
		if err := rt.executePrecompiled(); err != nil {
			return errors.Join(err, rt.deposit.Discard())
		}
		return rt.deposit.Commit()
	}

	var err error
	switch rt.trxType {
	case TrxContractCreation:
		rt.msg, err = rt.prepareCreate()
	case TrxContractCall:
		rt.msg, err = rt.prepareCall()
	}
	if err != nil {
		return errors.Join(err, rt.deposit.Discard())
	}
	return nil
}

func (rt *TxRuntime) executePrecompiled() error {
	exeCtx := &ExecutionContext{Store: rt.env.Store, Props: rt.env.Props, BlockTime: rt.header.Timestamp}
	for _, c := range rt.tx.Contracts() {
		if err := rt.env.Executors.Validate(c, exeCtx); err != nil {
			return txtypes.ContractValidate("%v", err)
		}
		if err := rt.env.Executors.Execute(c, exeCtx); err != nil {
			return fmt.Errorf("%w: %w", txtypes.ErrContractExe, err)
		}
	}
	return nil
}

func (rt *TxRuntime) checkVM() error {
	supportVM, err := rt.env.Props.Bool(properties.SupportVM)
	if err != nil {
		return err
	}
	if !supportVM || rt.env.Interpreter == nil {
		return txtypes.ContractValidate("virtual machine is disabled")
	}
	return nil
}

func (rt *TxRuntime) prepareCreate() (*Message, error) {
	if err := rt.checkVM(); err != nil {
		return nil, err
	}
	p := &types.CreateSmartContract{}
	if err := rt.tx.Contract().UnmarshalParameter(p); err != nil {
		return nil, txtypes.ContractValidate("decoding contract: %v", err)
	}
	sc := p.NewContract.Copy()
	if sc == nil {
		return nil, txtypes.ContractValidate("new contract is missing")
	}
	if sc.OriginAddress != p.Owner {
		return nil, txtypes.ContractValidate("owner address %s is not equal to origin address %s", p.Owner, sc.OriginAddress)
	}
	if sc.ConsumeUserResourcePercent > 100 {
		return nil, txtypes.ContractValidate("consume user resource percent must be in range [0, 100]")
	}
	sc.ContractAddress = ContractAddress(rt.txID, p.Owner)
	exists, err := rt.env.Store.HasAccount(sc.ContractAddress)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, txtypes.ContractValidate("contract address %s already exists", sc.ContractAddress)
	}

	owner, err := rt.account(p.Owner)
	if err != nil {
		return nil, err
	}
	if owner.Balance < sc.CallValue {
		return nil, txtypes.ContractValidate("balance %d is not sufficient for call value %d", owner.Balance, sc.CallValue)
	}
	limit, err := rt.accountEnergyLimit(owner, rt.tx.FeeLimit(), sc.CallValue)
	if err != nil {
		return nil, err
	}
	rt.result.ContractAddress = sc.ContractAddress
	return &Message{
		Type:        types.CreateSmartContractType,
		Caller:      p.Owner,
		Contract:    sc,
		CallValue:   sc.CallValue,
		EnergyLimit: limit,
	}, nil
}

func (rt *TxRuntime) prepareCall() (*Message, error) {
	if err := rt.checkVM(); err != nil {
		return nil, err
	}
	p := &types.TriggerSmartContract{}
	if err := rt.tx.Contract().UnmarshalParameter(p); err != nil {
		return nil, txtypes.ContractValidate("decoding contract: %v", err)
	}
	sc, err := rt.env.Store.GetContract(p.ContractAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, txtypes.ContractValidate("no contract at address %s", p.ContractAddress)
		}
		return nil, err
	}
	caller, err := rt.account(p.Owner)
	if err != nil {
		return nil, err
	}
	if caller.Balance < p.CallValue {
		return nil, txtypes.ContractValidate("balance %d is not sufficient for call value %d", caller.Balance, p.CallValue)
	}
	limit, err := rt.totalEnergyLimit(caller, sc, rt.tx.FeeLimit(), p.CallValue)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:        types.TriggerSmartContractType,
		Caller:      p.Owner,
		Contract:    sc,
		CallValue:   p.CallValue,
		Data:        p.Data,
		EnergyLimit: limit,
	}, nil
}

/*
Go runs the smart contract in the interpreter. Changes made by the contract
are kept only when it completes successfully. All the energy up to the limit
is spent when the execution fails for some other reason than revert.
*/
func (rt *TxRuntime) Go(ctx context.Context) error {
	if rt.trxType == TrxPrecompiled {
		return nil
	}
	if rt.msg == nil || rt.deposit == nil || !rt.deposit.IsOpen() {
		return errors.New("runtime is not prepared for execution")
	}
	if rt.msg.Type == types.CreateSmartContractType {
		if err := rt.deployContract(rt.msg.Contract); err != nil {
			return errors.Join(err, rt.deposit.Discard())
		}
	}

	out, err := rt.env.Interpreter.Run(ctx, rt.deposit, rt.msg)
	if out == nil {
		out = &Outcome{}
	}
	rt.result.Condition = ConditionFromError(err)
	rt.result.Exception = err
	rt.result.ReturnData = out.ReturnData
	rt.result.EnergyUsed = min(out.EnergyUsed, rt.msg.EnergyLimit)
	if err != nil {
		rt.result.RuntimeError = err.Error()
	}

	switch rt.result.Condition {
	case ConditionSuccess:
		rt.result.DeleteAccounts = out.DeleteAccounts
		return rt.deposit.Commit()
	case ConditionRevert:
	default:
		rt.result.EnergyUsed = rt.msg.EnergyLimit
	}
	rt.env.Log.Debug(fmt.Sprintf("contract execution failed: %s", rt.result.Condition), logger.TxID(rt.txID), logger.Error(err))
	return rt.deposit.Discard()
}

func (rt *TxRuntime) deployContract(sc *types.SmartContract) error {
	acc := types.NewAccount(sc.ContractAddress, rt.header.Timestamp)
	acc.Type = types.AccountTypeContract
	if err := rt.env.Store.PutAccount(acc); err != nil {
		return err
	}
	return rt.env.Store.PutContract(sc)
}

// Finalization deletes the accounts (self destructed contracts) listed by the
// result of successful execution.
func (rt *TxRuntime) Finalization() error {
	for _, addr := range rt.result.DeleteAccounts {
		if err := rt.env.Store.DeleteAccount(addr); err != nil {
			return fmt.Errorf("deleting account %s: %w", addr, err)
		}
		if err := rt.env.Store.DeleteContract(addr); err != nil {
			return fmt.Errorf("deleting contract %s: %w", addr, err)
		}
	}
	return nil
}

func (rt *TxRuntime) account(addr types.Address) (*types.Account, error) {
	acc, err := rt.env.Store.GetAccount(addr)
	if errors.Is(err, store.ErrNotFound) {
		return nil, txtypes.ContractValidate("account %s does not exist", addr)
	}
	return acc, err
}

// ContractAddress returns the address of the contract created by the transaction.
func ContractAddress(txID common.Hash, owner types.Address) types.Address {
	return common.BytesToAddress(crypto.Keccak256(txID.Bytes(), owner.Bytes()))
}

package runtime

import (
	"errors"
	"fmt"
	"math"

	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
)

// DefaultExecutors returns handlers of the system contracts.
func DefaultExecutors() TxExecutors {
	return TxExecutors{
		types.AccountCreateContractType: NewTxHandler[types.AccountCreateContract](validateAccountCreate, executeAccountCreate),
		types.TransferContractType:      NewTxHandler[types.TransferContract](validateTransfer, executeTransfer),
		types.TransferAssetContractType: NewTxHandler[types.TransferAssetContract](validateTransferAsset, executeTransferAsset),
		types.FreezeBalanceContractType: NewTxHandler[types.FreezeBalanceContract](validateFreezeBalance, executeFreezeBalance),
	}
}

func validateAccountCreate(p *types.AccountCreateContract, exeCtx *ExecutionContext) error {
	if _, err := exeCtx.Store.GetAccount(p.Owner); err != nil {
		return err
	}
	exists, err := exeCtx.Store.HasAccount(p.Account)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("account %s already exists", p.Account)
	}
	return nil
}

func executeAccountCreate(p *types.AccountCreateContract, exeCtx *ExecutionContext) error {
	acc := types.NewAccount(p.Account, exeCtx.BlockTime)
	acc.Type = p.Type
	return exeCtx.Store.PutAccount(acc)
}

func validateTransfer(p *types.TransferContract, exeCtx *ExecutionContext) error {
	if p.Amount == 0 {
		return errors.New("amount must be greater than zero")
	}
	if p.Owner == p.To {
		return errors.New("cannot transfer to yourself")
	}
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	if owner.Balance < p.Amount {
		return fmt.Errorf("balance %d is not sufficient for transfer of %d", owner.Balance, p.Amount)
	}
	return nil
}

func executeTransfer(p *types.TransferContract, exeCtx *ExecutionContext) error {
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	to, err := getOrCreateAccount(exeCtx, p.To)
	if err != nil {
		return err
	}
	if to.Balance > math.MaxUint64-p.Amount {
		return errors.New("balance of the receiver overflows")
	}
	owner.Balance -= p.Amount
	to.Balance += p.Amount
	return exeCtx.Store.PutAccounts(owner, to)
}

func validateTransferAsset(p *types.TransferAssetContract, exeCtx *ExecutionContext) error {
	if p.Amount == 0 {
		return errors.New("amount must be greater than zero")
	}
	if p.Owner == p.To {
		return errors.New("cannot transfer asset to yourself")
	}
	if _, err := exeCtx.Store.GetAssetIssue(p.AssetID); err != nil {
		return err
	}
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	if b := owner.AssetBalance(p.AssetID); b < p.Amount {
		return fmt.Errorf("asset balance %d is not sufficient for transfer of %d", b, p.Amount)
	}
	return nil
}

func executeTransferAsset(p *types.TransferAssetContract, exeCtx *ExecutionContext) error {
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	to, err := getOrCreateAccount(exeCtx, p.To)
	if err != nil {
		return err
	}
	if to.AssetBalance(p.AssetID) > math.MaxUint64-p.Amount {
		return errors.New("asset balance of the receiver overflows")
	}
	owner.SetAssetBalance(p.AssetID, owner.AssetBalance(p.AssetID)-p.Amount)
	to.SetAssetBalance(p.AssetID, to.AssetBalance(p.AssetID)+p.Amount)
	return exeCtx.Store.PutAccounts(owner, to)
}

func validateFreezeBalance(p *types.FreezeBalanceContract, exeCtx *ExecutionContext) error {
	if p.Amount < properties.TrxPrecision {
		return fmt.Errorf("frozen amount must be at least %d", properties.TrxPrecision)
	}
	if p.Resource != types.ResourceBandwidth && p.Resource != types.ResourceEnergy {
		return fmt.Errorf("unknown resource %s", p.Resource)
	}
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	if owner.Balance < p.Amount {
		return fmt.Errorf("balance %d is not sufficient for freezing %d", owner.Balance, p.Amount)
	}
	return nil
}

// executeFreezeBalance moves the amount from the balance to the frozen balance
// of the resource and adds its weight to the network total.
func executeFreezeBalance(p *types.FreezeBalanceContract, exeCtx *ExecutionContext) error {
	owner, err := exeCtx.Store.GetAccount(p.Owner)
	if err != nil {
		return err
	}
	oldFrozen, weightKey := owner.FrozenForBandwidth, properties.TotalNetWeight
	if p.Resource == types.ResourceEnergy {
		oldFrozen, weightKey = owner.FrozenForEnergy, properties.TotalEnergyWeight
	}
	newFrozen := oldFrozen + p.Amount
	if newFrozen < oldFrozen {
		return errors.New("frozen balance overflows")
	}
	owner.Balance -= p.Amount
	if p.Resource == types.ResourceEnergy {
		owner.FrozenForEnergy = newFrozen
	} else {
		owner.FrozenForBandwidth = newFrozen
	}
	if err := exeCtx.Store.PutAccount(owner); err != nil {
		return err
	}
	// weight is the count of whole units frozen
	delta := newFrozen/properties.TrxPrecision - oldFrozen/properties.TrxPrecision
	return exeCtx.Props.AddUint64(weightKey, delta)
}

func getOrCreateAccount(exeCtx *ExecutionContext, addr types.Address) (*types.Account, error) {
	acc, err := exeCtx.Store.GetAccount(addr)
	if errors.Is(err, store.ErrNotFound) {
		return types.NewAccount(addr, exeCtx.BlockTime), nil
	}
	return acc, err
}

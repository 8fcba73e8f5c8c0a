package trace

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/txsystem/runtime"
	txtypes "github.com/alphabill-org/resource-billing/txsystem/types"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/holiman/uint256"
)

// selector of the "transfer(address,uint256)" token method
var transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

/*
pay determines who pays the energy bill of the VM transaction and settles it.
Contract deployment is paid by the deployer, the bill of the contract call is
split between the origin (deployer) of the contract and the caller.
*/
func (t *Trace) pay() error {
	var (
		callerAddr, originAddr types.Address
		percent, originLimit   uint64
	)
	switch t.trxType {
	case runtime.TrxContractCreation:
		p := &types.CreateSmartContract{}
		if err := t.tx.Contract().UnmarshalParameter(p); err != nil {
			return fmt.Errorf("decoding contract: %w", err)
		}
		callerAddr, originAddr = p.Owner, p.Owner
	case runtime.TrxContractCall:
		p := &types.TriggerSmartContract{}
		if err := t.tx.Contract().UnmarshalParameter(p); err != nil {
			return fmt.Errorf("decoding contract: %w", err)
		}
		sc, err := t.env.Store.GetContract(p.ContractAddress)
		if err != nil {
			return fmt.Errorf("loading called contract: %w", err)
		}
		callerAddr, originAddr = p.Owner, sc.OriginAddress
		percent = 100 - min(sc.ConsumeUserResourcePercent, 100)
		originLimit = sc.OriginEnergyLimit
		if isZeroValueTransfer(p) {
			t.log.Debug("zero value token transfer, energy bill is waived")
			t.receipt.EnergyUsageTotal = 0
		}
	default:
		return nil
	}

	caller, err := t.env.Store.GetAccount(callerAddr)
	if err != nil {
		return fmt.Errorf("loading caller account: %w", err)
	}
	origin, err := t.env.Store.GetAccount(originAddr)
	switch {
	case errors.Is(err, store.ErrNotFound):
		origin = nil
	case err != nil:
		return fmt.Errorf("loading origin account: %w", err)
	}
	now, err := t.env.Energy.HeadSlot()
	if err != nil {
		return err
	}
	return t.payEnergyBill(origin, caller, percent, originLimit, now)
}

/*
payEnergyBill splits the energy bill of the receipt: origin pays its share
(percent of the total, capped by the energy left from its freeze and by the
origin energy limit) from the energy quota only, caller pays the rest.
*/
func (t *Trace) payEnergyBill(origin, caller *types.Account, percent, originLimit, now uint64) error {
	total := t.receipt.EnergyUsageTotal
	if total == 0 {
		return nil
	}
	if origin == nil || origin.Address == caller.Address {
		return t.payCallerEnergy(caller, total, now)
	}

	originUsage := mulDiv(total, percent, 100)
	left, err := t.env.Energy.AccountLeftEnergyFromFreeze(origin)
	if err != nil {
		return err
	}
	originUsage = min(originUsage, left)
	limited, err := t.env.Props.Bool(properties.AllowOriginEnergyLimit)
	if err != nil {
		return err
	}
	if limited {
		originUsage = min(originUsage, originLimit)
	}
	if ok, err := t.env.Energy.UseEnergy(origin, originUsage, now); err != nil || !ok {
		return errors.Join(fmt.Errorf("charging %d energy from origin %s", originUsage, origin.Address), err)
	}
	t.receipt.OriginEnergyUsage = originUsage
	return t.payCallerEnergy(caller, total-originUsage, now)
}

// payCallerEnergy charges "usage" from the energy quota of the account, the
// part the quota doesn't cover is paid from the balance.
func (t *Trace) payCallerEnergy(acc *types.Account, usage, now uint64) error {
	left, err := t.env.Energy.AccountLeftEnergyFromFreeze(acc)
	if err != nil {
		return err
	}
	if left >= usage {
		if _, err := t.env.Energy.UseEnergy(acc, usage, now); err != nil {
			return err
		}
		t.receipt.EnergyUsage = usage
		return nil
	}
	if _, err := t.env.Energy.UseEnergy(acc, left, now); err != nil {
		return err
	}
	t.receipt.EnergyUsage = left

	missing := usage - left
	if err := t.env.Energy.AddBlockEnergyUsage(missing); err != nil {
		return err
	}
	price, err := t.env.Props.EnergyPrice()
	if err != nil {
		return err
	}
	fee := new(uint256.Int).Mul(uint256.NewInt(missing), uint256.NewInt(price))
	if !fee.IsUint64() || acc.Balance < fee.Uint64() {
		required := uint64(math.MaxUint64)
		if fee.IsUint64() {
			required = fee.Uint64()
		}
		return &txtypes.BalanceInsufficientError{
			Required: required,
			Balance:  acc.Balance,
			Msg:      fmt.Sprintf("account %s has insufficient balance to pay for %d energy", acc.Address, missing),
		}
	}
	t.receipt.EnergyFee = fee.Uint64()
	paid, err := t.env.Energy.ConsumeFee(acc, t.receipt.EnergyFee)
	if err != nil {
		return err
	}
	if !paid {
		return &txtypes.BalanceInsufficientError{Required: t.receipt.EnergyFee, Balance: acc.Balance}
	}
	if err := t.env.Props.AddUint64(properties.TotalEnergyFee, t.receipt.EnergyFee); err != nil {
		return err
	}
	t.log.Debug(fmt.Sprintf("paid %d for %d energy", t.receipt.EnergyFee, missing), logger.Address(acc.Address))
	return t.env.Store.PutAccount(acc)
}

/*
isZeroValueTransfer returns true when the call invokes the "transfer" token
method with zero amount and doesn't send any value to the contract.
*/
func isZeroValueTransfer(p *types.TriggerSmartContract) bool {
	// selector + address + uint256 amount
	if p.CallValue != 0 || len(p.Data) < 4+32+32 || !bytes.Equal(p.Data[:4], transferSelector) {
		return false
	}
	return new(uint256.Int).SetBytes(p.Data[36:68]).IsZero()
}

func mulDiv(a, b, c uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return v.Div(v, uint256.NewInt(c)).Uint64()
}

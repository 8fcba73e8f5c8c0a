package runtime

import (
	"errors"

	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/holiman/uint256"
)

/*
accountEnergyLimit returns how much energy the account can pay for: energy
left from freezing plus the balance (minus call value) converted to energy,
but no more than the fee limit of the transaction allows.
*/
func (rt *TxRuntime) accountEnergyLimit(acc *types.Account, feeLimit, callValue uint64) (uint64, error) {
	price, err := rt.env.Props.EnergyPrice()
	if err != nil {
		return 0, err
	}
	left, err := rt.env.Energy.AccountLeftEnergyFromFreeze(acc)
	if err != nil {
		return 0, err
	}
	var fromBalance uint64
	if acc.Balance > callValue {
		fromBalance = (acc.Balance - callValue) / price
	}
	available := left + fromBalance
	if available < left {
		available = ^uint64(0)
	}
	return min(available, feeLimit/price), nil
}

/*
totalEnergyLimit returns the energy limit of the call of contract "sc". The
origin (deployer) of the contract covers part of the energy so the limit is
the caller's limit extended by the origin's share.
*/
func (rt *TxRuntime) totalEnergyLimit(caller *types.Account, sc *types.SmartContract, feeLimit, callValue uint64) (uint64, error) {
	callerLimit, err := rt.accountEnergyLimit(caller, feeLimit, callValue)
	if err != nil {
		return 0, err
	}
	if sc.OriginAddress == caller.Address {
		return callerLimit, nil
	}
	origin, err := rt.env.Store.GetAccount(sc.OriginAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return callerLimit, nil
		}
		return 0, err
	}
	originLeft, err := rt.env.Energy.AccountLeftEnergyFromFreeze(origin)
	if err != nil {
		return 0, err
	}
	originLimit := min(originLeft, sc.OriginEnergyLimit)
	percent := min(sc.ConsumeUserResourcePercent, 100)

	// origin can cover more than its share: limit is what makes caller's part of the bill equal to callerLimit
	lhs := new(uint256.Int).Mul(uint256.NewInt(originLimit), uint256.NewInt(percent))
	rhs := new(uint256.Int).Mul(uint256.NewInt(100-percent), uint256.NewInt(callerLimit))
	if lhs.Gt(rhs) {
		v := new(uint256.Int).Mul(uint256.NewInt(callerLimit), uint256.NewInt(100))
		v.Div(v, uint256.NewInt(percent))
		if !v.IsUint64() {
			return ^uint64(0), nil
		}
		return v.Uint64(), nil
	}
	total := callerLimit + originLimit
	if total < callerLimit {
		total = ^uint64(0)
	}
	return total, nil
}

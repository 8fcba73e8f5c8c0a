package resource

import (
	"fmt"
	"log/slog"

	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/resource/usage"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/holiman/uint256"
)

// adaptive limit change rates
const (
	contractRateNumerator   = 99
	contractRateDenominator = 100
	expandRateNumerator     = 1000
	expandRateDenominator   = 999
)

/*
EnergyProcessor meters the energy used by the virtual machine. Same mechanics
as the bandwidth, the global limit can be adaptive: the current limit follows
the moving average of the energy used per block.
*/
type EnergyProcessor struct {
	Processor
}

func NewEnergyProcessor(s *store.Store, p *properties.Properties, cfg properties.ChainConfig, log *slog.Logger) (*EnergyProcessor, error) {
	proc, err := newProcessor(s, p, cfg, log)
	if err != nil {
		return nil, err
	}
	return &EnergyProcessor{Processor: proc}, nil
}

// UpdateUsage decays the energy counter of the account to the head slot.
func (ep *EnergyProcessor) UpdateUsage(acc *types.Account) error {
	now, err := ep.HeadSlot()
	if err != nil {
		return err
	}
	acc.Energy = acc.Energy.Commit(now, 0, ep.window())
	return nil
}

// CalculateGlobalEnergyLimit returns the energy limit of the account earned by freezing balance.
func (ep *EnergyProcessor) CalculateGlobalEnergyLimit(acc *types.Account) (uint64, error) {
	totalLimit, err := ep.props.Uint64(properties.TotalEnergyCurrentLimit)
	if err != nil {
		return 0, err
	}
	totalWeight, err := ep.props.Uint64(properties.TotalEnergyWeight)
	if err != nil {
		return 0, err
	}
	return globalLimit(acc.FrozenForEnergy, totalLimit, totalWeight), nil
}

// AccountLeftEnergyFromFreeze returns the energy the account can use at the head slot.
func (ep *EnergyProcessor) AccountLeftEnergyFromFreeze(acc *types.Account) (uint64, error) {
	now, err := ep.HeadSlot()
	if err != nil {
		return 0, err
	}
	limit, err := ep.CalculateGlobalEnergyLimit(acc)
	if err != nil {
		return 0, err
	}
	return usage.Left(limit, acc.Energy.Advance(now, ep.window())), nil
}

/*
UseEnergy charges "energy" from the energy quota of the account and persists
the account. Returns false when the quota doesn't have room for the energy.
*/
func (ep *EnergyProcessor) UseEnergy(acc *types.Account, energy, now uint64) (bool, error) {
	limit, err := ep.CalculateGlobalEnergyLimit(acc)
	if err != nil {
		return false, err
	}
	if energy > usage.Left(limit, acc.Energy.Advance(now, ep.window())) {
		return false, nil
	}
	ts, err := ep.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return false, err
	}
	acc.Energy = acc.Energy.Commit(now, energy, ep.window())
	acc.LatestOperationTime = ts
	if err := ep.store.PutAccount(acc); err != nil {
		return false, err
	}
	return true, ep.AddBlockEnergyUsage(energy)
}

// AddBlockEnergyUsage adds "energy" to the energy used by the current block
// when adaptive energy limit is enabled.
func (ep *EnergyProcessor) AddBlockEnergyUsage(energy uint64) error {
	adaptive, err := ep.props.Bool(properties.AllowAdaptiveEnergy)
	if err != nil || !adaptive || energy == 0 {
		return err
	}
	return ep.props.AddUint64(properties.BlockEnergyUsage, energy)
}

// UpdateTotalEnergyAverageUsage adds energy used by the current block to the
// moving average of the energy usage.
func (ep *EnergyProcessor) UpdateTotalEnergyAverageUsage() error {
	now, err := ep.HeadSlot()
	if err != nil {
		return err
	}
	blockUsage, err := ep.props.Uint64(properties.BlockEnergyUsage)
	if err != nil {
		return err
	}
	avgUsage, err := ep.props.Uint64(properties.TotalEnergyAverageUsage)
	if err != nil {
		return err
	}
	avgTime, err := ep.props.Uint64(properties.TotalEnergyAverageTime)
	if err != nil {
		return err
	}
	avg := usage.Increase(avgUsage, blockUsage, avgTime, now, properties.AverageWindowSize)
	if err := ep.props.SetUint64(properties.TotalEnergyAverageUsage, avg); err != nil {
		return err
	}
	return ep.props.SetUint64(properties.TotalEnergyAverageTime, now)
}

/*
UpdateAdaptiveTotalEnergyLimit contracts the current energy limit when the
average usage is above the target and expands it otherwise. The result is
kept within [TotalEnergyLimit, TotalEnergyLimit * AdaptiveResourceLimitMultiplier].
*/
func (ep *EnergyProcessor) UpdateAdaptiveTotalEnergyLimit() error {
	avgUsage, err := ep.props.Uint64(properties.TotalEnergyAverageUsage)
	if err != nil {
		return err
	}
	target, err := ep.props.Uint64(properties.TotalEnergyTargetLimit)
	if err != nil {
		return err
	}
	current, err := ep.props.Uint64(properties.TotalEnergyCurrentLimit)
	if err != nil {
		return err
	}
	total, err := ep.props.Uint64(properties.TotalEnergyLimit)
	if err != nil {
		return err
	}
	multiplier, err := ep.props.Uint64(properties.AdaptiveResourceLimitMultiplier)
	if err != nil {
		return err
	}

	v := uint256.NewInt(current)
	if avgUsage > target {
		v.Mul(v, uint256.NewInt(contractRateNumerator)).Div(v, uint256.NewInt(contractRateDenominator))
	} else {
		v.Mul(v, uint256.NewInt(expandRateNumerator)).Div(v, uint256.NewInt(expandRateDenominator))
	}
	if lower := uint256.NewInt(total); v.Lt(lower) {
		v.Set(lower)
	}
	if upper := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(multiplier)); v.Gt(upper) {
		v.Set(upper)
	}
	limit := v.Uint64()
	if !v.IsUint64() {
		limit = ^uint64(0)
	}
	if limit != current {
		ep.log.Debug(fmt.Sprintf("total energy current limit %d -> %d (average usage %d, target %d)", current, limit, avgUsage, target))
	}
	return ep.props.SetUint64(properties.TotalEnergyCurrentLimit, limit)
}

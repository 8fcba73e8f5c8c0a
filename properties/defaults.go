package properties

import (
	"fmt"

	"github.com/alphabill-org/resource-billing/resource/usage"
)

const (
	TrxPrecision = 1_000_000
	SunPerEnergy = 100

	defaultTotalNetLimit    = 43_200_000_000
	defaultTotalEnergyLimit = 50_000_000_000
	// adaptive energy averages usage over one minute of slots
	AverageWindowSize = 60 * 1000 / usage.BlockProducedInterval
)

// Values is a set of property values, ie the defaults installed at genesis.
type Values struct {
	Uint64 map[Uint64Key]uint64
	Bool   map[BoolKey]bool
}

// Defaults returns the values installed on the first startup of the node.
func Defaults() Values {
	return Values{
		Uint64: map[Uint64Key]uint64{
			TotalNetLimit:                    defaultTotalNetLimit,
			TotalNetWeight:                   0,
			FreeNetLimit:                     5000,
			PublicNetLimit:                   14_400_000_000,
			PublicNetUsage:                   0,
			PublicNetTime:                    0,
			TransactionFee:                   10,
			CreateAccountFee:                 100_000,
			CreateNewAccountBandwidthRate:    1,
			TotalEnergyLimit:                 defaultTotalEnergyLimit,
			TotalEnergyCurrentLimit:          defaultTotalEnergyLimit,
			TotalEnergyTargetLimit:           defaultTotalEnergyLimit / (usage.WindowSize / AverageWindowSize),
			TotalEnergyWeight:                0,
			TotalEnergyAverageUsage:          0,
			TotalEnergyAverageTime:           0,
			AdaptiveResourceLimitMultiplier:  1000,
			AdaptiveResourceLimitTargetRatio: 10,
			BlockEnergyUsage:                 0,
			EnergyFee:                        100,
			MaxCpuTimeOfOneTx:                80,
			TotalTransactionCost:             0,
			TotalCreateAccountCost:           0,
			TotalEnergyFee:                   0,
			BurnedFee:                        0,
			LatestBlockHeaderTimestamp:       0,
			LatestBlockHeaderNumber:          0,
		},
		Bool: map[BoolKey]bool{
			SupportVM:                  true,
			AllowTvmConstantinople:     false,
			AllowAdaptiveEnergy:        false,
			AllowBlackHoleOptimization: false,
			AllowOriginEnergyLimit:     true,
		},
	}
}

/*
Override sets the value of property "name" (bool properties are given as 0/1).
Returns error when there is no property with given name.
*/
func (v Values) Override(name string, value uint64) error {
	if _, ok := v.Uint64[Uint64Key(name)]; ok {
		v.Uint64[Uint64Key(name)] = value
		return nil
	}
	if _, ok := v.Bool[BoolKey(name)]; ok {
		if value > 1 {
			return fmt.Errorf("invalid value %d for flag %s, expected 0 or 1", value, name)
		}
		v.Bool[BoolKey(name)] = value == 1
		return nil
	}
	return fmt.Errorf("unknown dynamic property %q", name)
}

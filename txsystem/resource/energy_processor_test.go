package resource

import (
	"testing"

	teststate "github.com/alphabill-org/resource-billing/internal/testutils/state"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/resource/usage"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/stretchr/testify/require"
)

func TestEnergyProcessor_UseEnergy(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithUint64(properties.TotalEnergyCurrentLimit, 10_000))
	env.SetHeadSlot(t, headSlot)
	acc := env.AddAccount(t, addrA, 0, env.FrozenForEnergy(t, 5*properties.TrxPrecision))
	env.AddAccount(t, addrB, 0, env.FrozenForEnergy(t, 5*properties.TrxPrecision))
	ep := newEnergyProcessor(t, env)

	limit, err := ep.CalculateGlobalEnergyLimit(acc)
	require.NoError(t, err)
	require.EqualValues(t, 5000, limit)

	ok, err := ep.UseEnergy(acc, 3000, headSlot)
	require.NoError(t, err)
	require.True(t, ok)
	stored := env.Account(t, addrA)
	require.Equal(t, usage.NewCounter(3000, headSlot), stored.Energy)
	require.EqualValues(t, headSlot*env.Config.BlockInterval, stored.LatestOperationTime)

	left, err := ep.AccountLeftEnergyFromFreeze(stored)
	require.NoError(t, err)
	require.EqualValues(t, 2000, left)

	ok, err = ep.UseEnergy(stored, 2001, headSlot)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, usage.NewCounter(3000, headSlot), env.Account(t, addrA).Energy)

	// block usage is not tracked unless adaptive energy is enabled
	require.Zero(t, env.Uint64(t, properties.BlockEnergyUsage))
}

func TestEnergyProcessor_NoFrozenBalance(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, headSlot)
	acc := env.AddAccount(t, addrA, 100)
	ep := newEnergyProcessor(t, env)

	left, err := ep.AccountLeftEnergyFromFreeze(acc)
	require.NoError(t, err)
	require.Zero(t, left)
	ok, err := ep.UseEnergy(acc, 1, headSlot)
	require.NoError(t, err)
	require.False(t, ok)
	// using zero energy always succeeds
	ok, err = ep.UseEnergy(acc, 0, headSlot)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEnergyProcessor_UpdateUsage(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, usage.WindowSize)
	ep := newEnergyProcessor(t, env)

	acc := types.NewAccount(addrA, 0)
	acc.Energy = usage.NewCounter(4000, usage.WindowSize/4*3)
	require.NoError(t, ep.UpdateUsage(acc))
	require.Equal(t, usage.NewCounter(3000, usage.WindowSize), acc.Energy)
}

func TestEnergyProcessor_AdaptiveEnergy(t *testing.T) {
	env := teststate.NewEnv(t,
		teststate.WithBool(properties.AllowAdaptiveEnergy, true),
		teststate.WithUint64(properties.TotalEnergyLimit, 1_000_000),
		teststate.WithUint64(properties.TotalEnergyCurrentLimit, 2_000_000),
		teststate.WithUint64(properties.TotalEnergyTargetLimit, 500),
		teststate.WithUint64(properties.AdaptiveResourceLimitMultiplier, 3),
	)
	env.SetHeadSlot(t, headSlot)
	acc := env.AddAccount(t, addrA, 0, env.FrozenForEnergy(t, properties.TrxPrecision))
	ep := newEnergyProcessor(t, env)

	ok, err := ep.UseEnergy(acc, 400, headSlot)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, ep.AddBlockEnergyUsage(200))
	require.EqualValues(t, 600, env.Uint64(t, properties.BlockEnergyUsage))

	// average usage above the target: the limit contracts
	require.NoError(t, ep.UpdateTotalEnergyAverageUsage())
	require.EqualValues(t, 600, env.Uint64(t, properties.TotalEnergyAverageUsage))
	require.EqualValues(t, headSlot, env.Uint64(t, properties.TotalEnergyAverageTime))
	require.NoError(t, ep.UpdateAdaptiveTotalEnergyLimit())
	require.EqualValues(t, 1_980_000, env.Uint64(t, properties.TotalEnergyCurrentLimit))

	// average decays over the averaging window
	require.NoError(t, env.Props.SetUint64(properties.BlockEnergyUsage, 0))
	env.SetHeadSlot(t, headSlot+properties.AverageWindowSize/2)
	require.NoError(t, ep.UpdateTotalEnergyAverageUsage())
	require.EqualValues(t, 300, env.Uint64(t, properties.TotalEnergyAverageUsage))
	require.NoError(t, ep.UpdateAdaptiveTotalEnergyLimit())
	require.EqualValues(t, 1_980_000*1000/999, env.Uint64(t, properties.TotalEnergyCurrentLimit))
}

func TestEnergyProcessor_AdaptiveLimitBounds(t *testing.T) {
	var tests = []struct {
		name     string
		current  uint64
		average  uint64
		expected uint64
	}{
		{name: "contract below lower bound", current: 1_000_000, average: 1000, expected: 1_000_000},
		{name: "expand above upper bound", current: 3_000_000, average: 0, expected: 3_000_000},
		{name: "expand", current: 999_000, average: 0, expected: 1_000_000},
		{name: "contract", current: 3_000_000, average: 1000, expected: 2_970_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := teststate.NewEnv(t,
				teststate.WithUint64(properties.TotalEnergyLimit, 1_000_000),
				teststate.WithUint64(properties.TotalEnergyCurrentLimit, tt.current),
				teststate.WithUint64(properties.TotalEnergyAverageUsage, tt.average),
				teststate.WithUint64(properties.TotalEnergyTargetLimit, 500),
				teststate.WithUint64(properties.AdaptiveResourceLimitMultiplier, 3),
			)
			ep := newEnergyProcessor(t, env)
			require.NoError(t, ep.UpdateAdaptiveTotalEnergyLimit())
			require.Equal(t, tt.expected, env.Uint64(t, properties.TotalEnergyCurrentLimit))
		})
	}
}

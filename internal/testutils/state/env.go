package teststate

import (
	"testing"

	"github.com/alphabill-org/resource-billing/keyvaluedb/memorydb"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/stretchr/testify/require"
)

// BlackHole is the fee sink of the test chain.
var BlackHole = types.Address{0xbb}

// Env is the state of an in-memory test chain with the dynamic properties initialized.
type Env struct {
	State  *state.State
	Store  *store.Store
	Props  *properties.Properties
	Config properties.ChainConfig
}

type Option func(*properties.Values)

func WithUint64(k properties.Uint64Key, v uint64) Option {
	return func(values *properties.Values) {
		values.Uint64[k] = v
	}
}

func WithBool(k properties.BoolKey, v bool) Option {
	return func(values *properties.Values) {
		values.Bool[k] = v
	}
}

func NewEnv(t testing.TB, opts ...Option) *Env {
	t.Helper()
	s, err := state.New(memorydb.New())
	require.NoError(t, err)
	values := properties.Defaults()
	for _, o := range opts {
		o(&values)
	}
	props := properties.New(s)
	require.NoError(t, props.Initialize(values))
	cfg := properties.DefaultChainConfig()
	cfg.BlackHole = BlackHole
	return &Env{State: s, Store: store.New(s), Props: props, Config: cfg}
}

// SetHeadSlot sets the latest block timestamp so that the head slot of the chain is "slot".
func (e *Env) SetHeadSlot(t testing.TB, slot uint64) {
	t.Helper()
	ts := e.Config.GenesisTimestamp + slot*e.Config.BlockInterval
	require.NoError(t, e.Props.SetUint64(properties.LatestBlockHeaderTimestamp, ts))
}

// AddAccount stores new account with given balance, "mod" functions may
// change other fields of the account before it's stored.
func (e *Env) AddAccount(t testing.TB, addr types.Address, balance uint64, mod ...func(*types.Account)) *types.Account {
	t.Helper()
	acc := types.NewAccount(addr, 0)
	acc.Balance = balance
	for _, m := range mod {
		m(acc)
	}
	require.NoError(t, e.Store.PutAccount(acc))
	return acc
}

func (e *Env) Account(t testing.TB, addr types.Address) *types.Account {
	t.Helper()
	acc, err := e.Store.GetAccount(addr)
	require.NoError(t, err)
	return acc
}

func (e *Env) Uint64(t testing.TB, k properties.Uint64Key) uint64 {
	t.Helper()
	v, err := e.Props.Uint64(k)
	require.NoError(t, err)
	return v
}

// FrozenForBandwidth freezes "amount" for bandwidth and adds the weight to the network total.
func (e *Env) FrozenForBandwidth(t testing.TB, amount uint64) func(*types.Account) {
	return func(acc *types.Account) {
		acc.FrozenForBandwidth = amount
		require.NoError(t, e.Props.AddUint64(properties.TotalNetWeight, amount/properties.TrxPrecision))
	}
}

// FrozenForEnergy freezes "amount" for energy and adds the weight to the network total.
func (e *Env) FrozenForEnergy(t testing.TB, amount uint64) func(*types.Account) {
	return func(acc *types.Account) {
		acc.FrozenForEnergy = amount
		require.NoError(t, e.Props.AddUint64(properties.TotalEnergyWeight, amount/properties.TrxPrecision))
	}
}

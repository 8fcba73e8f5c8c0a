/*
Package resource implements metering of the network resources (bandwidth and
energy) consumed by the transactions.

Every account gets a share of the global resource limit proportional to the
balance it has frozen for the resource. The usage is tracked by decaying
counters so the share is effectively a rolling budget over the accounting
window.
*/
package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/holiman/uint256"
)

// Processor is the part shared by the bandwidth and energy processors.
type Processor struct {
	store  *store.Store
	props  *properties.Properties
	config properties.ChainConfig
	log    *slog.Logger
}

func newProcessor(s *store.Store, p *properties.Properties, cfg properties.ChainConfig, log *slog.Logger) (Processor, error) {
	if s == nil {
		return Processor{}, errors.New("store is nil")
	}
	if p == nil {
		return Processor{}, errors.New("dynamic properties are nil")
	}
	if log == nil {
		return Processor{}, errors.New("logger is nil")
	}
	if err := cfg.IsValid(); err != nil {
		return Processor{}, fmt.Errorf("invalid chain config: %w", err)
	}
	if err := p.CheckInitialized(); err != nil {
		return Processor{}, fmt.Errorf("dynamic properties not initialized: %w", err)
	}
	return Processor{store: s, props: p, config: cfg, log: log}, nil
}

// HeadSlot returns the slot of the latest block, the "now" of the decaying counters.
func (p *Processor) HeadSlot() (uint64, error) {
	return p.config.HeadSlot(p.props)
}

func (p *Processor) window() uint64 {
	return p.config.WindowSize
}

/*
ConsumeFee debits "fee" from the balance of the account. Returns false
(and leaves the account untouched) when the balance is not sufficient.

The fee is either burned or credited to the black hole account, the account
"acc" itself is not persisted, that's up to the caller.
*/
func (p *Processor) ConsumeFee(acc *types.Account, fee uint64) (bool, error) {
	if acc.Balance < fee {
		return false, nil
	}
	ts, err := p.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return false, err
	}
	acc.LatestOperationTime = ts
	if fee == 0 {
		return true, nil
	}
	burn, err := p.props.Bool(properties.AllowBlackHoleOptimization)
	if err != nil {
		return false, err
	}
	if burn {
		acc.Balance -= fee
		if err := p.props.AddUint64(properties.BurnedFee, fee); err != nil {
			return false, fmt.Errorf("burning fee: %w", err)
		}
		return true, nil
	}
	if acc.Address == p.config.BlackHole {
		return true, nil
	}
	acc.Balance -= fee
	if err := p.creditBlackHole(fee); err != nil {
		return false, fmt.Errorf("crediting black hole: %w", err)
	}
	return true, nil
}

func (p *Processor) creditBlackHole(amount uint64) error {
	bh, err := p.store.GetAccount(p.config.BlackHole)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		p.log.Warn("black hole account does not exist, creating it", logger.Address(p.config.BlackHole))
		bh = types.NewAccount(p.config.BlackHole, 0)
	}
	bh.Balance = addSat(bh.Balance, amount)
	return p.store.PutAccount(bh)
}

/*
globalLimit returns the share of "totalLimit" which belongs to the account
with "frozen" balance. Balance below TrxPrecision earns no share.
*/
func globalLimit(frozen, totalLimit, totalWeight uint64) uint64 {
	if frozen < properties.TrxPrecision || totalWeight == 0 {
		return 0
	}
	v := uint256.NewInt(frozen / properties.TrxPrecision)
	v.Mul(v, uint256.NewInt(totalLimit))
	v.Div(v, uint256.NewInt(totalWeight))
	if !v.IsUint64() {
		return totalLimit
	}
	return v.Uint64()
}

// mulFee returns a*b, when the product overflows uint64 the result saturates
// at math.MaxUint64 and false is returned.
func mulFee(a, b uint64) (uint64, bool) {
	v := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	if !v.IsUint64() {
		return ^uint64(0), false
	}
	return v.Uint64(), true
}

func addSat(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

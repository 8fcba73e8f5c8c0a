package properties

import (
	"errors"

	"github.com/alphabill-org/resource-billing/resource/usage"
	"github.com/alphabill-org/resource-billing/types"
)

// ChainConfig holds the parameters fixed at genesis. Loaded once and passed
// around by value, never modified.
type ChainConfig struct {
	GenesisTimestamp uint64 // ms
	BlockInterval    uint64 // ms
	WindowSize       uint64 // slots
	// BlackHole receives the fees unless burning is enabled by AllowBlackHoleOptimization.
	BlackHole types.Address
}

func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		BlockInterval: usage.BlockProducedInterval,
		WindowSize:    usage.WindowSize,
	}
}

func (c ChainConfig) IsValid() error {
	if c.BlockInterval == 0 {
		return errors.New("block interval must be greater than zero")
	}
	if c.WindowSize == 0 {
		return errors.New("window size must be greater than zero")
	}
	return nil
}

// Slot returns the slot number of the block with given timestamp.
func (c ChainConfig) Slot(timestamp uint64) uint64 {
	if timestamp <= c.GenesisTimestamp || c.BlockInterval == 0 {
		return 0
	}
	return (timestamp - c.GenesisTimestamp) / c.BlockInterval
}

// HeadSlot returns the slot of the latest block.
func (c ChainConfig) HeadSlot(p *Properties) (uint64, error) {
	ts, err := p.Uint64(LatestBlockHeaderTimestamp)
	if err != nil {
		return 0, err
	}
	return c.Slot(ts), nil
}

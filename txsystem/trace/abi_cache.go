package trace

import (
	"fmt"
	"strings"

	"github.com/alphabill-org/resource-billing/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultABICacheSize = 1024

/*
ABICache keeps parsed ABIs of the recently called contracts. The ABI of the
deployed contract never changes so contract address is the cache key.
*/
type ABICache struct {
	cache *lru.Cache[types.Address, *abi.ABI]
}

func NewABICache(size int) (*ABICache, error) {
	if size <= 0 {
		size = DefaultABICacheSize
	}
	c, err := lru.New[types.Address, *abi.ABI](size)
	if err != nil {
		return nil, fmt.Errorf("creating ABI cache: %w", err)
	}
	return &ABICache{cache: c}, nil
}

// Get returns parsed ABI of the contract, nil when the contract has no ABI.
// Nil cache parses the ABI on every call.
func (c *ABICache) Get(sc *types.SmartContract) (*abi.ABI, error) {
	if c != nil {
		if a, ok := c.cache.Get(sc.ContractAddress); ok {
			return a, nil
		}
	}
	a, err := parseABI(sc.ABI)
	if err != nil {
		return nil, fmt.Errorf("parsing ABI of contract %s: %w", sc.ContractAddress, err)
	}
	if c != nil {
		c.cache.Add(sc.ContractAddress, a)
	}
	return a, nil
}

func (c *ABICache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

func parseABI(s string) (*abi.ABI, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// isConstant returns true when "data" calls view or pure method of the ABI.
func isConstant(a *abi.ABI, data []byte) bool {
	if a == nil || len(data) < 4 {
		return false
	}
	m, err := a.MethodById(data[:4])
	if err != nil {
		return false
	}
	return m.IsConstant()
}

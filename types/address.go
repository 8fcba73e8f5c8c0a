package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type (
	// Address identifies an account (including contract accounts).
	Address = common.Address

	// AssetID identifies an issued asset (token).
	AssetID string
)

// AddressFromHex parses 0x prefixed hex string as address.
func AddressFromHex(s string) (Address, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("decoding address %q: %w", s, err)
	}
	if len(b) != common.AddressLength {
		return Address{}, fmt.Errorf("invalid address length %d, expected %d", len(b), common.AddressLength)
	}
	return common.BytesToAddress(b), nil
}

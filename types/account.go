package types

import (
	"github.com/alphabill-org/resource-billing/resource/usage"
)

const (
	AccountTypeNormal AccountType = iota
	AccountTypeAssetIssue
	AccountTypeContract
)

type (
	AccountType uint8

	/*
	Account is the mutable per address record read and written by the resource
	processors.

	All decaying counters keep the slot of the latest consumption next to the
	value (ie Bandwidth.LastTime is the "latest bandwidth consume time",
	FreeAssetBandwidth[id].LastTime is the "latest asset operation time").
	*/
	Account struct {
		_                   struct{} `cbor:",toarray"`
		Address             Address
		Type                AccountType
		Balance             uint64
		Assets              map[AssetID]uint64
		FrozenForBandwidth  uint64
		FrozenForEnergy     uint64
		Bandwidth           usage.Counter // self funded bandwidth
		FreeBandwidth       usage.Counter // drawn from the global free pool
		FreeAssetBandwidth  map[AssetID]usage.Counter
		Energy              usage.Counter
		LatestOperationTime uint64 // block timestamp (ms) of the latest resource consuming operation
		CreateTime          uint64
	}
)

func NewAccount(addr Address, createTime uint64) *Account {
	return &Account{
		Address:    addr,
		Type:       AccountTypeNormal,
		CreateTime: createTime,
	}
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Assets = copyMap(a.Assets)
	c.FreeAssetBandwidth = copyMap(a.FreeAssetBandwidth)
	return &c
}

// AssetBandwidth returns the issuer subsidized bandwidth usage counter of the asset.
func (a *Account) AssetBandwidth(id AssetID) usage.Counter {
	return a.FreeAssetBandwidth[id]
}

func (a *Account) SetAssetBandwidth(id AssetID, c usage.Counter) {
	if a.FreeAssetBandwidth == nil {
		a.FreeAssetBandwidth = make(map[AssetID]usage.Counter)
	}
	a.FreeAssetBandwidth[id] = c
}

func (a *Account) AssetBalance(id AssetID) uint64 {
	return a.Assets[id]
}

func (a *Account) SetAssetBalance(id AssetID, amount uint64) {
	if a.Assets == nil {
		a.Assets = make(map[AssetID]uint64)
	}
	a.Assets[id] = amount
}

func (t AccountType) String() string {
	switch t {
	case AccountTypeNormal:
		return "Normal"
	case AccountTypeAssetIssue:
		return "AssetIssue"
	case AccountTypeContract:
		return "Contract"
	default:
		return "Unknown"
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	result := make(map[K]V, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

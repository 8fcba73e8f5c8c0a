package types

import "github.com/alphabill-org/resource-billing/resource/usage"

/*
AssetIssue is the record of an issued asset. The issuer subsidizes bandwidth
of the asset transfers from two budgets: the public pool shared by all the
holders and the per holder allotment (the holder side counter is kept in
Account.FreeAssetBandwidth).
*/
type AssetIssue struct {
	_                             struct{} `cbor:",toarray"`
	ID                            AssetID
	Name                          string
	OwnerAddress                  Address
	TotalSupply                   uint64
	Precision                     uint32
	FreeAssetBandwidthLimit       uint64 // per holder cap
	PublicFreeAssetBandwidthLimit uint64
	PublicFreeAssetBandwidth      usage.Counter
}

func (a *AssetIssue) Copy() *AssetIssue {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

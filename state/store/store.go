/*
Package store implements per entity accessors (account by address, asset by
id, contract by address) on top of the state. A miss is always reported as
ErrNotFound, never as default valued record.
*/
package store

import (
	"fmt"

	"github.com/alphabill-org/resource-billing/state"
	"github.com/alphabill-org/resource-billing/types"
)

var ErrNotFound = state.ErrNotFound

const (
	accountPrefix  = "acc/"
	assetPrefix    = "asset/"
	contractPrefix = "sc/"
)

type (
	StateAccess interface {
		state.Reader
		Apply(actions ...state.Action) error
	}

	Store struct {
		s StateAccess
	}
)

func New(s StateAccess) *Store {
	return &Store{s: s}
}

func AccountKey(addr types.Address) []byte {
	return append([]byte(accountPrefix), addr.Bytes()...)
}

func AssetKey(id types.AssetID) []byte {
	return append([]byte(assetPrefix), id...)
}

func ContractKey(addr types.Address) []byte {
	return append([]byte(contractPrefix), addr.Bytes()...)
}

func (s *Store) GetAccount(addr types.Address) (*types.Account, error) {
	acc := &types.Account{}
	if err := s.get(AccountKey(addr), acc); err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	return acc, nil
}

func (s *Store) HasAccount(addr types.Address) (bool, error) {
	return s.s.Has(AccountKey(addr))
}

func (s *Store) PutAccount(acc *types.Account) error {
	return s.s.Apply(state.Set(AccountKey(acc.Address), acc))
}

func (s *Store) DeleteAccount(addr types.Address) error {
	return s.s.Apply(state.Delete(AccountKey(addr)))
}

func (s *Store) GetAssetIssue(id types.AssetID) (*types.AssetIssue, error) {
	asset := &types.AssetIssue{}
	if err := s.get(AssetKey(id), asset); err != nil {
		return nil, fmt.Errorf("asset %q: %w", id, err)
	}
	return asset, nil
}

func (s *Store) PutAssetIssue(asset *types.AssetIssue) error {
	return s.s.Apply(state.Set(AssetKey(asset.ID), asset))
}

func (s *Store) GetContract(addr types.Address) (*types.SmartContract, error) {
	sc := &types.SmartContract{}
	if err := s.get(ContractKey(addr), sc); err != nil {
		return nil, fmt.Errorf("contract %s: %w", addr, err)
	}
	return sc, nil
}

func (s *Store) HasContract(addr types.Address) (bool, error) {
	return s.s.Has(ContractKey(addr))
}

func (s *Store) PutContract(sc *types.SmartContract) error {
	return s.s.Apply(state.Set(ContractKey(sc.ContractAddress), sc))
}

func (s *Store) DeleteContract(addr types.Address) error {
	return s.s.Apply(state.Delete(ContractKey(addr)))
}

// PutAccounts stores all the accounts as single atomic change.
func (s *Store) PutAccounts(accounts ...*types.Account) error {
	actions := make([]state.Action, 0, len(accounts))
	for _, acc := range accounts {
		actions = append(actions, state.Set(AccountKey(acc.Address), acc))
	}
	return s.s.Apply(actions...)
}

func (s *Store) get(key []byte, v any) error {
	found, err := s.s.Get(key, v)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

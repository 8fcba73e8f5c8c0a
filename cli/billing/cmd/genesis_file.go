package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/types"
)

type (
	/*
	genesisFile describes the initial state of the chain:

		genesisTimestamp: 0
		blockInterval: 3000
		blackHole: "0x00000000000000000000000000000000000000bb"
		properties:
		  ALLOW_ADAPTIVE_ENERGY: 1
		accounts:
		  - address: "0x000000000000000000000000000000000000000a"
		    balance: 1000000000
		    frozenForEnergy: 10000000
	*/
	genesisFile struct {
		GenesisTimestamp uint64            `yaml:"genesisTimestamp"`
		BlockInterval    uint64            `yaml:"blockInterval"`
		WindowSize       uint64            `yaml:"windowSize"`
		BlackHole        string            `yaml:"blackHole"`
		Properties       map[string]uint64 `yaml:"properties"`
		Accounts         []genesisAccount  `yaml:"accounts"`
		Assets           []genesisAsset    `yaml:"assets"`
		Contracts        []genesisContract `yaml:"contracts"`
	}

	genesisAccount struct {
		Address            string            `yaml:"address"`
		Balance            uint64            `yaml:"balance"`
		FrozenForBandwidth uint64            `yaml:"frozenForBandwidth"`
		FrozenForEnergy    uint64            `yaml:"frozenForEnergy"`
		Assets             map[string]uint64 `yaml:"assets"`
	}

	genesisAsset struct {
		ID                            string `yaml:"id"`
		Name                          string `yaml:"name"`
		Owner                         string `yaml:"owner"`
		TotalSupply                   uint64 `yaml:"totalSupply"`
		Precision                     uint32 `yaml:"precision"`
		FreeAssetBandwidthLimit       uint64 `yaml:"freeAssetBandwidthLimit"`
		PublicFreeAssetBandwidthLimit uint64 `yaml:"publicFreeAssetBandwidthLimit"`
	}

	genesisContract struct {
		Address                    string `yaml:"address"`
		Origin                     string `yaml:"origin"`
		Name                       string `yaml:"name"`
		ABI                        string `yaml:"abi"`
		ConsumeUserResourcePercent uint64 `yaml:"consumeUserResourcePercent"`
		OriginEnergyLimit          uint64 `yaml:"originEnergyLimit"`
	}

	// chainConfigFile is the persisted form of properties.ChainConfig.
	chainConfigFile struct {
		GenesisTimestamp uint64 `yaml:"genesisTimestamp"`
		BlockInterval    uint64 `yaml:"blockInterval"`
		WindowSize       uint64 `yaml:"windowSize"`
		BlackHole        string `yaml:"blackHole"`
	}
)

func readYAMLFile(filename string, v any) error {
	f, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", filename, err)
	}
	return nil
}

func writeYAMLFile(filename string, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0600)
}

// chainConfig returns the chain config of the genesis, unset fields get the default value.
func (g *genesisFile) chainConfig() (properties.ChainConfig, error) {
	cfg := properties.DefaultChainConfig()
	cfg.GenesisTimestamp = g.GenesisTimestamp
	if g.BlockInterval != 0 {
		cfg.BlockInterval = g.BlockInterval
	}
	if g.WindowSize != 0 {
		cfg.WindowSize = g.WindowSize
	}
	if g.BlackHole != "" {
		addr, err := types.AddressFromHex(g.BlackHole)
		if err != nil {
			return cfg, fmt.Errorf("black hole: %w", err)
		}
		cfg.BlackHole = addr
	}
	return cfg, cfg.IsValid()
}

// propertyValues returns the defaults with the overrides of the genesis file applied.
func (g *genesisFile) propertyValues() (properties.Values, error) {
	values := properties.Defaults()
	names := maps.Keys(g.Properties)
	slices.Sort(names)
	var errs []error
	for _, name := range names {
		if err := values.Override(name, g.Properties[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return values, errors.Join(errs...)
}

func (a *genesisAccount) account(createTime uint64) (*types.Account, error) {
	addr, err := types.AddressFromHex(a.Address)
	if err != nil {
		return nil, err
	}
	acc := types.NewAccount(addr, createTime)
	acc.Balance = a.Balance
	acc.FrozenForBandwidth = a.FrozenForBandwidth
	acc.FrozenForEnergy = a.FrozenForEnergy
	for id, amount := range a.Assets {
		acc.SetAssetBalance(types.AssetID(id), amount)
	}
	return acc, nil
}

func (a *genesisAsset) assetIssue() (*types.AssetIssue, error) {
	if a.ID == "" {
		return nil, errors.New("asset id is empty")
	}
	owner, err := types.AddressFromHex(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner of asset %q: %w", a.ID, err)
	}
	return &types.AssetIssue{
		ID:                            types.AssetID(a.ID),
		Name:                          a.Name,
		OwnerAddress:                  owner,
		TotalSupply:                   a.TotalSupply,
		Precision:                     a.Precision,
		FreeAssetBandwidthLimit:       a.FreeAssetBandwidthLimit,
		PublicFreeAssetBandwidthLimit: a.PublicFreeAssetBandwidthLimit,
	}, nil
}

func (c *genesisContract) smartContract() (*types.SmartContract, error) {
	addr, err := types.AddressFromHex(c.Address)
	if err != nil {
		return nil, err
	}
	origin, err := types.AddressFromHex(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin of contract %s: %w", addr, err)
	}
	if c.ConsumeUserResourcePercent > 100 {
		return nil, fmt.Errorf("consume user resource percent of contract %s must be in range [0, 100]", addr)
	}
	return &types.SmartContract{
		ContractAddress:            addr,
		OriginAddress:              origin,
		Name:                       c.Name,
		ABI:                        c.ABI,
		ConsumeUserResourcePercent: c.ConsumeUserResourcePercent,
		OriginEnergyLimit:          c.OriginEnergyLimit,
	}, nil
}

func saveChainConfig(filename string, cfg properties.ChainConfig) error {
	return writeYAMLFile(filename, &chainConfigFile{
		GenesisTimestamp: cfg.GenesisTimestamp,
		BlockInterval:    cfg.BlockInterval,
		WindowSize:       cfg.WindowSize,
		BlackHole:        cfg.BlackHole.Hex(),
	})
}

func loadChainConfig(filename string) (properties.ChainConfig, error) {
	f := &chainConfigFile{}
	if err := readYAMLFile(filename, f); err != nil {
		return properties.ChainConfig{}, fmt.Errorf("reading chain config: %w", err)
	}
	bh, err := types.AddressFromHex(f.BlackHole)
	if err != nil {
		return properties.ChainConfig{}, fmt.Errorf("black hole: %w", err)
	}
	cfg := properties.ChainConfig{
		GenesisTimestamp: f.GenesisTimestamp,
		BlockInterval:    f.BlockInterval,
		WindowSize:       f.WindowSize,
		BlackHole:        bh,
	}
	return cfg, cfg.IsValid()
}

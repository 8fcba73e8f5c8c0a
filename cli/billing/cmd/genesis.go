package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/resource-billing/keyvaluedb/boltdb"
	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/types"
)

const flagNameGenesisFile = "genesis"

type genesisConfig struct {
	Base        *baseConfiguration
	GenesisFile string
}

func newGenesisCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &genesisConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "genesis",
		Short: "Creates the genesis state of the chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return genesisRunFun(cmd, config)
		},
	}
	cmd.Flags().StringVarP(&config.GenesisFile, flagNameGenesisFile, "g", "", "genesis file (yaml) with the chain config, dynamic properties and initial accounts")
	if err := cmd.MarkFlagRequired(flagNameGenesisFile); err != nil {
		panic(err)
	}
	return cmd
}

func genesisRunFun(cmd *cobra.Command, config *genesisConfig) error {
	gf := &genesisFile{}
	if err := readYAMLFile(config.GenesisFile, gf); err != nil {
		return fmt.Errorf("reading genesis file: %w", err)
	}
	chainCfg, err := gf.chainConfig()
	if err != nil {
		return fmt.Errorf("invalid chain config: %w", err)
	}
	values, err := gf.propertyValues()
	if err != nil {
		return fmt.Errorf("invalid dynamic properties: %w", err)
	}

	if err := os.MkdirAll(config.Base.HomeDir, 0700); err != nil {
		return fmt.Errorf("creating home directory: %w", err)
	}
	dbFile := config.Base.stateDBFile()
	if _, err := os.Stat(dbFile); err == nil {
		return fmt.Errorf("state database %s already exists", dbFile)
	}
	db, err := boltdb.New(dbFile)
	if err != nil {
		return err
	}
	err = writeGenesisState(db, gf, chainCfg, values)
	if err = errors.Join(err, db.Close()); err != nil {
		return errors.Join(fmt.Errorf("writing genesis state: %w", err), os.Remove(dbFile))
	}
	if err := saveChainConfig(config.Base.chainConfigFile(), chainCfg); err != nil {
		return fmt.Errorf("saving chain config: %w", err)
	}
	config.Base.log.Info(fmt.Sprintf("genesis state with %d accounts created", len(gf.Accounts)), logger.Data(dbFile))
	fmt.Fprintln(cmd.OutOrStdout(), "Genesis state written to", dbFile)
	return nil
}

func writeGenesisState(db *boltdb.BoltDB, gf *genesisFile, cfg properties.ChainConfig, values properties.Values) error {
	s, err := state.New(db)
	if err != nil {
		return err
	}
	props := properties.New(s)
	if err := props.Initialize(values); err != nil {
		return fmt.Errorf("installing dynamic properties: %w", err)
	}
	if err := props.SetUint64(properties.LatestBlockHeaderTimestamp, cfg.GenesisTimestamp); err != nil {
		return err
	}
	st := store.New(s)

	for i := range gf.Accounts {
		acc, err := gf.Accounts[i].account(cfg.GenesisTimestamp)
		if err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
		exists, err := st.HasAccount(acc.Address)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("duplicate account %s", acc.Address)
		}
		if err := errors.Join(
			props.AddUint64(properties.TotalNetWeight, acc.FrozenForBandwidth/properties.TrxPrecision),
			props.AddUint64(properties.TotalEnergyWeight, acc.FrozenForEnergy/properties.TrxPrecision),
			st.PutAccount(acc),
		); err != nil {
			return fmt.Errorf("account %s: %w", acc.Address, err)
		}
	}
	if exists, err := st.HasAccount(cfg.BlackHole); err != nil {
		return err
	} else if !exists {
		if err := st.PutAccount(types.NewAccount(cfg.BlackHole, cfg.GenesisTimestamp)); err != nil {
			return fmt.Errorf("black hole account: %w", err)
		}
	}

	for i := range gf.Assets {
		asset, err := gf.Assets[i].assetIssue()
		if err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
		if err := st.PutAssetIssue(asset); err != nil {
			return err
		}
	}
	for i := range gf.Contracts {
		sc, err := gf.Contracts[i].smartContract()
		if err != nil {
			return fmt.Errorf("contract %d: %w", i, err)
		}
		acc := types.NewAccount(sc.ContractAddress, cfg.GenesisTimestamp)
		acc.Type = types.AccountTypeContract
		if err := errors.Join(st.PutAccount(acc), st.PutContract(sc)); err != nil {
			return fmt.Errorf("contract %s: %w", sc.ContractAddress, err)
		}
	}
	return s.Commit()
}

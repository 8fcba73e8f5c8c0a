package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/types"
)

type (
	// accountResources is the resource usage of the account decayed to the head slot.
	accountResources struct {
		Address         types.Address            `json:"address"`
		Balance         uint64                   `json:"balance"`
		Assets          map[types.AssetID]uint64 `json:"assets,omitempty"`
		NetLimit        uint64                   `json:"netLimit"`
		NetUsed         uint64                   `json:"netUsed"`
		FreeNetLimit    uint64                   `json:"freeNetLimit"`
		FreeNetUsed     uint64                   `json:"freeNetUsed"`
		EnergyLimit     uint64                   `json:"energyLimit"`
		EnergyUsed      uint64                   `json:"energyUsed"`
		FrozenBandwidth uint64                   `json:"frozenForBandwidth"`
		FrozenEnergy    uint64                   `json:"frozenForEnergy"`
		LatestOperation uint64                   `json:"latestOperationTime"`
	}
)

func newAccountCmd(baseConfig *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "account <address>",
		Short: "Prints the resource usage of the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountRunFun(cmd, baseConfig, args[0])
		},
	}
	return cmd
}

func accountRunFun(cmd *cobra.Command, base *baseConfiguration, address string) (rErr error) {
	addr, err := types.AddressFromHex(address)
	if err != nil {
		return err
	}
	n, err := openNode(base)
	if err != nil {
		return err
	}
	defer func() { rErr = errors.Join(rErr, n.Close()) }()

	acc, err := n.txs.Account(addr)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	netLimit, energyLimit, err := n.txs.AccountResources(acc)
	if err != nil {
		return fmt.Errorf("calculating resource limits: %w", err)
	}
	freeNetLimit, err := properties.New(n.state).Uint64(properties.FreeNetLimit)
	if err != nil {
		return err
	}

	if err := printJSON(cmd, &accountResources{
		Address:         acc.Address,
		Balance:         acc.Balance,
		Assets:          acc.Assets,
		NetLimit:        netLimit,
		NetUsed:         acc.Bandwidth.Value,
		FreeNetLimit:    freeNetLimit,
		FreeNetUsed:     acc.FreeBandwidth.Value,
		EnergyLimit:     energyLimit,
		EnergyUsed:      acc.Energy.Value,
		FrozenBandwidth: acc.FrozenForBandwidth,
		FrozenEnergy:    acc.FrozenForEnergy,
		LatestOperation: acc.LatestOperationTime,
	}); err != nil {
		return fmt.Errorf("encoding account: %w", err)
	}
	return nil
}

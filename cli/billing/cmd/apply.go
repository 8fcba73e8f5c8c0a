package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/txsystem"
)

const (
	flagNameBlockFile = "block"
	flagNameValidate  = "validate"
)

type (
	applyConfig struct {
		Base      *baseConfiguration
		BlockFile string
		// the block was produced by a peer, recorded results are checked
		Validate bool
	}

	applyResult struct {
		Number       uint64                        `json:"number"`
		Timestamp    uint64                        `json:"timestamp"`
		Transactions []*txsystem.TransactionRecord `json:"transactions"`
	}
)

func newApplyCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &applyConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "apply",
		Short: "Applies block of transactions to the state and prints the receipts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyRunFun(cmd, config)
		},
	}
	cmd.Flags().StringVarP(&config.BlockFile, flagNameBlockFile, "b", "", "block file (yaml)")
	cmd.Flags().BoolVar(&config.Validate, flagNameValidate, false, "validate block of a peer: any failed transaction or result mismatch rejects the block")
	if err := cmd.MarkFlagRequired(flagNameBlockFile); err != nil {
		panic(err)
	}
	return cmd
}

func applyRunFun(cmd *cobra.Command, config *applyConfig) (rErr error) {
	bf := &blockFile{}
	if err := readYAMLFile(config.BlockFile, bf); err != nil {
		return fmt.Errorf("reading block file: %w", err)
	}
	block, err := bf.block()
	if err != nil {
		return fmt.Errorf("invalid block: %w", err)
	}

	n, err := openNode(config.Base)
	if err != nil {
		return err
	}
	defer func() { rErr = errors.Join(rErr, n.Close()) }()

	records, err := n.txs.ApplyBlock(cmd.Context(), block, config.Validate)
	if err != nil {
		return fmt.Errorf("applying block %d: %w", block.GetNumber(), err)
	}
	config.Base.log.Debug(fmt.Sprintf("block %d applied", block.GetNumber()), logger.Round(block.GetNumber()), logger.Data(n.txs.Metrics().Snapshot()))

	if err := printJSON(cmd, &applyResult{
		Number:       block.GetNumber(),
		Timestamp:    block.Header.Timestamp,
		Transactions: records,
	}); err != nil {
		return fmt.Errorf("encoding receipts: %w", err)
	}
	return nil
}

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	testlogger "github.com/alphabill-org/resource-billing/internal/testutils/logger"
	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/types"
)

var (
	addrA     = types.Address{0xa}
	addrB     = types.Address{0xb}
	blackHole = types.Address{0xbb}
)

func loggerBuilder(t *testing.T) LoggerFactory {
	return func(cfg *logger.LogConfiguration) (*slog.Logger, error) {
		return testlogger.New(t), nil
	}
}

// execute runs the CLI with space separated arguments "args".
func execute(t *testing.T, args string) error {
	_, err := executeOut(t, args)
	return err
}

// executeOut runs the CLI and returns what the command printed.
func executeOut(t *testing.T, args string) (string, error) {
	out := &bytes.Buffer{}
	app := New(loggerBuilder(t))
	app.baseCmd.SetOut(out)
	app.baseCmd.SetArgs(strings.Split(args, " "))
	err := app.addAndExecuteCommand(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0600))
	return fn
}

func genesisYAML(props string) string {
	return fmt.Sprintf(`genesisTimestamp: 0
blockInterval: 3000
blackHole: "%s"
properties:
%s
accounts:
  - address: "%s"
    balance: 1000000
    frozenForBandwidth: 2000000
  - address: "%s"
    balance: 0
assets:
  - id: TOKEN
    name: Token
    owner: "%s"
    totalSupply: 1000
    freeAssetBandwidthLimit: 1000
    publicFreeAssetBandwidthLimit: 10000
`, blackHole.Hex(), props, addrA.Hex(), addrB.Hex(), addrA.Hex())
}

// setupGenesis creates the genesis state into new home directory.
func setupGenesis(t *testing.T) string {
	t.Helper()
	homeDir := t.TempDir()
	gf := writeFile(t, t.TempDir(), "genesis.yaml", genesisYAML("  TRANSACTION_FEE: 20"))
	out, err := executeOut(t, "genesis --home "+homeDir+" -g "+gf)
	require.NoError(t, err)
	require.Equal(t, "Genesis state written to "+filepath.Join(homeDir, stateDBFileName)+"\n", out)
	return homeDir
}

func transferBlockYAML(number, amount uint64) string {
	return fmt.Sprintf(`number: %d
timestamp: %d
transactions:
  - feeLimit: 1000000
    timestamp: 1
    contracts:
      - type: TransferContract
        owner: "%s"
        to: "%s"
        amount: %d
`, number, number*3000, addrA.Hex(), addrB.Hex(), amount)
}

package resource

import (
	"math"
	"testing"

	teststate "github.com/alphabill-org/resource-billing/internal/testutils/state"
	testtransaction "github.com/alphabill-org/resource-billing/internal/testutils/transaction"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/resource/usage"
	txtypes "github.com/alphabill-org/resource-billing/txsystem/types"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/stretchr/testify/require"
)

var (
	addrA = types.Address{0xa}
	addrB = types.Address{0xb}
	addrC = types.Address{0xc}
)

const headSlot = 1000

func TestBandwidthProcessor_FreeNet(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithUint64(properties.PublicNetLimit, 10000))
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := txOfSize(t, 300, testtransaction.WithTransfer(addrA, addrB, 0))
	receipt := types.NewReceipt()
	require.NoError(t, bp.Consume(tx, receipt))

	acc := env.Account(t, addrA)
	require.Equal(t, usage.NewCounter(300, headSlot), acc.FreeBandwidth)
	require.True(t, acc.Bandwidth.IsZero())
	require.Zero(t, acc.Balance)
	require.EqualValues(t, 300, env.Uint64(t, properties.PublicNetUsage))
	require.EqualValues(t, headSlot, env.Uint64(t, properties.PublicNetTime))
	require.EqualValues(t, 300, receipt.NetUsage)
	require.Zero(t, receipt.NetFee)
	require.Zero(t, env.Uint64(t, properties.TotalTransactionCost))
}

func TestBandwidthProcessor_FreeNetExhausted(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithUint64(properties.PublicNetLimit, 10000))
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrA, addrB, 0), testtransaction.WithData(make([]byte, 20000)))
	bytes := chargedBytes(t, tx)
	err := bp.Consume(tx, types.NewReceipt())
	require.ErrorIs(t, err, txtypes.ErrAccountResourceInsufficient)
	var insufficient *txtypes.AccountResourceInsufficientError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, bytes, insufficient.Bytes)
	require.Equal(t, bytes*10, insufficient.Fee)

	// nothing was consumed
	acc := env.Account(t, addrA)
	require.True(t, acc.FreeBandwidth.IsZero())
	require.Zero(t, env.Uint64(t, properties.PublicNetUsage))
}

func TestBandwidthProcessor_NoFundingSource(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithUint64(properties.FreeNetLimit, 0))
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrA, addrB, 1))
	require.ErrorIs(t, bp.Consume(tx, types.NewReceipt()), txtypes.ErrAccountResourceInsufficient)
}

func TestBandwidthProcessor_PublicPoolExhausted(t *testing.T) {
	env := teststate.NewEnv(t,
		teststate.WithUint64(properties.PublicNetLimit, 1000),
		teststate.WithUint64(properties.PublicNetUsage, 900),
		teststate.WithUint64(properties.PublicNetTime, headSlot),
	)
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 1_000_000)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := txOfSize(t, 250, testtransaction.WithTransfer(addrA, addrB, 0))
	receipt := types.NewReceipt()
	require.NoError(t, bp.Consume(tx, receipt))
	// free allotment of the account had room but the public pool didn't
	acc := env.Account(t, addrA)
	require.True(t, acc.FreeBandwidth.IsZero())
	require.EqualValues(t, 1_000_000-2500, acc.Balance)
	require.EqualValues(t, 2500, receipt.NetFee)
	require.EqualValues(t, 900, env.Uint64(t, properties.PublicNetUsage))
}

func TestBandwidthProcessor_TransactionFee(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithUint64(properties.FreeNetLimit, 100))
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 1_000_000)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := txOfSize(t, 400, testtransaction.WithTransfer(addrA, addrB, 0))
	receipt := types.NewReceipt()
	require.NoError(t, bp.Consume(tx, receipt))

	const fee = 400 * 10
	acc := env.Account(t, addrA)
	require.EqualValues(t, 1_000_000-fee, acc.Balance)
	require.True(t, acc.FreeBandwidth.IsZero())
	require.EqualValues(t, headSlot*env.Config.BlockInterval, acc.LatestOperationTime)
	require.EqualValues(t, fee, receipt.NetFee)
	require.Zero(t, receipt.NetUsage)
	require.EqualValues(t, fee, env.Uint64(t, properties.TotalTransactionCost))
	require.EqualValues(t, fee, env.Account(t, teststate.BlackHole).Balance)
}

func TestBandwidthProcessor_TransactionFeeOverflow(t *testing.T) {
	env := teststate.NewEnv(t,
		teststate.WithUint64(properties.FreeNetLimit, 0),
		teststate.WithUint64(properties.TransactionFee, 1<<63),
	)
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, math.MaxUint64)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrA, addrB, 1))
	bytes := chargedBytes(t, tx)
	err := bp.Consume(tx, types.NewReceipt())
	require.ErrorIs(t, err, txtypes.ErrAccountResourceInsufficient)
	var insufficient *txtypes.AccountResourceInsufficientError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, bytes, insufficient.Bytes)
	require.EqualValues(t, uint64(math.MaxUint64), insufficient.Fee)
	require.ErrorContains(t, err, "overflows")

	require.EqualValues(t, uint64(math.MaxUint64), env.Account(t, addrA).Balance)
	require.Zero(t, env.Uint64(t, properties.TotalTransactionCost))
}

func TestBandwidthProcessor_AccountNet(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0, env.FrozenForBandwidth(t, 10*properties.TrxPrecision))
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := txOfSize(t, 250, testtransaction.WithTransfer(addrA, addrB, 0))
	receipt := types.NewReceipt()
	require.NoError(t, bp.Consume(tx, receipt))

	acc := env.Account(t, addrA)
	require.Equal(t, usage.NewCounter(250, headSlot), acc.Bandwidth)
	require.True(t, acc.FreeBandwidth.IsZero())
	require.EqualValues(t, 250, receipt.NetUsage)
	require.Zero(t, env.Uint64(t, properties.PublicNetUsage))
}

func TestBandwidthProcessor_AccountNetDecays(t *testing.T) {
	const now = usage.WindowSize
	env := teststate.NewEnv(t, teststate.WithUint64(properties.TotalNetLimit, 1000))
	env.SetHeadSlot(t, now)
	env.AddAccount(t, addrA, 0, env.FrozenForBandwidth(t, properties.TrxPrecision), func(a *types.Account) {
		// the whole limit was used half a window ago
		a.Bandwidth = usage.NewCounter(1000, now/2)
	})
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := txOfSize(t, 300, testtransaction.WithTransfer(addrA, addrB, 0))
	require.NoError(t, bp.Consume(tx, types.NewReceipt()))
	require.Equal(t, usage.NewCounter(800, now), env.Account(t, addrA).Bandwidth)

	// no room for another 300 bytes, paid from free bandwidth
	tx = txOfSize(t, 300, testtransaction.WithTransfer(addrA, addrB, 0))
	require.NoError(t, bp.Consume(tx, types.NewReceipt()))
	acc := env.Account(t, addrA)
	require.Equal(t, usage.NewCounter(800, now), acc.Bandwidth)
	require.Equal(t, usage.NewCounter(300, now), acc.FreeBandwidth)
}

func TestBandwidthProcessor_CreateNewAccount(t *testing.T) {
	t.Run("paid from bandwidth with multiplier", func(t *testing.T) {
		env := teststate.NewEnv(t, teststate.WithUint64(properties.CreateNewAccountBandwidthRate, 3))
		env.SetHeadSlot(t, headSlot)
		env.AddAccount(t, addrA, 500_000, env.FrozenForBandwidth(t, 10*properties.TrxPrecision))
		bp := newBandwidthProcessor(t, env)

		tx := txOfSize(t, 300, testtransaction.WithTransfer(addrA, addrC, 1))
		receipt := types.NewReceipt()
		require.NoError(t, bp.Consume(tx, receipt))

		acc := env.Account(t, addrA)
		require.Equal(t, usage.NewCounter(900, headSlot), acc.Bandwidth)
		require.EqualValues(t, 500_000, acc.Balance)
		require.EqualValues(t, 900, receipt.NetUsage)
		require.Zero(t, env.Uint64(t, properties.TotalCreateAccountCost))
	})

	t.Run("paid by account creation fee", func(t *testing.T) {
		env := teststate.NewEnv(t)
		env.SetHeadSlot(t, headSlot)
		env.AddAccount(t, addrA, 500_000)
		bp := newBandwidthProcessor(t, env)

		tx := testtransaction.NewTransaction(t, testtransaction.WithContract(types.AccountCreateContractType, &types.AccountCreateContract{Owner: addrA, Account: addrC}))
		receipt := types.NewReceipt()
		require.NoError(t, bp.Consume(tx, receipt))

		acc := env.Account(t, addrA)
		require.EqualValues(t, 400_000, acc.Balance)
		// free bandwidth is not used for account creation
		require.True(t, acc.FreeBandwidth.IsZero())
		require.EqualValues(t, 100_000, receipt.NetFee)
		require.Zero(t, receipt.NetUsage)
		require.EqualValues(t, 100_000, env.Uint64(t, properties.TotalCreateAccountCost))
		require.Zero(t, env.Uint64(t, properties.TotalTransactionCost))
	})

	t.Run("insufficient", func(t *testing.T) {
		env := teststate.NewEnv(t)
		env.SetHeadSlot(t, headSlot)
		env.AddAccount(t, addrA, 99_999)
		bp := newBandwidthProcessor(t, env)

		tx := testtransaction.NewTransaction(t, testtransaction.WithAssetTransfer("TKN", addrA, addrC, 1))
		err := bp.Consume(tx, types.NewReceipt())
		var insufficient *txtypes.AccountResourceInsufficientError
		require.ErrorAs(t, err, &insufficient)
		require.EqualValues(t, 100_000, insufficient.Fee)
		require.EqualValues(t, 99_999, env.Account(t, addrA).Balance)
	})
}

func TestBandwidthProcessor_AssetNet(t *testing.T) {
	const assetID types.AssetID = "TKN"
	newEnv := func(t *testing.T) *teststate.Env {
		env := teststate.NewEnv(t)
		env.SetHeadSlot(t, headSlot)
		// issuer and holder both have bandwidth
		env.AddAccount(t, addrA, 0, env.FrozenForBandwidth(t, 10*properties.TrxPrecision))
		env.AddAccount(t, addrB, 0, env.FrozenForBandwidth(t, 10*properties.TrxPrecision))
		env.AddAccount(t, addrC, 0)
		require.NoError(t, env.Store.PutAssetIssue(&types.AssetIssue{
			ID:                            assetID,
			OwnerAddress:                  addrA,
			TotalSupply:                   1000,
			FreeAssetBandwidthLimit:       1000,
			PublicFreeAssetBandwidthLimit: 5000,
		}))
		return env
	}

	t.Run("holder uses subsidy", func(t *testing.T) {
		env := newEnv(t)
		bp := newBandwidthProcessor(t, env)
		tx := txOfSize(t, 300, testtransaction.WithAssetTransfer(assetID, addrB, addrC, 1))
		receipt := types.NewReceipt()
		require.NoError(t, bp.Consume(tx, receipt))

		holder := env.Account(t, addrB)
		require.Equal(t, usage.NewCounter(300, headSlot), holder.AssetBandwidth(assetID))
		require.True(t, holder.Bandwidth.IsZero())
		require.True(t, holder.FreeBandwidth.IsZero())
		require.Equal(t, usage.NewCounter(300, headSlot), env.Account(t, addrA).Bandwidth)
		asset, err := env.Store.GetAssetIssue(assetID)
		require.NoError(t, err)
		require.Equal(t, usage.NewCounter(300, headSlot), asset.PublicFreeAssetBandwidth)
		require.EqualValues(t, 300, receipt.NetUsage)
	})

	t.Run("per holder limit exhausted", func(t *testing.T) {
		env := newEnv(t)
		bp := newBandwidthProcessor(t, env)
		tx := txOfSize(t, 1001, testtransaction.WithAssetTransfer(assetID, addrB, addrC, 1))
		require.NoError(t, bp.Consume(tx, types.NewReceipt()))

		// paid from holder's own bandwidth
		holder := env.Account(t, addrB)
		require.True(t, holder.AssetBandwidth(assetID).IsZero())
		require.Equal(t, usage.NewCounter(1001, headSlot), holder.Bandwidth)
		require.True(t, env.Account(t, addrA).Bandwidth.IsZero())
	})

	t.Run("issuer transfers own asset", func(t *testing.T) {
		env := newEnv(t)
		bp := newBandwidthProcessor(t, env)
		tx := txOfSize(t, 300, testtransaction.WithAssetTransfer(assetID, addrA, addrC, 1))
		require.NoError(t, bp.Consume(tx, types.NewReceipt()))

		issuer := env.Account(t, addrA)
		require.Equal(t, usage.NewCounter(300, headSlot), issuer.Bandwidth)
		require.Empty(t, issuer.FreeAssetBandwidth)
		asset, err := env.Store.GetAssetIssue(assetID)
		require.NoError(t, err)
		require.True(t, asset.PublicFreeAssetBandwidth.IsZero())
	})

	t.Run("unknown asset", func(t *testing.T) {
		env := newEnv(t)
		bp := newBandwidthProcessor(t, env)
		tx := testtransaction.NewTransaction(t, testtransaction.WithAssetTransfer("FOO", addrB, addrC, 1))
		require.ErrorIs(t, bp.Consume(tx, types.NewReceipt()), txtypes.ErrContractValidate)
	})
}

func TestBandwidthProcessor_MultipleContracts(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := testtransaction.NewTransaction(t,
		testtransaction.WithTransfer(addrA, addrB, 0),
		testtransaction.WithTransfer(addrB, addrA, 0),
	)
	size, err := tx.SizeWithoutResults()
	require.NoError(t, err)
	receipt := types.NewReceipt()
	require.NoError(t, bp.Consume(tx, receipt))

	// every contract adds the result allowance to the charged bytes
	first := uint64(size) + MaxResultSizeInTx
	second := first + MaxResultSizeInTx
	require.EqualValues(t, first, env.Account(t, addrA).FreeBandwidth.Value)
	require.EqualValues(t, second, env.Account(t, addrB).FreeBandwidth.Value)
	require.Equal(t, first+second, receipt.NetUsage)
	require.Equal(t, first+second, env.Uint64(t, properties.PublicNetUsage))
}

func TestBandwidthProcessor_Validation(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	t.Run("owner does not exist", func(t *testing.T) {
		tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrA, addrB, 1))
		require.ErrorIs(t, bp.Consume(tx, types.NewReceipt()), txtypes.ErrContractValidate)
	})

	t.Run("result too big", func(t *testing.T) {
		tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrB, addrA, 1))
		tx.Ret = make([]*types.TransactionResult, 10)
		for i := range tx.Ret {
			tx.Ret[i] = &types.TransactionResult{Fee: 1 << 60, ContractRet: types.ResultOK}
		}
		err := bp.Consume(tx, types.NewReceipt())
		require.ErrorIs(t, err, txtypes.ErrContractValidate)
		var tooBig *txtypes.TooBigTransactionResultError
		require.ErrorAs(t, err, &tooBig)
		require.Equal(t, MaxResultSizeInTx, tooBig.Limit)
	})

	t.Run("invalid parameter", func(t *testing.T) {
		tx := testtransaction.NewTransaction(t)
		tx.RawData.Contracts = []*types.Contract{{Type: types.TransferContractType, Parameter: []byte{0x05}}}
		require.ErrorIs(t, bp.Consume(tx, types.NewReceipt()), txtypes.ErrContractValidate)
	})
}

func TestBandwidthProcessor_WithoutVMSupport(t *testing.T) {
	env := teststate.NewEnv(t, teststate.WithBool(properties.SupportVM, false))
	env.SetHeadSlot(t, headSlot)
	env.AddAccount(t, addrA, 0)
	env.AddAccount(t, addrB, 0)
	bp := newBandwidthProcessor(t, env)

	tx := testtransaction.NewTransaction(t, testtransaction.WithTransfer(addrA, addrB, 0), testtransaction.WithResult(types.ResultOK))
	size, err := tx.Size()
	require.NoError(t, err)
	require.NoError(t, bp.Consume(tx, types.NewReceipt()))
	require.EqualValues(t, size, env.Account(t, addrA).FreeBandwidth.Value)
}

func TestBandwidthProcessor_UpdateUsage(t *testing.T) {
	env := teststate.NewEnv(t)
	env.SetHeadSlot(t, usage.WindowSize)
	bp := newBandwidthProcessor(t, env)

	acc := types.NewAccount(addrA, 0)
	acc.Bandwidth = usage.NewCounter(1000, usage.WindowSize/2)
	acc.FreeBandwidth = usage.NewCounter(1000, usage.WindowSize/4)
	acc.SetAssetBandwidth("X", usage.NewCounter(1000, 0))
	acc.SetAssetBandwidth("Y", usage.NewCounter(1000, usage.WindowSize))

	require.NoError(t, bp.UpdateUsage(acc))
	require.Equal(t, usage.NewCounter(500, usage.WindowSize), acc.Bandwidth)
	require.Equal(t, usage.NewCounter(250, usage.WindowSize), acc.FreeBandwidth)
	require.Equal(t, usage.NewCounter(0, usage.WindowSize), acc.AssetBandwidth("X"))
	require.Equal(t, usage.NewCounter(1000, usage.WindowSize), acc.AssetBandwidth("Y"))

	// observing again doesn't change anything
	require.NoError(t, bp.UpdateUsage(acc))
	require.Equal(t, usage.NewCounter(500, usage.WindowSize), acc.Bandwidth)
}

package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/resource/usage"
	"github.com/alphabill-org/resource-billing/state/store"
	txtypes "github.com/alphabill-org/resource-billing/txsystem/types"
	"github.com/alphabill-org/resource-billing/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MaxResultSizeInTx is the size allowance of the execution result of single contract.
const MaxResultSizeInTx = 64

// NetBill receives the bandwidth bill of the contracts of the transaction.
type NetBill interface {
	AddNetBill(usage, fee uint64)
}

/*
BandwidthProcessor charges the transactions for their serialized size.

Bytes of every contract are paid for by the first funding source which can
cover them: bandwidth of the account (or account creation fee when the
contract creates a new account), asset issuer's subsidy (asset transfers),
the global free bandwidth and finally the balance of the account.
*/
type BandwidthProcessor struct {
	Processor
}

func NewBandwidthProcessor(s *store.Store, p *properties.Properties, cfg properties.ChainConfig, log *slog.Logger) (*BandwidthProcessor, error) {
	proc, err := newProcessor(s, p, cfg, log)
	if err != nil {
		return nil, err
	}
	return &BandwidthProcessor{Processor: proc}, nil
}

/*
UpdateUsage decays the bandwidth counters of the account to the head slot,
no consumption is added. The account is not persisted.
*/
func (bp *BandwidthProcessor) UpdateUsage(acc *types.Account) error {
	now, err := bp.HeadSlot()
	if err != nil {
		return err
	}
	acc.Bandwidth = acc.Bandwidth.Commit(now, 0, bp.window())
	acc.FreeBandwidth = acc.FreeBandwidth.Commit(now, 0, bp.window())
	ids := maps.Keys(acc.FreeAssetBandwidth)
	slices.Sort(ids)
	for _, id := range ids {
		acc.SetAssetBandwidth(id, acc.AssetBandwidth(id).Commit(now, 0, bp.window()))
	}
	return nil
}

// CalculateGlobalNetLimit returns the bandwidth limit of the account earned by freezing balance.
func (bp *BandwidthProcessor) CalculateGlobalNetLimit(acc *types.Account) (uint64, error) {
	totalLimit, err := bp.props.Uint64(properties.TotalNetLimit)
	if err != nil {
		return 0, err
	}
	totalWeight, err := bp.props.Uint64(properties.TotalNetWeight)
	if err != nil {
		return 0, err
	}
	return globalLimit(acc.FrozenForBandwidth, totalLimit, totalWeight), nil
}

/*
Consume charges the bandwidth of the transaction, the bill of every contract
is added to "bill". Returns ErrContractValidate when results of the
transaction are too big or owner of a contract doesn't exist and
AccountResourceInsufficientError when no funding source could cover the bytes.
*/
func (bp *BandwidthProcessor) Consume(tx *types.Transaction, bill NetBill) error {
	contracts := tx.Contracts()
	resultSize, err := tx.ResultSize()
	if err != nil {
		return err
	}
	if limit := MaxResultSizeInTx * len(contracts); resultSize > limit {
		return &txtypes.TooBigTransactionResultError{Size: resultSize, Limit: limit}
	}

	supportVM, err := bp.props.Bool(properties.SupportVM)
	if err != nil {
		return err
	}
	var size int
	if supportVM {
		size, err = tx.SizeWithoutResults()
	} else {
		size, err = tx.Size()
	}
	if err != nil {
		return err
	}
	bytes := uint64(size)

	now, err := bp.HeadSlot()
	if err != nil {
		return err
	}
	for _, c := range contracts {
		if supportVM {
			bytes += MaxResultSizeInTx
		}
		param, err := c.DecodeParameter()
		if err != nil {
			return txtypes.ContractValidate("%v", err)
		}
		if err := bp.consumeContract(c.Type, param, bytes, now, bill); err != nil {
			return err
		}
	}
	return nil
}

func (bp *BandwidthProcessor) consumeContract(typ types.ContractType, param types.OwnerProvider, bytes, now uint64, bill NetBill) error {
	acc, err := bp.store.GetAccount(param.OwnerAddress())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return txtypes.ContractValidate("account %s does not exist", param.OwnerAddress())
		}
		return err
	}

	createsAccount, err := bp.createsNewAccount(param)
	if err != nil {
		return err
	}
	if createsAccount {
		return bp.consumeForCreateNewAccount(acc, bytes, now, bill)
	}

	var paid bool
	if ta, ok := param.(*types.TransferAssetContract); ok {
		if paid, err = bp.useAssetAccountNet(acc, ta.AssetID, bytes, now); err != nil {
			return err
		}
	}
	if !paid {
		if paid, err = bp.useAccountNet(acc, bytes, now); err != nil {
			return err
		}
	}
	if !paid {
		if paid, err = bp.useFreeNet(acc, bytes, now); err != nil {
			return err
		}
	}
	if paid {
		bill.AddNetBill(bytes, 0)
		return nil
	}

	txFee, err := bp.props.Uint64(properties.TransactionFee)
	if err != nil {
		return err
	}
	fee, ok := mulFee(bytes, txFee)
	if !ok {
		return &txtypes.AccountResourceInsufficientError{
			Bytes: bytes,
			Fee:   fee,
			Msg:   fmt.Sprintf("account %s has insufficient bandwidth and the fee of %d bytes at rate %d overflows", acc.Address, bytes, txFee),
		}
	}
	if paid, err = bp.useTransactionFee(acc, fee); err != nil {
		return err
	}
	if paid {
		bp.log.Debug(fmt.Sprintf("%s bandwidth paid from balance: %d bytes, fee %d", typ, bytes, fee), logger.Address(acc.Address))
		bill.AddNetBill(0, fee)
		return nil
	}

	return &txtypes.AccountResourceInsufficientError{
		Bytes: bytes,
		Fee:   fee,
		Msg:   fmt.Sprintf("account %s has insufficient bandwidth and balance %d to create transaction", acc.Address, acc.Balance),
	}
}

// createsNewAccount returns true when execution of the contract creates a new account.
func (bp *BandwidthProcessor) createsNewAccount(param types.OwnerProvider) (bool, error) {
	var to types.Address
	switch p := param.(type) {
	case *types.AccountCreateContract:
		return true, nil
	case *types.TransferContract:
		to = p.To
	case *types.TransferAssetContract:
		to = p.To
	default:
		return false, nil
	}
	exists, err := bp.store.HasAccount(to)
	return !exists, err
}

func (bp *BandwidthProcessor) consumeForCreateNewAccount(acc *types.Account, bytes, now uint64, bill NetBill) error {
	rate, err := bp.props.Uint64(properties.CreateNewAccountBandwidthRate)
	if err != nil {
		return err
	}
	netLimit, err := bp.CalculateGlobalNetLimit(acc)
	if err != nil {
		return err
	}
	if cost, ok := mulFee(bytes, rate); ok && cost <= usage.Left(netLimit, acc.Bandwidth.Advance(now, bp.window())) {
		if err := bp.commitAccountNet(acc, cost, now); err != nil {
			return err
		}
		bill.AddNetBill(cost, 0)
		return nil
	}

	fee, err := bp.props.Uint64(properties.CreateAccountFee)
	if err != nil {
		return err
	}
	paid, err := bp.ConsumeFee(acc, fee)
	if err != nil {
		return err
	}
	if !paid {
		return &txtypes.AccountResourceInsufficientError{
			Bytes: bytes,
			Fee:   fee,
			Msg:   fmt.Sprintf("account %s has insufficient bandwidth and balance to create new account", acc.Address),
		}
	}
	if err := bp.store.PutAccount(acc); err != nil {
		return err
	}
	if err := bp.props.AddUint64(properties.TotalCreateAccountCost, fee); err != nil {
		return err
	}
	bp.log.Debug(fmt.Sprintf("new account creation paid from balance: fee %d", fee), logger.Address(acc.Address))
	bill.AddNetBill(0, fee)
	return nil
}

/*
useAssetAccountNet draws the bytes from the asset issuer's subsidy: the public
pool of the asset, the per holder allotment and the bandwidth of the issuer
all must have room for the bytes. Transfers by the issuer itself are not
subsidized.
*/
func (bp *BandwidthProcessor) useAssetAccountNet(acc *types.Account, id types.AssetID, bytes, now uint64) (bool, error) {
	asset, err := bp.store.GetAssetIssue(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, txtypes.ContractValidate("asset %q does not exist", id)
		}
		return false, err
	}
	if asset.OwnerAddress == acc.Address {
		return false, nil
	}

	w := bp.window()
	if bytes > usage.Left(asset.PublicFreeAssetBandwidthLimit, asset.PublicFreeAssetBandwidth.Advance(now, w)) {
		bp.log.Debug(fmt.Sprintf("public free bandwidth of asset %q is exhausted", id), logger.Address(acc.Address))
		return false, nil
	}
	holderUsage := acc.AssetBandwidth(id)
	if bytes > usage.Left(asset.FreeAssetBandwidthLimit, holderUsage.Advance(now, w)) {
		bp.log.Debug(fmt.Sprintf("free bandwidth of asset %q is exhausted", id), logger.Address(acc.Address))
		return false, nil
	}
	issuer, err := bp.store.GetAccount(asset.OwnerAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, txtypes.ContractValidate("issuer %s of the asset %q does not exist", asset.OwnerAddress, id)
		}
		return false, err
	}
	issuerLimit, err := bp.CalculateGlobalNetLimit(issuer)
	if err != nil {
		return false, err
	}
	if bytes > usage.Left(issuerLimit, issuer.Bandwidth.Advance(now, w)) {
		bp.log.Debug(fmt.Sprintf("issuer of asset %q has insufficient bandwidth", id), logger.Address(issuer.Address))
		return false, nil
	}

	ts, err := bp.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return false, err
	}
	issuer.Bandwidth = issuer.Bandwidth.Commit(now, bytes, w)
	acc.SetAssetBandwidth(id, holderUsage.Commit(now, bytes, w))
	acc.LatestOperationTime = ts
	asset.PublicFreeAssetBandwidth = asset.PublicFreeAssetBandwidth.Commit(now, bytes, w)

	if err := bp.store.PutAccounts(issuer, acc); err != nil {
		return false, err
	}
	if err := bp.store.PutAssetIssue(asset); err != nil {
		return false, err
	}
	return true, nil
}

func (bp *BandwidthProcessor) useAccountNet(acc *types.Account, bytes, now uint64) (bool, error) {
	netLimit, err := bp.CalculateGlobalNetLimit(acc)
	if err != nil {
		return false, err
	}
	if bytes > usage.Left(netLimit, acc.Bandwidth.Advance(now, bp.window())) {
		return false, nil
	}
	return true, bp.commitAccountNet(acc, bytes, now)
}

func (bp *BandwidthProcessor) commitAccountNet(acc *types.Account, bytes, now uint64) error {
	ts, err := bp.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return err
	}
	acc.Bandwidth = acc.Bandwidth.Commit(now, bytes, bp.window())
	acc.LatestOperationTime = ts
	return bp.store.PutAccount(acc)
}

// useFreeNet draws the bytes from the free bandwidth allotment of the account
// and the public pool of the network.
func (bp *BandwidthProcessor) useFreeNet(acc *types.Account, bytes, now uint64) (bool, error) {
	w := bp.window()
	freeLimit, err := bp.props.Uint64(properties.FreeNetLimit)
	if err != nil {
		return false, err
	}
	if bytes > usage.Left(freeLimit, acc.FreeBandwidth.Advance(now, w)) {
		return false, nil
	}

	publicLimit, err := bp.props.Uint64(properties.PublicNetLimit)
	if err != nil {
		return false, err
	}
	publicUsage, err := bp.props.Uint64(properties.PublicNetUsage)
	if err != nil {
		return false, err
	}
	publicTime, err := bp.props.Uint64(properties.PublicNetTime)
	if err != nil {
		return false, err
	}
	public := usage.NewCounter(publicUsage, publicTime)
	if bytes > usage.Left(publicLimit, public.Advance(now, w)) {
		bp.log.Debug("public free bandwidth is exhausted", logger.Address(acc.Address))
		return false, nil
	}

	ts, err := bp.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return false, err
	}
	acc.FreeBandwidth = acc.FreeBandwidth.Commit(now, bytes, w)
	acc.LatestOperationTime = ts
	public = public.Commit(now, bytes, w)
	if err := bp.props.SetUint64(properties.PublicNetUsage, public.Value); err != nil {
		return false, err
	}
	if err := bp.props.SetUint64(properties.PublicNetTime, public.LastTime); err != nil {
		return false, err
	}
	return true, bp.store.PutAccount(acc)
}

func (bp *BandwidthProcessor) useTransactionFee(acc *types.Account, fee uint64) (bool, error) {
	paid, err := bp.ConsumeFee(acc, fee)
	if err != nil || !paid {
		return false, err
	}
	if err := bp.store.PutAccount(acc); err != nil {
		return false, err
	}
	return true, bp.props.AddUint64(properties.TotalTransactionCost, fee)
}

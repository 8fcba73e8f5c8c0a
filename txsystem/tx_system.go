package txsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alphabill-org/resource-billing/internal/metrics"
	"github.com/alphabill-org/resource-billing/logger"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/state"
	"github.com/alphabill-org/resource-billing/state/store"
	"github.com/alphabill-org/resource-billing/txsystem/resource"
	"github.com/alphabill-org/resource-billing/txsystem/runtime"
	"github.com/alphabill-org/resource-billing/txsystem/trace"
	"github.com/alphabill-org/resource-billing/types"
	"github.com/ethereum/go-ethereum/common"
)

var _ TransactionSystem = (*TxSystem)(nil)

var ErrBlockNotStarted = errors.New("block is not started")

type (
	TransactionSystem interface {
		BeginBlock(header *types.BlockHeader, validate bool) error
		Execute(ctx context.Context, tx *types.Transaction) (*TransactionRecord, error)
		EndBlock() error
		Commit() error
		Revert()
	}

	// TransactionRecord is the outcome of the successfully executed transaction.
	TransactionRecord struct {
		TxID           common.Hash          `json:"txId"`
		Receipt        *types.Receipt       `json:"receipt"`
		TimeResultType trace.TimeResultType `json:"timeResultType"`
		Retried        bool                 `json:"retried,omitempty"`
	}

	/*
	TxSystem processes the transactions of a block: every transaction gets a
	trace which meters and bills it. Changes of each transaction are kept in a
	savepoint of the state so failed transaction leaves no trace in the block.
	*/
	TxSystem struct {
		state     *state.State
		store     *store.Store
		props     *properties.Properties
		bandwidth *resource.BandwidthProcessor
		energy    *resource.EnergyProcessor
		rtEnv     *runtime.Env
		traceOpts []trace.Option
		metrics   *metrics.Metrics
		log       *slog.Logger

		header         *types.BlockHeader
		validate       bool // block of a peer is being validated against the recorded results
		roundCommitted bool
	}
)

/*
NewTxSystem returns block processor working on state "s". Dynamic properties
must have been initialized (see properties.Initialize).
*/
func NewTxSystem(s *state.State, opts ...Option) (*TxSystem, error) {
	if s == nil {
		return nil, errors.New("state is nil")
	}
	options := DefaultOptions()
	for _, o := range opts {
		o(options)
	}
	if options.metrics == nil {
		options.metrics = metrics.New(nil)
	}

	st := store.New(s)
	props := properties.New(s)
	bp, err := resource.NewBandwidthProcessor(st, props, options.chainConfig, options.log)
	if err != nil {
		return nil, fmt.Errorf("creating bandwidth processor: %w", err)
	}
	ep, err := resource.NewEnergyProcessor(st, props, options.chainConfig, options.log)
	if err != nil {
		return nil, fmt.Errorf("creating energy processor: %w", err)
	}
	abiCache, err := trace.NewABICache(options.abiCacheSize)
	if err != nil {
		return nil, err
	}
	return &TxSystem{
		state:     s,
		store:     st,
		props:     props,
		bandwidth: bp,
		energy:    ep,
		rtEnv: &runtime.Env{
			State:       s,
			Store:       st,
			Props:       props,
			Energy:      ep,
			Interpreter: options.interpreter,
			Executors:   options.executors,
			Log:         options.log,
		},
		traceOpts: append([]trace.Option{trace.WithABICache(abiCache)}, options.traceOptions...),
		metrics:   options.metrics,
		log:       options.log,
	}, nil
}

func (m *TxSystem) Metrics() *metrics.Metrics { return m.metrics }

/*
BeginBlock starts processing of the block. When "validate" is true the block
has been produced by a peer and the results recorded in its transactions are
checked against local execution.
*/
func (m *TxSystem) BeginBlock(header *types.BlockHeader, validate bool) error {
	if header == nil {
		return errors.New("block header is nil")
	}
	latest, err := m.props.Uint64(properties.LatestBlockHeaderTimestamp)
	if err != nil {
		return err
	}
	if header.Timestamp < latest {
		return fmt.Errorf("block timestamp %d is before the latest block timestamp %d", header.Timestamp, latest)
	}
	if err := errors.Join(
		m.props.SetUint64(properties.LatestBlockHeaderTimestamp, header.Timestamp),
		m.props.SetUint64(properties.LatestBlockHeaderNumber, header.Number),
		m.props.SetUint64(properties.BlockEnergyUsage, 0),
	); err != nil {
		return fmt.Errorf("updating block properties: %w", err)
	}
	m.header = header
	m.validate = validate
	m.roundCommitted = false
	return nil
}

/*
Execute meters, executes and bills the transaction "tx". When error is
returned all the changes made by the transaction have been rolled back and the
transaction must not be included into the block.
*/
func (m *TxSystem) Execute(ctx context.Context, tx *types.Transaction) (rec *TransactionRecord, rErr error) {
	if m.header == nil {
		return nil, ErrBlockNotStarted
	}
	createAccountCost, err := m.props.Uint64(properties.TotalCreateAccountCost)
	if err != nil {
		return nil, err
	}

	savepointID := m.state.Savepoint()
	defer func() {
		if rErr != nil {
			// revert every change made by the transaction
			m.state.RollbackToSavepoint(savepointID)
			metrics.Add(m.metrics.TxFailed, 1)
			m.log.Debug("transaction execution failed", logger.Error(rErr), logger.Round(m.header.Number))
			return
		}
		m.state.ReleaseToSavepoint(savepointID)
		m.recordMetrics(rec.Receipt, createAccountCost)
	}()

	tr, err := m.run(ctx, tx)
	if err != nil {
		return nil, err
	}
	retried := false
	if m.validate {
		if tr.CheckNeedRetry() {
			m.log.Info("transaction ran out of time, executing again", logger.TxID(tr.TxID()), logger.Round(m.header.Number))
			m.state.RollbackToSavepoint(savepointID)
			savepointID = m.state.Savepoint()
			metrics.Add(m.metrics.TxRetried, 1)
			if tr, err = m.run(ctx, tx); err != nil {
				return nil, err
			}
			retried = true
		}
		if err := tr.Check(); err != nil {
			return nil, err
		}
	}
	if err := tr.Finalization(); err != nil {
		return nil, err
	}
	if !m.validate {
		code := tr.Receipt().Result
		if tr.TrxType() == runtime.TrxPrecompiled {
			code = types.ResultOK
		}
		tx.SetResult(tr.Receipt().Fee(), code)
	}
	return &TransactionRecord{
		TxID:           tr.TxID(),
		Receipt:        tr.Receipt(),
		TimeResultType: tr.TimeResultType(),
		Retried:        retried,
	}, nil
}

// run takes the transaction through the trace up to the result classification.
func (m *TxSystem) run(ctx context.Context, tx *types.Transaction) (*trace.Trace, error) {
	tr, err := trace.New(m.rtEnv, tx, m.traceOpts...)
	if err != nil {
		return nil, err
	}
	if err := tr.Init(m.header); err != nil {
		return nil, err
	}
	if err := tr.CheckIsConstant(); err != nil {
		return nil, err
	}
	if err := m.bandwidth.Consume(tx, tr.Receipt()); err != nil {
		return nil, fmt.Errorf("consuming bandwidth: %w", err)
	}
	if err := tr.Exec(ctx); err != nil {
		return nil, err
	}
	return tr, tr.SetResult()
}

func (m *TxSystem) recordMetrics(r *types.Receipt, createAccountCostBefore uint64) {
	metrics.Add(m.metrics.TxExecuted, 1)
	metrics.Add(m.metrics.NetUsage, r.NetUsage)
	metrics.Add(m.metrics.NetFee, r.NetFee)
	metrics.Add(m.metrics.EnergyUsage, r.EnergyUsageTotal)
	metrics.Add(m.metrics.EnergyFee, r.EnergyFee)
	if cost, err := m.props.Uint64(properties.TotalCreateAccountCost); err == nil && cost > createAccountCostBefore {
		metrics.Add(m.metrics.CreateAccountFee, cost-createAccountCostBefore)
	}
}

// EndBlock updates the adaptive energy limit with the energy used by the block.
func (m *TxSystem) EndBlock() error {
	if m.header == nil {
		return ErrBlockNotStarted
	}
	adaptive, err := m.props.Bool(properties.AllowAdaptiveEnergy)
	if err != nil || !adaptive {
		return err
	}
	if err := m.energy.UpdateTotalEnergyAverageUsage(); err != nil {
		return fmt.Errorf("updating energy average usage: %w", err)
	}
	if err := m.energy.UpdateAdaptiveTotalEnergyLimit(); err != nil {
		return fmt.Errorf("updating adaptive energy limit: %w", err)
	}
	return nil
}

// Commit persists the changes of the block.
func (m *TxSystem) Commit() error {
	if err := m.state.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	m.roundCommitted = true
	m.header = nil
	return nil
}

// Revert discards the changes of the current (uncommitted) block.
func (m *TxSystem) Revert() {
	m.header = nil
	if m.roundCommitted {
		return
	}
	m.state.Revert()
}

/*
ApplyBlock executes all the transactions of the block and commits the result.
Failed transactions are dropped from the produced block, when validating
block of a peer any failure rejects the whole block.
*/
func (m *TxSystem) ApplyBlock(ctx context.Context, b *types.Block, validate bool) (_ []*TransactionRecord, rErr error) {
	if b == nil {
		return nil, errors.New("block is nil")
	}
	if err := m.BeginBlock(b.Header, validate); err != nil {
		return nil, err
	}
	defer func() {
		if rErr != nil {
			m.Revert()
		}
	}()

	records := make([]*TransactionRecord, 0, len(b.Transactions))
	included := make([]*types.Transaction, 0, len(b.Transactions))
	for i, tx := range b.Transactions {
		rec, err := m.Execute(ctx, tx)
		if err != nil {
			if validate {
				return nil, fmt.Errorf("transaction %d: %w", i, err)
			}
			m.log.Warn(fmt.Sprintf("dropping transaction %d", i), logger.Error(err), logger.Round(b.GetNumber()))
			continue
		}
		records = append(records, rec)
		included = append(included, tx)
	}
	if err := m.EndBlock(); err != nil {
		return nil, err
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}
	b.Transactions = included
	return records, nil
}

/*
Account returns the account with its resource counters decayed to the head
slot. Read only, the decayed counters are not persisted.
*/
func (m *TxSystem) Account(addr types.Address) (*types.Account, error) {
	acc, err := m.store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if err := m.bandwidth.UpdateUsage(acc); err != nil {
		return nil, fmt.Errorf("updating bandwidth usage: %w", err)
	}
	if err := m.energy.UpdateUsage(acc); err != nil {
		return nil, fmt.Errorf("updating energy usage: %w", err)
	}
	return acc, nil
}

// AccountResources returns the limits of the account earned by freezing balance.
func (m *TxSystem) AccountResources(acc *types.Account) (netLimit, energyLimit uint64, err error) {
	if netLimit, err = m.bandwidth.CalculateGlobalNetLimit(acc); err != nil {
		return 0, 0, err
	}
	if energyLimit, err = m.energy.CalculateGlobalEnergyLimit(acc); err != nil {
		return 0, 0, err
	}
	return netLimit, energyLimit, nil
}

package trace

import (
	"time"

	"github.com/alphabill-org/resource-billing/txsystem/runtime"
	"github.com/alphabill-org/resource-billing/types"
)

const DefaultLongRunningTime = 10 * time.Millisecond

type (
	Options struct {
		longRunningTime time.Duration
		maxTxTime       time.Duration // zero means MaxCpuTimeOfOneTx property
		newRuntime      RuntimeFactory
		abiCache        *ABICache
		now             func() time.Time
	}

	Option func(*Options)

	// RuntimeFactory creates the runtime the trace executes the transaction with.
	RuntimeFactory func(env *runtime.Env, tx *types.Transaction, header *types.BlockHeader) (runtime.Runtime, error)
)

func DefaultOptions() *Options {
	return &Options{
		longRunningTime: DefaultLongRunningTime,
		newRuntime: func(env *runtime.Env, tx *types.Transaction, header *types.BlockHeader) (runtime.Runtime, error) {
			return runtime.New(env, tx, header)
		},
		now: time.Now,
	}
}

// WithLongRunningTime sets the wall clock time after which VM transaction is
// marked as long running.
func WithLongRunningTime(d time.Duration) Option {
	return func(o *Options) {
		o.longRunningTime = d
	}
}

// WithMaxTxTime overrides the MaxCpuTimeOfOneTx property as the deadline of
// the VM execution.
func WithMaxTxTime(d time.Duration) Option {
	return func(o *Options) {
		o.maxTxTime = d
	}
}

func WithRuntimeFactory(f RuntimeFactory) Option {
	return func(o *Options) {
		if f != nil {
			o.newRuntime = f
		}
	}
}

// WithABICache makes the trace use shared cache of parsed contract ABIs.
func WithABICache(c *ABICache) Option {
	return func(o *Options) {
		o.abiCache = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}

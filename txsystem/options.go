package txsystem

import (
	"log/slog"

	"github.com/alphabill-org/resource-billing/internal/metrics"
	"github.com/alphabill-org/resource-billing/properties"
	"github.com/alphabill-org/resource-billing/txsystem/runtime"
	"github.com/alphabill-org/resource-billing/txsystem/trace"
)

type Options struct {
	chainConfig  properties.ChainConfig
	interpreter  runtime.Interpreter
	executors    runtime.TxExecutors
	traceOptions []trace.Option
	abiCacheSize int
	metrics      *metrics.Metrics
	log          *slog.Logger
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		chainConfig:  properties.DefaultChainConfig(),
		executors:    runtime.DefaultExecutors(),
		abiCacheSize: trace.DefaultABICacheSize,
		log:          slog.Default(),
	}
}

func WithChainConfig(cfg properties.ChainConfig) Option {
	return func(o *Options) {
		o.chainConfig = cfg
	}
}

// WithInterpreter sets the virtual machine smart contracts are executed by,
// without one VM transactions are rejected.
func WithInterpreter(i runtime.Interpreter) Option {
	return func(o *Options) {
		o.interpreter = i
	}
}

// WithExecutors replaces the handlers of the precompiled contracts.
func WithExecutors(e runtime.TxExecutors) Option {
	return func(o *Options) {
		o.executors = e
	}
}

func WithTraceOptions(opts ...trace.Option) Option {
	return func(o *Options) {
		o.traceOptions = append(o.traceOptions, opts...)
	}
}

func WithABICacheSize(size int) Option {
	return func(o *Options) {
		o.abiCacheSize = size
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.metrics = m
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *Options) {
		if log != nil {
			o.log = log
		}
	}
}

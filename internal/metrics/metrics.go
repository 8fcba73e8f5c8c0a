/*
Package metrics keeps the running counters of the billing engine (fees charged,
transactions executed) in a go-ethereum metrics registry.
*/
package metrics

import (
	"github.com/ethereum/go-ethereum/metrics"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const namespace = "billing/"

type Metrics struct {
	registry metrics.Registry

	NetUsage         metrics.Counter
	NetFee           metrics.Counter
	CreateAccountFee metrics.Counter
	EnergyUsage      metrics.Counter
	EnergyFee        metrics.Counter
	TxExecuted       metrics.Counter
	TxFailed         metrics.Counter
	TxRetried        metrics.Counter
}

// New registers the counters in "r", when nil a new registry is created.
func New(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	counter := func(name string) metrics.Counter {
		// forced counters work regardless of the metrics.Enabled flag
		return metrics.GetOrRegisterCounterForced(namespace+name, r)
	}
	return &Metrics{
		registry:         r,
		NetUsage:         counter("net/usage"),
		NetFee:           counter("net/fee"),
		CreateAccountFee: counter("net/create_account_fee"),
		EnergyUsage:      counter("energy/usage"),
		EnergyFee:        counter("energy/fee"),
		TxExecuted:       counter("tx/executed"),
		TxFailed:         counter("tx/failed"),
		TxRetried:        counter("tx/retried"),
	}
}

func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}

// Snapshot returns current values of all the counters in the registry.
func (m *Metrics) Snapshot() map[string]int64 {
	r := make(map[string]int64)
	m.registry.Each(func(name string, v interface{}) {
		if c, ok := v.(metrics.Counter); ok {
			r[name] = c.Count()
		}
	})
	return r
}

// Names returns sorted names of the registered metrics.
func (m *Metrics) Names() []string {
	names := maps.Keys(m.registry.GetAll())
	slices.Sort(names)
	return names
}

// Add increments counter by "v", values which do not fit into int64 are capped.
func Add(c metrics.Counter, v uint64) {
	if v > 1<<63-1 {
		v = 1<<63 - 1
	}
	c.Inc(int64(v))
}

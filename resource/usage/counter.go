/*
Package usage implements the decaying usage counter shared by all metered
resources (bandwidth, free bandwidth, per asset free bandwidth, public pools
and energy).

A counter is a pair of the usage value and the slot it was last updated at.
The usage decays linearly to zero over a fixed window of slots, so every
quota bounded by it is effectively a rolling budget over that window without
storing a time series. Consumption is a two step protocol:

	used := c.Advance(now, window)     // observe, does not change c
	if amount <= usage.Left(limit, used) {
		c = c.Commit(now, amount, window) // new value, LastTime == now
	}
*/
package usage

import (
	"math"

	"github.com/holiman/uint256"
)

const (
	// BlockProducedInterval is the block interval in milliseconds.
	BlockProducedInterval = 3000
	// WindowSize is the count of slots in 24 hours of block time.
	WindowSize = 24 * 3600 * 1000 / BlockProducedInterval
)

// Counter is an immutable decaying usage value.
type Counter struct {
	_        struct{} `cbor:",toarray"`
	Value    uint64
	LastTime uint64 // slot of the last committed consumption
}

// NewCounter returns a counter with given value last updated at slot "lastTime".
func NewCounter(value, lastTime uint64) Counter {
	return Counter{Value: value, LastTime: lastTime}
}

/*
Advance returns the usage remaining at slot "now" after the decay, the
counter itself is not modified.
*/
func (c Counter) Advance(now, window uint64) uint64 {
	return Increase(c.Value, 0, c.LastTime, now, window)
}

/*
Commit returns a new counter where "delta" is added to the decayed value and
LastTime is set to "now".
*/
func (c Counter) Commit(now, delta, window uint64) Counter {
	return Counter{Value: Increase(c.Value, delta, c.LastTime, now, window), LastTime: now}
}

// IsZero returns true when both the value and timestamp are unset.
func (c Counter) IsZero() bool {
	return c.Value == 0 && c.LastTime == 0
}

/*
Increase decays "oldUsage" (last updated at "lastTime") linearly over "window"
slots up to "now" and adds "delta" to the result:

	decayed = oldUsage * max(0, window - (now - lastTime)) / window

When "now" is not after "lastTime" the old usage is not decayed at all. The
result saturates at math.MaxUint64.
*/
func Increase(oldUsage, delta, lastTime, now, window uint64) uint64 {
	decayed := oldUsage
	if now > lastTime {
		elapsed := now - lastTime
		if window == 0 || elapsed >= window {
			decayed = 0
		} else {
			v := new(uint256.Int).SetUint64(oldUsage)
			v.Mul(v, uint256.NewInt(window-elapsed))
			v.Div(v, uint256.NewInt(window))
			decayed = v.Uint64()
		}
	}
	return addSat(decayed, delta)
}

/*
Left returns how much of the "limit" is not used, zero when the usage exceeds
the limit (ie the limit was lowered after the usage was committed).
*/
func Left(limit, used uint64) uint64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

/*
Package properties implements the dynamic configuration: named economic
parameters, feature flags and running totals kept in the state under "dp/"
keys. All the properties get their default value installed exactly once by
Initialize and reading a property which has not been installed is an error.
*/
package properties

import (
	"errors"
	"fmt"
	"math"

	"github.com/alphabill-org/resource-billing/state"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const keyPrefix = "dp/"

var ErrPropertyNotFound = errors.New("dynamic property not found")

type (
	StateAccess interface {
		state.Reader
		Apply(actions ...state.Action) error
	}

	Properties struct {
		s StateAccess
	}
)

func New(s StateAccess) *Properties {
	return &Properties{s: s}
}

func key(name string) []byte {
	return []byte(keyPrefix + name)
}

/*
Initialize installs the values of the properties which are not present in
the state yet. Already installed properties keep their current value.
*/
func (p *Properties) Initialize(v Values) error {
	var actions []state.Action
	add := func(name string, value uint64) error {
		exists, err := p.s.Has(key(name))
		if err != nil {
			return err
		}
		if !exists {
			actions = append(actions, state.Set(key(name), value))
		}
		return nil
	}
	// sorted for deterministic write order
	for _, k := range sortedKeys(v.Uint64) {
		if err := add(string(k), v.Uint64[k]); err != nil {
			return fmt.Errorf("installing %s: %w", k, err)
		}
	}
	for _, k := range sortedKeys(v.Bool) {
		if err := add(string(k), boolToUint64(v.Bool[k])); err != nil {
			return fmt.Errorf("installing %s: %w", k, err)
		}
	}
	return p.s.Apply(actions...)
}

// CheckInitialized returns error listing all the known properties which have
// no value installed.
func (p *Properties) CheckInitialized() error {
	d := Defaults()
	var errs []error
	check := func(name string) {
		exists, err := p.s.Has(key(name))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		case !exists:
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrPropertyNotFound))
		}
	}
	for _, k := range sortedKeys(d.Uint64) {
		check(string(k))
	}
	for _, k := range sortedKeys(d.Bool) {
		check(string(k))
	}
	return errors.Join(errs...)
}

func (p *Properties) Uint64(k Uint64Key) (uint64, error) {
	return p.get(string(k))
}

func (p *Properties) SetUint64(k Uint64Key, value uint64) error {
	return p.s.Apply(state.Set(key(string(k)), value))
}

// AddUint64 increments the property by "delta", the result saturates at math.MaxUint64.
func (p *Properties) AddUint64(k Uint64Key, delta uint64) error {
	return p.s.Apply(state.Update(key(string(k)), func(v *uint64) error {
		if *v > math.MaxUint64-delta {
			*v = math.MaxUint64
		} else {
			*v += delta
		}
		return nil
	}))
}

// EnergyPrice returns the price of single unit of energy, SunPerEnergy when
// the EnergyFee property is zero.
func (p *Properties) EnergyPrice() (uint64, error) {
	v, err := p.Uint64(EnergyFee)
	if err != nil || v > 0 {
		return v, err
	}
	return SunPerEnergy, nil
}

func (p *Properties) Bool(k BoolKey) (bool, error) {
	v, err := p.get(string(k))
	return v == 1, err
}

func (p *Properties) SetBool(k BoolKey, value bool) error {
	return p.s.Apply(state.Set(key(string(k)), boolToUint64(value)))
}

func (p *Properties) get(name string) (uint64, error) {
	var v uint64
	found, err := p.s.Get(key(name), &v)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	if !found {
		return 0, fmt.Errorf("%s: %w", name, ErrPropertyNotFound)
	}
	return v, nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

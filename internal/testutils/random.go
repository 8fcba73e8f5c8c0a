package testutils

import (
	"hash/fnv"
	"testing"

	"pgregory.net/rand"

	"github.com/alphabill-org/resource-billing/types"
)

// RandomBytes returns "len" pseudo random bytes, the generator is seeded by
// the name of the test so the data is reproducible.
func RandomBytes(t testing.TB, len int) []byte {
	r := rand.New(seed(t.Name()))
	b := make([]byte, len)
	_, _ = r.Read(b)
	return b
}

// RandomAddresses returns "n" distinct pseudo random account addresses.
func RandomAddresses(t testing.TB, n int) []types.Address {
	r := rand.New(seed(t.Name()))
	seen := make(map[types.Address]struct{}, n)
	addrs := make([]types.Address, 0, n)
	for len(addrs) < n {
		var a types.Address
		_, _ = r.Read(a[:])
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	return addrs
}

func seed(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

package types

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/resource-billing/resource/usage"
)

func TestCbor_Deterministic(t *testing.T) {
	t.Run("map keys are sorted", func(t *testing.T) {
		b, err := Cbor.Marshal(map[string]uint64{"cc": 3, "b": 2, "a": 1})
		require.NoError(t, err)
		require.Equal(t, []byte{0xa3, 0x61, 0x61, 0x01, 0x61, 0x62, 0x02, 0x62, 0x63, 0x63, 0x03}, b)
	})

	t.Run("shortest integer encoding", func(t *testing.T) {
		b, err := Cbor.Marshal(uint64(500))
		require.NoError(t, err)
		require.Equal(t, []byte{0x19, 0x01, 0xf4}, b)
	})

	t.Run("account with assets", func(t *testing.T) {
		acc := NewAccount(Address{1}, 7)
		for _, id := range []AssetID{"TKN", "A", "ZZZ", "B"} {
			acc.SetAssetBalance(id, 10)
			acc.SetAssetBandwidth(id, usage.NewCounter(5, 6))
		}
		first, err := Cbor.Marshal(acc)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			b, err := Cbor.Marshal(acc.Copy())
			require.NoError(t, err)
			require.Equal(t, first, b)
		}
	})
}

func TestCbor_DecodeLimits(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		var v []uint64
		// array header with uint32 length maxDecodedItems+1
		err := Cbor.Unmarshal([]byte{0x9a, 0x00, 0x10, 0x00, 0x01}, &v)
		var limitErr *cbor.MaxArrayElementsError
		require.ErrorAs(t, err, &limitErr)
		require.EqualError(t, err, "cbor: exceeded max number of elements 1048576 for CBOR array")
		// at the limit the header is accepted and decoder runs out of data
		err = Cbor.Unmarshal([]byte{0x9a, 0x00, 0x10, 0x00, 0x00}, &v)
		require.ErrorContains(t, err, "unexpected EOF")
	})

	t.Run("map", func(t *testing.T) {
		var v map[string]uint64
		err := Cbor.Unmarshal([]byte{0xba, 0x00, 0x10, 0x00, 0x01}, &v)
		var limitErr *cbor.MaxMapPairsError
		require.ErrorAs(t, err, &limitErr)
		require.EqualError(t, err, "cbor: exceeded max number of key-value pairs 1048576 for CBOR map")
	})
}

func TestCbor_RawParameter(t *testing.T) {
	param := &TransferAssetContract{AssetID: "TKN", Owner: Address{1}, To: Address{2}, Amount: 3}
	c, err := NewContract(TransferAssetContractType, param)
	require.NoError(t, err)
	c.PermissionID = 2

	b, err := Cbor.Marshal(c)
	require.NoError(t, err)
	// parameter is embedded as is, not as a byte string
	require.True(t, bytes.Contains(b, c.Parameter))
	require.Equal(t, byte(0x83), b[0])
	require.Equal(t, byte(TransferAssetContractType), b[1])

	var got Contract
	require.NoError(t, Cbor.Unmarshal(b, &got))
	require.Equal(t, c.Parameter, got.Parameter)
	require.EqualValues(t, 2, got.PermissionID)
	p, err := got.DecodeParameter()
	require.NoError(t, err)
	require.Equal(t, param, p)
}

func TestCbor_RecordsAsArrays(t *testing.T) {
	acc := NewAccount(Address{0xa}, 3000)
	acc.Balance = 1_000_000
	acc.FrozenForBandwidth = 2_000_000
	acc.Bandwidth = usage.NewCounter(250, 12)
	acc.Energy = usage.NewCounter(10, 11)
	acc.LatestOperationTime = 36_000
	acc.SetAssetBalance("TKN", 5)

	receipt := &Receipt{NetUsage: 190, NetFee: 3, EnergyUsage: 4, EnergyFee: 5, OriginEnergyUsage: 6, EnergyUsageTotal: 10, Result: ResultRevert}

	tx := newTestTransaction(t)
	tx.RawData.Data = []byte("memo")
	tx.SetResult(100, ResultOutOfTime)

	var tests = []struct {
		name   string
		value  any
		target any
		// CBOR array header of the record
		header byte
	}{
		{name: "account", value: acc, target: &Account{}, header: 0x8c},
		{name: "receipt", value: receipt, target: &Receipt{}, header: 0x87},
		{name: "transaction", value: tx, target: &Transaction{}, header: 0x83},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Cbor.Marshal(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.header, b[0])
			require.NoError(t, Cbor.Unmarshal(b, tt.target))
			require.Equal(t, tt.value, tt.target)
		})
	}
}

func TestCbor_InvalidInput(t *testing.T) {
	var acc Account
	require.ErrorContains(t, Cbor.Unmarshal(nil, &acc), "EOF")
	require.ErrorContains(t, Cbor.Unmarshal([]byte{0x8c, 0x01}, &acc), "unexpected EOF")
	require.ErrorContains(t, Cbor.Unmarshal([]byte{0x05}, &acc), "cannot unmarshal positive integer")
	_, err := Cbor.Marshal(complex(1, 2))
	require.ErrorContains(t, err, "unsupported type: complex128")
}

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResultCode_Text(t *testing.T) {
	for c := ResultDefault; c <= ResultTransferFailed; c++ {
		b, err := c.MarshalText()
		require.NoError(t, err)
		var got ResultCode
		require.NoError(t, got.UnmarshalText(b))
		require.Equal(t, c, got)
	}
	require.Equal(t, "ResultCode(200)", ResultCode(200).String())

	var c ResultCode
	require.EqualError(t, c.UnmarshalText([]byte("FOO")), `unknown result code "FOO"`)
}

func TestReceipt_YAML(t *testing.T) {
	r := NewReceipt()
	r.AddNetBill(100, 0)
	r.AddNetBill(0, 2000)
	r.EnergyFee = 300
	r.Result = ResultOutOfEnergy
	require.EqualValues(t, 2300, r.Fee())
	require.EqualValues(t, 100, r.NetUsage)

	b, err := yaml.Marshal(r)
	require.NoError(t, err)
	require.Contains(t, string(b), "result: OUT_OF_ENERGY")
}

func TestAccount_Copy(t *testing.T) {
	var nilAcc *Account
	require.Nil(t, nilAcc.Copy())

	a := NewAccount(Address{1}, 10)
	a.SetAssetBalance("TKN", 5)
	a.SetAssetBandwidth("TKN", a.AssetBandwidth("TKN").Commit(1, 10, 100))

	c := a.Copy()
	require.Equal(t, a, c)
	c.SetAssetBalance("TKN", 6)
	c.SetAssetBandwidth("TKN", c.AssetBandwidth("TKN").Commit(2, 10, 100))
	require.EqualValues(t, 5, a.AssetBalance("TKN"))
	require.EqualValues(t, 10, a.AssetBandwidth("TKN").Value)
	require.Equal(t, "Normal", a.Type.String())
}

func TestAddressFromHex(t *testing.T) {
	a, err := AddressFromHex("0x00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	require.Equal(t, Address{19: 0xff}, a)

	_, err = AddressFromHex("0x01")
	require.EqualError(t, err, "invalid address length 1, expected 20")
	_, err = AddressFromHex("zz")
	require.ErrorContains(t, err, `decoding address "zz"`)
}

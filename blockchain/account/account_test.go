package account

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// first two keys of the standard development mnemonic
const (
	devKey0  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devKey1  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	devAddr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestNewAccountFromHex(t *testing.T) {
	seller, err := NewAccountFromHex("seller", devKey0)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(devAddr0), seller.Address())
	require.Equal(t, "seller("+devAddr0+")", seller.String())

	buyer, err := NewAccountFromHex("buyer", devKey1)
	require.NoError(t, err)
	require.Equal(t, devAddr1, buyer.Address().Hex())

	_, err = NewAccountFromHex("broken", "0x1234")
	require.Error(t, err)
}

func TestSignerSignsForChain(t *testing.T) {
	acc, err := NewAccountFromHex("", devKey0)
	require.NoError(t, err)
	require.Equal(t, devAddr0, acc.String())

	_, err = acc.Signer(big.NewInt(31337))
	require.NoError(t, err)
	_, err = acc.Signer(nil)
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(devAddr0)
	require.NoError(t, err)
	require.Equal(t, devAddr0, addr.Hex())

	_, err = ParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)

	_, err = ParseAddress("0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.True(t, errors.Is(err, ErrInvalidAddress))

	_, err = ParseAddress("0x1234")
	require.True(t, errors.Is(err, ErrInvalidAddress))

	require.Equal(t, "0xf39F…2266", Short(addr))
}

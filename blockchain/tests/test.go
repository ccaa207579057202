package tests

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/blockchain/transaction"
	"go.dedis.ch/bookstore/blockchain/wallet"
)

// deploy submits creation code from acc and returns the new address.
func deploy(t *testing.T, w *wallet.Wallet, acc *account.Account, parsed *abi.ABI, code []byte) common.Address {
	req, err := transaction.NewRequestBuilder(acc).Deploy(parsed, code).WithLabel("deploy probe").Build()
	require.NoError(t, err)

	outcome, err := w.Submit(context.Background(), req, transaction.ExpectSuccess)
	require.NoError(t, err)
	require.True(t, outcome.Committed(), outcome.String())

	conf := outcome.Confirmation()
	require.NotNil(t, conf.ContractAddress)
	return *conf.ContractAddress
}

func poke(t *testing.T, acc *account.Account, to common.Address, parsed *abi.ABI) *transaction.RequestBuilder {
	return transaction.NewRequestBuilder(acc).Call(to, parsed, "poke")
}

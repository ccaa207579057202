package testing

import (
	_ "embed"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/blockchain/wallet"
	"go.dedis.ch/bookstore/contract"
)

// BookstoreArtifact is a Foundry style artifact of the Bookstore contract
// interface served by BookstoreLedger.
//
//go:embed testdata/Bookstore.json
var BookstoreArtifact []byte

type configTemplate struct {
	funds          map[*account.Account]*big.Int
	confirmTimeout time.Duration
	pollInterval   time.Duration
	holdMining     bool
	deferReverts   bool
}

func newConfigTemplate() configTemplate {
	return configTemplate{
		funds:          make(map[*account.Account]*big.Int),
		confirmTimeout: 2 * time.Second,
		pollInterval:   5 * time.Millisecond,
	}
}

type Option func(*configTemplate)

// WithFunds credits acc with wei in the genesis state.
func WithFunds(acc *account.Account, wei *big.Int) Option {
	return func(ct *configTemplate) {
		ct.funds[acc] = new(big.Int).Set(wei)
	}
}

// WithConfirmTimeout sets how long wallets wait for receipts.
func WithConfirmTimeout(d time.Duration) Option {
	return func(ct *configTemplate) {
		ct.confirmTimeout = d
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(ct *configTemplate) {
		ct.pollInterval = d
	}
}

// WithHoldMining keeps sent transactions pending forever.
func WithHoldMining() Option {
	return func(ct *configTemplate) {
		ct.holdMining = true
	}
}

// WithDeferredReverts makes BookstoreLedger accept every gas estimate, so
// business rule violations only surface as failed receipts.
func WithDeferredReverts() Option {
	return func(ct *configTemplate) {
		ct.deferReverts = true
	}
}

// NewAccount creates an account with a fresh random key.
func NewAccount(t *testing.T, name string) *account.Account {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account.NewAccount(name, key)
}

// NewWallet builds a wallet over backend with the timings of opts.
func NewWallet(t *testing.T, backend wallet.Backend, chainID *big.Int, opts ...Option) *wallet.Wallet {
	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}
	return wallet.NewWallet(wallet.WalletConf{
		Name:           t.Name(),
		Backend:        backend,
		ChainID:        chainID,
		ConfirmTimeout: template.confirmTimeout,
		PollInterval:   template.pollInterval,
	})
}

// BookstoreContract parses BookstoreArtifact.
func BookstoreContract(t *testing.T) *contract.Contract {
	c, err := contract.ParseArtifact(BookstoreArtifact)
	require.NoError(t, err)
	c.Name = "Bookstore"
	return c
}

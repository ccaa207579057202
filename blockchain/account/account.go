package account

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a caller identity on the ledger: a secp256k1 key and the
// address derived from it.
type Account struct {
	name string
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewAccount wraps an existing private key.
func NewAccount(name string, key *ecdsa.PrivateKey) *Account {
	return &Account{name: name, key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewAccountFromHex parses a hex encoded private key, with or without the
// 0x prefix.
func NewAccountFromHex(name, hexKey string) (*Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key for %s: %w", name, err)
	}
	return NewAccount(name, key), nil
}

func (a *Account) Name() string {
	return a.name
}

func (a *Account) Address() common.Address {
	return a.addr
}

func (a *Account) Key() *ecdsa.PrivateKey {
	return a.key
}

// Signer returns a transaction signer bound to chainID.
func (a *Account) Signer(chainID *big.Int) (bind.SignerFn, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(a.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("cannot build signer for %s: %w", a.name, err)
	}
	return opts.Signer, nil
}

func (a *Account) String() string {
	if a.name == "" {
		return a.addr.Hex()
	}
	return fmt.Sprintf("%s(%s)", a.name, a.addr.Hex())
}

package testing

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"sync"
	"syscall"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.dedis.ch/bookstore/blockchain/storage"
	"go.dedis.ch/bookstore/blockchain/wallet"
)

// BookstoreChainID is the chain id BookstoreLedger accepts signatures for.
var BookstoreChainID = big.NewInt(31337)

const (
	fakeGas     = 100_000
	keyCount    = "count"
	bookPrefix  = "book/"
	claimPrefix = "pending/"
)

type book struct {
	Title     string
	Author    string
	Price     *big.Int
	Seller    common.Address
	Sold      bool
	Cancelled bool
}

// world is the ledger state a transaction runs against. Stored big.Ints
// are replaced, never mutated, so Copy isolates a dry run.
type world struct {
	balances map[common.Address]*big.Int
	contract *common.Address
	store    storage.KV
}

func (w *world) copy() *world {
	cp := &world{balances: make(map[common.Address]*big.Int, len(w.balances)), contract: w.contract, store: w.store.Copy()}
	for addr, bal := range w.balances {
		cp.balances[addr] = bal
	}
	return cp
}

func (w *world) balance(addr common.Address) *big.Int {
	if bal, ok := w.balances[addr]; ok {
		return bal
	}
	return new(big.Int)
}

func (w *world) transfer(from, to common.Address, value *big.Int) error {
	if value.Sign() == 0 {
		return nil
	}
	if w.balance(from).Cmp(value) < 0 {
		return errors.New("insufficient funds for transfer")
	}
	w.balances[from] = new(big.Int).Sub(w.balance(from), value)
	w.balances[to] = new(big.Int).Add(w.balance(to), value)
	return nil
}

// BookstoreLedger is an in-process ledger node hosting a Bookstore
// marketplace contract. It implements wallet.Backend and mines every
// accepted transaction into its own block.
type BookstoreLedger struct {
	mu sync.Mutex

	abi          abi.ABI
	signer       types.Signer
	newKV        storage.KVFactory
	hold         bool
	deferReverts bool
	offline      bool

	state    *world
	nonces   map[common.Address]uint64
	block    uint64
	receipts map[common.Hash]*types.Receipt
	sent     int
}

var _ wallet.Backend = (*BookstoreLedger)(nil)

func NewBookstoreLedger(t *testing.T, opts ...Option) *BookstoreLedger {
	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}
	l := &BookstoreLedger{
		abi:          BookstoreContract(t).ABI,
		signer:       types.LatestSignerForChainID(BookstoreChainID),
		hold:         template.holdMining,
		deferReverts: template.deferReverts,
		newKV:        storage.CreateSimpleKV,
		nonces:       make(map[common.Address]uint64),
		receipts:     make(map[common.Hash]*types.Receipt),
	}
	l.state = &world{balances: make(map[common.Address]*big.Int), store: l.newKV()}
	for acc, wei := range template.funds {
		l.state.balances[acc.Address()] = new(big.Int).Set(wei)
	}
	return l
}

// SetOffline makes every call fail as if the node's port was closed.
func (l *BookstoreLedger) SetOffline(offline bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offline = offline
}

// Sent counts transactions accepted by SendTransaction.
func (l *BookstoreLedger) Sent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent
}

// StateHash digests balances and contract storage.
func (l *BookstoreLedger) StateHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	kv := l.state.store.Copy()
	for addr, bal := range l.state.balances {
		_ = kv.Put("balance/"+addr.Hex(), bal.String())
	}
	return kv.Hash()
}

func (l *BookstoreLedger) unreachable() error {
	if !l.offline {
		return nil
	}
	return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
}

func (l *BookstoreLedger) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return nil, err
	}
	if call.To == nil {
		return nil, errors.New("call without target")
	}
	return l.execute(l.state.copy(), call.From, *call.To, valueOf(call.Value), call.Data)
}

func (l *BookstoreLedger) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return nil, err
	}
	return &types.Header{Number: new(big.Int).SetUint64(l.block), BaseFee: big.NewInt(1)}, nil
}

func (l *BookstoreLedger) PendingNonceAt(ctx context.Context, acc common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return 0, err
	}
	return l.nonces[acc], nil
}

func (l *BookstoreLedger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), l.checkReachable()
}

func (l *BookstoreLedger) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), l.checkReachable()
}

func (l *BookstoreLedger) checkReachable() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unreachable()
}

func (l *BookstoreLedger) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return 0, err
	}
	if l.deferReverts {
		return fakeGas, nil
	}
	if _, err := l.apply(l.state.copy(), call.From, call.To, valueOf(call.Value), call.Data, l.nonces[call.From]); err != nil {
		return 0, err
	}
	return fakeGas, nil
}

func (l *BookstoreLedger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return err
	}
	from, err := types.Sender(l.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	nonce := l.nonces[from]
	if tx.Nonce() != nonce {
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), nonce)
	}
	if l.state.balance(from).Cmp(valueOf(tx.Value())) < 0 {
		return errors.New("insufficient funds for gas * price + value")
	}
	l.nonces[from] = nonce + 1
	l.sent++
	if l.hold {
		return nil
	}

	l.block++
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(l.block),
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(l.block)),
		GasUsed:     fakeGas,
	}
	next := l.state.copy()
	created, err := l.apply(next, from, tx.To(), valueOf(tx.Value()), tx.Data(), nonce)
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		l.state = next
		if created != nil {
			receipt.ContractAddress = *created
		}
	}
	l.receipts[tx.Hash()] = receipt
	return nil
}

func (l *BookstoreLedger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return nil, err
	}
	receipt, ok := l.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (l *BookstoreLedger) BalanceAt(ctx context.Context, acc common.Address, blockNumber *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.unreachable(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.state.balance(acc)), nil
}

// apply runs a transaction against w. A nil to deploys a fresh Bookstore
// and returns its address.
func (l *BookstoreLedger) apply(w *world, from common.Address, to *common.Address, value *big.Int, data []byte, nonce uint64) (*common.Address, error) {
	if to == nil {
		addr := crypto.CreateAddress(from, nonce)
		w.contract = &addr
		w.store = l.newKV()
		return &addr, w.transfer(from, addr, value)
	}
	_, err := l.execute(w, from, *to, value, data)
	return nil, err
}

func (l *BookstoreLedger) execute(w *world, from, to common.Address, value *big.Int, data []byte) ([]byte, error) {
	if w.contract == nil || to != *w.contract {
		return nil, w.transfer(from, to, value)
	}
	if len(data) < 4 {
		return nil, &RevertError{}
	}
	method, err := l.abi.MethodById(data[:4])
	if err != nil {
		return nil, &RevertError{}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &RevertError{}
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return nil, &RevertError{}
	}
	if err := w.transfer(from, to, value); err != nil {
		return nil, err
	}

	out, err := l.run(w, method.Name, from, to, value, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (l *BookstoreLedger) run(w *world, method string, from, self common.Address, value *big.Int, args []interface{}) ([]interface{}, error) {
	switch method {
	case "createBook":
		price := args[2].(*big.Int)
		if price.Sign() <= 0 {
			return nil, &RevertError{Reason: "Price must be greater than zero"}
		}
		id := bookCount(w)
		putBook(w, id, book{Title: args[0].(string), Author: args[1].(string), Price: price, Seller: from})
		_ = w.store.Put(keyCount, id+1)
		return nil, nil

	case "getBookCount":
		return []interface{}{new(big.Int).SetUint64(bookCount(w))}, nil

	case "getBook":
		b, err := getBook(w, args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		return []interface{}{b.Title, b.Author, b.Price, b.Seller, b.Sold, b.Cancelled}, nil

	case "updateBookPrice":
		id, b, err := sellerBook(w, args[0].(*big.Int), from, "Only the seller can update the price")
		if err != nil {
			return nil, err
		}
		price := args[1].(*big.Int)
		if price.Sign() <= 0 {
			return nil, &RevertError{Reason: "Price must be greater than zero"}
		}
		b.Price = price
		putBook(w, id, b)
		return nil, nil

	case "buyBook":
		b, err := getBook(w, args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		switch {
		case b.Sold:
			return nil, &RevertError{Reason: "Book already sold"}
		case b.Cancelled:
			return nil, &RevertError{Reason: "Book is not for sale"}
		case b.Seller == from:
			return nil, &RevertError{Reason: "Seller cannot buy own book"}
		case value.Cmp(b.Price) != 0:
			return nil, &RevertError{Reason: "Incorrect payment amount"}
		}
		b.Sold = true
		putBook(w, args[0].(*big.Int).Uint64(), b)
		_ = w.store.Put(claimPrefix+b.Seller.Hex(), new(big.Int).Add(pending(w, b.Seller), value))
		return nil, nil

	case "cancelBook":
		id, b, err := sellerBook(w, args[0].(*big.Int), from, "Only the seller can cancel")
		if err != nil {
			return nil, err
		}
		b.Cancelled = true
		putBook(w, id, b)
		return nil, nil

	case "withdraw":
		amount := pending(w, from)
		if amount.Sign() == 0 {
			return nil, &RevertError{Reason: "No funds to withdraw"}
		}
		_ = w.store.Put(claimPrefix+from.Hex(), new(big.Int))
		if err := w.transfer(self, from, amount); err != nil {
			return nil, &RevertError{Reason: "Transfer failed"}
		}
		return nil, nil

	case "pendingWithdrawals":
		return []interface{}{pending(w, args[0].(common.Address))}, nil
	}
	return nil, &RevertError{}
}

// sellerBook loads a book its seller may still change.
func sellerBook(w *world, id *big.Int, from common.Address, notSeller string) (uint64, book, error) {
	b, err := getBook(w, id)
	if err != nil {
		return 0, book{}, err
	}
	switch {
	case b.Seller != from:
		return 0, book{}, &RevertError{Reason: notSeller}
	case b.Sold:
		return 0, book{}, &RevertError{Reason: "Book already sold"}
	case b.Cancelled:
		return 0, book{}, &RevertError{Reason: "Book is not for sale"}
	}
	return id.Uint64(), b, nil
}

func bookCount(w *world) uint64 {
	v, err := w.store.Get(keyCount)
	if err != nil {
		return 0
	}
	return v.(uint64)
}

func getBook(w *world, id *big.Int) (book, error) {
	if !id.IsUint64() || id.Uint64() >= bookCount(w) {
		return book{}, &RevertError{Reason: "Book does not exist"}
	}
	v, err := w.store.Get(fmt.Sprintf("%s%d", bookPrefix, id.Uint64()))
	if err != nil {
		return book{}, &RevertError{Reason: "Book does not exist"}
	}
	return v.(book), nil
}

func putBook(w *world, id uint64, b book) {
	_ = w.store.Put(fmt.Sprintf("%s%d", bookPrefix, id), b)
}

func pending(w *world, addr common.Address) *big.Int {
	v, err := w.store.Get(claimPrefix + addr.Hex())
	if err != nil {
		return new(big.Int)
	}
	return v.(*big.Int)
}

func valueOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

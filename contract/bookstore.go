package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/blockchain/transaction"
)

// Bookstore method names.
const (
	MethodCreateBook         = "createBook"
	MethodGetBookCount       = "getBookCount"
	MethodGetBook            = "getBook"
	MethodUpdateBookPrice    = "updateBookPrice"
	MethodBuyBook            = "buyBook"
	MethodCancelBook         = "cancelBook"
	MethodWithdraw           = "withdraw"
	MethodPendingWithdrawals = "pendingWithdrawals"
)

// Caller runs read-only contract methods. *wallet.Wallet implements it.
type Caller interface {
	Call(ctx context.Context, from, to common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error)
}

// Bookstore builds requests for, and reads state from, a Bookstore
// marketplace contract. Book ids and prices are uint256.
type Bookstore struct {
	contract *Contract
	caller   Caller
}

func NewBookstore(c *Contract, caller Caller) *Bookstore {
	return &Bookstore{contract: c, caller: caller}
}

func (b *Bookstore) Contract() *Contract {
	return b.contract
}

// At binds the bookstore to a deployed address.
func (b *Bookstore) At(addr common.Address) *Bookstore {
	return &Bookstore{contract: b.contract.At(addr), caller: b.caller}
}

func (b *Bookstore) Deploy(from *account.Account) (*transaction.Request, error) {
	return transaction.NewRequestBuilder(from).
		Deploy(&b.contract.ABI, b.contract.Bytecode).
		WithLabel("deploy " + b.name()).
		Build()
}

func (b *Bookstore) CreateBook(from *account.Account, title, author string, price *big.Int) (*transaction.Request, error) {
	return b.request(from, nil, MethodCreateBook, title, author, price)
}

func (b *Bookstore) UpdateBookPrice(from *account.Account, id uint64, price *big.Int) (*transaction.Request, error) {
	return b.request(from, nil, MethodUpdateBookPrice, new(big.Int).SetUint64(id), price)
}

// BuyBook attaches value to the purchase; the contract decides whether it
// matches the listed price.
func (b *Bookstore) BuyBook(from *account.Account, id uint64, value *big.Int) (*transaction.Request, error) {
	return b.request(from, value, MethodBuyBook, new(big.Int).SetUint64(id))
}

func (b *Bookstore) CancelBook(from *account.Account, id uint64) (*transaction.Request, error) {
	return b.request(from, nil, MethodCancelBook, new(big.Int).SetUint64(id))
}

func (b *Bookstore) Withdraw(from *account.Account) (*transaction.Request, error) {
	return b.request(from, nil, MethodWithdraw)
}

func (b *Bookstore) request(from *account.Account, value *big.Int, method string, args ...interface{}) (*transaction.Request, error) {
	addr, ok := b.contract.Address()
	if !ok {
		return nil, fmt.Errorf("%s is not deployed", b.name())
	}
	return transaction.NewRequestBuilder(from).
		Call(addr, &b.contract.ABI, method, args...).
		WithValue(value).
		Build()
}

func (b *Bookstore) BookCount(ctx context.Context, from common.Address) (*big.Int, error) {
	out, err := b.call(ctx, from, MethodGetBookCount)
	if err != nil {
		return nil, err
	}
	return bigOutput(MethodGetBookCount, out)
}

// Book reads one listing. Field names come from the contract ABI.
func (b *Bookstore) Book(ctx context.Context, from common.Address, id uint64) (Record, error) {
	out, err := b.call(ctx, from, MethodGetBook, new(big.Int).SetUint64(id))
	if err != nil {
		return Record{}, err
	}
	method := b.contract.ABI.Methods[MethodGetBook]
	return NewRecord(fmt.Sprintf("Book #%d", id), method.Outputs, out), nil
}

// PendingWithdrawals is the amount owner can claim with withdraw, in wei.
func (b *Bookstore) PendingWithdrawals(ctx context.Context, from, owner common.Address) (*big.Int, error) {
	out, err := b.call(ctx, from, MethodPendingWithdrawals, owner)
	if err != nil {
		return nil, err
	}
	return bigOutput(MethodPendingWithdrawals, out)
}

func (b *Bookstore) call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	addr, ok := b.contract.Address()
	if !ok {
		return nil, fmt.Errorf("%s is not deployed", b.name())
	}
	return b.caller.Call(ctx, from, addr, &b.contract.ABI, method, args...)
}

func (b *Bookstore) name() string {
	if b.contract.Name == "" {
		return "Bookstore"
	}
	return b.contract.Name
}

func bigOutput(method string, out []interface{}) (*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values, want 1", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want uint256", method, out[0])
	}
	return v, nil
}

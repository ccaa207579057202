// Package demo walks a Bookstore contract through its whole lifecycle and
// reports, step by step, whether the ledger behaved as expected.
package demo

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/blockchain/transaction"
	"go.dedis.ch/bookstore/blockchain/wallet"
	"go.dedis.ch/bookstore/contract"
	"go.dedis.ch/bookstore/logging"
)

// Step is the recorded verdict of one demo step.
type Step struct {
	Label  string
	Pass   bool
	Detail string
}

func (s Step) String() string {
	mark := "pass"
	if !s.Pass {
		mark = "fail"
	}
	if s.Detail == "" {
		return fmt.Sprintf("[%s] %s", mark, s.Label)
	}
	return fmt.Sprintf("[%s] %s: %s", mark, s.Label, s.Detail)
}

type DemoConf struct {
	Wallet *wallet.Wallet
	// Bookstore is the contract to deploy. Its caller should be Wallet.
	Bookstore *contract.Bookstore
	Seller    *account.Account
	Buyer     *account.Account
	// Out receives the narration, os.Stdout when nil.
	Out io.Writer
}

type Demo struct {
	logger zerolog.Logger
	out    narrator

	wallet *wallet.Wallet
	store  *contract.Bookstore
	seller *account.Account
	buyer  *account.Account

	steps []Step
}

func NewDemo(conf DemoConf) *Demo {
	out := conf.Out
	if out == nil {
		out = os.Stdout
	}
	return &Demo{
		logger: logging.RootLogger.With().Str("Component", "demo").Logger(),
		out:    narrator{out: out},
		wallet: conf.Wallet,
		store:  conf.Bookstore,
		seller: conf.Seller,
		buyer:  conf.Buyer,
	}
}

// Steps returns the verdicts recorded so far.
func (d *Demo) Steps() []Step {
	return append([]Step(nil), d.steps...)
}

// Bookstore returns the contract, bound to its address once deployed.
func (d *Demo) Bookstore() *contract.Bookstore {
	return d.store
}

// Run executes the scripted scenario. A non-nil error is either fatal (the
// ledger is unreachable or ctx is done) or a *multierror.Error listing every
// step whose verdict failed.
func (d *Demo) Run(ctx context.Context) error {
	d.steps = nil

	if err := d.run(ctx); err != nil {
		d.logger.Error().Err(err).Msg("demo aborted")
		return err
	}

	var failed *multierror.Error
	for _, s := range d.steps {
		if !s.Pass {
			failed = multierror.Append(failed, fmt.Errorf("%s: %s", s.Label, s.Detail))
		}
	}
	if failed != nil {
		d.out.fail("Done with %d failed step(s) out of %d.", len(failed.Errors), len(d.steps))
		return failed.ErrorOrNil()
	}
	d.out.ok("Done. Exercised: %s.", strings.Join([]string{
		contract.MethodCreateBook, contract.MethodGetBookCount, contract.MethodGetBook,
		contract.MethodUpdateBookPrice, contract.MethodBuyBook, contract.MethodCancelBook,
		contract.MethodWithdraw, contract.MethodPendingWithdrawals,
	}, ", "))
	return nil
}

func (d *Demo) run(ctx context.Context) error {
	seller, err := d.wallet.ShowAccount(ctx, d.seller.Address())
	if err != nil {
		return err
	}
	buyer, err := d.wallet.ShowAccount(ctx, d.buyer.Address())
	if err != nil {
		return err
	}
	d.out.ok("Connected to ledger (chain id %s)", d.wallet.ChainID())
	d.out.info("👨‍🏫 Seller: %s", seller)
	d.out.info("💰 Buyer:  %s", buyer)

	d.out.section("🚀", "Deploying %s contract from %s...", d.store.Contract().Name, account.Short(d.seller.Address()))
	deployed, err := d.transact(ctx, "deploy", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.Deploy(d.seller)
	})
	if err != nil {
		return err
	}
	if deployed == nil || !deployed.Committed() {
		return nil
	}
	addr := *deployed.Confirmation().ContractAddress
	d.store = d.store.At(addr)
	d.out.ok("Bookstore deployed at: %s", addr.Hex())

	scenario := []func(context.Context) error{
		d.listFirstBook,
		d.updatePrice,
		d.buy,
		d.withdraw,
		d.cancel,
	}
	for _, step := range scenario {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Demo) listFirstBook(ctx context.Context) error {
	d.out.section("📖", "Listing Book #0: 'The Logic of Finance' for 1 ETH...")
	_, err := d.transact(ctx, "Book #0 listed", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.CreateBook(d.seller, "The Logic of Finance", "Kimani", wallet.Ether(1))
	})
	if err != nil {
		return err
	}

	err = d.read(ctx, "getBookCount", func() error {
		count, err := d.store.BookCount(ctx, d.seller.Address())
		if err != nil {
			return err
		}
		d.out.info("📚 Total books in store: %s", count)
		return nil
	})
	if err != nil {
		return err
	}

	d.out.section("🔎", "Reading Book #0 details (getBook)...")
	return d.showBook(ctx, 0)
}

func (d *Demo) updatePrice(ctx context.Context) error {
	d.out.section("🏷️", "Seller updates Book #0 price to 2 ETH...")
	_, err := d.transact(ctx, "Book #0 price updated to 2 ETH", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.UpdateBookPrice(d.seller, 0, wallet.Ether(2))
	})
	if err != nil {
		return err
	}

	d.out.section("🔎", "Reading Book #0 details after price update...")
	if err := d.showBook(ctx, 0); err != nil {
		return err
	}

	d.out.section("🧪", "Buyer tries to update price (should revert)...")
	_, err = d.transact(ctx, "Buyer updateBookPrice(0, 3 ETH)", transaction.ExpectRejection, func() (*transaction.Request, error) {
		return d.store.UpdateBookPrice(d.buyer, 0, wallet.Ether(3))
	})
	return err
}

func (d *Demo) buy(ctx context.Context) error {
	d.out.section("💸", "Buyer tries to purchase Book #0 with WRONG amount (1 ETH, should revert)...")
	_, err := d.transact(ctx, "buyBook(0) with 1 ETH", transaction.ExpectRejection, func() (*transaction.Request, error) {
		return d.store.BuyBook(d.buyer, 0, wallet.Ether(1))
	})
	if err != nil {
		return err
	}

	d.out.section("💸", "Buyer purchasing Book #0 with correct amount (2 ETH)...")
	before, err := d.balance(ctx, "Before: Seller has", d.seller)
	if err != nil {
		return err
	}
	_, err = d.transact(ctx, "Book #0 purchased", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.BuyBook(d.buyer, 0, wallet.Ether(2))
	})
	if err != nil {
		return err
	}
	after, err := d.balance(ctx, "After:  Seller has", d.seller)
	if err != nil {
		return err
	}
	// proceeds wait in the contract until withdrawn
	if before != nil && after != nil && after.Cmp(before) != 0 {
		d.logger.Warn().Msgf("seller balance moved on purchase: %s -> %s", before, after)
	}
	return nil
}

func (d *Demo) withdraw(ctx context.Context) error {
	d.out.section("🔎", "Seller's pending withdrawals (should be > 0 ETH)...")
	err := d.read(ctx, "pendingWithdrawals before withdraw", func() error {
		pending, err := d.store.PendingWithdrawals(ctx, d.seller.Address(), d.seller.Address())
		if err != nil {
			return err
		}
		d.out.info("Seller pendingWithdrawals: %s ETH", wallet.FormatEther(pending))
		if pending.Sign() <= 0 {
			return fmt.Errorf("expected pending withdrawals > 0")
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.out.section("💸", "Seller calls withdraw() to claim funds...")
	if _, err := d.balance(ctx, "Seller balance before withdraw:", d.seller); err != nil {
		return err
	}
	_, err = d.transact(ctx, "Funds withdrawn", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.Withdraw(d.seller)
	})
	if err != nil {
		return err
	}
	if _, err := d.balance(ctx, "Seller balance after withdraw: ", d.seller); err != nil {
		return err
	}

	err = d.read(ctx, "pendingWithdrawals after withdraw", func() error {
		pending, err := d.store.PendingWithdrawals(ctx, d.seller.Address(), d.seller.Address())
		if err != nil {
			return err
		}
		d.out.info("Seller pendingWithdrawals after withdraw: %s ETH", wallet.FormatEther(pending))
		if pending.Sign() != 0 {
			return fmt.Errorf("expected no pending withdrawals, got %s wei", pending)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.out.section("🔎", "Reading Book #0 details after purchase...")
	return d.showBook(ctx, 0)
}

func (d *Demo) cancel(ctx context.Context) error {
	d.out.section("🧪", "Seller tries to cancel sold book (should revert)...")
	_, err := d.transact(ctx, "cancelBook(0) after sold", transaction.ExpectRejection, func() (*transaction.Request, error) {
		return d.store.CancelBook(d.seller, 0)
	})
	if err != nil {
		return err
	}

	d.out.section("📖", "Listing Book #1: 'Solidity 101' for 1 ETH...")
	_, err = d.transact(ctx, "Book #1 listed", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.CreateBook(d.seller, "Solidity 101", "Kimani", wallet.Ether(1))
	})
	if err != nil {
		return err
	}

	d.out.section("🛑", "Seller cancels Book #1...")
	_, err = d.transact(ctx, "Book #1 cancelled", transaction.ExpectSuccess, func() (*transaction.Request, error) {
		return d.store.CancelBook(d.seller, 1)
	})
	if err != nil {
		return err
	}

	d.out.section("🧪", "Buyer tries to buy cancelled book (should revert)...")
	_, err = d.transact(ctx, "buyBook(1) after cancel", transaction.ExpectRejection, func() (*transaction.Request, error) {
		return d.store.BuyBook(d.buyer, 1, wallet.Ether(1))
	})
	return err
}

// transact submits the request made by build and narrates the verdict. The
// returned error is fatal; a failed verdict is only recorded.
func (d *Demo) transact(ctx context.Context, label string, policy transaction.Policy,
	build func() (*transaction.Request, error)) (*transaction.Outcome, error) {

	req, err := build()
	if err != nil {
		d.out.fail("%s failed", label)
		d.out.reason(err.Error())
		d.record(label, false, err.Error())
		return nil, nil
	}

	outcome, err := d.wallet.Submit(ctx, req, policy)
	if err != nil {
		d.out.fail("%s aborted", label)
		d.out.reason(err.Error())
		return nil, err
	}

	verdict := transaction.Judge(outcome, policy)
	switch {
	case policy == transaction.ExpectSuccess && verdict.Pass:
		d.out.ok("%s (tx: %s)", label, verdict.Detail)
	case policy == transaction.ExpectSuccess:
		d.out.fail("%s failed", label)
		d.out.reason(verdict.Detail)
	case verdict.Pass:
		d.out.ok("Reverted as expected: %s", label)
		d.out.reason(verdict.Detail)
	default:
		d.out.fail("Expected revert but tx succeeded: %s (tx: %s)", label, verdict.Detail)
	}
	d.record(label, verdict.Pass, verdict.Detail)
	return outcome, nil
}

// read runs a read-only step. Connectivity failures are fatal, any other
// error fails the step.
func (d *Demo) read(ctx context.Context, label string, fn func() error) error {
	err := fn()
	if err == nil {
		d.record(label, true, "")
		return nil
	}
	if wallet.IsConnectivity(err) || ctx.Err() != nil {
		return err
	}
	d.out.fail("%s failed", label)
	d.out.reason(err.Error())
	d.record(label, false, err.Error())
	return nil
}

func (d *Demo) showBook(ctx context.Context, id uint64) error {
	return d.read(ctx, fmt.Sprintf("getBook(%d)", id), func() error {
		book, err := d.store.Book(ctx, d.seller.Address(), id)
		if err != nil {
			return err
		}
		d.out.info("%s", strings.TrimRight(book.String(), "\n"))
		return nil
	})
}

func (d *Demo) balance(ctx context.Context, prefix string, acc *account.Account) (*big.Int, error) {
	balance, err := d.wallet.Balance(ctx, acc.Address())
	if err != nil {
		return nil, err
	}
	d.out.info("%s %s ETH", prefix, wallet.FormatEther(balance))
	return balance, nil
}

func (d *Demo) record(label string, pass bool, detail string) {
	d.steps = append(d.steps, Step{Label: label, Pass: pass, Detail: detail})
	d.logger.Debug().Bool("pass", pass).Str("step", label).Msg(detail)
}

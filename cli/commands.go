package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/blockchain/transaction"
	"go.dedis.ch/bookstore/blockchain/wallet"
	"go.dedis.ch/bookstore/client"
	"go.dedis.ch/bookstore/config"
	"go.dedis.ch/bookstore/contract"
	"go.dedis.ch/bookstore/demo"
	"go.dedis.ch/bookstore/logging"
)

const (
	flagConfig         = "config"
	flagRPCURL         = "rpc-url"
	flagArtifact       = "artifact"
	flagSellerKey      = "seller-key"
	flagBuyerKey       = "buyer-key"
	flagConfirmTimeout = "confirm-timeout"
	flagLogLevel       = "log-level"
	flagAddress        = "address"
	flagBook           = "book"
)

const configKey = "bookstore.config"

// loadConfig reads the configuration file, applies flag and environment
// overrides and stores the result in the app metadata.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.IsSet(flagRPCURL) {
		cfg.RPCURL = c.String(flagRPCURL)
	}
	if c.IsSet(flagArtifact) {
		cfg.Artifact = c.String(flagArtifact)
	}
	if c.IsSet(flagSellerKey) {
		cfg.SellerKey = c.String(flagSellerKey)
	}
	if c.IsSet(flagBuyerKey) {
		cfg.BuyerKey = c.String(flagBuyerKey)
	}
	if c.IsSet(flagConfirmTimeout) {
		cfg.ConfirmTimeout = config.Duration{Duration: c.Duration(flagConfirmTimeout)}
	}
	if c.IsSet(flagLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

type session struct {
	cfg    *config.Config
	client *client.Client
	wallet *wallet.Wallet
	seller *account.Account
	buyer  *account.Account
}

func connect(ctx context.Context, c *cli.Context) (*session, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	seller, buyer, err := cfg.Accounts()
	if err != nil {
		return nil, err
	}
	cl, err := client.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	w := wallet.NewWallet(wallet.WalletConf{
		Name:           "cli",
		Backend:        cl,
		ChainID:        cl.CachedChainID(),
		ConfirmTimeout: cfg.ConfirmTimeout.Duration,
		PollInterval:   cfg.PollInterval.Duration,
	})
	return &session{cfg: cfg, client: cl, wallet: w, seller: seller, buyer: buyer}, nil
}

func (s *session) bookstore() (*contract.Bookstore, error) {
	art, err := contract.LoadArtifact(s.cfg.Artifact)
	if err != nil {
		return nil, err
	}
	return contract.NewBookstore(art, s.wallet), nil
}

func (s *session) Close() {
	s.client.Close()
}

func interruptible(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func runDemo(c *cli.Context) error {
	ctx, cancel := interruptible(c)
	defer cancel()

	s, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	store, err := s.bookstore()
	if err != nil {
		return err
	}
	d := demo.NewDemo(demo.DemoConf{
		Wallet:    s.wallet,
		Bookstore: store,
		Seller:    s.seller,
		Buyer:     s.buyer,
		Out:       c.App.Writer,
	})
	return d.Run(ctx)
}

func runDeploy(c *cli.Context) error {
	ctx, cancel := interruptible(c)
	defer cancel()

	s, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	store, err := s.bookstore()
	if err != nil {
		return err
	}
	req, err := store.Deploy(s.seller)
	if err != nil {
		return err
	}
	outcome, err := s.wallet.Submit(ctx, req, transaction.ExpectSuccess)
	if err != nil {
		return err
	}
	if !outcome.Committed() {
		return fmt.Errorf("deploy rejected: %s", outcome.Reason())
	}
	fmt.Fprintln(c.App.Writer, outcome.Confirmation().ContractAddress.Hex())
	return nil
}

func runInspect(c *cli.Context) error {
	ctx, cancel := interruptible(c)
	defer cancel()

	addr, err := account.ParseAddress(c.String(flagAddress))
	if err != nil {
		return err
	}
	s, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	store, err := s.bookstore()
	if err != nil {
		return err
	}
	store = store.At(addr)
	from := s.seller.Address()

	if id := c.Int64(flagBook); id >= 0 {
		book, err := store.Book(ctx, from, uint64(id))
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, book.String())
		return nil
	}

	count, err := store.BookCount(ctx, from)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s at %s: %s book(s)\n", store.Contract().Name, addr.Hex(), count)
	for id := uint64(0); count.IsUint64() && id < count.Uint64(); id++ {
		book, err := store.Book(ctx, from, id)
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, book.String())
	}
	return nil
}

func runBalance(c *cli.Context) error {
	ctx, cancel := interruptible(c)
	defer cancel()

	addr, err := account.ParseAddress(c.String(flagAddress))
	if err != nil {
		return err
	}
	s, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.wallet.ShowAccount(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, info)
	return nil
}

package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"go.dedis.ch/bookstore/blockchain/wallet"
	"go.dedis.ch/bookstore/logging"
)

// Client is a JSON-RPC connection to a ledger node. It satisfies
// wallet.Backend.
type Client struct {
	*ethclient.Client
	logger zerolog.Logger

	url     string
	chainID *big.Int
}

var _ wallet.Backend = (*Client)(nil)

// ErrBadEndpoint is returned for URLs no transport can dial.
var ErrBadEndpoint = errors.New("bad endpoint")

// Dial connects to the node at rawurl and probes it with eth_chainId. An
// unreachable node yields a *wallet.ConnectivityError.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	if err := checkEndpoint(rawurl); err != nil {
		return nil, err
	}
	rc, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// the endpoint is well formed, so the node could not be reached
		return nil, wallet.NewConnectivityError("connect "+rawurl, err)
	}
	ec := ethclient.NewClient(rc)

	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if wallet.IsConnectivity(err) {
			return nil, wallet.NewConnectivityError("connect "+rawurl, err)
		}
		return nil, fmt.Errorf("cannot read chain id from %s: %w", rawurl, err)
	}

	c := &Client{Client: ec, url: rawurl, chainID: chainID}
	c.logger = logging.RootLogger.With().Str("Client", rawurl).Logger()
	c.logger.Info().Msgf("connected, chainID=%s", chainID)
	return c, nil
}

// checkEndpoint accepts the URL forms rpc.DialContext knows: http(s), ws(s),
// stdio and IPC socket paths.
func checkEndpoint(rawurl string) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEndpoint, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss", "stdio":
		return nil
	case "":
		if u.Path == "" {
			return fmt.Errorf("%w: empty url", ErrBadEndpoint)
		}
		return nil
	default:
		return fmt.Errorf("%w: no transport for scheme %q", ErrBadEndpoint, u.Scheme)
	}
}

func (c *Client) URL() string {
	return c.url
}

// CachedChainID returns the chain id read when connecting.
func (c *Client) CachedChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

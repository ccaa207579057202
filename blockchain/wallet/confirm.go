package wallet

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errPending = errors.New("transaction not yet mined")

// waitMined polls for the receipt of hash until it shows up, the confirm
// timeout elapses (ErrConfirmationTimeout) or the node becomes unreachable.
func (w *Wallet) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.pollInterval
	b.MaxInterval = 4 * w.pollInterval
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = w.confirmTimeout

	var receipt *types.Receipt
	poll := func() error {
		r, err := w.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && r != nil:
			receipt = r
			return nil
		case err == nil || errors.Is(err, ethereum.NotFound):
			return errPending
		case IsConnectivity(err):
			return backoff.Permanent(NewConnectivityError("receipt", err))
		default:
			w.logger.Debug().Err(err).Str("tx", hash.Hex()).Msg("receipt lookup failed, retrying")
			return errPending
		}
	}

	err := backoff.Retry(poll, backoff.WithContext(b, ctx))
	switch {
	case err == nil:
		return receipt, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, errPending):
		return nil, ErrConfirmationTimeout
	default:
		return nil, err
	}
}

package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/bookstore/blockchain/transaction"
	"go.dedis.ch/bookstore/logging"
)

const (
	DefaultConfirmTimeout = 30 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// Backend is the part of a ledger node the wallet talks to. Both
// *ethclient.Client and the go-ethereum simulated backend satisfy it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type WalletConf struct {
	Name    string
	Backend Backend
	ChainID *big.Int
	// ConfirmTimeout bounds the wait for a receipt.
	ConfirmTimeout time.Duration
	// PollInterval is the first delay between receipt polls.
	PollInterval time.Duration
}

// Wallet submits transactions to a ledger and reports how each one ended.
// One submission is in flight at a time; callers wanting throughput run
// several wallets with distinct caller accounts.
type Wallet struct {
	logger zerolog.Logger

	backend        Backend
	chainID        *big.Int
	confirmTimeout time.Duration
	pollInterval   time.Duration

	mu sync.Mutex
}

func NewWallet(conf WalletConf) *Wallet {
	w := Wallet{}
	w.backend = conf.Backend
	w.chainID = new(big.Int).Set(conf.ChainID)
	w.confirmTimeout = conf.ConfirmTimeout
	if w.confirmTimeout <= 0 {
		w.confirmTimeout = DefaultConfirmTimeout
	}
	w.pollInterval = conf.PollInterval
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}

	name := conf.Name
	if name == "" {
		name = "default"
	}
	w.logger = logging.RootLogger.With().Str("Wallet", name).Logger()
	w.logger.Debug().Msgf("wallet created: chainID=%s, confirmTimeout=%s, pollInterval=%s",
		w.chainID, w.confirmTimeout, w.pollInterval)
	return &w
}

func (w *Wallet) ChainID() *big.Int {
	return new(big.Int).Set(w.chainID)
}

// Submit sends req to the ledger and waits until it is committed in a
// block, refused, or the confirmation timeout elapses. Refusals and timeouts
// are returned as rejected outcomes; the error is non-nil only when the
// ledger is unreachable (*ConnectivityError) or ctx is done. policy only
// affects how the outcome is logged.
func (w *Wallet) Submit(ctx context.Context, req *transaction.Request, policy transaction.Policy) (*transaction.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := w.logger.With().
		Str("submission", xid.New().String()).
		Str("op", req.Operation()).
		Str("from", req.From().Address().Hex()).
		Logger()
	logger.Debug().Msgf("submitting %s", req)

	outcome, err := w.submit(ctx, logger, req)
	if err != nil {
		logger.Error().Err(err).Msg("submission aborted")
		return nil, err
	}

	verdict := transaction.Judge(outcome, policy)
	event := logger.Info()
	if !verdict.Pass {
		event = logger.Warn()
	}
	event.Bool("pass", verdict.Pass).Str("policy", policy.String()).Msg(outcome.String())
	return outcome, nil
}

func (w *Wallet) submit(ctx context.Context, logger zerolog.Logger, req *transaction.Request) (*transaction.Outcome, error) {
	label := req.Label()
	refuse := func(op string, err error) (*transaction.Outcome, error) {
		reason, fatal := classify(ctx, op, err)
		if fatal != nil {
			return nil, fatal
		}
		logger.Debug().Err(err).Msgf("%s refused", op)
		return transaction.NewRejected(label, transaction.SubmissionRejected, reason, nil), nil
	}

	data, err := req.Data()
	if err != nil {
		return transaction.NewRejected(label, transaction.SubmissionRejected, err.Error(), nil), nil
	}

	from := req.From().Address()
	msg := ethereum.CallMsg{From: from, To: req.To(), Value: req.Value(), Data: data}

	nonce, err := w.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return refuse("nonce", err)
	}
	gas, err := w.backend.EstimateGas(ctx, msg)
	if err != nil {
		return refuse("estimate gas", err)
	}
	tx, err := w.buildTx(ctx, nonce, gas, msg)
	if err != nil {
		return refuse("fees", err)
	}

	signer, err := req.From().Signer(w.chainID)
	if err != nil {
		return transaction.NewRejected(label, transaction.SubmissionRejected, err.Error(), nil), nil
	}
	signed, err := signer(from, tx)
	if err != nil {
		return transaction.NewRejected(label, transaction.SubmissionRejected, err.Error(), nil), nil
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return refuse("send", err)
	}

	hash := signed.Hash()
	logger.Debug().Str("tx", hash.Hex()).Msg("sent, waiting for receipt")

	receipt, err := w.waitMined(ctx, hash)
	if errors.Is(err, ErrConfirmationTimeout) {
		return transaction.NewRejected(label, transaction.ConfirmationTimeout, transaction.ReasonConfirmationTimeout, &hash), nil
	}
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		reason, err := w.replay(ctx, msg, receipt.BlockNumber)
		if err != nil {
			return nil, err
		}
		return transaction.NewRejected(label, transaction.ExecutionReverted, reason, &hash), nil
	}

	conf := transaction.Confirmation{
		BlockNumber: receipt.BlockNumber,
		BlockHash:   receipt.BlockHash,
		GasUsed:     receipt.GasUsed,
	}
	if req.To() == nil {
		addr := receipt.ContractAddress
		conf.ContractAddress = &addr
	}
	return transaction.NewCommitted(label, hash, conf), nil
}

// buildTx prices the transaction the way the node expects it: dynamic fees
// once the head carries a base fee, a legacy gas price before that.
func (w *Wallet) buildTx(ctx context.Context, nonce, gas uint64, msg ethereum.CallMsg) (*types.Transaction, error) {
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot read head: %w", err)
	}

	if head.BaseFee == nil {
		price, err := w.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot suggest gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       msg.To,
			Value:    msg.Value,
			Data:     msg.Data,
		}), nil
	}

	tip, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot suggest gas tip: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        msg.To,
		Value:     msg.Value,
		Data:      msg.Data,
	}), nil
}

// replay re-executes a reverted call against the state before its block to
// recover the revert reason.
func (w *Wallet) replay(ctx context.Context, msg ethereum.CallMsg, block *big.Int) (string, error) {
	var at *big.Int
	if block != nil && block.Sign() > 0 {
		at = new(big.Int).Sub(block, big.NewInt(1))
	}
	_, err := w.backend.CallContract(ctx, msg, at)
	if err == nil {
		return "execution reverted", nil
	}
	reason, fatal := classify(ctx, "replay", err)
	if fatal != nil {
		return "", fatal
	}
	return reason, nil
}

// Call runs a read-only method at the latest block. It never creates a
// transaction.
func (w *Wallet) Call(ctx context.Context, from, to common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot pack %s arguments: %w", method, err)
	}
	out, err := w.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if IsConnectivity(err) {
			return nil, NewConnectivityError("call "+method, err)
		}
		return nil, fmt.Errorf("call %s: %s", method, revertReason(err))
	}
	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("cannot unpack %s result: %w", method, err)
	}
	return values, nil
}

// Balance returns the balance of addr at the latest block, in wei.
func (w *Wallet) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := w.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if IsConnectivity(err) {
			return nil, NewConnectivityError("balance", err)
		}
		return nil, fmt.Errorf("cannot read balance of %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

func (w *Wallet) ShowAccount(ctx context.Context, addr common.Address) (AccountInfo, error) {
	balance, err := w.Balance(ctx, addr)
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{Addr: addr, Balance: balance}, nil
}

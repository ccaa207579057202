package testing

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

const simulatedGasLimit = 10_000_000

// SimulatedLedger is a go-ethereum simulated chain that mines a block for
// every sent transaction, unless built WithHoldMining.
type SimulatedLedger struct {
	*backends.SimulatedBackend

	hold bool
	mu   sync.Mutex
	sent []common.Hash
}

func NewSimulatedLedger(t *testing.T, opts ...Option) *SimulatedLedger {
	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}
	alloc := core.GenesisAlloc{}
	for acc, wei := range template.funds {
		alloc[acc.Address()] = core.GenesisAccount{Balance: wei}
	}
	sim := backends.NewSimulatedBackend(alloc, simulatedGasLimit)
	t.Cleanup(func() { sim.Close() })
	return &SimulatedLedger{SimulatedBackend: sim, hold: template.holdMining}
}

// SendTransaction refuses transactions the sender cannot pay for, as a node's
// transaction pool does, then hands them to the simulated chain.
func (s *SimulatedLedger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(s.ChainID()), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	balance, err := s.BalanceAt(ctx, from, nil)
	if err != nil {
		return err
	}
	if balance.Cmp(tx.Cost()) < 0 {
		return fmt.Errorf("%w: address %s have %s want %s", core.ErrInsufficientFunds, from.Hex(), balance, tx.Cost())
	}
	if err := s.SimulatedBackend.SendTransaction(ctx, tx); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, tx.Hash())
	s.mu.Unlock()
	if !s.hold {
		s.Commit()
	}
	return nil
}

// Sent lists the hashes of accepted transactions, in order.
func (s *SimulatedLedger) Sent() []common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Hash(nil), s.sent...)
}

// ChainID is the chain id the simulated chain signs for.
func (s *SimulatedLedger) ChainID() *big.Int {
	return new(big.Int).Set(params.AllEthashProtocolChanges.ChainID)
}

// ProbeABI describes the single payable method of the probe contracts.
const ProbeABI = `[{"type":"function","name":"poke","inputs":[],"outputs":[],"stateMutability":"payable"}]`

func ParseProbeABI(t *testing.T) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ProbeABI))
	require.NoError(t, err)
	return &parsed
}

// AcceptingCode is creation code for a contract that accepts any call and
// any value.
func AcceptingCode() []byte {
	runtime := []byte{byte(vm.STOP)}
	return append(copyAndExit(len(runtime), vm.RETURN), runtime...)
}

// RevertingCode is creation code for a contract whose every call reverts
// with Error(reason). reason must be short enough for the payload to fit in
// 255 bytes.
func RevertingCode(reason string) []byte {
	payload := RevertPayload(reason)
	runtime := append(copyAndExit(len(payload), vm.REVERT), payload...)
	return append(copyAndExit(len(runtime), vm.RETURN), runtime...)
}

// copyAndExit copies the n bytes that follow it in the code to memory and
// ends execution with exit (RETURN or REVERT) over them.
func copyAndExit(n int, exit vm.OpCode) []byte {
	const header = 12
	return []byte{
		byte(vm.PUSH1), byte(n), byte(vm.PUSH1), header, byte(vm.PUSH1), 0, byte(vm.CODECOPY),
		byte(vm.PUSH1), byte(n), byte(vm.PUSH1), 0, byte(exit),
	}
}

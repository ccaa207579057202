package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// nodeError mimics a JSON-RPC error object returned by a node.
type nodeError struct {
	msg  string
	data interface{}
}

func (e nodeError) Error() string          { return e.msg }
func (e nodeError) ErrorCode() int         { return 3 }
func (e nodeError) ErrorData() interface{} { return e.data }

// "Only seller" encoded as Error(string)
const onlySellerData = "0x08c379a0" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"000000000000000000000000000000000000000000000000000000000000000b" +
	"4f6e6c792073656c6c6572000000000000000000000000000000000000000000"

func TestIsConnectivity(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	require.True(t, IsConnectivity(refused))
	require.True(t, IsConnectivity(&url.Error{Op: "Post", URL: "http://127.0.0.1:8545", Err: refused}))
	require.True(t, IsConnectivity(fmt.Errorf("cannot read head: %w", io.EOF)))
	require.True(t, IsConnectivity(NewConnectivityError("dial", errors.New("boom"))))

	require.False(t, IsConnectivity(nil))
	require.False(t, IsConnectivity(errors.New("execution reverted")))
	require.False(t, IsConnectivity(nodeError{msg: "insufficient funds"}))
}

func TestIsConnectivityHTTPStatus(t *testing.T) {
	reply := func(code int) rpc.HTTPError {
		return rpc.HTTPError{StatusCode: code, Status: http.StatusText(code)}
	}

	require.True(t, IsConnectivity(reply(http.StatusBadGateway)))
	require.True(t, IsConnectivity(reply(http.StatusServiceUnavailable)))
	require.True(t, IsConnectivity(reply(http.StatusNotFound)))
	require.True(t, IsConnectivity(fmt.Errorf("send: %w", reply(http.StatusGatewayTimeout))))
	require.True(t, IsConnectivity(&rpc.HTTPError{StatusCode: http.StatusBadGateway}))

	require.False(t, IsConnectivity(reply(http.StatusBadRequest)))
	require.False(t, IsConnectivity(reply(http.StatusUnauthorized)))

	reason, err := classify(context.Background(), "send", reply(http.StatusBadGateway))
	require.Empty(t, reason)
	var ce *ConnectivityError
	require.True(t, errors.As(err, &ce), "got %v", err)
}

// failingBackend answers every read with err.
type failingBackend struct {
	Backend
	err error
}

func (b failingBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, b.err
}

func (b failingBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return nil, b.err
}

func TestReadsReportCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	transportErr := &url.Error{Op: "Post", URL: "http://127.0.0.1:8545", Err: context.Canceled}
	w := NewWallet(WalletConf{Backend: failingBackend{err: transportErr}, ChainID: big.NewInt(1)})

	_, err := w.Balance(ctx, common.Address{})
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	require.False(t, IsConnectivity(err))

	parsed, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"getBookCount","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"}]`))
	require.NoError(t, err)
	_, err = w.Call(ctx, common.Address{}, common.Address{1}, &parsed, "getBookCount")
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	require.False(t, IsConnectivity(err))

	// without cancellation the same failure is a connectivity one
	_, err = w.Balance(context.Background(), common.Address{})
	require.True(t, IsConnectivity(err), "got %v", err)
}

func TestClassify(t *testing.T) {
	reason, err := classify(context.Background(), "estimate gas", nodeError{msg: "execution reverted"})
	require.NoError(t, err)
	require.Equal(t, "execution reverted", reason)

	_, err = classify(context.Background(), "send", io.ErrUnexpectedEOF)
	var ce *ConnectivityError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "send", ce.Op)
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = classify(ctx, "send", errors.New("whatever"))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRevertReasonDecodesData(t *testing.T) {
	raw, err := hexutil.Decode(onlySellerData)
	require.NoError(t, err)
	require.Len(t, raw, 100)

	require.Equal(t, "execution reverted: Only seller",
		revertReason(nodeError{msg: "execution reverted", data: onlySellerData}))

	// already part of the message
	require.Equal(t, "execution reverted: Only seller",
		revertReason(nodeError{msg: "execution reverted: Only seller", data: onlySellerData}))

	require.Equal(t, "execution reverted",
		revertReason(nodeError{msg: "execution reverted", data: "0x"}))
	require.Equal(t, "execution reverted",
		revertReason(nodeError{msg: "execution reverted", data: 42}))
	require.Equal(t, "plain", revertReason(errors.New("plain")))
}

func TestConnectivityErrorFormat(t *testing.T) {
	err := NewConnectivityError("connect http://127.0.0.1:8545", syscall.ECONNREFUSED)
	require.Equal(t, "ConnectivityError: connect http://127.0.0.1:8545: connection refused", err.Error())
	require.Contains(t, fmt.Sprintf("%+v", err), "connection refused")
}

package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/xerrors"
)

// ErrConfirmationTimeout is returned by the receipt wait when the ledger
// did not report the transaction in a block in time. Submit turns it into
// a rejected outcome.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// ConnectivityError means the ledger could not be reached at all. It is the
// only failure Submit returns as an error.
type ConnectivityError struct {
	Op  string
	err error
}

func NewConnectivityError(op string, err error) *ConnectivityError {
	return &ConnectivityError{Op: op, err: err}
}

func (ce *ConnectivityError) Error() string {
	return fmt.Sprintf("ConnectivityError: %s: %s", ce.Op, ce.err)
}

func (ce *ConnectivityError) Unwrap() error {
	return ce.err
}

func (ce *ConnectivityError) Format(s fmt.State, v rune) {
	xerrors.FormatError(ce, s, v)
}

func (ce *ConnectivityError) FormatError(p xerrors.Printer) error {
	p.Printf("ConnectivityError: %s", ce.Op)
	return ce.err
}

// IsConnectivity reports whether err comes from the transport rather than
// from the ledger. Anything the ledger answered with, JSON-RPC error objects
// included, is not a connectivity failure.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	if status, ok := httpStatus(err); ok {
		return unreachableStatus(status)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, rpc.ErrClientQuit)
}

// httpStatus extracts the status of a non-2xx reply of an HTTP endpoint.
func httpStatus(err error) (int, bool) {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	var httpErrPtr *rpc.HTTPError
	if errors.As(err, &httpErrPtr) && httpErrPtr != nil {
		return httpErrPtr.StatusCode, true
	}
	return 0, false
}

// unreachableStatus reports whether an HTTP status means the node itself was
// not reached: a gateway or server failure, a wrong path, or a timeout.
func unreachableStatus(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusNotFound ||
		status == http.StatusRequestTimeout
}

// classify splits a ledger call failure into a fatal error (connectivity or
// caller cancellation) and a rejection reason.
func classify(ctx context.Context, op string, err error) (string, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if IsConnectivity(err) {
		return "", NewConnectivityError(op, err)
	}
	return revertReason(err), nil
}

// revertReason renders a ledger error, appending the decoded Error(string)
// payload when the node returned revert data the message does not already
// show.
func revertReason(err error) string {
	msg := err.Error()
	var de rpc.DataError
	if !errors.As(err, &de) {
		return msg
	}
	raw, ok := de.ErrorData().(string)
	if !ok {
		return msg
	}
	data, decErr := hexutil.Decode(raw)
	if decErr != nil {
		return msg
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil || strings.Contains(msg, reason) {
		return msg
	}
	return msg + ": " + reason
}

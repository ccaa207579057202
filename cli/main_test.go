package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/bookstore/blockchain/wallet"
	"go.dedis.ch/bookstore/config"
	"go.dedis.ch/bookstore/contract"
)

const someone = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

// stubNode answers eth_chainId and eth_getBalance (10 ETH for everyone).
func stubNode(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = "0x7a69"
		case "eth_getBalance":
			resp["result"] = "0x8ac7230489e80000"
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	app := newApp()
	out := new(bytes.Buffer)
	app.Writer = out
	app.ErrWriter = out
	err := app.Run(append([]string{"bookstore"}, args...))
	return out.String(), err
}

func TestBalance(t *testing.T) {
	srv := stubNode(t)

	out, err := run(t, "--rpc-url", srv.URL, "balance", "--address", someone)
	require.NoError(t, err)
	require.Contains(t, out, "Balance=10 ETH")
	require.Contains(t, out, someone)
}

func TestBalanceRejectsBadAddress(t *testing.T) {
	srv := stubNode(t)

	_, err := run(t, "--rpc-url", srv.URL, "balance", "--address", "0x1234")
	require.Error(t, err)
}

func TestDeployWithoutArtifact(t *testing.T) {
	srv := stubNode(t)
	missing := filepath.Join(t.TempDir(), "Bookstore.json")

	_, err := run(t, "--rpc-url", srv.URL, "--artifact", missing, "deploy")
	require.True(t, errors.Is(err, contract.ErrArtifactNotFound), "got %v", err)
}

func TestUnreachableNode(t *testing.T) {
	srv := stubNode(t)
	url := srv.URL
	srv.Close()

	_, err := run(t, "--rpc-url", url, "balance", "--address", someone)

	var ce *wallet.ConnectivityError
	require.True(t, errors.As(err, &ce), "got %v", err)
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "balance", "--address", someone)
	require.True(t, errors.Is(err, config.ErrInvalidConfig), "got %v", err)

	_, err = run(t, "--confirm-timeout", "0s", "balance", "--address", someone)
	require.True(t, errors.Is(err, config.ErrInvalidConfig), "got %v", err)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "bookstore.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)

	seller, buyer, err := cfg.Accounts()
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", seller.Address().Hex())
	require.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", buyer.Address().Hex())
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(write(t, `
rpc_url = "http://node:8545"
confirm_timeout = "5s"
log_level = "debug"
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://node:8545", cfg.RPCURL)
	require.Equal(t, 5*time.Second, cfg.ConfirmTimeout.Duration)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval.Duration)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, DevSellerKey, cfg.SellerKey)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = Load(write(t, `rpc_urll = "typo"`))
	require.Error(t, err)

	_, err = Load(write(t, `confirm_timeout = "soon"`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty url":     func(c *Config) { c.RPCURL = " " },
		"zero timeout":  func(c *Config) { c.ConfirmTimeout.Duration = 0 },
		"zero interval": func(c *Config) { c.PollInterval.Duration = -time.Second },
		"bad level":     func(c *Config) { c.LogLevel = "loud" },
		"bad key":       func(c *Config) { c.BuyerKey = "0xzz" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)

	cfg, err := Load(write(t, string(data)))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

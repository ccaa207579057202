package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.dedis.ch/bookstore/blockchain/account"
	"go.dedis.ch/bookstore/logging"
)

// Well-known keys of the first two accounts of a local development node
// (anvil, hardhat) started with the default mnemonic.
const (
	DevSellerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevBuyerKey  = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Duration reads TOML strings such as "30s" or "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	RPCURL         string   `toml:"rpc_url"`
	Artifact       string   `toml:"artifact"`
	SellerKey      string   `toml:"seller_key"`
	BuyerKey       string   `toml:"buyer_key"`
	ConfirmTimeout Duration `toml:"confirm_timeout"`
	PollInterval   Duration `toml:"poll_interval"`
	LogLevel       string   `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		RPCURL:         "http://127.0.0.1:8545",
		Artifact:       "out/Bookstore.sol/Bookstore.json",
		SellerKey:      DevSellerKey,
		BuyerKey:       DevBuyerKey,
		ConfirmTimeout: Duration{30 * time.Second},
		PollInterval:   Duration{500 * time.Millisecond},
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("%w: rpc_url is empty", ErrInvalidConfig)
	}
	if c.ConfirmTimeout.Duration <= 0 {
		return fmt.Errorf("%w: confirm_timeout must be positive", ErrInvalidConfig)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, _, err := c.Accounts(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Accounts builds the seller and buyer identities from their keys.
func (c *Config) Accounts() (seller, buyer *account.Account, err error) {
	seller, err = account.NewAccountFromHex("seller", c.SellerKey)
	if err != nil {
		return nil, nil, err
	}
	buyer, err = account.NewAccountFromHex("buyer", c.BuyerKey)
	if err != nil {
		return nil, nil, err
	}
	return seller, buyer, nil
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

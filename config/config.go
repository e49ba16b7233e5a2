package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the node configuration loaded from TOML.
type Config struct {
	ListenAddress string  `toml:"ListenAddress"`
	DataDir       string  `toml:"DataDir"`
	NetworkName   string  `toml:"NetworkName"`
	Env           string  `toml:"Env"`
	RPCAuthToken  string  `toml:"RPCAuthToken"`
	Genesis       Genesis `toml:"Genesis"`
}

// Genesis holds the presale parameters applied on first boot.
type Genesis struct {
	Admin             string `toml:"Admin"`
	Treasury          string `toml:"Treasury"`
	Coordinator       string `toml:"Coordinator"`
	PresaleStart      int64  `toml:"PresaleStart"`
	TGETimestamp      int64  `toml:"TGETimestamp"`
	MinPurchaseCents  uint64 `toml:"MinPurchaseCents"`
	MaxPurchaseCents  uint64 `toml:"MaxPurchaseCents"`
	VaultSeedTokens   string `toml:"VaultSeedTokens"`
	OraclePriceUSD    int64  `toml:"OraclePriceUSD"`
	OraclePriceExpo   int32  `toml:"OraclePriceExpo"`
	OracleStaticQuote bool   `toml:"OracleStaticQuote"`
}

// Load reads the configuration from the given path, writing defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "noctura-local"
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress: ":8545",
		DataDir:       "./noctura-data",
		NetworkName:   "noctura-local",
		Env:           "dev",
		Genesis: Genesis{
			OraclePriceUSD:    15000000000,
			OraclePriceExpo:   -8,
			OracleStaticQuote: true,
		},
	}
}

func writeDefault(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks the configuration for a runnable node.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if _, err := c.Genesis.AdminAddress(); err != nil {
		return err
	}
	if _, err := c.Genesis.TreasuryAddress(); err != nil {
		return err
	}
	if _, err := c.Genesis.CoordinatorAddress(); err != nil {
		return err
	}
	if c.Genesis.TGETimestamp != 0 && c.Genesis.TGETimestamp < c.Genesis.PresaleStart {
		return fmt.Errorf("config: TGETimestamp precedes PresaleStart")
	}
	if c.Genesis.MinPurchaseCents > 0 && c.Genesis.MaxPurchaseCents > 0 &&
		c.Genesis.MinPurchaseCents > c.Genesis.MaxPurchaseCents {
		return fmt.Errorf("config: MinPurchaseCents exceeds MaxPurchaseCents")
	}
	return nil
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("config: %s address required", field)
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("config: invalid %s address %q", field, value)
	}
	return common.HexToAddress(trimmed), nil
}

// AdminAddress parses the configured admin identity.
func (g Genesis) AdminAddress() ([20]byte, error) {
	return parseAddress("Admin", g.Admin)
}

// TreasuryAddress parses the configured treasury identity.
func (g Genesis) TreasuryAddress() ([20]byte, error) {
	return parseAddress("Treasury", g.Treasury)
}

// CoordinatorAddress parses the configured coordinator identity.
func (g Genesis) CoordinatorAddress() ([20]byte, error) {
	return parseAddress("Coordinator", g.Coordinator)
}

package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// TokenConfig registers a payment token at startup.
type TokenConfig struct {
	Symbol   string `toml:"Symbol"`
	Name     string `toml:"Name"`
	Decimals uint8  `toml:"Decimals"`
}

// AllocationConfig seeds an account balance at startup on fresh data
// directories. Amount is a decimal string of smallest units; an empty
// Token selects the native asset.
type AllocationConfig struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

// Config holds the daemon configuration.
type Config struct {
	RPCAddress     string             `toml:"RPCAddress"`
	GatewayAddress string             `toml:"GatewayAddress"`
	DataDir        string             `toml:"DataDir"`
	NetworkName    string             `toml:"NetworkName"`
	LogFile        string             `toml:"LogFile"`
	LogMaxSizeMB   int                `toml:"LogMaxSizeMB"`
	LogMaxBackups  int                `toml:"LogMaxBackups"`
	Tokens         []TokenConfig      `toml:"Tokens"`
	Allocations    []AllocationConfig `toml:"Allocations"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8545"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = "127.0.0.1:8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./paymint-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "paymint-local"
	}
	if cfg.LogMaxSizeMB == 0 {
		cfg.LogMaxSizeMB = 100
	}
	if cfg.LogMaxBackups == 0 {
		cfg.LogMaxBackups = 3
	}
}

func validate(cfg *Config) error {
	seen := make(map[string]bool)
	for _, token := range cfg.Tokens {
		symbol := strings.TrimSpace(token.Symbol)
		if symbol == "" {
			return fmt.Errorf("config: token symbol required")
		}
		if seen[symbol] {
			return fmt.Errorf("config: duplicate token %s", symbol)
		}
		seen[symbol] = true
	}
	for _, alloc := range cfg.Allocations {
		if _, err := ParseAmount(alloc.Amount); err != nil {
			return fmt.Errorf("config: allocation for %s: %w", alloc.Address, err)
		}
		if alloc.Token != "" && !seen[alloc.Token] {
			return fmt.Errorf("config: allocation references unregistered token %s", alloc.Token)
		}
	}
	return nil
}

// ParseAmount parses a non-negative decimal amount of smallest units.
func ParseAmount(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return amount, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

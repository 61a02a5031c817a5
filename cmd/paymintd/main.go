package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"paymint/config"
	"paymint/core"
	"paymint/core/types"
	"paymint/gateway"
	"paymint/observability/logging"
	"paymint/rpc"
	"paymint/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PAYMINT_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var fileCfg *logging.FileConfig
	if cfg.LogFile != "" {
		fileCfg = &logging.FileConfig{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
	}
	logger := logging.Setup("paymintd", env, fileCfg)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node := core.NewNode(db, core.WithLogger(logger))

	if err := seedLedger(node, cfg); err != nil {
		logger.Error("Failed to seed ledger", slog.Any("error", err))
		os.Exit(1)
	}

	gwServer := gateway.NewServer(node, logger, gateway.Config{
		ServiceName: "paymint-gateway",
		LogRequests: true,
	})
	go func() {
		logger.Info("Gateway listening", slog.String("address", cfg.GatewayAddress))
		if err := gwServer.Start(cfg.GatewayAddress, gateway.Config{ServiceName: "paymint-gateway", LogRequests: true}); err != nil {
			logger.Error("Gateway stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	rpcServer := rpc.NewServer(node)
	logger.Info("RPC listening",
		slog.String("address", cfg.RPCAddress),
		slog.String("network", cfg.NetworkName),
	)
	if err := rpcServer.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// seedLedger registers configured payment tokens and applies balance
// allocations. Registration is idempotent across restarts; allocations
// only apply to accounts that have never been credited.
func seedLedger(node *core.Node, cfg *config.Config) error {
	for _, token := range cfg.Tokens {
		if err := node.RegisterToken(token.Symbol, token.Name, token.Decimals); err != nil {
			return fmt.Errorf("register token %s: %w", token.Symbol, err)
		}
	}
	for _, alloc := range cfg.Allocations {
		addr, err := types.ParseAddress(alloc.Address)
		if err != nil {
			return fmt.Errorf("allocation address: %w", err)
		}
		amount, err := config.ParseAmount(alloc.Amount)
		if err != nil {
			return fmt.Errorf("allocation amount for %s: %w", alloc.Address, err)
		}
		balance, err := node.Balance(addr, alloc.Token)
		if err != nil {
			return fmt.Errorf("allocation balance for %s: %w", alloc.Address, err)
		}
		if balance.Sign() > 0 {
			continue
		}
		if err := node.Credit(addr, alloc.Token, amount); err != nil {
			return fmt.Errorf("credit %s: %w", alloc.Address, err)
		}
	}
	return nil
}

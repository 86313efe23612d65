package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/rokso/pf-auctions/config"
	"github.com/rokso/pf-auctions/core"
	"github.com/rokso/pf-auctions/core/events"
	"github.com/rokso/pf-auctions/native/token"
	"github.com/rokso/pf-auctions/observability/logging"
	"github.com/rokso/pf-auctions/observability/metrics"
	"github.com/rokso/pf-auctions/rpc"
	"github.com/rokso/pf-auctions/storage"

	"github.com/ethereum/go-ethereum/common"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("AUCTIOND_ENV"))
	logger := logging.Setup("auctiond", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	var db storage.Database
	if cfg.Memory {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open data dir", "path", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		db = ldb
	}
	defer db.Close()

	genesis := time.Unix(cfg.GenesisUnix, 0)
	if cfg.GenesisUnix == 0 {
		genesis = time.Now()
	}
	counter := core.HeightCounter(genesis, time.Duration(cfg.CounterIntervalSeconds)*time.Second)

	node, err := core.NewNode(db, cfg.NetworkName, counter, metrics.Engine(), &logEmitter{log: logger})
	if err != nil {
		logger.Error("failed to initialise node", "err", err)
		os.Exit(1)
	}
	if err := seedTokens(node, cfg, logger); err != nil {
		logger.Error("failed to seed token genesis", "err", err)
		os.Exit(1)
	}

	logger.Info("engine ready",
		"network", cfg.NetworkName,
		"custodian", common.Address(core.CustodianAddress(cfg.NetworkName)).Hex(),
		"auctions", node.TotalAuctions(),
	)

	server := rpc.NewServer(node, cfg.RPCAuthToken, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "err", err)
		os.Exit(1)
	}
}

// seedTokens registers configured assets and opening balances on first boot.
// Already-registered assets are left alone so restarts are idempotent.
func seedTokens(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	for _, entry := range cfg.Tokens {
		if !common.IsHexAddress(entry.Asset) {
			return fmt.Errorf("token genesis: invalid asset %q", entry.Asset)
		}
		asset := [20]byte(common.HexToAddress(entry.Asset))
		meta := token.Metadata{Symbol: entry.Symbol, Decimals: entry.Decimals}
		if entry.MintAuthority != "" {
			if !common.IsHexAddress(entry.MintAuthority) {
				return fmt.Errorf("token genesis: invalid mint authority %q", entry.MintAuthority)
			}
			meta.MintAuthority = [20]byte(common.HexToAddress(entry.MintAuthority))
		}
		err := node.RegisterAsset(asset, meta)
		if errors.Is(err, token.ErrAssetExists) {
			continue
		}
		if err != nil {
			return err
		}
		for holder, amount := range entry.Balances {
			if !common.IsHexAddress(holder) {
				return fmt.Errorf("token genesis: invalid holder %q", holder)
			}
			value, ok := new(big.Int).SetString(amount, 10)
			if !ok || value.Sign() <= 0 {
				return fmt.Errorf("token genesis: invalid balance %q for %s", amount, holder)
			}
			if err := node.MintAsset(meta.MintAuthority, asset, [20]byte(common.HexToAddress(holder)), value); err != nil {
				return err
			}
		}
		logger.Info("registered asset", "asset", entry.Asset, "symbol", entry.Symbol)
	}
	return nil
}

// logEmitter mirrors engine events into the structured log.
type logEmitter struct {
	log *slog.Logger
}

func (l *logEmitter) Emit(evt events.Event) {
	if l == nil || evt == nil {
		return
	}
	l.log.Info("engine event", "type", evt.EventType())
}

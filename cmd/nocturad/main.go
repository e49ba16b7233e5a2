package main

import (
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"noctura/config"
	"noctura/core/state"
	"noctura/native/crosschain"
	"noctura/native/sale"
	"noctura/native/staking"
	"noctura/native/vesting"
	"noctura/observability"
	"noctura/observability/logging"
	"noctura/rpc"
	"noctura/storage"
)

const rpcTokenEnv = "NOCTURA_RPC_TOKEN"

// staticOracle serves a fixed quote from configuration. Deployments with a
// live price feed replace it through sale.Engine.SetOracle.
type staticOracle struct {
	price int64
	expo  int32
}

func (o staticOracle) NativeUSD() (sale.Quote, error) {
	return sale.Quote{Price: o.price, Expo: o.expo, Timestamp: time.Now().Unix()}, nil
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup("nocturad", cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := observability.NewEmitter(logger)

	stakingEng := staking.NewEngine()
	stakingEng.SetState(manager)
	stakingEng.SetEmitter(emitter)

	saleEng := sale.NewEngine()
	saleEng.SetState(manager)
	saleEng.SetStakingEngine(stakingEng)
	saleEng.SetEmitter(emitter)
	if cfg.Genesis.OracleStaticQuote {
		saleEng.SetOracle(staticOracle{price: cfg.Genesis.OraclePriceUSD, expo: cfg.Genesis.OraclePriceExpo})
	}

	crossEng := crosschain.NewEngine()
	crossEng.SetState(manager)
	crossEng.SetStakingEngine(stakingEng)
	crossEng.SetEmitter(emitter)

	vestEng := vesting.NewEngine()
	vestEng.SetState(manager)
	vestEng.SetEmitter(emitter)

	if err := applyGenesis(manager, saleEng, cfg, logger); err != nil {
		logger.Error("genesis failed", slog.Any("error", err))
		os.Exit(1)
	}

	authToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if authToken == "" {
		authToken = cfg.RPCAuthToken
	}
	server := rpc.NewServer(saleEng, stakingEng, crossEng, vestEng, logger, authToken)
	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir))
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// applyGenesis initializes the sale ledger and seeds the custody vault on
// first boot. Subsequent boots are a no-op.
func applyGenesis(manager *state.Manager, saleEng *sale.Engine, cfg *config.Config, logger *slog.Logger) error {
	admin, err := cfg.Genesis.AdminAddress()
	if err != nil {
		return err
	}
	treasury, err := cfg.Genesis.TreasuryAddress()
	if err != nil {
		return err
	}
	coordinator, err := cfg.Genesis.CoordinatorAddress()
	if err != nil {
		return err
	}

	_, err = saleEng.Initialize(admin, treasury, coordinator, cfg.Genesis.PresaleStart, cfg.Genesis.TGETimestamp)
	if errors.Is(err, sale.ErrAlreadyInitialized) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("sale ledger initialized",
		slog.Int64("presaleStart", cfg.Genesis.PresaleStart),
		slog.Int64("tge", cfg.Genesis.TGETimestamp))

	if cfg.Genesis.MinPurchaseCents > 0 || cfg.Genesis.MaxPurchaseCents > 0 {
		if err := saleEng.SetPurchaseLimits(admin, cfg.Genesis.MinPurchaseCents, cfg.Genesis.MaxPurchaseCents); err != nil {
			return err
		}
	}

	seed := strings.TrimSpace(cfg.Genesis.VaultSeedTokens)
	if seed == "" {
		return nil
	}
	amount, ok := new(big.Int).SetString(seed, 10)
	if !ok || amount.Sign() < 0 {
		return errors.New("config: invalid VaultSeedTokens")
	}
	vault := manager.ModuleVaultAddress()
	acc, err := manager.GetAccount(vault[:])
	if err != nil {
		return err
	}
	acc = acc.Normalize()
	acc.BalanceNOC = new(big.Int).Add(acc.BalanceNOC, amount)
	if err := manager.PutAccount(vault[:], acc); err != nil {
		return err
	}
	logger.Info("custody vault seeded", slog.String("amount", amount.String()))
	return nil
}

package server

import (
	"battlearena/lib/battles"
	"battlearena/lib/config"
	"battlearena/lib/journal"
	"battlearena/lib/maintenance"
	"battlearena/lib/server/middleware"
	"battlearena/lib/services"
	"battlearena/lib/sui"
	"battlearena/lib/vault"
	"battlearena/lib/wallet"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const PUBLISH_TIMEOUT = 5 * time.Second

// Ledger is everything the service needs from a Sui node.
type Ledger interface {
	battles.Gateway
	wallet.Executor
	GetBalance(ctx context.Context, owner string) (json.RawMessage, error)
	Health(ctx context.Context) bool
}

type ArenaServer struct {
	*fiber.App
	Config         *config.Config
	Db             *services.Database
	Cache          *services.Cache
	VaultManager   vault.VaultManager
	StartupManager *maintenance.StartupManager
	StateMachine   *maintenance.StateMachine

	Ledger     Ledger
	Aggregator *battles.Aggregator
	Poller     *battles.Poller
	Resolver   *battles.Resolver
	Registry   *battles.Registry
	Creator    *battles.Creator
	Journal    *journal.Supervisor
}

func New(cfg *config.Config) (*ArenaServer, error) {
	vault_manager, err := vault.NewVaultManager(cfg.VaultAddress)
	if err != nil {
		return nil, err
	}
	ledger := selectLedger(cfg)
	connector := wallet.NewHttpConnector(cfg.WalletConnectorUrl, vault_manager.ApiKey(vault.API_KEY_WALLET_CONNECTOR))

	return Assemble(cfg, vault_manager, ledger, wallet.NewSubmitter(connector, ledger))
}

// selectLedger prefers the JSON-RPC node and falls back to the transcoded node when the
// former does not answer at boot.
func selectLedger(cfg *config.Config) Ledger {
	primary := sui.NewClient(cfg.RpcUrl)
	if cfg.FallbackRpcUrl == "" {
		return primary
	}
	ctx, cancel := context.WithTimeout(context.Background(), sui.DEFAULT_TIMEOUT)
	defer cancel()
	if primary.Health(ctx) {
		return primary
	}
	slog.Warn("Primary ledger node unreachable, using the fallback node", "primary", cfg.RpcUrl, "fallback", cfg.FallbackRpcUrl)
	return sui.NewFallbackClient(cfg.FallbackRpcUrl)
}

// Assemble wires the battle components around a ledger and a transaction submitter
// and registers the routes. Nothing is started.
func Assemble(cfg *config.Config, vault_manager vault.VaultManager, ledger Ledger, submitter battles.Submitter) (*ArenaServer, error) {
	journal_supervisor, err := journal.NewSupervisor(cfg.JournalWorkers, journal.JournalProcessor)
	if err != nil {
		return nil, err
	}

	server := &ArenaServer{
		App: fiber.New(fiber.Config{
			AppName:      "battlearena",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 3 * time.Minute,
		}),
		Config:         cfg,
		Db:             services.DefaultDatabase(),
		Cache:          services.DefaultCache(),
		VaultManager:   vault_manager,
		StartupManager: maintenance.NewStartupManager(),
		StateMachine:   maintenance.NewStateMachine(),
		Ledger:         ledger,
		Journal:        journal_supervisor,
	}

	server.Aggregator = battles.NewAggregator(ledger, cfg.Target("BattleCreated"))
	server.Poller = battles.NewPoller(server.Aggregator, cfg.PollInterval)
	server.Resolver = battles.NewResolver(ledger, cfg.Target("BattleResult")).WithCache(server.Cache)
	server.Registry = battles.NewRegistry(battles.SessionDeps{
		Gateway:    ledger,
		Submitter:  submitter,
		Resolver:   server.Resolver,
		JoinTarget: cfg.Target("join_battle"),
		GasBudget:  cfg.GasBudget,
		OnReveal:   server.publishOutcome,
	}, cfg.SessionTTL)
	server.Creator = battles.NewCreator(submitter, server.Poller, cfg.Target("create_battle"), cfg.GasBudget)

	server.Poller.OnCommit(server.onSnapshot)

	server.Configure()
	server.RegisterRoutes()
	return server, nil
}

func (server *ArenaServer) Configure() {
	server.App.Use(recover.New())
	server.App.Use(middleware.Logger())
	server.App.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.STATE_MACHINE_KEY, server.StateMachine)
		return c.Next()
	})

	server.App.Use(helmet.New())
	server.App.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func (server *ArenaServer) onSnapshot(snapshot battles.Snapshot) {
	server.StateMachine.Track(snapshot.Healthy)
	server.StartupManager.ReportGateway(snapshot.Healthy)

	if !server.Cache.Connected() || !snapshot.Healthy {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), PUBLISH_TIMEOUT)
	defer cancel()
	if err := server.Cache.StoreSnapshot(ctx, snapshot); err != nil {
		slog.Warn("Failed to cache battle list", "error", err)
	}
}

func (server *ArenaServer) publishOutcome(outcome battles.Outcome) {
	if !server.Cache.Connected() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), PUBLISH_TIMEOUT)
	defer cancel()
	if err := server.Cache.PublishOutcome(ctx, outcome); err != nil {
		slog.Error("Failed to publish outcome", "error", err, "session_id", outcome.SessionID)
	}
}

// Start walks the service from secrets to RUNNING and launches the background loops.
// Cache and database are optional: without them the list is not persisted across
// restarts and outcomes are not journaled.
func (server *ArenaServer) Start(ctx context.Context) {
	slog.Info("Starting the server")

	server.StartupManager.Start(server.StateMachine)

	server.StateMachine.When(
		maintenance.MODE_INIT,
		maintenance.STATE_CONFIGURING,
		maintenance.SUBSTATE_CONFIGURING_SERVICES,
		func() {
			slog.Info("Connecting services ...")
			server.connectServices(ctx)
			server.StartupManager.ChanServices <- true

			go server.Registry.Run(ctx)
			go server.Poller.Run(ctx)
		})

	if _, err := server.VaultManager.GetApiKey(vault.API_KEY_JWT); err != nil {
		slog.Error("Wallet token key retrieval failed", "error", err)
		server.StartupManager.ChanSecrets <- false
		return
	}
	server.StartupManager.ChanSecrets <- true
}

func (server *ArenaServer) connectServices(ctx context.Context) {
	if server.Config.CacheAddress != "" {
		cache_pwd, err := server.VaultManager.GetCachePwd()
		if err != nil {
			slog.Error("Cache pwd retrieval failed", "error", err)
		} else if err := server.Cache.Connect(server.Config.CacheAddress, server.Config.CacheUser, cache_pwd); err != nil {
			slog.Error("Cache connection failed", "error", err)
		} else {
			server.warmStart(ctx)
		}
	}

	if server.Config.DatabaseAddress != "" {
		db_pwd, err := server.VaultManager.GetDbPwd()
		if err != nil {
			slog.Error("Db pwd retrieval failed", "error", err)
		} else {
			uri := services.DatabaseUri(server.Config.DatabaseUser, db_pwd, server.Config.DatabaseAddress, server.Config.DatabaseName)
			if err := server.Db.Connect(uri); err != nil {
				slog.Error("Db connection failed", "error", err)
			}
		}
	}

	if server.Cache.Connected() && server.Db.Connected() {
		if err := server.Journal.Start(ctx, server.Cache, server.Db); err != nil {
			slog.Error("Outcome journal could not start", "error", err)
		}
	}
}

// warmStart serves the cached battle list until the first refresh lands.
func (server *ArenaServer) warmStart(ctx context.Context) {
	snapshot, ok, err := server.Cache.LoadSnapshot(ctx)
	if err != nil {
		slog.Warn("Cannot load cached battle list", "error", err)
		return
	}
	if ok {
		server.Poller.Seed(snapshot.Battles)
		slog.Info("Battle list restored from cache", "count", len(snapshot.Battles))
	}
}

func (server *ArenaServer) Shutdown() error {
	if err := server.Journal.Stop(context.Background()); err != nil {
		slog.Error("Outcome journal shutdown failed", "error", err)
	}
	err := server.App.Shutdown()
	server.Db.Close()
	server.Cache.Close()
	return err
}

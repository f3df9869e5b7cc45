package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Ledger constants. They are opaque to this service and never negotiated at runtime.
const (
	DEFAULT_PACKAGE_ID = "0x0bfd969e437e54473fec12abc771a25c328c53bac5f041eea705fd9f8b5bce8d"
	DEFAULT_MODULE     = "battle_sc"
	DEFAULT_NETWORK    = "testnet"

	RANDOM_OBJECT_ID = "0x8"
	EVENTS_PAGE_SIZE = 50

	DEFAULT_GAS_BUDGET    = 50_000_000
	DEFAULT_POLL_INTERVAL = 5 * time.Second
	DEFAULT_SESSION_TTL   = 30 * time.Minute
	DEFAULT_JOURNAL_SIZE  = 4
)

type Config struct {
	Port int

	Network        string
	RpcUrl         string
	FallbackRpcUrl string
	PackageID      string
	Module         string

	PollInterval time.Duration
	SessionTTL   time.Duration
	GasBudget    uint64

	WalletConnectorUrl string
	CacheAddress       string
	CacheUser          string
	DatabaseAddress    string
	DatabaseUser       string
	DatabaseName       string
	VaultAddress       string
	LogFile            string
	LogLevel           string
	JournalWorkers     int
}

// FullnodeUrl returns the public fullnode endpoint of a Sui network.
func FullnodeUrl(network string) string {
	return fmt.Sprintf("https://fullnode.%s.sui.io:443", network)
}

func Load() (*Config, error) {
	config := &Config{
		Network:            getenv("SUI_NETWORK", DEFAULT_NETWORK),
		FallbackRpcUrl:     os.Getenv("SUI_FALLBACK_URL"),
		PackageID:          getenv("BATTLE_PACKAGE_ID", DEFAULT_PACKAGE_ID),
		Module:             getenv("BATTLE_MODULE", DEFAULT_MODULE),
		WalletConnectorUrl: os.Getenv("WALLET_CONNECTOR_URL"),
		CacheAddress:       os.Getenv("CACHE_ADDRESS"),
		CacheUser:          getenv("CACHE_USER", "arena"),
		DatabaseAddress:    os.Getenv("DATABASE_ADDRESS"),
		DatabaseUser:       getenv("DATABASE_USER", "arena"),
		DatabaseName:       getenv("DATABASE_NAME", "arena"),
		VaultAddress:       os.Getenv("VAULT_ADDR"),
		LogFile:            os.Getenv("LOG_FILE"),
		LogLevel:           getenv("LOG_LEVEL", "debug"),
		GasBudget:          DEFAULT_GAS_BUDGET,
	}
	config.RpcUrl = getenv("SUI_RPC_URL", FullnodeUrl(config.Network))

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	config.Port = port

	config.JournalWorkers, err = strconv.Atoi(getenv("JOURNAL_WORKERS", strconv.Itoa(DEFAULT_JOURNAL_SIZE)))
	if err != nil || config.JournalWorkers <= 0 {
		return nil, fmt.Errorf("invalid JOURNAL_WORKERS: %q", os.Getenv("JOURNAL_WORKERS"))
	}

	config.PollInterval, err = getDuration("BATTLE_POLL_INTERVAL", DEFAULT_POLL_INTERVAL)
	if err != nil {
		return nil, err
	}
	config.SessionTTL, err = getDuration("SESSION_TTL", DEFAULT_SESSION_TTL)
	if err != nil {
		return nil, err
	}

	if budget := os.Getenv("SUI_GAS_BUDGET"); budget != "" {
		config.GasBudget, err = strconv.ParseUint(budget, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUI_GAS_BUDGET: %w", err)
		}
	}
	return config, nil
}

// Target returns the fully qualified name of a member of the battle module.
func (config *Config) Target(member string) string {
	return fmt.Sprintf("%s::%s::%s", config.PackageID, config.Module, member)
}

func getenv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

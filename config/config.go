package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Wallet  WalletConfig
	History HistoryConfig
	Chain   ChainConfig
	Cache   CacheConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type WalletConfig struct {
	Address          string
	Network          string
	AllowanceSpender string
	AssetTTL         time.Duration
	TransactionTTL   time.Duration
	ActiveTTL        time.Duration
	TokensPath       string
}

type HistoryConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitRPS   int
}

type ChainConfig struct {
	RPCURL     string
	PrivateKey string
}

type CacheConfig struct {
	DBPath string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", ""),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Wallet: WalletConfig{
			Address:          getEnv("WALLET_ADDRESS", ""),
			Network:          getEnv("WALLET_NETWORK", "mainnet"),
			AllowanceSpender: getEnv("ALLOWANCE_SPENDER", ""),
			AssetTTL:         getDurationEnv("ASSET_CACHE_TTL", 10*time.Minute),
			TransactionTTL:   getDurationEnv("TRANSACTION_CACHE_TTL", 10*time.Minute),
			ActiveTTL:        getDurationEnv("ACTIVE_CACHE_TTL", 7*24*time.Hour),
			TokensPath:       getEnv("TOKENS_PATH", "tokens.json"),
		},
		History: HistoryConfig{
			BaseURL:        getEnv("HISTORY_BASE_URL", "https://mobidex.io/inf0x"),
			RequestTimeout: getDurationEnv("HISTORY_REQUEST_TIMEOUT", 10*time.Second),
			RateLimitRPS:   getIntEnv("HISTORY_RATE_LIMIT_RPS", 5),
		},
		Chain: ChainConfig{
			RPCURL:     getEnv("CHAIN_RPC_URL", ""),
			PrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
		},
		Cache: CacheConfig{
			DBPath: getEnv("CACHE_DB_PATH", "walletsync.db"),
		},
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

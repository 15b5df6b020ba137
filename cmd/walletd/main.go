package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"walletsync/config"
	"walletsync/internal/adapters/cache"
	chainadapter "walletsync/internal/adapters/chain"
	historyadapter "walletsync/internal/adapters/history"
	httpserver "walletsync/internal/adapters/http/server"
	loggeradapter "walletsync/internal/adapters/logger"
	"walletsync/internal/adapters/state"
	tokensadapter "walletsync/internal/adapters/tokens"
	"walletsync/internal/application/ratelimiter"
	"walletsync/internal/application/wallet"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg := config.Load()

	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	isDevelopment := os.Getenv("APP_ENV") == "development"
	logger, err := loggeradapter.NewLogger(isDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting wallet sync daemon",
		zap.String("address", cfg.Wallet.Address),
		zap.String("network", cfg.Wallet.Network),
	)

	// Persistent cache backend
	if dir := filepath.Dir(cfg.Cache.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create cache directory", zap.Error(err))
		}
	}
	backend, err := cache.NewSQLiteBackend(cfg.Cache.DBPath)
	if err != nil {
		logger.Fatal("Failed to open cache database", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close cache database", zap.Error(err))
		}
	}()
	cacheStore := cache.NewStore(cache.WithBackend(backend))

	// Chain client
	signer, err := chainadapter.NewKeySigner(cfg.Chain.PrivateKey)
	if err != nil {
		logger.Fatal("Failed to load wallet key", zap.Error(err))
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	chainClient, err := chainadapter.Dial(dialCtx, cfg.Chain.RPCURL, signer)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to chain RPC", zap.Error(err))
	}

	// History provider
	historyClient := historyadapter.NewClient(
		&http.Client{Timeout: cfg.History.RequestTimeout},
		cfg.History.BaseURL,
	)
	historyRateLimiter := ratelimiter.NewRateLimiter(
		cfg.History.RateLimitRPS,
		time.Second, // 1 second window
	)
	historyProvider := historyadapter.NewProvider(historyClient, historyRateLimiter)

	// Token repository
	tokenRepo, err := tokensadapter.NewRepository(cfg.Wallet.TokensPath)
	if err != nil {
		logger.Fatal("Failed to load token list", zap.Error(err))
	}
	logger.Info("Token list loaded",
		zap.String("path", cfg.Wallet.TokensPath),
		zap.Int("tokens", tokenRepo.Count()),
	)

	stateStore := state.NewStore()
	errorSink := &loggerSink{logger: logger}

	walletService := wallet.NewService(
		wallet.Config{
			Address:          cfg.Wallet.Address,
			Network:          cfg.Wallet.Network,
			AllowanceSpender: cfg.Wallet.AllowanceSpender,
			AssetTTL:         cfg.Wallet.AssetTTL,
			TransactionTTL:   cfg.Wallet.TransactionTTL,
			ActiveTTL:        cfg.Wallet.ActiveTTL,
		},
		cacheStore,
		tokenRepo,
		chainClient,
		historyProvider,
		chainClient,
		stateStore,
		errorSink,
		logger,
	)

	// Warm the pending-transaction mirror before serving
	if err := walletService.LoadActiveTransactions(context.Background()); err != nil {
		logger.Warn("Failed to restore pending transactions", zap.Error(err))
	}

	handlerAdapter := httpserver.NewHandlerAdapter(walletService, stateStore, logger)

	server := httpserver.NewServer(httpserver.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, handlerAdapter, logger)

	if err := server.Run(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Wallet sync daemon stopped gracefully")
}

// validateConfig validates the configuration
func validateConfig(cfg *config.Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if cfg.Wallet.Address == "" {
		return fmt.Errorf("WALLET_ADDRESS is required")
	}

	if cfg.Chain.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}

	if cfg.Chain.PrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is required")
	}

	return nil
}

// loggerSink reports engine errors to the application log. A UI embedding
// would route these to its error screen instead.
type loggerSink struct {
	logger *loggeradapter.Logger
}

func (s *loggerSink) ReportError(err error) {
	s.logger.Error("wallet sync error", zap.Error(err))
}

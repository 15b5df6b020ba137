package wallet

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"walletsync/internal/adapters/logger"
	"walletsync/internal/domain"
)

// timedBalances wraps a BalanceProvider and logs per-call latency without
// altering results or errors.
type timedBalances struct {
	inner  domain.BalanceProvider
	logger *logger.Logger
}

func newTimedBalances(inner domain.BalanceProvider, log *logger.Logger) timedBalances {
	return timedBalances{inner: inner, logger: log}
}

func (t timedBalances) NativeBalance(ctx context.Context, account string) (*big.Int, error) {
	start := time.Now()
	balance, err := t.inner.NativeBalance(ctx, account)
	t.logger.Debug("native balance fetched",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return balance, err
}

func (t timedBalances) TokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	start := time.Now()
	balance, err := t.inner.TokenBalance(ctx, token, account)
	t.logger.Debug("token balance fetched",
		zap.String("token", token),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return balance, err
}

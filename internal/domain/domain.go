package domain

import (
	"context"
	"math/big"
	"time"

	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

type RateLimiterService interface {
	Allow(ctx context.Context) error
}

// CacheStore is a key/value store with per-entry TTL and get-or-compute
// semantics over serialized payloads. A TTL of zero writes the entry but
// treats it as stale on the next read.
type CacheStore interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error)
}

// BalanceProvider reads account balances from the chain. Amounts are in the
// asset's smallest units.
type BalanceProvider interface {
	NativeBalance(ctx context.Context, account string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account string) (*big.Int, error)
}

// TxSender broadcasts transactions and returns the ledger transaction hash
// synchronously on broadcast acceptance.
type TxSender interface {
	SendEther(ctx context.Context, to string, amount *big.Int) (string, error)
	SendTokens(ctx context.Context, token, to string, amount *big.Int) (string, error)
	SetUnlimitedAllowance(ctx context.Context, token, spender string) (string, error)
}

// HistoryProvider fetches confirmed fill and cancel events for an address
// and reshapes them into transaction records.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, address, network string) ([]transaction.Record, error)
}

// TokenRepository supplies the static list of known tokens merged with
// fetched balances on each asset load.
type TokenRepository interface {
	GetList(ctx context.Context) ([]asset.Token, error)
}

// StateStore is the application state the synchronization engine publishes
// into. Writers replace whole collections; readers get snapshots.
type StateStore interface {
	SetAssets(assets []asset.Asset)
	SetTransactions(txs []transaction.Record)
	AddActiveTransactions(txs []transaction.Active)

	Assets() []asset.Asset
	Transactions() []transaction.Record
	ActiveTransactions() []transaction.Active
}

// ErrorSink is the single error-propagation channel out of the engine. The
// surrounding application routes reported errors to its error screen.
type ErrorSink interface {
	ReportError(err error)
}

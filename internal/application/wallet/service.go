package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"walletsync/internal/adapters/cache"
	"walletsync/internal/adapters/logger"
	"walletsync/internal/domain"
	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

const (
	assetsCacheKey       = "assets"
	transactionsCacheKey = "transactions"
)

const (
	defaultAssetTTL       = 10 * time.Minute
	defaultTransactionTTL = 10 * time.Minute
	defaultActiveTTL      = 7 * 24 * time.Hour
)

// Resource identifies one independently synchronized collection.
type Resource string

const (
	ResourceAssets             Resource = "assets"
	ResourceTransactions       Resource = "transactions"
	ResourceActiveTransactions Resource = "active_transactions"
)

// Status is a resource's synchronization state. Every load re-enters
// StatusLoading, including loads that will be served from cache.
type Status string

const (
	StatusUninitialized Status = "UNINITIALIZED"
	StatusLoading       Status = "LOADING"
	StatusReady         Status = "READY"
)

// Config carries the account identity and cache windows for the engine.
type Config struct {
	// Address is the synced account; Network selects the history service
	// namespace.
	Address string
	Network string

	// AllowanceSpender is the exchange proxy contract granted unlimited
	// allowances.
	AllowanceSpender string

	AssetTTL       time.Duration
	TransactionTTL time.Duration
	ActiveTTL      time.Duration
}

func (c *Config) applyDefaults() {
	if c.AssetTTL == 0 {
		c.AssetTTL = defaultAssetTTL
	}
	if c.TransactionTTL == 0 {
		c.TransactionTTL = defaultTransactionTTL
	}
	if c.ActiveTTL == 0 {
		c.ActiveTTL = defaultActiveTTL
	}
}

// Service is the synchronization engine: it decides when cached data is
// stale, coordinates concurrent fetches against the chain and the history
// service, merges fresh data with locally-originated pending transactions,
// and routes every failure to the single error sink.
type Service struct {
	cfg      Config
	cache    *cache.Store
	tokens   domain.TokenRepository
	balances domain.BalanceProvider
	history  domain.HistoryProvider
	sender   domain.TxSender
	state    domain.StateStore
	errs     domain.ErrorSink
	tracker  *Tracker
	logger   *logger.Logger

	mu       sync.Mutex
	statuses map[Resource]Status
}

func NewService(
	cfg Config,
	store *cache.Store,
	tokens domain.TokenRepository,
	balances domain.BalanceProvider,
	history domain.HistoryProvider,
	sender domain.TxSender,
	state domain.StateStore,
	errs domain.ErrorSink,
	log *logger.Logger,
) *Service {
	cfg.applyDefaults()
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Service{
		cfg:      cfg,
		cache:    store,
		tokens:   tokens,
		balances: newTimedBalances(balances, log),
		history:  history,
		sender:   sender,
		state:    state,
		errs:     errs,
		tracker:  NewTracker(store, cfg.ActiveTTL),
		logger:   log,
		statuses: map[Resource]Status{
			ResourceAssets:             StatusUninitialized,
			ResourceTransactions:       StatusUninitialized,
			ResourceActiveTransactions: StatusUninitialized,
		},
	}
}

// Status returns the synchronization state of one resource.
func (s *Service) Status(r Resource) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[r]
}

// ActiveTransactions returns the tracker's in-memory active set.
func (s *Service) ActiveTransactions() []transaction.Active {
	return s.tracker.List()
}

// cachedAsset is the serialized cache form: the balance stays in the raw
// base-10 string the chain returned and is only converted to a decimal at
// publish time.
type cachedAsset struct {
	asset.Token
	Balance string `json:"balance"`
}

// LoadAssets refreshes the asset list when the cached one has expired, or
// unconditionally when force is set. All token balances and the native
// balance are fetched concurrently; the merged list is published wholesale
// only after every fetch completed. Failures go to the error sink and leave
// previously published assets untouched.
func (s *Service) LoadAssets(ctx context.Context, force bool) error {
	restore := s.enterLoading(ResourceAssets)

	cached, err := cache.GetOrCompute(ctx, s.cache, assetsCacheKey, s.ttl(s.cfg.AssetTTL, force), s.fetchAssets)
	if err != nil {
		restore()
		return s.fail(err)
	}

	assets := make([]asset.Asset, 0, len(cached))
	for _, c := range cached {
		balance, err := decimal.NewFromString(c.Balance)
		if err != nil {
			restore()
			return s.fail(fmt.Errorf("parse balance for %s: %w", c.Symbol, err))
		}
		assets = append(assets, asset.Asset{Token: c.Token, Balance: balance})
	}

	s.state.SetAssets(assets)
	s.setStatus(ResourceAssets, StatusReady)
	s.logger.Info("assets synchronized", zap.Int("count", len(assets)), zap.Bool("forced", force))
	return nil
}

func (s *Service) fetchAssets(ctx context.Context) ([]cachedAsset, error) {
	tokens, err := s.tokens.GetList(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]*big.Int, len(tokens))
	var native *big.Int

	g, gctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		g.Go(func() error {
			balance, err := s.balances.TokenBalance(gctx, token.Address, s.cfg.Address)
			if err != nil {
				return err
			}
			balances[i] = balance
			return nil
		})
	}
	g.Go(func() error {
		balance, err := s.balances.NativeBalance(gctx, s.cfg.Address)
		if err != nil {
			return err
		}
		native = balance
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assets := make([]cachedAsset, 0, len(tokens)+1)
	for i, token := range tokens {
		assets = append(assets, cachedAsset{Token: token, Balance: balances[i].String()})
	}
	assets = append(assets, cachedAsset{Token: asset.NativeToken(), Balance: native.String()})
	return assets, nil
}

// LoadTransactions refreshes confirmed trade history when stale (or forced)
// and publishes it wholesale. Failures go to the error sink; the published
// history is left untouched.
func (s *Service) LoadTransactions(ctx context.Context, force bool) error {
	restore := s.enterLoading(ResourceTransactions)

	records, err := cache.GetOrCompute(ctx, s.cache, transactionsCacheKey, s.ttl(s.cfg.TransactionTTL, force),
		func(ctx context.Context) ([]transaction.Record, error) {
			return s.history.FetchHistory(ctx, s.cfg.Address, s.cfg.Network)
		})
	if err != nil {
		restore()
		return s.fail(err)
	}

	s.state.SetTransactions(records)
	s.setStatus(ResourceTransactions, StatusReady)
	s.logger.Info("transaction history synchronized", zap.Int("count", len(records)), zap.Bool("forced", force))
	return nil
}

// LoadActiveTransactions recovers the persisted active-transaction mirror
// (empty on cold start), publishes it, and immediately re-persists the
// in-memory set so live state wins over the stale mirror on every
// subsequent call.
func (s *Service) LoadActiveTransactions(ctx context.Context) error {
	restore := s.enterLoading(ResourceActiveTransactions)

	recovered, err := s.tracker.Load(ctx)
	if err != nil {
		restore()
		return s.fail(err)
	}

	s.state.AddActiveTransactions(recovered)

	if err := s.tracker.Persist(ctx); err != nil {
		restore()
		return s.fail(err)
	}

	s.setStatus(ResourceActiveTransactions, StatusReady)
	return nil
}

// SendEther broadcasts an ether transfer and records the resulting pending
// transaction. Nothing is recorded when any step fails.
func (s *Service) SendEther(ctx context.Context, to string, amount *big.Int) error {
	txHash, err := s.sender.SendEther(ctx, to, amount)
	if err != nil {
		return s.fail(err)
	}

	active := transaction.Active{
		ID:     txHash,
		Type:   transaction.ActiveTypeSendEther,
		From:   s.cfg.Address,
		To:     to,
		Amount: amount.String(),
	}
	return s.recordActive(ctx, active)
}

// SendTokens broadcasts an ERC-20 transfer and records the resulting
// pending transaction.
func (s *Service) SendTokens(ctx context.Context, token, to string, amount *big.Int) error {
	txHash, err := s.sender.SendTokens(ctx, token, to, amount)
	if err != nil {
		return s.fail(err)
	}

	active := transaction.Active{
		ID:     txHash,
		Type:   transaction.ActiveTypeSendTokens,
		From:   s.cfg.Address,
		To:     to,
		Amount: amount.String(),
		Token:  token,
	}
	return s.recordActive(ctx, active)
}

// SetTokenAllowance grants the configured exchange proxy an unlimited
// allowance on the token and records the resulting pending transaction.
func (s *Service) SetTokenAllowance(ctx context.Context, token string) error {
	txHash, err := s.sender.SetUnlimitedAllowance(ctx, token, s.cfg.AllowanceSpender)
	if err != nil {
		return s.fail(err)
	}

	active := transaction.Active{
		ID:     txHash,
		Type:   transaction.ActiveTypeAllowance,
		Token:  token,
		Amount: transaction.UnlimitedAmount,
	}
	return s.recordActive(ctx, active)
}

func (s *Service) recordActive(ctx context.Context, active transaction.Active) error {
	if err := s.tracker.Record(ctx, active); err != nil {
		return s.fail(err)
	}
	s.state.AddActiveTransactions([]transaction.Active{active})
	s.logger.Info("transaction broadcast",
		zap.String("hash", active.ID),
		zap.String("type", string(active.Type)),
	)
	return nil
}

// fail routes the error, unmodified, to the single error sink and returns
// it.
func (s *Service) fail(err error) error {
	if s.errs != nil {
		s.errs.ReportError(err)
	}
	return err
}

func (s *Service) ttl(window time.Duration, force bool) time.Duration {
	if force {
		return 0
	}
	return window
}

// enterLoading moves the resource to LOADING and returns a func restoring
// the prior status, used on failure so a failed refresh does not mask an
// earlier successful one.
func (s *Service) enterLoading(r Resource) func() {
	s.mu.Lock()
	prev := s.statuses[r]
	s.statuses[r] = StatusLoading
	s.mu.Unlock()

	return func() { s.setStatus(r, prev) }
}

func (s *Service) setStatus(r Resource, status Status) {
	s.mu.Lock()
	s.statuses[r] = status
	s.mu.Unlock()
}

package wallet

import (
	"context"
	"sync"
	"time"

	"walletsync/internal/adapters/cache"
	"walletsync/internal/domain/transaction"
)

// activeCacheKey is the cache mirror of locally-originated transactions.
const activeCacheKey = "transactions:active"

// Tracker holds transactions the user sent this session that confirmed
// history has not yet caught up with. The in-memory list is authoritative;
// the cache mirror exists for cross-session recovery only, written with a
// zero TTL so reads never serve it over live state. Nothing here removes an
// entry once its hash shows up in confirmed history; reconciliation is the
// surrounding application's concern.
type Tracker struct {
	cache     *cache.Store
	mirrorTTL time.Duration

	mu  sync.Mutex
	txs []transaction.Active
}

func NewTracker(store *cache.Store, mirrorTTL time.Duration) *Tracker {
	return &Tracker{
		cache:     store,
		mirrorTTL: mirrorTTL,
	}
}

// Load reads the cache mirror (an empty list on cold start or after the
// mirror window expired), folds it into the in-memory set, and returns the
// loaded entries.
func (t *Tracker) Load(ctx context.Context) ([]transaction.Active, error) {
	loaded, err := cache.GetOrCompute(ctx, t.cache, activeCacheKey, t.mirrorTTL,
		func(context.Context) ([]transaction.Active, error) {
			return []transaction.Active{}, nil
		})
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.txs = append(t.txs, loaded...)
	t.mu.Unlock()

	return loaded, nil
}

// Record appends a newly broadcast transaction and writes the mirror
// through.
func (t *Tracker) Record(ctx context.Context, tx transaction.Active) error {
	t.mu.Lock()
	t.txs = append(t.txs, tx)
	t.mu.Unlock()

	return t.Persist(ctx)
}

// Persist writes the current in-memory list into the cache mirror with a
// zero TTL: durable for the next process start, stale for any read.
func (t *Tracker) Persist(ctx context.Context) error {
	snapshot := t.List()

	_, err := cache.GetOrCompute(ctx, t.cache, activeCacheKey, 0,
		func(context.Context) ([]transaction.Active, error) {
			return snapshot, nil
		})
	return err
}

// List returns a snapshot of the in-memory active set.
func (t *Tracker) List() []transaction.Active {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make([]transaction.Active, len(t.txs))
	copy(snapshot, t.txs)
	return snapshot
}

package state

import (
	"sync"

	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

// Store holds the application-visible wallet state. Collections are replaced
// wholesale by their single writer; readers always see a complete snapshot,
// never a partially updated one.
type Store struct {
	mu sync.RWMutex

	assets       []asset.Asset
	transactions []transaction.Record
	active       []transaction.Active
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetAssets(assets []asset.Asset) {
	snapshot := make([]asset.Asset, len(assets))
	copy(snapshot, assets)

	s.mu.Lock()
	s.assets = snapshot
	s.mu.Unlock()
}

func (s *Store) SetTransactions(txs []transaction.Record) {
	snapshot := make([]transaction.Record, len(txs))
	copy(snapshot, txs)

	s.mu.Lock()
	s.transactions = snapshot
	s.mu.Unlock()
}

func (s *Store) AddActiveTransactions(txs []transaction.Active) {
	s.mu.Lock()
	s.active = append(s.active, txs...)
	s.mu.Unlock()
}

func (s *Store) Assets() []asset.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]asset.Asset, len(s.assets))
	copy(snapshot, s.assets)
	return snapshot
}

func (s *Store) Transactions() []transaction.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]transaction.Record, len(s.transactions))
	copy(snapshot, s.transactions)
	return snapshot
}

func (s *Store) ActiveTransactions() []transaction.Active {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]transaction.Active, len(s.active))
	copy(snapshot, s.active)
	return snapshot
}

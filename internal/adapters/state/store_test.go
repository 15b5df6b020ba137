package state

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

func TestStore_SetAssets_ReplacesWholesale(t *testing.T) {
	store := NewStore()

	store.SetAssets([]asset.Asset{
		{Token: asset.Token{Symbol: "ETH"}, Balance: decimal.NewFromInt(1)},
		{Token: asset.Token{Symbol: "WETH"}, Balance: decimal.NewFromInt(2)},
	})
	store.SetAssets([]asset.Asset{
		{Token: asset.Token{Symbol: "DAI"}, Balance: decimal.NewFromInt(3)},
	})

	assets := store.Assets()
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset after replace, got %d", len(assets))
	}
	if assets[0].Symbol != "DAI" {
		t.Errorf("expected DAI, got %s", assets[0].Symbol)
	}
}

func TestStore_AddActiveTransactions_Appends(t *testing.T) {
	store := NewStore()

	store.AddActiveTransactions([]transaction.Active{{ID: "0xaaa"}})
	store.AddActiveTransactions([]transaction.Active{{ID: "0xbbb"}, {ID: "0xccc"}})

	active := store.ActiveTransactions()
	if len(active) != 3 {
		t.Fatalf("expected 3 active transactions, got %d", len(active))
	}
	if active[0].ID != "0xaaa" || active[2].ID != "0xccc" {
		t.Errorf("append order not preserved: %v", active)
	}
}

func TestStore_ReadersGetSnapshots(t *testing.T) {
	store := NewStore()
	store.SetTransactions([]transaction.Record{{ID: "0x1", Status: transaction.StatusFilled}})

	first := store.Transactions()
	first[0].ID = "mutated"

	second := store.Transactions()
	if second[0].ID != "0x1" {
		t.Errorf("mutating a returned snapshot changed the store: %s", second[0].ID)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.SetAssets([]asset.Asset{{Token: asset.Token{Symbol: "ETH"}}})
			store.AddActiveTransactions([]transaction.Active{{ID: "0x1"}})
		}()
		go func() {
			defer wg.Done()
			_ = store.Assets()
			_ = store.ActiveTransactions()
		}()
	}
	wg.Wait()

	if len(store.ActiveTransactions()) != 8 {
		t.Errorf("expected 8 active transactions, got %d", len(store.ActiveTransactions()))
	}
}

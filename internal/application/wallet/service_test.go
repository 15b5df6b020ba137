package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"walletsync/internal/adapters/cache"
	"walletsync/internal/domain/asset"
	"walletsync/internal/domain/transaction"
)

type mockTokens struct {
	tokens []asset.Token
	err    error
}

func (m *mockTokens) GetList(context.Context) ([]asset.Token, error) {
	return m.tokens, m.err
}

type mockBalances struct {
	mu         sync.Mutex
	native     *big.Int
	nativeErr  error
	token      map[string]*big.Int
	tokenErrs  map[string]error
	nativeHits int
	tokenHits  int
}

func (m *mockBalances) NativeBalance(_ context.Context, account string) (*big.Int, error) {
	m.mu.Lock()
	m.nativeHits++
	m.mu.Unlock()
	if m.nativeErr != nil {
		return nil, m.nativeErr
	}
	return m.native, nil
}

func (m *mockBalances) TokenBalance(_ context.Context, token, account string) (*big.Int, error) {
	m.mu.Lock()
	m.tokenHits++
	m.mu.Unlock()
	if err := m.tokenErrs[token]; err != nil {
		return nil, err
	}
	return m.token[token], nil
}

type mockHistory struct {
	records []transaction.Record
	err     error
	calls   int
}

func (m *mockHistory) FetchHistory(_ context.Context, address, network string) ([]transaction.Record, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockSender struct {
	hash    string
	err     error
	etherTo string
	tokenTo string
}

func (m *mockSender) SendEther(_ context.Context, to string, amount *big.Int) (string, error) {
	m.etherTo = to
	return m.hash, m.err
}

func (m *mockSender) SendTokens(_ context.Context, token, to string, amount *big.Int) (string, error) {
	m.tokenTo = to
	return m.hash, m.err
}

func (m *mockSender) SetUnlimitedAllowance(_ context.Context, token, spender string) (string, error) {
	return m.hash, m.err
}

type mockState struct {
	mu           sync.Mutex
	assets       []asset.Asset
	assetWrites  int
	transactions []transaction.Record
	txWrites     int
	active       []transaction.Active
}

func (m *mockState) SetAssets(assets []asset.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = assets
	m.assetWrites++
}

func (m *mockState) SetTransactions(txs []transaction.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = txs
	m.txWrites++
}

func (m *mockState) AddActiveTransactions(txs []transaction.Active) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = append(m.active, txs...)
}

func (m *mockState) Assets() []asset.Asset                    { return m.assets }
func (m *mockState) Transactions() []transaction.Record       { return m.transactions }
func (m *mockState) ActiveTransactions() []transaction.Active { return m.active }

type mockSink struct {
	mu     sync.Mutex
	errors []error
}

func (m *mockSink) ReportError(err error) {
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type fixture struct {
	service  *Service
	tokens   *mockTokens
	balances *mockBalances
	history  *mockHistory
	sender   *mockSender
	state    *mockState
	sink     *mockSink
}

func newFixture(cfg Config) *fixture {
	if cfg.Address == "" {
		cfg.Address = "0xme"
	}
	if cfg.Network == "" {
		cfg.Network = "mainnet"
	}
	if cfg.AllowanceSpender == "" {
		cfg.AllowanceSpender = "0xproxy"
	}

	f := &fixture{
		tokens: &mockTokens{},
		balances: &mockBalances{
			native: big.NewInt(0),
			token:  make(map[string]*big.Int),
		},
		history: &mockHistory{},
		sender:  &mockSender{hash: "0xhash"},
		state:   &mockState{},
		sink:    &mockSink{},
	}
	f.service = NewService(cfg, cache.NewStore(), f.tokens, f.balances, f.history, f.sender, f.state, f.sink, nil)
	return f
}

func TestLoadAssets_FanOutCompleteness(t *testing.T) {
	f := newFixture(Config{})
	f.tokens.tokens = []asset.Token{
		{Address: "0xaaa", Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
		{Address: "0xbbb", Symbol: "ZRX", Name: "0x Protocol", Decimals: 18},
	}
	f.balances.token["0xaaa"] = big.NewInt(100)
	f.balances.token["0xbbb"] = big.NewInt(250)
	f.balances.native = big.NewInt(7_000_000)

	if err := f.service.LoadAssets(context.Background(), false); err != nil {
		t.Fatalf("LoadAssets: %v", err)
	}

	assets := f.state.assets
	if len(assets) != 3 {
		t.Fatalf("published %d assets, want 3", len(assets))
	}

	var natives int
	for _, a := range assets {
		if a.IsNative() {
			natives++
			if a.Symbol != asset.NativeSymbol {
				t.Errorf("native symbol = %s, want %s", a.Symbol, asset.NativeSymbol)
			}
			if a.Balance.String() != "7000000" {
				t.Errorf("native balance = %s, want 7000000", a.Balance)
			}
		}
	}
	if natives != 1 {
		t.Errorf("published %d native assets, want exactly 1", natives)
	}

	weth, ok := asset.FindByAddress(assets, "0xaaa")
	if !ok || weth.Balance.String() != "100" {
		t.Errorf("WETH balance = %v (found=%v), want 100", weth.Balance, ok)
	}

	if f.service.Status(ResourceAssets) != StatusReady {
		t.Errorf("assets status = %s, want READY", f.service.Status(ResourceAssets))
	}
}

func TestLoadAssets_CacheIdempotence(t *testing.T) {
	f := newFixture(Config{})
	f.tokens.tokens = []asset.Token{{Address: "0xaaa", Symbol: "WETH", Decimals: 18}}
	f.balances.token["0xaaa"] = big.NewInt(1)
	f.balances.native = big.NewInt(2)

	for i := 0; i < 3; i++ {
		if err := f.service.LoadAssets(context.Background(), false); err != nil {
			t.Fatalf("LoadAssets #%d: %v", i, err)
		}
	}

	if f.balances.tokenHits != 1 || f.balances.nativeHits != 1 {
		t.Errorf("fetched %d token / %d native balances across cached loads, want 1/1",
			f.balances.tokenHits, f.balances.nativeHits)
	}
	if f.state.assetWrites != 3 {
		t.Errorf("published %d times, want every load to publish", f.state.assetWrites)
	}
}

func TestLoadAssets_ForceBypassesCache(t *testing.T) {
	f := newFixture(Config{})
	f.tokens.tokens = []asset.Token{{Address: "0xaaa", Symbol: "WETH", Decimals: 18}}
	f.balances.token["0xaaa"] = big.NewInt(1)
	f.balances.native = big.NewInt(2)

	if err := f.service.LoadAssets(context.Background(), false); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if err := f.service.LoadAssets(context.Background(), true); err != nil {
		t.Fatalf("forced load: %v", err)
	}

	if f.balances.nativeHits != 2 {
		t.Errorf("native fetched %d times, want force to refetch", f.balances.nativeHits)
	}
}

func TestLoadAssets_AtomicPublishOnFailure(t *testing.T) {
	f := newFixture(Config{})
	f.tokens.tokens = []asset.Token{
		{Address: "0xaaa", Symbol: "WETH", Decimals: 18},
		{Address: "0xbbb", Symbol: "ZRX", Decimals: 18},
	}
	f.balances.token["0xaaa"] = big.NewInt(1)
	f.balances.token["0xbbb"] = big.NewInt(2)
	f.balances.native = big.NewInt(3)

	if err := f.service.LoadAssets(context.Background(), false); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	before := f.state.assets

	wantErr := errors.New("contract call reverted")
	f.balances.tokenErrs = map[string]error{"0xbbb": wantErr}

	err := f.service.LoadAssets(context.Background(), true)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	if f.state.assetWrites != 1 {
		t.Errorf("failed load published assets (%d writes)", f.state.assetWrites)
	}
	if len(f.state.assets) != len(before) {
		t.Error("published asset collection changed after failed load")
	}
	if f.sink.count() != 1 {
		t.Errorf("error sink invoked %d times, want 1", f.sink.count())
	}
	if f.service.Status(ResourceAssets) != StatusReady {
		t.Errorf("assets status = %s after failed refresh, want prior READY", f.service.Status(ResourceAssets))
	}
}

func TestLoadTransactions_PublishesHistory(t *testing.T) {
	f := newFixture(Config{})
	f.history.records = []transaction.Record{
		{ID: "0xf1", Status: transaction.StatusFilled, TransactionHash: "0xf1"},
		{ID: "0xf2", Status: transaction.StatusFilled, TransactionHash: "0xf2"},
		{ID: "0xc1", Status: transaction.StatusCancelled, TransactionHash: "0xc1"},
	}

	if err := f.service.LoadTransactions(context.Background(), false); err != nil {
		t.Fatalf("LoadTransactions: %v", err)
	}

	got := f.state.transactions
	if len(got) != 3 {
		t.Fatalf("published %d records, want 3", len(got))
	}
	for i, wantID := range []string{"0xf1", "0xf2", "0xc1"} {
		if got[i].ID != wantID {
			t.Errorf("record[%d].ID = %s, want %s (order must be preserved)", i, got[i].ID, wantID)
		}
	}

	// Second call inside the TTL window is served from cache.
	if err := f.service.LoadTransactions(context.Background(), false); err != nil {
		t.Fatalf("cached LoadTransactions: %v", err)
	}
	if f.history.calls != 1 {
		t.Errorf("history fetched %d times, want 1", f.history.calls)
	}
}

func TestLoadTransactions_ErrorRoutingLeavesStateUntouched(t *testing.T) {
	f := newFixture(Config{})
	f.history.records = []transaction.Record{{ID: "0xf1", Status: transaction.StatusFilled}}

	if err := f.service.LoadTransactions(context.Background(), false); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	wantErr := errors.New("history unreachable")
	f.history.err = wantErr

	err := f.service.LoadTransactions(context.Background(), true)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	if f.sink.count() != 1 {
		t.Fatalf("error sink invoked %d times, want 1", f.sink.count())
	}
	if !errors.Is(f.sink.errors[0], wantErr) {
		t.Errorf("sink received %v, want the original error", f.sink.errors[0])
	}
	if f.state.txWrites != 1 {
		t.Errorf("transaction collection written %d times, want untouched after failure", f.state.txWrites)
	}
}

func TestSendEther_RecordsActiveTransaction(t *testing.T) {
	f := newFixture(Config{})
	f.sender.hash = "0xsent"

	if err := f.service.SendEther(context.Background(), "0xrecipient", big.NewInt(5000)); err != nil {
		t.Fatalf("SendEther: %v", err)
	}

	active := f.service.ActiveTransactions()
	if len(active) != 1 {
		t.Fatalf("tracker holds %d entries, want 1", len(active))
	}
	got := active[0]
	if got.ID != "0xsent" || got.Type != transaction.ActiveTypeSendEther {
		t.Errorf("active = %+v", got)
	}
	if got.To != "0xrecipient" || got.Amount != "5000" || got.From != "0xme" {
		t.Errorf("active fields = %+v", got)
	}

	if len(f.state.active) != 1 {
		t.Errorf("state holds %d active transactions, want 1", len(f.state.active))
	}
}

func TestSendEther_FailureRecordsNothing(t *testing.T) {
	f := newFixture(Config{})
	wantErr := errors.New("insufficient funds")
	f.sender.err = wantErr

	err := f.service.SendEther(context.Background(), "0xrecipient", big.NewInt(1))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(f.service.ActiveTransactions()) != 0 {
		t.Error("failed broadcast left an active transaction behind")
	}
	if len(f.state.active) != 0 {
		t.Error("failed broadcast published an active transaction")
	}
	if f.sink.count() != 1 {
		t.Errorf("error sink invoked %d times, want 1", f.sink.count())
	}
}

func TestSendTokens_RecordsTokenAddress(t *testing.T) {
	f := newFixture(Config{})
	f.sender.hash = "0xtok"

	if err := f.service.SendTokens(context.Background(), "0xzrx", "0xrecipient", big.NewInt(42)); err != nil {
		t.Fatalf("SendTokens: %v", err)
	}

	active := f.service.ActiveTransactions()
	if len(active) != 1 {
		t.Fatalf("tracker holds %d entries, want 1", len(active))
	}
	if active[0].Type != transaction.ActiveTypeSendTokens || active[0].Token != "0xzrx" {
		t.Errorf("active = %+v", active[0])
	}
}

func TestSetTokenAllowance_RecordsUnlimitedAmount(t *testing.T) {
	f := newFixture(Config{})
	f.sender.hash = "0xapproval"

	if err := f.service.SetTokenAllowance(context.Background(), "0xzrx"); err != nil {
		t.Fatalf("SetTokenAllowance: %v", err)
	}

	active := f.service.ActiveTransactions()
	if len(active) != 1 {
		t.Fatalf("tracker holds %d entries, want 1", len(active))
	}
	got := active[0]
	if got.Type != transaction.ActiveTypeAllowance {
		t.Errorf("type = %s, want %s", got.Type, transaction.ActiveTypeAllowance)
	}
	if got.Amount != transaction.UnlimitedAmount {
		t.Errorf("amount = %s, want %s", got.Amount, transaction.UnlimitedAmount)
	}
	if got.Token != "0xzrx" {
		t.Errorf("token = %s, want 0xzrx", got.Token)
	}
}

func TestLoadActiveTransactions_ColdStartPublishesEmpty(t *testing.T) {
	f := newFixture(Config{})

	if err := f.service.LoadActiveTransactions(context.Background()); err != nil {
		t.Fatalf("LoadActiveTransactions: %v", err)
	}
	if len(f.state.active) != 0 {
		t.Errorf("cold start published %d active transactions, want 0", len(f.state.active))
	}
	if f.service.Status(ResourceActiveTransactions) != StatusReady {
		t.Errorf("status = %s, want READY", f.service.Status(ResourceActiveTransactions))
	}
}

func TestLoadActiveTransactions_InMemoryStateWinsOverMirror(t *testing.T) {
	f := newFixture(Config{})

	if err := f.service.SendEther(context.Background(), "0xrecipient", big.NewInt(9)); err != nil {
		t.Fatalf("SendEther: %v", err)
	}

	// The mirror was just written with TTL 0, so a later load must not
	// resurrect or reset the in-memory set.
	if err := f.service.LoadActiveTransactions(context.Background()); err != nil {
		t.Fatalf("LoadActiveTransactions: %v", err)
	}

	active := f.service.ActiveTransactions()
	if len(active) != 1 {
		t.Fatalf("tracker holds %d entries after reload, want 1", len(active))
	}
	if active[0].Amount != "9" {
		t.Errorf("entry = %+v", active[0])
	}
}

func TestStatus_InitialAndTransitions(t *testing.T) {
	f := newFixture(Config{})

	for _, r := range []Resource{ResourceAssets, ResourceTransactions, ResourceActiveTransactions} {
		if got := f.service.Status(r); got != StatusUninitialized {
			t.Errorf("initial %s status = %s, want UNINITIALIZED", r, got)
		}
	}

	f.history.err = errors.New("down")
	_ = f.service.LoadTransactions(context.Background(), false)
	if got := f.service.Status(ResourceTransactions); got != StatusUninitialized {
		t.Errorf("status after failed first load = %s, want UNINITIALIZED", got)
	}

	f.history.err = nil
	if err := f.service.LoadTransactions(context.Background(), true); err != nil {
		t.Fatalf("LoadTransactions: %v", err)
	}
	if got := f.service.Status(ResourceTransactions); got != StatusReady {
		t.Errorf("status after successful load = %s, want READY", got)
	}
}

package wallet

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestBalance_NotConnected(t *testing.T) {
	m := NewManager(testConfig(), newFakeProvider())

	if _, err := m.Balance(context.Background(), "ICP"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Balance error = %v, want ErrNotConnected", err)
	}
	if _, err := m.Balances(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Balances error = %v, want ErrNotConnected", err)
	}
}

func TestBalance_Demo(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Connect(context.Background())

	tests := []struct {
		asset string
		want  string
	}{
		{"ICP", "100.5"},
		{"ckBTC", "0.25"},
		{"ckUSDC", "5000.0"},
		{"DOGE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.asset, func(t *testing.T) {
			got, err := m.Balance(context.Background(), tt.asset)
			if err != nil {
				t.Fatalf("Balance failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Balance(%q) = %q, want %q", tt.asset, got, tt.want)
			}
		})
	}
}

func TestBalance_Real(t *testing.T) {
	p := newFakeProvider()
	p.balances = []ProviderBalance{
		{Symbol: "ICP", Amount: dec("12.75")},
		{Name: "ckBTC", Value: dec("0.001")},
		{Symbol: "ckETH", Amount: dec("0"), Value: dec("2")},
		{Symbol: "ckUSDC"},
	}
	m := NewManager(testConfig(), p)
	m.Connect(context.Background())

	tests := []struct {
		asset string
		want  string
	}{
		{"ICP", "12.75"},
		{"ckBTC", "0.001"},
		{"ckETH", "2"},
		{"ckUSDC", "0"},
		{"ckUSDT", "0"},
		{"icp", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.asset, func(t *testing.T) {
			got, err := m.Balance(context.Background(), tt.asset)
			if err != nil {
				t.Fatalf("Balance failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Balance(%q) = %q, want %q", tt.asset, got, tt.want)
			}
		})
	}
}

func TestBalance_RealFailureFallsBackToDemo(t *testing.T) {
	p := newFakeProvider()
	p.balanceErr = errTransport
	events := &eventLog{}
	m := NewManager(testConfig(), p, WithEventSink(events))
	m.Connect(context.Background())

	got, err := m.Balance(context.Background(), "ckBTC")
	if err != nil {
		t.Fatalf("Balance error = %v, want fallback", err)
	}
	if got != "0.25" {
		t.Errorf("Balance = %q, want demo value %q", got, "0.25")
	}

	all, err := m.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances error = %v, want fallback", err)
	}
	if !reflect.DeepEqual(all, testConfig().DemoBalances.Records()) {
		t.Errorf("Balances = %v, want demo table", all)
	}

	want := []EventType{EventConnected, EventBalanceFallback, EventBalanceFallback}
	if got := events.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if events.events[1].Asset != "ckBTC" {
		t.Errorf("fallback asset = %q, want ckBTC", events.events[1].Asset)
	}
}

func TestBalance_MissingCapabilityFallsBack(t *testing.T) {
	m := NewManager(testConfig(), connectOnlyProvider{})
	if _, err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if m.State().IsDemo {
		t.Fatal("expected real session")
	}

	got, err := m.Balance(context.Background(), "ICP")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if got != "100.5" {
		t.Errorf("Balance = %q, want demo value", got)
	}
}

func TestBalances_Real(t *testing.T) {
	p := newFakeProvider()
	p.balances = []ProviderBalance{
		{Symbol: "ICP", Name: "Internet Computer", Amount: dec("3.5")},
		{Name: "ckBTC", Value: dec("0.5")},
		{Symbol: "XTC"},
	}
	m := NewManager(testConfig(), p)
	m.Connect(context.Background())

	got, err := m.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	want := []BalanceRecord{
		{Asset: "ICP", Balance: "3.5"},
		{Asset: "ckBTC", Balance: "0.5"},
		{Asset: "XTC", Balance: "0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Balances = %v, want %v", got, want)
	}
}

// slowBalanceProvider holds RequestBalance open so callers overlap.
type slowBalanceProvider struct {
	*fakeProvider
	delay time.Duration
}

func (p *slowBalanceProvider) RequestBalance(ctx context.Context) ([]ProviderBalance, error) {
	time.Sleep(p.delay)
	return p.fakeProvider.RequestBalance(ctx)
}

func TestBalances_ConcurrentQueriesCoalesced(t *testing.T) {
	fp := newFakeProvider()
	fp.balances = []ProviderBalance{{Symbol: "ICP", Amount: dec("1")}}
	p := &slowBalanceProvider{fakeProvider: fp, delay: 100 * time.Millisecond}
	m := NewManager(testConfig(), p)
	m.Connect(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := m.Balance(context.Background(), "ICP"); err != nil || got != "1" {
				t.Errorf("Balance = %q, %v; want 1, nil", got, err)
			}
		}()
	}
	wg.Wait()

	fp.mu.Lock()
	calls := fp.balanceCalls
	fp.mu.Unlock()
	if calls >= 8 {
		t.Errorf("provider balance calls = %d, want coalesced (< 8)", calls)
	}
}

// ctxBalanceProvider answers after delay unless ctx is done first.
type ctxBalanceProvider struct {
	*fakeProvider
	delay time.Duration
}

func (p *ctxBalanceProvider) RequestBalance(ctx context.Context) ([]ProviderBalance, error) {
	select {
	case <-time.After(p.delay):
		return p.fakeProvider.RequestBalance(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestBalance_CoalescedCallerCancelDoesNotAffectOthers(t *testing.T) {
	fp := newFakeProvider()
	fp.balances = []ProviderBalance{{Symbol: "ICP", Amount: dec("7")}}
	p := &ctxBalanceProvider{fakeProvider: fp, delay: 100 * time.Millisecond}
	log := &eventLog{}
	m := NewManager(testConfig(), p, WithEventSink(log))
	m.Connect(context.Background())

	first, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	var firstGot string
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstGot, _ = m.Balance(first, "ICP")
	}()

	// Join the in-flight query, then cancel the caller that started it
	time.Sleep(10 * time.Millisecond)
	var secondGot string
	var secondErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		secondGot, secondErr = m.Balance(context.Background(), "ICP")
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()

	if secondErr != nil || secondGot != "7" {
		t.Errorf("second Balance = %q, %v; want 7, nil", secondGot, secondErr)
	}
	if firstGot != "100.5" {
		t.Errorf("canceled Balance = %q, want demo value 100.5", firstGot)
	}

	fallbacks := 0
	for _, typ := range log.types() {
		if typ == EventBalanceFallback {
			fallbacks++
		}
	}
	if fallbacks != 1 {
		t.Errorf("balance_fallback events = %d, want 1", fallbacks)
	}

	fp.mu.Lock()
	calls := fp.balanceCalls
	fp.mu.Unlock()
	if calls != 1 {
		t.Errorf("provider balance calls = %d, want 1", calls)
	}
}

func TestBalances_CoalescedErrorReachesEveryCaller(t *testing.T) {
	fp := newFakeProvider()
	fp.balanceErr = errTransport
	p := &slowBalanceProvider{fakeProvider: fp, delay: 50 * time.Millisecond}
	log := &eventLog{}
	m := NewManager(testConfig(), p, WithEventSink(log))
	m.Connect(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Balances(context.Background())
			if err != nil {
				t.Errorf("Balances error = %v, want nil", err)
				return
			}
			if len(got) != 5 {
				t.Errorf("Balances = %d records, want 5 demo records", len(got))
			}
		}()
	}
	wg.Wait()

	fallbacks := 0
	for _, typ := range log.types() {
		if typ == EventBalanceFallback {
			fallbacks++
		}
	}
	if fallbacks != 4 {
		t.Errorf("balance_fallback events = %d, want 4", fallbacks)
	}
}

func TestProviderBalance_AmountString(t *testing.T) {
	tests := []struct {
		name string
		b    ProviderBalance
		want string
	}{
		{"amount", ProviderBalance{Amount: dec("1.10")}, "1.1"},
		{"value", ProviderBalance{Value: dec("7")}, "7"},
		{"zero amount uses value", ProviderBalance{Amount: dec("0"), Value: dec("4.2")}, "4.2"},
		{"both missing", ProviderBalance{}, "0"},
		{"integer amount", ProviderBalance{Amount: dec("100000000")}, "100000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.AmountString(); got != tt.want {
				t.Errorf("AmountString() = %q, want %q", got, tt.want)
			}
		})
	}
}

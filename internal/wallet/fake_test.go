package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var errTransport = errors.New("bridge unreachable")

// fakeProvider implements every capability; each can be overridden.
type fakeProvider struct {
	mu sync.Mutex

	connected  bool
	principal  string
	grant      bool
	connectErr error
	probeErr   error
	balances   []ProviderBalance
	balanceErr error
	discErr    error
	actorErr   error

	connectCalls    int
	disconnectCalls int
	balanceCalls    int
	lastRequest     ConnectRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{principal: "2vxsx-fae-real", grant: true}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) IsConnected(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected, p.probeErr
}

func (p *fakeProvider) GetPrincipal(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.principal, nil
}

func (p *fakeProvider) RequestConnect(ctx context.Context, req ConnectRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectCalls++
	p.lastRequest = req
	if p.connectErr != nil {
		return false, p.connectErr
	}
	return p.grant, nil
}

func (p *fakeProvider) RequestBalance(ctx context.Context) ([]ProviderBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceCalls++
	return p.balances, p.balanceErr
}

func (p *fakeProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectCalls++
	return p.discErr
}

func (p *fakeProvider) CreateActor(ctx context.Context, req ActorRequest) (Actor, error) {
	if p.actorErr != nil {
		return nil, p.actorErr
	}
	return &fakeActor{id: req.CanisterID}, nil
}

type fakeActor struct{ id string }

func (a *fakeActor) CanisterID() string { return a.id }

func (a *fakeActor) Call(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`"real"`), nil
}

// connectOnlyProvider lacks balance, disconnect and actor capabilities.
type connectOnlyProvider struct{}

func (connectOnlyProvider) Name() string { return "minimal" }

func (connectOnlyProvider) RequestConnect(ctx context.Context, req ConnectRequest) (bool, error) {
	return true, nil
}

func (connectOnlyProvider) GetPrincipal(ctx context.Context) (string, error) {
	return "minimal-principal", nil
}

// eventLog collects recorded events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Whitelist = []string{"exchange-canister", "frontend-canister"}
	return cfg
}

package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultDemoSeed seeds the demo identifier when none is configured.
	DefaultDemoSeed = "walletlink"

	// DefaultHost is the network host sent with the connection handshake.
	DefaultHost = "https://icp0.io"
)

// demoNamespace is the UUID namespace for demo identifiers. Changing it
// changes every derived demo identifier.
var demoNamespace = uuid.MustParse("6f1c2d0e-8a4b-5c7d-9e3f-0a1b2c3d4e5f")

// DemoIdentifier derives the deterministic demo identifier for seed.
func DemoIdentifier(seed string) string {
	if seed == "" {
		seed = DefaultDemoSeed
	}
	return "demo-" + uuid.NewSHA1(demoNamespace, []byte(seed)).String()
}

// DemoEntry is one configured demo balance.
type DemoEntry struct {
	Asset  string
	Amount string
}

// DemoBalances is an ordered, immutable table of demo balances.
type DemoBalances struct {
	order   []string
	amounts map[string]string
}

// DefaultDemoEntries returns the built-in demo table.
func DefaultDemoEntries() []DemoEntry {
	return []DemoEntry{
		{Asset: "ICP", Amount: "100.5"},
		{Asset: "ckBTC", Amount: "0.25"},
		{Asset: "ckETH", Amount: "1.5"},
		{Asset: "ckUSDC", Amount: "5000.0"},
		{Asset: "ckUSDT", Amount: "5000.0"},
	}
}

// NewDemoBalances validates entries and builds a table. Amounts must parse
// as decimals and assets must be unique and non-empty.
func NewDemoBalances(entries []DemoEntry) (DemoBalances, error) {
	t := DemoBalances{
		order:   make([]string, 0, len(entries)),
		amounts: make(map[string]string, len(entries)),
	}
	for i, e := range entries {
		if e.Asset == "" {
			return DemoBalances{}, fmt.Errorf("demo balance %d: asset is required", i)
		}
		if _, dup := t.amounts[e.Asset]; dup {
			return DemoBalances{}, fmt.Errorf("demo balance %q: duplicate asset", e.Asset)
		}
		if _, err := decimal.NewFromString(e.Amount); err != nil {
			return DemoBalances{}, fmt.Errorf("demo balance %q: invalid amount %q: %w", e.Asset, e.Amount, err)
		}
		t.order = append(t.order, e.Asset)
		t.amounts[e.Asset] = e.Amount
	}
	return t, nil
}

// MustDemoBalances is NewDemoBalances that panics on invalid input.
func MustDemoBalances(entries []DemoEntry) DemoBalances {
	t, err := NewDemoBalances(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Amount returns the configured amount for asset, or "0".
func (t DemoBalances) Amount(asset string) string {
	if a, ok := t.amounts[asset]; ok {
		return a
	}
	return "0"
}

// Records returns every entry in configured order.
func (t DemoBalances) Records() []BalanceRecord {
	out := make([]BalanceRecord, 0, len(t.order))
	for _, asset := range t.order {
		out = append(out, BalanceRecord{Asset: asset, Balance: t.amounts[asset]})
	}
	return out
}

// Len returns the number of configured assets.
func (t DemoBalances) Len() int {
	return len(t.order)
}

// demoActor answers declared methods with a JSON null and never touches
// the network.
type demoActor struct {
	canisterID string
	iface      InterfaceDescriptor
}

func (a *demoActor) CanisterID() string {
	return a.canisterID
}

func (a *demoActor) Call(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error) {
	if _, ok := a.iface.Method(method); !ok {
		return nil, fmt.Errorf("%s.%s: %w", a.iface.Service, method, ErrUnknownMethod)
	}
	return json.RawMessage("null"), nil
}

// IsDemoActor reports whether a was created for a demo session.
func IsDemoActor(a Actor) bool {
	_, ok := a.(*demoActor)
	return ok
}

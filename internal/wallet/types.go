package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the connection status of a session.
type Status string

const (
	StatusDisconnected  Status = "disconnected"
	StatusConnected     Status = "connected"
	StatusDemoConnected Status = "demo_connected"
)

// SessionState is a snapshot of the session. Values are copies; mutating one
// never affects the Manager.
type SessionState struct {
	Identifier string `json:"identifier,omitempty"` // Empty iff disconnected
	Status     Status `json:"status"`
	IsDemo     bool   `json:"is_demo"`
}

// Active reports whether a real or demo session exists.
func (s SessionState) Active() bool {
	return s.Status != StatusDisconnected
}

// BalanceRecord is a single asset balance returned to callers.
type BalanceRecord struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"` // Decimal string, e.g. "100.5"
}

// ProviderBalance is one entry of a provider's balance answer.
type ProviderBalance struct {
	Symbol string           `json:"symbol,omitempty"`
	Name   string           `json:"name,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Value  *decimal.Decimal `json:"value,omitempty"`
}

// Label returns the symbol, or the name when no symbol is set.
func (b ProviderBalance) Label() string {
	if b.Symbol != "" {
		return b.Symbol
	}
	return b.Name
}

// Matches reports whether the entry names asset by symbol or name.
func (b ProviderBalance) Matches(asset string) bool {
	return b.Symbol == asset || b.Name == asset
}

// AmountString resolves the entry amount: amount if non-zero, else value if
// non-zero, else "0".
func (b ProviderBalance) AmountString() string {
	if b.Amount != nil && !b.Amount.IsZero() {
		return b.Amount.String()
	}
	if b.Value != nil && !b.Value.IsZero() {
		return b.Value.String()
	}
	return decimal.Zero.String()
}

// ConnectRequest is the handshake sent to the provider.
type ConnectRequest struct {
	Whitelist []string `json:"whitelist"` // Authorized service (canister) IDs
	Host      string   `json:"host"`      // Target network host
}

// MethodDescriptor declares one remote method of a service.
type MethodDescriptor struct {
	Name    string   `json:"name"`
	Args    []string `json:"args,omitempty"`
	Results []string `json:"results,omitempty"`
	Query   bool     `json:"query,omitempty"`
}

// InterfaceDescriptor declares the remote interface of a service.
type InterfaceDescriptor struct {
	Service string             `json:"service"`
	Methods []MethodDescriptor `json:"methods"`
}

// Method looks up a declared method by name.
func (d InterfaceDescriptor) Method(name string) (MethodDescriptor, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodDescriptor{}, false
}

// ActorRequest asks a provider for an actor handle.
type ActorRequest struct {
	CanisterID string              `json:"canisterId"`
	Interface  InterfaceDescriptor `json:"interface"`
}

// Actor is a handle used to invoke remote operations on a named service.
type Actor interface {
	// CanisterID returns the service identifier the actor is bound to.
	CanisterID() string

	// Call invokes a declared method with JSON-encoded arguments.
	Call(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error)
}

// EventType classifies an Event.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventDemoConnected   EventType = "demo_connected"
	EventRejected        EventType = "rejected"
	EventConnectFailed   EventType = "connect_failed"
	EventSessionRestored EventType = "session_restored"
	EventProbeFailed     EventType = "probe_failed"
	EventDisconnected    EventType = "disconnected"
	EventTeardownFailed  EventType = "teardown_failed"
	EventBalanceFallback EventType = "balance_fallback"
	EventActorCreated    EventType = "actor_created"
	EventActorFailed     EventType = "actor_failed"
)

// Event is a structured record of a lifecycle transition or an absorbed
// provider failure.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	At         time.Time
	Status     Status // Session status after the event
	Identifier string
	Provider   string // Empty when no provider is configured
	Asset      string // Balance events only
	Err        error
	Duration   time.Duration // Time spent waiting on the provider
}

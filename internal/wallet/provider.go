package wallet

import "context"

// Provider is an external wallet. Name identifies it in logs and events.
//
// Every wallet call is an optional capability expressed as its own interface;
// a provider implements the subset its wallet supports. The Manager probes
// capabilities once, when it is constructed.
type Provider interface {
	Name() string
}

// SessionProber reports whether the wallet already authorized this client.
type SessionProber interface {
	IsConnected(ctx context.Context) (bool, error)
}

// PrincipalSource returns the identifier of the authorized account.
type PrincipalSource interface {
	GetPrincipal(ctx context.Context) (string, error)
}

// ConnectRequester performs the connection handshake. A false result with a
// nil error is an explicit rejection.
type ConnectRequester interface {
	RequestConnect(ctx context.Context, req ConnectRequest) (bool, error)
}

// BalanceSource lists every balance held by the authorized account.
type BalanceSource interface {
	RequestBalance(ctx context.Context) ([]ProviderBalance, error)
}

// Disconnecter asks the wallet to tear down the session.
type Disconnecter interface {
	Disconnect(ctx context.Context) error
}

// ActorCreator builds actor handles bound to the wallet's identity.
type ActorCreator interface {
	CreateActor(ctx context.Context, req ActorRequest) (Actor, error)
}

// capabilities is the typed view of a provider. A nil field means the
// provider is absent or does not offer that call.
type capabilities struct {
	ok         bool
	name       string
	prober     SessionProber
	principal  PrincipalSource
	connector  ConnectRequester
	balances   BalanceSource
	disconnect Disconnecter
	actors     ActorCreator
}

// probeCapabilities is the only place the manager inspects a provider's
// dynamic type.
func probeCapabilities(p Provider) capabilities {
	if p == nil {
		return capabilities{}
	}
	caps := capabilities{ok: true, name: p.Name()}
	caps.prober, _ = p.(SessionProber)
	caps.principal, _ = p.(PrincipalSource)
	caps.connector, _ = p.(ConnectRequester)
	caps.balances, _ = p.(BalanceSource)
	caps.disconnect, _ = p.(Disconnecter)
	caps.actors, _ = p.(ActorCreator)
	return caps
}

// present reports whether any provider was supplied.
func (c capabilities) present() bool {
	return c.ok
}

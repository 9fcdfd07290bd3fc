package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/walletlink/internal/wallet"
)

// ProviderName identifies bridge-backed sessions in logs and events.
const ProviderName = "bridge"

// Provider exposes a bridge Client as a wallet provider with every
// capability.
type Provider struct {
	client *Client
	logger *slog.Logger
}

// NewProvider wraps client.
func NewProvider(client *Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, logger: logger}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) IsConnected(ctx context.Context) (bool, error) {
	var connected bool
	if err := p.client.Call(ctx, MethodIsConnected, nil, &connected); err != nil {
		return false, mapError(err)
	}
	return connected, nil
}

func (p *Provider) GetPrincipal(ctx context.Context) (string, error) {
	var principal string
	if err := p.client.Call(ctx, MethodGetPrincipal, nil, &principal); err != nil {
		return "", mapError(err)
	}
	return principal, nil
}

func (p *Provider) RequestConnect(ctx context.Context, req wallet.ConnectRequest) (bool, error) {
	var approved bool
	if err := p.client.Call(ctx, MethodRequestConnect, req, &approved); err != nil {
		return false, mapError(err)
	}
	return approved, nil
}

func (p *Provider) RequestBalance(ctx context.Context) ([]wallet.ProviderBalance, error) {
	var balances []wallet.ProviderBalance
	if err := p.client.Call(ctx, MethodRequestBalance, nil, &balances); err != nil {
		return nil, mapError(err)
	}
	return balances, nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	return mapError(p.client.Call(ctx, MethodDisconnect, nil, nil))
}

func (p *Provider) CreateActor(ctx context.Context, req wallet.ActorRequest) (wallet.Actor, error) {
	var res CreateActorResult
	if err := p.client.Call(ctx, MethodCreateActor, req, &res); err != nil {
		return nil, mapError(err)
	}
	if res.ActorID == "" {
		return nil, fmt.Errorf("%s: %w: empty actor id", MethodCreateActor, ErrMalformedResponse)
	}

	p.logger.Debug("actor created",
		"canister_id", req.CanisterID,
		"actor_id", res.ActorID,
	)

	return &remoteActor{
		client:     p.client,
		canisterID: req.CanisterID,
		actorID:    res.ActorID,
		iface:      req.Interface,
	}, nil
}

// mapError translates bridge rejections into wallet.ErrUserRejected.
func mapError(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected {
		return fmt.Errorf("%w: %s", wallet.ErrUserRejected, rpcErr.Message)
	}
	return err
}

// remoteActor forwards calls to an actor held by the bridge.
type remoteActor struct {
	client     *Client
	canisterID string
	actorID    string
	iface      wallet.InterfaceDescriptor
}

func (a *remoteActor) CanisterID() string {
	return a.canisterID
}

func (a *remoteActor) Call(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error) {
	if _, ok := a.iface.Method(method); !ok {
		return nil, fmt.Errorf("%s.%s: %w", a.canisterID, method, wallet.ErrUnknownMethod)
	}

	res, err := a.client.CallRaw(ctx, MethodCall, CallParams{
		ActorID: a.actorID,
		Method:  method,
		Args:    args,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(res) == 0 {
		return json.RawMessage("null"), nil
	}
	return res, nil
}

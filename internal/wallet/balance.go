package wallet

import (
	"context"
	"time"
)

// Balance returns the balance of asset as a decimal string.
//
// It fails only with ErrNotConnected. In demo mode, and whenever the provider
// query fails, the demo table value (or "0") is returned.
func (m *Manager) Balance(ctx context.Context, asset string) (string, error) {
	st := m.State()
	switch st.Status {
	case StatusDisconnected:
		return "", ErrNotConnected
	case StatusDemoConnected:
		return m.cfg.DemoBalances.Amount(asset), nil
	}

	entries, err := m.providerBalances(ctx)
	if err != nil {
		m.balanceFallback(st, asset, err)
		return m.cfg.DemoBalances.Amount(asset), nil
	}

	for _, e := range entries {
		if e.Matches(asset) {
			return e.AmountString(), nil
		}
	}
	return "0", nil
}

// Balances returns every balance of the session.
//
// It fails only with ErrNotConnected. In demo mode, and whenever the provider
// query fails, the whole demo table is returned.
func (m *Manager) Balances(ctx context.Context) ([]BalanceRecord, error) {
	st := m.State()
	switch st.Status {
	case StatusDisconnected:
		return nil, ErrNotConnected
	case StatusDemoConnected:
		return m.cfg.DemoBalances.Records(), nil
	}

	entries, err := m.providerBalances(ctx)
	if err != nil {
		m.balanceFallback(st, "", err)
		return m.cfg.DemoBalances.Records(), nil
	}

	out := make([]BalanceRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, BalanceRecord{Asset: e.Label(), Balance: e.AmountString()})
	}
	return out, nil
}

// providerBalances queries the provider once for all concurrent callers.
//
// The shared query is detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done. The provider transport
// bounds the query itself.
func (m *Manager) providerBalances(ctx context.Context) ([]ProviderBalance, error) {
	if m.caps.balances == nil {
		return nil, transportError("requestBalance", ErrCapabilityMissing)
	}

	queryCtx := context.WithoutCancel(ctx)
	ch := m.balanceGroup.DoChan("balances", func() (interface{}, error) {
		start := time.Now()
		entries, err := m.caps.balances.RequestBalance(queryCtx)
		m.logger.Debug("provider balance query",
			"entries", len(entries),
			"duration", time.Since(start),
			"error", err,
		)
		return entries, err
	})

	select {
	case <-ctx.Done():
		return nil, transportError("requestBalance", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, transportError("requestBalance", res.Err)
		}
		// Shared result; hand each caller its own slice
		shared, _ := res.Val.([]ProviderBalance)
		return append([]ProviderBalance(nil), shared...), nil
	}
}

func (m *Manager) balanceFallback(st SessionState, asset string, err error) {
	m.logger.Warn("balance query failed, using demo balances",
		"asset", asset,
		"error", err,
	)
	m.emit(Event{Type: EventBalanceFallback, Status: st.Status, Identifier: st.Identifier, Asset: asset, Err: err})
}

package wallet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Config configures a Manager.
type Config struct {
	Whitelist      []string     // Service IDs sent with the connection handshake
	Host           string       // Network host sent with the connection handshake
	DemoIdentifier string       // Demo session identifier (empty = derived from DemoSeed)
	DemoSeed       string       // Seed for DemoIdentifier
	DemoBalances   DemoBalances // Served in demo mode and on balance fallback
}

// DefaultConfig returns a Config with the built-in demo table.
func DefaultConfig() Config {
	return Config{
		Host:         DefaultHost,
		DemoSeed:     DefaultDemoSeed,
		DemoBalances: MustDemoBalances(DefaultDemoEntries()),
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEventSink sets the sink that receives session events.
func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the wallet session. It is safe for concurrent use.
//
// Lifecycle operations (Connect, Disconnect, CheckExistingConnection) are
// serialized and hold the lifecycle lock while waiting on the provider and
// while notifying subscribers. Subscribers must therefore not call lifecycle
// operations synchronously from their callback.
type Manager struct {
	cfg    Config
	caps   capabilities
	logger *slog.Logger
	sink   EventSink
	now    func() time.Time
	subs   *Registry[SessionState]

	demoID string

	// Serializes lifecycle operations end to end
	lifecycleMu sync.Mutex

	// Guards state; never held across a provider call
	mu    sync.RWMutex
	state SessionState

	balanceGroup singleflight.Group
}

// NewManager creates a Manager in the disconnected state. A nil provider
// means no wallet is present and every connection is a demo session.
func NewManager(cfg Config, provider Provider, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		caps:   probeCapabilities(provider),
		logger: slog.Default(),
		sink:   discardSink{},
		now:    time.Now,
		state:  SessionState{Status: StatusDisconnected},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.subs = NewRegistry[SessionState](m.logger)

	m.demoID = cfg.DemoIdentifier
	if m.demoID == "" {
		m.demoID = DemoIdentifier(cfg.DemoSeed)
	}

	m.logger.Debug("wallet manager created",
		"provider_present", m.caps.present(),
		"provider", m.caps.name,
		"whitelist", len(cfg.Whitelist),
		"demo_assets", cfg.DemoBalances.Len(),
	)
	return m
}

// State returns a copy of the current session state.
func (m *Manager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn for state-change notifications.
func (m *Manager) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	return m.subs.Subscribe(fn)
}

// SubscriberCount returns the number of registered subscribers.
func (m *Manager) SubscriberCount() int {
	return m.subs.Len()
}

// ProviderPresent reports whether a wallet provider was configured.
func (m *Manager) ProviderPresent() bool {
	return m.caps.present()
}

// CheckExistingConnection adopts a session the provider already authorized.
// It never fails: probe errors are logged and emitted as events.
func (m *Manager) CheckExistingConnection(ctx context.Context) {
	if m.caps.prober == nil {
		return
	}

	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.State().Active() {
		return
	}

	start := time.Now()
	connected, err := m.caps.prober.IsConnected(ctx)
	if err != nil {
		m.probeFailed(transportError("isConnected", err), time.Since(start))
		return
	}
	if !connected {
		return
	}

	principal, err := m.principal(ctx)
	if err != nil {
		m.probeFailed(err, time.Since(start))
		return
	}

	st := m.commit(SessionState{Identifier: principal, Status: StatusConnected})
	m.logger.Info("wallet session restored", "identifier", principal, "provider", m.caps.name)
	m.emit(Event{Type: EventSessionRestored, Status: st.Status, Identifier: principal, Duration: time.Since(start)})
	m.subs.Notify(st)
}

// Connect establishes a session and returns its identifier.
//
// With a provider present it performs the handshake. An explicit rejection
// returns ErrUserRejected and leaves the state unchanged. Any other failure
// falls back to a demo session, as does the absence of a provider. When a
// session is already active its identifier is returned unchanged.
func (m *Manager) Connect(ctx context.Context) (string, error) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if st := m.State(); st.Active() {
		m.logger.Debug("connect on active session", "status", st.Status)
		m.subs.Notify(st)
		return st.Identifier, nil
	}

	if m.caps.present() {
		start := time.Now()
		principal, err := m.handshake(ctx)
		elapsed := time.Since(start)

		switch {
		case err == nil:
			st := m.commit(SessionState{Identifier: principal, Status: StatusConnected})
			m.logger.Info("wallet connected", "identifier", principal, "provider", m.caps.name)
			m.emit(Event{Type: EventConnected, Status: st.Status, Identifier: principal, Duration: elapsed})
			m.subs.Notify(st)
			return principal, nil

		case errors.Is(err, ErrUserRejected):
			st := m.State()
			m.logger.Info("wallet connection rejected", "provider", m.caps.name)
			m.emit(Event{Type: EventRejected, Status: st.Status, Err: err, Duration: elapsed})
			m.subs.Notify(st)
			return "", ErrUserRejected

		default:
			m.logger.Warn("wallet connection failed, falling back to demo mode",
				"provider", m.caps.name,
				"error", err,
			)
			m.emit(Event{Type: EventConnectFailed, Status: StatusDisconnected, Err: err, Duration: elapsed})
		}
	}

	st := m.commit(SessionState{Identifier: m.demoID, Status: StatusDemoConnected, IsDemo: true})
	m.logger.Info("demo wallet connected", "identifier", m.demoID)
	m.emit(Event{Type: EventDemoConnected, Status: st.Status, Identifier: m.demoID})
	m.subs.Notify(st)
	return m.demoID, nil
}

// Disconnect ends the session. Provider teardown is best-effort; the local
// state is always reset.
func (m *Manager) Disconnect(ctx context.Context) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	prev := m.State()
	if prev.Status == StatusConnected && m.caps.disconnect != nil {
		start := time.Now()
		if err := m.caps.disconnect.Disconnect(ctx); err != nil {
			err = transportError("disconnect", err)
			m.logger.Warn("wallet teardown failed", "provider", m.caps.name, "error", err)
			m.emit(Event{Type: EventTeardownFailed, Status: prev.Status, Identifier: prev.Identifier, Err: err, Duration: time.Since(start)})
		}
	}

	st := m.commit(SessionState{Status: StatusDisconnected})
	if prev.Active() {
		m.logger.Info("wallet disconnected", "previous_status", prev.Status)
		m.emit(Event{Type: EventDisconnected, Status: st.Status, Identifier: prev.Identifier})
	}
	m.subs.Notify(st)
}

// handshake asks the provider for access and resolves the principal.
func (m *Manager) handshake(ctx context.Context) (string, error) {
	if m.caps.connector == nil {
		return "", transportError("requestConnect", ErrCapabilityMissing)
	}

	req := ConnectRequest{
		Whitelist: append([]string(nil), m.cfg.Whitelist...),
		Host:      m.cfg.Host,
	}
	granted, err := m.caps.connector.RequestConnect(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return "", ErrUserRejected
		}
		return "", transportError("requestConnect", err)
	}
	if !granted {
		return "", ErrUserRejected
	}

	return m.principal(ctx)
}

func (m *Manager) principal(ctx context.Context) (string, error) {
	if m.caps.principal == nil {
		return "", transportError("getPrincipal", ErrCapabilityMissing)
	}
	principal, err := m.caps.principal.GetPrincipal(ctx)
	if err != nil {
		return "", transportError("getPrincipal", err)
	}
	if principal == "" {
		return "", transportError("getPrincipal", errors.New("empty principal"))
	}
	return principal, nil
}

func (m *Manager) probeFailed(err error, elapsed time.Duration) {
	m.logger.Warn("existing connection probe failed", "provider", m.caps.name, "error", err)
	m.emit(Event{Type: EventProbeFailed, Status: m.State().Status, Err: err, Duration: elapsed})
}

// commit replaces the state and returns the new snapshot.
func (m *Manager) commit(st SessionState) SessionState {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	return st
}

// emit stamps and records an event.
func (m *Manager) emit(ev Event) {
	ev.ID = uuid.New()
	ev.At = m.now()
	ev.Provider = m.caps.name
	m.sink.Record(ev)
}

package wallet

import (
	"context"
	"fmt"
	"time"
)

// CreateActor returns an actor for canisterID.
//
// With a real session the provider builds the actor and its errors are
// returned wrapped in *TransportError. In demo mode an inert actor with the
// same shape is returned.
func (m *Manager) CreateActor(ctx context.Context, canisterID string, iface InterfaceDescriptor) (Actor, error) {
	st := m.State()
	switch st.Status {
	case StatusDisconnected:
		return nil, ErrNotConnected
	case StatusDemoConnected:
		m.logger.Debug("demo actor created", "canister_id", canisterID, "service", iface.Service)
		return &demoActor{canisterID: canisterID, iface: iface}, nil
	}

	if m.caps.actors == nil {
		err := transportError("createActor", ErrCapabilityMissing)
		m.emit(Event{Type: EventActorFailed, Status: st.Status, Identifier: st.Identifier, Err: err})
		return nil, err
	}

	start := time.Now()
	actor, err := m.caps.actors.CreateActor(ctx, ActorRequest{CanisterID: canisterID, Interface: iface})
	elapsed := time.Since(start)
	if err != nil {
		err = transportError("createActor", err)
		m.logger.Error("actor creation failed", "canister_id", canisterID, "error", err)
		m.emit(Event{Type: EventActorFailed, Status: st.Status, Identifier: st.Identifier, Err: err, Duration: elapsed})
		return nil, fmt.Errorf("create actor %s: %w", canisterID, err)
	}

	m.emit(Event{Type: EventActorCreated, Status: st.Status, Identifier: st.Identifier, Duration: elapsed})
	return actor, nil
}

package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

var orchestratorIface = InterfaceDescriptor{
	Service: "ree_orchestrator",
	Methods: []MethodDescriptor{
		{Name: "invoke", Args: []string{"InvokeArgs"}, Results: []string{"Result"}},
		{Name: "get_balance", Results: []string{"vec BalanceEntry"}, Query: true},
	},
}

func TestCreateActor_NotConnected(t *testing.T) {
	m := NewManager(testConfig(), newFakeProvider())

	_, err := m.CreateActor(context.Background(), "orchestrator", orchestratorIface)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("CreateActor error = %v, want ErrNotConnected", err)
	}
}

func TestCreateActor_Demo(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Connect(context.Background())

	actor, err := m.CreateActor(context.Background(), "orchestrator", orchestratorIface)
	if err != nil {
		t.Fatalf("CreateActor failed: %v", err)
	}
	if !IsDemoActor(actor) {
		t.Error("expected demo actor")
	}
	if actor.CanisterID() != "orchestrator" {
		t.Errorf("CanisterID = %q, want orchestrator", actor.CanisterID())
	}

	res, err := actor.Call(context.Background(), "invoke", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(res) != "null" {
		t.Errorf("Call result = %s, want null", res)
	}

	if _, err := actor.Call(context.Background(), "drain", nil); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Call(undeclared) error = %v, want ErrUnknownMethod", err)
	}
}

func TestCreateActor_Real(t *testing.T) {
	events := &eventLog{}
	m := NewManager(testConfig(), newFakeProvider(), WithEventSink(events))
	m.Connect(context.Background())

	actor, err := m.CreateActor(context.Background(), "orchestrator", orchestratorIface)
	if err != nil {
		t.Fatalf("CreateActor failed: %v", err)
	}
	if IsDemoActor(actor) {
		t.Error("expected provider actor")
	}

	res, _ := actor.Call(context.Background(), "invoke", nil)
	if string(res) != `"real"` {
		t.Errorf("Call result = %s, want \"real\"", res)
	}

	types := events.types()
	if types[len(types)-1] != EventActorCreated {
		t.Errorf("last event = %s, want %s", types[len(types)-1], EventActorCreated)
	}
}

func TestCreateActor_RealErrorPropagated(t *testing.T) {
	p := newFakeProvider()
	p.actorErr = errTransport
	m := NewManager(testConfig(), p)
	m.Connect(context.Background())

	_, err := m.CreateActor(context.Background(), "orchestrator", orchestratorIface)
	if !errors.Is(err, errTransport) {
		t.Errorf("CreateActor error = %v, want wrapped provider error", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "createActor" {
		t.Errorf("CreateActor error = %v, want TransportError", err)
	}
}

func TestCreateActor_MissingCapability(t *testing.T) {
	m := NewManager(testConfig(), connectOnlyProvider{})
	m.Connect(context.Background())

	_, err := m.CreateActor(context.Background(), "orchestrator", orchestratorIface)
	if !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("CreateActor error = %v, want ErrCapabilityMissing", err)
	}
}

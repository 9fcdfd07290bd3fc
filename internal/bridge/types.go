package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrStaleConnection   = errors.New("connection stale (no ping)")
	ErrTimeout           = errors.New("operation timeout")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrConnectionLost    = errors.New("connection lost")
	ErrMalformedResponse = errors.New("malformed response")
)

// Error codes sent by the bridge.
const (
	CodeUserRejected = "user_rejected"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal"
)

// Bridge methods.
const (
	MethodIsConnected    = "isConnected"
	MethodGetPrincipal   = "getPrincipal"
	MethodRequestConnect = "requestConnect"
	MethodRequestBalance = "requestBalance"
	MethodDisconnect     = "disconnect"
	MethodCreateActor    = "createActor"
	MethodCall           = "call"
)

// Request is a command sent to the bridge.
type Request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the bridge's answer to a Request.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is an error reported by the bridge.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CreateActorResult is the result of createActor.
type CreateActorResult struct {
	ActorID string `json:"actorId"`
}

// CallParams are the parameters of call.
type CallParams struct {
	ActorID string          `json:"actorId"`
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// ClientConfig configures a bridge client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., ws://127.0.0.1:7777/wallet)
	Origin           string        // Origin header presented to the bridge (optional)
	UserAgent        string        // User-Agent header (optional)
	HandshakeTimeout time.Duration // WebSocket dial timeout
	CallTimeout      time.Duration // Max wait for a response (0 = caller context only)
	WriteTimeout     time.Duration // Write deadline for sends
	PingTimeout      time.Duration // Max time without traffic before the connection is stale (0 = never)
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		CallTimeout:      30 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingTimeout:      60 * time.Second,
	}
}

package rpc

import "fmt"

// Kind classifies a failed log-count call.
type Kind string

const (
	// KindTransport covers timeouts, connection failures and retryable HTTP
	// statuses that survived the transport-level retries.
	KindTransport Kind = "transport"
	// KindProtocol covers responses that carry an explicit error payload or
	// are structurally invalid.
	KindProtocol Kind = "protocol"
)

// CallError is a classified failure of a single log-count call.
type CallError struct {
	Kind     Kind
	Provider string
	From     uint64
	To       uint64
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s error counting logs %d-%d from %s: %v", e.Kind, e.From, e.To, e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Package oracle adapts the external text-completion service into a typed
// capability: conversation context in, validated structured reply out.
// This file defines the two error kinds the adapter can surface.
//
// Propagation policy:
//   - TransportError (network, timeout, non-2xx): propagated to the caller
//     as-is; the transport layer owns any retry policy.
//   - ContractError (reply is not the agreed structured payload): the caller
//     may retry exactly once, then propagate.
//
// Raw oracle payloads are carried only inside the error values for
// operator logs; handlers must map both kinds to a generic
// service-unavailable message and never leak the payload to end users.
package oracle

import "fmt"

// TransportError wraps a network-level failure talking to the oracle.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle transport: %v", e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Err }

// ContractError reports a reply that violates the structured-output
// contract: unparseable JSON, missing filters object, or an empty reply.
type ContractError struct {
	Reason string
	Raw    string // offending payload, for logs only
}

// Error implements the error interface. The raw payload is intentionally
// not included.
func (e *ContractError) Error() string {
	return fmt.Sprintf("oracle contract violation: %s", e.Reason)
}

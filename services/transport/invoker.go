// Package transport provides the uniform invocation layer over the two wire
// protocols downstream services advertise. The dispatcher never branches on
// transport; it talks to one Invoker and receives one error classification.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
)

// ErrorClass classifies a failed invocation uniformly across transports
type ErrorClass string

const (
	// ErrClassNone means the invocation succeeded
	ErrClassNone ErrorClass = "none"

	// ErrClassTimeout means the attempt deadline expired
	ErrClassTimeout ErrorClass = "timeout"

	// ErrClassUnreachable means the service could not be reached
	ErrClassUnreachable ErrorClass = "unreachable"

	// ErrClassProtocolError means the service answered outside its protocol contract
	ErrClassProtocolError ErrorClass = "protocol_error"
)

// RejectReason maps an error class to the attempt reject reason recorded in
// the cascade trail
func (c ErrorClass) RejectReason() models.RejectReason {
	switch c {
	case ErrClassTimeout:
		return models.RejectTimeout
	case ErrClassProtocolError:
		return models.RejectProtocolError
	default:
		return models.RejectUnreachable
	}
}

// InvokeError is a classified transport failure. It is recorded as a failed
// attempt and never escapes the dispatcher.
type InvokeError struct {
	Service string
	Class   ErrorClass
	Message string
	Cause   error
}

// Error implements the error interface
func (e *InvokeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// Unwrap implements error unwrapping
func (e *InvokeError) Unwrap() error {
	return e.Cause
}

// NewInvokeError creates a classified transport failure
func NewInvokeError(service string, class ErrorClass, message string, cause error) *InvokeError {
	return &InvokeError{Service: service, Class: class, Message: message, Cause: cause}
}

// ClassOf extracts the error class from an invocation error
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ErrClassNone
	}
	var invokeErr *InvokeError
	if errors.As(err, &invokeErr) {
		return invokeErr.Class
	}
	return ErrClassUnreachable
}

// Result is a successful raw invocation outcome. The body is handed to the
// envelope normalizer untouched; a 2xx response with a garbage body is still
// a transport-level success.
type Result struct {
	Body    []byte
	Latency time.Duration
}

// Invoker performs one bounded call to a downstream service. Implementations
// must honor ctx cancellation and never block past its deadline.
type Invoker interface {
	Invoke(ctx context.Context, entry catalog.Entry, req models.EnvelopeRequest) (*Result, error)

	// Transport returns the wire protocol this invoker speaks
	Transport() models.Transport
}

// classifyNetworkError maps a client-side error to timeout or unreachable
func classifyNetworkError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrClassTimeout
	}
	return ErrClassUnreachable
}

// Mux routes an invocation to the invoker matching the catalog entry's
// advertised transport. The transport set is closed; an entry advertising
// anything else is a registration defect surfaced as protocol_error.
type Mux struct {
	invokers map[models.Transport]Invoker
}

// NewMux builds a transport mux from the given invokers
func NewMux(invokers ...Invoker) *Mux {
	m := &Mux{invokers: make(map[models.Transport]Invoker, len(invokers))}
	for _, inv := range invokers {
		m.invokers[inv.Transport()] = inv
	}
	return m
}

// Invoke dispatches to the invoker advertised by the entry
func (m *Mux) Invoke(ctx context.Context, entry catalog.Entry, req models.EnvelopeRequest) (*Result, error) {
	inv, ok := m.invokers[entry.Transport]
	if !ok {
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError,
			fmt.Sprintf("no invoker for transport %q", entry.Transport), nil)
	}
	return inv.Invoke(ctx, entry, req)
}

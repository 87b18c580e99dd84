// Package wireerr maps the typed error taxonomy of spec §7 onto the
// `{error:{msg,type}}` wire format, while keeping every error a
// yaerrors.Error so callers retain HTTP-style codes and tracebacks.
package wireerr

import (
	"net/http"

	"github.com/znsocket/znsocket-go/yaerrors"
)

// Kind is one of the wire-visible error type names from spec §6/§7.
type Kind string

const (
	KindResponse       Kind = "ResponseError"
	KindData           Kind = "DataError"
	KindFrozenStorage  Kind = "FrozenStorageError"
	KindConnection     Kind = "ConnectionError"
	KindTimeout        Kind = "TimeoutError"
	KindNotImplemented Kind = "NotImplementedError"
	KindKey            Kind = "KeyError"
)

// Error extends yaerrors.Error with a stable wire Kind.
type Error interface {
	yaerrors.Error
	Kind() Kind
}

type wireError struct {
	yaerrors.Error
	kind Kind
}

func (e *wireError) Kind() Kind {
	return e.kind
}

// Wrap preserves the wire Kind while delegating to the wrapped yaerrors.Error.
func (e *wireError) Wrap(msg string) yaerrors.Error {
	return &wireError{Error: e.Error.Wrap(msg), kind: e.kind}
}

func newError(kind Kind, code int, msg string) Error {
	return &wireError{
		Error: yaerrors.FromString(code, msg),
		kind:  kind,
	}
}

// Response builds a ResponseError — a Redis-style semantic error such as
// "no such key", "index out of range" or "WRONGTYPE".
func Response(msg string) Error {
	return newError(KindResponse, http.StatusBadRequest, msg)
}

// Data builds a DataError for an invalid write-time input shape.
func Data(msg string) Error {
	return newError(KindData, http.StatusBadRequest, msg)
}

// Frozen builds a FrozenStorageError for a write attempted against an
// adapter-backed key or a frozen fallback.
func Frozen(msg string) Error {
	return newError(KindFrozenStorage, http.StatusConflict, msg)
}

// Connection builds a ConnectionError for a transport failure.
func Connection(msg string) Error {
	return newError(KindConnection, http.StatusServiceUnavailable, msg)
}

// Timeout builds a TimeoutError for an expired chunk reassembly or
// adapter RPC deadline.
func Timeout(msg string) Error {
	return newError(KindTimeout, http.StatusGatewayTimeout, msg)
}

// NotImplemented builds a NotImplementedError for an adapter method the
// owner does not know.
func NotImplemented(msg string) Error {
	return newError(KindNotImplemented, http.StatusNotImplemented, msg)
}

// KeyErr builds a KeyError for a missing or already-owned key.
func KeyErr(msg string) Error {
	return newError(KindKey, http.StatusNotFound, msg)
}

// WireMessage is the `{error:{msg,type}}` envelope from spec §6.
type WireMessage struct {
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ToWire converts any error into the wire envelope. Errors that are not
// already a wireerr.Error are reported as ResponseError, matching the
// spec's default mapping for unclassified failures.
func ToWire(err error) WireMessage {
	if err == nil {
		return WireMessage{}
	}

	if wired, ok := err.(Error); ok { //nolint:errorlint // Kind() is our own sum type, not participating in Unwrap chains
		return WireMessage{Msg: wired.UnwrapLastError(), Type: string(wired.Kind())}
	}

	return WireMessage{Msg: err.Error(), Type: string(KindResponse)}
}

package domain

import "errors"

// Kind is a stable category for programmatic error handling. Callers branch
// on Kind rather than matching error strings; Error() text may evolve.
type Kind string

const (
	KindConfiguration Kind = "Configuration"
	KindLocalStorage  Kind = "LocalStorage"
	KindCrypto        Kind = "Crypto"
	KindNetwork       Kind = "Network"
)

// NetKind subdivides network failures.
type NetKind string

const (
	NetTimeout           NetKind = "Timeout"
	NetConnectionFailed  NetKind = "ConnectionFailed"
	NetHTTPStatus        NetKind = "HttpStatus"
	NetMalformedResponse NetKind = "MalformedResponse"
)

// Error unifies the module's heterogeneous failure sources (storage,
// compression, crypto, network) into one tagged type at package boundaries.
type Error struct {
	Kind       Kind
	Net        NetKind // set only when Kind == KindNetwork
	StatusCode int     // set only for NetHTTPStatus
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds a tagged error without a cause.
func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError tags an underlying cause.
func WrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// NetError builds a network error with its sub-kind.
func NetError(net NetKind, msg string, cause error) error {
	return &Error{Kind: KindNetwork, Net: net, Message: msg, Cause: cause}
}

// HTTPStatusError builds a network error carrying the response status code.
func HTTPStatusError(code int, msg string) error {
	return &Error{Kind: KindNetwork, Net: NetHTTPStatus, StatusCode: code, Message: msg}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// NetworkKind extracts the network sub-kind, if err is a network error.
func NetworkKind(err error) (NetKind, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindNetwork {
		return "", false
	}
	return e.Net, true
}

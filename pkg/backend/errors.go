package backend

import "fmt"

// ErrorKind classifies a dispatch failure.
type ErrorKind string

const (
	// KindConfiguration means the request was rejected before any network
	// I/O, typically for a missing credential or an unknown provider.
	KindConfiguration ErrorKind = "configuration"

	// KindNetwork means the single HTTP attempt failed at transport level.
	KindNetwork ErrorKind = "network"

	// KindProvider means the backend itself reported a structured error.
	// The message is the provider's own error text, surfaced verbatim.
	KindProvider ErrorKind = "provider"

	// KindEmptyResponse means the backend returned success but no usable
	// answer text.
	KindEmptyResponse ErrorKind = "empty_response"
)

// Error is the uniform failure result of a dispatch. Exactly one of
// [Response] or [*Error] is produced per call, never both.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Provider is the provider the dispatch targeted.
	Provider Provider

	// Message describes the failure. For [KindProvider] it is extracted
	// from the provider's own error envelope.
	Message string
}

// Error implements the error interface. Provider-reported failures are
// prefixed with the provider's display name to aid diagnosis.
func (e *Error) Error() string {
	name := string(e.Provider)
	if id, ok := identities[e.Provider]; ok {
		name = id.DisplayName
	}
	return fmt.Sprintf("%s: %s: %s", name, e.Kind, e.Message)
}

// networkErr wraps a transport failure into a [*Error].
func networkErr(p Provider, err error) *Error {
	return &Error{Kind: KindNetwork, Provider: p, Message: err.Error()}
}

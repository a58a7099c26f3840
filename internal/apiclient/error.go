package apiclient

import (
	"errors"
	"net/http"
)

type Kind string

const (
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork Kind = "network"
	// KindAPI means the backend answered with a failure or an unreadable body.
	KindAPI Kind = "api"
)

const (
	fallbackAPIMessage     = "API request failed"
	fallbackNetworkMessage = "Something went wrong"
)

// Error is returned for every failed call, whatever failed.
type Error struct {
	Kind     Kind
	Status   int
	Message  string
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Unauthorized() bool {
	return e.Kind == KindAPI && e.Status == http.StatusUnauthorized
}

func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Unauthorized()
}

func IsNetwork(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNetwork
}

// Message returns the human-readable message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallbackNetworkMessage
}

package jellyfin

import "errors"

// Domain errors for the Jellyfin client.
var (
	// ErrRemoteUnavailable is returned when the server cannot be reached or
	// the request times out.
	ErrRemoteUnavailable = errors.New("jellyfin: remote unavailable")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("jellyfin: unexpected status")

	// ErrDecode is returned when a response body cannot be decoded.
	ErrDecode = errors.New("jellyfin: malformed response")

	// ErrUnknownKind is returned by List for a kind the client cannot fetch.
	ErrUnknownKind = errors.New("jellyfin: unknown entity kind")

	// ErrUnknownCategory is returned by FetchCategory for a category with no
	// scalar values.
	ErrUnknownCategory = errors.New("jellyfin: unknown scalar category")

	// ErrInvalidAction is returned when an Action is missing a target or
	// names an unsupported operation.
	ErrInvalidAction = errors.New("jellyfin: invalid action")

	// ErrNotFound is returned when an action refers to a task key or plugin
	// the server does not know.
	ErrNotFound = errors.New("jellyfin: not found")
)

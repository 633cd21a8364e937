package command

import "errors"

var (
	// ErrMalformedTopic is returned for a topic or payload shape that is not
	// a command.
	ErrMalformedTopic = errors.New("command: malformed topic")

	// ErrUnresolvedID is returned when no registered entity matches a short id.
	ErrUnresolvedID = errors.New("command: short id did not resolve")

	// ErrUnknownCommand is returned when the command table has no entry.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrInvalidArgument is returned for a missing or out-of-range argument.
	ErrInvalidArgument = errors.New("command: invalid argument")

	// ErrActionFailed wraps a remote call failure.
	ErrActionFailed = errors.New("command: remote action failed")
)

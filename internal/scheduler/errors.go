package scheduler

import "errors"

var (
	// ErrInboxFull is returned by Deliver when the inbox has no room.
	ErrInboxFull = errors.New("scheduler: inbox full, message dropped")

	// ErrRemoteUnreachable is returned by WaitForRemote when every attempt
	// failed.
	ErrRemoteUnreachable = errors.New("scheduler: remote unreachable")

	// ErrStepPanicked marks a poll step that panicked.
	ErrStepPanicked = errors.New("scheduler: poll step panicked")

	// ErrMissingDependency is returned by New for a nil required option.
	ErrMissingDependency = errors.New("scheduler: missing dependency")
)

package reconcile

import "errors"

// ErrFetchFailed wraps the error of a failed list call.
var ErrFetchFailed = errors.New("reconcile: fetch failed")

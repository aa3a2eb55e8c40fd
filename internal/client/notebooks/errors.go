package notebooks

import "errors"

var (
	// ErrNotFound means the notebook exists neither remotely nor in the
	// local mirror.
	ErrNotFound = errors.New("notebook not found")

	// ErrRemoteUnavailable tags recoverable warnings: the local mirror took
	// the write but the remote API did not confirm it. Callers may retry.
	ErrRemoteUnavailable = errors.New("remote api unavailable")
)

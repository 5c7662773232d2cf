package supervisor

import "errors"

// launchFailedError signals that the transcoder could not be spawned
// (missing executable, exec failure).
type launchFailedError struct {
	key string
	err error
}

func (e launchFailedError) Error() string {
	return "transcoder launch failed for " + e.key + ": " + e.err.Error()
}

func (e launchFailedError) Unwrap() error { return e.err }

// ErrLaunchFailed wraps a spawn error for key.
func ErrLaunchFailed(key string, err error) error { return launchFailedError{key: key, err: err} }

// IsLaunchFailed reports whether err indicates a failed transcoder spawn.
func IsLaunchFailed(err error) bool {
	var e launchFailedError
	return errors.As(err, &e)
}

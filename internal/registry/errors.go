package registry

import "errors"

type invalidPathError struct {
	path   string
	reason string
}

func (e invalidPathError) Error() string {
	return "invalid stream path " + quote(e.path) + ": " + e.reason
}

// ErrInvalidPath reports an ingest path that does not match <app>/<streamId>.
func ErrInvalidPath(path, reason string) error { return invalidPathError{path: path, reason: reason} }

// IsInvalidPath reports whether err is an invalid stream path error.
func IsInvalidPath(err error) bool {
	var e invalidPathError
	return errors.As(err, &e)
}

func quote(s string) string { return `"` + s + `"` }

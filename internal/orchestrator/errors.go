package orchestrator

import "errors"

type sourceNotActiveError struct{ id string }

func (e sourceNotActiveError) Error() string { return "source not active: " + e.id }

// ErrSourceNotActive reports a variant request for a source that is not live.
func ErrSourceNotActive(id string) error { return sourceNotActiveError{id: id} }

// IsSourceNotActive reports whether err is a source not active error.
func IsSourceNotActive(err error) bool {
	var e sourceNotActiveError
	return errors.As(err, &e)
}

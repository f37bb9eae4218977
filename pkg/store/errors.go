package store

import "errors"

// ErrFormClosed indicates a lifecycle transition is not allowed because the
// form is already closed.
var ErrFormClosed = errors.New("form is closed")

// IsFormClosed checks if an error indicates an attempted transition on a
// closed form.
func IsFormClosed(err error) bool {
	return errors.Is(err, ErrFormClosed)
}

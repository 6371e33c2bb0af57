package serialization

import "github.com/pkg/errors"

// ErrMalformedEntry is returned when a stored entry cannot be decoded
var ErrMalformedEntry = errors.New("malformed database entry")

func errUnexpectedLength(entry string, expected, actual int) error {
	return errors.Wrapf(ErrMalformedEntry, "%s: expected %d bytes but got %d", entry, expected, actual)
}

package repositories

import "errors"

// Store-kind errors returned by every backend. Anything else is an unexpected store failure.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInvalidID = errors.New("invalid identifier")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func IsInvalidIDError(err error) bool {
	return errors.Is(err, ErrInvalidID)
}

package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate key")
	// ErrInvalidPattern is returned when a tag pattern is not a valid regular expression
	ErrInvalidPattern = errors.New("invalid pattern")
)

// PostgreSQL SQLSTATE codes
const (
	uniqueViolation          = "23505"
	invalidRegularExpression = "2201B"
)

// translate maps driver errors onto repository sentinels
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case invalidRegularExpression:
		return errors.Join(ErrInvalidPattern, err)
	}
	return err
}

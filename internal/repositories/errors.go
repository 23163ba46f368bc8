package repositories

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert collides with an existing key
var ErrDuplicateKey = errors.New("duplicate key violation")

// isDuplicateKey recognises unique violations from every supported engine,
// translated by gorm or not.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// translateCreateError maps storage errors from an insert to repository errors
func translateCreateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return ErrDuplicateKey
	}
	return errors.Wrapf(err, "failed to create %s", what)
}

package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether a storage error means "row absent" rather
// than "storage failed". Services branch on this to map to the not-found
// taxonomy instead of a 500.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

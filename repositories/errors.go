package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// translateDuplicate maps driver unique-violation errors to gorm.ErrDuplicatedKey
// for dialects or configurations where TranslateError did not already do so.
func translateDuplicate(err error) error {
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return gorm.ErrDuplicatedKey
	}
	return err
}

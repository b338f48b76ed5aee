// Package dbx translates gorm errors into the apperr taxonomy.
package dbx

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"postboard/internal/apperr"
)

// Classify maps a gorm error from operation op. Missing rows become
// NotFound(notFound), unique violations become a Validation error on
// uniqueField, everything else is a Storage error.
func Classify(err error, op, notFound, uniqueField string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey) && uniqueField != "":
		return apperr.Validation("The given data was invalid.", map[string]string{
			uniqueField: "The " + uniqueField + " has already been taken.",
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Storage(op+": request cancelled", err)
	default:
		return apperr.Storage(op, err)
	}
}

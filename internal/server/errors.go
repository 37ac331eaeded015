package server

import (
	"errors"
	"fmt"

	"github.com/vibesql/sqlzoo/internal/database"
)

func NewMissingFieldError(fieldName string) *database.Error {
	return database.NewError(
		database.ErrorCodeMissingRequiredField,
		fmt.Sprintf("Missing required field: %s", fieldName),
		fmt.Sprintf("The request must include a '%s' field", fieldName),
	)
}

func NewInvalidRequestError(detail string) *database.Error {
	return database.NewError(
		database.ErrorCodeInvalidSQL,
		"Invalid request",
		detail,
	)
}

func NewBodyTooLargeError(limit string) *database.Error {
	return database.NewError(
		database.ErrorCodeQueryTooLarge,
		"Request body too large",
		fmt.Sprintf("The request body must not exceed %s", limit),
	)
}

func NewUnknownExerciseError(name string) *database.Error {
	return database.NewError(
		database.ErrorCodeUnknownExercise,
		"Unknown exercise",
		fmt.Sprintf("No exercise named '%s'", name),
	)
}

func NewInternalError(detail string) *database.Error {
	return database.NewError(
		database.ErrorCodeInternalError,
		"An internal error occurred",
		detail,
	)
}

// asDatabaseError finds the *database.Error in err's chain, or reports err
// as an internal error.
func asDatabaseError(err error) *database.Error {
	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return NewInternalError(err.Error())
}

package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Error codes
const (
	ErrorCodeInvalidSQL           = "INVALID_SQL"
	ErrorCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrorCodeUnsafeQuery          = "UNSAFE_QUERY"
	ErrorCodeQueryTimeout         = "QUERY_TIMEOUT"
	ErrorCodeQueryTooLarge        = "QUERY_TOO_LARGE"
	ErrorCodeResultTooLarge       = "RESULT_TOO_LARGE"
	ErrorCodeConstraintViolation  = "CONSTRAINT_VIOLATION"
	ErrorCodeUnknownExercise      = "UNKNOWN_EXERCISE"
	ErrorCodeInternalError        = "INTERNAL_ERROR"
	ErrorCodeDatabaseUnavailable  = "DATABASE_UNAVAILABLE"
)

// HTTP status codes for error codes
const (
	HTTPStatusInvalidSQL           = 400
	HTTPStatusMissingRequiredField = 400
	HTTPStatusUnsafeQuery          = 400
	HTTPStatusUnknownExercise      = 404
	HTTPStatusQueryTimeout         = 408
	HTTPStatusConstraintViolation  = 409
	HTTPStatusQueryTooLarge        = 413
	HTTPStatusResultTooLarge       = 413
	HTTPStatusInternalError        = 500
	HTTPStatusDatabaseUnavailable  = 503
)

// Error is the single class of failure surfaced by query execution. The
// driver error, when there is one, is kept in Err and reachable through
// errors.As.
type Error struct {
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error that does not originate from the driver.
func NewError(code, message, detail string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

// SQLSTATE to error code mapping
var sqlStateToCode = map[string]string{
	"42601": ErrorCodeInvalidSQL, // syntax_error
	"42703": ErrorCodeInvalidSQL, // undefined_column
	"42P01": ErrorCodeInvalidSQL, // undefined_table
	"42P02": ErrorCodeInvalidSQL, // undefined_parameter
	"42883": ErrorCodeInvalidSQL, // undefined_function
	"42804": ErrorCodeInvalidSQL, // datatype_mismatch
	"42702": ErrorCodeInvalidSQL, // ambiguous_column
	"42803": ErrorCodeInvalidSQL, // grouping_error

	"23000": ErrorCodeConstraintViolation, // integrity_constraint_violation
	"23502": ErrorCodeConstraintViolation, // not_null_violation
	"23503": ErrorCodeConstraintViolation, // foreign_key_violation
	"23505": ErrorCodeConstraintViolation, // unique_violation
	"23514": ErrorCodeConstraintViolation, // check_violation

	"57014": ErrorCodeQueryTimeout, // query_canceled

	"53000": ErrorCodeDatabaseUnavailable, // insufficient_resources
	"53100": ErrorCodeDatabaseUnavailable, // disk_full
	"53200": ErrorCodeDatabaseUnavailable, // out_of_memory
	"53300": ErrorCodeDatabaseUnavailable, // too_many_connections
	"08000": ErrorCodeDatabaseUnavailable, // connection_exception
	"08003": ErrorCodeDatabaseUnavailable, // connection_does_not_exist
	"08006": ErrorCodeDatabaseUnavailable, // connection_failure
	"08001": ErrorCodeDatabaseUnavailable, // sqlclient_unable_to_establish_sqlconnection
	"08004": ErrorCodeDatabaseUnavailable, // sqlserver_rejected_establishment_of_sqlconnection
	"57P01": ErrorCodeDatabaseUnavailable, // admin_shutdown
}

// MySQL server error numbers to error code mapping
var mysqlNumberToCode = map[uint16]string{
	1054: ErrorCodeInvalidSQL, // ER_BAD_FIELD_ERROR
	1064: ErrorCodeInvalidSQL, // ER_PARSE_ERROR
	1146: ErrorCodeInvalidSQL, // ER_NO_SUCH_TABLE
	1052: ErrorCodeInvalidSQL, // ER_NON_UNIQ_ERROR
	1055: ErrorCodeInvalidSQL, // ER_WRONG_FIELD_WITH_GROUP
	1305: ErrorCodeInvalidSQL, // ER_SP_DOES_NOT_EXIST

	1062: ErrorCodeConstraintViolation, // ER_DUP_ENTRY
	1048: ErrorCodeConstraintViolation, // ER_BAD_NULL_ERROR
	1451: ErrorCodeConstraintViolation, // ER_ROW_IS_REFERENCED_2
	1452: ErrorCodeConstraintViolation, // ER_NO_REFERENCED_ROW_2

	1317: ErrorCodeQueryTimeout, // ER_QUERY_INTERRUPTED
	3024: ErrorCodeQueryTimeout, // ER_QUERY_TIMEOUT

	1040: ErrorCodeDatabaseUnavailable, // ER_CON_COUNT_ERROR
	1053: ErrorCodeDatabaseUnavailable, // ER_SERVER_SHUTDOWN
}

// TranslateError classifies err and wraps it in an *Error. The original
// error is left untouched inside the result.
func TranslateError(err error) *Error {
	if err == nil {
		return nil
	}

	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Code:    ErrorCodeQueryTimeout,
			Message: "Query execution timeout",
			Detail:  "Query exceeded the maximum execution time",
			Err:     err,
		}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{
			Code:    ErrorCodeQueryTimeout,
			Message: "Query execution canceled",
			Detail:  "Query was canceled before completion",
			Err:     err,
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return &Error{
			Code:    ErrorCodeDatabaseUnavailable,
			Message: "Database is unavailable",
			Detail:  err.Error(),
			Err:     err,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePQError(pqErr, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return translateMySQLError(myErr, err)
	}

	return &Error{
		Code:    ErrorCodeInternalError,
		Message: "An internal error occurred",
		Detail:  err.Error(),
		Err:     err,
	}
}

func translatePQError(pqErr *pq.Error, orig error) *Error {
	code, found := sqlStateToCode[string(pqErr.Code)]
	if !found {
		code = ErrorCodeInternalError
	}

	return &Error{
		Code:    code,
		Message: buildErrorMessage(code, pqErr.Message),
		Detail:  buildPQDetail(pqErr),
		Err:     orig,
	}
}

func translateMySQLError(myErr *mysql.MySQLError, orig error) *Error {
	code, found := mysqlNumberToCode[myErr.Number]
	if !found {
		code = ErrorCodeInternalError
	}

	return &Error{
		Code:    code,
		Message: buildErrorMessage(code, myErr.Message),
		Detail:  fmt.Sprintf("MySQL error %d: %s", myErr.Number, myErr.Message),
		Err:     orig,
	}
}

func buildErrorMessage(code, driverMessage string) string {
	switch code {
	case ErrorCodeInvalidSQL:
		return "Invalid SQL"
	case ErrorCodeConstraintViolation:
		return "Constraint violation"
	case ErrorCodeQueryTimeout:
		return "Query execution timeout"
	case ErrorCodeDatabaseUnavailable:
		return "Database is unavailable"
	default:
		if driverMessage != "" {
			return driverMessage
		}
		return "An error occurred"
	}
}

func buildPQDetail(pqErr *pq.Error) string {
	detail := fmt.Sprintf("PostgreSQL error: %s", pqErr.Message)

	if pqErr.Detail != "" {
		detail += fmt.Sprintf(" | Detail: %s", pqErr.Detail)
	}
	if pqErr.Hint != "" {
		detail += fmt.Sprintf(" | Hint: %s", pqErr.Hint)
	}
	if pqErr.Position != "" {
		detail += fmt.Sprintf(" | Position: %s", pqErr.Position)
	}

	return detail
}

// HTTPStatus returns the HTTP status code for an error code
func HTTPStatus(code string) int {
	switch code {
	case ErrorCodeInvalidSQL:
		return HTTPStatusInvalidSQL
	case ErrorCodeMissingRequiredField:
		return HTTPStatusMissingRequiredField
	case ErrorCodeUnsafeQuery:
		return HTTPStatusUnsafeQuery
	case ErrorCodeUnknownExercise:
		return HTTPStatusUnknownExercise
	case ErrorCodeQueryTimeout:
		return HTTPStatusQueryTimeout
	case ErrorCodeConstraintViolation:
		return HTTPStatusConstraintViolation
	case ErrorCodeQueryTooLarge:
		return HTTPStatusQueryTooLarge
	case ErrorCodeResultTooLarge:
		return HTTPStatusResultTooLarge
	case ErrorCodeDatabaseUnavailable:
		return HTTPStatusDatabaseUnavailable
	default:
		return HTTPStatusInternalError
	}
}

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibesql/sqlzoo/internal/database"
	"github.com/vibesql/sqlzoo/internal/exercise"
	"github.com/vibesql/sqlzoo/internal/query"
)

type QueryRequest struct {
	SQL string `json:"sql"`
}

// QueryResponse is the body of every query and exercise run, successful or
// not. ExecutionTime is in milliseconds.
type QueryResponse struct {
	Success       bool         `json:"success"`
	Columns       []string     `json:"columns,omitempty"`
	Rows          []query.Row  `json:"rows,omitempty"`
	RowCount      int          `json:"rowCount"`
	ExecutionTime float64      `json:"executionTime,omitempty"`
	Error         *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type ExerciseSummary struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
	Prompt string `json:"prompt"`
}

type ExerciseDetail struct {
	ExerciseSummary
	SQL string `json:"sql"`
}

type ExerciseList struct {
	Exercises []ExerciseSummary `json:"exercises"`
}

func summarize(e exercise.Exercise) ExerciseSummary {
	return ExerciseSummary{Name: e.Name, Schema: string(e.Schema), Prompt: e.Prompt}
}

func NewSuccessResponse(res *query.Result) *QueryResponse {
	rows := res.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	return &QueryResponse{
		Success:       true,
		Columns:       res.Columns,
		Rows:          rows,
		RowCount:      res.RowCount,
		ExecutionTime: float64(res.ExecutionTime.Microseconds()) / 1000.0,
	}
}

func NewErrorResponse(err *database.Error) *QueryResponse {
	if err == nil {
		return &QueryResponse{
			Error: &ErrorDetail{
				Code:    database.ErrorCodeInternalError,
				Message: "Unknown error occurred",
			},
		}
	}

	detail := err.Detail
	if detail == "" && err.Err != nil {
		detail = err.Err.Error()
	}
	return &QueryResponse{
		Error: &ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Detail:  detail,
		},
	}
}

func writeSuccess(c echo.Context, res *query.Result) error {
	return c.JSON(http.StatusOK, NewSuccessResponse(res))
}

// writeError answers with the status that belongs to err's code.
func writeError(c echo.Context, err *database.Error) error {
	response := NewErrorResponse(err)
	return c.JSON(database.HTTPStatus(response.Error.Code), response)
}

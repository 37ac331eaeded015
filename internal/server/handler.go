package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vibesql/sqlzoo/internal/exercise"
	"github.com/vibesql/sqlzoo/internal/query"
)

const maxBodySize = "64K"

type Handler struct {
	executor query.QueryExecutor
}

func NewHandler(executor query.QueryExecutor) *Handler {
	return &Handler{
		executor: executor,
	}
}

// NewRouter returns an echo instance serving every route of the API.
func NewRouter(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	h.RegisterRoutes(e)
	return e
}

// errorHandler reports an oversized body in the API's error shape and
// leaves every other echo error to the default handler.
func errorHandler(err error, c echo.Context) {
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
		c.Echo().DefaultHTTPErrorHandler(err, c)
		return
	}
	if c.Response().Committed {
		return
	}
	if werr := writeError(c, NewBodyTooLargeError(maxBodySize)); werr != nil {
		log.WithError(werr).Error("failed to write error response")
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/v1")
	g.GET("/exercises", h.ListExercises)
	g.GET("/exercises/:name", h.GetExercise)
	g.POST("/exercises/:name/run", h.RunExercise)
	g.POST("/query", h.Query)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ListExercises lists the catalog, optionally restricted with ?schema=.
func (h *Handler) ListExercises(c echo.Context) error {
	list := exercise.All()
	if schema := c.QueryParam("schema"); schema != "" {
		list = exercise.BySchema(exercise.Schema(schema))
	}

	out := make([]ExerciseSummary, 0, len(list))
	for _, e := range list {
		out = append(out, summarize(e))
	}
	return c.JSON(http.StatusOK, ExerciseList{Exercises: out})
}

func (h *Handler) GetExercise(c echo.Context) error {
	name := c.Param("name")
	e, err := exercise.Lookup(name)
	if err != nil {
		return writeError(c, NewUnknownExerciseError(name))
	}
	return c.JSON(http.StatusOK, ExerciseDetail{ExerciseSummary: summarize(e), SQL: e.SQL})
}

func (h *Handler) RunExercise(c echo.Context) error {
	name := c.Param("name")
	e, err := exercise.Lookup(name)
	if errors.Is(err, exercise.ErrUnknownExercise) {
		log.WithField("exercise", name).Warn("unknown exercise")
		return writeError(c, NewUnknownExerciseError(name))
	}

	result, err := e.Run(c.Request().Context(), h.executor)
	if err != nil {
		log.WithField("exercise", name).WithError(err).Error("exercise failed")
		return writeError(c, asDatabaseError(err))
	}

	log.WithFields(log.Fields{
		"exercise": name,
		"rows":     result.RowCount,
		"elapsed":  result.ExecutionTime,
	}).Info("exercise run")
	return writeSuccess(c, result)
}

// Query runs ad-hoc SQL after the size, keyword and safety checks.
func (h *Handler) Query(c echo.Context) error {
	// The body is JSON whatever the Content-Type says.
	var req QueryRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return writeError(c, NewBodyTooLargeError(maxBodySize))
		}
		log.WithError(err).Warn("invalid JSON request body")
		return writeError(c, NewInvalidRequestError("Invalid JSON request body"))
	}

	if req.SQL == "" {
		return writeError(c, NewMissingFieldError("sql"))
	}

	log.Debugf("executing query: %.100s", req.SQL)

	if err := query.ValidateQuery(req.SQL); err != nil {
		log.WithError(err).Warn("query validation failed")
		return writeError(c, asDatabaseError(err))
	}

	if err := query.CheckSafety(req.SQL); err != nil {
		log.WithError(err).Warn("query safety check failed")
		return writeError(c, asDatabaseError(err))
	}

	result, err := h.executor.Execute(c.Request().Context(), req.SQL)
	if err != nil {
		log.WithError(err).Error("query execution failed")
		return writeError(c, asDatabaseError(err))
	}

	log.WithFields(log.Fields{
		"rows":    result.RowCount,
		"elapsed": result.ExecutionTime,
	}).Info("query succeeded")
	return writeSuccess(c, result)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/internal/history"
	"github.com/pdiddy/answer-engine/internal/metrics"
	"github.com/pdiddy/answer-engine/internal/retrieval"
	"github.com/pdiddy/answer-engine/internal/task"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// SearchService is the pipeline surface the handlers need.
type SearchService interface {
	Search(ctx context.Context, query string, opts types.QueryOptions) (*types.SearchResponse, error)
	ClearCache() int
	Sources() []string
	Metrics() *metrics.Collector
}

// TaskService is the async task surface the handlers need.
type TaskService interface {
	Submit(query string, opts types.QueryOptions) (string, error)
	Status(id string) (task.Task, error)
	Cancel(id string) error
	List() []task.Task
}

// HistoryReader lists past searches. Nil when history is disabled.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler holds the services behind the HTTP routes.
type Handler struct {
	search  SearchService
	tasks   TaskService
	history HistoryReader
	version string
}

// NewHandler wires the route handlers. history may be nil.
func NewHandler(search SearchService, tasks TaskService, hist HistoryReader, version string) *Handler {
	return &Handler{search: search, tasks: tasks, history: hist, version: version}
}

// Bind registers all routes on the echo instance.
func (h *Handler) Bind(e *echo.Echo) {
	e.POST("/search", h.searchSync)
	e.POST("/search/async", h.searchAsync)
	e.GET("/search/tasks", h.listTasks)
	e.GET("/search/tasks/:id", h.taskStatus)
	e.DELETE("/search/tasks/:id", h.cancelTask)
	e.GET("/metrics", h.metricsSnapshot)
	e.GET("/health", h.health)
	e.GET("/sources", h.sources)
	e.DELETE("/cache", h.clearCache)
	e.GET("/history", h.listHistory)
}

type searchRequest struct {
	Query           string   `json:"query"`
	MaxResults      int      `json:"max_results"`
	EnableAnalysis  bool     `json:"enable_analysis"`
	EnableSynthesis bool     `json:"enable_synthesis"`
	Sources         []string `json:"sources"`
}

func (r searchRequest) options() types.QueryOptions {
	return types.QueryOptions{
		MaxResults:      r.MaxResults,
		EnableAnalysis:  r.EnableAnalysis,
		EnableSynthesis: r.EnableSynthesis,
		Sources:         r.Sources,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) searchSync(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}

	resp, err := h.search.Search(c.Request().Context(), req.Query, req.options())
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) searchAsync(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}

	id, err := h.tasks.Submit(req.Query, req.options())
	if err != nil {
		if errors.Is(err, task.ErrOverloaded) {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"task_id": id})
}

func (h *Handler) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tasks.List())
}

func (h *Handler) taskStatus(c echo.Context) error {
	t, err := h.tasks.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) cancelTask(c echo.Context) error {
	if err := h.tasks.Cancel(c.Param("id")); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) metricsSnapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.search.Metrics().Snapshot())
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *Handler) sources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"sources": h.search.Sources()})
}

func (h *Handler) clearCache(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"cleared": h.search.ClearCache()})
}

func (h *Handler) listHistory(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "history is disabled"})
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// searchError maps pipeline failures to status codes: bad queries are the
// caller's fault, total retrieval failure is an upstream problem.
func searchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, agent.ErrEmptyQuery):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, retrieval.ErrNoSources):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, retrieval.ErrAllSourcesFailed):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

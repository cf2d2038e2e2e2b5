// Package api serves stored analysis results and manual run triggers over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FuturesSentinel/internal/collector"
	"FuturesSentinel/internal/metrics"
	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
	"FuturesSentinel/internal/scheduler"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	// reportWindow is how many stored signals feed a symbol report.
	reportWindow = 100
)

// Trigger starts an analysis batch.
type Trigger interface {
	Execute(ctx context.Context, symbols []string) (*model.BatchResult, error)
}

// Deps are the collaborators served by the router. Gatherer and Metrics may be nil.
type Deps struct {
	Recorder       recorder.Recorder
	Trigger        Trigger
	Gatherer       prometheus.Gatherer
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	HighConfidence float64
}

// Handler serves the HTTP API.
type Handler struct {
	deps Deps
	log  *slog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.HighConfidence <= 0 {
		deps.HighConfidence = report.DefaultHighConfidence
	}
	h := &Handler{deps: deps, log: deps.Logger}

	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes binds the handler methods to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	if h.deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/symbols", h.ListSymbols)
		api.GET("/results/latest", h.LatestResults)
		api.GET("/results/:symbol", h.History)
		api.GET("/reports/:symbol", h.SymbolReport)
		api.GET("/bars/:symbol", h.Bars)
		api.GET("/indicators/:symbol", h.Indicators)
		api.GET("/runs/last", h.LastRun)
		api.POST("/runs", h.TriggerRun)
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		h.deps.Metrics.ObserveHTTP(c.Request.Method, route, status)
		h.log.Debug("http request",
			"method", c.Request.Method, "route", route,
			"status", status, "duration", time.Since(start))
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func parseLimit(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListSymbols returns the supported contracts as name and product code pairs.
func (h *Handler) ListSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": collector.SupportedContracts()})
}

// LatestResults returns the newest stored result per symbol.
func (h *Handler) LatestResults(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	rows, err := h.deps.Recorder.LatestResults(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("latest results", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(rows)})
}

// History returns stored results for one symbol, newest first.
func (h *Handler) History(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		fail(c, http.StatusBadRequest, "symbol is required")
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	rows, err := h.deps.Recorder.History(c.Request.Context(), symbol, limit)
	if err != nil {
		h.log.Error("history", "symbol", symbol, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) == 0 {
		fail(c, http.StatusNotFound, "no results for "+symbol)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// SymbolReport summarizes the last stored signals of one symbol.
func (h *Handler) SymbolReport(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	rows, err := h.deps.Recorder.History(c.Request.Context(), symbol, reportWindow)
	if err != nil {
		h.log.Error("symbol report", "symbol", symbol, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) == 0 {
		fail(c, http.StatusNotFound, "no results for "+symbol)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report.BuildSymbolReport(symbol, rows)})
}

// Bars returns stored bars for one symbol, oldest first.
func (h *Handler) Bars(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	bars, err := h.deps.Recorder.Bars(c.Request.Context(), symbol, limit)
	if err != nil {
		h.log.Error("bars", "symbol", symbol, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(bars) == 0 {
		fail(c, http.StatusNotFound, "no bars for "+symbol)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bars})
}

// Indicators returns the stored per-bar indicator history, oldest first.
func (h *Handler) Indicators(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	sets, err := h.deps.Recorder.IndicatorHistory(c.Request.Context(), symbol, limit)
	if err != nil {
		h.log.Error("indicators", "symbol", symbol, "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(sets) == 0 {
		fail(c, http.StatusNotFound, "no indicators for "+symbol)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sets})
}

// LastRun returns the most recent batch run.
func (h *Handler) LastRun(c *gin.Context) {
	rec, err := h.deps.Recorder.LastRun(c.Request.Context())
	if err != nil {
		h.log.Error("last run", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		fail(c, http.StatusNotFound, "no runs recorded")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

type runRequest struct {
	Symbols []string `json:"symbols"`
}

// TriggerRun runs a batch synchronously and returns it with its summary.
func (h *Handler) TriggerRun(c *gin.Context) {
	if h.deps.Trigger == nil {
		fail(c, http.StatusServiceUnavailable, "manual runs are disabled")
		return
	}
	var req runRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	batch, err := h.deps.Trigger.Execute(c.Request.Context(), req.Symbols)
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		fail(c, http.StatusConflict, err.Error())
		return
	case batch == nil && errors.Is(err, model.ErrSourceUnavailable):
		fail(c, http.StatusBadGateway, err.Error())
		return
	case batch == nil:
		msg := "run produced no result"
		if err != nil {
			msg = err.Error()
		}
		fail(c, http.StatusInternalServerError, msg)
		return
	}

	resp := gin.H{
		"summary": report.Summarize(batch, h.deps.HighConfidence),
		"batch":   batch,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func nonNil(rows []recorder.AnalysisRow) []recorder.AnalysisRow {
	if rows == nil {
		return []recorder.AnalysisRow{}
	}
	return rows
}

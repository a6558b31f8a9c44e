package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"SwingScreener/internal/collector"
	"SwingScreener/internal/model"
	"SwingScreener/internal/recorder"
	"SwingScreener/internal/scheduler"
	"SwingScreener/internal/screener"
)

// Service is the scan functionality exposed over HTTP.
type Service interface {
	RunScanNow(ctx context.Context, limit int) (*model.ScanSummary, error)
	ScoreSymbol(ctx context.Context, symbol string) (*model.StockResult, error)
	History(ctx context.Context, symbol string, limit int) ([]recorder.ScoreRecord, error)
	Last() *model.ScanSummary
}

// Response is the envelope of every endpoint except /health.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Results any    `json:"results,omitempty"`
}

type analyzeRequest struct {
	Limit *int `json:"limit"`
}

// API serves the screener over HTTP.
type API struct {
	Service      Service
	DefaultLimit int
	Log          *logrus.Entry
}

// New creates an API with a default analyze limit of 5.
func New(svc Service, log *logrus.Entry) *API {
	return &API{Service: svc, DefaultLimit: 5, Log: log.WithField("component", "api")}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.HandleHealth)
	r.Post("/analyze", a.HandleAnalyze)
	r.Get("/top", a.HandleTop)
	r.Get("/stocks/{symbol}", a.HandleStock)
	r.Get("/stocks/{symbol}/history", a.HandleHistory)
	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"elapsed":    time.Since(start).Round(time.Microsecond),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *API) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	limit := a.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 {
		WriteError(w, http.StatusBadRequest, "limit must be positive")
		return
	}

	summary, err := a.Service.RunScanNow(r.Context(), limit)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrScanRunning):
			WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, screener.ErrNoSymbols), errors.Is(err, collector.ErrNoData):
			WriteError(w, http.StatusServiceUnavailable, "no symbols available to scan")
		default:
			a.Log.WithError(err).Error("analyze")
			WriteError(w, http.StatusInternalServerError, "scan failed")
		}
		return
	}
	WriteJSON(w, http.StatusOK, Response{
		Status:  "success",
		Message: fmt.Sprintf("scanned %d symbols, scored %d", summary.Requested, summary.Scored),
		Results: summary.Top,
	})
}

func (a *API) HandleTop(w http.ResponseWriter, r *http.Request) {
	last := a.Service.Last()
	if last == nil {
		WriteError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	WriteJSON(w, http.StatusOK, Response{
		Status:  "success",
		Message: "scan finished at " + last.FinishedAt.Format(time.RFC3339),
		Results: last.Top,
	})
}

func (a *API) HandleStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	res, err := a.Service.ScoreSymbol(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			WriteError(w, http.StatusNotFound, "no data for "+symbol)
			return
		}
		a.Log.WithError(err).WithField("symbol", symbol).Error("score symbol")
		WriteError(w, http.StatusBadGateway, "could not score "+symbol)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Status: "success", Results: res})
}

func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := a.Service.History(r.Context(), symbol, limit)
	if err != nil {
		a.Log.WithError(err).WithField("symbol", symbol).Error("score history")
		WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []recorder.ScoreRecord{}
	}
	WriteJSON(w, http.StatusOK, Response{Status: "success", Results: records})
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Status: "error", Message: message})
}

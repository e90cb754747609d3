package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/curtainworks/internal/catalog"
	"github.com/Simplici0/curtainworks/internal/curtain"
	"github.com/Simplici0/curtainworks/internal/logger"
	"github.com/Simplici0/curtainworks/internal/shopify"
)

const maxBodyBytes = 10 << 20

// errBadRequest marks request errors that map to 400.
var errBadRequest = errors.New("bad request")

type server struct {
	log            *zap.Logger
	store          *catalog.Store
	tables         *curtain.Tables
	defaultWindows int
	now            func() time.Time
}

func newServer(log *zap.Logger, store *catalog.Store, tables *curtain.Tables, defaultWindows int) *server {
	if tables == nil {
		tables = curtain.DefaultTables()
	}
	if defaultWindows < 1 {
		defaultWindows = 1
	}
	return &server{
		log:            log,
		store:          store,
		tables:         tables,
		defaultWindows: defaultWindows,
		now:            time.Now,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/derive", s.handleDerive)
		r.Post("/orders/derive", s.handleOrderDerive)
		r.Post("/orders/stock-list", s.handleStockList)

		r.Get("/catalog/fabrics", s.handleListFabrics)
		r.Post("/catalog/fabrics", s.handleAddFabric)
		r.Get("/catalog/fabrics/{code}/history", s.handleFabricHistory)
		r.Get("/catalog/linings", s.handleListLinings)
		r.Post("/catalog/linings", s.handleAddLining)
		r.Post("/catalog/import", s.handleImport)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// deriver builds a deriver over the catalog in effect at asOf. The catalog is
// small enough to read per request.
func (s *server) deriver(r *http.Request, asOf time.Time) (*curtain.Deriver, error) {
	cat, err := s.store.Snapshot(r.Context(), asOf)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	return curtain.NewDeriver(s.tables, cat), nil
}

// asOf reads the optional asOf query parameter, defaulting to now.
func (s *server) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return s.now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: asOf must be RFC3339", errBadRequest)
	}
	return t, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
// Internal error text is logged, not returned.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if isBadRequest(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.log.Error("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func isBadRequest(err error) bool {
	for _, target := range []error{
		errBadRequest,
		catalog.ErrInvalidCode,
		catalog.ErrInvalidName,
		catalog.ErrNegativePrice,
		catalog.ErrInvalidWorkbook,
		catalog.ErrSheetNotFound,
		shopify.ErrEmptyPayload,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/curtainworks/internal/catalog"
	"github.com/Simplici0/curtainworks/internal/curtain"
)

type createdResponse struct {
	ID int64 `json:"id"`
}

func (s *server) handleListFabrics(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	prices, err := s.store.FabricPrices(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if prices == nil {
		prices = []curtain.PriceCatalogEntry{}
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *server) handleAddFabric(w http.ResponseWriter, r *http.Request) {
	var p catalog.FabricPrice
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.store.AddFabricPrice(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *server) handleFabricHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	history, err := s.store.FabricHistory(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []catalog.FabricPrice{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *server) handleListLinings(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	prices, err := s.store.LiningPrices(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *server) handleAddLining(w http.ResponseWriter, r *http.Request) {
	var p catalog.LiningPrice
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.store.AddLiningPrice(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	effective := s.now()
	if raw := r.URL.Query().Get("effectiveFrom"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: effectiveFrom must be RFC3339", errBadRequest))
			return
		}
		effective = t
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	stats, err := s.store.ImportWorkbook(r.Context(), r.Body, r.URL.Query().Get("sheet"), effective)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("catalog imported", zap.Int("imported", stats.Imported), zap.Int("skipped", stats.Skipped))
	writeJSON(w, http.StatusOK, stats)
}

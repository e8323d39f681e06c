package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/modelfolio/internal/modules/pricing"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "modelfolio",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleStockQuote resolves a current price for any symbol
func (s *Server) handleStockQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(chi.URLParam(r, "symbol"))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quote, err := s.pricing.GetPrice(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, pricing.ErrPriceUnavailable) {
			s.writeError(w, http.StatusNotFound, "no price available for "+strings.ToUpper(symbol))
			return
		}
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		s.writeError(w, http.StatusInternalServerError, "quote lookup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

// handleStockSearch searches the known instrument list
func (s *Server) handleStockSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results := pricing.Search(query)
	if results == nil {
		results = []pricing.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

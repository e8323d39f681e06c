package rebalancing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const defaultRecordLimit = 50

// Handlers exposes the model portfolio over HTTP
type Handlers struct {
	repo    *Repository
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates the model API handlers
func NewHandlers(repo *Repository, service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:    repo,
		service: service,
		log:     log.With().Str("component", "model_handlers").Logger(),
	}
}

// Routes registers the model endpoints on a router
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/state", h.handleState)
	r.Get("/allocation/current", h.handleCurrentAllocation)
	r.Get("/allocation/history", h.handleAllocationHistory)
	r.Get("/performance", h.handlePerformance)
	r.Get("/rebalances", h.handleRebalances)
	r.Get("/rebalances/{date}", h.handleRebalanceByDate)
	r.Post("/rebalance", h.handleTriggerRebalance)
}

func (h *Handlers) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.GetState()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load model state")
		h.writeError(w, http.StatusInternalServerError, "failed to load model state")
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) handleCurrentAllocation(w http.ResponseWriter, r *http.Request) {
	alloc, err := h.repo.GetCurrentAllocation()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load current allocation")
		h.writeError(w, http.StatusInternalServerError, "failed to load current allocation")
		return
	}
	if alloc == nil {
		h.writeError(w, http.StatusNotFound, "no rebalance has run yet")
		return
	}
	h.writeJSON(w, http.StatusOK, alloc)
}

func (h *Handlers) handleAllocationHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.GetRecords(defaultRecordLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load allocation history")
		h.writeError(w, http.StatusInternalServerError, "failed to load allocation history")
		return
	}

	history := make([]Allocation, 0, len(records))
	for _, record := range records {
		history = append(history, Allocation{
			Date:       record.Date,
			Regime:     record.Regime,
			Weights:    record.Weights,
			Indicators: record.Indicators,
			Reason:     record.Reason,
		})
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handlers) handlePerformance(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	curve, err := h.repo.GetEquityCurve(from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load equity curve")
		h.writeError(w, http.StatusInternalServerError, "failed to load equity curve")
		return
	}
	state, err := h.repo.GetState()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load model state")
		h.writeError(w, http.StatusInternalServerError, "failed to load model state")
		return
	}

	totalReturn := 0.0
	if state.StartingNAV > 0 {
		totalReturn = state.CurrentNAV/state.StartingNAV - 1
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"start_date":   state.StartDate,
		"starting_nav": state.StartingNAV,
		"current_nav":  state.CurrentNAV,
		"total_return": totalReturn,
		"equity_curve": curve,
	})
}

func (h *Handlers) handleRebalances(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.repo.GetRecords(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load rebalance records")
		h.writeError(w, http.StatusInternalServerError, "failed to load rebalance records")
		return
	}
	if records == nil {
		records = []Record{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) handleRebalanceByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	record, err := h.repo.GetRecordByDate(date)
	if err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("Failed to load rebalance record")
		h.writeError(w, http.StatusInternalServerError, "failed to load rebalance record")
		return
	}
	if record == nil {
		h.writeError(w, http.StatusNotFound, "no rebalance on that date")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) handleTriggerRebalance(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Run(r.Context(), TriggerManual)
	if err != nil {
		if errors.Is(err, ErrRebalanceInProgress) {
			h.writeError(w, http.StatusConflict, "a rebalance is already running")
			return
		}
		h.log.Error().Err(err).Msg("Manual rebalance failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

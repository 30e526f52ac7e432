package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/internal/service"
	"github.com/cypherlabdev/market-signal-service/pkg/arbitrage"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
	"github.com/cypherlabdev/market-signal-service/pkg/oddsmath"
)

const maxBodyBytes = 1 << 20

// SignalHandler handles HTTP requests for market signals and early lines
type SignalHandler struct {
	signals    *service.SignalService
	earlyLines *service.EarlyLinesService
	logger     zerolog.Logger
}

// NewSignalHandler creates a new signal HTTP handler
func NewSignalHandler(signals *service.SignalService, earlyLines *service.EarlyLinesService, logger zerolog.Logger) *SignalHandler {
	return &SignalHandler{
		signals:    signals,
		earlyLines: earlyLines,
		logger:     logger.With().Str("component", "signal_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes on the router
func (h *SignalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events/{eventID}/iai", h.handleScoreEvent)
		r.Get("/events/{eventID}/iai", h.handleGetScore)
		r.Delete("/events/{eventID}/session", h.handleResetEvent)

		r.Get("/early-lines", h.handleEarlyLines)

		r.Post("/arbitrage/line-move", h.handleLineMoveArbitrage)
		r.Post("/arbitrage/hedge", h.handleHedge)
	})
}

// IAIResponse is an IAI result plus, when a home win probability was supplied,
// that probability adjusted by the result's modifier
type IAIResponse struct {
	*models.IAIResult
	AdjustedHomeProbability *float64 `json:"adjusted_home_probability,omitempty"`
}

// handleScoreEvent handles POST /api/v1/events/{eventID}/iai[?home_probability=0.55]
func (h *SignalHandler) handleScoreEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var homeProbability *float64
	if raw := r.URL.Query().Get("home_probability"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 || p > 1 {
			h.errorResponse(w, http.StatusBadRequest, "home_probability must be a number in [0, 1]")
			return
		}
		homeProbability = &p
	}

	var sc models.ScoringContext
	if !h.decode(w, r, &sc) {
		return
	}

	result, err := h.signals.ScoreEvent(r.Context(), eventID, sc)
	if err != nil {
		h.serviceError(w, err, eventID)
		return
	}

	resp := IAIResponse{IAIResult: result}
	if homeProbability != nil {
		adjusted := iai.AdjustProbability(*homeProbability, result.ProbabilityModifier)
		resp.AdjustedHomeProbability = &adjusted
	}

	h.jsonResponse(w, http.StatusOK, resp)
}

// handleGetScore handles GET /api/v1/events/{eventID}/iai
func (h *SignalHandler) handleGetScore(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	result, err := h.signals.GetScore(r.Context(), eventID)
	if err != nil {
		h.serviceError(w, err, eventID)
		return
	}

	h.jsonResponse(w, http.StatusOK, IAIResponse{IAIResult: result})
}

// handleResetEvent handles DELETE /api/v1/events/{eventID}/session
func (h *SignalHandler) handleResetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.signals.ResetEvent(eventID); err != nil {
		h.serviceError(w, err, eventID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleEarlyLines handles GET /api/v1/early-lines?sports=nfl,nba&days=5
func (h *SignalHandler) handleEarlyLines(w http.ResponseWriter, r *http.Request) {
	var sports []string
	for _, s := range strings.Split(r.URL.Query().Get("sports"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			sports = append(sports, s)
		}
	}

	var days int
	if raw := r.URL.Query().Get("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = d
	}

	odds, err := h.earlyLines.Scan(r.Context(), sports, days)
	if err != nil {
		h.serviceError(w, err, "")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count": len(odds),
		"odds":  odds,
	})
}

// handleLineMoveArbitrage handles POST /api/v1/arbitrage/line-move
func (h *SignalHandler) handleLineMoveArbitrage(w http.ResponseWriter, r *http.Request) {
	var req service.ArbitrageRequest
	if !h.decode(w, r, &req) {
		return
	}

	reports, err := h.earlyLines.DetectArbitrage(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":         len(reports),
		"opportunities": reports,
	})
}

// handleHedge handles POST /api/v1/arbitrage/hedge
func (h *SignalHandler) handleHedge(w http.ResponseWriter, r *http.Request) {
	var req service.HedgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.earlyLines.Hedge(req)
	if err != nil {
		h.serviceError(w, err, "")
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// decode reads a JSON body into out, writing a 400 on failure
func (h *SignalHandler) decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// serviceError maps service errors onto HTTP status codes
func (h *SignalHandler) serviceError(w http.ResponseWriter, err error, eventID string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, iai.ErrInsufficientContext),
		errors.Is(err, oddsmath.ErrInvalidOdds),
		errors.Is(err, arbitrage.ErrInvalidStake):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("event_id", eventID).
			Msg("request failed")
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// jsonResponse writes a JSON response
func (h *SignalHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *SignalHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

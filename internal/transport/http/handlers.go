package httptransport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kindred/internal/matching"
	"kindred/internal/platform/middleware"
	"kindred/internal/protocol"
	pkgerrors "kindred/pkg/errors"
)

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	failures := map[string]string{}
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "degraded",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.ParticipantID(r.Context())

	cfg, err := weightOverrides(r.URL.Query(), h.defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.svc.Matches(r.Context(), userID, cfg)
	if err != nil {
		h.logger.Warn("match request failed",
			zap.String("participant", userID),
			zap.Error(err))
		writeError(w, err)
		return
	}
	if results == nil {
		results = []matching.MatchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": results})
}

// weightOverrides builds a per-request weight configuration from query
// parameters. Returns nil when no override parameter is present, so the
// facade falls back to the configured defaults.
func weightOverrides(q url.Values, defaults matching.WeightConfig) (*matching.WeightConfig, error) {
	cfg := defaults
	overridden := false
	for param, target := range map[string]*float64{
		"weight_age":      &cfg.AgeWeight,
		"weight_distance": &cfg.DistanceWeight,
		"weight_interest": &cfg.InterestWeight,
		"max_age_diff":    &cfg.MaxAgeDifference,
		"max_distance_km": &cfg.MaxDistanceKm,
	} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid "+param)
		}
		*target = v
		overridden = true
	}
	if !overridden {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	userID := middleware.ParticipantID(r.Context())
	candidateID := chi.URLParam(r, "id")

	if err := h.svc.Dismiss(r.Context(), userID, candidateID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleIntroduce(w http.ResponseWriter, r *http.Request) {
	userID := middleware.ParticipantID(r.Context())
	candidateID := chi.URLParam(r, "id")

	msg, err := h.svc.Introduce(r.Context(), userID, candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	participantID := middleware.ParticipantID(r.Context())

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid request body"))
		return
	}
	c, err := h.svc.Deposit(r.Context(), participantID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRequestWithdraw(w http.ResponseWriter, r *http.Request) {
	participantID := middleware.ParticipantID(r.Context())

	c, err := h.svc.RequestWithdraw(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleFinalizeWithdraw(w http.ResponseWriter, r *http.Request) {
	participantID := middleware.ParticipantID(r.Context())

	amount, err := h.svc.FinalizeWithdraw(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (h *Handler) handleSlash(w http.ResponseWriter, r *http.Request) {
	var instr protocol.SlashInstruction
	if err := json.NewDecoder(r.Body).Decode(&instr); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if instr.ParticipantID == "" {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "participant is required"))
		return
	}
	slashed, err := h.svc.Slash(r.Context(), instr)
	if err != nil {
		h.logger.Warn("slash request failed",
			zap.String("participant", instr.ParticipantID),
			zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"slashed": slashed})
}

func (h *Handler) handleCommitment(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Commitment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

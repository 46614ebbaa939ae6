// Package httptransport is the thin HTTP layer. Handlers delegate to the
// protocol facade without embedding business logic so transport concerns
// remain isolated.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kindred/internal/audit"
	jwttoken "kindred/internal/jwt_token"
	"kindred/internal/ledger"
	"kindred/internal/matching"
	"kindred/internal/platform/middleware"
	"kindred/internal/protocol"
)

// ProtocolService defines the facade operations the transport exposes.
type ProtocolService interface {
	Matches(ctx context.Context, userID string, cfg *matching.WeightConfig) ([]matching.MatchResult, error)
	Dismiss(ctx context.Context, userID, candidateID string) error
	Introduce(ctx context.Context, userID, candidateID string) (matching.IntroMessage, error)
	Deposit(ctx context.Context, participantID string, amount int64) (ledger.Commitment, error)
	RequestWithdraw(ctx context.Context, participantID string) (ledger.Commitment, error)
	FinalizeWithdraw(ctx context.Context, participantID string) (int64, error)
	Slash(ctx context.Context, instr protocol.SlashInstruction) (int64, error)
	Commitment(ctx context.Context, participantID string) (ledger.Commitment, error)
	History(ctx context.Context, participantID string) ([]audit.Event, error)
}

// HealthCheck probes a backing dependency for the /healthz endpoint.
type HealthCheck func(ctx context.Context) error

// Handler carries the handler dependencies.
type Handler struct {
	svc      ProtocolService
	logger   *zap.Logger
	defaults matching.WeightConfig
	health   map[string]HealthCheck
}

func NewHandler(svc ProtocolService, logger *zap.Logger, defaults matching.WeightConfig, health map[string]HealthCheck) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger, defaults: defaults, health: health}
}

// NewRouter wires all public endpoints. Ledger and matching routes require a
// bearer token; slashing additionally requires the safety role.
func NewRouter(h *Handler, validator middleware.TokenValidator, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, h.logger))

		r.Get("/matches", h.handleMatches)
		r.Post("/matches/{id}/dismiss", h.handleDismiss)
		r.Post("/matches/{id}/introduce", h.handleIntroduce)

		r.Post("/ledger/deposit", h.handleDeposit)
		r.Post("/ledger/withdrawals", h.handleRequestWithdraw)
		r.Post("/ledger/withdrawals/finalize", h.handleFinalizeWithdraw)
		r.Get("/ledger/commitments/{id}", h.handleCommitment)
		r.Get("/ledger/commitments/{id}/history", h.handleHistory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(jwttoken.RoleSafety))
			r.Post("/ledger/slash", h.handleSlash)
		})
	})

	return r
}

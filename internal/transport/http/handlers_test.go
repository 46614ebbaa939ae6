package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kindred/internal/audit"
	jwttoken "kindred/internal/jwt_token"
	"kindred/internal/ledger"
	"kindred/internal/matching"
	"kindred/internal/protocol"
	pkgerrors "kindred/pkg/errors"
)

type stubService struct {
	matchesFn  func(ctx context.Context, userID string, cfg *matching.WeightConfig) ([]matching.MatchResult, error)
	dismissFn  func(ctx context.Context, userID, candidateID string) error
	depositFn  func(ctx context.Context, participantID string, amount int64) (ledger.Commitment, error)
	withdrawFn func(ctx context.Context, participantID string) (ledger.Commitment, error)
	finalizeFn func(ctx context.Context, participantID string) (int64, error)
	slashFn    func(ctx context.Context, instr protocol.SlashInstruction) (int64, error)
}

func (s *stubService) Matches(ctx context.Context, userID string, cfg *matching.WeightConfig) ([]matching.MatchResult, error) {
	return s.matchesFn(ctx, userID, cfg)
}

func (s *stubService) Dismiss(ctx context.Context, userID, candidateID string) error {
	return s.dismissFn(ctx, userID, candidateID)
}

func (s *stubService) Introduce(ctx context.Context, userID, candidateID string) (matching.IntroMessage, error) {
	return matching.NewIntroMessage(matching.Profile{ID: userID}, matching.Profile{ID: candidateID}), nil
}

func (s *stubService) Deposit(ctx context.Context, participantID string, amount int64) (ledger.Commitment, error) {
	return s.depositFn(ctx, participantID, amount)
}

func (s *stubService) RequestWithdraw(ctx context.Context, participantID string) (ledger.Commitment, error) {
	return s.withdrawFn(ctx, participantID)
}

func (s *stubService) FinalizeWithdraw(ctx context.Context, participantID string) (int64, error) {
	return s.finalizeFn(ctx, participantID)
}

func (s *stubService) Slash(ctx context.Context, instr protocol.SlashInstruction) (int64, error) {
	return s.slashFn(ctx, instr)
}

func (s *stubService) Commitment(ctx context.Context, participantID string) (ledger.Commitment, error) {
	return ledger.Commitment{ParticipantID: participantID, State: ledger.StateUncommitted}, nil
}

func (s *stubService) History(ctx context.Context, participantID string) ([]audit.Event, error) {
	return nil, nil
}

// stubValidator maps bearer tokens directly to claims.
type stubValidator struct {
	tokens map[string]*jwttoken.Claims
}

func (v *stubValidator) ValidateToken(tokenString string) (*jwttoken.Claims, error) {
	claims, ok := v.tokens[tokenString]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func participantClaims(subject string) *jwttoken.Claims {
	return &jwttoken.Claims{
		Role:             jwttoken.RoleParticipant,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func safetyClaims(subject string) *jwttoken.Claims {
	return &jwttoken.Claims{
		Role:             jwttoken.RoleSafety,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func newTestRouter(t *testing.T, svc ProtocolService) http.Handler {
	t.Helper()
	validator := &stubValidator{tokens: map[string]*jwttoken.Claims{
		"user-token":   participantClaims("u1"),
		"safety-token": safetyClaims("mod-1"),
	}}
	h := NewHandler(svc, zap.NewNop(), matching.DefaultWeights(), nil)
	return NewRouter(h, validator, prometheus.NewRegistry())
}

func doRequest(router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodGet, "/matches", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/matches", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMatchesReturnsRankedResults(t *testing.T) {
	age := 30
	svc := &stubService{
		matchesFn: func(_ context.Context, userID string, cfg *matching.WeightConfig) ([]matching.MatchResult, error) {
			assert.Equal(t, "u1", userID)
			assert.Nil(t, cfg)
			return []matching.MatchResult{
				{Profile: matching.Profile{ID: "u2", Age: &age}, Score: 0.9},
			}, nil
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodGet, "/matches", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []matching.MatchResult `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "u2", resp.Matches[0].Profile.ID)
	assert.InDelta(t, 0.9, resp.Matches[0].Score, 1e-9)
}

func TestMatchesWeightOverrides(t *testing.T) {
	svc := &stubService{
		matchesFn: func(_ context.Context, _ string, cfg *matching.WeightConfig) ([]matching.MatchResult, error) {
			require.NotNil(t, cfg)
			assert.InDelta(t, 0.5, cfg.AgeWeight, 1e-9)
			assert.InDelta(t, 100.0, cfg.MaxDistanceKm, 1e-9)
			// untouched knobs keep their defaults
			assert.InDelta(t, 0.4, cfg.InterestWeight, 1e-9)
			return nil, nil
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodGet, "/matches?weight_age=0.5&max_distance_km=100", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matches":[]}`, rec.Body.String())
}

func TestMatchesRejectsBadOverrides(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodGet, "/matches?weight_age=lots", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_input"}`, rec.Body.String())

	rec = doRequest(router, http.MethodGet, "/matches?max_distance_km=0", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_input"}`, rec.Body.String())
}

func TestMatchesStakeGateEnvelope(t *testing.T) {
	svc := &stubService{
		matchesFn: func(context.Context, string, *matching.WeightConfig) ([]matching.MatchResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "an active stake is required to receive matches")
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodGet, "/matches", "user-token", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_state"}`, rec.Body.String())
}

func TestDismiss(t *testing.T) {
	var gotUser, gotCandidate string
	svc := &stubService{
		dismissFn: func(_ context.Context, userID, candidateID string) error {
			gotUser, gotCandidate = userID, candidateID
			return nil
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodPost, "/matches/u2/dismiss", "user-token", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "u2", gotCandidate)
}

func TestIntroduce(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodPost, "/matches/u2/introduce", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"to":"u2","message":"Hi u2, u1 liked your profile!"}`, rec.Body.String())
}

func TestDeposit(t *testing.T) {
	svc := &stubService{
		depositFn: func(_ context.Context, participantID string, amount int64) (ledger.Commitment, error) {
			assert.Equal(t, "u1", participantID)
			assert.Equal(t, int64(100), amount)
			return ledger.Commitment{ParticipantID: participantID, Stake: amount, State: ledger.StateActive}, nil
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodPost, "/ledger/deposit", "user-token", `{"amount":100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var c ledger.Commitment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, ledger.StateActive, c.State)
	assert.Equal(t, int64(100), c.Stake)
}

func TestDepositRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodPost, "/ledger/deposit", "user-token", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_input"}`, rec.Body.String())
}

func TestFinalizeWithdrawCooldownEnvelope(t *testing.T) {
	svc := &stubService{
		finalizeFn: func(context.Context, string) (int64, error) {
			return 0, pkgerrors.New(pkgerrors.CodeCooldownNotElapsed, "cooldown has not elapsed")
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodPost, "/ledger/withdrawals/finalize", "user-token", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"cooldown_not_elapsed"}`, rec.Body.String())
}

func TestFinalizeWithdrawReturnsAmount(t *testing.T) {
	svc := &stubService{
		finalizeFn: func(context.Context, string) (int64, error) { return 60, nil },
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodPost, "/ledger/withdrawals/finalize", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"amount":60}`, rec.Body.String())
}

func TestSlashRequiresSafetyRole(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodPost, "/ledger/slash", "user-token", `{"participant":"u2","amount":50}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSlashReturnsCappedAmount(t *testing.T) {
	svc := &stubService{
		slashFn: func(_ context.Context, instr protocol.SlashInstruction) (int64, error) {
			assert.Equal(t, "u2", instr.ParticipantID)
			assert.Equal(t, int64(250), instr.Amount)
			assert.Equal(t, "ev-1", instr.EvidenceRef)
			return 100, nil
		},
	}
	router := newTestRouter(t, svc)

	rec := doRequest(router, http.MethodPost, "/ledger/slash", "safety-token",
		`{"participant":"u2","amount":250,"evidence_ref":"ev-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slashed":100}`, rec.Body.String())
}

func TestSlashRejectsMissingParticipant(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodPost, "/ledger/slash", "safety-token", `{"amount":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_input"}`, rec.Body.String())
}

func TestCommitmentLookup(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	rec := doRequest(router, http.MethodGet, "/ledger/commitments/u1", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var c ledger.Commitment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "u1", c.ParticipantID)
	assert.Equal(t, ledger.StateUncommitted, c.State)
}

func TestHealthz(t *testing.T) {
	validator := &stubValidator{tokens: map[string]*jwttoken.Claims{}}

	healthy := NewRouter(NewHandler(&stubService{}, zap.NewNop(), matching.DefaultWeights(), map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	}), validator, prometheus.NewRegistry())
	rec := doRequest(healthy, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := NewRouter(NewHandler(&stubService{}, zap.NewNop(), matching.DefaultWeights(), map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}), validator, prometheus.NewRegistry())
	rec = doRequest(degraded, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

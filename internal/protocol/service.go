// Package protocol composes the match ranker, commitment ledger, profile
// directory, and audit trail behind the operations external callers invoke.
// Orchestration lives here so the leaf packages stay pure.
package protocol

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"kindred/internal/audit"
	"kindred/internal/ledger"
	"kindred/internal/matching"
	"kindred/internal/platform/metrics"
	"kindred/internal/profile"
	"kindred/pkg/clock"
	pkgerrors "kindred/pkg/errors"
)

// SlashInstruction is the adjudicated input from the safety collaborator.
// The core treats it as trusted; adjudication happened elsewhere.
type SlashInstruction struct {
	ParticipantID string `json:"participant"`
	Amount        int64  `json:"amount"`
	Destination   string `json:"destination"`
	EvidenceRef   string `json:"evidence_ref"`
}

// Service is the protocol facade.
type Service struct {
	profiles profile.Directory
	ledger   *ledger.Service
	audit    *audit.Publisher
	sink     TransferSink
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer

	weights            matching.WeightConfig
	requireActiveStake bool
	treasury           string
}

// Options carries the policy knobs the facade enforces.
type Options struct {
	Weights            matching.WeightConfig
	RequireActiveStake bool
	TreasuryAddress    string
}

func NewService(
	profiles profile.Directory,
	ledgerSvc *ledger.Service,
	auditPub *audit.Publisher,
	sink TransferSink,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles:           profiles,
		ledger:             ledgerSvc,
		audit:              auditPub,
		sink:               sink,
		clock:              clk,
		metrics:            m,
		logger:             logger,
		tracer:             otel.Tracer("kindred/protocol"),
		weights:            opts.Weights,
		requireActiveStake: opts.RequireActiveStake,
		treasury:           opts.TreasuryAddress,
	}
}

// Matches returns the ranked candidate list for userID. cfg overrides the
// default weights when non-nil. When the stake gate is on, only participants
// holding an Active commitment may request matches.
func (s *Service) Matches(ctx context.Context, userID string, cfg *matching.WeightConfig) ([]matching.MatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.Matches")
	defer span.End()

	if s.requireActiveStake {
		active, err := s.ledger.HasActiveStake(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState,
				"an active stake is required to receive matches")
		}
	}

	user, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.profiles.ListCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	dismissed, err := s.profiles.Dismissed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(dismissed) > 0 {
		filtered := candidates[:0]
		for _, c := range candidates {
			if _, gone := dismissed[c.ID]; !gone {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	weights := s.weights
	if cfg != nil {
		weights = *cfg
	}
	results, err := matching.FindMatches(ctx, user, candidates, weights)
	if err != nil {
		return nil, err
	}
	s.metrics.MatchRequests.Inc()
	return results, nil
}

// Dismiss hides a candidate from userID's future listings. The candidate
// must exist in the directory.
func (s *Service) Dismiss(ctx context.Context, userID, candidateID string) error {
	ctx, span := s.tracer.Start(ctx, "protocol.Dismiss")
	defer span.End()

	if candidateID == userID {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "cannot dismiss yourself")
	}
	if _, err := s.profiles.FindByID(ctx, candidateID); err != nil {
		return err
	}
	return s.profiles.Dismiss(ctx, userID, candidateID)
}

// Introduce produces the first-contact payload for the messaging
// collaborator. Delivery happens outside the core; the same stake gate as
// Matches applies so only committed participants can initiate contact.
func (s *Service) Introduce(ctx context.Context, userID, candidateID string) (matching.IntroMessage, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.Introduce")
	defer span.End()

	if candidateID == userID {
		return matching.IntroMessage{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "cannot introduce yourself to yourself")
	}
	if s.requireActiveStake {
		active, err := s.ledger.HasActiveStake(ctx, userID)
		if err != nil {
			return matching.IntroMessage{}, err
		}
		if !active {
			return matching.IntroMessage{}, pkgerrors.New(pkgerrors.CodeInvalidState,
				"an active stake is required to initiate contact")
		}
	}
	user, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return matching.IntroMessage{}, err
	}
	candidate, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		return matching.IntroMessage{}, err
	}
	return matching.NewIntroMessage(user, candidate), nil
}

// Deposit adds stake for the participant.
func (s *Service) Deposit(ctx context.Context, participantID string, amount int64) (ledger.Commitment, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.Deposit")
	defer span.End()

	c, err := s.ledger.Deposit(ctx, participantID, amount)
	if err != nil {
		return ledger.Commitment{}, err
	}
	s.metrics.Deposits.Inc()
	s.metrics.StakeHeld.Add(float64(amount))
	s.emit(ctx, audit.Event{
		Type:          audit.EventDeposit,
		ParticipantID: participantID,
		Amount:        amount,
	})
	return c, nil
}

// RequestWithdraw starts the withdrawal cooldown.
func (s *Service) RequestWithdraw(ctx context.Context, participantID string) (ledger.Commitment, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.RequestWithdraw")
	defer span.End()

	c, err := s.ledger.RequestWithdraw(ctx, participantID)
	if err != nil {
		return ledger.Commitment{}, err
	}
	s.metrics.WithdrawalsRequested.Inc()
	s.emit(ctx, audit.Event{
		Type:          audit.EventWithdrawRequested,
		ParticipantID: participantID,
		Amount:        c.Stake,
	})
	return c, nil
}

// FinalizeWithdraw releases the stake after the cooldown and hands the
// transfer instruction to the transaction collaborator. Delivery is
// at-least-once; the audit trail is the reconciliation source.
func (s *Service) FinalizeWithdraw(ctx context.Context, participantID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.FinalizeWithdraw")
	defer span.End()

	amount, err := s.ledger.FinalizeWithdraw(ctx, participantID)
	if err != nil {
		return 0, err
	}
	s.metrics.WithdrawalsFinalized.Inc()
	s.metrics.StakeHeld.Sub(float64(amount))
	s.emit(ctx, audit.Event{
		Type:          audit.EventWithdrawFinalized,
		ParticipantID: participantID,
		Amount:        amount,
		Destination:   participantID,
	})
	if err := s.sink.Transfer(ctx, participantID, amount, "withdrawal"); err != nil {
		s.logger.Error("withdrawal transfer instruction failed",
			zap.String("participant", participantID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return amount, err
	}
	return amount, nil
}

// Slash forfeits stake on adjudicated evidence and routes the capped amount
// to the treasury destination. Returns the amount actually slashed.
func (s *Service) Slash(ctx context.Context, instr SlashInstruction) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.Slash")
	defer span.End()

	if instr.Destination == "" {
		instr.Destination = s.treasury
	}
	slashed, err := s.ledger.Slash(ctx, instr.ParticipantID, instr.Amount)
	if err != nil {
		return 0, err
	}
	s.metrics.Slashes.Inc()
	s.metrics.StakeHeld.Sub(float64(slashed))
	s.emit(ctx, audit.Event{
		Type:          audit.EventSlash,
		ParticipantID: instr.ParticipantID,
		Amount:        slashed,
		Destination:   instr.Destination,
		EvidenceRef:   instr.EvidenceRef,
	})
	if err := s.sink.Transfer(ctx, instr.Destination, slashed, "slash:"+instr.EvidenceRef); err != nil {
		s.logger.Error("slash transfer instruction failed",
			zap.String("participant", instr.ParticipantID),
			zap.String("destination", instr.Destination),
			zap.Int64("amount", slashed),
			zap.Error(err))
		return slashed, err
	}
	return slashed, nil
}

// Commitment exposes the participant's record, including slash history.
func (s *Service) Commitment(ctx context.Context, participantID string) (ledger.Commitment, error) {
	return s.ledger.Commitment(ctx, participantID)
}

// History returns the participant's audit trail.
func (s *Service) History(ctx context.Context, participantID string) ([]audit.Event, error) {
	return s.audit.List(ctx, participantID)
}

// emit records a trail event. Failures are logged, never propagated: the
// ledger mutation already committed, and surfacing an audit write error as
// an operation failure would misreport the state machine.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = s.clock.Now()
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Error("audit emit failed",
			zap.String("type", string(event.Type)),
			zap.String("participant", event.ParticipantID),
			zap.Error(err))
	}
}

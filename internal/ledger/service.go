package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kindred/pkg/clock"
	pkgerrors "kindred/pkg/errors"
)

// DefaultCooldown is the protocol-wide withdrawal cooldown.
const DefaultCooldown = 7 * 24 * time.Hour

// Service drives the commitment state machine. All mutations for a given
// participant are serialized through a per-participant lock, so concurrent
// deposit/withdraw/slash calls cannot interleave into an inconsistent stake.
// Operations on different participants proceed independently.
//
// Time never flows on its own here: cooldown expiry is checked lazily at
// finalize time against the injected clock, which keeps the machine
// deterministic and testable without real time passing.
type Service struct {
	store    Store
	clock    clock.Clock
	cooldown time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, clk clock.Clock, cooldown time.Duration, logger *zap.Logger) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		clock:    clk,
		cooldown: cooldown,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex owning participantID, creating it on first use.
// Locks are never removed: commitments live for the lifetime of the ledger.
func (s *Service) lockFor(participantID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[participantID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[participantID] = l
	}
	return l
}

// load returns the current commitment, or a zero-stake Uncommitted record
// when none exists yet. A participant with no record is indistinguishable
// from one whose stake was fully withdrawn.
func (s *Service) load(ctx context.Context, participantID string) (Commitment, error) {
	c, err := s.store.Find(ctx, participantID)
	if errors.Is(err, ErrNotFound) {
		return Commitment{ParticipantID: participantID, State: StateUncommitted}, nil
	}
	if err != nil {
		return Commitment{}, err
	}
	return c, nil
}

// Deposit adds stake. It creates the commitment on first use and tops up an
// Active one; depositing mid-cooldown is rejected so stake accounting cannot
// become ambiguous while a withdrawal is pending.
func (s *Service) Deposit(ctx context.Context, participantID string, amount int64) (Commitment, error) {
	if participantID == "" {
		return Commitment{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "participant id is required")
	}
	if amount <= 0 {
		return Commitment{}, pkgerrors.New(pkgerrors.CodeInvalidInput,
			fmt.Sprintf("deposit amount must be positive, got %d", amount))
	}

	l := s.lockFor(participantID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, participantID)
	if err != nil {
		return Commitment{}, err
	}
	switch c.State {
	case StateUncommitted:
		c.Stake = amount
		c.State = StateActive
		c.CooldownEndsAt = time.Time{}
	case StateActive:
		c.Stake += amount
	case StateCooldown:
		return Commitment{}, pkgerrors.New(pkgerrors.CodeInvalidState,
			"withdrawal pending; finalize before depositing")
	default:
		return Commitment{}, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("unexpected commitment state %q", c.State))
	}
	c.UpdatedAt = s.clock.Now()

	if err := s.store.Save(ctx, c); err != nil {
		return Commitment{}, err
	}
	s.logger.Info("stake deposited",
		zap.String("participant", participantID),
		zap.Int64("amount", amount),
		zap.Int64("stake", c.Stake))
	return c, nil
}

// RequestWithdraw starts the cooldown. The stake stays slashable until the
// withdrawal is finalized.
func (s *Service) RequestWithdraw(ctx context.Context, participantID string) (Commitment, error) {
	l := s.lockFor(participantID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, participantID)
	if err != nil {
		return Commitment{}, err
	}
	if c.State != StateActive || c.Stake <= 0 {
		return Commitment{}, pkgerrors.New(pkgerrors.CodeInvalidState,
			"withdrawal requires an active stake")
	}

	now := s.clock.Now()
	c.State = StateCooldown
	c.CooldownEndsAt = now.Add(s.cooldown)
	c.UpdatedAt = now

	if err := s.store.Save(ctx, c); err != nil {
		return Commitment{}, err
	}
	s.logger.Info("withdrawal requested",
		zap.String("participant", participantID),
		zap.Time("cooldown_ends_at", c.CooldownEndsAt))
	return c, nil
}

// FinalizeWithdraw releases the full remaining stake once the cooldown has
// elapsed and resets the commitment to Uncommitted. It returns the released
// amount; the caller hands the transfer instruction to the transaction
// collaborator. An early call fails typed rather than waiting — retry policy
// belongs to the caller.
func (s *Service) FinalizeWithdraw(ctx context.Context, participantID string) (int64, error) {
	l := s.lockFor(participantID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, participantID)
	if err != nil {
		return 0, err
	}
	if c.State != StateCooldown {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidState, "no withdrawal pending")
	}
	now := s.clock.Now()
	if now.Before(c.CooldownEndsAt) {
		return 0, pkgerrors.New(pkgerrors.CodeCooldownNotElapsed,
			fmt.Sprintf("cooldown ends at %s", c.CooldownEndsAt.Format(time.RFC3339)))
	}

	amount := c.Stake
	c.Stake = 0
	c.State = StateUncommitted
	c.CooldownEndsAt = time.Time{}
	c.UpdatedAt = now

	if err := s.store.Save(ctx, c); err != nil {
		return 0, err
	}
	s.logger.Info("withdrawal finalized",
		zap.String("participant", participantID),
		zap.Int64("amount", amount))
	return amount, nil
}

// Slash forfeits stake on adjudicated safety evidence. The requested amount
// is capped at the current stake: evidence can arrive after a partial
// withdrawal already shrank the stake, and the ledger must stay safe (never
// negative) rather than reject a legitimately adjudicated penalty. Slashing
// to zero collapses the commitment to Uncommitted — a fully slashed
// participant has nothing left to withdraw, so a pending cooldown is
// cancelled. The capped amount is returned for the treasury transfer.
func (s *Service) Slash(ctx context.Context, participantID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidInput,
			fmt.Sprintf("slash amount must be positive, got %d", amount))
	}

	l := s.lockFor(participantID)
	l.Lock()
	defer l.Unlock()

	c, err := s.load(ctx, participantID)
	if err != nil {
		return 0, err
	}
	if !c.Slashable() {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidState, "no slashable stake")
	}

	slashed := min(amount, c.Stake)
	c.Stake -= slashed
	c.SlashedTotal += slashed
	if c.Stake == 0 {
		c.State = StateUncommitted
		c.CooldownEndsAt = time.Time{}
	}
	c.UpdatedAt = s.clock.Now()

	if err := s.store.Save(ctx, c); err != nil {
		return 0, err
	}
	s.logger.Warn("stake slashed",
		zap.String("participant", participantID),
		zap.Int64("requested", amount),
		zap.Int64("slashed", slashed),
		zap.Int64("remaining", c.Stake))
	return slashed, nil
}

// Commitment returns the current record for inspection, including the
// accumulated slash history. ErrNotFound when the participant never
// deposited.
func (s *Service) Commitment(ctx context.Context, participantID string) (Commitment, error) {
	return s.store.Find(ctx, participantID)
}

// HasActiveStake reports whether the participant currently holds an Active
// commitment; used by the facade to gate matching access.
func (s *Service) HasActiveStake(ctx context.Context, participantID string) (bool, error) {
	c, err := s.store.Find(ctx, participantID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.State == StateActive && c.Stake > 0, nil
}

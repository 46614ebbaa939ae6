package matching

import (
	"fmt"

	pkgerrors "kindred/pkg/errors"
)

// Coordinate is a geographic position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Profile is the scoring view of a verified participant. Profiles are owned
// by the identity collaborator; the core reads them and never writes back.
// Every optional field that is absent contributes zero to the dimensions
// derived from it.
type Profile struct {
	ID        string      `json:"id"`
	Age       *int        `json:"age,omitempty"`
	Location  *Coordinate `json:"location,omitempty"`
	Interests []string    `json:"interests,omitempty"`
}

// WeightConfig tunes the compatibility score. Weights are taken as-is: they
// are not normalized, so callers wanting a bounded score choose weights
// summing to at most 1.
type WeightConfig struct {
	AgeWeight        float64 `json:"age_weight"`
	DistanceWeight   float64 `json:"distance_weight"`
	InterestWeight   float64 `json:"interest_weight"`
	MaxAgeDifference float64 `json:"max_age_difference"`
	MaxDistanceKm    float64 `json:"max_distance_km"`
}

// NewWeightConfig validates at construction so scoring itself never fails:
// a zero bound would divide by zero inside the score terms.
func NewWeightConfig(ageW, distW, interestW, maxAgeDiff, maxDistKm float64) (WeightConfig, error) {
	cfg := WeightConfig{
		AgeWeight:        ageW,
		DistanceWeight:   distW,
		InterestWeight:   interestW,
		MaxAgeDifference: maxAgeDiff,
		MaxDistanceKm:    maxDistKm,
	}
	if err := cfg.Validate(); err != nil {
		return WeightConfig{}, err
	}
	return cfg, nil
}

// Validate rejects negative weights and non-positive bounds.
func (c WeightConfig) Validate() error {
	if c.AgeWeight < 0 || c.DistanceWeight < 0 || c.InterestWeight < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "weights must be non-negative")
	}
	if c.MaxAgeDifference <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput,
			fmt.Sprintf("max age difference must be positive, got %v", c.MaxAgeDifference))
	}
	if c.MaxDistanceKm <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput,
			fmt.Sprintf("max distance must be positive, got %v", c.MaxDistanceKm))
	}
	return nil
}

// DefaultWeights returns the protocol defaults: interests slightly ahead of
// age and distance, bounded at a 10-year gap and 50 km.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		AgeWeight:        0.3,
		DistanceWeight:   0.3,
		InterestWeight:   0.4,
		MaxAgeDifference: 10,
		MaxDistanceKm:    50,
	}
}

// MatchResult pairs a candidate with its compatibility score. Results are
// materialized fresh per ranking call and never persisted.
type MatchResult struct {
	Profile Profile `json:"profile"`
	Score   float64 `json:"score"`
}

// IntroMessage is the canned first-contact payload sent through the
// messaging collaborator when a participant acts on a match.
type IntroMessage struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewIntroMessage builds the first message from one profile to another.
func NewIntroMessage(from, to Profile) IntroMessage {
	return IntroMessage{
		To:      to.ID,
		Message: fmt.Sprintf("Hi %s, %s liked your profile!", to.ID, from.ID),
	}
}

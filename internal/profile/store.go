// Package profile is the read-side boundary to the identity collaborator:
// a directory of verified profiles plus the per-user dismissal set used to
// filter match listings. Pool construction and freshness are the
// collaborator's responsibility; the core only reads.
package profile

import (
	"context"

	"kindred/internal/matching"
	pkgerrors "kindred/pkg/errors"
)

// ErrNotFound keeps directory 404s consistent across implementations.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")

// Directory is interface-driven so the in-memory implementation can back
// tests and dev mode while redis serves deployments.
type Directory interface {
	// FindByID returns the profile for id or ErrNotFound.
	FindByID(ctx context.Context, id string) (matching.Profile, error)
	// ListCandidates returns the candidate pool for the requester. The
	// requester may appear in its own pool; the ranker excludes it.
	ListCandidates(ctx context.Context, requesterID string) ([]matching.Profile, error)
	// Dismiss hides candidateID from userID's future match listings.
	Dismiss(ctx context.Context, userID, candidateID string) error
	// Dismissed returns the set of candidate IDs userID has dismissed.
	Dismissed(ctx context.Context, userID string) (map[string]struct{}, error)
}

package matching

import (
	"context"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// FindMatches filters and orders a candidate pool for the requesting user.
// The requester is excluded from its own pool, candidates scoring zero or
// below are dropped, and the rest are ordered descending by score with ties
// broken ascending by candidate ID so the output is deterministic for any
// input ordering. The pool is recomputed on every call; scores in a
// trust-sensitive context must never be stale.
//
// Scoring each candidate is independent, so candidates are scored in
// parallel before the final sort.
func FindMatches(ctx context.Context, user Profile, candidates []Profile, cfg WeightConfig) ([]MatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool := make([]Profile, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == user.ID {
			continue
		}
		pool = append(pool, c)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores := make([]float64, len(pool))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range pool {
		g.Go(func() error {
			scores[i] = Score(user, c, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]MatchResult, 0, len(pool))
	for i, c := range pool {
		if scores[i] <= 0 {
			continue
		}
		results = append(results, MatchResult{Profile: c, Score: scores[i]})
	}

	slices.SortFunc(results, func(a, b MatchResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Profile.ID, b.Profile.ID)
	})
	return results, nil
}

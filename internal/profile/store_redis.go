package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kindred/internal/matching"
)

const (
	profileKeyPrefix   = "profile:"
	profileIndexKey    = "profiles:index"
	dismissedKeyPrefix = "dismissed:"
)

// RedisDirectory reads the profile directory the identity collaborator
// maintains in redis: JSON records under profile:<id>, an index set of known
// IDs, and one dismissal set per user.
type RedisDirectory struct {
	client redis.UniversalClient
}

func NewRedisDirectory(client redis.UniversalClient) *RedisDirectory {
	return &RedisDirectory{client: client}
}

// Save upserts a profile record and its index entry.
func (d *RedisDirectory) Save(ctx context.Context, p matching.Profile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.ID, err)
	}
	pipe := d.client.TxPipeline()
	pipe.Set(ctx, profileKeyPrefix+p.ID, payload, 0)
	pipe.SAdd(ctx, profileIndexKey, p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

func (d *RedisDirectory) FindByID(ctx context.Context, id string) (matching.Profile, error) {
	payload, err := d.client.Get(ctx, profileKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return matching.Profile{}, ErrNotFound
	}
	if err != nil {
		return matching.Profile{}, fmt.Errorf("find profile %s: %w", id, err)
	}
	var p matching.Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return matching.Profile{}, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return p, nil
}

func (d *RedisDirectory) ListCandidates(ctx context.Context, requesterID string) ([]matching.Profile, error) {
	ids, err := d.client.SMembers(ctx, profileIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list candidate ids: %w", err)
	}
	out := make([]matching.Profile, 0, len(ids))
	for _, id := range ids {
		if id == requesterID {
			continue
		}
		p, err := d.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Index entry outlived the record; skip rather than fail the pool.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *RedisDirectory) Dismiss(ctx context.Context, userID, candidateID string) error {
	if err := d.client.SAdd(ctx, dismissedKeyPrefix+userID, candidateID).Err(); err != nil {
		return fmt.Errorf("dismiss %s for %s: %w", candidateID, userID, err)
	}
	return nil
}

func (d *RedisDirectory) Dismissed(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := d.client.SMembers(ctx, dismissedKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("list dismissed for %s: %w", userID, err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

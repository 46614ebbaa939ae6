package profile

import (
	"context"
	"sync"

	"kindred/internal/matching"
)

// InMemoryDirectory holds profiles in process memory. It backs tests and the
// dev-mode server where no redis is configured.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	profiles  map[string]matching.Profile
	dismissed map[string]map[string]struct{}
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		profiles:  make(map[string]matching.Profile),
		dismissed: make(map[string]map[string]struct{}),
	}
}

// Save upserts a profile. The identity collaborator writes through this on
// profile updates.
func (d *InMemoryDirectory) Save(_ context.Context, p matching.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.ID] = p
	return nil
}

func (d *InMemoryDirectory) FindByID(_ context.Context, id string) (matching.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	if !ok {
		return matching.Profile{}, ErrNotFound
	}
	return p, nil
}

func (d *InMemoryDirectory) ListCandidates(_ context.Context, requesterID string) ([]matching.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]matching.Profile, 0, len(d.profiles))
	for id, p := range d.profiles {
		if id == requesterID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *InMemoryDirectory) Dismiss(_ context.Context, userID, candidateID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := d.dismissed[userID]
	if set == nil {
		set = make(map[string]struct{})
		d.dismissed[userID] = set
	}
	set[candidateID] = struct{}{}
	return nil
}

func (d *InMemoryDirectory) Dismissed(_ context.Context, userID string) (map[string]struct{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]struct{}, len(d.dismissed[userID]))
	for id := range d.dismissed[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

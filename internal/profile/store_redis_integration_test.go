//go:build integration

package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kindred/internal/matching"
	"kindred/pkg/testutil/containers"
)

type RedisDirectorySuite struct {
	suite.Suite
	rc  *containers.RedisContainer
	dir *RedisDirectory
}

func TestRedisDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisDirectorySuite))
}

func (s *RedisDirectorySuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
	s.dir = NewRedisDirectory(s.rc.Client)
}

func (s *RedisDirectorySuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(context.Background()))
}

func (s *RedisDirectorySuite) TestRoundTrip() {
	ctx := context.Background()
	age := 31
	p := matching.Profile{
		ID:        "u1",
		Age:       &age,
		Location:  &matching.Coordinate{Lat: 59.437, Lon: 24.7536},
		Interests: []string{"hiking", "art"},
	}
	s.Require().NoError(s.dir.Save(ctx, p))

	got, err := s.dir.FindByID(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(p, got)

	_, err = s.dir.FindByID(ctx, "ghost")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RedisDirectorySuite) TestListCandidatesExcludesRequester() {
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3"} {
		s.Require().NoError(s.dir.Save(ctx, matching.Profile{ID: id}))
	}

	candidates, err := s.dir.ListCandidates(ctx, "u1")
	s.Require().NoError(err)
	s.Len(candidates, 2)
	for _, c := range candidates {
		s.NotEqual("u1", c.ID)
	}
}

func (s *RedisDirectorySuite) TestDismissals() {
	ctx := context.Background()
	s.Require().NoError(s.dir.Dismiss(ctx, "u1", "u2"))
	s.Require().NoError(s.dir.Dismiss(ctx, "u1", "u3"))

	dismissed, err := s.dir.Dismissed(ctx, "u1")
	s.Require().NoError(err)
	s.Len(dismissed, 2)
	s.Contains(dismissed, "u2")
	s.Contains(dismissed, "u3")

	other, err := s.dir.Dismissed(ctx, "u2")
	s.Require().NoError(err)
	s.Empty(other)
}

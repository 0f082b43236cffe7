// Package votestore persists votes. The dominance computation only ever reads
// the full vote set, so the repositories expose whole-set listing plus the
// single-vote mutations needed by the CLI.
package votestore

import (
	"context"
	"errors"
	"sort"

	"github.com/kass/go-geo-dominance/pkg/models"
)

// ErrNotFound is returned when a vote id does not exist
var ErrNotFound = errors.New("vote not found")

// Repository is the storage contract shared by the file and PostGIS backends.
// ListVotes returns votes ordered by id.
type Repository interface {
	ListVotes(ctx context.Context) ([]models.Vote, error)
	UpsertVote(ctx context.Context, vote models.Vote) error
	UpsertVotes(ctx context.Context, votes []models.Vote) error
	DeleteVote(ctx context.Context, id string) error
	ClearVotes(ctx context.Context) error
	Close() error
}

// FindByUser returns the vote cast by userID
func FindByUser(ctx context.Context, repo Repository, userID string) (models.Vote, error) {
	votes, err := repo.ListVotes(ctx)
	if err != nil {
		return models.Vote{}, err
	}
	for _, v := range votes {
		if v.UserID == userID {
			return v, nil
		}
	}
	return models.Vote{}, ErrNotFound
}

func sortByID(votes []models.Vote) {
	sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })
}

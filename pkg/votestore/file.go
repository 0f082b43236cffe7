package votestore

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kass/go-geo-dominance/pkg/models"
)

// fileData is the serialized form of the store
type fileData struct {
	Votes []models.Vote
}

// FileStore keeps votes in memory and writes the whole set to a gob file on
// every mutation. A missing file is an empty store.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	votes map[string]models.Vote
}

// OpenFileStore loads the store at path, creating parent directories on first write
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, votes: make(map[string]models.Vote)}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open vote file: %w", err)
	}
	defer file.Close()

	var data fileData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode vote file: %w", err)
	}
	for _, v := range data.Votes {
		s.votes[v.ID] = v
	}
	return s, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) ListVotes(ctx context.Context) ([]models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

func (s *FileStore) UpsertVote(ctx context.Context, vote models.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vote.ID == "" {
		return &models.ConfigError{Field: "id", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.votes[vote.ID]
	s.votes[vote.ID] = vote
	if err := s.save(); err != nil {
		if existed {
			s.votes[vote.ID] = prev
		} else {
			delete(s.votes, vote.ID)
		}
		return err
	}
	return nil
}

// UpsertVotes stores a batch with a single file write
func (s *FileStore) UpsertVotes(ctx context.Context, votes []models.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, v := range votes {
		if v.ID == "" {
			return &models.ConfigError{Field: "id", Reason: "must not be empty"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := make(map[string]models.Vote, len(s.votes))
	for id, v := range s.votes {
		prev[id] = v
	}
	for _, v := range votes {
		s.votes[v.ID] = v
	}
	if err := s.save(); err != nil {
		s.votes = prev
		return err
	}
	return nil
}

func (s *FileStore) DeleteVote(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.votes[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.votes, id)
	if err := s.save(); err != nil {
		s.votes[id] = prev
		return err
	}
	return nil
}

func (s *FileStore) ClearVotes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.votes
	s.votes = make(map[string]models.Vote)
	if err := s.save(); err != nil {
		s.votes = prev
		return err
	}
	return nil
}

// Close is a no-op; every mutation is already on disk
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) snapshot() []models.Vote {
	votes := make([]models.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		votes = append(votes, v)
	}
	sortByID(votes)
	return votes
}

// save writes to a temp file and renames it over the target; callers hold mu
func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(fileData{Votes: s.snapshot()}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode votes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush vote file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace vote file: %w", err)
	}
	return nil
}

package scorecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"

	"github.com/rs/zerolog"
)

// Store persists the ranked score snapshot as a JSON array in a single file.
// There is no file locking: the last writer wins.
type Store struct {
	path   string
	logger zerolog.Logger
}

func NewStore(cfg *config.Config, logger zerolog.Logger) *Store {
	return &Store{
		path:   filepath.Join(cfg.DataDir, constants.CacheFileName),
		logger: logger.With().Str("component", "scorecache").Logger(),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Read loads the snapshot. A missing or unparseable file reads as empty.
func (s *Store) Read() ([]domain.ScoreEntry, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug().Str("path", s.path).Msg("score cache absent, starting empty")
		return []domain.ScoreEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var entries []domain.ScoreEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("score cache corrupt, treating as empty")
		return []domain.ScoreEntry{}, nil
	}

	return Truncate(SortAndDedupe(entries)), nil
}

// Write persists the full ranked list via a temp file and rename.
func (s *Store) Write(entries []domain.ScoreEntry) error {
	if entries == nil {
		entries = []domain.ScoreEntry{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	s.logger.Debug().Int("count", len(entries)).Msg("score cache written")
	return nil
}

// MergeAndWrite reads the snapshot, merges incoming entries and persists the result.
func (s *Store) MergeAndWrite(incoming []domain.ScoreEntry) ([]domain.ScoreEntry, error) {
	existing, err := s.Read()
	if err != nil {
		return nil, err
	}
	merged := Merge(existing, incoming)
	if err := s.Write(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

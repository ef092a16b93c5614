package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store keeps the device identifier as a canonical UUID in a text file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

func NewStore(cfg *config.Config, logger zerolog.Logger) *Store {
	return &Store{
		path:   filepath.Join(cfg.DataDir, constants.DeviceUUIDFileName),
		logger: logger.With().Str("component", "device").Logger(),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Read returns the stored identifier, or "" if it is absent or malformed.
func (s *Store) Read() string {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read device id")
		return ""
	}

	id, err := uuid.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("device id malformed, regenerating")
		return ""
	}
	return id.String()
}

// GetOrCreate returns the device identifier, creating one on first use.
func (s *Store) GetOrCreate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.Read(); existing != "" {
		return existing, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	created := uuid.New().String()
	if err := os.WriteFile(s.path, []byte(created), 0o644); err != nil {
		return "", fmt.Errorf("failed to write device uuid: %w", err)
	}

	s.logger.Info().Str("device_id", created).Msg("device id created")
	return created, nil
}

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/gamesession/pkg/domain"
)

const recordExt = ".json"

// Store implements ports.SessionStore using the local filesystem.
// It stores one JSON file per player in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".gamesession/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".gamesession", "sessions")
	}
	return &Store{BasePath: basePath}
}

// fileName escapes the player id so that any identity maps to a single flat file.
func (s *Store) fileName(player domain.ActorID) string {
	return filepath.Join(s.BasePath, url.PathEscape(string(player))+recordExt)
}

// Save persists the record to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error {
	if player.IsZero() {
		return fmt.Errorf("player cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	destPath := s.fileName(player)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	// Same directory keeps the rename on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+recordExt+".partial")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session record: %w", err)
	}

	return nil
}

// Load retrieves the record from its JSON file.
func (s *Store) Load(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	if player.IsZero() {
		return nil, fmt.Errorf("player cannot be empty")
	}

	data, err := os.ReadFile(s.fileName(player))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	return &rec, nil
}

// List returns every player with a record file.
func (s *Store) List(ctx context.Context) ([]domain.ActorID, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ActorID{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var players []domain.ActorID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		players = append(players, domain.ActorID(id))
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })

	return players, nil
}

// Package file persists players and rankings as two JSON documents on disk.
// Both documents are loaded at startup and rewritten in full on every
// mutation; each rewrite goes through a temp file and rename so a crash
// never leaves a truncated document behind.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

const (
	PlayersFile  = "players.json"
	RankingsFile = "rankings.json"
)

// ErrUnsupportedHash is returned when players.json holds unsalted sha256
// digests. Those cannot be checked against bcrypt, so loading them would
// lock every listed player out.
var ErrUnsupportedHash = errors.New("unsupported password hash")

var sha256Hex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Storage is a file-backed implementation of the storage interface
type Storage struct {
	dir string

	mu       sync.Mutex
	players  map[string]string // username -> password hash
	rankings map[string]int
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New loads players.json and rankings.json from dir, creating dir if needed.
// Missing documents start empty.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Storage{
		dir:      dir,
		players:  make(map[string]string),
		rankings: make(map[string]int),
	}
	if err := load(filepath.Join(dir, PlayersFile), &s.players); err != nil {
		return nil, err
	}
	for username, hash := range s.players {
		if sha256Hex.MatchString(hash) {
			return nil, fmt.Errorf("%s: player %q: %w (sha256 digest; re-register the player)",
				PlayersFile, username, ErrUnsupportedHash)
		}
	}
	if err := load(filepath.Join(dir, RankingsFile), &s.rankings); err != nil {
		return nil, err
	}
	return s, nil
}

func load(path string, into any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// save must be called with mu held
func (s *Storage) save(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.players[player.Username]
	s.players[player.Username] = player.PasswordHash
	if err := s.save(PlayersFile, s.players); err != nil {
		if existed {
			s.players[player.Username] = prev
		} else {
			delete(s.players, player.Username)
		}
		return err
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, username string) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.players[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &model.Player{Username: username, PasswordHash: hash}, nil
}

// Ranking operations

func (s *Storage) IncrementScore(ctx context.Context, username string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.rankings[username]
	s.rankings[username] = prev + amount
	if err := s.save(RankingsFile, s.rankings); err != nil {
		if existed {
			s.rankings[username] = prev
		} else {
			delete(s.rankings, username)
		}
		return 0, err
	}
	return s.rankings[username], nil
}

func (s *Storage) GetScores(ctx context.Context) ([]model.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores := make([]model.Score, 0, len(s.rankings))
	for username, score := range s.rankings {
		scores = append(scores, model.Score{Username: username, Score: score})
	}
	return scores, nil
}

// Close is a no-op; every mutation is already on disk
func (s *Storage) Close() error {
	return nil
}

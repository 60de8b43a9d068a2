package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Players live in one HASH and rankings in one sorted set, so both
// documents are updated with single atomic commands.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, playersKey(s.cfg.KeyPrefix), player.Username, data).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, username string) (*model.Player, error) {
	data, err := s.client.HGet(ctx, playersKey(s.cfg.KeyPrefix), username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("decode player %q: %w", username, err)
	}
	return &player, nil
}

// Ranking operations

func (s *Storage) IncrementScore(ctx context.Context, username string, amount int) (int, error) {
	total, err := s.client.ZIncrBy(ctx, rankingsKey(s.cfg.KeyPrefix), float64(amount), username).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *Storage) GetScores(ctx context.Context) ([]model.Score, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, rankingsKey(s.cfg.KeyPrefix), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	scores := make([]model.Score, 0, len(entries))
	for _, z := range entries {
		username, ok := z.Member.(string)
		if !ok {
			continue
		}
		scores = append(scores, model.Score{Username: username, Score: int(z.Score)})
	}
	return scores, nil
}

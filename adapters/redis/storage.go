package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"repkit/core"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - user:{user_id}:rep:state   -> JSON blob of GameState
// - user:{user_id}:rep:version -> int64, bumped on every successful save
//
// The version lives in its own key so the compare-and-set script never
// has to parse JSON inside Redis.
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func stateKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:rep:state", user)
}

func versionKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:rep:version", user)
}

// saveScript writes the state only when the stored version still matches
// the version the caller read. Returns the new version, -1 when the user
// does not exist, and -2 on a version mismatch.
var saveScript = redis.NewScript(`
	local stored = redis.call('GET', KEYS[2])
	if not stored then
		return -1
	end
	if tonumber(stored) ~= tonumber(ARGV[2]) then
		return -2
	end
	local next_version = tonumber(stored) + 1
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], next_version)
	return next_version
`)

// createScript initializes both keys only when the user is absent.
var createScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
	return 1
`)

func (s *Store) Load(ctx context.Context, user core.UserID) (core.GameState, error) {
	pipe := s.client.Pipeline()
	stateCmd := pipe.Get(ctx, stateKey(user))
	versionCmd := pipe.Get(ctx, versionKey(user))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return core.GameState{}, core.ErrNotFound
		}
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}

	var state core.GameState
	if err := json.Unmarshal([]byte(stateCmd.Val()), &state); err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	version, err := versionCmd.Int64()
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	state.Version = version
	return state, nil
}

func (s *Store) Save(ctx context.Context, user core.UserID, state core.GameState) (core.GameState, error) {
	readVersion := state.Version
	data, err := json.Marshal(state)
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}

	keys := []string{stateKey(user), versionKey(user)}
	result, err := saveScript.Run(ctx, s.client, keys, data, readVersion).Int64()
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	switch result {
	case -1:
		return core.GameState{}, core.ErrNotFound
	case -2:
		return core.GameState{}, core.ErrVersionConflict
	}
	state.Version = result
	return state, nil
}

func (s *Store) Create(ctx context.Context, user core.UserID, state core.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Join(core.ErrPersistence, err)
	}

	keys := []string{stateKey(user), versionKey(user)}
	created, err := createScript.Run(ctx, s.client, keys, data, state.Version).Int64()
	if err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	if created == 0 {
		return core.ErrAlreadyRegistered
	}
	return nil
}

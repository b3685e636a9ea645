package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers registered for Config-based construction
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"repkit/core"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver string) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface on a SQL database.
// Schema:
//
//	user_game_state(user_id PK, state JSON text, version bigint, updated_at)
//
// The version column carries the optimistic-concurrency token; the JSON
// column holds everything else so the schema survives state shape changes.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens a connection pool for the configured driver and verifies it.
func New(config Config) (*Store, error) {
	if config.Driver != DriverPostgres && config.Driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported driver %q", config.Driver)
	}
	db, err := sqlx.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, driver: config.Driver}, nil
}

// NewWithDB creates a Store using an existing sqlx handle (useful for testing)
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS user_game_state (
		user_id    VARCHAR(255) PRIMARY KEY,
		state      TEXT NOT NULL,
		version    BIGINT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, user core.UserID) (core.GameState, error) {
	var row struct {
		State   string `db:"state"`
		Version int64  `db:"version"`
	}
	query := s.db.Rebind(`SELECT state, version FROM user_game_state WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &row, query, user)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GameState{}, core.ErrNotFound
	}
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}

	var state core.GameState
	if err := json.Unmarshal([]byte(row.State), &state); err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	state.Version = row.Version
	return state, nil
}

func (s *Store) Save(ctx context.Context, user core.UserID, state core.GameState) (core.GameState, error) {
	readVersion := state.Version
	state.Version = readVersion + 1
	data, err := json.Marshal(state)
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}

	query := s.db.Rebind(`UPDATE user_game_state
		SET state = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`)
	res, err := s.db.ExecContext(ctx, query, string(data), time.Now().UTC(), user, readVersion)
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		existsQuery := s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM user_game_state WHERE user_id = ?)`)
		if err := s.db.GetContext(ctx, &exists, existsQuery, user); err != nil {
			return core.GameState{}, errors.Join(core.ErrPersistence, err)
		}
		if !exists {
			return core.GameState{}, core.ErrNotFound
		}
		return core.GameState{}, core.ErrVersionConflict
	}
	return state, nil
}

func (s *Store) Create(ctx context.Context, user core.UserID, state core.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Join(core.ErrPersistence, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	existsQuery := tx.Rebind(`SELECT EXISTS(SELECT 1 FROM user_game_state WHERE user_id = ?)`)
	if err := tx.GetContext(ctx, &exists, existsQuery, user); err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	if exists {
		return core.ErrAlreadyRegistered
	}

	insert := tx.Rebind(`INSERT INTO user_game_state (user_id, state, version, updated_at) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, user, string(data), state.Version, time.Now().UTC()); err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Join(core.ErrPersistence, err)
	}
	return nil
}

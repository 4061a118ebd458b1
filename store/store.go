package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Conf holds PostgreSQL connection settings. DSN, when set, wins over the
// individual fields.
type Conf struct {
	Host string
	Port int
	User string
	PW   string
	DB   string
	TZ   string
	DSN  string
}

// BuildDSN returns the effective connection string.
func (c *Conf) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	tz := c.TZ
	if tz == "" {
		tz = "UTC"
	}
	// NOTE: sslmode=disable is often used for local dev, adjust as needed.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
		c.Host, c.Port, c.User, c.PW, c.DB, tz,
	)
}

// Store wraps a pgx connection pool and exposes the persistence operations
// for users, books and memberships.
type Store struct {
	Pool *pgxpool.Pool
	Conf *Conf
	dsn  string
}

func NewStore(conf *Conf) *Store {
	return &Store{Conf: conf}
}

// Init opens the pool, pings the server and applies the schema.
func (s *Store) Init() error {
	s.dsn = s.Conf.BuildDSN()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Open(ctx); err != nil {
		return err
	}
	if err := s.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	log.Print("[INFO] store initialized")
	return nil
}

func (s *Store) Open(ctx context.Context) error {
	config, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 3 * time.Minute
	s.Pool, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect pgx Pool: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.Pool == nil {
		return
	}
	log.Println("[INFO] closing store")
	s.Pool.Close()
}

// Migrate applies the schema. PostgreSQL allows multiple statements in a
// single Exec, so the whole schema goes in one round trip.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS books (
    id         BIGSERIAL PRIMARY KEY,
    owner_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    doc        JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS book_members (
    book_id  BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
    user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role     TEXT NOT NULL DEFAULT 'editor',
    added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (book_id, user_id)
);
`

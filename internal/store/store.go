// Package store provides the optional PostgreSQL collaborator: stored CV and
// job skill lists, and an audit log of completed analyses.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvmatch/internal/config"
	"cvmatch/internal/errors"
)

// Schema creates the tables the store reads and writes
const Schema = `
CREATE TABLE IF NOT EXISTS cvs (
	id         TEXT PRIMARY KEY,
	skills     TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	required_skills TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id         UUID PRIMARY KEY,
	action     TEXT NOT NULL,
	details    JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// querier is the subset of pgxpool.Pool the store uses
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements SkillLookup and AuditLog on PostgreSQL
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
}

var (
	_ SkillLookup = (*PostgresStore)(nil)
	_ AuditLog    = (*PostgresStore)(nil)
)

// Connect opens a pool and verifies it with a ping
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid database url", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreUnavailable, "failed to connect to database", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.NewIOError(errors.ErrCodeStoreUnavailable, "failed to ping database", err)
	}
	return &PostgresStore{db: pool, pool: pool}, nil
}

// EnsureSchema creates missing tables
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CVSkills returns the skills stored for a CV
func (s *PostgresStore) CVSkills(ctx context.Context, cvID string) ([]string, error) {
	return s.skills(ctx, `SELECT skills FROM cvs WHERE id = $1`, "CV", cvID)
}

// JobSkills returns the required skills stored for a job
func (s *PostgresStore) JobSkills(ctx context.Context, jobID string) ([]string, error) {
	return s.skills(ctx, `SELECT required_skills FROM jobs WHERE id = $1`, "job", jobID)
}

func (s *PostgresStore) skills(ctx context.Context, query, kind, id string) ([]string, error) {
	var skills []string
	err := s.db.QueryRow(ctx, query, id).Scan(&skills)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, kind+" not found", nil).
				WithContext("id", id)
		}
		return nil, errors.NewIOError(errors.ErrCodeStoreUnavailable,
			fmt.Sprintf("failed to load %s skills", kind), err)
	}
	if skills == nil {
		skills = []string{}
	}
	return skills, nil
}

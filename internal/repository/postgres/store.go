package postgres

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"chronicle/internal/domain/repositories"
)

// Store implements the SessionStore interface using PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewStore creates a new PostgreSQL-backed session store
func NewStore(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) repositories.SessionStore {
	return &Store{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

// nullIfEmpty maps unset optional fields to SQL NULL
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orEmpty maps SQL NULL back to the zero value
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates tables if they don't exist. Deleting a chat cascades
// to its messages and images.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return fmt.Errorf("enable uuid extension: %w", err)
	}

	createChats := `
		CREATE TABLE IF NOT EXISTS ` + tables.Chats + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			title TEXT NOT NULL,
			storyline_id TEXT,
			pc_name TEXT,
			pc_role TEXT,
			pc_background TEXT,
			pc_goals TEXT,
			pc_era TEXT,
			pc_allegiances TEXT,
			pc_traits TEXT[] NOT NULL DEFAULT '{}',
			pc_skills TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createChats); err != nil {
		return fmt.Errorf("create chats table: %w", err)
	}

	createMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id UUID PRIMARY KEY,
			chat_id UUID NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createMessages); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}

	createImages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Images + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			chat_id UUID NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			caption TEXT,
			kind TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createImages); err != nil {
		return fmt.Errorf("create scene_images table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chats_updated_at ON ` + tables.Chats + `(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_chat_created ON ` + tables.Messages + `(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `images_chat_created ON ` + tables.Images + `(chat_id, created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

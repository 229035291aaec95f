package postgres

import (
	"context"
	"fmt"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
)

const chatColumns = "id, title, storyline_id, pc_name, pc_role, pc_background, pc_goals, pc_era, pc_allegiances, pc_traits, pc_skills, created_at, updated_at"

// CreateChat creates a new chat session with its character snapshot
func (s *Store) CreateChat(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, storyline_id, pc_name, pc_role, pc_background, pc_goals, pc_era, pc_allegiances, pc_traits, pc_skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, s.tables.Chats)

	pc := chat.Character
	traits := pc.Traits
	if traits == nil {
		traits = []string{}
	}
	skills := pc.Skills
	if skills == nil {
		skills = []string{}
	}

	err := s.pool.QueryRow(ctx, query,
		chat.Title,
		chat.StorylineID,
		nullIfEmpty(pc.Name),
		nullIfEmpty(pc.Role),
		nullIfEmpty(pc.Background),
		nullIfEmpty(pc.Goals),
		nullIfEmpty(pc.Era),
		nullIfEmpty(pc.Allegiances),
		traits,
		skills,
	).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

// pgxScanner covers both pgx.Row and pgx.Rows
type pgxScanner interface {
	Scan(dest ...interface{}) error
}

func scanChatRow(row pgxScanner) (*models.Chat, error) {
	var chat models.Chat
	var name, role, background, goals, era, allegiances *string

	err := row.Scan(
		&chat.ID,
		&chat.Title,
		&chat.StorylineID,
		&name,
		&role,
		&background,
		&goals,
		&era,
		&allegiances,
		&chat.Character.Traits,
		&chat.Character.Skills,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	chat.Character.Name = orEmpty(name)
	chat.Character.Role = orEmpty(role)
	chat.Character.Background = orEmpty(background)
	chat.Character.Goals = orEmpty(goals)
	chat.Character.Era = orEmpty(era)
	chat.Character.Allegiances = orEmpty(allegiances)

	return &chat, nil
}

// GetChat retrieves a chat by ID
func (s *Store) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1
	`, chatColumns, s.tables.Chats)

	chat, err := scanChatRow(s.pool.QueryRow(ctx, query, chatID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: "chat " + chatID + " not found"}
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	return chat, nil
}

// ListChats retrieves chats ordered by last activity, most recent first
func (s *Store) ListChats(ctx context.Context) ([]models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY updated_at DESC
		LIMIT 50
	`, chatColumns, s.tables.Chats)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChatRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, *chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	// Return empty slice instead of nil
	if chats == nil {
		chats = []models.Chat{}
	}

	return chats, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
)

// AppendMessage inserts a message and bumps the owning chat's updated_at in
// one transaction. Message ids arrive from the client (optimistic creation);
// one is generated only when absent.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append message: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, s.tables.Messages)

	err = tx.QueryRow(ctx, insert, msg.ID, msg.ChatID, msg.Role, msg.Content).Scan(&msg.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", msg.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("append message: %w", err)
	}

	touch := fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, s.tables.Chats)
	if _, err := tx.Exec(ctx, touch, msg.ChatID); err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append message: %w", err)
	}

	return nil
}

// ListMessages retrieves a chat's messages in creation order
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, content, created_at
		FROM %s
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, s.tables.Messages)

	rows, err := s.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}

	return messages, nil
}

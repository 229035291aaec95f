package postgres

import (
	"context"
	"fmt"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
)

// CreateImage inserts a scene image
func (s *Store) CreateImage(ctx context.Context, img *models.SceneImage) error {
	if img.Kind == "" {
		img.Kind = models.ImageKindScene
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, url, caption, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, s.tables.Images)

	err := s.pool.QueryRow(ctx, query, img.ChatID, img.URL, img.Caption, img.Kind).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", img.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("create image: %w", err)
	}

	return nil
}

// ListImages retrieves a chat's images in creation order
func (s *Store) ListImages(ctx context.Context, chatID string) ([]models.SceneImage, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, url, caption, kind, created_at
		FROM %s
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, s.tables.Images)

	rows, err := s.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []models.SceneImage
	for rows.Next() {
		var img models.SceneImage
		if err := rows.Scan(&img.ID, &img.ChatID, &img.URL, &img.Caption, &img.Kind, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		// Rows written before the kind column existed carry only the
		// caption-prefix convention; derive the kind at the boundary.
		if img.Kind == "" {
			img.Kind = models.KindFromCaption(img.Caption)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}

	if images == nil {
		images = []models.SceneImage{}
	}

	return images, nil
}

// ReplacePortrait removes every prior portrait for the chat and inserts img,
// so at most one portrait is live per session.
func (s *Store) ReplacePortrait(ctx context.Context, img *models.SceneImage) error {
	img.Kind = models.ImageKindPortrait

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace portrait: %w", err)
	}
	defer tx.Rollback(ctx)

	// The caption clause also sweeps legacy rows that predate the kind column.
	del := fmt.Sprintf(`
		DELETE FROM %s
		WHERE chat_id = $1 AND (kind = $2 OR (kind = '' AND caption LIKE 'Portrait%%'))
	`, s.tables.Images)
	if _, err := tx.Exec(ctx, del, img.ChatID, models.ImageKindPortrait); err != nil {
		return fmt.Errorf("delete prior portraits: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (chat_id, url, caption, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, s.tables.Images)

	err = tx.QueryRow(ctx, insert, img.ChatID, img.URL, img.Caption, img.Kind).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", img.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert portrait: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace portrait: %w", err)
	}

	return nil
}

package repositories

import (
	"context"

	"chronicle/internal/domain/models"
)

// SessionStore persists chats, messages, and scene images. The live
// transcript is the source of truth for an in-flight turn; the store is its
// durability mirror, so callers treat append failures as non-fatal.
type SessionStore interface {
	// CreateChat inserts a new chat and fills in its id and timestamps.
	CreateChat(ctx context.Context, chat *models.Chat) error

	// GetChat retrieves a chat by id. Returns domain.ErrNotFound if missing.
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)

	// ListChats returns chats ordered by updated_at descending, capped at 50.
	ListChats(ctx context.Context) ([]models.Chat, error)

	// AppendMessage inserts a message and bumps the owning chat's updated_at.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns a chat's messages in creation order.
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)

	// CreateImage inserts a scene image.
	CreateImage(ctx context.Context, img *models.SceneImage) error

	// ListImages returns a chat's images in creation order.
	ListImages(ctx context.Context, chatID string) ([]models.SceneImage, error)

	// ReplacePortrait deletes every portrait-kind image for the chat, then
	// inserts img, keeping at most one live portrait per session.
	ReplacePortrait(ctx context.Context, img *models.SceneImage) error
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
	"chronicle/internal/domain/repositories"
	"chronicle/internal/storyline"
)

const defaultTitle = "Untitled Chat"

const maxTitleLength = 200

// Service implements session CRUD on top of the store, with request
// validation and title defaulting.
type Service struct {
	store   repositories.SessionStore
	catalog *storyline.Catalog
	logger  *slog.Logger
}

// NewService creates a new session service
func NewService(store repositories.SessionStore, catalog *storyline.Catalog, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// CreateSessionRequest is the POST /sessions body.
type CreateSessionRequest struct {
	Title       string                  `json:"title"`
	StorylineID string                  `json:"storyline_id"`
	Character   *models.PlayerCharacter `json:"player_character"`
}

// AppendMessageRequest is the POST /sessions/{id}/messages body. The id is
// optional: clients that created the message optimistically send theirs.
type AppendMessageRequest struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateImageRequest is the POST /sessions/{id}/images body.
type CreateImageRequest struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
	Kind    string  `json:"kind"`
}

// CreateSession creates a new session, defaulting the title from the
// storyline when the client sends none.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.Chat, error) {
	if err := s.validateCreateSessionRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		if sl := s.catalog.Find(req.StorylineID); sl != nil {
			title = sl.Title
		} else {
			title = defaultTitle
		}
	}

	chat := &models.Chat{
		Title: title,
	}
	if req.StorylineID != "" {
		chat.StorylineID = &req.StorylineID
	}
	if req.Character != nil {
		chat.Character = *req.Character
	}

	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		"id", chat.ID,
		"title", chat.Title,
		"storyline_id", req.StorylineID,
	)

	return chat, nil
}

// ListSessions retrieves recent sessions, most recently active first.
func (s *Service) ListSessions(ctx context.Context) ([]models.Chat, error) {
	return s.store.ListChats(ctx)
}

// GetSession retrieves a session by ID.
func (s *Service) GetSession(ctx context.Context, chatID string) (*models.Chat, error) {
	return s.store.GetChat(ctx, chatID)
}

// AppendMessage appends a message to a session and bumps its activity
// marker.
func (s *Service) AppendMessage(ctx context.Context, chatID string, req *AppendMessageRequest) (*models.Message, error) {
	if err := s.validateAppendMessageRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msg := &models.Message{
		ID:      strings.TrimSpace(req.ID),
		ChatID:  chatID,
		Role:    models.Role(req.Role),
		Content: req.Content,
	}

	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// ListMessages retrieves a session's transcript in insertion order.
func (s *Service) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, chatID)
}

// CreateImage records an image against a session. Portrait-kind records
// replace any prior portrait; scenes accumulate.
func (s *Service) CreateImage(ctx context.Context, chatID string, req *CreateImageRequest) (*models.SceneImage, error) {
	if err := s.validateCreateImageRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	kind := models.ImageKind(req.Kind)
	if req.Kind == "" {
		kind = models.KindFromCaption(req.Caption)
	}

	img := &models.SceneImage{
		ChatID:  chatID,
		URL:     req.URL,
		Caption: req.Caption,
		Kind:    kind,
	}

	if kind == models.ImageKindPortrait {
		if err := s.store.ReplacePortrait(ctx, img); err != nil {
			return nil, err
		}
		return img, nil
	}

	if err := s.store.CreateImage(ctx, img); err != nil {
		return nil, err
	}

	return img, nil
}

// ListImages retrieves a session's images in creation order.
func (s *Service) ListImages(ctx context.Context, chatID string) ([]models.SceneImage, error) {
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.ListImages(ctx, chatID)
}

// Validation methods

func (s *Service) validateCreateSessionRequest(req *CreateSessionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(0, maxTitleLength)),
	)
}

func (s *Service) validateAppendMessageRequest(req *AppendMessageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Role,
			validation.Required,
			validation.In(string(models.RoleUser), string(models.RoleAssistant), string(models.RoleSystem)),
		),
		validation.Field(&req.Content, validation.Required),
	)
}

func (s *Service) validateCreateImageRequest(req *CreateImageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.URL, validation.Required),
		validation.Field(&req.Kind,
			validation.In(string(models.ImageKindScene), string(models.ImageKindPortrait)),
		),
	)
}

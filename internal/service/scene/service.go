package scene

import (
	"context"
	"log/slog"

	"chronicle/internal/domain/models"
	"chronicle/internal/domain/repositories"
	"chronicle/internal/storyline"
)

// ImageGenerator is the gateway contract the service consumes.
type ImageGenerator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result describes one generation outcome. The image is always present: a
// real upstream render, or a placeholder when the provider was unavailable.
type Result struct {
	Image       *models.SceneImage `json:"image"`
	Persisted   bool               `json:"persisted"`
	Placeholder bool               `json:"placeholder"`
	Error       string             `json:"error,omitempty"`
}

// Service coordinates image generation with persistence policy: scenes
// accumulate, portraits replace.
type Service struct {
	store     repositories.SessionStore
	generator ImageGenerator
	catalog   *storyline.Catalog
	logger    *slog.Logger
}

// NewService creates a new scene service
func NewService(store repositories.SessionStore, generator ImageGenerator, catalog *storyline.Catalog, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		catalog:   catalog,
		logger:    logger,
	}
}

// GenerateRequest carries the optional context an explicit generate call may
// provide beyond what the chat record holds.
type GenerateRequest struct {
	Caption           string                  `json:"caption,omitempty"`
	LastAssistantText string                  `json:"last_assistant_text,omitempty"`
	Character         *models.PlayerCharacter `json:"player_character,omitempty"`
}

// GenerateScene generates and persists one narrative scene image for the
// chat. Provider failure degrades to a persisted placeholder, never to an
// error; only an unknown chat fails hard.
func (s *Service) GenerateScene(ctx context.Context, chatID string, req *GenerateRequest) (*Result, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	pc := req.Character
	if pc.Empty() {
		pc = &chat.Character
	}
	sl := s.storylineFor(chat)

	caption := req.Caption
	img := &models.SceneImage{
		ChatID: chatID,
		Kind:   models.ImageKindScene,
	}
	if caption != "" {
		img.Caption = &caption
	}

	if !s.generator.Configured() {
		img.URL = placeholderURL
		return s.save(ctx, img, true, "no image provider credential configured"), nil
	}

	prompt := ScenePrompt(sl, pc, req.LastAssistantText, caption)
	url, genErr := s.generator.Generate(ctx, prompt)
	if genErr != nil {
		s.logger.Error("scene generation failed, using placeholder", "chat_id", chatID, "error", genErr)
		img.URL = placeholderURL
		return s.save(ctx, img, true, genErr.Error()), nil
	}

	img.URL = url
	return s.save(ctx, img, false, ""), nil
}

// GeneratePortrait generates the character portrait for the chat, replacing
// any prior portrait so at most one is live per session.
func (s *Service) GeneratePortrait(ctx context.Context, chatID string, req *GenerateRequest) (*Result, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	pc := req.Character
	if pc.Empty() {
		pc = &chat.Character
	}
	sl := s.storylineFor(chat)

	caption := PortraitCaption(pc)
	img := &models.SceneImage{
		ChatID:  chatID,
		Caption: &caption,
		Kind:    models.ImageKindPortrait,
	}

	if !s.generator.Configured() {
		img.URL = placeholderURL
		return s.savePortrait(ctx, img, true, "no image provider credential configured"), nil
	}

	url, genErr := s.generator.Generate(ctx, PortraitPrompt(sl, pc))
	if genErr != nil {
		s.logger.Error("portrait generation failed, using placeholder", "chat_id", chatID, "error", genErr)
		img.URL = placeholderURL
		return s.savePortrait(ctx, img, true, genErr.Error()), nil
	}

	img.URL = url
	return s.savePortrait(ctx, img, false, ""), nil
}

// MaybeCreateScene is the cadence trigger: it fires when userTurnCount is a
// positive multiple of the interval. Generation failure falls back to the
// deterministic placeholder rotation; persistence failure is logged and
// swallowed. Called once per turn with the count that turn computed, so a
// qualifying turn produces exactly one scene image.
func (s *Service) MaybeCreateScene(ctx context.Context, chat *models.Chat, lastAssistantText string, userTurnCount int) {
	if !CadenceDue(userTurnCount) {
		return
	}

	sceneNumber := Number(userTurnCount)
	caption := SceneCaption(sceneNumber, lastAssistantText)
	sl := s.storylineFor(chat)

	img := &models.SceneImage{
		ChatID:  chat.ID,
		Caption: &caption,
		Kind:    models.ImageKindScene,
	}

	if s.generator.Configured() {
		url, err := s.generator.Generate(ctx, ScenePrompt(sl, &chat.Character, lastAssistantText, caption))
		if err == nil {
			img.URL = url
		} else {
			s.logger.Warn("cadence scene generation failed, using rotation placeholder",
				"chat_id", chat.ID,
				"scene", sceneNumber,
				"error", err,
			)
			img.URL = RotationPlaceholder(sceneNumber)
		}
	} else {
		img.URL = RotationPlaceholder(sceneNumber)
	}

	if err := s.store.CreateImage(ctx, img); err != nil {
		s.logger.Error("failed to persist cadence scene image", "chat_id", chat.ID, "scene", sceneNumber, "error", err)
	}
}

func (s *Service) storylineFor(chat *models.Chat) *storyline.Storyline {
	if chat.StorylineID == nil {
		return nil
	}
	return s.catalog.Find(*chat.StorylineID)
}

// save persists a scene image, reporting rather than failing when the store
// write does not stick.
func (s *Service) save(ctx context.Context, img *models.SceneImage, placeholder bool, genErr string) *Result {
	persisted := true
	if err := s.store.CreateImage(ctx, img); err != nil {
		s.logger.Error("image save failed, returning non-persisted image", "chat_id", img.ChatID, "error", err)
		persisted = false
		if genErr == "" {
			genErr = err.Error()
		}
	}
	return &Result{Image: img, Persisted: persisted, Placeholder: placeholder, Error: genErr}
}

func (s *Service) savePortrait(ctx context.Context, img *models.SceneImage, placeholder bool, genErr string) *Result {
	persisted := true
	if err := s.store.ReplacePortrait(ctx, img); err != nil {
		s.logger.Error("portrait save failed, returning non-persisted image", "chat_id", img.ChatID, "error", err)
		persisted = false
		if genErr == "" {
			genErr = err.Error()
		}
	}
	return &Result{Image: img, Persisted: persisted, Placeholder: placeholder, Error: genErr}
}

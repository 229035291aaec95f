package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
	"chronicle/internal/storyline"
)

// fakeStore is an in-memory SessionStore for service tests.
type fakeStore struct {
	chats    map[string]*models.Chat
	messages map[string][]models.Message
	images   map[string][]models.SceneImage

	failCreateImage bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]models.Message),
		images:   make(map[string][]models.SceneImage),
	}
}

func (f *fakeStore) CreateChat(_ context.Context, chat *models.Chat) error {
	if chat.ID == "" {
		chat.ID = "chat-" + strconv.Itoa(len(f.chats)+1)
	}
	f.chats[chat.ID] = chat
	return nil
}

func (f *fakeStore) GetChat(_ context.Context, chatID string) (*models.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: chat %s", domain.ErrNotFound, chatID)
	}
	return chat, nil
}

func (f *fakeStore) ListChats(_ context.Context) ([]models.Chat, error) {
	out := make([]models.Chat, 0, len(f.chats))
	for _, c := range f.chats {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, msg *models.Message) error {
	if _, ok := f.chats[msg.ChatID]; !ok {
		return fmt.Errorf("%w: chat %s", domain.ErrNotFound, msg.ChatID)
	}
	f.messages[msg.ChatID] = append(f.messages[msg.ChatID], *msg)
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, chatID string) ([]models.Message, error) {
	return f.messages[chatID], nil
}

func (f *fakeStore) CreateImage(_ context.Context, img *models.SceneImage) error {
	if f.failCreateImage {
		return errors.New("store unavailable")
	}
	if _, ok := f.chats[img.ChatID]; !ok {
		return fmt.Errorf("%w: chat %s", domain.ErrNotFound, img.ChatID)
	}
	if img.ID == "" {
		img.ID = "img-" + strconv.Itoa(len(f.images[img.ChatID])+1)
	}
	f.images[img.ChatID] = append(f.images[img.ChatID], *img)
	return nil
}

func (f *fakeStore) ListImages(_ context.Context, chatID string) ([]models.SceneImage, error) {
	return f.images[chatID], nil
}

func (f *fakeStore) ReplacePortrait(_ context.Context, img *models.SceneImage) error {
	if _, ok := f.chats[img.ChatID]; !ok {
		return fmt.Errorf("%w: chat %s", domain.ErrNotFound, img.ChatID)
	}
	kept := f.images[img.ChatID][:0]
	for _, existing := range f.images[img.ChatID] {
		if existing.Kind == models.ImageKindPortrait {
			continue
		}
		kept = append(kept, existing)
	}
	if img.ID == "" {
		img.ID = "img-" + strconv.Itoa(len(kept)+1)
	}
	f.images[img.ChatID] = append(kept, *img)
	return nil
}

// fakeGenerator is a scripted ImageGenerator.
type fakeGenerator struct {
	configured bool
	url        string
	err        error
	calls      int
	prompts    []string
}

func (g *fakeGenerator) Configured() bool { return g.configured }

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return g.url, g.err
}

func testCatalog(t *testing.T) *storyline.Catalog {
	t.Helper()
	catalog, err := storyline.NewCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

func newTestService(t *testing.T, store *fakeStore, gen *fakeGenerator) *Service {
	t.Helper()
	return NewService(store, gen, testCatalog(t), slog.Default())
}

func seedChat(store *fakeStore) *models.Chat {
	storylineID := "roman-republic"
	chat := &models.Chat{
		ID:          "chat-1",
		Title:       "Shadows of the Republic",
		StorylineID: &storylineID,
		Character:   models.PlayerCharacter{Name: "Gaius", Role: "a young senator"},
	}
	store.chats[chat.ID] = chat
	return chat
}

func TestGenerateScene_UnknownChat(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeGenerator{configured: true})

	_, err := svc.GenerateScene(context.Background(), "missing", &GenerateRequest{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateScene_Success(t *testing.T) {
	store := newFakeStore()
	seedChat(store)
	gen := &fakeGenerator{configured: true, url: "https://img.example/scene.png"}
	svc := newTestService(t, store, gen)

	result, err := svc.GenerateScene(context.Background(), "chat-1", &GenerateRequest{
		LastAssistantText: "The forum hums with rumor.",
	})
	if err != nil {
		t.Fatalf("GenerateScene: %v", err)
	}

	if !result.Persisted || result.Placeholder || result.Error != "" {
		t.Errorf("result = %+v, want persisted real image", result)
	}
	if result.Image.URL != "https://img.example/scene.png" {
		t.Errorf("url = %q", result.Image.URL)
	}
	if result.Image.Kind != models.ImageKindScene {
		t.Errorf("kind = %q, want scene", result.Image.Kind)
	}
	if len(store.images["chat-1"]) != 1 {
		t.Errorf("stored %d images, want 1", len(store.images["chat-1"]))
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Shadows of the Republic") {
		t.Errorf("prompt missing storyline setting: %q", gen.prompts)
	}
}

func TestGenerateScene_NoCredential(t *testing.T) {
	store := newFakeStore()
	seedChat(store)
	gen := &fakeGenerator{configured: false}
	svc := newTestService(t, store, gen)

	result, err := svc.GenerateScene(context.Background(), "chat-1", &GenerateRequest{})
	if err != nil {
		t.Fatalf("GenerateScene: %v", err)
	}

	if gen.calls != 0 {
		t.Error("unconfigured gateway was still called")
	}
	if !result.Placeholder || result.Image.URL != placeholderURL {
		t.Errorf("result = %+v, want placeholder %q", result, placeholderURL)
	}
	if !result.Persisted {
		t.Error("placeholder should still be persisted")
	}
}

func TestGenerateScene_GatewayFailure(t *testing.T) {
	store := newFakeStore()
	seedChat(store)
	gen := &fakeGenerator{configured: true, err: errors.New("both models down")}
	svc := newTestService(t, store, gen)

	result, err := svc.GenerateScene(context.Background(), "chat-1", &GenerateRequest{})
	if err != nil {
		t.Fatalf("gateway failure must not fail the call: %v", err)
	}

	if !result.Placeholder || result.Image.URL != placeholderURL {
		t.Errorf("result = %+v, want persisted placeholder", result)
	}
	if result.Error != "both models down" {
		t.Errorf("error = %q", result.Error)
	}
}

func TestGenerateScene_PersistenceFailureNonFatal(t *testing.T) {
	store := newFakeStore()
	seedChat(store)
	store.failCreateImage = true
	gen := &fakeGenerator{configured: true, url: "https://img.example/scene.png"}
	svc := newTestService(t, store, gen)

	result, err := svc.GenerateScene(context.Background(), "chat-1", &GenerateRequest{})
	if err != nil {
		t.Fatalf("persistence failure must not fail the call: %v", err)
	}

	if result.Persisted {
		t.Error("result should report non-persisted")
	}
	if result.Image.URL != "https://img.example/scene.png" {
		t.Errorf("url = %q, the real image should still be returned", result.Image.URL)
	}
}

func TestGeneratePortrait_ReplacesPriorPortrait(t *testing.T) {
	store := newFakeStore()
	seedChat(store)
	gen := &fakeGenerator{configured: true, url: "https://img.example/p1.png"}
	svc := newTestService(t, store, gen)

	if _, err := svc.GeneratePortrait(context.Background(), "chat-1", &GenerateRequest{}); err != nil {
		t.Fatalf("first portrait: %v", err)
	}

	// A scene image in between must survive the replacement.
	sceneCaption := "Scene 1: the forum..."
	store.images["chat-1"] = append(store.images["chat-1"], models.SceneImage{
		ID: "img-scene", ChatID: "chat-1", URL: "/globe.svg", Caption: &sceneCaption, Kind: models.ImageKindScene,
	})

	gen.url = "https://img.example/p2.png"
	result, err := svc.GeneratePortrait(context.Background(), "chat-1", &GenerateRequest{})
	if err != nil {
		t.Fatalf("second portrait: %v", err)
	}

	var portraits, scenes int
	for _, img := range store.images["chat-1"] {
		switch img.Kind {
		case models.ImageKindPortrait:
			portraits++
			if img.URL != "https://img.example/p2.png" {
				t.Errorf("surviving portrait url = %q, want the new one", img.URL)
			}
		case models.ImageKindScene:
			scenes++
		}
	}
	if portraits != 1 {
		t.Errorf("%d live portraits, want exactly 1", portraits)
	}
	if scenes != 1 {
		t.Errorf("%d scene images, want 1 (replacement must not touch scenes)", scenes)
	}

	if result.Image.Caption == nil || !strings.HasPrefix(*result.Image.Caption, "Portrait") {
		t.Errorf("portrait caption = %v, want Portrait prefix", result.Image.Caption)
	}
}

func TestMaybeCreateScene_OnlyOnCadence(t *testing.T) {
	store := newFakeStore()
	chat := seedChat(store)
	gen := &fakeGenerator{configured: true, url: "https://img.example/scene.png"}
	svc := newTestService(t, store, gen)

	for turn := 1; turn <= 4; turn++ {
		svc.MaybeCreateScene(context.Background(), chat, "text", turn)
	}
	if len(store.images["chat-1"]) != 0 {
		t.Fatalf("turns 1-4 produced %d images, want 0", len(store.images["chat-1"]))
	}

	svc.MaybeCreateScene(context.Background(), chat, "The die is cast.", 5)
	imgs := store.images["chat-1"]
	if len(imgs) != 1 {
		t.Fatalf("turn 5 produced %d images, want 1", len(imgs))
	}
	if imgs[0].Caption == nil || *imgs[0].Caption != "Scene 1: The die is cast...." {
		t.Errorf("caption = %v", imgs[0].Caption)
	}
}

func TestMaybeCreateScene_FailureUsesRotation(t *testing.T) {
	store := newFakeStore()
	chat := seedChat(store)
	gen := &fakeGenerator{configured: true, err: errors.New("gateway down")}
	svc := newTestService(t, store, gen)

	svc.MaybeCreateScene(context.Background(), chat, "text", 5)

	imgs := store.images["chat-1"]
	if len(imgs) != 1 {
		t.Fatalf("got %d images, want 1", len(imgs))
	}
	// Scene 1 maps to rotation index 0.
	if imgs[0].URL != "/globe.svg" {
		t.Errorf("url = %q, want /globe.svg", imgs[0].URL)
	}
}

func TestMaybeCreateScene_PersistenceFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	chat := seedChat(store)
	store.failCreateImage = true
	gen := &fakeGenerator{configured: true, url: "https://img.example/scene.png"}
	svc := newTestService(t, store, gen)

	// Must not panic or propagate.
	svc.MaybeCreateScene(context.Background(), chat, "text", 5)
}

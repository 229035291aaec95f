package turn

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chronicle/internal/domain"
	"chronicle/internal/domain/models"
	"chronicle/internal/domain/repositories"
	"chronicle/internal/service/narrator"
	"chronicle/internal/storyline"
)

// SentinelReply is the only failure text a transcript ever shows; raw errors
// never cross the orchestrator boundary.
const SentinelReply = "Sorry, something went wrong."

// CompletionClient is the text-completion gateway contract.
type CompletionClient interface {
	StreamReply(ctx context.Context, req *narrator.Request) (<-chan narrator.StreamEvent, error)
	Reply(ctx context.Context, req *narrator.Request) (string, error)
}

// SceneTrigger receives the cadence check after a successful turn.
type SceneTrigger interface {
	MaybeCreateScene(ctx context.Context, chat *models.Chat, lastAssistantText string, userTurnCount int)
}

// Orchestrator coordinates one turn: prompt assembly, dispatch, incremental
// assembly, persistence, and the trailing cadence trigger.
type Orchestrator struct {
	store       repositories.SessionStore
	completions CompletionClient
	scenes      SceneTrigger
	catalog     *storyline.Catalog
	logger      *slog.Logger

	// trailing tracks fire-and-forget work so shutdown (and tests) can
	// wait for it.
	trailing sync.WaitGroup
}

// NewOrchestrator creates a new turn orchestrator
func NewOrchestrator(
	store repositories.SessionStore,
	completions CompletionClient,
	scenes SceneTrigger,
	catalog *storyline.Catalog,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		completions: completions,
		scenes:      scenes,
		catalog:     catalog,
		logger:      logger,
	}
}

// Request is one turn submission: the caller's current transcript plus the
// new user text and session context.
type Request struct {
	ChatID      string                  `json:"session_id,omitempty"`
	Messages    []models.Message        `json:"messages,omitempty"`
	UserText    string                  `json:"user_text"`
	StorylineID string                  `json:"storyline_id,omitempty"`
	Character   *models.PlayerCharacter `json:"player_character,omitempty"`
}

// Result is the terminal state of a turn.
type Result struct {
	UserMessage   models.Message `json:"user_message"`
	Assistant     models.Message `json:"assistant_message"`
	Failed        bool           `json:"failed"`
	Persisted     bool           `json:"persisted"`
	UserTurnCount int            `json:"user_turn_count"`
}

// EmitFunc receives each reply fragment as it arrives. A nil EmitFunc
// selects non-streaming mode. An emit error (client gone) stops emission but
// the turn still runs to completion independently.
type EmitFunc func(fragment string) error

// SubmitTurn runs one user turn end to end. The user append is optimistic
// and never rolled back; persistence is best-effort and never fails the
// visible turn; any upstream failure terminates the turn with the sentinel.
// Only validation and an unknown session fail hard.
func (o *Orchestrator) SubmitTurn(ctx context.Context, req *Request, emit EmitFunc) (*Result, error) {
	userText := strings.TrimSpace(req.UserText)
	if userText == "" {
		return nil, &domain.ValidationError{Message: "user_text must not be empty"}
	}

	var chat *models.Chat
	if req.ChatID != "" {
		var err error
		chat, err = o.store.GetChat(ctx, req.ChatID)
		if err != nil {
			return nil, err
		}
	}

	sl, pc := o.sessionContext(req, chat)

	transcript := NewTranscript(req.Messages)
	userMsg := models.Message{
		ID:      uuid.New().String(),
		ChatID:  req.ChatID,
		Role:    models.RoleUser,
		Content: userText,
	}
	transcript.Append(userMsg)
	userPersisted := o.persistAsync(ctx, userMsg)

	// Computed once per turn; the sole input to the cadence rule.
	userTurnCount := transcript.UserTurnCount()

	narReq := &narrator.Request{
		Storyline: sl,
		Character: pc,
		History:   transcript.Display(),
	}

	result := &Result{
		UserMessage:   userMsg,
		UserTurnCount: userTurnCount,
	}

	if emit == nil {
		o.completeBuffered(ctx, narReq, transcript, result)
	} else {
		o.completeStreaming(ctx, narReq, transcript, result, emit)
	}

	if !result.Failed {
		// Messages list in insertion order, and an instant reply can beat
		// the user write. Let it land first.
		<-userPersisted
		result.Persisted = o.persistAssistant(ctx, result.Assistant)
		if chat != nil {
			o.trailing.Add(1)
			go func(content string) {
				defer o.trailing.Done()
				o.scenes.MaybeCreateScene(context.WithoutCancel(ctx), chat, content, userTurnCount)
			}(result.Assistant.Content)
		}
	}

	return result, nil
}

// completeBuffered awaits the full reply as one blob.
func (o *Orchestrator) completeBuffered(ctx context.Context, narReq *narrator.Request, transcript *Transcript, result *Result) {
	assistantID := uuid.New().String()

	content, err := o.completions.Reply(ctx, narReq)
	if err != nil {
		o.logger.Error("completion failed", "error", err)
		result.Failed = true
		content = SentinelReply
	}

	result.Assistant = transcript.FinalizeAssistant(assistantID, content)
	result.Assistant.ChatID = result.UserMessage.ChatID
}

// completeStreaming seeds a placeholder, folds fragments into it in arrival
// order, and emits each fragment to the caller.
func (o *Orchestrator) completeStreaming(ctx context.Context, narReq *narrator.Request, transcript *Transcript, result *Result, emit EmitFunc) {
	assistantID := uuid.New().String()
	transcript.SeedAssistant(assistantID)

	events, err := o.completions.StreamReply(ctx, narReq)
	if err != nil {
		o.logger.Error("failed to open completion stream", "error", err)
		result.Failed = true
		result.Assistant = transcript.FinalizeAssistant(assistantID, SentinelReply)
		result.Assistant.ChatID = result.UserMessage.ChatID
		return
	}

	var acc Accumulator
	var emitErr error
	for ev := range events {
		if ev.Err != nil {
			o.logger.Error("completion stream failed", "error", ev.Err)
			result.Failed = true
			break
		}
		transcript.SetAssistantContent(acc.Add(ev.Token))
		if emitErr == nil {
			if emitErr = emit(ev.Token); emitErr != nil {
				// Client is gone; finish the turn without it.
				o.logger.Warn("emit failed, continuing turn without client", "error", emitErr)
			}
		}
	}

	content := acc.String()
	if result.Failed {
		content = SentinelReply
	}
	result.Assistant = transcript.FinalizeAssistant(assistantID, content)
	result.Assistant.ChatID = result.UserMessage.ChatID
}

// sessionContext resolves storyline and character, preferring what the
// request carries over the persisted snapshot.
func (o *Orchestrator) sessionContext(req *Request, chat *models.Chat) (*storyline.Storyline, *models.PlayerCharacter) {
	storylineID := req.StorylineID
	if storylineID == "" && chat != nil && chat.StorylineID != nil {
		storylineID = *chat.StorylineID
	}

	pc := req.Character
	if pc.Empty() && chat != nil {
		pc = &chat.Character
	}

	return o.catalog.Find(storylineID), pc
}

// persistAsync mirrors a message to the store without blocking or failing
// the turn. The returned channel closes when the write has settled, success
// or not.
func (o *Orchestrator) persistAsync(ctx context.Context, msg models.Message) <-chan struct{} {
	done := make(chan struct{})
	if msg.ChatID == "" {
		close(done)
		return done
	}
	o.trailing.Add(1)
	go func() {
		defer o.trailing.Done()
		defer close(done)
		saved := msg
		if err := o.store.AppendMessage(context.WithoutCancel(ctx), &saved); err != nil {
			o.logger.Error("failed to persist message", "chat_id", msg.ChatID, "role", msg.Role, "error", err)
		}
	}()
	return done
}

// persistAssistant mirrors the finished assistant turn, reporting whether
// the write stuck.
func (o *Orchestrator) persistAssistant(ctx context.Context, msg models.Message) bool {
	if msg.ChatID == "" {
		return false
	}
	saved := msg
	if err := o.store.AppendMessage(ctx, &saved); err != nil {
		o.logger.Error("failed to persist assistant message", "chat_id", msg.ChatID, "error", err)
		return false
	}
	return true
}

// Wait blocks until fire-and-forget work has drained. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.trailing.Wait()
}

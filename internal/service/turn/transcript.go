// Package turn drives one user turn end to end: optimistic transcript
// mutation, streamed reply assembly, best-effort persistence, and the scene
// cadence trigger.
package turn

import (
	"strings"

	"chronicle/internal/domain/models"
)

// Accumulator folds stream fragments into the full reply text. Accumulation
// is append-only; Add returns the complete text so far, which is what gets
// displayed (never the delta).
type Accumulator struct {
	b strings.Builder
}

// Add appends a fragment and returns the accumulated text.
func (a *Accumulator) Add(fragment string) string {
	a.b.WriteString(fragment)
	return a.b.String()
}

// String returns the accumulated text.
func (a *Accumulator) String() string {
	return a.b.String()
}

// Transcript is the session aggregate for one in-flight turn: an ordered
// message list with defined mutations (append, seed, set-content, finalize)
// instead of ambient shared state. It is not safe for concurrent use; the
// protocol assumes at most one in-flight turn per session.
type Transcript struct {
	messages     []models.Message
	assistantIdx int
}

// NewTranscript copies history into a fresh aggregate.
func NewTranscript(history []models.Message) *Transcript {
	msgs := make([]models.Message, len(history))
	copy(msgs, history)
	return &Transcript{
		messages:     msgs,
		assistantIdx: -1,
	}
}

// Append adds a finalized message. Appends are never rolled back.
func (t *Transcript) Append(msg models.Message) {
	t.messages = append(t.messages, msg)
}

// SeedAssistant appends an empty assistant message as the streaming
// placeholder and remembers it for content updates.
func (t *Transcript) SeedAssistant(id string) {
	t.assistantIdx = len(t.messages)
	t.messages = append(t.messages, models.Message{
		ID:   id,
		Role: models.RoleAssistant,
	})
}

// SetAssistantContent replaces the seeded message's displayed content with
// the full accumulated text. Content is monotonic: an update shorter than
// what is already displayed is discarded, so no fragment application ever
// shortens or reorders the visible text.
func (t *Transcript) SetAssistantContent(content string) {
	if t.assistantIdx < 0 {
		return
	}
	if len(content) < len(t.messages[t.assistantIdx].Content) {
		return
	}
	t.messages[t.assistantIdx].Content = content
}

// FinalizeAssistant sets the terminal content of the seeded message,
// bypassing the monotonic guard (the failure sentinel may be shorter than
// partial streamed content) and returns the finalized message. If no
// assistant was seeded, the message is appended instead.
func (t *Transcript) FinalizeAssistant(id, content string) models.Message {
	if t.assistantIdx < 0 {
		t.SeedAssistant(id)
	}
	t.messages[t.assistantIdx].Content = content
	msg := t.messages[t.assistantIdx]
	t.assistantIdx = -1
	return msg
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Display returns the transcript with system-role entries filtered out,
// which is the only form ever shown or forwarded.
func (t *Transcript) Display() []models.Message {
	out := make([]models.Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Role == models.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// UserTurnCount counts user-role messages in the transcript.
func (t *Transcript) UserTurnCount() int {
	n := 0
	for _, m := range t.messages {
		if m.Role == models.RoleUser {
			n++
		}
	}
	return n
}

// AssistantContent returns the current content of the seeded assistant
// message, or empty if none is seeded.
func (t *Transcript) AssistantContent() string {
	if t.assistantIdx < 0 {
		return ""
	}
	return t.messages[t.assistantIdx].Content
}

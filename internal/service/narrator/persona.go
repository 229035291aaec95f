// Package narrator assembles persona prompts and talks to the upstream
// text-completion provider. With no credential configured it degrades to a
// deterministic local reply, which is also the offline test mode.
package narrator

import (
	"fmt"
	"strings"

	"chronicle/internal/domain/models"
	"chronicle/internal/storyline"
)

const personaPreamble = `You are a collaborative historical fiction narrator and roleplay companion.
- Stay PG-13. Avoid graphic violence or sexual content.
- Be respectful and sensitive to culture and history.
- Offer vivid, sensory description, but keep turns concise (3-8 sentences).
- Advance the scene and end with an in-world prompt or question.
- If the user asks for facts, be honest about uncertainty.
`

// BuildPersona assembles the system prompt from the fixed safety/style
// preamble plus optional storyline and character blocks. Pure and
// deterministic; absent optional fields are omitted, never rendered empty.
func BuildPersona(sl *storyline.Storyline, pc *models.PlayerCharacter) string {
	var b strings.Builder
	b.WriteString(personaPreamble)

	if sl != nil {
		b.WriteString("\nSetting")
		b.WriteString("\nTitle: " + sl.Title)
		b.WriteString("\nEra: " + sl.Era)
		if sl.Location != "" {
			b.WriteString("\nLocation: " + sl.Location)
		}
		b.WriteString("\nDescription: " + sl.Description)
		b.WriteString("\nHook: " + sl.StarterHook)
		b.WriteString("\nSafety tools: " + strings.Join(sl.SafetyTools, ", "))
	}

	if !pc.Empty() {
		b.WriteString("\nPlayer Character")
		if pc.Name != "" {
			b.WriteString("\nName: " + pc.Name)
		}
		if pc.Role != "" {
			b.WriteString("\nRole: " + pc.Role)
		}
		if pc.Background != "" {
			b.WriteString("\nBackground: " + pc.Background)
		}
		if pc.Goals != "" {
			b.WriteString("\nGoals: " + pc.Goals)
		}
		if len(pc.Traits) > 0 {
			b.WriteString("\nTraits: " + strings.Join(pc.Traits, ", "))
		}
		if len(pc.Skills) > 0 {
			b.WriteString("\nSkills: " + strings.Join(pc.Skills, ", "))
		}
		if pc.Allegiances != "" {
			b.WriteString("\nAllegiances: " + pc.Allegiances)
		}
		if pc.Era != "" {
			b.WriteString("\nEra: " + pc.Era)
		}
	}

	return b.String()
}

// DeterministicReply is the offline fallback: a pure function of the last
// user message, the storyline title/era, and the character name/role. It
// never touches the network and is reproducible for identical inputs.
func DeterministicReply(history []models.Message, sl *storyline.Storyline, pc *models.PlayerCharacter) string {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			last = history[i].Content
			break
		}
	}

	title := "Freeform"
	if sl != nil {
		title = fmt.Sprintf("%s — %s", sl.Title, sl.Era)
	}

	var pcLine string
	if pc != nil && pc.Name != "" {
		pcLine = fmt.Sprintf(" You are roleplaying as %s, %s.", pc.Name, pc.Role)
	}

	var hook string
	if sl != nil && sl.StarterHook != "" {
		hook = " Hook: " + sl.StarterHook
	}

	return fmt.Sprintf("Setting: %s.%s%s\n\nYou said: %s\n\nA thoughtful, in-character reply follows with historical color and sensory detail.",
		title, pcLine, hook, last)
}

// HistoryWindow keeps the most recent limit user/assistant messages in
// oldest-to-newest order. The system seed never passes this boundary.
func HistoryWindow(history []models.Message, limit int) []models.Message {
	filtered := make([]models.Message, 0, len(history))
	for _, m := range history {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}

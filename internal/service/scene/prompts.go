package scene

import (
	"fmt"
	"strings"

	"chronicle/internal/domain/models"
	"chronicle/internal/storyline"
)

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// settingLine renders "title, era[, location]" for a storyline.
func settingLine(sl *storyline.Storyline) string {
	if sl == nil {
		return ""
	}
	line := fmt.Sprintf("%s, %s", sl.Title, sl.Era)
	if sl.Location != "" {
		line += ", " + sl.Location
	}
	return line
}

// ScenePrompt builds the image prompt for a narrative scene from the
// storyline setting, an optional protagonist line, and a summary of the most
// recent assistant text (truncated to 500 runes).
func ScenePrompt(sl *storyline.Storyline, pc *models.PlayerCharacter, lastAssistantText, caption string) string {
	setting := settingLine(sl)
	if setting == "" {
		setting = "Historical fiction scene"
	}

	var pcLine string
	if pc != nil && pc.Name != "" && pc.Role != "" {
		pcLine = fmt.Sprintf("Protagonist: %s, %s.\n", pc.Name, pc.Role)
	}

	summary := truncate(lastAssistantText, 500)
	if summary == "" {
		summary = caption
	}
	if summary == "" {
		summary = "Dramatic moment in the story."
	}

	return fmt.Sprintf("Illustration, cinematic, detailed matte painting.\nSetting: %s.\n%sScene: %s\nStyle: painterly, realistic lighting, film grain.\nContent rules: PG-13, avoid graphic violence or sexual content.",
		setting, pcLine, summary)
}

// PortraitPrompt builds the character-focused image prompt.
func PortraitPrompt(sl *storyline.Storyline, pc *models.PlayerCharacter) string {
	setting := settingLine(sl)
	if setting == "" && pc != nil && pc.Era != "" {
		setting = pc.Era
	}
	if setting == "" {
		setting = "Historical fiction"
	}

	name := "Protagonist"
	var details []string
	if pc != nil {
		if pc.Name != "" {
			name = pc.Name
		}
		if pc.Role != "" {
			details = append(details, pc.Role)
		}
		if len(pc.Traits) > 0 {
			traits := pc.Traits
			if len(traits) > 5 {
				traits = traits[:5]
			}
			details = append(details, strings.Join(traits, ", "))
		}
		if pc.Background != "" {
			details = append(details, truncate(pc.Background, 140))
		}
	}

	return fmt.Sprintf("Portrait of %s. %s.\nSetting context: %s.\nMedium: character concept art, medium shot, 3/4 view, face visible.\nStyle: painterly realism, soft natural light, neutral background, film grain.\nContent rules: PG-13; no graphic content.",
		name, strings.Join(details, "; "), setting)
}

// SceneCaption renders the caption for a cadence-generated scene.
func SceneCaption(sceneNumber int, lastAssistantText string) string {
	if lastAssistantText == "" {
		return fmt.Sprintf("Scene %d", sceneNumber)
	}
	return fmt.Sprintf("Scene %d: %s...", sceneNumber, truncate(lastAssistantText, 80))
}

// PortraitCaption renders the caption for a character portrait.
func PortraitCaption(pc *models.PlayerCharacter) string {
	if pc == nil || pc.Name == "" {
		return "Portrait"
	}
	caption := "Portrait: " + pc.Name
	if pc.Role != "" {
		caption += ", " + pc.Role
	}
	if pc.Era != "" {
		caption += " — " + pc.Era
	}
	return caption
}

// Package scene generates session illustrations: the every-5th-turn scene
// images and the single live character portrait.
package scene

// Interval is the cadence: a scene image is due every Interval user turns.
const Interval = 5

// placeholders is the fixed rotation used when generation fails during the
// cadence; indexed by (scene number - 1) mod len.
var placeholders = []string{
	"/globe.svg",
	"/file.svg",
	"/window.svg",
	"/next.svg",
	"/vercel.svg",
}

// placeholderURL is the single placeholder used outside the cadence rotation
// (explicit generate calls and portraits).
const placeholderURL = "/window.svg"

// CadenceDue reports whether a scene image is due after the given user turn.
// Turns 1-4 never fire; turn 5 fires, turn 10 fires, and so on.
func CadenceDue(userTurnCount int) bool {
	return userTurnCount > 0 && userTurnCount%Interval == 0
}

// Number returns the 1-based scene number for a user turn count.
func Number(userTurnCount int) int {
	return (userTurnCount + Interval - 1) / Interval
}

// RotationPlaceholder returns the deterministic fallback URL for a scene.
func RotationPlaceholder(sceneNumber int) string {
	return placeholders[(sceneNumber-1)%len(placeholders)]
}

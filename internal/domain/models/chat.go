package models

import (
	"time"
)

// PlayerCharacter is the character sheet a user fills in before playing.
// All fields are optional; absence means "unset". The snapshot stored on a
// chat is immutable history - later edits only affect future turns.
type PlayerCharacter struct {
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Background  string   `json:"background,omitempty"`
	Goals       string   `json:"goals,omitempty"`
	Era         string   `json:"era,omitempty"`
	Allegiances string   `json:"allegiances,omitempty"`
	Traits      []string `json:"traits,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// Empty reports whether no character field has been set.
func (pc *PlayerCharacter) Empty() bool {
	if pc == nil {
		return true
	}
	return pc.Name == "" && pc.Role == "" && pc.Background == "" &&
		pc.Goals == "" && pc.Era == "" && pc.Allegiances == "" &&
		len(pc.Traits) == 0 && len(pc.Skills) == 0
}

// Chat represents one roleplay session: its storyline binding, the player
// character snapshot taken at creation, and activity timestamps. UpdatedAt is
// bumped on every accepted message append and drives list ordering.
type Chat struct {
	ID          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	StorylineID *string         `json:"storyline_id,omitempty" db:"storyline_id"`
	Character   PlayerCharacter `json:"character"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

package models

import (
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

// Message is one entry in a session transcript. Messages are created with a
// locally generated id before any network round-trip and are immutable once
// finalized; ordering is insertion order within a session.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id,omitempty" db:"chat_id"`
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

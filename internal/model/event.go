package model

import "time"

const (
	EventTurnAppended   = "turn_appended"
	EventSessionCleared = "session_cleared"
)

// ConversationEvent is an audit record of session activity. Events are
// published to the broker best-effort and persisted by a worker; they are
// not part of the conversation history itself.
type ConversationEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:128;not null;index" json:"session_id"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Role      string    `gorm:"size:16" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

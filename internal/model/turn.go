package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a session's conversation history. Seq is
// monotonically increasing per session; readers order by it.
type Turn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:128;not null;index:idx_turns_session_seq,priority:1" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Seq       uint64    `gorm:"not null;index:idx_turns_session_seq,priority:2" json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

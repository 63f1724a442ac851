package chat

import (
	"time"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/user"
)

// Conversation is the history of one chat between a user and the assistant.
type Conversation struct {
	ID        string          `json:"id"`
	UserID    int             `json:"user_id"`
	Role      user.Role       `json:"role"`
	History   []genai.Message `json:"history"`
	CreatedAt time.Time       `json:"created_at"` // UTC
	UpdatedAt time.Time       `json:"updated_at"` // UTC
}

// SendMessage is a message sent by a user. An empty ConversationID starts a new conversation.
type SendMessage struct {
	ConversationID string    `json:"session_id"`
	UserID         int       `json:"-"`
	Role           user.Role `json:"-"`
	Message        string    `json:"message" validate:"notblank"`
}

func (sm *SendMessage) Clean() {
	sm.ConversationID = core.CleanString(sm.ConversationID)
}

type Reply struct {
	ConversationID string `json:"session_id"`
	Response       string `json:"response"`
}

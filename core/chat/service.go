package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/user"
)

var (
	// errors
	ErrNotFound = core.NewError(core.ErrNotFound, "conversation not found")

	nowFunc = time.Now // mockable
)

type (
	// SessionStore persists conversations by ID.
	SessionStore interface {
		// GetConversation returns ErrNotFound if there is no conversation with this ID.
		GetConversation(ctx context.Context, id string) (Conversation, error)
		SaveConversation(ctx context.Context, conv Conversation) error
		// AppendMessages atomically adds msgs to the history of the user's conversation.
		// It returns ErrNotFound if the conversation is missing or belongs to another user.
		AppendMessages(ctx context.Context, id string, userID int, msgs []genai.Message, at time.Time) error
	}

	Service struct {
		store     SessionStore
		converser genai.Converser
		validator *core.Validator
	}
)

func NewService(store SessionStore, converser genai.Converser, validator *core.Validator) *Service {
	return &Service{store: store, converser: converser, validator: validator}
}

// Send continues (or starts) a conversation of the user and returns the assistant's reply.
// Conversations belonging to someone else are reported as not found.
func (svc *Service) Send(ctx context.Context, sm SendMessage) (Reply, error) {
	sm.Clean()
	if err := svc.validator.Struct(&sm); err != nil {
		return Reply{}, err
	}

	now := nowFunc().UTC()
	var conv Conversation
	message := sm.Message

	if sm.ConversationID == "" {
		conv = Conversation{
			ID:        uuid.New().String(),
			UserID:    sm.UserID,
			Role:      sm.Role,
			CreatedAt: now,
		}
		message = SystemPrompt(sm.Role) + "\n\n" + sm.Message
	} else {
		var err error
		conv, err = svc.store.GetConversation(ctx, sm.ConversationID)
		if err != nil {
			return Reply{}, err
		}
		if conv.UserID != sm.UserID {
			return Reply{}, ErrNotFound
		}
	}

	text, err := svc.converser.Converse(ctx, conv.History, message)
	if err != nil {
		return Reply{}, core.WrapError(core.ErrService, err, "AI model error")
	}

	turn := []genai.Message{
		{Role: genai.RoleUser, Text: message},
		{Role: genai.RoleModel, Text: text},
	}
	if sm.ConversationID == "" {
		conv.History = turn
		conv.UpdatedAt = now
		err = svc.store.SaveConversation(ctx, conv)
	} else {
		err = svc.store.AppendMessages(ctx, conv.ID, sm.UserID, turn, now)
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{ConversationID: conv.ID, Response: text}, nil
}

// History returns the conversation if it belongs to the user.
func (svc *Service) History(ctx context.Context, userID int, conversationID string) (Conversation, error) {
	conv, err := svc.store.GetConversation(ctx, core.CleanString(conversationID))
	if err != nil {
		return Conversation{}, err
	}
	if conv.UserID != userID {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

// SystemPrompt is the instruction opening every conversation of a user with this role.
func SystemPrompt(role user.Role) string {
	switch role {
	case user.RoleTeacher:
		return teacherPrompt
	case user.RoleStudent:
		return studentPrompt
	}
	return defaultPrompt
}

const (
	teacherPrompt = `You are an AI assistant helping school teachers design lesson plans, classroom activities and teaching material.
Communicate in a wise, structured and supportive tone and format every answer in Markdown with clear headings and bullet points.
When asked for a lesson plan, give the topic name, 3 to 5 key concepts, suggested demonstrations or metaphors, and optional homework or quiz ideas.
Keep the material practical and usable in a modern classroom.`

	studentPrompt = `You are a friendly tutor helping school students learn.
Answer their questions accurately, with short, clear and encouraging explanations suited to their age.
Use examples only when helpful and guide them step by step when needed, without overwhelming them.
When suitable, end with a follow-up question or a small exercise.`

	defaultPrompt = `You are an AI assistant at a school. You help teachers, students and their families with educational content,
questions and creative ideas. Be clear, kind and helpful, and keep your answers age-appropriate.`
)

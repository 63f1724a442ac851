// Package genai describes the text-generation capability used to draft questions,
// score descriptive answers and hold conversations.
package genai

import (
	"context"

	"github.com/smartclassroom/backend/core"
)

// ErrUnavailable is returned by gateways that are not configured.
var ErrUnavailable = core.NewError(core.ErrService, "generation service unavailable")

type (
	// Gateway turns a prompt into text. Implementations neither retry nor cache.
	Gateway interface {
		Generate(ctx context.Context, prompt string) (string, error)
	}

	// Converser continues a conversation given its previous turns.
	Converser interface {
		Converse(ctx context.Context, history []Message, message string) (string, error)
	}

	Message struct {
		Role string `json:"role"` // RoleUser | RoleModel
		Text string `json:"text"`
	}
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

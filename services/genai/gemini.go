// Package genai implements the generation gateway on the Gemini API.
package genai

import (
	"context"
	"strings"

	gemini "github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/genai"
)

var errEmptyResponse = errors.New("empty model response")

// Gemini generates text with a single Gemini model.
type Gemini struct {
	client *gemini.Client
	model  *gemini.GenerativeModel
}

var (
	// interface compliance checks
	_ genai.Gateway   = (*Gemini)(nil)
	_ genai.Converser = (*Gemini)(nil)
)

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := gemini.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &Gemini{client: client, model: client.GenerativeModel(model)}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, gemini.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	return responseText(resp)
}

func (g *Gemini) Converse(ctx context.Context, history []genai.Message, message string) (string, error) {
	cs := g.model.StartChat()
	cs.History = make([]*gemini.Content, 0, len(history))
	for _, m := range history {
		cs.History = append(cs.History, &gemini.Content{
			Role:  m.Role,
			Parts: []gemini.Part{gemini.Text(m.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, gemini.Text(message))
	if err != nil {
		return "", errors.Wrap(err, "sending chat message")
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *gemini.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(gemini.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", errEmptyResponse
	}
	return sb.String(), nil
}

// Unavailable is used when no API key is configured. Every call fails with genai.ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", genai.ErrUnavailable
}

func (Unavailable) Converse(context.Context, []genai.Message, string) (string, error) {
	return "", genai.ErrUnavailable
}

// Gateway is a genai.Gateway that can also hold conversations.
type Gateway interface {
	genai.Gateway
	genai.Converser
}

// New returns a Gemini gateway, or Unavailable when conf has no API key.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (Gateway, error) {
	if conf.GenAI.APIKey == "" {
		logger.Warn("no generation API key configured, AI features are disabled")
		return Unavailable{}, nil
	}
	return NewGemini(ctx, conf.GenAI.APIKey, conf.GenAI.Model)
}

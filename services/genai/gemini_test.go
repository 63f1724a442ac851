package genai

import (
	"bytes"
	"context"
	"log"
	"testing"

	gemini "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/genai"
	logsvc "github.com/smartclassroom/backend/services/logger"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *gemini.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil", resp: nil, wantErr: true},
		{name: "no candidates", resp: &gemini.GenerateContentResponse{}, wantErr: true},
		{
			name: "joined text parts",
			resp: &gemini.GenerateContentResponse{Candidates: []*gemini.Candidate{{
				Content: &gemini.Content{Parts: []gemini.Part{gemini.Text("Hello, "), gemini.Text("class")}},
			}}},
			want: "Hello, class",
		},
		{
			name: "no text",
			resp: &gemini.GenerateContentResponse{Candidates: []*gemini.Candidate{{
				Content: &gemini.Content{Parts: []gemini.Part{gemini.Blob{MIMEType: "image/png"}}},
			}}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := responseText(tc.resp)
			if tc.wantErr {
				assert.Equal(t, errEmptyResponse, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_WithoutAPIKey(t *testing.T) {
	conf := core.NewTestConfig()
	conf.GenAI.APIKey = ""

	gw, err := New(context.Background(), conf, logsvc.NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), conf))
	require.NoError(t, err)

	_, err = gw.Generate(context.Background(), "prompt")
	assert.Equal(t, genai.ErrUnavailable, err)
	_, err = gw.Converse(context.Background(), nil, "hi")
	assert.Equal(t, genai.ErrUnavailable, err)
}

package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/smartclassroom/backend/core/genai"
)

// FakeGateway answers every prompt with Reply, or fails with Err.
type FakeGateway struct {
	Reply string
	Err   error

	mu        sync.Mutex
	Prompts   []string
	Histories [][]genai.Message
}

func (g *FakeGateway) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

func (g *FakeGateway) Converse(_ context.Context, history []genai.Message, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, message)
	g.Histories = append(g.Histories, append([]genai.Message(nil), history...))
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// MemBlobStore keeps blobs in memory. Locations are "mem://<key>".
type MemBlobStore struct {
	Err error

	mu    sync.Mutex
	Blobs map[string][]byte
}

func (s *MemBlobStore) Put(_ context.Context, key string, r io.Reader) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Blobs == nil {
		s.Blobs = make(map[string][]byte)
	}
	s.Blobs[key] = b
	return "mem://" + key, nil
}

package chat_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/user"
	"github.com/smartclassroom/backend/storage/session"
	"github.com/smartclassroom/backend/testutil"
)

func setup(t *testing.T) (*chat.Service, *testutil.FakeGateway) {
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gw := &testutil.FakeGateway{Reply: "Here is a plan"}
	return chat.NewService(store, gw, core.NewValidator()), gw
}

func TestService_Send(t *testing.T) {
	svc, gw := setup(t)
	ctx := context.Background()

	reply, err := svc.Send(ctx, chat.SendMessage{UserID: 1, Role: user.RoleTeacher, Message: "Plan a lesson on fractions"})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.ConversationID)
	assert.Equal(t, "Here is a plan", reply.Response)

	// the first turn carries the role prompt
	require.Len(t, gw.Prompts, 1)
	assert.True(t, strings.HasPrefix(gw.Prompts[0], chat.SystemPrompt(user.RoleTeacher)))
	assert.True(t, strings.HasSuffix(gw.Prompts[0], "Plan a lesson on fractions"))
	assert.Empty(t, gw.Histories[0])

	gw.Reply = "Sure"
	reply2, err := svc.Send(ctx, chat.SendMessage{ConversationID: " " + reply.ConversationID, UserID: 1, Message: "Shorter please"})
	require.NoError(t, err)
	assert.Equal(t, reply.ConversationID, reply2.ConversationID)
	assert.Equal(t, "Shorter please", gw.Prompts[1])
	require.Len(t, gw.Histories[1], 2)
	assert.Equal(t, genai.RoleUser, gw.Histories[1][0].Role)
	assert.Equal(t, genai.Message{Role: genai.RoleModel, Text: "Here is a plan"}, gw.Histories[1][1])

	conv, err := svc.History(ctx, 1, reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.History, 4)
	assert.Equal(t, user.RoleTeacher, conv.Role)
	assert.Equal(t, "Sure", conv.History[3].Text)
}

func TestService_SendConcurrently(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	reply, err := svc.Send(ctx, chat.SendMessage{UserID: 1, Role: user.RoleStudent, Message: "hi"})
	require.NoError(t, err)

	const turns = 10
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Send(ctx, chat.SendMessage{ConversationID: reply.ConversationID, UserID: 1, Message: fmt.Sprintf("question %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conv, err := svc.History(ctx, 1, reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.History, 2*(turns+1))
}

func TestService_SendErrors(t *testing.T) {
	svc, gw := setup(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, chat.SendMessage{UserID: 1, Message: "  "})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.Send(ctx, chat.SendMessage{ConversationID: "unknown", UserID: 1, Message: "hi"})
	assert.Equal(t, chat.ErrNotFound, err)

	reply, err := svc.Send(ctx, chat.SendMessage{UserID: 1, Role: user.RoleStudent, Message: "hi"})
	require.NoError(t, err)

	// someone else's conversation
	_, err = svc.Send(ctx, chat.SendMessage{ConversationID: reply.ConversationID, UserID: 2, Message: "hi"})
	assert.Equal(t, chat.ErrNotFound, err)
	_, err = svc.History(ctx, 2, reply.ConversationID)
	assert.Equal(t, chat.ErrNotFound, err)

	gw.Err = errors.New("unavailable")
	_, err = svc.Send(ctx, chat.SendMessage{ConversationID: reply.ConversationID, UserID: 1, Message: "again"})
	assert.True(t, errors.Is(err, core.ErrService))

	// failed turns are not recorded
	conv, err := svc.History(ctx, 1, reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.History, 2)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, chat.SystemPrompt(user.RoleTeacher), "lesson plans")
	assert.Contains(t, chat.SystemPrompt(user.RoleStudent), "tutor")
	assert.Equal(t, chat.SystemPrompt(user.RoleParent), chat.SystemPrompt(user.RoleAdmin))
}

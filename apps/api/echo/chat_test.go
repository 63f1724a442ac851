package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/genai"
)

func Test_chatApi(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.school.StudentUser)

	rec := app.run(http.MethodPost, "/api/chat/send", token, []byte(`{"message": "What is photosynthesis?"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reply chat.Reply
	unmarshal(t, rec, &reply)
	assert.Equal(t, "Hello!", reply.Response)
	require.NotEmpty(t, reply.ConversationID)

	rec = app.run(http.MethodPost, "/api/chat/send", token, marshalObj(t, map[string]string{
		"session_id": reply.ConversationID,
		"message":    "And respiration?",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, app.gateway.Histories, 2)
	assert.Len(t, app.gateway.Histories[1], 2)

	rec = app.run(http.MethodGet, "/api/chat/"+reply.ConversationID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var conv chat.Conversation
	unmarshal(t, rec, &conv)
	assert.Equal(t, app.school.StudentUser.ID, conv.UserID)
	require.Len(t, conv.History, 4)
	assert.Equal(t, genai.RoleUser, conv.History[2].Role)
	assert.Equal(t, "And respiration?", conv.History[2].Text)

	// conversations are private
	teacher := app.token(t, app.school.TeacherUser)
	notFound := marshalObj(t, httpErr{Error: "conversation not found"})
	tests := []httpTest{
		{name: "history of someone else", path: "/api/chat/" + reply.ConversationID, token: teacher, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "continue someone else's", method: http.MethodPost, path: "/api/chat/send", token: teacher,
			body:     marshalObj(t, map[string]string{"session_id": reply.ConversationID, "message": "Hi"}),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "unknown", path: "/api/chat/nope", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "blank message", method: http.MethodPost, path: "/api/chat/send", token: token, body: []byte(`{"message": "  "}`), wantCode: http.StatusBadRequest},
		{name: "auth required", method: http.MethodPost, path: "/api/chat/send", body: []byte(`{"message": "Hi"}`), wantCode: http.StatusUnauthorized},
	}
	runHttpTests(t, app, tests)

	app.gateway.Err = errors.New("unavailable")
	rec = app.run(http.MethodPost, "/api/chat/send", token, []byte(`{"message": "Hi"}`))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

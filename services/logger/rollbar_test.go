package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

func TestRollbarLogger_Print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: 3, Username: "jdoe", Email: "jdoe@example.com"}
	logger.Error("grading failed", errors.New("boom"), usr)

	out := buf.String()
	assert.Contains(t, out, "[ERROR] grading failed")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "jdoe@example.com")
}

func TestRollbarLogger_Prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), core.NewTestConfig())
	err := errors.New("boom")
	extras := map[string]interface{}{"response_id": 4}

	args := logger.prepare("msg", []interface{}{err, user.User{ID: 1}, extras, user.User{ID: 2}})
	assert.Equal(t, []interface{}{"msg", err, extras}, args)
}

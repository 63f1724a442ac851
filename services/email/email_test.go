package emailsvc

import (
	"bytes"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core"
	appfs "github.com/smartclassroom/backend/fs"
	logsvc "github.com/smartclassroom/backend/services/logger"
)

func newTestDeps() (*core.Config, core.Logger) {
	conf := core.NewTestConfig()
	return conf, logsvc.NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), conf)
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf, logger := newTestDeps()
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger)
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Name: "Jane", Address: "jane@example.com"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "Plain", BodyStr: "hello"},
		&core.EmailMessage{
			To:           to,
			Subject:      "Welcome",
			TemplateName: "welcome",
			TemplateData: map[string]interface{}{"AppName": conf.AppName, "Username": "jane", "Role": "student"},
		},
		&core.EmailMessage{Subject: "No recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "Missing template", TemplateName: "nope"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Contains(t, sent[1].TextContent, "jane")
}

func TestSendgridService_Prepare(t *testing.T) {
	conf, logger := newTestDeps()
	svc := NewSendgridService(conf, logger)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Address: "a@example.com"}},
		Cc:          []mail.Address{{Address: "b@example.com"}},
		Subject:     "Graded",
		TextContent: "your response was graded",
	})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "["+conf.AppName+"] Graded", m.Personalizations[0].Subject)
	assert.Len(t, m.Personalizations[0].To, 1)
	assert.Len(t, m.Personalizations[0].CC, 1)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "your response was graded", m.Content[0].Value)
}

func TestNew(t *testing.T) {
	conf, logger := newTestDeps()
	assert.IsType(t, &ConsoleService{}, New(conf, logger))

	conf.TestMode = false
	conf.SendgridApiKey = "key"
	assert.IsType(t, &SendgridService{}, New(conf, logger))
}

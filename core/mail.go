package core

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	"text/template"
)

var (
	templates   map[string]*template.Template // {name: *Template}
	templatesMu sync.RWMutex
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	templatesMu.RLock()
	tmpl, ok := templates[m.TemplateName]
	templatesMu.RUnlock()
	if !ok {
		return fmt.Errorf("email template %q not found", m.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

// ParseEmailTemplates parses every "*.txt" template under dir of fsys.
// Files starting with "_" are partials shared by all templates.
func ParseEmailTemplates(fsys fs.FS, dir string, logger Logger) {
	fps, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
		return
	}

	var partials []string
	names := make([]string, 0, len(fps))
	for _, fp := range fps {
		if strings.HasPrefix(path.Base(fp), "_") {
			partials = append(partials, fp)
		} else {
			names = append(names, fp)
		}
	}

	parsed := make(map[string]*template.Template, len(names))
	for _, fp := range names {
		tmpl, err := template.New(path.Base(fp)).Option("missingkey=error").ParseFS(fsys, append([]string{fp}, partials...)...)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fp, err), err)
			continue
		}
		parsed[strings.TrimSuffix(path.Base(fp), ".txt")] = tmpl
	}

	templatesMu.Lock()
	templates = parsed
	templatesMu.Unlock()
}

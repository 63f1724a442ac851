package assignment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/smartclassroom/backend/core"
)

// Type decides how the responses to an assignment are graded.
type Type string

const (
	TypeMCQ         Type = "mcq"
	TypeDescriptive Type = "descriptive"
	TypeFile        Type = "file"
	TypeProblem     Type = "problem"
)

var typeAliases = map[string]Type{
	"description": TypeDescriptive,
	"prob":        TypeProblem,
}

// ParseType parses s as a Type, accepting the legacy aliases "description" and "prob".
func ParseType(s string) (Type, error) {
	s = core.CleanString(s, true /* lower */)
	if t, ok := typeAliases[s]; ok {
		return t, nil
	}
	t := Type(s)
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeDescriptive, TypeFile, TypeProblem:
		return true
	}
	return false
}

type Assignment struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	TeacherID int        `json:"teacher_id"`
	ClassID   int        `json:"class_id"`
	DueDate   *time.Time `json:"due_date"` // UTC
	Type      Type       `json:"assignment_type"`
	CreatedAt time.Time  `json:"created_at"` // UTC
}

type Question struct {
	ID            int      `json:"id"`
	AssignmentID  int      `json:"assignment_id"`
	Position      int      `json:"position"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer *string  `json:"correct_answer"`
	Marks         int      `json:"marks"`

	RawOptions string `json:"-"` // JSON array as persisted
}

// DecodeOptions decodes raw options, falling back to an empty list when they are not a JSON array of strings.
func DecodeOptions(raw string) []string {
	opts := make([]string, 0)
	if strings.TrimSpace(raw) == "" {
		return opts
	}
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return make([]string, 0)
	}
	return opts
}

// NewAssignment contains information needed to create an Assignment and its questions.
type NewAssignment struct {
	Title     string        `json:"title" validate:"notblank"`
	Subject   string        `json:"subject" validate:"notblank"`
	TeacherID int           `json:"teacher_id" validate:"required"`
	ClassID   int           `json:"class_id" validate:"required"`
	Type      string        `json:"assignment_type" validate:"required"`
	DueDate   string        `json:"due_date"`
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

type NewQuestion struct {
	Text          string   `json:"question_text" validate:"notblank"`
	Options       []string `json:"options"`
	CorrectAnswer *string  `json:"correct_answer"`
	Marks         int      `json:"marks" validate:"gt=0"`
}

func (na *NewAssignment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Subject = core.CleanString(na.Subject)
	na.DueDate = core.CleanString(na.DueDate)
	for i := range na.Questions {
		na.Questions[i].Text = strings.TrimSpace(na.Questions[i].Text)
	}
}

// GenerateRequest asks the generation service to draft questions.
type GenerateRequest struct {
	Topic       string `json:"topic"`
	Grade       string `json:"grade"`
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

type QueryFilter struct {
	ClassID   int
	TeacherID int
}

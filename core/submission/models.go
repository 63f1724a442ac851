package submission

import (
	"io"
	"time"
)

// Status is the grading state of a Response.
type Status string

const (
	StatusUngraded            Status = "ungraded"
	StatusAutoGraded          Status = "auto_graded"
	StatusAIGraded            Status = "ai_graded"
	StatusPendingManualReview Status = "pending_manual_review"
	StatusManuallyGraded      Status = "manually_graded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUngraded, StatusAutoGraded, StatusAIGraded, StatusPendingManualReview, StatusManuallyGraded:
		return true
	}
	return false
}

// Response is a student's answer to one question of an assignment.
type Response struct {
	ID            int        `json:"id"`
	AssignmentID  int        `json:"assignment_id"`
	QuestionID    int        `json:"question_id"`
	StudentID     int        `json:"student_id"`
	Response      *string    `json:"response"`
	FileURL       *string    `json:"file_url"`
	ObtainedMarks *int       `json:"obtained_marks"`
	ReviewedByAI  bool       `json:"reviewed_by_ai"`
	Feedback      string     `json:"feedback"`
	Status        Status     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"` // UTC
	GradedAt      *time.Time `json:"graded_at"`    // UTC
}

// Entry is one answer within a submission. FileName refers to one of the uploaded files.
type Entry struct {
	QuestionID int     `json:"question_id" validate:"required"`
	Response   *string `json:"response"`
	FileName   string  `json:"file_name"`
}

type NewSubmission struct {
	AssignmentID int     `json:"assignment_id" validate:"required"`
	StudentID    int     `json:"student_id" validate:"required"`
	Entries      []Entry `json:"responses" validate:"required,min=1,dive"`
}

// File is an uploaded file. Name is the client-side file name.
type File struct {
	Name    string
	Content io.Reader
}

type ManualGrade struct {
	ObtainedMarks *int   `json:"obtained_marks" validate:"required"`
	Feedback      string `json:"feedback"`
}

type QueryFilter struct {
	AssignmentID int
	StudentID    int
	Status       Status
}

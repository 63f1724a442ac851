// Package grading turns submitted responses into scored outcomes.
//
// Every assignment type has a grading Strategy:
//   - mcq: trimmed case-insensitive match against the correct answer, full marks or zero.
//   - descriptive: scored by the generation gateway.
//   - file and problem: left for a teacher to grade by hand.
package grading

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/submission"
)

var nowFunc = time.Now // mockable

type (
	// Outcome is the result of grading a single response.
	Outcome struct {
		ObtainedMarks *int
		ReviewedByAI  bool
		Feedback      string
		Status        submission.Status
	}

	// Strategy grades a response to a question.
	Strategy interface {
		Grade(ctx context.Context, q assignment.Question, resp submission.Response) (Outcome, error)
	}

	Engine struct {
		responses   submission.Repository
		assignments assignment.Repository
		strategies  map[assignment.Type]Strategy
	}
)

func NewEngine(responses submission.Repository, assignments assignment.Repository, gateway genai.Gateway) *Engine {
	return &Engine{
		responses:   responses,
		assignments: assignments,
		strategies: map[assignment.Type]Strategy{
			assignment.TypeMCQ:         mcqStrategy{},
			assignment.TypeDescriptive: aiStrategy{gateway: gateway},
			assignment.TypeFile:        manualStrategy{},
			assignment.TypeProblem:     manualStrategy{},
		},
	}
}

// Evaluate grades the response and persists the outcome.
// Descriptive responses are scored anew on every call and may get a different score each time.
func (e *Engine) Evaluate(ctx context.Context, responseID int) (submission.Response, error) {
	resp, err := e.responses.GetResponseByID(ctx, responseID)
	if err != nil {
		return submission.Response{}, err
	}
	return e.evaluate(ctx, resp)
}

// EvaluateAssignment grades every ungraded response of the assignment, one after the other.
// It stops at the first failure and returns the responses graded so far.
func (e *Engine) EvaluateAssignment(ctx context.Context, assignmentID int) ([]submission.Response, error) {
	if _, err := e.assignments.GetAssignmentByID(ctx, assignmentID); err != nil {
		return nil, err
	}
	pending, err := e.responses.QueryResponses(ctx, submission.QueryFilter{
		AssignmentID: assignmentID,
		Status:       submission.StatusUngraded,
	})
	if err != nil {
		return nil, err
	}

	graded := make([]submission.Response, 0, len(pending))
	for _, resp := range pending {
		resp, err = e.evaluate(ctx, resp)
		if err != nil {
			return graded, err
		}
		graded = append(graded, resp)
	}
	return graded, nil
}

// evaluate leaves manually graded responses as they are.
func (e *Engine) evaluate(ctx context.Context, resp submission.Response) (submission.Response, error) {
	if resp.Status == submission.StatusManuallyGraded {
		return resp, nil
	}
	q, err := e.assignments.GetQuestionByID(ctx, resp.QuestionID)
	if err != nil {
		return submission.Response{}, err
	}
	asgmt, err := e.assignments.GetAssignmentByID(ctx, resp.AssignmentID)
	if err != nil {
		return submission.Response{}, err
	}

	strategy, ok := e.strategies[asgmt.Type]
	if !ok {
		return submission.Response{}, errors.Errorf("grading: no strategy for assignment type %q", asgmt.Type)
	}
	out, err := strategy.Grade(ctx, q, resp)
	if err != nil {
		return submission.Response{}, err
	}

	resp.ObtainedMarks = out.ObtainedMarks
	resp.ReviewedByAI = out.ReviewedByAI
	resp.Feedback = out.Feedback
	resp.Status = out.Status
	resp.GradedAt = nil
	if out.ObtainedMarks != nil {
		gradedAt := nowFunc().UTC()
		resp.GradedAt = &gradedAt
	}

	resp, err = e.responses.UpdateGrade(ctx, resp)
	return resp, errors.Wrap(err, "saving grade")
}

// --- Strategies ---

type mcqStrategy struct{}

func (mcqStrategy) Grade(_ context.Context, q assignment.Question, resp submission.Response) (Outcome, error) {
	marks := 0
	if q.CorrectAnswer != nil && resp.Response != nil &&
		strings.EqualFold(strings.TrimSpace(*resp.Response), strings.TrimSpace(*q.CorrectAnswer)) {
		marks = q.Marks
	}
	return Outcome{ObtainedMarks: &marks, ReviewedByAI: true, Status: submission.StatusAutoGraded}, nil
}

type aiStrategy struct{ gateway genai.Gateway }

func (s aiStrategy) Grade(ctx context.Context, q assignment.Question, resp submission.Response) (Outcome, error) {
	var answer string
	if resp.Response != nil {
		answer = *resp.Response
	}

	out, err := s.gateway.Generate(ctx, genai.ScoringPrompt(q.Text, answer, q.Marks))
	if err != nil {
		return Outcome{}, core.WrapError(core.ErrService, err, "AI model error")
	}
	score, err := ParseScore(out)
	if err != nil {
		return Outcome{}, core.WrapError(core.ErrEvaluation, err, "unusable evaluation")
	}

	// the score is trusted as returned, even outside [0, marks]
	marks := score.Score
	return Outcome{
		ObtainedMarks: &marks,
		ReviewedByAI:  true,
		Feedback:      score.Feedback,
		Status:        submission.StatusAIGraded,
	}, nil
}

type manualStrategy struct{}

func (manualStrategy) Grade(context.Context, assignment.Question, submission.Response) (Outcome, error) {
	return Outcome{Status: submission.StatusPendingManualReview}, nil
}

package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/submission"
)

const responseColumns = `id, assignment_id, question_id, student_id, response, file_url, obtained_marks,
	reviewed_by_ai, feedback, status, submitted_at, graded_at`

type responseRow struct {
	ID            int         `db:"id"`
	AssignmentID  int         `db:"assignment_id"`
	QuestionID    int         `db:"question_id"`
	StudentID     int         `db:"student_id"`
	Response      null.String `db:"response"`
	FileURL       null.String `db:"file_url"`
	ObtainedMarks null.Int    `db:"obtained_marks"`
	ReviewedByAI  bool        `db:"reviewed_by_ai"`
	Feedback      string      `db:"feedback"`
	Status        string      `db:"status"`
	SubmittedAt   int64       `db:"submitted_at"`
	GradedAt      null.Int64  `db:"graded_at"`
}

type submissionRepository struct {
	repository
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{repository{exec: exec}}
}

func (repo submissionRepository) boil(r submission.Response) responseRow {
	return responseRow{
		ID:            r.ID,
		AssignmentID:  r.AssignmentID,
		QuestionID:    r.QuestionID,
		StudentID:     r.StudentID,
		Response:      null.StringFromPtr(r.Response),
		FileURL:       null.StringFromPtr(r.FileURL),
		ObtainedMarks: null.IntFromPtr(r.ObtainedMarks),
		ReviewedByAI:  r.ReviewedByAI,
		Feedback:      r.Feedback,
		Status:        string(r.Status),
		SubmittedAt:   toUnix(r.SubmittedAt),
		GradedAt:      nullUnix(r.GradedAt),
	}
}

func (repo submissionRepository) unboil(row responseRow) submission.Response {
	return submission.Response{
		ID:            row.ID,
		AssignmentID:  row.AssignmentID,
		QuestionID:    row.QuestionID,
		StudentID:     row.StudentID,
		Response:      row.Response.Ptr(),
		FileURL:       row.FileURL.Ptr(),
		ObtainedMarks: row.ObtainedMarks.Ptr(),
		ReviewedByAI:  row.ReviewedByAI,
		Feedback:      row.Feedback,
		Status:        submission.Status(row.Status),
		SubmittedAt:   fromUnix(row.SubmittedAt),
		GradedAt:      nullUnixPtr(row.GradedAt),
	}
}

func (repo submissionRepository) CreateResponse(ctx context.Context, r submission.Response, exec ...core.DBExecutor) (submission.Response, error) {
	if r.Status == "" {
		r.Status = submission.StatusUngraded
	}
	row := repo.boil(r)
	id, err := repo.insert(ctx, exec,
		`INSERT INTO responses (assignment_id, question_id, student_id, response, file_url, obtained_marks,
		reviewed_by_ai, feedback, status, submitted_at, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.AssignmentID, row.QuestionID, row.StudentID, row.Response, row.FileURL, row.ObtainedMarks,
		row.ReviewedByAI, row.Feedback, row.Status, row.SubmittedAt, row.GradedAt)
	if err != nil {
		return submission.Response{}, errors.Wrap(err, "inserting response")
	}
	row.ID = id
	return repo.unboil(row), nil
}

func (repo submissionRepository) GetResponseByID(ctx context.Context, id int, exec ...core.DBExecutor) (submission.Response, error) {
	var row responseRow
	if err := repo.get(ctx, exec, &row, "SELECT "+responseColumns+" FROM responses WHERE id = ?", id); err != nil {
		return submission.Response{}, trapNoRowsErr(err, submission.ErrNotFound, "finding response by ID")
	}
	return repo.unboil(row), nil
}

func (repo submissionRepository) UpdateGrade(ctx context.Context, r submission.Response, exec ...core.DBExecutor) (submission.Response, error) {
	row := repo.boil(r)
	n, err := repo.execute(ctx, exec,
		`UPDATE responses SET obtained_marks = ?, reviewed_by_ai = ?, feedback = ?, status = ?, graded_at = ?
		WHERE id = ?`,
		row.ObtainedMarks, row.ReviewedByAI, row.Feedback, row.Status, row.GradedAt, row.ID)
	if err != nil {
		return submission.Response{}, errors.Wrap(err, "updating grade")
	}
	if n == 0 {
		return submission.Response{}, submission.ErrNotFound
	}
	return repo.unboil(row), nil
}

func (repo submissionRepository) QueryResponses(ctx context.Context, filter submission.QueryFilter, exec ...core.DBExecutor) ([]submission.Response, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AssignmentID != 0 {
		conds = append(conds, "assignment_id = ?")
		args = append(args, filter.AssignmentID)
	}
	if filter.StudentID != 0 {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	q := "SELECT " + responseColumns + " FROM responses"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id"

	var rows []responseRow
	if err := repo.selectAll(ctx, exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	responses := make([]submission.Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, repo.unboil(row))
	}
	return responses, nil
}

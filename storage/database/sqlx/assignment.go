package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
)

const (
	assignmentColumns = "id, title, subject, teacher_id, class_id, due_date, assignment_type, created_at"
	questionColumns   = "id, assignment_id, position, question_text, options, correct_answer, marks"
)

type (
	assignmentRow struct {
		ID        int        `db:"id"`
		Title     string     `db:"title"`
		Subject   string     `db:"subject"`
		TeacherID int        `db:"teacher_id"`
		ClassID   int        `db:"class_id"`
		DueDate   null.Int64 `db:"due_date"`
		Type      string     `db:"assignment_type"`
		CreatedAt int64      `db:"created_at"`
	}

	questionRow struct {
		ID            int         `db:"id"`
		AssignmentID  int         `db:"assignment_id"`
		Position      int         `db:"position"`
		Text          string      `db:"question_text"`
		Options       null.String `db:"options"`
		CorrectAnswer null.String `db:"correct_answer"`
		Marks         int         `db:"marks"`
	}
)

type assignmentRepository struct {
	repository
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{repository{exec: exec}}
}

func (repo assignmentRepository) unboilAssignment(row assignmentRow) assignment.Assignment {
	return assignment.Assignment{
		ID:        row.ID,
		Title:     row.Title,
		Subject:   row.Subject,
		TeacherID: row.TeacherID,
		ClassID:   row.ClassID,
		DueDate:   nullUnixPtr(row.DueDate),
		Type:      assignment.Type(row.Type),
		CreatedAt: fromUnix(row.CreatedAt),
	}
}

// boilQuestion encodes the options as a JSON array. Questions without options store NULL.
func (repo assignmentRepository) boilQuestion(q assignment.Question) (questionRow, error) {
	row := questionRow{
		ID:            q.ID,
		AssignmentID:  q.AssignmentID,
		Position:      q.Position,
		Text:          q.Text,
		CorrectAnswer: null.StringFromPtr(q.CorrectAnswer),
		Marks:         q.Marks,
	}
	switch {
	case len(q.Options) > 0:
		b, err := json.Marshal(q.Options)
		if err != nil {
			return questionRow{}, errors.Wrap(err, "encoding options")
		}
		row.Options = null.StringFrom(string(b))
	case strings.TrimSpace(q.RawOptions) != "":
		row.Options = null.StringFrom(q.RawOptions)
	}
	return row, nil
}

func (repo assignmentRepository) unboilQuestion(row questionRow) assignment.Question {
	return assignment.Question{
		ID:            row.ID,
		AssignmentID:  row.AssignmentID,
		Position:      row.Position,
		Text:          row.Text,
		CorrectAnswer: row.CorrectAnswer.Ptr(),
		Marks:         row.Marks,
		RawOptions:    row.Options.String,
	}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	id, err := repo.insert(ctx, exec,
		`INSERT INTO assignments (title, subject, teacher_id, class_id, due_date, assignment_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Subject, a.TeacherID, a.ClassID, nullUnix(a.DueDate), string(a.Type), toUnix(a.CreatedAt))
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	a.ID = id
	return a, nil
}

func (repo assignmentRepository) CreateQuestion(ctx context.Context, q assignment.Question, exec ...core.DBExecutor) (assignment.Question, error) {
	row, err := repo.boilQuestion(q)
	if err != nil {
		return assignment.Question{}, err
	}
	id, err := repo.insert(ctx, exec,
		`INSERT INTO questions (assignment_id, position, question_text, options, correct_answer, marks)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row.AssignmentID, row.Position, row.Text, row.Options, row.CorrectAnswer, row.Marks)
	if err != nil {
		return assignment.Question{}, errors.Wrap(err, "inserting question")
	}
	q.ID = id
	q.RawOptions = row.Options.String
	return q, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.get(ctx, exec, &row, "SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment by ID")
	}
	return repo.unboilAssignment(row), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ClassID != 0 {
		conds = append(conds, "class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != 0 {
		conds = append(conds, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}

	q := "SELECT " + assignmentColumns + " FROM assignments"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	var rows []assignmentRow
	if err := repo.selectAll(ctx, exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgmts := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgmts = append(asgmts, repo.unboilAssignment(row))
	}
	return asgmts, nil
}

func (repo assignmentRepository) GetQuestionByID(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Question, error) {
	var row questionRow
	if err := repo.get(ctx, exec, &row, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id); err != nil {
		return assignment.Question{}, trapNoRowsErr(err, assignment.ErrQuestionNotFound, "finding question by ID")
	}
	return repo.unboilQuestion(row), nil
}

func (repo assignmentRepository) QueryQuestions(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]assignment.Question, error) {
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM questions WHERE assignment_id = ? ORDER BY position, id"
	if err := repo.selectAll(ctx, exec, &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]assignment.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, repo.unboilQuestion(row))
	}
	return questions, nil
}

package submission

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/roster"
)

var (
	// errors
	ErrNotFound        = core.NewError(core.ErrNotFound, "response not found")
	ErrForeignQuestion = core.NewError(core.ErrBadRequest, "question does not belong to the assignment")
	ErrInvalidStatus   = core.NewError(core.ErrBadRequest, "invalid status")
	ErrNotInClass      = core.NewError(core.ErrForbidden, "student is not in the class of the assignment")
	ErrDuplicateUpload = core.NewError(core.ErrBadRequest, "duplicate file name")
	ErrInvalidFileName = core.NewError(core.ErrBadRequest, "invalid file name")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateResponse(ctx context.Context, r Response, exec ...core.DBExecutor) (Response, error)
		GetResponseByID(ctx context.Context, id int, exec ...core.DBExecutor) (Response, error)
		// UpdateGrade persists the grading fields of r: obtained marks, reviewed_by_ai, feedback, status and graded_at.
		UpdateGrade(ctx context.Context, r Response, exec ...core.DBExecutor) (Response, error)
		QueryResponses(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Response, error)
	}

	Service struct {
		db          core.DB
		repo        Repository
		assignments assignment.Repository
		roster      roster.Repository
		blobs       core.BlobStore
		validator   *core.Validator
	}
)

func NewService(
	db core.DB,
	repo Repository,
	assignments assignment.Repository,
	rosterRepo roster.Repository,
	blobs core.BlobStore,
	validator *core.Validator,
) *Service {
	return &Service{
		db:          db,
		repo:        repo,
		assignments: assignments,
		roster:      rosterRepo,
		blobs:       blobs,
		validator:   validator,
	}
}

// Submit stores the uploaded files and records one ungraded Response per entry.
// Submitting again appends new responses.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission, files []File) ([]Response, error) {
	if err := svc.validator.Struct(&ns); err != nil {
		return nil, err
	}

	asgmt, err := svc.assignments.GetAssignmentByID(ctx, ns.AssignmentID)
	if err != nil {
		return nil, err
	}
	student, err := svc.roster.GetStudentByID(ctx, ns.StudentID)
	if err != nil {
		return nil, err
	}
	if student.ClassID != asgmt.ClassID {
		return nil, ErrNotInClass
	}

	questions, err := svc.assignments.QueryQuestions(ctx, asgmt.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[int]bool, len(questions))
	for _, q := range questions {
		owned[q.ID] = true
	}
	for _, e := range ns.Entries {
		if !owned[e.QuestionID] {
			return nil, ErrForeignQuestion
		}
	}

	locations, err := svc.storeFiles(ctx, asgmt.ID, student.ID, files)
	if err != nil {
		return nil, err
	}

	now := nowFunc().UTC()
	responses := make([]Response, 0, len(ns.Entries))
	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		for _, e := range ns.Entries {
			resp := Response{
				AssignmentID: asgmt.ID,
				QuestionID:   e.QuestionID,
				StudentID:    student.ID,
				Response:     e.Response,
				Status:       StatusUngraded,
				SubmittedAt:  now,
			}
			// unknown file names resolve to no file
			if loc, ok := locations[e.FileName]; ok && e.FileName != "" {
				resp.FileURL = &loc
			}

			created, err := svc.repo.CreateResponse(ctx, resp, exec)
			if err != nil {
				return errors.Wrap(err, "creating response")
			}
			responses = append(responses, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// storeFiles stores files under "<assignment>/<student>/<name>" and maps each name to its location.
func (svc *Service) storeFiles(ctx context.Context, assignmentID, studentID int, files []File) (map[string]string, error) {
	locations := make(map[string]string, len(files))
	stored := make(map[string]bool, len(files)) // by blob name
	for _, f := range files {
		name := path.Base(path.Clean("/" + f.Name))
		if name == "/" || name == "." {
			return nil, ErrInvalidFileName
		}
		if stored[name] {
			return nil, ErrDuplicateUpload
		}
		stored[name] = true

		loc, err := svc.blobs.Put(ctx, fmt.Sprintf("%d/%d/%s", assignmentID, studentID, name), f.Content)
		if err != nil {
			return nil, errors.Wrapf(err, "storing file %q", f.Name)
		}
		locations[f.Name] = loc
	}
	return locations, nil
}

// Grade sets the marks of a response by hand.
func (svc *Service) Grade(ctx context.Context, responseID int, mg ManualGrade) (Response, error) {
	if err := svc.validator.Struct(&mg); err != nil {
		return Response{}, err
	}

	resp, err := svc.repo.GetResponseByID(ctx, responseID)
	if err != nil {
		return Response{}, err
	}
	q, err := svc.assignments.GetQuestionByID(ctx, resp.QuestionID)
	if err != nil {
		return Response{}, err
	}

	marks := *mg.ObtainedMarks
	if marks < 0 || marks > q.Marks {
		return Response{}, core.NewValidationError(nil, core.FieldError{
			Field: "obtained_marks",
			Error: fmt.Sprintf("obtained marks must be between 0 and %d", q.Marks),
		})
	}

	gradedAt := nowFunc().UTC()
	resp.ObtainedMarks = &marks
	resp.ReviewedByAI = false
	resp.Feedback = core.CleanString(mg.Feedback)
	resp.Status = StatusManuallyGraded
	resp.GradedAt = &gradedAt
	return svc.repo.UpdateGrade(ctx, resp)
}

func (svc *Service) Get(ctx context.Context, responseID int) (Response, error) {
	return svc.repo.GetResponseByID(ctx, responseID)
}

// QueryByAssignment lists the responses of an assignment, optionally restricted to one status.
func (svc *Service) QueryByAssignment(ctx context.Context, assignmentID int, status Status) ([]Response, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := svc.assignments.GetAssignmentByID(ctx, assignmentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryResponses(ctx, QueryFilter{AssignmentID: assignmentID, Status: status})
}

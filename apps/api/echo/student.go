package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
)

const filesField = "files"

var errMultipartRequired = errors.New("a multipart form is required")

type studentApi struct {
	roster      *roster.Service
	assignments *assignment.Service
	submissions *submission.Service
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	rosterSvc *roster.Service,
	asgmtSvc *assignment.Service,
	subSvc *submission.Service,
) {
	api := studentApi{roster: rosterSvc, assignments: asgmtSvc, submissions: subSvc}

	sg := g.Group("/students", jwt, roleMiddleware(user.RoleStudent))
	sg.GET("/:user_id/assignments", api.queryAssignments, selfMiddleware("user_id"))
	sg.GET("/assignments/:id/questions", api.queryQuestions)
	sg.POST("/responses", api.submit)
}

// Handlers

func (api *studentApi) queryAssignments(ctx echo.Context) error {
	userID, err := intParam(ctx, "user_id")
	if err != nil {
		return err
	}
	asgmts, err := api.assignments.QueryForStudent(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgmts == nil {
		asgmts = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgmts)
}

func (api *studentApi) queryQuestions(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	student, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	asgmt, err := api.assignments.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	if asgmt.ClassID != student.ClassID {
		return errHttpForbidden
	}

	questions, err := api.assignments.Questions(ctx.Request().Context(), asgmt.ID)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, newQuestionView(q))
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *studentApi) submit(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return core.NewValidationError(errMultipartRequired)
	}
	student, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}

	var flds []core.FieldError
	var ns submission.NewSubmission
	if ns.AssignmentID, err = strconv.Atoi(ctx.FormValue("assignment_id")); err != nil {
		flds = append(flds, core.FieldError{Field: "assignment_id", Error: "assignment_id must be an integer"})
	}
	if raw := ctx.FormValue("student_id"); raw == "" {
		ns.StudentID = student.ID
	} else if ns.StudentID, err = strconv.Atoi(raw); err != nil {
		flds = append(flds, core.FieldError{Field: "student_id", Error: "student_id must be an integer"})
	}
	if err = json.Unmarshal([]byte(ctx.FormValue("responses")), &ns.Entries); err != nil {
		flds = append(flds, core.FieldError{Field: "responses", Error: "responses must be a JSON array"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	// students submit for themselves only
	if ns.StudentID != student.ID {
		return errHttpForbidden
	}

	files := make([]submission.File, 0, len(form.File[filesField]))
	for _, fh := range form.File[filesField] {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		files = append(files, submission.File{Name: fh.Filename, Content: f})
	}

	responses, err := api.submissions.Submit(ctx.Request().Context(), ns, files)
	if err != nil {
		return errors.Wrap(err, "submitting responses")
	}
	return ctx.JSON(http.StatusCreated, SubmittedResponse{
		Message:   "Responses submitted successfully",
		Responses: responses,
	})
}

// Helpers

func (api *studentApi) contextStudent(ctx echo.Context) (roster.StudentProfile, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return roster.StudentProfile{}, errors.Wrap(err, "getting context claims")
	}
	student, err := api.roster.StudentByUser(ctx.Request().Context(), claims.UserID)
	if err != nil {
		if err == roster.ErrStudentNotFound { // role not assigned yet
			return roster.StudentProfile{}, errHttpForbidden
		}
		return roster.StudentProfile{}, errors.Wrap(err, "finding student")
	}
	return student, nil
}

type (
	// QuestionView is a question as shown to students, without its correct answer.
	QuestionView struct {
		ID           int      `json:"id"`
		AssignmentID int      `json:"assignment_id"`
		Position     int      `json:"position"`
		Text         string   `json:"question_text"`
		Options      []string `json:"options"`
		Marks        int      `json:"marks"`
	}

	SubmittedResponse struct {
		Message   string                `json:"message"`
		Responses []submission.Response `json:"responses"`
	}
)

func newQuestionView(q assignment.Question) QuestionView {
	return QuestionView{
		ID:           q.ID,
		AssignmentID: q.AssignmentID,
		Position:     q.Position,
		Text:         q.Text,
		Options:      q.Options,
		Marks:        q.Marks,
	}
}

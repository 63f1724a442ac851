package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/grading"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
)

type teacherApi struct {
	roster      *roster.Service
	assignments *assignment.Service
	submissions *submission.Service
	grader      *grading.Engine
}

func registerTeacherAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	rosterSvc *roster.Service,
	asgmtSvc *assignment.Service,
	subSvc *submission.Service,
	grader *grading.Engine,
) {
	api := teacherApi{
		roster:      rosterSvc,
		assignments: asgmtSvc,
		submissions: subSvc,
		grader:      grader,
	}

	tg := g.Group("/teachers", jwt, roleMiddleware(user.RoleTeacher))
	tg.POST("/generate-questions", api.generateQuestions)
	tg.GET("/class-id", api.classID)
	tg.POST("/assignments", api.createAssignment)
	tg.GET("/:teacher_id/assignments", api.queryAssignments)
	tg.GET("/assignments/:id/responses", api.queryResponses)
	tg.POST("/assignments/:id/evaluate", api.evaluateAssignment)
	tg.POST("/responses/:id/evaluate", api.evaluateResponse)
	tg.PUT("/responses/:id/grade", api.gradeResponse)
}

// Handlers

func (api *teacherApi) generateQuestions(ctx echo.Context) error {
	var data assignment.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}

	raw, err := api.assignments.GenerateQuestions(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating questions")
	}
	return ctx.JSON(http.StatusOK, GeneratedQuestionsResponse{Questions: raw})
}

func (api *teacherApi) classID(ctx echo.Context) error {
	id, err := api.roster.GetClassID(ctx.Request().Context(), ctx.QueryParam("grade"), ctx.QueryParam("section"))
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	return ctx.JSON(http.StatusOK, ClassIDResponse{ClassID: id})
}

func (api *teacherApi) createAssignment(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	teacher, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	// teachers post their own assignments only
	if data.TeacherID == 0 {
		data.TeacherID = teacher.ID
	} else if data.TeacherID != teacher.ID {
		return errHttpForbidden
	}

	asgmt, err := api.assignments.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, AssignmentCreatedResponse{
		Message:    "Assignment successfully posted",
		Assignment: asgmt,
	})
}

func (api *teacherApi) queryAssignments(ctx echo.Context) error {
	teacherID, err := intParam(ctx, "teacher_id")
	if err != nil {
		return err
	}
	teacher, err := api.contextTeacher(ctx)
	if err != nil {
		return err
	}
	if teacherID != teacher.ID {
		return errHttpForbidden
	}

	asgmts, err := api.assignments.QueryForTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgmts == nil {
		asgmts = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgmts)
}

func (api *teacherApi) queryResponses(ctx echo.Context) error {
	asgmt, err := api.ownAssignment(ctx, "id")
	if err != nil {
		return err
	}

	status := submission.Status(ctx.QueryParam("status"))
	responses, err := api.submissions.QueryByAssignment(ctx.Request().Context(), asgmt.ID, status)
	if err != nil {
		return errors.Wrap(err, "querying responses")
	}
	if responses == nil {
		responses = []submission.Response{}
	}
	return ctx.JSON(http.StatusOK, responses)
}

func (api *teacherApi) evaluateAssignment(ctx echo.Context) error {
	asgmt, err := api.ownAssignment(ctx, "id")
	if err != nil {
		return err
	}

	graded, err := api.grader.EvaluateAssignment(ctx.Request().Context(), asgmt.ID)
	if err != nil {
		return errors.Wrap(err, "evaluating assignment")
	}
	if graded == nil {
		graded = []submission.Response{}
	}
	return ctx.JSON(http.StatusOK, graded)
}

func (api *teacherApi) evaluateResponse(ctx echo.Context) error {
	resp, err := api.ownResponse(ctx)
	if err != nil {
		return err
	}

	graded, err := api.grader.Evaluate(ctx.Request().Context(), resp.ID)
	if err != nil {
		return errors.Wrap(err, "evaluating response")
	}
	return ctx.JSON(http.StatusOK, graded)
}

func (api *teacherApi) gradeResponse(ctx echo.Context) error {
	resp, err := api.ownResponse(ctx)
	if err != nil {
		return err
	}

	var data submission.ManualGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualGrade")
	}
	graded, err := api.submissions.Grade(ctx.Request().Context(), resp.ID, data)
	if err != nil {
		return errors.Wrap(err, "grading response")
	}
	return ctx.JSON(http.StatusOK, graded)
}

// Helpers

func (api *teacherApi) contextTeacher(ctx echo.Context) (roster.TeacherProfile, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return roster.TeacherProfile{}, errors.Wrap(err, "getting context claims")
	}
	teacher, err := api.roster.TeacherMeta(ctx.Request().Context(), claims.UserID)
	if err != nil {
		if err == roster.ErrTeacherNotFound { // role not assigned yet
			return roster.TeacherProfile{}, errHttpForbidden
		}
		return roster.TeacherProfile{}, errors.Wrap(err, "finding teacher")
	}
	return teacher, nil
}

// ownAssignment loads the assignment of the path param and checks that the context teacher posted it.
func (api *teacherApi) ownAssignment(ctx echo.Context, param string) (assignment.Assignment, error) {
	id, err := intParam(ctx, param)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return api.checkOwner(ctx, id)
}

func (api *teacherApi) ownResponse(ctx echo.Context) (submission.Response, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return submission.Response{}, err
	}
	resp, err := api.submissions.Get(ctx.Request().Context(), id)
	if err != nil {
		return submission.Response{}, errors.Wrap(err, "finding response")
	}
	if _, err = api.checkOwner(ctx, resp.AssignmentID); err != nil {
		return submission.Response{}, err
	}
	return resp, nil
}

func (api *teacherApi) checkOwner(ctx echo.Context, assignmentID int) (assignment.Assignment, error) {
	teacher, err := api.contextTeacher(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}
	asgmt, err := api.assignments.Get(ctx.Request().Context(), assignmentID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	if asgmt.TeacherID != teacher.ID {
		return assignment.Assignment{}, errHttpForbidden
	}
	return asgmt, nil
}

type (
	GeneratedQuestionsResponse struct {
		Questions string `json:"questions"` // verbatim output of the generation service
	}

	ClassIDResponse struct {
		ClassID int `json:"class_id"`
	}

	AssignmentCreatedResponse struct {
		Message    string                `json:"message"`
		Assignment assignment.Assignment `json:"assignment"`
	}
)

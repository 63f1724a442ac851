package echoapi_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/smartclassroom/backend/apps/api/echo"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
	"github.com/smartclassroom/backend/testutil"
)

// submitForm posts a multipart submission. files maps file names to contents.
func (app testApp) submitForm(t *testing.T, token string, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/responses", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func Test_studentApi_queryAssignments(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.school.StudentUser)
	asgmt, _ := testutil.CreateAssignment(t, app.repos.Assignments, app.school.Teacher.ID, app.school.Class.ID, assignment.TypeFile,
		assignment.Question{Text: "Upload your map"})
	otherClass := testutil.CreateClass(t, app.repos.Roster, "11", "B")
	testutil.CreateAssignment(t, app.repos.Assignments, app.school.Teacher.ID, otherClass.ID, assignment.TypeFile,
		assignment.Question{Text: "Upload your drawing"})

	tests := []httpTest{
		{
			name: "own", path: "/api/students/" + itoa(app.school.StudentUser.ID) + "/assignments", token: token,
			wantCode: http.StatusOK, wantData: marshalObj(t, []assignment.Assignment{asgmt}),
		},
		{name: "someone else's", path: "/api/students/" + itoa(app.school.TeacherUser.ID) + "/assignments", token: token, wantCode: http.StatusForbidden},
		{
			name: "teachers", path: "/api/students/" + itoa(app.school.TeacherUser.ID) + "/assignments",
			token: app.token(t, app.school.TeacherUser), wantCode: http.StatusForbidden,
		},
	}
	runHttpTests(t, app, tests)
}

func Test_studentApi_queryQuestions(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.school.StudentUser)
	asgmt, qs := testutil.CreateAssignment(t, app.repos.Assignments, app.school.Teacher.ID, app.school.Class.ID, assignment.TypeMCQ,
		assignment.Question{Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: testutil.StrPtr("Paris"), Marks: 2},
		assignment.Question{Text: "Capital of Italy?", Options: []string{"Rome", "Milan"}, CorrectAnswer: testutil.StrPtr("Rome"), Marks: 3},
	)
	otherClass := testutil.CreateClass(t, app.repos.Roster, "11", "B")
	foreign, _ := testutil.CreateAssignment(t, app.repos.Assignments, app.school.Teacher.ID, otherClass.ID, assignment.TypeFile,
		assignment.Question{Text: "Upload your drawing"})

	rec := app.run(http.MethodGet, "/api/students/assignments/"+itoa(asgmt.ID)+"/questions", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var raw []map[string]interface{}
	unmarshal(t, rec, &raw)
	require.Len(t, raw, 2)
	for _, q := range raw {
		assert.NotContains(t, q, "correct_answer")
	}
	var views []echoapi.QuestionView
	unmarshal(t, rec, &views)
	assert.Equal(t, qs[0].ID, views[0].ID)
	assert.Equal(t, []string{"Paris", "Lyon"}, views[0].Options)
	assert.Equal(t, 3, views[1].Marks)

	tests := []httpTest{
		{name: "other class", path: "/api/students/assignments/" + itoa(foreign.ID) + "/questions", token: token, wantCode: http.StatusForbidden},
		{name: "unknown", path: "/api/students/assignments/999/questions", token: token, wantCode: http.StatusNotFound},
	}
	runHttpTests(t, app, tests)
}

func Test_studentApi_submit(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.school.StudentUser)
	asgmt, qs := testutil.CreateAssignment(t, app.repos.Assignments, app.school.Teacher.ID, app.school.Class.ID, assignment.TypeFile,
		assignment.Question{Text: "Upload your essay", Marks: 10},
		assignment.Question{Text: "Any comment?", Marks: 1},
	)
	entries := fmt.Sprintf(`[{"question_id": %d, "file_name": "essay.pdf"}, {"question_id": %d, "response": "Loved it"}]`, qs[0].ID, qs[1].ID)

	rec := app.submitForm(t, token, map[string]string{
		"assignment_id": itoa(asgmt.ID),
		"student_id":    itoa(app.school.Student.ID),
		"responses":     entries,
	}, map[string]string{"essay.pdf": "%PDF-1.4"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted echoapi.SubmittedResponse
	unmarshal(t, rec, &submitted)
	assert.Equal(t, "Responses submitted successfully", submitted.Message)
	require.Len(t, submitted.Responses, 2)

	key := fmt.Sprintf("%d/%d/essay.pdf", asgmt.ID, app.school.Student.ID)
	assert.Equal(t, "mem://"+key, *submitted.Responses[0].FileURL)
	assert.Equal(t, []byte("%PDF-1.4"), app.blobs.Blobs[key])
	assert.Equal(t, "Loved it", *submitted.Responses[1].Response)
	assert.Equal(t, submission.StatusUngraded, submitted.Responses[1].Status)

	// student_id defaults to the caller
	rec = app.submitForm(t, token, map[string]string{"assignment_id": itoa(asgmt.ID), "responses": entries}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	mark := testutil.CreateUser(t, app.repos.Users, "mark", "mark@example.com", testutil.Password, user.RoleStudent)
	tests := []struct {
		name     string
		token    string
		fields   map[string]string
		wantCode int
		wantData []byte
	}{
		{
			name:     "bad fields",
			token:    token,
			fields:   map[string]string{"assignment_id": "x", "responses": "{"},
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"assignment_id": "assignment_id must be an integer",
				"responses":     "responses must be a JSON array",
			}),
		},
		{
			name:     "for someone else",
			token:    token,
			fields:   map[string]string{"assignment_id": itoa(asgmt.ID), "student_id": "999", "responses": entries},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unassigned student",
			token:    app.token(t, mark),
			fields:   map[string]string{"assignment_id": itoa(asgmt.ID), "responses": entries},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unknown assignment",
			token:    token,
			fields:   map[string]string{"assignment_id": "999", "responses": entries},
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "assignment not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, app.submitForm(t, tt.token, tt.fields, nil))
		})
	}

	rec = app.run(http.MethodPost, "/api/students/responses", token, []byte(`{"assignment_id": 1}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, httpErr{Error: "a multipart form is required"}),
	}, rec)
}

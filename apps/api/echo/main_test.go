package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	echoapi "github.com/smartclassroom/backend/apps/api/echo"
	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/grading"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
	appfs "github.com/smartclassroom/backend/fs"
	emailsvc "github.com/smartclassroom/backend/services/email"
	"github.com/smartclassroom/backend/storage/session"
	"github.com/smartclassroom/backend/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server  *echoapi.Server
	tokens  *echoapi.Tokenizer
	repos   testutil.Repos
	school  testutil.School
	gateway *testutil.FakeGateway
	blobs   *testutil.MemBlobStore
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	conf, db, repos := testutil.Setup(t)
	logger := testutil.NewLogger(conf, nil)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger)

	sessions, err := session.Open(conf.Sessions.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	validator := core.NewValidator()
	gw := &testutil.FakeGateway{Reply: "Hello!"}
	blobs := &testutil.MemBlobStore{}

	server := echoapi.NewServer(echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		UserSvc:        user.NewService(conf, repos.Users, validator, emailsvc.NewConsoleServiceMock(conf, logger)),
		RosterSvc:      roster.NewService(db, repos.Roster, repos.Users, validator),
		AssignmentSvc:  assignment.NewService(conf, db, repos.Assignments, repos.Roster, gw, validator),
		SubmissionSvc:  submission.NewService(db, repos.Submissions, repos.Assignments, repos.Roster, blobs, validator),
		Grader:         grading.NewEngine(repos.Submissions, repos.Assignments, gw),
		ChatSvc:        chat.NewService(sessions, gw, validator),
	})

	return testApp{
		server:  server,
		tokens:  echoapi.NewTokenizer(conf),
		repos:   repos,
		school:  testutil.NewSchool(t, repos),
		gateway: gw,
		blobs:   blobs,
	}
}

func (app testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.tokens.GenerateToken(usr)
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return token
}

// run serves the request and returns the recorded response.
func (app testApp) run(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, app.run(method, tt.path, tt.token, tt.body))
		})
	}
}

func itoa(i int) string { return strconv.Itoa(i) }

func ctx() context.Context { return context.Background() }

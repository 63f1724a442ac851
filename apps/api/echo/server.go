package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/grading"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc       *user.Service
		RosterSvc     *roster.Service
		AssignmentSvc *assignment.Service
		SubmissionSvc *submission.Service
		Grader        *grading.Engine
		ChatSvc       *chat.Service
	}

	Server struct {
		opts   Options
		app    *echo.Echo
		tokens *Tokenizer
	}
)

func NewServer(opts Options) *Server {
	s := &Server{
		opts:   opts,
		app:    echo.New(),
		tokens: NewTokenizer(opts.Conf),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.CORSOrigins}))
	s.app.Use(middleware.BodyLimit(conf.Server.MaxUploadSize))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	jwt := s.tokens.middleware()

	registerUserAPI(g, jwt, s.tokens, s.opts.UserSvc, s.opts.RosterSvc)
	registerAdminAPI(g, jwt, s.opts.RosterSvc)
	registerTeacherAPI(g, jwt, s.opts.RosterSvc, s.opts.AssignmentSvc, s.opts.SubmissionSvc, s.opts.Grader)
	registerStudentAPI(g, jwt, s.opts.RosterSvc, s.opts.AssignmentSvc, s.opts.SubmissionSvc)
	registerChatAPI(g, jwt, s.opts.ChatSvc)
}

// Start blocks until the server stops. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Smart Classroom API!")
}

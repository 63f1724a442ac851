package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/smartclassroom/backend/apps/api/echo"
	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/grading"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
	emailsvc "github.com/smartclassroom/backend/services/email"
	genaisvc "github.com/smartclassroom/backend/services/genai"
	logsvc "github.com/smartclassroom/backend/services/logger"
	"github.com/smartclassroom/backend/storage/blob"
	"github.com/smartclassroom/backend/storage/database"
	sqlxrepos "github.com/smartclassroom/backend/storage/database/sqlx"
	"github.com/smartclassroom/backend/storage/session"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	UserSvc       *user.Service
	RosterSvc     *roster.Service
	AssignmentSvc *assignment.Service
	SubmissionSvc *submission.Service
	Grader        *grading.Engine
	ChatSvc       *chat.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(context.Background(), db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newGateway(conf *core.Config, logger core.Logger) (genai.Gateway, genai.Converser, error) {
	gw, err := genaisvc.New(context.Background(), conf, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating generation gateway")
	}
	return gw, gw, nil
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	return blob.New(context.Background(), conf)
}

func newSessionStore(conf *core.Config) (*session.BoltStore, chat.SessionStore, error) {
	store, err := session.Open(conf.Sessions.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Options{
		Conf:          p.Conf,
		Logger:        p.Logger,
		UserSvc:       p.UserSvc,
		RosterSvc:     p.RosterSvc,
		AssignmentSvc: p.AssignmentSvc,
		SubmissionSvc: p.SubmissionSvc,
		Grader:        p.Grader,
		ChatSvc:       p.ChatSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.New))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newGateway))
	must(c.Provide(newBlobStore))
	must(c.Provide(newSessionStore))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewRosterRepository, dig.As(new(roster.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewSubmissionRepository, dig.As(new(submission.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(roster.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(submission.NewService))
	must(c.Provide(grading.NewEngine))
	must(c.Provide(chat.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

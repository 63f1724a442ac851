package main

import (
	"log"
	"os"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
	appfs "github.com/smartclassroom/backend/fs"
	emailsvc "github.com/smartclassroom/backend/services/email"
	logsvc "github.com/smartclassroom/backend/services/logger"
	"github.com/smartclassroom/backend/storage/database"
	sqlxrepos "github.com/smartclassroom/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(conf.RollbarToken != "" && !conf.Debug)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, appLogger)

	validator := core.NewValidator()
	usrRepo := sqlxrepos.NewUserRepository(db)

	// start CLI
	cli := commandLine{
		db:        db,
		usrSvc:    user.NewService(conf, usrRepo, validator, emailsvc.New(conf, appLogger)),
		rosterSvc: roster.NewService(db, sqlxrepos.NewRosterRepository(db), usrRepo, validator),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

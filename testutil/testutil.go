// Package testutil provides a migrated SQLite database, fixtures and fakes for tests.
package testutil

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
	logsvc "github.com/smartclassroom/backend/services/logger"
	"github.com/smartclassroom/backend/storage/database"
	sqlxrepos "github.com/smartclassroom/backend/storage/database/sqlx"
)

// Repos bundles the repositories over one database.
type Repos struct {
	Users       user.Repository
	Roster      roster.Repository
	Assignments assignment.Repository
	Submissions submission.Repository
}

func NewRepos(db core.DBExecutor) Repos {
	return Repos{
		Users:       sqlxrepos.NewUserRepository(db),
		Roster:      sqlxrepos.NewRosterRepository(db),
		Assignments: sqlxrepos.NewAssignmentRepository(db),
		Submissions: sqlxrepos.NewSubmissionRepository(db),
	}
}

// NewConfig returns the test configuration on a SQLite file in a temporary directory.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Database.Engine = "sqlite"
	conf.Database.Name = filepath.Join(t.TempDir(), "test.db")
	conf.Storage.Driver = "fs"
	conf.Storage.BasePath = filepath.Join(t.TempDir(), "uploads")
	conf.Sessions.Path = filepath.Join(t.TempDir(), "sessions.db")
	conf.GenAI.APIKey = ""
	return conf
}

// PrepareDB opens the database of conf and applies all migrations. It is closed when the test ends.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// Setup is PrepareDB on a fresh test configuration.
func Setup(t *testing.T) (*core.Config, *sqlx.DB, Repos) {
	t.Helper()
	conf := NewConfig(t)
	db := PrepareDB(t, conf)
	return conf, db, NewRepos(db)
}

// NewLogger returns a logger writing to buf, or discarding output if buf is nil.
func NewLogger(conf *core.Config, buf *bytes.Buffer) core.Logger {
	if buf == nil {
		buf = new(bytes.Buffer)
	}
	return logsvc.NewRollbarLogger(log.New(buf, "", 0), conf)
}

func CreateUser(t *testing.T, repo user.Repository, uname, email, pwd string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Second)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo roster.Repository, grade, section string) roster.Class {
	t.Helper()
	class, err := repo.CreateClass(context.Background(), roster.Class{Grade: grade, Section: section, Capacity: 30})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func CreateProfile(t *testing.T, repo roster.Repository, p roster.Profile) roster.Profile {
	t.Helper()
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	teacherID, classID int,
	typ assignment.Type,
	questions ...assignment.Question,
) (assignment.Assignment, []assignment.Question) {
	t.Helper()
	ctx := context.Background()
	asgmt, err := repo.CreateAssignment(ctx, assignment.Assignment{
		Title:     "Homework",
		Subject:   "Science",
		TeacherID: teacherID,
		ClassID:   classID,
		Type:      typ,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}

	created := make([]assignment.Question, 0, len(questions))
	for i, q := range questions {
		q.AssignmentID = asgmt.ID
		q.Position = i + 1
		if q.Marks == 0 {
			q.Marks = 5
		}
		q, err = repo.CreateQuestion(ctx, q)
		if err != nil {
			t.Fatalf("CreateAssignment() failed: %v", err)
		}
		created = append(created, q)
	}
	return asgmt, created
}

// School is a small populated roster: one class with a teacher, a student and an admin.
type School struct {
	Class       roster.Class
	Admin       user.User
	TeacherUser user.User
	Teacher     roster.TeacherProfile
	StudentUser user.User
	Student     roster.StudentProfile
}

const Password = "correct-horse-battery"

func NewSchool(t *testing.T, repos Repos) School {
	t.Helper()
	var s School
	s.Class = CreateClass(t, repos.Roster, "10", "A")

	s.Admin = CreateUser(t, repos.Users, "admin", "admin@example.com", Password, user.RoleAdmin)
	CreateProfile(t, repos.Roster, roster.AdminProfile{UserID: s.Admin.ID})

	s.TeacherUser = CreateUser(t, repos.Users, "mrsmith", "smith@example.com", Password, user.RoleTeacher)
	s.Teacher = CreateProfile(t, repos.Roster, roster.TeacherProfile{
		UserID:     s.TeacherUser.ID,
		Subject:    "Science",
		Department: "Sciences",
	}).(roster.TeacherProfile)

	s.StudentUser = CreateUser(t, repos.Users, "jane", "jane@example.com", Password, user.RoleStudent)
	s.Student = CreateProfile(t, repos.Roster, roster.StudentProfile{
		UserID:  s.StudentUser.ID,
		ClassID: s.Class.ID,
	}).(roster.StudentProfile)
	return s
}

func StrPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

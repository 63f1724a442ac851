package main

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
	appfs "github.com/smartclassroom/backend/fs"
	emailsvc "github.com/smartclassroom/backend/services/email"
	"github.com/smartclassroom/backend/testutil"
)

func setup(t *testing.T) (*commandLine, testutil.Repos) {
	logger = log.New(new(bytes.Buffer), "", 0)

	conf, db, repos := testutil.Setup(t)
	appLogger := testutil.NewLogger(conf, nil)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, appLogger)
	validator := core.NewValidator()

	return &commandLine{
		db:        db,
		usrSvc:    user.NewService(conf, repos.Users, validator, emailsvc.NewConsoleServiceMock(conf, appLogger)),
		rosterSvc: roster.NewService(db, repos.Roster, repos.Users, validator),
	}, repos
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := tt.pwd
		readPasswordFunc = func(int) ([]byte, error) {
			return []byte(pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)
	runCliTests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without command", args: []string{"migrate"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)
	defer func(fn func(context.Context, *sqlx.DB, string, ...string) error) { migrateFunc = fn }(migrateFunc)

	var gotCommand string
	var gotArgs []string
	migrateFunc = func(_ context.Context, db *sqlx.DB, command string, args ...string) error {
		assert.Equal(t, cli.db, db)
		gotCommand, gotArgs = command, args
		return nil
	}

	require.NoError(t, cli.run([]string{"admin", "migrate", "up-to", "2"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, []string{"2"}, gotArgs)

	require.NoError(t, cli.run([]string{"admin", "migrate", "status"}))
	assert.Equal(t, "status", gotCommand)
	assert.Empty(t, gotArgs)
}

func Test_commandLine_migrateVersion(t *testing.T) {
	cli, _ := setup(t)
	assert.NoError(t, cli.run([]string{"admin", "migrate", "version"}))
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repos := setup(t)
	ctx := context.Background()

	runCliTests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email missing", args: []string{"adduser", "-username", "peter"}, pwd: testutil.Password, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "peter", "-email", "peter@example.com"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-username", "peter", "-email", "peter@example.com"},
			pwd: "1234", wantErr: core.ErrBadRequest,
		},
		{
			name: "teacher", args: []string{"adduser", "-username", "peter", "-email", "peter@example.com", "-role", "teacher"},
			pwd: testutil.Password,
		},
		{
			name: "admin", args: []string{"adduser", "-username", "root", "-email", "root@example.com", "-admin"},
			pwd: testutil.Password,
		},
		{
			name: "duplicate", args: []string{"adduser", "-username", "peter", "-email", "other@example.com"},
			pwd: testutil.Password, wantErr: core.ErrConflict,
		},
	})

	peter, err := repos.Users.GetUserByEmail(ctx, "peter@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, peter.Role)
	assert.NoError(t, peter.CheckPassword(testutil.Password))
	// teachers wait for an admin to assign their profile
	_, err = repos.Roster.GetProfile(ctx, peter.ID)
	assert.Equal(t, roster.ErrProfileNotFound, err)

	root, err := repos.Users.GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, root.Role)
	p, err := repos.Roster.GetProfile(ctx, root.ID)
	require.NoError(t, err)
	assert.IsType(t, roster.AdminProfile{}, p)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "jane", "jane@example.com", testutil.Password, user.RoleStudent)
	newPwd := "quiet-river-lantern-42"

	runCliTests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@example.com"}, pwd: newPwd, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-email", usr.Email}, pwd: "jane", wantErr: core.ErrBadRequest},
		{name: "reset", args: []string{"resetpassword", "-email", " JANE@example.com"}, pwd: newPwd},
	})

	refreshed, err := repos.Users.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NotEqual(t, usr.PasswordHash, refreshed.PasswordHash)
	assert.NoError(t, refreshed.CheckPassword(newPwd))
}

func Test_commandLine_addClass(t *testing.T) {
	cli, repos := setup(t)

	runCliTests(t, cli, []cliTest{
		{name: "no args", args: []string{"addclass"}, wantErr: errHelp},
		{name: "section missing", args: []string{"addclass", "-grade", "10"}, wantErr: errHelp},
		{name: "class", args: []string{"addclass", "-grade", "10", "-section", "A", "-capacity", "30"}},
		{name: "duplicate", args: []string{"addclass", "-grade", "10", "-section", "A"}, wantErr: core.ErrConflict},
	})

	class, err := repos.Roster.GetClassByGradeAndSection(context.Background(), "10", "A")
	require.NoError(t, err)
	assert.Equal(t, 30, class.Capacity)
}

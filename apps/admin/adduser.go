package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/user"
)

// addUser registers a user. Admins also get their admin profile.
func (cli *commandLine) addUser(uname, email, pwd string, role user.Role) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.Register(ctx, user.NewUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	if err != nil {
		return err
	}
	if role == user.RoleAdmin {
		if _, err = cli.rosterSvc.CreateAdmin(ctx, usr.ID); err != nil {
			return errors.Wrap(err, "creating admin profile")
		}
	}
	logger.Printf("user %q created (id: %d, role: %s)\n", usr.Username, usr.ID, usr.Role)
	return nil
}

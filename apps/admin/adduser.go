package main

import (
	"context"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

// addUser updates or creates a user.User; the only way to mint an admin
// outside the public API.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()

	usr := user.User{
		Name:  core.CleanString(name),
		Email: core.CleanString(email, true /* lower */),
		Role:  user.RoleStudent,
	}
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err := usr.SetPassword(pwd, cli.conf.PasswordHashCost); err != nil {
		return err
	}

	_, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}

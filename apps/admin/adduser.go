package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

type newUserArgs struct {
	name, username, email, password string
	roles                           []string
}

// addUser creates the user, or updates the one already holding the username or the email.
// The given roles replace the existing ones only when some are given.
func (cli *commandLine) addUser(args newUserArgs) (err error) {
	args.username = core.CleanString(args.username, true /* lower */)
	args.email = core.CleanString(args.email, true /* lower */)
	args.name = core.CleanString(args.name)

	if err = vala.BeginValidation().Validate(
		vala.StringNotEmpty(args.username, "username"),
		vala.StringNotEmpty(args.email, "email"),
		vala.StringNotEmpty(args.password, "password"),
	).Check(); err != nil {
		return err
	}

	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: args.username})
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: args.email})
	}
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	}
	if err = cli.usrRepo.CheckUsernameUniqueness(ctx, args.username, args.email, usr); err != nil {
		return err
	}

	usr.Username = args.username
	usr.Email = args.email
	if args.name != "" {
		usr.Name = args.name
	}
	if args.roles != nil {
		usr.Roles = args.roles
	}
	usr.UpdatedAt = time.Now().UTC()
	usr.SetActive(true)
	if err = usr.SetPassword(args.password); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}

package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/assets"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
	emailsvc "github.com/trezcool/evaladmin/services/email"
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
	"github.com/trezcool/evaladmin/testutil"
)

type fixture struct {
	conf    *core.Config
	repo    user.Repository
	svc     user.Service
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	require.NoError(t, core.ParseEmailTemplates(assets.FS, conf, logger))

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		conf:    conf,
		repo:    repo,
		svc:     user.NewService(repo, mailSvc, conf),
		mailSvc: mailSvc,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	validate, _ := testutil.NewValidator()

	nu := user.NewUser{
		Name:            " Ada Admin ",
		Username:        "Ada",
		Email:           "ADA@test.cd",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
		Roles:           []string{user.RoleAdmin},
	}
	require.NoError(t, nu.Validate(ctx, validate, fx.svc))
	usr, err := fx.svc.Create(ctx, nu)
	require.NoError(t, err)
	assert.Equal(t, "Ada Admin", usr.Name)
	assert.Equal(t, "ada", usr.Username)
	assert.Equal(t, "ada@test.cd", usr.Email)
	assert.True(t, usr.Active())
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword("correct horse"))

	got, err := fx.svc.GetByUsernameOrEmail(ctx, " ADA@test.cd ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	dup := user.NewUser{Name: "Other", Username: "other", Email: "ada@test.cd", Password: "x", PasswordConfirm: "x"}
	err = dup.Validate(ctx, validate, fx.svc)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "email", verr.Fields[0].Field)

	assert.NoError(t, fx.svc.CheckUniqueness(ctx, "ada", "ada@test.cd", usr), "the user itself is excluded")
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	usr := testutil.CreateUser(t, fx.repo, "Ada", "ada", "ada@test.cd", "pwd", nil, true)

	got, err := fx.svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	_, err = fx.svc.GetByID(ctx, "not-a-uuid")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = fx.svc.GetByUsernameOrEmail(ctx, "  ")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_passwordReset(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	usr := testutil.CreateUser(t, fx.repo, "Ada", "ada", "ada@test.cd", "old", nil, true)
	inactive := testutil.CreateUser(t, fx.repo, "Ina", "ina", "ina@test.cd", "old", nil, false)

	t.Run("request", func(t *testing.T) {
		assert.Equal(t, user.ErrNotFound, fx.svc.RequestPasswordReset(ctx, "nobody@test.cd"))
		assert.Equal(t, user.ErrNotFound, fx.svc.RequestPasswordReset(ctx, inactive.Email))
		assert.Empty(t, fx.mailSvc.SentMessages())

		require.NoError(t, fx.svc.RequestPasswordReset(ctx, usr.Email))
		sent := fx.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ada@test.cd", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, fx.conf.BaseURL+"/password-reset/confirm?")
		assert.Contains(t, sent[0].TextContent, "uid="+user.EncodeUID(usr))
	})

	uid := user.EncodeUID(usr)
	token := user.MakeResetToken(fx.conf, usr)

	t.Run("check link", func(t *testing.T) {
		tests := []struct {
			name       string
			uid, token string
			wantErr    error
		}{
			{name: "garbage uid", uid: "!!", token: token, wantErr: user.ErrInvalidResetLink},
			{name: "bad token", uid: uid, token: "lol", wantErr: user.ErrInvalidResetLink},
			{name: "inactive user", uid: user.EncodeUID(inactive), token: user.MakeResetToken(fx.conf, inactive), wantErr: user.ErrInvalidResetLink},
			{name: "valid", uid: uid, token: token},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := fx.svc.CheckResetLink(ctx, tt.uid, tt.token)
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, usr.ID, got.ID)
			})
		}
	})

	t.Run("reset", func(t *testing.T) {
		data := user.ResetUserPassword{UID: uid, Token: token, Password: "new", PasswordConfirm: "new"}
		updated, err := fx.svc.ResetPassword(ctx, data)
		require.NoError(t, err)
		assert.NoError(t, updated.CheckPassword("new"))

		// the token is bound to the old password
		_, err = fx.svc.ResetPassword(ctx, data)
		assert.Equal(t, user.ErrInvalidResetLink, err)
	})
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	testutil.CreateUser(t, fx.repo, "Zoe Admin", "zoe", "zoe@test.cd", "", []string{user.RoleAdminSuper}, true)
	testutil.CreateUser(t, fx.repo, "Ian Instructor", "ian", "ian@test.cd", "", user.InstructorRoles, true)
	testutil.CreateUser(t, fx.repo, "Abe Admin", "abe", "abe@test.cd", "", []string{user.RoleAdmin}, false)

	usernames := func(users []user.User) []string {
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		return names
	}
	active := true

	tests := []struct {
		name     string
		filter   user.QueryFilter
		ordering string
		want     []string
	}{
		{name: "all by name", ordering: "name", want: []string{"abe", "ian", "zoe"}},
		{name: "descending username", ordering: "-username", want: []string{"zoe", "ian", "abe"}},
		{name: "search", filter: user.QueryFilter{Search: " ADMIN "}, ordering: "name", want: []string{"abe", "zoe"}},
		{name: "roles", filter: user.QueryFilter{Roles: []string{user.RoleAdmin}}, ordering: "username", want: []string{"abe", "zoe"}},
		{name: "active admins", filter: user.QueryFilter{Roles: []string{user.RoleAdmin}, IsActive: &active}, want: []string{"zoe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := fx.svc.Query(ctx, tt.filter, core.ParseOrderings(tt.ordering)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, usernames(users))
		})
	}
}

package user

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/assets"
	"github.com/trezcool/evaladmin/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type uniqueSvc struct{ Service }

func (uniqueSvc) CheckUniqueness(context.Context, string, string, ...User) error { return nil }

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func TestNewUser_Validate(t *testing.T) {
	LoadCommonPasswords(assets.FS, nopLogger{})
	validate, translator := newValidator()

	newUser := func(uname, email, pwd string, roles ...string) NewUser {
		return NewUser{Name: "Jane Doe", Username: uname, Email: email, Password: pwd, PasswordConfirm: pwd, Roles: roles}
	}

	tests := []struct {
		name      string
		nu        NewUser
		wantField string
		wantMsg   string
	}{
		{name: "valid", nu: newUser("jdoe", "jdoe@test.cd", "Sup3r$ecret")},
		{name: "no username nor email", nu: newUser("", "", "Sup3r$ecret"), wantField: "username", wantMsg: usernameOrEmailText},
		{name: "bad username", nu: newUser("j doe", "", "Sup3r$ecret"), wantField: "username", wantMsg: "only alphanumeric characters and underscores are allowed"},
		{name: "too short", nu: newUser("jdoe", "", "Sh0rt!"), wantField: "password", wantMsg: pwdMinLenText},
		{name: "whitespace", nu: newUser("jdoe", "", "Sup3r $ecret"), wantField: "password", wantMsg: pwdNoSpaceText},
		{name: "all numeric", nu: newUser("jdoe", "", "1234567890123"), wantField: "password", wantMsg: pwdNotAllNumText},
		{name: "not complex", nu: newUser("jdoe", "", "supersecret"), wantField: "password", wantMsg: pwdComplexityText},
		{name: "similar to email", nu: newUser("", "jdoe1@test.cd", "Jdoe1@test.cd"), wantField: "password", wantMsg: pwdAttrSimText},
		{name: "common", nu: newUser("jdoe", "", "P@ssw0rd"), wantField: "password", wantMsg: pwdNoCommonText},
		{name: "unknown role", nu: newUser("jdoe", "", "Sup3r$ecret", "student:"), wantField: "roles", wantMsg: allRolesText},
		{name: "admin role", nu: newUser("jdoe", "", "Sup3r$ecret", RoleAdmin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := tt.nu
			err := nu.Validate(context.Background(), validate, uniqueSvc{})
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			fldErrs, ok := core.TranslateFieldErrors(err, translator)
			require.True(t, ok, "unexpected error: %v", err)
			assert.Equal(t, tt.wantMsg, fldErrs[tt.wantField])
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, User{Roles: []string{RoleAdminSuper}}.IsAdmin())
	assert.True(t, User{Roles: []string{RoleInstructor, RoleAdmin}}.IsAdmin())
	assert.False(t, User{Roles: []string{RoleInstructor}}.IsAdmin())
	assert.False(t, User{}.IsAdmin())
}

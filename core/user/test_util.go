package user

import "github.com/trezcool/evaladmin/core"

// MakeResetToken exposes the password reset token of `usr` to the tests of other packages.
func MakeResetToken(conf *core.Config, usr User) string {
	return newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta).makeToken(usr)
}

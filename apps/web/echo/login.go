package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

const passwordResetSentText = "If an active account uses this address, we have e-mailed instructions for setting a new password."

var (
	loginCases = nav.Cases{
		{Outcome: outcomeLoggedIn, ViewID: viewAdministrate},
		{Outcome: outcomeLoggedOut, ViewID: viewLogin},
	}
	passwordResetCases = nav.Cases{
		{Outcome: outcomeSent, ViewID: viewLogin},
	}
	passwordResetConfirmCases = nav.Cases{
		{Outcome: outcomeReset, ViewID: viewLogin},
	}
)

type (
	authPages struct {
		*base
		svc user.Service
	}

	loginForm struct {
		Username string `form:"username" validate:"required"`
		Password string `form:"password" validate:"required"`
		Next     string `form:"next"`
	}

	passwordResetForm struct {
		Email string `form:"email" validate:"required,email"`
	}
)

func registerAuthPages(g *echo.Group, b *base, svc user.Service) {
	p := authPages{base: b, svc: svc}

	// TODO: rate limit login and password reset attempts
	g.GET("/login", p.login).Name = viewLogin
	g.POST("/login", p.loginSubmit).Name = viewLogin
	g.POST("/logout", p.logout).Name = viewLogout
	g.GET("/password-reset", p.passwordReset).Name = viewPasswordReset
	g.POST("/password-reset", p.passwordResetSubmit).Name = viewPasswordReset
	g.GET("/password-reset/confirm", p.passwordResetConfirm).Name = viewPasswordResetConfirm
	g.POST("/password-reset/confirm", p.passwordResetConfirmSubmit).Name = viewPasswordResetConfirm
}

func (p *authPages) loginPage(ctx echo.Context, form loginForm, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewLogin, "Log in")
	page.Add(
		view.Form{
			Action: ctx.Echo().Reverse(viewLogin),
			CSRF:   page.CSRF,
			Errors: fe.form,
			Children: []view.Component{
				view.Hidden{Name: "next", Value: form.Next},
				view.Input{Name: "username", Label: "Username or email", Value: form.Username, Error: fe.field("username"), Required: true},
				view.Input{Name: "password", Label: "Password", Type: "password", Error: fe.field("password"), Required: true},
				view.Button{Label: "Log in"},
			},
		},
		view.Link{Text: "Forgotten your password?", URL: ctx.Echo().Reverse(viewPasswordReset)},
	)
	return page
}

func (p *authPages) login(ctx echo.Context) error {
	next := safeNext(ctx.QueryParam(nextParam))
	if _, ok := contextUser(ctx); ok {
		if next != "" {
			return ctx.Redirect(http.StatusSeeOther, next)
		}
		return ctx.Redirect(http.StatusSeeOther, ctx.Echo().Reverse(viewAdministrate))
	}
	return p.render(ctx, http.StatusOK, p.loginPage(ctx, loginForm{Next: next}, formErrors{}))
}

func (p *authPages) loginSubmit(ctx echo.Context) error {
	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	form.Username = core.CleanString(form.Username, true /* lower */)
	form.Next = safeNext(form.Next)

	if err := p.validate.Struct(form); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.loginPage(ctx, form, fe))
	}

	usr, err := authenticate(ctx, form.Username, form.Password, p.svc)
	if err != nil {
		if err == errAuthenticationFailed || err == errAccountDeactivated {
			msg := err.(*echo.HTTPError).Message.(string)
			return p.render(ctx, http.StatusBadRequest, p.loginPage(ctx, form, formErrors{form: []string{msg}}))
		}
		return err
	}
	if err = setSessionCookie(ctx, p.conf, usr); err != nil {
		return err
	}

	if form.Next != "" {
		return ctx.Redirect(http.StatusSeeOther, form.Next)
	}
	return p.navigate(ctx, loginCases, outcomeLoggedIn, success("Welcome, "+usr.DisplayName()+"."))
}

func (p *authPages) logout(ctx echo.Context) error {
	clearSessionCookie(ctx, p.conf)
	return p.navigate(ctx, loginCases, outcomeLoggedOut, info("You have been logged out."))
}

func (p *authPages) passwordResetPage(ctx echo.Context, form passwordResetForm, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewPasswordReset, "Password reset", crumb(ctx, "Log in", viewLogin))
	page.Add(
		view.Text{Text: "Enter your e-mail address and we will send you a link to set a new password."},
		view.Form{
			Action: ctx.Echo().Reverse(viewPasswordReset),
			CSRF:   page.CSRF,
			Errors: fe.form,
			Children: []view.Component{
				view.Input{Name: "email", Label: "Email", Type: "email", Value: form.Email, Error: fe.field("email"), Required: true},
				view.Button{Label: "Send"},
			},
		},
	)
	return page
}

func (p *authPages) passwordReset(ctx echo.Context) error {
	return p.render(ctx, http.StatusOK, p.passwordResetPage(ctx, passwordResetForm{}, formErrors{}))
}

func (p *authPages) passwordResetSubmit(ctx echo.Context) error {
	var form passwordResetForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to passwordResetForm")
	}
	form.Email = core.CleanString(form.Email, true /* lower */)
	if err := p.validate.Struct(form); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.passwordResetPage(ctx, form, fe))
	}

	// unknown addresses get the same answer
	if err := p.svc.RequestPasswordReset(ctx.Request().Context(), form.Email); err != nil && errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "requesting password reset")
	}
	return p.navigate(ctx, passwordResetCases, outcomeSent, info(passwordResetSentText))
}

func (p *authPages) passwordResetConfirmPage(ctx echo.Context, data user.ResetUserPassword, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewPasswordResetConfirm, "Set a new password", crumb(ctx, "Log in", viewLogin))
	page.Add(view.Form{
		Action: ctx.Echo().Reverse(viewPasswordResetConfirm),
		CSRF:   page.CSRF,
		Errors: fe.form,
		Children: []view.Component{
			view.Hidden{Name: "uid", Value: data.UID},
			view.Hidden{Name: "token", Value: data.Token},
			view.Input{Name: "password", Label: "New password", Type: "password", Error: fe.field("password"), Required: true},
			view.Input{
				Name:     "password_confirm",
				Label:    "Confirm password",
				Type:     "password",
				Error:    fe.field("password_confirm"),
				Required: true,
			},
			view.Button{Label: "Change my password"},
		},
	})
	return page
}

func (p *authPages) invalidResetLink(ctx echo.Context) error {
	page := p.newPage(ctx, viewPasswordResetConfirm, "Set a new password", crumb(ctx, "Log in", viewLogin))
	page.Add(
		view.Message{Level: view.LevelError, Text: user.ErrInvalidResetLink.Error()},
		view.Link{Text: "Request a new link", URL: ctx.Echo().Reverse(viewPasswordReset)},
	)
	return p.render(ctx, http.StatusBadRequest, page)
}

func (p *authPages) passwordResetConfirm(ctx echo.Context) error {
	data := user.ResetUserPassword{UID: ctx.QueryParam("uid"), Token: ctx.QueryParam("token")}
	if _, err := p.svc.CheckResetLink(ctx.Request().Context(), data.UID, data.Token); err != nil {
		if err == user.ErrInvalidResetLink {
			return p.invalidResetLink(ctx)
		}
		return err
	}
	return p.render(ctx, http.StatusOK, p.passwordResetConfirmPage(ctx, data, formErrors{}))
}

func (p *authPages) passwordResetConfirmSubmit(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if _, err := p.svc.CheckResetLink(ctx.Request().Context(), data.UID, data.Token); err != nil {
		if err == user.ErrInvalidResetLink {
			return p.invalidResetLink(ctx)
		}
		return err
	}
	if err := data.Validate(p.validate); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.passwordResetConfirmPage(ctx, data, fe))
	}

	if _, err := p.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		if err == user.ErrInvalidResetLink {
			return p.invalidResetLink(ctx)
		}
		return errors.Wrap(err, "resetting password")
	}
	return p.navigate(ctx, passwordResetConfirmCases, outcomeReset, success("Your password has been set. You may log in now."))
}

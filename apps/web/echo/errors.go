package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/report"
	"github.com/trezcool/evaladmin/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "Please enter a correct username and password.")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "This account is inactive.")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "You do not have permission to access this page.")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "The requested page could not be found.")
)

var notFoundErrors = []error{
	user.ErrNotFound,
	group.ErrNotFound,
	hierarchy.ErrNotFound,
	authoring.ErrScaleNotFound,
	authoring.ErrItemNotFound,
	authoring.ErrTemplateNotFound,
	authoring.ErrTemplateItemNotFound,
	authoring.ErrItemGroupNotFound,
	evaluation.ErrNotFound,
}

var forbiddenErrors = []error{
	core.ErrPermissionDenied,
	authoring.ErrScaleLocked,
	authoring.ErrScaleInUse,
	authoring.ErrItemLocked,
	authoring.ErrItemInUse,
	authoring.ErrTemplateLocked,
	report.ErrResultsHidden,
	report.ErrNotEnoughResponses,
	report.ErrNotYetViewable,
	report.ErrExportDisabled,
	report.ErrEmailDisabled,
}

func isOneOf(err error, targets []error) bool {
	for _, target := range targets {
		if err == target {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our errors as HTML pages.
// Anonymous users are sent to the login page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(b *base, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprintf("%v", origErr.Message)
		default:
			switch {
			case isOneOf(cause, notFoundErrors):
				code = http.StatusNotFound
				message = errHTTPNotFound.Message.(string)
			case isOneOf(cause, forbiddenErrors):
				code = http.StatusForbidden
				message = cause.Error()
			case core.IsValidationError(err):
				code = http.StatusBadRequest
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(code)

				usr, _ := contextUser(ctx)
				b.logger.Error(message, errors.Wrap(err, message), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Response().Committed {
			return
		}
		if code == http.StatusUnauthorized {
			if err = ctx.Redirect(http.StatusSeeOther, loginURL(ctx)); err != nil {
				ctx.Echo().Logger.Error(err)
			}
			return
		}
		if ctx.Echo().Debug {
			message = err.Error()
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = renderError(b, ctx, code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func renderError(b *base, ctx echo.Context, code int, message string) error {
	page := b.newPage(ctx, viewError, http.StatusText(code))
	page.Add(
		view.Message{Level: view.LevelError, Text: message},
		view.Link{Text: "Back to " + homeTitle, URL: ctx.Echo().Reverse(viewAdministrate)},
	)
	if err := b.render(ctx, code, page); err != nil {
		return ctx.String(code, message)
	}
	return nil
}

package echoweb

import (
	"github.com/labstack/echo/v4"
)

// adminMiddleware lets admins through, anyone else gets a 403 page.
func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		if !usr.IsAdmin() {
			return errHTTPForbidden
		}
		return next(ctx)
	}
}

package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

const (
	sessionCookie  = "token"
	csrfCookie     = "_csrf"
	csrfField      = "_csrf"
	csrfContextKey = "csrf"
	contextUserKey = "user"
	nextParam      = "next"
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the session claims transmitted via the session cookie.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		IsAdmin:  usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(conf *core.Config, raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

func authenticate(ctx echo.Context, uname, pwd string, svc user.Service) (user.User, error) {
	reqCtx := ctx.Request().Context()
	usr, err := svc.GetByUsernameOrEmail(reqCtx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.Active() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(reqCtx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func setSessionCookie(ctx echo.Context, conf *core.Config, usr user.User) error {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(conf.Server.JWTExpirationDelta),
		HttpOnly: true,
		Secure:   conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   conf.Server.SecureCookies,
	})
}

// sessionMiddleware loads the user of a valid session cookie into the context.
// Invalid sessions are dropped and the request goes on anonymously.
func sessionMiddleware(conf *core.Config, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(sessionCookie)
			if err != nil || cookie.Value == "" {
				return next(ctx)
			}
			claims, err := parseToken(conf, cookie.Value)
			if err != nil {
				clearSessionCookie(ctx, conf)
				return next(ctx)
			}
			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			switch {
			case errors.Cause(err) == user.ErrNotFound:
				clearSessionCookie(ctx, conf)
			case err != nil:
				return errors.Wrap(err, "finding session user")
			case usr.Active():
				ctx.Set(contextUserKey, usr)
			default:
				clearSessionCookie(ctx, conf)
			}
			return next(ctx)
		}
	}
}

// loginRequired refuses anonymous requests; the error handler sends them to the login page.
func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := contextUser(ctx); !ok {
			return errUnauthorized
		}
		return next(ctx)
	}
}

func contextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

// getContextUser returns the logged in user, set by sessionMiddleware.
func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := contextUser(ctx); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// loginURL returns the login page URL coming back to the current page after login.
func loginURL(ctx echo.Context) string {
	u := ctx.Echo().Reverse(viewLogin)
	if next := ctx.Request().URL.RequestURI(); next != "" && next != "/" && ctx.Request().Method == http.MethodGet {
		q := make(url.Values)
		q.Set(nextParam, next)
		u += "?" + q.Encode()
	}
	return u
}

// safeNext keeps local redirect targets only.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

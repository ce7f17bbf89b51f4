package echoweb

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/report"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Site       *view.Site
		StaticFS   fs.FS // served under /static

		UserSvc       user.Service
		SettingsSvc   settings.Service
		GroupSvc      group.Service
		HierarchySvc  hierarchy.Service
		AuthoringSvc  authoring.Service
		EvaluationSvc evaluation.Service
		ReportSvc     report.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Renderer = &view.Renderer{Site: s.deps.Site}

	b := &base{
		conf:       conf,
		logger:     s.deps.Logger,
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(b, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		ContextKey:     csrfContextKey,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   conf.Server.SecureCookies,
	}))
	s.app.Use(sessionMiddleware(conf, s.deps.UserSvc))

	if s.deps.StaticFS != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(s.deps.StaticFS)))
		s.app.GET("/static/*", echo.WrapHandler(static))
	}

	// un-authed pages
	registerAuthPages(s.app.Group(""), b, s.deps.UserSvc)

	// authed pages
	ag := s.app.Group("", loginRequired)
	registerAdministratePage(ag, b)
	registerReportingPages(ag, b, s.deps.SettingsSvc)
	registerHierarchyPages(ag, b, s.deps.HierarchySvc, s.deps.GroupSvc)
	registerEvaluationPages(ag, b, s.deps.EvaluationSvc, s.deps.HierarchySvc, s.deps.GroupSvc)
	registerReportPages(ag, b, s.deps.EvaluationSvc, s.deps.ReportSvc, s.deps.SettingsSvc)
	registerScalePages(ag, b, s.deps.AuthoringSvc)
	registerItemPages(ag, b, s.deps.AuthoringSvc)
	registerTemplatePages(ag, b, s.deps.AuthoringSvc)
	registerExpertPages(ag, b, s.deps.AuthoringSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks the main goroutine to stop the server gracefully.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

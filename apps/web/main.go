package main

import (
	"context"
	"expvar"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof on the debug server
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoweb "github.com/trezcool/evaladmin/apps/web/echo"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/assets"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/report"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
	emailsvc "github.com/trezcool/evaladmin/services/email"
	logsvc "github.com/trezcool/evaladmin/services/logger"
	"github.com/trezcool/evaladmin/storage/database"
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
	sqlxrepos "github.com/trezcool/evaladmin/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	settings    settings.Repository
	groups      group.Repository
	hierarchy   hierarchy.Repository
	authoring   authoring.Repository
	evaluations evaluation.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up repositories: PostgreSQL, or in memory in TEST mode
	var repos repositories
	if conf.TestMode {
		repos = inmemRepositories(inmemdb.NewDB())
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		repos = sqlxRepositories(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users, mailSvc, conf)
	settingsSvc := settings.NewService(repos.settings)
	groupSvc := group.NewService(repos.groups)
	hierSvc := hierarchy.NewService(repos.hierarchy)
	authSvc := authoring.NewService(repos.authoring)
	evalSvc := evaluation.NewService(repos.evaluations, groupSvc, hierSvc, mailSvc)
	reportSvc := report.NewService(authSvc, evalSvc, groupSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	if err := core.ParseEmailTemplates(assets.FS, conf, logger); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	user.LoadCommonPasswords(assets.FS, logger)

	site, err := view.NewSite(assets.FS, "templates/web")
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing web templates: %v", err), err)
	}
	staticFS, err := fs.Sub(assets.FS, "static")
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening static files: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Site:          site,
			StaticFS:      staticFS,
			UserSvc:       usrSvc,
			SettingsSvc:   settingsSvc,
			GroupSvc:      groupSvc,
			HierarchySvc:  hierSvc,
			AuthoringSvc:  authSvc,
			EvaluationSvc: evalSvc,
			ReportSvc:     reportSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func sqlxRepositories(db *sqlx.DB) repositories {
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		settings:    sqlxrepos.NewSettingsRepository(db),
		groups:      sqlxrepos.NewGroupRepository(db),
		hierarchy:   sqlxrepos.NewHierarchyRepository(db),
		authoring:   sqlxrepos.NewAuthoringRepository(db),
		evaluations: sqlxrepos.NewEvaluationRepository(db),
	}
}

func inmemRepositories(db *inmemdb.DB) repositories {
	return repositories{
		users:       inmemdb.NewUserRepository(db),
		settings:    inmemdb.NewSettingsRepository(db),
		groups:      inmemdb.NewGroupRepository(db),
		hierarchy:   inmemdb.NewHierarchyRepository(db),
		authoring:   inmemdb.NewAuthoringRepository(db),
		evaluations: inmemdb.NewEvaluationRepository(db),
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

package echoweb

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
	"github.com/trezcool/evaladmin/testutil"
)

const (
	testCSRF     = "csrf-test-token"
	testPassword = "Pa$$w0rd!"
)

type testApp struct {
	t           *testing.T
	conf        *core.Config
	db          *inmemdb.DB
	server      Server
	mailSvc     *emailsvc.ConsoleServiceMock
	usrRepo     user.Repository
	hierSvc     hierarchy.Service
	settingsSvc settings.Service
	authSvc     authoring.Service
	evalSvc     evaluation.Service
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	db := inmemdb.NewDB()

	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	settingsSvc := settings.NewService(inmemdb.NewSettingsRepository(db))
	groupSvc := group.NewService(inmemdb.NewGroupRepository(db))
	hierSvc := hierarchy.NewService(inmemdb.NewHierarchyRepository(db))
	authSvc := authoring.NewService(inmemdb.NewAuthoringRepository(db))
	evalSvc := evaluation.NewService(inmemdb.NewEvaluationRepository(db), groupSvc, hierSvc, mailSvc)
	reportSvc := report.NewService(authSvc, evalSvc, groupSvc)

	validate, translator := testutil.NewValidator()
	require.NoError(t, core.ParseEmailTemplates(assets.FS, conf, logger))

	site, err := view.NewSite(assets.FS, "templates/web")
	require.NoError(t, err)

	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Site:          site,
		UserSvc:       usrSvc,
		SettingsSvc:   settingsSvc,
		GroupSvc:      groupSvc,
		HierarchySvc:  hierSvc,
		AuthoringSvc:  authSvc,
		EvaluationSvc: evalSvc,
		ReportSvc:     reportSvc,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testApp{
		t:           t,
		conf:        conf,
		db:          db,
		server:      srv,
		mailSvc:     mailSvc,
		usrRepo:     usrRepo,
		hierSvc:     hierSvc,
		settingsSvc: settingsSvc,
		authSvc:     authSvc,
		evalSvc:     evalSvc,
	}
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	token        string
	wantCode     int
	wantLocation string
	wantFlash    string
	wantBody     []string
	wantNotBody  []string
}

func (app *testApp) createUser(name, uname string, roles ...string) user.User {
	return testutil.CreateUser(app.t, app.usrRepo, name, uname, uname+"@test.cd", testPassword, roles, true)
}

func (app *testApp) createAdmin() user.User {
	return app.createUser("Ada Admin", "admin", user.RoleAdmin)
}

func (app *testApp) createInstructor() user.User {
	return app.createUser("Ian Instructor", "instructor", user.RoleInstructor)
}

func (app *testApp) getToken(usr user.User) string {
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		app.t.Fatalf("getToken(): %v", err)
	}
	return token
}

// newAuthRequest builds a request carrying the CSRF cookie; unsafe methods also get the CSRF form field.
func newAuthRequest(method, path, token string, form ...url.Values) (*http.Request, *httptest.ResponseRecorder) {
	if method == "" {
		method = http.MethodGet
	}
	var values url.Values
	if len(form) > 0 && form[0] != nil {
		values = form[0]
	}
	if method != http.MethodGet && method != http.MethodHead {
		if values == nil {
			values = make(url.Values)
		}
		if _, ok := values[csrfField]; !ok {
			values.Set(csrfField, testCSRF)
		}
	}

	var req *http.Request
	if values != nil && method != http.MethodGet {
		req = httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: testCSRF})
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	return req, httptest.NewRecorder()
}

func newRequest(method, path string, form ...url.Values) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", form...)
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(newAuthRequest(tt.method, tt.path, tt.token, tt.form))
			checkResponse(t, tt, rec)
		})
	}
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if !assert.Equal(t, wantCode, rec.Code) {
		t.Logf("body: %s", rec.Body.String())
	}
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
	}
	if tt.wantFlash != "" {
		assert.Equal(t, tt.wantFlash, flashOf(rec))
	}
	for _, s := range tt.wantBody {
		assert.Contains(t, rec.Body.String(), s)
	}
	for _, s := range tt.wantNotBody {
		assert.NotContains(t, rec.Body.String(), s)
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// flashOf decodes the flash message set by the response as "level:text".
func flashOf(rec *httptest.ResponseRecorder) string {
	c := responseCookie(rec, flashCookie)
	if c == nil || c.Value == "" {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(raw)
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func (app *testApp) activeEvaluation(title, owner string) evaluation.Evaluation {
	now := time.Now().UTC()
	return app.db.AddEvaluation(evaluation.Evaluation{
		Title:     title,
		Owner:     owner,
		StartDate: now.Add(-days(1)),
		DueDate:   now.Add(days(7)),
	})
}

func (app *testApp) closedEvaluation(title, owner string) evaluation.Evaluation {
	now := time.Now().UTC()
	return app.db.AddEvaluation(evaluation.Evaluation{
		Title:     title,
		Owner:     owner,
		StartDate: now.Add(-days(30)),
		DueDate:   now.Add(-days(10)),
		ViewDate:  now.Add(days(10)),
	})
}

func (app *testApp) saveReportingOptions(opts settings.ReportingOptions) {
	require.NoError(app.t, app.settingsSvc.SaveReportingOptions(context.Background(), opts))
}

func (app *testApp) addNode(parentID int64, title string) hierarchy.Node {
	ctx := context.Background()
	if parentID == 0 {
		root, err := app.hierSvc.Root(ctx)
		require.NoError(app.t, err)
		parentID = root.ID
	}
	node, err := app.hierSvc.Add(ctx, parentID, hierarchy.NewNode{Title: title})
	require.NoError(app.t, err)
	return node
}

package echoweb

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
)

const (
	flashCookie = "flash"
	staticURL   = "/static"
	homeTitle   = "Administrate"
)

// base carries what every page producer needs.
type base struct {
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

type navSection struct {
	text   string
	viewID string
	admin  bool
	views  []string // sub pages marking the section active
}

var sections = []navSection{
	{text: "Evaluations", viewID: viewControlEvaluations, views: []string{
		viewEvaluationAssign, viewEvaluationAssignConfirm, viewEvaluationAssignments, viewEvaluationNotify,
		viewReport, viewEmailReport,
	}},
	{text: "Templates", viewID: viewControlTemplates, views: []string{
		viewModifyTemplate, viewPreviewTemplateItem, viewRemoveTemplateItem,
		viewExpertCategories, viewExpertObjectives, viewExpertItems,
	}},
	{text: "Items", viewID: viewControlItems, views: []string{viewPreviewItem, viewRemoveItem}},
	{text: "Scales", viewID: viewControlScales, views: []string{viewPreviewScale, viewRemoveScale}},
	{text: "Hierarchy", viewID: viewControlHierarchy, admin: true, views: []string{
		viewAddHierarchyNode, viewModifyHierarchyNode, viewRemoveHierarchyNode, viewModifyNodeGroups,
	}},
	{text: "Reporting", viewID: viewControlReporting, admin: true},
}

// newPage prepares the page of a view: breadcrumbs from the administrate page down to `title`,
// the navigation links the user may follow and the pending flash message.
func (b *base) newPage(ctx echo.Context, viewID, title string, crumbs ...view.Crumb) *view.Page {
	page := &view.Page{
		AppName:   b.conf.AppName,
		ViewID:    viewID,
		Title:     title,
		StaticURL: staticURL,
		LogoutURL: ctx.Echo().Reverse(viewLogout),
	}
	if csrf, ok := ctx.Get(csrfContextKey).(string); ok {
		page.CSRF = csrf
	}

	if viewID != viewAdministrate {
		page.Breadcrumbs = append(page.Breadcrumbs, view.Crumb{Text: homeTitle, URL: ctx.Echo().Reverse(viewAdministrate)})
	}
	page.Breadcrumbs = append(page.Breadcrumbs, crumbs...)
	page.Breadcrumbs = append(page.Breadcrumbs, view.Crumb{Text: title})

	if usr, ok := contextUser(ctx); ok {
		page.UserName = usr.DisplayName()
		for _, sec := range sections {
			if sec.admin && !usr.IsAdmin() {
				continue
			}
			page.Nav = append(page.Nav, view.NavLink{
				Text:   sec.text,
				URL:    ctx.Echo().Reverse(sec.viewID),
				Active: viewID == sec.viewID || core.StringInSlice(viewID, sec.views),
			})
		}
	}

	if msg, ok := popFlash(ctx); ok {
		page.Messages = append(page.Messages, msg)
	}
	return page
}

// crumb links to another view of the trail.
func crumb(ctx echo.Context, text, viewID string, params ...interface{}) view.Crumb {
	return view.Crumb{Text: text, URL: ctx.Echo().Reverse(viewID, params...)}
}

func (b *base) render(ctx echo.Context, code int, page *view.Page) error {
	return ctx.Render(code, view.PageTemplate, page)
}

// navigate resolves the outcome of an action against the view cases and redirects (303) to the resulting view,
// carrying `flash` to the next page.
func (b *base) navigate(ctx echo.Context, cases nav.Cases, outcome string, flash *view.Message, params ...interface{}) error {
	return b.navigateWithQuery(ctx, cases, outcome, nil, flash, params...)
}

func (b *base) navigateWithQuery(
	ctx echo.Context,
	cases nav.Cases,
	outcome string,
	query url.Values,
	flash *view.Message,
	params ...interface{},
) error {
	viewID, err := cases.Resolve(outcome)
	if err != nil {
		return errors.Wrap(err, "resolving navigation")
	}
	to := ctx.Echo().Reverse(viewID, params...)
	if len(query) > 0 {
		to += "?" + query.Encode()
	}
	if flash != nil {
		setFlash(ctx, *flash)
	}
	return ctx.Redirect(http.StatusSeeOther, to)
}

func success(text string) *view.Message { return &view.Message{Level: view.LevelSuccess, Text: text} }

func info(text string) *view.Message { return &view.Message{Level: view.LevelInfo, Text: text} }

func setFlash(ctx echo.Context, msg view.Message) {
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg.Level + ":" + msg.Text)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the flash message of the request and clears it.
func popFlash(ctx echo.Context) (view.Message, bool) {
	cookie, err := ctx.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return view.Message{}, false
	}
	ctx.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return view.Message{}, false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return view.Message{}, false
	}
	switch parts[0] {
	case view.LevelInfo, view.LevelSuccess, view.LevelWarning, view.LevelError:
		return view.Message{Level: parts[0], Text: parts[1]}, true
	}
	return view.Message{}, false
}

// formErrors holds the validation messages of a submitted form.
type formErrors struct {
	fields map[string]string
	form   []string
}

func (fe formErrors) field(name string) string { return fe.fields[name] }

// validationErrors translates a validation error, ok is false for any other error.
func (b *base) validationErrors(err error) (formErrors, bool) {
	fields, ok := core.TranslateFieldErrors(err, b.translator)
	if !ok {
		return formErrors{}, false
	}
	fe := formErrors{fields: fields}
	if vErr, isVErr := errors.Cause(err).(*core.ValidationError); isVErr && len(vErr.Fields) == 0 && vErr.Err != nil {
		fe.form = append(fe.form, vErr.Error())
	}
	return fe, true
}

// paramID reads an int64 path param; malformed IDs are not found.
func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

// queryIDs reads the repeated int64 query param `name`, ignoring malformed values.
func queryIDs(values url.Values, name string) []int64 {
	var ids []int64
	for _, raw := range values[name] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

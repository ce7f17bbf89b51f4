package echoweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/user"
)

const scalesTitle = "Scales"

var scaleCases = nav.Cases{
	{Outcome: outcomeRemoved, ViewID: viewControlScales},
}

var idealLabels = map[string]string{
	authoring.IdealNone:    "None",
	authoring.IdealLow:     "Low",
	authoring.IdealHigh:    "High",
	authoring.IdealMid:     "Middle",
	authoring.IdealOutside: "Outside",
}

type scalePages struct {
	*base
	svc authoring.Service
}

func registerScalePages(g *echo.Group, b *base, svc authoring.Service) {
	p := scalePages{base: b, svc: svc}

	sg := g.Group("/scales")
	sg.GET("", p.control).Name = viewControlScales
	sg.GET("/:id/preview", p.preview).Name = viewPreviewScale
	sg.GET("/:id/remove", p.remove).Name = viewRemoveScale
	sg.POST("/:id/remove", p.removeSubmit).Name = viewRemoveScale
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (p *scalePages) control(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	scales, err := p.svc.Scales(reqCtx, usr)
	if err != nil {
		return err
	}

	table := view.Table{Headers: []string{"Title", "Options", "Sharing", "Used by", "Actions"}, Empty: "There are no scales."}
	for _, s := range scales {
		usage, err := p.svc.ScaleUsage(reqCtx, s.ID)
		if err != nil {
			return err
		}
		actions := []view.Component{view.Link{Text: "Preview", URL: ctx.Echo().Reverse(viewPreviewScale, s.ID)}}
		if authoring.CanRemoveScale(usr, s, len(usage)) {
			actions = append(actions, view.Link{Text: "Remove", URL: ctx.Echo().Reverse(viewRemoveScale, s.ID)})
		}
		table.Rows = append(table.Rows, view.Row{Cells: []view.Cell{
			{Content: []view.Component{view.T(s.Title)}},
			{Content: []view.Component{view.T(strings.Join(s.Options, ", "))}},
			{Content: []view.Component{view.T(s.Sharing)}},
			{Content: []view.Component{view.T(strconv.Itoa(len(usage)) + " items")}},
			{Content: actions},
		}})
	}

	page := p.newPage(ctx, viewControlScales, scalesTitle)
	page.Add(table)
	return p.render(ctx, http.StatusOK, page)
}

func (p *scalePages) scale(ctx echo.Context) (authoring.Scale, user.User, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return authoring.Scale{}, usr, err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return authoring.Scale{}, usr, err
	}
	s, err := p.svc.Scale(ctx.Request().Context(), usr, id)
	return s, usr, err
}

func scaleDetails(s authoring.Scale) view.Definition {
	options := view.List{Ordered: true}
	for _, opt := range s.Options {
		options.Items = append(options.Items, view.T(opt))
	}
	return view.Definition{Terms: []view.Term{
		{Term: "Title", Description: []view.Component{view.T(s.Title)}},
		{Term: "Options", Description: []view.Component{options}},
		{Term: "Ideal answer", Description: []view.Component{view.T(idealLabels[s.Ideal])}},
		{Term: "Sharing", Description: []view.Component{view.T(s.Sharing)}},
		{Term: "Locked", Description: []view.Component{view.T(yesNo(s.Locked))}},
	}}
}

func (p *scalePages) preview(ctx echo.Context) error {
	s, _, err := p.scale(ctx)
	if err != nil {
		return err
	}
	usage, err := p.svc.ScaleUsage(ctx.Request().Context(), s.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewPreviewScale, "Scale: "+s.Title, crumb(ctx, scalesTitle, viewControlScales))
	page.Add(scaleDetails(s), view.Heading{Text: "Used by"})
	used := view.List{}
	for _, it := range usage {
		used.Items = append(used.Items, view.Link{Text: it.ShortText(80), URL: ctx.Echo().Reverse(viewPreviewItem, it.ID)})
	}
	if len(used.Items) == 0 {
		page.Add(view.Text{Text: "No item uses this scale.", Class: "empty"})
	} else {
		page.Add(used)
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *scalePages) remove(ctx echo.Context) error {
	s, usr, err := p.scale(ctx)
	if err != nil {
		return err
	}
	usage, err := p.svc.ScaleUsage(ctx.Request().Context(), s.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewRemoveScale, "Remove scale", crumb(ctx, scalesTitle, viewControlScales))
	page.Add(scaleDetails(s))
	if reason := authoring.ScaleRemovalError(usr, s, len(usage)); reason != nil {
		page.Add(view.Message{Level: view.LevelWarning, Text: "This scale cannot be removed: " + reason.Error() + "."})
	} else {
		page.Add(view.Form{
			Action: ctx.Echo().Reverse(viewRemoveScale, s.ID),
			CSRF:   page.CSRF,
			Children: []view.Component{
				view.Text{Text: "Are you sure you want to remove this scale?"},
				view.Button{Label: "Remove", Class: "danger"},
			},
		})
	}
	page.Add(view.Link{Text: "Back to the scales", URL: ctx.Echo().Reverse(viewControlScales)})
	return p.render(ctx, http.StatusOK, page)
}

func (p *scalePages) removeSubmit(ctx echo.Context) error {
	s, usr, err := p.scale(ctx)
	if err != nil {
		return err
	}
	if err = p.svc.RemoveScale(ctx.Request().Context(), usr, s.ID); err != nil {
		return err
	}
	return p.navigate(ctx, scaleCases, outcomeRemoved, success("The scale \""+s.Title+"\" has been removed."))
}

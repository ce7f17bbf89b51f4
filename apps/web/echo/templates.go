package echoweb

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/user"
)

const templatesTitle = "Templates"

var (
	templateItemCases = nav.Cases{
		{Outcome: outcomeRemoved, ViewID: viewModifyTemplate},
	}
	templateOrderings = []string{"title", "sharing"}
)

type templatePages struct {
	*base
	svc authoring.Service
}

func registerTemplatePages(g *echo.Group, b *base, svc authoring.Service) {
	p := templatePages{base: b, svc: svc}

	tg := g.Group("/templates")
	tg.GET("", p.control).Name = viewControlTemplates
	tg.GET("/:tid", p.modify).Name = viewModifyTemplate
	tg.GET("/:tid/items/:id/preview", p.previewItem).Name = viewPreviewTemplateItem
	tg.GET("/:tid/items/:id/remove", p.removeItem).Name = viewRemoveTemplateItem
	tg.POST("/:tid/items/:id/remove", p.removeItemSubmit).Name = viewRemoveTemplateItem
}

func (p *templatePages) control(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	templates, err := p.svc.Templates(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}

	var ord Ordering
	ord.Bind(ctx, templateOrderings...)
	sort.SliceStable(templates, func(i, j int) bool {
		a, b := templates[i], templates[j]
		return ord.Less(func(field string) int {
			switch field {
			case "title":
				return compareStrings(a.Title, b.Title)
			case "sharing":
				return compareStrings(a.Sharing, b.Sharing)
			}
			return 0
		})
	})

	table := view.Table{Headers: []string{"Title", "Description", "Sharing", "Locked"}, Empty: "There are no templates."}
	for _, tmpl := range templates {
		table.Rows = append(table.Rows, view.Cells(
			view.Link{Text: tmpl.Title, URL: ctx.Echo().Reverse(viewModifyTemplate, tmpl.ID)},
			view.T(tmpl.Description),
			view.T(tmpl.Sharing),
			view.T(yesNo(tmpl.Locked)),
		))
	}

	page := p.newPage(ctx, viewControlTemplates, templatesTitle)
	page.Add(table)
	return p.render(ctx, http.StatusOK, page)
}

// templateParam returns the template of the `:tid` path param, if the user may view it.
func templateParam(ctx echo.Context, svc authoring.Service) (authoring.Template, user.User, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return authoring.Template{}, usr, err
	}
	id, err := paramID(ctx, "tid")
	if err != nil {
		return authoring.Template{}, usr, err
	}
	tmpl, err := svc.Template(ctx.Request().Context(), usr, id)
	return tmpl, usr, err
}

func (p *templatePages) modify(ctx echo.Context) error {
	tmpl, usr, err := templateParam(ctx, p.svc)
	if err != nil {
		return err
	}
	tItems, err := p.svc.TemplateItems(ctx.Request().Context(), tmpl.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewModifyTemplate, tmpl.Title, crumb(ctx, templatesTitle, viewControlTemplates))
	if tmpl.Description != "" {
		page.Add(view.Text{Text: tmpl.Description, Class: "description"})
	}
	if tmpl.Locked {
		page.Add(view.Message{Level: view.LevelInfo, Text: authoring.ErrTemplateLocked.Error()})
	}

	canRemove := authoring.CanRemoveTemplateItem(usr, tmpl)
	table := view.Table{Headers: []string{"#", "Item", "Type", "Category", "Actions"}, Empty: "This template has no items yet."}
	for _, ti := range tItems {
		actions := []view.Component{view.Link{Text: "Preview", URL: ctx.Echo().Reverse(viewPreviewTemplateItem, tmpl.ID, ti.ID)}}
		if canRemove {
			actions = append(actions, view.Link{Text: "Remove", URL: ctx.Echo().Reverse(viewRemoveTemplateItem, tmpl.ID, ti.ID)})
		}
		row := view.Row{Cells: []view.Cell{
			{Content: []view.Component{view.T(strconv.Itoa(ti.DisplayOrder))}},
			{Content: []view.Component{view.T(ti.Item.ShortText(80))}},
			{Content: []view.Component{view.T(classLabels[ti.Item.Classification])}},
			{Content: []view.Component{view.T(ti.Category)}},
			{Content: actions},
		}}
		if ti.Item.Classification == authoring.ClassHeader {
			row.Class = "header"
		}
		table.Rows = append(table.Rows, row)
	}
	page.Add(table)

	if canRemove {
		page.Add(view.Link{Text: "Add expert items", URL: ctx.Echo().Reverse(viewExpertCategories, tmpl.ID)})
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *templatePages) templateItem(ctx echo.Context) (authoring.Template, authoring.TemplateItem, user.User, error) {
	tmpl, usr, err := templateParam(ctx, p.svc)
	if err != nil {
		return tmpl, authoring.TemplateItem{}, usr, err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return tmpl, authoring.TemplateItem{}, usr, err
	}
	ti, err := p.svc.TemplateItem(ctx.Request().Context(), tmpl.ID, id)
	return tmpl, ti, usr, err
}

func (p *templatePages) previewItem(ctx echo.Context) error {
	tmpl, ti, _, err := p.templateItem(ctx)
	if err != nil {
		return err
	}
	page := p.newPage(ctx, viewPreviewTemplateItem, "Item preview",
		crumb(ctx, templatesTitle, viewControlTemplates),
		crumb(ctx, tmpl.Title, viewModifyTemplate, tmpl.ID),
	)
	page.Add(
		view.Text{Text: "Position " + strconv.Itoa(ti.DisplayOrder) + " in " + tmpl.Title},
		view.Container{Class: "preview", Children: itemPreview(ti.Item)},
	)
	return p.render(ctx, http.StatusOK, page)
}

func (p *templatePages) removeItem(ctx echo.Context) error {
	tmpl, ti, usr, err := p.templateItem(ctx)
	if err != nil {
		return err
	}
	page := p.newPage(ctx, viewRemoveTemplateItem, "Remove item from "+tmpl.Title,
		crumb(ctx, templatesTitle, viewControlTemplates),
		crumb(ctx, tmpl.Title, viewModifyTemplate, tmpl.ID),
	)
	page.Add(view.Container{Class: "preview", Children: itemPreview(ti.Item)})
	if reason := authoring.TemplateItemRemovalError(usr, tmpl); reason != nil {
		page.Add(view.Message{Level: view.LevelWarning, Text: "This item cannot be removed: " + reason.Error() + "."})
	} else {
		page.Add(view.Form{
			Action: ctx.Echo().Reverse(viewRemoveTemplateItem, tmpl.ID, ti.ID),
			CSRF:   page.CSRF,
			Children: []view.Component{
				view.Text{Text: "Are you sure you want to remove this item from the template? The item itself is kept."},
				view.Button{Label: "Remove", Class: "danger"},
			},
		})
	}
	page.Add(view.Link{Text: "Back to " + tmpl.Title, URL: ctx.Echo().Reverse(viewModifyTemplate, tmpl.ID)})
	return p.render(ctx, http.StatusOK, page)
}

func (p *templatePages) removeItemSubmit(ctx echo.Context) error {
	tmpl, ti, usr, err := p.templateItem(ctx)
	if err != nil {
		return err
	}
	if err = p.svc.RemoveTemplateItem(ctx.Request().Context(), usr, tmpl.ID, ti.ID); err != nil {
		return err
	}
	return p.navigate(ctx, templateItemCases, outcomeRemoved,
		success("\""+ti.Item.ShortText(40)+"\" has been removed from the template."), tmpl.ID)
}

package echoweb

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/user"
)

const expertTitle = "Expert items"

var expertCases = nav.Cases{
	{Outcome: outcomeAdded, ViewID: viewModifyTemplate},
}

type expertPages struct {
	*base
	svc authoring.Service
}

func registerExpertPages(g *echo.Group, b *base, svc authoring.Service) {
	p := expertPages{base: b, svc: svc}

	xg := g.Group("/templates/:tid/expert")
	xg.GET("", p.categories).Name = viewExpertCategories
	xg.GET("/categories/:gid", p.objectives).Name = viewExpertObjectives
	xg.GET("/groups/:gid", p.items).Name = viewExpertItems
	xg.POST("/groups/:gid", p.itemsSubmit).Name = viewExpertItems
}

// template returns the template items are added to; the user must be able to change it.
func (p *expertPages) template(ctx echo.Context) (authoring.Template, user.User, error) {
	tmpl, usr, err := templateParam(ctx, p.svc)
	if err != nil {
		return tmpl, usr, err
	}
	return tmpl, usr, authoring.TemplateItemRemovalError(usr, tmpl)
}

func (p *expertPages) group(ctx echo.Context) (authoring.ItemGroup, error) {
	id, err := paramID(ctx, "gid")
	if err != nil {
		return authoring.ItemGroup{}, err
	}
	g, err := p.svc.ItemGroup(ctx.Request().Context(), id)
	if err != nil {
		return authoring.ItemGroup{}, err
	}
	if !g.Expert {
		return authoring.ItemGroup{}, authoring.ErrItemGroupNotFound
	}
	return g, nil
}

// crumbs links back to the template and along the group path.
func (p *expertPages) crumbs(ctx echo.Context, tmpl authoring.Template, path []authoring.ItemGroup) []view.Crumb {
	crumbs := []view.Crumb{
		crumb(ctx, templatesTitle, viewControlTemplates),
		crumb(ctx, tmpl.Title, viewModifyTemplate, tmpl.ID),
		crumb(ctx, expertTitle, viewExpertCategories, tmpl.ID),
	}
	for _, g := range path {
		if g.Type == authoring.GroupTypeCategory {
			crumbs = append(crumbs, crumb(ctx, g.Title, viewExpertObjectives, tmpl.ID, g.ID))
		}
	}
	return crumbs
}

func (p *expertPages) categories(ctx echo.Context) error {
	tmpl, _, err := p.template(ctx)
	if err != nil {
		return err
	}
	categories, err := p.svc.ExpertCategories(ctx.Request().Context())
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewExpertCategories, expertTitle, p.crumbs(ctx, tmpl, nil)[:2]...)
	page.Add(view.Text{Text: "Pick a category of expert items to add to " + tmpl.Title + "."})
	defs := view.Definition{}
	for _, g := range categories {
		defs.Terms = append(defs.Terms, view.Term{
			Term: g.Title,
			Description: []view.Component{
				view.Link{Text: "Browse", URL: ctx.Echo().Reverse(viewExpertObjectives, tmpl.ID, g.ID)},
				view.T(g.Description),
			},
		})
	}
	if len(defs.Terms) == 0 {
		page.Add(view.Text{Text: "There are no expert items.", Class: "empty"})
	} else {
		page.Add(defs)
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *expertPages) objectives(ctx echo.Context) error {
	tmpl, _, err := p.template(ctx)
	if err != nil {
		return err
	}
	category, err := p.group(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	objectives, err := p.svc.ChildGroups(reqCtx, category.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewExpertObjectives, category.Title, p.crumbs(ctx, tmpl, nil)...)
	if category.Description != "" {
		page.Add(view.Text{Text: category.Description, Class: "description"})
	}
	list := view.List{}
	if len(category.ItemIDs) > 0 {
		list.Items = append(list.Items, view.Link{Text: "Items of the whole category", URL: ctx.Echo().Reverse(viewExpertItems, tmpl.ID, category.ID)})
	}
	for _, g := range objectives {
		list.Items = append(list.Items, view.Link{Text: g.Title, URL: ctx.Echo().Reverse(viewExpertItems, tmpl.ID, g.ID)})
	}
	if len(list.Items) == 0 {
		page.Add(view.Text{Text: "This category has no objectives.", Class: "empty"})
	} else {
		page.Add(list)
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *expertPages) itemsPage(ctx echo.Context, tmpl authoring.Template, g authoring.ItemGroup, selected []int64, fe formErrors) (*view.Page, error) {
	reqCtx := ctx.Request().Context()
	path, err := p.svc.GroupPath(reqCtx, g.ID)
	if err != nil {
		return nil, err
	}
	items, err := p.svc.ExpertItems(reqCtx, g.ID)
	if err != nil {
		return nil, err
	}
	tItems, err := p.svc.TemplateItems(reqCtx, tmpl.ID)
	if err != nil {
		return nil, err
	}
	present := make(map[int64]bool, len(tItems))
	for _, ti := range tItems {
		present[ti.ItemID] = true
	}
	checked := make(map[int64]bool, len(selected))
	for _, id := range selected {
		checked[id] = true
	}

	if len(path) > 0 {
		path = path[:len(path)-1] // the group itself is the current page
	}
	page := p.newPage(ctx, viewExpertItems, g.Title, p.crumbs(ctx, tmpl, path)...)
	form := view.Form{Action: ctx.Echo().Reverse(viewExpertItems, tmpl.ID, g.ID), CSRF: page.CSRF, Errors: fe.form}
	table := view.Table{Headers: []string{"", "Item", "Type"}, Empty: "This group has no expert items."}
	for _, it := range items {
		box := view.Checkbox{Name: "item", Value: strconv.FormatInt(it.ID, 10), Checked: checked[it.ID] || present[it.ID], Disabled: present[it.ID]}
		label := it.Text
		if present[it.ID] {
			label += " (already in the template)"
		}
		table.Rows = append(table.Rows, view.Row{Cells: []view.Cell{
			{Content: []view.Component{box}},
			{Content: []view.Component{view.T(label), view.Link{Text: "Preview", URL: ctx.Echo().Reverse(viewPreviewItem, it.ID)}}},
			{Content: []view.Component{view.T(classLabels[it.Classification])}},
		}})
	}
	form.Children = append(form.Children, table)
	if len(items) > 0 {
		form.Children = append(form.Children, view.Button{Label: "Add to " + tmpl.Title})
	}
	page.Add(form)
	return page, nil
}

func (p *expertPages) items(ctx echo.Context) error {
	tmpl, _, err := p.template(ctx)
	if err != nil {
		return err
	}
	g, err := p.group(ctx)
	if err != nil {
		return err
	}
	page, err := p.itemsPage(ctx, tmpl, g, nil, formErrors{})
	if err != nil {
		return err
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *expertPages) itemsSubmit(ctx echo.Context) error {
	tmpl, usr, err := p.template(ctx)
	if err != nil {
		return err
	}
	g, err := p.group(ctx)
	if err != nil {
		return err
	}
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}

	// only items of the browsed group may be added
	inGroup := make(map[int64]bool, len(g.ItemIDs))
	for _, id := range g.ItemIDs {
		inGroup[id] = true
	}
	var ids []int64
	for _, id := range queryIDs(params, "item") {
		if inGroup[id] {
			ids = append(ids, id)
		}
	}

	added, err := p.svc.AddItemsToTemplate(ctx.Request().Context(), usr, tmpl.ID, ids)
	if err != nil {
		if errors.Cause(err) == authoring.ErrNoItemSelected {
			page, pErr := p.itemsPage(ctx, tmpl, g, ids, formErrors{form: []string{err.Error()}})
			if pErr != nil {
				return pErr
			}
			return p.render(ctx, http.StatusBadRequest, page)
		}
		return err
	}
	msg := info("The selected items were already in the template.")
	if added > 0 {
		msg = success(fmt.Sprintf("%d items have been added to %s.", added, tmpl.Title))
	}
	return p.navigate(ctx, expertCases, outcomeAdded, msg, tmpl.ID)
}

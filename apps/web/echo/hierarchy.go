package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
)

const (
	actionField  = "action"
	actionCancel = "cancel"
)

var hierarchyCases = nav.Cases{
	{Outcome: outcomeSaved, ViewID: viewControlHierarchy},
	{Outcome: outcomeCancel, ViewID: viewControlHierarchy},
	{Outcome: outcomeRemoved, ViewID: viewControlHierarchy},
}

type hierarchyPages struct {
	*base
	svc      hierarchy.Service
	groupSvc group.Service
}

func registerHierarchyPages(g *echo.Group, b *base, svc hierarchy.Service, groupSvc group.Service) {
	p := hierarchyPages{base: b, svc: svc, groupSvc: groupSvc}

	hg := g.Group("/admin/hierarchy", adminMiddleware)
	hg.GET("", p.control).Name = viewControlHierarchy
	hg.GET("/nodes/new", p.add).Name = viewAddHierarchyNode
	hg.POST("/nodes/new", p.addSubmit).Name = viewAddHierarchyNode
	hg.GET("/nodes/:id/edit", p.modify).Name = viewModifyHierarchyNode
	hg.POST("/nodes/:id/edit", p.modifySubmit).Name = viewModifyHierarchyNode
	hg.GET("/nodes/:id/remove", p.remove).Name = viewRemoveHierarchyNode
	hg.POST("/nodes/:id/remove", p.removeSubmit).Name = viewRemoveHierarchyNode
	hg.GET("/nodes/:id/groups", p.groups).Name = viewModifyNodeGroups
	hg.POST("/nodes/:id/groups", p.groupsSubmit).Name = viewModifyNodeGroups
}

func (p *hierarchyPages) control(ctx echo.Context) error {
	tree, err := p.svc.Tree(ctx.Request().Context())
	if err != nil {
		return err
	}

	table := view.Table{Headers: []string{"Node", "Groups", "Actions"}, Empty: "The hierarchy is empty."}
	for _, tn := range tree {
		actions := []view.Component{
			view.Link{Text: "Add child", URL: ctx.Echo().Reverse(viewAddHierarchyNode) + "?parent=" + itoa(tn.ID)},
			view.Link{Text: "Edit", URL: ctx.Echo().Reverse(viewModifyHierarchyNode, tn.ID)},
			view.Link{Text: "Groups", URL: ctx.Echo().Reverse(viewModifyNodeGroups, tn.ID)},
		}
		if !tn.IsRoot() {
			actions = append(actions, view.Link{Text: "Remove", URL: ctx.Echo().Reverse(viewRemoveHierarchyNode, tn.ID)})
		}
		table.Rows = append(table.Rows, view.Row{Cells: []view.Cell{
			{Indent: tn.Depth, Content: []view.Component{view.T(tn.Title)}},
			{Content: []view.Component{view.T(strconv.Itoa(tn.GroupCount))}},
			{Content: actions},
		}})
	}

	page := p.newPage(ctx, viewControlHierarchy, "Evaluation hierarchy")
	page.Add(table)
	return p.render(ctx, http.StatusOK, page)
}

// nodeForm renders the add/edit form; `action` is the form URL.
func (p *hierarchyPages) nodeForm(page *view.Page, action string, nn hierarchy.NewNode, fe formErrors, extra ...view.Component) view.Form {
	children := append(extra,
		view.Input{Name: "title", Label: "Title", Value: nn.Title, Error: fe.field("title"), Required: true},
		view.TextArea{Name: "description", Label: "Description", Value: nn.Description, Error: fe.field("description")},
		view.Button{Label: "Save"},
		view.Button{Name: actionField, Value: actionCancel, Label: "Cancel", Class: "secondary"},
	)
	return view.Form{Action: action, CSRF: page.CSRF, Errors: fe.form, Children: children}
}

func (p *hierarchyPages) parent(ctx echo.Context) (hierarchy.Node, error) {
	raw := ctx.QueryParam("parent")
	if raw == "" {
		raw = ctx.FormValue("parent")
	}
	if raw == "" {
		return p.svc.Root(ctx.Request().Context())
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return hierarchy.Node{}, errHTTPNotFound
	}
	return p.svc.Get(ctx.Request().Context(), id)
}

func (p *hierarchyPages) addPage(ctx echo.Context, parent hierarchy.Node, nn hierarchy.NewNode, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewAddHierarchyNode, "Add node", crumb(ctx, "Evaluation hierarchy", viewControlHierarchy))
	page.Add(
		view.Text{Text: "Parent: " + parent.Title},
		p.nodeForm(page, ctx.Echo().Reverse(viewAddHierarchyNode), nn, fe, view.Hidden{Name: "parent", Value: itoa(parent.ID)}),
	)
	return page
}

func (p *hierarchyPages) add(ctx echo.Context) error {
	parent, err := p.parent(ctx)
	if err != nil {
		return err
	}
	return p.render(ctx, http.StatusOK, p.addPage(ctx, parent, hierarchy.NewNode{}, formErrors{}))
}

func (p *hierarchyPages) addSubmit(ctx echo.Context) error {
	if ctx.FormValue(actionField) == actionCancel {
		return p.navigate(ctx, hierarchyCases, outcomeCancel, nil)
	}
	parent, err := p.parent(ctx)
	if err != nil {
		return err
	}
	var nn hierarchy.NewNode
	if err = ctx.Bind(&nn); err != nil {
		return errors.Wrap(err, "binding to NewNode")
	}
	if err = nn.Validate(p.validate); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.addPage(ctx, parent, nn, fe))
	}
	node, err := p.svc.Add(ctx.Request().Context(), parent.ID, nn)
	if err != nil {
		return err
	}
	return p.navigate(ctx, hierarchyCases, outcomeSaved, success("The node \""+node.Title+"\" has been added."))
}

func (p *hierarchyPages) node(ctx echo.Context) (hierarchy.Node, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return hierarchy.Node{}, err
	}
	return p.svc.Get(ctx.Request().Context(), id)
}

func (p *hierarchyPages) modifyPage(ctx echo.Context, node hierarchy.Node, un hierarchy.UpdateNode, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewModifyHierarchyNode, "Edit node", crumb(ctx, "Evaluation hierarchy", viewControlHierarchy))
	page.Add(p.nodeForm(page, ctx.Echo().Reverse(viewModifyHierarchyNode, node.ID), hierarchy.NewNode(un), fe))
	return page
}

func (p *hierarchyPages) modify(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	un := hierarchy.UpdateNode{Title: node.Title, Description: node.Description}
	return p.render(ctx, http.StatusOK, p.modifyPage(ctx, node, un, formErrors{}))
}

func (p *hierarchyPages) modifySubmit(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	if ctx.FormValue(actionField) == actionCancel {
		return p.navigate(ctx, hierarchyCases, outcomeCancel, nil)
	}
	var un hierarchy.UpdateNode
	if err = ctx.Bind(&un); err != nil {
		return errors.Wrap(err, "binding to UpdateNode")
	}
	if err = un.Validate(p.validate); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.modifyPage(ctx, node, un, fe))
	}
	if node, err = p.svc.Update(ctx.Request().Context(), node.ID, un); err != nil {
		return err
	}
	return p.navigate(ctx, hierarchyCases, outcomeSaved, success("The node \""+node.Title+"\" has been saved."))
}

func (p *hierarchyPages) remove(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	page := p.newPage(ctx, viewRemoveHierarchyNode, "Remove node", crumb(ctx, "Evaluation hierarchy", viewControlHierarchy))
	page.Add(view.Definition{Terms: []view.Term{
		{Term: "Title", Description: []view.Component{view.T(node.Title)}},
		{Term: "Description", Description: []view.Component{view.T(node.Description)}},
	}})

	reason := p.svc.CanRemove(ctx.Request().Context(), node.ID)
	switch {
	case reason == nil:
		page.Add(view.Form{
			Action: ctx.Echo().Reverse(viewRemoveHierarchyNode, node.ID),
			CSRF:   page.CSRF,
			Children: []view.Component{
				view.Text{Text: "Are you sure you want to remove this node?"},
				view.Button{Label: "Remove", Class: "danger"},
			},
		})
	case isRemovalRefusal(reason):
		page.Add(view.Message{Level: view.LevelWarning, Text: reason.Error()})
	default:
		return reason
	}
	page.Add(view.Link{Text: "Back to the hierarchy", URL: ctx.Echo().Reverse(viewControlHierarchy)})
	return p.render(ctx, http.StatusOK, page)
}

func (p *hierarchyPages) removeSubmit(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	if err = p.svc.Remove(ctx.Request().Context(), node.ID); err != nil {
		if isRemovalRefusal(err) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return err
	}
	return p.navigate(ctx, hierarchyCases, outcomeRemoved, success("The node \""+node.Title+"\" has been removed."))
}

func isRemovalRefusal(err error) bool {
	switch errors.Cause(err) {
	case hierarchy.ErrRootNode, hierarchy.ErrNodeHasChildren, hierarchy.ErrNodeHasGroups:
		return true
	}
	return false
}

func (p *hierarchyPages) groups(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	groups, err := p.groupSvc.List(reqCtx)
	if err != nil {
		return err
	}
	attached, err := p.svc.NodeGroupIDs(reqCtx, node.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewModifyNodeGroups, "Groups of "+node.Title, crumb(ctx, "Evaluation hierarchy", viewControlHierarchy))
	form := view.Form{Action: ctx.Echo().Reverse(viewModifyNodeGroups, node.ID), CSRF: page.CSRF}
	if len(groups) == 0 {
		form.Children = append(form.Children, view.Text{Text: "There are no groups.", Class: "empty"})
	}
	for _, g := range groups {
		form.Children = append(form.Children, view.Checkbox{
			Name:    "group",
			Label:   g.Title,
			Value:   g.ID,
			Checked: core.StringInSlice(g.ID, attached),
		})
	}
	form.Children = append(form.Children, view.Button{Label: "Save"})
	page.Add(form)
	return p.render(ctx, http.StatusOK, page)
}

func (p *hierarchyPages) groupsSubmit(ctx echo.Context) error {
	node, err := p.node(ctx)
	if err != nil {
		return err
	}
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	reqCtx := ctx.Request().Context()
	known, err := p.groupSvc.GetMany(reqCtx, params["group"])
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(known))
	for _, g := range known {
		ids = append(ids, g.ID)
	}
	if err = p.svc.SetNodeGroups(reqCtx, node.ID, ids); err != nil {
		return err
	}
	return p.navigate(ctx, hierarchyCases, outcomeSaved, success("The groups of \""+node.Title+"\" have been saved."))
}

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

const itemsTitle = "Items"

var itemCases = nav.Cases{
	{Outcome: outcomeRemoved, ViewID: viewControlItems},
}

var classLabels = map[string]string{
	authoring.ClassScaled:         "Scaled",
	authoring.ClassMultipleChoice: "Multiple choice",
	authoring.ClassMultipleAnswer: "Multiple answer",
	authoring.ClassText:           "Text",
	authoring.ClassHeader:         "Header",
}

type itemPages struct {
	*base
	svc authoring.Service
}

func registerItemPages(g *echo.Group, b *base, svc authoring.Service) {
	p := itemPages{base: b, svc: svc}

	ig := g.Group("/items")
	ig.GET("", p.control).Name = viewControlItems
	ig.GET("/:id/preview", p.preview).Name = viewPreviewItem
	ig.GET("/:id/remove", p.remove).Name = viewRemoveItem
	ig.POST("/:id/remove", p.removeSubmit).Name = viewRemoveItem
}

func (p *itemPages) control(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	items, err := p.svc.Items(reqCtx, usr)
	if err != nil {
		return err
	}

	table := view.Table{Headers: []string{"Text", "Type", "Category", "Used by", "Actions"}, Empty: "There are no items."}
	for _, it := range items {
		usage, err := p.svc.ItemUsage(reqCtx, it.ID)
		if err != nil {
			return err
		}
		actions := []view.Component{view.Link{Text: "Preview", URL: ctx.Echo().Reverse(viewPreviewItem, it.ID)}}
		if authoring.CanRemoveItem(usr, it, len(usage)) {
			actions = append(actions, view.Link{Text: "Remove", URL: ctx.Echo().Reverse(viewRemoveItem, it.ID)})
		}
		table.Rows = append(table.Rows, view.Row{Cells: []view.Cell{
			{Content: []view.Component{view.T(it.ShortText(80))}},
			{Content: []view.Component{view.T(classLabels[it.Classification])}},
			{Content: []view.Component{view.T(it.Category)}},
			{Content: []view.Component{view.T(strconv.Itoa(len(usage)) + " templates")}},
			{Content: actions},
		}})
	}

	page := p.newPage(ctx, viewControlItems, itemsTitle)
	page.Add(table)
	return p.render(ctx, http.StatusOK, page)
}

func (p *itemPages) item(ctx echo.Context) (authoring.Item, user.User, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return authoring.Item{}, usr, err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return authoring.Item{}, usr, err
	}
	it, err := p.svc.Item(ctx.Request().Context(), usr, id)
	return it, usr, err
}

// itemPreview shows the item as evaluators would see it, followed by its settings.
func itemPreview(it authoring.Item) []view.Component {
	components := []view.Component{view.Heading{Level: 3, Text: it.Text}}
	if it.Description != "" {
		components = append(components, view.Text{Text: it.Description, Class: "description"})
	}
	name := "item_" + strconv.FormatInt(it.ID, 10)
	switch it.Classification {
	case authoring.ClassScaled, authoring.ClassMultipleChoice:
		radio := view.Radio{Name: name, Label: "Answer"}
		for i, opt := range it.Options() {
			radio.Options = append(radio.Options, view.Option{Value: strconv.Itoa(i), Label: opt})
		}
		if it.UsesNA {
			radio.Options = append(radio.Options, view.Option{Value: "na", Label: "N/A"})
		}
		components = append(components, radio)
	case authoring.ClassMultipleAnswer:
		for i, opt := range it.Options() {
			components = append(components, view.Checkbox{Name: name, Label: opt, Value: strconv.Itoa(i), Disabled: true})
		}
	case authoring.ClassText:
		components = append(components, view.TextArea{Name: name, Label: "Answer"})
	}
	if it.UsesComment {
		components = append(components, view.TextArea{Name: name + "_comment", Label: "Comment", Rows: 2})
	}

	scale := "None"
	if it.Scale != nil {
		scale = it.Scale.Title + " (" + strings.Join(it.Scale.Options, ", ") + ")"
	}
	components = append(components, view.Definition{Terms: []view.Term{
		{Term: "Type", Description: []view.Component{view.T(classLabels[it.Classification])}},
		{Term: "Scale", Description: []view.Component{view.T(scale)}},
		{Term: "Category", Description: []view.Component{view.T(it.Category)}},
		{Term: "Allows N/A", Description: []view.Component{view.T(yesNo(it.UsesNA))}},
		{Term: "Allows comments", Description: []view.Component{view.T(yesNo(it.UsesComment))}},
		{Term: "Sharing", Description: []view.Component{view.T(it.Sharing)}},
		{Term: "Locked", Description: []view.Component{view.T(yesNo(it.Locked))}},
	}})
	if it.Expert && it.ExpertDescription != "" {
		components = append(components, view.Text{Text: it.ExpertDescription, Class: "expert"})
	}
	return components
}

func (p *itemPages) preview(ctx echo.Context) error {
	it, _, err := p.item(ctx)
	if err != nil {
		return err
	}
	usage, err := p.svc.ItemUsage(ctx.Request().Context(), it.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewPreviewItem, "Item preview", crumb(ctx, itemsTitle, viewControlItems))
	page.Add(view.Container{Class: "preview", Children: itemPreview(it)})
	page.Add(view.Heading{Text: "Used by"})
	used := view.List{}
	for _, tmpl := range usage {
		used.Items = append(used.Items, view.Link{Text: tmpl.Title, URL: ctx.Echo().Reverse(viewModifyTemplate, tmpl.ID)})
	}
	if len(used.Items) == 0 {
		page.Add(view.Text{Text: "No template uses this item.", Class: "empty"})
	} else {
		page.Add(used)
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *itemPages) remove(ctx echo.Context) error {
	it, usr, err := p.item(ctx)
	if err != nil {
		return err
	}
	usage, err := p.svc.ItemUsage(ctx.Request().Context(), it.ID)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewRemoveItem, "Remove item", crumb(ctx, itemsTitle, viewControlItems))
	page.Add(view.Container{Class: "preview", Children: itemPreview(it)})
	if reason := authoring.ItemRemovalError(usr, it, len(usage)); reason != nil {
		page.Add(view.Message{Level: view.LevelWarning, Text: "This item cannot be removed: " + reason.Error() + "."})
	} else {
		page.Add(view.Form{
			Action: ctx.Echo().Reverse(viewRemoveItem, it.ID),
			CSRF:   page.CSRF,
			Children: []view.Component{
				view.Text{Text: "Are you sure you want to remove this item?"},
				view.Button{Label: "Remove", Class: "danger"},
			},
		})
	}
	page.Add(view.Link{Text: "Back to the items", URL: ctx.Echo().Reverse(viewControlItems)})
	return p.render(ctx, http.StatusOK, page)
}

func (p *itemPages) removeSubmit(ctx echo.Context) error {
	it, usr, err := p.item(ctx)
	if err != nil {
		return err
	}
	if err = p.svc.RemoveItem(ctx.Request().Context(), usr, it.ID); err != nil {
		return err
	}
	return p.navigate(ctx, itemCases, outcomeRemoved, success("The item \""+it.ShortText(40)+"\" has been removed."))
}

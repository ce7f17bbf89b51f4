package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/evaladmin/apps/web/view"
)

type administratePage struct {
	*base
}

var sectionHelp = map[string]string{
	viewControlEvaluations: "Assign evaluations to groups, notify evaluators and view the results.",
	viewControlTemplates:   "Review evaluation templates and add expert items to them.",
	viewControlItems:       "Preview and remove evaluation items.",
	viewControlScales:      "Preview and remove answer scales.",
	viewControlHierarchy:   "Organize the groups in the evaluation hierarchy.",
	viewControlReporting:   "Control who may view and export the results.",
}

func registerAdministratePage(g *echo.Group, b *base) {
	p := administratePage{base: b}
	g.GET("/", p.show).Name = viewAdministrate
}

func (p *administratePage) show(ctx echo.Context) error {
	page := p.newPage(ctx, viewAdministrate, homeTitle)
	defs := view.Definition{}
	for _, link := range page.Nav { // already filtered by permission
		for _, sec := range sections {
			if sec.text != link.Text {
				continue
			}
			defs.Terms = append(defs.Terms, view.Term{
				Term:        sec.text,
				Description: []view.Component{view.Link{Text: sectionHelp[sec.viewID], URL: link.URL}},
			})
		}
	}
	page.Add(defs)
	return p.render(ctx, http.StatusOK, page)
}

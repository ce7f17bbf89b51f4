package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core/settings"
)

var reportingCases = nav.Cases{
	{Outcome: outcomeSaved, ViewID: viewControlReporting},
}

type reportingPages struct {
	*base
	svc settings.Service
}

func registerReportingPages(g *echo.Group, b *base, svc settings.Service) {
	p := reportingPages{base: b, svc: svc}

	ag := g.Group("/admin/reporting", adminMiddleware)
	ag.GET("", p.show).Name = viewControlReporting
	ag.POST("", p.save).Name = viewControlReporting
}

func (p *reportingPages) page(ctx echo.Context, opts settings.ReportingOptions, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewControlReporting, "Reporting options")
	page.Add(view.Form{
		Action: ctx.Echo().Reverse(viewControlReporting),
		CSRF:   page.CSRF,
		Errors: fe.form,
		Children: []view.Component{
			view.Heading{Text: "Viewing results"},
			view.Checkbox{Name: "instructor_view_results", Label: "Instructors may view the results of their evaluations", Checked: opts.InstructorViewResults},
			view.Checkbox{Name: "student_view_results", Label: "Students may view the results", Checked: opts.StudentViewResults},
			view.Input{
				Name:  "responses_required_to_view",
				Label: "Responses required before instructors may view the results",
				Type:  "number",
				Value: strconv.Itoa(opts.ResponsesRequiredToView),
				Error: fe.field("responses_required_to_view"),
			},
			view.Heading{Text: "Exporting results"},
			view.Checkbox{Name: "enable_csv_export", Label: "Enable CSV export", Checked: opts.EnableCSVExport},
			view.Checkbox{Name: "enable_json_export", Label: "Enable JSON export", Checked: opts.EnableJSONExport},
			view.Checkbox{Name: "enable_report_email", Label: "Enable e-mailing reports", Checked: opts.EnableReportEmail},
			view.Input{
				Name:  "max_report_recipients",
				Label: "Maximum recipients of an e-mailed report",
				Type:  "number",
				Value: strconv.Itoa(opts.MaxReportRecipients),
				Error: fe.field("max_report_recipients"),
			},
			view.Button{Label: "Save"},
		},
	})
	return page
}

func (p *reportingPages) show(ctx echo.Context) error {
	opts, err := p.svc.ReportingOptions(ctx.Request().Context())
	if err != nil {
		return err
	}
	return p.render(ctx, http.StatusOK, p.page(ctx, opts, formErrors{}))
}

func (p *reportingPages) save(ctx echo.Context) error {
	var opts settings.ReportingOptions
	if err := ctx.Bind(&opts); err != nil {
		return errors.Wrap(err, "binding to ReportingOptions")
	}
	if err := opts.Validate(p.validate); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.page(ctx, opts, fe))
	}
	if err := p.svc.SaveReportingOptions(ctx.Request().Context(), opts); err != nil {
		return err
	}
	return p.navigate(ctx, reportingCases, outcomeSaved, success("The reporting options have been saved."))
}

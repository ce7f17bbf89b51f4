package echoweb

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/report"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
)

var emailReportCases = nav.Cases{
	{Outcome: outcomeSent, ViewID: viewReport},
}

type reportPages struct {
	*base
	evalSvc     evaluation.Service
	svc         report.Service
	settingsSvc settings.Service
}

func registerReportPages(g *echo.Group, b *base, evalSvc evaluation.Service, svc report.Service, settingsSvc settings.Service) {
	p := reportPages{base: b, evalSvc: evalSvc, svc: svc, settingsSvc: settingsSvc}

	eg := g.Group("/evaluations/:id")
	eg.GET("/report", p.show).Name = viewReport
	eg.GET("/export.csv", p.exportCSV).Name = viewReportExportCSV
	eg.GET("/export.json", p.exportJSON).Name = viewReportExportJSON
	eg.GET("/report/email", p.email).Name = viewEmailReport
	eg.POST("/report/email", p.emailSubmit).Name = viewEmailReport
}

type reportContext struct {
	eval      evaluation.Evaluation
	usr       user.User
	opts      settings.ReportingOptions
	responses int
}

// load returns the evaluation of the request once the user is allowed to view its results.
func (p *reportPages) load(ctx echo.Context) (reportContext, error) {
	var rc reportContext
	var err error
	if rc.eval, rc.usr, err = evaluationParam(ctx, p.evalSvc); err != nil {
		return rc, err
	}
	reqCtx := ctx.Request().Context()
	if rc.opts, err = p.settingsSvc.ReportingOptions(reqCtx); err != nil {
		return rc, err
	}
	if rc.responses, err = p.evalSvc.CountResponses(reqCtx, rc.eval.ID); err != nil {
		return rc, err
	}
	return rc, report.ViewError(rc.usr, rc.eval, rc.opts, rc.responses)
}

func (p *reportPages) show(ctx echo.Context) error {
	rc, err := p.load(ctx)
	if err != nil {
		return err
	}
	summaries, err := p.svc.Summaries(ctx.Request().Context(), rc.eval)
	if err != nil {
		return err
	}

	page := p.newPage(ctx, viewReport, "Results of "+rc.eval.Title, crumb(ctx, evaluationsTitle, viewControlEvaluations))
	page.Add(view.Definition{Terms: []view.Term{
		{Term: "State", Description: []view.Component{view.T(stateLabels[rc.eval.State()])}},
		{Term: "Responses", Description: []view.Component{view.T(strconv.Itoa(rc.responses))}},
	}})

	var actions []view.Component
	if rc.opts.EnableCSVExport {
		actions = append(actions, view.Link{Text: "Export CSV", URL: ctx.Echo().Reverse(viewReportExportCSV, rc.eval.ID)})
	}
	if rc.opts.EnableJSONExport {
		actions = append(actions, view.Link{Text: "Export JSON", URL: ctx.Echo().Reverse(viewReportExportJSON, rc.eval.ID)})
	}
	if rc.opts.EnableReportEmail && rc.opts.AnyExport() {
		actions = append(actions, view.Link{Text: "E-mail this report", URL: ctx.Echo().Reverse(viewEmailReport, rc.eval.ID)})
	}
	if len(actions) > 0 {
		page.Add(view.List{Items: actions})
	}

	if len(summaries) == 0 {
		page.Add(view.Text{Text: "This evaluation has no answerable items.", Class: "empty"})
	}
	for i, s := range summaries {
		it := s.TemplateItem.Item
		page.Add(view.Heading{Level: 3, Text: fmt.Sprintf("%d. %s", i+1, it.Text)})
		table := view.Table{Headers: []string{"Answer", "Count"}}
		for _, oc := range s.Options {
			table.Rows = append(table.Rows, view.Cells(view.T(oc.Label), view.T(strconv.Itoa(oc.Count))))
		}
		if it.UsesNA {
			table.Rows = append(table.Rows, view.Cells(view.T(report.NotApplicable), view.T(strconv.Itoa(s.NACount))))
		}
		if s.TextCount > 0 {
			table.Rows = append(table.Rows, view.Cells(view.T("Text answers"), view.T(strconv.Itoa(s.TextCount))))
		}
		if s.CommentCount > 0 {
			table.Rows = append(table.Rows, view.Cells(view.T("Comments"), view.T(strconv.Itoa(s.CommentCount))))
		}
		table.Empty = "No answers."
		page.Add(table)
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *reportPages) export(ctx echo.Context, format string) error {
	rc, err := p.load(ctx)
	if err != nil {
		return err
	}
	at, err := p.svc.Export(ctx.Request().Context(), rc.eval, format, rc.opts)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", at.Filename))
	return ctx.Blob(http.StatusOK, at.ContentType, at.Content)
}

func (p *reportPages) exportCSV(ctx echo.Context) error { return p.export(ctx, evaluation.FormatCSV) }

func (p *reportPages) exportJSON(ctx echo.Context) error { return p.export(ctx, evaluation.FormatJSON) }

func (p *reportPages) emailPage(ctx echo.Context, rc reportContext, re evaluation.ReportEmail, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewEmailReport, "E-mail the results of "+rc.eval.Title,
		crumb(ctx, evaluationsTitle, viewControlEvaluations),
		crumb(ctx, "Results of "+rc.eval.Title, viewReport, rc.eval.ID),
	)

	var formats []view.Option
	if rc.opts.EnableCSVExport {
		formats = append(formats, view.Option{Value: evaluation.FormatCSV, Label: "CSV", Selected: re.Format == evaluation.FormatCSV})
	}
	if rc.opts.EnableJSONExport {
		formats = append(formats, view.Option{Value: evaluation.FormatJSON, Label: "JSON", Selected: re.Format == evaluation.FormatJSON})
	}
	if len(formats) == 0 {
		page.Add(view.Message{Level: view.LevelWarning, Text: report.ErrExportDisabled.Error()})
		return page
	}

	page.Add(view.Form{
		Action: ctx.Echo().Reverse(viewEmailReport, rc.eval.ID),
		CSRF:   page.CSRF,
		Errors: fe.form,
		Children: []view.Component{
			view.TextArea{
				Name:  "recipients",
				Label: "Recipients",
				Value: re.Recipients,
				Rows:  3,
				Help:  fmt.Sprintf("Comma separated e-mail addresses, at most %d.", rc.opts.MaxReportRecipients),
				Error: fe.field("recipients"),
			},
			view.Input{Name: "subject", Label: "Subject", Value: re.Subject, Error: fe.field("subject"), Required: true},
			view.TextArea{Name: "message", Label: "Message", Value: re.Message, Error: fe.field("message")},
			view.Select{Name: "format", Label: "Format", Options: formats, Error: fe.field("format")},
			view.Button{Label: "Send"},
		},
	})
	return page
}

func (p *reportPages) loadEmail(ctx echo.Context) (reportContext, error) {
	rc, err := p.load(ctx)
	if err != nil {
		return rc, err
	}
	if !rc.opts.EnableReportEmail {
		return rc, report.ErrEmailDisabled
	}
	return rc, nil
}

func (p *reportPages) email(ctx echo.Context) error {
	rc, err := p.loadEmail(ctx)
	if err != nil {
		return err
	}
	re := evaluation.ReportEmail{Subject: "Results of " + rc.eval.Title}
	return p.render(ctx, http.StatusOK, p.emailPage(ctx, rc, re, formErrors{}))
}

func (p *reportPages) emailSubmit(ctx echo.Context) error {
	rc, err := p.loadEmail(ctx)
	if err != nil {
		return err
	}
	if !rc.opts.AnyExport() {
		return report.ErrExportDisabled
	}
	var re evaluation.ReportEmail
	if err = ctx.Bind(&re); err != nil {
		return errors.Wrap(err, "binding to ReportEmail")
	}
	err = re.Validate(p.validate, rc.opts.MaxReportRecipients)
	if err == nil && report.ExportError(re.Format, rc.opts) != nil {
		err = core.NewValidationError(nil, core.FieldError{Field: "format", Error: report.ErrExportDisabled.Error()})
	}
	if err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.emailPage(ctx, rc, re, fe))
	}

	reqCtx := ctx.Request().Context()
	at, err := p.svc.Export(reqCtx, rc.eval, re.Format, rc.opts)
	if err != nil {
		return err
	}
	if err = p.evalSvc.EmailReport(reqCtx, rc.usr, rc.eval, re, at); err != nil {
		return err
	}
	return p.navigate(ctx, emailReportCases, outcomeSent,
		success(fmt.Sprintf("The report has been sent to %d recipients.", len(re.Addresses()))), rc.eval.ID)
}

package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/report"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
)

type reportFixture struct {
	admin, instructor user.User
	eval              evaluation.Evaluation
}

// reportFixture stores a closed evaluation of the instructor with two responses to a scaled item.
func (app *testApp) reportFixture() reportFixture {
	admin := app.createAdmin()
	instructor := app.createInstructor()

	scale := app.db.AddScale(authoring.Scale{Title: "Agreement", Options: []string{"Disagree", "Neutral", "Agree"}, Owner: admin.ID})
	item := app.db.AddItem(authoring.Item{
		Text:           "Clear goals",
		Classification: authoring.ClassScaled,
		ScaleID:        scale.ID,
		UsesNA:         true,
		Owner:          admin.ID,
	})
	tmpl, tItems := app.db.AddTemplate(authoring.Template{Title: "Course", Owner: admin.ID}, item)
	app.db.AddGroup(group.Group{ID: "PHY101", Title: "Physics 101"})

	now := time.Now().UTC()
	e := app.db.AddEvaluation(evaluation.Evaluation{
		Title:      "Midterm",
		TemplateID: tmpl.ID,
		Owner:      instructor.ID,
		StartDate:  now.Add(-days(30)),
		DueDate:    now.Add(-days(10)),
	})
	for i, ref := range []string{"s1", "s2"} {
		choice := 2 - i
		app.db.AddResponse(evaluation.Response{
			EvaluationID: e.ID,
			GroupID:      "PHY101",
			Owner:        ref,
			StartTime:    now.Add(-days(20)),
			EndTime:      now.Add(-days(20)).Add(time.Hour),
			Answers:      []evaluation.Answer{{TemplateItemID: tItems[0].ID, ItemID: item.ID, NumericAnswer: &choice}},
		})
	}
	// not submitted
	app.db.AddResponse(evaluation.Response{EvaluationID: e.ID, GroupID: "PHY101", Owner: "s3", StartTime: now.Add(-days(20))})

	return reportFixture{admin: admin, instructor: instructor, eval: e}
}

func Test_reportPages_show(t *testing.T) {
	app := setup(t)
	fx := app.reportFixture()
	reportPath := fmt.Sprintf("/evaluations/%d/report", fx.eval.ID)
	adminToken := app.getToken(fx.admin)
	instructorToken := app.getToken(fx.instructor)

	app.run(t, []httpTest{
		{
			name: "admin", path: reportPath, token: adminToken,
			wantBody: []string{
				"<dt>Responses</dt><dd><p>2</p></dd>",
				"<h3>1. Clear goals</h3>",
				"<td><p>Agree</p></td><td><p>1</p></td>",
				"<td><p>Neutral</p></td><td><p>1</p></td>",
				"<td><p>Disagree</p></td><td><p>0</p></td>",
				"<td><p>" + report.NotApplicable + "</p></td><td><p>0</p></td>",
				fmt.Sprintf(`<a href="/evaluations/%d/export.csv">Export CSV</a>`, fx.eval.ID),
				fmt.Sprintf(`<a href="/evaluations/%d/report/email">`, fx.eval.ID),
			},
			wantNotBody: []string{"Export JSON"},
		},
		{
			name: "owner below the responses threshold", path: reportPath, token: instructorToken,
			wantCode: http.StatusForbidden, wantBody: []string{report.ErrNotEnoughResponses.Error()},
		},
	})

	app.saveReportingOptions(settings.ReportingOptions{
		InstructorViewResults:   true,
		ResponsesRequiredToView: 2,
		EnableJSONExport:        true,
		MaxReportRecipients:     10,
	})
	app.run(t, []httpTest{
		{
			name: "owner", path: reportPath, token: instructorToken,
			wantBody:    []string{"Export JSON"},
			wantNotBody: []string{"Export CSV", "E-mail this report"},
		},
		{
			name: "another instructor", path: reportPath, token: app.getToken(app.createUser("Olga Other", "other", user.RoleInstructor)),
			wantCode: http.StatusForbidden,
		},
	})

	app.saveReportingOptions(settings.ReportingOptions{ResponsesRequiredToView: 0, MaxReportRecipients: 10})
	app.run(t, []httpTest{
		{
			name: "results hidden from instructors", path: reportPath, token: instructorToken,
			wantCode: http.StatusForbidden, wantBody: []string{report.ErrResultsHidden.Error()},
		},
		{name: "admins always see them", path: reportPath, token: adminToken},
	})
}

func Test_reportPages_viewDate(t *testing.T) {
	app := setup(t)
	instructor := app.createInstructor()
	closed := app.closedEvaluation("Final", instructor.ID)
	active := app.activeEvaluation("Quiz", instructor.ID)
	app.saveReportingOptions(settings.ReportingOptions{InstructorViewResults: true, MaxReportRecipients: 10})
	token := app.getToken(instructor)

	var tests []httpTest
	for _, e := range []evaluation.Evaluation{closed, active} {
		tests = append(tests,
			httpTest{
				name: e.Title + " report", path: fmt.Sprintf("/evaluations/%d/report", e.ID), token: token,
				wantCode: http.StatusForbidden, wantBody: []string{report.ErrNotYetViewable.Error()},
			},
			httpTest{
				name: e.Title + " export", path: fmt.Sprintf("/evaluations/%d/export.csv", e.ID), token: token,
				wantCode: http.StatusForbidden,
			},
		)
	}
	app.run(t, tests)
}

func Test_reportPages_export(t *testing.T) {
	app := setup(t)
	fx := app.reportFixture()
	token := app.getToken(fx.admin)

	t.Run("csv", func(t *testing.T) {
		rec := app.serve(newAuthRequest(http.MethodGet, fmt.Sprintf("/evaluations/%d/export.csv", fx.eval.ID), token))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t,
			fmt.Sprintf(`attachment; filename="evaluation-%d-responses.csv"`, fx.eval.ID),
			rec.Header().Get(echo.HeaderContentDisposition),
		)
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Response,Group,Submitted,1. Clear goals", lines[0])
		assert.True(t, strings.HasSuffix(lines[1], ",Physics 101,"+fx.eval.StartDate.Add(days(10)).Add(time.Hour).Format("2006-01-02 15:04:05")+",Agree"))
		assert.True(t, strings.HasSuffix(lines[2], ",Neutral"))
	})

	app.run(t, []httpTest{
		{
			name: "json is disabled", path: fmt.Sprintf("/evaluations/%d/export.json", fx.eval.ID), token: token,
			wantCode: http.StatusForbidden, wantBody: []string{report.ErrExportDisabled.Error()},
		},
		{
			name: "owner below the responses threshold", path: fmt.Sprintf("/evaluations/%d/export.csv", fx.eval.ID),
			token: app.getToken(fx.instructor), wantCode: http.StatusForbidden,
		},
	})

	app.saveReportingOptions(settings.ReportingOptions{EnableJSONExport: true, MaxReportRecipients: 10})
	rec := app.serve(newAuthRequest(http.MethodGet, fmt.Sprintf("/evaluations/%d/export.json", fx.eval.ID), token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), `"title": "Midterm"`)
}

func Test_reportPages_email(t *testing.T) {
	app := setup(t)
	fx := app.reportFixture()
	token := app.getToken(fx.admin)
	emailPath := fmt.Sprintf("/evaluations/%d/report/email", fx.eval.ID)

	emailForm := func(recipients string) url.Values {
		return url.Values{"recipients": {recipients}, "subject": {"Midterm results"}, "message": {"See attached."}, "format": {"csv"}}
	}

	app.saveReportingOptions(settings.ReportingOptions{EnableCSVExport: true, EnableReportEmail: true, MaxReportRecipients: 2})
	app.run(t, []httpTest{
		{
			name: "form", path: emailPath, token: token,
			wantBody: []string{`name="subject" value="Results of Midterm"`, `<option value="csv">CSV</option>`, "at most 2."},
		},
		{
			name: "invalid address", method: http.MethodPost, path: emailPath, token: token, form: emailForm("nope"),
			wantCode: http.StatusBadRequest, wantBody: []string{"invalid email address: nope"},
		},
		{
			name: "too many recipients", method: http.MethodPost, path: emailPath, token: token,
			form:     emailForm("a@test.cd, b@test.cd; c@test.cd"),
			wantCode: http.StatusBadRequest, wantBody: []string{"too many recipients (max 2)"},
		},
		{
			name: "disabled format", method: http.MethodPost, path: emailPath, token: token,
			form:     url.Values{"recipients": {"a@test.cd"}, "subject": {"Results"}, "format": {"json"}},
			wantCode: http.StatusBadRequest, wantBody: []string{report.ErrExportDisabled.Error()},
		},
		{
			name: "send", method: http.MethodPost, path: emailPath, token: token, form: emailForm("a@test.cd, b@test.cd"),
			wantCode:     http.StatusSeeOther,
			wantLocation: fmt.Sprintf("/evaluations/%d/report", fx.eval.ID),
			wantFlash:    "success:The report has been sent to 2 recipients.",
		},
	})

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Len(t, msg.To, 2)
	assert.Equal(t, "a@test.cd", msg.To[0].Address)
	assert.Equal(t, "Midterm results", msg.Subject)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, fx.admin.Email, msg.ReplyTo.Address)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, fmt.Sprintf("evaluation-%d-responses.csv", fx.eval.ID), msg.Attachments[0].Filename)

	app.saveReportingOptions(settings.ReportingOptions{EnableCSVExport: true, MaxReportRecipients: 2})
	app.run(t, []httpTest{
		{
			name: "email disabled", path: emailPath, token: token,
			wantCode: http.StatusForbidden, wantBody: []string{report.ErrEmailDisabled.Error()},
		},
		{
			name: "email disabled (POST)", method: http.MethodPost, path: emailPath, token: token, form: emailForm("a@test.cd"),
			wantCode: http.StatusForbidden,
		},
	})
}

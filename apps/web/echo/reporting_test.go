package echoweb

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/core/settings"
)

func Test_reportingPages(t *testing.T) {
	app := setup(t)
	adminToken := app.getToken(app.createAdmin())
	instructorToken := app.getToken(app.createInstructor())

	valid := url.Values{
		"instructor_view_results":    {"true"},
		"responses_required_to_view": {"3"},
		"enable_json_export":         {"true"},
		"max_report_recipients":      {"5"},
	}
	tests := []httpTest{
		{
			name: "defaults", path: "/admin/reporting", token: adminToken,
			wantBody: []string{
				`<body id="control_reporting">`,
				`name="enable_csv_export" value="true" checked`,
				`name="enable_json_export" value="true">`,
				`name="max_report_recipients" value="10"`,
			},
		},
		{
			name: "admin only (POST)", method: http.MethodPost, path: "/admin/reporting", form: valid, token: instructorToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "invalid", method: http.MethodPost, path: "/admin/reporting", token: adminToken,
			form:     url.Values{"responses_required_to_view": {"-1"}, "max_report_recipients": {"0"}},
			wantCode: http.StatusBadRequest, wantBody: []string{`<div class="field has-error">`},
		},
		{
			name: "save", method: http.MethodPost, path: "/admin/reporting", form: valid, token: adminToken,
			wantCode: http.StatusSeeOther, wantLocation: "/admin/reporting",
			wantFlash: "success:The reporting options have been saved.",
		},
	}
	app.run(t, tests)

	opts, err := app.settingsSvc.ReportingOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.ReportingOptions{
		InstructorViewResults:   true,
		ResponsesRequiredToView: 3,
		EnableJSONExport:        true,
		MaxReportRecipients:     5,
	}, opts)
}

func Test_flashMessage(t *testing.T) {
	app := setup(t)
	token := app.getToken(app.createAdmin())

	rec := app.serve(newAuthRequest(http.MethodPost, "/admin/reporting", token, url.Values{
		"responses_required_to_view": {"1"},
		"max_report_recipients":      {"1"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := responseCookie(rec, flashCookie)
	require.NotNil(t, flash)

	req, rec := newAuthRequest(http.MethodGet, "/admin/reporting", token)
	req.AddCookie(flash)
	app.serve(req, rec)
	assert.Contains(t, rec.Body.String(), `<div class="message message-success" role="status">The reporting options have been saved.</div>`)

	// shown once
	cleared := responseCookie(rec, flashCookie)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

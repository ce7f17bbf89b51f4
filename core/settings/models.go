package settings

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

// setting keys
const (
	KeyInstructorViewResults   = "reporting.instructor_view_results"
	KeyStudentViewResults      = "reporting.student_view_results"
	KeyResponsesRequiredToView = "reporting.responses_required_to_view"
	KeyEnableCSVExport         = "reporting.enable_csv_export"
	KeyEnableJSONExport        = "reporting.enable_json_export"
	KeyEnableReportEmail       = "reporting.enable_report_email"
	KeyMaxReportRecipients     = "reporting.max_report_recipients"
)

// ReportingOptions are the admin controlled reporting settings.
type ReportingOptions struct {
	InstructorViewResults   bool `form:"instructor_view_results"`
	StudentViewResults      bool `form:"student_view_results"`
	ResponsesRequiredToView int  `form:"responses_required_to_view" validate:"min=0,max=1000"`
	EnableCSVExport         bool `form:"enable_csv_export"`
	EnableJSONExport        bool `form:"enable_json_export"`
	EnableReportEmail       bool `form:"enable_report_email"`
	MaxReportRecipients     int  `form:"max_report_recipients" validate:"min=1,max=50"`
}

func DefaultReportingOptions() ReportingOptions {
	return ReportingOptions{
		InstructorViewResults:   true,
		StudentViewResults:      false,
		ResponsesRequiredToView: 5,
		EnableCSVExport:         true,
		EnableJSONExport:        false,
		EnableReportEmail:       true,
		MaxReportRecipients:     10,
	}
}

func (opts ReportingOptions) Validate(validate *validator.Validate) error {
	return validate.Struct(opts)
}

// AnyExport reports whether at least one export format is enabled.
func (opts ReportingOptions) AnyExport() bool {
	return opts.EnableCSVExport || opts.EnableJSONExport
}

func (opts ReportingOptions) toValues() map[string]string {
	return map[string]string{
		KeyInstructorViewResults:   strconv.FormatBool(opts.InstructorViewResults),
		KeyStudentViewResults:      strconv.FormatBool(opts.StudentViewResults),
		KeyResponsesRequiredToView: strconv.Itoa(opts.ResponsesRequiredToView),
		KeyEnableCSVExport:         strconv.FormatBool(opts.EnableCSVExport),
		KeyEnableJSONExport:        strconv.FormatBool(opts.EnableJSONExport),
		KeyEnableReportEmail:       strconv.FormatBool(opts.EnableReportEmail),
		KeyMaxReportRecipients:     strconv.Itoa(opts.MaxReportRecipients),
	}
}

// reportingOptionsFrom reads stored values over the defaults. Unparsable values keep the default.
func reportingOptionsFrom(values map[string]string) ReportingOptions {
	opts := DefaultReportingOptions()
	readBool(values, KeyInstructorViewResults, &opts.InstructorViewResults)
	readBool(values, KeyStudentViewResults, &opts.StudentViewResults)
	readInt(values, KeyResponsesRequiredToView, &opts.ResponsesRequiredToView)
	readBool(values, KeyEnableCSVExport, &opts.EnableCSVExport)
	readBool(values, KeyEnableJSONExport, &opts.EnableJSONExport)
	readBool(values, KeyEnableReportEmail, &opts.EnableReportEmail)
	readInt(values, KeyMaxReportRecipients, &opts.MaxReportRecipients)
	return opts
}

func readBool(values map[string]string, key string, dst *bool) {
	if v, ok := values[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func readInt(values map[string]string, key string, dst *int) {
	if v, ok := values[key]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

package settings

import (
	"context"

	"github.com/pkg/errors"
)

type (
	// Repository stores settings as key/value rows.
	Repository interface {
		GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
		SaveSettings(ctx context.Context, values map[string]string) error
	}

	Service interface {
		ReportingOptions(ctx context.Context) (ReportingOptions, error)
		SaveReportingOptions(ctx context.Context, opts ReportingOptions) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) ReportingOptions(ctx context.Context) (ReportingOptions, error) {
	values, err := svc.repo.GetSettings(ctx,
		KeyInstructorViewResults,
		KeyStudentViewResults,
		KeyResponsesRequiredToView,
		KeyEnableCSVExport,
		KeyEnableJSONExport,
		KeyEnableReportEmail,
		KeyMaxReportRecipients,
	)
	if err != nil {
		return ReportingOptions{}, errors.Wrap(err, "getting reporting settings")
	}
	return reportingOptionsFrom(values), nil
}

func (svc *service) SaveReportingOptions(ctx context.Context, opts ReportingOptions) error {
	return errors.Wrap(svc.repo.SaveSettings(ctx, opts.toValues()), "saving reporting settings")
}

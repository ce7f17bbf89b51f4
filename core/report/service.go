package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
)

var (
	ErrResultsHidden      = errors.New("viewing results is disabled for instructors")
	ErrNotEnoughResponses = errors.New("not enough responses to view the results")
	ErrNotYetViewable     = errors.New("the results are not viewable yet")
	ErrExportDisabled     = errors.New("this export format is disabled")
	ErrEmailDisabled      = errors.New("emailing reports is disabled")
)

type (
	Service interface {
		Build(ctx context.Context, e evaluation.Evaluation) (Report, error)
		Summaries(ctx context.Context, e evaluation.Evaluation) ([]ItemSummary, error)
		// Export renders the report in the format, checking it is enabled.
		Export(ctx context.Context, e evaluation.Evaluation, format string, opts settings.ReportingOptions) (evaluation.Attachment, error)
	}

	service struct {
		authSvc  authoring.Service
		evalSvc  evaluation.Service
		groupSvc group.Service
	}
)

var _ Service = (*service)(nil)

func NewService(authSvc authoring.Service, evalSvc evaluation.Service, groupSvc group.Service) Service {
	return &service{
		authSvc:  authSvc,
		evalSvc:  evalSvc,
		groupSvc: groupSvc,
	}
}

func (svc *service) load(ctx context.Context, e evaluation.Evaluation) ([]authoring.TemplateItem, []evaluation.Response, error) {
	tItems, err := svc.authSvc.TemplateItems(ctx, e.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := svc.evalSvc.Responses(ctx, e.ID)
	if err != nil {
		return nil, nil, err
	}
	return tItems, responses, nil
}

func (svc *service) Build(ctx context.Context, e evaluation.Evaluation) (Report, error) {
	tItems, responses, err := svc.load(ctx, e)
	if err != nil {
		return Report{}, err
	}
	groupIDs := make([]string, 0, len(responses))
	for _, r := range responses {
		groupIDs = append(groupIDs, r.GroupID)
	}
	groups, err := svc.groupSvc.GetMany(ctx, groupIDs)
	if err != nil {
		return Report{}, err
	}
	return Build(e.Title, tItems, responses, group.Titles(groups)), nil
}

func (svc *service) Summaries(ctx context.Context, e evaluation.Evaluation) ([]ItemSummary, error) {
	tItems, responses, err := svc.load(ctx, e)
	if err != nil {
		return nil, err
	}
	return Summarize(tItems, responses), nil
}

func (svc *service) Export(ctx context.Context, e evaluation.Evaluation, format string, opts settings.ReportingOptions) (evaluation.Attachment, error) {
	if err := ExportError(format, opts); err != nil {
		return evaluation.Attachment{}, err
	}
	rep, err := svc.Build(ctx, e)
	if err != nil {
		return evaluation.Attachment{}, err
	}
	var buf bytes.Buffer
	if err = Write(&buf, format, rep); err != nil {
		return evaluation.Attachment{}, err
	}
	return evaluation.Attachment{
		Filename:    fmt.Sprintf("evaluation-%d-responses.%s", e.ID, format),
		ContentType: ContentType(format),
		Content:     buf.Bytes(),
	}, nil
}

// ViewError returns why the user may not view the results of the evaluation, or nil.
// Admins always can, owners are subject to the reporting options and to the view date.
func ViewError(usr user.User, e evaluation.Evaluation, opts settings.ReportingOptions, responses int) error {
	switch {
	case usr.IsAdmin():
		return nil
	case !evaluation.CanControlEvaluation(usr, e):
		return core.ErrPermissionDenied
	case !opts.InstructorViewResults:
		return ErrResultsHidden
	case e.State() != evaluation.StateViewable:
		return ErrNotYetViewable
	case responses < opts.ResponsesRequiredToView:
		return ErrNotEnoughResponses
	}
	return nil
}

// ExportError returns why the export format may not be used, or nil.
func ExportError(format string, opts settings.ReportingOptions) error {
	switch format {
	case evaluation.FormatCSV:
		if opts.EnableCSVExport {
			return nil
		}
	case evaluation.FormatJSON:
		if opts.EnableJSONExport {
			return nil
		}
	}
	return ErrExportDisabled
}

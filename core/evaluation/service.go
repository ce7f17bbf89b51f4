package evaluation

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/user"
)

var (
	ErrNotFound         = errors.New("evaluation not found")
	ErrEvaluationClosed = errors.New("this evaluation is closed and cannot be assigned anymore")
	ErrNoGroupsSelected = errors.New("select at least one group or hierarchy node")
	ErrNoRecipients     = errors.New("nobody to notify")
)

type (
	Repository interface {
		// ListEvaluations returns the evaluations owned by `owner`; every evaluation when `owner` is empty.
		ListEvaluations(ctx context.Context, owner string) ([]Evaluation, error)
		GetEvaluation(ctx context.Context, id int64) (Evaluation, error)
		ListAssignGroups(ctx context.Context, evalID int64) ([]AssignGroup, error)
		// ReplaceAssignGroups replaces every group assigned to the evaluation.
		ReplaceAssignGroups(ctx context.Context, evalID int64, assigns []AssignGroup) error
		// ListResponses returns the responses of the evaluation, with their answers.
		ListResponses(ctx context.Context, evalID int64) ([]Response, error)
	}

	Service interface {
		Evaluations(ctx context.Context, usr user.User) ([]Evaluation, error)
		// Get returns an evaluation the user may control.
		Get(ctx context.Context, usr user.User, id int64) (Evaluation, error)
		CanControl(usr user.User, e Evaluation) bool
		Assignments(ctx context.Context, evalID int64) ([]AssignGroup, error)
		// ResolveAssignments expands the selected nodes to the groups under them and adds the selected groups.
		ResolveAssignments(ctx context.Context, nodeIDs []int64, groupIDs []string) ([]Candidate, error)
		SetAssignments(ctx context.Context, usr user.User, e Evaluation, candidates []Candidate) error
		// Responses returns the submitted responses.
		Responses(ctx context.Context, evalID int64) ([]Response, error)
		CountResponses(ctx context.Context, evalID int64) (int, error)
		// Respondents returns the user refs of who submitted a response.
		Respondents(ctx context.Context, evalID int64) ([]string, error)
		// Notify emails the evaluators of the assigned groups and returns how many messages were queued.
		Notify(ctx context.Context, e Evaluation, n Notification) (int, error)
		EmailReport(ctx context.Context, usr user.User, e Evaluation, re ReportEmail, attachments ...Attachment) error
	}

	service struct {
		repo     Repository
		groupSvc group.Service
		hierSvc  hierarchy.Service
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, groupSvc group.Service, hierSvc hierarchy.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:     repo,
		groupSvc: groupSvc,
		hierSvc:  hierSvc,
		mailSvc:  mailSvc,
	}
}

func (svc *service) Evaluations(ctx context.Context, usr user.User) ([]Evaluation, error) {
	owner := usr.ID
	if usr.IsAdmin() {
		owner = ""
	}
	evals, err := svc.repo.ListEvaluations(ctx, owner)
	return evals, errors.Wrap(err, "listing evaluations")
}

func (svc *service) Get(ctx context.Context, usr user.User, id int64) (Evaluation, error) {
	e, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if !CanControlEvaluation(usr, e) {
		return Evaluation{}, core.ErrPermissionDenied
	}
	return e, nil
}

func (svc *service) CanControl(usr user.User, e Evaluation) bool {
	return CanControlEvaluation(usr, e)
}

func (svc *service) Assignments(ctx context.Context, evalID int64) ([]AssignGroup, error) {
	assigns, err := svc.repo.ListAssignGroups(ctx, evalID)
	return assigns, errors.Wrap(err, "listing assigned groups")
}

func (svc *service) ResolveAssignments(ctx context.Context, nodeIDs []int64, groupIDs []string) ([]Candidate, error) {
	var candidates []Candidate
	seen := make(map[string]bool)

	nodeGroups, err := svc.hierSvc.GroupsUnder(ctx, nodeIDs)
	if err != nil {
		return nil, errors.Wrap(err, "getting groups under nodes")
	}
	for _, ng := range nodeGroups {
		if !seen[ng.GroupID] {
			seen[ng.GroupID] = true
			candidates = append(candidates, Candidate{GroupID: ng.GroupID, NodeID: ng.NodeID})
		}
	}
	for _, id := range groupIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			candidates = append(candidates, Candidate{GroupID: id})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.GroupID)
	}
	groups, err := svc.groupSvc.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	titles := group.Titles(groups)

	// unknown groups are dropped
	known := candidates[:0]
	for _, c := range candidates {
		if title, ok := titles[c.GroupID]; ok {
			c.GroupTitle = title
			known = append(known, c)
		}
	}
	sort.SliceStable(known, func(i, j int) bool { return known[i].GroupTitle < known[j].GroupTitle })
	return known, nil
}

func (svc *service) SetAssignments(ctx context.Context, usr user.User, e Evaluation, candidates []Candidate) error {
	if !CanControlEvaluation(usr, e) {
		return core.ErrPermissionDenied
	}
	if e.IsClosed() {
		return ErrEvaluationClosed
	}
	if len(candidates) == 0 {
		return ErrNoGroupsSelected
	}
	assigns := make([]AssignGroup, 0, len(candidates))
	for _, c := range candidates {
		assigns = append(assigns, AssignGroup{EvaluationID: e.ID, GroupID: c.GroupID, NodeID: c.NodeID})
	}
	return errors.Wrap(svc.repo.ReplaceAssignGroups(ctx, e.ID, assigns), "assigning groups")
}

func (svc *service) Responses(ctx context.Context, evalID int64) ([]Response, error) {
	responses, err := svc.repo.ListResponses(ctx, evalID)
	if err != nil {
		return nil, errors.Wrap(err, "listing responses")
	}
	complete := responses[:0]
	for _, r := range responses {
		if r.Complete() {
			complete = append(complete, r)
		}
	}
	return complete, nil
}

func (svc *service) CountResponses(ctx context.Context, evalID int64) (int, error) {
	responses, err := svc.Responses(ctx, evalID)
	return len(responses), err
}

func (svc *service) Respondents(ctx context.Context, evalID int64) ([]string, error) {
	responses, err := svc.Responses(ctx, evalID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(responses))
	refs := make([]string, 0, len(responses))
	for _, r := range responses {
		if !seen[r.Owner] {
			seen[r.Owner] = true
			refs = append(refs, r.Owner)
		}
	}
	sort.Strings(refs)
	return refs, nil
}

func (svc *service) Notify(ctx context.Context, e Evaluation, n Notification) (int, error) {
	assigns, err := svc.Assignments(ctx, e.ID)
	if err != nil {
		return 0, err
	}
	groupIDs := make([]string, 0, len(assigns))
	for _, a := range assigns {
		groupIDs = append(groupIDs, a.GroupID)
	}
	members, err := svc.groupSvc.Members(ctx, group.RoleEvaluator, groupIDs...)
	if err != nil {
		return 0, err
	}
	respondents, err := svc.Respondents(ctx, e.ID)
	if err != nil {
		return 0, err
	}
	responded := make(map[string]bool, len(respondents))
	for _, ref := range respondents {
		responded[ref] = true
	}

	var replyTo *mail.Address
	if e.ReminderFromEmail != "" {
		if addr, err := mail.ParseAddress(e.ReminderFromEmail); err == nil {
			replyTo = addr
		}
	}

	seen := make(map[string]bool, len(members))
	messages := make([]*core.EmailMessage, 0, len(members))
	for _, m := range members {
		if m.Email == "" || seen[m.UserRef] {
			continue
		}
		switch n.Audience {
		case AudienceRespondents:
			if !responded[m.UserRef] {
				continue
			}
		case AudienceNonRespondents:
			if responded[m.UserRef] {
				continue
			}
		}
		seen[m.UserRef] = true
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: m.Name, Address: m.Email}},
			ReplyTo:      replyTo,
			Subject:      n.Subject,
			TemplateName: "evaluation_notify",
			TemplateData: map[string]interface{}{
				"Name":         m.Name,
				"Evaluation":   e.Title,
				"Body":         n.Body,
				"DueDate":      e.DueDate,
				"Instructions": e.Instructions,
			},
		})
	}
	if len(messages) == 0 {
		return 0, ErrNoRecipients
	}
	svc.mailSvc.SendMessages(messages...)
	return len(messages), nil
}

func (svc *service) EmailReport(ctx context.Context, usr user.User, e Evaluation, re ReportEmail, attachments ...Attachment) error {
	if !CanControlEvaluation(usr, e) {
		return core.ErrPermissionDenied
	}
	if len(re.Addresses()) == 0 {
		return ErrNoRecipients
	}
	msg := &core.EmailMessage{
		To:           re.Addresses(),
		Subject:      re.Subject,
		TemplateName: "evaluation_report",
		TemplateData: map[string]interface{}{
			"Sender":     usr.DisplayName(),
			"Evaluation": e.Title,
			"Message":    re.Message,
		},
	}
	if usr.Email != "" {
		msg.ReplyTo = &mail.Address{Name: usr.Name, Address: usr.Email}
	}
	for _, at := range attachments {
		if err := msg.Attach(bytes.NewReader(at.Content), at.Filename, at.ContentType); err != nil {
			return errors.Wrap(err, fmt.Sprintf("attaching %s", at.Filename))
		}
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/apps/web/nav"
	"github.com/trezcool/evaladmin/apps/web/view"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/user"
)

const (
	dateLayout       = "2006-01-02 15:04"
	actionAssign     = "assign"
	actionChange     = "change"
	nodeParam        = "node"
	groupParam       = "group"
	evaluationsTitle = "Evaluations"
)

var (
	evaluationsCases = nav.Cases{
		{Outcome: outcomeAssigned, ViewID: viewEvaluationAssignments},
		{Outcome: outcomeChange, ViewID: viewEvaluationAssign},
	}
	notifyCases = nav.Cases{
		{Outcome: outcomeSent, ViewID: viewControlEvaluations},
	}

	evaluationOrderings = []string{"title", "state", "start_date", "due_date"}
	stateLabels         = map[string]string{
		evaluation.StateInQueue:     "In queue",
		evaluation.StateActive:      "Active",
		evaluation.StateGracePeriod: "Grace period",
		evaluation.StateClosed:      "Closed",
		evaluation.StateViewable:    "Viewable",
	}
)

type evaluationPages struct {
	*base
	svc      evaluation.Service
	hierSvc  hierarchy.Service
	groupSvc group.Service
}

func registerEvaluationPages(g *echo.Group, b *base, svc evaluation.Service, hierSvc hierarchy.Service, groupSvc group.Service) {
	p := evaluationPages{base: b, svc: svc, hierSvc: hierSvc, groupSvc: groupSvc}

	eg := g.Group("/evaluations")
	eg.GET("", p.control).Name = viewControlEvaluations
	eg.GET("/:id/assign", p.assign).Name = viewEvaluationAssign
	eg.GET("/:id/assign/confirm", p.assignConfirm).Name = viewEvaluationAssignConfirm
	eg.POST("/:id/assign/confirm", p.assignConfirmSubmit).Name = viewEvaluationAssignConfirm
	eg.GET("/:id/assignments", p.assignments).Name = viewEvaluationAssignments
	eg.GET("/:id/notify", p.notify).Name = viewEvaluationNotify
	eg.POST("/:id/notify", p.notifySubmit).Name = viewEvaluationNotify
}

func formatDate(t time.Time, zero string) string {
	if t.IsZero() {
		return zero
	}
	return t.UTC().Format(dateLayout)
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// evaluationParam returns the evaluation of the `:id` path param, if the user controls it.
func evaluationParam(ctx echo.Context, svc evaluation.Service) (evaluation.Evaluation, user.User, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return evaluation.Evaluation{}, usr, err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return evaluation.Evaluation{}, usr, err
	}
	e, err := svc.Get(ctx.Request().Context(), usr, id)
	return e, usr, err
}

func (p *evaluationPages) control(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	evals, err := p.svc.Evaluations(reqCtx, usr)
	if err != nil {
		return err
	}

	var ord Ordering
	ord.Bind(ctx, evaluationOrderings...)
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i], evals[j]
		return ord.Less(func(field string) int {
			switch field {
			case "title":
				return compareStrings(a.Title, b.Title)
			case "state":
				return compareStrings(a.State(), b.State())
			case "start_date":
				return compareTimes(a.StartDate, b.StartDate)
			case "due_date":
				return compareTimes(a.DueDate, b.DueDate)
			}
			return 0
		})
	})

	table := view.Table{
		Headers: []string{"Title", "State", "Start", "Due", "Responses", "Actions"},
		Empty:   "There are no evaluations.",
	}
	for _, e := range evals {
		count, err := p.svc.CountResponses(reqCtx, e.ID)
		if err != nil {
			return err
		}
		actions := []view.Component{
			view.Link{Text: "Assignments", URL: ctx.Echo().Reverse(viewEvaluationAssignments, e.ID)},
			view.Link{Text: "Notify", URL: ctx.Echo().Reverse(viewEvaluationNotify, e.ID)},
			view.Link{Text: "Report", URL: ctx.Echo().Reverse(viewReport, e.ID)},
		}
		if !e.IsClosed() {
			actions = append([]view.Component{view.Link{Text: "Assign", URL: ctx.Echo().Reverse(viewEvaluationAssign, e.ID)}}, actions...)
		}
		table.Rows = append(table.Rows, view.Row{
			Class: "state-" + e.State(),
			Cells: []view.Cell{
				{Content: []view.Component{view.T(e.Title)}},
				{Content: []view.Component{view.T(stateLabels[e.State()])}},
				{Content: []view.Component{view.T(formatDate(e.StartDate, ""))}},
				{Content: []view.Component{view.T(formatDate(e.DueDate, "never"))}},
				{Content: []view.Component{view.T(strconv.Itoa(count))}},
				{Content: actions},
			},
		})
	}

	page := p.newPage(ctx, viewControlEvaluations, evaluationsTitle)
	page.Add(table)
	return p.render(ctx, http.StatusOK, page)
}

// selection reads the nodes and groups picked in the assign step.
func selection(values url.Values) ([]int64, []string) {
	return queryIDs(values, nodeParam), core.CleanStrings(values[groupParam])
}

func selectionQuery(nodeIDs []int64, groupIDs []string) url.Values {
	q := make(url.Values)
	for _, id := range nodeIDs {
		q.Add(nodeParam, itoa(id))
	}
	for _, id := range groupIDs {
		q.Add(groupParam, id)
	}
	return q
}

func (p *evaluationPages) assign(ctx echo.Context) error {
	e, _, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	page := p.newPage(ctx, viewEvaluationAssign, "Assign "+e.Title, crumb(ctx, evaluationsTitle, viewControlEvaluations))
	if e.IsClosed() {
		page.Add(view.Message{Level: view.LevelWarning, Text: evaluation.ErrEvaluationClosed.Error()})
		return p.render(ctx, http.StatusOK, page)
	}

	// coming back from the confirmation keeps the selection, otherwise start from the current assignments
	nodeIDs, groupIDs := selection(ctx.QueryParams())
	if len(nodeIDs) == 0 && len(groupIDs) == 0 {
		assigns, err := p.svc.Assignments(reqCtx, e.ID)
		if err != nil {
			return err
		}
		for _, a := range assigns {
			groupIDs = append(groupIDs, a.GroupID)
		}
	}
	selectedNodes := make(map[int64]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		selectedNodes[id] = true
	}

	tree, err := p.hierSvc.Tree(reqCtx)
	if err != nil {
		return err
	}
	groups, err := p.groupSvc.List(reqCtx)
	if err != nil {
		return err
	}

	nodes := view.Table{Caption: "Hierarchy nodes", Headers: []string{"Node", "Groups"}}
	for _, tn := range tree {
		nodes.Rows = append(nodes.Rows, view.Row{Cells: []view.Cell{
			{Indent: tn.Depth, Content: []view.Component{view.Checkbox{
				Name:    nodeParam,
				Label:   tn.Title,
				Value:   itoa(tn.ID),
				Checked: selectedNodes[tn.ID],
			}}},
			{Content: []view.Component{view.T(strconv.Itoa(tn.GroupCount))}},
		}})
	}
	groupBoxes := view.Container{Class: "groups"}
	for _, g := range groups {
		groupBoxes.Children = append(groupBoxes.Children, view.Checkbox{
			Name:    groupParam,
			Label:   g.Title,
			Value:   g.ID,
			Checked: core.StringInSlice(g.ID, groupIDs),
		})
	}

	page.Add(
		view.Text{Text: "Select hierarchy nodes to assign every group under them, or pick groups directly."},
		view.Form{
			Action: ctx.Echo().Reverse(viewEvaluationAssignConfirm, e.ID),
			Method: http.MethodGet,
			Children: []view.Component{
				nodes,
				view.Heading{Text: "Groups"},
				groupBoxes,
				view.Button{Label: "Continue"},
			},
		},
	)
	return p.render(ctx, http.StatusOK, page)
}

func (p *evaluationPages) confirmPage(
	ctx echo.Context,
	e evaluation.Evaluation,
	nodeIDs []int64,
	groupIDs []string,
	candidates []evaluation.Candidate,
	fe formErrors,
) (*view.Page, error) {
	tree, err := p.hierSvc.Tree(ctx.Request().Context())
	if err != nil {
		return nil, err
	}
	nodeTitles := make(map[int64]string, len(tree))
	for _, tn := range tree {
		nodeTitles[tn.ID] = tn.Title
	}

	page := p.newPage(ctx, viewEvaluationAssignConfirm, "Confirm assignment of "+e.Title,
		crumb(ctx, evaluationsTitle, viewControlEvaluations),
		view.Crumb{
			Text: "Assign " + e.Title,
			URL:  ctx.Echo().Reverse(viewEvaluationAssign, e.ID) + "?" + selectionQuery(nodeIDs, groupIDs).Encode(),
		},
	)

	table := view.Table{Headers: []string{"Group", "From node"}, Empty: "No group matches the selection."}
	for _, c := range candidates {
		from := ""
		if c.NodeID != 0 {
			from = nodeTitles[c.NodeID]
		}
		table.Rows = append(table.Rows, view.Cells(view.T(c.GroupTitle), view.T(from)))
	}

	form := view.Form{Action: ctx.Echo().Reverse(viewEvaluationAssignConfirm, e.ID), CSRF: page.CSRF, Errors: fe.form}
	for _, id := range nodeIDs {
		form.Children = append(form.Children, view.Hidden{Name: nodeParam, Value: itoa(id)})
	}
	for _, id := range groupIDs {
		form.Children = append(form.Children, view.Hidden{Name: groupParam, Value: id})
	}
	form.Children = append(form.Children, table)
	if len(candidates) > 0 {
		form.Children = append(form.Children, view.Button{Name: actionField, Value: actionAssign, Label: fmt.Sprintf("Assign %d groups", len(candidates))})
	}
	form.Children = append(form.Children, view.Button{Name: actionField, Value: actionChange, Label: "Change selection", Class: "secondary"})
	page.Add(
		view.Text{Text: "The groups below will replace the current assignments."},
		form,
	)
	return page, nil
}

func (p *evaluationPages) assignConfirm(ctx echo.Context) error {
	e, _, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	nodeIDs, groupIDs := selection(ctx.QueryParams())
	candidates, err := p.svc.ResolveAssignments(ctx.Request().Context(), nodeIDs, groupIDs)
	if err != nil {
		return err
	}
	page, err := p.confirmPage(ctx, e, nodeIDs, groupIDs, candidates, formErrors{})
	if err != nil {
		return err
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *evaluationPages) assignConfirmSubmit(ctx echo.Context) error {
	e, usr, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	nodeIDs, groupIDs := selection(params)
	if params.Get(actionField) == actionChange {
		return p.navigateWithQuery(ctx, evaluationsCases, outcomeChange, selectionQuery(nodeIDs, groupIDs), nil, e.ID)
	}

	reqCtx := ctx.Request().Context()
	candidates, err := p.svc.ResolveAssignments(reqCtx, nodeIDs, groupIDs)
	if err != nil {
		return err
	}
	if err = p.svc.SetAssignments(reqCtx, usr, e, candidates); err != nil {
		switch errors.Cause(err) {
		case evaluation.ErrNoGroupsSelected, evaluation.ErrEvaluationClosed:
			page, pErr := p.confirmPage(ctx, e, nodeIDs, groupIDs, candidates, formErrors{form: []string{err.Error()}})
			if pErr != nil {
				return pErr
			}
			return p.render(ctx, http.StatusBadRequest, page)
		}
		return err
	}
	return p.navigate(ctx, evaluationsCases, outcomeAssigned,
		success(fmt.Sprintf("%d groups have been assigned to \"%s\".", len(candidates), e.Title)), e.ID)
}

func (p *evaluationPages) assignments(ctx echo.Context) error {
	e, _, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	assigns, err := p.svc.Assignments(reqCtx, e.ID)
	if err != nil {
		return err
	}
	groupIDs := make([]string, 0, len(assigns))
	for _, a := range assigns {
		groupIDs = append(groupIDs, a.GroupID)
	}
	groups, err := p.groupSvc.GetMany(reqCtx, groupIDs)
	if err != nil {
		return err
	}
	titles := group.Titles(groups)
	tree, err := p.hierSvc.Tree(reqCtx)
	if err != nil {
		return err
	}
	nodeTitles := make(map[int64]string, len(tree))
	for _, tn := range tree {
		nodeTitles[tn.ID] = tn.Title
	}

	table := view.Table{Headers: []string{"Group", "From node"}, Empty: "This evaluation is not assigned to any group."}
	for _, a := range assigns {
		title := titles[a.GroupID]
		if title == "" {
			title = a.GroupID
		}
		table.Rows = append(table.Rows, view.Cells(view.T(title), view.T(nodeTitles[a.NodeID])))
	}

	page := p.newPage(ctx, viewEvaluationAssignments, "Assignments of "+e.Title, crumb(ctx, evaluationsTitle, viewControlEvaluations))
	page.Add(table)
	if !e.IsClosed() {
		page.Add(view.Link{Text: "Change the assignments", URL: ctx.Echo().Reverse(viewEvaluationAssign, e.ID)})
	}
	return p.render(ctx, http.StatusOK, page)
}

func (p *evaluationPages) notifyPage(ctx echo.Context, e evaluation.Evaluation, n evaluation.Notification, fe formErrors) *view.Page {
	page := p.newPage(ctx, viewEvaluationNotify, "Notify evaluators of "+e.Title, crumb(ctx, evaluationsTitle, viewControlEvaluations))
	if n.Audience == "" {
		n.Audience = evaluation.AudienceAll
	}
	page.Add(view.Form{
		Action: ctx.Echo().Reverse(viewEvaluationNotify, e.ID),
		CSRF:   page.CSRF,
		Errors: fe.form,
		Children: []view.Component{
			view.Radio{
				Name:  "audience",
				Label: "Send to",
				Error: fe.field("audience"),
				Options: []view.Option{
					{Value: evaluation.AudienceAll, Label: "All evaluators", Selected: n.Audience == evaluation.AudienceAll},
					{Value: evaluation.AudienceNonRespondents, Label: "Evaluators who have not responded", Selected: n.Audience == evaluation.AudienceNonRespondents},
					{Value: evaluation.AudienceRespondents, Label: "Evaluators who have responded", Selected: n.Audience == evaluation.AudienceRespondents},
				},
			},
			view.Input{Name: "subject", Label: "Subject", Value: n.Subject, Error: fe.field("subject"), Required: true},
			view.TextArea{Name: "body", Label: "Message", Value: n.Body, Rows: 8, Error: fe.field("body")},
			view.Button{Label: "Send"},
		},
	})
	return page
}

func (p *evaluationPages) notify(ctx echo.Context) error {
	e, _, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	n := evaluation.Notification{Subject: e.Title}
	return p.render(ctx, http.StatusOK, p.notifyPage(ctx, e, n, formErrors{}))
}

func (p *evaluationPages) notifySubmit(ctx echo.Context) error {
	e, _, err := evaluationParam(ctx, p.svc)
	if err != nil {
		return err
	}
	var n evaluation.Notification
	if err = ctx.Bind(&n); err != nil {
		return errors.Wrap(err, "binding to Notification")
	}
	if err = n.Validate(p.validate); err != nil {
		fe, ok := p.validationErrors(err)
		if !ok {
			return err
		}
		return p.render(ctx, http.StatusBadRequest, p.notifyPage(ctx, e, n, fe))
	}
	sent, err := p.svc.Notify(ctx.Request().Context(), e, n)
	if err != nil {
		if errors.Cause(err) == evaluation.ErrNoRecipients {
			return p.render(ctx, http.StatusBadRequest, p.notifyPage(ctx, e, n, formErrors{form: []string{err.Error()}}))
		}
		return err
	}
	return p.navigate(ctx, notifyCases, outcomeSent, success(fmt.Sprintf("%d messages have been sent.", sent)))
}

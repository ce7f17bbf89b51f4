package evaluation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/assets"
	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/user"
	emailsvc "github.com/trezcool/evaladmin/services/email"
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
	"github.com/trezcool/evaladmin/testutil"
)

var (
	admin      = user.User{ID: "admin", Name: "Ada Admin", Email: "ada@test.cd", Roles: []string{user.RoleAdmin}}
	instructor = user.User{ID: "instructor", Roles: user.InstructorRoles}
)

type fixture struct {
	db      *inmemdb.DB
	svc     evaluation.Service
	hierSvc hierarchy.Service
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	require.NoError(t, core.ParseEmailTemplates(assets.FS, conf, logger))

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	hierSvc := hierarchy.NewService(inmemdb.NewHierarchyRepository(db))
	groupSvc := group.NewService(inmemdb.NewGroupRepository(db))
	return fixture{
		db:      db,
		svc:     evaluation.NewService(inmemdb.NewEvaluationRepository(db), groupSvc, hierSvc, mailSvc),
		hierSvc: hierSvc,
		mailSvc: mailSvc,
	}
}

func (fx fixture) active(title, owner string) evaluation.Evaluation {
	now := time.Now().UTC()
	return fx.db.AddEvaluation(evaluation.Evaluation{
		Title:     title,
		Owner:     owner,
		StartDate: now.Add(-24 * time.Hour),
		DueDate:   now.Add(24 * time.Hour),
	})
}

func (fx fixture) closed(title, owner string) evaluation.Evaluation {
	now := time.Now().UTC()
	return fx.db.AddEvaluation(evaluation.Evaluation{
		Title:     title,
		Owner:     owner,
		StartDate: now.Add(-48 * time.Hour),
		DueDate:   now.Add(-24 * time.Hour),
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	mine := fx.active("Mine", instructor.ID)
	theirs := fx.active("Theirs", "other")

	evals, err := fx.svc.Evaluations(ctx, instructor)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, mine.ID, evals[0].ID)

	evals, err = fx.svc.Evaluations(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, evals, 2)

	_, err = fx.svc.Get(ctx, instructor, theirs.ID)
	assert.Equal(t, core.ErrPermissionDenied, err)
	_, err = fx.svc.Get(ctx, admin, theirs.ID)
	assert.NoError(t, err)
	_, err = fx.svc.Get(ctx, admin, 999)
	assert.Equal(t, evaluation.ErrNotFound, err)
}

func TestService_ResolveAssignments(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	root, err := fx.hierSvc.Root(ctx)
	require.NoError(t, err)
	science, err := fx.hierSvc.Add(ctx, root.ID, hierarchy.NewNode{Title: "Science"})
	require.NoError(t, err)
	physics, err := fx.hierSvc.Add(ctx, science.ID, hierarchy.NewNode{Title: "Physics"})
	require.NoError(t, err)

	fx.db.AddGroup(group.Group{ID: "PHY101", Title: "Physics 101"})
	fx.db.AddGroup(group.Group{ID: "CHM101", Title: "Chemistry 101"})
	fx.db.AddGroup(group.Group{ID: "ART101", Title: "Art 101"})
	require.NoError(t, fx.hierSvc.SetNodeGroups(ctx, physics.ID, []string{"PHY101", "GONE"}))
	require.NoError(t, fx.hierSvc.SetNodeGroups(ctx, science.ID, []string{"CHM101"}))

	candidates, err := fx.svc.ResolveAssignments(ctx, []int64{science.ID}, []string{"ART101", "PHY101", "UNKNOWN", ""})
	require.NoError(t, err)
	assert.Equal(t, []evaluation.Candidate{
		{GroupID: "ART101", GroupTitle: "Art 101"},
		{GroupID: "CHM101", GroupTitle: "Chemistry 101", NodeID: science.ID},
		{GroupID: "PHY101", GroupTitle: "Physics 101", NodeID: physics.ID},
	}, candidates)

	// a group under several selected nodes keeps the first node reached
	labs, err := fx.hierSvc.Add(ctx, root.ID, hierarchy.NewNode{Title: "Labs"})
	require.NoError(t, err)
	require.NoError(t, fx.hierSvc.SetNodeGroups(ctx, labs.ID, []string{"PHY101"}))
	candidates, err = fx.svc.ResolveAssignments(ctx, []int64{labs.ID, science.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []evaluation.Candidate{
		{GroupID: "CHM101", GroupTitle: "Chemistry 101", NodeID: science.ID},
		{GroupID: "PHY101", GroupTitle: "Physics 101", NodeID: labs.ID},
	}, candidates)

	candidates, err = fx.svc.ResolveAssignments(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestService_SetAssignments(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	e := fx.active("Midterm", instructor.ID)
	closed := fx.closed("Final", instructor.ID)
	candidates := []evaluation.Candidate{{GroupID: "PHY101", NodeID: 3}, {GroupID: "CHM101"}}

	assert.Equal(t, core.ErrPermissionDenied, fx.svc.SetAssignments(ctx, user.User{ID: "other"}, e, candidates))
	assert.Equal(t, evaluation.ErrEvaluationClosed, fx.svc.SetAssignments(ctx, instructor, closed, candidates))
	assert.Equal(t, evaluation.ErrNoGroupsSelected, fx.svc.SetAssignments(ctx, instructor, e, nil))

	require.NoError(t, fx.svc.SetAssignments(ctx, instructor, e, candidates))
	require.NoError(t, fx.svc.SetAssignments(ctx, instructor, e, candidates[1:]))

	assigns, err := fx.svc.Assignments(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, assigns, 1, "assignments are replaced")
	assert.Equal(t, "CHM101", assigns[0].GroupID)
	assert.Equal(t, e.ID, assigns[0].EvaluationID)
}

func TestService_Responses(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	e := fx.closed("Final", admin.ID)
	start := time.Now().UTC().Add(-30 * time.Hour)

	for _, r := range []evaluation.Response{
		{Owner: "s2", EndTime: start.Add(time.Hour)},
		{Owner: "s1", EndTime: start.Add(time.Hour)},
		{Owner: "s1", EndTime: start.Add(2 * time.Hour)},
		{Owner: "s3"},
	} {
		r.EvaluationID = e.ID
		r.GroupID = "PHY101"
		r.StartTime = start
		fx.db.AddResponse(r)
	}

	count, err := fx.svc.CountResponses(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	refs, err := fx.svc.Respondents(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, refs)
}

func TestService_Notify(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	fx.db.AddGroup(group.Group{ID: "PHY101", Title: "Physics 101"},
		group.Member{UserRef: "s1", Name: "Sam One", Email: "sam@test.cd", Role: group.RoleEvaluator},
		group.Member{UserRef: "s2", Name: "Sue Two", Email: "sue@test.cd", Role: group.RoleEvaluator},
		group.Member{UserRef: "t1", Name: "Tina Tutor", Email: "tina@test.cd", Role: group.RoleEvaluatee},
	)
	e := fx.active("Midterm", admin.ID)
	e.ReminderFromEmail = "Office <office@test.cd>"
	require.NoError(t, fx.svc.SetAssignments(ctx, admin, e, []evaluation.Candidate{{GroupID: "PHY101"}}))
	fx.db.AddResponse(evaluation.Response{
		EvaluationID: e.ID,
		GroupID:      "PHY101",
		Owner:        "s1",
		StartTime:    time.Now().UTC().Add(-time.Hour),
		EndTime:      time.Now().UTC(),
	})

	tests := []struct {
		audience string
		wantTo   []string
	}{
		{audience: evaluation.AudienceAll, wantTo: []string{"sam@test.cd", "sue@test.cd"}},
		{audience: evaluation.AudienceRespondents, wantTo: []string{"sam@test.cd"}},
		{audience: evaluation.AudienceNonRespondents, wantTo: []string{"sue@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.audience, func(t *testing.T) {
			fx.mailSvc.Reset()
			n, err := fx.svc.Notify(ctx, e, evaluation.Notification{Audience: tt.audience, Subject: "Reminder", Body: "Please respond."})
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantTo), n)

			var to []string
			for _, msg := range fx.mailSvc.SentMessages() {
				to = append(to, msg.To[0].Address)
				require.NotNil(t, msg.ReplyTo)
				assert.Equal(t, "office@test.cd", msg.ReplyTo.Address)
				assert.Contains(t, msg.TextContent, "Evaluation: Midterm")
			}
			assert.ElementsMatch(t, tt.wantTo, to)
		})
	}

	_, err := fx.svc.Notify(ctx, fx.active("Quiz", admin.ID), evaluation.Notification{Audience: evaluation.AudienceAll, Subject: "Hi", Body: "Hi"})
	assert.Equal(t, evaluation.ErrNoRecipients, err)
}

func TestService_EmailReport(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)
	validate, _ := testutil.NewValidator()
	e := fx.closed("Final", instructor.ID)

	re := evaluation.ReportEmail{Recipients: "a@test.cd; Bob <b@test.cd>", Subject: "Results", Message: "Enjoy.", Format: "csv"}
	require.NoError(t, re.Validate(validate, 5))

	at := evaluation.Attachment{Filename: "report.csv", ContentType: "text/csv", Content: []byte("a,b\n1,2\n")}
	assert.Equal(t, core.ErrPermissionDenied, fx.svc.EmailReport(ctx, user.User{ID: "other"}, e, re, at))
	assert.Equal(t, evaluation.ErrNoRecipients, fx.svc.EmailReport(ctx, admin, e, evaluation.ReportEmail{Subject: "Results"}, at))
	assert.Empty(t, fx.mailSvc.SentMessages())

	require.NoError(t, fx.svc.EmailReport(ctx, admin, e, re, at))
	sent := fx.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Len(t, msg.To, 2)
	assert.Equal(t, "Bob", msg.To[1].Name)
	assert.Equal(t, "Results", msg.Subject)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, admin.Email, msg.ReplyTo.Address)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "report.csv", msg.Attachments[0].Filename)
	assert.Contains(t, msg.TextContent, "Enjoy.")
}

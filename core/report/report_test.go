package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/settings"
	"github.com/trezcool/evaladmin/core/user"
)

func intPtr(i int) *int { return &i }

func fixtures() ([]authoring.TemplateItem, []evaluation.Response) {
	agree := &authoring.Scale{ID: 1, Title: "Agreement", Options: []string{"Disagree", "Neutral", "Agree"}}
	tItems := []authoring.TemplateItem{
		{ID: 10, Item: authoring.Item{ID: 1, Text: "Course", Classification: authoring.ClassHeader}},
		{ID: 11, Item: authoring.Item{ID: 2, Text: "Clear goals", Classification: authoring.ClassScaled, Scale: agree, UsesNA: true, UsesComment: true}},
		{ID: 12, Item: authoring.Item{ID: 3, Text: "Good parts", Classification: authoring.ClassMultipleAnswer, Scale: agree}},
		{ID: 13, Item: authoring.Item{ID: 4, Text: "Remarks", Classification: authoring.ClassText}},
	}
	end := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	responses := []evaluation.Response{
		{ID: 1, GroupID: "g1", EndTime: end, Answers: []evaluation.Answer{
			{TemplateItemID: 11, NumericAnswer: intPtr(2), Comment: "great"},
			{TemplateItemID: 12, MultiAnswer: []int{0, 2}},
			{TemplateItemID: 13, TextAnswer: "more labs"},
		}},
		{ID: 2, GroupID: "g2", EndTime: end, Answers: []evaluation.Answer{
			{TemplateItemID: 11, NA: true},
		}},
	}
	return tItems, responses
}

func TestBuild(t *testing.T) {
	tItems, responses := fixtures()
	rep := Build("Eval", tItems, responses, map[string]string{"g1": "Section 1"})

	assert.Equal(t, []string{
		"Response", "Group", "Submitted",
		"1. Clear goals", "1. Clear goals (comment)", "2. Good parts", "3. Remarks",
	}, rep.Columns)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, []string{"1", "Section 1", "2021-03-01 10:00:00", "Agree", "great", "Disagree; Agree", "more labs"}, rep.Rows[0])
	assert.Equal(t, []string{"2", "g2", "2021-03-01 10:00:00", NotApplicable, "", "", ""}, rep.Rows[1])
}

func TestSummarize(t *testing.T) {
	tItems, responses := fixtures()
	summaries := Summarize(tItems, responses)
	require.Len(t, summaries, 3)

	scaled := summaries[0]
	assert.Equal(t, int64(11), scaled.TemplateItem.ID)
	assert.Equal(t, []OptionCount{{"Disagree", 0}, {"Neutral", 0}, {"Agree", 1}}, scaled.Options)
	assert.Equal(t, 1, scaled.NACount)
	assert.Equal(t, 1, scaled.CommentCount)
	assert.Equal(t, 2, scaled.Answered)

	multi := summaries[1]
	assert.Equal(t, []OptionCount{{"Disagree", 1}, {"Neutral", 0}, {"Agree", 1}}, multi.Options)
	assert.Equal(t, 1, multi.Answered)

	text := summaries[2]
	assert.Equal(t, 1, text.TextCount)
}

func TestWriters(t *testing.T) {
	rep := Report{Title: "Eval", Columns: []string{"a", "b"}, Rows: [][]string{{"1", "x, y"}}}

	var csvBuf bytes.Buffer
	require.NoError(t, WriteCSV(&csvBuf, rep))
	assert.Equal(t, "a,b\n1,\"x, y\"\n", csvBuf.String())

	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, evaluation.FormatJSON, Report{Title: "Empty", Columns: []string{"a"}}))
	var decoded Report
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	assert.Equal(t, "Empty", decoded.Title)
	assert.NotNil(t, decoded.Rows)
	assert.True(t, strings.Contains(jsonBuf.String(), `"rows": []`))

	assert.Equal(t, "text/csv", ContentType(evaluation.FormatCSV))
	assert.Equal(t, "application/json", ContentType(evaluation.FormatJSON))
}

func TestViewError(t *testing.T) {
	admin := user.User{ID: "a", Roles: []string{user.RoleAdmin}}
	owner := user.User{ID: "o", Roles: []string{user.RoleInstructor}}
	other := user.User{ID: "x", Roles: []string{user.RoleInstructor}}
	now := time.Now().UTC()
	e := evaluation.Evaluation{ID: 1, Owner: owner.ID, StartDate: now.AddDate(0, 0, -30), DueDate: now.AddDate(0, 0, -10)}
	active := e
	active.DueDate = now.AddDate(0, 0, 7)
	closed := e
	closed.ViewDate = now.AddDate(0, 0, 10)

	opts := settings.DefaultReportingOptions()
	hidden := opts
	hidden.InstructorViewResults = false

	tests := []struct {
		name      string
		usr       user.User
		eval      *evaluation.Evaluation
		opts      settings.ReportingOptions
		responses int
		wantErr   error
	}{
		{name: "admin sees everything", usr: admin, opts: hidden},
		{name: "not owner", usr: other, opts: opts, responses: 10, wantErr: core.ErrPermissionDenied},
		{name: "instructors hidden", usr: owner, opts: hidden, responses: 10, wantErr: ErrResultsHidden},
		{name: "not enough responses", usr: owner, opts: opts, responses: 4, wantErr: ErrNotEnoughResponses},
		{name: "owner", usr: owner, opts: opts, responses: 5},
		{name: "owner of an active evaluation", usr: owner, eval: &active, opts: opts, responses: 5, wantErr: ErrNotYetViewable},
		{name: "owner before the view date", usr: owner, eval: &closed, opts: opts, responses: 5, wantErr: ErrNotYetViewable},
		{name: "admin before the view date", usr: admin, eval: &closed, opts: opts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := e
			if tt.eval != nil {
				ev = *tt.eval
			}
			assert.Equal(t, tt.wantErr, ViewError(tt.usr, ev, tt.opts, tt.responses))
		})
	}
}

func TestExportError(t *testing.T) {
	opts := settings.DefaultReportingOptions()
	assert.NoError(t, ExportError(evaluation.FormatCSV, opts))
	assert.Equal(t, ErrExportDisabled, ExportError(evaluation.FormatJSON, opts))
	assert.Equal(t, ErrExportDisabled, ExportError("xml", opts))
}

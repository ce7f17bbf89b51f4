// Package report turns the responses of an evaluation into tables, summaries and export files.
package report

import (
	"fmt"
	"strings"

	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
)

const (
	NotApplicable = "N/A"
	multiSep      = "; "
	commentSuffix = " (comment)"
	timeLayout    = "2006-01-02 15:04:05"
)

// Report is the tabular form of the responses: one row per response.
type Report struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type column struct {
	templateItemID int64
	item           authoring.Item
	comment        bool
}

// Build builds the report of the responses to the template items.
// Headers are not answerable and get no column.
func Build(title string, tItems []authoring.TemplateItem, responses []evaluation.Response, groupTitles map[string]string) Report {
	rep := Report{
		Title:   title,
		Columns: []string{"Response", "Group", "Submitted"},
	}

	var cols []column
	num := 0
	for _, ti := range tItems {
		if !ti.Item.Answerable() {
			continue
		}
		num++
		label := fmt.Sprintf("%d. %s", num, ti.Item.Text)
		cols = append(cols, column{templateItemID: ti.ID, item: ti.Item})
		rep.Columns = append(rep.Columns, label)
		if ti.Item.UsesComment {
			cols = append(cols, column{templateItemID: ti.ID, item: ti.Item, comment: true})
			rep.Columns = append(rep.Columns, label+commentSuffix)
		}
	}

	rep.Rows = make([][]string, 0, len(responses))
	for _, r := range responses {
		answers := make(map[int64]evaluation.Answer, len(r.Answers))
		for _, a := range r.Answers {
			answers[a.TemplateItemID] = a
		}

		groupTitle := groupTitles[r.GroupID]
		if groupTitle == "" {
			groupTitle = r.GroupID
		}
		row := make([]string, 0, len(rep.Columns))
		row = append(row, fmt.Sprintf("%d", r.ID), groupTitle, r.EndTime.UTC().Format(timeLayout))
		for _, col := range cols {
			a, ok := answers[col.templateItemID]
			switch {
			case !ok:
				row = append(row, "")
			case col.comment:
				row = append(row, a.Comment)
			default:
				row = append(row, AnswerText(col.item, a))
			}
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// AnswerText renders an answer: scale labels for choices, "N/A" when not applicable.
func AnswerText(it authoring.Item, a evaluation.Answer) string {
	if a.NA {
		return NotApplicable
	}
	switch it.Classification {
	case authoring.ClassText:
		return a.TextAnswer
	case authoring.ClassMultipleAnswer:
		labels := make([]string, 0, len(a.MultiAnswer))
		for _, idx := range a.MultiAnswer {
			labels = append(labels, optionLabel(it, idx))
		}
		return strings.Join(labels, multiSep)
	case authoring.ClassScaled, authoring.ClassMultipleChoice:
		if a.NumericAnswer == nil {
			return ""
		}
		return optionLabel(it, *a.NumericAnswer)
	}
	return ""
}

func optionLabel(it authoring.Item, idx int) string {
	opts := it.Options()
	if idx >= 0 && idx < len(opts) {
		return opts[idx]
	}
	return fmt.Sprintf("%d", idx)
}

package report

import (
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
)

type (
	OptionCount struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	// ItemSummary aggregates the answers to one template item.
	ItemSummary struct {
		TemplateItem authoring.TemplateItem `json:"template_item"`
		Options      []OptionCount          `json:"options"`
		NACount      int                    `json:"na_count"`
		TextCount    int                    `json:"text_count"`
		CommentCount int                    `json:"comment_count"`
		Answered     int                    `json:"answered"`
	}
)

// Summarize counts the answers of every answerable template item.
func Summarize(tItems []authoring.TemplateItem, responses []evaluation.Response) []ItemSummary {
	summaries := make([]ItemSummary, 0, len(tItems))
	index := make(map[int64]int, len(tItems))
	for _, ti := range tItems {
		if !ti.Item.Answerable() {
			continue
		}
		s := ItemSummary{TemplateItem: ti}
		for _, opt := range ti.Item.Options() {
			s.Options = append(s.Options, OptionCount{Label: opt})
		}
		index[ti.ID] = len(summaries)
		summaries = append(summaries, s)
	}

	for _, r := range responses {
		for _, a := range r.Answers {
			i, ok := index[a.TemplateItemID]
			if !ok {
				continue
			}
			s := &summaries[i]
			if a.Comment != "" {
				s.CommentCount++
			}
			if a.NA {
				s.NACount++
				s.Answered++
				continue
			}
			switch s.TemplateItem.Item.Classification {
			case authoring.ClassText:
				if a.TextAnswer != "" {
					s.TextCount++
					s.Answered++
				}
			case authoring.ClassMultipleAnswer:
				for _, idx := range a.MultiAnswer {
					s.count(idx)
				}
				if len(a.MultiAnswer) > 0 {
					s.Answered++
				}
			default:
				if a.NumericAnswer != nil {
					s.count(*a.NumericAnswer)
					s.Answered++
				}
			}
		}
	}
	return summaries
}

func (s *ItemSummary) count(idx int) {
	if idx >= 0 && idx < len(s.Options) {
		s.Options[idx].Count++
	}
}

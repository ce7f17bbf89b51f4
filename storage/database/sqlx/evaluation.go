package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evaladmin/core/evaluation"
)

const evaluationColumns = `id, title, instructions, template_id, owner, start_date, due_date, stop_date, view_date, reminder_from_email, locked`

type (
	evaluationRow struct {
		ID                int64     `db:"id"`
		Title             string    `db:"title"`
		Instructions      string    `db:"instructions"`
		TemplateID        int64     `db:"template_id"`
		Owner             string    `db:"owner"`
		StartDate         time.Time `db:"start_date"`
		DueDate           null.Time `db:"due_date"`
		StopDate          null.Time `db:"stop_date"`
		ViewDate          null.Time `db:"view_date"`
		ReminderFromEmail string    `db:"reminder_from_email"`
		Locked            bool      `db:"locked"`
	}

	responseRow struct {
		ID           int64     `db:"id"`
		EvaluationID int64     `db:"evaluation_id"`
		GroupID      string    `db:"group_id"`
		Owner        string    `db:"owner"`
		StartTime    time.Time `db:"start_time"`
		EndTime      null.Time `db:"end_time"`
	}

	answerRow struct {
		ID             int64         `db:"id"`
		ResponseID     int64         `db:"response_id"`
		TemplateItemID int64         `db:"template_item_id"`
		ItemID         int64         `db:"item_id"`
		NumericAnswer  null.Int      `db:"numeric_answer"`
		MultiAnswer    pq.Int64Array `db:"multi_answer"`
		TextAnswer     null.String   `db:"text_answer"`
		Comment        null.String   `db:"comment"`
		NA             bool          `db:"na"`
	}
)

// utcOrZero keeps unset dates as the zero time.
func utcOrZero(t null.Time) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func (r evaluationRow) toEvaluation() evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:                r.ID,
		Title:             r.Title,
		Instructions:      r.Instructions,
		TemplateID:        r.TemplateID,
		Owner:             r.Owner,
		StartDate:         r.StartDate.UTC(),
		DueDate:           utcOrZero(r.DueDate),
		StopDate:          utcOrZero(r.StopDate),
		ViewDate:          utcOrZero(r.ViewDate),
		ReminderFromEmail: r.ReminderFromEmail,
		Locked:            r.Locked,
	}
}

func (r answerRow) toAnswer() evaluation.Answer {
	a := evaluation.Answer{
		ID:             r.ID,
		ResponseID:     r.ResponseID,
		TemplateItemID: r.TemplateItemID,
		ItemID:         r.ItemID,
		NumericAnswer:  r.NumericAnswer.Ptr(),
		TextAnswer:     r.TextAnswer.String,
		Comment:        r.Comment.String,
		NA:             r.NA,
	}
	for _, v := range r.MultiAnswer {
		a.MultiAnswer = append(a.MultiAnswer, int(v))
	}
	return a
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *sqlx.DB) evaluation.Repository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) ListEvaluations(ctx context.Context, owner string) ([]evaluation.Evaluation, error) {
	var rows []evaluationRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+evaluationColumns+` FROM evaluation WHERE $1 = '' OR owner = $1 ORDER BY start_date DESC, id`,
		owner,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting evaluations")
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, r := range rows {
		evals = append(evals, r.toEvaluation())
	}
	return evals, nil
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id int64) (evaluation.Evaluation, error) {
	var row evaluationRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+evaluationColumns+` FROM evaluation WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	} else if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "selecting evaluation")
	}
	return row.toEvaluation(), nil
}

func (repo *evaluationRepository) ListAssignGroups(ctx context.Context, evalID int64) ([]evaluation.AssignGroup, error) {
	var rows []struct {
		ID           int64      `db:"id"`
		EvaluationID int64      `db:"evaluation_id"`
		GroupID      string     `db:"group_id"`
		NodeID       null.Int64 `db:"node_id"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, evaluation_id, group_id, node_id FROM assign_group WHERE evaluation_id = $1 ORDER BY group_id`,
		evalID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting assign groups")
	}
	assigns := make([]evaluation.AssignGroup, 0, len(rows))
	for _, r := range rows {
		assigns = append(assigns, evaluation.AssignGroup{
			ID:           r.ID,
			EvaluationID: r.EvaluationID,
			GroupID:      r.GroupID,
			NodeID:       r.NodeID.Int64,
		})
	}
	return assigns, nil
}

func (repo *evaluationRepository) ReplaceAssignGroups(ctx context.Context, evalID int64, assigns []evaluation.AssignGroup) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assign_group WHERE evaluation_id = $1`, evalID); err != nil {
			return errors.Wrap(err, "clearing assign groups")
		}
		for _, a := range assigns {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO assign_group (evaluation_id, group_id, node_id) VALUES ($1, $2, $3)`,
				evalID, a.GroupID, null.NewInt64(a.NodeID, a.NodeID != 0),
			)
			if err != nil {
				return errors.Wrap(err, "inserting assign group")
			}
		}
		return nil
	})
}

func (repo *evaluationRepository) ListResponses(ctx context.Context, evalID int64) ([]evaluation.Response, error) {
	var rows []responseRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, evaluation_id, group_id, owner, start_time, end_time FROM response WHERE evaluation_id = $1 ORDER BY id`,
		evalID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting responses")
	}

	var answers []answerRow
	err = repo.db.SelectContext(ctx, &answers,
		`SELECT a.id, a.response_id, a.template_item_id, a.item_id, a.numeric_answer, a.multi_answer, a.text_answer, a.comment, a.na
		FROM answer a JOIN response r ON r.id = a.response_id
		WHERE r.evaluation_id = $1 ORDER BY a.response_id, a.id`,
		evalID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting answers")
	}
	byResponse := make(map[int64][]evaluation.Answer, len(rows))
	for _, a := range answers {
		byResponse[a.ResponseID] = append(byResponse[a.ResponseID], a.toAnswer())
	}

	responses := make([]evaluation.Response, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, evaluation.Response{
			ID:           r.ID,
			EvaluationID: r.EvaluationID,
			GroupID:      r.GroupID,
			Owner:        r.Owner,
			StartTime:    r.StartTime.UTC(),
			EndTime:      utcOrZero(r.EndTime),
			Answers:      byResponse[r.ID],
		})
	}
	return responses, nil
}

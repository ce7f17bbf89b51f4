package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/evaladmin/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db}
}

// AddEvaluation stores an evaluation and returns it with its new ID.
func (db *DB) AddEvaluation(e evaluation.Evaluation) evaluation.Evaluation {
	db.mu.Lock()
	defer db.mu.Unlock()
	e.ID = db.nextID()
	db.evaluations[e.ID] = e
	return e
}

// AddResponse stores a response with its answers.
func (db *DB) AddResponse(r evaluation.Response) evaluation.Response {
	db.mu.Lock()
	defer db.mu.Unlock()
	r.ID = db.nextID()
	for i := range r.Answers {
		r.Answers[i].ID = db.nextID()
		r.Answers[i].ResponseID = r.ID
	}
	db.responses[r.ID] = r
	return r
}

func (repo *evaluationRepository) ListEvaluations(_ context.Context, owner string) ([]evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	evals := make([]evaluation.Evaluation, 0, len(repo.db.evaluations))
	for _, e := range repo.db.evaluations {
		if owner == "" || e.Owner == owner {
			evals = append(evals, e)
		}
	}
	sort.SliceStable(evals, func(i, j int) bool {
		if evals[i].StartDate.Equal(evals[j].StartDate) {
			return evals[i].ID < evals[j].ID
		}
		return evals[i].StartDate.After(evals[j].StartDate)
	})
	return evals, nil
}

func (repo *evaluationRepository) GetEvaluation(_ context.Context, id int64) (evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.evaluations[id]; ok {
		return e, nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) ListAssignGroups(_ context.Context, evalID int64) ([]evaluation.AssignGroup, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var assigns []evaluation.AssignGroup
	for _, a := range repo.db.assigns {
		if a.EvaluationID == evalID {
			assigns = append(assigns, a)
		}
	}
	sort.SliceStable(assigns, func(i, j int) bool { return assigns[i].GroupID < assigns[j].GroupID })
	return assigns, nil
}

func (repo *evaluationRepository) ReplaceAssignGroups(_ context.Context, evalID int64, assigns []evaluation.AssignGroup) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, a := range repo.db.assigns {
		if a.EvaluationID == evalID {
			delete(repo.db.assigns, id)
		}
	}
	for _, a := range assigns {
		a.ID = repo.db.nextID()
		a.EvaluationID = evalID
		repo.db.assigns[a.ID] = a
	}
	return nil
}

func (repo *evaluationRepository) ListResponses(_ context.Context, evalID int64) ([]evaluation.Response, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var responses []evaluation.Response
	for _, r := range repo.db.responses {
		if r.EvaluationID == evalID {
			r.Answers = append([]evaluation.Answer(nil), r.Answers...)
			responses = append(responses, r)
		}
	}
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return responses, nil
}

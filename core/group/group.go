// Package group exposes the evaluation groups (course sections) and their members,
// as supplied by the external course provider.
package group

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// member roles
const (
	RoleEvaluator = "evaluator" // takes evaluations
	RoleEvaluatee = "evaluatee" // is evaluated (instructor)
)

var ErrNotFound = errors.New("group not found")

type (
	Group struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
	}

	Member struct {
		GroupID string `json:"group_id"`
		UserRef string `json:"user_ref"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Role    string `json:"role"`
	}

	Repository interface {
		ListGroups(ctx context.Context) ([]Group, error)
		GetGroups(ctx context.Context, ids ...string) ([]Group, error)
		// GetMembers returns the members of the groups; an empty role returns every role.
		GetMembers(ctx context.Context, role string, groupIDs ...string) ([]Member, error)
	}

	Service interface {
		List(ctx context.Context) ([]Group, error)
		Get(ctx context.Context, id string) (Group, error)
		// GetMany returns the found groups ordered by title; unknown IDs are skipped.
		GetMany(ctx context.Context, ids []string) ([]Group, error)
		Members(ctx context.Context, role string, groupIDs ...string) ([]Member, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) List(ctx context.Context) ([]Group, error) {
	groups, err := svc.repo.ListGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing groups")
	}
	sortByTitle(groups)
	return groups, nil
}

func (svc *service) Get(ctx context.Context, id string) (Group, error) {
	groups, err := svc.repo.GetGroups(ctx, id)
	if err != nil {
		return Group{}, errors.Wrap(err, "getting group")
	}
	if len(groups) == 0 {
		return Group{}, ErrNotFound
	}
	return groups[0], nil
}

func (svc *service) GetMany(ctx context.Context, ids []string) ([]Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	groups, err := svc.repo.GetGroups(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "getting groups")
	}
	sortByTitle(groups)
	return groups, nil
}

func (svc *service) Members(ctx context.Context, role string, groupIDs ...string) ([]Member, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	members, err := svc.repo.GetMembers(ctx, role, groupIDs...)
	return members, errors.Wrap(err, "getting group members")
}

func sortByTitle(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Title == groups[j].Title {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].Title < groups[j].Title
	})
}

// Titles maps group IDs to their titles.
func Titles(groups []Group) map[string]string {
	titles := make(map[string]string, len(groups))
	for _, g := range groups {
		titles[g.ID] = g.Title
	}
	return titles
}

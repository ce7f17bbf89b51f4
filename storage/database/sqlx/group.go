package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) ListGroups(ctx context.Context) ([]group.Group, error) {
	var groups []group.Group
	if err := repo.db.SelectContext(ctx, &groups, `SELECT id, title, type FROM eval_group ORDER BY title, id`); err != nil {
		return nil, errors.Wrap(err, "selecting groups")
	}
	return groups, nil
}

func (repo *groupRepository) GetGroups(ctx context.Context, ids ...string) ([]group.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []group.Group
	if err := selectIn(ctx, repo.db, &groups, `SELECT id, title, type FROM eval_group WHERE id IN (?) ORDER BY title, id`, ids); err != nil {
		return nil, errors.Wrap(err, "selecting groups")
	}
	return groups, nil
}

func (repo *groupRepository) GetMembers(ctx context.Context, role string, groupIDs ...string) ([]group.Member, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	q := `SELECT group_id, user_ref, name, email, role FROM eval_group_member WHERE group_id IN (?)`
	args := []interface{}{groupIDs}
	if role != "" {
		q += ` AND role = ?`
		args = append(args, role)
	}
	q += ` ORDER BY group_id, name, user_ref`

	var rows []struct {
		GroupID string `db:"group_id"`
		UserRef string `db:"user_ref"`
		Name    string `db:"name"`
		Email   string `db:"email"`
		Role    string `db:"role"`
	}
	if err := selectIn(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting group members")
	}
	members := make([]group.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, group.Member(r))
	}
	return members, nil
}

package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evaladmin/core/hierarchy"
)

type nodeRow struct {
	ID          int64      `db:"id"`
	ParentID    null.Int64 `db:"parent_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
}

func (r nodeRow) toNode() hierarchy.Node {
	return hierarchy.Node{ID: r.ID, ParentID: r.ParentID.Int64, Title: r.Title, Description: r.Description}
}

type hierarchyRepository struct {
	db *sqlx.DB
}

var _ hierarchy.Repository = (*hierarchyRepository)(nil)

func NewHierarchyRepository(db *sqlx.DB) hierarchy.Repository {
	return &hierarchyRepository{db: db}
}

func (repo *hierarchyRepository) ListNodes(ctx context.Context) ([]hierarchy.Node, error) {
	var rows []nodeRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, parent_id, title, description FROM hierarchy_node`); err != nil {
		return nil, errors.Wrap(err, "selecting hierarchy nodes")
	}
	nodes := make([]hierarchy.Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, r.toNode())
	}
	return nodes, nil
}

func (repo *hierarchyRepository) CreateNode(ctx context.Context, node hierarchy.Node) (hierarchy.Node, error) {
	err := repo.db.GetContext(ctx, &node.ID,
		`INSERT INTO hierarchy_node (parent_id, title, description) VALUES ($1, $2, $3) RETURNING id`,
		null.NewInt64(node.ParentID, node.ParentID != 0), node.Title, node.Description,
	)
	if err != nil {
		return hierarchy.Node{}, errors.Wrap(err, "inserting hierarchy node")
	}
	return node, nil
}

func (repo *hierarchyRepository) UpdateNode(ctx context.Context, node hierarchy.Node) (hierarchy.Node, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE hierarchy_node SET title = $1, description = $2 WHERE id = $3`,
		node.Title, node.Description, node.ID,
	)
	if err != nil {
		return hierarchy.Node{}, errors.Wrap(err, "updating hierarchy node")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return hierarchy.Node{}, hierarchy.ErrNotFound
	}
	return node, nil
}

func (repo *hierarchyRepository) DeleteNode(ctx context.Context, id int64) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM hierarchy_node WHERE id = $1`, id)
	return errors.Wrap(err, "deleting hierarchy node")
}

func (repo *hierarchyRepository) GetNodeGroups(ctx context.Context, nodeIDs ...int64) ([]hierarchy.NodeGroup, error) {
	var rows []struct {
		NodeID  int64  `db:"node_id"`
		GroupID string `db:"group_id"`
	}
	var err error
	if len(nodeIDs) == 0 {
		err = repo.db.SelectContext(ctx, &rows, `SELECT node_id, group_id FROM hierarchy_node_group`)
	} else {
		err = selectIn(ctx, repo.db, &rows, `SELECT node_id, group_id FROM hierarchy_node_group WHERE node_id IN (?)`, nodeIDs)
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting node groups")
	}
	nodeGroups := make([]hierarchy.NodeGroup, 0, len(rows))
	for _, r := range rows {
		nodeGroups = append(nodeGroups, hierarchy.NodeGroup(r))
	}
	return nodeGroups, nil
}

func (repo *hierarchyRepository) SetNodeGroups(ctx context.Context, nodeID int64, groupIDs []string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hierarchy_node_group WHERE node_id = $1`, nodeID); err != nil {
			return errors.Wrap(err, "clearing node groups")
		}
		for _, groupID := range groupIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO hierarchy_node_group (node_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				nodeID, groupID,
			)
			if err != nil {
				return errors.Wrap(err, "inserting node group")
			}
		}
		return nil
	})
}

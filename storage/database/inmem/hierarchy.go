package inmemdb

import (
	"context"

	"github.com/trezcool/evaladmin/core/hierarchy"
)

type hierarchyRepository struct {
	db *DB
}

var _ hierarchy.Repository = (*hierarchyRepository)(nil)

func NewHierarchyRepository(db *DB) hierarchy.Repository {
	return &hierarchyRepository{db: db}
}

func (repo *hierarchyRepository) ListNodes(_ context.Context) ([]hierarchy.Node, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	nodes := make([]hierarchy.Node, 0, len(repo.db.nodes))
	for _, n := range repo.db.nodes {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (repo *hierarchyRepository) CreateNode(_ context.Context, node hierarchy.Node) (hierarchy.Node, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	node.ID = repo.db.nextID()
	repo.db.nodes[node.ID] = node
	return node, nil
}

func (repo *hierarchyRepository) UpdateNode(_ context.Context, node hierarchy.Node) (hierarchy.Node, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.nodes[node.ID]; !ok {
		return hierarchy.Node{}, hierarchy.ErrNotFound
	}
	repo.db.nodes[node.ID] = node
	return node, nil
}

func (repo *hierarchyRepository) DeleteNode(_ context.Context, id int64) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.nodes, id)
	delete(repo.db.nodeGroups, id)
	return nil
}

func (repo *hierarchyRepository) GetNodeGroups(_ context.Context, nodeIDs ...int64) ([]hierarchy.NodeGroup, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var nodeGroups []hierarchy.NodeGroup
	add := func(nodeID int64) {
		for groupID := range repo.db.nodeGroups[nodeID] {
			nodeGroups = append(nodeGroups, hierarchy.NodeGroup{NodeID: nodeID, GroupID: groupID})
		}
	}
	if len(nodeIDs) == 0 {
		for nodeID := range repo.db.nodeGroups {
			add(nodeID)
		}
		return nodeGroups, nil
	}
	for _, nodeID := range nodeIDs {
		add(nodeID)
	}
	return nodeGroups, nil
}

func (repo *hierarchyRepository) SetNodeGroups(_ context.Context, nodeID int64, groupIDs []string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	groups := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = true
	}
	repo.db.nodeGroups[nodeID] = groups
	return nil
}

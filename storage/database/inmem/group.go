package inmemdb

import (
	"context"

	"github.com/trezcool/evaladmin/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

// AddGroup stores a group as the course provider would.
func (db *DB) AddGroup(g group.Group, members ...group.Member) group.Group {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.groups[g.ID] = g
	for _, m := range members {
		m.GroupID = g.ID
		db.members = append(db.members, m)
	}
	return g
}

func (repo *groupRepository) ListGroups(_ context.Context) ([]group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		groups = append(groups, g)
	}
	return groups, nil
}

func (repo *groupRepository) GetGroups(_ context.Context, ids ...string) ([]group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	groups := make([]group.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := repo.db.groups[id]; ok && !seen[id] {
			seen[id] = true
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (repo *groupRepository) GetMembers(_ context.Context, role string, groupIDs ...string) ([]group.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = true
	}
	var members []group.Member
	for _, m := range repo.db.members {
		if wanted[m.GroupID] && (role == "" || m.Role == role) {
			members = append(members, m)
		}
	}
	return members, nil
}

package hierarchy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/core/hierarchy"
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
)

func newService(t *testing.T) (hierarchy.Service, hierarchy.Node) {
	svc := hierarchy.NewService(inmemdb.NewHierarchyRepository(inmemdb.NewDB()))
	root, err := svc.Root(context.Background())
	require.NoError(t, err)
	return svc, root
}

func addNode(t *testing.T, svc hierarchy.Service, parentID int64, title string) hierarchy.Node {
	node, err := svc.Add(context.Background(), parentID, hierarchy.NewNode{Title: title})
	require.NoError(t, err)
	return node
}

func TestService_Root(t *testing.T) {
	svc, root := newService(t)
	assert.True(t, root.IsRoot())
	assert.Equal(t, hierarchy.RootTitle, root.Title)

	again, err := svc.Root(context.Background())
	require.NoError(t, err)
	assert.Equal(t, root.ID, again.ID, "the root node is created once")
}

func TestService_Tree(t *testing.T) {
	ctx := context.Background()
	svc, root := newService(t)
	science := addNode(t, svc, root.ID, "Science")
	arts := addNode(t, svc, root.ID, "Arts")
	physics := addNode(t, svc, science.ID, "Physics")
	require.NoError(t, svc.SetNodeGroups(ctx, physics.ID, []string{"PHY101", "PHY102", "PHY101", ""}))

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 4)

	type row struct {
		title              string
		depth, kids, group int
	}
	got := make([]row, 0, len(tree))
	for _, n := range tree {
		got = append(got, row{n.Title, n.Depth, n.ChildCount, n.GroupCount})
	}
	assert.Equal(t, []row{
		{hierarchy.RootTitle, 0, 2, 0},
		{"Arts", 1, 0, 0},
		{"Science", 1, 1, 0},
		{"Physics", 2, 0, 2},
	}, got)
	assert.Equal(t, arts.ID, tree[1].ID)
}

func TestService_Ancestors(t *testing.T) {
	ctx := context.Background()
	svc, root := newService(t)
	science := addNode(t, svc, root.ID, "Science")
	physics := addNode(t, svc, science.ID, "Physics")

	ancestors, err := svc.Ancestors(ctx, physics.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, root.ID, ancestors[0].ID)
	assert.Equal(t, science.ID, ancestors[1].ID)

	ancestors, err = svc.Ancestors(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, ancestors)

	_, err = svc.Ancestors(ctx, 999)
	assert.Equal(t, hierarchy.ErrNotFound, err)
}

func TestService_AddUpdate(t *testing.T) {
	ctx := context.Background()
	svc, root := newService(t)

	_, err := svc.Add(ctx, 999, hierarchy.NewNode{Title: "Orphan"})
	assert.Equal(t, hierarchy.ErrNotFound, err)

	node := addNode(t, svc, root.ID, "Science")
	updated, err := svc.Update(ctx, node.ID, hierarchy.UpdateNode{Title: "Sciences", Description: "Hard ones"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, updated.ParentID)

	got, err := svc.Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sciences", got.Title)
	assert.Equal(t, "Hard ones", got.Description)

	_, err = svc.Update(ctx, 999, hierarchy.UpdateNode{Title: "Nope"})
	assert.Equal(t, hierarchy.ErrNotFound, err)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc, root := newService(t)
	science := addNode(t, svc, root.ID, "Science")
	physics := addNode(t, svc, science.ID, "Physics")
	arts := addNode(t, svc, root.ID, "Arts")
	require.NoError(t, svc.SetNodeGroups(ctx, arts.ID, []string{"ART101"}))

	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{name: "root", id: root.ID, wantErr: hierarchy.ErrRootNode},
		{name: "has children", id: science.ID, wantErr: hierarchy.ErrNodeHasChildren},
		{name: "has groups", id: arts.ID, wantErr: hierarchy.ErrNodeHasGroups},
		{name: "unknown", id: 999, wantErr: hierarchy.ErrNotFound},
		{name: "leaf", id: physics.ID},
		{name: "emptied parent", id: science.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, svc.CanRemove(ctx, tt.id))
			assert.Equal(t, tt.wantErr, svc.Remove(ctx, tt.id))
		})
	}

	_, err := svc.Get(ctx, science.ID)
	assert.Equal(t, hierarchy.ErrNotFound, err)
}

func TestService_GroupsUnder(t *testing.T) {
	ctx := context.Background()
	svc, root := newService(t)
	science := addNode(t, svc, root.ID, "Science")
	physics := addNode(t, svc, science.ID, "Physics")
	arts := addNode(t, svc, root.ID, "Arts")
	require.NoError(t, svc.SetNodeGroups(ctx, science.ID, []string{"SCI100"}))
	require.NoError(t, svc.SetNodeGroups(ctx, physics.ID, []string{"PHY102", "PHY101"}))
	require.NoError(t, svc.SetNodeGroups(ctx, arts.ID, []string{"ART101"}))

	groups, err := svc.GroupsUnder(ctx, []int64{science.ID, physics.ID})
	require.NoError(t, err)
	assert.Equal(t, []hierarchy.NodeGroup{
		{NodeID: science.ID, GroupID: "SCI100"},
		{NodeID: physics.ID, GroupID: "PHY101"},
		{NodeID: physics.ID, GroupID: "PHY102"},
	}, groups)

	// arts is selected first, so its groups come first even though it was created last
	groups, err = svc.GroupsUnder(ctx, []int64{arts.ID, science.ID})
	require.NoError(t, err)
	assert.Equal(t, []hierarchy.NodeGroup{
		{NodeID: arts.ID, GroupID: "ART101"},
		{NodeID: science.ID, GroupID: "SCI100"},
		{NodeID: physics.ID, GroupID: "PHY101"},
		{NodeID: physics.ID, GroupID: "PHY102"},
	}, groups)

	groups, err = svc.GroupsUnder(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = svc.GroupsUnder(ctx, []int64{999})
	assert.Equal(t, hierarchy.ErrNotFound, err)

	ids, err := svc.NodeGroupIDs(ctx, physics.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"PHY101", "PHY102"}, ids)

	require.NoError(t, svc.SetNodeGroups(ctx, physics.ID, nil))
	ids, err = svc.NodeGroupIDs(ctx, physics.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

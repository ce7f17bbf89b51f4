package hierarchy

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("hierarchy node not found")
	ErrRootNode        = errors.New("the root node cannot be removed")
	ErrNodeHasChildren = errors.New("a node with child nodes cannot be removed")
	ErrNodeHasGroups   = errors.New("a node with assigned groups cannot be removed")
)

type (
	Repository interface {
		ListNodes(ctx context.Context) ([]Node, error)
		CreateNode(ctx context.Context, node Node) (Node, error)
		UpdateNode(ctx context.Context, node Node) (Node, error)
		DeleteNode(ctx context.Context, id int64) error
		// GetNodeGroups returns the groups attached to the nodes; every node when no ID is given.
		GetNodeGroups(ctx context.Context, nodeIDs ...int64) ([]NodeGroup, error)
		// SetNodeGroups replaces the groups attached to a node.
		SetNodeGroups(ctx context.Context, nodeID int64, groupIDs []string) error
	}

	Service interface {
		Root(ctx context.Context) (Node, error)
		Get(ctx context.Context, id int64) (Node, error)
		Tree(ctx context.Context) ([]TreeNode, error)
		Children(ctx context.Context, id int64) ([]Node, error)
		// Ancestors returns the ancestors of a node, root first, the node excluded.
		Ancestors(ctx context.Context, id int64) ([]Node, error)
		Add(ctx context.Context, parentID int64, nn NewNode) (Node, error)
		Update(ctx context.Context, id int64, un UpdateNode) (Node, error)
		// CanRemove returns the reason a node cannot be removed, or nil.
		CanRemove(ctx context.Context, id int64) error
		Remove(ctx context.Context, id int64) error
		NodeGroupIDs(ctx context.Context, id int64) ([]string, error)
		SetNodeGroups(ctx context.Context, id int64, groupIDs []string) error
		// GroupsUnder returns the groups attached to the nodes and all their descendants,
		// in the pre-order the nodes are reached.
		GroupsUnder(ctx context.Context, nodeIDs []int64) ([]NodeGroup, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// load returns every node keyed by ID, creating the root node when missing.
func (svc *service) load(ctx context.Context) (*forest, error) {
	nodes, err := svc.repo.ListNodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing nodes")
	}
	f := newForest(nodes)
	if f.root.ID == 0 {
		root, err := svc.repo.CreateNode(ctx, Node{Title: RootTitle})
		if err != nil {
			return nil, errors.Wrap(err, "creating root node")
		}
		f = newForest(append(nodes, root))
	}
	return f, nil
}

func (svc *service) Root(ctx context.Context) (Node, error) {
	f, err := svc.load(ctx)
	if err != nil {
		return Node{}, err
	}
	return f.root, nil
}

func (svc *service) Get(ctx context.Context, id int64) (Node, error) {
	f, err := svc.load(ctx)
	if err != nil {
		return Node{}, err
	}
	node, ok := f.nodes[id]
	if !ok {
		return Node{}, ErrNotFound
	}
	return node, nil
}

func (svc *service) Tree(ctx context.Context) ([]TreeNode, error) {
	f, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}
	nodeGroups, err := svc.repo.GetNodeGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting node groups")
	}
	groupCounts := make(map[int64]int)
	for _, ng := range nodeGroups {
		groupCounts[ng.NodeID]++
	}

	tree := make([]TreeNode, 0, len(f.nodes))
	f.walk(f.root.ID, 0, func(node Node, depth int) {
		tree = append(tree, TreeNode{
			Node:       node,
			Depth:      depth,
			ChildCount: len(f.children[node.ID]),
			GroupCount: groupCounts[node.ID],
		})
	})
	return tree, nil
}

func (svc *service) Children(ctx context.Context, id int64) ([]Node, error) {
	f, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := f.nodes[id]; !ok {
		return nil, ErrNotFound
	}
	children := make([]Node, 0, len(f.children[id]))
	for _, childID := range f.children[id] {
		children = append(children, f.nodes[childID])
	}
	return children, nil
}

func (svc *service) Ancestors(ctx context.Context, id int64) ([]Node, error) {
	f, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := f.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	var ancestors []Node
	for parentID := node.ParentID; parentID != 0; {
		parent, ok := f.nodes[parentID]
		if !ok || len(ancestors) > len(f.nodes) { // broken link or cycle
			break
		}
		ancestors = append([]Node{parent}, ancestors...)
		parentID = parent.ParentID
	}
	return ancestors, nil
}

func (svc *service) Add(ctx context.Context, parentID int64, nn NewNode) (Node, error) {
	if _, err := svc.Get(ctx, parentID); err != nil {
		return Node{}, err
	}
	node, err := svc.repo.CreateNode(ctx, Node{ParentID: parentID, Title: nn.Title, Description: nn.Description})
	return node, errors.Wrap(err, "creating node")
}

func (svc *service) Update(ctx context.Context, id int64, un UpdateNode) (Node, error) {
	node, err := svc.Get(ctx, id)
	if err != nil {
		return Node{}, err
	}
	node.Title = un.Title
	node.Description = un.Description
	node, err = svc.repo.UpdateNode(ctx, node)
	return node, errors.Wrap(err, "updating node")
}

func (svc *service) CanRemove(ctx context.Context, id int64) error {
	f, err := svc.load(ctx)
	if err != nil {
		return err
	}
	node, ok := f.nodes[id]
	if !ok {
		return ErrNotFound
	}
	if node.IsRoot() {
		return ErrRootNode
	}
	if len(f.children[id]) > 0 {
		return ErrNodeHasChildren
	}
	groups, err := svc.repo.GetNodeGroups(ctx, id)
	if err != nil {
		return errors.Wrap(err, "getting node groups")
	}
	if len(groups) > 0 {
		return ErrNodeHasGroups
	}
	return nil
}

func (svc *service) Remove(ctx context.Context, id int64) error {
	if err := svc.CanRemove(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteNode(ctx, id), "deleting node")
}

func (svc *service) NodeGroupIDs(ctx context.Context, id int64) ([]string, error) {
	if _, err := svc.Get(ctx, id); err != nil {
		return nil, err
	}
	nodeGroups, err := svc.repo.GetNodeGroups(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "getting node groups")
	}
	ids := make([]string, 0, len(nodeGroups))
	for _, ng := range nodeGroups {
		ids = append(ids, ng.GroupID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (svc *service) SetNodeGroups(ctx context.Context, id int64, groupIDs []string) error {
	if _, err := svc.Get(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.SetNodeGroups(ctx, id, dedupe(groupIDs)), "setting node groups")
}

func (svc *service) GroupsUnder(ctx context.Context, nodeIDs []int64) ([]NodeGroup, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	f, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	// pre-order position of every node reached, selected nodes first come first
	pos := make(map[int64]int)
	var under []int64
	for _, id := range nodeIDs {
		if _, ok := f.nodes[id]; !ok {
			return nil, ErrNotFound
		}
		f.walk(id, 0, func(node Node, _ int) {
			if _, ok := pos[node.ID]; !ok {
				pos[node.ID] = len(under)
				under = append(under, node.ID)
			}
		})
	}

	nodeGroups, err := svc.repo.GetNodeGroups(ctx, under...)
	if err != nil {
		return nil, errors.Wrap(err, "getting node groups")
	}
	sort.SliceStable(nodeGroups, func(i, j int) bool {
		if nodeGroups[i].NodeID == nodeGroups[j].NodeID {
			return nodeGroups[i].GroupID < nodeGroups[j].GroupID
		}
		return pos[nodeGroups[i].NodeID] < pos[nodeGroups[j].NodeID]
	})
	return nodeGroups, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package hierarchy

import "sort"

// forest indexes a flat list of nodes by ID and by parent.
type forest struct {
	root     Node
	nodes    map[int64]Node
	children map[int64][]int64 // sorted by title
}

func newForest(nodes []Node) *forest {
	f := &forest{
		nodes:    make(map[int64]Node, len(nodes)),
		children: make(map[int64][]int64),
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
		if n.IsRoot() {
			if f.root.ID == 0 || n.ID < f.root.ID {
				f.root = n
			}
			continue
		}
		f.children[n.ParentID] = append(f.children[n.ParentID], n.ID)
	}
	for _, ids := range f.children {
		ids := ids
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := f.nodes[ids[i]], f.nodes[ids[j]]
			if a.Title == b.Title {
				return a.ID < b.ID
			}
			return a.Title < b.Title
		})
	}
	return f
}

// walk visits `id` and its descendants in pre-order.
func (f *forest) walk(id int64, depth int, visit func(node Node, depth int)) {
	visited := make(map[int64]bool, len(f.nodes))
	var rec func(id int64, depth int)
	rec = func(id int64, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		visit(f.nodes[id], depth)
		for _, childID := range f.children[id] {
			rec(childID, depth+1)
		}
	}
	rec(id, depth)
}

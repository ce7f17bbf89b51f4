package hierarchy

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/evaladmin/core"
)

const RootTitle = "Root"

type (
	// Node is one level of the evaluation hierarchy (school, department, ...).
	// The root node has no parent (ParentID == 0).
	Node struct {
		ID          int64  `json:"id"`
		ParentID    int64  `json:"parent_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	// TreeNode is a Node placed in the flattened pre-order tree.
	TreeNode struct {
		Node
		Depth      int `json:"depth"`
		ChildCount int `json:"child_count"`
		GroupCount int `json:"group_count"`
	}

	// NodeGroup links a group to the node it is attached to.
	NodeGroup struct {
		NodeID  int64  `json:"node_id"`
		GroupID string `json:"group_id"`
	}

	NewNode struct {
		Title       string `form:"title" validate:"required,notblank,max=255"`
		Description string `form:"description" validate:"max=4000"`
	}

	UpdateNode NewNode
)

func (n Node) IsRoot() bool { return n.ParentID == 0 }

func (nn *NewNode) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Description = core.CleanString(nn.Description)
	return validate.Struct(nn)
}

func (un *UpdateNode) Validate(validate *validator.Validate) error {
	return (*NewNode)(un).Validate(validate)
}

package inmemdb

import (
	"sync"

	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/evaluation"
	"github.com/trezcool/evaladmin/core/group"
	"github.com/trezcool/evaladmin/core/hierarchy"
	"github.com/trezcool/evaladmin/core/user"
)

// DB is an in-memory database shared by the repositories. It is safe for concurrent use.
type DB struct {
	mu  sync.RWMutex
	seq int64

	users    map[string]user.User
	settings map[string]string

	groups  map[string]group.Group
	members []group.Member

	nodes      map[int64]hierarchy.Node
	nodeGroups map[int64]map[string]bool

	scales        map[int64]authoring.Scale
	items         map[int64]authoring.Item
	templates     map[int64]authoring.Template
	templateItems map[int64]authoring.TemplateItem
	itemGroups    map[int64]authoring.ItemGroup

	evaluations map[int64]evaluation.Evaluation
	assigns     map[int64]evaluation.AssignGroup
	responses   map[int64]evaluation.Response
}

func NewDB() *DB {
	return &DB{
		users:         make(map[string]user.User),
		settings:      make(map[string]string),
		groups:        make(map[string]group.Group),
		nodes:         make(map[int64]hierarchy.Node),
		nodeGroups:    make(map[int64]map[string]bool),
		scales:        make(map[int64]authoring.Scale),
		items:         make(map[int64]authoring.Item),
		templates:     make(map[int64]authoring.Template),
		templateItems: make(map[int64]authoring.TemplateItem),
		itemGroups:    make(map[int64]authoring.ItemGroup),
		evaluations:   make(map[int64]evaluation.Evaluation),
		assigns:       make(map[int64]evaluation.AssignGroup),
		responses:     make(map[int64]evaluation.Response),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

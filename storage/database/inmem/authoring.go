package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/evaladmin/core/authoring"
)

type authoringRepository struct {
	db *DB
}

var _ authoring.Repository = (*authoringRepository)(nil)

func NewAuthoringRepository(db *DB) authoring.Repository {
	return &authoringRepository{db: db}
}

// AddScale stores a scale and returns it with its new ID.
func (db *DB) AddScale(s authoring.Scale) authoring.Scale {
	db.mu.Lock()
	defer db.mu.Unlock()
	s.ID = db.nextID()
	db.scales[s.ID] = s
	return s
}

// AddItem stores an item and returns it with its new ID.
func (db *DB) AddItem(it authoring.Item) authoring.Item {
	db.mu.Lock()
	defer db.mu.Unlock()
	it.ID = db.nextID()
	it.Scale = nil
	db.items[it.ID] = it
	return it
}

// AddTemplate stores a template along with its items, in order.
func (db *DB) AddTemplate(tmpl authoring.Template, items ...authoring.Item) (authoring.Template, []authoring.TemplateItem) {
	db.mu.Lock()
	defer db.mu.Unlock()
	tmpl.ID = db.nextID()
	db.templates[tmpl.ID] = tmpl

	tItems := make([]authoring.TemplateItem, 0, len(items))
	for i, it := range items {
		ti := authoring.TemplateItem{
			ID:           db.nextID(),
			TemplateID:   tmpl.ID,
			ItemID:       it.ID,
			DisplayOrder: i + 1,
			Category:     it.Category,
		}
		db.templateItems[ti.ID] = ti
		tItems = append(tItems, ti)
	}
	return tmpl, tItems
}

// AddItemGroup stores an expert item group.
func (db *DB) AddItemGroup(g authoring.ItemGroup) authoring.ItemGroup {
	db.mu.Lock()
	defer db.mu.Unlock()
	g.ID = db.nextID()
	db.itemGroups[g.ID] = g
	return g
}

func visible(owner, sharing, visibleTo string) bool {
	return visibleTo == "" || owner == visibleTo || sharing == authoring.SharingPublic
}

// Scales

func (repo *authoringRepository) ListScales(_ context.Context, owner string) ([]authoring.Scale, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	scales := make([]authoring.Scale, 0, len(repo.db.scales))
	for _, s := range repo.db.scales {
		if visible(s.Owner, s.Sharing, owner) {
			scales = append(scales, s)
		}
	}
	sort.SliceStable(scales, func(i, j int) bool { return scales[i].Title < scales[j].Title })
	return scales, nil
}

func (repo *authoringRepository) GetScales(_ context.Context, ids ...int64) ([]authoring.Scale, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	scales := make([]authoring.Scale, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if s, ok := repo.db.scales[id]; ok {
			scales = append(scales, s)
		}
	}
	return scales, nil
}

func (repo *authoringRepository) DeleteScale(_ context.Context, id int64) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.scales, id)
	return nil
}

func (repo *authoringRepository) ItemsUsingScale(_ context.Context, scaleID int64) ([]authoring.Item, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var items []authoring.Item
	for _, it := range repo.db.items {
		if it.ScaleID == scaleID {
			items = append(items, it)
		}
	}
	sortItems(items)
	return items, nil
}

// Items

func (repo *authoringRepository) ListItems(_ context.Context, owner string) ([]authoring.Item, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	items := make([]authoring.Item, 0, len(repo.db.items))
	for _, it := range repo.db.items {
		if visible(it.Owner, it.Sharing, owner) {
			items = append(items, it)
		}
	}
	sortItems(items)
	return items, nil
}

func (repo *authoringRepository) GetItems(_ context.Context, ids ...int64) ([]authoring.Item, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	items := make([]authoring.Item, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if it, ok := repo.db.items[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (repo *authoringRepository) DeleteItem(_ context.Context, id int64) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.items, id)
	for gid, g := range repo.db.itemGroups {
		kept := make([]int64, 0, len(g.ItemIDs))
		for _, itemID := range g.ItemIDs {
			if itemID != id {
				kept = append(kept, itemID)
			}
		}
		g.ItemIDs = kept
		repo.db.itemGroups[gid] = g
	}
	return nil
}

func (repo *authoringRepository) TemplatesUsingItem(_ context.Context, itemID int64) ([]authoring.Template, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[int64]bool)
	var templates []authoring.Template
	for _, ti := range repo.db.templateItems {
		if ti.ItemID != itemID || seen[ti.TemplateID] {
			continue
		}
		if tmpl, ok := repo.db.templates[ti.TemplateID]; ok {
			seen[ti.TemplateID] = true
			templates = append(templates, tmpl)
		}
	}
	sortTemplates(templates)
	return templates, nil
}

// Templates

func (repo *authoringRepository) ListTemplates(_ context.Context, owner string) ([]authoring.Template, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	templates := make([]authoring.Template, 0, len(repo.db.templates))
	for _, tmpl := range repo.db.templates {
		if visible(tmpl.Owner, tmpl.Sharing, owner) {
			templates = append(templates, tmpl)
		}
	}
	sortTemplates(templates)
	return templates, nil
}

func (repo *authoringRepository) GetTemplate(_ context.Context, id int64) (authoring.Template, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if tmpl, ok := repo.db.templates[id]; ok {
		return tmpl, nil
	}
	return authoring.Template{}, authoring.ErrTemplateNotFound
}

func (repo *authoringRepository) ListTemplateItems(_ context.Context, templateID int64) ([]authoring.TemplateItem, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.templateItems(templateID), nil
}

// templateItems must be called with the lock held.
func (repo *authoringRepository) templateItems(templateID int64) []authoring.TemplateItem {
	var tItems []authoring.TemplateItem
	for _, ti := range repo.db.templateItems {
		if ti.TemplateID == templateID {
			ti.Item = repo.db.items[ti.ItemID]
			tItems = append(tItems, ti)
		}
	}
	sort.SliceStable(tItems, func(i, j int) bool {
		if tItems[i].DisplayOrder == tItems[j].DisplayOrder {
			return tItems[i].ID < tItems[j].ID
		}
		return tItems[i].DisplayOrder < tItems[j].DisplayOrder
	})
	return tItems
}

func (repo *authoringRepository) DeleteTemplateItem(_ context.Context, templateID, id int64) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if ti, ok := repo.db.templateItems[id]; !ok || ti.TemplateID != templateID {
		return authoring.ErrTemplateItemNotFound
	}
	delete(repo.db.templateItems, id)
	for i, ti := range repo.templateItems(templateID) {
		ti.DisplayOrder = i + 1
		ti.Item = authoring.Item{}
		repo.db.templateItems[ti.ID] = ti
	}
	return nil
}

func (repo *authoringRepository) AddTemplateItems(_ context.Context, templateID int64, items []authoring.TemplateItem) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	order := 0
	for _, ti := range repo.templateItems(templateID) {
		if ti.DisplayOrder > order {
			order = ti.DisplayOrder
		}
	}
	for _, ti := range items {
		order++
		ti.ID = repo.db.nextID()
		ti.TemplateID = templateID
		ti.DisplayOrder = order
		ti.Item = authoring.Item{}
		repo.db.templateItems[ti.ID] = ti
	}
	return nil
}

// Item groups

func (repo *authoringRepository) ListItemGroups(_ context.Context, parentID int64, groupType string) ([]authoring.ItemGroup, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var groups []authoring.ItemGroup
	for _, g := range repo.db.itemGroups {
		if g.ParentID == parentID && g.Type == groupType && g.Expert {
			groups = append(groups, g)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Title == groups[j].Title {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].Title < groups[j].Title
	})
	return groups, nil
}

func (repo *authoringRepository) GetItemGroup(_ context.Context, id int64) (authoring.ItemGroup, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.itemGroups[id]; ok {
		return g, nil
	}
	return authoring.ItemGroup{}, authoring.ErrItemGroupNotFound
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortItems(items []authoring.Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

func sortTemplates(templates []authoring.Template) {
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].Title < templates[j].Title })
}

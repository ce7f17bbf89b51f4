package authoring

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

var (
	ErrScaleNotFound        = errors.New("scale not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateItemNotFound = errors.New("template item not found")
	ErrItemGroupNotFound    = errors.New("item group not found")

	ErrScaleLocked    = errors.New("this scale is locked")
	ErrScaleInUse     = errors.New("this scale is used by items")
	ErrItemLocked     = errors.New("this item is locked")
	ErrItemInUse      = errors.New("this item is used by templates")
	ErrTemplateLocked = errors.New("this template is locked")
	ErrNoItemSelected = errors.New("select at least one item")
)

type (
	Repository interface {
		// ListScales returns the scales owned by `owner` or public; every scale when `owner` is empty.
		ListScales(ctx context.Context, owner string) ([]Scale, error)
		GetScales(ctx context.Context, ids ...int64) ([]Scale, error)
		DeleteScale(ctx context.Context, id int64) error
		ItemsUsingScale(ctx context.Context, scaleID int64) ([]Item, error)

		// ListItems returns the items owned by `owner` or public; every item when `owner` is empty.
		ListItems(ctx context.Context, owner string) ([]Item, error)
		GetItems(ctx context.Context, ids ...int64) ([]Item, error)
		DeleteItem(ctx context.Context, id int64) error
		TemplatesUsingItem(ctx context.Context, itemID int64) ([]Template, error)

		// ListTemplates returns the templates owned by `owner` or public; every template when `owner` is empty.
		ListTemplates(ctx context.Context, owner string) ([]Template, error)
		GetTemplate(ctx context.Context, id int64) (Template, error)
		// ListTemplateItems returns the template items by display order.
		ListTemplateItems(ctx context.Context, templateID int64) ([]TemplateItem, error)
		// DeleteTemplateItem removes the template item and renumbers the remaining ones.
		DeleteTemplateItem(ctx context.Context, templateID, id int64) error
		// AddTemplateItems appends items after the last display order.
		AddTemplateItems(ctx context.Context, templateID int64, items []TemplateItem) error

		// ListItemGroups returns the expert groups of a type under a parent (0 for top level groups).
		ListItemGroups(ctx context.Context, parentID int64, groupType string) ([]ItemGroup, error)
		GetItemGroup(ctx context.Context, id int64) (ItemGroup, error)
	}

	Service interface {
		Scales(ctx context.Context, usr user.User) ([]Scale, error)
		Scale(ctx context.Context, usr user.User, id int64) (Scale, error)
		ScaleUsage(ctx context.Context, id int64) ([]Item, error)
		RemoveScale(ctx context.Context, usr user.User, id int64) error

		Items(ctx context.Context, usr user.User) ([]Item, error)
		Item(ctx context.Context, usr user.User, id int64) (Item, error)
		ItemUsage(ctx context.Context, id int64) ([]Template, error)
		RemoveItem(ctx context.Context, usr user.User, id int64) error

		Templates(ctx context.Context, usr user.User) ([]Template, error)
		Template(ctx context.Context, usr user.User, id int64) (Template, error)
		TemplateItems(ctx context.Context, templateID int64) ([]TemplateItem, error)
		TemplateItem(ctx context.Context, templateID, id int64) (TemplateItem, error)
		RemoveTemplateItem(ctx context.Context, usr user.User, templateID, id int64) error
		// AddItemsToTemplate appends the items not yet in the template and returns how many were added.
		AddItemsToTemplate(ctx context.Context, usr user.User, templateID int64, itemIDs []int64) (int, error)

		ExpertCategories(ctx context.Context) ([]ItemGroup, error)
		ItemGroup(ctx context.Context, id int64) (ItemGroup, error)
		ChildGroups(ctx context.Context, id int64) ([]ItemGroup, error)
		// GroupPath returns the group ancestors, top level first, the group included.
		GroupPath(ctx context.Context, id int64) ([]ItemGroup, error)
		ExpertItems(ctx context.Context, groupID int64) ([]Item, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func visibleOwner(usr user.User) string {
	if usr.IsAdmin() {
		return ""
	}
	return usr.ID
}

// Scales

func (svc *service) Scales(ctx context.Context, usr user.User) ([]Scale, error) {
	scales, err := svc.repo.ListScales(ctx, visibleOwner(usr))
	return scales, errors.Wrap(err, "listing scales")
}

func (svc *service) getScale(ctx context.Context, id int64) (Scale, error) {
	scales, err := svc.repo.GetScales(ctx, id)
	if err != nil {
		return Scale{}, errors.Wrap(err, "getting scale")
	}
	if len(scales) == 0 {
		return Scale{}, ErrScaleNotFound
	}
	return scales[0], nil
}

func (svc *service) Scale(ctx context.Context, usr user.User, id int64) (Scale, error) {
	s, err := svc.getScale(ctx, id)
	if err != nil {
		return Scale{}, err
	}
	if !canView(usr, s.Owner, s.Sharing) {
		return Scale{}, core.ErrPermissionDenied
	}
	return s, nil
}

func (svc *service) ScaleUsage(ctx context.Context, id int64) ([]Item, error) {
	items, err := svc.repo.ItemsUsingScale(ctx, id)
	return items, errors.Wrap(err, "getting scale usage")
}

func (svc *service) RemoveScale(ctx context.Context, usr user.User, id int64) error {
	s, err := svc.getScale(ctx, id)
	if err != nil {
		return err
	}
	usage, err := svc.ScaleUsage(ctx, id)
	if err != nil {
		return err
	}
	if err = ScaleRemovalError(usr, s, len(usage)); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteScale(ctx, id), "deleting scale")
}

// Items

func (svc *service) withScales(ctx context.Context, items []Item) ([]Item, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.ScaleID != 0 {
			ids = append(ids, it.ScaleID)
		}
	}
	if len(ids) == 0 {
		return items, nil
	}
	scales, err := svc.repo.GetScales(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "getting item scales")
	}
	byID := make(map[int64]Scale, len(scales))
	for _, s := range scales {
		byID[s.ID] = s
	}
	for i := range items {
		if s, ok := byID[items[i].ScaleID]; ok {
			s := s
			items[i].Scale = &s
		}
	}
	return items, nil
}

func (svc *service) Items(ctx context.Context, usr user.User) ([]Item, error) {
	items, err := svc.repo.ListItems(ctx, visibleOwner(usr))
	if err != nil {
		return nil, errors.Wrap(err, "listing items")
	}
	return svc.withScales(ctx, items)
}

func (svc *service) getItem(ctx context.Context, id int64) (Item, error) {
	items, err := svc.repo.GetItems(ctx, id)
	if err != nil {
		return Item{}, errors.Wrap(err, "getting item")
	}
	if len(items) == 0 {
		return Item{}, ErrItemNotFound
	}
	if items, err = svc.withScales(ctx, items); err != nil {
		return Item{}, err
	}
	return items[0], nil
}

func (svc *service) Item(ctx context.Context, usr user.User, id int64) (Item, error) {
	it, err := svc.getItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !(it.Expert || canView(usr, it.Owner, it.Sharing)) {
		return Item{}, core.ErrPermissionDenied
	}
	return it, nil
}

func (svc *service) ItemUsage(ctx context.Context, id int64) ([]Template, error) {
	templates, err := svc.repo.TemplatesUsingItem(ctx, id)
	return templates, errors.Wrap(err, "getting item usage")
}

func (svc *service) RemoveItem(ctx context.Context, usr user.User, id int64) error {
	it, err := svc.getItem(ctx, id)
	if err != nil {
		return err
	}
	usage, err := svc.ItemUsage(ctx, id)
	if err != nil {
		return err
	}
	if err = ItemRemovalError(usr, it, len(usage)); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteItem(ctx, id), "deleting item")
}

// Templates

func (svc *service) Templates(ctx context.Context, usr user.User) ([]Template, error) {
	templates, err := svc.repo.ListTemplates(ctx, visibleOwner(usr))
	return templates, errors.Wrap(err, "listing templates")
}

func (svc *service) Template(ctx context.Context, usr user.User, id int64) (Template, error) {
	tmpl, err := svc.repo.GetTemplate(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if !canView(usr, tmpl.Owner, tmpl.Sharing) {
		return Template{}, core.ErrPermissionDenied
	}
	return tmpl, nil
}

func (svc *service) TemplateItems(ctx context.Context, templateID int64) ([]TemplateItem, error) {
	tItems, err := svc.repo.ListTemplateItems(ctx, templateID)
	if err != nil {
		return nil, errors.Wrap(err, "listing template items")
	}
	items := make([]Item, 0, len(tItems))
	for _, ti := range tItems {
		items = append(items, ti.Item)
	}
	if items, err = svc.withScales(ctx, items); err != nil {
		return nil, err
	}
	for i := range tItems {
		tItems[i].Item = items[i]
	}
	return tItems, nil
}

func (svc *service) TemplateItem(ctx context.Context, templateID, id int64) (TemplateItem, error) {
	tItems, err := svc.TemplateItems(ctx, templateID)
	if err != nil {
		return TemplateItem{}, err
	}
	for _, ti := range tItems {
		if ti.ID == id {
			return ti, nil
		}
	}
	return TemplateItem{}, ErrTemplateItemNotFound
}

func (svc *service) RemoveTemplateItem(ctx context.Context, usr user.User, templateID, id int64) error {
	tmpl, err := svc.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if err = TemplateItemRemovalError(usr, tmpl); err != nil {
		return err
	}
	if _, err = svc.TemplateItem(ctx, templateID, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteTemplateItem(ctx, templateID, id), "deleting template item")
}

func (svc *service) AddItemsToTemplate(ctx context.Context, usr user.User, templateID int64, itemIDs []int64) (int, error) {
	if len(itemIDs) == 0 {
		return 0, ErrNoItemSelected
	}
	tmpl, err := svc.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return 0, err
	}
	if err = TemplateItemRemovalError(usr, tmpl); err != nil {
		return 0, err
	}

	current, err := svc.repo.ListTemplateItems(ctx, templateID)
	if err != nil {
		return 0, errors.Wrap(err, "listing template items")
	}
	present := make(map[int64]bool, len(current))
	for _, ti := range current {
		present[ti.ItemID] = true
	}

	items, err := svc.repo.GetItems(ctx, itemIDs...)
	if err != nil {
		return 0, errors.Wrap(err, "getting items")
	}
	toAdd := make([]TemplateItem, 0, len(items))
	for _, it := range items {
		if present[it.ID] || !(it.Expert || canView(usr, it.Owner, it.Sharing)) {
			continue
		}
		present[it.ID] = true
		toAdd = append(toAdd, TemplateItem{TemplateID: templateID, ItemID: it.ID, Category: it.Category, Item: it})
	}
	if len(toAdd) == 0 {
		return 0, nil
	}
	if err = svc.repo.AddTemplateItems(ctx, templateID, toAdd); err != nil {
		return 0, errors.Wrap(err, "adding template items")
	}
	return len(toAdd), nil
}

// Expert item groups

func (svc *service) ExpertCategories(ctx context.Context) ([]ItemGroup, error) {
	groups, err := svc.repo.ListItemGroups(ctx, 0, GroupTypeCategory)
	return groups, errors.Wrap(err, "listing expert categories")
}

func (svc *service) ItemGroup(ctx context.Context, id int64) (ItemGroup, error) {
	return svc.repo.GetItemGroup(ctx, id)
}

func (svc *service) ChildGroups(ctx context.Context, id int64) ([]ItemGroup, error) {
	parent, err := svc.repo.GetItemGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if parent.Type == GroupTypeObjective { // objectives are leaves
		return nil, nil
	}
	groups, err := svc.repo.ListItemGroups(ctx, id, GroupTypeObjective)
	return groups, errors.Wrap(err, "listing child groups")
}

func (svc *service) GroupPath(ctx context.Context, id int64) ([]ItemGroup, error) {
	var path []ItemGroup
	for id != 0 && len(path) < 32 {
		g, err := svc.repo.GetItemGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		path = append([]ItemGroup{g}, path...)
		id = g.ParentID
	}
	return path, nil
}

func (svc *service) ExpertItems(ctx context.Context, groupID int64) ([]Item, error) {
	g, err := svc.repo.GetItemGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(g.ItemIDs) == 0 {
		return nil, nil
	}
	items, err := svc.repo.GetItems(ctx, g.ItemIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "getting expert items")
	}
	expert := items[:0]
	for _, it := range items {
		if it.Expert {
			expert = append(expert, it)
		}
	}
	return svc.withScales(ctx, expert)
}

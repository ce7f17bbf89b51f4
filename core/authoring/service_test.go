package authoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/authoring"
	"github.com/trezcool/evaladmin/core/user"
	inmemdb "github.com/trezcool/evaladmin/storage/database/inmem"
)

var (
	admin      = user.User{ID: "admin", Roles: []string{user.RoleAdmin}}
	instructor = user.User{ID: "instructor", Roles: user.InstructorRoles}
	other      = user.User{ID: "other", Roles: user.InstructorRoles}
)

func newService() (authoring.Service, *inmemdb.DB) {
	db := inmemdb.NewDB()
	return authoring.NewService(inmemdb.NewAuthoringRepository(db)), db
}

func TestService_scales(t *testing.T) {
	ctx := context.Background()
	svc, db := newService()

	mine := db.AddScale(authoring.Scale{Title: "Mine", Options: []string{"No", "Yes"}, Owner: instructor.ID})
	public := db.AddScale(authoring.Scale{Title: "Public", Owner: other.ID, Sharing: authoring.SharingPublic})
	private := db.AddScale(authoring.Scale{Title: "Private", Owner: other.ID})
	locked := db.AddScale(authoring.Scale{Title: "Locked", Owner: instructor.ID, Locked: true})
	used := db.AddScale(authoring.Scale{Title: "Used", Owner: instructor.ID})
	db.AddItem(authoring.Item{Text: "Q", Classification: authoring.ClassScaled, ScaleID: used.ID, Owner: instructor.ID})

	t.Run("visibility", func(t *testing.T) {
		scales, err := svc.Scales(ctx, instructor)
		require.NoError(t, err)
		titles := make([]string, 0, len(scales))
		for _, s := range scales {
			titles = append(titles, s.Title)
		}
		assert.Equal(t, []string{"Locked", "Mine", "Public", "Used"}, titles)

		scales, err = svc.Scales(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, scales, 5)

		_, err = svc.Scale(ctx, instructor, private.ID)
		assert.Equal(t, core.ErrPermissionDenied, err)
		_, err = svc.Scale(ctx, instructor, public.ID)
		assert.NoError(t, err)
		_, err = svc.Scale(ctx, instructor, 999)
		assert.Equal(t, authoring.ErrScaleNotFound, err)
	})

	t.Run("removal", func(t *testing.T) {
		tests := []struct {
			name    string
			usr     user.User
			id      int64
			wantErr error
		}{
			{name: "not owned", usr: instructor, id: public.ID, wantErr: core.ErrPermissionDenied},
			{name: "locked", usr: instructor, id: locked.ID, wantErr: authoring.ErrScaleLocked},
			{name: "in use", usr: admin, id: used.ID, wantErr: authoring.ErrScaleInUse},
			{name: "unknown", usr: admin, id: 999, wantErr: authoring.ErrScaleNotFound},
			{name: "owned", usr: instructor, id: mine.ID},
			{name: "admin", usr: admin, id: private.ID},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.wantErr, svc.RemoveScale(ctx, tt.usr, tt.id))
			})
		}

		scales, err := svc.Scales(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, scales, 3)
	})
}

func TestService_items(t *testing.T) {
	ctx := context.Background()
	svc, db := newService()

	scale := db.AddScale(authoring.Scale{Title: "Agreement", Options: []string{"Disagree", "Agree"}, Owner: admin.ID})
	scaled := db.AddItem(authoring.Item{Text: "Clear goals", Classification: authoring.ClassScaled, ScaleID: scale.ID, Owner: instructor.ID})
	locked := db.AddItem(authoring.Item{Text: "Locked", Classification: authoring.ClassText, Owner: instructor.ID, Locked: true})
	expert := db.AddItem(authoring.Item{Text: "Expert", Classification: authoring.ClassText, Owner: admin.ID, Expert: true})
	used := db.AddItem(authoring.Item{Text: "Used", Classification: authoring.ClassText, Owner: instructor.ID})
	db.AddTemplate(authoring.Template{Title: "Course", Owner: instructor.ID}, used)

	it, err := svc.Item(ctx, instructor, scaled.ID)
	require.NoError(t, err)
	require.NotNil(t, it.Scale)
	assert.Equal(t, []string{"Disagree", "Agree"}, it.Options())

	_, err = svc.Item(ctx, other, scaled.ID)
	assert.Equal(t, core.ErrPermissionDenied, err)
	_, err = svc.Item(ctx, other, expert.ID)
	assert.NoError(t, err, "expert items are visible to everyone")

	usage, err := svc.ItemUsage(ctx, used.ID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "Course", usage[0].Title)

	assert.Equal(t, authoring.ErrItemLocked, svc.RemoveItem(ctx, instructor, locked.ID))
	assert.Equal(t, authoring.ErrItemInUse, svc.RemoveItem(ctx, instructor, used.ID))
	assert.Equal(t, core.ErrPermissionDenied, svc.RemoveItem(ctx, other, scaled.ID))
	assert.Equal(t, authoring.ErrItemNotFound, svc.RemoveItem(ctx, admin, 999))
	require.NoError(t, svc.RemoveItem(ctx, instructor, scaled.ID))

	_, err = svc.Item(ctx, admin, scaled.ID)
	assert.Equal(t, authoring.ErrItemNotFound, err)
}

func TestService_templates(t *testing.T) {
	ctx := context.Background()
	svc, db := newService()

	header := db.AddItem(authoring.Item{Text: "Course", Classification: authoring.ClassHeader, Owner: instructor.ID})
	goals := db.AddItem(authoring.Item{Text: "Clear goals", Classification: authoring.ClassText, Owner: instructor.ID})
	pace := db.AddItem(authoring.Item{Text: "Pace", Classification: authoring.ClassText, Owner: instructor.ID})
	private := db.AddItem(authoring.Item{Text: "Private", Classification: authoring.ClassText, Owner: other.ID})
	tmpl, tItems := db.AddTemplate(authoring.Template{Title: "Course", Owner: instructor.ID}, header, goals)
	locked, lockedItems := db.AddTemplate(authoring.Template{Title: "Locked", Owner: instructor.ID, Locked: true}, goals)

	t.Run("remove an item", func(t *testing.T) {
		assert.Equal(t, authoring.ErrTemplateLocked, svc.RemoveTemplateItem(ctx, instructor, locked.ID, lockedItems[0].ID))
		assert.Equal(t, core.ErrPermissionDenied, svc.RemoveTemplateItem(ctx, other, tmpl.ID, tItems[0].ID))
		assert.Equal(t, authoring.ErrTemplateItemNotFound, svc.RemoveTemplateItem(ctx, instructor, tmpl.ID, lockedItems[0].ID))
		assert.Equal(t, authoring.ErrTemplateNotFound, svc.RemoveTemplateItem(ctx, instructor, 999, tItems[0].ID))
		require.NoError(t, svc.RemoveTemplateItem(ctx, instructor, tmpl.ID, tItems[0].ID))

		remaining, err := svc.TemplateItems(ctx, tmpl.ID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, goals.ID, remaining[0].ItemID)
		assert.Equal(t, 1, remaining[0].DisplayOrder)
	})

	t.Run("add items", func(t *testing.T) {
		_, err := svc.AddItemsToTemplate(ctx, instructor, tmpl.ID, nil)
		assert.Equal(t, authoring.ErrNoItemSelected, err)
		_, err = svc.AddItemsToTemplate(ctx, instructor, locked.ID, []int64{pace.ID})
		assert.Equal(t, authoring.ErrTemplateLocked, err)

		added, err := svc.AddItemsToTemplate(ctx, instructor, tmpl.ID, []int64{goals.ID, pace.ID, private.ID, pace.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, added)

		added, err = svc.AddItemsToTemplate(ctx, instructor, tmpl.ID, []int64{pace.ID})
		require.NoError(t, err)
		assert.Zero(t, added)

		current, err := svc.TemplateItems(ctx, tmpl.ID)
		require.NoError(t, err)
		require.Len(t, current, 2)
		assert.Equal(t, pace.ID, current[1].ItemID)
		assert.Equal(t, 2, current[1].DisplayOrder)
		assert.Equal(t, "Pace", current[1].Item.Text)
	})
}

func TestService_expertGroups(t *testing.T) {
	ctx := context.Background()
	svc, db := newService()

	item := db.AddItem(authoring.Item{Text: "Expert", Classification: authoring.ClassText, Expert: true})
	plain := db.AddItem(authoring.Item{Text: "Plain", Classification: authoring.ClassText})
	teaching := db.AddItemGroup(authoring.ItemGroup{Type: authoring.GroupTypeCategory, Title: "Teaching", Expert: true})
	db.AddItemGroup(authoring.ItemGroup{Type: authoring.GroupTypeCategory, Title: "Hidden"})
	clarity := db.AddItemGroup(authoring.ItemGroup{
		ParentID: teaching.ID,
		Type:     authoring.GroupTypeObjective,
		Title:    "Clarity",
		Expert:   true,
		ItemIDs:  []int64{item.ID, plain.ID},
	})

	categories, err := svc.ExpertCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, teaching.ID, categories[0].ID)

	children, err := svc.ChildGroups(ctx, teaching.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, clarity.ID, children[0].ID)

	children, err = svc.ChildGroups(ctx, clarity.ID)
	require.NoError(t, err)
	assert.Empty(t, children)

	path, err := svc.GroupPath(ctx, clarity.ID)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "Teaching", path[0].Title)
	assert.Equal(t, "Clarity", path[1].Title)

	items, err := svc.ExpertItems(ctx, clarity.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	_, err = svc.ItemGroup(ctx, 999)
	assert.Equal(t, authoring.ErrItemGroupNotFound, err)
}

func TestItem_ShortText(t *testing.T) {
	it := authoring.Item{Text: "Évaluation du cours"}
	assert.Equal(t, "Évalu...", it.ShortText(5))
	assert.Equal(t, it.Text, it.ShortText(50))
}

package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evaladmin/core/authoring"
)

const (
	scaleColumns    = `s.id, s.title, s.options, s.ideal, s.owner, s.sharing, s.locked, s.expert`
	itemColumns     = `i.id, i.text, i.description, i.classification, i.scale_id, i.scale_display, i.uses_na, i.uses_comment, i.category, i.owner, i.sharing, i.locked, i.expert, i.expert_description`
	templateColumns = `t.id, t.title, t.description, t.owner, t.sharing, t.locked`
	groupColumns    = `g.id, g.parent_id, g.type, g.title, g.description, g.expert`
)

type (
	scaleRow struct {
		ID      int64          `db:"id"`
		Title   string         `db:"title"`
		Options pq.StringArray `db:"options"`
		Ideal   null.String    `db:"ideal"`
		Owner   string         `db:"owner"`
		Sharing string         `db:"sharing"`
		Locked  bool           `db:"locked"`
		Expert  bool           `db:"expert"`
	}

	itemRow struct {
		ID                int64       `db:"id"`
		Text              string      `db:"text"`
		Description       null.String `db:"description"`
		Classification    string      `db:"classification"`
		ScaleID           null.Int64  `db:"scale_id"`
		ScaleDisplay      null.String `db:"scale_display"`
		UsesNA            bool        `db:"uses_na"`
		UsesComment       bool        `db:"uses_comment"`
		Category          string      `db:"category"`
		Owner             string      `db:"owner"`
		Sharing           string      `db:"sharing"`
		Locked            bool        `db:"locked"`
		Expert            bool        `db:"expert"`
		ExpertDescription null.String `db:"expert_description"`
	}

	templateRow struct {
		ID          int64  `db:"id"`
		Title       string `db:"title"`
		Description string `db:"description"`
		Owner       string `db:"owner"`
		Sharing     string `db:"sharing"`
		Locked      bool   `db:"locked"`
	}

	templateItemRow struct {
		ID           int64  `db:"ti_id"`
		TemplateID   int64  `db:"template_id"`
		ItemID       int64  `db:"item_id"`
		DisplayOrder int    `db:"display_order"`
		TICategory   string `db:"ti_category"`
		itemRow
	}

	itemGroupRow struct {
		ID          int64      `db:"id"`
		ParentID    null.Int64 `db:"parent_id"`
		Type        string     `db:"type"`
		Title       string     `db:"title"`
		Description string     `db:"description"`
		Expert      bool       `db:"expert"`
	}
)

func (r scaleRow) toScale() authoring.Scale {
	return authoring.Scale{
		ID:      r.ID,
		Title:   r.Title,
		Options: []string(r.Options),
		Ideal:   r.Ideal.String,
		Owner:   r.Owner,
		Sharing: r.Sharing,
		Locked:  r.Locked,
		Expert:  r.Expert,
	}
}

func (r itemRow) toItem() authoring.Item {
	return authoring.Item{
		ID:                r.ID,
		Text:              r.Text,
		Description:       r.Description.String,
		Classification:    r.Classification,
		ScaleID:           r.ScaleID.Int64,
		ScaleDisplay:      r.ScaleDisplay.String,
		UsesNA:            r.UsesNA,
		UsesComment:       r.UsesComment,
		Category:          r.Category,
		Owner:             r.Owner,
		Sharing:           r.Sharing,
		Locked:            r.Locked,
		Expert:            r.Expert,
		ExpertDescription: r.ExpertDescription.String,
	}
}

func (r templateRow) toTemplate() authoring.Template {
	return authoring.Template{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Owner:       r.Owner,
		Sharing:     r.Sharing,
		Locked:      r.Locked,
	}
}

type authoringRepository struct {
	db *sqlx.DB
}

var _ authoring.Repository = (*authoringRepository)(nil)

func NewAuthoringRepository(db *sqlx.DB) authoring.Repository {
	return &authoringRepository{db: db}
}

func toScales(rows []scaleRow) []authoring.Scale {
	scales := make([]authoring.Scale, 0, len(rows))
	for _, r := range rows {
		scales = append(scales, r.toScale())
	}
	return scales
}

func toItems(rows []itemRow) []authoring.Item {
	items := make([]authoring.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem())
	}
	return items
}

func toTemplates(rows []templateRow) []authoring.Template {
	templates := make([]authoring.Template, 0, len(rows))
	for _, r := range rows {
		templates = append(templates, r.toTemplate())
	}
	return templates
}

// Scales

func (repo *authoringRepository) ListScales(ctx context.Context, owner string) ([]authoring.Scale, error) {
	var rows []scaleRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+scaleColumns+` FROM scale s WHERE $1 = '' OR s.owner = $1 OR s.sharing = $2 ORDER BY s.title, s.id`,
		owner, authoring.SharingPublic,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting scales")
	}
	return toScales(rows), nil
}

func (repo *authoringRepository) GetScales(ctx context.Context, ids ...int64) ([]authoring.Scale, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []scaleRow
	if err := selectIn(ctx, repo.db, &rows, `SELECT `+scaleColumns+` FROM scale s WHERE s.id IN (?)`, ids); err != nil {
		return nil, errors.Wrap(err, "selecting scales")
	}
	return toScales(rows), nil
}

func (repo *authoringRepository) DeleteScale(ctx context.Context, id int64) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM scale WHERE id = $1`, id)
	return errors.Wrap(err, "deleting scale")
}

func (repo *authoringRepository) ItemsUsingScale(ctx context.Context, scaleID int64) ([]authoring.Item, error) {
	var rows []itemRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+itemColumns+` FROM item i WHERE i.scale_id = $1 ORDER BY i.id`, scaleID); err != nil {
		return nil, errors.Wrap(err, "selecting items using scale")
	}
	return toItems(rows), nil
}

// Items

func (repo *authoringRepository) ListItems(ctx context.Context, owner string) ([]authoring.Item, error) {
	var rows []itemRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+itemColumns+` FROM item i WHERE $1 = '' OR i.owner = $1 OR i.sharing = $2 ORDER BY i.id`,
		owner, authoring.SharingPublic,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting items")
	}
	return toItems(rows), nil
}

func (repo *authoringRepository) GetItems(ctx context.Context, ids ...int64) ([]authoring.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []itemRow
	if err := selectIn(ctx, repo.db, &rows, `SELECT `+itemColumns+` FROM item i WHERE i.id IN (?)`, ids); err != nil {
		return nil, errors.Wrap(err, "selecting items")
	}
	return toItems(rows), nil
}

func (repo *authoringRepository) DeleteItem(ctx context.Context, id int64) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM item WHERE id = $1`, id)
	return errors.Wrap(err, "deleting item")
}

func (repo *authoringRepository) TemplatesUsingItem(ctx context.Context, itemID int64) ([]authoring.Template, error) {
	var rows []templateRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT `+templateColumns+` FROM template t
		JOIN template_item ti ON ti.template_id = t.id
		WHERE ti.item_id = $1 ORDER BY t.title, t.id`,
		itemID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting templates using item")
	}
	return toTemplates(rows), nil
}

// Templates

func (repo *authoringRepository) ListTemplates(ctx context.Context, owner string) ([]authoring.Template, error) {
	var rows []templateRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+templateColumns+` FROM template t WHERE $1 = '' OR t.owner = $1 OR t.sharing = $2 ORDER BY t.title, t.id`,
		owner, authoring.SharingPublic,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting templates")
	}
	return toTemplates(rows), nil
}

func (repo *authoringRepository) GetTemplate(ctx context.Context, id int64) (authoring.Template, error) {
	var row templateRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+templateColumns+` FROM template t WHERE t.id = $1`, id)
	if err == sql.ErrNoRows {
		return authoring.Template{}, authoring.ErrTemplateNotFound
	} else if err != nil {
		return authoring.Template{}, errors.Wrap(err, "selecting template")
	}
	return row.toTemplate(), nil
}

func (repo *authoringRepository) ListTemplateItems(ctx context.Context, templateID int64) ([]authoring.TemplateItem, error) {
	var rows []templateItemRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT ti.id AS ti_id, ti.template_id, ti.item_id, ti.display_order, ti.category AS ti_category, `+itemColumns+`
		FROM template_item ti JOIN item i ON i.id = ti.item_id
		WHERE ti.template_id = $1 ORDER BY ti.display_order, ti.id`,
		templateID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting template items")
	}

	tItems := make([]authoring.TemplateItem, 0, len(rows))
	for _, r := range rows {
		tItems = append(tItems, authoring.TemplateItem{
			ID:           r.ID,
			TemplateID:   r.TemplateID,
			ItemID:       r.ItemID,
			DisplayOrder: r.DisplayOrder,
			Category:     r.TICategory,
			Item:         r.itemRow.toItem(),
		})
	}
	return tItems, nil
}

func (repo *authoringRepository) DeleteTemplateItem(ctx context.Context, templateID, id int64) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM template_item WHERE template_id = $1 AND id = $2`, templateID, id)
		if err != nil {
			return errors.Wrap(err, "deleting template item")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return authoring.ErrTemplateItemNotFound
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE template_item ti SET display_order = o.rn
			FROM (SELECT id, row_number() OVER (ORDER BY display_order, id) AS rn FROM template_item WHERE template_id = $1) o
			WHERE ti.id = o.id`,
			templateID,
		)
		return errors.Wrap(err, "renumbering template items")
	})
}

func (repo *authoringRepository) AddTemplateItems(ctx context.Context, templateID int64, items []authoring.TemplateItem) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var last int
		err := tx.GetContext(ctx, &last, `SELECT COALESCE(MAX(display_order), 0) FROM template_item WHERE template_id = $1`, templateID)
		if err != nil {
			return errors.Wrap(err, "selecting last display order")
		}
		for _, ti := range items {
			last++
			_, err = tx.ExecContext(ctx,
				`INSERT INTO template_item (template_id, item_id, display_order, category) VALUES ($1, $2, $3, $4)`,
				templateID, ti.ItemID, last, ti.Category,
			)
			if err != nil {
				return errors.Wrap(err, "inserting template item")
			}
		}
		return nil
	})
}

// Item groups

func (repo *authoringRepository) ListItemGroups(ctx context.Context, parentID int64, groupType string) ([]authoring.ItemGroup, error) {
	var rows []itemGroupRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+groupColumns+` FROM item_group g
		WHERE g.expert AND g.type = $1 AND COALESCE(g.parent_id, 0) = $2
		ORDER BY g.title, g.id`,
		groupType, parentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting item groups")
	}

	groups := make([]authoring.ItemGroup, 0, len(rows))
	for _, r := range rows {
		g := r.toItemGroup()
		if g.ItemIDs, err = repo.groupItemIDs(ctx, g.ID); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (repo *authoringRepository) GetItemGroup(ctx context.Context, id int64) (authoring.ItemGroup, error) {
	var row itemGroupRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+groupColumns+` FROM item_group g WHERE g.id = $1`, id)
	if err == sql.ErrNoRows {
		return authoring.ItemGroup{}, authoring.ErrItemGroupNotFound
	} else if err != nil {
		return authoring.ItemGroup{}, errors.Wrap(err, "selecting item group")
	}

	g := row.toItemGroup()
	if g.ItemIDs, err = repo.groupItemIDs(ctx, g.ID); err != nil {
		return authoring.ItemGroup{}, err
	}
	return g, nil
}

func (repo *authoringRepository) groupItemIDs(ctx context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	err := repo.db.SelectContext(ctx, &ids, `SELECT item_id FROM item_group_item WHERE group_id = $1 ORDER BY item_id`, groupID)
	return ids, errors.Wrap(err, "selecting item group items")
}

func (r itemGroupRow) toItemGroup() authoring.ItemGroup {
	return authoring.ItemGroup{
		ID:          r.ID,
		ParentID:    r.ParentID.Int64,
		Type:        r.Type,
		Title:       r.Title,
		Description: r.Description,
		Expert:      r.Expert,
	}
}

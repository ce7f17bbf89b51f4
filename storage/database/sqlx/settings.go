package sqlxrepos

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core/settings"
)

type settingsRepository struct {
	db *sqlx.DB
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(db *sqlx.DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	var err error
	if len(keys) == 0 {
		err = repo.db.SelectContext(ctx, &rows, `SELECT key, value FROM setting`)
	} else {
		err = selectIn(ctx, repo.db, &rows, `SELECT key, value FROM setting WHERE key IN (?)`, keys)
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting settings")
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	return values, nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, k := range keys {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO setting (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
				k, values[k],
			)
			if err != nil {
				return errors.Wrapf(err, "saving setting %q", k)
			}
		}
		return nil
	})
}

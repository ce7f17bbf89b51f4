package inmemdb

import (
	"context"

	"github.com/trezcool/evaladmin/core/settings"
)

type settingsRepository struct {
	db *DB
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(_ context.Context, keys ...string) (map[string]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := repo.db.settings[key]; ok {
			values[key] = v
		}
	}
	return values, nil
}

func (repo *settingsRepository) SaveSettings(_ context.Context, values map[string]string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for k, v := range values {
		repo.db.settings[k] = v
	}
	return nil
}

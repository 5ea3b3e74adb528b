package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// SettingsRepository loads and stores the single settings document.
type SettingsRepository interface {
	// Get returns ErrNotFound until the document has been saved once.
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}

type settingsRepository struct {
	db DBTX
}

// NewSettingsRepository builds a Postgres-backed settings store.
func NewSettingsRepository(db DBTX) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var payload []byte
	if err := r.db.QueryRow(ctx, `SELECT data FROM settings WHERE id=1`).Scan(&payload); err != nil {
		return nil, notFound(err)
	}
	var settings domain.Settings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	const query = `
        INSERT INTO settings (id, data, updated_at) VALUES (1, $1, $2)
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	_, err = r.db.Exec(ctx, query, payload, settings.UpdatedAt)
	return err
}

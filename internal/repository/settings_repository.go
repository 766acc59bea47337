package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postloop/internal/models"
)

type SettingsRepository interface {
	Load(ctx context.Context) (*models.ScheduleSettings, error)
	Save(ctx context.Context, s *models.ScheduleSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Load returns the single global schedule-settings row, or the defaults
// when none has been saved yet.
func (r *settingsRepository) Load(ctx context.Context) (*models.ScheduleSettings, error) {
	query := `
		SELECT enabled, morning_hour, morning_minute, afternoon_hour, afternoon_minute,
			evening_hour, evening_minute, night_hour, night_minute, updated_at
		FROM schedule_settings WHERE id = 1
	`
	row := r.db.QueryRowContext(ctx, query)

	var s models.ScheduleSettings
	err := row.Scan(&s.Enabled,
		&s.Morning.Hour, &s.Morning.Minute,
		&s.Afternoon.Hour, &s.Afternoon.Minute,
		&s.Evening.Hour, &s.Evening.Minute,
		&s.Night.Hour, &s.Night.Minute,
		&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultScheduleSettings(), nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *models.ScheduleSettings) error {
	query := `
		INSERT INTO schedule_settings (id, enabled, morning_hour, morning_minute,
			afternoon_hour, afternoon_minute, evening_hour, evening_minute,
			night_hour, night_minute, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET enabled = $1,
			morning_hour = $2, morning_minute = $3,
			afternoon_hour = $4, afternoon_minute = $5,
			evening_hour = $6, evening_minute = $7,
			night_hour = $8, night_minute = $9,
			updated_at = $10
	`
	_, err := r.db.ExecContext(ctx, query, s.Enabled,
		s.Morning.Hour, s.Morning.Minute,
		s.Afternoon.Hour, s.Afternoon.Minute,
		s.Evening.Hour, s.Evening.Minute,
		s.Night.Hour, s.Night.Minute,
		time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

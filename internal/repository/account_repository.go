package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postloop/internal/models"
)

type AccountRepository interface {
	List(ctx context.Context) ([]*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByStatePrefix(ctx context.Context, prefix string) (*models.Account, error)
	Create(ctx context.Context, acct *models.Account) (int64, error)
	Update(ctx context.Context, acct *models.Account) error
	SetTokenExpiry(ctx context.Context, id int64, expiresAt time.Time) error
	ListExpiring(ctx context.Context, before time.Time) ([]*models.Account, error)
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, name, state_prefix, account_type, access_token_env, ig_user_id_env,
	base_url, video_base_url, caption_url, slides_per_post, max_images, encoding_variant,
	schedule_enabled, schedule_times, token_expires_at, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.StatePrefix, &a.AccountType, &a.AccessTokenEnv, &a.IGUserIDEnv,
		&a.BaseURL, &a.VideoBaseURL, &a.CaptionURL, &a.SlidesPerPost, &a.MaxImages, &a.EncodingVariant,
		&a.ScheduleEnabled, &a.ScheduleTimes, &a.TokenExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) GetByStatePrefix(ctx context.Context, prefix string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE state_prefix = $1`
	row := r.db.QueryRowContext(ctx, query, prefix)

	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) Create(ctx context.Context, acct *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (name, state_prefix, account_type, access_token_env, ig_user_id_env,
			base_url, video_base_url, caption_url, slides_per_post, max_images, encoding_variant,
			schedule_enabled, schedule_times, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		acct.Name, acct.StatePrefix, acct.AccountType, acct.AccessTokenEnv, acct.IGUserIDEnv,
		acct.BaseURL, acct.VideoBaseURL, acct.CaptionURL, acct.SlidesPerPost, acct.MaxImages,
		acct.EncodingVariant, acct.ScheduleEnabled, acct.ScheduleTimes, acct.TokenExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *accountRepository) Update(ctx context.Context, acct *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $1,
			account_type = $2,
			access_token_env = $3,
			ig_user_id_env = $4,
			base_url = $5,
			video_base_url = $6,
			caption_url = $7,
			slides_per_post = $8,
			max_images = $9,
			encoding_variant = $10,
			schedule_enabled = $11,
			schedule_times = $12,
			updated_at = $13
		WHERE id = $14
	`
	_, err := r.db.ExecContext(ctx, query,
		acct.Name, acct.AccountType, acct.AccessTokenEnv, acct.IGUserIDEnv,
		acct.BaseURL, acct.VideoBaseURL, acct.CaptionURL, acct.SlidesPerPost, acct.MaxImages,
		acct.EncodingVariant, acct.ScheduleEnabled, acct.ScheduleTimes, time.Now(), acct.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *accountRepository) SetTokenExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	query := `UPDATE accounts SET token_expires_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, expiresAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE token_expires_at <= $1 ORDER BY token_expires_at`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

package activationtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/dbx"
	"github.com/dmitrijs2005/vitae/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByValue(ctx context.Context, value string) (*models.ActivationToken, error) {
	query := `
		SELECT id, value, user_id, has_been_used, created_at, updated_at
		FROM activation_tokens
		WHERE value = $1
	`
	return r.scanOne(ctx, query, value)
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*models.ActivationToken, error) {
	query := `
		SELECT id, value, user_id, has_been_used, created_at, updated_at
		FROM activation_tokens
		WHERE user_id = $1
	`
	return r.scanOne(ctx, query, userID)
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.ActivationToken) (*models.ActivationToken, error) {
	query := `
		INSERT INTO activation_tokens (value, user_id, has_been_used)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, token.Value, token.UserID, token.HasBeenUsed).
		Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// MarkUsed flips has_been_used once. A token that is already used yields
// common.ErrTokenAlreadyUsed; one that no longer exists yields common.ErrorNotFound.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE activation_tokens
		SET has_been_used = TRUE, updated_at = NOW()
		WHERE id = $1 AND has_been_used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM activation_tokens WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrTokenAlreadyUsed
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM activation_tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg string) (*models.ActivationToken, error) {
	t := &models.ActivationToken{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&t.ID, &t.Value, &t.UserID, &t.HasBeenUsed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

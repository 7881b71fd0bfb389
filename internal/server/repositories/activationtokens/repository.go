// Package activationtokens declares and implements persistence of the
// single-use tokens that activate user accounts.
package activationtokens

import (
	"context"

	"github.com/dmitrijs2005/vitae/internal/server/models"
)

// Repository is the token half of the store consumed by the account service.
type Repository interface {
	// FindByValue returns common.ErrorNotFound when no token has the value.
	FindByValue(ctx context.Context, value string) (*models.ActivationToken, error)

	// FindByUserID returns the token currently held by the user, used or not,
	// or common.ErrorNotFound.
	FindByUserID(ctx context.Context, userID string) (*models.ActivationToken, error)

	// Create stores a new token and fills its ID and timestamps.
	Create(ctx context.Context, token *models.ActivationToken) (*models.ActivationToken, error)

	// MarkUsed flips has_been_used to true. It returns common.ErrTokenAlreadyUsed
	// when the token was consumed concurrently.
	MarkUsed(ctx context.Context, id string) error

	// Delete removes a token by id. Deleting a missing token is not an error.
	Delete(ctx context.Context, id string) error
}

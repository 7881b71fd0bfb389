// Package users declares and implements persistence of User records.
package users

import (
	"context"

	"github.com/dmitrijs2005/vitae/internal/server/models"
)

// Repository is the user half of the store consumed by the account service.
// Lookups return common.ErrorNotFound when no row matches.
type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts the user and fills the store-assigned ID and timestamps.
	// A clash on the email unique index yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindActiveByEmail only matches users whose account has been activated.
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
	// Activate flips is_active to true.
	Activate(ctx context.Context, id string) error
}

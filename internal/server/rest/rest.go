// Package rest exposes the account engine over HTTP/JSON.
package rest

import (
	"context"

	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/services"
)

// Accounts is the part of services.AccountService the HTTP layer uses.
type Accounts interface {
	RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, error)
	StartActivation(ctx context.Context, user *models.User)
	ResendActivation(ctx context.Context, userID string) error
	ActivateUser(ctx context.Context, tokenValue string) error
	GetAuthorizationToken(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, bearer string) (*models.User, error)
}

var _ Accounts = (*services.AccountService)(nil)

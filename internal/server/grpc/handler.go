package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/services"
	validation "github.com/go-ozzo/ozzo-validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// toStatus maps engine errors to gRPC codes. Dependency details stay in the log.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs), errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrPasswordMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrTokenNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrTokenAlreadyUsed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrDependencyUnavailable):
		s.logger.Error(ctx, "dependency failure", "error", err)
		return status.Error(codes.Unavailable, common.ErrDependencyUnavailable.Error())
	default:
		s.logger.Error(ctx, "unexpected error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	user, err := s.accounts.RegisterUser(ctx, services.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.accounts.StartActivation(ctx, user)

	return toUserResponse(user), nil
}

func (s *GRPCServer) ActivateUser(ctx context.Context, req *ActivateUserRequest) (*ActivateUserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	if err := s.accounts.ActivateUser(ctx, req.Token); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &ActivateUserResponse{Message: "user activated"}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	token, err := s.accounts.GetAuthorizationToken(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &LoginResponse{Token: token}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *MeRequest) (*UserResponse, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return toUserResponse(user), nil
}

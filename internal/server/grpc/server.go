// Package grpc exposes the account engine as the gRPC service
// vitae.accounts.AccountService.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/services"
	"google.golang.org/grpc"
)

// Accounts is the part of services.AccountService the gRPC layer uses.
type Accounts interface {
	RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, error)
	StartActivation(ctx context.Context, user *models.User)
	ActivateUser(ctx context.Context, tokenValue string) error
	GetAuthorizationToken(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, bearer string) (*models.User, error)
}

var _ Accounts = (*services.AccountService)(nil)

type GRPCServer struct {
	address  string
	accounts Accounts
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, accounts Accounts) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&AccountServiceDesc, s)
	return srv
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

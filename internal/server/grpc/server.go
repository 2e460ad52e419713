// Package grpc exposes AccountService over gRPC: request validation, the
// session-token interceptor and mapping of service errors to status codes.
package grpc

import (
	"context"
	"io"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
)

// AccountService is the part of services.AccountService the transport calls.
type AccountService interface {
	Register(ctx context.Context, email, password string, profile services.Profile) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*services.Session, error)
	EndSession(ctx context.Context, accountID string) error
	CurrentAccount(ctx context.Context, accountID string) (*models.Account, error)
	RedeemVerification(ctx context.Context, token string) (*models.Account, error)
	ResendVerification(ctx context.Context, email string) (bool, error)
	AttachAvatar(ctx context.Context, accountID string, image io.Reader) (string, error)
	ListAllEmails(ctx context.Context) ([]string, error)
	ResolveSession(ctx context.Context, token string) (string, error)
}

type GRPCServer struct {
	address        string
	accounts       AccountService
	logger         logging.Logger
	validate       *validator.Validate
	maxAvatarBytes int
}

func NewGRPCServer(a string, l logging.Logger, as AccountService, maxAvatarBytes int) *GRPCServer {
	return &GRPCServer{
		address:        a,
		logger:         l.With("module", "grpc_server"),
		accounts:       as,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxAvatarBytes: maxAvatarBytes,
	}
}

// newServer builds the gRPC server with interceptors and the account service
// registered. The receive limit leaves room for base64 inflation of the
// avatar bytes inside the JSON message.
func (s *GRPCServer) newServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	}
	if s.maxAvatarBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxAvatarBytes/3*4+64<<10))
	}

	srv := grpc.NewServer(opts...)
	api.RegisterAccountServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully once ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

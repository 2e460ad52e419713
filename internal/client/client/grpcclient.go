package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AccountServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults, so tests can swap the transport.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewAccountServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetAccessToken sets the token sent with protected calls. An empty token
// sends none.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, email, password, name string) (*api.AccountInfo, error) {
	resp, err := s.client.Register(ctx, &api.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Account, nil
}

// Login authenticates and, on success, keeps the returned token for
// subsequent calls.
func (s *GRPCClient) Login(ctx context.Context, email, password string) (string, *api.AccountInfo, error) {
	resp, err := s.client.Login(ctx, &api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", nil, s.mapError(err)
	}

	s.SetAccessToken(resp.Token)
	return resp.Token, &resp.Account, nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if _, err := s.client.Logout(ctx, &api.LogoutRequest{}); err != nil {
		return s.mapError(err)
	}
	s.SetAccessToken("")
	return nil
}

func (s *GRPCClient) Current(ctx context.Context) (string, error) {
	resp, err := s.client.Current(ctx, &api.CurrentRequest{})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Email, nil
}

func (s *GRPCClient) Verify(ctx context.Context, token string) error {
	if _, err := s.client.Verify(ctx, &api.VerifyRequest{Token: token}); err != nil {
		return s.mapError(err)
	}
	return nil
}

// ResendVerification returns the server's description of what happened.
func (s *GRPCClient) ResendVerification(ctx context.Context, email string) (string, error) {
	resp, err := s.client.ResendVerification(ctx, &api.ResendVerificationRequest{Email: email})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) UploadAvatar(ctx context.Context, image []byte) (string, error) {
	resp, err := s.client.UploadAvatar(ctx, &api.UploadAvatarRequest{Image: image})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.AvatarURL, nil
}

func (s *GRPCClient) ListEmails(ctx context.Context) ([]string, error) {
	resp, err := s.client.ListEmails(ctx, &api.ListEmailsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Emails, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorConflict, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", common.ErrorRateLimited, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	msgBadRequest   = "bad request"
	msgEmailInUse   = "email in use"
	msgWrongCreds   = "email or password is wrong"
	msgNotFound     = "not found"
	msgInvalidToken = "invalid token"
	msgInternal     = "internal error"
)

// toStatus maps service errors to gRPC status errors. notFoundMsg names the
// missing thing for the calling method.
func (s *GRPCServer) toStatus(ctx context.Context, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, msgEmailInUse)
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, msgWrongCreds)
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, notFoundMsg)
	case errors.Is(err, common.ErrorRateLimited):
		return status.Error(codes.ResourceExhausted, common.ErrorRateLimited.Error())
	case errors.Is(err, common.ErrorInvalidImage):
		return status.Error(codes.InvalidArgument, common.ErrorInvalidImage.Error())
	case errors.Is(err, common.ErrDeliveryFailed):
		s.logger.Warn(ctx, "notification failed", "error", err)
		return status.Error(codes.Unavailable, common.ErrDeliveryFailed.Error())
	case errors.Is(err, common.ErrUploadFailed):
		s.logger.Warn(ctx, "avatar upload failed", "error", err)
		return status.Error(codes.Unavailable, common.ErrUploadFailed.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, msgInternal)
	}
}

package grpc

import (
	"errors"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC status codes. Unknown errors become
// Internal without leaking their text.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrConstraint):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrRecoveryTokenInvalid),
		errors.Is(err, common.ErrInvalidPayload),
		errors.Is(err, common.ErrUnknownTable),
		errors.Is(err, models.ErrInvalidRow):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

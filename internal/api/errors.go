package api

import (
	"errors"

	"connectrpc.com/connect"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"watermesh/internal/store"
	"watermesh/pkg/apperror"
)

// toConnectError maps a planning error to a connect.Error so RPC
// clients see the same failure taxonomy cmd/waterplan's apperror
// codes already express for gRPC: apperror.ToGRPC does the
// ErrorCode -> codes.Code mapping, and grpcCodeToConnect carries
// that across to Connect's own code space.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}

	grpcErr := apperror.ToGRPC(err)
	st, ok := status.FromError(grpcErr)
	if !ok {
		return connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewError(grpcCodeToConnect(st.Code()), err)
}

func grpcCodeToConnect(c codes.Code) connect.Code {
	switch c {
	case codes.InvalidArgument:
		return connect.CodeInvalidArgument
	case codes.FailedPrecondition:
		return connect.CodeFailedPrecondition
	case codes.ResourceExhausted:
		return connect.CodeResourceExhausted
	case codes.Aborted:
		return connect.CodeAborted
	case codes.Unavailable:
		return connect.CodeUnavailable
	case codes.DeadlineExceeded:
		return connect.CodeDeadlineExceeded
	case codes.NotFound:
		return connect.CodeNotFound
	case codes.Unimplemented:
		return connect.CodeUnimplemented
	case codes.Unauthenticated:
		return connect.CodeUnauthenticated
	case codes.PermissionDenied:
		return connect.CodePermissionDenied
	default:
		return connect.CodeInternal
	}
}

package telemetry

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NewUnaryInterceptor traces a Connect RPC the way the teacher's
// gRPC UnaryServerInterceptor did: one server-kind span per call,
// named after the procedure, with the outcome recorded on exit. The
// planning API is unary-only, so there is no stream counterpart.
func NewUnaryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, span := StartSpan(ctx, req.Spec().Procedure,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			span.SetAttributes(attribute.String("rpc.procedure", req.Spec().Procedure))

			resp, err := next(ctx, req)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					span.SetAttributes(attribute.String("rpc.connect.code", connectErr.Code().String()))
				}
				span.RecordError(err)
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return resp, err
		}
	}
}

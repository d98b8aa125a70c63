package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"watermesh/pkg/logger"
)

// NewLoggingInterceptor logs every unary call's procedure, duration,
// and outcome, grounded on the gateway's NewLoggingInterceptor.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			requestID := uuid.NewString()
			start := time.Now()

			resp, err := next(ctx, req)

			duration := time.Since(start)
			if err != nil {
				logger.Log.Error("rpc failed",
					"request_id", requestID,
					"procedure", req.Spec().Procedure,
					"duration_ms", duration.Milliseconds(),
					"error", err,
				)
			} else {
				logger.Log.Info("rpc completed",
					"request_id", requestID,
					"procedure", req.Spec().Procedure,
					"duration_ms", duration.Milliseconds(),
				)
			}

			return resp, err
		}
	}
}

// NewRecoveryInterceptor converts a panicking handler into a
// connect.CodeInternal error instead of crashing the server, the
// Connect-handler equivalent of grpc-middleware's recovery
// interceptor.
func NewRecoveryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error("rpc panic recovered", "procedure", req.Spec().Procedure, "panic", r)
					err = connect.NewError(connect.CodeInternal, fmt.Errorf("internal error"))
				}
			}()
			return next(ctx, req)
		}
	}
}

// planClaims is the single "can submit plans" claim this service's
// bearer tokens carry; there is no per-resource ACL model in scope.
type planClaims struct {
	CanPlan bool `json:"can_plan"`
	jwt.RegisteredClaims
}

// NewAuthInterceptor validates the Authorization bearer token on every
// RPC against secret, rejecting requests without a valid CanPlan
// claim. Grounded on the gateway's NewAuthInterceptor and
// pkg/passhash's JWT validation pattern.
func NewAuthInterceptor(secret string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token := req.Header().Get("Authorization")
			if token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("missing authorization header"))
			}
			token = strings.TrimPrefix(token, "Bearer ")

			claims := &planClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !parsed.Valid {
				return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("invalid token"))
			}
			if !claims.CanPlan {
				return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("token lacks plan submission claim"))
			}

			return next(ctx, req)
		}
	}
}

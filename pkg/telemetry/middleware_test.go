package telemetry

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
)

type fakeUnaryRequest struct {
	connect.AnyRequest
	spec connect.Spec
}

func (f *fakeUnaryRequest) Spec() connect.Spec { return f.spec }

func TestNewUnaryInterceptor_OK(t *testing.T) {
	interceptor := NewUnaryInterceptor()
	if interceptor == nil {
		t.Fatal("expected a non-nil interceptor")
	}

	called := false
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		called = true
		return nil, nil
	}

	wrapped := interceptor(next)
	req := &fakeUnaryRequest{spec: connect.Spec{Procedure: "/test.Service/Method"}}
	if _, err := wrapped(context.Background(), req); err != nil {
		t.Fatalf("wrapped(): %v", err)
	}
	if !called {
		t.Error("expected next to be called")
	}
}

func TestNewUnaryInterceptor_PropagatesError(t *testing.T) {
	interceptor := NewUnaryInterceptor()
	wantErr := connect.NewError(connect.CodeInvalidArgument, errors.New("bad request"))
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, wantErr
	}

	wrapped := interceptor(next)
	req := &fakeUnaryRequest{spec: connect.Spec{Procedure: "/test.Service/Method"}}
	_, err := wrapped(context.Background(), req)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error to wrap wantErr, got %v", err)
	}
}

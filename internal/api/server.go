package api

import (
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"watermesh/pkg/config"
	"watermesh/pkg/telemetry"
)

// NewServer builds the planning API's HTTP server: the Connect handler
// behind the tracing/logging/recovery/auth interceptor chain, served
// over HTTP/1.1 and H2C (so plain HTTP/2 clients and gRPC clients both
// work without TLS), matching the gateway's h2c.NewHandler wiring.
func NewServer(apiCfg config.APIConfig, authCfg config.AuthConfig, svc PlanningServiceHandler) *http.Server {
	path, handler := NewPlanningServiceHandler(svc,
		connect.WithInterceptors(
			NewRecoveryInterceptor(),
			telemetry.NewUnaryInterceptor(),
			NewLoggingInterceptor(),
			NewAuthInterceptor(authCfg.JWTSecret),
		),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", handleHealth)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", apiCfg.Port),
		Handler:      h2c.NewHandler(mux, &http2.Server{}),
		ReadTimeout:  time.Duration(apiCfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(apiCfg.WriteTimeout) * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Procedure paths follow Connect's convention
// (/<package>.<Service>/<Method>) even though these types aren't
// protobuf-generated; it keeps the wire layout identical to what a
// protoc-gen-connect-go run would have produced from an equivalent
// .proto, so switching to real codegen later is a drop-in change.
const (
	planningServiceName = "watermesh.planning.v1.PlanningService"

	ProcedurePlan      = "/" + planningServiceName + "/Plan"
	ProcedureGetReport = "/" + planningServiceName + "/GetReport"
)

// PlanningServiceHandler is the server-side contract a Connect handler
// dispatches to. PlanningService implements it.
type PlanningServiceHandler interface {
	Plan(context.Context, *connect.Request[PlanRequest]) (*connect.Response[PlanReport], error)
	GetReport(context.Context, *connect.Request[ReportIDRequest]) (*connect.Response[PlanReport], error)
}

// NewPlanningServiceHandler mounts svc behind Connect's protocol
// negotiation (Connect, gRPC, and gRPC-Web all on one HTTP handler).
// The returned path is the mux pattern to register it under.
func NewPlanningServiceHandler(svc PlanningServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ProcedurePlan, connect.NewUnaryHandler(ProcedurePlan, svc.Plan, opts...))
	mux.Handle(ProcedureGetReport, connect.NewUnaryHandler(ProcedureGetReport, svc.GetReport, opts...))

	return "/" + planningServiceName + "/", mux
}

// PlanningServiceClient calls a remote PlanningService.
type PlanningServiceClient struct {
	plan      *connect.Client[PlanRequest, PlanReport]
	getReport *connect.Client[ReportIDRequest, PlanReport]
}

// NewPlanningServiceClient builds a client against baseURL (scheme
// and host of the server's listener).
func NewPlanningServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlanningServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &PlanningServiceClient{
		plan:      connect.NewClient[PlanRequest, PlanReport](httpClient, baseURL+ProcedurePlan, opts...),
		getReport: connect.NewClient[ReportIDRequest, PlanReport](httpClient, baseURL+ProcedureGetReport, opts...),
	}
}

func (c *PlanningServiceClient) Plan(ctx context.Context, req *connect.Request[PlanRequest]) (*connect.Response[PlanReport], error) {
	return c.plan.CallUnary(ctx, req)
}

func (c *PlanningServiceClient) GetReport(ctx context.Context, req *connect.Request[ReportIDRequest]) (*connect.Response[PlanReport], error) {
	return c.getReport.CallUnary(ctx, req)
}

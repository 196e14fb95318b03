// Package grpcserver exposes the vesting engine over gRPC.
package grpcserver

import (
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/service"
)

// Services are the engine services served over gRPC. Revocation is optional:
// when nil, the Revocation service is not registered at all.
type Services struct {
	Identity    service.IdentityService
	Authorities service.AuthorityService
	Schedules   service.ScheduleService
	Claims      service.ClaimService
	Revocation  service.RevocationService
}

// Server wires services into gRPC handlers.
type Server struct {
	identity    service.IdentityService
	authorities service.AuthorityService
	schedules   service.ScheduleService
	claims      service.ClaimService
}

// New constructs the Identity and Vesting handlers.
func New(s Services) *Server {
	return &Server{
		identity:    s.Identity,
		authorities: s.Authorities,
		schedules:   s.Schedules,
		claims:      s.Claims,
	}
}

// Options configure NewGRPCServer.
type Options struct {
	SignKey []byte
	Logger  *zap.Logger
	// Extra server options, e.g. TLS credentials.
	ServerOptions []grpc.ServerOption
}

// NewGRPCServer builds a grpc.Server with the interceptor chain, health
// service and all engine services registered.
func NewGRPCServer(s Services, o Options) (*grpc.Server, *health.Server) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts := append([]grpc.ServerOption{
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			RecoverUnary(log),
			LoggingUnary(log),
			ErrorsUnary(log),
			AuthUnary(o.SignKey, PublicMethods()),
		)),
	}, o.ServerOptions...)

	gs := grpc.NewServer(opts...)
	srv := New(s)
	api.RegisterIdentityServer(gs, srv)
	api.RegisterVestingServer(gs, srv)
	if s.Revocation != nil {
		api.RegisterRevocationServer(gs, NewRevocation(s.Revocation))
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(api.VestingServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}

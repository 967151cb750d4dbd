package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"seniorguard/pkg/logger"
)

// ServiceName is the name clients pass to the health check
const ServiceName = "seniorguard.v1.ScanEngine"

// DefaultInterval is how often dependency probes are rerun
const DefaultInterval = 10 * time.Second

// Probe reports whether one dependency is usable
type Probe func(ctx context.Context) error

// Reporter keeps the gRPC health status in step with the service's dependencies
type Reporter struct {
	server   *health.Server
	probes   map[string]Probe
	interval time.Duration
	logger   *logger.Logger
}

// Register adds the standard health service to grpcServer. Status starts as SERVING
// and is refreshed by Run.
func Register(grpcServer *grpc.Server, probes map[string]Probe, log *logger.Logger) *Reporter {
	r := &Reporter{
		server:   health.NewServer(),
		probes:   probes,
		interval: DefaultInterval,
		logger:   log.WithComponent("grpc-health"),
	}
	r.set(grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, r.server)
	return r
}

// Run probes every interval until ctx is done, then marks the service NOT_SERVING
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Refresh(ctx)
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Refresh runs every probe once and updates the serving status
func (r *Reporter) Refresh(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	for name, probe := range r.probes {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := probe(pctx)
		cancel()
		if err != nil {
			r.logger.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	r.set(status)
}

func (r *Reporter) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
}

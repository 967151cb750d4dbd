package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"seniorguard/pkg/logger"
)

func TestReporterFollowsProbes(t *testing.T) {
	var failing atomic.Bool
	probes := map[string]Probe{
		"redis": func(context.Context) error {
			if failing.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
	}

	r := Register(grpc.NewServer(), probes, logger.NewNop())
	ctx := context.Background()

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := r.server.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check())

	failing.Store(true)
	r.Refresh(ctx)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check())

	failing.Store(false)
	r.Refresh(ctx)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check())
}

func TestRunStopsWithContext(t *testing.T) {
	r := Register(grpc.NewServer(), nil, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	resp, err := r.server.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

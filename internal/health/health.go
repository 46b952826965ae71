// Package health serves the standard gRPC health protocol for the honeypot.
// The overall status is SERVING until the watched signal fires.
package health

import (
	"net"
	"sync"

	"github.com/AnishMulay/sandtrap/internal/log_service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported next to the overall ("") status.
const Service = "sandtrap.Honeypot"

type GRPCHealthService struct {
	listenAddress string
	ls            log_service.LogService

	grpcServer *grpc.Server
	hs         *health.Server
	lis        net.Listener

	stopMutex sync.Mutex
	stopped   bool
	quit      chan struct{}
}

func NewGRPCHealthService(addr string, ls log_service.LogService) *GRPCHealthService {
	return &GRPCHealthService{listenAddress: addr, ls: ls, quit: make(chan struct{})}
}

// Addr is the bound address once Start has returned.
func (h *GRPCHealthService) Addr() string {
	if h.lis != nil {
		return h.lis.Addr().String()
	}
	return h.listenAddress
}

// Start begins serving and flips every status to NOT_SERVING when down is
// closed.
func (h *GRPCHealthService) Start(down <-chan struct{}) error {
	lis, err := net.Listen("tcp", h.listenAddress)
	if err != nil {
		h.ls.Error(log_service.LogEvent{
			Message:  "Failed to listen on health address",
			Metadata: map[string]any{"address": h.listenAddress, "error": err.Error()},
		})
		return ErrListenFailed
	}
	h.lis = lis

	h.hs = health.NewServer()
	h.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.hs.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)

	h.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(h.grpcServer, h.hs)

	go func() {
		select {
		case <-down:
			h.ls.Warn(log_service.LogEvent{Message: "Reporting NOT_SERVING"})
			h.hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			h.hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
		case <-h.quit:
		}
	}()

	go func() {
		if err := h.grpcServer.Serve(lis); err != nil {
			h.ls.Error(log_service.LogEvent{
				Message:  "Health server error",
				Metadata: map[string]any{"address": h.Addr(), "error": err.Error()},
			})
		}
	}()

	h.ls.Info(log_service.LogEvent{
		Message:  "Health service started",
		Metadata: map[string]any{"address": h.Addr()},
	})
	return nil
}

func (h *GRPCHealthService) Stop() {
	h.stopMutex.Lock()
	defer h.stopMutex.Unlock()
	if h.stopped || h.grpcServer == nil {
		return
	}
	close(h.quit)
	h.hs.Shutdown()
	h.grpcServer.GracefulStop()
	h.stopped = true
}

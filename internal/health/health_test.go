package health

import (
	"context"
	"testing"
	"time"

	"github.com/AnishMulay/sandtrap/internal/log_service/inmemory"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/testing/protocmp"
)

func startHealth(t *testing.T, down <-chan struct{}) healthpb.HealthClient {
	t.Helper()
	h := NewGRPCHealthService("127.0.0.1:0", inmemory.NewInMemoryLogService())
	if err := h.Start(down); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(h.Stop)

	conn, err := grpc.NewClient(h.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error = %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealthFollowsSignal(t *testing.T) {
	down := make(chan struct{})
	client := startHealth(t, down)

	for _, svc := range []string{"", Service} {
		if got := check(t, client, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %v, want SERVING", svc, got)
		}
	}

	close(down)

	deadline := time.Now().Add(5 * time.Second)
	for check(t, client, "") != healthpb.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatalf("status still SERVING after signal")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := check(t, client, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Check(%q) = %v, want NOT_SERVING", Service, got)
	}
}

func TestStartFailsOnBadAddress(t *testing.T) {
	h := NewGRPCHealthService("256.0.0.1:bad", inmemory.NewInMemoryLogService())
	if err := h.Start(make(chan struct{})); err != ErrListenFailed {
		t.Errorf("Start() error = %v, want ErrListenFailed", err)
	}
	h.Stop()
}

func TestCheckResponse(t *testing.T) {
	client := startHealth(t, make(chan struct{}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: Service})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	want := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	if diff := cmp.Diff(want, resp, protocmp.Transform()); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown.Service"})
	if got := status.Code(err); got != codes.NotFound {
		t.Errorf("Check(unknown) code = %v, want NotFound", got)
	}
}

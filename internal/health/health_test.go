package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProbeRunnerAllUp(t *testing.T) {
	pr := NewProbeRunner(time.Second)
	pr.Register("database", func(context.Context) error { return nil })
	pr.Register("redis", func(context.Context) error { return nil })

	ready, results := pr.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Status != "up" {
			t.Fatalf("probe %s status %q", res.Name, res.Status)
		}
	}
}

func TestProbeRunnerReportsFailure(t *testing.T) {
	pr := NewProbeRunner(time.Second)
	pr.Register("database", func(context.Context) error { return nil })
	pr.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	ready, results := pr.Ready(context.Background())
	if ready {
		t.Fatal("expected not ready")
	}
	if results[1].Status != "down" || results[1].Error == "" {
		t.Fatalf("expected failing probe detail, got %+v", results[1])
	}
}

func TestProbeRunnerTimeout(t *testing.T) {
	pr := NewProbeRunner(10 * time.Millisecond)
	pr.Register("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	ready, _ := pr.Ready(context.Background())
	if ready {
		t.Fatal("expected slow probe to fail readiness")
	}
}

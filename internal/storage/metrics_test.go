package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestCreateMetricUnknownAgent verifies the foreign key maps to ErrNotFound.
func TestCreateMetricUnknownAgent(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()

	err = s.CreateMetric(context.Background(), &AgentMetric{
		ID: "m-1", AgentID: "no-such-agent", MetricType: "system",
		Value: map[string]any{"cpu": 10.0}, Timestamp: time.Now().UTC(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

// TestListMetricsFilters verifies type and time-window filtering.
func TestListMetricsFilters(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	agent := registerTestAgent(t, s, "agent-1", "web-01")
	now := time.Now().UTC().Truncate(time.Second)

	samples := []*AgentMetric{
		{ID: "m-1", AgentID: agent.ID, MetricType: "system", Value: map[string]any{"cpu": 10.0}, Timestamp: now.Add(-2 * time.Hour)},
		{ID: "m-2", AgentID: agent.ID, MetricType: "system", Value: map[string]any{"cpu": 20.0}, Timestamp: now.Add(-30 * time.Minute)},
		{ID: "m-3", AgentID: agent.ID, MetricType: "nginx", Value: map[string]any{"connections": 42.0}, Timestamp: now},
	}
	for _, m := range samples {
		if err := s.CreateMetric(ctx, m); err != nil {
			t.Fatalf("failed to create metric %s: %v", m.ID, err)
		}
	}

	all, err := s.ListMetrics(ctx, agent.ID, MetricFilter{})
	if err != nil {
		t.Fatalf("failed to list metrics: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(all))
	}
	// Newest first
	if all[0].ID != "m-3" {
		t.Errorf("expected m-3 first, got '%s'", all[0].ID)
	}

	system, err := s.ListMetrics(ctx, agent.ID, MetricFilter{MetricType: "system"})
	if err != nil {
		t.Fatalf("failed to list system metrics: %v", err)
	}
	if len(system) != 2 {
		t.Errorf("expected 2 system metrics, got %d", len(system))
	}

	recent, err := s.ListMetrics(ctx, agent.ID, MetricFilter{Since: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("failed to list recent metrics: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 recent metrics, got %d", len(recent))
	}
}

// TestLatestMetric verifies the newest sample of a type is returned.
func TestLatestMetric(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	agent := registerTestAgent(t, s, "agent-1", "web-01")
	now := time.Now().UTC().Truncate(time.Second)

	old := &AgentMetric{ID: "m-1", AgentID: agent.ID, MetricType: "system",
		Value: map[string]any{"cpu": 10.0}, Timestamp: now.Add(-time.Hour)}
	fresh := &AgentMetric{ID: "m-2", AgentID: agent.ID, MetricType: "system",
		Value: map[string]any{"cpu": 55.5}, Timestamp: now}
	if err := s.CreateMetric(ctx, old); err != nil {
		t.Fatalf("failed to create metric: %v", err)
	}
	if err := s.CreateMetric(ctx, fresh); err != nil {
		t.Fatalf("failed to create metric: %v", err)
	}

	got, err := s.LatestMetric(ctx, agent.ID, "system")
	if err != nil {
		t.Fatalf("LatestMetric failed: %v", err)
	}
	if got.ID != "m-2" {
		t.Errorf("expected m-2, got '%s'", got.ID)
	}
	if got.Value["cpu"] != 55.5 {
		t.Errorf("expected cpu 55.5, got %v", got.Value["cpu"])
	}
}

// TestLatestMetricNotFound verifies ErrNotFound when no sample exists.
func TestLatestMetricNotFound(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()

	agent := registerTestAgent(t, s, "agent-1", "web-01")

	_, err = s.LatestMetric(context.Background(), agent.ID, "system")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PubSub(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()
	logger := slog.Default()

	client, err := NewClient(ctx, ConnConfig{
		URL:   natsURL,
		Token: os.Getenv("NATS_TOKEN"),
		Name:  "credence-integration",
	}, logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan SimulationCompleted, 1)

	err = client.Subscribe("credence.simulation.>", func(subject string, data []byte) {
		var ev SimulationCompleted
		json.Unmarshal(data, &ev)
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := client.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	err = client.Publish(SubjectSimulationCompleted, SimulationCompleted{
		RunID:        "integration-run",
		Observations: 5,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.RunID != "integration-run" || ev.Observations != 5 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

package hermes

import (
	"encoding/json"
	"testing"
)

func TestSimulationCompletedParsing(t *testing.T) {
	raw := `{
		"run_id": "3f1c2a8e-6b0d-4a55-9c1e-2f7a9d4b8e10",
		"scenario": "shock(t=10, intensity=80, decay=5)",
		"observations": 60,
		"seed": 42,
		"final_mean": 31.5,
		"final_uncertainty": 2.25,
		"completed_at": "2026-03-01T12:00:00Z"
	}`

	var ev SimulationCompleted
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("failed to parse SimulationCompleted: %v", err)
	}

	if ev.RunID != "3f1c2a8e-6b0d-4a55-9c1e-2f7a9d4b8e10" {
		t.Errorf("unexpected run_id %q", ev.RunID)
	}
	if ev.Observations != 60 {
		t.Errorf("expected 60 observations, got %d", ev.Observations)
	}
	if ev.Seed != 42 {
		t.Errorf("expected seed 42, got %d", ev.Seed)
	}
	if ev.FinalMean != 31.5 {
		t.Errorf("expected final_mean 31.5, got %f", ev.FinalMean)
	}
	if ev.CompletedAt.Year() != 2026 {
		t.Errorf("unexpected completed_at %v", ev.CompletedAt)
	}
}

func TestComparisonCompletedParsing(t *testing.T) {
	raw := `{
		"run_id": "run-1",
		"observations": 100,
		"seed": 7,
		"outcomes": [
			{"scenario": "Low Threat", "final_mean": 40.1, "evidence_dominance_share": 0},
			{"scenario": "High Threat", "final_mean": 55.9, "evidence_dominance_share": 0}
		]
	}`

	var ev ComparisonCompleted
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("failed to parse ComparisonCompleted: %v", err)
	}
	if len(ev.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(ev.Outcomes))
	}
	if ev.Outcomes[1].Scenario != "High Threat" {
		t.Errorf("outcome order not preserved: %+v", ev.Outcomes)
	}
}

func TestSubjectConstants(t *testing.T) {
	if SubjectSimulationCompleted != "credence.simulation.completed" {
		t.Errorf("unexpected simulation subject %q", SubjectSimulationCompleted)
	}
	if SubjectComparisonCompleted != "credence.comparison.completed" {
		t.Errorf("unexpected comparison subject %q", SubjectComparisonCompleted)
	}
}

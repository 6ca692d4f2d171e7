package hermes

import "time"

const (
	// SubjectSimulationCompleted carries a SimulationCompleted for every
	// freshly computed single-scenario run.
	SubjectSimulationCompleted = "credence.simulation.completed"
	// SubjectComparisonCompleted carries a ComparisonCompleted for every
	// freshly computed scenario comparison.
	SubjectComparisonCompleted = "credence.comparison.completed"
)

// SimulationCompleted announces a stored simulation run. Consumers fetch the
// full table from the API by RunID.
type SimulationCompleted struct {
	RunID            string    `json:"run_id"`
	Scenario         string    `json:"scenario"`
	Observations     int       `json:"observations"`
	Seed             uint64    `json:"seed"`
	FinalMean        float64   `json:"final_mean"`
	FinalUncertainty float64   `json:"final_uncertainty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// ScenarioOutcome is the per-scenario line of a ComparisonCompleted.
type ScenarioOutcome struct {
	Scenario               string  `json:"scenario"`
	FinalMean              float64 `json:"final_mean"`
	EvidenceDominanceShare float64 `json:"evidence_dominance_share"`
}

type ComparisonCompleted struct {
	RunID        string            `json:"run_id"`
	Observations int               `json:"observations"`
	Seed         uint64            `json:"seed"`
	Outcomes     []ScenarioOutcome `json:"outcomes"`
	CompletedAt  time.Time         `json:"completed_at"`
}

const (
	// SubjectSimulationRequested accepts a JSON simulation request from
	// other services. The result is announced on SubjectSimulationCompleted.
	SubjectSimulationRequested = "credence.simulation.requested"
	// SubjectComparisonRequested is the comparison counterpart.
	SubjectComparisonRequested = "credence.comparison.requested"
)

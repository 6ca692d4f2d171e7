package processor

import (
	"context"
	"encoding/json"
)

// HandleSimulationRequested is the NATS handler for credence.simulation.requested.
// Fields absent from the payload keep their defaults.
func (p *Processor) HandleSimulationRequested(subject string, data []byte) {
	req := DefaultSimulationRequest()
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse simulation request", "subject", subject, "error", err)
		return
	}
	if _, err := p.RunSimulation(context.Background(), req); err != nil {
		p.logger.Error("simulation request failed", "subject", subject, "error", err)
	}
}

// HandleComparisonRequested is the NATS handler for credence.comparison.requested.
func (p *Processor) HandleComparisonRequested(subject string, data []byte) {
	req := DefaultComparisonRequest()
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse comparison request", "subject", subject, "error", err)
		return
	}
	if _, err := p.RunComparison(context.Background(), req); err != nil {
		p.logger.Error("comparison request failed", "subject", subject, "error", err)
	}
}

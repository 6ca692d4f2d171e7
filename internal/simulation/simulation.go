// Package simulation threads belief updates across a time axis: the posterior
// of step t becomes the prior of step t+1.
package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/credence/internal/belief"
	"github.com/MikeSquared-Agency/credence/internal/trajectory"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Params configures one simulation run.
type Params struct {
	Observations int                 `json:"observations" yaml:"observations"`
	Initial      belief.State        `json:"initial_belief" yaml:"initial_belief"`
	EvidenceMean float64             `json:"evidence_mean" yaml:"evidence_mean"`
	EvidenceSD   float64             `json:"evidence_sd" yaml:"evidence_sd"`
	Seed         uint64              `json:"seed" yaml:"seed"`
	Coefficients belief.Coefficients `json:"coefficients" yaml:"coefficients"`
}

func DefaultParams() Params {
	return Params{
		Observations: 100,
		Initial:      belief.DefaultState(),
		EvidenceMean: 60,
		EvidenceSD:   15,
		Seed:         42,
		Coefficients: belief.DefaultCoefficients(),
	}
}

// Validate rejects parameters before any step runs.
func (p Params) Validate() error {
	if p.Observations <= 0 {
		return fmt.Errorf("%w: observations must be positive, got %d", ErrInvalidConfiguration, p.Observations)
	}
	if err := p.Initial.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if math.IsNaN(p.EvidenceMean) || math.IsInf(p.EvidenceMean, 0) {
		return fmt.Errorf("%w: evidence mean is not finite", ErrInvalidConfiguration)
	}
	if math.IsNaN(p.EvidenceSD) || math.IsInf(p.EvidenceSD, 0) || p.EvidenceSD < 0 {
		return fmt.Errorf("%w: evidence sd must be finite and non-negative", ErrInvalidConfiguration)
	}
	if err := p.Coefficients.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// Record is one row of the simulation output.
type Record struct {
	T                    int     `json:"t"`
	PriorMean            float64 `json:"prior_mean"`
	PosteriorMean        float64 `json:"posterior_mean"`
	PosteriorUncertainty float64 `json:"posterior_uncertainty"`
	Evidence             float64 `json:"evidence"`
	Threat               float64 `json:"threat"`
	Institution          float64 `json:"institution"`
	BeliefShift          float64 `json:"belief_shift"`
	AdjEvidenceWeight    float64 `json:"adj_evidence_weight"`
	AdjInstitutionWeight float64 `json:"adj_institution_weight"`
	EvidenceDominance    bool    `json:"evidence_dominance"`
}

// Run simulates p.Observations steps with evidence drawn from a normal
// sampler seeded by p.Seed.
func Run(p Params, threat, institution trajectory.Trajectory) ([]Record, error) {
	return RunWithSampler(p, threat, institution, NewNormalSampler(p.EvidenceMean, p.EvidenceSD, p.Seed))
}

// RunWithSampler is Run with an explicit evidence source. The sampler is
// consumed once per step, in step order.
func RunWithSampler(p Params, threat, institution trajectory.Trajectory, s Sampler) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if threat == nil || institution == nil {
		return nil, fmt.Errorf("%w: threat and institution trajectories are required", ErrInvalidConfiguration)
	}
	if err := trajectory.Validate(threat); err != nil {
		return nil, fmt.Errorf("%w: threat: %w", ErrInvalidConfiguration, err)
	}
	if err := trajectory.Validate(institution); err != nil {
		return nil, fmt.Errorf("%w: institution: %w", ErrInvalidConfiguration, err)
	}

	records := make([]Record, 0, p.Observations)
	current := p.Initial

	for t := 1; t <= p.Observations; t++ {
		evidence, threatLevel, signal := s.Sample(), threat.At(t), institution.At(t)
		if !finite(evidence) || !finite(threatLevel) || !finite(signal) {
			return nil, fmt.Errorf("%w: step %d: non-finite input (evidence %v, threat %v, institution %v)",
				ErrInvalidConfiguration, t, evidence, threatLevel, signal)
		}
		obs := belief.Observation{
			EvidenceStrength:    belief.Clamp(evidence),
			IdentityThreatLevel: belief.Clamp(threatLevel),
			InstitutionalSignal: belief.Clamp(signal),
		}
		res := belief.Update(current, obs, p.Coefficients)

		records = append(records, Record{
			T:                    t,
			PriorMean:            current.Mean,
			PosteriorMean:        res.Posterior.Mean,
			PosteriorUncertainty: res.Posterior.Uncertainty,
			Evidence:             obs.EvidenceStrength,
			Threat:               obs.IdentityThreatLevel,
			Institution:          obs.InstitutionalSignal,
			BeliefShift:          res.BeliefShift,
			AdjEvidenceWeight:    res.AdjEvidenceWeight,
			AdjInstitutionWeight: res.AdjInstitutionWeight,
			EvidenceDominance:    res.EvidenceDominance,
		})
		current = res.Posterior
	}
	return records, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Final returns the belief after the last record.
func Final(records []Record) (belief.State, bool) {
	if len(records) == 0 {
		return belief.State{}, false
	}
	last := records[len(records)-1]
	return belief.State{Mean: last.PosteriorMean, Uncertainty: last.PosteriorUncertainty}, true
}

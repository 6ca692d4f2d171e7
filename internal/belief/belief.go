// Package belief implements the precision-weighted credibility update used by
// the simulator. One call consumes a prior belief and one observation and
// returns the posterior together with the weights that produced it.
package belief

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinMean and MaxMean bound every belief mean and every exogenous signal.
	MinMean = 0.0
	MaxMean = 100.0
)

var (
	ErrInvalidState        = errors.New("invalid belief state")
	ErrInvalidCoefficients = errors.New("invalid update coefficients")
)

// State is a belief about credibility at one point in time.
type State struct {
	Mean        float64 `json:"mean" yaml:"mean"`
	Uncertainty float64 `json:"uncertainty" yaml:"uncertainty"`
}

// DefaultState is the initial belief used when none is supplied.
func DefaultState() State {
	return State{Mean: 50, Uncertainty: 20}
}

// Validate reports whether s can seed an update chain.
func (s State) Validate() error {
	if math.IsNaN(s.Mean) || s.Mean < MinMean || s.Mean > MaxMean {
		return fmt.Errorf("%w: mean %v outside [%g,%g]", ErrInvalidState, s.Mean, MinMean, MaxMean)
	}
	if math.IsNaN(s.Uncertainty) || math.IsInf(s.Uncertainty, 0) || s.Uncertainty <= 0 {
		return fmt.Errorf("%w: uncertainty %v must be positive and finite", ErrInvalidState, s.Uncertainty)
	}
	return nil
}

// Observation holds the exogenous inputs for a single step.
type Observation struct {
	EvidenceStrength    float64 `json:"evidence_strength"`
	IdentityThreatLevel float64 `json:"identity_threat_level"`
	InstitutionalSignal float64 `json:"institutional_signal"`
}

// Coefficients parameterise the update rule.
type Coefficients struct {
	EvidenceWeight    float64 `json:"evidence_weight" yaml:"evidence_weight"`
	InstitutionWeight float64 `json:"institution_weight" yaml:"institution_weight"`
	// ThreatModulation is the per-unit-threat change in evidence weight.
	ThreatModulation float64 `json:"threat_modulation" yaml:"threat_modulation"`
	// InstitutionThreatGain is the per-unit-threat change in institution weight.
	InstitutionThreatGain    float64 `json:"institution_threat_gain" yaml:"institution_threat_gain"`
	EvidenceWeightFloor      float64 `json:"evidence_weight_floor" yaml:"evidence_weight_floor"`
	InstitutionWeightCeiling float64 `json:"institution_weight_ceiling" yaml:"institution_weight_ceiling"`
}

// DefaultCoefficients returns the calibrated defaults.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		EvidenceWeight:           0.15,
		InstitutionWeight:        0.50,
		ThreatModulation:         -0.01,
		InstitutionThreatGain:    0.005,
		EvidenceWeightFloor:      0.01,
		InstitutionWeightCeiling: 0.80,
	}
}

// Validate rejects coefficients that would break the positivity of the
// combined weight or produce non-finite results.
func (c Coefficients) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"evidence_weight", c.EvidenceWeight},
		{"institution_weight", c.InstitutionWeight},
		{"threat_modulation", c.ThreatModulation},
		{"institution_threat_gain", c.InstitutionThreatGain},
		{"evidence_weight_floor", c.EvidenceWeightFloor},
		{"institution_weight_ceiling", c.InstitutionWeightCeiling},
	}
	for _, n := range named {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidCoefficients, n.name)
		}
	}
	if c.EvidenceWeightFloor <= 0 {
		return fmt.Errorf("%w: evidence_weight_floor must be > 0", ErrInvalidCoefficients)
	}
	if c.InstitutionWeightCeiling <= c.EvidenceWeightFloor || c.InstitutionWeightCeiling > 1 {
		return fmt.Errorf("%w: institution_weight_ceiling must be in (floor, 1]", ErrInvalidCoefficients)
	}
	return nil
}

// Result is the outcome of one update.
type Result struct {
	Posterior            State   `json:"posterior"`
	PosteriorPrecision   float64 `json:"posterior_precision"`
	AdjEvidenceWeight    float64 `json:"adj_evidence_weight"`
	AdjInstitutionWeight float64 `json:"adj_institution_weight"`
	EvidencePull         float64 `json:"evidence_pull"`
	InstitutionPull      float64 `json:"institution_pull"`
	BeliefShift          float64 `json:"belief_shift"`
	EvidenceDominance    bool    `json:"evidence_dominance"`
}

// AdjustedWeights returns the evidence and institution weights after threat
// modulation, with the floor and ceiling applied.
func AdjustedWeights(threat float64, c Coefficients) (evidence, institution float64) {
	evidence = math.Max(c.EvidenceWeightFloor, c.EvidenceWeight+c.ThreatModulation*threat)
	institution = math.Min(c.InstitutionWeightCeiling, c.InstitutionWeight+c.InstitutionThreatGain*threat)
	return evidence, institution
}

// Update combines prior with obs. The blend is a heuristic: the likelihood
// precision is the total weight over 100 and its "mean" is the raw total pull.
func Update(prior State, obs Observation, c Coefficients) Result {
	wEvidence, wInstitution := AdjustedWeights(obs.IdentityThreatLevel, c)

	evidencePull := wEvidence * obs.EvidenceStrength
	institutionPull := wInstitution * obs.InstitutionalSignal

	totalPull := evidencePull + institutionPull
	totalWeight := wEvidence + wInstitution

	precisionPrior := 1 / (prior.Uncertainty * prior.Uncertainty)
	precisionLikelihood := totalWeight / 100
	posteriorPrecision := precisionPrior + precisionLikelihood

	mean := (precisionPrior*prior.Mean + precisionLikelihood*totalPull) / posteriorPrecision
	mean = Clamp(mean)

	return Result{
		Posterior: State{
			Mean:        mean,
			Uncertainty: math.Sqrt(1 / posteriorPrecision),
		},
		PosteriorPrecision:   posteriorPrecision,
		AdjEvidenceWeight:    wEvidence,
		AdjInstitutionWeight: wInstitution,
		EvidencePull:         evidencePull,
		InstitutionPull:      institutionPull,
		BeliefShift:          mean - prior.Mean,
		EvidenceDominance:    evidencePull > institutionPull,
	}
}

// Clamp bounds v to [MinMean, MaxMean].
func Clamp(v float64) float64 {
	if v < MinMean {
		return MinMean
	}
	if v > MaxMean {
		return MaxMean
	}
	return v
}

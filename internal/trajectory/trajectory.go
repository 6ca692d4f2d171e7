// Package trajectory supplies the exogenous drivers of the belief simulation:
// identity-threat curves and the institutional responses derived from them.
// Every built-in trajectory maps a 1-based step to a value in [0,100].
package trajectory

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidTrajectory = errors.New("invalid trajectory")

const (
	// ThreatBaseline is the resting identity-threat level.
	ThreatBaseline = 20.0
	// InstitutionBase is the institutional signal before it reacts to threat.
	InstitutionBase = 30.0
	// InstitutionGain scales threat into institutional signal.
	InstitutionGain = 0.6
	// DelayedBaseline is the signal a delayed institution shows before reacting.
	DelayedBaseline = 40.0
	// DefaultDelay is the reaction lag of a delayed institution, in steps.
	DefaultDelay = 14
)

// Trajectory maps a time step to a scalar signal.
type Trajectory interface {
	At(t int) float64
}

// Validate checks tr's parameters when it knows how to. Trajectories
// without a Validate method pass.
func Validate(tr Trajectory) error {
	if tr == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTrajectory)
	}
	if v, ok := tr.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Func adapts an ordinary function to a Trajectory.
type Func func(t int) float64

func (f Func) At(t int) float64 { return f(t) }

func (f Func) String() string { return "func" }

// ConstantTrajectory returns the same value at every step.
type ConstantTrajectory struct {
	Value float64
}

func Constant(v float64) ConstantTrajectory { return ConstantTrajectory{Value: v} }

// LowThreat is the constant low-threat condition.
func LowThreat() ConstantTrajectory { return Constant(20) }

// HighThreat is the constant high-threat condition.
func HighThreat() ConstantTrajectory { return Constant(80) }

func (c ConstantTrajectory) At(int) float64 { return c.Value }

func (c ConstantTrajectory) Validate() error {
	if !finite(c.Value) {
		return fmt.Errorf("%w: constant value %v", ErrInvalidTrajectory, c.Value)
	}
	return nil
}

func (c ConstantTrajectory) String() string { return fmt.Sprintf("constant(%g)", c.Value) }

// ShockTrajectory sits at baseline until ShockTime, jumps by Intensity and
// decays exponentially back toward baseline.
type ShockTrajectory struct {
	ShockTime int
	Intensity float64
	DecayRate float64
}

func ShockEvent(shockTime int, intensity, decayRate float64) ShockTrajectory {
	return ShockTrajectory{ShockTime: shockTime, Intensity: intensity, DecayRate: decayRate}
}

// DefaultShockEvent is a shock at step 10 of intensity 80 decaying over 5 steps.
func DefaultShockEvent() ShockTrajectory { return ShockEvent(10, 80, 5) }

func (s ShockTrajectory) At(t int) float64 {
	if t < s.ShockTime {
		return ThreatBaseline
	}
	return ThreatBaseline + s.Intensity*math.Exp(-float64(t-s.ShockTime)/s.DecayRate)
}

// Validate rejects a non-positive decay rate, which divides by zero at the
// shock step.
func (s ShockTrajectory) Validate() error {
	if !finite(s.Intensity) {
		return fmt.Errorf("%w: shock intensity %v", ErrInvalidTrajectory, s.Intensity)
	}
	if !finite(s.DecayRate) || s.DecayRate <= 0 {
		return fmt.Errorf("%w: shock decay rate must be positive, got %v", ErrInvalidTrajectory, s.DecayRate)
	}
	return nil
}

func (s ShockTrajectory) String() string {
	return fmt.Sprintf("shock(t=%d,intensity=%g,decay=%g)", s.ShockTime, s.Intensity, s.DecayRate)
}

// EscalatingTrajectory rises from baseline and saturates at MaxThreat.
type EscalatingTrajectory struct {
	MaxThreat float64
	Rate      float64
}

func Escalating(maxThreat, rate float64) EscalatingTrajectory {
	return EscalatingTrajectory{MaxThreat: maxThreat, Rate: rate}
}

func DefaultEscalating() EscalatingTrajectory { return Escalating(90, 0.5) }

func (e EscalatingTrajectory) At(t int) float64 {
	return ThreatBaseline + (e.MaxThreat-ThreatBaseline)*(1-math.Exp(-e.Rate*float64(t)/10))
}

func (e EscalatingTrajectory) Validate() error {
	if !finite(e.MaxThreat) {
		return fmt.Errorf("%w: escalating max %v", ErrInvalidTrajectory, e.MaxThreat)
	}
	if !finite(e.Rate) || e.Rate < 0 {
		return fmt.Errorf("%w: escalating rate must be non-negative, got %v", ErrInvalidTrajectory, e.Rate)
	}
	return nil
}

func (e EscalatingTrajectory) String() string {
	return fmt.Sprintf("escalating(max=%g,rate=%g)", e.MaxThreat, e.Rate)
}

// ResponsiveTrajectory tracks the current threat.
type ResponsiveTrajectory struct {
	Threat Trajectory
}

func ResponsiveInstitution(threat Trajectory) ResponsiveTrajectory {
	return ResponsiveTrajectory{Threat: threat}
}

func (r ResponsiveTrajectory) At(t int) float64 {
	return institutionFor(r.Threat.At(t))
}

func (r ResponsiveTrajectory) Validate() error { return Validate(r.Threat) }

func (r ResponsiveTrajectory) String() string { return fmt.Sprintf("responsive(%v)", r.Threat) }

// DelayedTrajectory reacts to the threat Delay steps in the past.
type DelayedTrajectory struct {
	Threat Trajectory
	Delay  int
}

func DelayedInstitution(threat Trajectory, delay int) DelayedTrajectory {
	return DelayedTrajectory{Threat: threat, Delay: delay}
}

func (d DelayedTrajectory) At(t int) float64 {
	if t <= d.Delay {
		return DelayedBaseline
	}
	return institutionFor(d.Threat.At(t - d.Delay))
}

func (d DelayedTrajectory) Validate() error {
	if d.Delay < 0 {
		return fmt.Errorf("%w: delay must be non-negative, got %d", ErrInvalidTrajectory, d.Delay)
	}
	return Validate(d.Threat)
}

func (d DelayedTrajectory) String() string {
	return fmt.Sprintf("delayed(%v,delay=%d)", d.Threat, d.Delay)
}

// AbsentInstitution never reacts.
func AbsentInstitution() ConstantTrajectory { return Constant(InstitutionBase) }

func institutionFor(threat float64) float64 {
	return math.Min(100, InstitutionBase+InstitutionGain*threat)
}

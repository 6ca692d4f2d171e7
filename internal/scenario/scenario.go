// Package scenario runs the belief simulation under several named threat
// configurations and lays the results side by side.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/credence/internal/simulation"
	"github.com/MikeSquared-Agency/credence/internal/trajectory"
)

var (
	ErrDuplicateScenario = errors.New("duplicate scenario name")
	ErrEmptyScenarioName = errors.New("scenario name is empty")
	ErrNoScenarios       = errors.New("no scenarios to compare")
)

// InstitutionFunc derives an institutional trajectory from a threat trajectory.
type InstitutionFunc func(threat trajectory.Trajectory) trajectory.Trajectory

// Responsive is the default institution for a scenario.
func Responsive(threat trajectory.Trajectory) trajectory.Trajectory {
	return trajectory.ResponsiveInstitution(threat)
}

// Delayed returns an InstitutionFunc reacting delay steps late.
func Delayed(delay int) InstitutionFunc {
	return func(threat trajectory.Trajectory) trajectory.Trajectory {
		return trajectory.DelayedInstitution(threat, delay)
	}
}

// Absent ignores the threat entirely.
func Absent(trajectory.Trajectory) trajectory.Trajectory {
	return trajectory.AbsentInstitution()
}

// Scenario is a named threat trajectory. A nil Institution means the
// institution responds to the same threat.
type Scenario struct {
	Name        string
	Threat      trajectory.Trajectory
	Institution InstitutionFunc
}

func (s Scenario) institution() trajectory.Trajectory {
	if s.Institution == nil {
		return Responsive(s.Threat)
	}
	return s.Institution(s.Threat)
}

// String identifies the scenario by name and resolved trajectories.
func (s Scenario) String() string {
	return fmt.Sprintf("%s|%v|%v", s.Name, s.Threat, s.institution())
}

// Set is an insertion-ordered collection of uniquely named scenarios.
type Set struct {
	items []Scenario
	index map[string]int
}

func NewSet(scenarios ...Scenario) (*Set, error) {
	s := &Set{index: make(map[string]int)}
	for _, sc := range scenarios {
		if err := s.Add(sc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends sc, rejecting empty or repeated names and trajectories with
// invalid parameters.
func (s *Set) Add(sc Scenario) error {
	if sc.Name == "" {
		return ErrEmptyScenarioName
	}
	if sc.Threat == nil {
		return fmt.Errorf("scenario %q: %w: threat trajectory is required", sc.Name, simulation.ErrInvalidConfiguration)
	}
	if err := trajectory.Validate(sc.Threat); err != nil {
		return fmt.Errorf("scenario %q: %w: threat: %w", sc.Name, simulation.ErrInvalidConfiguration, err)
	}
	if err := trajectory.Validate(sc.institution()); err != nil {
		return fmt.Errorf("scenario %q: %w: institution: %w", sc.Name, simulation.ErrInvalidConfiguration, err)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[sc.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateScenario, sc.Name)
	}
	s.index[sc.Name] = len(s.items)
	s.items = append(s.items, sc)
	return nil
}

func (s *Set) Len() int { return len(s.items) }

// Scenarios returns the scenarios in insertion order.
func (s *Set) Scenarios() []Scenario {
	out := make([]Scenario, len(s.items))
	copy(out, s.items)
	return out
}

// Describe lists each scenario's String in order.
func (s *Set) Describe() []string {
	out := make([]string, len(s.items))
	for i, sc := range s.items {
		out[i] = sc.String()
	}
	return out
}

func (s *Set) Get(name string) (Scenario, bool) {
	i, ok := s.index[name]
	if !ok {
		return Scenario{}, false
	}
	return s.items[i], true
}

// Defaults is the standard comparison: low, high, shock and escalating threat.
func Defaults() *Set {
	s, _ := NewSet(
		Scenario{Name: "Low Threat", Threat: trajectory.LowThreat()},
		Scenario{Name: "High Threat", Threat: trajectory.HighThreat()},
		Scenario{Name: "Shock Event", Threat: trajectory.DefaultShockEvent()},
		Scenario{Name: "Escalating", Threat: trajectory.DefaultEscalating()},
	)
	return s
}

// Row is a simulation record tagged with its scenario.
type Row struct {
	Scenario string `json:"scenario"`
	simulation.Record
}

// Observer receives per-scenario timings. Implemented by metrics.Metrics.
type Observer interface {
	ObserveScenario(name string, steps int, elapsed time.Duration)
}

// Comparator runs scenario sets.
type Comparator struct {
	logger   *slog.Logger
	observer Observer
	parallel bool
}

type Option func(*Comparator)

// WithObserver reports per-scenario timings to o.
func WithObserver(o Observer) Option {
	return func(c *Comparator) { c.observer = o }
}

// Sequential disables the per-scenario goroutines.
func Sequential() Option {
	return func(c *Comparator) { c.parallel = false }
}

func NewComparator(logger *slog.Logger, opts ...Option) *Comparator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Comparator{logger: logger, parallel: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare runs every scenario in set with params and returns their records
// concatenated in scenario order, each scenario in time order. Every
// scenario draws evidence from its own sampler seeded with params.Seed.
func (c *Comparator) Compare(ctx context.Context, params simulation.Params, set *Set) ([]Row, error) {
	ctx, span := otel.Tracer("credence/scenario").Start(ctx, "scenario.Compare")
	defer span.End()

	if set == nil || set.Len() == 0 {
		return nil, ErrNoScenarios
	}
	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	scenarios := set.Scenarios()
	span.SetAttributes(
		attribute.Int("scenarios", len(scenarios)),
		attribute.Int("observations", params.Observations),
	)

	results := make([][]simulation.Record, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	if !c.parallel {
		g.SetLimit(1)
	}

	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			records, err := simulation.Run(params, sc.Threat, sc.institution())
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			elapsed := time.Since(start)
			if c.observer != nil {
				c.observer.ObserveScenario(sc.Name, len(records), elapsed)
			}
			c.logger.Debug("scenario simulated",
				"scenario", sc.Name,
				"threat", fmt.Sprint(sc.Threat),
				"observations", len(records),
				"elapsed", elapsed,
			)
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows := make([]Row, 0, len(scenarios)*params.Observations)
	for i, sc := range scenarios {
		for _, r := range results[i] {
			rows = append(rows, Row{Scenario: sc.Name, Record: r})
		}
	}
	return rows, nil
}

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/credence/internal/cache"
	"github.com/MikeSquared-Agency/credence/internal/hermes"
	"github.com/MikeSquared-Agency/credence/internal/metrics"
	"github.com/MikeSquared-Agency/credence/internal/scenario"
	"github.com/MikeSquared-Agency/credence/internal/simulation"
	"github.com/MikeSquared-Agency/credence/internal/store"
)

// ErrInvalidRequest wraps every rejection caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// RunStore persists completed runs. Implemented by store.Store.
type RunStore interface {
	SaveRun(ctx context.Context, run *store.Run) (uuid.UUID, error)
	GetRun(ctx context.Context, id uuid.UUID) (*store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Publisher emits completion events. Implemented by hermes.Client.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor orchestrates credence runs: cache lookup, simulation,
// persistence and event publishing.
type Processor struct {
	cache           cache.Cache
	store           RunStore
	publisher       Publisher
	metrics         *metrics.Metrics
	comparator      *scenario.Comparator
	defaults        *scenario.Set
	maxObservations int
	logger          *slog.Logger
}

type Option func(*Processor)

func WithCache(c cache.Cache) Option              { return func(p *Processor) { p.cache = c } }
func WithStore(s RunStore) Option                 { return func(p *Processor) { p.store = s } }
func WithPublisher(pub Publisher) Option          { return func(p *Processor) { p.publisher = pub } }
func WithMetrics(m *metrics.Metrics) Option       { return func(p *Processor) { p.metrics = m } }
func WithMaxObservations(n int) Option            { return func(p *Processor) { p.maxObservations = n } }
func WithDefaultScenarios(s *scenario.Set) Option { return func(p *Processor) { p.defaults = s } }

func New(logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		cache:    cache.Noop{},
		defaults: scenario.Defaults(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New(prometheus.NewRegistry())
	}
	p.comparator = scenario.NewComparator(logger, scenario.WithObserver(p.metrics))
	return p
}

// SimulationRequest describes a single-scenario run.
type SimulationRequest struct {
	Name        string                    `json:"name,omitempty"`
	Params      simulation.Params         `json:"params"`
	Threat      scenario.ThreatSpec       `json:"threat"`
	Institution *scenario.InstitutionSpec `json:"institution,omitempty"`
}

func DefaultSimulationRequest() SimulationRequest {
	return SimulationRequest{
		Params: simulation.DefaultParams(),
		Threat: scenario.ThreatSpec{Kind: "low"},
	}
}

// ComparisonRequest runs Params against every scenario. An empty Scenarios
// list selects the processor's default set.
type ComparisonRequest struct {
	Params    simulation.Params `json:"params"`
	Scenarios []scenario.Spec   `json:"scenarios,omitempty"`
}

func DefaultComparisonRequest() ComparisonRequest {
	return ComparisonRequest{Params: simulation.DefaultParams()}
}

// Result is a run as returned to callers. Each Result owns its tables.
type Result struct {
	store.Run
	Cached bool `json:"cached"`
}

// RunSimulation executes req, or returns the cached run for an identical
// earlier request.
func (p *Processor) RunSimulation(ctx context.Context, req SimulationRequest) (*Result, error) {
	if err := p.checkParams(req.Params); err != nil {
		return p.fail(store.KindSimulation, err)
	}
	threat, err := req.Threat.Trajectory()
	if err != nil {
		return p.fail(store.KindSimulation, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	inst, err := req.Institution.Func()
	if err != nil {
		return p.fail(store.KindSimulation, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprint(threat)
	}
	set, err := scenario.NewSet(scenario.Scenario{Name: name, Threat: threat, Institution: inst})
	if err != nil {
		return p.fail(store.KindSimulation, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	return p.execute(ctx, store.KindSimulation, req, req.Params, set)
}

// RunComparison executes req across its scenario set.
func (p *Processor) RunComparison(ctx context.Context, req ComparisonRequest) (*Result, error) {
	if err := p.checkParams(req.Params); err != nil {
		return p.fail(store.KindComparison, err)
	}
	set := p.defaults
	if len(req.Scenarios) > 0 {
		var err error
		set, err = scenario.Build(req.Scenarios)
		if err != nil {
			return p.fail(store.KindComparison, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		}
	}
	return p.execute(ctx, store.KindComparison, req, req.Params, set)
}

// GetRun returns a previously computed run, from the cache when it is still
// there and from the store otherwise.
func (p *Processor) GetRun(ctx context.Context, id string) (*Result, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: run id %q: %w", ErrInvalidRequest, id, err)
	}
	if res, ok := p.cached(ctx, runKey(runID)); ok {
		return res, nil
	}
	if p.store == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	run, err := p.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &Result{Run: *run}, nil
}

// ListRuns returns up to limit stored run headers, newest first. Without a
// store there is no history and the list is empty.
func (p *Processor) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("%w: limit must be in [1,100], got %d", ErrInvalidRequest, limit)
	}
	if p.store == nil {
		return []store.Run{}, nil
	}
	return p.store.ListRuns(ctx, limit)
}

func (p *Processor) checkParams(params simulation.Params) error {
	if p.maxObservations > 0 && params.Observations > p.maxObservations {
		return fmt.Errorf("%w: observations %d exceed limit %d", ErrInvalidRequest, params.Observations, p.maxObservations)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func (p *Processor) execute(ctx context.Context, kind string, req any, params simulation.Params, set *scenario.Set) (*Result, error) {
	// The request alone does not pin the scenarios: an empty comparison
	// resolves to whatever default set this processor carries.
	key, err := cache.Key(kind, struct {
		Request   any      `json:"request"`
		Scenarios []string `json:"scenarios"`
	}{req, set.Describe()})
	if err != nil {
		return p.fail(kind, err)
	}
	if res, ok := p.cached(ctx, key); ok {
		p.metrics.CacheHits.Inc()
		p.metrics.RunsTotal.WithLabelValues(kind).Inc()
		res.Cached = true
		return res, nil
	}
	p.metrics.CacheMisses.Inc()

	rows, err := p.comparator.Compare(ctx, params, set)
	if err != nil {
		if errors.Is(err, simulation.ErrInvalidConfiguration) {
			err = fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return p.fail(kind, err)
	}

	encodedReq, err := json.Marshal(req)
	if err != nil {
		return p.fail(kind, fmt.Errorf("encode request: %w", err))
	}
	run := store.Run{
		ID:        uuid.New(),
		Kind:      kind,
		Request:   encodedReq,
		Summaries: scenario.Summarize(rows),
		Rows:      rows,
		CreatedAt: time.Now().UTC(),
	}

	if p.store != nil {
		if _, err := p.store.SaveRun(ctx, &run); err != nil {
			return p.fail(kind, fmt.Errorf("save run: %w", err))
		}
	}

	if data, err := json.Marshal(run); err == nil {
		if err := p.cache.Set(ctx, key, data); err != nil {
			p.logger.Warn("cache set failed", "key", key, "error", err)
		}
		if err := p.cache.Set(ctx, runKey(run.ID), data); err != nil {
			p.logger.Warn("cache set failed", "run_id", run.ID, "error", err)
		}
	}

	p.publish(kind, params, &run)
	p.metrics.RunsTotal.WithLabelValues(kind).Inc()

	p.logger.Info("run completed",
		"run_id", run.ID,
		"kind", kind,
		"scenarios", set.Len(),
		"observations", params.Observations,
	)
	return &Result{Run: run}, nil
}

func (p *Processor) cached(ctx context.Context, key string) (*Result, bool) {
	data, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var run store.Run
	if err := json.Unmarshal(data, &run); err != nil {
		p.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &Result{Run: run}, true
}

func (p *Processor) publish(kind string, params simulation.Params, run *store.Run) {
	if p.publisher == nil {
		return
	}
	var subject string
	var event any
	switch kind {
	case store.KindSimulation:
		ev := hermes.SimulationCompleted{
			RunID:        run.ID.String(),
			Observations: params.Observations,
			Seed:         params.Seed,
			CompletedAt:  run.CreatedAt,
		}
		if len(run.Summaries) > 0 {
			s := run.Summaries[0]
			ev.Scenario = s.Scenario
			ev.FinalMean = s.FinalMean
			ev.FinalUncertainty = s.FinalUncertainty
		}
		subject, event = hermes.SubjectSimulationCompleted, ev
	default:
		ev := hermes.ComparisonCompleted{
			RunID:        run.ID.String(),
			Observations: params.Observations,
			Seed:         params.Seed,
			CompletedAt:  run.CreatedAt,
		}
		for _, s := range run.Summaries {
			ev.Outcomes = append(ev.Outcomes, hermes.ScenarioOutcome{
				Scenario:               s.Scenario,
				FinalMean:              s.FinalMean,
				EvidenceDominanceShare: s.EvidenceDominanceShare,
			})
		}
		subject, event = hermes.SubjectComparisonCompleted, ev
	}
	if err := p.publisher.Publish(subject, event); err != nil {
		p.metrics.PublishFailures.Inc()
		p.logger.Warn("publish failed", "subject", subject, "run_id", run.ID, "error", err)
	}
}

func (p *Processor) fail(kind string, err error) (*Result, error) {
	p.metrics.RunFailures.WithLabelValues(kind).Inc()
	return nil, err
}

func runKey(id uuid.UUID) string { return "run:" + id.String() }

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/credence/internal/scenario"
	"github.com/MikeSquared-Agency/credence/internal/simulation"
)

var ErrRunNotFound = errors.New("run not found")

const (
	KindSimulation = "simulation"
	KindComparison = "comparison"
)

// Run is a persisted simulation or comparison. Rows keep scenario-then-time
// order; simulation runs carry a single scenario label.
type Run struct {
	ID        uuid.UUID          `json:"id"`
	Kind      string             `json:"kind"`
	Request   json.RawMessage    `json:"request"`
	Summaries []scenario.Summary `json:"summaries"`
	Rows      []scenario.Row     `json:"rows"`
	CreatedAt time.Time          `json:"created_at"`
}

var recordColumns = []string{
	"run_id", "seq", "scenario", "t", "prior_mean", "posterior_mean",
	"posterior_uncertainty", "evidence", "threat", "institution",
	"belief_shift", "adj_evidence_weight", "adj_institution_weight",
	"evidence_dominance",
}

// SaveRun writes the run header and its records in one transaction. A nil
// run.ID is replaced with a fresh one.
func (s *Store) SaveRun(ctx context.Context, run *Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	summaries, err := json.Marshal(run.Summaries)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode summaries: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO simulation_runs (id, kind, request, summaries, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Kind, []byte(run.Request), summaries, run.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, len(run.Rows))
	for i, r := range run.Rows {
		rows[i] = []any{
			run.ID, i, r.Scenario, r.T, r.PriorMean, r.PosteriorMean,
			r.PosteriorUncertainty, r.Evidence, r.Threat, r.Institution,
			r.BeliefShift, r.AdjEvidenceWeight, r.AdjInstitutionWeight,
			r.EvidenceDominance,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"simulation_records"}, recordColumns, pgx.CopyFromRows(rows)); err != nil {
		return uuid.Nil, fmt.Errorf("copy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// GetRun loads a run with all of its records.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run := Run{ID: id}
	var request, summaries []byte
	err := s.pool.QueryRow(ctx, `
		SELECT kind, request, summaries, created_at
		FROM simulation_runs WHERE id = $1`, id,
	).Scan(&run.Kind, &request, &summaries, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Request = request
	if err := json.Unmarshal(summaries, &run.Summaries); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT scenario, t, prior_mean, posterior_mean, posterior_uncertainty,
		       evidence, threat, institution, belief_shift,
		       adj_evidence_weight, adj_institution_weight, evidence_dominance
		FROM simulation_records WHERE run_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r scenario.Row
		var rec simulation.Record
		if err := rows.Scan(&r.Scenario, &rec.T, &rec.PriorMean, &rec.PosteriorMean,
			&rec.PosteriorUncertainty, &rec.Evidence, &rec.Threat, &rec.Institution,
			&rec.BeliefShift, &rec.AdjEvidenceWeight, &rec.AdjInstitutionWeight,
			&rec.EvidenceDominance); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Record = rec
		run.Rows = append(run.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent run headers, newest first, without
// records.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, request, summaries, created_at
		FROM simulation_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var r Run
		var request, summaries []byte
		if err := rows.Scan(&r.ID, &r.Kind, &request, &summaries, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Request = request
		if err := json.Unmarshal(summaries, &r.Summaries); err != nil {
			return nil, fmt.Errorf("decode summaries: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

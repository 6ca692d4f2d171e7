package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	request     JSONB NOT NULL,
	summaries   JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS simulation_runs_created_at_idx ON simulation_runs (created_at DESC);

CREATE TABLE IF NOT EXISTS simulation_records (
	run_id                 UUID NOT NULL REFERENCES simulation_runs (id) ON DELETE CASCADE,
	seq                    INTEGER NOT NULL,
	scenario               TEXT NOT NULL,
	t                      INTEGER NOT NULL,
	prior_mean             DOUBLE PRECISION NOT NULL,
	posterior_mean         DOUBLE PRECISION NOT NULL,
	posterior_uncertainty  DOUBLE PRECISION NOT NULL,
	evidence               DOUBLE PRECISION NOT NULL,
	threat                 DOUBLE PRECISION NOT NULL,
	institution            DOUBLE PRECISION NOT NULL,
	belief_shift           DOUBLE PRECISION NOT NULL,
	adj_evidence_weight    DOUBLE PRECISION NOT NULL,
	adj_institution_weight DOUBLE PRECISION NOT NULL,
	evidence_dominance     BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Migrate creates the run tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

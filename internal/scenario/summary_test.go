package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/credence/internal/simulation"
)

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Scenario: "b", Record: simulation.Record{T: 1, PosteriorMean: 40, PosteriorUncertainty: 9, BeliefShift: -10, Threat: 20, Institution: 42, Evidence: 50, EvidenceDominance: true}},
		{Scenario: "b", Record: simulation.Record{T: 2, PosteriorMean: 35, PosteriorUncertainty: 7, BeliefShift: -5, Threat: 40, Institution: 54, Evidence: 40}},
		{Scenario: "a", Record: simulation.Record{T: 1, PosteriorMean: 60, PosteriorUncertainty: 5, BeliefShift: 10, Threat: 80, Institution: 78, Evidence: 70}},
	}

	got := Summarize(rows)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].Scenario)
	assert.Equal(t, 2, got[0].Steps)
	assert.Equal(t, 35.0, got[0].FinalMean)
	assert.Equal(t, 7.0, got[0].FinalUncertainty)
	assert.InDelta(t, -7.5, got[0].MeanShift, 1e-12)
	assert.InDelta(t, 30.0, got[0].MeanThreat, 1e-12)
	assert.InDelta(t, 48.0, got[0].MeanInstitution, 1e-12)
	assert.InDelta(t, 0.5, got[0].EvidenceDominanceShare, 1e-12)
	assert.InDelta(t, 1.0, got[0].EvidenceCredibilityCorr, 1e-9)

	assert.Equal(t, "a", got[1].Scenario)
	assert.Equal(t, 0.0, got[1].EvidenceCredibilityCorr)
}

func TestSummarize_DecouplingAcrossDefaults(t *testing.T) {
	p := simulation.DefaultParams()
	rows, err := NewComparator(nil).Compare(context.Background(), p, Defaults())
	require.NoError(t, err)

	sums := Summarize(rows)
	require.Len(t, sums, 4)

	byName := map[string]Summary{}
	for _, s := range sums {
		byName[s.Scenario] = s
		assert.Equal(t, p.Observations, s.Steps)
	}
	assert.Less(t, byName["Low Threat"].MeanThreat, byName["High Threat"].MeanThreat)
	assert.Less(t, byName["Low Threat"].MeanInstitution, byName["High Threat"].MeanInstitution)
}

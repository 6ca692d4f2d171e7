package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/credence/internal/simulation"
	"github.com/MikeSquared-Agency/credence/internal/trajectory"
)

const sampleFile = `scenarios:
  - name: Slow Burn
    threat: {kind: escalating, max: 70, rate: 0.2}
    institution: {kind: delayed, delay: 7}
  - name: Flashpoint
    threat: {kind: shock, shock_time: 5}
  - name: Neglect
    threat: {kind: high}
    institution: {kind: absent}
  - name: Flat
    threat: {kind: constant, value: 55}
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	set, err := LoadFile(writeFile(t, sampleFile))
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())

	scs := set.Scenarios()
	assert.Equal(t, "Slow Burn", scs[0].Name)
	assert.Equal(t, trajectory.Escalating(70, 0.2), scs[0].Threat)
	assert.Equal(t, trajectory.DelayedBaseline, scs[0].institution().At(7))

	assert.Equal(t, trajectory.ShockEvent(5, 80, 5), scs[1].Threat)
	assert.Equal(t, trajectory.ResponsiveInstitution(scs[1].Threat), scs[1].institution())

	assert.Equal(t, 30.0, scs[2].institution().At(1))
	assert.Equal(t, trajectory.Constant(55), scs[3].Threat)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown threat", "scenarios:\n  - name: x\n    threat: {kind: wobbly}\n", ErrUnknownKind},
		{"unknown institution", "scenarios:\n  - name: x\n    threat: {kind: low}\n    institution: {kind: rogue}\n", ErrUnknownKind},
		{"duplicate", "scenarios:\n  - name: x\n    threat: {kind: low}\n  - name: x\n    threat: {kind: high}\n", ErrDuplicateScenario},
		{"empty", "scenarios: []\n", ErrNoScenarios},
		{"nan constant", "scenarios:\n  - name: x\n    threat: {kind: constant, value: .nan}\n", simulation.ErrInvalidConfiguration},
		{"infinite max", "scenarios:\n  - name: x\n    threat: {kind: escalating, max: .inf}\n", simulation.ErrInvalidConfiguration},
		{"negative decay", "scenarios:\n  - name: x\n    threat: {kind: shock, decay_rate: -2}\n", simulation.ErrInvalidConfiguration},
		{"negative rate", "scenarios:\n  - name: x\n    threat: {kind: escalating, rate: -0.1}\n", simulation.ErrInvalidConfiguration},
		{"negative delay", "scenarios:\n  - name: x\n    threat: {kind: low}\n    institution: {kind: delayed, delay: -3}\n", simulation.ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild_NaNConstantNeverReachesSimulation(t *testing.T) {
	set, err := LoadFile(writeFile(t, "scenarios:\n  - name: Broken\n    threat: {kind: constant, value: .nan}\n"))
	require.ErrorIs(t, err, simulation.ErrInvalidConfiguration)
	assert.Nil(t, set)
}

func TestThreatSpec_ZeroTakesDefaults(t *testing.T) {
	tr, err := ThreatSpec{Kind: "shock", DecayRate: 0}.Trajectory()
	require.NoError(t, err)
	assert.Equal(t, trajectory.DefaultShockEvent(), tr)

	inst, err := (&InstitutionSpec{Kind: "delayed"}).Func()
	require.NoError(t, err)
	assert.Equal(t, trajectory.DelayedInstitution(tr, trajectory.DefaultDelay), inst(tr))
}

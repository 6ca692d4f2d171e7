// Package dataset generates the synthetic two-group identity-threat panel
// used as a fixture by downstream consumers. It is independent of the
// simulation core.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MikeSquared-Agency/credence/internal/belief"
)

var ErrInvalidSpec = errors.New("invalid dataset spec")

// Columns lists the numeric columns in output order.
var Columns = []string{
	"identity_threat",
	"rhetoric_intensity",
	"evidence_strength",
	"perceived_credibility",
	"institutional_signal",
	"media_attention",
	"social_media_volume",
	"polarization",
	"institutional_trust",
	"group_cohesion",
	"outgroup_hostility",
}

// Spec controls generation.
type Spec struct {
	Seed   uint64
	Start  time.Time
	Days   int
	Groups []string
	// Phi is the AR(1) coefficient of every noise process.
	Phi float64
}

func DefaultSpec() Spec {
	return Spec{
		Seed:   42,
		Start:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Days:   730,
		Groups: []string{"Group A", "Group B"},
		Phi:    0.7,
	}
}

func (s Spec) Validate() error {
	if s.Days <= 0 {
		return fmt.Errorf("%w: days must be positive", ErrInvalidSpec)
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("%w: at least one group is required", ErrInvalidSpec)
	}
	if s.Phi <= -1 || s.Phi >= 1 || math.IsNaN(s.Phi) {
		return fmt.Errorf("%w: phi must be in (-1, 1)", ErrInvalidSpec)
	}
	return nil
}

// Row is one (date, group) observation. Every numeric field is in [0,100].
type Row struct {
	Date                 time.Time `json:"date"`
	Group                string    `json:"group"`
	IdentityThreat       float64   `json:"identity_threat"`
	RhetoricIntensity    float64   `json:"rhetoric_intensity"`
	EvidenceStrength     float64   `json:"evidence_strength"`
	PerceivedCredibility float64   `json:"perceived_credibility"`
	InstitutionalSignal  float64   `json:"institutional_signal"`
	MediaAttention       float64   `json:"media_attention"`
	SocialMediaVolume    float64   `json:"social_media_volume"`
	Polarization         float64   `json:"polarization"`
	InstitutionalTrust   float64   `json:"institutional_trust"`
	GroupCohesion        float64   `json:"group_cohesion"`
	OutgroupHostility    float64   `json:"outgroup_hostility"`
}

// Values returns the numeric fields in Columns order.
func (r Row) Values() []float64 {
	return []float64{
		r.IdentityThreat,
		r.RhetoricIntensity,
		r.EvidenceStrength,
		r.PerceivedCredibility,
		r.InstitutionalSignal,
		r.MediaAttention,
		r.SocialMediaVolume,
		r.Polarization,
		r.InstitutionalTrust,
		r.GroupCohesion,
		r.OutgroupHostility,
	}
}

// profile holds the per-group baselines.
type profile struct {
	threat, evidence, trust, cohesion float64
}

func profileFor(i int) profile {
	// first group is the lower-threat reference group; later groups step up
	return profile{
		threat:   35 + 15*float64(i),
		evidence: 60 - 5*float64(i),
		trust:    65 - 10*float64(i),
		cohesion: 45 + 10*float64(i),
	}
}

// noise is one AR(1) process per (group, column).
type noise struct {
	phi   float64
	sd    float64
	state float64
}

func (n *noise) next(z float64) float64 {
	n.state = n.phi*n.state + n.sd*z
	return n.state
}

// Generate builds the panel, ordered by date and then group.
func Generate(spec Spec) ([]Row, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	std := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(spec.Seed, spec.Seed)}

	procs := make([][]noise, len(spec.Groups))
	for g := range procs {
		procs[g] = make([]noise, len(Columns))
		for c := range procs[g] {
			procs[g][c] = noise{phi: spec.Phi, sd: 4}
		}
	}

	rows := make([]Row, 0, spec.Days*len(spec.Groups))
	for d := 0; d < spec.Days; d++ {
		date := spec.Start.AddDate(0, 0, d)
		weekly := math.Sin(2 * math.Pi * float64(d) / 7)
		annual := math.Sin(2 * math.Pi * float64(d) / 365.25)

		for g, group := range spec.Groups {
			p := profileFor(g)
			e := make([]float64, len(Columns))
			for c := range e {
				e[c] = procs[g][c].next(std.Rand())
			}

			threat := belief.Clamp(p.threat + 10*annual + 3*weekly + e[0])
			rhetoric := belief.Clamp(15 + 0.6*threat + 4*weekly + e[1])
			evidence := belief.Clamp(p.evidence + e[2])
			institution := belief.Clamp(30 + 0.5*threat + e[4])
			// credibility follows evidence less as threat rises
			evidenceWeight := math.Max(0.05, 0.5-0.004*threat)
			credibility := belief.Clamp(15 + evidenceWeight*evidence + 0.3*institution + e[3])
			media := belief.Clamp(20 + 0.4*threat + 6*weekly + e[5])
			social := belief.Clamp(10 + 0.5*media + 0.3*rhetoric + e[6])
			polarization := belief.Clamp(25 + 0.3*rhetoric + 5*annual + e[7])
			trust := belief.Clamp(p.trust - 0.3*threat + e[8])
			cohesion := belief.Clamp(p.cohesion + 0.4*threat - 20 + e[9])
			hostility := belief.Clamp(10 + 0.5*threat + 0.2*rhetoric - 15 + e[10])

			rows = append(rows, Row{
				Date:                 date,
				Group:                group,
				IdentityThreat:       threat,
				RhetoricIntensity:    rhetoric,
				EvidenceStrength:     evidence,
				PerceivedCredibility: credibility,
				InstitutionalSignal:  institution,
				MediaAttention:       media,
				SocialMediaVolume:    social,
				Polarization:         polarization,
				InstitutionalTrust:   trust,
				GroupCohesion:        cohesion,
				OutgroupHostility:    hostility,
			})
		}
	}
	return rows, nil
}

// Column extracts one named column for group, in date order.
func Column(rows []Row, group, column string) ([]float64, error) {
	idx := -1
	for i, c := range Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	var out []float64
	for _, r := range rows {
		if r.Group == group {
			out = append(out, r.Values()[idx])
		}
	}
	return out, nil
}

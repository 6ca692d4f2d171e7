package scenario

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses one scenario's trajectory.
type Summary struct {
	Scenario         string  `json:"scenario"`
	Steps            int     `json:"steps"`
	FinalMean        float64 `json:"final_mean"`
	FinalUncertainty float64 `json:"final_uncertainty"`
	MeanShift        float64 `json:"mean_shift"`
	MeanThreat       float64 `json:"mean_threat"`
	MeanInstitution  float64 `json:"mean_institution"`
	// EvidenceDominanceShare is the fraction of steps where evidence out-pulled
	// the institution.
	EvidenceDominanceShare float64 `json:"evidence_dominance_share"`
	// EvidenceCredibilityCorr correlates sampled evidence with the posterior
	// mean. Zero when either series is constant.
	EvidenceCredibilityCorr float64 `json:"evidence_credibility_corr"`
}

// Summarize groups rows by scenario, preserving first-seen order.
func Summarize(rows []Row) []Summary {
	var order []string
	groups := make(map[string][]Row)
	for _, r := range rows {
		if _, ok := groups[r.Scenario]; !ok {
			order = append(order, r.Scenario)
		}
		groups[r.Scenario] = append(groups[r.Scenario], r)
	}

	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, summarize(name, groups[name]))
	}
	return out
}

func summarize(name string, rows []Row) Summary {
	n := len(rows)
	shifts := make([]float64, n)
	threats := make([]float64, n)
	institutions := make([]float64, n)
	evidence := make([]float64, n)
	means := make([]float64, n)
	dominant := 0
	for i, r := range rows {
		shifts[i] = r.BeliefShift
		threats[i] = r.Threat
		institutions[i] = r.Institution
		evidence[i] = r.Evidence
		means[i] = r.PosteriorMean
		if r.EvidenceDominance {
			dominant++
		}
	}

	last := rows[n-1]
	corr := 0.0
	if n > 1 {
		if c := stat.Correlation(evidence, means, nil); !math.IsNaN(c) {
			corr = c
		}
	}
	return Summary{
		Scenario:                name,
		Steps:                   n,
		FinalMean:               last.PosteriorMean,
		FinalUncertainty:        last.PosteriorUncertainty,
		MeanShift:               stat.Mean(shifts, nil),
		MeanThreat:              stat.Mean(threats, nil),
		MeanInstitution:         stat.Mean(institutions, nil),
		EvidenceDominanceShare:  float64(dominant) / float64(n),
		EvidenceCredibilityCorr: corr,
	}
}

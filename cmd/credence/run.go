package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/credence/internal/config"
	"github.com/MikeSquared-Agency/credence/internal/dataset"
	"github.com/MikeSquared-Agency/credence/internal/processor"
	"github.com/MikeSquared-Agency/credence/internal/scenario"
	"github.com/MikeSquared-Agency/credence/internal/simulation"
)

// paramFlags binds the simulation parameters shared by simulate and compare.
type paramFlags struct {
	observations       int
	seed               uint64
	evidenceMean       float64
	evidenceSD         float64
	initialMean        float64
	initialUncertainty float64
}

func (f *paramFlags) register(cmd *cobra.Command, cfg config.Config) {
	d := simulation.DefaultParams()
	cmd.Flags().IntVarP(&f.observations, "observations", "n", d.Observations, "Number of belief updates")
	cmd.Flags().Uint64Var(&f.seed, "seed", cfg.Seed, "Evidence sampler seed")
	cmd.Flags().Float64Var(&f.evidenceMean, "evidence-mean", d.EvidenceMean, "Mean of sampled evidence strength")
	cmd.Flags().Float64Var(&f.evidenceSD, "evidence-sd", d.EvidenceSD, "Standard deviation of sampled evidence strength")
	cmd.Flags().Float64Var(&f.initialMean, "initial-mean", d.Initial.Mean, "Initial belief mean")
	cmd.Flags().Float64Var(&f.initialUncertainty, "initial-uncertainty", d.Initial.Uncertainty, "Initial belief uncertainty")
}

func (f *paramFlags) params() simulation.Params {
	p := simulation.DefaultParams()
	p.Observations = f.observations
	p.Seed = f.seed
	p.EvidenceMean = f.evidenceMean
	p.EvidenceSD = f.evidenceSD
	p.Initial.Mean = f.initialMean
	p.Initial.Uncertainty = f.initialUncertainty
	return p
}

func simulateCmd(cfg config.Config) *cobra.Command {
	var (
		pf          paramFlags
		name        string
		threat      scenario.ThreatSpec
		institution scenario.InstitutionSpec
		summaryOnly bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one threat/institution scenario and print its trajectory as JSON",
		Example: `  credence simulate --threat shock --institution delayed -n 60
  credence simulate --threat constant --value 55 --institution absent --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := processor.SimulationRequest{
				Name:        name,
				Params:      pf.params(),
				Threat:      threat,
				Institution: &institution,
			}
			proc := processor.New(slog.Default(), processor.WithMaxObservations(cfg.MaxObservations))
			res, err := proc.RunSimulation(cmd.Context(), req)
			if err != nil {
				return err
			}
			if summaryOnly {
				return writeJSON(cmd.OutOrStdout(), res.Summaries)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	pf.register(cmd, cfg)
	cmd.Flags().StringVar(&name, "name", "", "Scenario label (defaults to the threat description)")
	cmd.Flags().StringVar(&threat.Kind, "threat", "low", "Threat trajectory: constant, low, high, shock, escalating")
	cmd.Flags().Float64Var(&threat.Value, "value", 0, "Threat level for --threat constant")
	cmd.Flags().IntVar(&threat.ShockTime, "shock-time", 0, "Shock onset step (default 10)")
	cmd.Flags().Float64Var(&threat.Intensity, "intensity", 0, "Shock intensity (default 80)")
	cmd.Flags().Float64Var(&threat.DecayRate, "decay", 0, "Shock decay rate (default 5)")
	cmd.Flags().Float64Var(&threat.Max, "max", 0, "Escalation ceiling (default 90)")
	cmd.Flags().Float64Var(&threat.Rate, "rate", 0, "Escalation rate per step (default 0.5)")
	cmd.Flags().StringVar(&institution.Kind, "institution", "responsive", "Institution: responsive, delayed, absent")
	cmd.Flags().IntVar(&institution.Delay, "delay", 0, "Reaction delay for --institution delayed (default 14)")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print only the summary")

	return cmd
}

func compareCmd(cfg config.Config) *cobra.Command {
	var (
		pf           paramFlags
		scenarioFile string
		summaryOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run a scenario set with shared parameters and print the combined table",
		Long: `Runs every scenario with the same parameters and the same evidence stream.
Without --scenarios the built-in set is used: Low Threat, High Threat,
Shock Event, Escalating.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []processor.Option{processor.WithMaxObservations(cfg.MaxObservations)}
			if scenarioFile != "" {
				set, err := scenario.LoadFile(scenarioFile)
				if err != nil {
					return fmt.Errorf("failed to load scenarios: %w", err)
				}
				opts = append(opts, processor.WithDefaultScenarios(set))
			}
			proc := processor.New(slog.Default(), opts...)
			res, err := proc.RunComparison(cmd.Context(), processor.ComparisonRequest{Params: pf.params()})
			if err != nil {
				return err
			}
			if summaryOnly {
				return writeJSON(cmd.OutOrStdout(), res.Summaries)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	pf.register(cmd, cfg)
	cmd.Flags().StringVar(&scenarioFile, "scenarios", cfg.ScenarioFile, "YAML scenario file")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print only per-scenario summaries")

	return cmd
}

func datasetCmd(cfg config.Config) *cobra.Command {
	var (
		days   int
		seed   uint64
		start  string
		groups []string
	)

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Print the seeded synthetic daily panel as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := dataset.DefaultSpec()
			spec.Days = days
			spec.Seed = seed
			spec.Groups = groups
			if start != "" {
				t, err := time.Parse(time.DateOnly, start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				spec.Start = t
			}
			rows, err := dataset.Generate(spec)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}

	d := dataset.DefaultSpec()
	cmd.Flags().IntVar(&days, "days", d.Days, "Number of days")
	cmd.Flags().Uint64Var(&seed, "seed", cfg.Seed, "Noise seed")
	cmd.Flags().StringVar(&start, "start", d.Start.Format(time.DateOnly), "First date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&groups, "groups", d.Groups, "Group labels")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

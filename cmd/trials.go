package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quadsopt/quads/internal/experiment"
	"github.com/quadsopt/quads/internal/quads"
)

var (
	trialsConfigPath string
	trialsCount      int
	trialsWorkers    int
	trialsMethod     string
	trialsDataDir    string
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Run repeated trials and report cost statistics",
	Long: `Run independent seeded trials of an experiment configuration and
print the aggregated success rate and evaluation costs. Settings come from a
YAML config file, with flags overriding individual fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := experiment.DefaultConfig()
		if trialsConfigPath != "" {
			loaded, err := experiment.LoadConfig(trialsConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("trials") {
			cfg.Trials = trialsCount
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = trialsWorkers
		}
		if cmd.Flags().Changed("method") {
			cfg.Method = trialsMethod
		}

		result, err := experiment.RunTrials(cfg)
		if err != nil {
			return err
		}

		if trialsDataDir != "" {
			for _, tr := range result.Trials {
				if _, err := persistRun(trialsDataDir, cfg, trialResultToRun(tr)); err != nil {
					return fmt.Errorf("persist trial %d: %w", tr.Trial, err)
				}
			}
		}

		s := result.Summary
		fmt.Printf("Method:              %s\n", cfg.Method)
		fmt.Printf("Function:            %s (dim %d)\n", cfg.Function, cfg.Dim)
		fmt.Printf("Trials:              %d\n", s.Trials)
		fmt.Printf("Success rate:        %.2f\n", s.SuccessRate)
		fmt.Printf("Mean evals (succ):   %.1f ± %.1f\n", s.MeanEvalSuccess, s.StdEvalSuccess)
		fmt.Printf("Mean evals (fail):   %.1f ± %.1f\n", s.MeanEvalFailure, s.StdEvalFailure)
		fmt.Printf("Mean evals to glob:  %.1f\n", s.MeanEvalToGlobal)
		return nil
	},
}

func init() {
	trialsCmd.Flags().StringVarP(&trialsConfigPath, "config", "c", "", "Experiment config file (YAML)")
	trialsCmd.Flags().IntVar(&trialsCount, "trials", 10, "Number of trials")
	trialsCmd.Flags().IntVar(&trialsWorkers, "workers", 1, "Concurrent trial workers")
	trialsCmd.Flags().StringVar(&trialsMethod, "method", "quads", "Optimization method (quads, mayfly)")
	trialsCmd.Flags().StringVar(&trialsDataDir, "data-dir", "", "Persist per-trial results under this directory")
	rootCmd.AddCommand(trialsCmd)
}

// trialResultToRun reshapes a trial into the persistable run form. Per-trial
// evals are recovered from the cumulative curve.
func trialResultToRun(tr experiment.TrialResult) *quads.Result {
	evals := make([]float64, len(tr.CumEvals))
	prev := 0.0
	for i, c := range tr.CumEvals {
		evals[i] = c - prev
		prev = c
	}
	return &quads.Result{
		Final:      tr.Final,
		Status:     tr.Status,
		Iterations: tr.Iterations,
		TotalEvals: tr.TotalEvals,
		History: quads.History{
			MinValue:   tr.MinValue,
			Evals:      evals,
			DistTarget: tr.DistTarget,
		},
	}
}

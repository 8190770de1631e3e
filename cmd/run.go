package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadsopt/quads/internal/experiment"
	"github.com/quadsopt/quads/internal/quads"
	"github.com/quadsopt/quads/internal/store"
)

var runCfg = experiment.DefaultConfig()
var runDataDir string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single optimization run",
	Long: `Run one QuADS optimization of the chosen objective and print the
outcome. With --data-dir the full result, the per-iteration trace, and a
summary index row are persisted under the given directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCfg.Validate(); err != nil {
			return err
		}

		result, err := experiment.RunOnce(runCfg, runCfg.Seed)
		if err != nil {
			return err
		}

		minValue := 0.0
		distTarget := 0.0
		if n := len(result.History.MinValue); n > 0 {
			minValue = result.History.MinValue[n-1]
			distTarget = result.History.DistTarget[n-1]
		}

		fmt.Printf("Status:      %s\n", result.Status)
		fmt.Printf("Iterations:  %d\n", result.Iterations)
		fmt.Printf("Total evals: %.1f\n", result.TotalEvals)
		fmt.Printf("Min value:   %.6g\n", minValue)
		fmt.Printf("Dist target: %.6g\n", distTarget)

		if runDataDir == "" {
			return nil
		}
		record, err := persistRun(runDataDir, runCfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("Run ID:      %s\n", record.RunID)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCfg.Function, "func", runCfg.Function, "Objective function (sphere, rastrigin, griewank)")
	runCmd.Flags().IntVar(&runCfg.Dim, "dim", runCfg.Dim, "Problem dimensionality")
	runCmd.Flags().StringVar(&runCfg.Sampler, "sampler", runCfg.Sampler, "Sampler kind (classical, quantum)")
	runCmd.Flags().IntVar(&runCfg.Digits, "digits", runCfg.Digits, "Quantization digits per axis for the quantum sampler")
	runCmd.Flags().IntVar(&runCfg.NSamples, "samples", runCfg.NSamples, "Accepted samples per iteration (0 = dimension heuristic)")
	runCmd.Flags().IntVar(&runCfg.MaxIter, "max-iter", runCfg.MaxIter, "Maximum iterations")
	runCmd.Flags().IntVar(&runCfg.EvalLimit, "eval-limit", runCfg.EvalLimit, "Per-iteration evaluation budget")
	runCmd.Flags().Float64Var(&runCfg.Quantile, "quantile", runCfg.Quantile, "Elite quantile for the distribution update")
	runCmd.Flags().Float64Var(&runCfg.SmoothingTh, "smoothing", runCfg.SmoothingTh, "Threshold smoothing factor")
	runCmd.Flags().Float64Var(&runCfg.TerminateEps, "terminate-eps", runCfg.TerminateEps, "Distance-to-target termination threshold")
	runCmd.Flags().Float64Var(&runCfg.TerminateStepSize, "terminate-step-size", runCfg.TerminateStepSize, "Step-size termination threshold")
	runCmd.Flags().BoolVar(&runCfg.OptimalAmplify, "optimal-amplify", runCfg.OptimalAmplify, "Use the optimal amplification round count instead of the adaptive schedule")
	runCmd.Flags().Uint64Var(&runCfg.Seed, "seed", runCfg.Seed, "Random seed")
	runCmd.Flags().Float64SliceVar(&runCfg.InitMean, "init-mean", runCfg.InitMean, "Initial mean (single value is broadcast)")
	runCmd.Flags().Float64Var(&runCfg.InitStd, "init-std", runCfg.InitStd, "Initial covariance diagonal")
	runCmd.Flags().Float64Var(&runCfg.InitStep, "init-step", runCfg.InitStep, "Initial step size")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Persist the run under this directory")
	rootCmd.AddCommand(runCmd)
}

// persistRun writes the full result artifact, the iteration trace, and the
// summary index row for one finished run.
func persistRun(dataDir string, cfg experiment.Config, result *quads.Result) (*store.RunRecord, error) {
	fsStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, err
	}

	record := store.NewRunRecord(store.RunConfig{
		Method:            cfg.Method,
		Function:          cfg.Function,
		Sampler:           cfg.Sampler,
		Dim:               cfg.Dim,
		Digits:            cfg.Digits,
		MaxIter:           cfg.MaxIter,
		NSamples:          cfg.SampleCount(),
		EvalLimit:         cfg.EvalLimit,
		Quantile:          cfg.Quantile,
		SmoothingTh:       cfg.SmoothingTh,
		TerminateEps:      cfg.TerminateEps,
		TerminateStepSize: cfg.TerminateStepSize,
		OptimalAmplify:    cfg.OptimalAmplify,
		Seed:              cfg.Seed,
	}, result)

	if err := fsStore.SaveRun(record); err != nil {
		return nil, err
	}

	tw, err := store.NewTraceWriter(dataDir, record.RunID)
	if err != nil {
		return nil, err
	}
	defer tw.Close()

	now := time.Now().UTC()
	for i := range result.History.MinValue {
		entry := store.TraceEntry{
			Iteration:  i,
			MinValue:   result.History.MinValue[i],
			Evals:      result.History.Evals[i],
			DistTarget: result.History.DistTarget[i],
			Timestamp:  now,
		}
		// Params carries the initial parameter at index 0.
		if i+1 < len(result.History.Params) {
			entry.StepSize = result.History.Params[i+1].StepSize
			entry.Threshold = result.History.Params[i+1].Threshold
		}
		if err := tw.Write(entry); err != nil {
			return nil, err
		}
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	index, err := store.OpenIndex(filepath.Join(dataDir, "index.db"))
	if err != nil {
		return nil, err
	}
	defer index.Close()

	if err := index.InsertRun(record); err != nil {
		return nil, err
	}

	slog.Info("Run persisted", "run_id", record.RunID, "data_dir", dataDir)
	return record, nil
}

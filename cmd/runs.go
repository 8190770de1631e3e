package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quadsopt/quads/internal/store"
)

var runsDataDir string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := listRuns(runsDataDir)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		fmt.Printf("Found %d run(s):\n\n", len(infos))
		for _, info := range infos {
			fmt.Printf("Run ID:      %s\n", info.RunID)
			fmt.Printf("  Method:    %s\n", info.Method)
			fmt.Printf("  Function:  %s (dim %d)\n", info.Function, info.Dim)
			fmt.Printf("  Sampler:   %s\n", info.Sampler)
			fmt.Printf("  Status:    %s\n", info.Status)
			fmt.Printf("  Iters:     %d\n", info.Iterations)
			fmt.Printf("  Evals:     %.1f\n", info.TotalEvals)
			fmt.Printf("  Created:   %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println()
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDataDir, "data-dir", "data", "Data directory holding the run index")
	rootCmd.AddCommand(runsCmd)
}

// listRuns reads the summary index, falling back to walking the result
// artifacts when the index is unusable or empty.
func listRuns(dataDir string) ([]store.RunInfo, error) {
	index, err := store.OpenIndex(filepath.Join(dataDir, "index.db"))
	if err == nil {
		defer index.Close()
		infos, err := index.ListRuns()
		if err == nil && len(infos) > 0 {
			return infos, nil
		}
	}

	fs, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, err
	}
	return fs.ListRuns()
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/digital-native-cli/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect and manage analysis batches",
}

var batchProgressCmd = &cobra.Command{
	Use:   "progress <batch-id>",
	Short: "Show batch progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *batch.Coordinator) error {
			progress, err := coord.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Batch %s: %s, %d/%d done (%.1f%%), %d failed\n",
				progress.BatchID, progress.Status, progress.Completed,
				progress.Total, progress.Percentage, progress.Failed)
			return nil
		})
	},
}

var batchResultsCmd = &cobra.Command{
	Use:   "results <batch-id>",
	Short: "Print batch results as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *batch.Coordinator) error {
			items, err := coord.Results(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		})
	},
}

var batchDeleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete a batch and all its companies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *batch.Coordinator) error {
			if err := coord.DeleteBatch(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted batch %s\n", args[0])
			return nil
		})
	},
}

// withCoordinator runs fn against a queue-less coordinator over the
// configured store.
func withCoordinator(cmd *cobra.Command, fn func(*batch.Coordinator) error) error {
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	return fn(batch.NewCoordinator(st, nil, nil))
}

func init() {
	batchCmd.AddCommand(batchProgressCmd, batchResultsCmd, batchDeleteCmd)
	rootCmd.AddCommand(batchCmd)
}

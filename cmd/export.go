package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/digital-native-cli/internal/batch"
	"github.com/sells-group/digital-native-cli/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Export batch results to an XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batchID := args[0]
		out := exportOutput
		if out == "" {
			out = fmt.Sprintf("digital_native_analysis_%s.xlsx", batchID)
		}

		return withCoordinator(cmd, func(coord *batch.Coordinator) error {
			items, err := coord.Results(cmd.Context(), batchID)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return eris.Wrapf(err, "create %s", out)
			}
			defer f.Close()

			if err := export.Write(f, items); err != nil {
				return err
			}
			fmt.Printf("Wrote %d companies to %s\n", len(items), out)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default digital_native_analysis_<batch-id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

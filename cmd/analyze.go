package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/digital-native-cli/internal/batch"
	"github.com/sells-group/digital-native-cli/internal/export"
	"github.com/sells-group/digital-native-cli/internal/ingest"
	"github.com/sells-group/digital-native-cli/internal/model"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze companies from a CSV or XLSX file",
	Long:  "Parses the file, scores every company synchronously, and prints a summary. Results are persisted under a new batch id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read %s", path)
		}

		var records []model.CompanyRecord
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			records, err = ingest.ParseCompaniesCSV(data)
		case ".xlsx":
			records, err = ingest.ParseCompaniesXLSX(data)
		default:
			return eris.Errorf("unsupported file type %q, want .csv or .xlsx", filepath.Ext(path))
		}
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Synchronous run: bypass the queue and process inline.
		coord := batch.NewCoordinator(env.Store, env.Engine, nil)
		batchID, total, err := coord.CreateBatch(ctx, records)
		if err != nil {
			return err
		}

		zap.L().Info("analyzing companies",
			zap.String("batch_id", batchID),
			zap.Int("companies", total),
		)

		items, err := env.Store.ListByBatch(ctx, batchID)
		if err != nil {
			return eris.Wrap(err, "load batch items")
		}
		coord.RunBatch(ctx, batchID, items)

		progress, err := coord.Progress(ctx, batchID)
		if err != nil {
			return err
		}

		fmt.Printf("Batch %s: %d companies, %d completed, %d failed\n",
			batchID, progress.Total, progress.Completed-progress.Failed, progress.Failed)

		if analyzeOutput != "" {
			results, err := coord.Results(ctx, batchID)
			if err != nil {
				return err
			}
			f, err := os.Create(analyzeOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", analyzeOutput)
			}
			defer f.Close()
			if err := export.Write(f, results); err != nil {
				return err
			}
			fmt.Printf("Results written to %s\n", analyzeOutput)
		}

		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write results to an XLSX file")
	rootCmd.AddCommand(analyzeCmd)
}

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var companiesLimit int

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List recently analyzed companies across all batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		items, err := st.ListRecent(ctx, companiesLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

func init() {
	companiesCmd.Flags().IntVar(&companiesLimit, "limit", 100, "maximum companies to list")
	rootCmd.AddCommand(companiesCmd)
}

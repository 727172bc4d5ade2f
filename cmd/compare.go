package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andreas-weise/individual-variation/objectstore"
	"github.com/andreas-weise/individual-variation/orchestrator"
)

var compareRunIDs []string

var compareCmd = &cobra.Command{
	Use:   "compare [bundle-dir]...",
	Short: "Run the hypothesis tests within and across run bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dirs := append([]string(nil), args...)
		if len(compareRunIDs) > 0 {
			b, err := objectstore.New(ctx, state.conf.ObjectStore, state.log)
			if err != nil {
				return err
			}
			tmp, err := os.MkdirTemp("", "entrain-compare-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			for _, id := range compareRunIDs {
				dst := filepath.Join(tmp, id)
				if err := b.Download(ctx, id, dst); err != nil {
					return err
				}
				dirs = append(dirs, dst)
			}
		}
		if len(dirs) == 0 {
			return cmd.Usage()
		}

		reports := make([]*orchestrator.Report, 0, len(dirs))
		for _, d := range dirs {
			rep, err := orchestrator.LoadReport(d)
			if err != nil {
				return err
			}
			reports = append(reports, rep)
		}
		printTests(cmd.OutOrStdout(), orchestrator.Compare(reports))
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareRunIDs, "run-id", nil, "download these runs from the object store")
	rootCmd.AddCommand(compareCmd)
}

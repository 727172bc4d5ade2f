package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/objectstore"
	"github.com/andreas-weise/individual-variation/orchestrator"
	"github.com/andreas-weise/individual-variation/store"
)

var runUpload bool

// loadPipeline opens the store and loads the pair rows. The caller closes
// the store.
func loadPipeline(ctx context.Context) (*orchestrator.Pipeline, *store.Store, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := orchestrator.NewPipeline(state.conf, st, state.log, state.metrics)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := p.Load(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return p, st, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute every configured measure and write the run bundle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		p, err := orchestrator.NewPipeline(state.conf, st, state.log, state.metrics)
		if err != nil {
			return err
		}
		if runUpload {
			b, err := objectstore.New(ctx, state.conf.ObjectStore, state.log)
			if err != nil {
				return err
			}
			p.Uploader = b
		}
		rep, dir, err := p.Run(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printSummaries(out, rep.Measures)
		fmt.Fprintf(out, "\nbundle: %s\n", dir)
		return nil
	},
}

var measureCmd = &cobra.Command{
	Use:       "measure <lcon|syn>...",
	Short:     "Compute measures and print the per-speaker classification without writing a bundle",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{string(measure.LocalConvergence), string(measure.Synchrony)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]measure.ID, 0, len(args))
		for _, a := range args {
			id, err := measure.ParseID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		ctx := cmd.Context()
		p, st, err := loadPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var reports []orchestrator.MeasureReport
		for _, id := range ids {
			mr, err := p.Measure(id)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), mr)
			reports = append(reports, *mr)
		}
		printSummaries(cmd.OutOrStdout(), reports)
		return writeMetrics()
	},
}

var ipusCmd = &cobra.Command{
	Use:   "ipus",
	Short: "Print statistics of the IPUs taking part in turn exchanges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, st, err := loadPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		stats, cmps, err := p.IPUs()
		if err != nil {
			return err
		}
		printIPUs(cmd.OutOrStdout(), stats, cmps)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runUpload, "upload", false, "upload the bundle to the object store")
	rootCmd.AddCommand(runCmd, measureCmd, ipusCmd)
}

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andreas-weise/individual-variation/clients"
	cfg "github.com/andreas-weise/individual-variation/config"
	"github.com/andreas-weise/individual-variation/extract"
)

var extractSessions []int64

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract acoustic-prosodic features for every chunk of the given sessions (all by default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		conf := state.conf
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions := extractSessions
		if len(sessions) == 0 {
			if sessions, err = st.SessionIDs(ctx); err != nil {
				return err
			}
		}

		syl, err := extract.LoadSyllabifier(conf.Extraction.Dict, conf.Extraction.Hyphenation)
		if err != nil {
			return err
		}

		var ex extract.Extractor = extract.Praat{
			Binary:  conf.Extraction.Praat,
			Scripts: conf.Extraction.Scripts,
			TmpDir:  conf.Extraction.TmpDir,
		}
		if svc := conf.Services.Extraction; svc.URL != "" {
			ex = clients.Extraction{HTTP: clients.NewHTTP(cfg.DurSeconds(svc.Timeout)), URL: svc.URL}
		}

		r := &extract.Runner{
			Extractor:   ex,
			Store:       st,
			Syllables:   syl,
			CorpusPath:  conf.Extraction.CorpusPath,
			Workers:     conf.Extraction.Workers,
			MinDuration: conf.Extraction.MinDuration,
			Log:         state.log,
			Metrics:     state.metrics,
		}
		state.log.WithField("sessions", len(sessions)).Info("extracting features")
		if err := r.Run(ctx, sessions); err != nil {
			return err
		}
		return writeMetrics()
	},
}

func writeMetrics() error {
	tf := state.conf.Metrics.Textfile
	if tf == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(tf), 0o755); err != nil {
		return err
	}
	return state.metrics.WriteTextfile(tf)
}

func init() {
	extractCmd.Flags().Int64SliceVar(&extractSessions, "session", nil, "session ids to process")
	rootCmd.AddCommand(extractCmd)
}

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreas-weise/individual-variation/extract"
	"github.com/andreas-weise/individual-variation/orchestrator"
	"github.com/andreas-weise/individual-variation/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the corpus schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		state.log.WithField("driver", st.Driver()).Info("schema created")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file.jsonl]",
	Short: "Import transcribed chunks, one JSON object per line (stdin when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		recs, err := readChunkRecords(r)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.ImportChunks(ctx, recs); err != nil {
			return err
		}
		state.log.WithField("chunks", len(recs)).Info("chunks imported")
		return nil
	},
}

// readChunkRecords decodes JSON lines; records without words get them from
// the transcript.
func readChunkRecords(r io.Reader) ([]store.ChunkRecord, error) {
	var recs []store.ChunkRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec store.ChunkRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Words == "" {
			rec.Words = extract.PreprocessTranscript(rec.Transcript)
		}
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Manage the chunk pairing relation",
}

var pairsDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Rebuild chunk pairs from the turn structure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		n, err := orchestrator.DerivePairs(ctx, st)
		if err != nil {
			return err
		}
		state.log.WithField("links", n).Info("chunk pairs stored")
		return nil
	},
}

func init() {
	pairsCmd.AddCommand(pairsDeriveCmd)
	rootCmd.AddCommand(migrateCmd, importCmd, pairsCmd)
}

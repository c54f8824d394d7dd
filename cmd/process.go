package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
)

var processFile string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate full intake records from a JSON file or stdin",
	Long:  "Reads extracted intake records (a single object or an array), resolves the customer, contact, and every line item, and prints one validation outcome per record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := readRecords(processFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := initResolver(st)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		failed := 0
		for i, rec := range records {
			outcome := r.ProcessRecord(ctx, rec)
			if outcome.Status == model.StatusError {
				failed++
			}
			if err := enc.Encode(outcome); err != nil {
				return eris.Wrapf(err, "encode outcome %d", i)
			}
		}

		for stage, status := range r.Health() {
			if !status.Healthy {
				zap.L().Warn("stage unhealthy after run",
					zap.String("stage", stage),
					zap.Int("consecutive_failures", status.ConsecutiveFailures),
				)
			}
		}

		if failed > 0 {
			return eris.Errorf("%d of %d records failed on infrastructure errors", failed, len(records))
		}
		return nil
	},
}

// readRecords accepts either a single record object or an array of records.
func readRecords(path string) ([]model.IntakeRecord, error) {
	var in io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, eris.Wrap(err, "read input")
	}

	var records []model.IntakeRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var single model.IntakeRecord
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, eris.Wrap(err, "parse input")
	}
	return []model.IntakeRecord{single}, nil
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "-", "input JSON file, or - for stdin")
	rootCmd.AddCommand(processCmd)
}

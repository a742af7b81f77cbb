// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/internal/progress"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/record"
)

var indexCmd = &cobra.Command{
	Use:     "index",
	Short:   "Index adds the records of a JSON lines input to the search engine and commits them",
	PreRunE: indexFlagBinding,
	RunE:    withProfiling(withSignalWatcher(index)),
	Example: `
	sunspot index --config config.yaml --file records.jsonl
	cat records.jsonl | sunspot index --config config.env --batch-size 500`,
}

const stdinInput = "-"

func index(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.ParseConfig()
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	provider, err := newInstrumentationProvider(ctx)
	if err != nil {
		return err
	}
	defer closeInstrumentation(provider, logger)

	s, err := newIndexingSession(cfg, logger, provider.NewInstrumentation("sunspot"))
	if err != nil {
		return err
	}
	defer s.close()

	input, bar, unit, err := openInput(viper.GetString("file"))
	if err != nil {
		return err
	}
	defer input.Close()

	loader := record.NewLoader(s, s.registry,
		record.WithLoaderLogger(logger),
		record.WithBatchSize(viper.GetInt("batch-size")),
		record.WithProgressBar(bar, unit))

	indexed, err := loader.Load(ctx, input)
	if closeErr := bar.Close(); closeErr != nil {
		logger.Trace("closing progress bar", loglib.Fields{"error": closeErr})
	}
	if err != nil {
		return fmt.Errorf("%d records indexed before failure: %w", indexed, err)
	}

	printf("%d records indexed\n", indexed)
	return nil
}

func openInput(file string) (io.ReadCloser, *progress.ProgressBar, record.ProgressUnit, error) {
	if file == "" || file == stdinInput {
		return io.NopCloser(os.Stdin), progress.NewCountBar("indexing stdin", "records", os.Stderr), record.RecordsProgress, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("opening records file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, 0, fmt.Errorf("reading records file: %w", err)
	}

	bar := progress.NewBytesBar(info.Size(), "indexing "+filepath.Base(file), os.Stderr)
	return f, bar, record.BytesProgress, nil
}

func indexFlagBinding(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("file", cmd.Flags().Lookup("file")); err != nil {
		return err
	}
	return viper.BindPFlag("batch-size", cmd.Flags().Lookup("batch-size"))
}

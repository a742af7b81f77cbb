// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/pkg/commit"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve starts the indexing server",
	PreRunE: serveFlagBinding,
	RunE:    withProfiling(withSignalWatcher(serve)),
	Example: `
	sunspot serve --config config.yaml
	sunspot serve --config config.env --address :8080 --log-level debug`,
}

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.ParseConfig()
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if address := viper.GetString("address"); address != "" {
		cfg.Server.Address = address
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

	srv := server.New(&cfg.Server, s, s.registry,
		server.WithLogger(logger),
		server.WithCommitConfig(commitConfigProvider(logger)))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(srv.Start)
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		// pending operations are not lost on shutdown
		if err := s.CommitIfDirty(shutdownCtx); err != nil {
			return fmt.Errorf("committing pending operations: %w", err)
		}
		logger.Info("indexing server stopped")
		return nil
	})

	return eg.Wait()
}

// commitConfigProvider reads the commit settings on every request. Invalid
// settings fall back to the defaults.
func commitConfigProvider(logger loglib.Logger) server.CommitConfigProvider {
	return func() *commit.Config {
		cfg, err := config.ParseCommitConfig()
		if err != nil {
			logger.Warn(err, "invalid commit configuration, using defaults")
			return &commit.Config{}
		}
		return cfg
	}
}

func serveFlagBinding(cmd *cobra.Command, args []string) error {
	return viper.BindPFlag("address", cmd.Flags().Lookup("address"))
}

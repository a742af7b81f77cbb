// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	otelapi "go.opentelemetry.io/otel"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/internal/log/zerolog"
	"github.com/wikyd/sunspot/internal/profiling"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/otel"
)

// Version is the sunspot version
var (
	Version = "development"
	Env     string
)

const profilingAddress = "localhost:6060"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sunspot",
		Short:        "Indexes application records into a full text search engine",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return nil
		},
	}

	viper.AutomaticEnv()

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with sunspot if any")
	rootCmd.PersistentFlags().String("log-level", "", "log level for the application. One of trace, debug, info, warn, error, fatal, panic. Defaults to info")
	rootCmd.PersistentFlags().String("log-format", "", "log output format. One of console, json. Defaults to console")

	// serve cmd
	serveCmd.Flags().String("address", "", "Address for the indexing server to listen on, overrides the configured address")
	serveCmd.Flags().Bool("profile", false, "Whether to expose a /debug/pprof endpoint on "+profilingAddress)

	// index cmd
	indexCmd.Flags().StringP("file", "f", "-", "JSON lines file with one record per line. Use - to read from stdin")
	indexCmd.Flags().Int("batch-size", 100, "Number of records indexed per engine request")
	indexCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files, as well as exposing a /debug/pprof endpoint on "+profilingAddress)

	// check cmd
	checkCmd.Flags().Bool("json", false, "Output the declared fields in JSON format")

	rootFlagBinding(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(removeAllCmd)
	rootCmd.AddCommand(checkCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer stop()
		return fn(ctx)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if profile, _ := cmd.Flags().GetBool("profile"); !profile {
			return fn(cmd, args)
		}

		srv := profiling.StartProfilingServer(profilingAddress, nil)
		defer srv.Close()

		// serve is a long running process, expose the http endpoint only
		if cmd.Name() == "serve" {
			return fn(cmd, args)
		}

		stopCPUProfile, err := profiling.StartCPUProfile("cpu.prof")
		if err != nil {
			return err
		}
		defer func() {
			stopCPUProfile()
			if memErr := profiling.CreateMemoryProfile("mem.prof"); memErr != nil && err == nil {
				err = memErr
			}
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", cmd.PersistentFlags().Lookup("log-format"))
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

// newLogger builds the application logger from the configuration and sets
// it as the global logger, opentelemetry included.
func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: config.LogLevel(),
		Format:   config.LogFormat(),
	})
	zerolog.SetGlobalLogger(logger)
	otelapi.SetLogger(zerolog.NewLogr(logger))

	return zerolog.NewStdLogger(logger)
}

func newInstrumentationProvider(ctx context.Context) (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising instrumentation provider: %w", err)
	}
	return p, nil
}

func closeInstrumentation(p otel.InstrumentationProvider, logger loglib.Logger) {
	if err := p.Close(); err != nil {
		logger.Warn(err, "closing instrumentation provider")
	}
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}

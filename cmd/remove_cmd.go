// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/pkg/record"
	"github.com/wikyd/sunspot/pkg/setup"
)

var removeAllCmd = &cobra.Command{
	Use:   "remove-all [class...]",
	Short: "Remove-all deletes every document of the classes on input, or of all classes if none is given, and commits",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignalWatcher(func(ctx context.Context) error {
			return removeAll(ctx, args)
		})(cmd, args)
	},
	Example: `
	sunspot remove-all --config config.yaml
	sunspot remove-all Post Comment --config config.env`,
}

func removeAll(ctx context.Context, classNames []string) error {
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

	classes, err := lookupClasses(s.registry, classNames)
	if err != nil {
		return err
	}

	if err := s.RemoveAll(ctx, classes...); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}

	if len(classNames) == 0 {
		printf("all documents removed\n")
		return nil
	}
	printf("documents removed for %s\n", strings.Join(classNames, ", "))
	return nil
}

func lookupClasses(lookup record.ClassLookup, names []string) ([]*setup.Class, error) {
	classes := make([]*setup.Class, 0, len(names))
	for _, name := range names {
		class, found := lookup.Lookup(name)
		if !found {
			return nil, record.ErrUnknownClass{Name: name}
		}
		classes = append(classes, class)
	}
	return classes, nil
}

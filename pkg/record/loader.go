// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wikyd/sunspot/internal/progress"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/setup"
)

// Loader indexes records read from a JSON lines input, one record per line,
// in batches. Once the input is consumed the indexer is committed.
type Loader struct {
	logger    loglib.Logger
	indexer   Indexer
	classes   ClassLookup
	bar       progress.Bar
	barUnit   ProgressUnit
	batchSize int
}

// Indexer is the part of the indexing session used by the loader.
type Indexer interface {
	Index(ctx context.Context, instances ...setup.Instance) error
	CommitIfDirty(ctx context.Context) error
}

type LoaderOption func(*Loader)

// ProgressUnit is what the loader reports to its progress bar.
type ProgressUnit uint8

const (
	BytesProgress ProgressUnit = iota
	RecordsProgress
)

const defaultBatchSize = 100

func NewLoader(indexer Indexer, classes ClassLookup, opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:    loglib.NewNoopLogger(),
		indexer:   indexer,
		classes:   classes,
		batchSize: defaultBatchSize,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func WithLoaderLogger(logger loglib.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "record_loader",
		})
	}
}

func WithProgressBar(bar progress.Bar, unit ProgressUnit) LoaderOption {
	return func(l *Loader) {
		l.bar = bar
		l.barUnit = unit
	}
}

func WithBatchSize(size int) LoaderOption {
	return func(l *Loader) {
		if size > 0 {
			l.batchSize = size
		}
	}
}

// Load indexes every record of the input and returns how many were indexed.
// Blank lines are skipped. Loading stops at the first invalid record or
// indexing error, batches indexed before that are not committed.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	reader := bufio.NewReader(r)
	batch := make([]setup.Instance, 0, l.batchSize)
	indexed := 0
	lineNumber := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.indexer.Index(ctx, batch...); err != nil {
			return fmt.Errorf("indexing records: %w", err)
		}
		indexed += len(batch)
		l.logger.Debug("record batch indexed", loglib.Fields{"records": len(batch), "total": indexed})
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return indexed, fmt.Errorf("reading records: %w", readErr)
		}
		if len(line) > 0 {
			lineNumber++
			l.progress(len(line), 0)
		}

		if data := bytes.TrimSpace(line); len(data) > 0 {
			rec, err := Parse(l.classes, data)
			if err != nil {
				return indexed, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			batch = append(batch, rec)
			l.progress(0, 1)

			if len(batch) == l.batchSize {
				if err := flush(); err != nil {
					return indexed, err
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	if err := flush(); err != nil {
		return indexed, err
	}

	if err := l.indexer.CommitIfDirty(ctx); err != nil {
		return indexed, fmt.Errorf("committing records: %w", err)
	}

	l.logger.Info("records loaded", loglib.Fields{"records": indexed})
	return indexed, nil
}

func (l *Loader) progress(bytesRead, records int) {
	if l.bar == nil {
		return
	}

	n := bytesRead
	if l.barUnit == RecordsProgress {
		n = records
	}
	if n == 0 {
		return
	}

	if err := l.bar.Add(n); err != nil {
		l.logger.Trace("progress bar update failed", loglib.Fields{"error": err})
	}
}

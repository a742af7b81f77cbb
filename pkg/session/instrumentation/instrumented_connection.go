// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"

	"github.com/wikyd/sunspot/pkg/document"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Connection struct {
	inner   session.Connection
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *connectionMetrics
}

type connectionMetrics struct {
	operations metric.Int64Counter
	docs       metric.Int64Counter
}

func NewConnection(inner session.Connection, instrumentation *otel.Instrumentation) (session.Connection, error) {
	if !instrumentation.IsEnabled() {
		return inner, nil
	}

	c := &Connection{
		inner:   inner,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &connectionMetrics{},
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("error initialising connection metrics: %w", err)
	}

	return c, nil
}

func (c *Connection) Add(ctx context.Context, docs ...*document.Document) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "connection.Add", trace.WithAttributes(
		attribute.Int("docCount", len(docs)),
	))
	defer func() { otel.CloseSpan(span, err) }()
	defer c.record(ctx, "add", len(docs), &err)

	return c.inner.Add(ctx, docs...)
}

func (c *Connection) Delete(ctx context.Context, ids ...string) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "connection.Delete", trace.WithAttributes(
		attribute.Int("docCount", len(ids)),
	))
	defer func() { otel.CloseSpan(span, err) }()
	defer c.record(ctx, "delete", len(ids), &err)

	return c.inner.Delete(ctx, ids...)
}

func (c *Connection) DeleteByQuery(ctx context.Context, query string) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "connection.DeleteByQuery", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer func() { otel.CloseSpan(span, err) }()
	defer c.record(ctx, "delete_by_query", 0, &err)

	return c.inner.DeleteByQuery(ctx, query)
}

func (c *Connection) Commit(ctx context.Context) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "connection.Commit")
	defer func() { otel.CloseSpan(span, err) }()
	defer c.record(ctx, "commit", 0, &err)

	return c.inner.Commit(ctx)
}

func (c *Connection) record(ctx context.Context, operation string, docCount int, err *error) {
	if c.meter == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", *err != nil),
	)
	c.metrics.operations.Add(ctx, 1, attrs)
	if docCount > 0 && *err == nil {
		c.metrics.docs.Add(ctx, int64(docCount), metric.WithAttributes(attribute.String("operation", operation)))
	}
}

func (c *Connection) initMetrics() error {
	if c.meter == nil {
		return nil
	}

	var err error
	c.metrics.operations, err = c.meter.Int64Counter("sunspot.connection.operations",
		metric.WithUnit("operations"),
		metric.WithDescription("Count of connection operations by type and result"))
	if err != nil {
		return err
	}

	c.metrics.docs, err = c.meter.Int64Counter("sunspot.connection.documents",
		metric.WithUnit("documents"),
		metric.WithDescription("Count of documents sent to the engine by operation"))
	if err != nil {
		return err
	}

	return nil
}

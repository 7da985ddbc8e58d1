package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type instrumented struct {
	next    Store
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// Instrument wraps s so every call is counted and timed on reg.
func Instrument(s Store, reg prometheus.Registerer) Store {
	in := &instrumented{
		next: s,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatadmin",
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Document store operations by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatadmin",
			Subsystem: "docstore",
			Name:      "operation_seconds",
			Help:      "Document store operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
	reg.MustRegister(in.ops, in.latency)
	return in
}

func (in *instrumented) observe(collection, op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidCollection), errors.Is(err, ErrInvalidID), errors.Is(err, ErrNotArray):
		result = "invalid"
	default:
		result = "error"
	}
	in.ops.WithLabelValues(collection, op, result).Inc()
	in.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (in *instrumented) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	start := time.Now()
	docs, err := in.next.List(ctx, collection, q)
	in.observe(collection, "list", start, err)
	return docs, err
}

func (in *instrumented) Get(ctx context.Context, collection, id string) (*Document, error) {
	start := time.Now()
	doc, err := in.next.Get(ctx, collection, id)
	in.observe(collection, "get", start, err)
	return doc, err
}

func (in *instrumented) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	start := time.Now()
	id, err := in.next.Insert(ctx, collection, data)
	in.observe(collection, "insert", start, err)
	return id, err
}

func (in *instrumented) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	err := in.next.Update(ctx, collection, id, fields)
	in.observe(collection, "update", start, err)
	return err
}

func (in *instrumented) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := in.next.Delete(ctx, collection, id)
	in.observe(collection, "delete", start, err)
	return err
}

func (in *instrumented) Append(ctx context.Context, collection, id, field string, values ...any) ([]any, error) {
	start := time.Now()
	out, err := in.next.Append(ctx, collection, id, field, values...)
	in.observe(collection, "append", start, err)
	return out, err
}

func (in *instrumented) Count(ctx context.Context, collection string) (int, error) {
	start := time.Now()
	n, err := in.next.Count(ctx, collection)
	in.observe(collection, "count", start, err)
	return n, err
}

func (in *instrumented) Close() error {
	return in.next.Close()
}

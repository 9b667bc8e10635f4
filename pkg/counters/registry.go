// Package counters tracks per-destination output counters and exposes the
// externally maintained flow-count gauge.
package counters

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const lockStripes = 64

// Registry persists monotonically increasing counters keyed by destination
// name. Increments are serialized per key within the process so concurrent
// notification handlers never lose updates; cross-process linearizability is
// not promised.
type Registry struct {
	counts *kv.CounterStore
	flows  *kv.CounterStore
	locks  [lockStripes]sync.Mutex
	metric *prometheus.CounterVec
	log    zerolog.Logger
}

// NewRegistry creates a registry over the durable counter store and the
// externally populated flows gauge store. The prometheus mirror is ambient
// observability; the durable counters remain the source of truth.
func NewRegistry(counts, flows *kv.CounterStore, reg prometheus.Registerer, log zerolog.Logger) *Registry {
	metric := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichd_records_enriched_total",
		Help: "Enriched records emitted per destination.",
	}, []string{"destination"})

	if reg != nil {
		reg.MustRegister(metric)
	}

	return &Registry{counts: counts, flows: flows, metric: metric, log: log}
}

// Increment adds one to the destination's counter and returns the new value.
// The read-modify-write runs under a per-key stripe lock.
func (r *Registry) Increment(ctx context.Context, destination string) (int64, error) {
	lock := &r.locks[stripe(destination)]
	lock.Lock()
	defer lock.Unlock()

	current, _, err := r.counts.Get(ctx, destination)
	if err != nil {
		return 0, fmt.Errorf("counter read for %s failed: %w", destination, err)
	}

	current++

	if err := r.counts.Put(ctx, destination, current); err != nil {
		return 0, fmt.Errorf("counter write for %s failed: %w", destination, err)
	}

	r.metric.WithLabelValues(destination).Inc()

	return current, nil
}

// FlowCount looks up the flow-count gauge for a destination. An absent value
// or a store error yields false; callers simply omit the attribute.
func (r *Registry) FlowCount(ctx context.Context, destination string) (int64, bool) {
	value, found, err := r.flows.Get(ctx, destination)
	if err != nil {
		r.log.Warn().Err(err).Str("destination", destination).Msg("Flow gauge lookup failed")

		return 0, false
	}

	return value, found
}

// Destination derives the counter key for an enriched record: the base name,
// suffixed with the record's namespace id when one is present. The base and
// namespaced keys are independent counters; no reconciliation between them.
func Destination(base string, rec record.Record, namespaceField string) string {
	if v, ok := rec[namespaceField]; ok && v != nil {
		return fmt.Sprintf("%s_%s", base, rec.Field(namespaceField))
	}

	return base
}

func stripe(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return h.Sum32() % lockStripes
}

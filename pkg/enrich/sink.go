package enrich

import (
	"context"
	"sync"

	"github.com/edgewatch/enrichd/pkg/record"
)

// Sink receives one enriched record per successfully processed notification.
// The partition key is the client MAC or an equivalent entity identifier.
type Sink interface {
	Emit(ctx context.Context, partitionKey string, rec record.Record) error
}

// MemorySink collects emitted records in memory. Used in tests and as the
// sink of last resort when no transport is configured.
type MemorySink struct {
	mu      sync.Mutex
	emitted []Emitted
}

// Emitted pairs a partition key with the record sent to the sink.
type Emitted struct {
	PartitionKey string
	Record       record.Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, partitionKey string, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emitted = append(s.emitted, Emitted{PartitionKey: partitionKey, Record: rec})

	return nil
}

// Records returns a snapshot of everything emitted so far.
func (s *MemorySink) Records() []Emitted {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Emitted, len(s.emitted))
	copy(out, s.emitted)

	return out
}

var _ Sink = (*MemorySink)(nil)

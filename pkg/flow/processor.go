// Package flow enriches flow telemetry records with contextual attributes
// from the configured merge stores and the enrichment chain.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgewatch/enrichd/pkg/counters"
	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/rs/zerolog"
)

var (
	ErrMissingMerge    = errors.New("merge engine is required")
	ErrMissingChain    = errors.New("enrichment chain is required")
	ErrMissingCounters = errors.New("counter registry is required")
	ErrMissingSink     = errors.New("sink is required")
)

// DefaultDestination is the base output stream name for flow events.
const DefaultDestination = "flow"

type Config struct {
	Merge       *enrich.MergeEngine
	Chain       *enrich.Chain
	Counters    *counters.Registry
	Sink        enrich.Sink
	Destination string
	Logger      zerolog.Logger
}

func (c *Config) validate() error {
	var errs []error

	if c.Merge == nil {
		errs = append(errs, ErrMissingMerge)
	}

	if c.Chain == nil {
		errs = append(errs, ErrMissingChain)
	}

	if c.Counters == nil {
		errs = append(errs, ErrMissingCounters)
	}

	if c.Sink == nil {
		errs = append(errs, ErrMissingSink)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Processor handles one flow record at a time: duration derivation, the
// store merge, the enrichment chain, counters, and emission keyed by the
// client MAC.
type Processor struct {
	merge       *enrich.MergeEngine
	chain       *enrich.Chain
	counters    *counters.Registry
	sink        enrich.Sink
	destination string
	log         zerolog.Logger
}

func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}

	return &Processor{
		merge:       cfg.Merge,
		chain:       cfg.Chain,
		counters:    cfg.Counters,
		sink:        cfg.Sink,
		destination: cfg.Destination,
		log:         cfg.Logger,
	}, nil
}

// Process enriches and emits one flow record.
func (p *Processor) Process(ctx context.Context, msg record.Record) error {
	out := msg.Clone()
	out[enrich.FieldDuration] = duration(msg)

	enriched := p.merge.Enrich(ctx, out)
	enriched = p.chain.Enrich(ctx, enriched)

	destination := counters.Destination(p.destination, enriched, enrich.FieldNamespaceUUID)

	if _, err := p.counters.Increment(ctx, destination); err != nil {
		p.log.Warn().Err(err).Str("destination", destination).Msg("Counter increment failed")
	}

	if flows, found := p.counters.FlowCount(ctx, destination); found {
		enriched[enrich.FieldFlowsCount] = flows
	}

	clientMAC := msg.Field(enrich.FieldClientMAC)

	if err := p.sink.Emit(ctx, clientMAC, enriched); err != nil {
		return fmt.Errorf("emit failed: %w", err)
	}

	return nil
}

// duration is the flow's active time in seconds: the gap between the record
// timestamp and first_switched when both are present, zero otherwise.
func duration(msg record.Record) int64 {
	timestamp, hasTimestamp := msg.Int64(enrich.FieldTimestamp)
	first, hasFirst := msg.Int64(enrich.FieldFirstSwitched)

	if !hasTimestamp || !hasFirst || first > timestamp {
		return 0
	}

	return timestamp - first
}

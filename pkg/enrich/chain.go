package enrich

import (
	"context"

	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/rs/zerolog"
)

// Enricher is a pluggable attribute-derivation step. The returned record may
// be partial; only the keys it sets are layered onto the accumulator. A step
// must not remove attributes. An error means the step contributes nothing
// for this record (fail-open).
type Enricher interface {
	Enrich(ctx context.Context, rec record.Record) (record.Record, error)
}

// Chain applies registered enrichers in registration order. Each step sees
// the accumulator produced by the previous steps.
type Chain struct {
	steps []Enricher
	log   zerolog.Logger
}

func NewChain(log zerolog.Logger) *Chain {
	return &Chain{log: log}
}

// Register appends a step to the chain. Not safe to call after the chain is
// in use; registration happens at start-up.
func (c *Chain) Register(step Enricher) {
	c.steps = append(c.steps, step)
}

// Enrich runs the chain over a copy of the input record. Step failures are
// logged and skipped so one unavailable backend never aborts the record.
func (c *Chain) Enrich(ctx context.Context, rec record.Record) record.Record {
	out := rec.Clone()

	for i, step := range c.steps {
		contrib, err := step.Enrich(ctx, out)
		if err != nil {
			c.log.Warn().Err(err).Int("step", i).Msg("Enrichment step failed, skipping")

			continue
		}

		out.Merge(contrib)
	}

	return out
}

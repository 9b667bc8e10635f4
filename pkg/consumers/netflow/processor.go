// Package netflow runs the flow consumer: it pulls goflow2 FlowMessages
// from the inbound stream, normalizes them into records and enriches
// them through the flow pipeline.
package netflow

import (
	"context"
	"errors"

	"github.com/edgewatch/enrichd/pkg/flow"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

var ErrEmptyMessage = errors.New("empty message received")

type Processor struct {
	pipeline *flow.Processor
	log      zerolog.Logger
}

func NewProcessor(pipeline *flow.Processor, log zerolog.Logger) *Processor {
	return &Processor{pipeline: pipeline, log: log}
}

func (p *Processor) Process(ctx context.Context, msg jetstream.Msg) error {
	data := msg.Data()
	if len(data) == 0 {
		return ErrEmptyMessage
	}

	rec, err := decodeFlow(data)
	if err != nil {
		return err
	}

	return p.pipeline.Process(ctx, rec)
}

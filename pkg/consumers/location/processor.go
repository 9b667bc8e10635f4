// Package location runs the wireless-location consumer: it pulls
// notification records from the inbound stream and hands them to the
// session tracker.
package location

import (
	"context"
	"errors"

	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/edgewatch/enrichd/pkg/session"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

var ErrEmptyMessage = errors.New("empty message received")

// Processor decodes inbound records and feeds the tracker. Notification
// level failures are absorbed by the tracker; only undecodable messages
// surface as errors.
type Processor struct {
	tracker *session.Tracker
	log     zerolog.Logger
}

func NewProcessor(tracker *session.Tracker, log zerolog.Logger) *Processor {
	return &Processor{tracker: tracker, log: log}
}

func (p *Processor) Process(ctx context.Context, msg jetstream.Msg) error {
	data := msg.Data()
	if len(data) == 0 {
		return ErrEmptyMessage
	}

	rec, err := record.Unmarshal(data)
	if err != nil {
		return err
	}

	p.tracker.Process(ctx, rec)

	return nil
}

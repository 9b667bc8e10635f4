// Package natsutil provides NATS helpers shared by the consumer services:
// mTLS configuration and the JetStream record publisher.
package natsutil

import (
	"context"
	"fmt"

	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// PartitionKeyHeader carries the entity identifier the record is keyed by,
// so downstream consumers can preserve per-entity ordering.
const PartitionKeyHeader = "Enrichd-Partition-Key"

// RecordPublisher emits enriched records to a JetStream subject. It
// implements enrich.Sink.
type RecordPublisher struct {
	js      jetstream.JetStream
	subject string
}

func NewRecordPublisher(js jetstream.JetStream, subject string) *RecordPublisher {
	return &RecordPublisher{js: js, subject: subject}
}

// Emit publishes one record. The partition key travels in a header and the
// message id is a fresh UUID; JetStream deduplication is not relied on.
func (p *RecordPublisher) Emit(ctx context.Context, partitionKey string, rec record.Record) error {
	data, err := record.Marshal(rec)
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			PartitionKeyHeader: []string{partitionKey},
			nats.MsgIdHdr:      []string{uuid.New().String()},
		},
	}

	if _, err := p.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}

	return nil
}

var _ enrich.Sink = (*RecordPublisher)(nil)

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgewatch/enrichd/pkg/counters"
	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/rs/zerolog"
)

var (
	ErrMissingSessions  = errors.New("session store is required")
	ErrMissingMerge     = errors.New("merge engine is required")
	ErrMissingChain     = errors.New("enrichment chain is required")
	ErrMissingCounters  = errors.New("counter registry is required")
	ErrMissingSink      = errors.New("sink is required")
	ErrMissingDeviceID  = errors.New("notification has no device id")
	ErrMissingTimestamp = errors.New("notification has no timestamp")
)

// DefaultDestination is the base output stream name for location events.
const DefaultDestination = "location"

// Config wires the tracker's collaborators.
type Config struct {
	Sessions    *kv.RecordStore
	Merge       *enrich.MergeEngine
	Chain       *enrich.Chain
	Counters    *counters.Registry
	Sink        enrich.Sink
	Destination string
	Logger      zerolog.Logger

	// Clock supplies wall-clock time for location updates without a
	// timestamp. Defaults to time.Now.
	Clock func() time.Time
}

func (c *Config) validate() error {
	var errs []error

	if c.Sessions == nil {
		errs = append(errs, ErrMissingSessions)
	}

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

// Tracker maintains implicit per-client session state across association and
// location-update notifications and forwards normalized, enriched records to
// the sink.
type Tracker struct {
	sessions    *kv.RecordStore
	merge       *enrich.MergeEngine
	chain       *enrich.Chain
	counters    *counters.Registry
	sink        enrich.Sink
	destination string
	clock       func() time.Time
	log         zerolog.Logger
}

func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Tracker{
		sessions:    cfg.Sessions,
		merge:       cfg.Merge,
		chain:       cfg.Chain,
		counters:    cfg.Counters,
		sink:        cfg.Sink,
		destination: cfg.Destination,
		clock:       cfg.Clock,
		log:         cfg.Logger,
	}, nil
}

// Process handles one inbound record. Each embedded notification is
// dispatched by type and processed independently: a failure drops that
// notification with a warning and processing continues with the next one.
func (t *Tracker) Process(ctx context.Context, msg record.Record) {
	notifications, ok := msg.List(notifListField)
	if !ok {
		return
	}

	for _, n := range notifications {
		notificationType, _ := n.String(notifTypeField)

		var err error

		switch notificationType {
		case TypeAssociation:
			err = t.processAssociation(ctx, n)
		case TypeLocationUpdate:
			err = t.processLocationUpdate(ctx, n)
		default:
			t.log.Warn().
				Str("notification_type", notificationType).
				Msg("Unknown notification type, dropping")

			continue
		}

		if err != nil {
			t.log.Warn().Err(err).
				Str("notification_type", notificationType).
				Interface("record", msg).
				Msg("Notification dropped")
		}
	}
}

func (t *Tracker) processAssociation(ctx context.Context, n record.Record) error {
	clientMAC, ok := n.String(notifDeviceID)
	if !ok || clientMAC == "" {
		return ErrMissingDeviceID
	}

	timestamp, ok := n.Int64(notifTimestamp)
	if !ok {
		return ErrMissingTimestamp
	}

	namespaceID := n.Field(enrich.FieldNamespaceUUID)
	state := associationState(n)

	// A new association replaces any prior session wholesale.
	if err := t.sessions.Put(ctx, sessionKey(clientMAC, namespaceID), state); err != nil {
		return fmt.Errorf("session write failed: %w", err)
	}

	out := state.Clone()
	if subscription, hasSubscription := n.String(notifSubscriptionName); hasSubscription {
		out[enrich.FieldSensorName] = subscription
		out[enrich.FieldSubscriptionName] = subscription
	}

	out[enrich.FieldClientMAC] = clientMAC
	out[enrich.FieldTimestamp] = timestamp / 1000
	out[enrich.FieldType] = TypeAssociation
	out[enrich.FieldClientProfile] = "hard"

	passThrough(n, out,
		enrich.FieldMarket,
		enrich.FieldMarketUUID,
		enrich.FieldOrganization,
		enrich.FieldOrganizationUUID,
		enrich.FieldDeployment,
		enrich.FieldDeploymentUUID,
		enrich.FieldSensorName,
		enrich.FieldSensorUUID,
	)

	return t.finish(ctx, out, clientMAC)
}

func (t *Tracker) processLocationUpdate(ctx context.Context, n record.Record) error {
	clientMAC, ok := n.String(notifDeviceID)
	if !ok || clientMAC == "" {
		return ErrMissingDeviceID
	}

	namespaceID := n.Field(enrich.FieldNamespaceUUID)
	key := sessionKey(clientMAC, namespaceID)

	existing, found, err := t.sessions.Get(ctx, key)
	if err != nil {
		// A failing session read degrades to "no prior session".
		t.log.Warn().Err(err).Str("session_key", key).Msg("Session read failed, treating as miss")

		found = false
	}

	if !found {
		existing = nil
	}

	state := mergeSession(existing, locationState(n))

	if hierarchy, hasHierarchy := n.String(notifMapHierarchy); hasHierarchy {
		state.Merge(parseHierarchy(hierarchy))
	}

	if err := t.sessions.Put(ctx, key, state); err != nil {
		return fmt.Errorf("session write failed: %w", err)
	}

	out := state.Clone()
	if subscription, hasSubscription := n.String(notifSubscriptionName); hasSubscription {
		out[enrich.FieldSensorName] = subscription
		out[enrich.FieldSubscriptionName] = subscription
	}

	out[enrich.FieldClientMAC] = clientMAC
	out[enrich.FieldType] = TypeLocationUpdate

	if timestamp, hasTimestamp := n.Int64(notifTimestamp); hasTimestamp {
		out[enrich.FieldTimestamp] = timestamp / 1000
	} else {
		out[enrich.FieldTimestamp] = t.clock().Unix()
	}

	if namespaceID != "" {
		out[enrich.FieldNamespaceUUID] = namespaceID
	}

	passThrough(n, out,
		enrich.FieldMarket,
		enrich.FieldMarketUUID,
		enrich.FieldOrganization,
		enrich.FieldOrganizationUUID,
		enrich.FieldDeployment,
		enrich.FieldDeploymentUUID,
		enrich.FieldSensorName,
		enrich.FieldSensorUUID,
		enrich.FieldNamespace,
		enrich.FieldServiceProvider,
		enrich.FieldServiceProviderUUID,
	)

	return t.finish(ctx, out, clientMAC)
}

// finish routes a normalized record through the merge engine and enrichment
// chain, bumps the destination counter, attaches the flow-count gauge when
// one exists, and emits keyed by client MAC.
func (t *Tracker) finish(ctx context.Context, out record.Record, clientMAC string) error {
	enriched := t.merge.Enrich(ctx, out)
	enriched = t.chain.Enrich(ctx, enriched)

	destination := counters.Destination(t.destination, enriched, enrich.FieldNamespaceUUID)

	if _, err := t.counters.Increment(ctx, destination); err != nil {
		// A failed counter update does not drop the record.
		t.log.Warn().Err(err).Str("destination", destination).Msg("Counter increment failed")
	}

	if flows, found := t.counters.FlowCount(ctx, destination); found {
		enriched[enrich.FieldFlowsCount] = flows
	}

	if err := t.sink.Emit(ctx, clientMAC, enriched); err != nil {
		return fmt.Errorf("emit failed: %w", err)
	}

	return nil
}

// passThrough copies the named topology dimensions from the notification to
// the output when present.
func passThrough(n, out record.Record, fields ...string) {
	for _, f := range fields {
		if v, ok := n[f]; ok && v != nil {
			out[f] = v
		}
	}
}

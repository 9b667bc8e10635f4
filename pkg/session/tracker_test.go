package session

import (
	"context"
	"testing"
	"time"

	"github.com/edgewatch/enrichd/pkg/counters"
	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/logger"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackerFixture struct {
	tracker  *Tracker
	sessions *kv.RecordStore
	stores   map[string]*kv.RecordStore
	counts   *kv.CounterStore
	flows    *kv.CounterStore
	sink     *enrich.MemorySink
}

func newFixture(t *testing.T, storeConfigs ...enrich.StoreConfig) *trackerFixture {
	t.Helper()

	log := logger.NewTestLogger()

	stores := make(map[string]*kv.RecordStore, len(storeConfigs))
	for _, cfg := range storeConfigs {
		stores[cfg.Name] = kv.NewRecordStore(kv.NewMemoryStore())
	}

	merge, err := enrich.NewMergeEngine(storeConfigs, stores, log)
	require.NoError(t, err)

	counts := kv.NewCounterStore(kv.NewMemoryStore())
	flows := kv.NewCounterStore(kv.NewMemoryStore())
	registry := counters.NewRegistry(counts, flows, prometheus.NewRegistry(), log)

	sessions := kv.NewRecordStore(kv.NewMemoryStore())
	sink := enrich.NewMemorySink()

	tracker, err := NewTracker(Config{
		Sessions: sessions,
		Merge:    merge,
		Chain:    enrich.NewChain(log),
		Counters: registry,
		Sink:     sink,
		Logger:   log,
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)

	return &trackerFixture{
		tracker:  tracker,
		sessions: sessions,
		stores:   stores,
		counts:   counts,
		flows:    flows,
		sink:     sink,
	}
}

func inbound(notifications ...record.Record) record.Record {
	raw := make([]any, len(notifications))
	for i, n := range notifications {
		raw[i] = map[string]any(n)
	}

	return record.Record{"notifications": raw}
}

func TestAssociationEmitsNormalizedRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "association",
		"deviceId":         "aa:bb",
		"ssid":             "corp",
		"status":           float64(3),
		"apMacAddress":     "cc:dd",
		"timestamp":        float64(1000000),
		"subscriptionName": "sub-1",
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)
	assert.Equal(t, "aa:bb", emitted[0].PartitionKey)

	out := emitted[0].Record
	assert.Equal(t, "association", out.Field(enrich.FieldType))
	assert.Equal(t, "aa:bb", out.Field(enrich.FieldClientMAC))
	assert.Equal(t, "ASSOCIATED", out.Field(enrich.FieldDot11Status))
	assert.Equal(t, "corp", out.Field(enrich.FieldWirelessID))
	assert.Equal(t, "cc:dd", out.Field(enrich.FieldWirelessStation))
	assert.Equal(t, "hard", out.Field(enrich.FieldClientProfile))
	assert.Equal(t, "sub-1", out.Field(enrich.FieldSensorName))

	ts, ok := out.Int64(enrich.FieldTimestamp)
	require.True(t, ok)
	assert.Equal(t, int64(1000), ts)

	// Session persisted under clientMAC+namespace (namespace absent here).
	state, found, err := f.sessions.Get(ctx, "aa:bb")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ASSOCIATED", state.Field(enrich.FieldDot11Status))

	// Counter bumped once for the base destination.
	count, _, err := f.counts.Get(ctx, DefaultDestination)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLocationUpdateWithoutPriorSessionProbes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType":     "locationupdate",
		"deviceId":             "aa:bb",
		"locationMapHierarchy": "Campus1>BuildingA>Floor3",
		"timestamp":            float64(1000500),
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)

	out := emitted[0].Record
	assert.Equal(t, "locationupdate", out.Field(enrich.FieldType))
	assert.Equal(t, StatusProbing, out.Field(enrich.FieldDot11Status))
	assert.Equal(t, "Campus1", out.Field(enrich.FieldCampus))
	assert.Equal(t, "BuildingA", out.Field(enrich.FieldBuilding))
	assert.Equal(t, "Floor3", out.Field(enrich.FieldFloor))
	assert.False(t, out.Has(enrich.FieldZone))
}

func TestAssociationThenLocationUpdateCarriesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "association",
		"deviceId":         "aa:bb",
		"ssid":             "corp",
		"status":           float64(3),
		"apMacAddress":     "cc:dd",
		"timestamp":        float64(1000000),
	}))

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType":     "locationupdate",
		"deviceId":             "aa:bb",
		"locationMapHierarchy": "C1>B1",
		"timestamp":            float64(1000500),
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 2)

	out := emitted[1].Record
	assert.Equal(t, "ASSOCIATED", out.Field(enrich.FieldDot11Status))
	assert.Equal(t, "C1", out.Field(enrich.FieldCampus))
	assert.Equal(t, "B1", out.Field(enrich.FieldBuilding))
	assert.Equal(t, "corp", out.Field(enrich.FieldWirelessID))
}

func TestLocationUpdateWithoutTimestampUsesClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "locationupdate",
		"deviceId":         "aa:bb",
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)

	ts, ok := emitted[0].Record.Int64(enrich.FieldTimestamp)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts)
}

func TestUnknownStatusCodeLeavesAttributeAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "association",
		"deviceId":         "aa:bb",
		"status":           float64(999),
		"timestamp":        float64(1000000),
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)
	assert.False(t, emitted[0].Record.Has(enrich.FieldDot11Status))
}

func TestUnknownNotificationTypeDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "presence",
		"deviceId":         "aa:bb",
	}))

	assert.Empty(t, f.sink.Records())
	assert.Equal(t, 0, sessionCount(t, f))
}

func TestMalformedNotificationDoesNotStopTheBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, inbound(
		record.Record{
			// No deviceId: dropped.
			"notificationType": "association",
			"timestamp":        float64(1000000),
		},
		record.Record{
			// No timestamp: dropped.
			"notificationType": "association",
			"deviceId":         "11:22",
		},
		record.Record{
			"notificationType": "association",
			"deviceId":         "aa:bb",
			"timestamp":        float64(1000000),
		},
	))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)
	assert.Equal(t, "aa:bb", emitted[0].PartitionKey)
}

func TestNamespaceScopesSessionAndDestination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	namespace := "11111111-1111-1111-1111-111111111111"

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "locationupdate",
		"deviceId":         "aa:bb",
		"namespace_uuid":   namespace,
		"timestamp":        float64(1000500),
	}))

	// Session keyed by clientMAC+namespace.
	_, found, err := f.sessions.Get(ctx, "aa:bb"+namespace)
	require.NoError(t, err)
	assert.True(t, found)

	// Namespaced destination counted independently of the base one.
	count, _, err := f.counts.Get(ctx, DefaultDestination+"_"+namespace)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, found, err = f.counts.Get(ctx, DefaultDestination)
	require.NoError(t, err)
	assert.False(t, found)

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)
	assert.Equal(t, namespace, emitted[0].Record.Field(enrich.FieldNamespaceUUID))
}

func TestFlowsCountAttachedWhenGaugeExists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.flows.Put(ctx, DefaultDestination, 77))

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "association",
		"deviceId":         "aa:bb",
		"timestamp":        float64(1000000),
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)

	flows, ok := emitted[0].Record.Int64(enrich.FieldFlowsCount)
	require.True(t, ok)
	assert.Equal(t, int64(77), flows)
}

func TestTrackerRoutesThroughMergeStores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enrich.StoreConfig{
		Name:      "radius",
		KeyFields: []string{enrich.FieldClientMAC},
		Overwrite: false,
	})

	require.NoError(t, f.stores["radius"].Put(ctx, "aa:bb", record.Record{
		enrich.FieldClientID: "alice",
		"vlan":               "42",
	}))

	f.tracker.Process(ctx, inbound(record.Record{
		"notificationType": "association",
		"deviceId":         "aa:bb",
		"timestamp":        float64(1000000),
	}))

	emitted := f.sink.Records()
	require.Len(t, emitted, 1)
	assert.Equal(t, "alice", emitted[0].Record.Field(enrich.FieldClientID))
	assert.Equal(t, "42", emitted[0].Record.Field("vlan"))
}

func TestRecordWithoutNotificationsIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tracker.Process(ctx, record.Record{"client_mac": "aa:bb"})

	assert.Empty(t, f.sink.Records())
}

func TestTrackerConfigValidation(t *testing.T) {
	_, err := NewTracker(Config{})
	assert.ErrorIs(t, err, ErrMissingSessions)
	assert.ErrorIs(t, err, ErrMissingMerge)
	assert.ErrorIs(t, err, ErrMissingChain)
	assert.ErrorIs(t, err, ErrMissingCounters)
	assert.ErrorIs(t, err, ErrMissingSink)
}

func sessionCount(t *testing.T, f *trackerFixture) int {
	t.Helper()

	// The session store is backed by a MemoryStore in fixtures; reach
	// through to count persisted sessions.
	_, found, err := f.sessions.Get(context.Background(), "aa:bb")
	require.NoError(t, err)

	if found {
		return 1
	}

	return 0
}

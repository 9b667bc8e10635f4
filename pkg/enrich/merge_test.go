package enrich

import (
	"context"
	"testing"

	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/logger"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, configs []StoreConfig) (*MergeEngine, map[string]*kv.RecordStore) {
	t.Helper()

	stores := make(map[string]*kv.RecordStore, len(configs))
	for _, cfg := range configs {
		stores[cfg.Name] = kv.NewRecordStore(kv.NewMemoryStore())
	}

	engine, err := NewMergeEngine(configs, stores, logger.NewTestLogger())
	require.NoError(t, err)

	return engine, stores
}

func TestEnrichOutputIsSupersetOfInput(t *testing.T) {
	ctx := context.Background()
	engine, stores := newTestEngine(t, []StoreConfig{
		{Name: "nmsp", Overwrite: true},
	})

	require.NoError(t, stores["nmsp"].Put(ctx, "00:00:00:00:00:00", record.Record{
		"wireless_station": "11:11:11:11:11:11",
	}))

	in := record.Record{
		FieldClientMAC: "00:00:00:00:00:00",
		"bytes":        int64(23),
		"pkts":         int64(2),
	}

	out := engine.Enrich(ctx, in)

	for k := range in {
		assert.Contains(t, out, k)
	}

	assert.Equal(t, "11:11:11:11:11:11", out.Field("wireless_station"))
}

func TestOverwritePolicy(t *testing.T) {
	tests := []struct {
		name     string
		configs  []StoreConfig
		expected string
	}{
		{
			name: "fill then overwrite: last overwrite store wins",
			configs: []StoreConfig{
				{Name: "a", Overwrite: false},
				{Name: "b", Overwrite: true},
			},
			expected: "value_b",
		},
		{
			name: "overwrite then fill: first store keeps the value",
			configs: []StoreConfig{
				{Name: "a", Overwrite: true},
				{Name: "b", Overwrite: false},
			},
			expected: "value_a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine, stores := newTestEngine(t, tt.configs)

			for _, cfg := range tt.configs {
				require.NoError(t, stores[cfg.Name].Put(ctx, "00:11:22:33:44:55", record.Record{
					"column": "value_" + cfg.Name,
				}))
			}

			out := engine.Enrich(ctx, record.Record{FieldClientMAC: "00:11:22:33:44:55"})
			assert.Equal(t, tt.expected, out.Field("column"))
		})
	}
}

func TestFillIfAbsentNeverDisplacesInputFields(t *testing.T) {
	ctx := context.Background()
	engine, stores := newTestEngine(t, []StoreConfig{
		{Name: "radius", Overwrite: false},
	})

	require.NoError(t, stores["radius"].Put(ctx, "aa:bb", record.Record{
		"client_id": "from-store",
	}))

	out := engine.Enrich(ctx, record.Record{
		FieldClientMAC: "aa:bb",
		"client_id":    "from-input",
	})

	assert.Equal(t, "from-input", out.Field("client_id"))
}

func TestMergeKeyDerivation(t *testing.T) {
	tests := []struct {
		name     string
		rec      record.Record
		fields   []string
		expected string
	}{
		{
			name:     "default fields concatenated verbatim",
			rec:      record.Record{FieldClientMAC: "aa:bb", FieldNamespaceUUID: "ns1"},
			fields:   DefaultKeyFields,
			expected: "aa:bbns1",
		},
		{
			name:     "missing field contributes empty string",
			rec:      record.Record{FieldClientMAC: "aa:bb"},
			fields:   DefaultKeyFields,
			expected: "aa:bb",
		},
		{
			name:     "integer namespace is rendered as decimal",
			rec:      record.Record{FieldClientMAC: "aa:bb", FieldNamespaceUUID: float64(1111111)},
			fields:   DefaultKeyFields,
			expected: "aa:bb1111111",
		},
		{
			name:     "field order matters",
			rec:      record.Record{"a": "1", "b": "2"},
			fields:   []string{"b", "a"},
			expected: "21",
		},
		{
			name:     "no delimiter means different splits collide",
			rec:      record.Record{"a": "1", "b": "23"},
			fields:   []string{"a", "b"},
			expected: "123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mergeKey(tt.rec, tt.fields))
		})
	}
}

func TestStoreMissContributesNothing(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, []StoreConfig{{Name: "empty", Overwrite: true}})

	in := record.Record{FieldClientMAC: "aa:bb"}
	out := engine.Enrich(ctx, in)

	assert.Equal(t, in, out)
}

func TestUnknownStoreConfigRejected(t *testing.T) {
	_, err := NewMergeEngine(
		[]StoreConfig{{Name: "nowhere"}},
		map[string]*kv.RecordStore{},
		logger.NewTestLogger(),
	)
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestNamespacedLookupUsesCompositeKey(t *testing.T) {
	ctx := context.Background()
	engine, stores := newTestEngine(t, []StoreConfig{{Name: "nmsp", Overwrite: true}})

	namespace := "11111111-1111-1111-1111-111111111111"
	require.NoError(t, stores["nmsp"].Put(ctx, "00:00:00:00:00:00"+namespace, record.Record{
		"column": "namespaced",
	}))

	// Without the namespace the composite key differs and nothing matches.
	out := engine.Enrich(ctx, record.Record{FieldClientMAC: "00:00:00:00:00:00"})
	assert.False(t, out.Has("column"))

	out = engine.Enrich(ctx, record.Record{
		FieldClientMAC:     "00:00:00:00:00:00",
		FieldNamespaceUUID: namespace,
	})
	assert.Equal(t, "namespaced", out.Field("column"))
}

package location

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigUnmarshalDefaults(t *testing.T) {
	data := []byte(`{
		"listen_addr": ":8089",
		"nats_url": "nats://localhost:4222",
		"stream_name": "location",
		"consumer_name": "location-enricher",
		"subject": "location.raw",
		"output_subject": "location.enriched",
		"stores": [
			{"name": "wireless", "key_fields": ["client_mac", "namespace_uuid"], "overwrite": false},
			{"name": "radius", "overwrite": true}
		]
	}`)

	var cfg Config

	require.NoError(t, json.Unmarshal(data, &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, defaultSessionBucket, cfg.SessionBucket)
	assert.Equal(t, defaultCountersBucket, cfg.CountersBucket)
	assert.Equal(t, defaultFlowsBucket, cfg.FlowsBucket)
	require.Len(t, cfg.Stores, 2)
	assert.Equal(t, "wireless", cfg.Stores[0].Name)
	assert.True(t, cfg.Stores[1].Overwrite)
}

func TestConfigUnmarshalKeepsExplicitBuckets(t *testing.T) {
	data := []byte(`{
		"listen_addr": ":8089",
		"nats_url": "nats://localhost:4222",
		"stream_name": "location",
		"consumer_name": "location-enricher",
		"output_subject": "location.enriched",
		"session_bucket": "sessions-a",
		"counters_bucket": "counters-a",
		"flows_bucket": "flows-a"
	}`)

	var cfg Config

	require.NoError(t, json.Unmarshal(data, &cfg))

	assert.Equal(t, "sessions-a", cfg.SessionBucket)
	assert.Equal(t, "counters-a", cfg.CountersBucket)
	assert.Equal(t, "flows-a", cfg.FlowsBucket)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid",
			cfg: Config{
				ListenAddr:    ":8089",
				NATSURL:       "nats://localhost:4222",
				StreamName:    "location",
				ConsumerName:  "location-enricher",
				OutputSubject: "location.enriched",
			},
		},
		{
			name:    "empty",
			cfg:     Config{},
			wantErr: ErrMissingListenAddr,
		},
		{
			name: "missing stream",
			cfg: Config{
				ListenAddr:    ":8089",
				NATSURL:       "nats://localhost:4222",
				ConsumerName:  "location-enricher",
				OutputSubject: "location.enriched",
			},
			wantErr: ErrMissingStreamName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

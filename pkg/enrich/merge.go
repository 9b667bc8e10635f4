package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/rs/zerolog"
)

var ErrUnknownStore = errors.New("store config references an unknown store")

// DefaultKeyFields is the composite key used by stores that do not declare
// their own key fields.
var DefaultKeyFields = []string{FieldClientMAC, FieldNamespaceUUID}

// StoreConfig declares one merge source: its name, the record fields whose
// values form the lookup key, and whether its attributes replace values
// already present in the output. Declared once at start-up, immutable after.
type StoreConfig struct {
	Name      string   `json:"name"`
	KeyFields []string `json:"key_fields"`
	Overwrite bool     `json:"overwrite"`
}

type storeBinding struct {
	config StoreConfig
	store  *kv.RecordStore
}

// MergeEngine folds the attributes of each configured store into a record,
// in declaration order. Stores are read-only from the engine's point of
// view; writers are the session tracker and external ingestion paths.
type MergeEngine struct {
	bindings []storeBinding
	log      zerolog.Logger
}

// NewMergeEngine binds the declared store configs to their backing stores.
// Configs with no key fields get DefaultKeyFields.
func NewMergeEngine(configs []StoreConfig, stores map[string]*kv.RecordStore, log zerolog.Logger) (*MergeEngine, error) {
	bindings := make([]storeBinding, 0, len(configs))

	for _, cfg := range configs {
		store, ok := stores[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Name)
		}

		if len(cfg.KeyFields) == 0 {
			cfg.KeyFields = DefaultKeyFields
		}

		bindings = append(bindings, storeBinding{config: cfg, store: store})
	}

	return &MergeEngine{bindings: bindings, log: log}, nil
}

// Enrich overlays each configured store's attributes onto a copy of the
// input record. The input's own fields act as an implicit overwrite store
// applied first, so fill-if-absent stores never displace them. A store miss
// contributes nothing; a store error is logged and treated as a miss.
func (m *MergeEngine) Enrich(ctx context.Context, rec record.Record) record.Record {
	out := rec.Clone()

	for _, b := range m.bindings {
		key := mergeKey(rec, b.config.KeyFields)

		attrs, found, err := b.store.Get(ctx, key)
		if err != nil {
			m.log.Warn().Err(err).
				Str("store", b.config.Name).
				Str("merge_key", key).
				Msg("Store lookup failed, skipping contribution")

			continue
		}

		if !found {
			continue
		}

		for k, v := range attrs {
			if b.config.Overwrite {
				out[k] = v
				continue
			}

			if _, present := out[k]; !present {
				out[k] = v
			}
		}
	}

	return out
}

// mergeKey concatenates the configured field values verbatim, with no
// separator. Missing fields contribute the empty string. Delimiter-free
// concatenation can collide for different value splits ("1"+"23" vs
// "12"+"3"); kept for compatibility with existing store contents.
func mergeKey(rec record.Record, fields []string) string {
	var b strings.Builder

	for _, f := range fields {
		b.WriteString(rec.Field(f))
	}

	return b.String()
}

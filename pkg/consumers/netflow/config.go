package netflow

import (
	"encoding/json"
	"errors"

	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/enrich/geo"
	"github.com/edgewatch/enrichd/pkg/logger"
	"github.com/edgewatch/enrichd/pkg/models"
)

var (
	ErrMissingListenAddr    = errors.New("listen_addr is required")
	ErrMissingNATSURL       = errors.New("nats_url is required")
	ErrMissingStreamName    = errors.New("stream_name is required")
	ErrMissingConsumerName  = errors.New("consumer_name is required")
	ErrMissingOutputSubject = errors.New("output_subject is required")
	ErrInvalidJSON          = errors.New("failed to unmarshal JSON configuration")
)

// Config wires the flow consumer: stream coordinates, counter bucket names,
// merge-store declarations and the GeoIP databases.
type Config struct {
	ListenAddr    string `json:"listen_addr"`
	NATSURL       string `json:"nats_url"`
	Domain        string `json:"domain"`
	StreamName    string `json:"stream_name"`
	ConsumerName  string `json:"consumer_name"`
	Subject       string `json:"subject"`
	OutputSubject string `json:"output_subject"`

	// Destination is the base output stream name used for counters.
	Destination string `json:"destination"`

	CountersBucket string `json:"counters_bucket"`
	FlowsBucket    string `json:"flows_bucket"`

	Stores []enrich.StoreConfig `json:"stores"`

	GeoIP geo.Config `json:"geoip"`

	Security *models.SecurityConfig `json:"security"`
	Logging  *logger.Config         `json:"logging"`
}

const (
	defaultCountersBucket = "counters"
	defaultFlowsBucket    = "flows-number"
)

func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config

	var alias struct {
		Alias
	}

	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}

	*c = Config(alias.Alias)

	if c.CountersBucket == "" {
		c.CountersBucket = defaultCountersBucket
	}

	if c.FlowsBucket == "" {
		c.FlowsBucket = defaultFlowsBucket
	}

	if c.Security != nil {
		c.Security.NormalizeTLSPaths()
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, ErrMissingListenAddr)
	}

	if c.NATSURL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.StreamName == "" {
		errs = append(errs, ErrMissingStreamName)
	}

	if c.ConsumerName == "" {
		errs = append(errs, ErrMissingConsumerName)
	}

	if c.OutputSubject == "" {
		errs = append(errs, ErrMissingOutputSubject)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

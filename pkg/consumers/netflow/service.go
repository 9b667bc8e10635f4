package netflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgewatch/enrichd/pkg/consumers"
	"github.com/edgewatch/enrichd/pkg/counters"
	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/enrich/geo"
	"github.com/edgewatch/enrichd/pkg/flow"
	"github.com/edgewatch/enrichd/pkg/kv"
	"github.com/edgewatch/enrichd/pkg/lifecycle"
	"github.com/edgewatch/enrichd/pkg/natsutil"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Service owns the flow consumer's NATS resources and the enrichment
// pipeline built on top of them.
type Service struct {
	cfg      *Config
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer *consumers.Consumer
	geo      *geo.Enricher
	wg       sync.WaitGroup
	log      zerolog.Logger
}

func NewService(cfg *Config, log zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, log: log}, nil
}

func (s *Service) Start(ctx context.Context) error {
	var opts []nats.Option

	if s.cfg.Security != nil {
		tlsConf, err := natsutil.TLSConfig(s.cfg.Security)
		if err != nil {
			return fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	nc, err := nats.Connect(s.cfg.NATSURL, opts...)
	if err != nil {
		return err
	}

	s.nc = nc

	var js jetstream.JetStream

	if s.cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, s.cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()

		return err
	}

	s.js = js

	pipeline, err := s.buildPipeline(ctx)
	if err != nil {
		nc.Close()

		return err
	}

	stream, err := js.Stream(ctx, s.cfg.StreamName)
	if err != nil {
		nc.Close()

		return fmt.Errorf("failed to get stream %s: %w", s.cfg.StreamName, err)
	}

	if _, err = stream.Info(ctx); err != nil {
		nc.Close()

		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.consumer, err = consumers.NewConsumer(ctx, js, s.cfg.StreamName, s.cfg.ConsumerName, s.cfg.Subject, s.log)
	if err != nil {
		nc.Close()

		return err
	}

	processor := NewProcessor(pipeline, s.log)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.consumer.ProcessMessages(ctx, processor)
	}()

	s.log.Info().
		Str("stream", s.cfg.StreamName).
		Str("consumer", s.cfg.ConsumerName).
		Msg("Flow consumer started")

	return nil
}

func (s *Service) buildPipeline(ctx context.Context) (*flow.Processor, error) {
	stores := make(map[string]*kv.RecordStore, len(s.cfg.Stores))

	for _, storeCfg := range s.cfg.Stores {
		backing, err := kv.NewNatsStore(ctx, s.js, storeCfg.Name, 0)
		if err != nil {
			return nil, err
		}

		stores[storeCfg.Name] = kv.NewRecordStore(backing)
	}

	merge, err := enrich.NewMergeEngine(s.cfg.Stores, stores, s.log)
	if err != nil {
		return nil, err
	}

	chain := enrich.NewChain(s.log)

	if s.cfg.GeoIP.CityDBPath != "" || s.cfg.GeoIP.ASNDBPath != "" {
		s.geo, err = geo.New(s.cfg.GeoIP, s.log)
		if err != nil {
			return nil, err
		}

		chain.Register(s.geo)
	}

	countersBacking, err := kv.NewNatsStore(ctx, s.js, s.cfg.CountersBucket, 0)
	if err != nil {
		return nil, err
	}

	flowsBacking, err := kv.NewNatsStore(ctx, s.js, s.cfg.FlowsBucket, 0)
	if err != nil {
		return nil, err
	}

	registry := counters.NewRegistry(
		kv.NewCounterStore(countersBacking),
		kv.NewCounterStore(flowsBacking),
		prometheus.DefaultRegisterer,
		s.log,
	)

	return flow.NewProcessor(flow.Config{
		Merge:       merge,
		Chain:       chain,
		Counters:    registry,
		Sink:        natsutil.NewRecordPublisher(s.js, s.cfg.OutputSubject),
		Destination: s.cfg.Destination,
		Logger:      s.log,
	})
}

func (s *Service) Stop(_ context.Context) error {
	if s.geo != nil {
		if err := s.geo.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close geo databases")
		}
	}

	if s.nc != nil {
		s.nc.Close()
	}

	s.wg.Wait()
	s.log.Info().Msg("Flow consumer stopped")

	return nil
}

var _ lifecycle.Service = (*Service)(nil)

// Package notify forwards pin store events to Google Cloud Pub/Sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/livehike/livehike/internal/pin"
)

// Message attribute keys.
const (
	AttrKind  = "kind"
	AttrTrail = "trail"
	AttrPinID = "pin_id"
)

// Publisher sends one message and waits for the server to accept it.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// EventSource is the subscription side of the pin store.
type EventSource interface {
	Subscribe(ctx context.Context, buffer int) <-chan pin.Event
}

// Relay publishes every store event until its context ends.
type Relay struct {
	source    EventSource
	publisher Publisher
	logger    zerolog.Logger
	timeout   time.Duration
	drain     time.Duration
	buffer    int
}

// RelayConfig holds configuration for a Relay.
type RelayConfig struct {
	Source    EventSource
	Publisher Publisher
	Logger    zerolog.Logger

	// PublishTimeout bounds a single publish. Default: 10 seconds.
	PublishTimeout time.Duration

	// DrainTimeout bounds the whole flush of buffered events once the run
	// context ends. Events still queued after it are dropped. Default: 5 seconds.
	DrainTimeout time.Duration

	// Buffer is the subscription buffer. Default: 256.
	Buffer int
}

// NewRelay creates a new relay.
func NewRelay(cfg RelayConfig) *Relay {
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = 256
	}
	return &Relay{
		source:    cfg.Source,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With().Str("component", "event_relay").Logger(),
		timeout:   cfg.PublishTimeout,
		drain:     cfg.DrainTimeout,
		buffer:    cfg.Buffer,
	}
}

// Run forwards events until ctx ends, then flushes what is still buffered
// within DrainTimeout, so it returns at most PublishTimeout plus DrainTimeout
// after ctx ends. Publish failures are logged and the event is dropped.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info().Msg("starting event relay")
	events := r.source.Subscribe(ctx, r.buffer)

	// Publishes outlive ctx so buffered events are not lost at shutdown;
	// budget takes over as their parent once draining starts.
	budget := context.WithoutCancel(ctx)
	draining := false
	dropped := 0
	for e := range events {
		if !draining && ctx.Err() != nil {
			var cancel context.CancelFunc
			budget, cancel = context.WithTimeout(budget, r.drain)
			defer cancel()
			draining = true
		}
		if draining && budget.Err() != nil {
			dropped++
			continue
		}
		r.forward(budget, e)
	}

	if dropped > 0 {
		r.logger.Warn().Int("dropped", dropped).Msg("drain deadline reached, events dropped")
	}
	r.logger.Info().Msg("event relay stopped")
}

func (r *Relay) forward(parent context.Context, e pin.Event) {
	logger := r.logger.With().Str("kind", string(e.Kind)).Logger()

	data, err := json.Marshal(pin.ToAPIEvent(e, ""))
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode event")
		return
	}

	attrs := map[string]string{AttrKind: string(e.Kind)}
	if e.TrailName != "" {
		attrs[AttrTrail] = e.TrailName
	}
	if e.Pin != nil {
		attrs[AttrPinID] = e.Pin.ID
	}

	publishCtx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	if err := r.publisher.Publish(publishCtx, data, attrs); err != nil {
		logger.Error().Err(err).Msg("failed to publish event")
		return
	}
	logger.Debug().Msg("event published")
}

// PubSubPublisher publishes to a Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewPubSubPublisher creates a client for projectID publishing to topic.
func NewPubSubPublisher(ctx context.Context, projectID, topic string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	publisher := client.Publisher(topic)
	publisher.PublishSettings.CountThreshold = 50
	publisher.PublishSettings.DelayThreshold = 50 * time.Millisecond

	return &PubSubPublisher{client: client, publisher: publisher}, nil
}

// Publish sends data and waits for the server ack.
func (p *PubSubPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

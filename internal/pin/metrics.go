package pin

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/livehike/livehike/internal/pin"

// Metrics holds the moderation instruments. A nil *Metrics records nothing.
type Metrics struct {
	mutations       metric.Int64Counter
	expired         metric.Int64Counter
	persistFailures metric.Int64Counter
}

// NewMetrics creates the store instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	mutations, err := meter.Int64Counter(
		"livehike.pin.mutations",
		metric.WithDescription("Pin store mutations by event kind"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	expired, err := meter.Int64Counter(
		"livehike.pin.expired",
		metric.WithDescription("Pins deleted by repeated dismissal"),
		metric.WithUnit("{pin}"),
	)
	if err != nil {
		return nil, err
	}

	persistFailures, err := meter.Int64Counter(
		"livehike.persist.failures",
		metric.WithDescription("Failed writes of the pin store to its blob backend"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		mutations:       mutations,
		expired:         expired,
		persistFailures: persistFailures,
	}, nil
}

func (m *Metrics) recordMutation(ctx context.Context, kind EventKind, pinType PinType) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("pin.type", string(pinType)),
	)
	m.mutations.Add(ctx, 1, attrs)
	if kind == EventPinExpired {
		m.expired.Add(ctx, 1, metric.WithAttributes(attribute.String("pin.type", string(pinType))))
	}
}

func (m *Metrics) recordPersistFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.persistFailures.Add(ctx, 1)
}

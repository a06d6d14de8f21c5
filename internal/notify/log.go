package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// logPublisher writes notification events to the log. Used when Kafka is
// disabled and as the default in tests.
type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a log-backed publisher.
func NewLogPublisher(logger zerolog.Logger) Publisher {
	return &logPublisher{
		logger: logger.With().Str("component", "notify-log").Logger(),
	}
}

func (p *logPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info().
		Str("kind", event.Kind).
		Str("order_number", event.OrderNumber).
		Str("customer_id", event.CustomerID.String()).
		Str("status", event.Status).
		Str("total", event.Total).
		Msg("notification dispatched")
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}

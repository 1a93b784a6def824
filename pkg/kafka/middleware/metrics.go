package kafka_middleware

import (
	"context"

	"birshibpur/pkg/kafka"
	"birshibpur/pkg/metrics"
)

func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		err := next(ctx, msg)
		m.IncKafkaPublish(msg.EventType(), err == nil)
		return err
	}
}

package kafka_middleware

import (
	"context"
	"time"

	"birshibpur/pkg/kafka"
	"birshibpur/pkg/logger"
)

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.EventID(),
			"event_type", msg.EventType(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Error("failed to publish kafka message", append(attrs, logger.Err(err))...)
			return err
		}
		log.Debug("published kafka message", attrs...)
		return nil
	}
}

package events

import (
	"context"
	"fmt"
	"log/slog"

	"catalog/internal/config"
)

// Backend names accepted in EVENTS_BACKENDS.
const (
	BackendKafka         = "kafka"
	BackendAMQP          = "amqp"
	BackendElasticsearch = "elasticsearch"
)

// FromConfig builds a publisher for every configured backend. A backend that
// cannot be reached is logged and skipped so the API still starts; an unknown
// backend name is an error.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Publisher, error) {
	var publishers Multi
	for _, backend := range cfg.EventBackends {
		switch backend {
		case BackendKafka:
			publishers = append(publishers, NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
		case BackendAMQP, "rabbitmq":
			p, err := NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				logger.Warn("events backend unavailable", "backend", backend, "error", err)
				continue
			}
			publishers = append(publishers, p)
		case BackendElasticsearch, "es":
			p, err := NewSearchIndexer(ctx, cfg.ESURL, cfg.ESUsername, cfg.ESPassword, cfg.ESIndex)
			if err != nil {
				logger.Warn("events backend unavailable", "backend", backend, "error", err)
				continue
			}
			publishers = append(publishers, p)
		default:
			return nil, fmt.Errorf("unknown events backend %q", backend)
		}
		logger.Info("events backend enabled", "backend", backend)
	}

	switch len(publishers) {
	case 0:
		return Noop{}, nil
	case 1:
		return publishers[0], nil
	default:
		return publishers, nil
	}
}

package main

import (
	"go.uber.org/zap"

	config "github.com/reelhouse/reelhouse/internal/config/api-gateway"
	"github.com/reelhouse/reelhouse/internal/domain/auth"
	kafkarepo "github.com/reelhouse/reelhouse/internal/repository/kafka"
)

// initAuthEvents wires the auth event sink when kafka is enabled. A nil sink
// is valid: the auth service treats it as a no-op.
func initAuthEvents(cfg *config.Config, logger *zap.Logger) (auth.EventSink, func()) {
	if !cfg.Kafka.Enable {
		return nil, func() {}
	}

	producer := kafkarepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
	sink := kafkarepo.NewAuthEvents(producer, logger)
	return sink, func() {
		sink.Close()
		_ = producer.Close()
	}
}

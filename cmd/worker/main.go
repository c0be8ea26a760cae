package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/calderos/moodlens/config"
	"github.com/calderos/moodlens/internal/clients"
	"github.com/calderos/moodlens/internal/clients/kafka_client"
	"github.com/calderos/moodlens/internal/consumers"
	"github.com/calderos/moodlens/internal/logging"
	"github.com/calderos/moodlens/internal/pipeline"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := kafka_client.GetKafkaConfig()

	for {
		err := kafka_client.InitProducer(cfg)
		if err == nil {
			break
		}

		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer kafka_client.CloseProducer()

	if os.Getenv("VALKEY_INIT_ADDRESS") != "" {
		if _, err := clients.InitValkey(); err != nil {
			slog.Warn("[Main] Valkey unavailable, dedupe disabled",
				slog.String("error", err.Error()))
		} else {
			defer clients.CloseValkey()
		}
	}

	analyzer := pipeline.NewAnalyzer(pipeline.ConfigFromEnv())

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_ANALYSIS_REQUESTS, func(ctx context.Context, consumer *kafka.Consumer) {
		consumers.StartAnalysisConsumer(ctx, consumer, analyzer)
	})

	if err := kafka_client.StartConsumer(ctx, cfg); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}

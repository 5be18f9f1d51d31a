package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	bookingrepo "courtside/internal/bookings/repository"
	bookingservice "courtside/internal/bookings/service"
	"courtside/pkg/config"
	"courtside/pkg/kafka"
	kafka_config "courtside/pkg/kafka/config"
	kafka_middleware "courtside/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "courtside-sweeper"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Courtside sweeper")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	sweeper := bookingservice.NewSweeper(
		bookingrepo.NewMongoBookingRepository(cfg),
		producer,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Run(ctx)
}

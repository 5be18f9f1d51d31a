package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	availrepo "courtside/internal/availability/repository"
	bookingrepo "courtside/internal/bookings/repository"
	bookingservice "courtside/internal/bookings/service"
	bookingvalidator "courtside/internal/bookings/validator"
	listingrepo "courtside/internal/listings/repository"
	listingservice "courtside/internal/listings/service"
	listingvalidator "courtside/internal/listings/validator"
	lockrepo "courtside/internal/locks/repository"
	paymentconsumer "courtside/internal/payments/consumer"
	"courtside/pkg/config"
	"courtside/pkg/kafka"
	kafka_config "courtside/pkg/kafka/config"
	kafka_middleware "courtside/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "courtside-payments-worker"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Courtside payments worker")

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

	handler := paymentconsumer.NewPaymentConsumer(initBookingService(cfg, producer), cfg)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.PaymentEventsTopic,
		cfg.PaymentConsumerGroup,
		cfg.PaymentEventsDLQTopic,
		handler.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Payments worker stopped")
}

func initBookingService(cfg *config.Config, producer *kafka.Producer) bookingservice.BookingService {
	listingService := listingservice.NewListingService(
		listingrepo.NewMongoListingRepository(cfg),
		listingvalidator.NewListingValidator(),
		cfg,
	)

	return bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		listingService,
		availrepo.NewMongoSlotRepository(cfg),
		lockrepo.NewListingLockRepository(cfg),
		producer,
		bookingvalidator.NewBookingValidator(),
		cfg,
	)
}

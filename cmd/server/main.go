package main

import (
	availhandler "courtside/internal/availability/handler"
	availrepo "courtside/internal/availability/repository"
	availservice "courtside/internal/availability/service"
	availvalidator "courtside/internal/availability/validator"
	bookinghandler "courtside/internal/bookings/handler"
	bookingrepo "courtside/internal/bookings/repository"
	bookingservice "courtside/internal/bookings/service"
	bookingvalidator "courtside/internal/bookings/validator"
	listinghandler "courtside/internal/listings/handler"
	listingrepo "courtside/internal/listings/repository"
	listingservice "courtside/internal/listings/service"
	listingvalidator "courtside/internal/listings/validator"
	lockrepo "courtside/internal/locks/repository"
	paymenthandler "courtside/internal/payments/handler"
	searchhandler "courtside/internal/search/handler"
	searchservice "courtside/internal/search/service"
	"courtside/pkg/app"
	"courtside/pkg/config"
	"courtside/pkg/contracts"
	"courtside/pkg/kafka"
	kafka_config "courtside/pkg/kafka/config"
	kafka_middleware "courtside/pkg/kafka/middleware"
	"courtside/pkg/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "courtside-api"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetAuth()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Courtside API")

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	serverApp := app.NewApplication()
	serverApp.Use(middleware.PathPrefix("/api/v1/search",
		middleware.ResponseCache(cfg.Client.Redis, "search", cfg.SearchCacheTTL, cfg.Log)))
	serverApp.Use(middleware.PathPrefix("/api/v1/bookings",
		middleware.RequireIdentity(cfg.Log)))
	if cfg.PaymentWebhookSecret != "" {
		serverApp.Use(middleware.PathPrefix("/api/v1/webhooks",
			middleware.WebhookSignatureVerification(cfg.PaymentWebhookSecret, cfg.Log)))
	}
	serverApp.SetApp(cfg, initHandlers(cfg, producer))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	return producer
}

func initHandlers(cfg *config.Config, producer *kafka.Producer) contracts.Handler {
	locks := lockrepo.NewListingLockRepository(cfg)

	listingRepo := listingrepo.NewMongoListingRepository(cfg)
	listingService := listingservice.NewListingService(
		listingRepo,
		listingvalidator.NewListingValidator(),
		cfg,
	)

	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	slotRepo := availrepo.NewMongoSlotRepository(cfg)

	slotService := availservice.NewSlotService(
		slotRepo,
		listingService,
		bookingRepo,
		locks,
		availvalidator.NewSlotValidator(),
		cfg,
	)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		listingService,
		slotRepo,
		locks,
		producer,
		bookingvalidator.NewBookingValidator(),
		cfg,
	)

	searchService := searchservice.NewSearchService(listingService, slotService, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return contracts.Compose(
		listinghandler.NewListingHandler(listingService, cfg.Log),
		availhandler.NewSlotHandler(slotService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		searchhandler.NewSearchHandler(searchService, cfg.Log),
		paymenthandler.NewWebhookHandler(bookingService, cfg.Log),
	)
}

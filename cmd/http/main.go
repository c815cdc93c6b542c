package main

import (
	"context"
	"log"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/app/delivery/http/routers"
	"maternity-service/internal/app/drivers/database"
	"maternity-service/internal/app/drivers/logger"
	"maternity-service/internal/app/drivers/messaging"
	"maternity-service/internal/app/drivers/storage"
	"maternity-service/internal/app/services/core/appointments"
	"maternity-service/internal/app/services/core/medications"
	"maternity-service/internal/app/services/core/payments"
	"maternity-service/internal/app/services/shared/locker"
	paymentGateway "maternity-service/internal/app/services/shared/payment_gateway"
	"maternity-service/internal/app/services/shared/ratelimiter"
	"maternity-service/internal/app/services/shared/redis"
	"maternity-service/internal/app/services/shared/settlementqueue"
	minioStorage "maternity-service/internal/app/services/shared/storage"
	"maternity-service/internal/pkg/constvars"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	logger := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	ctx := context.Background()

	postgresDB := database.NewPostgresDB(ctx, driverConfig)
	mongoDB := database.NewMongoDB(ctx, driverConfig)
	redisClient := database.NewRedisClient(ctx, driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig, internalConfig.RabbitMQ.SettlementQueue)
	minioClient := storage.NewMinio(ctx, driverConfig, internalConfig.Minio.ReceiptBucketName)
	chiRouter := chi.NewRouter()

	bootstrap := &config.Bootstrap{
		Router:         chiRouter,
		Postgres:       postgresDB,
		MongoDB:        mongoDB,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Minio:          minioClient,
		Logger:         logger,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}

	err = bootstrapingTheApp(bootstrap, location)
	if err != nil {
		log.Fatalf("Error bootstraping the app: %v", err)
	}

	server := &http.Server{
		Addr:    ":" + internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		logger.Info("Server started",
			zap.String("address", internalConfig.App.Address),
			zap.String("port", internalConfig.App.Port),
			zap.String("env", internalConfig.App.Env),
		)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	err = bootstrap.Shutdown(shutdownCtx)
	if err != nil {
		log.Printf("Error while closing dependencies: %v", err)
	}

	log.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap *config.Bootstrap, location *time.Location) error {
	clock := clockwork.NewRealClock()

	// Shared
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)
	lockService := locker.NewLockService(redisRepository, bootstrap.Logger)
	promptLimiter := ratelimiter.NewPromptLimiter(
		redisRepository,
		clock,
		bootstrap.InternalConfig.Prompt.Window,
		bootstrap.InternalConfig.Prompt.MaxPrompts,
		bootstrap.Logger,
	)
	receiptStorage := minioStorage.NewMinioStorage(bootstrap.Minio)

	settlementPublisher, err := settlementqueue.NewPublisher(
		bootstrap.RabbitMQ,
		bootstrap.InternalConfig.RabbitMQ.SettlementQueue,
		bootstrap.Logger,
	)
	if err != nil {
		return err
	}
	bootstrap.Publisher = settlementPublisher

	paynowService := paymentGateway.NewPaynowService(
		bootstrap.InternalConfig.Paynow,
		&http.Client{Timeout: bootstrap.InternalConfig.Paynow.RequestTimeout},
		bootstrap.Logger,
	)

	// Clinic records
	appointmentRepository := appointments.NewAppointmentPostgresRepository(bootstrap.Postgres)
	medicationRepository := medications.NewMedicationPostgresRepository(bootstrap.Postgres)

	// Payments
	paymentRepository := payments.NewPaymentPostgresRepository(bootstrap.Postgres)
	paymentJournalRepository := payments.NewPaymentJournalMongoRepository(
		bootstrap.MongoDB,
		bootstrap.DriverConfig.MongoDB.DbName,
	)

	receiptGenerator, err := payments.NewReceiptGenerator(
		bootstrap.InternalConfig.Receipt.Prefix,
		bootstrap.InternalConfig.Receipt.SnowflakeNode,
		clock,
		location,
	)
	if err != nil {
		return err
	}

	reconciler := payments.NewReconciler(
		paymentRepository,
		appointmentRepository,
		medicationRepository,
		receiptGenerator,
		clock,
		bootstrap.Logger,
	)

	paymentUsecase := payments.NewPaymentUsecase(
		paynowService,
		reconciler,
		paymentRepository,
		paymentJournalRepository,
		lockService,
		promptLimiter,
		[]contracts.SettlementSubscriber{
			payments.NewMetricsSubscriber(),
			payments.NewSettlementEventSubscriber(settlementPublisher),
			payments.NewReceiptArchiveSubscriber(
				receiptStorage,
				bootstrap.InternalConfig.Minio.ReceiptBucketName,
				location,
				bootstrap.Logger,
			),
		},
		clock,
		bootstrap.InternalConfig.Workflow,
		bootstrap.Logger,
	)
	bootstrap.PaymentShutdown = paymentUsecase.Shutdown

	sweeper := payments.NewSweeper(
		bootstrap.Logger,
		bootstrap.InternalConfig.Sweeper,
		lockService,
		paymentJournalRepository,
		paymentUsecase,
		clock,
	)
	sweeper.Start(context.Background())
	bootstrap.SweeperStop = sweeper.Stop

	// Delivery
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, bootstrap.InternalConfig)
	paymentController := controllers.NewPaymentController(bootstrap.Logger, paymentUsecase)

	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, middlewares, paymentController)

	bootstrap.Logger.Info("Application bootstrapped",
		zap.String("endpoint_prefix", bootstrap.InternalConfig.App.EndpointPrefix),
		zap.String("version", bootstrap.InternalConfig.App.Version),
		zap.String(constvars.LoggingQueueNameKey, bootstrap.InternalConfig.RabbitMQ.SettlementQueue),
		zap.String(constvars.LoggingBucketNameKey, bootstrap.InternalConfig.Minio.ReceiptBucketName),
	)
	return nil
}

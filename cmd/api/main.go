package main

import (
	"net/http"

	authhandler "birshibpur/internal/auth/handler"
	authrepo "birshibpur/internal/auth/repository"
	authservice "birshibpur/internal/auth/service"
	authvalidator "birshibpur/internal/auth/validator"
	bookinghandler "birshibpur/internal/bookings/handler"
	bookingrepo "birshibpur/internal/bookings/repository"
	bookingservice "birshibpur/internal/bookings/service"
	bookingvalidator "birshibpur/internal/bookings/validator"
	calchandler "birshibpur/internal/calculations/handler"
	calcrepo "birshibpur/internal/calculations/repository"
	calcservice "birshibpur/internal/calculations/service"
	calcvalidator "birshibpur/internal/calculations/validator"
	eventhandler "birshibpur/internal/events/handler"
	eventrepo "birshibpur/internal/events/repository"
	eventservice "birshibpur/internal/events/service"
	eventvalidator "birshibpur/internal/events/validator"
	galleryhandler "birshibpur/internal/gallery/handler"
	galleryrepo "birshibpur/internal/gallery/repository"
	galleryservice "birshibpur/internal/gallery/service"
	galleryvalidator "birshibpur/internal/gallery/validator"
	notificationhandler "birshibpur/internal/notifications/handler"
	notificationrepo "birshibpur/internal/notifications/repository"
	notificationservice "birshibpur/internal/notifications/service"
	"birshibpur/internal/realtime"
	"birshibpur/pkg/app"
	"birshibpur/pkg/config"
	mongotx "birshibpur/pkg/db/mongo"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/kafka"
	kafkamiddleware "birshibpur/pkg/kafka/middleware"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/media"
	"birshibpur/pkg/metrics"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/otp"
)

const ServiceName = "temple-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting temple API")
	m := metrics.New()
	serverApp := app.NewApplication(cfg, m)
	deps := initInfrastructure(cfg, m, serverApp)

	authService := authservice.NewAuthService(
		authrepo.NewMongoUserRepository(cfg),
		authrepo.NewMongoAdminRepository(cfg),
		identity.NewFirebaseVerifier(cfg.FirebaseProjectID, identity.NewGoogleCertSource(cfg.FirebaseCertsURL, http.DefaultClient)),
		identity.NewSessionIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		deps.codes,
		deps.mail,
		authvalidator.NewAuthValidator(cfg.Log),
		cfg,
	)
	authenticator := middleware.NewAuthenticator(authService, cfg.JWTIssuer, cfg.Log)

	hub := realtime.NewHub(cfg.Log, m)
	serverApp.AddWorkers(hub)

	notificationRepo := notificationrepo.NewMongoNotificationRepository(cfg)
	dispatcher := notificationservice.NewDispatcher(notificationRepo, hub, deps.mail, authService, deps.events, m, cfg)
	notificationService := notificationservice.NewNotificationService(notificationRepo, hub, deps.mail, authService, cfg)

	bookingService := bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		bookingvalidator.NewBookingValidator(cfg.Log, cfg.Location),
		authService,
		dispatcher,
		hub,
		cfg,
	)

	eventService := eventservice.NewEventService(
		eventrepo.NewMongoEventRepository(cfg, mongotx.NewTransactionManager(cfg.Client.Mongo)),
		eventvalidator.NewEventValidator(cfg.Log, cfg.Location),
		deps.media,
		cfg,
	)
	galleryService := galleryservice.NewGalleryService(
		galleryrepo.NewMongoGalleryRepository(cfg),
		galleryvalidator.NewGalleryValidator(cfg.Log),
		deps.media,
		cfg,
	)
	calculationService := calcservice.NewCalculationService(
		calcrepo.NewMongoCalculationRepository(cfg),
		calcvalidator.NewCalculationValidator(cfg.Log, cfg.Location),
		cfg,
	)

	serverApp.SetApp(
		deps.media.Handler(),
		realtime.NewHandler(hub, authenticator, bookingService, cfg.CORSAllowedOrigins, cfg.Log),
		authhandler.NewAuthHandler(authService, authenticator, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, authenticator, cfg.Location, cfg.Log),
		notificationhandler.NewNotificationHandler(notificationService, authenticator, cfg.Log),
		eventhandler.NewEventHandler(eventService, authenticator, cfg.Log),
		galleryhandler.NewGalleryHandler(galleryService, authenticator, cfg.Log),
		calchandler.NewCalculationHandler(calculationService, authenticator, cfg.Location, cfg.Log),
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	serverApp.Run()
}

type infrastructure struct {
	codes  otp.Store
	mail   *mailer.Mailer
	events notificationservice.EventPublisher
	media  *media.Store
}

// initInfrastructure picks optional backends from configuration: Redis
// for one-time codes, SMTP for mail and Kafka for booking events.
func initInfrastructure(cfg *config.Config, m *metrics.Metrics, serverApp *app.Application) infrastructure {
	var deps infrastructure

	if cfg.Client.Redis != nil {
		deps.codes = otp.NewRedisStore(cfg.Client.Redis, cfg.OTPTTL, cfg.OTPMaxAttempts)
		cfg.Log.Info("One-time codes stored in Redis")
	} else {
		memory := otp.NewMemoryStore(cfg.OTPTTL, cfg.OTPSweepInterval, cfg.OTPMaxAttempts)
		serverApp.AddWorkers(memory)
		deps.codes = memory
		cfg.Log.Info("One-time codes stored in memory")
	}

	var transport mailer.Transport
	if cfg.MailEnabled() {
		transport = mailer.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		cfg.Log.Warn("SMTP not configured, e-mail delivery disabled")
	}
	deps.mail = mailer.New(mailer.Config{
		From:       cfg.MailFrom,
		BatchSize:  cfg.MailBatchSize,
		BatchDelay: cfg.MailBatchDelay,
	}, transport, cfg.Log, m)

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(kafka.DefaultConfig(cfg.KafkaBrokers, cfg.KafkaBookingTopic), cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", logger.Err(err))
		}
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(m))
		serverApp.AddWorkers(producer)
		deps.events = kafka.NewBookingPublisher(producer, ServiceName, cfg.Location)
		cfg.Log.Info("Booking events published to Kafka", "topic", cfg.KafkaBookingTopic)
	}

	store, err := media.NewStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to prepare upload directory", "dir", cfg.UploadDir, logger.Err(err))
	}
	deps.media = store

	return deps
}

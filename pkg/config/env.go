package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"
	EnvMaxUploadSize  = "MAX_UPLOAD_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTIssuer = "JWT_ISSUER"
	EnvJWTTTL    = "JWT_TTL"

	EnvFirebaseProjectID = "FIREBASE_PROJECT_ID"
	EnvFirebaseCertsURL  = "FIREBASE_CERTS_URL"

	EnvSMTPHost          = "SMTP_HOST"
	EnvSMTPPort          = "SMTP_PORT"
	EnvSMTPUsername      = "SMTP_USERNAME"
	EnvSMTPPassword      = "SMTP_PASSWORD"
	EnvMailFrom          = "MAIL_FROM"
	EnvDefaultAdminEmail = "DEFAULT_ADMIN_EMAIL"
	EnvMailBatchSize     = "MAIL_BATCH_SIZE"
	EnvMailBatchDelay    = "MAIL_BATCH_DELAY"

	EnvOTPLength        = "OTP_LENGTH"
	EnvOTPTTL           = "OTP_TTL"
	EnvOTPSweepInterval = "OTP_SWEEP_INTERVAL"
	EnvOTPMaxAttempts   = "OTP_MAX_ATTEMPTS"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaBrokers      = "KAFKA_BROKERS"
	EnvKafkaBookingTopic = "KAFKA_BOOKING_TOPIC"

	EnvUploadDir     = "UPLOAD_DIR"
	EnvPublicBaseURL = "PUBLIC_BASE_URL"
	EnvFrontendURL   = "FRONTEND_URL"

	EnvTimeZone           = "TEMPLE_TIMEZONE"
	EnvTempleName         = "TEMPLE_NAME"
	EnvTempleAddress      = "TEMPLE_ADDRESS"
	EnvReceiptPrefix      = "RECEIPT_PREFIX"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	EnvMetricsEnabled     = "METRICS_ENABLED"

	EnvBootstrapAdminEmail    = "BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminPassword = "BOOTSTRAP_ADMIN_PASSWORD"
	EnvBootstrapAdminName     = "BOOTSTRAP_ADMIN_NAME"
)

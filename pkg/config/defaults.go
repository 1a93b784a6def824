package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "birshibpur"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024  // 1MB
	DefaultMaxUploadSize  = 10 * 1024 * 1024 // 10MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultJWTIssuer = "birshibpur-temple"
	DefaultJWTTTL    = 24 * time.Hour

	DefaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

	DefaultSMTPPort       = "587"
	DefaultMailBatchSize  = 10
	DefaultMailBatchDelay = 1 * time.Second

	DefaultOTPLength        = 6
	DefaultOTPTTL           = 10 * time.Minute
	DefaultOTPSweepInterval = 1 * time.Minute
	DefaultOTPMaxAttempts   = 5

	DefaultKafkaBookingTopic = "temple.booking-events"

	DefaultUploadDir     = "./uploads"
	DefaultPublicBaseURL = "http://localhost:8080"
	DefaultFrontendURL   = "http://localhost:5173"

	DefaultTimeZone      = "Asia/Kolkata"
	DefaultTempleName    = "Birshibpur Temple"
	DefaultReceiptPrefix = "BSP"

	DefaultPaginationLimit = 100
)

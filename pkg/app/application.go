package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"birshibpur/pkg/config"
	"birshibpur/pkg/contracts"
	"birshibpur/pkg/metrics"
	"birshibpur/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

const idempotencyHeader = "Idempotency-Key"

type Application struct {
	cfg              *config.Config
	metrics          *metrics.Metrics
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	workers          []contracts.Worker
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	streamHandler    http.Handler
	uploadsHandler   http.Handler
}

func NewApplication(cfg *config.Config, m *metrics.Metrics) *Application {
	return &Application{cfg: cfg, metrics: m}
}

// AddWorkers registers background loops stopped during shutdown, in
// registration order.
func (a *Application) AddWorkers(workers ...contracts.Worker) {
	a.workers = append(a.workers, workers...)
}

// SetApp builds the server. The realtime handler and static uploads
// bypass the timeout, rate limit and idempotency layers.
func (a *Application) SetApp(uploads http.Handler, stream contracts.Handler, handlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setAppHandler(handlers)
	a.setStreamHandler(stream)
	a.setUploadsHandler(uploads)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Client.Redis, a.cfg.Log).RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log, a.metrics)(h)
	h = middleware.Recovery(a.cfg.Log, a.metrics)(h)
	a.healthHandler = h
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, handler := range handlers {
		handler.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.DefaultKeyExtractor,
		a.cfg.Log,
	)

	var h http.Handler = appRouter
	h = middleware.Idempotency(a.idempotencyStore)(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.RateLimit(a.rateLimiter)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize), int64(a.cfg.MaxUploadSize))(h)
	h = a.corsPolicy().Handler(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RequestLogging(a.cfg.Log, a.metrics)(h)
	h = middleware.Recovery(a.cfg.Log, a.metrics)(h)
	a.appHttpHandler = h
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setStreamHandler(stream contracts.Handler) {
	if stream == nil {
		return
	}
	streamRouter := httprouter.New()
	stream.RegisterRoutes(streamRouter)

	var h http.Handler = streamRouter
	h = middleware.RequestLogging(a.cfg.Log, a.metrics)(h)
	h = middleware.Recovery(a.cfg.Log, a.metrics)(h)
	a.streamHandler = h
}

func (a *Application) setUploadsHandler(uploads http.Handler) {
	if uploads == nil {
		return
	}
	var h http.Handler = uploads
	h = a.corsPolicy().Handler(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.Recovery(a.cfg.Log, a.metrics)(h)
	a.uploadsHandler = h
}

// corsPolicy allows every origin when none are configured.
func (a *Application) corsPolicy() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", idempotencyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: len(a.cfg.CORSAllowedOrigins) > 0,
		MaxAge:           600,
	})
}

func (a *Application) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	if a.cfg.MetricsEnabled && a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}
	if a.streamHandler != nil {
		mux.Handle("/ws", a.streamHandler)
	}
	if a.uploadsHandler != nil {
		mux.Handle("/uploads/", a.uploadsHandler)
	}
	mux.Handle("/", a.appHttpHandler)
	return mux
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.routes(),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, w := range a.workers {
		w.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.Log.Info("Server stopped gracefully")
}

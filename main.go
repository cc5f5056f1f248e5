package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/events"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/store"
	"taskboard/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type application struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *store.TaskStore
	broker *events.Broker
	router *gin.Engine

	redisClient *redis.Client
	reminders   *worker.Worker
	detach      []func()
}

func newApplication(cfg *config.Config, log *logrus.Logger) *application {
	app := &application{
		cfg:   cfg,
		log:   log,
		store: store.New(),
	}
	app.broker = events.NewBroker(app.store, log)

	var scheduler handlers.ReminderScheduler
	if cfg.Redis.Enabled {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		publisher := events.NewPublisher(app.redisClient, cfg.Redis.EventChannel, log)
		app.detach = append(app.detach, publisher.Attach(app.store))

		scheduler = worker.NewJobQueue(app.redisClient, worker.DefaultQueue)

		app.reminders = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  app.redisClient,
			Logger:       log,
			PollInterval: cfg.Worker.PollInterval,
			Queues:       cfg.Worker.Queues,
		})
		app.reminders.RegisterHandler(worker.JobTypeTaskReminder, worker.LogReminder(log))
	}

	app.router = buildRouter(cfg, log, app.store, app.broker, scheduler, app.redisClient)
	return app
}

func buildRouter(
	cfg *config.Config,
	log *logrus.Logger,
	st *store.TaskStore,
	broker *events.Broker,
	scheduler handlers.ReminderScheduler,
	redisClient *redis.Client,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		}))
	}

	taskHandler := handlers.NewTaskHandler(st, scheduler, log)
	categoryHandler := handlers.NewCategoryHandler(st)
	statsHandler := handlers.NewStatsHandler(st)

	api := router.Group("/api")
	mutating := api.Group("")
	if cfg.Auth.Enabled {
		mutating.Use(middleware.Auth(middleware.AuthConfig{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
		}))
	}

	mutating.POST("/tasks", taskHandler.CreateTask)
	mutating.PUT("/tasks/:id", taskHandler.UpdateTask)
	mutating.DELETE("/tasks", taskHandler.DeleteTasks)
	mutating.POST("/categories", categoryHandler.CreateCategory)

	api.GET("/tasks", taskHandler.GetTasks)
	api.GET("/categories", categoryHandler.GetCategories)
	api.GET("/stats", statsHandler.GetStats)
	api.GET("/events", broker.StreamTasks)

	checker := monitoring.NewHealthChecker()
	checker.Register("store", func(ctx context.Context) error {
		_ = st.Tasks()
		return nil
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router.GET("/health", monitoring.HealthHandler(checker))
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/health/ready", monitoring.ReadinessHandler(checker))
	router.GET("/metrics", monitoring.MetricsHandler(st))

	return router
}

func (app *application) close() {
	for _, detach := range app.detach {
		detach()
	}
	if app.reminders != nil {
		app.reminders.Stop()
	}
	app.broker.Close()
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.log.WithError(err).Warn("closing redis client")
		}
	}
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	app := newApplication(cfg, log)
	defer app.close()

	if app.reminders != nil {
		app.reminders.Start(cfg.Worker.Concurrency)
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("taskboard backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}

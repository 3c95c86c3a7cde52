package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/logger"
	"backoffice/internal/middleware"
	"backoffice/internal/notify"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/storage"
	"backoffice/internal/websocket"
	"backoffice/internal/workflow"
)

// @title           Allocation Requests API
// @version         1.0
// @description     Back office workflow for allocating unmatched EFT and EasyPay payments to policies.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DB, zlog)
	if err != nil {
		return err
	}
	zlog.Info("connected to postgres", zap.String("host", cfg.DB.Host), zap.String("database", cfg.DB.Name))

	mongoClient, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	zlog.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog.Named("ws"))
	go wsHub.Run(ctx)

	// Notification sinks: the websocket hub always, RabbitMQ when configured.
	sinks := notify.Fanout{notify.NewHubNotifier(wsHub)}
	if cfg.RabbitMQ.URL != "" {
		conn, ch, err := notify.DialAMQP(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()
		amqpNotifier := notify.NewAMQPNotifier(ch, cfg.RabbitMQ.Exchange)
		sinks = append(sinks, notify.WithBreaker("rabbitmq", amqpNotifier, notify.DefaultBreakerConfig, zlog))
		zlog.Info("publishing notifications to rabbitmq", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}
	dispatcher := notify.NewDispatcher(sinks, cfg.NotifyTimeout, zlog.Named("notify"))

	// Set up dependencies (Repository -> Service -> Handler)
	allocationRepo := repository.NewAllocationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	evidenceStore := storage.NewGridFSStore(mongoDB, cfg.PublicBaseURL)

	allocationService := service.NewAllocationService(service.AllocationDeps{
		Requests:   allocationRepo,
		Audit:      auditRepo,
		TxManager:  repository.NewTransactionManager(db),
		Resolver:   repository.NewTransactionResolver(mongoDB),
		Policies:   repository.NewPolicyRepository(mongoDB),
		Evidence:   evidenceStore,
		Dispatcher: dispatcher,
		Logger:     zlog.Named("allocation"),
	}, service.Options{ValidatePolicy: cfg.ValidatePolicy})
	auditService := service.NewAuditService(auditRepo, allocationRepo)
	statisticsService := service.NewStatisticsService(repository.NewStatisticsRepository(db))

	var jobs handler.ScanJobs
	if cfg.Temporal.Enabled() {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
			Logger:    logger.Temporal(zlog.Named("temporal")),
		})
		if err != nil {
			return err
		}
		defer tc.Close()
		jobs = workflow.NewJobs(tc)
		zlog.Info("background scans enabled", zap.String("temporal", cfg.Temporal.Host))
	}

	// Initialize Handlers
	handler.RegisterValidators()
	allocationHandler := handler.NewAllocationHandler(allocationService, jobs, zlog)
	auditHandler := handler.NewAuditHandler(auditService, zlog)
	evidenceHandler := handler.NewEvidenceHandler(evidenceStore, zlog)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, zlog)

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	// API Routing
	api := router.Group("", middleware.RequireAuth(cfg.JWTSecret))
	allocationHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	evidenceHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("graceful shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
	return nil
}

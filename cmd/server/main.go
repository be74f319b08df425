package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/api"
	"flowproject-backend-go/internal/cache"
	"flowproject-backend-go/internal/config"
	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/events"
	"flowproject-backend-go/internal/identity"
	"flowproject-backend-go/internal/logging"
	"flowproject-backend-go/internal/middleware"
	"flowproject-backend-go/internal/realtime"
)

func main() {
	if err := logging.LoadDotEnv(); err != nil {
		log.Println("Warning: Error loading .env file:", err)
	}

	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := logging.New(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 3. Initialize Firebase Admin SDK ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	clients, err := db.InitFirebase(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	// --- 4. Optional infrastructure: membership cache and event publisher ---
	var membershipCache core.MembershipCache = cache.Noop{}
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisMembershipCache(initCtx, cache.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			TTL:      appConfig.MembershipCacheTTL,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable, membership cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			membershipCache = redisCache
		}
	} else {
		zapLogger.Info("REDIS_ADDR not set, membership cache disabled")
	}

	var publisher core.EventPublisher
	if appConfig.RabbitMQURL != "" {
		p, err := events.NewPublisher(appConfig.RabbitMQURL, appConfig.ProvisioningQueue, zapLogger)
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, provisioning events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	} else {
		zapLogger.Info("RABBITMQ_URL not set, provisioning events disabled")
	}

	// --- 5. Initialize Repositories ---
	fs := clients.Firestore
	platformUserRepo := db.NewFirestorePlatformUserRepository(fs)
	membershipRepo := db.NewFirestoreMembershipRepository(fs)
	companyRepo := db.NewFirestoreCompanyRepository(fs)
	companyUserRepo := db.NewFirestoreCompanyUserRepository(fs)
	teamRepo := db.NewFirestoreTeamRepository(fs)
	projectRepo := db.NewFirestoreProjectRepository(fs, zapLogger)
	auditRepo := db.NewFirestoreAuditRepository(fs)

	// --- 6. Initialize Services ---
	auditService := core.NewAuditService(auditRepo)
	sessionService := core.NewSessionService(platformUserRepo, membershipRepo, companyUserRepo, membershipCache, zapLogger)
	provisioningService := core.NewProvisioningService(
		sessionService,
		companyRepo,
		companyUserRepo,
		teamRepo,
		identity.NewFirebaseProvider(clients.Auth),
		auditService,
		publisher,
		membershipCache,
		zapLogger,
	)
	services := api.Services{
		Provisioning: provisioningService,
		Companies:    core.NewCompanyService(companyRepo, auditService, zapLogger),
		Users:        core.NewUserService(companyUserRepo, teamRepo, auditService, zapLogger),
		Teams:        core.NewTeamService(teamRepo, companyUserRepo, auditService, zapLogger),
		Projects:     core.NewProjectService(projectRepo, teamRepo, auditService, zapLogger),
	}
	hub := realtime.NewHub(projectRepo, teamRepo, services.Projects, sessionService, zapLogger)

	// --- 7. Setup Gin HTTP Engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(
		router,
		zapLogger,
		middleware.NewAuthMiddleware(clients.Auth, zapLogger),
		middleware.NewTenantMiddleware(sessionService, zapLogger),
		services,
		hub,
		middleware.AllowedOrigins(appConfig),
	)

	// --- 8. Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 9. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Hijacked board sockets are not tracked by Shutdown; closing the hub ends their listeners.
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}

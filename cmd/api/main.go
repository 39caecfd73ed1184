package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "panjar/api/swagger" // swagger docs
	"panjar/internal/config"
	"panjar/internal/database"
	"panjar/internal/handler"
	"panjar/internal/middleware"
	"panjar/internal/repository"
	"panjar/internal/service"
	"panjar/internal/websocket"
	"panjar/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Panjar API
// @version         1.0
// @description     Cash advance requests with item level review for school administration.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		logger.Log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		logger.Log.Fatalf("Database connection failed: %v", err)
	}
	logger.Log.Info("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	panjarRepo := repository.NewPanjarRepository(db)
	itemRepo := repository.NewPanjarItemRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	history := service.NewHistoryRecorder(historyRepo, itemRepo)
	aggregator := service.NewStatusAggregator(panjarRepo, itemRepo)

	userService := service.NewUserService(userRepo, roleRepo, service.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	roleService := service.NewRoleService(roleRepo, userRepo, txManager)
	itemService := service.NewItemService(itemRepo, panjarRepo, auditRepo, history, aggregator, txManager, wsHub)
	panjarService := service.NewPanjarService(panjarRepo, itemRepo, unitRepo, auditRepo, history, aggregator, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	if cfg.AdminPassword != "" {
		created, err := userService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Log.WithError(err).Warn("failed to create initial admin")
		} else if created {
			logger.Log.WithField("username", cfg.AdminUsername).Info("initial admin account created")
		}
	}

	auth := middleware.NewAuth([]byte(cfg.JWTSecret), cfg.SecureCookies())

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, auth, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	roleHandler := handler.NewRoleHandler(roleService, userService, auth)
	panjarHandler := handler.NewPanjarHandler(panjarService, itemService, auth)
	itemHandler := handler.NewItemHandler(itemService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, auth)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

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
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	panjarHandler.RegisterRoutes(router.Group(""))
	itemHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server listening on :%s", cfg.Port)
		serveErr <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.Log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.WithError(err).Error("graceful shutdown failed")
		}
	}
}

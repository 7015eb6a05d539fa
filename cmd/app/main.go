package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"dnkquest-backend/internal/api"
	"dnkquest-backend/internal/middleware"
	"dnkquest-backend/internal/repository"
	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	paymentService, err := service.NewPaymentService(cfg.Chain)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payment service", zap.Error(err))
	}

	var probe service.URLProbe
	if cfg.Verification.ProbeURLs {
		probe = service.NewRestyProbe(10 * time.Second)
	}
	engine := service.NewVerificationEngine(probe)

	userService := service.NewUserService(repo)
	questService := service.NewQuestService(repo, paymentService, cfg.Chain.QuestFeeDoge)
	submissionService := service.NewSubmissionService(repo, repo)
	progressService := service.NewProgressService(repo, repo, submissionService, engine, service.ProgressConfig{
		Cooldown:   cfg.Verification.Cooldown(),
		GraceDelay: cfg.Verification.GraceDelay(),
	})

	walletAuth := auth.NewWalletAuth(cfg.Auth.DebugMode)
	authz := middleware.NewAuthorization(userService, cfg.Auth.AdminWallets)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, walletAuth)
	api.NewQuestRoutes(a, questService, submissionService, walletAuth, authz)
	api.NewProgressRoutes(a, progressService, walletAuth)
	api.NewSubmissionRoutes(a, submissionService, walletAuth, authz)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
